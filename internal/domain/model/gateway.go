package model

import "time"

type GatewayMode string

const (
	GatewayModeSandbox GatewayMode = "sandbox"
	GatewayModeLive    GatewayMode = "live"
)

// GatewayConfig is the admin-managed configuration row for one payment
// provider. Settings holds provider-specific secrets (API keys, checksum
// secrets) encrypted at rest; adapters receive the decrypted map at
// construction and never read this row again.
type GatewayConfig struct {
	ID        string // UUID
	Slug      string // unique: "bayarcash", "senangpay", "paypal", "stripe"
	Name      string
	Active    bool
	Mode      GatewayMode
	Settings  map[string]string
	CreatedAt time.Time
	UpdatedAt time.Time
}
