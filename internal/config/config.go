package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int    `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type ServerConfig struct {
	Port int `yaml:"port"` // public callback/return endpoints
	// Rate limit for the unauthenticated callback endpoint.
	CallbackRateLimit  int           `yaml:"callback_rate_limit"`
	CallbackRateWindow time.Duration `yaml:"callback_rate_window"`
}

type AdminConfig struct {
	Port       int           `yaml:"port"`
	JWTSecret  string        `yaml:"jwt_secret"`
	SessionTTL time.Duration `yaml:"session_ttl"`
	APIKey     string        `yaml:"api_key"` // login credential for minting a session
	UserIDs    []string      `yaml:"user_ids"`
}

// GatewayConfig mirrors one payment_gateways row for bootstrap/seed use.
// At runtime adapters read the database row, not this block.
type GatewayConfig struct {
	Name     string            `yaml:"name"`
	Active   bool              `yaml:"active"`
	Mode     string            `yaml:"mode"` // sandbox|live
	Settings map[string]string `yaml:"settings"`
}

type PaymentConfig struct {
	Currency    string                   `yaml:"currency"`
	ReturnURL   string                   `yaml:"return_url"`
	CallbackURL string                   `yaml:"callback_url"`
	Gateways    map[string]GatewayConfig `yaml:"gateways"`
}

type SweepConfig struct {
	Interval            time.Duration `yaml:"interval"`
	ApprovalTimeout     time.Duration `yaml:"approval_timeout"`    // pending_approval auto-cancel
	AutoCompleteAfter   time.Duration `yaml:"auto_complete_after"` // delivered auto-complete
	DeliveryWindow      time.Duration `yaml:"delivery_window"`     // deadline set on accept
	SsmGraceDays        int           `yaml:"ssm_grace_days"`
	ReconcileStaleAfter time.Duration `yaml:"reconcile_stale_after"`
	BatchLimit          int           `yaml:"batch_limit"`
}

type SecurityConfig struct {
	EncryptionKey string `yaml:"encryption_key"` // 32 bytes, AES-256-GCM
}

type Config struct {
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Server   ServerConfig   `yaml:"server"`
	Admin    AdminConfig    `yaml:"admin"`
	Payment  PaymentConfig  `yaml:"payment"`
	Sweep    SweepConfig    `yaml:"sweep"`
	Security SecurityConfig `yaml:"security"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Runtime.Dev = dev
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Database.MaxConns <= 0 {
		c.Database.MaxConns = 10
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.CallbackRateLimit <= 0 {
		c.Server.CallbackRateLimit = 60
	}
	if c.Server.CallbackRateWindow <= 0 {
		c.Server.CallbackRateWindow = time.Minute
	}
	if c.Admin.Port == 0 {
		c.Admin.Port = 8081
	}
	if c.Admin.SessionTTL <= 0 {
		c.Admin.SessionTTL = 30 * time.Minute
	}
	if c.Payment.Currency == "" {
		c.Payment.Currency = "MYR"
	}
	if c.Sweep.Interval <= 0 {
		c.Sweep.Interval = time.Hour
	}
	if c.Sweep.ApprovalTimeout <= 0 {
		c.Sweep.ApprovalTimeout = 24 * time.Hour
	}
	if c.Sweep.AutoCompleteAfter <= 0 {
		c.Sweep.AutoCompleteAfter = 72 * time.Hour
	}
	if c.Sweep.DeliveryWindow <= 0 {
		c.Sweep.DeliveryWindow = 7 * 24 * time.Hour
	}
	if c.Sweep.SsmGraceDays <= 0 {
		c.Sweep.SsmGraceDays = 60
	}
	if c.Sweep.ReconcileStaleAfter <= 0 {
		c.Sweep.ReconcileStaleAfter = 10 * time.Minute
	}
	if c.Sweep.BatchLimit <= 0 {
		c.Sweep.BatchLimit = 200
	}
}
