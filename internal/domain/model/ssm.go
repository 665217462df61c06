package model

import "time"

type SsmStatus string

const (
	SsmStatusPending  SsmStatus = "pending"
	SsmStatusVerified SsmStatus = "verified"
	SsmStatusFailed   SsmStatus = "failed"
	SsmStatusExpired  SsmStatus = "expired"
)

// SsmVerification tracks a freelancer's SSM (business registration)
// certificate. One row per user. Grace fields are written only by the
// sweep engine once the certificate passes its expiry date.
type SsmVerification struct {
	ID                string // UUID
	UserID            string // unique
	Status            SsmStatus
	ExpiryDate        *time.Time
	GracePeriodEndsAt *time.Time
	ServicesHiddenAt  *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
