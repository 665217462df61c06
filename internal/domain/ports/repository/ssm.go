package repository

import (
	"context"
	"time"

	"freelancer-marketplace/internal/domain/model"
)

type SsmVerificationRepository interface {
	Save(ctx context.Context, tx Tx, v *model.SsmVerification) error
	FindByUserID(ctx context.Context, tx Tx, userID string) (*model.SsmVerification, error)
	// ListExpiredWithoutGrace returns verified rows whose ExpiryDate has
	// passed and that have no grace window yet.
	ListExpiredWithoutGrace(ctx context.Context, tx Tx, now time.Time, limit int) ([]*model.SsmVerification, error)
	// ListGraceElapsed returns non-verified rows whose grace window has
	// elapsed and whose services are not yet hidden.
	ListGraceElapsed(ctx context.Context, tx Tx, now time.Time, limit int) ([]*model.SsmVerification, error)
	// ListGraceEndingOn returns rows whose grace window ends exactly on the
	// given calendar day (date-truncated match).
	ListGraceEndingOn(ctx context.Context, tx Tx, day time.Time, limit int) ([]*model.SsmVerification, error)
	StartGrace(ctx context.Context, tx Tx, id string, graceEndsAt, now time.Time) error
	MarkServicesHidden(ctx context.Context, tx Tx, id string, now time.Time) error
}

// ServiceRepository is the minimal surface the SSM sweep needs to hide a
// delinquent freelancer's listings.
type ServiceRepository interface {
	DeactivateByUser(ctx context.Context, tx Tx, userID string) (int, error)
}
