package repository

import (
	"context"
	"time"

	"freelancer-marketplace/internal/domain/model"
)

type TransactionRepository interface {
	Save(ctx context.Context, tx Tx, t *model.Transaction) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Transaction, error)
	// FindByOrderNumber locks the row FOR UPDATE when tx is a live handle.
	FindByOrderNumber(ctx context.Context, tx Tx, orderNumber string) (*model.Transaction, error)
	// Finalize moves a pending transaction to a terminal status and stores
	// the gateway transaction id and raw payload. Returns
	// domain.ErrAlreadyProcessed when the row is no longer pending; the
	// conditional UPDATE makes the check-and-set atomic.
	Finalize(ctx context.Context, tx Tx, orderNumber string, status model.TransactionStatus, transactionID *string, payload []byte, paidAt *time.Time) error
	ListPendingOlderThan(ctx context.Context, tx Tx, olderThan time.Time, limit int) ([]*model.Transaction, error)
	// ListUnreconciled returns success transactions whose subject activation
	// has not landed yet (order still pending_payment / subscription still
	// pending).
	ListUnreconciled(ctx context.Context, tx Tx, limit int) ([]*model.Transaction, error)
	List(ctx context.Context, tx Tx, offset, limit int) ([]*model.Transaction, int, error)
}
