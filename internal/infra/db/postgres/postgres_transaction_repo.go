package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"freelancer-marketplace/internal/domain"
	"freelancer-marketplace/internal/domain/model"
	"freelancer-marketplace/internal/domain/ports/repository"
)

var _ repository.TransactionRepository = (*transactionRepo)(nil)

type transactionRepo struct{ pool *pgxpool.Pool }

func NewTransactionRepo(pool *pgxpool.Pool) *transactionRepo {
	return &transactionRepo{pool: pool}
}

const transactionColumns = `id, order_number, transaction_id, subject_kind, subject_id, user_id, amount_cents, currency, gateway, status, payment_method, payload, created_at, updated_at, paid_at`

func scanTransaction(row pgx.Row) (*model.Transaction, error) {
	t := &model.Transaction{}
	var cents int64
	if err := row.Scan(&t.ID, &t.OrderNumber, &t.TransactionID, &t.SubjectKind, &t.SubjectID, &t.UserID, &cents, &t.Currency, &t.Gateway, &t.Status, &t.PaymentMethod, &t.Payload, &t.CreatedAt, &t.UpdatedAt, &t.PaidAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	t.Amount = centsToAmount(cents)
	return t, nil
}

func (r *transactionRepo) Save(ctx context.Context, tx repository.Tx, t *model.Transaction) error {
	const q = `
INSERT INTO transactions (
  id, order_number, transaction_id, subject_kind, subject_id, user_id, amount_cents, currency, gateway, status, payment_method, payload, created_at, updated_at, paid_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15
) ON CONFLICT (id) DO UPDATE SET
  transaction_id=$3, status=$10, payment_method=$11, payload=$12, updated_at=$14, paid_at=$15;`

	_, err := execSQL(ctx, r.pool, tx, q, t.ID, t.OrderNumber, t.TransactionID, t.SubjectKind, t.SubjectID, t.UserID, amountToCents(t.Amount), t.Currency, t.Gateway, t.Status, t.PaymentMethod, t.Payload, t.CreatedAt, t.UpdatedAt, t.PaidAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *transactionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Transaction, error) {
	const q = `SELECT ` + transactionColumns + ` FROM transactions WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanTransaction(row)
}

func (r *transactionRepo) FindByOrderNumber(ctx context.Context, tx repository.Tx, orderNumber string) (*model.Transaction, error) {
	q := `SELECT ` + transactionColumns + ` FROM transactions WHERE order_number=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, orderNumber)
	if err != nil {
		return nil, err
	}
	return scanTransaction(row)
}

func (r *transactionRepo) Finalize(ctx context.Context, tx repository.Tx, orderNumber string, status model.TransactionStatus, transactionID *string, payload []byte, paidAt *time.Time) error {
	const q = `
UPDATE transactions
   SET status=$2,
       transaction_id=COALESCE($3, transaction_id),
       payload=COALESCE($4, payload),
       paid_at=COALESCE($5, paid_at),
       updated_at=NOW()
 WHERE order_number=$1
   AND status='pending';`

	cmd, err := execSQL(ctx, r.pool, tx, q, orderNumber, status, transactionID, payload, paidAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrAlreadyProcessed
	}
	return nil
}

func (r *transactionRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Transaction, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT ` + transactionColumns + ` FROM transactions WHERE status='pending' AND created_at < $1 ORDER BY created_at ASC LIMIT $2;`
	return r.list(ctx, tx, q, olderThan, limit)
}

func (r *transactionRepo) ListUnreconciled(ctx context.Context, tx repository.Tx, limit int) ([]*model.Transaction, error) {
	if limit <= 0 {
		limit = 100
	}
	// A success transaction is unreconciled when its subject never moved:
	// the order is still awaiting payment or the subscription is still
	// pending.
	const q = `
SELECT ` + transactionColumns + `
  FROM transactions t
 WHERE t.status='success'
   AND (
        (t.subject_kind='order' AND EXISTS (
            SELECT 1 FROM orders o WHERE o.id=t.subject_id AND o.status='pending_payment'))
     OR (t.subject_kind='subscription' AND EXISTS (
            SELECT 1 FROM subscriptions s WHERE s.id=t.subject_id AND s.status='pending'))
   )
 ORDER BY t.updated_at ASC
 LIMIT $1;`
	return r.list(ctx, tx, q, limit)
}

func (r *transactionRepo) List(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.Transaction, int, error) {
	if limit <= 0 {
		limit = 50
	}
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM transactions;`)
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := row.Scan(&total); err != nil {
		return nil, 0, domain.ErrReadDatabaseRow
	}

	const q = `SELECT ` + transactionColumns + ` FROM transactions ORDER BY created_at DESC OFFSET $1 LIMIT $2;`
	out, err := r.list(ctx, tx, q, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *transactionRepo) list(ctx context.Context, tx repository.Tx, q string, args ...interface{}) ([]*model.Transaction, error) {
	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		switch err {
		case pgx.ErrNoRows:
			return nil, domain.ErrNotFound
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()

	var out []*model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
