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

var _ repository.OrderRepository = (*orderRepo)(nil)

type orderRepo struct{ pool *pgxpool.Pool }

func NewOrderRepo(pool *pgxpool.Pool) *orderRepo {
	return &orderRepo{pool: pool}
}

const orderColumns = `id, order_number, customer_id, freelancer_id, service_id, booking_date, agreed_price_cents, status, payment_slip_uploaded_at, freelancer_responded_at, delivery_deadline_at, delivered_at, completed_at, cancelled_at, cancellation_reason, created_at, updated_at`

func scanOrder(row pgx.Row) (*model.Order, error) {
	o := &model.Order{}
	var cents int64
	if err := row.Scan(&o.ID, &o.OrderNumber, &o.CustomerID, &o.FreelancerID, &o.ServiceID, &o.BookingDate, &cents, &o.Status, &o.PaymentSlipUploadedAt, &o.FreelancerRespondedAt, &o.DeliveryDeadlineAt, &o.DeliveredAt, &o.CompletedAt, &o.CancelledAt, &o.CancellationReason, &o.CreatedAt, &o.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	o.AgreedPrice = centsToAmount(cents)
	return o, nil
}

func (r *orderRepo) Create(ctx context.Context, tx repository.Tx, o *model.Order) error {
	const q = `
INSERT INTO orders (
  id, order_number, customer_id, freelancer_id, service_id, booking_date, agreed_price_cents, status, payment_slip_uploaded_at, freelancer_responded_at, delivery_deadline_at, delivered_at, completed_at, cancelled_at, cancellation_reason, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17
);`

	_, err := execSQL(ctx, r.pool, tx, q, o.ID, o.OrderNumber, o.CustomerID, o.FreelancerID, o.ServiceID, o.BookingDate, amountToCents(o.AgreedPrice), o.Status, o.PaymentSlipUploadedAt, o.FreelancerRespondedAt, o.DeliveryDeadlineAt, o.DeliveredAt, o.CompletedAt, o.CancelledAt, o.CancellationReason, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		// The partial unique index on (freelancer_id, booking_date) over
		// non-terminal orders enforces one active booking per day.
		if isUniqueViolation(err) {
			return domain.ErrBookingDateTaken
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *orderRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanOrder(row)
}

func (r *orderRepo) FindByOrderNumber(ctx context.Context, tx repository.Tx, orderNumber string) (*model.Order, error) {
	const q = `SELECT ` + orderColumns + ` FROM orders WHERE order_number=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, orderNumber)
	if err != nil {
		return nil, err
	}
	return scanOrder(row)
}

func (r *orderRepo) UpdateStatus(ctx context.Context, tx repository.Tx, o *model.Order, from model.OrderStatus) error {
	const q = `
UPDATE orders
   SET status=$2,
       payment_slip_uploaded_at=$3,
       freelancer_responded_at=$4,
       delivery_deadline_at=$5,
       delivered_at=$6,
       completed_at=$7,
       cancelled_at=$8,
       cancellation_reason=$9,
       updated_at=$10
 WHERE id=$1
   AND status=$11;`

	cmd, err := execSQL(ctx, r.pool, tx, q, o.ID, o.Status, o.PaymentSlipUploadedAt, o.FreelancerRespondedAt, o.DeliveryDeadlineAt, o.DeliveredAt, o.CompletedAt, o.CancelledAt, o.CancellationReason, o.UpdatedAt, from)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrInvalidTransition
	}
	return nil
}

func (r *orderRepo) ListUnrespondedSince(ctx context.Context, tx repository.Tx, cutoff time.Time, limit int) ([]*model.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT ` + orderColumns + ` FROM orders WHERE status='pending_approval' AND payment_slip_uploaded_at < $1 ORDER BY payment_slip_uploaded_at ASC LIMIT $2;`
	return r.list(ctx, tx, q, cutoff, limit)
}

func (r *orderRepo) ListDeliveredSince(ctx context.Context, tx repository.Tx, cutoff time.Time, limit int) ([]*model.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT ` + orderColumns + ` FROM orders WHERE status='delivered' AND delivered_at < $1 ORDER BY delivered_at ASC LIMIT $2;`
	return r.list(ctx, tx, q, cutoff, limit)
}

func (r *orderRepo) list(ctx context.Context, tx repository.Tx, q string, args ...interface{}) ([]*model.Order, error) {
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

	var out []*model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}
