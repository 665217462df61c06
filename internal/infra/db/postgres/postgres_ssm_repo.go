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

var _ repository.SsmVerificationRepository = (*ssmRepo)(nil)

type ssmRepo struct{ pool *pgxpool.Pool }

func NewSsmRepo(pool *pgxpool.Pool) *ssmRepo {
	return &ssmRepo{pool: pool}
}

const ssmColumns = `id, user_id, status, expiry_date, grace_period_ends_at, services_hidden_at, created_at, updated_at`

func scanSsm(row pgx.Row) (*model.SsmVerification, error) {
	v := &model.SsmVerification{}
	if err := row.Scan(&v.ID, &v.UserID, &v.Status, &v.ExpiryDate, &v.GracePeriodEndsAt, &v.ServicesHiddenAt, &v.CreatedAt, &v.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return v, nil
}

func (r *ssmRepo) Save(ctx context.Context, tx repository.Tx, v *model.SsmVerification) error {
	const q = `
INSERT INTO ssm_verifications (
  id, user_id, status, expiry_date, grace_period_ends_at, services_hidden_at, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8
) ON CONFLICT (user_id) DO UPDATE SET
  status=$3, expiry_date=$4, grace_period_ends_at=$5, services_hidden_at=$6, updated_at=$8;`

	_, err := execSQL(ctx, r.pool, tx, q, v.ID, v.UserID, v.Status, v.ExpiryDate, v.GracePeriodEndsAt, v.ServicesHiddenAt, v.CreatedAt, v.UpdatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *ssmRepo) FindByUserID(ctx context.Context, tx repository.Tx, userID string) (*model.SsmVerification, error) {
	const q = `SELECT ` + ssmColumns + ` FROM ssm_verifications WHERE user_id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, err
	}
	return scanSsm(row)
}

func (r *ssmRepo) ListExpiredWithoutGrace(ctx context.Context, tx repository.Tx, now time.Time, limit int) ([]*model.SsmVerification, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT ` + ssmColumns + ` FROM ssm_verifications WHERE status='verified' AND expiry_date < $1 AND grace_period_ends_at IS NULL ORDER BY expiry_date ASC LIMIT $2;`
	return r.list(ctx, tx, q, now, limit)
}

func (r *ssmRepo) ListGraceElapsed(ctx context.Context, tx repository.Tx, now time.Time, limit int) ([]*model.SsmVerification, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT ` + ssmColumns + ` FROM ssm_verifications WHERE status='expired' AND grace_period_ends_at < $1 AND services_hidden_at IS NULL ORDER BY grace_period_ends_at ASC LIMIT $2;`
	return r.list(ctx, tx, q, now, limit)
}

func (r *ssmRepo) ListGraceEndingOn(ctx context.Context, tx repository.Tx, day time.Time, limit int) ([]*model.SsmVerification, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT ` + ssmColumns + ` FROM ssm_verifications WHERE status='expired' AND services_hidden_at IS NULL AND DATE(grace_period_ends_at) = DATE($1) ORDER BY grace_period_ends_at ASC LIMIT $2;`
	return r.list(ctx, tx, q, day, limit)
}

func (r *ssmRepo) StartGrace(ctx context.Context, tx repository.Tx, id string, graceEndsAt, now time.Time) error {
	const q = `UPDATE ssm_verifications SET status='expired', grace_period_ends_at=$2, updated_at=$3 WHERE id=$1 AND grace_period_ends_at IS NULL;`
	cmd, err := execSQL(ctx, r.pool, tx, q, id, graceEndsAt, now)
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

func (r *ssmRepo) MarkServicesHidden(ctx context.Context, tx repository.Tx, id string, now time.Time) error {
	const q = `UPDATE ssm_verifications SET services_hidden_at=$2, updated_at=$2 WHERE id=$1 AND services_hidden_at IS NULL;`
	cmd, err := execSQL(ctx, r.pool, tx, q, id, now)
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

func (r *ssmRepo) list(ctx context.Context, tx repository.Tx, q string, args ...interface{}) ([]*model.SsmVerification, error) {
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

	var out []*model.SsmVerification
	for rows.Next() {
		v, err := scanSsm(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

var _ repository.ServiceRepository = (*serviceRepo)(nil)

type serviceRepo struct{ pool *pgxpool.Pool }

func NewServiceRepo(pool *pgxpool.Pool) *serviceRepo {
	return &serviceRepo{pool: pool}
}

func (r *serviceRepo) DeactivateByUser(ctx context.Context, tx repository.Tx, userID string) (int, error) {
	const q = `UPDATE services SET active=FALSE, updated_at=NOW() WHERE user_id=$1 AND active=TRUE;`
	cmd, err := execSQL(ctx, r.pool, tx, q, userID)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return 0, err
		}
		return 0, domain.ErrOperationFailed
	}
	return int(cmd.RowsAffected()), nil
}
