package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"freelancer-marketplace/internal/domain"
	"freelancer-marketplace/internal/domain/model"
	"freelancer-marketplace/internal/domain/ports/repository"
)

var _ repository.GatewayConfigRepository = (*gatewayConfigRepo)(nil)

// gatewayConfigRepo stores gateway credentials as a JSONB settings column.
// Secret values inside settings are expected to be encrypted by the caller.
type gatewayConfigRepo struct{ pool *pgxpool.Pool }

func NewGatewayConfigRepo(pool *pgxpool.Pool) *gatewayConfigRepo {
	return &gatewayConfigRepo{pool: pool}
}

func scanGatewayConfig(row pgx.Row) (*model.GatewayConfig, error) {
	g := &model.GatewayConfig{}
	var settings []byte
	if err := row.Scan(&g.ID, &g.Slug, &g.Name, &g.Active, &g.Mode, &settings); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	if len(settings) > 0 {
		if err := json.Unmarshal(settings, &g.Settings); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
	}
	if g.Settings == nil {
		g.Settings = map[string]string{}
	}
	return g, nil
}

func (r *gatewayConfigRepo) FindBySlug(ctx context.Context, tx repository.Tx, slug string) (*model.GatewayConfig, error) {
	const q = `SELECT id, slug, name, active, mode, settings FROM payment_gateways WHERE slug=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, slug)
	if err != nil {
		return nil, err
	}
	return scanGatewayConfig(row)
}

func (r *gatewayConfigRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.GatewayConfig, error) {
	const q = `SELECT id, slug, name, active, mode, settings FROM payment_gateways WHERE active=TRUE ORDER BY slug;`
	rows, err := queryRows(ctx, r.pool, tx, q)
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

	var out []*model.GatewayConfig
	for rows.Next() {
		g, err := scanGatewayConfig(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

func (r *gatewayConfigRepo) Save(ctx context.Context, tx repository.Tx, g *model.GatewayConfig) error {
	settings, err := json.Marshal(g.Settings)
	if err != nil {
		return domain.ErrInvalidArgument
	}
	const q = `
INSERT INTO payment_gateways (id, slug, name, active, mode, settings)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (slug) DO UPDATE SET name=$3, active=$4, mode=$5, settings=$6;`

	if _, err := execSQL(ctx, r.pool, tx, q, g.ID, g.Slug, g.Name, g.Active, g.Mode, settings); err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}
