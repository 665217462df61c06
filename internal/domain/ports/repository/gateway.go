package repository

import (
	"context"

	"freelancer-marketplace/internal/domain/model"
)

type GatewayConfigRepository interface {
	FindBySlug(ctx context.Context, tx Tx, slug string) (*model.GatewayConfig, error)
	ListActive(ctx context.Context, tx Tx) ([]*model.GatewayConfig, error)
	Save(ctx context.Context, tx Tx, g *model.GatewayConfig) error
}
