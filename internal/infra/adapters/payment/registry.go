package payment

import (
	"context"
	"sort"

	"freelancer-marketplace/internal/domain"
	"freelancer-marketplace/internal/domain/ports/adapter"
	"freelancer-marketplace/internal/domain/ports/repository"
	"freelancer-marketplace/internal/infra/security"
)

var _ adapter.GatewayResolver = (*Registry)(nil)

// Registry holds the constructed gateway adapters keyed by slug. Config rows
// without an implementation (paypal, stripe placeholders) are simply not
// registered; resolving them yields ErrGatewayUnavailable.
type Registry struct {
	gateways map[string]adapter.PaymentGateway
}

func NewRegistry(gws ...adapter.PaymentGateway) *Registry {
	m := make(map[string]adapter.PaymentGateway, len(gws))
	for _, g := range gws {
		m[g.Slug()] = g
	}
	return &Registry{gateways: m}
}

// BuildRegistry constructs adapters for every active config row that has an
// implementation. Settings are decrypted once here; adapters never touch the
// config table afterwards.
func BuildRegistry(ctx context.Context, repo repository.GatewayConfigRepository, enc *security.EncryptionService) (*Registry, error) {
	rows, err := repo.ListActive(ctx, nil)
	if err != nil {
		return nil, err
	}
	var gws []adapter.PaymentGateway
	for _, row := range rows {
		cfg := *row
		if enc != nil {
			cfg.Settings = enc.DecryptSettings(row.Settings)
		}
		switch cfg.Slug {
		case bayarcashSlug:
			gws = append(gws, NewBayarcashGateway(&cfg))
		case senangpaySlug:
			gws = append(gws, NewSenangpayGateway(&cfg))
		}
	}
	return NewRegistry(gws...), nil
}

func (r *Registry) Resolve(slug string) (adapter.PaymentGateway, error) {
	g, ok := r.gateways[slug]
	if !ok {
		return nil, domain.ErrGatewayUnavailable
	}
	return g, nil
}

func (r *Registry) Slugs() []string {
	out := make([]string, 0, len(r.gateways))
	for s := range r.gateways {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
