package payment

import (
	"context"
	"fmt"
	"sync"

	"freelancer-marketplace/internal/domain"
	"freelancer-marketplace/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*NoopPaymentGateway)(nil)

// NoopPaymentGateway is a simple in-memory gateway to use in tests.
// Callbacks validate when payload["checksum"] equals "valid".
type NoopPaymentGateway struct {
	mu       sync.Mutex
	seq      int64
	intents  map[string]adapter.PaymentIntent // order number -> intent
	statuses map[string]adapter.PaymentState

	Unavailable bool
	CreateErr   error
}

func NewNoopPaymentGateway() *NoopPaymentGateway {
	return &NoopPaymentGateway{
		intents:  make(map[string]adapter.PaymentIntent),
		statuses: make(map[string]adapter.PaymentState),
	}
}

func (g *NoopPaymentGateway) Slug() string { return "noop" }

func (g *NoopPaymentGateway) IsAvailable() bool { return !g.Unavailable }

func (g *NoopPaymentGateway) CreatePayment(ctx context.Context, intent adapter.PaymentIntent) (*adapter.PaymentRequest, error) {
	if !g.IsAvailable() {
		return nil, domain.ErrGatewayUnavailable
	}
	if g.CreateErr != nil {
		return nil, g.CreateErr
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	g.intents[intent.OrderNumber] = intent
	g.statuses[intent.OrderNumber] = adapter.StatePending
	return &adapter.PaymentRequest{
		PayURL:      "https://example.test/pay/" + intent.OrderNumber,
		ProviderRef: fmt.Sprintf("noop-%d", g.seq),
	}, nil
}

func (g *NoopPaymentGateway) ValidateCallback(payload map[string]string) bool {
	return payload["checksum"] == "valid"
}

func (g *NoopPaymentGateway) ValidateReturn(payload map[string]string) bool {
	return payload["checksum"] == "valid"
}

func (g *NoopPaymentGateway) ClassifyStatus(raw string) adapter.PaymentState {
	switch raw {
	case "success":
		return adapter.StateSuccess
	case "failed":
		return adapter.StateFailed
	case "cancelled":
		return adapter.StateCancelled
	default:
		return adapter.StatePending
	}
}

func (g *NoopPaymentGateway) SetStatus(orderNumber string, st adapter.PaymentState) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.statuses[orderNumber] = st
}

func (g *NoopPaymentGateway) QueryStatus(ctx context.Context, orderNumber string) (adapter.PaymentState, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	st, ok := g.statuses[orderNumber]
	if !ok {
		return "", domain.ErrNotFound
	}
	return st, nil
}
