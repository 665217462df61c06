//go:build !integration

package web

import (
	"context"
	"sync"
	"time"

	"freelancer-marketplace/internal/domain"
	"freelancer-marketplace/internal/domain/model"
	"freelancer-marketplace/internal/domain/ports/repository"
	"freelancer-marketplace/internal/usecase"
)

// --- Mock Use Cases (Ports) ---

type mockPaymentUC struct {
	usecase.PaymentUseCase // Embed interface for forward compatibility
	transactions           []*model.Transaction
	ListError              error
}

func (m *mockPaymentUC) List(ctx context.Context, offset, limit int) ([]*model.Transaction, int, error) {
	if m.ListError != nil {
		return nil, 0, m.ListError
	}
	return m.transactions, len(m.transactions), nil
}

type mockOrderUC struct {
	usecase.OrderUseCase
	mu     sync.Mutex
	orders map[string]*model.Order // keyed by ID and by OrderNumber
}

func newMockOrderUC(orders ...*model.Order) *mockOrderUC {
	m := &mockOrderUC{orders: map[string]*model.Order{}}
	for _, o := range orders {
		m.orders[o.ID] = o
		m.orders[o.OrderNumber] = o
	}
	return m
}

func (m *mockOrderUC) FindByOrderNumber(ctx context.Context, orderNumber string) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderNumber]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return o, nil
}

func (m *mockOrderUC) transition(id string, apply func(*model.Order, time.Time) error) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if err := apply(o, time.Now()); err != nil {
		return nil, err
	}
	return o, nil
}

func (m *mockOrderUC) Accept(ctx context.Context, orderID string) (*model.Order, error) {
	return m.transition(orderID, func(o *model.Order, now time.Time) error { return o.Accept(now, 7*24*time.Hour) })
}

func (m *mockOrderUC) Reject(ctx context.Context, orderID string) (*model.Order, error) {
	return m.transition(orderID, func(o *model.Order, now time.Time) error { return o.Reject(now) })
}

func (m *mockOrderUC) Deliver(ctx context.Context, orderID string) (*model.Order, error) {
	return m.transition(orderID, func(o *model.Order, now time.Time) error { return o.Deliver(now) })
}

func (m *mockOrderUC) Confirm(ctx context.Context, orderID string) (*model.Order, error) {
	return m.transition(orderID, func(o *model.Order, now time.Time) error { return o.Complete(now) })
}

type mockNotificationUC struct {
	usecase.NotificationUseCase
	unread     map[string]int
	readCalled []string
}

func (m *mockNotificationUC) UnreadCount(ctx context.Context, userID string) (int, error) {
	return m.unread[userID], nil
}

func (m *mockNotificationUC) MarkAllRead(ctx context.Context, userID string) error {
	m.readCalled = append(m.readCalled, userID)
	m.unread[userID] = 0
	return nil
}

// --- Mock Repositories (Ports) ---

type mockGatewayConfigRepo struct {
	repository.GatewayConfigRepository
	mu      sync.Mutex
	configs map[string]*model.GatewayConfig
	saved   []*model.GatewayConfig
}

func newMockGatewayConfigRepo(configs ...*model.GatewayConfig) *mockGatewayConfigRepo {
	m := &mockGatewayConfigRepo{configs: map[string]*model.GatewayConfig{}}
	for _, g := range configs {
		m.configs[g.Slug] = g
	}
	return m
}

func (m *mockGatewayConfigRepo) FindBySlug(ctx context.Context, tx repository.Tx, slug string) (*model.GatewayConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.configs[slug]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return g, nil
}

func (m *mockGatewayConfigRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.GatewayConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.GatewayConfig
	for _, g := range m.configs {
		if g.Active {
			out = append(out, g)
		}
	}
	return out, nil
}

func (m *mockGatewayConfigRepo) Save(ctx context.Context, tx repository.Tx, g *model.GatewayConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configs[g.Slug] = g
	m.saved = append(m.saved, g)
	return nil
}
