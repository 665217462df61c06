//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"freelancer-marketplace/internal/domain"
	"freelancer-marketplace/internal/domain/model"
	"freelancer-marketplace/internal/domain/ports/adapter"
	"freelancer-marketplace/internal/domain/ports/repository"
)

// =============================
// Repositories
// =============================

// ---- Mock TransactionRepo ----

type MockTransactionRepo struct {
	mu    sync.Mutex
	store map[string]*model.Transaction // by order number

	SaveFunc     func(ctx context.Context, tx repository.Tx, t *model.Transaction) error
	FinalizeFunc func(ctx context.Context, tx repository.Tx, orderNumber string, status model.TransactionStatus, transactionID *string, payload []byte, paidAt *time.Time) error
}

var _ repository.TransactionRepository = (*MockTransactionRepo)(nil)

func NewMockTransactionRepo() *MockTransactionRepo {
	return &MockTransactionRepo{store: map[string]*model.Transaction{}}
}

func (m *MockTransactionRepo) Save(ctx context.Context, tx repository.Tx, t *model.Transaction) error {
	if m.SaveFunc != nil {
		if err := m.SaveFunc(ctx, tx, t); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.store[t.OrderNumber] = &cp
	return nil
}

func (m *MockTransactionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.store {
		if t.ID == id {
			cp := *t
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockTransactionRepo) FindByOrderNumber(ctx context.Context, tx repository.Tx, orderNumber string) (*model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.store[orderNumber]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

// Finalize mirrors the conditional UPDATE of the real repository: only a
// pending row moves, anything else reports ErrAlreadyProcessed.
func (m *MockTransactionRepo) Finalize(ctx context.Context, tx repository.Tx, orderNumber string, status model.TransactionStatus, transactionID *string, payload []byte, paidAt *time.Time) error {
	if m.FinalizeFunc != nil {
		return m.FinalizeFunc(ctx, tx, orderNumber, status, transactionID, payload, paidAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.store[orderNumber]
	if !ok {
		return domain.ErrNotFound
	}
	if t.Status != model.TransactionStatusPending {
		return domain.ErrAlreadyProcessed
	}
	t.Status = status
	if transactionID != nil {
		t.TransactionID = transactionID
	}
	if payload != nil {
		t.Payload = payload
	}
	if paidAt != nil {
		t.PaidAt = paidAt
	}
	t.UpdatedAt = time.Now()
	return nil
}

func (m *MockTransactionRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Transaction
	for _, t := range m.store {
		if t.Status == model.TransactionStatusPending && t.CreatedAt.Before(olderThan) {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockTransactionRepo) ListUnreconciled(ctx context.Context, tx repository.Tx, limit int) ([]*model.Transaction, error) {
	return nil, nil
}

func (m *MockTransactionRepo) List(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.Transaction, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Transaction
	for _, t := range m.store {
		cp := *t
		out = append(out, &cp)
	}
	return out, len(out), nil
}

// ---- Mock OrderRepo ----

type MockOrderRepo struct {
	mu    sync.Mutex
	store map[string]*model.Order // by id

	UpdateStatusFunc func(ctx context.Context, tx repository.Tx, o *model.Order, from model.OrderStatus) error
}

var _ repository.OrderRepository = (*MockOrderRepo)(nil)

func NewMockOrderRepo() *MockOrderRepo {
	return &MockOrderRepo{store: map[string]*model.Order{}}
}

func (m *MockOrderRepo) Create(ctx context.Context, tx repository.Tx, o *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.store {
		if existing.FreelancerID == o.FreelancerID &&
			existing.BookingDate.Equal(o.BookingDate) &&
			!existing.Status.IsTerminal() {
			return domain.ErrBookingDateTaken
		}
	}
	cp := *o
	m.store[o.ID] = &cp
	return nil
}

func (m *MockOrderRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *MockOrderRepo) FindByOrderNumber(ctx context.Context, tx repository.Tx, orderNumber string) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.store {
		if o.OrderNumber == orderNumber {
			cp := *o
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockOrderRepo) UpdateStatus(ctx context.Context, tx repository.Tx, o *model.Order, from model.OrderStatus) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, tx, o, from)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.store[o.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if existing.Status != from {
		return domain.ErrInvalidTransition
	}
	cp := *o
	m.store[o.ID] = &cp
	return nil
}

func (m *MockOrderRepo) ListUnrespondedSince(ctx context.Context, tx repository.Tx, cutoff time.Time, limit int) ([]*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Order
	for _, o := range m.store {
		if o.Status == model.OrderStatusPendingApproval && o.PaymentSlipUploadedAt != nil && o.PaymentSlipUploadedAt.Before(cutoff) {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockOrderRepo) ListDeliveredSince(ctx context.Context, tx repository.Tx, cutoff time.Time, limit int) ([]*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Order
	for _, o := range m.store {
		if o.Status == model.OrderStatusDelivered && o.DeliveredAt != nil && o.DeliveredAt.Before(cutoff) {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ---- Mock SubscriptionRepo ----

type MockSubscriptionRepo struct {
	mu    sync.Mutex
	store map[string]*model.Subscription // by id
}

var _ repository.SubscriptionRepository = (*MockSubscriptionRepo)(nil)

func NewMockSubscriptionRepo() *MockSubscriptionRepo {
	return &MockSubscriptionRepo{store: map[string]*model.Subscription{}}
}

func (m *MockSubscriptionRepo) Save(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.store[s.ID] = &cp
	return nil
}

func (m *MockSubscriptionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MockSubscriptionRepo) FindByTransactionID(ctx context.Context, tx repository.Tx, transactionID string) (*model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.store {
		if s.TransactionID == transactionID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockSubscriptionRepo) ExpireFinished(ctx context.Context, tx repository.Tx, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.store {
		if s.Status == model.SubscriptionStatusActive && s.EndsAt != nil && s.EndsAt.Before(now) {
			s.Status = model.SubscriptionStatusExpired
			n++
		}
	}
	return n, nil
}

// ---- Mock PlanRepo ----

type MockPlanRepo struct {
	mu    sync.Mutex
	store map[string]*model.SubscriptionPlan
}

var _ repository.SubscriptionPlanRepository = (*MockPlanRepo)(nil)

func NewMockPlanRepo() *MockPlanRepo {
	return &MockPlanRepo{store: map[string]*model.SubscriptionPlan{}}
}

func (m *MockPlanRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.SubscriptionPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPlanRepo) Save(ctx context.Context, tx repository.Tx, p *model.SubscriptionPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

// ---- Mock SsmRepo ----

type MockSsmRepo struct {
	mu    sync.Mutex
	store map[string]*model.SsmVerification // by id

	StartGraceFunc func(ctx context.Context, tx repository.Tx, id string, graceEndsAt, now time.Time) error
}

var _ repository.SsmVerificationRepository = (*MockSsmRepo)(nil)

func NewMockSsmRepo() *MockSsmRepo {
	return &MockSsmRepo{store: map[string]*model.SsmVerification{}}
}

func (m *MockSsmRepo) Save(ctx context.Context, tx repository.Tx, v *model.SsmVerification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *v
	m.store[v.ID] = &cp
	return nil
}

func (m *MockSsmRepo) FindByUserID(ctx context.Context, tx repository.Tx, userID string) (*model.SsmVerification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.store {
		if v.UserID == userID {
			cp := *v
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockSsmRepo) ListExpiredWithoutGrace(ctx context.Context, tx repository.Tx, now time.Time, limit int) ([]*model.SsmVerification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.SsmVerification
	for _, v := range m.store {
		if v.Status == model.SsmStatusVerified && v.ExpiryDate != nil && v.ExpiryDate.Before(now) && v.GracePeriodEndsAt == nil {
			cp := *v
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockSsmRepo) ListGraceElapsed(ctx context.Context, tx repository.Tx, now time.Time, limit int) ([]*model.SsmVerification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.SsmVerification
	for _, v := range m.store {
		if v.Status == model.SsmStatusExpired && v.GracePeriodEndsAt != nil && v.GracePeriodEndsAt.Before(now) && v.ServicesHiddenAt == nil {
			cp := *v
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockSsmRepo) ListGraceEndingOn(ctx context.Context, tx repository.Tx, day time.Time, limit int) ([]*model.SsmVerification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	y, mo, d := day.Date()
	var out []*model.SsmVerification
	for _, v := range m.store {
		if v.Status != model.SsmStatusExpired || v.GracePeriodEndsAt == nil || v.ServicesHiddenAt != nil {
			continue
		}
		gy, gmo, gd := v.GracePeriodEndsAt.Date()
		if y == gy && mo == gmo && d == gd {
			cp := *v
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockSsmRepo) StartGrace(ctx context.Context, tx repository.Tx, id string, graceEndsAt, now time.Time) error {
	if m.StartGraceFunc != nil {
		return m.StartGraceFunc(ctx, tx, id, graceEndsAt, now)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	if v.GracePeriodEndsAt != nil {
		return domain.ErrAlreadyProcessed
	}
	v.Status = model.SsmStatusExpired
	ge := graceEndsAt
	v.GracePeriodEndsAt = &ge
	return nil
}

func (m *MockSsmRepo) MarkServicesHidden(ctx context.Context, tx repository.Tx, id string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	if v.ServicesHiddenAt != nil {
		return domain.ErrAlreadyProcessed
	}
	h := now
	v.ServicesHiddenAt = &h
	return nil
}

// ---- Mock ServiceRepo ----

type MockServiceRepo struct {
	mu          sync.Mutex
	Deactivated map[string]int // userID -> rows affected per call
	PerUser     map[string]int // configurable: active services per user
}

var _ repository.ServiceRepository = (*MockServiceRepo)(nil)

func NewMockServiceRepo() *MockServiceRepo {
	return &MockServiceRepo{Deactivated: map[string]int{}, PerUser: map[string]int{}}
}

func (m *MockServiceRepo) DeactivateByUser(ctx context.Context, tx repository.Tx, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.PerUser[userID]
	if !ok {
		n = 1
	}
	m.Deactivated[userID] += n
	return n, nil
}

// ---- Mock NotificationRepo ----

type MockNotificationRepo struct {
	mu    sync.Mutex
	Saved []*model.Notification

	SaveFunc func(ctx context.Context, tx repository.Tx, n *model.Notification) error
}

var _ repository.NotificationRepository = (*MockNotificationRepo)(nil)

func NewMockNotificationRepo() *MockNotificationRepo {
	return &MockNotificationRepo{}
}

func (m *MockNotificationRepo) Save(ctx context.Context, tx repository.Tx, n *model.Notification) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, n)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *n
	m.Saved = append(m.Saved, &cp)
	return nil
}

func (m *MockNotificationRepo) CountUnread(ctx context.Context, tx repository.Tx, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, notif := range m.Saved {
		if notif.UserID == userID && notif.ReadAt == nil {
			n++
		}
	}
	return n, nil
}

func (m *MockNotificationRepo) MarkAllRead(ctx context.Context, tx repository.Tx, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for _, notif := range m.Saved {
		if notif.UserID == userID && notif.ReadAt == nil {
			notif.ReadAt = &now
		}
	}
	return nil
}

func (m *MockNotificationRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, offset, limit int) ([]*model.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Notification
	for _, notif := range m.Saved {
		if notif.UserID == userID {
			cp := *notif
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ByKind returns the saved notifications matching kind. Test helper.
func (m *MockNotificationRepo) ByKind(kind string) []*model.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Notification
	for _, notif := range m.Saved {
		if notif.Kind == kind {
			cp := *notif
			out = append(out, &cp)
		}
	}
	return out
}

// ---- Mock NotificationLogRepo ----

type MockNotificationLogRepo struct {
	mu   sync.Mutex
	seen map[string]bool
}

var _ repository.NotificationLogRepository = (*MockNotificationLogRepo)(nil)

func NewMockNotificationLogRepo() *MockNotificationLogRepo {
	return &MockNotificationLogRepo{seen: map[string]bool{}}
}

func logKey(userID, kind string, thresholdDays int) string {
	return userID + "|" + kind + "|" + strconv.Itoa(thresholdDays)
}

func (m *MockNotificationLogRepo) Save(ctx context.Context, tx repository.Tx, userID, kind string, thresholdDays int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := logKey(userID, kind, thresholdDays)
	if m.seen[k] {
		return domain.ErrAlreadyExists
	}
	m.seen[k] = true
	return nil
}

func (m *MockNotificationLogRepo) Exists(ctx context.Context, tx repository.Tx, userID, kind string, thresholdDays int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seen[logKey(userID, kind, thresholdDays)], nil
}

// =============================
// Infra
// =============================

// ---- Mock TxManager ----

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
	Calls      int
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

// WithTx runs fn immediately without a real transaction. Assign WithTxFunc
// for tests that need to verify transactional behavior.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	m.Calls++
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}

// ---- Mock GatewayResolver ----

type MockResolver struct {
	Gateways map[string]adapter.PaymentGateway
}

var _ adapter.GatewayResolver = (*MockResolver)(nil)

func NewMockResolver(gws ...adapter.PaymentGateway) *MockResolver {
	r := &MockResolver{Gateways: map[string]adapter.PaymentGateway{}}
	for _, gw := range gws {
		r.Gateways[gw.Slug()] = gw
	}
	return r
}

func (r *MockResolver) Resolve(slug string) (adapter.PaymentGateway, error) {
	gw, ok := r.Gateways[slug]
	if !ok {
		return nil, domain.ErrGatewayUnavailable
	}
	return gw, nil
}

func (r *MockResolver) Slugs() []string {
	out := make([]string, 0, len(r.Gateways))
	for slug := range r.Gateways {
		out = append(out, slug)
	}
	return out
}

// ---- Mock PaymentGateway ----

type MockGateway struct {
	SlugName    string
	Unavailable bool

	CreatePaymentFunc    func(ctx context.Context, intent adapter.PaymentIntent) (*adapter.PaymentRequest, error)
	ValidateCallbackFunc func(payload map[string]string) bool
	ValidateReturnFunc   func(payload map[string]string) bool
	QueryStatusFunc      func(ctx context.Context, orderNumber string) (adapter.PaymentState, error)
}

var _ adapter.PaymentGateway = (*MockGateway)(nil)

func (g *MockGateway) Slug() string {
	if g.SlugName == "" {
		return "mock"
	}
	return g.SlugName
}

func (g *MockGateway) IsAvailable() bool { return !g.Unavailable }

func (g *MockGateway) CreatePayment(ctx context.Context, intent adapter.PaymentIntent) (*adapter.PaymentRequest, error) {
	if g.CreatePaymentFunc != nil {
		return g.CreatePaymentFunc(ctx, intent)
	}
	return &adapter.PaymentRequest{PayURL: "https://pay.example.test/" + intent.OrderNumber, ProviderRef: "ref-" + intent.OrderNumber}, nil
}

func (g *MockGateway) ValidateCallback(payload map[string]string) bool {
	if g.ValidateCallbackFunc != nil {
		return g.ValidateCallbackFunc(payload)
	}
	return payload["checksum"] == "valid"
}

func (g *MockGateway) ValidateReturn(payload map[string]string) bool {
	if g.ValidateReturnFunc != nil {
		return g.ValidateReturnFunc(payload)
	}
	return payload["checksum"] == "valid"
}

func (g *MockGateway) ClassifyStatus(raw string) adapter.PaymentState {
	switch raw {
	case "success", "3", "1":
		return adapter.StateSuccess
	case "failed", "2", "0":
		return adapter.StateFailed
	case "cancelled", "4":
		return adapter.StateCancelled
	default:
		return adapter.StatePending
	}
}

func (g *MockGateway) QueryStatus(ctx context.Context, orderNumber string) (adapter.PaymentState, error) {
	if g.QueryStatusFunc != nil {
		return g.QueryStatusFunc(ctx, orderNumber)
	}
	return adapter.StatePending, nil
}

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}
