// File: internal/usecase/payment_uc.go
package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"freelancer-marketplace/internal/domain"
	"freelancer-marketplace/internal/domain/model"
	"freelancer-marketplace/internal/domain/ports/adapter"
	"freelancer-marketplace/internal/domain/ports/repository"
	"freelancer-marketplace/internal/infra/metrics"
)

// Compile-time check
var _ PaymentUseCase = (*paymentUC)(nil)

// InitiateInput describes a payment intent for an order or a plan purchase.
type InitiateInput struct {
	Gateway     string
	SubjectKind model.SubjectKind
	OrderID     string // when SubjectKind == SubjectOrder
	PlanID      string // when SubjectKind == SubjectSubscription
	UserID      string
	PayerName   string
	PayerEmail  string
	PayerPhone  string
	Channel     string
}

// CallbackOutcome reports what a callback did.
type CallbackOutcome struct {
	OrderNumber string
	Status      model.TransactionStatus
	Duplicate   bool // idempotency short-circuit: already terminal
}

// ReturnOutcome drives the user-facing result page only; it never mutates
// state. Final status is authoritative only from the server-to-server
// callback.
type ReturnOutcome struct {
	OrderNumber string
	State       adapter.PaymentState
}

type PaymentUseCase interface {
	// Initiate persists a pending transaction and returns the gateway
	// redirect URL.
	Initiate(ctx context.Context, in InitiateInput) (*model.Transaction, string, error)
	// HandleCallback verifies the checksum and applies the status
	// transition plus subject activation. Idempotent under replays.
	HandleCallback(ctx context.Context, gatewaySlug string, payload map[string]string) (*CallbackOutcome, error)
	// HandleReturn verifies the return-leg checksum for display purposes.
	HandleReturn(ctx context.Context, gatewaySlug string, payload map[string]string) (*ReturnOutcome, error)
	// Reconcile finalizes stale pending transactions via status queries and
	// replays missed activations for success transactions. Sweep entry point.
	Reconcile(ctx context.Context, now time.Time) (int, error)
	List(ctx context.Context, offset, limit int) ([]*model.Transaction, int, error)
}

type paymentUC struct {
	transactions repository.TransactionRepository
	orderRepo    repository.OrderRepository
	orders       OrderUseCase
	subs         SubscriptionUseCase
	gateways     adapter.GatewayResolver
	tm           repository.TransactionManager
	currency     string
	returnURL    string
	callbackURL  string
	staleAfter   time.Duration
	batchLimit   int
	log          *zerolog.Logger
}

func NewPaymentUseCase(
	transactions repository.TransactionRepository,
	orderRepo repository.OrderRepository,
	orders OrderUseCase,
	subs SubscriptionUseCase,
	gateways adapter.GatewayResolver,
	tm repository.TransactionManager,
	currency, returnURL, callbackURL string,
	staleAfter time.Duration,
	batchLimit int,
	logger *zerolog.Logger,
) *paymentUC {
	l := logger.With().Str("component", "PaymentUC").Logger()
	return &paymentUC{
		transactions: transactions,
		orderRepo:    orderRepo,
		orders:       orders,
		subs:         subs,
		gateways:     gateways,
		tm:           tm,
		currency:     currency,
		returnURL:    returnURL,
		callbackURL:  callbackURL,
		staleAfter:   staleAfter,
		batchLimit:   batchLimit,
		log:          &l,
	}
}

func (u *paymentUC) Initiate(ctx context.Context, in InitiateInput) (*model.Transaction, string, error) {
	if in.PayerName == "" || in.PayerEmail == "" {
		return nil, "", fmt.Errorf("%w: payer name and email are required", domain.ErrValidation)
	}
	gw, err := u.gateways.Resolve(in.Gateway)
	if err != nil {
		return nil, "", err
	}
	if !gw.IsAvailable() {
		return nil, "", domain.ErrGatewayUnavailable
	}

	now := time.Now()
	t := &model.Transaction{
		ID:          uuid.NewString(),
		OrderNumber: NewOrderNumber(),
		SubjectKind: in.SubjectKind,
		UserID:      in.UserID,
		Currency:    u.currency,
		Gateway:     in.Gateway,
		Status:      model.TransactionStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var description string
	switch in.SubjectKind {
	case model.SubjectOrder:
		o, err := u.orderRepo.FindByID(ctx, nil, in.OrderID)
		if err != nil {
			return nil, "", err
		}
		if o.Status != model.OrderStatusPendingPayment {
			return nil, "", fmt.Errorf("%w: order %s is not awaiting payment", domain.ErrValidation, o.OrderNumber)
		}
		t.SubjectID = o.ID
		t.Amount = o.AgreedPrice
		description = fmt.Sprintf("Order %s", o.OrderNumber)
	case model.SubjectSubscription:
		sub, err := u.subs.Prepare(ctx, nil, in.UserID, in.PlanID, in.Gateway, t.ID)
		if err != nil {
			return nil, "", err
		}
		t.SubjectID = sub.ID
		t.Amount = sub.AmountPaid
		description = "Subscription plan purchase"
	default:
		return nil, "", fmt.Errorf("%w: unknown payment subject", domain.ErrValidation)
	}

	if err := u.transactions.Save(ctx, nil, t); err != nil {
		return nil, "", err
	}

	req, err := gw.CreatePayment(ctx, adapter.PaymentIntent{
		OrderNumber: t.OrderNumber,
		Amount:      t.Amount,
		Currency:    t.Currency,
		PayerName:   in.PayerName,
		PayerEmail:  in.PayerEmail,
		PayerPhone:  in.PayerPhone,
		Channel:     in.Channel,
		Description: description,
		ReturnURL:   fmt.Sprintf("%s/%s/return", u.returnURL, in.Gateway),
		CallbackURL: fmt.Sprintf("%s/%s/callback", u.callbackURL, in.Gateway),
	})
	if err != nil {
		// The pending row stays; the reconciler settles it by querying the
		// provider once it goes stale.
		return nil, "", err
	}
	metrics.IncPayment(string(model.TransactionStatusPending))
	u.log.Info().Str("order_number", t.OrderNumber).Str("gateway", in.Gateway).Msg("payment initiated")
	return t, req.PayURL, nil
}

// orderNumberFrom pulls the merchant order number out of a provider payload.
func orderNumberFrom(payload map[string]string) string {
	if v := payload["order_number"]; v != "" {
		return v
	}
	return payload["order_id"]
}

// statusFrom pulls the raw provider status code out of a payload.
func statusFrom(payload map[string]string) string {
	if v := payload["status"]; v != "" {
		return v
	}
	return payload["status_id"]
}

func (u *paymentUC) HandleCallback(ctx context.Context, gatewaySlug string, payload map[string]string) (*CallbackOutcome, error) {
	gw, err := u.gateways.Resolve(gatewaySlug)
	if err != nil {
		return nil, err
	}
	if !gw.ValidateCallback(payload) {
		metrics.IncChecksumVerification(gatewaySlug, "rejected")
		// Logged as a no-op: the signature is the only authentication the
		// callback endpoint has.
		u.log.Warn().Str("gateway", gatewaySlug).Str("order_number", orderNumberFrom(payload)).Msg("callback checksum rejected")
		return nil, domain.ErrChecksumMismatch
	}
	metrics.IncChecksumVerification(gatewaySlug, "verified")

	orderNumber := orderNumberFrom(payload)
	if orderNumber == "" {
		return nil, fmt.Errorf("%w: payload carries no order number", domain.ErrValidation)
	}
	state := gw.ClassifyStatus(statusFrom(payload))

	var outcome *CallbackOutcome
	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		var txErr error
		outcome, txErr = u.applyResult(ctx, tx, orderNumber, state, payload)
		return txErr
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyProcessed) {
			// Duplicate delivery; report the recorded outcome as success.
			t, ferr := u.transactions.FindByOrderNumber(ctx, nil, orderNumber)
			if ferr != nil {
				return nil, ferr
			}
			return &CallbackOutcome{OrderNumber: orderNumber, Status: t.Status, Duplicate: true}, nil
		}
		return nil, err
	}
	return outcome, nil
}

// applyResult finalizes the transaction and activates its subject. Runs
// inside a database transaction; the FOR UPDATE read serializes concurrent
// callbacks and sweep runs on the same row.
func (u *paymentUC) applyResult(ctx context.Context, tx repository.Tx, orderNumber string, state adapter.PaymentState, payload map[string]string) (*CallbackOutcome, error) {
	t, err := u.transactions.FindByOrderNumber(ctx, tx, orderNumber)
	if err != nil {
		return nil, err
	}
	if t.Status.IsTerminal() {
		return &CallbackOutcome{OrderNumber: orderNumber, Status: t.Status, Duplicate: true}, nil
	}
	if state == adapter.StatePending {
		// Not final yet; nothing to transition.
		return &CallbackOutcome{OrderNumber: orderNumber, Status: t.Status}, nil
	}

	now := time.Now()
	var raw []byte
	if payload != nil {
		raw, _ = json.Marshal(payload)
	}
	var transactionID *string
	if v := payload["transaction_id"]; v != "" {
		transactionID = &v
	}

	switch state {
	case adapter.StateSuccess:
		if err := u.transactions.Finalize(ctx, tx, orderNumber, model.TransactionStatusSuccess, transactionID, raw, &now); err != nil {
			return nil, err
		}
		if err := u.activate(ctx, tx, t, now); err != nil {
			return nil, err
		}
		metrics.IncPayment(string(model.TransactionStatusSuccess))
		metrics.AddPaymentRevenue(t.Currency, t.Amount.InexactFloat64())
		return &CallbackOutcome{OrderNumber: orderNumber, Status: model.TransactionStatusSuccess}, nil
	case adapter.StateCancelled:
		if err := u.transactions.Finalize(ctx, tx, orderNumber, model.TransactionStatusCancelled, transactionID, raw, nil); err != nil {
			return nil, err
		}
		metrics.IncPayment(string(model.TransactionStatusCancelled))
		return &CallbackOutcome{OrderNumber: orderNumber, Status: model.TransactionStatusCancelled}, nil
	default:
		if err := u.transactions.Finalize(ctx, tx, orderNumber, model.TransactionStatusFailed, transactionID, raw, nil); err != nil {
			return nil, err
		}
		metrics.IncPayment(string(model.TransactionStatusFailed))
		return &CallbackOutcome{OrderNumber: orderNumber, Status: model.TransactionStatusFailed}, nil
	}
}

func (u *paymentUC) activate(ctx context.Context, tx repository.Tx, t *model.Transaction, now time.Time) error {
	switch t.SubjectKind {
	case model.SubjectOrder:
		if err := u.orders.MarkPaid(ctx, tx, t.SubjectID, now); err != nil && !errors.Is(err, domain.ErrInvalidTransition) {
			return err
		}
		return nil
	case model.SubjectSubscription:
		_, err := u.subs.Activate(ctx, tx, t.ID)
		return err
	default:
		return fmt.Errorf("%w: transaction %s has unknown subject", domain.ErrValidation, t.ID)
	}
}

func (u *paymentUC) HandleReturn(ctx context.Context, gatewaySlug string, payload map[string]string) (*ReturnOutcome, error) {
	gw, err := u.gateways.Resolve(gatewaySlug)
	if err != nil {
		return nil, err
	}
	if !gw.ValidateReturn(payload) {
		metrics.IncChecksumVerification(gatewaySlug, "rejected")
		return nil, domain.ErrChecksumMismatch
	}
	metrics.IncChecksumVerification(gatewaySlug, "verified")

	orderNumber := orderNumberFrom(payload)
	state := gw.ClassifyStatus(statusFrom(payload))

	// Display only: trust the recorded transaction over the return leg,
	// which travels through the payer's browser.
	if t, err := u.transactions.FindByOrderNumber(ctx, nil, orderNumber); err == nil {
		switch t.Status {
		case model.TransactionStatusSuccess:
			return &ReturnOutcome{OrderNumber: orderNumber, State: adapter.StateSuccess}, nil
		case model.TransactionStatusFailed, model.TransactionStatusCancelled:
			return &ReturnOutcome{OrderNumber: orderNumber, State: adapter.StateFailed}, nil
		}
	}
	if state == adapter.StateSuccess {
		// Gateway says paid but the callback has not landed yet.
		return &ReturnOutcome{OrderNumber: orderNumber, State: adapter.StatePending}, nil
	}
	return &ReturnOutcome{OrderNumber: orderNumber, State: state}, nil
}

// Reconcile covers two gaps: pending transactions whose callback never
// arrived, and success transactions whose subject activation failed after
// the transaction was already finalized.
func (u *paymentUC) Reconcile(ctx context.Context, now time.Time) (int, error) {
	settled := 0

	stale, err := u.transactions.ListPendingOlderThan(ctx, nil, now.Add(-u.staleAfter), u.batchLimit)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return 0, err
	}
	for _, t := range stale {
		gw, err := u.gateways.Resolve(t.Gateway)
		if err != nil {
			continue
		}
		state, err := gw.QueryStatus(ctx, t.OrderNumber)
		if err != nil {
			u.log.Warn().Err(err).Str("order_number", t.OrderNumber).Msg("reconcile status query failed")
			continue
		}
		if state == adapter.StatePending {
			continue
		}
		err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			_, txErr := u.applyResult(ctx, tx, t.OrderNumber, state, map[string]string{"status": string(state)})
			return txErr
		})
		if err != nil && !errors.Is(err, domain.ErrAlreadyProcessed) {
			u.log.Error().Err(err).Str("order_number", t.OrderNumber).Msg("reconcile finalize failed")
			continue
		}
		settled++
	}

	missed, err := u.transactions.ListUnreconciled(ctx, nil, u.batchLimit)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return settled, err
	}
	for _, t := range missed {
		err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			return u.activate(ctx, tx, t, now)
		})
		if err != nil {
			u.log.Error().Err(err).Str("order_number", t.OrderNumber).Msg("reconcile activation failed")
			continue
		}
		settled++
	}
	return settled, nil
}

func (u *paymentUC) List(ctx context.Context, offset, limit int) ([]*model.Transaction, int, error) {
	return u.transactions.List(ctx, nil, offset, limit)
}
