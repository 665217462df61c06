package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"freelancer-marketplace/internal/domain"
	"freelancer-marketplace/internal/domain/model"
	"freelancer-marketplace/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*SenangpayGateway)(nil)

const (
	senangpaySlug        = "senangpay"
	senangpaySandboxBase = "https://sandbox.senangpay.my"
	senangpayLiveBase    = "https://app.senangpay.my"
)

// Senangpay status codes: a binary string ("1" paid, "0" failed).
const (
	senangpayStatusFailed = "0"
	senangpayStatusPaid   = "1"
)

// SenangpayGateway implements the URL-redirect integration: the payment is
// started by sending the payer to a signed URL, no server-to-server call.
// The hash covers a fixed field sequence concatenated without separator.
type SenangpayGateway struct {
	active     bool
	mode       model.GatewayMode
	merchantID string
	secret     string
	client     *http.Client
}

// NewSenangpayGateway builds the adapter from a resolved config row.
// Settings must already be decrypted.
func NewSenangpayGateway(cfg *model.GatewayConfig) *SenangpayGateway {
	return &SenangpayGateway{
		active:     cfg.Active,
		mode:       cfg.Mode,
		merchantID: cfg.Settings["merchant_id"],
		secret:     cfg.Settings["secret_key"],
		client:     &http.Client{Timeout: 15 * time.Second},
	}
}

func (g *SenangpayGateway) Slug() string { return senangpaySlug }

func (g *SenangpayGateway) IsAvailable() bool {
	return g.active && g.merchantID != "" && g.secret != ""
}

func (g *SenangpayGateway) base() string {
	if g.mode == model.GatewayModeLive {
		return senangpayLiveBase
	}
	return senangpaySandboxBase
}

// CreatePayment builds the signed redirect URL. There is no upstream call,
// so the only failure mode is an unavailable gateway.
func (g *SenangpayGateway) CreatePayment(ctx context.Context, intent adapter.PaymentIntent) (*adapter.PaymentRequest, error) {
	if !g.IsAvailable() {
		return nil, domain.ErrGatewayUnavailable
	}
	detail := intent.Description
	if detail == "" {
		detail = intent.OrderNumber
	}
	amount := toAmountString(intent.Amount)
	// hash input: detail + amount + order_id, concatenated in that order.
	hash := g.sign(detail + amount + intent.OrderNumber)

	q := url.Values{}
	q.Set("detail", detail)
	q.Set("amount", amount)
	q.Set("order_id", intent.OrderNumber)
	q.Set("name", intent.PayerName)
	q.Set("email", intent.PayerEmail)
	q.Set("phone", NormalizePhone(intent.PayerPhone))
	q.Set("hash", hash)

	payURL := fmt.Sprintf("%s/payment/%s?%s", g.base(), g.merchantID, q.Encode())
	return &adapter.PaymentRequest{PayURL: payURL}, nil
}

// Callback and return legs carry the same signed fields:
// status_id + order_id + transaction_id + msg, concatenated in that order.
func (g *SenangpayGateway) ValidateCallback(payload map[string]string) bool {
	return g.validate(payload)
}

func (g *SenangpayGateway) ValidateReturn(payload map[string]string) bool {
	return g.validate(payload)
}

func (g *SenangpayGateway) validate(payload map[string]string) bool {
	if g.secret == "" {
		return false
	}
	supplied := payload["hash"]
	if supplied == "" {
		return false
	}
	data := payload["status_id"] + payload["order_id"] + payload["transaction_id"] + payload["msg"]
	expected := g.sign(data)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(supplied)))
}

func (g *SenangpayGateway) sign(data string) string {
	mac := hmac.New(sha256.New, []byte(g.secret))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

func (g *SenangpayGateway) ClassifyStatus(raw string) adapter.PaymentState {
	switch strings.TrimSpace(raw) {
	case senangpayStatusPaid:
		return adapter.StateSuccess
	case senangpayStatusFailed:
		return adapter.StateFailed
	default:
		return adapter.StatePending
	}
}

// QueryStatus calls the signed order-status endpoint.
func (g *SenangpayGateway) QueryStatus(ctx context.Context, orderNumber string) (adapter.PaymentState, error) {
	if !g.IsAvailable() {
		return "", domain.ErrGatewayUnavailable
	}
	form := url.Values{}
	form.Set("merchant_id", g.merchantID)
	form.Set("order_id", orderNumber)
	form.Set("hash", g.sign(g.merchantID+orderNumber))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.base()+"/apiv1/query_order_status", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: senangpay http %d", domain.ErrUpstream, resp.StatusCode)
	}
	var out struct {
		Data []struct {
			StatusID json.Number `json:"status_id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", domain.ErrUpstream, err)
	}
	if len(out.Data) == 0 {
		return "", domain.ErrNotFound
	}
	return g.ClassifyStatus(out.Data[0].StatusID.String()), nil
}
