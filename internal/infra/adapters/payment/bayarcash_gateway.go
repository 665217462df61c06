package payment

import (
	"bytes"
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

var _ adapter.PaymentGateway = (*BayarcashGateway)(nil)

const (
	bayarcashSlug        = "bayarcash"
	bayarcashSandboxBase = "https://console.bayarcash-sandbox.com/api/v2"
	bayarcashLiveBase    = "https://console.bayar.cash/api/v2"
)

// bayarcashChecksumFields is the documented subset of callback fields covered
// by the checksum, already sorted by key. The values are joined with "|" and
// signed with HMAC-SHA256. Adding, dropping, or reordering a field breaks
// verification of every future callback.
var bayarcashChecksumFields = []string{
	"amount",
	"currency",
	"exchange_reference_number",
	"exchange_transaction_id",
	"order_number",
	"payer_bank_name",
	"status",
	"status_description",
	"transaction_id",
}

// Bayarcash status codes.
const (
	bayarcashStatusNew        = "0"
	bayarcashStatusPending    = "1"
	bayarcashStatusFailed     = "2"
	bayarcashStatusSuccessful = "3"
	bayarcashStatusCancelled  = "4"
)

// BayarcashGateway implements the token-bearer REST integration: payment
// intents are created server-side and the payer is redirected to the hosted
// intent URL.
type BayarcashGateway struct {
	active    bool
	mode      model.GatewayMode
	token     string // personal access token (bearer)
	portalKey string
	secret    string // checksum secret
	baseURL   string // settings override, used by tests and self-hosted mocks
	client    *http.Client
}

// NewBayarcashGateway builds the adapter from a resolved config row.
// Settings must already be decrypted.
func NewBayarcashGateway(cfg *model.GatewayConfig) *BayarcashGateway {
	return &BayarcashGateway{
		active:    cfg.Active,
		mode:      cfg.Mode,
		token:     cfg.Settings["pat"],
		portalKey: cfg.Settings["portal_key"],
		secret:    cfg.Settings["secret_key"],
		baseURL:   cfg.Settings["base_url"],
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (g *BayarcashGateway) Slug() string { return bayarcashSlug }

func (g *BayarcashGateway) IsAvailable() bool {
	return g.active && g.token != "" && g.portalKey != "" && g.secret != ""
}

func (g *BayarcashGateway) base() string {
	if g.baseURL != "" {
		return g.baseURL
	}
	if g.mode == model.GatewayModeLive {
		return bayarcashLiveBase
	}
	return bayarcashSandboxBase
}

// CreatePayment registers a payment intent and returns the hosted intent URL.
func (g *BayarcashGateway) CreatePayment(ctx context.Context, intent adapter.PaymentIntent) (*adapter.PaymentRequest, error) {
	if !g.IsAvailable() {
		return nil, domain.ErrGatewayUnavailable
	}
	body := map[string]any{
		"portal_key":             g.portalKey,
		"order_number":           intent.OrderNumber,
		"amount":                 toMinorUnits(intent.Amount),
		"currency":               intent.Currency,
		"payer_name":             intent.PayerName,
		"payer_email":            intent.PayerEmail,
		"payer_telephone_number": NormalizePhone(intent.PayerPhone),
		"return_url":             intent.ReturnURL,
		"callback_url":           intent.CallbackURL,
	}
	if intent.Channel != "" {
		body["payment_channel"] = intent.Channel
	}
	body["checksum"] = g.requestChecksum(body)

	b, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.base()+"/payment-intents", bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.token)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: bayarcash http %d", domain.ErrUpstream, resp.StatusCode)
	}
	var out struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrUpstream, err)
	}
	if out.URL == "" {
		return nil, fmt.Errorf("%w: bayarcash returned no intent url", domain.ErrUpstream)
	}
	return &adapter.PaymentRequest{PayURL: out.URL, ProviderRef: out.ID}, nil
}

// requestChecksum signs the outbound intent: values of the sorted field
// subset joined with "|".
func (g *BayarcashGateway) requestChecksum(body map[string]any) string {
	fields := []string{"amount", "order_number", "payer_email", "payer_name", "portal_key"}
	vals := make([]string, 0, len(fields))
	for _, f := range fields {
		vals = append(vals, fmt.Sprintf("%v", body[f]))
	}
	return g.sign(strings.Join(vals, "|"))
}

func (g *BayarcashGateway) ValidateCallback(payload map[string]string) bool {
	return g.validate(payload)
}

// ValidateReturn applies the same checksum discipline; Bayarcash carries the
// full field set on both legs.
func (g *BayarcashGateway) ValidateReturn(payload map[string]string) bool {
	return g.validate(payload)
}

func (g *BayarcashGateway) validate(payload map[string]string) bool {
	if g.secret == "" {
		return false
	}
	supplied := payload["checksum"]
	if supplied == "" {
		return false
	}
	vals := make([]string, 0, len(bayarcashChecksumFields))
	for _, f := range bayarcashChecksumFields {
		vals = append(vals, payload[f])
	}
	expected := g.sign(strings.Join(vals, "|"))
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(supplied)))
}

func (g *BayarcashGateway) sign(data string) string {
	mac := hmac.New(sha256.New, []byte(g.secret))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

// ClassifyStatus maps the five Bayarcash codes. Unknown codes read as
// pending so a new provider code never flips state by accident.
func (g *BayarcashGateway) ClassifyStatus(raw string) adapter.PaymentState {
	switch strings.TrimSpace(raw) {
	case bayarcashStatusSuccessful:
		return adapter.StateSuccess
	case bayarcashStatusFailed:
		return adapter.StateFailed
	case bayarcashStatusCancelled:
		return adapter.StateCancelled
	case bayarcashStatusNew, bayarcashStatusPending:
		return adapter.StatePending
	default:
		return adapter.StatePending
	}
}

func (g *BayarcashGateway) QueryStatus(ctx context.Context, orderNumber string) (adapter.PaymentState, error) {
	if !g.IsAvailable() {
		return "", domain.ErrGatewayUnavailable
	}
	u := fmt.Sprintf("%s/transactions?order_number=%s", g.base(), url.QueryEscape(orderNumber))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.token)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: bayarcash http %d", domain.ErrUpstream, resp.StatusCode)
	}
	var out struct {
		Data []struct {
			Status json.Number `json:"status"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", domain.ErrUpstream, err)
	}
	if len(out.Data) == 0 {
		return "", domain.ErrNotFound
	}
	return g.ClassifyStatus(out.Data[0].Status.String()), nil
}
