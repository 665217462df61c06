//go:build !integration

package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"freelancer-marketplace/internal/domain"
	"freelancer-marketplace/internal/domain/model"
	"freelancer-marketplace/internal/domain/ports/adapter"
)

func bayarcashConfig(settings map[string]string) *model.GatewayConfig {
	base := map[string]string{
		"pat":        "test-token",
		"portal_key": "portal-1",
		"secret_key": "s3cret",
	}
	for k, v := range settings {
		base[k] = v
	}
	return &model.GatewayConfig{
		Slug:     "bayarcash",
		Active:   true,
		Mode:     model.GatewayModeSandbox,
		Settings: base,
	}
}

func signBayarcash(secret string, payload map[string]string) string {
	vals := make([]string, 0, len(bayarcashChecksumFields))
	for _, f := range bayarcashChecksumFields {
		vals = append(vals, payload[f])
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strings.Join(vals, "|")))
	return hex.EncodeToString(mac.Sum(nil))
}

func validBayarcashPayload(secret string) map[string]string {
	p := map[string]string{
		"amount":                    "1050",
		"currency":                  "MYR",
		"exchange_reference_number": "EX-1",
		"exchange_transaction_id":   "EXT-1",
		"order_number":              "ORD-001",
		"payer_bank_name":           "Maybank",
		"status":                    "3",
		"status_description":        "Successful",
		"transaction_id":            "TRX-1",
	}
	p["checksum"] = signBayarcash(secret, p)
	return p
}

func TestBayarcashIsAvailable(t *testing.T) {
	t.Run("available with all secrets", func(t *testing.T) {
		g := NewBayarcashGateway(bayarcashConfig(nil))
		if !g.IsAvailable() {
			t.Error("expected gateway to be available")
		}
	})
	t.Run("unavailable when inactive", func(t *testing.T) {
		cfg := bayarcashConfig(nil)
		cfg.Active = false
		if NewBayarcashGateway(cfg).IsAvailable() {
			t.Error("inactive config must not be available")
		}
	})
	t.Run("unavailable when a secret is missing", func(t *testing.T) {
		g := NewBayarcashGateway(bayarcashConfig(map[string]string{"secret_key": ""}))
		if g.IsAvailable() {
			t.Error("missing secret must not be available")
		}
	})
}

func TestBayarcashValidateCallback(t *testing.T) {
	g := NewBayarcashGateway(bayarcashConfig(nil))

	t.Run("accepts a correctly signed payload", func(t *testing.T) {
		if !g.ValidateCallback(validBayarcashPayload("s3cret")) {
			t.Error("expected valid payload to verify")
		}
	})

	t.Run("accepts uppercase hex signatures", func(t *testing.T) {
		p := validBayarcashPayload("s3cret")
		p["checksum"] = strings.ToUpper(p["checksum"])
		if !g.ValidateCallback(p) {
			t.Error("expected case-insensitive hex to verify")
		}
	})

	t.Run("rejects a tampered field", func(t *testing.T) {
		p := validBayarcashPayload("s3cret")
		p["amount"] = "999999"
		if g.ValidateCallback(p) {
			t.Error("tampered amount must not verify")
		}
	})

	t.Run("rejects a signature from the wrong secret", func(t *testing.T) {
		if g.ValidateCallback(validBayarcashPayload("wrong")) {
			t.Error("foreign signature must not verify")
		}
	})

	t.Run("rejects a missing signature", func(t *testing.T) {
		p := validBayarcashPayload("s3cret")
		delete(p, "checksum")
		if g.ValidateCallback(p) {
			t.Error("missing checksum must not verify")
		}
	})

	t.Run("rejects when secret unconfigured", func(t *testing.T) {
		unconfigured := NewBayarcashGateway(bayarcashConfig(map[string]string{"secret_key": ""}))
		if unconfigured.ValidateCallback(validBayarcashPayload("s3cret")) {
			t.Error("must reject when no secret is configured")
		}
	})

	t.Run("extra undocumented fields do not affect the checksum", func(t *testing.T) {
		p := validBayarcashPayload("s3cret")
		p["extra_field"] = "ignored"
		if !g.ValidateCallback(p) {
			t.Error("fields outside the documented subset must be ignored")
		}
	})
}

func TestBayarcashClassifyStatus(t *testing.T) {
	g := NewBayarcashGateway(bayarcashConfig(nil))
	cases := []struct {
		raw  string
		want adapter.PaymentState
	}{
		{"0", adapter.StatePending},
		{"1", adapter.StatePending},
		{"2", adapter.StateFailed},
		{"3", adapter.StateSuccess},
		{"4", adapter.StateCancelled},
		{"99", adapter.StatePending},
	}
	for _, tc := range cases {
		if got := g.ClassifyStatus(tc.raw); got != tc.want {
			t.Errorf("ClassifyStatus(%q) = %s, want %s", tc.raw, got, tc.want)
		}
	}
}

func TestBayarcashCreatePayment(t *testing.T) {
	intent := adapter.PaymentIntent{
		OrderNumber: "ORD-001",
		Amount:      decimal.RequireFromString("10.5"),
		Currency:    "MYR",
		PayerName:   "Aisyah",
		PayerEmail:  "aisyah@example.com",
		PayerPhone:  "0123456789",
		ReturnURL:   "https://merchant.test/return",
		CallbackURL: "https://merchant.test/callback",
	}

	t.Run("posts cents and returns the hosted intent url", func(t *testing.T) {
		var got map[string]any
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth := r.Header.Get("Authorization"); auth != "Bearer test-token" {
				t.Errorf("unexpected auth header %q", auth)
			}
			if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
				t.Fatalf("decode request: %v", err)
			}
			json.NewEncoder(w).Encode(map[string]string{"id": "pi-1", "url": "https://gateway.test/pi-1"})
		}))
		defer srv.Close()

		g := NewBayarcashGateway(bayarcashConfig(map[string]string{"base_url": srv.URL}))
		req, err := g.CreatePayment(context.Background(), intent)
		if err != nil {
			t.Fatalf("CreatePayment: %v", err)
		}
		if req.PayURL != "https://gateway.test/pi-1" {
			t.Errorf("unexpected pay url %q", req.PayURL)
		}
		if amt, ok := got["amount"].(float64); !ok || int64(amt) != 1050 {
			t.Errorf("expected wire amount 1050 cents, got %v", got["amount"])
		}
		if got["payer_telephone_number"] != "60123456789" {
			t.Errorf("expected normalized phone, got %v", got["payer_telephone_number"])
		}
		if got["checksum"] == "" {
			t.Error("expected outbound request to carry a checksum")
		}
	})

	t.Run("maps non-2xx to ErrUpstream", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusBadGateway)
		}))
		defer srv.Close()

		g := NewBayarcashGateway(bayarcashConfig(map[string]string{"base_url": srv.URL}))
		if _, err := g.CreatePayment(context.Background(), intent); !errors.Is(err, domain.ErrUpstream) {
			t.Errorf("expected ErrUpstream, got %v", err)
		}
	})

	t.Run("fails fast when unavailable", func(t *testing.T) {
		cfg := bayarcashConfig(nil)
		cfg.Active = false
		g := NewBayarcashGateway(cfg)
		if _, err := g.CreatePayment(context.Background(), intent); !errors.Is(err, domain.ErrGatewayUnavailable) {
			t.Errorf("expected ErrGatewayUnavailable, got %v", err)
		}
	})
}
