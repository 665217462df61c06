//go:build !integration

package web

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"freelancer-marketplace/internal/infra/security"
)

func newBareServer(t *testing.T) *httptest.Server {
	t.Helper()
	enc, err := security.NewEncryptionService(testEncryptionKey)
	if err != nil {
		t.Fatalf("encryption service: %v", err)
	}
	auth := NewAuthManager("test-jwt-secret", false, "", time.Hour)
	srv := NewServer(&mockPaymentUC{}, newMockOrderUC(), &mockNotificationUC{unread: map[string]int{}}, newMockGatewayConfigRepo(), enc, auth, "test-api-key", newTestLogger())

	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func TestLogin(t *testing.T) {
	t.Run("should mint a session for the right api key", func(t *testing.T) {
		ts := newBareServer(t)
		req, _ := http.NewRequest(http.MethodPost, ts.URL+"/api/v1/login", nil)
		req.Header.Set("X-Api-Key", "test-api-key")

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		var sessionCookie *http.Cookie
		for _, c := range resp.Cookies() {
			if c.Name == "admin_session" {
				sessionCookie = c
			}
		}
		if sessionCookie == nil || sessionCookie.Value == "" {
			t.Fatal("expected an admin_session cookie")
		}
		if !sessionCookie.HttpOnly {
			t.Error("session cookie must be HttpOnly")
		}
	})

	t.Run("should refuse a wrong api key", func(t *testing.T) {
		ts := newBareServer(t)
		req, _ := http.NewRequest(http.MethodPost, ts.URL+"/api/v1/login", nil)
		req.Header.Set("X-Api-Key", "wrong")

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("expected 403, got %d", resp.StatusCode)
		}
	})

	t.Run("should accept a bearer token as an alternative to the cookie", func(t *testing.T) {
		ts := newBareServer(t)
		req, _ := http.NewRequest(http.MethodPost, ts.URL+"/api/v1/login", nil)
		req.Header.Set("X-Api-Key", "test-api-key")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("login failed: %v", err)
		}
		var body struct {
			Token string `json:"token"`
		}
		decodeJSON(t, resp, &body)
		if body.Token == "" {
			t.Fatal("expected a token in the login response")
		}

		listReq, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/v1/transactions", nil)
		listReq.Header.Set("Authorization", "Bearer "+body.Token)
		listResp, err := http.DefaultClient.Do(listReq)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		listResp.Body.Close()
		if listResp.StatusCode != http.StatusOK {
			t.Errorf("expected 200 with bearer token, got %d", listResp.StatusCode)
		}
	})

	t.Run("logout clears the session cookie", func(t *testing.T) {
		ts := newBareServer(t)
		resp, err := http.Post(ts.URL+"/api/v1/logout", "application/json", nil)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", resp.StatusCode)
		}
		cleared := false
		for _, c := range resp.Cookies() {
			if c.Name == "admin_session" && c.MaxAge < 0 {
				cleared = true
			}
		}
		if !cleared {
			t.Error("expected the session cookie to be expired")
		}
	})
}
