package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"freelancer-marketplace/internal/domain"
	"freelancer-marketplace/internal/domain/model"
	"freelancer-marketplace/internal/domain/ports/adapter"
	"freelancer-marketplace/internal/infra/logging"
	"freelancer-marketplace/internal/infra/redis"
	"freelancer-marketplace/internal/usecase"
)

// Server exposes the public payment surface: checkout initiation, the
// server-to-server callback, and the browser return page.
type Server struct {
	payUC     usecase.PaymentUseCase
	orderUC   usecase.OrderUseCase
	limiter   *redis.RateLimiter
	rateLimit int
	rateWin   time.Duration
	log       *zerolog.Logger
}

func NewServer(payUC usecase.PaymentUseCase, orderUC usecase.OrderUseCase, limiter *redis.RateLimiter, rateLimit int, rateWin time.Duration, logger *zerolog.Logger) *Server {
	l := logger.With().Str("component", "PublicAPI").Logger()
	return &Server{
		payUC:     payUC,
		orderUC:   orderUC,
		limiter:   limiter,
		rateLimit: rateLimit,
		rateWin:   rateWin,
		log:       &l,
	}
}

// Router builds the chi routing tree with middleware applied.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	common := []Middleware{TraceID(), Recover(s.log), RequestLog(s.log), Timeout(15 * time.Second)}

	r.Route("/api/v1", func(r chi.Router) {
		r.Method(http.MethodPost, "/orders", Chain(http.HandlerFunc(s.handleCreateOrder), common...))
		r.Method(http.MethodPost, "/payments", Chain(http.HandlerFunc(s.handleInitiate), common...))

		cb := append(common, RateLimit(s.limiter, s.rateLimit, s.rateWin, func(req *http.Request) string {
			return redis.CallbackKey(chi.URLParam(req, "gateway"), ClientIP(req))
		}, s.log))
		r.Method(http.MethodPost, "/payments/{gateway}/callback", Chain(http.HandlerFunc(s.handleCallback), cb...))
		r.Method(http.MethodGet, "/payments/{gateway}/return", Chain(http.HandlerFunc(s.handleReturn), common...))
		r.Method(http.MethodPost, "/payments/{gateway}/return", Chain(http.HandlerFunc(s.handleReturn), common...))
	})

	return r
}

type createOrderRequest struct {
	CustomerID   string `json:"customer_id"`
	FreelancerID string `json:"freelancer_id"`
	ServiceID    string `json:"service_id"`
	BookingDate  string `json:"booking_date"` // YYYY-MM-DD
	AgreedPrice  string `json:"agreed_price"`
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	bookingDate, err := time.Parse("2006-01-02", req.BookingDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "booking_date must be YYYY-MM-DD")
		return
	}
	price, err := decimal.NewFromString(req.AgreedPrice)
	if err != nil {
		writeError(w, http.StatusBadRequest, "agreed_price must be a decimal string")
		return
	}

	o, err := s.orderUC.Create(r.Context(), usecase.CreateOrderInput{
		CustomerID:   req.CustomerID,
		FreelancerID: req.FreelancerID,
		ServiceID:    req.ServiceID,
		BookingDate:  bookingDate,
		AgreedPrice:  price,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id":           o.ID,
		"order_number": o.OrderNumber,
		"status":       string(o.Status),
		"booking_date": o.BookingDate.Format("2006-01-02"),
	})
}

type initiateRequest struct {
	Gateway     string `json:"gateway"`
	SubjectKind string `json:"subject_kind"` // "order" | "subscription"
	OrderID     string `json:"order_id,omitempty"`
	PlanID      string `json:"plan_id,omitempty"`
	UserID      string `json:"user_id"`
	PayerName   string `json:"payer_name"`
	PayerEmail  string `json:"payer_email"`
	PayerPhone  string `json:"payer_phone"`
	Channel     string `json:"channel,omitempty"`
}

func (s *Server) handleInitiate(w http.ResponseWriter, r *http.Request) {
	var req initiateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	t, payURL, err := s.payUC.Initiate(r.Context(), usecase.InitiateInput{
		Gateway:     req.Gateway,
		SubjectKind: model.SubjectKind(req.SubjectKind),
		OrderID:     req.OrderID,
		PlanID:      req.PlanID,
		UserID:      req.UserID,
		PayerName:   req.PayerName,
		PayerEmail:  req.PayerEmail,
		PayerPhone:  req.PayerPhone,
		Channel:     req.Channel,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"order_number": t.OrderNumber,
		"pay_url":      payURL,
		"amount":       t.Amount.StringFixed(2),
		"currency":     t.Currency,
	})
}

// handleCallback acknowledges every verified-or-not delivery with 200 so the
// provider stops retrying; rejected checksums change no state.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	gateway := chi.URLParam(r, "gateway")
	payload := payloadFrom(r)

	l := logging.With(logging.WithGateway(r.Context(), gateway), s.log)
	outcome, err := s.payUC.HandleCallback(r.Context(), gateway, payload)
	if err != nil {
		l.Warn().Err(err).Msg("callback not applied")
	} else if outcome.Duplicate {
		l.Info().Str("order_number", outcome.OrderNumber).Msg("duplicate callback acknowledged")
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleReturn(w http.ResponseWriter, r *http.Request) {
	gateway := chi.URLParam(r, "gateway")
	payload := payloadFrom(r)

	outcome, err := s.payUC.HandleReturn(r.Context(), gateway, payload)
	if err != nil {
		s.renderResult(w, adapter.StateFailed, orderNumberForPage(payload))
		return
	}
	s.renderResult(w, outcome.State, outcome.OrderNumber)
}

func orderNumberForPage(payload map[string]string) string {
	if v := payload["order_number"]; v != "" {
		return v
	}
	return payload["order_id"]
}

// payloadFrom flattens the provider payload. Providers send either form
// fields or a JSON object; query parameters are merged in for the return leg.
func payloadFrom(r *http.Request) map[string]string {
	out := map[string]string{}

	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		// UseNumber keeps the numeric lexeme exactly as sent. Checksum
		// verification re-joins these values, so "10.50" must not
		// become "10.5" and large ids must not go scientific.
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		var body map[string]interface{}
		if err := dec.Decode(&body); err == nil {
			for k, v := range body {
				out[k] = fmt.Sprintf("%v", v)
			}
		}
	} else {
		_ = r.ParseForm()
		for k, vs := range r.PostForm {
			if len(vs) > 0 {
				out[k] = vs[0]
			}
		}
	}
	for k, vs := range r.URL.Query() {
		if _, exists := out[k]; !exists && len(vs) > 0 {
			out[k] = vs[0]
		}
	}
	return out
}

var resultPage = template.Must(template.New("result").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8" />
<meta name="viewport" content="width=device-width,initial-scale=1" />
<title>Payment {{.Title}}</title>
<style>
body{font-family:system-ui,Arial,sans-serif;margin:2rem;}
.card{max-width:560px;border:1px solid #ddd;border-radius:12px;padding:24px;}
.ok{color:#057a55} .pending{color:#92400e} .fail{color:#b00020}
.small{font-size:12px;color:#666}
</style>
</head>
<body>
<div class="card">
  <h2 class="{{.Class}}">{{.Heading}}</h2>
  <p>{{.Msg}}</p>
  {{if .OrderNumber}}<div class="small">Reference: {{.OrderNumber}}</div>{{end}}
</div>
</body>
</html>`))

func (s *Server) renderResult(w http.ResponseWriter, state adapter.PaymentState, orderNumber string) {
	data := struct {
		Title, Class, Heading, Msg, OrderNumber string
	}{OrderNumber: orderNumber}

	switch state {
	case adapter.StateSuccess:
		data.Title, data.Class = "Success", "ok"
		data.Heading = "Payment Successful"
		data.Msg = "Your payment has been confirmed."
	case adapter.StatePending:
		data.Title, data.Class = "Pending", "pending"
		data.Heading = "Payment Processing"
		data.Msg = "Your payment is being confirmed. This page does not finalize the payment; you will be notified once the provider confirms it."
	default:
		data.Title, data.Class = "Failed", "fail"
		data.Heading = "Payment Unsuccessful"
		data.Msg = "The payment was not completed. No money has been captured for this order."
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = resultPage.Execute(w, data)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrBookingDateTaken):
		writeError(w, http.StatusConflict, "the freelancer already has a booking on that date")
	case errors.Is(err, domain.ErrGatewayUnavailable):
		writeError(w, http.StatusServiceUnavailable, "payment gateway unavailable")
	case errors.Is(err, domain.ErrUpstream):
		writeError(w, http.StatusBadGateway, "payment provider error")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
