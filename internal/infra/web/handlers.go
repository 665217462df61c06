package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"freelancer-marketplace/internal/domain"
	"freelancer-marketplace/internal/domain/model"
	"freelancer-marketplace/internal/domain/ports/repository"
	"freelancer-marketplace/internal/infra/security"
	"freelancer-marketplace/internal/usecase"
)

type transactionView struct {
	ID            string  `json:"id"`
	OrderNumber   string  `json:"order_number"`
	TransactionID *string `json:"transaction_id,omitempty"`
	SubjectKind   string  `json:"subject_kind"`
	SubjectID     string  `json:"subject_id"`
	UserID        string  `json:"user_id"`
	Amount        string  `json:"amount"`
	Currency      string  `json:"currency"`
	Gateway       string  `json:"gateway"`
	Status        string  `json:"status"`
	CreatedAt     string  `json:"created_at"`
	PaidAt        string  `json:"paid_at,omitempty"`
}

func toTransactionView(t *model.Transaction) transactionView {
	v := transactionView{
		ID:            t.ID,
		OrderNumber:   t.OrderNumber,
		TransactionID: t.TransactionID,
		SubjectKind:   string(t.SubjectKind),
		SubjectID:     t.SubjectID,
		UserID:        t.UserID,
		Amount:        t.Amount.StringFixed(2),
		Currency:      t.Currency,
		Gateway:       t.Gateway,
		Status:        string(t.Status),
		CreatedAt:     t.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if t.PaidAt != nil {
		v.PaidAt = t.PaidAt.Format("2006-01-02T15:04:05Z07:00")
	}
	return v
}

func transactionsListHandler(payUC usecase.PaymentUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		items, total, err := payUC.List(r.Context(), offset, limit)
		if err != nil {
			http.Error(w, "Failed to list transactions", http.StatusInternalServerError)
			return
		}
		views := make([]transactionView, 0, len(items))
		for _, t := range items {
			views = append(views, toTransactionView(t))
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"total": total,
			"items": views,
		})
	}
}

type orderView struct {
	ID                 string `json:"id"`
	OrderNumber        string `json:"order_number"`
	CustomerID         string `json:"customer_id"`
	FreelancerID       string `json:"freelancer_id"`
	ServiceID          string `json:"service_id"`
	BookingDate        string `json:"booking_date"`
	AgreedPrice        string `json:"agreed_price"`
	Status             string `json:"status"`
	CancellationReason string `json:"cancellation_reason,omitempty"`
}

func toOrderView(o *model.Order) orderView {
	return orderView{
		ID:                 o.ID,
		OrderNumber:        o.OrderNumber,
		CustomerID:         o.CustomerID,
		FreelancerID:       o.FreelancerID,
		ServiceID:          o.ServiceID,
		BookingDate:        o.BookingDate.Format("2006-01-02"),
		AgreedPrice:        o.AgreedPrice.StringFixed(2),
		Status:             string(o.Status),
		CancellationReason: o.CancellationReason,
	}
}

func orderGetHandler(orderUC usecase.OrderUseCase) func(http.ResponseWriter, *http.Request, string) {
	return func(w http.ResponseWriter, r *http.Request, orderNumber string) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		o, err := orderUC.FindByOrderNumber(r.Context(), orderNumber)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				http.Error(w, "Order not found", http.StatusNotFound)
				return
			}
			http.Error(w, "Failed to load order", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, toOrderView(o))
	}
}

// orderActionHandler applies a lifecycle action on behalf of support staff.
func orderActionHandler(orderUC usecase.OrderUseCase) func(http.ResponseWriter, *http.Request, string, string) {
	return func(w http.ResponseWriter, r *http.Request, orderID, action string) {
		var (
			o   *model.Order
			err error
		)
		switch action {
		case "accept":
			o, err = orderUC.Accept(r.Context(), orderID)
		case "reject":
			o, err = orderUC.Reject(r.Context(), orderID)
		case "deliver":
			o, err = orderUC.Deliver(r.Context(), orderID)
		case "confirm":
			o, err = orderUC.Confirm(r.Context(), orderID)
		default:
			http.Error(w, "Unknown action", http.StatusNotFound)
			return
		}
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrNotFound):
				http.Error(w, "Order not found", http.StatusNotFound)
			case errors.Is(err, domain.ErrInvalidTransition):
				http.Error(w, "Order is not in a state that allows this action", http.StatusConflict)
			default:
				http.Error(w, "Failed to apply action", http.StatusInternalServerError)
			}
			return
		}
		writeJSON(w, http.StatusOK, toOrderView(o))
	}
}

func notificationsUnreadHandler(notifUC usecase.NotificationUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		userID := r.URL.Query().Get("user_id")
		if userID == "" {
			http.Error(w, "user_id is required", http.StatusBadRequest)
			return
		}
		n, err := notifUC.UnreadCount(r.Context(), userID)
		if err != nil {
			http.Error(w, "Failed to count notifications", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"unread_count": n})
	}
}

func notificationsReadHandler(notifUC usecase.NotificationUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			UserID string `json:"user_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if err := notifUC.MarkAllRead(r.Context(), req.UserID); err != nil {
			http.Error(w, "Failed to mark notifications read", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type gatewayView struct {
	Slug   string `json:"slug"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
	Mode   string `json:"mode"`
}

func gatewaysListHandler(gateways repository.GatewayConfigRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := gateways.ListActive(r.Context(), nil)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "Failed to list gateways", http.StatusInternalServerError)
			return
		}
		// Settings stay server-side; credentials never leave the API.
		views := make([]gatewayView, 0, len(rows))
		for _, g := range rows {
			views = append(views, gatewayView{Slug: g.Slug, Name: g.Name, Active: g.Active, Mode: string(g.Mode)})
		}
		writeJSON(w, http.StatusOK, views)
	}
}

type gatewayUpdateRequest struct {
	Name     string            `json:"name"`
	Active   bool              `json:"active"`
	Mode     string            `json:"mode"`
	Settings map[string]string `json:"settings"`
}

func gatewayUpdateHandler(gateways repository.GatewayConfigRepository, enc *security.EncryptionService, log *zerolog.Logger) func(http.ResponseWriter, *http.Request, string) {
	return func(w http.ResponseWriter, r *http.Request, slug string) {
		var req gatewayUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		g, err := gateways.FindBySlug(r.Context(), nil, slug)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				http.Error(w, "Gateway not found", http.StatusNotFound)
				return
			}
			http.Error(w, "Failed to load gateway", http.StatusInternalServerError)
			return
		}

		if req.Name != "" {
			g.Name = req.Name
		}
		g.Active = req.Active
		if req.Mode != "" {
			g.Mode = model.GatewayMode(req.Mode)
		}
		for k, v := range req.Settings {
			encrypted, err := enc.Encrypt(v)
			if err != nil {
				log.Error().Err(err).Str("gateway", slug).Msg("settings encryption failed")
				http.Error(w, "Failed to store settings", http.StatusInternalServerError)
				return
			}
			g.Settings[k] = encrypted
		}

		if err := gateways.Save(r.Context(), nil, g); err != nil {
			http.Error(w, "Failed to save gateway", http.StatusInternalServerError)
			return
		}
		// Changes take effect on the next registry rebuild.
		writeJSON(w, http.StatusOK, gatewayView{Slug: g.Slug, Name: g.Name, Active: g.Active, Mode: string(g.Mode)})
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
