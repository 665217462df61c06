package web

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"freelancer-marketplace/internal/domain/ports/repository"
	"freelancer-marketplace/internal/infra/security"
	"freelancer-marketplace/internal/usecase"
)

// Server is the operator-facing admin API. Login exchanges the static API
// key for a short-lived JWT session; everything else requires the session.
type Server struct {
	payUC    usecase.PaymentUseCase
	orderUC  usecase.OrderUseCase
	notifUC  usecase.NotificationUseCase
	gateways repository.GatewayConfigRepository
	enc      *security.EncryptionService
	auth     *AuthManager
	apiKey   string
	log      *zerolog.Logger
}

func NewServer(
	payUC usecase.PaymentUseCase,
	orderUC usecase.OrderUseCase,
	notifUC usecase.NotificationUseCase,
	gateways repository.GatewayConfigRepository,
	enc *security.EncryptionService,
	auth *AuthManager,
	apiKey string,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "AdminAPI").Logger()
	return &Server{
		payUC:    payUC,
		orderUC:  orderUC,
		notifUC:  notifUC,
		gateways: gateways,
		enc:      enc,
		auth:     auth,
		apiKey:   apiKey,
		log:      &l,
	}
}

// RegisterRoutes sets up the routing for the admin API.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/login", s.handleLogin)
	mux.HandleFunc("/api/v1/logout", s.handleLogout)

	mux.Handle("/api/v1/transactions", s.authMiddleware(transactionsListHandler(s.payUC)))

	ordersRouter := s.authMiddleware(s.ordersRouter())
	mux.Handle("/api/v1/orders/", ordersRouter)

	mux.Handle("/api/v1/notifications/unread_count", s.authMiddleware(notificationsUnreadHandler(s.notifUC)))
	mux.Handle("/api/v1/notifications/read", s.authMiddleware(notificationsReadHandler(s.notifUC)))

	gatewaysRouter := s.authMiddleware(s.gatewaysRouter())
	mux.Handle("/api/v1/gateways", gatewaysRouter)
	mux.Handle("/api/v1/gateways/", gatewaysRouter)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.apiKey == "" {
		s.log.Error().Msg("Admin API key is not configured")
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	if r.Header.Get("X-Api-Key") != s.apiKey {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	token, err := s.auth.Mint(w)
	if err != nil {
		http.Error(w, "Failed to mint session", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.auth.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.auth.ParseFromRequest(r); err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ordersRouter dispatches /api/v1/orders/{orderNumber} and
// /api/v1/orders/{id}/{action}.
func (s *Server) ordersRouter() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/api/v1/orders/")
		path = strings.TrimSuffix(path, "/")
		if path == "" {
			http.NotFound(w, r)
			return
		}

		parts := strings.SplitN(path, "/", 2)
		if len(parts) == 1 {
			orderGetHandler(s.orderUC)(w, r, parts[0])
			return
		}
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		orderActionHandler(s.orderUC)(w, r, parts[0], parts[1])
	})
}

// gatewaysRouter dispatches /api/v1/gateways and /api/v1/gateways/{slug}.
func (s *Server) gatewaysRouter() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/api/v1/gateways")
		path = strings.Trim(path, "/")

		if path == "" {
			if r.Method != http.MethodGet {
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
				return
			}
			gatewaysListHandler(s.gateways)(w, r)
			return
		}
		if r.Method != http.MethodPut {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		gatewayUpdateHandler(s.gateways, s.enc, s.log)(w, r, path)
	})
}
