package server

import (
	"context"
	"net/http"
	"time"

	"github.com/Dan9191/microfund/internal/config"
	"github.com/Dan9191/microfund/internal/handler"
	"github.com/Dan9191/microfund/internal/metrics"
	"github.com/Dan9191/microfund/internal/middleware"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// NewRouter registers every route. Public endpoints live under /api next to
// the protected ones; the auth endpoints are rate limited per client.
func NewRouter(cfg *config.Config, h *handler.Handler, resolver middleware.IdentityResolver, limiter *middleware.RateLimiter, log *logrus.Logger) http.Handler {
	r := mux.NewRouter()
	r.Use(metrics.InstrumentHandler)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.Timeout(cfg.RequestTimeout))

	// Public routes
	api.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	api.HandleFunc("/stats", h.Stats).Methods(http.MethodGet)
	api.HandleFunc("/ledger", h.Ledger).Methods(http.MethodGet)
	api.Handle("/auth/register", limiter.Handler(http.HandlerFunc(h.Register))).Methods(http.MethodPost)
	api.Handle("/auth/login", limiter.Handler(http.HandlerFunc(h.Login))).Methods(http.MethodPost)

	// Protected routes
	protected := api.NewRoute().Subrouter()
	protected.Use(middleware.AuthMiddleware(resolver, log))
	protected.HandleFunc("/auth/profile", h.Profile).Methods(http.MethodGet)
	protected.HandleFunc("/loans", h.CreateLoan).Methods(http.MethodPost)
	protected.HandleFunc("/loans", h.MyLoans).Methods(http.MethodGet)
	protected.HandleFunc("/loans/marketplace", h.Marketplace).Methods(http.MethodGet)
	protected.HandleFunc("/loans/repay", h.RepayLoan).Methods(http.MethodPost)
	protected.HandleFunc("/loans/{id}", h.GetLoan).Methods(http.MethodGet)
	protected.HandleFunc("/loans/{id}/fund", h.FundLoan).Methods(http.MethodPost)
	protected.HandleFunc("/savings", h.ListSavings).Methods(http.MethodGet)
	protected.HandleFunc("/savings", h.CreateSavings).Methods(http.MethodPost)
	protected.HandleFunc("/savings/{id}/deposit", h.Deposit).Methods(http.MethodPost)
	protected.HandleFunc("/savings/{id}/transactions", h.SavingsTransactions).Methods(http.MethodGet)

	return middleware.CORS(cfg.CORSOrigins)(middleware.Logging(log)(r))
}

// New wraps the router in an http.Server listening on the configured port.
func New(cfg *config.Config, handler http.Handler) *Server {
	return &Server{inner: &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       120 * time.Second,
	}}
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
