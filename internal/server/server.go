package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/subsync/internal/handler"
	"github.com/dukerupert/subsync/internal/middleware"
	"github.com/dukerupert/subsync/internal/store"
	"github.com/dukerupert/subsync/internal/stripe"
)

type Server struct {
	db           *sql.DB
	teamStore    *store.TeamStore
	userStore    *store.UserStore
	sessionStore *store.SessionStore
	stripeClient *stripe.Client
	webhookH     *handler.WebhookHandler
	checkoutH    *handler.CheckoutHandler
	catalogH     *handler.CatalogHandler
	rateLimiter  *middleware.RateLimiter
	logger       *slog.Logger
}

type Config struct {
	Stripe  stripe.Config
	BaseURL string
}

func New(db *sql.DB, cfg Config, logger *slog.Logger, stripeOpts ...stripe.Option) *Server {
	teamStore := store.NewTeamStore(db)
	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db)

	stripeClient := stripe.NewClient(cfg.Stripe, stripeOpts...)

	webhookH := handler.NewWebhookHandler(stripeClient, teamStore, logger.With("component", "webhook"))
	checkoutH := handler.NewCheckoutHandler(stripeClient, teamStore, cfg.BaseURL, logger.With("component", "checkout"))
	catalogH := handler.NewCatalogHandler(stripeClient, logger.With("component", "catalog"))

	return &Server{
		db:           db,
		teamStore:    teamStore,
		userStore:    userStore,
		sessionStore: sessionStore,
		stripeClient: stripeClient,
		webhookH:     webhookH,
		checkoutH:    checkoutH,
		catalogH:     catalogH,
		rateLimiter:  middleware.NewRateLimiter(),
		logger:       logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthCheck)

	// Stripe webhook (public, signature-verified)
	mux.HandleFunc("POST /webhooks/stripe", s.webhookH.HandleStripeWebhook)

	// Checkout return path (public, browser redirect)
	mux.HandleFunc("GET /api/stripe/checkout", s.checkoutH.Callback)

	// Catalog reads (public)
	mux.HandleFunc("GET /api/stripe/products", s.catalogH.Products)
	mux.HandleFunc("GET /api/stripe/prices", s.catalogH.Prices)

	// Session creation (authenticated, rate-limited)
	authMw := middleware.RequireAuth(s.sessionStore)
	rateLimitMw := middleware.RateLimit(s.rateLimiter, middleware.RealIP, 10, time.Minute)
	mux.Handle("POST /api/stripe/checkout/sessions",
		rateLimitMw(authMw(http.HandlerFunc(s.checkoutH.CreateCheckoutSession))))
	mux.Handle("POST /api/stripe/billing-portal/sessions",
		rateLimitMw(authMw(http.HandlerFunc(s.checkoutH.BillingPortal))))

	return middleware.RequestLogger(s.logger)(mux)
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
