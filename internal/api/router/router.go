package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/decoynet/honeypot-platform/internal/honeypot"
	httpmiddleware "github.com/decoynet/honeypot-platform/internal/http/middleware"
	"github.com/decoynet/honeypot-platform/internal/monitor"
	"github.com/decoynet/honeypot-platform/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger          *logging.Logger
	HoneypotHandler *honeypot.Handler
	MonitorHub      *monitor.Hub
	MetricsHandler  http.Handler

	// Webhook authentication (optional; empty disables the check)
	APIKey string

	// Admin JWT guarding session introspection (optional)
	AdminAuthSecret string

	CORSAllowedOrigins []string
	WebhookRateLimit   float64
	WebhookRateBurst   int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints (health checks, metrics)
	r.Group(func(public chi.Router) {
		public.Get("/", cfg.HoneypotHandler.Health)
		public.Get("/health", cfg.HoneypotHandler.Health)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Webhook ingest, guarded by API key and rate limited.
	r.Group(func(webhook chi.Router) {
		webhook.Use(httpmiddleware.APIKey(cfg.APIKey))
		if cfg.WebhookRateLimit > 0 {
			burst := cfg.WebhookRateBurst
			if burst <= 0 {
				burst = int(cfg.WebhookRateLimit)
			}
			webhook.Use(httpmiddleware.RateLimit(cfg.WebhookRateLimit, burst))
		}
		webhook.Post("/webhook", cfg.HoneypotHandler.Webhook)
	})

	// Session introspection, protected by admin JWT when configured.
	r.Route("/sessions", func(sessions chi.Router) {
		if cfg.AdminAuthSecret != "" {
			sessions.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
		}
		sessions.Get("/", cfg.HoneypotHandler.ListSessions)
		sessions.Get("/{sessionID}", cfg.HoneypotHandler.GetSession)
	})

	// Live monitor feed
	if cfg.MonitorHub != nil {
		r.Get("/ws/monitor", cfg.MonitorHub.ServeWS)
	}

	return r
}
