// Package api wires the HTTP surface: authentication, direct messages, and
// the conversation listings. Handlers depend on collaborator interfaces so
// tests can inject fakes.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"courier/internal/conversation"
	"courier/internal/mail"
	"courier/internal/store"
	"courier/internal/token"
)

const (
	defaultPageLimit     = 10
	maxPageLimit         = 100
	defaultAuthRateLimit = 30
)

// Deps holds the collaborators required by the API layer.
type Deps struct {
	Users    store.UserStore
	Messages store.MessageStore
	Tokens   *token.Service
	Engine   *conversation.Engine
	Mailer   mail.Sender
	Audit    store.AuditRecorder
	// Ready reports backend health for the readiness probe; nil means
	// always ready.
	Ready func(context.Context) error
}

// Config controls runtime behaviour for the API handlers.
type Config struct {
	PublicBaseURL  string
	AllowedOrigins []string
	AuthRateLimit  int
}

// API wires dependencies and configuration for HTTP handlers.
type API struct {
	deps Deps
	cfg  Config
}

// New initialises the API layer with sane defaults applied to the provided
// configuration.
func New(deps Deps, cfg Config) (*API, error) {
	if deps.Users == nil {
		return nil, errors.New("user store is required")
	}
	if deps.Messages == nil {
		return nil, errors.New("message store is required")
	}
	if deps.Tokens == nil {
		return nil, errors.New("token service is required")
	}
	if deps.Engine == nil {
		return nil, errors.New("conversation engine is required")
	}
	if deps.Mailer == nil {
		return nil, errors.New("mailer is required")
	}
	if deps.Audit == nil {
		return nil, errors.New("audit recorder is required")
	}

	if cfg.AuthRateLimit <= 0 {
		cfg.AuthRateLimit = defaultAuthRateLimit
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	return &API{deps: deps, cfg: cfg}, nil
}

// Routes constructs the chi router containing all endpoints.
func (a *API) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   a.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           int((10 * time.Minute).Seconds()),
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if a.deps.Ready != nil {
			if err := a.deps.Ready(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("not ready"))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	r.Method("GET", "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(httprate.Limit(a.cfg.AuthRateLimit, time.Minute))
		r.Post("/auth/register", a.handleRegister)
		r.Post("/auth/login", a.handleLogin)
		r.Post("/auth/forgot-password", a.handleForgotPassword)
		r.Post("/auth/reset-password", a.handleResetPassword)
	})

	r.Group(func(r chi.Router) {
		r.Use(a.requireAuth)
		r.Get("/me", a.handleMe)
		r.Post("/messages", a.handleCreateMessage)
		r.Get("/messages", a.handleListMessages)
		r.Get("/messages/conversations", a.handleListConversations)
	})

	return r
}
