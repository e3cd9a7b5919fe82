// Package httptransport wires all HTTP endpoints with the middleware stack.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	credentialhandler "zkkyc/internal/credential/handler"
	issuerhandler "zkkyc/internal/issuer/handler"
	"zkkyc/internal/platform/config"
	"zkkyc/internal/platform/health"
	"zkkyc/internal/platform/middleware"
	"zkkyc/internal/platform/token"
	proofhandler "zkkyc/internal/proof/handler"
	verificationhandler "zkkyc/internal/verification/handler"
)

// Handlers groups the domain handlers the router mounts.
type Handlers struct {
	Issuers      *issuerhandler.Handler
	Credentials  *credentialhandler.Handler
	Proofs       *proofhandler.Handler
	Verification *verificationhandler.Handler
	Health       *health.Handler
}

// NewRouter builds the full route table. Admin writes sit behind the admin
// token; credential and verification routes resolve their principal from the
// bearer token.
func NewRouter(cfg config.Server, tokens *token.Service, h Handlers, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Timeout(60 * time.Second))

	if cfg.EnableCORS {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CorsOrigins,
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Admin-Token", "X-Admin-Actor-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	h.Health.Register(r)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Public reads.
	h.Issuers.Register(r)

	// Admin-only issuer registry writes.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdminToken(cfg.AdminToken, logger))
		r.Use(middleware.ContentTypeJSON)
		h.Issuers.RegisterAdmin(r)
	})

	// Principal-scoped protocol routes.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Principal(tokens, logger))
		r.Use(middleware.ContentTypeJSON)
		h.Credentials.Register(r)
		h.Proofs.Register(r)
		h.Verification.Register(r)
	})

	return r
}
