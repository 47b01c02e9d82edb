// Package httpapi wires the Clerk webhook receiver and the profile read API onto a chi router.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/focusnest/webhook-service/internal/archive"
	"github.com/focusnest/webhook-service/internal/dedupe"
	"github.com/focusnest/webhook-service/internal/profile"
	"github.com/focusnest/webhook-service/internal/webhook"
	"github.com/focusnest/webhook-service/pkg/dto"
	"github.com/focusnest/webhook-service/pkg/server"
)

const (
	defaultMaxBodyBytes = 1 << 20
	readinessTimeout    = 2 * time.Second
	serviceTimeout      = 8 * time.Second
)

// SignatureVerifier authenticates a raw webhook body against its headers.
type SignatureVerifier interface {
	Verify(body []byte, h http.Header) (webhook.Delivery, error)
}

// Deps are the process-wide handles the handlers need. Dedupe, Archiver and Readiness are optional.
type Deps struct {
	Verifier     SignatureVerifier
	Service      profile.Service
	Dedupe       dedupe.Store
	Archiver     archive.Archiver
	Readiness    profile.Pinger
	Logger       *slog.Logger
	MaxBodyBytes int64
}

// RegisterRoutes mounts the webhook receiver, readiness probe and the authenticated profile API.
// authMiddleware guards /v1/profiles; pass nil to leave it open (tests only).
func RegisterRoutes(r chi.Router, deps Deps, authMiddleware func(http.Handler) http.Handler) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.MaxBodyBytes <= 0 {
		deps.MaxBodyBytes = defaultMaxBodyBytes
	}

	r.Post("/webhooks/clerk", clerkWebhook(deps))
	r.Get("/readyz", readiness(deps))

	r.Route("/v1/profiles", func(r chi.Router) {
		if authMiddleware != nil {
			r.Use(authMiddleware)
		}
		r.Get("/me", getProfile(deps.Service, deps.Logger))
	})
}

func readiness(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Readiness != nil {
			ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
			defer cancel()
			if err := deps.Readiness.Ping(ctx); err != nil {
				logRequestError(r.Context(), deps.Logger, "readiness check failed", err)
				writeError(w, http.StatusServiceUnavailable, "profile store not reachable")
				return
			}
		}
		writeJSON(w, http.StatusOK, dto.ReadyResponse{Status: "ready"})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	server.WriteJSON(w, status, payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, dto.ErrorResponse{Error: message})
}

func logRequestError(ctx context.Context, logger *slog.Logger, message string, err error, attrs ...any) {
	if logger == nil || err == nil {
		return
	}
	attrs = append(attrs, slog.Any("error", err))
	requestLogger(ctx, logger).ErrorContext(ctx, message, attrs...)
}
