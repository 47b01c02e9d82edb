package httpapi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/focusnest/webhook-service/internal/clerk"
	"github.com/focusnest/webhook-service/internal/profile"
	"github.com/focusnest/webhook-service/internal/webhook"
	"github.com/focusnest/webhook-service/pkg/dto"
	"github.com/focusnest/webhook-service/pkg/logging"
)

var errBodyTooLarge = errors.New("payload too large")

// clerkWebhook verifies, decodes and applies one Clerk delivery. Nothing is parsed or written
// before the signature over the raw body checks out.
func clerkWebhook(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(r.Context(), deps.Logger)
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("webhook handler panic", slog.Any("panic", rec))
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()

		body, err := readBody(w, r, deps.MaxBodyBytes)
		if err != nil {
			logger.Warn("webhook body rejected", slog.Any("error", err))
			if errors.Is(err, errBodyTooLarge) {
				writeError(w, http.StatusBadRequest, errBodyTooLarge.Error())
				return
			}
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		delivery, err := deps.Verifier.Verify(body, r.Header)
		if err != nil {
			status, message := verificationFailure(err)
			logger.Warn("webhook signature rejected", slog.Any("error", err), slog.Int("status", status))
			writeError(w, status, message)
			return
		}
		logger = logger.With(slog.String("deliveryId", delivery.ID))

		// The provider may hang up; the write still runs to completion.
		ctx := context.WithoutCancel(r.Context())

		if deps.Dedupe != nil {
			seen, err := deps.Dedupe.Seen(ctx, delivery.ID)
			if err != nil {
				logger.Warn("dedupe lookup failed, processing anyway", slog.Any("error", err))
			} else if seen {
				logger.Info("duplicate delivery acknowledged")
				writeJSON(w, http.StatusOK, dto.SuccessResponse{Success: true})
				return
			}
		}

		ev, err := clerk.Decode(body)
		if err != nil {
			logger.Warn("invalid event payload", slog.Any("error", err))
			writeError(w, http.StatusBadRequest, "invalid event payload")
			return
		}
		logger = logger.With(slog.String("eventType", ev.Type()))

		if deps.Archiver != nil {
			if err := deps.Archiver.Archive(ctx, ev.Type(), delivery.ID, body); err != nil {
				logger.Warn("failed to archive payload", slog.Any("error", err))
			}
		}

		res, err := deps.Service.Sync(ctx, ev)
		if err != nil {
			if errors.Is(err, profile.ErrMissingClerkID) {
				logger.Warn("event without user id", slog.Any("error", err))
				writeError(w, http.StatusBadRequest, "invalid event payload")
				return
			}
			logger.Error("failed to sync user", slog.Any("error", err))
			writeError(w, http.StatusInternalServerError, "failed to sync user")
			return
		}

		if deps.Dedupe != nil {
			if err := deps.Dedupe.Mark(ctx, delivery.ID); err != nil {
				logger.Warn("failed to record delivery", slog.Any("error", err))
			}
		}

		logger.Info("webhook processed", slog.String("action", string(res.Action)), slog.String("clerkId", res.ClerkID))
		writeJSON(w, http.StatusOK, dto.SuccessResponse{Success: true})
	}
}

func readBody(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, errBodyTooLarge
		}
		return nil, err
	}
	return body, nil
}

func verificationFailure(err error) (int, string) {
	if errors.Is(err, webhook.ErrMissingHeaders) {
		return http.StatusUnauthorized, "missing webhook signature headers"
	}
	return http.StatusForbidden, "invalid webhook signature"
}

func requestLogger(ctx context.Context, logger *slog.Logger) *slog.Logger {
	return logging.FromContext(ctx, logger)
}
