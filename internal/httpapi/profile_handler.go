package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/focusnest/webhook-service/internal/profile"
	"github.com/focusnest/webhook-service/pkg/auth"
)

func getProfile(service profile.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.UserFromContext(r.Context())
		if !ok || user.UserID == "" {
			writeError(w, http.StatusUnauthorized, "missing user ID")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
		defer cancel()

		p, err := service.Get(ctx, user.UserID)
		if errors.Is(err, profile.ErrNotFound) {
			writeError(w, http.StatusNotFound, "profile not found")
			return
		}
		if err != nil {
			logRequestError(r.Context(), logger, "failed to load profile", err, slog.String("userId", user.UserID))
			writeError(w, http.StatusInternalServerError, "failed to load profile")
			return
		}

		writeJSON(w, http.StatusOK, p)
	}
}
