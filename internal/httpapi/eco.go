package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ecotrail/ecotrail/internal/eco"
)

type catalogResponse struct {
	Actions []eco.ActionCatalogEntry `json:"actions"`
	Badges  []eco.BadgeDefinition    `json:"badges"`
}

type submitActionsRequest struct {
	ActionIDs []string `json:"action_ids"`
}

func getCatalog(registry *eco.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		c := registry.Catalog()
		writeJSON(w, http.StatusOK, catalogResponse{Actions: c.Actions(), Badges: c.Badges()})
	}
}

func startSession(registry *eco.Registry, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, ok := sessionKey(r)
		if !ok {
			writeError(w, r, http.StatusUnauthorized, "missing user ID")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
		defer cancel()

		progress, err := registry.Start(ctx, key)
		if err != nil {
			respondEcoServiceError(w, r, logger, "failed to start eco session", err, key.UserID)
			return
		}
		writeJSON(w, http.StatusOK, progress)
	}
}

func endSession(registry *eco.Registry, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, ok := sessionKey(r)
		if !ok {
			writeError(w, r, http.StatusUnauthorized, "missing user ID")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
		defer cancel()

		if err := registry.End(ctx, key); err != nil {
			respondEcoServiceError(w, r, logger, "failed to end eco session", err, key.UserID)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func submitActions(registry *eco.Registry, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, ok := sessionKey(r)
		if !ok {
			writeError(w, r, http.StatusUnauthorized, "missing user ID")
			return
		}

		var body submitActionsRequest
		if err := decodeJSON(w, r, &body); err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid request body")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
		defer cancel()

		result, err := registry.Submit(ctx, key, body.ActionIDs)
		if err != nil {
			respondEcoServiceError(w, r, logger, "failed to submit eco actions", err, key.UserID)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func getProgress(registry *eco.Registry, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, ok := sessionKey(r)
		if !ok {
			writeError(w, r, http.StatusUnauthorized, "missing user ID")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
		defer cancel()

		progress, err := registry.Progress(ctx, key)
		if err != nil {
			respondEcoServiceError(w, r, logger, "failed to load eco progress", err, key.UserID)
			return
		}
		writeJSON(w, http.StatusOK, progress)
	}
}

func respondEcoServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, message string, err error, userID string) {
	var invalid *eco.InvalidActionIDError
	switch {
	case errors.As(err, &invalid):
		writeError(w, r, http.StatusBadRequest, "unknown action id", invalid.IDs...)
	case errors.Is(err, eco.ErrMissingSessionID):
		writeError(w, r, http.StatusBadRequest, "session id is required")
	case errors.Is(err, eco.ErrSessionOwnership):
		writeError(w, r, http.StatusForbidden, "session belongs to another user")
	default:
		logRequestError(r.Context(), logger, message, err, userID)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}
