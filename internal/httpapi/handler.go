package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ecotrail/ecotrail/internal/eco"
	"github.com/ecotrail/ecotrail/internal/reports"
	"github.com/ecotrail/ecotrail/internal/tips"
	"github.com/ecotrail/ecotrail/internal/trails"
	"github.com/ecotrail/ecotrail/shared/auth"
	sharederrors "github.com/ecotrail/ecotrail/shared/errors"
)

const (
	serviceTimeout  = 8 * time.Second
	aiTimeout       = 75 * time.Second
	maxJSONBodySize = 256 * 1024
)

// Services groups the domain services exposed over HTTP.
type Services struct {
	Eco     *eco.Registry
	Trails  *trails.Service
	Reports *reports.Service
	Tips    *tips.Service
}

// RegisterRoutes registers all ecotrail routes.
func RegisterRoutes(r chi.Router, svc Services, logger *slog.Logger) {
	r.Route("/v1/eco", func(r chi.Router) {
		r.Get("/catalog", getCatalog(svc.Eco))
		r.Post("/sessions", startSession(svc.Eco, logger))
		r.Delete("/sessions/me", endSession(svc.Eco, logger))
		r.Post("/actions", submitActions(svc.Eco, logger))
		r.Get("/progress", getProgress(svc.Eco, logger))
	})

	r.Route("/v1/trails", func(r chi.Router) {
		r.Get("/", listTrails(svc.Trails))
		r.Post("/{id}/overview", generateOverview(svc.Trails, logger))
		r.Post("/{id}/stops", extractStops(svc.Trails, logger))
		r.Post("/{id}/stops/{index}/describe", describeStop(svc.Trails, logger))
	})

	r.Route("/v1/reports", func(r chi.Router) {
		r.Get("/locations", listLocations(svc.Reports))
		r.Post("/", submitReport(svc.Reports, logger))
	})

	r.Route("/v1/tips", func(r chi.Router) {
		r.Get("/", listTips(svc.Tips))
		r.Post("/{id}/image", generateTipImage(svc.Tips, logger))
	})
}

// sessionKey identifies the caller's eco session as resolved by the auth middleware.
func sessionKey(r *http.Request) (eco.SessionKey, bool) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user.UserID == "" {
		return eco.SessionKey{}, false
	}
	return eco.SessionKey{UserID: user.UserID, SessionID: user.SessionID}, true
}

func userID(r *http.Request) string {
	if user, ok := auth.UserFromContext(r.Context()); ok {
		return user.UserID
	}
	return ""
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBodySize))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string, details ...string) {
	writeJSON(w, status, sharederrors.ErrorResponse{
		Code:      sharederrors.CodeForStatus(status),
		Message:   message,
		Details:   details,
		RequestID: middleware.GetReqID(r.Context()),
	})
}

func logRequestError(ctx context.Context, logger *slog.Logger, message string, err error, userID string) {
	if logger == nil || err == nil {
		return
	}
	attrs := []any{
		slog.String("userId", userID),
		slog.Any("error", err),
	}
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		attrs = append(attrs, slog.String("requestId", reqID))
	}
	logger.ErrorContext(ctx, message, attrs...)
}
