package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ecotrail/ecotrail/internal/assistant"
	"github.com/ecotrail/ecotrail/internal/trails"
)

type extractStopsRequest struct {
	Overview string `json:"overview"`
}

type describeStopRequest struct {
	Stops []trails.Stop `json:"stops"`
}

func listTrails(svc *trails.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"trails": svc.Trails()})
	}
}

func generateOverview(svc *trails.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), aiTimeout)
		defer cancel()

		overview, err := svc.GenerateOverview(ctx, chi.URLParam(r, "id"))
		if err != nil {
			respondTrailServiceError(w, r, logger, "failed to generate trail overview", err)
			return
		}
		writeJSON(w, http.StatusOK, overview)
	}
}

func extractStops(svc *trails.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body extractStopsRequest
		if err := decodeJSON(w, r, &body); err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid request body")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), aiTimeout)
		defer cancel()

		stops, err := svc.ExtractStops(ctx, chi.URLParam(r, "id"), body.Overview)
		if err != nil {
			respondTrailServiceError(w, r, logger, "failed to extract trail stops", err)
			return
		}
		writeJSON(w, http.StatusOK, stops)
	}
}

func describeStop(svc *trails.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, err := strconv.Atoi(chi.URLParam(r, "index"))
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "stop index must be an integer")
			return
		}

		var body describeStopRequest
		if err := decodeJSON(w, r, &body); err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid request body")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), aiTimeout)
		defer cancel()

		detail, err := svc.DescribeStop(ctx, chi.URLParam(r, "id"), body.Stops, index)
		if err != nil {
			respondTrailServiceError(w, r, logger, "failed to describe trail stop", err)
			return
		}
		writeJSON(w, http.StatusOK, detail)
	}
}

func respondTrailServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, message string, err error) {
	switch {
	case errors.Is(err, trails.ErrTrailNotFound):
		writeError(w, r, http.StatusNotFound, "trail not found")
	case errors.Is(err, trails.ErrStopNotFound):
		writeError(w, r, http.StatusNotFound, "trail stop not found")
	case errors.Is(err, trails.ErrStopsUnavailable):
		writeError(w, r, http.StatusConflict, "generate the trail stops first")
	case errors.Is(err, trails.ErrOverviewRequired):
		writeError(w, r, http.StatusBadRequest, "overview is required")
	default:
		respondAssistantError(w, r, logger, message, err)
	}
}

// respondAssistantError maps generative backend failures shared by every AI route.
func respondAssistantError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, message string, err error) {
	logRequestError(r.Context(), logger, message, err, userID(r))
	switch {
	case errors.Is(err, assistant.ErrAssistantUnavailable):
		writeError(w, r, http.StatusServiceUnavailable, "AI features are not configured")
	case errors.Is(err, assistant.ErrEmptyResponse), errors.Is(err, context.DeadlineExceeded):
		writeError(w, r, http.StatusBadGateway, "AI service did not return a usable answer")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}
