package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ecotrail/ecotrail/internal/tips"
)

func listTips(svc *tips.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"tips": svc.List()})
	}
}

func generateTipImage(svc *tips.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), aiTimeout)
		defer cancel()

		img, err := svc.GenerateImage(ctx, chi.URLParam(r, "id"), userID(r))
		if err != nil {
			if errors.Is(err, tips.ErrTipNotFound) {
				writeError(w, r, http.StatusNotFound, "tip not found")
				return
			}
			respondAssistantError(w, r, logger, "failed to generate tip image", err)
			return
		}

		if img.Object != nil {
			writeJSON(w, http.StatusOK, img)
			return
		}
		w.Header().Set("Content-Type", img.MIMEType)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(img.Data)
	}
}
