package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/ecotrail/ecotrail/internal/reports"
)

const multipartOverhead = 1 << 20

func listLocations(svc *reports.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"locations": svc.Locations()})
	}
}

func submitReport(svc *reports.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, reports.MaxPhotoBytes+multipartOverhead)
		if err := r.ParseMultipartForm(reports.MaxPhotoBytes); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, r, http.StatusRequestEntityTooLarge, "photo is too large")
				return
			}
			writeError(w, r, http.StatusBadRequest, "invalid multipart form")
			return
		}

		sub := reports.Submission{
			UserID:   userID(r),
			Location: strings.TrimSpace(r.FormValue("location")),
			Comment:  r.FormValue("comment"),
			Consent:  parseConsent(r.FormValue("consent")),
		}

		file, header, err := r.FormFile("photo")
		switch {
		case errors.Is(err, http.ErrMissingFile):
		case err != nil:
			writeError(w, r, http.StatusBadRequest, "invalid photo upload")
			return
		default:
			defer file.Close()
			data, err := io.ReadAll(file)
			if err != nil {
				writeError(w, r, http.StatusBadRequest, "invalid photo upload")
				return
			}
			sub.Photo = data
			sub.PhotoName = header.Filename
		}

		ctx, cancel := context.WithTimeout(r.Context(), aiTimeout)
		defer cancel()

		report, err := svc.Submit(ctx, sub)
		if err != nil {
			respondReportServiceError(w, r, logger, err)
			return
		}

		if report.Document == nil || wantsPDF(r) {
			w.Header().Set("Content-Type", "application/pdf")
			w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename))
			w.Header().Set("X-Report-ID", report.ID)
			w.Header().Set("X-Report-Pages", strconv.Itoa(report.Pages))
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write(report.PDF)
			return
		}
		writeJSON(w, http.StatusCreated, report)
	}
}

func respondReportServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, reports.ErrMissingPhoto):
		writeError(w, r, http.StatusBadRequest, "please upload an image before submitting")
	case errors.Is(err, reports.ErrConsentRequired):
		writeError(w, r, http.StatusBadRequest, "you must agree to the consent to share before submitting")
	case errors.Is(err, reports.ErrUnknownLocation):
		writeError(w, r, http.StatusBadRequest, "unknown report location")
	case errors.Is(err, reports.ErrUnsupportedImage):
		writeError(w, r, http.StatusUnsupportedMediaType, "photo must be a JPEG or PNG image")
	case errors.Is(err, reports.ErrPhotoTooLarge):
		writeError(w, r, http.StatusRequestEntityTooLarge, "photo is too large")
	default:
		respondAssistantError(w, r, logger, "failed to generate report", err)
	}
}

func wantsPDF(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/pdf")
}

func parseConsent(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
