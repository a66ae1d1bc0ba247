package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecotrail/ecotrail/internal/assistant"
	"github.com/ecotrail/ecotrail/internal/eco"
	"github.com/ecotrail/ecotrail/internal/reports"
	"github.com/ecotrail/ecotrail/internal/tips"
	"github.com/ecotrail/ecotrail/internal/trails"
	"github.com/ecotrail/ecotrail/shared/auth"
	sharederrors "github.com/ecotrail/ecotrail/shared/errors"
	"github.com/ecotrail/ecotrail/shared/events"
	"github.com/ecotrail/ecotrail/shared/logging"
	sharedserver "github.com/ecotrail/ecotrail/shared/server"
)

type fakeAssistant struct {
	text  string
	err   error
	image assistant.Image
}

func (f *fakeAssistant) GenerateText(context.Context, assistant.TextRequest) (string, error) {
	return f.text, f.err
}

func (f *fakeAssistant) DescribeImage(context.Context, assistant.ImageRequest) (string, error) {
	return f.text, f.err
}

func (f *fakeAssistant) GenerateImage(context.Context, string) (assistant.Image, error) {
	return f.image, f.err
}

func (f *fakeAssistant) Close() error { return nil }

type testEnv struct {
	router    http.Handler
	published *events.Recorder
}

func newTestEnv(t *testing.T, a assistant.Assistant) testEnv {
	t.Helper()
	logger := logging.NewLoggerTo(&bytes.Buffer{}, "httpapi-test")
	rec := &events.Recorder{}

	verifier, err := auth.NewVerifier(auth.Config{Mode: auth.ModeNoop})
	require.NoError(t, err)

	svc := Services{
		Eco:     eco.NewRegistry(eco.DefaultCatalog(), eco.WithPublisher(rec), eco.WithLogger(logger)),
		Trails:  trails.NewService(a, logger),
		Reports: reports.NewService(a, reports.DefaultLocations(), logger, reports.WithPublisher(rec)),
		Tips:    tips.NewService(a, nil, logger),
	}
	router := sharedserver.NewRouter("ecotrail-test", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(verifier))
			RegisterRoutes(r, svc, logger)
		})
	})
	return testEnv{router: router, published: rec}
}

func (e testEnv) do(t *testing.T, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer user-1")
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func TestEcoFlow(t *testing.T) {
	env := newTestEnv(t, &fakeAssistant{})
	session := map[string]string{"X-Session-ID": "tab-1"}

	rr := env.do(t, http.MethodPost, "/v1/eco/sessions", "", session)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(t, http.MethodPost, "/v1/eco/actions", `{"action_ids":["picked_up_trash","educated_someone"]}`, session)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	result := decode[eco.SubmissionResult](t, rr)
	assert.Equal(t, 25, result.PointsEarned)
	assert.Equal(t, []string{"Eco Starter"}, result.NewlyEarned)
	require.NotNil(t, result.NextBadge)
	assert.Equal(t, "Trail Hero", result.NextBadge.Name)
	assert.Equal(t, 25, result.NextBadge.Gap)
	assert.Len(t, env.published.Events(), 1)

	rr = env.do(t, http.MethodGet, "/v1/eco/progress", "", session)
	require.Equal(t, http.StatusOK, rr.Code)
	progress := decode[eco.Progress](t, rr)
	assert.Equal(t, 25, progress.TotalPoints)
	assert.Equal(t, 25, progress.ProgressPercent)

	rr = env.do(t, http.MethodGet, "/v1/eco/progress", "", map[string]string{"X-Session-ID": "tab-2"})
	assert.Equal(t, 0, decode[eco.Progress](t, rr).TotalPoints)

	rr = env.do(t, http.MethodDelete, "/v1/eco/sessions/me", "", session)
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = env.do(t, http.MethodGet, "/v1/eco/progress", "", session)
	assert.Equal(t, 0, decode[eco.Progress](t, rr).TotalPoints)
}

func TestEcoSessionOwnedByCreator(t *testing.T) {
	env := newTestEnv(t, &fakeAssistant{})
	shared := map[string]string{"X-Session-ID": "trailhead"}

	rr := env.do(t, http.MethodPost, "/v1/eco/actions", `{"action_ids":["picked_up_trash"]}`, shared)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	intruder := map[string]string{"X-Session-ID": "trailhead", "Authorization": "Bearer user-2"}
	rr = env.do(t, http.MethodPost, "/v1/eco/actions", `{"action_ids":["educated_someone"]}`, intruder)
	require.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "forbidden", decode[sharederrors.ErrorResponse](t, rr).Code)

	rr = env.do(t, http.MethodDelete, "/v1/eco/sessions/me", "", intruder)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = env.do(t, http.MethodGet, "/v1/eco/progress", "", shared)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 10, decode[eco.Progress](t, rr).TotalPoints)
}

func TestSubmitActionsRejectsUnknownIDs(t *testing.T) {
	env := newTestEnv(t, &fakeAssistant{})

	rr := env.do(t, http.MethodPost, "/v1/eco/actions", `{"action_ids":["stayed_on_trail","hug_a_tree"]}`, nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	body := decode[sharederrors.ErrorResponse](t, rr)
	assert.Equal(t, "bad_request", body.Code)
	assert.Equal(t, []string{"hug_a_tree"}, body.Details)
	assert.NotEmpty(t, body.RequestID)

	rr = env.do(t, http.MethodGet, "/v1/eco/progress", "", nil)
	assert.Equal(t, 0, decode[eco.Progress](t, rr).TotalPoints)

	rr = env.do(t, http.MethodPost, "/v1/eco/actions", `{"actions":[]}`, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCatalogAndAuth(t *testing.T) {
	env := newTestEnv(t, &fakeAssistant{})

	rr := env.do(t, http.MethodGet, "/v1/eco/catalog", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	catalog := decode[catalogResponse](t, rr)
	assert.Len(t, catalog.Actions, 5)
	assert.Len(t, catalog.Badges, 3)

	req := httptest.NewRequest(http.MethodGet, "/v1/eco/progress", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTrailRoutes(t *testing.T) {
	env := newTestEnv(t, &fakeAssistant{text: `{"stops":[{"name":"Kelley Park","description":"gardens"},{"name":"Hellyer Park","description":"velodrome"}]}`})

	rr := env.do(t, http.MethodGet, "/v1/trails", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[map[string][]trails.Trail](t, rr)["trails"], 3)

	rr = env.do(t, http.MethodPost, "/v1/trails/coyote-creek/overview", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(t, http.MethodPost, "/v1/trails/coyote-creek/stops", `{"overview":"Coyote Creek overview"}`, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	list := decode[trails.StopList](t, rr)
	assert.False(t, list.Fallback)
	require.Len(t, list.Stops, 2)

	rr = env.do(t, http.MethodPost, "/v1/trails/coyote-creek/stops/1/describe", `{"stops":[{"name":"Kelley Park"},{"name":"Hellyer Park"}]}`, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	detail := decode[trails.StopDetail](t, rr)
	assert.Equal(t, 100, detail.ProgressPercent)

	rr = env.do(t, http.MethodPost, "/v1/trails/coyote-creek/stops/5/describe", `{"stops":[{"name":"Kelley Park"}]}`, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = env.do(t, http.MethodPost, "/v1/trails/coyote-creek/stops/x/describe", `{"stops":[]}`, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, http.MethodPost, "/v1/trails/unknown/overview", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestTrailRoutesWithoutAI(t *testing.T) {
	env := newTestEnv(t, &fakeAssistant{err: assistant.ErrAssistantUnavailable})

	rr := env.do(t, http.MethodPost, "/v1/trails/coyote-creek/overview", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	rr = env.do(t, http.MethodPost, "/v1/trails/coyote-creek/stops", `{"overview":"raw text"}`, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, decode[trails.StopList](t, rr).Fallback)
}

func multipartReport(t *testing.T, fields map[string]string, photo []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if photo != nil {
		fw, err := mw.CreateFormFile("photo", "issue.png")
		require.NoError(t, err)
		_, err = fw.Write(photo)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	return buf.Bytes()
}

func TestSubmitReportReturnsPDF(t *testing.T) {
	env := newTestEnv(t, &fakeAssistant{text: "Erosion along the bank."})

	body, contentType := multipartReport(t, map[string]string{
		"location": "Coyote Creek Trail - Kelley Park",
		"comment":  "Near the bridge",
		"consent":  "on",
	}, pngBytes(t))
	req := httptest.NewRequest(http.MethodPost, "/v1/reports", body)
	req.Header.Set("Authorization", "Bearer user-1")
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, "application/pdf", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "Santa_Clara_Water_Report_")
	assert.Equal(t, "1", rr.Header().Get("X-Report-Pages"))
	assert.True(t, bytes.HasPrefix(rr.Body.Bytes(), []byte("%PDF")))
	assert.Len(t, env.published.Events(), 1)
}

func TestSubmitReportValidation(t *testing.T) {
	env := newTestEnv(t, &fakeAssistant{text: "ok"})

	cases := []struct {
		name   string
		fields map[string]string
		photo  []byte
		status int
	}{
		{"missing photo", map[string]string{"location": "Coyote Creek Trail - Kelley Park", "consent": "true"}, nil, http.StatusBadRequest},
		{"no consent", map[string]string{"location": "Coyote Creek Trail - Kelley Park"}, pngBytes(t), http.StatusBadRequest},
		{"bad location", map[string]string{"location": "Atlantis", "consent": "true"}, pngBytes(t), http.StatusBadRequest},
		{"not an image", map[string]string{"location": "Coyote Creek Trail - Kelley Park", "consent": "true"}, []byte("plain text"), http.StatusUnsupportedMediaType},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body, contentType := multipartReport(t, tc.fields, tc.photo)
			req := httptest.NewRequest(http.MethodPost, "/v1/reports", body)
			req.Header.Set("Authorization", "Bearer user-1")
			req.Header.Set("Content-Type", contentType)
			rr := httptest.NewRecorder()
			env.router.ServeHTTP(rr, req)
			assert.Equal(t, tc.status, rr.Code, rr.Body.String())
		})
	}
}

func TestReportLocations(t *testing.T) {
	env := newTestEnv(t, &fakeAssistant{})
	rr := env.do(t, http.MethodGet, "/v1/reports/locations", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, decode[map[string][]string](t, rr)["locations"], "Coyote Creek Trail - Kelley Park")
}

func TestTipRoutes(t *testing.T) {
	env := newTestEnv(t, &fakeAssistant{image: assistant.Image{Data: []byte("\x89PNG..."), MIMEType: "image/png"}})

	rr := env.do(t, http.MethodGet, "/v1/tips", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[map[string][]tips.Tip](t, rr)["tips"], 4)

	rr = env.do(t, http.MethodPost, "/v1/tips/snap-smart/image", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))

	rr = env.do(t, http.MethodPost, "/v1/tips/unknown/image", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestTipImageBackendFailure(t *testing.T) {
	env := newTestEnv(t, &fakeAssistant{err: errors.New("quota")})
	rr := env.do(t, http.MethodPost, "/v1/tips/snap-smart/image", "", nil)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
