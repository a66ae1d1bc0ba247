package trails

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecotrail/ecotrail/internal/assistant"
	"github.com/ecotrail/ecotrail/shared/logging"
)

type fakeAssistant struct {
	generateTextFn func(context.Context, assistant.TextRequest) (string, error)
	requests       []assistant.TextRequest
}

func (f *fakeAssistant) GenerateText(ctx context.Context, req assistant.TextRequest) (string, error) {
	f.requests = append(f.requests, req)
	if f.generateTextFn != nil {
		return f.generateTextFn(ctx, req)
	}
	return "", errors.New("generateTextFn not provided")
}

func (f *fakeAssistant) DescribeImage(context.Context, assistant.ImageRequest) (string, error) {
	return "", errors.New("not used")
}

func (f *fakeAssistant) GenerateImage(context.Context, string) (assistant.Image, error) {
	return assistant.Image{}, errors.New("not used")
}

func (f *fakeAssistant) Close() error { return nil }

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func newTestService(a assistant.Assistant) *Service {
	svc := NewService(a, logging.NewLoggerTo(&bytes.Buffer{}, "trails-test"))
	svc.clock = fixedClock{now: time.Date(2025, 4, 22, 8, 30, 0, 0, time.UTC)}
	return svc
}

func TestTrailsCatalog(t *testing.T) {
	svc := newTestService(&fakeAssistant{})
	list := svc.Trails()
	require.Len(t, list, 3)
	assert.Equal(t, "Coyote Creek Trail", list[0].Name)

	_, err := svc.Trail("alum-rock")
	assert.ErrorIs(t, err, ErrTrailNotFound)
}

func TestGenerateOverview(t *testing.T) {
	fake := &fakeAssistant{generateTextFn: func(_ context.Context, req assistant.TextRequest) (string, error) {
		return "**Length:** 26 miles", nil
	}}
	svc := newTestService(fake)

	ov, err := svc.GenerateOverview(context.Background(), "los-gatos-creek")
	require.NoError(t, err)
	assert.Equal(t, "Los Gatos Creek Trail", ov.Trail.Name)
	assert.Equal(t, "**Length:** 26 miles", ov.Markdown)
	assert.Equal(t, 2025, ov.GeneratedAt.Year())

	require.Len(t, fake.requests, 1)
	req := fake.requests[0]
	assert.Contains(t, req.Prompt, "Los Gatos Creek Trail located in San Jose, CA")
	assert.Contains(t, req.Prompt, trailMapsURL)
	assert.Equal(t, float32(0.7), req.Temperature)
	assert.Equal(t, 900, req.MaxTokens)
	assert.Nil(t, req.ResponseSchema)
}

func TestGenerateOverviewErrors(t *testing.T) {
	svc := newTestService(&fakeAssistant{})
	_, err := svc.GenerateOverview(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrTrailNotFound)

	svc = newTestService(&fakeAssistant{generateTextFn: func(context.Context, assistant.TextRequest) (string, error) {
		return "", assistant.ErrEmptyResponse
	}})
	_, err = svc.GenerateOverview(context.Background(), "coyote-creek")
	assert.ErrorIs(t, err, assistant.ErrEmptyResponse)
}

func TestExtractStopsStructured(t *testing.T) {
	fake := &fakeAssistant{generateTextFn: func(context.Context, assistant.TextRequest) (string, error) {
		return "```json\n{\"stops\":[{\"name\":\" Kelley Park \",\"description\":\"Japanese gardens\"},{\"name\":\"Selma Olinder Park\",\"description\":\"Shady picnic spot\"}]}\n```", nil
	}}
	svc := newTestService(fake)

	list, err := svc.ExtractStops(context.Background(), "coyote-creek", "overview text")
	require.NoError(t, err)
	assert.False(t, list.Fallback)
	require.Len(t, list.Stops, 2)
	assert.Equal(t, Stop{Name: "Kelley Park", Description: "Japanese gardens"}, list.Stops[0])

	req := fake.requests[0]
	assert.NotNil(t, req.ResponseSchema)
	assert.Equal(t, float32(0.3), req.Temperature)
	assert.Contains(t, req.Prompt, "overview text")
}

func TestExtractStopsFallsBackOnContractViolation(t *testing.T) {
	replies := map[string]string{
		"prose":       "1. Kelley Park: gardens\n2. Selma Olinder: picnic",
		"empty list":  `{"stops":[]}`,
		"blank name":  `{"stops":[{"name":"  ","description":"x"}]}`,
		"too many":    `{"stops":[` + strings.Repeat(`{"name":"a","description":"b"},`, 10) + `{"name":"a","description":"b"}]}`,
		"wrong shape": `{"stops":"Kelley Park"}`,
	}
	for name, reply := range replies {
		t.Run(name, func(t *testing.T) {
			svc := newTestService(&fakeAssistant{generateTextFn: func(context.Context, assistant.TextRequest) (string, error) {
				return reply, nil
			}})
			list, err := svc.ExtractStops(context.Background(), "penitencia-creek", "the overview")
			require.NoError(t, err)
			assert.True(t, list.Fallback)
			assert.Empty(t, list.Stops)
			assert.NotNil(t, list.Stops)
			assert.Equal(t, "the overview", list.Raw)
		})
	}
}

func TestExtractStopsFallsBackWithoutAssistant(t *testing.T) {
	svc := newTestService(assistant.NewTemplateAssistant())
	list, err := svc.ExtractStops(context.Background(), "coyote-creek", "the overview")
	require.NoError(t, err)
	assert.True(t, list.Fallback)
}

func TestExtractStopsPropagatesTransportErrors(t *testing.T) {
	boom := errors.New("deadline exceeded")
	svc := newTestService(&fakeAssistant{generateTextFn: func(context.Context, assistant.TextRequest) (string, error) {
		return "", boom
	}})
	_, err := svc.ExtractStops(context.Background(), "coyote-creek", "overview")
	assert.ErrorIs(t, err, boom)

	_, err = svc.ExtractStops(context.Background(), "coyote-creek", "   ")
	assert.ErrorIs(t, err, ErrOverviewRequired)
}

func TestDescribeStop(t *testing.T) {
	fake := &fakeAssistant{generateTextFn: func(context.Context, assistant.TextRequest) (string, error) {
		return "Did you know? Steelhead trout spawn here.", nil
	}}
	svc := newTestService(fake)
	stops := []Stop{
		{Name: "Kelley Park", Description: "gardens"},
		{Name: "Selma Olinder Park"},
		{Name: "Coyote Meadows"},
		{Name: "Hellyer Park"},
	}

	detail, err := svc.DescribeStop(context.Background(), "coyote-creek", stops, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, detail.Index)
	assert.Equal(t, 4, detail.Total)
	assert.Equal(t, 50, detail.ProgressPercent)
	assert.Equal(t, "Selma Olinder Park", detail.Stop.Name)
	assert.Contains(t, detail.Description, "Steelhead")

	req := fake.requests[0]
	assert.Contains(t, req.Prompt, `"Selma Olinder Park"`)
	assert.Equal(t, 300, req.MaxTokens)

	detail, err = svc.DescribeStop(context.Background(), "coyote-creek", stops, 3)
	require.NoError(t, err)
	assert.Equal(t, 100, detail.ProgressPercent)
}

func TestDescribeStopErrors(t *testing.T) {
	svc := newTestService(&fakeAssistant{generateTextFn: func(context.Context, assistant.TextRequest) (string, error) {
		return "ok", nil
	}})
	ctx := context.Background()
	stops := []Stop{{Name: "Kelley Park"}}

	_, err := svc.DescribeStop(ctx, "coyote-creek", nil, 0)
	assert.ErrorIs(t, err, ErrStopsUnavailable)
	_, err = svc.DescribeStop(ctx, "coyote-creek", stops, 1)
	assert.ErrorIs(t, err, ErrStopNotFound)
	_, err = svc.DescribeStop(ctx, "coyote-creek", stops, -1)
	assert.ErrorIs(t, err, ErrStopNotFound)
	_, err = svc.DescribeStop(ctx, "coyote-creek", []Stop{{Name: " "}}, 0)
	assert.ErrorIs(t, err, ErrStopNotFound)
	_, err = svc.DescribeStop(ctx, "unknown", stops, 0)
	assert.ErrorIs(t, err, ErrTrailNotFound)
}
