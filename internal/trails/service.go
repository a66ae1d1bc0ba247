package trails

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"google.golang.org/genai"

	"github.com/ecotrail/ecotrail/internal/assistant"
)

const (
	maxStops          = 10
	maxOverviewLength = 8000

	overviewTemperature = 0.7
	overviewMaxTokens   = 900
	extractTemperature  = 0.3
	extractMaxTokens    = 600
	stopTemperature     = 0.7
	stopMaxTokens       = 300
)

var stopsSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"stops": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"name":        {Type: genai.TypeString},
					"description": {Type: genai.TypeString},
				},
				Required: []string{"name", "description"},
			},
		},
	},
	Required: []string{"stops"},
}

type stopsReply struct {
	Stops []Stop `json:"stops" validate:"min=1,max=10,dive"`
}

// Service narrates the static trail catalog through an AI assistant.
type Service struct {
	assistant assistant.Assistant
	logger    *slog.Logger
	clock     Clock
	validate  *validator.Validate
}

// NewService constructs the trail service.
func NewService(a assistant.Assistant, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{assistant: a, logger: logger, clock: systemClock{}, validate: validator.New()}
}

// Trails lists the catalog in display order.
func (s *Service) Trails() []Trail {
	out := make([]Trail, len(catalog))
	copy(out, catalog)
	return out
}

// Trail looks up one trail by id.
func (s *Service) Trail(id string) (Trail, error) {
	for _, t := range catalog {
		if t.ID == id {
			return t, nil
		}
	}
	return Trail{}, ErrTrailNotFound
}

// GenerateOverview asks the assistant for a markdown overview of the trail.
func (s *Service) GenerateOverview(ctx context.Context, trailID string) (Overview, error) {
	trail, err := s.Trail(trailID)
	if err != nil {
		return Overview{}, err
	}

	text, err := s.assistant.GenerateText(ctx, assistant.TextRequest{
		System:      naturalistSystem,
		Prompt:      overviewPrompt(trail),
		Temperature: overviewTemperature,
		MaxTokens:   overviewMaxTokens,
	})
	if err != nil {
		return Overview{}, fmt.Errorf("generate overview for %s: %w", trail.ID, err)
	}
	return Overview{Trail: trail, Markdown: text, GeneratedAt: s.clock.Now().UTC()}, nil
}

// ExtractStops turns an overview into a validated stop list. A reply that
// breaks the stop contract yields a fallback list carrying the raw overview.
func (s *Service) ExtractStops(ctx context.Context, trailID, overview string) (StopList, error) {
	trail, err := s.Trail(trailID)
	if err != nil {
		return StopList{}, err
	}
	overview = assistant.Sanitize(overview, maxOverviewLength)
	if overview == "" {
		return StopList{}, ErrOverviewRequired
	}

	raw, err := s.assistant.GenerateText(ctx, assistant.TextRequest{
		System:         naturalistSystem,
		Prompt:         extractStopsPrompt(trail, overview),
		Temperature:    extractTemperature,
		MaxTokens:      extractMaxTokens,
		ResponseSchema: stopsSchema,
	})
	if err == nil {
		var stops []Stop
		stops, err = s.parseStops(raw)
		if err == nil {
			return StopList{TrailID: trail.ID, Stops: stops}, nil
		}
	}
	if !recoverable(err) {
		return StopList{}, fmt.Errorf("extract stops for %s: %w", trail.ID, err)
	}

	s.logger.WarnContext(ctx, "stop extraction fell back to raw overview",
		slog.String("trailId", trail.ID),
		slog.Any("error", err),
	)
	return StopList{TrailID: trail.ID, Stops: []Stop{}, Fallback: true, Raw: overview}, nil
}

// DescribeStop narrates stops[index] and reports walk progress.
func (s *Service) DescribeStop(ctx context.Context, trailID string, stops []Stop, index int) (StopDetail, error) {
	trail, err := s.Trail(trailID)
	if err != nil {
		return StopDetail{}, err
	}
	if len(stops) == 0 {
		return StopDetail{}, ErrStopsUnavailable
	}
	if index < 0 || index >= len(stops) {
		return StopDetail{}, fmt.Errorf("%w: index %d of %d", ErrStopNotFound, index, len(stops))
	}

	stop := Stop{
		Name:        assistant.SanitizeInput(stops[index].Name),
		Description: assistant.SanitizeInput(stops[index].Description),
	}
	if stop.Name == "" {
		return StopDetail{}, fmt.Errorf("%w: stop %d has no name", ErrStopNotFound, index)
	}

	text, err := s.assistant.GenerateText(ctx, assistant.TextRequest{
		System:      naturalistSystem,
		Prompt:      describeStopPrompt(trail, stop),
		Temperature: stopTemperature,
		MaxTokens:   stopMaxTokens,
	})
	if err != nil {
		return StopDetail{}, fmt.Errorf("describe stop %q: %w", stop.Name, err)
	}

	return StopDetail{
		TrailID:         trail.ID,
		Index:           index,
		Total:           len(stops),
		ProgressPercent: (index + 1) * 100 / len(stops),
		Stop:            stop,
		Description:     text,
	}, nil
}

func (s *Service) parseStops(raw string) ([]Stop, error) {
	reply, err := assistant.ExtractJSON(raw, func(r stopsReply) error {
		for i := range r.Stops {
			r.Stops[i].Name = strings.TrimSpace(r.Stops[i].Name)
			r.Stops[i].Description = strings.TrimSpace(r.Stops[i].Description)
		}
		return s.validate.Struct(r)
	})
	if err != nil {
		return nil, err
	}
	return reply.Stops, nil
}

func recoverable(err error) bool {
	return errors.Is(err, assistant.ErrInvalidOutput) ||
		errors.Is(err, assistant.ErrEmptyResponse) ||
		errors.Is(err, assistant.ErrAssistantUnavailable)
}
