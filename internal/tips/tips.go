package tips

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/cases"

	"github.com/ecotrail/ecotrail/internal/assistant"
	"github.com/ecotrail/ecotrail/internal/storage"
)

// ErrTipNotFound indicates an unknown tip id.
var ErrTipNotFound = errors.New("tip not found")

const imageStyle = "Photorealistic, natural daylight, no text or logos: "

// Tip is one trail stewardship suggestion.
type Tip struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Body        string `json:"body"`
	ImagePrompt string `json:"-"`
}

// Image is a generated example picture for a tip.
type Image struct {
	TipID    string          `json:"tipId"`
	MIMEType string          `json:"mimeType"`
	Object   *storage.Object `json:"object,omitempty"`
	Data     []byte          `json:"-"`
}

// ObjectStore uploads generated images.
type ObjectStore interface {
	Upload(ctx context.Context, objectPath string, data io.Reader, contentType string) (storage.Object, error)
}

var catalog = []Tip{
	{
		ID:          "pack-it-out",
		Title:       "Pack it out for the Creek",
		Body:        "Trash left behind can wash into the creek. Take yours and a little extra litter back with you to help keep the water clean.",
		ImagePrompt: "a hiker picking up trash with a reusable bag on a clean creekside forest trail",
	},
	{
		ID:          "snap-smart",
		Title:       "Snap Smart",
		Body:        "Snapping the perfect photo? Just zoom in from the trail, no need to wander off-path. Nature looks best when we leave it just as we found it.",
		ImagePrompt: "a hiker taking a photo of a wildflower while standing on a marked forest trail, respecting nature and staying off sensitive vegetation",
	},
	{
		ID:          "reusable-bottle",
		Title:       "Bring a Reusable Bottle",
		Body:        "A refillable bottle keeps you going and keeps plastic out of the trail.",
		ImagePrompt: "a reusable water bottle placed on a rock beside a creek in a natural park",
	},
	{
		ID:          "report-damage",
		Title:       "Report Trail Damage",
		Body:        "If you see flooding, erosion, or fallen trees, take a photo and share it with Santa Clara Valley Water District.",
		ImagePrompt: "a person taking a photo of a damaged trail next to a creek for reporting",
	},
}

// Service serves stewardship tips and their example images.
type Service struct {
	assistant assistant.Assistant
	store     ObjectStore
	logger    *slog.Logger
}

// NewService constructs the tip service. store may be nil, in which case
// images are only returned inline.
func NewService(a assistant.Assistant, store ObjectStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{assistant: a, store: store, logger: logger}
}

// List returns every tip in display order.
func (s *Service) List() []Tip {
	out := make([]Tip, len(catalog))
	copy(out, catalog)
	return out
}

// Tip finds a tip by id, ignoring case.
func (s *Service) Tip(id string) (Tip, error) {
	// a Caser keeps state, so each lookup gets its own
	fold := cases.Fold()
	want := fold.String(strings.TrimSpace(id))
	for _, t := range catalog {
		if fold.String(t.ID) == want {
			return t, nil
		}
	}
	return Tip{}, ErrTipNotFound
}

// GenerateImage renders an example picture for the tip and stores it when a
// store is configured.
func (s *Service) GenerateImage(ctx context.Context, tipID, userID string) (Image, error) {
	tip, err := s.Tip(tipID)
	if err != nil {
		return Image{}, err
	}

	img, err := s.assistant.GenerateImage(ctx, imageStyle+tip.ImagePrompt)
	if err != nil {
		return Image{}, fmt.Errorf("generate image for tip %s: %w", tip.ID, err)
	}
	out := Image{TipID: tip.ID, MIMEType: img.MIMEType, Data: img.Data}

	if s.store != nil {
		name := fmt.Sprintf("%s-%s%s", tip.ID, uuid.NewString(), extensionFor(img.MIMEType))
		obj, err := s.store.Upload(ctx, storage.ObjectPath("tips", userID, name), bytes.NewReader(img.Data), img.MIMEType)
		if err != nil {
			return Image{}, fmt.Errorf("upload tip image: %w", err)
		}
		out.Object = &obj
		s.logger.InfoContext(ctx, "tip image stored", slog.String("tipId", tip.ID), slog.String("path", obj.Path))
	}
	return out, nil
}

func extensionFor(mime string) string {
	switch mime {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}
