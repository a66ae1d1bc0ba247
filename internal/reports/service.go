package reports

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ecotrail/ecotrail/internal/assistant"
	"github.com/ecotrail/ecotrail/internal/storage"
	"github.com/ecotrail/ecotrail/shared/events"
)

// MaxPhotoBytes caps the accepted photo size.
const MaxPhotoBytes = 10 << 20

const (
	visionMaxTokens = 500
	photosPrefix    = "reports/photos"
	documentsPrefix = "reports/documents"
)

// ObjectStore uploads report artifacts. storage.Service satisfies it.
type ObjectStore interface {
	Upload(ctx context.Context, objectPath string, data io.Reader, contentType string) (storage.Object, error)
}

// Submission is one issue report as entered by a hiker.
type Submission struct {
	UserID    string
	Location  string
	Comment   string
	Consent   bool
	Photo     []byte
	PhotoName string
}

// Report is the outcome of a processed submission.
type Report struct {
	ID          string          `json:"id"`
	Filename    string          `json:"filename"`
	Location    string          `json:"location"`
	Description string          `json:"description"`
	Comment     string          `json:"comment,omitempty"`
	Pages       int             `json:"pages"`
	CreatedAt   time.Time       `json:"createdAt"`
	Photo       *storage.Object `json:"photo,omitempty"`
	Document    *storage.Object `json:"document,omitempty"`
	PDF         []byte          `json:"-"`
}

// Service turns photo submissions into AI-assisted PDF reports.
type Service struct {
	assistant assistant.Assistant
	locations *Locations
	store     ObjectStore
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
}

// Option customizes a Service.
type Option func(*Service)

// WithObjectStore uploads photos and PDFs. Without it reports are only returned inline.
func WithObjectStore(store ObjectStore) Option {
	return func(s *Service) { s.store = store }
}

// WithPublisher announces every generated report.
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// NewService constructs the report service.
func NewService(a assistant.Assistant, locations *Locations, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		assistant: a,
		locations: locations,
		logger:    logger,
		now:       time.Now,
		newID:     newReportID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Locations lists where reports may be filed.
func (s *Service) Locations() []string {
	return s.locations.Names()
}

// Submit validates sub, describes the photo, renders the PDF and stores both.
func (s *Service) Submit(ctx context.Context, sub Submission) (Report, error) {
	mime, err := s.validate(sub)
	if err != nil {
		return Report{}, err
	}

	created := s.now()
	report := Report{
		ID:        s.newID(),
		Filename:  Filename(created),
		Location:  sub.Location,
		CreatedAt: created.UTC(),
	}
	comment := assistant.SanitizeInput(sub.Comment)

	g, gctx := errgroup.WithContext(ctx)
	if s.store != nil {
		g.Go(func() error {
			name := report.ID + extensionFor(mime)
			obj, err := s.store.Upload(gctx, storage.ObjectPath(photosPrefix, sub.UserID, name), bytes.NewReader(sub.Photo), mime)
			if err != nil {
				return fmt.Errorf("upload photo: %w", err)
			}
			report.Photo = &obj
			return nil
		})
	}
	var description string
	g.Go(func() error {
		text, err := s.assistant.DescribeImage(gctx, assistant.ImageRequest{
			Prompt:    visionPrompt(sub.Location, comment),
			Data:      sub.Photo,
			MIMEType:  mime,
			MaxTokens: visionMaxTokens,
		})
		if err != nil {
			return fmt.Errorf("describe photo: %w", err)
		}
		description = text
		return nil
	})
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	report.Description = CleanText(description)
	report.Comment = CleanText(comment)

	pdf, err := RenderPDF(Document{
		Date:        created,
		Location:    CleanText(sub.Location),
		Description: report.Description,
		Comment:     report.Comment,
	})
	if err != nil {
		return Report{}, err
	}
	report.PDF = pdf

	pages, err := PageCount(pdf)
	if err != nil {
		s.logger.WarnContext(ctx, "report page count failed", slog.String("reportId", report.ID), slog.Any("error", err))
	}
	report.Pages = pages

	if s.store != nil {
		obj, err := s.store.Upload(ctx, storage.ObjectPath(documentsPrefix, sub.UserID, report.Filename), bytes.NewReader(pdf), "application/pdf")
		if err != nil {
			return Report{}, fmt.Errorf("upload report: %w", err)
		}
		report.Document = &obj
	}

	s.announce(ctx, sub.UserID, report)
	return report, nil
}

func (s *Service) validate(sub Submission) (string, error) {
	if len(sub.Photo) == 0 {
		return "", ErrMissingPhoto
	}
	if !sub.Consent {
		return "", ErrConsentRequired
	}
	if len(sub.Photo) > MaxPhotoBytes {
		return "", ErrPhotoTooLarge
	}
	if !s.locations.Contains(sub.Location) {
		return "", fmt.Errorf("%w: %q", ErrUnknownLocation, sub.Location)
	}

	mime := http.DetectContentType(sub.Photo)
	switch mime {
	case "image/jpeg", "image/png":
		return mime, nil
	default:
		return "", fmt.Errorf("%w: detected %s", ErrUnsupportedImage, mime)
	}
}

func (s *Service) announce(ctx context.Context, userID string, r Report) {
	if s.publisher == nil {
		return
	}
	evt := events.ReportSubmitted{
		ReportID:    r.ID,
		UserID:      userID,
		Location:    r.Location,
		Pages:       r.Pages,
		SubmittedAt: r.CreatedAt,
	}
	if err := s.publisher.Publish(ctx, events.TopicReportEvents, evt); err != nil {
		s.logger.WarnContext(ctx, "report event publish failed", slog.String("reportId", r.ID), slog.Any("error", err))
	}
}

func visionPrompt(location, comment string) string {
	var b strings.Builder
	b.WriteString("Describe the trail issue shown in the uploaded photo.\n")
	b.WriteString("Location: " + location + "\n")
	b.WriteString("Include:\n")
	b.WriteString("- What the problem is\n")
	b.WriteString("- 2-3 possible solutions\n")
	b.WriteString("- What potential dangers could occur if this issue is not addressed.\n")
	if comment != "" {
		b.WriteString("User Additional Comments: " + comment + "\n")
	}
	return b.String()
}

func extensionFor(mime string) string {
	if mime == "image/png" {
		return ".png"
	}
	return ".jpg"
}

func newReportID() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}
