package assistant

import "context"

const (
	unavailableText      = "AI-generated guidance is currently unavailable. Please try again later."
	unavailablePhotoNote = "Automatic photo analysis was unavailable when this report was generated. " +
		"Please refer to the reporter's comments and the attached photo."
)

// TemplateAssistant is a fallback when Gemini is unavailable.
type TemplateAssistant struct{}

// NewTemplateAssistant returns a deterministic responder that never calls a model.
func NewTemplateAssistant() *TemplateAssistant {
	return &TemplateAssistant{}
}

// GenerateText returns a fixed notice for prose requests. Structured requests
// fail so callers take their own fallback path.
func (t *TemplateAssistant) GenerateText(_ context.Context, req TextRequest) (string, error) {
	if req.ResponseSchema != nil {
		return "", ErrAssistantUnavailable
	}
	return unavailableText, nil
}

// DescribeImage returns a note so reports can still be produced.
func (t *TemplateAssistant) DescribeImage(context.Context, ImageRequest) (string, error) {
	return unavailablePhotoNote, nil
}

// GenerateImage has no offline equivalent.
func (t *TemplateAssistant) GenerateImage(context.Context, string) (Image, error) {
	return Image{}, ErrAssistantUnavailable
}

// Close is a no-op for the template assistant.
func (t *TemplateAssistant) Close() error { return nil }
