package assistant

import (
	"context"

	"google.golang.org/genai"
)

// Assistant encapsulates model-backed generation.
type Assistant interface {
	GenerateText(ctx context.Context, req TextRequest) (string, error)
	DescribeImage(ctx context.Context, req ImageRequest) (string, error)
	GenerateImage(ctx context.Context, prompt string) (Image, error)
	Close() error
}

// TextRequest is a single-turn text generation call.
type TextRequest struct {
	System      string
	Prompt      string
	Temperature float32
	MaxTokens   int
	// ResponseSchema asks for JSON matching the schema. Leave nil for prose.
	ResponseSchema *genai.Schema
}

// ImageRequest asks the vision model about one picture.
type ImageRequest struct {
	Prompt    string
	Data      []byte
	MIMEType  string
	MaxTokens int
}

// Image is a generated picture.
type Image struct {
	Data     []byte
	MIMEType string
}
