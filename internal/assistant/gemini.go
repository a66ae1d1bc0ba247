package assistant

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"
)

const (
	defaultTextModel  = "gemini-2.5-flash"
	defaultImageModel = "imagen-3.0-generate-002"
	defaultMaxTokens  = 1024
)

// Config wires Gemini access.
type Config struct {
	APIKey          string
	Model           string
	VisionModel     string
	ImageModel      string
	MaxOutputTokens int
	UseVertex       bool
	Project         string
	Location        string
}

// GeminiAssistant talks to Gemini for text and vision and to Imagen for pictures.
type GeminiAssistant struct {
	client      *genai.Client
	model       string
	visionModel string
	imageModel  string
	maxTokens   int
}

// NewGeminiAssistant returns an Assistant backed by Gemini.
func NewGeminiAssistant(ctx context.Context, cfg Config) (*GeminiAssistant, error) {
	model := firstNonEmpty(cfg.Model, defaultTextModel)
	maxTokens := cfg.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	clientCfg := &genai.ClientConfig{}
	if cfg.UseVertex {
		project := firstNonEmpty(cfg.Project, os.Getenv("GOOGLE_CLOUD_PROJECT"))
		if project == "" {
			return nil, errors.New("vertex project id missing")
		}
		location := firstNonEmpty(cfg.Location, os.Getenv("GOOGLE_CLOUD_LOCATION"))
		if location == "" {
			return nil, errors.New("vertex location missing")
		}
		clientCfg.Project = project
		clientCfg.Location = location
		clientCfg.Backend = genai.BackendVertexAI
		if err := clientCfg.UseDefaultCredentials(); err != nil {
			return nil, fmt.Errorf("vertex credentials: %w", err)
		}
	} else {
		apiKey := firstNonEmpty(cfg.APIKey, os.Getenv("GOOGLE_API_KEY"), os.Getenv("GEMINI_API_KEY"))
		if apiKey == "" {
			return nil, fmt.Errorf("%w: gemini api key missing", ErrAssistantUnavailable)
		}
		clientCfg.APIKey = apiKey
		clientCfg.Backend = genai.BackendGeminiAPI
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}

	return &GeminiAssistant{
		client:      client,
		model:       model,
		visionModel: firstNonEmpty(cfg.VisionModel, model),
		imageModel:  firstNonEmpty(cfg.ImageModel, defaultImageModel),
		maxTokens:   maxTokens,
	}, nil
}

// Close releases underlying Gemini resources.
func (g *GeminiAssistant) Close() error {
	return nil
}

// GenerateText runs a single-turn prompt, optionally constrained to a JSON schema.
func (g *GeminiAssistant) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(req.Temperature),
		MaxOutputTokens: int32(g.tokens(req.MaxTokens)),
	}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.ResponseSchema != nil {
		config.ResponseMIMEType = "application/json"
		config.ResponseSchema = req.ResponseSchema
	}

	contents := []*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", err
	}
	return nonEmpty(resp.Text())
}

// DescribeImage sends the picture and the prompt as one user turn to the vision model.
func (g *GeminiAssistant) DescribeImage(ctx context.Context, req ImageRequest) (string, error) {
	if len(req.Data) == 0 {
		return "", errors.New("image data is empty")
	}
	parts := []*genai.Part{
		genai.NewPartFromBytes(req.Data, req.MIMEType),
		genai.NewPartFromText(req.Prompt),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := g.client.Models.GenerateContent(ctx, g.visionModel, contents, &genai.GenerateContentConfig{
		MaxOutputTokens: int32(g.tokens(req.MaxTokens)),
	})
	if err != nil {
		return "", err
	}
	return nonEmpty(resp.Text())
}

// GenerateImage renders one picture for prompt.
func (g *GeminiAssistant) GenerateImage(ctx context.Context, prompt string) (Image, error) {
	resp, err := g.client.Models.GenerateImages(ctx, g.imageModel, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
	})
	if err != nil {
		return Image{}, err
	}
	for _, generated := range resp.GeneratedImages {
		if generated == nil || generated.Image == nil || len(generated.Image.ImageBytes) == 0 {
			continue
		}
		mime := generated.Image.MIMEType
		if mime == "" {
			mime = "image/png"
		}
		return Image{Data: generated.Image.ImageBytes, MIMEType: mime}, nil
	}
	return Image{}, ErrEmptyResponse
}

func (g *GeminiAssistant) tokens(requested int) int {
	if requested > 0 {
		return requested
	}
	return g.maxTokens
}

func nonEmpty(text string) (string, error) {
	output := strings.TrimSpace(text)
	if output == "" {
		return "", ErrEmptyResponse
	}
	return output, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
