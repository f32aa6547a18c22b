package provider

// #region imports
import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// #endregion

// #region types

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// ContentGenerator is the slice of the genai Models service this package uses.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini generates text through the Google Gen AI SDK.
type Gemini struct {
	models      ContentGenerator
	model       string
	temperature *float32
}

// #endregion

// #region constructor

// NewGemini creates a Gemini API client for apiKey.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}
	return NewGeminiWithService(client.Models, model), nil
}

// NewGeminiWithService creates a Gemini provider with an injected Models implementation.
// Used for testing without network access.
func NewGeminiWithService(models ContentGenerator, model string) *Gemini {
	if model == "" {
		model = DefaultGeminiModel
	}
	return &Gemini{models: models, model: model}
}

// WithTemperature pins sampling temperature for every request.
func (g *Gemini) WithTemperature(t float32) *Gemini {
	g.temperature = &t
	return g
}

// #endregion

// #region generate

// Name returns "gemini".
func (g *Gemini) Name() string { return "gemini" }

// Generate sends prompt as a single user turn.
func (g *Gemini) Generate(ctx context.Context, prompt string, structured bool) (string, error) {
	cfg := &genai.GenerateContentConfig{Temperature: g.temperature}
	if structured {
		cfg.ResponseMIMEType = "application/json"
	}

	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return resp.Text(), nil
}

// #endregion
