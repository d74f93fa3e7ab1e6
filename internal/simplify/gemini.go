package simplify

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiOptions configures the Gemini backend.
type GeminiOptions struct {
	APIKey  string
	Model   string
	BaseURL string

	// HTTPClient overrides the transport; tests point it at httptest servers.
	HTTPClient *http.Client
}

// Gemini simplifies text with the Gemini generateContent API.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini builds a Gemini-backed Simplifier.
func NewGemini(ctx context.Context, opts GeminiOptions) (*Gemini, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("simplify: gemini api key is required")
	}
	if opts.Model == "" {
		opts.Model = DefaultGeminiModel
	}

	cc := &genai.ClientConfig{
		APIKey:     opts.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	}
	if opts.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("simplify: create gemini client: %w", err)
	}
	return &Gemini{client: client, model: opts.Model}, nil
}

// Name identifies the backend in logs and metrics.
func (g *Gemini) Name() string { return "gemini" }

// Simplify sends one generateContent request.
func (g *Gemini) Simplify(ctx context.Context, req Request) (string, error) {
	if err := validate(req); err != nil {
		return "", err
	}

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(Instruction(req.Language, req.Level), genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.2),
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.Text), cfg)
	if err != nil {
		return "", fmt.Errorf("simplify: gemini generate: %w", err)
	}
	return clean(resp.Text())
}
