package simplify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAIOptions configures the OpenAI backend.
type OpenAIOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	MaxRetries int
	HTTPClient *http.Client
}

// OpenAI simplifies text with the chat completions API.
type OpenAI struct {
	client openai.Client
	model  string
}

// NewOpenAI builds an OpenAI-backed Simplifier.
func NewOpenAI(opts OpenAIOptions) (*OpenAI, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("simplify: openai api key is required")
	}
	if opts.Model == "" {
		opts.Model = DefaultOpenAIModel
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(opts.MaxRetries),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}

	return &OpenAI{
		client: openai.NewClient(reqOpts...),
		model:  opts.Model,
	}, nil
}

// Name identifies the backend in logs and metrics.
func (o *OpenAI) Name() string { return "openai" }

// Simplify sends one chat completion request.
func (o *OpenAI) Simplify(ctx context.Context, req Request) (string, error) {
	if err := validate(req); err != nil {
		return "", err
	}

	completion, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(Instruction(req.Language, req.Level)),
			openai.UserMessage(req.Text),
		},
		Temperature: openai.Float(0.2),
	})
	if err != nil {
		return "", fmt.Errorf("simplify: openai completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", ErrEmptyAnswer
	}
	return clean(completion.Choices[0].Message.Content)
}
