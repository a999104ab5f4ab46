package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = "gpt-4o-mini"

type openaiAnswerer struct {
	client openai.Client
	model  string
	gen    Generation
}

// NewOpenAI returns nil when apiKey is empty. baseURL may point at any
// OpenAI-compatible endpoint.
func NewOpenAI(apiKey, baseURL, model string, gen Generation, opts ...option.RequestOption) Answerer {
	if apiKey == "" {
		return nil
	}
	if model == "" {
		model = DefaultOpenAIModel
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(baseURL))
	}
	reqOpts = append(reqOpts, opts...)

	return &openaiAnswerer{
		client: openai.NewClient(reqOpts...),
		model:  model,
		gen:    gen,
	}
}

func (a *openaiAnswerer) Generate(ctx context.Context, system, prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: a.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(a.gen.Temperature),
		TopP:        openai.Float(a.gen.TopP),
		MaxTokens:   openai.Int(int64(a.gen.MaxTokens)),
	}

	start := time.Now()
	resp, err := a.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", &ProviderError{Provider: ProviderOpenAI, StatusCode: apiErr.StatusCode, Err: err}
		}
		return "", &ProviderError{Provider: ProviderOpenAI, Err: fmt.Errorf("chat completion: %w", err)}
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}

	slog.DebugContext(ctx, "llm completion",
		"provider", ProviderOpenAI,
		"model", a.model,
		"input_tokens", resp.Usage.PromptTokens,
		"output_tokens", resp.Usage.CompletionTokens,
		"duration_ms", time.Since(start).Milliseconds())

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (a *openaiAnswerer) Provider() Provider { return ProviderOpenAI }
