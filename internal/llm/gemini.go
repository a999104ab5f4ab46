package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

type geminiAnswerer struct {
	client *genai.Client
	model  string
	gen    Generation
}

// NewGemini returns (nil, nil) when apiKey is empty. baseURL overrides the
// API endpoint and is only set in tests.
func NewGemini(ctx context.Context, apiKey, model, baseURL string, gen Generation) (Answerer, error) {
	if apiKey == "" {
		return nil, nil //nolint:nilnil // provider disabled without a key
	}
	if model == "" {
		model = DefaultGeminiModel
	}

	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("llm: create genai client: %w", err)
	}

	return &geminiAnswerer{client: client, model: model, gen: gen}, nil
}

func (a *geminiAnswerer) Generate(ctx context.Context, system, prompt string) (string, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       genai.Ptr(float32(a.gen.Temperature)),
		TopP:              genai.Ptr(float32(a.gen.TopP)),
		MaxOutputTokens:   int32(a.gen.MaxTokens),
	}

	start := time.Now()
	resp, err := a.client.Models.GenerateContent(ctx, a.model, genai.Text(prompt), config)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", &ProviderError{Provider: ProviderGemini, StatusCode: apiErr.Code, Err: err}
		}
		return "", &ProviderError{Provider: ProviderGemini, Err: fmt.Errorf("generate content: %w", err)}
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", nil
	}

	var out strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" && !part.Thought {
			out.WriteString(part.Text)
		}
	}

	if resp.UsageMetadata != nil {
		slog.DebugContext(ctx, "llm completion",
			"provider", ProviderGemini,
			"model", a.model,
			"input_tokens", resp.UsageMetadata.PromptTokenCount,
			"output_tokens", resp.UsageMetadata.CandidatesTokenCount,
			"duration_ms", time.Since(start).Milliseconds())
	}

	return strings.TrimSpace(out.String()), nil
}

func (a *geminiAnswerer) Provider() Provider { return ProviderGemini }
