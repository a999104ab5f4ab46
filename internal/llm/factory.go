package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/decoders-hk/centre-assistant-go/internal/awsclient"
	"github.com/decoders-hk/centre-assistant-go/internal/config"
	"github.com/decoders-hk/centre-assistant-go/internal/metrics"
)

// New builds the Service from configuration. Providers without credentials
// are skipped; awsCfg is only needed for Bedrock.
func New(ctx context.Context, cfg config.LLMConfig, awsCfg *aws.Config, m *metrics.Metrics) (*Service, error) {
	gen := Generation{
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		TopP:        cfg.TopP,
	}
	if gen.MaxTokens <= 0 {
		gen.MaxTokens = DefaultGeneration.MaxTokens
	}
	if gen.TopP <= 0 {
		gen.TopP = DefaultGeneration.TopP
	}

	var answerers []Answerer
	for _, name := range cfg.Providers {
		switch Provider(strings.ToLower(strings.TrimSpace(name))) {
		case ProviderGemini:
			a, err := NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, "", gen)
			if err != nil {
				return nil, err
			}
			answerers = append(answerers, a)
		case ProviderOpenAI:
			answerers = append(answerers, NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, gen))
		case ProviderBedrock:
			if awsCfg == nil || cfg.BedrockModelID == "" {
				continue
			}
			answerers = append(answerers, NewBedrock(awsclient.Bedrock(*awsCfg), cfg.BedrockModelID, gen))
		default:
			return nil, fmt.Errorf("llm: unknown provider %q", name)
		}
	}

	chain := NewChain(m, answerers...)
	if chain.Len() == 0 {
		slog.Warn("no llm provider configured; free-form questions get the fallback message")
	}

	return NewService(chain, ServiceOptions{
		CacheTTL: cfg.ResponseCacheTTL,
		Timeout:  cfg.Timeout,
		Metrics:  m,
	}), nil
}
