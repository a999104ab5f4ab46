// Package llm answers free-form parent questions with a language model.
//
// Providers:
//   - Gemini via google.golang.org/genai
//   - OpenAI and OpenAI-compatible endpoints via github.com/openai/openai-go/v3
//   - Bedrock via the Converse API of aws-sdk-go-v2/service/bedrockruntime
//
// Providers are tried once each, in the configured order. Replies pass
// through apology silencing and get the staff footer before they are
// cached for a short TTL.
package llm

import (
	"context"

	"github.com/decoders-hk/centre-assistant-go/internal/lang"
)

// Provider names an LLM backend.
type Provider string

const (
	ProviderGemini  Provider = "gemini"
	ProviderOpenAI  Provider = "openai"
	ProviderBedrock Provider = "bedrock"
)

func (p Provider) String() string { return string(p) }

// HintOpeningHours marks a request whose message looked like an
// opening-hours question, which adds the weather and holiday guardrails.
const HintOpeningHours = "opening_hours"

// Answerer generates one completion.
type Answerer interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
	Provider() Provider
}

// Request is one free-form question with its grounding.
type Request struct {
	Lang    lang.Tag
	Message string
	// Context is the opening-hours fact dump or other system facts.
	Context string
	// History is the rendered "Parent:"/"Bot:" transcript.
	History string
	Hint    string
}

// Generation holds sampling settings shared by all providers.
type Generation struct {
	MaxTokens   int
	Temperature float64
	TopP        float64
}

// DefaultGeneration keeps answers short and close to the grounding.
var DefaultGeneration = Generation{MaxTokens: 300, Temperature: 0.15, TopP: 0.9}
