package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

func TestNewOpenAI_NilWithEmptyKey(t *testing.T) {
	t.Parallel()
	if a := NewOpenAI("", "", "", DefaultGeneration); a != nil {
		t.Error("NewOpenAI with empty key should return nil")
	}
}

func TestOpenAIAnswerer_Generate(t *testing.T) {
	t.Parallel()

	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("path = %q, want suffix /chat/completions", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1,
			"model": "test-model",
			"choices": [{"index": 0, "finish_reason": "stop",
				"message": {"role": "assistant", "content": "  We open at 09:00.  "}}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
		}`)
	}))
	defer srv.Close()

	a := NewOpenAI("test-key", srv.URL+"/", "test-model", DefaultGeneration)
	got, err := a.Generate(context.Background(), "be brief", "When do you open?")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != "We open at 09:00." {
		t.Errorf("Generate() = %q, want %q", got, "We open at 09:00.")
	}
	if gotBody["model"] != "test-model" {
		t.Errorf("request model = %v, want test-model", gotBody["model"])
	}
	msgs, _ := gotBody["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("request messages = %d, want 2", len(msgs))
	}
	if first, _ := msgs[0].(map[string]any); first["role"] != "system" {
		t.Errorf("first message role = %v, want system", first["role"])
	}
}

func TestOpenAIAnswerer_StatusError(t *testing.T) {
	t.Parallel()

	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error": {"message": "slow down", "type": "rate_limit_error"}}`)
	}))
	defer srv.Close()

	a := NewOpenAI("test-key", srv.URL+"/", "", DefaultGeneration)
	_, err := a.Generate(context.Background(), "sys", "hi")
	if err == nil {
		t.Fatal("Generate() expected error")
	}

	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("error %T is not *ProviderError", err)
	}
	if pe.StatusCode != http.StatusTooManyRequests {
		t.Errorf("StatusCode = %d, want 429", pe.StatusCode)
	}
	if got := errorStatus(err); got != "rate_limited" {
		t.Errorf("errorStatus() = %q, want rate_limited", got)
	}
	if calls != 1 {
		t.Errorf("server called %d times, want 1 (no retries)", calls)
	}
}

func TestNewGemini_NilWithEmptyKey(t *testing.T) {
	t.Parallel()
	a, err := NewGemini(context.Background(), "", "", "", DefaultGeneration)
	if err != nil {
		t.Errorf("NewGemini() error = %v", err)
	}
	if a != nil {
		t.Error("NewGemini with empty key should return nil")
	}
}

func TestGeminiAnswerer_Generate(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, ":generateContent") {
			t.Errorf("path = %q, want suffix :generateContent", r.URL.Path)
		}
		if got := r.Header.Get("x-goog-api-key"); got != "test-key" {
			t.Errorf("x-goog-api-key = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"candidates": [{"content": {"role": "model", "parts": [
				{"text": "thinking...", "thought": true},
				{"text": "Yes, we are open "},
				{"text": "on Saturday."}
			]}}],
			"usageMetadata": {"promptTokenCount": 12, "candidatesTokenCount": 6}
		}`)
	}))
	defer srv.Close()

	a, err := NewGemini(context.Background(), "test-key", "gemini-test", srv.URL+"/", DefaultGeneration)
	if err != nil {
		t.Fatalf("NewGemini() error = %v", err)
	}

	got, err := a.Generate(context.Background(), "sys", "Are you open on Saturday?")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if want := "Yes, we are open on Saturday."; got != want {
		t.Errorf("Generate() = %q, want %q", got, want)
	}
}

func TestGeminiAnswerer_ServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `{"error": {"code": 503, "message": "overloaded", "status": "UNAVAILABLE"}}`)
	}))
	defer srv.Close()

	a, err := NewGemini(context.Background(), "test-key", "gemini-test", srv.URL+"/", DefaultGeneration)
	if err != nil {
		t.Fatalf("NewGemini() error = %v", err)
	}

	_, err = a.Generate(context.Background(), "sys", "hi")
	if err == nil {
		t.Fatal("Generate() expected error")
	}
	if got := errorStatus(err); got != "server_error" {
		t.Errorf("errorStatus() = %q, want server_error", got)
	}
}

type fakeConverse struct {
	out   *bedrockruntime.ConverseOutput
	err   error
	input *bedrockruntime.ConverseInput
}

func (f *fakeConverse) Converse(_ context.Context, params *bedrockruntime.ConverseInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	f.input = params
	return f.out, f.err
}

func TestNewBedrock_NilWithoutModel(t *testing.T) {
	t.Parallel()
	if a := NewBedrock(&fakeConverse{}, "", DefaultGeneration); a != nil {
		t.Error("NewBedrock without model should return nil")
	}
}

func TestBedrockAnswerer_Generate(t *testing.T) {
	t.Parallel()

	fake := &fakeConverse{
		out: &bedrockruntime.ConverseOutput{
			Output: &brtypes.ConverseOutputMemberMessage{
				Value: brtypes.Message{
					Role: brtypes.ConversationRoleAssistant,
					Content: []brtypes.ContentBlock{
						&brtypes.ContentBlockMemberText{Value: "Classes run "},
						&brtypes.ContentBlockMemberText{Value: "Monday to Saturday."},
					},
				},
			},
			Usage: &brtypes.TokenUsage{InputTokens: aws.Int32(20), OutputTokens: aws.Int32(6)},
		},
	}

	a := NewBedrock(fake, "anthropic.test-model", Generation{MaxTokens: 123, Temperature: 0.2, TopP: 0.8})
	got, err := a.Generate(context.Background(), "system rules", "When are classes?")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if want := "Classes run Monday to Saturday."; got != want {
		t.Errorf("Generate() = %q, want %q", got, want)
	}

	if aws.ToString(fake.input.ModelId) != "anthropic.test-model" {
		t.Errorf("ModelId = %q", aws.ToString(fake.input.ModelId))
	}
	if got := aws.ToInt32(fake.input.InferenceConfig.MaxTokens); got != 123 {
		t.Errorf("MaxTokens = %d, want 123", got)
	}
	sys, ok := fake.input.System[0].(*brtypes.SystemContentBlockMemberText)
	if !ok || sys.Value != "system rules" {
		t.Errorf("System = %#v", fake.input.System)
	}
}

func TestBedrockAnswerer_Error(t *testing.T) {
	t.Parallel()

	a := NewBedrock(&fakeConverse{err: errors.New("access denied")}, "m", DefaultGeneration)
	_, err := a.Generate(context.Background(), "sys", "hi")

	var pe *ProviderError
	if !errors.As(err, &pe) || pe.Provider != ProviderBedrock {
		t.Fatalf("Generate() error = %v, want bedrock ProviderError", err)
	}
}

func TestErrorStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "success"},
		{"canceled", context.Canceled, "canceled"},
		{"deadline", context.DeadlineExceeded, "timeout"},
		{"rate limited", &ProviderError{StatusCode: 429, Err: errors.New("x")}, "rate_limited"},
		{"server", &ProviderError{StatusCode: 502, Err: errors.New("x")}, "server_error"},
		{"auth", &ProviderError{StatusCode: 401, Err: errors.New("x")}, "auth_error"},
		{"bad request", &ProviderError{StatusCode: 400, Err: errors.New("x")}, "bad_request"},
		{"plain", errors.New("boom"), "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := errorStatus(tt.err); got != tt.want {
				t.Errorf("errorStatus(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}
