package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

// ConverseAPI is the subset of the Bedrock runtime client used here.
type ConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

type bedrockAnswerer struct {
	client  ConverseAPI
	modelID string
	gen     Generation
}

// NewBedrock returns nil when modelID is empty.
func NewBedrock(client ConverseAPI, modelID string, gen Generation) Answerer {
	if client == nil || modelID == "" {
		return nil
	}
	return &bedrockAnswerer{client: client, modelID: modelID, gen: gen}
}

func (a *bedrockAnswerer) Generate(ctx context.Context, system, prompt string) (string, error) {
	start := time.Now()
	out, err := a.client.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId: aws.String(a.modelID),
		System: []brtypes.SystemContentBlock{
			&brtypes.SystemContentBlockMemberText{Value: system},
		},
		Messages: []brtypes.Message{{
			Role:    brtypes.ConversationRoleUser,
			Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: prompt}},
		}},
		InferenceConfig: &brtypes.InferenceConfiguration{
			MaxTokens:   aws.Int32(int32(a.gen.MaxTokens)),
			Temperature: aws.Float32(float32(a.gen.Temperature)),
			TopP:        aws.Float32(float32(a.gen.TopP)),
		},
	})
	if err != nil {
		pe := &ProviderError{Provider: ProviderBedrock, Err: fmt.Errorf("converse: %w", err)}
		var respErr *smithyhttp.ResponseError
		if errors.As(err, &respErr) {
			pe.StatusCode = respErr.HTTPStatusCode()
		}
		return "", pe
	}

	msg, ok := out.Output.(*brtypes.ConverseOutputMemberMessage)
	if !ok {
		return "", nil
	}

	var b strings.Builder
	for _, block := range msg.Value.Content {
		if text, ok := block.(*brtypes.ContentBlockMemberText); ok {
			b.WriteString(text.Value)
		}
	}

	if out.Usage != nil {
		slog.DebugContext(ctx, "llm completion",
			"provider", ProviderBedrock,
			"model", a.modelID,
			"input_tokens", aws.ToInt32(out.Usage.InputTokens),
			"output_tokens", aws.ToInt32(out.Usage.OutputTokens),
			"duration_ms", time.Since(start).Milliseconds())
	}

	return strings.TrimSpace(b.String()), nil
}

func (a *bedrockAnswerer) Provider() Provider { return ProviderBedrock }
