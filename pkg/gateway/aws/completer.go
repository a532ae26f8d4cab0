package aws

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/cenkalti/backoff"
	"github.com/de-tools/ops-agent/pkg/gateway"
	"github.com/de-tools/ops-agent/pkg/models/domain"
)

const defaultModelID = "us.anthropic.claude-haiku-4-5-20251001-v1:0"

// Completer talks to Amazon Bedrock. One synchronous invocation per turn;
// throttled calls are retried with exponential backoff before giving up.
type Completer struct {
	client  *bedrockruntime.Client
	modelID string
}

type CompleterSettings struct {
	ModelID string
	Region  string
}

func NewCompleter(base awssdk.Config, settings CompleterSettings) *Completer {
	modelID := settings.ModelID
	if modelID == "" {
		modelID = defaultModelID
	}
	cfg := scopedConfig(base, settings.Region, domain.Credentials{})
	return &Completer{
		client:  bedrockruntime.NewFromConfig(cfg),
		modelID: modelID,
	}
}

var _ gateway.Completer = (*Completer)(nil)

type invokeRequest struct {
	AnthropicVersion string    `json:"anthropic_version"`
	System           string    `json:"system,omitempty"`
	Messages         []message `json:"messages"`
	MaxTokens        int       `json:"max_tokens"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type invokeResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

func (c *Completer) Complete(ctx context.Context, system, prompt string) (string, error) {
	body, err := json.Marshal(invokeRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		System:           system,
		Messages:         []message{{Role: "user", Content: prompt}},
		MaxTokens:        1024,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode model request: %w", err)
	}

	var out *bedrockruntime.InvokeModelOutput
	operation := func() error {
		var invokeErr error
		out, invokeErr = c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
			ModelId:     awssdk.String(c.modelID),
			ContentType: awssdk.String("application/json"),
			Body:        body,
		})
		return invokeErr
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 500 * time.Millisecond
	expBackoff.MaxElapsedTime = 30 * time.Second

	if err := backoff.Retry(operation, backoff.WithContext(expBackoff, ctx)); err != nil {
		return "", domain.WrapError(domain.KindUpstreamUnavailable, err, "model %s unreachable", c.modelID)
	}

	var resp invokeResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return "", fmt.Errorf("failed to decode model response: %w", err)
	}
	if len(resp.Content) == 0 {
		return "", fmt.Errorf("model returned empty response")
	}
	return resp.Content[0].Text, nil
}
