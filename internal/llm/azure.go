package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/azure"

	"github.com/babel-ai/dialogue-gateway/internal/metrics"
	"github.com/babel-ai/dialogue-gateway/internal/session"
)

// Config holds the Azure OpenAI connection settings.
type Config struct {
	Key        string
	Endpoint   string
	Deployment string
	APIVersion string
	MaxTokens  int
}

// Client produces one chat completion per turn against an Azure OpenAI
// deployment. Single attempt, no retry; a failed call is tolerated upstream
// as a skipped turn.
type Client struct {
	client    openai.Client
	model     string
	maxTokens int
}

// NewClient creates a generation client, or nil (no error) when credentials
// are absent so the caller can report a configuration error per session.
func NewClient(cfg Config) *Client {
	if cfg.Key == "" || cfg.Endpoint == "" {
		return nil
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = "2024-02-01"
	}
	if cfg.Deployment == "" {
		cfg.Deployment = "gpt-4o-mini"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 250
	}
	return &Client{
		client: openai.NewClient(
			azure.WithEndpoint(cfg.Endpoint, cfg.APIVersion),
			azure.WithAPIKey(cfg.Key),
		),
		model:     cfg.Deployment,
		maxTokens: cfg.MaxTokens,
	}
}

// Complete sends the system prompt plus the entity's mirrored history and
// returns the generated text. An empty response is returned as "" with no
// error; the caller treats it as a skipped turn.
func (c *Client) Complete(ctx context.Context, system string, history []session.Turn, temperature, topP float64) (string, error) {
	start := time.Now()

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+1)
	messages = append(messages, openai.SystemMessage(system))
	for _, t := range history {
		switch t.Role {
		case "assistant":
			messages = append(messages, openai.AssistantMessage(t.Content))
		default:
			messages = append(messages, openai.UserMessage(t.Content))
		}
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.model),
		Messages:    messages,
		Temperature: openai.Float(temperature),
		TopP:        openai.Float(topP),
		MaxTokens:   openai.Int(int64(c.maxTokens)),
	})
	if err != nil {
		metrics.Errors.WithLabelValues("llm", "request").Inc()
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		metrics.Errors.WithLabelValues("llm", "empty").Inc()
		return "", nil
	}

	metrics.StageDuration.WithLabelValues("llm").Observe(time.Since(start).Seconds())
	return resp.Choices[0].Message.Content, nil
}
