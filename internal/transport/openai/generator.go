package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/prodex/internal/domain"
	"github.com/kailas-cloud/prodex/internal/metrics"
)

// Generator produces short completions through the chat completions API.
// Used for query analysis and related-search suggestions.
type Generator struct {
	client *openai.Client
	model  string
	user   string
	logger *zap.Logger
}

// NewGenerator creates an OpenAI-compatible text generator.
func NewGenerator(cfg *Config) *Generator {
	return &Generator{
		client: newClient(cfg),
		model:  cfg.Model,
		user:   cfg.User,
		logger: cfg.Logger,
	}
}

// Generate implements domain.Generator.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.2,
		User:        g.user,
	}

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(g.model, "error").Inc()
		return "", parseAPIError(err)
	}
	metrics.GenerationRequestDuration.WithLabelValues(g.model).Observe(time.Since(start).Seconds())

	if len(resp.Choices) == 0 {
		metrics.GenerationRequestsTotal.WithLabelValues(g.model, "error").Inc()
		return "", fmt.Errorf("empty completion response: %w", domain.ErrProviderError)
	}
	metrics.GenerationRequestsTotal.WithLabelValues(g.model, "success").Inc()

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
