// Package llm adapts the OpenAI chat-completions API to the generator
// contract the conversation machine consumes. Errors come back untouched so
// the machine can tell cancellation apart from request failure.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/virtualatc/atc-engine/pkg/logger"
)

// Config holds model parameters for reply generation.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Temperature    float64
	MaxTokens      int
	TimeoutSeconds int
}

// Client generates controller replies through the chat-completions API.
type Client struct {
	api    openai.Client
	config Config
	logger *logger.Logger
}

// NewClient creates a chat-completions client.
func NewClient(config Config, log *logger.Logger) *Client {
	if config.APIKey == "" {
		log.Warn("OpenAI API key is empty - model replies will fail until one is configured")
	}

	opts := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	return &Client{
		api:    openai.NewClient(opts...),
		config: config,
		logger: log.Named("llm"),
	}
}

// Generate produces one controller reply for the given prompts.
func (c *Client) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if c.config.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(c.config.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.config.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
	}
	if c.config.Temperature > 0 {
		params.Temperature = openai.Float(c.config.Temperature)
	}
	if c.config.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(c.config.MaxTokens))
	}

	started := time.Now()
	completion, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	reply := strings.TrimSpace(completion.Choices[0].Message.Content)
	c.logger.Debug("Model reply generated",
		logger.String("model", c.config.Model),
		logger.Int("chars", len(reply)),
		logger.Duration("elapsed", time.Since(started)))
	return reply, nil
}
