package solutions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"
	"go.uber.org/zap"
)

// ErrDisabled is returned when no drafting provider is configured.
var ErrDisabled = errors.New("solution drafting is disabled")

// LLMClient is the interface every drafting backend satisfies.
type LLMClient interface {
	Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error)
}

// LLMResponse holds the raw response content and token usage.
type LLMResponse struct {
	Content      string
	PromptTokens int
	OutputTokens int
}

type Config struct {
	Provider   string // anthropic, cli, mock; empty disables drafting
	Model      string
	APIKey     string
	CLIPath    string
	CLITimeout time.Duration
	MaxTokens  int64
}

// NewClient picks the backend named by cfg.Provider and returns it with the
// model name recorded on drafts.
func NewClient(cfg Config, log *zap.Logger) (LLMClient, string, error) {
	switch cfg.Provider {
	case "":
		return nil, "", ErrDisabled
	case "mock":
		log.Info("solution drafter using mock data")
		return NewMockClient(""), "mock", nil
	case "cli":
		path := cfg.CLIPath
		if path == "" {
			path = "claude"
		}
		model := cfg.Model
		if model == "" {
			model = "claude-cli"
		}
		log.Info("solution drafter using claude CLI", zap.String("path", path), zap.String("model", model))
		return NewCLIClient(path, cfg.Model, cfg.CLITimeout, log), model, nil
	case "anthropic":
		if cfg.APIKey == "" {
			return nil, "", errors.New("anthropic provider requires an api key")
		}
		model := cfg.Model
		if model == "" {
			model = "claude-opus-4-5-20251101"
		}
		log.Info("solution drafter using Anthropic API", zap.String("model", model))
		return NewAPIClient(cfg.APIKey, model, cfg.MaxTokens, log), model, nil
	default:
		return nil, "", fmt.Errorf("unknown drafting provider %q", cfg.Provider)
	}
}

// ── APIClient: Anthropic SDK ────────────────────────────

type APIClient struct {
	client    *anthropic.Client
	model     string
	maxTokens int64
	log       *zap.Logger
}

func NewAPIClient(apiKey, model string, maxTokens int64, log *zap.Logger) *APIClient {
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)
	return &APIClient{client: &client, model: model, maxTokens: maxTokens, log: log}
}

func (c *APIClient) Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   c.maxTokens,
		Temperature: param.NewOpt(0.2),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	}

	message, err := c.callWithRetry(ctx, params)
	if err != nil {
		return nil, err
	}

	var responseText string
	for _, block := range message.Content {
		if block.Type == "text" {
			responseText = block.Text
			break
		}
	}

	if responseText == "" {
		return nil, fmt.Errorf("no text content in API response")
	}

	return &LLMResponse{
		Content:      responseText,
		PromptTokens: int(message.Usage.InputTokens),
		OutputTokens: int(message.Usage.OutputTokens),
	}, nil
}

func (c *APIClient) callWithRetry(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			sleepDuration := time.Duration(1<<uint(attempt)) * time.Second
			c.log.Warn("retrying Anthropic API call",
				zap.Duration("backoff", sleepDuration), zap.Int("attempt", attempt+1))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(sleepDuration):
			}
		}

		message, err := c.client.Messages.New(ctx, params)
		if err == nil {
			return message, nil
		}
		lastErr = err
		c.log.Warn("Anthropic API attempt failed", zap.Int("attempt", attempt+1), zap.Error(err))
	}
	return nil, fmt.Errorf("anthropic API failed after retries: %w", lastErr)
}

// ── MockClient: Local Development ───────────────────────

type MockClient struct {
	content string
}

// NewMockClient replies with content, or with a canned draft when empty.
func NewMockClient(content string) *MockClient {
	if content == "" {
		content = `{"solution":"[Mock] Work through the definitions given in the question.","steps":["[Mock] Identify what is asked.","[Mock] Apply the relevant rule."],"final_answer":""}`
	}
	return &MockClient{content: content}
}

func (m *MockClient) Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error) {
	return &LLMResponse{
		Content:      m.content,
		PromptTokens: len(systemPrompt+userPrompt) / 4,
		OutputTokens: len(m.content) / 4,
	}, nil
}
