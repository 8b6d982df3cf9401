package llm

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/tuannvm/jira-reporter/internal/config"
	log "github.com/tuannvm/jira-reporter/internal/logging"
)

// LLMClient defines the interface for interacting with LLM services
type LLMClient interface {
	// Complete sends a prompt to the LLM and returns the completion
	Complete(ctx context.Context, prompt string) (string, error)
	// Sample is Complete with a per-call token budget. It makes the client
	// usable as a report summarizer when the caller cannot sample itself.
	Sample(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// Client implements the LLMClient interface using langchain-go
type Client struct {
	llm         llms.Model
	maxTokens   int
	temperature float64
	timeout     time.Duration
}

// NewClient creates a new LLM client based on the provided configuration
func NewClient(cfg *config.Config) (*Client, error) {
	var (
		model llms.Model
		err   error
	)

	switch cfg.LLMProvider {
	case "openai":
		opts := []openai.Option{
			openai.WithToken(cfg.LLMAPIKey),
			openai.WithModel(cfg.LLMModel),
		}
		if cfg.LLMServiceURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.LLMServiceURL))
		}
		model, err = openai.New(opts...)
	case "azure":
		model, err = openai.New(
			openai.WithToken(cfg.LLMAPIKey),
			openai.WithModel(cfg.LLMModel),
			openai.WithBaseURL(cfg.LLMServiceURL),
			openai.WithAPIType(openai.APITypeAzure),
		)
	case "anthropic":
		model, err = anthropic.New(
			anthropic.WithToken(cfg.LLMAPIKey),
			anthropic.WithModel(cfg.LLMModel),
		)
	case "ollama":
		opts := []ollama.Option{ollama.WithModel(cfg.LLMModel)}
		if cfg.LLMServiceURL != "" {
			opts = append(opts, ollama.WithServerURL(cfg.LLMServiceURL))
		}
		model, err = ollama.New(opts...)
	default:
		return nil, errors.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize LLM")
	}

	return newClient(model, cfg.LLMMaxTokens, cfg.LLMTemperature, time.Duration(cfg.LLMTimeout)*time.Second), nil
}

func newClient(model llms.Model, maxTokens int, temperature float64, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		llm:         model,
		maxTokens:   maxTokens,
		temperature: temperature,
		timeout:     timeout,
	}
}

// Complete sends a prompt to the LLM and returns the completion
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	return c.Sample(ctx, prompt, c.maxTokens)
}

// Sample sends prompt with at most maxTokens of output. A non-positive
// maxTokens falls back to the configured limit.
func (c *Client) Sample(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if c.llm == nil {
		return "", errors.New("LLM client not initialized")
	}
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}

	log.Debugf("Sending prompt to LLM: %s", truncateForLogging(prompt))

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	opts := []llms.CallOption{llms.WithTemperature(c.temperature)}
	if maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(maxTokens))
	}
	completion, err := llms.GenerateFromSinglePrompt(ctx, c.llm, prompt, opts...)
	if err != nil {
		return "", errors.Wrap(err, "LLM generation failed")
	}

	log.Debugf("Received response from LLM: %s", truncateForLogging(completion))
	return completion, nil
}

// truncateForLogging truncates a string to a reasonable length for logging
func truncateForLogging(s string) string {
	const maxLength = 500
	if len(s) <= maxLength {
		return s
	}
	return s[:maxLength] + "... [truncated]"
}
