package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wonny/macrowatch/pkg/config"
	"github.com/wonny/macrowatch/pkg/httputil"
	"github.com/wonny/macrowatch/pkg/logger"
)

// FallbackSummary replaces the AI summary whenever the service is
// unavailable or unconfigured. The run itself is unaffected.
const FallbackSummary = "Automated summary unavailable for this run; see the indicator table above."

// Client calls the chat completions API to summarize a run. Retries
// are bounded and handled here, with the transport's own retry
// disabled so the budget is explicit.
type Client struct {
	http       *httputil.Client
	baseURL    string
	apiKey     string
	model      string
	maxRetries int
	retryDelay time.Duration
	logger     *logger.Logger
}

// New creates a summarizer client from app config.
func New(cfg *config.Config, log *logger.Logger) *Client {
	return &Client{
		http:       httputil.New(log, 60*time.Second).DisableRetry(),
		baseURL:    cfg.OpenAI.BaseURL,
		apiKey:     cfg.OpenAI.APIKey,
		model:      cfg.OpenAI.Model,
		maxRetries: cfg.OpenAI.MaxRetries,
		retryDelay: cfg.OpenAI.RetryDelay,
		logger:     log.WithField("source", "openai"),
	}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Summarize sends the prompt and returns the model's reply. Transient
// failures are retried up to the configured budget with linear backoff;
// exhausting it returns the last error.
func (c *Client) Summarize(ctx context.Context, prompt string) (string, error) {
	if !c.Enabled() {
		return "", fmt.Errorf("openai: no API key configured")
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.WithFields(map[string]interface{}{
				"attempt": attempt,
				"error":   lastErr.Error(),
			}).Warn("retrying summary request")

			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt) * c.retryDelay):
			}
		}

		summary, err := c.complete(ctx, prompt)
		if err == nil {
			return summary, nil
		}
		lastErr = err
	}

	return "", fmt.Errorf("openai: summary failed after %d retries: %w", c.maxRetries, lastErr)
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are a macroeconomic analyst. Summarize the indicator table in a short paragraph, plain language, no advice."},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/chat/completions", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(body)))
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling chat completions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("chat completions status %d: %s", resp.StatusCode, string(snippet))
	}

	var payload chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if len(payload.Choices) == 0 {
		return "", fmt.Errorf("empty choices in response")
	}

	return strings.TrimSpace(payload.Choices[0].Message.Content), nil
}
