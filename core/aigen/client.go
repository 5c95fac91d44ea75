package aigen

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/swisspipe/swisspipe/core/config"
	"github.com/swisspipe/swisspipe/pkg/logger"
)

// ErrMissingAPIKey is returned when no anthropic key was configured. The key
// comes from `ai.api_key` in the config file or the ANTHROPIC_API_KEY env var.
var ErrMissingAPIKey = errors.New("anthropic api key is not configured")

const messagesPath = "/v1/messages"

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	System      string    `json:"system,omitempty"`
	Messages    []message `json:"messages"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Usage reports token consumption for one API call.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type messagesResponse struct {
	Content []contentBlock `json:"content"`
	Usage   Usage          `json:"usage"`
}

type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// RequestOptions override the configured model parameters for a single call.
type RequestOptions struct {
	Model       string  `json:"model,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// Client is a thin wrapper over the Anthropic Messages API. Transient
// failures (network errors, 429, 5xx) are retried with backoff by resty.
type Client struct {
	http   *resty.Client
	cfg    config.AIConfig
	logger logger.Logger
}

func NewClient(cfg config.AIConfig, l logger.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(cfg.Endpoint).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(time.Second).
		SetRetryMaxWaitTime(10 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError
		}).
		SetHeaders(map[string]string{
			"Content-Type":      "application/json",
			"anthropic-version": cfg.AnthropicVersion,
		})

	return &Client{
		http:   httpClient,
		cfg:    cfg,
		logger: logger.EnsureLogger(l),
	}
}

// CreateMessage sends one user prompt (with an optional system prompt) and
// returns the first text block of the response.
func (c *Client) CreateMessage(ctx context.Context, system, userPrompt string, opts *RequestOptions) (string, *Usage, error) {
	if c.cfg.APIKey == "" {
		return "", nil, ErrMissingAPIKey
	}

	req := messagesRequest{
		Model:       c.cfg.Model,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
		System:      system,
		Messages:    []message{{Role: "user", Content: userPrompt}},
	}
	if opts != nil {
		if opts.Model != "" {
			req.Model = opts.Model
		}
		if opts.MaxTokens > 0 {
			req.MaxTokens = opts.MaxTokens
		}
		if opts.Temperature > 0 {
			req.Temperature = opts.Temperature
		}
	}

	var out messagesResponse
	var errOut apiError

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("x-api-key", c.cfg.APIKey).
		SetBody(req).
		SetResult(&out).
		SetError(&errOut).
		Post(messagesPath)
	if err != nil {
		return "", nil, fmt.Errorf("anthropic request failed: %w", err)
	}

	if resp.IsError() {
		msg := errOut.Error.Message
		if msg == "" {
			msg = resp.String()
		}
		return "", nil, fmt.Errorf("anthropic api error %d: %s", resp.StatusCode(), msg)
	}

	if len(out.Content) == 0 {
		return "", nil, errors.New("anthropic response has no content blocks")
	}

	c.logger.Info("anthropic call succeeded",
		"model", req.Model,
		"input_tokens", out.Usage.InputTokens,
		"output_tokens", out.Usage.OutputTokens)

	return out.Content[0].Text, &out.Usage, nil
}
