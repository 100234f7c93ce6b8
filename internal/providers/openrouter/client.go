// Package openrouter asks a chat model on OpenRouter to invent a style
// for the pet transformation.
package openrouter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/respjson"
	"github.com/rs/zerolog"

	"petai/internal/domain"
	"petai/internal/infra"
	"petai/internal/prompt"
)

const (
	defaultBaseURL = "https://openrouter.ai/api/v1/"
	defaultModel   = "deepseek/deepseek-chat-v3.1"
	defaultTitle   = "PetAI Studio"
	defaultTimeout = 30 * time.Second

	maxTokens   = 100
	temperature = 1.0
)

var (
	ErrMissingAPIKey  = fmt.Errorf("openrouter: api key not configured: %w", domain.ErrConfiguration)
	ErrMissingReferer = fmt.Errorf("openrouter: referer header not set: %w", domain.ErrConfiguration)
)

type Options struct {
	APIKey  string
	Model   string
	BaseURL string
	// Title is sent as X-Title so OpenRouter can attribute the app.
	Title string
	// Referer is used when GenerateStyle receives an empty one.
	Referer    string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

type Client struct {
	client  openai.Client
	apiKey  string
	model   string
	referer string
	logger  *infra.Logger
}

func NewClient(opts Options) (*Client, error) {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	baseURL := strings.TrimSpace(opts.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}
	title := strings.TrimSpace(opts.Title)
	if title == "" {
		title = defaultTitle
	}

	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}

	apiKey := strings.TrimSpace(opts.APIKey)
	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(httpClient),
		option.WithHeader("X-Title", title),
		option.WithMaxRetries(0),
	)

	return &Client{
		client:  client,
		apiKey:  apiKey,
		model:   model,
		referer: strings.TrimSpace(opts.Referer),
		logger:  logger,
	}, nil
}

// Model returns the configured chat model.
func (c *Client) Model() string {
	return c.model
}

// GenerateStyle asks the model for one new style. Complete answers that
// already carry the fixed prefix and suffix come back verbatim; anything
// else is stripped of them. Errors are returned to the caller, which owns
// the fallback.
func (c *Client) GenerateStyle(ctx context.Context, referer string) (string, error) {
	if c.apiKey == "" {
		return "", ErrMissingAPIKey
	}
	referer = strings.TrimSpace(referer)
	if referer == "" {
		referer = c.referer
	}
	if referer == "" {
		return "", ErrMissingReferer
	}

	system, user := prompt.StyleInstructions()
	params := openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		MaxTokens:   openai.Int(maxTokens),
		Temperature: openai.Float(temperature),
	}

	resp, err := c.client.Chat.Completions.New(ctx, params, option.WithHeader("HTTP-Referer", referer))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("openrouter status %d: %w: %w", apiErr.StatusCode, domain.ErrBackend, err)
		}
		return "", fmt.Errorf("openrouter chat: %w: %w", domain.ErrBackend, err)
	}

	switch resp.JSON.Choices.Raw() {
	case respjson.Omitted, respjson.Null:
		return "", fmt.Errorf("openrouter: response has no choices: %w", domain.ErrMalformedResponse)
	}

	raw := ""
	if len(resp.Choices) > 0 {
		raw = strings.TrimSpace(resp.Choices[0].Message.Content)
	}
	if raw == "" {
		raw = prompt.FallbackStyle
	}
	style := prompt.ResolveStyle(raw)

	c.logger.Debug().
		Str("model", c.model).
		Str("raw", raw).
		Str("style", style).
		Msg("openrouter: style generated")

	return style, nil
}
