package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"petai/internal/domain"
	"petai/internal/imageref"
	"petai/internal/infra"
)

const (
	defaultBaseURL     = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel       = "gemini-2.5-flash-image-preview"
	defaultTimeout     = 90 * time.Second
	defaultMaxAttempts = 3
	defaultBaseDelay   = time.Second
)

var (
	ErrMissingAPIKey  = fmt.Errorf("gemini: api key not configured: %w", domain.ErrConfiguration)
	ErrMissingReferer = fmt.Errorf("gemini: referer header not set: %w", domain.ErrConfiguration)
)

// Options controls how the Gemini client is configured.
type Options struct {
	APIKey  string
	BaseURL string
	Model   string
	// Referer is sent when a request carries none of its own.
	Referer    string
	HTTPClient *http.Client
	Logger     *infra.Logger

	// MaxAttempts bounds Generate. Zero means 3.
	MaxAttempts int
	// BaseDelay scales the wait before retry i to 2^i * BaseDelay. Zero means one second.
	BaseDelay time.Duration
	// Timer drives the waits between attempts. Nil uses a real timer.
	Timer backoff.Timer
}

// Client calls the Gemini generateContent endpoint with a photo and an
// instruction and returns the raw response body.
type Client struct {
	apiKey      string
	baseURL     string
	model       string
	referer     string
	httpClient  *http.Client
	logger      *infra.Logger
	maxAttempts int
	baseDelay   time.Duration
	timer       backoff.Timer
}

// Request is one image generation call.
type Request struct {
	Prompt  string
	Image   imageref.Image
	Referer string
}

// APIError is a failed call: a non-success status or an error field in the body.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gemini status %d", e.StatusCode)
	}
	return fmt.Sprintf("gemini status %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return domain.ErrBackend
}

type generateContentRequest struct {
	Contents []requestContent `json:"contents"`
}

type requestContent struct {
	Parts []requestPart `json:"parts"`
}

type requestPart struct {
	Text       string             `json:"text,omitempty"`
	InlineData *requestInlineData `json:"inline_data,omitempty"`
}

type requestInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type errorEnvelope struct {
	Error json.RawMessage `json:"error"`
}

type errorDetail struct {
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Status  string `json:"status,omitempty"`
}

// NewClient constructs a Gemini client with sane defaults. Callers may provide
// a nil HTTP client; one with a generous timeout is created.
func NewClient(opts Options) (*Client, error) {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}

	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("gemini: invalid base url: %w", err)
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}

	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}

	attempts := opts.MaxAttempts
	if attempts <= 0 {
		attempts = defaultMaxAttempts
	}
	delay := opts.BaseDelay
	if delay <= 0 {
		delay = defaultBaseDelay
	}

	return &Client{
		apiKey:      strings.TrimSpace(opts.APIKey),
		baseURL:     baseURL,
		model:       model,
		referer:     strings.TrimSpace(opts.Referer),
		httpClient:  client,
		logger:      logger,
		maxAttempts: attempts,
		baseDelay:   delay,
		timer:       opts.Timer,
	}, nil
}

// Model returns the configured Gemini model identifier.
func (c *Client) Model() string {
	return c.model
}

// MaxAttempts returns the retry ceiling used by Generate.
func (c *Client) MaxAttempts() int {
	return c.maxAttempts
}

// GenerateOnce performs a single generateContent call and returns the raw
// successful body.
func (c *Client) GenerateOnce(ctx context.Context, req Request) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	referer := strings.TrimSpace(req.Referer)
	if referer == "" {
		referer = c.referer
	}
	if referer == "" {
		return nil, ErrMissingReferer
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, fmt.Errorf("gemini: prompt is required: %w", domain.ErrUserInput)
	}
	if req.Image.IsZero() || req.Image.MIMEType == "" {
		return nil, fmt.Errorf("gemini: source image is required: %w", domain.ErrUserInput)
	}

	payload := generateContentRequest{
		Contents: []requestContent{{
			Parts: []requestPart{
				{Text: req.Prompt},
				{InlineData: &requestInlineData{MimeType: req.Image.MIMEType, Data: req.Image.Data}},
			},
		}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-goog-api-key", c.apiKey)
	httpReq.Header.Set("HTTP-Referer", referer)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("invoke gemini: %w: %w", domain.ErrBackend, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read gemini response: %w: %w", domain.ErrBackend, err)
	}

	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
	}
	if !json.Valid(raw) {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: "response body is not valid json"}
	}
	if msg, ok := bodyError(raw); ok {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	c.logger.Debug().
		Str("model", c.model).
		Int("bytes", len(raw)).
		Msg("gemini: response received")

	return raw, nil
}

// bodyError reports an explicit error field carried by a successful response.
func bodyError(raw []byte) (string, bool) {
	var env errorEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", false
	}
	trimmed := bytes.TrimSpace(env.Error)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", false
	}
	var detail errorDetail
	if err := json.Unmarshal(trimmed, &detail); err == nil && detail.Message != "" {
		return detail.Message, true
	}
	return string(trimmed), true
}
