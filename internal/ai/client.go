// Package ai wraps the Google Gemini generateContent endpoint behind a
// resilient client: bounded exponential-backoff retry on transient failures,
// classified errors, a suggestion cache, and a normalizer that repairs
// truncated JSON task batches.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/taskhive/taskhive/internal/logging"
)

// maxResponseSize limits the response body read to prevent memory exhaustion.
const maxResponseSize = 4 * 1024 * 1024

// Config holds provider settings.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string

	// ChatTimeout bounds each attempt on the chat (task generation) path;
	// QuickTimeout bounds the suggestion and prediction paths.
	ChatTimeout  time.Duration
	QuickTimeout time.Duration

	// MaxAttempts is the total attempt budget per call.
	MaxAttempts int
	// BackoffBase is the delay before the second attempt; it doubles for
	// each attempt after that (2s, 4s, 8s for a 2s base).
	BackoffBase time.Duration

	CacheTTL  time.Duration
	CacheSize int
}

// DefaultConfig returns provider defaults.
func DefaultConfig() Config {
	return Config{
		Model:        "gemini-2.5-flash",
		BaseURL:      "https://generativelanguage.googleapis.com",
		ChatTimeout:  20 * time.Second,
		QuickTimeout: 10 * time.Second,
		MaxAttempts:  3,
		BackoffBase:  2 * time.Second,
		CacheTTL:     5 * time.Minute,
		CacheSize:    256,
	}
}

// Client calls the Gemini API with retry and error classification.
// It holds no mutable shared state beyond the suggestion cache.
type Client struct {
	cfg        Config
	httpClient *http.Client
	cache      *Cache
	log        *logging.Logger

	// sleep is replaceable in tests to observe backoff without waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithSleep replaces the backoff sleep function.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) { c.sleep = fn }
}

// WithClock sets the cache clock.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.cache = NewCache(c.cfg.CacheTTL, c.cfg.CacheSize, now) }
}

// NewClient creates a Gemini client.
func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if cfg.ChatTimeout == 0 {
		cfg.ChatTimeout = 20 * time.Second
	}
	if cfg.QuickTimeout == 0 {
		cfg.QuickTimeout = 10 * time.Second
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BackoffBase == 0 {
		cfg.BackoffBase = 2 * time.Second
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.CacheSize == 0 {
		cfg.CacheSize = 256
	}

	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{},
		log:        logging.Component("ai"),
		sleep: func(ctx context.Context, d time.Duration) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d):
				return nil
			}
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cache == nil {
		c.cache = NewCache(cfg.CacheTTL, cfg.CacheSize, time.Now)
	}
	return c
}

// Configured reports whether an API key is available.
func (c *Client) Configured() bool {
	return c.cfg.APIKey != ""
}

// GenerateRequest describes a single generation call.
type GenerateRequest struct {
	Prompt       string
	Timeout      time.Duration
	JSONResponse bool    // ask the provider for application/json output
	Temperature  float64 // 0 uses the endpoint default
	MaxTokens    int
}

// Gemini wire types.

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature      float64 `json:"temperature,omitempty"`
	MaxOutputTokens  int     `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Generate executes one generation request with the retry policy: up to
// MaxAttempts attempts, retrying only on transient failures (overloaded,
// rate-limited, per-attempt timeout), with exponential backoff between
// attempts. Non-transient failures and retry exhaustion surface the
// classified *ProviderError.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	if req.Timeout == 0 {
		req.Timeout = c.cfg.QuickTimeout
	}

	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := c.cfg.BackoffBase * (1 << (attempt - 2))
			c.log.Debugf("retrying provider call: attempt %d/%d after %s (%v)",
				attempt, c.cfg.MaxAttempts, delay, lastErr)
			if err := c.sleep(ctx, delay); err != nil {
				return "", err
			}
		}

		text, err := c.doRequest(ctx, req)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if !IsTransient(err) {
			return "", err
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}

	return "", lastErr
}

// doRequest performs a single bounded attempt.
func (c *Client) doRequest(ctx context.Context, req GenerateRequest) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()

	body := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: req.Prompt}}}},
	}
	if req.JSONResponse || req.Temperature != 0 || req.MaxTokens != 0 {
		gc := &geminiGenerationConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxTokens,
		}
		if req.JSONResponse {
			gc.ResponseMimeType = "application/json"
		}
		body.GenerationConfig = gc
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		strings.TrimSuffix(c.cfg.BaseURL, "/"), c.cfg.Model, c.cfg.APIKey)

	httpReq, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// A deadline on the attempt context counts as a transient timeout,
		// as long as the caller's context is still live.
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return "", &ProviderError{Kind: KindTimeout, err: err}
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &ProviderError{Kind: KindOther, err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", &ProviderError{Kind: KindOther, err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return "", classifyStatus(resp.StatusCode, data)
	}

	var envelope geminiResponse
	if err := json.Unmarshal(data, &envelope); err != nil {
		return "", &ProviderError{Kind: KindOther, err: fmt.Errorf("decode response: %w", err)}
	}

	if len(envelope.Candidates) == 0 || len(envelope.Candidates[0].Content.Parts) == 0 {
		return "", nil
	}
	return envelope.Candidates[0].Content.Parts[0].Text, nil
}

// classifyStatus maps a non-200 response to a ProviderError.
func classifyStatus(status int, body []byte) *ProviderError {
	var apiErr geminiErrorResponse
	_ = json.Unmarshal(body, &apiErr)

	pe := &ProviderError{Status: status, Message: apiErr.Error.Message}
	switch status {
	case http.StatusServiceUnavailable:
		pe.Kind = KindOverloaded
	case http.StatusTooManyRequests:
		pe.Kind = KindRateLimited
	default:
		pe.Kind = KindOther
	}
	return pe
}

// Chat sends a task-generation prompt and returns the raw response text.
// An empty candidate list is treated as an empty JSON object so the
// normalizer yields an empty batch rather than an error.
func (c *Client) Chat(ctx context.Context, prompt string) (string, error) {
	text, err := c.Generate(ctx, GenerateRequest{
		Prompt:       prompt,
		Timeout:      c.cfg.ChatTimeout,
		JSONResponse: true,
		Temperature:  0.7,
		MaxTokens:    4096,
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "{}", nil
	}
	return text, nil
}

var listNumberPattern = regexp.MustCompile(`^\d+[.)]\s*`)

// Suggest returns up to five related task titles for the input. Inputs
// shorter than three characters yield no suggestions. Results are cached
// per lowercased input for the configured TTL.
func (c *Client) Suggest(ctx context.Context, input string) ([]string, error) {
	input = strings.TrimSpace(input)
	if len(input) < 3 {
		return nil, nil
	}

	if cached, ok := c.cache.Get(input); ok {
		c.log.Debugf("suggestion cache hit for %q", input)
		return cached, nil
	}

	prompt := fmt.Sprintf("Suggest 5 related task names for: %q. Format as a numbered list.", input)
	text, err := c.Generate(ctx, GenerateRequest{Prompt: prompt, Timeout: c.cfg.QuickTimeout})
	if err != nil {
		return nil, err
	}

	suggestions := parseNumberedList(text)
	c.cache.Put(input, suggestions)
	return suggestions, nil
}

// parseNumberedList splits a numbered-list reply into clean titles.
func parseNumberedList(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(listNumberPattern.ReplaceAllString(strings.TrimSpace(line), ""))
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// DefaultDurationEstimate is used when the provider is unavailable.
const DefaultDurationEstimate = "2-3 hours"

// PredictDuration asks for a one-line completion-time estimate.
func (c *Client) PredictDuration(ctx context.Context, title, description string) (string, error) {
	prompt := fmt.Sprintf(
		"Estimate the time required to complete this task in hours and minutes (answer in one line only):\nTitle: %s\nDescription: %s",
		title, description)

	text, err := c.Generate(ctx, GenerateRequest{Prompt: prompt, Timeout: c.cfg.QuickTimeout})
	if err != nil {
		return "", err
	}

	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text), nil
}
