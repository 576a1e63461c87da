package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"docsummarizer/internal/config"
)

const (
	generatePath      = "/api/generate"
	maxErrorBodyBytes = 512
)

type generateOptions struct {
	NumThread   int     `json:"num_thread"`
	NumPredict  int     `json:"num_predict"`
	NumCtx      int     `json:"num_ctx"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

// Client calls the generate endpoint once per Summarize. It never retries.
type Client struct {
	cfg        config.SummarizerConfig
	endpoint   string
	httpClient *http.Client
	metrics    *Metrics
}

var _ Summarizer = (*Client)(nil)

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the traced default client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithMetrics records request outcomes and latency on m.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient builds a Client for cfg. The default HTTP client is bounded by cfg.Timeout
// and traced with otelhttp.
func NewClient(cfg config.SummarizerConfig, opts ...Option) *Client {
	c := &Client{
		cfg:      cfg,
		endpoint: strings.TrimRight(cfg.URL, "/") + generatePath,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Summarize sends the prompt for text and returns the trimmed model response.
// An empty response is not an error.
func (c *Client) Summarize(ctx context.Context, text string) (summary string, err error) {
	start := time.Now()
	defer func() { c.metrics.observe(err, time.Since(start)) }()

	payload, err := json.Marshal(generateRequest{
		Model:  c.cfg.Model,
		Prompt: BuildPrompt(text, c.cfg.MaxInputChars),
		Stream: false,
		Options: generateOptions{
			NumThread:   c.cfg.Threads,
			NumPredict:  c.cfg.NumPredict,
			NumCtx:      c.cfg.NumCtx,
			Temperature: c.cfg.Temperature,
			TopP:        c.cfg.TopP,
		},
	})
	if err != nil {
		return "", &InferenceError{Detail: "encode request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", &InferenceError{Detail: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &InferenceError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return "", &InferenceError{StatusCode: resp.StatusCode, Detail: errorDetail(body)}
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &InferenceError{StatusCode: resp.StatusCode, Detail: "decode response", Err: err}
	}
	if out.Error != "" {
		return "", &InferenceError{StatusCode: resp.StatusCode, Detail: out.Error}
	}
	return strings.TrimSpace(out.Response), nil
}

// errorDetail prefers the endpoint's {"error": "..."} message over the raw body.
func errorDetail(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(body))
}

// IsTimeout reports whether err came from the client or context deadline.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
