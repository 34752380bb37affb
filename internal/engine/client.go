package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"propgen/internal/config"
	"propgen/internal/model"
)

// Client is the HTTP implementation of Generator.
type Client struct {
	baseURL string
	http    *http.Client
}

var _ Generator = (*Client)(nil)

// NewClient constructs an engine client with a bounded request timeout and
// an otel-instrumented transport.
func NewClient(cfg config.EngineConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("engine base url is required")
	}
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if cfg.TimeoutSec < 1 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}, nil
}

func (c *Client) Generate(ctx context.Context, jobID string, req GenerateRequest) (*GenerateResponse, error) {
	return c.post(ctx, fmt.Sprintf("%s/jobs/%s/generate", c.baseURL, jobID), req)
}

func (c *Client) Regenerate(ctx context.Context, jobID string, req GenerateRequest) (*GenerateResponse, error) {
	return c.post(ctx, fmt.Sprintf("%s/jobs/%s/regenerate", c.baseURL, jobID), req)
}

func (c *Client) post(ctx context.Context, url string, payload GenerateRequest) (*GenerateResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &model.GenerationError{Err: fmt.Errorf("encode request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &model.GenerationError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, &model.TimeoutError{Op: "generation request", Err: err}
		}
		return nil, &model.GenerationError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &model.GenerationError{Status: resp.StatusCode}
	}

	var out GenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &model.GenerationError{Err: fmt.Errorf("decode response: %w", err)}
	}
	return &out, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}
