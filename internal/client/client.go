// Package client is the mobile-facing REST boundary of the exam session
// engine: it loads random question sets and submits finished answer sets
// against the training API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/appsarion/training-service/internal/models"
)

// APIError is a non-2xx response. The body text is kept verbatim so the
// server-provided message can be surfaced to the user.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Body)
}

// ServerMessage returns the raw response body.
func (e *APIError) ServerMessage() string {
	return e.Body
}

// Client talks to the training API. It satisfies session.QuestionSource and
// session.EvaluationSubmitter.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithLogger overrides the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New builds a Client for the given base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchRandom loads n randomized questions.
func (c *Client) FetchRandom(ctx context.Context, n int) ([]models.Question, error) {
	url := fmt.Sprintf("%s/questions/random/%d", c.baseURL, n)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build questions request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("questions request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read questions response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var questions []models.Question
	if err := json.Unmarshal(body, &questions); err != nil {
		return nil, fmt.Errorf("failed to decode questions response: %w", err)
	}

	c.logger.Debug("fetched random questions", "requested", n, "received", len(questions))
	return questions, nil
}

// Evaluate submits the answer set and returns the graded evaluation.
func (c *Client) Evaluate(ctx context.Context, payload models.EvaluateRequest) (*models.EvaluationResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode evaluate payload: %w", err)
	}

	url := c.baseURL + "/evaluations/evaluate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build evaluate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("evaluate request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read evaluate response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	var evaluation models.EvaluationResponse
	if err := json.Unmarshal(respBody, &evaluation); err != nil {
		return nil, fmt.Errorf("failed to decode evaluate response: %w", err)
	}

	c.logger.Debug("evaluation submitted", "evaluation_id", evaluation.ID, "status", evaluation.Status)
	return &evaluation, nil
}
