// Package generation calls the external AI generation backend for metered features.
package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Generator performs the paid work behind a metered feature.
type Generator interface {
	Generate(ctx context.Context, feature string, payload json.RawMessage) (json.RawMessage, error)
}

// Fallbacker is implemented by generators that can produce degraded content when Generate fails.
type Fallbacker interface {
	Fallback(feature string, payload json.RawMessage) json.RawMessage
}

// ErrUnavailable is returned when the backend cannot produce a result in time.
var ErrUnavailable = errors.New("generation backend unavailable")

// Client posts {feature, payload} to an HTTP endpoint and returns the JSON body.
type Client struct {
	endpoint string
	apiKey   string
	timeout  time.Duration
	http     *http.Client
}

// NewClient creates a Client. An empty endpoint yields a client that always fails over to Fallback.
func NewClient(endpoint, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		timeout:  timeout,
		http:     &http.Client{Timeout: timeout},
	}
}

type generateRequest struct {
	Feature string          `json:"feature"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func (c *Client) Generate(ctx context.Context, feature string, payload json.RawMessage) (json.RawMessage, error) {
	if c.endpoint == "" {
		return nil, fmt.Errorf("%w: no endpoint configured", ErrUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(generateRequest{Feature: feature, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("failed to encode generation request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build generation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	out, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}
	if !json.Valid(out) {
		return nil, fmt.Errorf("%w: response is not JSON", ErrUnavailable)
	}
	return out, nil
}

// Fallback returns a placeholder the client renders with its own templates.
func (c *Client) Fallback(feature string, _ json.RawMessage) json.RawMessage {
	out, _ := json.Marshal(map[string]interface{}{
		"feature":  feature,
		"template": true,
	})
	return out
}
