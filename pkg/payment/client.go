package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/creatorkit/backend/pkg/crypto"
	"github.com/go-playground/validator/v10"
)

// ClientConfig configures the HTTP gateway client.
type ClientConfig struct {
	BaseURL    string
	KeyID      string
	KeySecret  string
	Timeout    time.Duration // overall budget for one lookup, retries included
	MaxRetries uint64
	HTTPClient *http.Client
}

// Client talks to a Razorpay-style REST API: GET {base}/payments/{id} with basic auth.
// The key secret doubles as the checkout signing secret.
type Client struct {
	baseURL    string
	keyID      string
	keySecret  string
	timeout    time.Duration
	maxRetries uint64
	http       *http.Client
	signer     *crypto.Signer
	validate   *validator.Validate
}

// NewClient validates the configuration and builds a Client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("gateway base URL is required")
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid gateway base URL: %w", err)
	}
	signer, err := crypto.NewSigner(cfg.KeySecret)
	if err != nil {
		return nil, fmt.Errorf("gateway key secret: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		keyID:      cfg.KeyID,
		keySecret:  cfg.KeySecret,
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		http:       httpClient,
		signer:     signer,
		validate:   validator.New(),
	}, nil
}

func (c *Client) VerifySignature(orderID, paymentID, signature string) bool {
	return c.signer.Verify(SignaturePayload(orderID, paymentID), signature)
}

// FetchPayment looks a payment up, retrying transient failures with exponential backoff
// inside the configured timeout. Anything that leaves the state unknown is ErrUnavailable.
func (c *Client) FetchPayment(ctx context.Context, paymentID string) (*Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 200 * time.Millisecond
	policy.MaxInterval = 2 * time.Second
	policy.MaxElapsedTime = c.timeout

	var result *Payment
	op := func() error {
		p, err := c.fetchOnce(ctx, paymentID)
		if err != nil {
			if errors.Is(err, ErrUnavailable) {
				return err
			}
			return backoff.Permanent(err)
		}
		result = p
		return nil
	}

	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(policy, c.maxRetries), ctx))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidResponse),
			errors.Is(err, ErrCredentials), errors.Is(err, ErrUnavailable):
			return nil, err
		}
		// context deadline or cancellation while waiting between attempts
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return result, nil
}

func (c *Client) fetchOnce(ctx context.Context, paymentID string) (*Payment, error) {
	endpoint := c.baseURL + "/payments/" + url.PathEscape(paymentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrInvalidResponse, err)
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrCredentials
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d", ErrInvalidResponse, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}

	var p Payment
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if err := c.validate.Struct(&p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if p.ID != paymentID {
		return nil, fmt.Errorf("%w: payment id mismatch", ErrInvalidResponse)
	}
	p.Currency = strings.ToUpper(p.Currency)
	return &p, nil
}
