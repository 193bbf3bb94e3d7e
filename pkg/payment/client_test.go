package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc, timeout time.Duration, retries uint64) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewClient(ClientConfig{
		BaseURL:    srv.URL,
		KeyID:      "key_id",
		KeySecret:  "key_secret",
		Timeout:    timeout,
		MaxRetries: retries,
	})
	require.NoError(t, err)
	return c
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(ClientConfig{KeySecret: "s"})
	assert.Error(t, err)

	_, err = NewClient(ClientConfig{BaseURL: "http://gw", KeySecret: ""})
	assert.Error(t, err)

	_, err = NewClient(ClientConfig{BaseURL: "not a url", KeySecret: "s"})
	assert.Error(t, err)
}

func TestClient_FetchPayment_Captured(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "key_id", user)
		assert.Equal(t, "key_secret", pass)
		assert.Equal(t, "/payments/pay_1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"pay_1","order_id":"order_1","status":"captured","amount":29900,"currency":"inr","method":"upi"}`))
	}, time.Second, 0)

	p, err := c.FetchPayment(context.Background(), "pay_1")
	require.NoError(t, err)
	assert.Equal(t, "order_1", p.OrderID)
	assert.Equal(t, int64(29900), p.Amount)
	assert.Equal(t, "INR", p.Currency)
	assert.True(t, p.Settled())
}

func TestClient_FetchPayment_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}, time.Second, 2)

	_, err := c.FetchPayment(context.Background(), "pay_missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClient_FetchPayment_Credentials(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}, time.Second, 2)

	_, err := c.FetchPayment(context.Background(), "pay_1")
	assert.ErrorIs(t, err, ErrCredentials)
}

func TestClient_FetchPayment_ContractViolationFailsClosed(t *testing.T) {
	cases := map[string]string{
		"missing currency": `{"id":"pay_1","status":"captured","amount":100}`,
		"missing status":   `{"id":"pay_1","amount":100,"currency":"INR"}`,
		"unknown status":   `{"id":"pay_1","status":"mystery","amount":100,"currency":"INR"}`,
		"zero amount":      `{"id":"pay_1","status":"captured","amount":0,"currency":"INR"}`,
		"other payment":    `{"id":"pay_2","status":"captured","amount":100,"currency":"INR"}`,
		"not json":         `<html>`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(body))
			}, time.Second, 0)

			_, err := c.FetchPayment(context.Background(), "pay_1")
			assert.ErrorIs(t, err, ErrInvalidResponse)
		})
	}
}

func TestClient_FetchPayment_RetriesTransientFailures(t *testing.T) {
	var hits int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"id":"pay_1","status":"authorized","amount":100,"currency":"INR"}`))
	}, 5*time.Second, 3)

	p, err := c.FetchPayment(context.Background(), "pay_1")
	require.NoError(t, err)
	assert.Equal(t, StatusAuthorized, p.Status)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestClient_FetchPayment_TimeoutIsUnavailable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}, 100*time.Millisecond, 1)

	_, err := c.FetchPayment(context.Background(), "pay_1")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestClient_VerifySignature(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {}, time.Second, 0)
	sig := c.signer.Sign(SignaturePayload("order_1", "pay_1"))

	assert.True(t, c.VerifySignature("order_1", "pay_1", sig))
	assert.False(t, c.VerifySignature("order_1", "pay_2", sig))
	assert.False(t, c.VerifySignature("order_2", "pay_1", sig))
}
