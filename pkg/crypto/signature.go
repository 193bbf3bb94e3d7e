package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Signer computes and checks hex-encoded HMAC-SHA256 signatures with a shared secret.
type Signer struct {
	key []byte
}

// NewSigner creates a Signer. The secret must not be empty.
func NewSigner(secret string) (*Signer, error) {
	if secret == "" {
		return nil, fmt.Errorf("signing secret is required")
	}
	return &Signer{key: []byte(secret)}, nil
}

// Sign returns the lowercase hex HMAC-SHA256 of message.
func (s *Signer) Sign(message []byte) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write(message)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify compares signature against the expected HMAC of message in constant time.
// Hex case is ignored.
func (s *Signer) Verify(message []byte, signature string) bool {
	got, err := hex.DecodeString(strings.ToLower(strings.TrimSpace(signature)))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, s.key)
	mac.Write(message)
	return hmac.Equal(got, mac.Sum(nil))
}
