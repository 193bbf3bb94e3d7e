package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSigner_RequiresSecret(t *testing.T) {
	_, err := NewSigner("")
	require.Error(t, err)
}

func TestSigner_SignMatchesHMAC(t *testing.T) {
	s, err := NewSigner("top-secret")
	require.NoError(t, err)

	mac := hmac.New(sha256.New, []byte("top-secret"))
	mac.Write([]byte("order_1|pay_1"))
	want := hex.EncodeToString(mac.Sum(nil))

	assert.Equal(t, want, s.Sign([]byte("order_1|pay_1")))
}

func TestSigner_Verify(t *testing.T) {
	s, err := NewSigner("top-secret")
	require.NoError(t, err)
	msg := []byte("order_1|pay_1")
	sig := s.Sign(msg)

	assert.True(t, s.Verify(msg, sig))
	assert.True(t, s.Verify(msg, strings.ToUpper(sig)), "hex case is ignored")
	assert.False(t, s.Verify([]byte("order_1|pay_2"), sig))
	assert.False(t, s.Verify(msg, "deadbeef"))
	assert.False(t, s.Verify(msg, "not-hex"))
	assert.False(t, s.Verify(msg, ""))

	other, err := NewSigner("other-secret")
	require.NoError(t, err)
	assert.False(t, other.Verify(msg, sig))
}
