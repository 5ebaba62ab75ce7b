package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("notification-callback-secret")

func TestGenerateVerify_RoundTrip(t *testing.T) {
	tok, err := Generate("ad-uuid-1", "technology-computing", "cs-1", testSecret)
	require.NoError(t, err)

	claims, err := Verify(tok, testSecret, 0)
	require.NoError(t, err)
	assert.Equal(t, "ad-uuid-1", claims.AdUUID)
	assert.Equal(t, "technology-computing", claims.Category)
	assert.Equal(t, "cs-1", claims.CreativeSetID)
}

func TestVerify_RejectsWrongSecret(t *testing.T) {
	tok, err := Generate("ad-uuid-1", "technology-computing", "cs-1", testSecret)
	require.NoError(t, err)

	_, err = Verify(tok, []byte("wrong-secret"), 0)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestVerify_RejectsMalformedToken(t *testing.T) {
	_, err := Verify("not-a-token", testSecret, 0)
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = Verify("a.b.c", testSecret, 0)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestVerify_RejectsTamperedSignature(t *testing.T) {
	tok, err := Generate("ad-uuid-1", "technology-computing", "cs-1", testSecret)
	require.NoError(t, err)

	tampered := tok[:len(tok)-4] + "abcd"
	_, err = Verify(tampered, testSecret, 0)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestVerify_ExpiredToken(t *testing.T) {
	tok, err := Generate("ad-uuid-1", "technology-computing", "cs-1", testSecret)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	_, err = Verify(tok, testSecret, 5*time.Millisecond)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestVerify_TTLZeroNeverExpires(t *testing.T) {
	tok, err := Generate("ad-uuid-1", "technology-computing", "cs-1", testSecret)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	_, err = Verify(tok, testSecret, 0)
	assert.NoError(t, err)
}
