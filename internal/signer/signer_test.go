package signer

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vlad-tdk/LicenseCore/internal/token"
)

func TestSignDeterministic(t *testing.T) {
	s := New([]byte("secret"))

	first := s.Sign([]byte("payload"))
	second := s.Sign([]byte("payload"))

	assert.Equal(t, first, second)
	assert.Len(t, first, MACLength)
	assert.Equal(t, strings.ToLower(first), first, "MAC must be lowercase hex")
}

func TestSignVerifyRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		payload string
	}{
		{"simple", "s", "hello"},
		{"empty payload", "key", ""},
		{"empty secret", "", "payload"},
		{"binary-ish payload", "key", "\x00\x01\xff"},
		{"long payload", "key", strings.Repeat("x", 1<<16)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New([]byte(tt.secret))
			mac := s.Sign([]byte(tt.payload))
			assert.True(t, s.Verify([]byte(tt.payload), mac))
		})
	}
}

func TestVerifyRejectsOtherPayload(t *testing.T) {
	s := New([]byte("k"))
	mac := s.Sign([]byte("p"))

	assert.False(t, s.Verify([]byte("q"), mac))
	assert.False(t, s.Verify([]byte("p "), mac))
	assert.False(t, s.Verify([]byte(""), mac))
}

func TestVerifyRejectsOtherKey(t *testing.T) {
	payload := []byte("payload")
	mac := New([]byte("alpha")).Sign(payload)

	assert.False(t, New([]byte("beta")).Verify(payload, mac))
}

func TestVerifyMalformedCandidate(t *testing.T) {
	s := New([]byte("k"))
	payload := []byte("p")
	good := s.Sign(payload)

	tests := []struct {
		name      string
		candidate string
	}{
		{"empty", ""},
		{"too short", good[:63]},
		{"too long", good + "0"},
		{"non-hex characters", strings.Repeat("zz", 32)},
		{"whitespace tail", good[:63] + " "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, s.Verify(payload, tt.candidate))
		})
	}
}

func TestVerifySingleByteDifference(t *testing.T) {
	s := New([]byte("k"))
	payload := []byte("p")
	mac := s.Sign(payload)

	// Flip the last nibble.
	replacement := "0"
	if mac[len(mac)-1] == '0' {
		replacement = "1"
	}
	tampered := mac[:len(mac)-1] + replacement

	assert.False(t, s.Verify(payload, tampered))
}

func TestVerifyOrFail(t *testing.T) {
	s := New([]byte("k"))
	payload := []byte("p")
	mac := s.Sign(payload)

	require.NoError(t, s.VerifyOrFail(payload, mac))
	assert.ErrorIs(t, s.VerifyOrFail([]byte("other"), mac), ErrSignatureMismatch)
}

func TestKeyIsCopied(t *testing.T) {
	secret := []byte("mutable")
	s := New(secret)
	mac := s.Sign([]byte("p"))

	secret[0] = 'X'
	assert.Equal(t, mac, s.Sign([]byte("p")), "mutating the caller's secret must not affect the signer")
}

func TestTokenHelpers(t *testing.T) {
	s := New([]byte("secret"))
	tok := &token.Token{
		UserID:       "u",
		LicenseID:    "l",
		HardwareHash: token.Wildcard,
		Features:     []string{"a", "b"},
		IssuedAt:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Expiry:       time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC),
		Version:      token.Version1,
	}

	mac, err := s.SignToken(tok)
	require.NoError(t, err)
	tok.MAC = mac

	ok, err := s.VerifyToken(tok)
	require.NoError(t, err)
	assert.True(t, ok)

	t.Run("any field change invalidates", func(t *testing.T) {
		tampered := *tok
		tampered.UserID = "v"
		ok, err := s.VerifyToken(&tampered)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("feature reorder invalidates", func(t *testing.T) {
		tampered := *tok
		tampered.Features = []string{"b", "a"}
		ok, err := s.VerifyToken(&tampered)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("in-token mac is only a candidate", func(t *testing.T) {
		tampered := *tok
		tampered.MAC = strings.Repeat("0", MACLength)
		ok, err := s.VerifyToken(&tampered)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
