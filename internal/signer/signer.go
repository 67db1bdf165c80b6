// Package signer produces and verifies the keyed MAC protecting license
// tokens: HMAC-SHA256 rendered as 64 lowercase hex characters, compared in
// constant time.
package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/Vlad-tdk/LicenseCore/internal/token"
)

// MACLength is the hex length of every MAC this package emits.
const MACLength = token.MACLength

// ErrSignatureMismatch is returned by the fail-fast verify variants when the
// candidate MAC does not match the payload.
var ErrSignatureMismatch = errors.New("signature mismatch")

// Signer holds the secret key. The key is copied at construction and is
// never logged or serialized.
type Signer struct {
	key []byte
}

// New creates a signer over the given secret. Any byte string is a valid
// key, including an empty one.
func New(secret []byte) *Signer {
	key := make([]byte, len(secret))
	copy(key, secret)
	return &Signer{key: key}
}

// Sign computes the MAC over payload. Deterministic: the same payload and
// key always produce the same output.
func (s *Signer) Sign(payload []byte) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify recomputes the MAC over payload and compares it with the candidate
// in constant time. A candidate of the wrong length or with non-hex
// characters returns false, never an error.
func (s *Signer) Verify(payload []byte, candidate string) bool {
	if len(candidate) != MACLength {
		return false
	}
	candidateRaw, err := hex.DecodeString(candidate)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, s.key)
	mac.Write(payload)
	return hmac.Equal(mac.Sum(nil), candidateRaw)
}

// VerifyOrFail is Verify that reports a mismatch as ErrSignatureMismatch.
func (s *Signer) VerifyOrFail(payload []byte, candidate string) error {
	if !s.Verify(payload, candidate) {
		return ErrSignatureMismatch
	}
	return nil
}

// SignToken computes the MAC over the token's canonical bytes. The token's
// own MAC field is ignored.
func (s *Signer) SignToken(t *token.Token) (string, error) {
	payload, err := t.CanonicalBytes()
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return s.Sign(payload), nil
}

// VerifyToken rebuilds the canonical bytes from the parsed token and checks
// the token's MAC against them. The in-token MAC is trusted only as the
// candidate for the constant-time comparison.
func (s *Signer) VerifyToken(t *token.Token) (bool, error) {
	payload, err := t.CanonicalBytes()
	if err != nil {
		return false, fmt.Errorf("verify token: %w", err)
	}
	return s.Verify(payload, t.MAC), nil
}
