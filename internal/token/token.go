// Package token defines the license token, its structural validation, and
// the canonical serialization the signature is computed over.
//
// The canonical form is the single source of truth for the signed bytes: a
// compact JSON object with fields in the fixed order user_id, license_id,
// hardware_hash, features, issued_at, expiry, version. Verification always
// rebuilds those bytes from the parsed token, never from the input text, so
// whitespace, field ordering and redundant escaping on the wire cannot
// change a verdict.
package token

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	// Version1 is the only schema version currently issued.
	Version1 uint32 = 1

	// Wildcard is the hardware_hash value that matches any machine.
	Wildcard = "*"

	// MACLength is the number of hex characters in a well-formed MAC field.
	MACLength = 64

	// TimeLayout is the canonical timestamp rendering: UTC, second
	// precision, trailing Z.
	TimeLayout = "2006-01-02T15:04:05Z"
)

// Structural failure reasons. Each is a distinct sentinel so callers can
// tell a missing field from a malformed one; the facade recodes all of them
// into its structural failure kind.
var (
	ErrMalformed    = errors.New("token does not parse")
	ErrMissingField = errors.New("required field missing")
	ErrWrongType    = errors.New("field has wrong type")
	ErrBadTimestamp = errors.New("malformed timestamp")
	ErrBadVersion   = errors.New("unsupported token version")
	ErrBadMAC       = errors.New("malformed mac")
	ErrEmptyField   = errors.New("field must not be empty")
)

// Token is the parsed license token. Features preserve wire order and
// duplicates; equality of two tokens is field-wise, with features compared
// as ordered sequences.
type Token struct {
	UserID       string    `json:"user_id" validate:"required"`
	LicenseID    string    `json:"license_id" validate:"required"`
	HardwareHash string    `json:"hardware_hash"`
	Features     []string  `json:"features" validate:"dive,required"`
	IssuedAt     time.Time `json:"issued_at"`
	Expiry       time.Time `json:"expiry"`
	Version      uint32    `json:"version"`
	MAC          string    `json:"mac" validate:"omitempty,len=64,hexadecimal,lowercase"`
}

// canonicalToken fixes the field order of the signed bytes. encoding/json
// emits struct fields in declaration order, which makes this declaration the
// wire contract.
type canonicalToken struct {
	UserID       string   `json:"user_id"`
	LicenseID    string   `json:"license_id"`
	HardwareHash string   `json:"hardware_hash"`
	Features     []string `json:"features"`
	IssuedAt     string   `json:"issued_at"`
	Expiry       string   `json:"expiry"`
	Version      uint32   `json:"version"`
}

// signedToken appends the mac field after the canonical fields for issuance.
type signedToken struct {
	canonicalToken
	MAC string `json:"mac"`
}

// wireToken accepts any JSON layout. Pointer fields distinguish a missing
// field from a present-but-zero one.
type wireToken struct {
	UserID       *string   `json:"user_id"`
	LicenseID    *string   `json:"license_id"`
	HardwareHash *string   `json:"hardware_hash"`
	Features     *[]string `json:"features"`
	IssuedAt     *string   `json:"issued_at"`
	Expiry       *string   `json:"expiry"`
	Version      *uint32   `json:"version"`
	MAC          *string   `json:"mac"`
}

var validate = validator.New()

// FormatTimestamp renders t in the canonical layout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTimestamp accepts any RFC 3339 timestamp and normalizes it to UTC at
// second precision. Offsets and fractional seconds are tolerated on input;
// the canonical form always re-renders with a trailing Z.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrBadTimestamp, s)
	}
	return t.UTC().Truncate(time.Second), nil
}

// Parse decodes token bytes in any well-formed JSON layout, checks structure,
// and returns the logical token. Unknown fields are ignored and do not
// participate in the canonical form.
func Parse(data []byte) (*Token, error) {
	var wire wireToken
	if err := json.Unmarshal(data, &wire); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, fmt.Errorf("%w: field %q", ErrWrongType, typeErr.Field)
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	required := []struct {
		name    string
		present bool
	}{
		{"user_id", wire.UserID != nil},
		{"license_id", wire.LicenseID != nil},
		{"hardware_hash", wire.HardwareHash != nil},
		{"features", wire.Features != nil},
		{"issued_at", wire.IssuedAt != nil},
		{"expiry", wire.Expiry != nil},
		{"version", wire.Version != nil},
		{"mac", wire.MAC != nil},
	}
	for _, field := range required {
		if !field.present {
			return nil, fmt.Errorf("%w: %s", ErrMissingField, field.name)
		}
	}

	issuedAt, err := ParseTimestamp(*wire.IssuedAt)
	if err != nil {
		return nil, fmt.Errorf("issued_at: %w", err)
	}
	expiry, err := ParseTimestamp(*wire.Expiry)
	if err != nil {
		return nil, fmt.Errorf("expiry: %w", err)
	}

	tok := &Token{
		UserID:       *wire.UserID,
		LicenseID:    *wire.LicenseID,
		HardwareHash: *wire.HardwareHash,
		Features:     *wire.Features,
		IssuedAt:     issuedAt,
		Expiry:       expiry,
		Version:      *wire.Version,
		MAC:          strings.ToLower(*wire.MAC),
	}
	if err := tok.checkStructure(); err != nil {
		return nil, err
	}
	return tok, nil
}

// checkStructure enforces the field rules of a well-formed token.
func (t *Token) checkStructure() error {
	if t.Version != Version1 {
		return fmt.Errorf("%w: %d", ErrBadVersion, t.Version)
	}
	if err := validate.Struct(t); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			first := fieldErrs[0]
			if first.Field() == "MAC" {
				return fmt.Errorf("%w: %s constraint failed", ErrBadMAC, first.Tag())
			}
			return fmt.Errorf("%w: %s", ErrEmptyField, first.Field())
		}
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(t.MAC) != MACLength {
		return fmt.Errorf("%w: length %d", ErrBadMAC, len(t.MAC))
	}
	return nil
}

// CanonicalBytes returns the exact bytes the MAC covers: the canonical JSON
// encoding of every field except mac.
func (t *Token) CanonicalBytes() ([]byte, error) {
	data, err := json.Marshal(t.canonical())
	if err != nil {
		return nil, fmt.Errorf("canonical encoding: %w", err)
	}
	return data, nil
}

// Serialize emits the token for transport: the canonical fields followed by
// the mac field. The MAC must already be set.
func (t *Token) Serialize() ([]byte, error) {
	if len(t.MAC) != MACLength {
		return nil, fmt.Errorf("%w: length %d", ErrBadMAC, len(t.MAC))
	}
	data, err := json.Marshal(signedToken{canonicalToken: t.canonical(), MAC: t.MAC})
	if err != nil {
		return nil, fmt.Errorf("token encoding: %w", err)
	}
	return data, nil
}

func (t *Token) canonical() canonicalToken {
	features := t.Features
	if features == nil {
		features = []string{}
	}
	return canonicalToken{
		UserID:       t.UserID,
		LicenseID:    t.LicenseID,
		HardwareHash: t.HardwareHash,
		Features:     features,
		IssuedAt:     FormatTimestamp(t.IssuedAt),
		Expiry:       FormatTimestamp(t.Expiry),
		Version:      t.Version,
	}
}

// HasFeature reports whether the feature list contains name.
func (t *Token) HasFeature(name string) bool {
	for _, feature := range t.Features {
		if feature == name {
			return true
		}
	}
	return false
}

// Equal compares two tokens field-wise. Feature order is significant.
func (t *Token) Equal(other *Token) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.UserID != other.UserID ||
		t.LicenseID != other.LicenseID ||
		t.HardwareHash != other.HardwareHash ||
		!t.IssuedAt.Equal(other.IssuedAt) ||
		!t.Expiry.Equal(other.Expiry) ||
		t.Version != other.Version ||
		t.MAC != other.MAC {
		return false
	}
	if len(t.Features) != len(other.Features) {
		return false
	}
	for i := range t.Features {
		if t.Features[i] != other.Features[i] {
			return false
		}
	}
	return true
}
