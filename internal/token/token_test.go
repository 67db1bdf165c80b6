package token

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleToken() *Token {
	return &Token{
		UserID:       "user-1",
		LicenseID:    "lic-42",
		HardwareHash: Wildcard,
		Features:     []string{"analytics", "export"},
		IssuedAt:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Expiry:       time.Date(2099, 12, 31, 23, 59, 59, 0, time.UTC),
		Version:      Version1,
		MAC:          strings.Repeat("ab", 32),
	}
}

func TestCanonicalBytesExact(t *testing.T) {
	tok := sampleToken()

	data, err := tok.CanonicalBytes()
	require.NoError(t, err)

	expected := `{"user_id":"user-1","license_id":"lic-42","hardware_hash":"*",` +
		`"features":["analytics","export"],"issued_at":"2024-01-01T00:00:00Z",` +
		`"expiry":"2099-12-31T23:59:59Z","version":1}`
	assert.Equal(t, expected, string(data))
}

func TestCanonicalBytesIgnoreMAC(t *testing.T) {
	tok := sampleToken()
	withMAC, err := tok.CanonicalBytes()
	require.NoError(t, err)

	tok.MAC = ""
	withoutMAC, err := tok.CanonicalBytes()
	require.NoError(t, err)

	assert.Equal(t, withMAC, withoutMAC)
}

func TestCanonicalBytesNilFeatures(t *testing.T) {
	tok := sampleToken()
	tok.Features = nil

	data, err := tok.CanonicalBytes()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"features":[]`, "nil features must render as an empty array, not null")
}

func TestSerializeParseRoundTrip(t *testing.T) {
	tok := sampleToken()

	data, err := tok.Serialize()
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(data), fmt.Sprintf(`"mac":%q}`, tok.MAC)),
		"mac must be the last field")

	parsed, err := Parse(data)
	require.NoError(t, err)
	assert.True(t, tok.Equal(parsed), "round trip must preserve every field")
}

func TestParseLayoutIndependence(t *testing.T) {
	tok := sampleToken()
	canonical, err := tok.Serialize()
	require.NoError(t, err)

	reordered := `{
		"mac": "` + tok.MAC + `",
		"version": 1,
		"expiry": "2099-12-31T23:59:59Z",
		"features": ["analytics", "export"],
		"hardware_hash": "*",
		"issued_at": "2024-01-01T00:00:00Z",
		"license_id": "lic-42",
		"user_id": "user-1"
	}`

	fromCanonical, err := Parse(canonical)
	require.NoError(t, err)
	fromReordered, err := Parse([]byte(reordered))
	require.NoError(t, err)

	assert.True(t, fromCanonical.Equal(fromReordered))

	canonA, err := fromCanonical.CanonicalBytes()
	require.NoError(t, err)
	canonB, err := fromReordered.CanonicalBytes()
	require.NoError(t, err)
	assert.Equal(t, canonA, canonB, "canonical bytes must not depend on wire layout")
}

func TestParseUnknownFieldsIgnored(t *testing.T) {
	tok := sampleToken()
	data, err := tok.Serialize()
	require.NoError(t, err)

	extended := strings.TrimSuffix(string(data), "}") + `,"vendor_note":"hi","retries":3}`
	parsed, err := Parse([]byte(extended))
	require.NoError(t, err)
	assert.True(t, tok.Equal(parsed))
}

func TestParseOffsetTimestampNormalized(t *testing.T) {
	tok := sampleToken()
	data, err := tok.Serialize()
	require.NoError(t, err)

	// The same instant rendered with an explicit offset.
	shifted := strings.Replace(string(data), `"issued_at":"2024-01-01T00:00:00Z"`,
		`"issued_at":"2024-01-01T01:00:00+01:00"`, 1)
	parsed, err := Parse([]byte(shifted))
	require.NoError(t, err)

	assert.True(t, parsed.IssuedAt.Equal(tok.IssuedAt))
	canon, err := parsed.CanonicalBytes()
	require.NoError(t, err)
	assert.Contains(t, string(canon), `"issued_at":"2024-01-01T00:00:00Z"`)
}

func TestParseStructuralFailures(t *testing.T) {
	base := sampleToken()

	tests := []struct {
		name    string
		mutate  func(string) string
		wantErr error
	}{
		{
			name:    "not json",
			mutate:  func(string) string { return "not a token" },
			wantErr: ErrMalformed,
		},
		{
			name:    "missing user_id",
			mutate:  func(s string) string { return strings.Replace(s, `"user_id":"user-1",`, "", 1) },
			wantErr: ErrMissingField,
		},
		{
			name:    "missing mac",
			mutate:  func(s string) string { return strings.Replace(s, `,"mac":"`+base.MAC+`"`, "", 1) },
			wantErr: ErrMissingField,
		},
		{
			name:    "version as string",
			mutate:  func(s string) string { return strings.Replace(s, `"version":1`, `"version":"1"`, 1) },
			wantErr: ErrWrongType,
		},
		{
			name:    "features as string",
			mutate:  func(s string) string { return strings.Replace(s, `["analytics","export"]`, `"analytics"`, 1) },
			wantErr: ErrWrongType,
		},
		{
			name:    "bad expiry",
			mutate:  func(s string) string { return strings.Replace(s, "2099-12-31T23:59:59Z", "not-a-date", 1) },
			wantErr: ErrBadTimestamp,
		},
		{
			name:    "unknown version",
			mutate:  func(s string) string { return strings.Replace(s, `"version":1`, `"version":2`, 1) },
			wantErr: ErrBadVersion,
		},
		{
			name:    "mac too short",
			mutate:  func(s string) string { return strings.Replace(s, base.MAC, base.MAC[:40], 1) },
			wantErr: ErrBadMAC,
		},
		{
			name:    "mac non-hex",
			mutate:  func(s string) string { return strings.Replace(s, base.MAC, strings.Repeat("zx", 32), 1) },
			wantErr: ErrBadMAC,
		},
		{
			name:    "empty user_id",
			mutate:  func(s string) string { return strings.Replace(s, `"user_id":"user-1"`, `"user_id":""`, 1) },
			wantErr: ErrEmptyField,
		},
		{
			name:    "empty feature entry",
			mutate:  func(s string) string { return strings.Replace(s, `["analytics","export"]`, `["analytics",""]`, 1) },
			wantErr: ErrEmptyField,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := base.Serialize()
			require.NoError(t, err)

			_, err = Parse([]byte(tt.mutate(string(data))))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParsePreservesFeatureOrderAndDuplicates(t *testing.T) {
	tok := sampleToken()
	tok.Features = []string{"b", "a", "b"}
	data, err := tok.Serialize()
	require.NoError(t, err)

	parsed, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "b"}, parsed.Features)
}

func TestParseUppercaseMACNormalized(t *testing.T) {
	tok := sampleToken()
	data, err := tok.Serialize()
	require.NoError(t, err)

	upper := strings.Replace(string(data), tok.MAC, strings.ToUpper(tok.MAC), 1)
	parsed, err := Parse([]byte(upper))
	require.NoError(t, err)
	assert.Equal(t, tok.MAC, parsed.MAC)
}

func TestTimestampHelpers(t *testing.T) {
	t.Run("format is second precision utc", func(t *testing.T) {
		instant := time.Date(2024, 6, 15, 10, 30, 45, 999_999_999, time.FixedZone("X", 3600))
		assert.Equal(t, "2024-06-15T09:30:45Z", FormatTimestamp(instant))
	})

	t.Run("parse rejects garbage", func(t *testing.T) {
		_, err := ParseTimestamp("yesterday")
		assert.ErrorIs(t, err, ErrBadTimestamp)
	})

	t.Run("fractional seconds truncated", func(t *testing.T) {
		parsed, err := ParseTimestamp("2024-06-15T09:30:45.123Z")
		require.NoError(t, err)
		assert.Equal(t, "2024-06-15T09:30:45Z", FormatTimestamp(parsed))
	})
}

func TestHasFeature(t *testing.T) {
	tok := sampleToken()
	assert.True(t, tok.HasFeature("analytics"))
	assert.False(t, tok.HasFeature("premium"))
	assert.False(t, tok.HasFeature(""))
}

func TestEqualFeatureOrderSignificant(t *testing.T) {
	a := sampleToken()
	b := sampleToken()
	b.Features = []string{"export", "analytics"}
	assert.False(t, a.Equal(b))
}
