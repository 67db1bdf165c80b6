// Package domain holds the wire contracts shared between the demo server
// and its clients. The canonical token format itself lives in the core; the
// types here are the request/response envelope around it.
package domain

import "time"

// ValidateRequest carries a license token for validation. The token is the
// raw serialized form; the server re-canonicalizes before checking the MAC.
type ValidateRequest struct {
	Token string `json:"token" validate:"required"`
}

// LicenseView is the decoded license returned to clients.
type LicenseView struct {
	UserID       string    `json:"user_id"`
	LicenseID    string    `json:"license_id"`
	HardwareHash string    `json:"hardware_hash"`
	Features     []string  `json:"features"`
	IssuedAt     time.Time `json:"issued_at"`
	Expiry       time.Time `json:"expiry"`
	Version      uint32    `json:"version"`
}

// ValidateResponse reports the validation verdict. Failure is empty on a
// valid license, otherwise one of the facade failure kinds.
type ValidateResponse struct {
	Valid   bool         `json:"valid"`
	Failure string       `json:"failure,omitempty"`
	License *LicenseView `json:"license,omitempty"`
}

// HardwareIDResponse reports the machine fingerprint and, optionally, the
// per-attribute values behind it.
type HardwareIDResponse struct {
	HardwareID string            `json:"hardware_id"`
	Components map[string]string `json:"components,omitempty"`
}

// FeatureResponse reports whether the most recently validated license on
// the server grants a feature.
type FeatureResponse struct {
	Feature string `json:"feature"`
	Enabled bool   `json:"enabled"`
}
