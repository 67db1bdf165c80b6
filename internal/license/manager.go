package license

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Vlad-tdk/LicenseCore/internal/hwid"
	"github.com/Vlad-tdk/LicenseCore/internal/signer"
	"github.com/Vlad-tdk/LicenseCore/internal/token"
)

// Wildcard is the hardware_hash value that matches any machine.
const Wildcard = token.Wildcard

// LicenseInfo is the decoded result of a validation, fully owned by the
// caller. Valid is false on the lenient failure path, with Failure naming
// the first check that failed.
type LicenseInfo struct {
	UserID       string    `json:"user_id"`
	LicenseID    string    `json:"license_id"`
	HardwareHash string    `json:"hardware_hash"`
	Features     []string  `json:"features"`
	IssuedAt     time.Time `json:"issued_at"`
	Expiry       time.Time `json:"expiry"`
	Version      uint32    `json:"version"`
	Valid        bool      `json:"valid"`
	Failure      Kind      `json:"failure,omitempty"`
}

// HasFeature reports whether the info grants the named feature.
func (i *LicenseInfo) HasFeature(name string) bool {
	for _, feature := range i.Features {
		if feature == name {
			return true
		}
	}
	return false
}

// Manager is the public facade: it composes the token codec, the MAC signer
// and the hardware fingerprint builder into load/validate/generate/feature
// operations.
//
// A Manager is not internally synchronized. LoadAndValidate must not run
// concurrently with another LoadAndValidate or with feature queries on the
// same Manager; the fingerprint builder behind it is the shared, internally
// synchronized resource. Several Managers may share one builder.
type Manager struct {
	signer   *signer.Signer
	hardware *hwid.Builder
	strict   bool
	current  *LicenseInfo

	logger  *slog.Logger
	metrics *Metrics
	now     func() time.Time
}

// Option configures a Manager at construction.
type Option func(*Manager)

// WithHardwareConfig builds the Manager's own fingerprint builder from cfg.
func WithHardwareConfig(cfg hwid.Config) Option {
	return func(m *Manager) { m.hardware = hwid.NewBuilder(cfg) }
}

// WithHardwareBuilder shares an existing fingerprint builder. Multi-tenant
// processes validating many licenses against one machine should share one
// builder so the probe cache is hit instead of recomputed per facade.
func WithHardwareBuilder(b *hwid.Builder) Option {
	return func(m *Manager) { m.hardware = b }
}

// WithStrictValidation selects strict mode: failures are returned as typed
// errors instead of a LicenseInfo with Valid set to false.
func WithStrictValidation(strict bool) Option {
	return func(m *Manager) { m.strict = strict }
}

// WithLogger attaches a structured logger for operation-boundary events.
// Without one the Manager stays silent.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithMetrics attaches OpenTelemetry instruments for facade operations.
func WithMetrics(metrics *Metrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

// NewManager creates a facade over the given MAC secret. The secret is held
// for the Manager's lifetime and never serialized.
func NewManager(secret []byte, opts ...Option) *Manager {
	m := &Manager{
		signer: signer.New(secret),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.hardware == nil {
		m.hardware = hwid.NewBuilder(hwid.DefaultConfig())
	}
	return m
}

// LoadAndValidate parses the token bytes and runs the full check sequence:
// structural, cryptographic, temporal, binding. Each check runs only when
// every earlier one passed. On success the returned info replaces the
// Manager's loaded-license state; on failure the state records the invalid
// load so feature queries stop answering for the previous license.
func (m *Manager) LoadAndValidate(ctx context.Context, tokenBytes []byte) (*LicenseInfo, error) {
	start := m.now()

	tok, err := token.Parse(tokenBytes)
	if err != nil {
		return m.fail(ctx, nil, KindStructural, err.Error(), err, start)
	}

	ok, err := m.signer.VerifyToken(tok)
	if err != nil {
		return m.fail(ctx, tok, KindCryptographic, "mac computation failed", err, start)
	}
	if !ok {
		return m.fail(ctx, tok, KindInvalidSignature, "", ErrInvalidSignature, start)
	}

	if m.now().UTC().After(tok.Expiry) {
		msg := fmt.Sprintf("expired %s", token.FormatTimestamp(tok.Expiry))
		return m.fail(ctx, tok, KindExpired, msg, ErrExpired, start)
	}

	if tok.HardwareHash != Wildcard {
		fingerprint, err := m.hardware.Fingerprint()
		if err != nil {
			return m.fail(ctx, tok, KindHardwareProbe, "hardware detection failed", err, start)
		}
		if fingerprint != tok.HardwareHash {
			msg := fmt.Sprintf("token bound to %s.., machine is %s..",
				abbreviate(tok.HardwareHash), abbreviate(fingerprint))
			return m.fail(ctx, tok, KindHardwareMismatch, msg, ErrHardwareMismatch, start)
		}
	}

	info := infoFromToken(tok, true, KindNone)
	m.current = info
	m.recordValidation(ctx, KindNone, start)
	m.logInfo(ctx, "license_validated", "license validated",
		slog.String("license_id", tok.LicenseID),
		slog.String("user_id", tok.UserID),
		slog.Int("features", len(tok.Features)),
	)

	result := *info
	result.Features = append([]string(nil), info.Features...)
	return &result, nil
}

// HasFeature reports whether the most recently loaded valid license grants
// the named feature. Before a successful load it returns false in lenient
// mode and a not-initialized error in strict mode.
func (m *Manager) HasFeature(name string) (bool, error) {
	current := m.current
	if current == nil || !current.Valid {
		if m.strict {
			return false, newValidationError(KindNotInitialized, "", ErrNotInitialized)
		}
		return false, nil
	}
	return current.HasFeature(name), nil
}

// RequireFeature fails with a typed error when the feature is absent or no
// valid license is loaded, regardless of mode.
func (m *Manager) RequireFeature(name string) error {
	current := m.current
	if current == nil || !current.Valid {
		return newValidationError(KindNotInitialized, "", ErrNotInitialized)
	}
	if !current.HasFeature(name) {
		return newValidationError(KindMissingFeature, name, ErrMissingFeature)
	}
	return nil
}

// Generate issues a signed token for info. Omitted fields get defaults:
// version 1, issued_at now, a random license id, wildcard hardware binding.
func (m *Manager) Generate(ctx context.Context, info LicenseInfo) ([]byte, error) {
	tok := &token.Token{
		UserID:       info.UserID,
		LicenseID:    info.LicenseID,
		HardwareHash: info.HardwareHash,
		Features:     info.Features,
		IssuedAt:     info.IssuedAt.UTC().Truncate(time.Second),
		Expiry:       info.Expiry.UTC().Truncate(time.Second),
		Version:      info.Version,
	}
	if tok.Version == 0 {
		tok.Version = token.Version1
	}
	if tok.IssuedAt.IsZero() {
		tok.IssuedAt = m.now().UTC().Truncate(time.Second)
	}
	if tok.LicenseID == "" {
		tok.LicenseID = uuid.NewString()
	}
	if tok.HardwareHash == "" {
		tok.HardwareHash = Wildcard
	}

	if err := checkIssuable(tok); err != nil {
		m.recordGeneration(ctx, false)
		return nil, err
	}

	mac, err := m.signer.SignToken(tok)
	if err != nil {
		m.recordGeneration(ctx, false)
		return nil, newValidationError(KindCryptographic, "signing failed", err)
	}
	tok.MAC = mac

	data, err := tok.Serialize()
	if err != nil {
		m.recordGeneration(ctx, false)
		return nil, newValidationError(KindStructural, "serialization failed", err)
	}

	m.recordGeneration(ctx, true)
	m.logInfo(ctx, "license_generated", "license generated",
		slog.String("license_id", tok.LicenseID),
		slog.String("user_id", tok.UserID),
		slog.String("expiry", token.FormatTimestamp(tok.Expiry)),
	)
	return data, nil
}

// CurrentHardwareID returns the machine fingerprint through the shared
// builder and its cache.
func (m *Manager) CurrentHardwareID(ctx context.Context) (string, error) {
	start := m.now()
	fingerprint, err := m.hardware.Fingerprint()
	m.recordFingerprint(ctx, start)
	if err != nil {
		return "", newValidationError(KindHardwareProbe, "hardware detection failed", err)
	}
	return fingerprint, nil
}

// SetHardwareConfig reconfigures the fingerprint builder. The builder's
// cache is invalidated because the attribute set determines the fingerprint.
func (m *Manager) SetHardwareConfig(cfg hwid.Config) {
	m.hardware.SetConfig(cfg)
}

// SetStrictValidation switches between strict and lenient failure surfacing.
func (m *Manager) SetStrictValidation(strict bool) {
	m.strict = strict
}

// HardwareBuilder exposes the fingerprint builder so tools and sibling
// facades can share it.
func (m *Manager) HardwareBuilder() *hwid.Builder {
	return m.hardware
}

// fail records the failed load, emits telemetry, and surfaces the failure in
// the configured mode: a typed error in strict mode, an invalid LicenseInfo
// in lenient mode.
func (m *Manager) fail(ctx context.Context, tok *token.Token, kind Kind, msg string, cause error, start time.Time) (*LicenseInfo, error) {
	info := infoFromToken(tok, false, kind)
	m.current = info
	m.recordValidation(ctx, kind, start)
	m.logWarn(ctx, "license_rejected", "license rejected",
		slog.String("failure_kind", string(kind)),
	)

	if m.strict {
		return nil, newValidationError(kind, msg, cause)
	}
	result := *info
	result.Features = append([]string(nil), info.Features...)
	return &result, nil
}

func infoFromToken(tok *token.Token, valid bool, failure Kind) *LicenseInfo {
	if tok == nil {
		return &LicenseInfo{Valid: valid, Failure: failure}
	}
	return &LicenseInfo{
		UserID:       tok.UserID,
		LicenseID:    tok.LicenseID,
		HardwareHash: tok.HardwareHash,
		Features:     append([]string(nil), tok.Features...),
		IssuedAt:     tok.IssuedAt,
		Expiry:       tok.Expiry,
		Version:      tok.Version,
		Valid:        valid,
		Failure:      failure,
	}
}

// checkIssuable enforces the invariants of a well-formed issued token before
// signing.
func checkIssuable(tok *token.Token) error {
	switch {
	case tok.UserID == "":
		return newValidationError(KindStructural, "user_id is required", token.ErrEmptyField)
	case tok.Expiry.IsZero():
		return newValidationError(KindStructural, "expiry is required", token.ErrMissingField)
	case tok.Expiry.Before(tok.IssuedAt):
		return newValidationError(KindStructural, "expiry precedes issued_at", token.ErrBadTimestamp)
	}
	for _, feature := range tok.Features {
		if feature == "" {
			return newValidationError(KindStructural, "features must be non-empty strings", token.ErrEmptyField)
		}
	}
	return nil
}

func abbreviate(fingerprint string) string {
	if len(fingerprint) <= 8 {
		return fingerprint
	}
	return fingerprint[:8]
}

// IsHardwareDetectionError reports whether err originated from the probe
// layer finding no usable attribute.
func IsHardwareDetectionError(err error) bool {
	var detectionErr *hwid.DetectionError
	return errors.As(err, &detectionErr)
}
