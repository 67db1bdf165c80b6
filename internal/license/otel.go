package license

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MeterName identifies this package's instruments.
const MeterName = "licensecore"

// Metrics holds the facade's OpenTelemetry instruments. All recording is
// nil-safe: a Manager without metrics skips it entirely.
type Metrics struct {
	ValidationAttempts  metric.Int64Counter
	ValidationSuccess   metric.Int64Counter
	ValidationFailures  metric.Int64Counter
	ValidationDuration  metric.Float64Histogram
	GenerationTotal     metric.Int64Counter
	GenerationFailures  metric.Int64Counter
	FingerprintDuration metric.Float64Histogram
}

// NewMetrics creates the facade instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.ValidationAttempts, err = meter.Int64Counter(
		"license_validation_attempts_total",
		metric.WithDescription("Total number of license validation attempts"),
	)
	if err != nil {
		return nil, fmt.Errorf("create validation attempts counter: %w", err)
	}

	m.ValidationSuccess, err = meter.Int64Counter(
		"license_validation_success_total",
		metric.WithDescription("Total number of successful license validations"),
	)
	if err != nil {
		return nil, fmt.Errorf("create validation success counter: %w", err)
	}

	m.ValidationFailures, err = meter.Int64Counter(
		"license_validation_failures_total",
		metric.WithDescription("Total number of failed license validations by failure kind"),
	)
	if err != nil {
		return nil, fmt.Errorf("create validation failures counter: %w", err)
	}

	m.ValidationDuration, err = meter.Float64Histogram(
		"license_validation_duration_seconds",
		metric.WithDescription("License validation duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create validation duration histogram: %w", err)
	}

	m.GenerationTotal, err = meter.Int64Counter(
		"license_generation_total",
		metric.WithDescription("Total number of license generation requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("create generation counter: %w", err)
	}

	m.GenerationFailures, err = meter.Int64Counter(
		"license_generation_failures_total",
		metric.WithDescription("Total number of failed license generations"),
	)
	if err != nil {
		return nil, fmt.Errorf("create generation failures counter: %w", err)
	}

	m.FingerprintDuration, err = meter.Float64Histogram(
		"license_fingerprint_duration_seconds",
		metric.WithDescription("Hardware fingerprint query duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create fingerprint duration histogram: %w", err)
	}

	return m, nil
}

func (m *Manager) recordValidation(ctx context.Context, kind Kind, start time.Time) {
	if m.metrics == nil {
		return
	}
	elapsed := m.now().Sub(start).Seconds()
	m.metrics.ValidationAttempts.Add(ctx, 1)
	m.metrics.ValidationDuration.Record(ctx, elapsed)
	if kind == KindNone {
		m.metrics.ValidationSuccess.Add(ctx, 1)
		return
	}
	m.metrics.ValidationFailures.Add(ctx, 1,
		metric.WithAttributes(attribute.String("failure_kind", string(kind))))
}

func (m *Manager) recordGeneration(ctx context.Context, success bool) {
	if m.metrics == nil {
		return
	}
	m.metrics.GenerationTotal.Add(ctx, 1)
	if !success {
		m.metrics.GenerationFailures.Add(ctx, 1)
	}
}

func (m *Manager) recordFingerprint(ctx context.Context, start time.Time) {
	if m.metrics == nil {
		return
	}
	m.metrics.FingerprintDuration.Record(ctx, m.now().Sub(start).Seconds())
}
