package hwid

import (
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/errgroup"
)

// FingerprintLength is the number of hex characters in a combined fingerprint.
const FingerprintLength = 32

// Stats is a snapshot of the builder's cache counters. Hits plus Misses
// equals the number of cached queries served since construction.
type Stats struct {
	Hits       uint64    `json:"hits"`
	Misses     uint64    `json:"misses"`
	LastUpdate time.Time `json:"last_update"`
}

// Builder produces the combined hardware fingerprint and the per-attribute
// values behind it. One builder is meant to back any number of license
// checks; when ThreadSafeCache is set the cache mutex is held across both
// the freshness check and the recomputation, so concurrent callers trigger
// at most one probe run per TTL window.
//
// With ThreadSafeCache off the builder must only be used from a single
// goroutine. That precondition is documented, not checked.
type Builder struct {
	mu  sync.Mutex
	cfg Config

	fingerprint string
	components  map[Attribute]string
	lastRefresh time.Time
	hasValue    bool
	stats       Stats

	now    func() time.Time
	probes map[Attribute]probeFunc
}

// NewBuilder creates a builder with an empty cache.
func NewBuilder(cfg Config) *Builder {
	return &Builder{
		cfg: cfg,
		now: time.Now,
		probes: map[Attribute]probeFunc{
			AttrCPUID:             probeCPUID,
			AttrMACAddress:        probeMACAddress,
			AttrVolumeSerial:      probeVolumeSerial,
			AttrMotherboardSerial: probeMotherboardSerial,
		},
	}
}

// lock acquires the cache mutex when thread-safe caching is configured and
// returns the matching release. Single-threaded builders skip the mutex
// entirely.
func (b *Builder) lock() func() {
	if !b.cfg.ThreadSafeCache {
		return func() {}
	}
	b.mu.Lock()
	return b.mu.Unlock
}

// Fingerprint returns the combined fingerprint for the current machine,
// served from cache while fresh.
func (b *Builder) Fingerprint() (string, error) {
	unlock := b.lock()
	defer unlock()

	if !b.cfg.EnableCaching {
		fp, _, err := b.recompute()
		return fp, err
	}

	if b.freshLocked() {
		b.stats.Hits++
		return b.fingerprint, nil
	}

	b.stats.Misses++
	fp, components, err := b.recompute()
	if err != nil {
		return "", err
	}
	b.storeLocked(fp, components)
	return fp, nil
}

// Components returns the per-attribute values of the enabled probes, cached
// under the same timestamp as the combined fingerprint.
func (b *Builder) Components() (map[Attribute]string, error) {
	unlock := b.lock()
	defer unlock()

	if !b.cfg.EnableCaching {
		_, components, err := b.recompute()
		return components, err
	}

	if b.freshLocked() {
		b.stats.Hits++
		return copyComponents(b.components), nil
	}

	b.stats.Misses++
	fp, components, err := b.recompute()
	if err != nil {
		return nil, err
	}
	b.storeLocked(fp, components)
	return copyComponents(components), nil
}

// Stats returns a snapshot of the cache counters.
func (b *Builder) Stats() Stats {
	unlock := b.lock()
	defer unlock()
	return b.stats
}

// IsValid reports whether a cached value is present and within TTL.
func (b *Builder) IsValid() bool {
	unlock := b.lock()
	defer unlock()
	return b.freshLocked()
}

// Invalidate drops any cached values. Counters survive invalidation.
func (b *Builder) Invalidate() {
	unlock := b.lock()
	defer unlock()
	b.clearLocked()
}

// SetConfig replaces the builder configuration and invalidates the cache,
// since the attribute set determines the fingerprint.
func (b *Builder) SetConfig(cfg Config) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cfg = cfg
	b.clearLocked()
}

// Config returns the active configuration.
func (b *Builder) Config() Config {
	unlock := b.lock()
	defer unlock()
	return b.cfg
}

func (b *Builder) freshLocked() bool {
	return b.hasValue && b.now().Sub(b.lastRefresh) <= b.cfg.CacheTTL
}

func (b *Builder) storeLocked(fp string, components map[Attribute]string) {
	b.fingerprint = fp
	b.components = components
	b.lastRefresh = b.now()
	b.hasValue = true
	b.stats.LastUpdate = b.lastRefresh
}

func (b *Builder) clearLocked() {
	b.fingerprint = ""
	b.components = nil
	b.lastRefresh = time.Time{}
	b.hasValue = false
}

// recompute runs every enabled probe concurrently and joins the results in
// the fixed attribute order. Callers hold the cache lock when thread-safe
// caching is on, so at most one recomputation runs per builder.
func (b *Builder) recompute() (string, map[Attribute]string, error) {
	enabled := b.cfg.enabledAttributes()
	values := make([]string, len(enabled))
	probeErrs := make([]error, len(enabled))

	g := new(errgroup.Group)
	for i, attr := range enabled {
		probe := b.probes[attr]
		g.Go(func() error {
			values[i], probeErrs[i] = probe()
			return nil
		})
	}
	_ = g.Wait()

	components := make(map[Attribute]string, len(enabled))
	anyData := false
	var failures []error
	for i, attr := range enabled {
		components[attr] = values[i]
		if values[i] != "" {
			anyData = true
		}
		if probeErrs[i] != nil {
			failures = append(failures, probeErrs[i])
		}
	}

	if !anyData && len(failures) > 0 {
		return "", nil, &DetectionError{Probes: failures}
	}

	sum := blake2b.Sum256([]byte(strings.Join(values, "|")))
	return hex.EncodeToString(sum[:])[:FingerprintLength], components, nil
}

func copyComponents(components map[Attribute]string) map[Attribute]string {
	out := make(map[Attribute]string, len(components))
	for attr, value := range components {
		out[attr] = value
	}
	return out
}
