// Package license is the public facade of LicenseCore: offline license
// tokens cryptographically bound to a secret and, optionally, to the
// hardware of a particular machine.
//
// # Architecture Overview
//
// The facade composes three subsystems:
//
//	- token:  parses license tokens and defines the canonical bytes the
//	          signature covers
//	- signer: HMAC-SHA256 signing and constant-time verification
//	- hwid:   hardware probes and the TTL-cached fingerprint builder
//
// # Validation Flow
//
// LoadAndValidate runs the checks in a fixed order, stopping at the first
// failure:
//
//	1. structural     token bytes parse and every field is well-formed
//	2. cryptographic  the MAC verifies over the canonical form
//	3. temporal       current time is within the inclusive expiry horizon
//	4. binding        hardware_hash is "*" or equals the machine fingerprint
//
// In strict mode a failure is returned as a *ValidationError carrying the
// failure Kind; in lenient mode the result is a LicenseInfo with Valid set
// to false and Failure naming the kind.
//
// # Hardware Binding
//
// The fingerprint builder is independently constructible and shareable
// across facades: processes validating many licenses against one machine
// should construct one hwid.Builder and pass it to every Manager with
// WithHardwareBuilder, so the probe cache is hit instead of recomputed.
//
// # Concurrency
//
// Operations are synchronous and caller-driven; there are no background
// tasks. The Manager itself is not internally synchronized: concurrent
// LoadAndValidate calls or a load racing a feature query on one Manager are
// caller mistakes. The fingerprint builder is internally synchronized when
// configured so.
package license
