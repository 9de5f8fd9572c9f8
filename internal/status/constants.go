// internal/status/constants.go
package status

// Reading status constants.
// These values define the external contract and MUST NOT be configurable.

// ---- SENTINEL ----

// Sentinel is the value reported for a sensor without a valid reading.
// It lies outside the physical range of the attached sensors.
const Sentinel = -1.0

// ScaleDivisor converts a raw register to degrees (one decimal digit).
const ScaleDivisor = 10.0

// Precision is the number of decimal digits in the external representation.
const Precision = 1

// ---- HEALTH CODES ----

// HealthUnknown represents a sensor that has not been polled yet.
const HealthUnknown uint16 = 0

// HealthOK represents a sensor whose last poll produced a value.
const HealthOK uint16 = 1

// HealthError represents a sensor whose last poll exhausted its attempts.
const HealthError uint16 = 2

// HealthName returns the lowercase name used in documents and logs.
func HealthName(h uint16) string {
	switch h {
	case HealthOK:
		return "ok"
	case HealthError:
		return "error"
	default:
		return "unknown"
	}
}
