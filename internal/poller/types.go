// internal/poller/types.go
package poller

import (
	"time"

	"github.com/tamzrod/modbus-thermo/internal/store"
)

// Sensor is one slave on the shared bus.
// Bindings are fixed at startup; index i maps to store slot i.
type Sensor struct {
	Key      string
	SlaveID  uint8
	FC       uint8
	Register uint16
	Signed   bool // decode the register as two's-complement int16
}

// SensorResult is the outcome of one ReadTemperature call.
type SensorResult struct {
	Key      string
	SlaveID  uint8
	Reading  store.Reading
	Raw      uint16
	Attempts int
	Err      error // last attempt error; nil on success
}

// CycleResult is produced by one poll cycle.
type CycleResult struct {
	Cycle    uint64
	At       time.Time
	Duration time.Duration

	Sensors []SensorResult

	// Aggregate is the derived indicator level for this cycle.
	Aggregate bool
	OutputErr error
}

// Readings returns the readings of the cycle in slot order.
func (c CycleResult) Readings() []store.Reading {
	out := make([]store.Reading, len(c.Sensors))
	for i, s := range c.Sensors {
		out[i] = s.Reading
	}
	return out
}
