// internal/poller/builder.go
package poller

import (
	"log/slog"
	"time"

	cfg "github.com/tamzrod/modbus-thermo/internal/config"
	"github.com/tamzrod/modbus-thermo/internal/metric"
	pmodbus "github.com/tamzrod/modbus-thermo/internal/poller/modbus"
	"github.com/tamzrod/modbus-thermo/internal/store"
)

// Sensors converts the configured sensor list into bindings.
// Assumes config has passed Validate and Normalize.
func Sensors(c *cfg.Config) []Sensor {
	out := make([]Sensor, 0, len(c.Sensors))
	for _, s := range c.Sensors {
		out = append(out, Sensor{
			Key:      s.Key,
			SlaveID:  s.SlaveID,
			FC:       s.FC,
			Register: s.Register,
			Signed:   s.Signed,
		})
	}
	return out
}

// Keys returns the store keys in slot order.
func Keys(sensors []Sensor) []string {
	keys := make([]string, len(sensors))
	for i, s := range sensors {
		keys[i] = s.Key
	}
	return keys
}

// BusConfig maps the bus section to the transport config.
func BusConfig(b cfg.BusConfig) pmodbus.Config {
	return pmodbus.Config{
		Transport: b.Transport,
		Device:    b.Device,
		BaudRate:  b.BaudRate,
		DataBits:  b.DataBits,
		Parity:    b.Parity,
		StopBits:  b.StopBits,
		RS485:     b.RS485,
		Endpoint:  b.Endpoint,
		Timeout:   time.Duration(b.TimeoutMs) * time.Millisecond,
	}
}

// Build wires reader and poller over an already opened bus.
// The bus is opened by the caller so an open failure stops startup
// before anything else is created.
func Build(c *cfg.Config, bus Transport, st *store.Store, out Output, logger *slog.Logger, m *metric.Metrics) (*Poller, error) {
	reader, err := NewReader(bus, RetryPolicy{
		MaxAttempts: c.Poll.MaxAttempts,
		Delay:       time.Duration(c.Poll.RetryDelayMs) * time.Millisecond,
	}, logger, m)
	if err != nil {
		return nil, err
	}

	return New(
		Config{
			Interval: time.Duration(c.Poll.IntervalMs) * time.Millisecond,
			Sensors:  Sensors(c),
		},
		reader,
		st,
		out,
		logger,
		m,
	)
}
