// internal/config/validate.go
package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
// Zero values are accepted where Normalize supplies a default.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config: nil config")
	}

	// ------------------------------------------------------------
	// BUS
	// ------------------------------------------------------------

	switch strings.ToLower(cfg.Bus.Transport) {
	case "", "rtu":
		if cfg.Bus.Device == "" {
			return errors.New("bus: device is required for rtu transport")
		}
	case "tcp":
		if cfg.Bus.Endpoint == "" {
			return errors.New("bus: endpoint is required for tcp transport")
		}
	default:
		return fmt.Errorf("bus: unsupported transport %q", cfg.Bus.Transport)
	}

	switch strings.ToUpper(cfg.Bus.Parity) {
	case "", "N", "E", "O":
	default:
		return fmt.Errorf("bus: parity must be N, E or O, got %q", cfg.Bus.Parity)
	}

	if cfg.Bus.DataBits != 0 && (cfg.Bus.DataBits < 5 || cfg.Bus.DataBits > 8) {
		return fmt.Errorf("bus: data_bits must be 5..8, got %d", cfg.Bus.DataBits)
	}
	if cfg.Bus.StopBits != 0 && cfg.Bus.StopBits != 1 && cfg.Bus.StopBits != 2 {
		return fmt.Errorf("bus: stop_bits must be 1 or 2, got %d", cfg.Bus.StopBits)
	}
	if cfg.Bus.BaudRate < 0 || cfg.Bus.TimeoutMs < 0 {
		return errors.New("bus: baud_rate and timeout_ms must not be negative")
	}

	// ------------------------------------------------------------
	// POLL
	// ------------------------------------------------------------

	if cfg.Poll.IntervalMs < 0 || cfg.Poll.MaxAttempts < 0 || cfg.Poll.RetryDelayMs < 0 {
		return errors.New("poll: interval_ms, max_attempts and retry_delay_ms must not be negative")
	}

	// ------------------------------------------------------------
	// SENSORS (fixed at startup, unique slave + key)
	// ------------------------------------------------------------

	if len(cfg.Sensors) == 0 {
		return errors.New("sensors: at least one sensor required")
	}

	slaveOwner := make(map[uint8]int)
	keyOwner := make(map[string]int)

	for i, s := range cfg.Sensors {
		if s.SlaveID < 1 || s.SlaveID > 247 {
			return fmt.Errorf("sensor %d: slave_id must be 1..247, got %d", i, s.SlaveID)
		}
		if prev, exists := slaveOwner[s.SlaveID]; exists {
			return fmt.Errorf(
				"slave_id collision: slave_id=%d used by sensors %d and %d",
				s.SlaveID,
				prev,
				i,
			)
		}
		slaveOwner[s.SlaveID] = i

		switch s.FC {
		case 0, 3, 4:
		default:
			return fmt.Errorf("sensor %d: fc must be 3 or 4, got %d", i, s.FC)
		}

		// keys left empty take the positional default assigned by Normalize
		key := s.Key
		if key == "" {
			key = fmt.Sprintf("temp%d", i+1)
		}
		for j := 0; j < len(key); j++ {
			if key[j] <= 0x20 || key[j] > 0x7E || key[j] == '"' || key[j] == '\\' {
				return fmt.Errorf("sensor %d: key %q must be printable ASCII without quotes", i, key)
			}
		}
		if prev, exists := keyOwner[key]; exists {
			return fmt.Errorf("key collision: key=%q used by sensors %d and %d", key, prev, i)
		}
		keyOwner[key] = i
	}

	// ------------------------------------------------------------
	// INDICATOR
	// ------------------------------------------------------------

	switch strings.ToLower(cfg.Indicator.Driver) {
	case "", "none":
	case "gpio":
		if cfg.Indicator.Pin == "" {
			return errors.New("indicator: pin is required for gpio driver")
		}
	default:
		return fmt.Errorf("indicator: unsupported driver %q", cfg.Indicator.Driver)
	}

	// ------------------------------------------------------------
	// HTTP / PUBLISH / LOG
	// ------------------------------------------------------------

	if cfg.HTTP.CommandRate < 0 || cfg.HTTP.CommandBurst < 0 {
		return errors.New("http: command_rate and command_burst must not be negative")
	}

	if cfg.Publish.NATS.URL == "" && cfg.Publish.NATS.Subject != "" {
		return errors.New("publish.nats: subject set without url")
	}

	switch strings.ToLower(cfg.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log: unsupported level %q", cfg.Log.Level)
	}

	return nil
}
