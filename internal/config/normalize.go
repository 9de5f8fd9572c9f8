// internal/config/normalize.go
package config

import (
	"fmt"
	"strings"
)

// Defaults match the sensor firmware this daemon replaces.
const (
	DefaultBaudRate     = 9600
	DefaultDataBits     = 8
	DefaultParity       = "N"
	DefaultStopBits     = 1
	DefaultTimeoutMs    = 1000
	DefaultIntervalMs   = 1000
	DefaultMaxAttempts  = 3
	DefaultRetryDelayMs = 500
	DefaultFC           = 3
	DefaultListen       = ":80"
	DefaultCommandRate  = 5
	DefaultCommandBurst = 5
	DefaultNATSSubject  = "thermo.readings"
	DefaultLogLevel     = "info"
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	b := &cfg.Bus
	b.Transport = strings.ToLower(b.Transport)
	if b.Transport == "" {
		b.Transport = "rtu"
	}
	if b.BaudRate == 0 {
		b.BaudRate = DefaultBaudRate
	}
	if b.DataBits == 0 {
		b.DataBits = DefaultDataBits
	}
	b.Parity = strings.ToUpper(b.Parity)
	if b.Parity == "" {
		b.Parity = DefaultParity
	}
	if b.StopBits == 0 {
		b.StopBits = DefaultStopBits
	}
	if b.TimeoutMs == 0 {
		b.TimeoutMs = DefaultTimeoutMs
	}

	p := &cfg.Poll
	if p.IntervalMs == 0 {
		p.IntervalMs = DefaultIntervalMs
	}
	if p.MaxAttempts == 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.RetryDelayMs == 0 {
		p.RetryDelayMs = DefaultRetryDelayMs
	}

	for i := range cfg.Sensors {
		s := &cfg.Sensors[i]
		if s.Key == "" {
			// positional keys are 1-based: temp1, temp2, ...
			s.Key = fmt.Sprintf("temp%d", i+1)
		}
		if s.FC == 0 {
			s.FC = DefaultFC
		}
	}

	cfg.Indicator.Driver = strings.ToLower(cfg.Indicator.Driver)
	if cfg.Indicator.Driver == "" {
		cfg.Indicator.Driver = "none"
	}

	if cfg.HTTP.Listen == "" {
		cfg.HTTP.Listen = DefaultListen
	}
	if cfg.HTTP.CommandRate == 0 {
		cfg.HTTP.CommandRate = DefaultCommandRate
	}
	if cfg.HTTP.CommandBurst == 0 {
		cfg.HTTP.CommandBurst = DefaultCommandBurst
	}

	if cfg.Publish.NATS.URL != "" && cfg.Publish.NATS.Subject == "" {
		cfg.Publish.NATS.Subject = DefaultNATSSubject
	}

	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
}
