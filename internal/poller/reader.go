// internal/poller/reader.go
package poller

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/tamzrod/modbus-thermo/internal/metric"
	pmodbus "github.com/tamzrod/modbus-thermo/internal/poller/modbus"
	"github.com/tamzrod/modbus-thermo/internal/status"
	"github.com/tamzrod/modbus-thermo/internal/store"
)

// Transport is the shared bus as seen by the reader.
// One call is one request/response transaction.
type Transport interface {
	ReadRegister(slave, fc uint8, addr uint16) (uint16, error)
}

// RetryPolicy is a fixed-delay, bounded retry policy.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

// WaitFunc blocks for d or until ctx is done.
type WaitFunc func(ctx context.Context, d time.Duration) error

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Reader drives single-register reads with retries.
type Reader struct {
	bus     Transport
	policy  RetryPolicy
	wait    WaitFunc
	log     *slog.Logger
	metrics *metric.Metrics
}

// NewReader builds a reader over the shared transport.
func NewReader(bus Transport, policy RetryPolicy, logger *slog.Logger, m *metric.Metrics) (*Reader, error) {
	if bus == nil {
		return nil, errors.New("reader: transport required")
	}
	if policy.MaxAttempts < 1 {
		return nil, errors.New("reader: max attempts must be >= 1")
	}
	if policy.Delay < 0 {
		return nil, errors.New("reader: retry delay must be >= 0")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{
		bus:     bus,
		policy:  policy,
		wait:    sleepCtx,
		log:     logger,
		metrics: m,
	}, nil
}

// ReadTemperature reads one sensor.
//
// attempt -> (fail) wait delay -> attempt ... up to MaxAttempts.
// Success returns immediately. Exhaustion returns the sentinel reading.
// Only the calling goroutine blocks while waiting.
func (r *Reader) ReadTemperature(ctx context.Context, s Sensor) SensorResult {
	res := SensorResult{Key: s.Key, SlaveID: s.SlaveID}

	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		res.Attempts = attempt

		raw, err := r.bus.ReadRegister(s.SlaveID, s.FC, s.Register)
		r.metrics.ObserveAttempt(s.Key, pmodbus.ErrorClass(err))
		if err == nil {
			res.Raw = raw
			res.Reading = store.Measured(Scale(raw, s.Signed))
			res.Err = nil
			return res
		}
		res.Err = err

		r.log.Debug("rs485 attempt failed",
			"sensor", s.Key, "slave", s.SlaveID, "attempt", attempt, "err", err)

		if attempt == r.policy.MaxAttempts {
			break
		}
		if werr := r.wait(ctx, r.policy.Delay); werr != nil {
			res.Err = werr
			break
		}
	}

	res.Reading = store.Failed()
	r.log.Warn("rs485 read failed",
		"sensor", s.Key, "slave", s.SlaveID, "attempts", res.Attempts, "err", res.Err)
	return res
}

// Scale converts a raw register into degrees.
func Scale(raw uint16, signed bool) float64 {
	if signed {
		return float64(int16(raw)) / status.ScaleDivisor
	}
	return float64(raw) / status.ScaleDivisor
}
