// internal/poller/poller.go
package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tamzrod/modbus-thermo/internal/indicator"
	"github.com/tamzrod/modbus-thermo/internal/metric"
	"github.com/tamzrod/modbus-thermo/internal/status"
	"github.com/tamzrod/modbus-thermo/internal/store"
)

// Output is the indicator as seen by the poller.
type Output interface {
	Set(on bool, src indicator.Source) error
}

// Config is the immutable runtime config of the poller.
type Config struct {
	Interval time.Duration
	Sensors  []Sensor
}

// Poller is the clock-driven scheduler.
// It is the only user of the bus and the only writer of the store.
type Poller struct {
	cfg     Config
	reader  *Reader
	store   *store.Store
	out     Output
	log     *slog.Logger
	metrics *metric.Metrics
	now     func() time.Time
}

// New creates a poller with immutable config.
func New(cfg Config, reader *Reader, st *store.Store, out Output, logger *slog.Logger, m *metric.Metrics) (*Poller, error) {
	if cfg.Interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	if len(cfg.Sensors) == 0 {
		return nil, errors.New("poller: at least one sensor required")
	}
	if reader == nil || st == nil || out == nil {
		return nil, errors.New("poller: reader, store and output required")
	}
	if st.Len() != len(cfg.Sensors) {
		return nil, fmt.Errorf("poller: store has %d slots for %d sensors", st.Len(), len(cfg.Sensors))
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		cfg:     cfg,
		reader:  reader,
		store:   st,
		out:     out,
		log:     logger,
		metrics: m,
		now:     time.Now,
	}, nil
}

// PollOnce performs exactly one poll cycle.
// Sensors are read in slot order, one at a time. A failed sensor does not
// abort the cycle. If ctx ends mid-cycle the remaining slots keep their
// previous values and no aggregate is applied.
func (p *Poller) PollOnce(ctx context.Context) (CycleResult, error) {
	start := p.now()
	res := CycleResult{
		At:      start,
		Sensors: make([]SensorResult, 0, len(p.cfg.Sensors)),
	}

	for i, s := range p.cfg.Sensors {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		sr := p.reader.ReadTemperature(ctx, s)
		if err := p.store.Set(i, sr.Reading, p.now()); err != nil {
			return res, err
		}
		res.Sensors = append(res.Sensors, sr)

		p.metrics.ObserveSensor(s.Key, sr.Reading.Value, sr.Reading.Valid())
		p.log.Info("temperature",
			"sensor", s.Key,
			"slave", s.SlaveID,
			"value", fmt.Sprintf("%.1f", status.Entry{Value: sr.Reading.Value, Health: sr.Reading.Health}.Reported()),
			"health", status.HealthName(sr.Reading.Health),
			"attempts", sr.Attempts,
		)
	}

	res.Aggregate = Aggregate(res.Readings())
	if err := p.out.Set(res.Aggregate, indicator.SourcePoll); err != nil {
		res.OutputErr = err
		p.log.Error("indicator update failed", "err", err)
	}

	res.Cycle = p.store.CompleteCycle()
	res.Duration = p.now().Sub(start)
	p.metrics.ObserveCycle(res.Duration)

	return res, nil
}

// Aggregate reports whether any valid reading is above zero.
// Sentinel and unknown slots never count.
func Aggregate(readings []store.Reading) bool {
	for _, r := range readings {
		if r.Valid() && r.Value > 0 {
			return true
		}
	}
	return false
}
