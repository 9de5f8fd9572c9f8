// internal/indicator/indicator.go
package indicator

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/tamzrod/modbus-thermo/internal/metric"
)

// Source identifies who drove the indicator last.
type Source string

const (
	SourceInit    Source = "init"
	SourcePoll    Source = "poll"
	SourceCommand Source = "command"
)

// Pin is one physical (or simulated) binary output.
type Pin interface {
	Drive(on bool) error
	Close() error
}

// Indicator is the output shared by the poll loop and the request service.
// Last write wins; the next poll cycle overwrites any command.
type Indicator struct {
	mu     sync.Mutex
	pin    Pin
	on     bool
	source Source

	log     *slog.Logger
	metrics *metric.Metrics
}

// New wraps pin and drives it low.
// An error means the output is unusable and startup must stop.
func New(pin Pin, logger *slog.Logger, m *metric.Metrics) (*Indicator, error) {
	if pin == nil {
		return nil, fmt.Errorf("indicator: nil pin")
	}
	if logger == nil {
		logger = slog.Default()
	}

	ind := &Indicator{
		pin:     pin,
		log:     logger,
		metrics: m,
	}
	if err := ind.Set(false, SourceInit); err != nil {
		return nil, err
	}
	return ind, nil
}

// Set drives the output to the requested level.
func (i *Indicator) Set(on bool, src Source) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	err := i.pin.Drive(on)
	i.metrics.ObserveIndicator(string(src), on, err)
	if err != nil {
		return fmt.Errorf("indicator: drive %t: %w", on, err)
	}

	if i.on != on || src == SourceCommand {
		i.log.Info("indicator", "on", on, "source", src)
	}
	i.on = on
	i.source = src
	return nil
}

// State returns the last level written and its source.
func (i *Indicator) State() (bool, Source) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.on, i.source
}

// Close drives the output low and releases the pin.
func (i *Indicator) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	_ = i.pin.Drive(false)
	i.on = false
	return i.pin.Close()
}
