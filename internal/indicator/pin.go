// internal/indicator/pin.go
package indicator

import (
	"errors"
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// ---- GPIO (periph.io) ----

type gpioPin struct {
	pin       gpio.PinIO
	activeLow bool
}

// OpenGPIO initializes the host drivers and looks up a pin by name,
// e.g. "GPIO2" or "17".
func OpenGPIO(name string, activeLow bool) (Pin, error) {
	if name == "" {
		return nil, errors.New("indicator gpio: pin name required")
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("indicator gpio: host init: %w", err)
	}

	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("indicator gpio: pin %q not found", name)
	}
	return &gpioPin{pin: p, activeLow: activeLow}, nil
}

func (g *gpioPin) Drive(on bool) error {
	// active-low wiring inverts the physical level
	return g.pin.Out(gpio.Level(on != g.activeLow))
}

func (g *gpioPin) Close() error {
	return g.pin.Halt()
}

// ---- memory ----

// MemoryPin is an output without hardware behind it.
// Used with driver "none" and in tests.
type MemoryPin struct {
	mu     sync.Mutex
	on     bool
	writes []bool
	err    error
}

// NewMemoryPin returns a low memory pin.
func NewMemoryPin() *MemoryPin { return &MemoryPin{} }

func (m *MemoryPin) Drive(on bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.on = on
	m.writes = append(m.writes, on)
	return nil
}

func (m *MemoryPin) Close() error { return nil }

// Level returns the current level.
func (m *MemoryPin) Level() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.on
}

// Writes returns every level driven so far.
func (m *MemoryPin) Writes() []bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]bool(nil), m.writes...)
}

// FailWith makes every following Drive return err (nil clears it).
func (m *MemoryPin) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}
