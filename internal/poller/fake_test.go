// internal/poller/fake_test.go
package poller

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/tamzrod/modbus-thermo/internal/indicator"
	"github.com/tamzrod/modbus-thermo/internal/store"
)

var errTimeout = errors.New("serial: timeout")

// fakeBus answers per slave. A slave missing from values always fails.
type fakeBus struct {
	mu       sync.Mutex
	values   map[uint8]uint16
	failFor  map[uint8]int // fail the first n attempts, then answer
	attempts map[uint8]int
	order    []uint8
	inFlight int
	overlap  bool
}

func newFakeBus(values map[uint8]uint16) *fakeBus {
	return &fakeBus{
		values:   values,
		failFor:  map[uint8]int{},
		attempts: map[uint8]int{},
	}
}

func (f *fakeBus) ReadRegister(slave, fc uint8, addr uint16) (uint16, error) {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > 1 {
		f.overlap = true
	}
	f.attempts[slave]++
	f.order = append(f.order, slave)
	n := f.attempts[slave]
	v, ok := f.values[slave]
	fail := f.failFor[slave]
	f.inFlight--
	f.mu.Unlock()

	if !ok || n <= fail {
		return 0, errTimeout
	}
	return v, nil
}

func (f *fakeBus) attemptsFor(slave uint8) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts[slave]
}

// recordWait replaces the real timer and records every requested delay.
type recordWait struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (w *recordWait) wait(ctx context.Context, d time.Duration) error {
	w.mu.Lock()
	w.delays = append(w.delays, d)
	w.mu.Unlock()
	return ctx.Err()
}

func threeSensors() []Sensor {
	return []Sensor{
		{Key: "temp1", SlaveID: 1, FC: 3},
		{Key: "temp2", SlaveID: 2, FC: 3},
		{Key: "temp3", SlaveID: 3, FC: 3},
	}
}

type harness struct {
	bus    *fakeBus
	waits  *recordWait
	reader *Reader
	store  *store.Store
	pin    *indicator.MemoryPin
	ind    *indicator.Indicator
	poller *Poller
	logs   *bytes.Buffer
}

func newHarness(t *testing.T, bus *fakeBus, sensors []Sensor) *harness {
	t.Helper()

	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	reader, err := NewReader(bus, RetryPolicy{MaxAttempts: 3, Delay: 500 * time.Millisecond}, logger, nil)
	if err != nil {
		t.Fatalf("NewReader() err=%v", err)
	}
	waits := &recordWait{}
	reader.wait = waits.wait

	st, err := store.New(Keys(sensors))
	if err != nil {
		t.Fatalf("store.New() err=%v", err)
	}

	pin := indicator.NewMemoryPin()
	ind, err := indicator.New(pin, logger, nil)
	if err != nil {
		t.Fatalf("indicator.New() err=%v", err)
	}

	p, err := New(Config{Interval: 10 * time.Millisecond, Sensors: sensors}, reader, st, ind, logger, nil)
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	return &harness{
		bus:    bus,
		waits:  waits,
		reader: reader,
		store:  st,
		pin:    pin,
		ind:    ind,
		poller: p,
		logs:   logs,
	}
}
