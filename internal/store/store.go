// Package store holds the latest reading per sensor.
//
// The store is a single-writer / multi-reader snapshot cell. Every write
// publishes a new immutable Snapshot through an atomic pointer swap, so
// readers never lock and never see a torn slot. A reader that runs while a
// poll cycle is in progress may see some slots from the previous cycle and
// some from the current one.
package store

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tamzrod/modbus-thermo/internal/status"
)

// Reading is the latest known state of one sensor.
type Reading struct {
	Value  float64
	Health uint16 // status.Health*
}

// Valid reports whether the reading carries a measured value.
func (r Reading) Valid() bool { return r.Health == status.HealthOK }

// Measured returns a healthy reading.
func Measured(v float64) Reading {
	return Reading{Value: v, Health: status.HealthOK}
}

// Failed returns the sentinel reading for exhausted attempts.
func Failed() Reading {
	return Reading{Value: status.Sentinel, Health: status.HealthError}
}

// Unknown returns the reading of a sensor that was never polled.
func Unknown() Reading {
	return Reading{Value: status.Sentinel, Health: status.HealthUnknown}
}

// Snapshot is an immutable view of all slots.
type Snapshot struct {
	Keys     []string
	Readings []Reading

	// Cycles counts completed poll cycles.
	Cycles uint64
	// UpdatedAt is the time of the last slot write; zero before the first.
	UpdatedAt time.Time
}

// Document converts the snapshot into its flat external form.
func (s Snapshot) Document() status.Document {
	doc := make(status.Document, len(s.Readings))
	for i, r := range s.Readings {
		doc[i] = status.Entry{Key: s.Keys[i], Value: r.Value, Health: r.Health}
	}
	return doc
}

// Store is the shared reading store.
type Store struct {
	writeMu sync.Mutex // serializes writers; readers never take it
	cur     atomic.Pointer[Snapshot]
}

// New creates a store with one Unknown slot per key.
func New(keys []string) (*Store, error) {
	if len(keys) == 0 {
		return nil, errors.New("store: at least one key required")
	}

	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if _, dup := seen[k]; dup {
			return nil, fmt.Errorf("store: duplicate key %q", k)
		}
		seen[k] = struct{}{}
	}

	snap := &Snapshot{
		Keys:     append([]string(nil), keys...),
		Readings: make([]Reading, len(keys)),
	}
	for i := range snap.Readings {
		snap.Readings[i] = Unknown()
	}

	s := &Store{}
	s.cur.Store(snap)
	return s, nil
}

// Len returns the fixed number of slots.
func (s *Store) Len() int { return len(s.cur.Load().Keys) }

// Snapshot returns a copy of the current state.
// Two calls without an intervening write return equal values.
func (s *Store) Snapshot() Snapshot {
	cur := s.cur.Load()
	return Snapshot{
		Keys:      cur.Keys, // never mutated after New
		Readings:  append([]Reading(nil), cur.Readings...),
		Cycles:    cur.Cycles,
		UpdatedAt: cur.UpdatedAt,
	}
}

// Set replaces slot i and publishes the result.
func (s *Store) Set(i int, r Reading, at time.Time) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	cur := s.cur.Load()
	if i < 0 || i >= len(cur.Readings) {
		return fmt.Errorf("store: slot %d out of range [0,%d)", i, len(cur.Readings))
	}

	next := &Snapshot{
		Keys:      cur.Keys,
		Readings:  append([]Reading(nil), cur.Readings...),
		Cycles:    cur.Cycles,
		UpdatedAt: at,
	}
	next.Readings[i] = r

	s.cur.Store(next)
	return nil
}

// CompleteCycle marks the end of one poll cycle and returns the cycle count.
func (s *Store) CompleteCycle() uint64 {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	cur := s.cur.Load()
	next := *cur
	next.Cycles++

	s.cur.Store(&next)
	return next.Cycles
}
