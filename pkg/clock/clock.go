// Package clock supplies the ledger's time source. The ledger never reads
// wall-clock time directly; every component takes a Clock so tests can drive
// time explicitly.
package clock

import "time"

// Clock returns the current ledger timestamp. Ledger timestamps are host unix
// seconds scaled to milliseconds with a fixed +1000ms offset, kept for
// compatibility with rows written by the previous deployment.
type Clock interface {
	Now() int64
}

type systemClock struct{}

// NewSystem returns a clock backed by time.Now.
func NewSystem() Clock {
	return systemClock{}
}

func (systemClock) Now() int64 {
	return time.Now().Unix()*1000 + 1000
}

// Manual is a hand-driven clock for tests.
type Manual struct {
	now int64
}

// NewManual returns a clock pinned to the given ledger timestamp.
func NewManual(now int64) *Manual {
	return &Manual{now: now}
}

func (m *Manual) Now() int64 {
	return m.now
}

// Advance moves the clock forward by delta milliseconds.
func (m *Manual) Advance(delta int64) {
	m.now += delta
}

// Set pins the clock to an absolute ledger timestamp.
func (m *Manual) Set(now int64) {
	m.now = now
}
