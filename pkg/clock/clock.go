// Package clock abstracts time.Now so token lifetimes can be tested
// deterministically.
package clock

import "time"

type Clock interface {
	Now() time.Time
}

// System is a Clock backed by the wall clock.
type System struct{}

func (System) Now() time.Time { return time.Now() }

// Fixed is a Clock pinned to a settable instant, for tests.
type Fixed struct {
	Instant time.Time
}

func (f *Fixed) Now() time.Time { return f.Instant }

// Advance moves the fixed clock forward by d.
func (f *Fixed) Advance(d time.Duration) { f.Instant = f.Instant.Add(d) }
