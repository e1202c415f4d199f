// Package clock supplies the engine's logical date and time in a fixed
// time zone. Every temporal decision routes through a Clock so tests can
// freeze time and production never consults ambient system time directly.
package clock

import (
	"fmt"
	"sync"
	"time"

	"github.com/dayfold/dayfold/internal/types"
)

// Clock provides the current logical date and time.
type Clock interface {
	// Now returns the current instant in the clock's zone.
	Now() time.Time
	// Today returns the current calendar date in the clock's zone.
	Today() types.Date
	// Location returns the clock's fixed time zone.
	Location() *time.Location
}

// System is a Clock backed by the operating system, pinned to one zone.
type System struct {
	loc *time.Location
}

// NewSystem creates a system clock pinned to the named time zone.
func NewSystem(zone string) (*System, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("invalid time zone %q: %w", zone, err)
	}
	return &System{loc: loc}, nil
}

// Now returns the current instant in the clock's zone.
func (c *System) Now() time.Time {
	return time.Now().In(c.loc)
}

// Today returns the current calendar date in the clock's zone.
func (c *System) Today() types.Date {
	return types.DateOf(c.Now())
}

// Location returns the clock's fixed time zone.
func (c *System) Location() *time.Location {
	return c.loc
}

// Fixed is a Clock frozen at a settable instant, for tests.
type Fixed struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixed creates a frozen clock at the given instant.
func NewFixed(now time.Time) *Fixed {
	return &Fixed{now: now}
}

// NewFixedDate creates a frozen clock at noon UTC on the given date.
func NewFixedDate(date types.Date) *Fixed {
	return &Fixed{now: date.Time(time.UTC).Add(12 * time.Hour)}
}

// Now returns the frozen instant.
func (c *Fixed) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Today returns the frozen calendar date.
func (c *Fixed) Today() types.Date {
	return types.DateOf(c.Now())
}

// Location returns the frozen clock's zone.
func (c *Fixed) Location() *time.Location {
	return c.Now().Location()
}

// Set moves the frozen clock to a new instant.
func (c *Fixed) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// SetDate moves the frozen clock to noon UTC on the given date.
func (c *Fixed) SetDate(date types.Date) {
	c.Set(date.Time(time.UTC).Add(12 * time.Hour))
}

// Advance moves the frozen clock forward by d.
func (c *Fixed) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
