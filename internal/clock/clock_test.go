package clock

import (
	"testing"
	"time"

	"github.com/dayfold/dayfold/internal/types"
)

func TestSystemClockZone(t *testing.T) {
	c, err := NewSystem("UTC")
	if err != nil {
		t.Fatalf("NewSystem: %v", err)
	}
	if c.Location() != time.UTC {
		t.Errorf("Location() = %v, want UTC", c.Location())
	}
	if c.Now().Location() != time.UTC {
		t.Error("Now() should be in the pinned zone")
	}

	if _, err := NewSystem("Not/AZone"); err == nil {
		t.Error("NewSystem should reject an unknown zone")
	}
}

func TestFixedClock(t *testing.T) {
	date := types.NewDate(2025, time.March, 10)
	c := NewFixedDate(date)

	if c.Today() != date {
		t.Errorf("Today() = %s, want %s", c.Today(), date)
	}

	c.Advance(24 * time.Hour)
	if c.Today() != date.AddDays(1) {
		t.Errorf("after Advance Today() = %s, want %s", c.Today(), date.AddDays(1))
	}

	c.SetDate(date.AddDays(10))
	if c.Today() != date.AddDays(10) {
		t.Errorf("after SetDate Today() = %s, want %s", c.Today(), date.AddDays(10))
	}
}
