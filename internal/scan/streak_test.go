package scan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type stepClock struct {
	now time.Time
}

func newStepClock() *stepClock {
	return &stepClock{now: time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time          { return c.now }
func (c *stepClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestStreakIncrementsInsideWindow(t *testing.T) {
	clock := newStepClock()
	tr := NewStreakTracker(clock.Now)

	assert.Equal(t, 1, tr.Observe("tok", 60, true))
	clock.Advance(30 * time.Second)
	assert.Equal(t, 2, tr.Observe("tok", 62, true))
	clock.Advance(30 * time.Second)
	assert.Equal(t, 3, tr.Observe("tok", 58, true))
}

func TestStreakResetsAfterGap(t *testing.T) {
	clock := newStepClock()
	tr := NewStreakTracker(clock.Now)

	assert.Equal(t, 1, tr.Observe("tok", 60, true))
	clock.Advance(30 * time.Second)
	assert.Equal(t, 2, tr.Observe("tok", 60, true))

	// 120s is outside the window; strictly-less-than continuity.
	clock.Advance(120 * time.Second)
	assert.Equal(t, 1, tr.Observe("tok", 60, true))
}

func TestStreakCapsAtFive(t *testing.T) {
	clock := newStepClock()
	tr := NewStreakTracker(clock.Now)

	for i := 0; i < 8; i++ {
		tr.Observe("tok", 60, true)
		clock.Advance(10 * time.Second)
	}
	assert.Equal(t, 5, tr.Observe("tok", 60, true))
}

func TestStreakNeedsQualifyingPredecessorScore(t *testing.T) {
	clock := newStepClock()
	tr := NewStreakTracker(clock.Now)

	// A tick below the minimum score still records, but the next
	// qualifying tick cannot chain off it.
	tr.Observe("tok", 40, true)
	clock.Advance(10 * time.Second)
	assert.Equal(t, 1, tr.Observe("tok", 70, true))
	clock.Advance(10 * time.Second)
	assert.Equal(t, 2, tr.Observe("tok", 70, true))
}

func TestNonQualifyingTickHoldsStreak(t *testing.T) {
	clock := newStepClock()
	tr := NewStreakTracker(clock.Now)

	tr.Observe("tok", 60, true)
	clock.Advance(10 * time.Second)
	tr.Observe("tok", 60, true)

	clock.Advance(10 * time.Second)
	// Holds the previous value without refreshing the window.
	assert.Equal(t, 2, tr.Observe("tok", 20, false))

	clock.Advance(110 * time.Second)
	assert.Equal(t, 0, tr.Observe("tok", 20, false))
}

func TestStreakPerAddressIsolation(t *testing.T) {
	clock := newStepClock()
	tr := NewStreakTracker(clock.Now)

	tr.Observe("a", 60, true)
	clock.Advance(10 * time.Second)
	assert.Equal(t, 2, tr.Observe("a", 60, true))
	assert.Equal(t, 1, tr.Observe("b", 60, true))
}
