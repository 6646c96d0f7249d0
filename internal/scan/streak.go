package scan

import (
	"sync"
	"time"

	"github.com/dexpulse/dexpulse/internal/domain"
)

const (
	// streakWindow is the continuity window: a qualifying tick only
	// extends a streak when the previous one landed inside it.
	streakWindow = 120 * time.Second

	streakCap      = 5
	streakMinScore = 55
)

type streakState struct {
	streak    int
	lastScore int
	at        time.Time
}

// StreakTracker counts consecutive qualifying smart-money ticks per
// address so a single noisy tick cannot light up the view. State is
// in-memory only and ages out with the window.
type StreakTracker struct {
	mu    sync.Mutex
	seen  map[string]streakState
	clock domain.Clock
}

// NewStreakTracker creates a tracker on the given clock.
func NewStreakTracker(clock domain.Clock) *StreakTracker {
	if clock == nil {
		clock = domain.SystemClock
	}
	return &StreakTracker{seen: make(map[string]streakState), clock: clock}
}

// Observe records one tick for an address and returns the current streak.
// A qualifying tick inside the window after a qualifying predecessor
// increments (capped); after a gap it resets to 1. A non-qualifying tick
// inside the window holds the previous streak without refreshing it.
func (t *StreakTracker) Observe(address string, score int, qualifying bool) int {
	now := t.clock()

	t.mu.Lock()
	defer t.mu.Unlock()

	prev, hasPrev := t.seen[address]
	if !qualifying {
		if hasPrev && now.Sub(prev.at) < streakWindow {
			return prev.streak
		}
		return 0
	}

	streak := 1
	if hasPrev && now.Sub(prev.at) < streakWindow && prev.lastScore >= streakMinScore {
		streak = prev.streak + 1
		if streak > streakCap {
			streak = streakCap
		}
	}
	t.seen[address] = streakState{streak: streak, lastScore: score, at: now}
	return streak
}
