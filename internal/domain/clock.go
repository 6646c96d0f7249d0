package domain

import "time"

// Clock supplies wall-clock time to streak and veto logic so tests can
// step time without sleeping.
type Clock func() time.Time

// SystemClock is the production clock.
func SystemClock() time.Time { return time.Now() }
