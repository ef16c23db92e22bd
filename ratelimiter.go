package clock

import (
	"time"

	"github.com/micro/go-clock/logical"
)

// passesRateLimiter reports whether a candidate time is plausible given
// the local wall clock: its second component may not be more than
// maxDrift ahead. Pure; applied to every peer supplied time regardless
// of authentication, never to self originated times.
func passesRateLimiter(candidate, wall logical.Time, maxDrift time.Duration) bool {
	return uint64(candidate.Seconds()) <= uint64(wall.Seconds())+uint64(maxDrift/time.Second)
}
