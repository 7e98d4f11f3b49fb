package resilience

import (
	"math/rand/v2"
	"time"
)

// Backoff is base doubled for every attempt after the first, moved up or
// down by at most jitterPct of itself (0.2 is 20%).
func Backoff(base time.Duration, attempt int, jitterPct float64) time.Duration {
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	d := base << (max(attempt, 1) - 1)
	if jitterPct <= 0 {
		return d
	}
	spread := float64(d) * jitterPct
	return d + time.Duration(spread*(2*rand.Float64()-1))
}
