// Package jitter randomizes backoff intervals so that retrying clients do not
// hit a recovering backend in lockstep.
package jitter

import (
	"math/rand"
	"sync"
	"time"
)

// DefaultJitter is the default jitter factor (50%).
const DefaultJitter = 0.5

var (
	globalRand = rand.New(rand.NewSource(time.Now().UnixNano()))
	randMutex  sync.Mutex
)

// Duration returns d stretched by a random amount in [0, d*jitterFactor].
func Duration(d time.Duration, jitterFactor float64) time.Duration {
	randMutex.Lock()
	j := globalRand.Float64() * jitterFactor * float64(d)
	randMutex.Unlock()
	return d + time.Duration(j)
}

// DurationWithSeed is Duration with a caller-supplied generator.
func DurationWithSeed(d time.Duration, jitterFactor float64, rng *rand.Rand) time.Duration {
	return d + time.Duration(rng.Float64()*jitterFactor*float64(d))
}

// Linear returns base*attempt with jitter applied. attempt starts at 1.
func Linear(base time.Duration, attempt int, jitterFactor float64) time.Duration {
	if attempt < 1 {
		return 0
	}
	return Duration(base*time.Duration(attempt), jitterFactor)
}

// ExponentialBackoff doubles base per attempt (zero-based), caps it at max and
// applies jitter.
func ExponentialBackoff(base, max time.Duration, attempt int, jitterFactor float64) time.Duration {
	backoff := base
	for i := 0; i < attempt; i++ {
		backoff *= 2
		if backoff > max {
			backoff = max
			break
		}
	}
	return Duration(backoff, jitterFactor)
}
