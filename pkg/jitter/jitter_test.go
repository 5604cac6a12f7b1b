package jitter

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDuration_Bounds(t *testing.T) {
	for i := 0; i < 100; i++ {
		d := Duration(time.Second, DefaultJitter)
		assert.GreaterOrEqual(t, d, time.Second)
		assert.LessOrEqual(t, d, 1500*time.Millisecond)
	}
}

func TestDuration_ZeroFactor(t *testing.T) {
	assert.Equal(t, time.Second, Duration(time.Second, 0))
}

func TestDurationWithSeed_Deterministic(t *testing.T) {
	a := DurationWithSeed(time.Second, 0.5, rand.New(rand.NewSource(42)))
	b := DurationWithSeed(time.Second, 0.5, rand.New(rand.NewSource(42)))
	assert.Equal(t, a, b)
}

func TestLinear(t *testing.T) {
	tests := []struct {
		name    string
		attempt int
		want    time.Duration
	}{
		{"no attempt", 0, 0},
		{"first retry", 1, time.Second},
		{"second retry", 2, 2 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Linear(time.Second, tt.attempt, 0))
		})
	}
}

func TestExponentialBackoff_Capped(t *testing.T) {
	assert.Equal(t, 100*time.Millisecond, ExponentialBackoff(100*time.Millisecond, time.Second, 0, 0))
	assert.Equal(t, 400*time.Millisecond, ExponentialBackoff(100*time.Millisecond, time.Second, 2, 0))
	assert.Equal(t, time.Second, ExponentialBackoff(100*time.Millisecond, time.Second, 10, 0))
}
