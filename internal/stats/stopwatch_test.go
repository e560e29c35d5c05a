package stats_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/armcheck/armc/internal/stats"
)

func TestStopwatchPauseExcludesElapsed(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := func() time.Time { return clock }
	sw := stats.New(now)

	clock = clock.Add(5 * time.Second)
	sw.Pause()
	clock = clock.Add(100 * time.Second) // I/O time, must not count
	sw.Resume()
	clock = clock.Add(3 * time.Second)

	assert.Equal(t, 8*time.Second, sw.Elapsed())
}

func TestStopwatchTimedOut(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := func() time.Time { return clock }
	sw := stats.New(now)

	assert.False(t, sw.TimedOut(0)) // zero disables
	clock = clock.Add(10 * time.Second)
	assert.False(t, sw.TimedOut(time.Minute))
	assert.True(t, sw.TimedOut(5*time.Second))
}

func TestCounters(t *testing.T) {
	sw := stats.New(nil)
	sw.IncLoops()
	sw.IncLoops()
	sw.IncI()
	assert.Equal(t, 2, sw.Loops())
	assert.Equal(t, 1, sw.I())
	sw.ResetI()
	assert.Equal(t, 0, sw.I())
}
