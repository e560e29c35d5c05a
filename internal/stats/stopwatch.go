// Package stats tracks the driver's progress counters and the
// compute-time stopwatch of spec §5 ("the stopwatch used for progress
// and timeout is paused around I/O so that timeouts measure compute
// time only"). Narrowed from the teacher's open-ended
// Metric/MetricsCollector pair to exactly the two counters the CEGAR
// driver needs.
package stats

import "time"

// Stopwatch accumulates elapsed compute time across Pause/Resume
// brackets, and carries the driver's loops/i counters alongside it
// since both are read together at every timeout check.
type Stopwatch struct {
	running  bool
	lastMark time.Time
	elapsed  time.Duration

	loops int
	i     int

	now func() time.Time
}

// New starts a running stopwatch. now defaults to time.Now; tests may
// substitute a deterministic clock.
func New(now func() time.Time) *Stopwatch {
	if now == nil {
		now = time.Now
	}
	sw := &Stopwatch{now: now}
	sw.Resume()
	return sw
}

// Pause stops accumulating elapsed time, e.g. around printer I/O or an
// external `dot` invocation.
func (s *Stopwatch) Pause() {
	if !s.running {
		return
	}
	s.elapsed += s.now().Sub(s.lastMark)
	s.running = false
}

// Resume restarts accumulation after a Pause.
func (s *Stopwatch) Resume() {
	if s.running {
		return
	}
	s.lastMark = s.now()
	s.running = true
}

// Elapsed returns the total compute time accumulated so far,
// excluding any currently-paused interval.
func (s *Stopwatch) Elapsed() time.Duration {
	if !s.running {
		return s.elapsed
	}
	return s.elapsed + s.now().Sub(s.lastMark)
}

// TimedOut reports whether Elapsed has reached budget. A zero budget
// never times out (spec §6: "TIMEOUT ... zero disables").
func (s *Stopwatch) TimedOut(budget time.Duration) bool {
	if budget <= 0 {
		return false
	}
	return s.Elapsed() >= budget
}

// Loops returns the outer-loop (CEGAR refinement) counter.
func (s *Stopwatch) Loops() int { return s.loops }

// IncLoops increments the outer-loop counter.
func (s *Stopwatch) IncLoops() { s.loops++ }

// I returns the inner-loop counter.
func (s *Stopwatch) I() int { return s.i }

// IncI increments the inner-loop counter.
func (s *Stopwatch) IncI() { s.i++ }

// ResetI resets the inner-loop counter to 0 at the start of a fresh
// VerifyStep.
func (s *Stopwatch) ResetI() { s.i = 0 }
