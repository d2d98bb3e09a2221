package hrtime

import "time"

// Stopwatch measures a single phase against a monotonic Clock.
// Not safe for concurrent use.
type Stopwatch struct {
	clock   Clock
	begin   time.Duration
	elapsed time.Duration
	running bool
}

// NewStopwatch binds the stopwatch to clock, a nil clock means DefaultClock.
func NewStopwatch(clock Clock) *Stopwatch {
	if clock == nil {
		clock = DefaultClock
	}
	return &Stopwatch{clock: clock}
}

// StartStopwatch returns a running stopwatch on DefaultClock.
func StartStopwatch() *Stopwatch {
	return NewStopwatch(nil).Start()
}

// Start resets the stopwatch and starts it.
func (sw *Stopwatch) Start() *Stopwatch {
	sw.elapsed = 0
	sw.running = true
	sw.begin = sw.clock.MonotonicElapsed()
	return sw
}

// Stop freezes the elapsed time and returns it.
func (sw *Stopwatch) Stop() time.Duration {
	if sw.running {
		sw.elapsed = sw.clock.MonotonicElapsed() - sw.begin
		sw.running = false
	}
	return sw.elapsed
}

// Elapsed reads a running stopwatch without stopping it.
func (sw *Stopwatch) Elapsed() time.Duration {
	if sw.running {
		return sw.clock.MonotonicElapsed() - sw.begin
	}
	return sw.elapsed
}

// Time runs fn and returns its duration.
func (sw *Stopwatch) Time(fn func()) time.Duration {
	sw.Start()
	fn()
	return sw.Stop()
}
