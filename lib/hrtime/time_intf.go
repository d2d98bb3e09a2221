package hrtime

import "time"

// Clock is a non-system clock. MonotonicElapsed never goes backwards, it is
// not affected by wall clock adjustments (NTP, manual changes).
type Clock interface {
	NowIn(offset TimeZoneOffset) time.Time
	NowInUTC() time.Time
	MonotonicElapsed() time.Duration
}
