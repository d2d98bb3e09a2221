//go:build !windows
// +build !windows

package hrtime

import (
	"time"

	"github.com/samber/lo"
	"golang.org/x/sys/unix"
)

var (
	SdkClock             Clock = &sdkClockTime{}
	UnixMonotonicClock   Clock = &unixNonSysClockTime{}
	unixMonotonicStartTs int64
)

// DefaultClock drives the stopwatches.
var DefaultClock = UnixMonotonicClock

func init() {
	appStartTime = time.Now().In(loadTZLocation(TzUtc0Offset))

	ts := unix.Timespec{}
	lo.Must0(unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts))
	unixMonotonicStartTs = ts.Nano()
}

func NowIn(offset TimeZoneOffset) time.Time {
	return time.Now().In(loadTZLocation(offset))
}

func MonotonicElapsed() time.Duration {
	return time.Since(appStartTime)
}

type unixNonSysClockTime struct{}

func (u *unixNonSysClockTime) now() time.Time {
	nano := appStartTime.UnixNano() + u.MonotonicElapsed().Nanoseconds()
	return time.Unix(0, nano)
}

func (u *unixNonSysClockTime) NowIn(offset TimeZoneOffset) time.Time {
	return u.now().In(loadTZLocation(offset))
}

func (u *unixNonSysClockTime) NowInUTC() time.Time {
	return u.NowIn(TzUtc0Offset)
}

// MonotonicElapsed reads CLOCK_MONOTONIC directly, nanoseconds since init.
func (u *unixNonSysClockTime) MonotonicElapsed() time.Duration {
	ts := unix.Timespec{}
	lo.Must0(unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts))
	return time.Duration(ts.Nano() - unixMonotonicStartTs)
}

// Resolution of the unix monotonic clock.
func Resolution() time.Duration {
	res := unix.Timespec{}
	lo.Must0(unix.ClockGetres(unix.CLOCK_MONOTONIC, &res))
	return time.Duration(res.Nano())
}

// sdkClockTime relies on the monotonic reading embedded in time.Time.
type sdkClockTime struct{}

func (s *sdkClockTime) NowIn(offset TimeZoneOffset) time.Time {
	return NowIn(offset)
}

func (s *sdkClockTime) NowInUTC() time.Time {
	return s.NowIn(TzUtc0Offset)
}

func (s *sdkClockTime) MonotonicElapsed() time.Duration {
	return MonotonicElapsed()
}
