package hrtime

import (
	"sync/atomic"
	"time"
)

type TimeZoneOffset int32

const (
	hourInSeconds                       = 3600
	TzUtc0Offset         TimeZoneOffset = 0
	TzUtc8Offset         TimeZoneOffset = 8 * hourInSeconds
	TzAsiaShanghaiOffset TimeZoneOffset = TzUtc8Offset
)

var (
	defaultTimezoneOffset int32
	appStartTime          time.Time
)

func DefaultTimezoneOffset() int {
	return int(atomic.LoadInt32(&defaultTimezoneOffset))
}

func SetDefaultTimezoneOffset(tz TimeZoneOffset) {
	atomic.StoreInt32(&defaultTimezoneOffset, int32(tz))
}

func loadTZLocation(offset TimeZoneOffset) *time.Location {
	if offset == TzUtc0Offset {
		return time.UTC
	}
	return time.FixedZone("", int(offset))
}

func NowInDefaultTZ() time.Time {
	return NowIn(TimeZoneOffset(atomic.LoadInt32(&defaultTimezoneOffset)))
}

func NowInUTC() time.Time {
	return NowIn(TzUtc0Offset)
}
