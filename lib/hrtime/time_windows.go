//go:build windows
// +build windows

// High-resolution time for Windows.

package hrtime

// References:
// https://github.com/golang/go/issues/31160
// https://learn.microsoft.com/en-us/windows/win32/sysinfo/acquiring-high-resolution-time-stamps

import (
	"errors"
	"sync/atomic"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	kernel32 = windows.NewLazyDLL("kernel32.dll")
	procQPF  = kernel32.NewProc("QueryPerformanceFrequency")
	procQPC  = kernel32.NewProc("QueryPerformanceCounter")
)

// https://learn.microsoft.com/en-us/windows/win32/api/profileapi/nf-profileapi-queryperformancefrequency
func getFrequency() (int64, bool) {
	var freq int64
	r1, _, err := procQPF.Call(uintptr(unsafe.Pointer(&freq)))
	if err != nil && !errors.Is(err, windows.SEVERITY_SUCCESS) {
		panic(err)
	}
	return freq, r1 == 1
}

// https://learn.microsoft.com/en-us/windows/win32/api/profileapi/nf-profileapi-queryperformancecounter
// In multi-cores CPU, the counter may drift between cores.
func getCounter() (int64, bool) {
	var counter int64
	r1, _, err := procQPC.Call(uintptr(unsafe.Pointer(&counter)))
	if err != nil && !errors.Is(err, windows.SEVERITY_SUCCESS) {
		panic(err)
	}
	return counter, r1 == 1
}

var (
	baseProcFreq          int64
	baseProcCounter       int64
	fallbackLowResolution atomic.Bool

	SdkClock Clock = &qpcClockTime{}
	// DefaultClock drives the stopwatches.
	DefaultClock = SdkClock
)

func SetFallbackLowResolution(flag bool) {
	fallbackLowResolution.Swap(flag)
}

func init() {
	appStartTime = time.Now().In(loadTZLocation(TzUtc0Offset))

	var ok bool
	if baseProcCounter, ok = getCounter(); !ok {
		fallbackLowResolution.Store(true)
	}
	if baseProcFreq, ok = getFrequency(); !ok || baseProcFreq <= 0 {
		fallbackLowResolution.Store(true)
	}
}

func now() time.Time {
	nano := appStartTime.UnixNano() + MonotonicElapsed().Nanoseconds()
	return time.Unix(0, nano)
}

func NowIn(offset TimeZoneOffset) time.Time {
	if fallbackLowResolution.Load() {
		return time.Now().In(loadTZLocation(offset))
	}
	return now().In(loadTZLocation(offset))
}

// MonotonicElapsed returns the time elapsed since the program started.
func MonotonicElapsed() time.Duration {
	if fallbackLowResolution.Load() {
		return time.Since(appStartTime)
	}
	currentCounter, _ := getCounter()
	return time.Duration(currentCounter-baseProcCounter) * time.Second / time.Duration(baseProcFreq)
}

func Resolution() time.Duration {
	if fallbackLowResolution.Load() || baseProcFreq <= 0 {
		return time.Millisecond
	}
	return time.Second / time.Duration(baseProcFreq)
}

type qpcClockTime struct{}

func (q *qpcClockTime) NowIn(offset TimeZoneOffset) time.Time {
	return NowIn(offset)
}

func (q *qpcClockTime) NowInUTC() time.Time {
	return q.NowIn(TzUtc0Offset)
}

func (q *qpcClockTime) MonotonicElapsed() time.Duration {
	return MonotonicElapsed()
}
