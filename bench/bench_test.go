package bench

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/benz9527/treebench/lib/hrtime"
	"github.com/benz9527/treebench/xlog"
)

// testLogger decodes the JSON log lines written by the xlog console core.
type testLogger struct {
	lock sync.Mutex
	buf  bytes.Buffer
}

type testLogEntry struct {
	lvl    zapcore.Level
	msg    string
	fields map[string]any
}

func (tl *testLogger) Write(p []byte) (int, error) {
	tl.lock.Lock()
	defer tl.lock.Unlock()
	return tl.buf.Write(p)
}

func (tl *testLogger) Sync() error { return nil }

func (tl *testLogger) entries(t *testing.T) []testLogEntry {
	tl.lock.Lock()
	defer tl.lock.Unlock()
	res := make([]testLogEntry, 0, 8)
	for _, line := range bytes.Split(tl.buf.Bytes(), []byte("\n")) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		m := map[string]any{}
		require.NoError(t, json.Unmarshal(line, &m), string(line))
		lvl, err := zapcore.ParseLevel(strings.ToLower(m["lvl"].(string)))
		require.NoError(t, err)
		res = append(res, testLogEntry{lvl: lvl, msg: m["msg"].(string), fields: m})
	}
	return res
}

func (tl *testLogger) byLevel(t *testing.T, lvl zapcore.Level) []testLogEntry {
	res := make([]testLogEntry, 0, 8)
	for _, e := range tl.entries(t) {
		if e.lvl == lvl {
			res = append(res, e)
		}
	}
	return res
}

func newTestXLogger(t *testing.T) (xlog.XLogger, *testLogger) {
	t.Helper()
	tl := &testLogger{}
	logger := xlog.NewXLogger(
		xlog.WithXLoggerEncoder(xlog.JSON),
		xlog.WithXLoggerLevel(xlog.LogLevelDebug),
		xlog.WithXLoggerLevelEncoder(zapcore.CapitalLevelEncoder),
		xlog.WithXLoggerOutput(tl),
	)
	return logger, tl
}

// writeDataset lays out dataRoot/phase/set/file.
func writeDataset(t *testing.T, root string, phase Phase, set, file, content string) {
	t.Helper()
	dir := filepath.Join(root, phase.dir(), set)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte(content), 0o644))
}

// tickClock advances step on every monotonic read, a started and stopped
// stopwatch measures exactly one step.
type tickClock struct {
	lock    sync.Mutex
	elapsed time.Duration
	step    time.Duration
}

func (c *tickClock) NowIn(offset hrtime.TimeZoneOffset) time.Time {
	return time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC).In(time.FixedZone("", int(offset)))
}

func (c *tickClock) NowInUTC() time.Time {
	return time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)
}

func (c *tickClock) MonotonicElapsed() time.Duration {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.elapsed += c.step
	return c.elapsed
}

func testHostInfo(context.Context) HostInfo {
	return HostInfo{
		Hostname:   "bench-host",
		Platform:   "linux",
		CPUModel:   "Test CPU",
		Cores:      8,
		MemTotal:   16 << 30,
		GoVersion:  "go1.22.2",
		GoMaxProcs: 8,
		Env:        "host",
	}
}

func newDiscardXLogger() xlog.XLogger {
	return xlog.NewXLogger(
		xlog.WithXLoggerLevel(xlog.LogLevelError),
		xlog.WithXLoggerOutput(zapcore.AddSync(io.Discard)),
	)
}
