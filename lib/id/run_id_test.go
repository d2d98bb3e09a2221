package id

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNanoIDSuffix(t *testing.T) {
	_, err := NanoIDSuffix(1)
	require.Error(t, err)
	_, err = NanoIDSuffix(256)
	require.Error(t, err)

	nanoID, err := NanoIDSuffix(8)
	require.NoError(t, err)
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		s := nanoID()
		require.Len(t, s, 8)
		for _, c := range []byte(s) {
			require.Contains(t, nanoIDAlphabet[:], c)
		}
		seen[s] = struct{}{}
	}
	// 48 random bits, collisions are practically impossible.
	require.Len(t, seen, 1000)
}

func TestNewRunIDGen(t *testing.T) {
	ts := time.Date(2026, 10, 19, 10, 15, 30, 0, time.FixedZone("UTC+8", 8*3600))
	gen, err := NewRunIDGen(6, func() time.Time { return ts })
	require.NoError(t, err)

	runID := gen()
	prefix, suffix, ok := strings.Cut(runID, "T")
	require.True(t, ok)
	require.Equal(t, "20261019", prefix)
	require.True(t, strings.HasPrefix(suffix, "021530-"))
	require.Len(t, runID, len(runIDTsLayout)+1+6)
	require.NotEqual(t, runID, gen())

	gen, err = NewRunIDGen(8, nil)
	require.NoError(t, err)
	require.Len(t, gen(), len(runIDTsLayout)+1+8)
}

func BenchmarkNanoIDSuffix(b *testing.B) {
	nanoID, err := NanoIDSuffix(8)
	require.NoError(b, err)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = nanoID()
	}
	b.ReportAllocs()
}
