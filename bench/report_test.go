package bench

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/benz9527/treebench/lib/tree"
)

func newTestReport() *Report {
	phases := func(kind tree.Kind, us ...int64) TreeResult {
		tr := TreeResult{Kind: kind}
		for i, v := range us {
			tr.Phases = append(tr.Phases, PhaseResult{
				Set:         "set1",
				File:        "data_1.txt",
				Description: "50K items",
				Kind:        kind,
				Phase:       Phase(i),
				Ops:         10,
				Elapsed:     time.Duration(v) * time.Microsecond,
			})
		}
		return tr
	}
	return &Report{
		Scenarios: []ScenarioResult{
			{
				Scenario: Scenario{Set: "set1", File: "data_1.txt", Description: "50K items"},
				Trees: []TreeResult{
					phases(tree.BST, 120, 45, 30),
					phases(tree.Splay, 150),
					phases(tree.RedBlack, 90, 20, 25),
				},
			},
			{
				Scenario: Scenario{Set: "set2", File: "data_1.txt", Description: "50K items"},
				Skipped:  true,
			},
		},
	}
}

func TestReport_WriteText(t *testing.T) {
	rep := newTestReport()
	rep.Scenarios[0].Trees[2].Violations = 1
	buf := &bytes.Buffer{}
	require.NoError(t, rep.WriteText(buf))

	expected := `Tree Performance Analysis
=========================

Testing set1:

=== Dataset: set1/data_1.txt (50K items) ===

--- BST Results ---
Insert: 120 microseconds
Search: 45 microseconds
Delete: 30 microseconds

--- Splay Tree Results ---
Insert: 150 microseconds

--- RB Tree Results ---
Insert: 90 microseconds
Search: 20 microseconds
Delete: 25 microseconds
Invariant violations: 1

Testing set2:

=== Dataset: set2/data_1.txt (50K items) ===

Analysis Complete!
`
	require.Equal(t, expected, buf.String())

	rep.RunID = "20261019T100000-abcdefgh"
	rep.Host = testHostInfo(context.Background())
	buf.Reset()
	require.NoError(t, rep.WriteText(buf))
	require.Contains(t, buf.String(), "Run: 20261019T100000-abcdefgh\n")
	require.Contains(t, buf.String(), "Host: Test CPU (8 cores), 16384 MiB, linux, go1.22.2 host\n")
}

type failingWriter struct {
	writes int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	w.writes++
	return 0, errors.New("closed pipe")
}

func TestReport_WriteTextError(t *testing.T) {
	w := &failingWriter{}
	require.EqualError(t, newTestReport().WriteText(w), "closed pipe")
	require.Equal(t, 1, w.writes)
}

func TestReport_WriteTable(t *testing.T) {
	rep := newTestReport()
	rep.RunID = "run-1"
	buf := &bytes.Buffer{}
	rep.WriteTable(buf, nil)

	out := buf.String()
	require.Contains(t, out, "Run run-1")
	require.Contains(t, out, "Insert (µs)")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	var bstRow, splayRow, skippedRow string
	for _, line := range lines {
		switch {
		case strings.Contains(line, " BST "):
			bstRow = line
		case strings.Contains(line, "Splay Tree"):
			splayRow = line
		case strings.Contains(line, "skipped"):
			skippedRow = line
		}
	}
	require.Contains(t, bstRow, "120")
	require.Contains(t, bstRow, "45")
	require.Contains(t, bstRow, "30")
	require.Equal(t, 2, strings.Count(splayRow, " - "))
	require.Contains(t, skippedRow, "set2")
}

func TestCollectHostInfo(t *testing.T) {
	info := CollectHostInfo(context.Background())
	require.NotEmpty(t, info.GoVersion)
	require.Positive(t, info.GoMaxProcs)
	require.NotEmpty(t, info.Env)
	require.NotEmpty(t, info.String())
}
