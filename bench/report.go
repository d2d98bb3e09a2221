package bench

import (
	"context"
	"fmt"
	"io"
	goruntime "runtime"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/benz9527/treebench/lib/runtime"
)

// HostInfo is best effort, the fields unavailable on the platform stay
// zero.
type HostInfo struct {
	Hostname    string
	Platform    string
	CPUModel    string
	Cores       int
	MemTotal    uint64
	GoVersion   string
	GoMaxProcs  int
	Env         runtime.Env
	ContainerID string
}

func (h HostInfo) String() string {
	model := h.CPUModel
	if model == "" {
		model = "unknown cpu"
	}
	return fmt.Sprintf("%s (%d cores), %d MiB, %s, %s %s",
		model, h.Cores, h.MemTotal>>20, h.Platform, h.GoVersion, h.Env)
}

func CollectHostInfo(ctx context.Context) HostInfo {
	info := HostInfo{
		GoVersion:   goruntime.Version(),
		GoMaxProcs:  goruntime.GOMAXPROCS(0),
		Env:         runtime.DetectEnv(),
		ContainerID: runtime.LoadContainerID(),
	}
	if hi, err := host.InfoWithContext(ctx); err == nil {
		info.Hostname = hi.Hostname
		info.Platform = hi.Platform + " " + hi.PlatformVersion + " " + hi.KernelArch
	}
	if cis, err := cpu.InfoWithContext(ctx); err == nil && len(cis) > 0 {
		info.CPUModel = cis[0].ModelName
	}
	if cores, err := cpu.CountsWithContext(ctx, true); err == nil {
		info.Cores = cores
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		info.MemTotal = vm.Total
	}
	return info
}

// errWriter keeps the first write error, the following writes are dropped.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

// WriteText prints the report in the classic console shape:
//
//	=== Dataset: set1/data_1.txt (50K items) ===
//
//	--- BST Results ---
//	Insert: 1234 microseconds
func (rep *Report) WriteText(w io.Writer) error {
	ew := &errWriter{w: w}
	ew.printf("Tree Performance Analysis\n")
	ew.printf("=========================\n")
	if rep.RunID != "" {
		ew.printf("Run: %s\n", rep.RunID)
	}
	if rep.Host.GoVersion != "" {
		ew.printf("Host: %s\n", rep.Host)
	}

	lastSet := ""
	for i, sc := range rep.Scenarios {
		if i == 0 || sc.Set != lastSet {
			ew.printf("\nTesting %s:\n", sc.Set)
			lastSet = sc.Set
		}
		ew.printf("\n=== Dataset: %s (%s) ===\n", sc.Scenario, sc.Description)
		if sc.Skipped {
			continue
		}
		for _, tr := range sc.Trees {
			ew.printf("\n--- %s Results ---\n", tr.Kind)
			for _, pr := range tr.Phases {
				ew.printf("%s: %d microseconds\n", pr.Phase, pr.Microseconds())
			}
			if tr.Violations > 0 {
				ew.printf("Invariant violations: %d\n", tr.Violations)
			}
		}
	}
	ew.printf("\nAnalysis Complete!\n")
	return ew.err
}

func NewReportTableStyle() *table.Style {
	style := table.StyleRounded
	style.Format.Header = text.FormatDefault
	style.Options.SeparateRows = false
	style.Title.Align = text.AlignCenter
	return &style
}

// WriteTable renders one row per scenario and tree, the missing phases
// are shown as "-".
func (rep *Report) WriteTable(w io.Writer, style *table.Style) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	if style == nil {
		style = NewReportTableStyle()
	}
	t.SetStyle(*style)
	if rep.RunID != "" {
		t.SetTitle("Run " + rep.RunID)
	}
	t.AppendHeader(table.Row{"Set", "File", "Items", "Tree", "Insert (µs)", "Search (µs)", "Delete (µs)"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
	})
	for _, sc := range rep.Scenarios {
		if sc.Skipped {
			t.AppendRow(table.Row{sc.Set, sc.File, sc.Description, "skipped", "-", "-", "-"})
			continue
		}
		for _, tr := range sc.Trees {
			cells := [_phaseMax]string{"-", "-", "-"}
			for _, pr := range tr.Phases {
				cells[pr.Phase] = strconv.FormatInt(pr.Microseconds(), 10)
			}
			t.AppendRow(table.Row{sc.Set, sc.File, sc.Description, tr.Kind.String(), cells[Insert], cells[Search], cells[Delete]})
		}
	}
	t.Render()
}
