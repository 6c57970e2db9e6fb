package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"os"
	"runtime"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/rask/pkg/dom"
	"github.com/vango-dev/rask/pkg/reactive"
	"github.com/vango-dev/rask/pkg/reconcile"
	"github.com/vango-dev/rask/pkg/vdom"
)

type profile struct {
	Name       string
	Size       int
	Iterations int
}

var profiles = map[string]profile{
	"fast":     {Name: "fast", Size: 100, Iterations: 300},
	"standard": {Name: "standard", Size: 1000, Iterations: 600},
	"stress":   {Name: "stress", Size: 10000, Iterations: 200},
}

// benchOps are the list mutations applied in rotation.
var benchOps = []string{"append", "swap", "reverse", "remove", "rotate", "shuffle", "update"}

type benchConfig struct {
	Profile    string
	Size       int
	Iterations int
	Ops        []string
	Seed       uint64
	JSONOutput string
}

func benchCmd(c *cli) *cobra.Command {
	var (
		cfg     benchConfig
		opsFlag string
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark keyed reconciliation",
		Long: `Mount a keyed list and apply list mutations to it, measuring the
time from the state write to the end of the commit.

Operations: ` + strings.Join(benchOps, ", ") + `

Examples:
  rask bench
  rask bench --profile standard --json report.json
  rask bench --size 5000 --iterations 100 --ops reverse,shuffle`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if p, ok := profiles[cfg.Profile]; ok {
				if !cmd.Flags().Changed("size") {
					cfg.Size = p.Size
				}
				if !cmd.Flags().Changed("iterations") {
					cfg.Iterations = p.Iterations
				}
			} else {
				return fmt.Errorf("unknown profile %q", cfg.Profile)
			}
			cfg.Ops = benchOps
			if opsFlag != "" {
				cfg.Ops = strings.Split(opsFlag, ",")
				for _, op := range cfg.Ops {
					if !slices.Contains(benchOps, op) {
						return fmt.Errorf("unknown operation %q", op)
					}
				}
			}
			if cfg.Size < 2 || cfg.Iterations < 1 {
				return fmt.Errorf("size must be at least 2 and iterations at least 1")
			}

			report, err := c.runBench(cfg)
			if err != nil {
				return err
			}
			writeSummary(cmd.OutOrStdout(), report)
			if cfg.JSONOutput != "" {
				return writeJSON(cfg.JSONOutput, cmd.OutOrStdout(), report)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&cfg.Profile, "profile", "p", "fast", "Workload profile: fast, standard, stress")
	cmd.Flags().IntVar(&cfg.Size, "size", 0, "List size (default from profile)")
	cmd.Flags().IntVarP(&cfg.Iterations, "iterations", "n", 0, "Number of mutations (default from profile)")
	cmd.Flags().StringVar(&opsFlag, "ops", "", "Comma-separated operations to rotate through")
	cmd.Flags().Uint64Var(&cfg.Seed, "seed", 1, "Seed for shuffle")
	cmd.Flags().StringVar(&cfg.JSONOutput, "json", "", "Write a JSON report to this path (- for stdout)")

	return cmd
}

// benchRecorder counts reconciliation work.
type benchRecorder struct {
	renders     int
	reconciles  map[string]int
	patchOps    int
	resyncs     int
	resyncMoves int
	failures    int
}

func (r *benchRecorder) Render(string, time.Duration) { r.renders++ }
func (r *benchRecorder) RenderError(string, bool)     { r.failures++ }
func (r *benchRecorder) Reconcile(reason string, ops int) {
	r.reconciles[reason]++
	r.patchOps += ops
}
func (r *benchRecorder) Resync(st reconcile.Stats) {
	r.resyncs++
	r.resyncMoves += st.Moved + st.Inserted
}
func (r *benchRecorder) InstanceMounted(string)   {}
func (r *benchRecorder) InstanceUnmounted(string) {}
func (r *benchRecorder) CleanupFailed()           { r.failures++ }

type benchItem struct {
	ID    int
	Label string
}

func mutate(op string, items []benchItem, next *int, rng *rand.Rand) []benchItem {
	out := slices.Clone(items)
	if len(out) < 2 && op != "append" {
		return out
	}
	switch op {
	case "append":
		*next++
		out = append(out, benchItem{ID: *next, Label: fmt.Sprintf("item %d", *next)})
	case "swap":
		i, j := 1, len(out)-2
		out[i], out[j] = out[j], out[i]
	case "reverse":
		slices.Reverse(out)
	case "remove":
		out = slices.Delete(out, len(out)/2, len(out)/2+1)
	case "rotate":
		out = append(out[1:], out[0])
	case "shuffle":
		rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	case "update":
		i := rng.IntN(len(out))
		out[i].Label += "!"
	}
	return out
}

func (c *cli) runBench(cfg benchConfig) (benchReport, error) {
	initial := make([]benchItem, cfg.Size)
	for i := range initial {
		initial[i] = benchItem{ID: i + 1, Label: fmt.Sprintf("item %d", i+1)}
	}

	var set func([]benchItem)
	list := vdom.Define("BenchList", func(s *vdom.Setup) vdom.RenderFunc {
		items := reactive.NewField[[]benchItem](s.State(map[string]any{"items": initial}), "items")
		set = items.Set
		return func() vdom.Node {
			return vdom.Ul(vdom.Range(items.Get(), func(it benchItem, _ int) vdom.Node {
				return vdom.Li(vdom.Key(it.ID), vdom.Text(it.Label))
			}))
		}
	})

	rec := &benchRecorder{reconciles: make(map[string]int)}
	doc := dom.NewDocument()
	var runErr error
	root, err := vdom.Render(list.New(nil), doc.Body(),
		vdom.WithLogger(c.logger),
		vdom.WithRecorder(rec),
		vdom.WithErrorHandler(func(err error) { runErr = err }))
	if err != nil {
		return benchReport{}, err
	}
	defer root.Unmount()

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed))
	items, next := initial, cfg.Size
	latencies := make([]time.Duration, 0, cfg.Iterations)
	perOp := make(map[string][]time.Duration)
	mutationsBefore := doc.Mutations()

	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)
	start := time.Now()

	for i := 0; i < cfg.Iterations; i++ {
		op := cfg.Ops[i%len(cfg.Ops)]
		items = mutate(op, items, &next, rng)

		t0 := time.Now()
		set(items)
		root.Tick()
		d := time.Since(t0)

		if runErr != nil {
			return benchReport{}, fmt.Errorf("iteration %d (%s): %w", i, op, runErr)
		}
		latencies = append(latencies, d)
		perOp[op] = append(perOp[op], d)
	}

	elapsed := time.Since(start)
	runtime.ReadMemStats(&after)

	if got := doc.Body().FirstChild.ChildCount(); got != len(items) {
		return benchReport{}, fmt.Errorf("live list has %d items, want %d", got, len(items))
	}
	return buildReport(cfg, elapsed, latencies, perOp, rec, doc.Mutations()-mutationsBefore, before, after), nil
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}
	idx := int(math.Ceil(float64(len(sorted))*p)) - 1
	if idx < 0 {
		idx = 0
	}
	return sorted[idx]
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

type benchReport struct {
	Version   string                 `json:"version"`
	Run       runInfo                `json:"run"`
	Workload  workloadInfo           `json:"workload"`
	LatencyMS latencyInfo            `json:"latency_ms"`
	PerOpMS   map[string]latencyInfo `json:"per_op_ms"`
	Work      workInfo               `json:"work"`
	GC        gcInfo                 `json:"gc"`
}

type runInfo struct {
	Timestamp string `json:"timestamp"`
	Go        string `json:"go"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	CPUCount  int    `json:"cpu_count"`
}

type workloadInfo struct {
	Profile    string   `json:"profile"`
	Size       int      `json:"size"`
	Iterations int      `json:"iterations"`
	Ops        []string `json:"ops"`
	Seed       uint64   `json:"seed"`
	DurationMS float64  `json:"duration_ms"`
}

type latencyInfo struct {
	Min float64 `json:"min"`
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
	Max float64 `json:"max"`
}

type workInfo struct {
	Renders        int            `json:"renders"`
	Reconciles     map[string]int `json:"reconciles"`
	PatchOps       int            `json:"patch_ops"`
	Resyncs        int            `json:"resyncs"`
	ResyncMoves    int            `json:"resync_moves"`
	Mutations      uint64         `json:"dom_mutations"`
	MutationsPerOp float64        `json:"dom_mutations_per_op"`
	Failures       int            `json:"failures"`
}

type gcInfo struct {
	AllocMB      float64 `json:"alloc_mb"`
	HeapLiveMB   float64 `json:"heap_live_mb"`
	NumGC        uint32  `json:"num_gc"`
	PauseTotalMS float64 `json:"pause_total_ms"`
}

func latencyOf(samples []time.Duration) latencyInfo {
	if len(samples) == 0 {
		return latencyInfo{}
	}
	sorted := slices.Clone(samples)
	slices.Sort(sorted)
	return latencyInfo{
		Min: ms(sorted[0]),
		P50: ms(percentile(sorted, 0.50)),
		P95: ms(percentile(sorted, 0.95)),
		P99: ms(percentile(sorted, 0.99)),
		Max: ms(sorted[len(sorted)-1]),
	}
}

func buildReport(
	cfg benchConfig,
	elapsed time.Duration,
	latencies []time.Duration,
	perOp map[string][]time.Duration,
	rec *benchRecorder,
	mutations uint64,
	before runtime.MemStats,
	after runtime.MemStats,
) benchReport {
	ops := make(map[string]latencyInfo, len(perOp))
	for op, samples := range perOp {
		ops[op] = latencyOf(samples)
	}
	return benchReport{
		Version: "1",
		Run: runInfo{
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			Go:        runtime.Version(),
			OS:        runtime.GOOS,
			Arch:      runtime.GOARCH,
			CPUCount:  runtime.NumCPU(),
		},
		Workload: workloadInfo{
			Profile:    cfg.Profile,
			Size:       cfg.Size,
			Iterations: cfg.Iterations,
			Ops:        cfg.Ops,
			Seed:       cfg.Seed,
			DurationMS: ms(elapsed),
		},
		LatencyMS: latencyOf(latencies),
		PerOpMS:   ops,
		Work: workInfo{
			Renders:        rec.renders,
			Reconciles:     rec.reconciles,
			PatchOps:       rec.patchOps,
			Resyncs:        rec.resyncs,
			ResyncMoves:    rec.resyncMoves,
			Mutations:      mutations,
			MutationsPerOp: float64(mutations) / float64(max(1, cfg.Iterations)),
			Failures:       rec.failures,
		},
		GC: gcInfo{
			AllocMB:      float64(after.TotalAlloc-before.TotalAlloc) / (1024 * 1024),
			HeapLiveMB:   float64(after.HeapAlloc) / (1024 * 1024),
			NumGC:        after.NumGC - before.NumGC,
			PauseTotalMS: ms(time.Duration(after.PauseTotalNs - before.PauseTotalNs)),
		},
	}
}

func writeSummary(w io.Writer, report benchReport) {
	fmt.Fprintln(w, "=== rask reconcile benchmark ===")
	fmt.Fprintf(w, "Profile: %s\n", report.Workload.Profile)
	fmt.Fprintf(w, "List size: %d\n", report.Workload.Size)
	fmt.Fprintf(w, "Iterations: %d\n", report.Workload.Iterations)
	fmt.Fprintf(w, "Duration: %.1f ms\n", report.Workload.DurationMS)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Write -> commit latency:")
	fmt.Fprintf(w, "  min: %.3f ms\n", report.LatencyMS.Min)
	fmt.Fprintf(w, "  p50: %.3f ms\n", report.LatencyMS.P50)
	fmt.Fprintf(w, "  p95: %.3f ms\n", report.LatencyMS.P95)
	fmt.Fprintf(w, "  p99: %.3f ms\n", report.LatencyMS.P99)
	fmt.Fprintf(w, "  max: %.3f ms\n", report.LatencyMS.Max)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Per operation (p50 / p95 ms):")
	ops := make([]string, 0, len(report.PerOpMS))
	for op := range report.PerOpMS {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	for _, op := range ops {
		l := report.PerOpMS[op]
		fmt.Fprintf(w, "  %-8s %.3f / %.3f\n", op, l.P50, l.P95)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Work:")
	fmt.Fprintf(w, "  renders:        %d\n", report.Work.Renders)
	fmt.Fprintf(w, "  patch ops:      %d\n", report.Work.PatchOps)
	fmt.Fprintf(w, "  resyncs:        %d (%d moves)\n", report.Work.Resyncs, report.Work.ResyncMoves)
	fmt.Fprintf(w, "  dom mutations:  %d (%.1f per op)\n", report.Work.Mutations, report.Work.MutationsPerOp)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Go runtime / GC:")
	fmt.Fprintf(w, "  alloc:     %.2f MB\n", report.GC.AllocMB)
	fmt.Fprintf(w, "  heap_live: %.2f MB\n", report.GC.HeapLiveMB)
	fmt.Fprintf(w, "  num_gc:    %d\n", report.GC.NumGC)
	fmt.Fprintf(w, "  gc_pause:  %.2f ms (total)\n", report.GC.PauseTotalMS)
}

func writeJSON(path string, stdout io.Writer, report benchReport) error {
	out := stdout
	if path != "-" {
		file, err := os.Create(path)
		if err != nil {
			return err
		}
		defer file.Close()
		out = file
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
