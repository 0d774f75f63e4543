package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"runtime"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/trellis/internal/config"
	"github.com/vango-dev/trellis/internal/errors"
	"github.com/vango-dev/trellis/internal/examples"
	"github.com/vango-dev/trellis/pkg/app"
	"github.com/vango-dev/trellis/pkg/dom/memdom"
)

type benchOptions struct {
	events int
	asJSON bool
}

func benchCmd(g *globals) *cobra.Command {
	opts := benchOptions{}

	cmd := &cobra.Command{
		Use:   "bench <example>",
		Short: "Measure event round trips on an in-memory document",
		Long: `Mount an example on an in-memory document, click its first bound
element repeatedly and report per-event latency (dispatch, render and
patch) together with DOM operations and allocations per event.

Examples:
  trellis bench counter
  trellis bench todo --events 5000 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			report, err := runBench(cmd.ErrOrStderr(), cfg, args[0], opts)
			if err != nil {
				return err
			}
			if opts.asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			writeBenchSummary(cmd.OutOrStdout(), report)
			return nil
		},
	}

	cmd.Flags().IntVarP(&opts.events, "events", "n", 1000, "Number of clicks")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the report as JSON")

	return cmd
}

type benchReport struct {
	Example        string      `json:"example"`
	Events         int         `json:"events"`
	LatencyMS      latencyInfo `json:"latency_ms"`
	EventsPerSec   float64     `json:"events_per_sec"`
	OpsPerEvent    float64     `json:"ops_per_event"`
	AllocsPerEvent float64     `json:"allocs_per_event"`
	BytesPerEvent  float64     `json:"bytes_per_event"`
	Components     int         `json:"components"`
}

type latencyInfo struct {
	Min float64 `json:"min"`
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
	Max float64 `json:"max"`
}

func runBench(stderr io.Writer, cfg *config.Config, name string, opts benchOptions) (benchReport, error) {
	if opts.events <= 0 {
		return benchReport{}, errors.Newf(errors.CategoryCLI, "--events must be positive")
	}
	ex, err := examples.Lookup(name)
	if err != nil {
		return benchReport{}, err
	}
	cfg.Log.Level = "error"
	logger, err := newLogger(stderr, cfg.Log)
	if err != nil {
		return benchReport{}, err
	}

	doc, err := memdom.New(memdom.WithRoot(cfg.Root))
	if err != nil {
		return benchReport{}, err
	}
	a := app.New(ex.Factory, doc, append(app.FromConfig(cfg), app.WithLogger(logger))...)
	if _, err := a.Render(context.Background()); err != nil {
		return benchReport{}, err
	}
	doc.ResetLog()

	latencies := make([]time.Duration, 0, opts.events)
	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	start := time.Now()

	for i := 0; i < opts.events; i++ {
		bindings := doc.Bindings()
		if len(bindings) == 0 {
			return benchReport{}, errors.Newf(errors.CategoryCLI, "no bound elements to click")
		}
		t0 := time.Now()
		if err := click(doc, bindings[0].Locator); err != nil {
			return benchReport{}, err
		}
		latencies = append(latencies, time.Since(t0))
	}

	elapsed := time.Since(start)
	runtime.ReadMemStats(&after)
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	ops := 0
	for _, n := range doc.Counts() {
		ops += n
	}
	n := float64(opts.events)
	return benchReport{
		Example: ex.Name,
		Events:  opts.events,
		LatencyMS: latencyInfo{
			Min: ms(latencies[0]),
			P50: ms(percentile(latencies, 0.50)),
			P95: ms(percentile(latencies, 0.95)),
			P99: ms(percentile(latencies, 0.99)),
			Max: ms(latencies[len(latencies)-1]),
		},
		EventsPerSec:   n / elapsed.Seconds(),
		OpsPerEvent:    float64(ops) / n,
		AllocsPerEvent: float64(after.Mallocs-before.Mallocs) / n,
		BytesPerEvent:  float64(after.TotalAlloc-before.TotalAlloc) / n,
		Components:     a.Registry().Len(),
	}, nil
}

func writeBenchSummary(w io.Writer, r benchReport) {
	fmt.Fprintf(w, "=== %s: %d events ===\n", r.Example, r.Events)
	fmt.Fprintf(w, "Throughput: %.1f events/s\n", r.EventsPerSec)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Latency (dispatch -> render -> patch):")
	fmt.Fprintf(w, "  min: %.3f ms\n", r.LatencyMS.Min)
	fmt.Fprintf(w, "  p50: %.3f ms\n", r.LatencyMS.P50)
	fmt.Fprintf(w, "  p95: %.3f ms\n", r.LatencyMS.P95)
	fmt.Fprintf(w, "  p99: %.3f ms\n", r.LatencyMS.P99)
	fmt.Fprintf(w, "  max: %.3f ms\n", r.LatencyMS.Max)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Per event:")
	fmt.Fprintf(w, "  dom ops: %.2f\n", r.OpsPerEvent)
	fmt.Fprintf(w, "  allocs:  %.1f\n", r.AllocsPerEvent)
	fmt.Fprintf(w, "  bytes:   %.1f\n", r.BytesPerEvent)
	fmt.Fprintf(w, "Components: %d\n", r.Components)
}

// percentile expects sorted input.
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
