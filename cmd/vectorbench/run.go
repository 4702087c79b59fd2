package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/wablabs/vectorbench/pkg/benchmark"
	"github.com/wablabs/vectorbench/pkg/registry"
)

var (
	runRuns       int
	runCategories []string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a benchmark from the command line",
	Long: `Run a benchmark without the API server: execute all (workload, run)
steps, print progress, and write the result files on completion.`,
	RunE: runBenchmark,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().IntVar(&runRuns, "runs", 0,
		"runs per workload (defaults to benchmark.default_runs)")
	runCmd.Flags().StringSliceVar(&runCategories, "categories", nil,
		"categories to benchmark (defaults to all catalog categories)")
}

func runBenchmark(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Set up context with signal handling.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	stk, err := buildStack(ctx, cfg)
	if err != nil {
		return err
	}
	defer stk.close()

	runs := runRuns
	if runs == 0 {
		runs = cfg.Benchmark.DefaultRuns
	}

	categories := runCategories
	if len(categories) == 0 {
		categories = stk.catalog.CategoryNames()
	}

	id, err := stk.orchestrator.Start(ctx, registry.RunConfig{
		Runs:       runs,
		Categories: categories,
	})
	if err != nil {
		return fmt.Errorf("starting benchmark: %w", err)
	}

	run, ok := stk.registry.Get(id)
	if !ok {
		return fmt.Errorf("benchmark %s not registered", id)
	}

	// Stop cooperatively on the first signal; a second signal kills the
	// process the usual way.
	go func() {
		sig, open := <-sigCh
		if !open {
			return
		}

		log.WithField("signal", sig).Info("Stopping benchmark")
		stk.orchestrator.Stop(id)
	}()

	ch, cancelSub := run.Broadcaster().Subscribe()
	defer cancelSub()

	// The channel closes after the terminal snapshot.
	for snap := range ch {
		log.WithField("progress", fmt.Sprintf("%d/%d", snap.Progress, snap.Total)).
			WithField("pct", fmt.Sprintf("%.1f%%", snap.OverallPct)).
			Info(snap.LastMessage)
	}

	signal.Stop(sigCh)
	close(sigCh)

	view := run.View()

	printSummary(view)

	if view.Status == benchmark.StatusFailed {
		return fmt.Errorf("benchmark failed: %s", view.Error)
	}

	return nil
}

// printSummary writes a per-workload median comparison table to stdout.
func printSummary(view *registry.StateView) {
	fmt.Printf("\nBenchmark %s: %s (%d/%d steps, %d failed)\n\n",
		view.BenchmarkID, view.Status, view.Progress, view.Total, view.Failed)

	if len(view.Summary) == 0 {
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WORKLOAD\tCATEGORY\tSAMPLES\tPG WRITE\tDOC WRITE\tPG QUERY\tDOC QUERY\tPG SIZE\tDOC SIZE")

	for _, workload := range sortedSummaryKeys(view.Summary) {
		s := view.Summary[workload]
		fmt.Fprintf(w, "%s\t%s\t%d\t%.1fms\t%.1fms\t%.1fms\t%.1fms\t%.2fMB\t%.2fMB\n",
			s.Workload, s.Category, s.Samples,
			s.PGWriteMS.Median, s.DocWriteMS.Median,
			s.PGQueryMS.Median, s.DocQueryMS.Median,
			s.PGSizeMB.Median, s.DocSizeMB.Median)
	}

	w.Flush()
	fmt.Println()
}

func sortedSummaryKeys(summary map[string]*benchmark.StatSummary) []string {
	keys := make([]string, 0, len(summary))
	for k := range summary {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
