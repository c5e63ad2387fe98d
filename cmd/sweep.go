package cmd

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wsn-sims/mdcsim/sim/sweep"
)

var (
	sweepSeed     int64
	sweepRuns     int
	sweepWorkers  int
	sweepTimeout  time.Duration
	sweepAttempts int
	sweepOut      string
	sweepPlan     string

	sweepHeuristics []string

	sweepSegments []int
	sweepMDCs     []int
	sweepMeans    []float64
	sweepStdDevs  []float64
	sweepRanges   []float64

	sweepEnv envFlags
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run many simulations per parameter set and write averaged metrics as CSV",
	Long: "Run --runs successful simulations for every parameter set, either from --plan " +
		"or from the cartesian product of the list flags. Failed or timed-out runs are " +
		"replaced with runs on fresh seeds.",
	Run: func(cmd *cobra.Command, args []string) {
		base, err := sweepEnv.environment(cmd)
		if err != nil {
			logrus.Fatalf("Invalid environment: %v", err)
		}

		params := expandGrid(sweepSegments, sweepMDCs, sweepMeans, sweepStdDevs, sweepRanges)
		if sweepPlan != "" {
			params, err = loadSweepPlan(sweepPlan)
			if err != nil {
				logrus.Fatalf("%v", err)
			}
		}

		heuristics := make([]sweep.Heuristic, len(sweepHeuristics))
		for i, h := range sweepHeuristics {
			if !sweep.IsValidHeuristic(h) {
				logrus.Fatalf("Unknown heuristic %q; valid: flower, tocs", h)
			}
			heuristics[i] = sweep.Heuristic(h)
		}

		cfg := sweep.Config{
			Base:        base,
			Runs:        sweepRuns,
			Workers:     sweepWorkers,
			Timeout:     sweepTimeout,
			MaxAttempts: sweepAttempts,
			Seed:        sweepSeed,
			Heuristics:  heuristics,
		}
		logrus.Infof("Sweeping %d parameter sets with %v, %d runs each, %d workers",
			len(params), sweepHeuristics, cfg.Runs, cfg.Workers)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		rows, err := sweep.Sweep(ctx, cfg, params)
		if err != nil {
			logrus.Fatalf("Sweep failed: %v", err)
		}

		out := os.Stdout
		header := true
		if sweepOut != "" {
			_, statErr := os.Stat(sweepOut)
			header = os.IsNotExist(statErr)
			f, err := os.OpenFile(sweepOut, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
			if err != nil {
				logrus.Fatalf("Opening %s: %v", sweepOut, err)
			}
			defer f.Close()
			out = f
		}
		if err := sweep.WriteCSV(out, rows, header); err != nil {
			logrus.Fatalf("Writing results: %v", err)
		}
		logrus.Info("Sweep complete.")
	},
}

func init() {
	sweepCmd.Flags().Int64Var(&sweepSeed, "seed", time.Now().Unix(), "First seed; every run derives its own from it")
	sweepCmd.Flags().IntVar(&sweepRuns, "runs", 1, "Successful runs per parameter set")
	sweepCmd.Flags().IntVar(&sweepWorkers, "workers", runtime.NumCPU(), "Concurrent runs")
	sweepCmd.Flags().DurationVar(&sweepTimeout, "timeout", 100*time.Second, "Per-run timeout (0 disables)")
	sweepCmd.Flags().IntVar(&sweepAttempts, "attempts", 5, "Attempts per run before the sweep fails")
	sweepCmd.Flags().StringVar(&sweepOut, "out", "", "Append CSV rows to this file (header written when new); stdout when empty")
	sweepCmd.Flags().StringVar(&sweepPlan, "plan", "", "YAML file listing parameter sets; overrides the list flags")
	sweepCmd.Flags().StringSliceVar(&sweepHeuristics, "heuristics", []string{string(sweep.HeuristicFlower)}, "Clustering heuristics to compare (flower, tocs); each sees the same seeds")

	sweepCmd.Flags().IntSliceVar(&sweepSegments, "segment-list", nil, "Segment counts to sweep")
	sweepCmd.Flags().IntSliceVar(&sweepMDCs, "mdc-list", nil, "Collector counts to sweep")
	sweepCmd.Flags().Float64SliceVar(&sweepMeans, "traffic-mean-list", nil, "Traffic means to sweep (Mb)")
	sweepCmd.Flags().Float64SliceVar(&sweepStdDevs, "traffic-stdev-list", nil, "Traffic stddevs to sweep (Mb)")
	sweepCmd.Flags().Float64SliceVar(&sweepRanges, "range-list", nil, "Radio ranges to sweep (m)")
	sweepEnv.register(sweepCmd)
}
