package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wsn-sims/mdcsim/sim"
	"github.com/wsn-sims/mdcsim/sim/flower"
	"github.com/wsn-sims/mdcsim/sim/render"
	"github.com/wsn-sims/mdcsim/sim/report"
	"github.com/wsn-sims/mdcsim/sim/sweep"
	"github.com/wsn-sims/mdcsim/sim/tocs"
	"github.com/wsn-sims/mdcsim/sim/trace"
)

var (
	seed       int64  // Seed for segment placement and traffic
	logLevel   string // Log verbosity level
	traceLevel string // Optimizer decision trace level
	plotPath   string // Where to render the final tours; empty disables
	heuristic  string // Clustering heuristic

	runEnv envFlags
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "mdcsim",
	Short: "Mobile data collector routing and energy simulator",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q", logLevel)
		}
		logrus.SetLevel(level)
		return nil
	},
}

// runOptions are the non-environment settings of one run.
type runOptions struct {
	Seed       int64
	Heuristic  sweep.Heuristic // flower when empty
	TraceLevel string          // flower only
	PlotPath   string
}

// simulate runs one complete simulation and prints its metrics to w.
func simulate(w io.Writer, env sim.Environment, opts runOptions) error {
	run := sim.NewRunContext(env, opts.Seed)
	scenario, err := sim.NewScenario(run)
	if err != nil {
		return fmt.Errorf("building scenario: %w", err)
	}

	var (
		partition sim.Partition
		relay     = report.RelayAnchored
		decisions *trace.OptimizerTrace
	)
	switch opts.Heuristic {
	case sweep.HeuristicFlower, "":
		opt, err := flower.New(run, scenario, flower.Config{TraceLevel: opts.TraceLevel})
		if err != nil {
			return err
		}
		res, err := opt.Run()
		if err != nil {
			return fmt.Errorf("clustering: %w", err)
		}
		logrus.Infof("clustering finished in %s mode after %d moves, balance %.3f → %.3f",
			res.Mode, res.Rounds, res.BalanceBefore, res.BalanceAfter)
		partition, decisions = res.Partition, opt.Trace()
	case sweep.HeuristicToCS:
		opt, err := tocs.New(run, scenario)
		if err != nil {
			return err
		}
		res, err := opt.Run()
		if err != nil {
			return fmt.Errorf("clustering: %w", err)
		}
		logrus.Infof("clustering finished after %d rendezvous rounds, balance %.3f → %.3f",
			res.Rounds, res.BalanceBefore, res.BalanceAfter)
		partition, relay = res.Partition, report.RelayRendezvous
	default:
		return fmt.Errorf("unknown heuristic %q", opts.Heuristic)
	}

	runner, err := report.NewWithRelay(run.Env, scenario, partition, relay)
	if err != nil {
		return err
	}
	metrics, err := runner.Results()
	if err != nil {
		return fmt.Errorf("computing metrics: %w", err)
	}
	metrics.Print(w)

	if decisions != nil {
		printTraceSummary(w, trace.Summarize(decisions))
	}

	if opts.PlotPath != "" {
		if err := render.Tours(scenario, partition, opts.PlotPath); err != nil {
			return err
		}
		logrus.Infof("tours written to %s", opts.PlotPath)
	}
	return nil
}

func printTraceSummary(w io.Writer, s *trace.TraceSummary) {
	fmt.Fprintln(w, "=== Optimizer Trace ===")
	fmt.Fprintf(w, "States               : %v\n", s.States)
	fmt.Fprintf(w, "Merges               : %d (mean cost %.2f m)\n", s.TotalMerges, s.MeanMergeCost)
	fmt.Fprintf(w, "Expansions           : %d (%d nodes added)\n", s.TotalExpansions, s.NodesAdded)
	fmt.Fprintf(w, "Moves                : %d accepted, %d rejected\n", s.MovesAccepted, s.MovesRejected)
	if s.MovesAccepted > 0 {
		fmt.Fprintf(w, "Balance improvement  : mean %.3f, max %.3f\n", s.MeanImprovement, s.MaxImprovement)
	}
}

// runCmd executes one simulation using parameters from the config file and
// CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single simulation",
	Run: func(cmd *cobra.Command, args []string) {
		env, err := runEnv.environment(cmd)
		if err != nil {
			logrus.Fatalf("Invalid environment: %v", err)
		}
		if !trace.IsValidTraceLevel(traceLevel) {
			logrus.Fatalf("Unknown trace level %q; valid: none, decisions", traceLevel)
		}
		if !sweep.IsValidHeuristic(heuristic) {
			logrus.Fatalf("Unknown heuristic %q; valid: flower, tocs", heuristic)
		}

		logrus.Infof("Starting simulation with %d segments, %d collectors, seed %d",
			env.SegmentCount, env.MDCCount, seed)
		startTime := time.Now()

		opts := runOptions{Seed: seed, Heuristic: sweep.Heuristic(heuristic), TraceLevel: traceLevel, PlotPath: plotPath}
		if err := simulate(os.Stdout, env, opts); err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}

		logrus.Infof("Simulation complete in %s.", time.Since(startTime))
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")

	runCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for segment placement and traffic")
	runCmd.Flags().StringVar(&heuristic, "heuristic", string(sweep.HeuristicFlower), "Clustering heuristic (flower, tocs)")
	runCmd.Flags().StringVar(&traceLevel, "trace", string(trace.TraceLevelNone), "Optimizer trace level (none, decisions)")
	runCmd.Flags().StringVar(&plotPath, "plot", "", "Render the final tours to this file (png, svg, pdf)")
	runEnv.register(runCmd)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(sweepCmd)
}
