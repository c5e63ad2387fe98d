// Package sweep runs many independent simulations per parameter set in
// parallel and averages their metrics.
//
// Every run owns its own sim.RunContext, so runs share no mutable state.
// A run that fails or exceeds its timeout is abandoned and replaced with a
// run on a fresh seed, up to Config.MaxAttempts times per run slot.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/wsn-sims/mdcsim/sim"
	"github.com/wsn-sims/mdcsim/sim/flower"
	"github.com/wsn-sims/mdcsim/sim/report"
	"github.com/wsn-sims/mdcsim/sim/tocs"
)

// ErrExhausted is returned when a run slot used up all of its attempts.
var ErrExhausted = errors.New("run attempts exhausted")

// ErrTimeout marks a run abandoned after Config.Timeout.
var ErrTimeout = errors.New("run timed out")

// ErrPanic marks a run that panicked. The run is discarded like a failed one.
var ErrPanic = errors.New("run panicked")

// Heuristic names a clustering algorithm.
type Heuristic string

const (
	HeuristicFlower Heuristic = "flower"
	HeuristicToCS   Heuristic = "tocs"
)

var validHeuristics = map[Heuristic]bool{
	HeuristicFlower: true,
	HeuristicToCS:   true,
}

// IsValidHeuristic reports whether name is a known heuristic.
func IsValidHeuristic(name string) bool {
	return validHeuristics[Heuristic(name)]
}

// Params is one point of a parameter sweep. Nil fields keep the base
// environment's value; a set field applies even when it is zero.
type Params struct {
	SegmentCount  *int     `yaml:"segment_count"`
	MDCCount      *int     `yaml:"mdc_count"`
	TrafficMean   *float64 `yaml:"traffic_mean"`
	TrafficStdDev *float64 `yaml:"traffic_stdev"`
	CommsRange    *float64 `yaml:"comms_range"`
}

// Apply returns env with the set fields of p applied.
func (p Params) Apply(env sim.Environment) sim.Environment {
	if p.SegmentCount != nil {
		env.SegmentCount = *p.SegmentCount
	}
	if p.MDCCount != nil {
		env.MDCCount = *p.MDCCount
	}
	if p.TrafficMean != nil {
		env.TrafficMean = *p.TrafficMean
	}
	if p.TrafficStdDev != nil {
		env.TrafficStdDev = *p.TrafficStdDev
	}
	if p.CommsRange != nil {
		env.CommsRange = *p.CommsRange
	}
	return env
}

func (p Params) String() string {
	var parts []string
	add := func(name string, v string) { parts = append(parts, name+"="+v) }
	if p.SegmentCount != nil {
		add("segment_count", strconv.Itoa(*p.SegmentCount))
	}
	if p.MDCCount != nil {
		add("mdc_count", strconv.Itoa(*p.MDCCount))
	}
	if p.TrafficMean != nil {
		add("traffic_mean", formatFloat(*p.TrafficMean))
	}
	if p.TrafficStdDev != nil {
		add("traffic_stdev", formatFloat(*p.TrafficStdDev))
	}
	if p.CommsRange != nil {
		add("comms_range", formatFloat(*p.CommsRange))
	}
	return "{" + strings.Join(parts, " ") + "}"
}

// Outcome is the result of one successful run.
type Outcome struct {
	ID        uuid.UUID
	Seed      int64
	Heuristic Heuristic
	// Mode is the flower pre-check branch; empty for other heuristics.
	Mode    string
	Results report.Results
}

// RunFunc executes one simulation.
type RunFunc func(h Heuristic, env sim.Environment, seed int64) (Outcome, error)

// Simulate runs one complete simulation with heuristic h: placement,
// clustering and the final report.
func Simulate(h Heuristic, env sim.Environment, seed int64) (Outcome, error) {
	if err := env.Validate(); err != nil {
		return Outcome{}, err
	}
	run := sim.NewRunContext(env, seed)
	scenario, err := sim.NewScenario(run)
	if err != nil {
		return Outcome{}, err
	}

	var (
		partition sim.Partition
		mode      string
		relay     = report.RelayAnchored
	)
	switch h {
	case HeuristicFlower:
		opt, err := flower.New(run, scenario, flower.Config{})
		if err != nil {
			return Outcome{}, err
		}
		res, err := opt.Run()
		if err != nil {
			return Outcome{}, err
		}
		partition, mode = res.Partition, string(res.Mode)
	case HeuristicToCS:
		opt, err := tocs.New(run, scenario)
		if err != nil {
			return Outcome{}, err
		}
		res, err := opt.Run()
		if err != nil {
			return Outcome{}, err
		}
		partition, relay = res.Partition, report.RelayRendezvous
	default:
		return Outcome{}, fmt.Errorf("unknown heuristic %q", h)
	}

	runner, err := report.NewWithRelay(run.Env, scenario, partition, relay)
	if err != nil {
		return Outcome{}, err
	}
	metrics, err := runner.Results()
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{ID: uuid.New(), Seed: seed, Heuristic: h, Mode: mode, Results: metrics}, nil
}

// Config controls a sweep.
type Config struct {
	Base        sim.Environment
	Runs        int           // successful runs per parameter set
	Workers     int           // concurrent runs
	Timeout     time.Duration // per run; 0 disables
	MaxAttempts int           // per run slot
	Seed        int64         // first seed; later seeds are derived from it
	// Heuristics run on every parameter set; flower alone when empty.
	// Run slots share seeds across heuristics so they see the same scenarios.
	Heuristics []Heuristic
	// Run replaces Simulate, mainly for tests.
	Run RunFunc
}

// Validate checks that all fields are usable.
func (c *Config) Validate() error {
	if c.Runs < 1 {
		return fmt.Errorf("runs must be positive, got %d", c.Runs)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be positive, got %d", c.MaxAttempts)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative, got %v", c.Timeout)
	}
	for _, h := range c.Heuristics {
		if !validHeuristics[h] {
			return fmt.Errorf("unknown heuristic %q; valid: flower, tocs", h)
		}
	}
	return nil
}

// Row is the averaged outcome of one heuristic on one parameter set. Env is
// the effective environment, base values included.
type Row struct {
	Heuristic Heuristic
	Env       sim.Environment
	Summary   Summary
	Outcomes  []Outcome
}

// Sweep runs cfg.Runs successful simulations for every heuristic and
// parameter set. Rows are ordered by parameter set, then heuristic.
// It fails as soon as any run slot exhausts its attempts or ctx is done.
func Sweep(ctx context.Context, cfg Config, params []Params) ([]Row, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	runFn := cfg.Run
	if runFn == nil {
		runFn = Simulate
	}
	heuristics := cfg.Heuristics
	if len(heuristics) == 0 {
		heuristics = []Heuristic{HeuristicFlower}
	}

	rows := make([]Row, 0, len(params)*len(heuristics))
	for _, p := range params {
		for _, h := range heuristics {
			rows = append(rows, Row{Heuristic: h, Env: p.Apply(cfg.Base), Outcomes: make([]Outcome, cfg.Runs)})
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for pi, p := range params {
		for hi, h := range heuristics {
			row := &rows[pi*len(heuristics)+hi]
			for slot := 0; slot < cfg.Runs; slot++ {
				first := cfg.Seed + int64((pi*cfg.Runs+slot)*cfg.MaxAttempts)
				p, h, slot := p, h, slot // per-iteration copies (go < 1.22 loop semantics)
				g.Go(func() error {
					out, err := runSlot(ctx, cfg, runFn, h, row.Env, first)
					if err != nil {
						return fmt.Errorf("%s params %v run %d: %w", h, p, slot, err)
					}
					row.Outcomes[slot] = out
					return nil
				})
			}
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := range rows {
		rows[i].Summary = Average(rows[i].Outcomes)
	}
	return rows, nil
}

// runSlot tries consecutive seeds until one run succeeds.
func runSlot(ctx context.Context, cfg Config, runFn RunFunc, h Heuristic, env sim.Environment, first int64) (Outcome, error) {
	var last error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}
		seed := first + int64(attempt)
		out, err := attemptRun(ctx, cfg.Timeout, runFn, h, env, seed)
		if err == nil {
			logrus.Debugf("%s run %s (seed %d) finished", h, out.ID, seed)
			return out, nil
		}
		if ctx.Err() != nil {
			return Outcome{}, ctx.Err()
		}
		logrus.Warnf("abandoning %s run with seed %d: %v", h, seed, err)
		last = err
	}
	return Outcome{}, fmt.Errorf("%w after %d attempts: %w", ErrExhausted, cfg.MaxAttempts, last)
}

// attemptRun executes runFn on its own goroutine and gives up after timeout.
// An abandoned run is left to finish in the background; its result is
// discarded. A panic in runFn becomes an ErrPanic failure.
func attemptRun(ctx context.Context, timeout time.Duration, runFn RunFunc, h Heuristic, env sim.Environment, seed int64) (Outcome, error) {
	type result struct {
		out Outcome
		err error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if v := recover(); v != nil {
				done <- result{err: fmt.Errorf("%w: %v", ErrPanic, v)}
			}
		}()
		out, err := runFn(h, env, seed)
		done <- result{out, err}
	}()

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case r := <-done:
		if r.err != nil {
			return Outcome{}, r.err
		}
		if r.out.ID == uuid.Nil {
			r.out.ID = uuid.New()
		}
		r.out.Seed = seed
		r.out.Heuristic = h
		return r.out, nil
	case <-expired:
		return Outcome{}, fmt.Errorf("%w after %v", ErrTimeout, timeout)
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}
