package cmd

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wsn-sims/mdcsim/sim/sweep"
)

// SweepPlan is the YAML file accepted by `mdcsim sweep --plan`.
type SweepPlan struct {
	Parameters []sweep.Params `yaml:"parameters"`
}

// loadSweepPlan reads a sweep plan with strict field checking, so typos in
// parameter names are errors rather than silently ignored.
func loadSweepPlan(path string) ([]sweep.Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sweep plan: %w", err)
	}
	var plan SweepPlan
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&plan); err != nil {
		return nil, fmt.Errorf("parsing sweep plan: %w", err)
	}
	if len(plan.Parameters) == 0 {
		return nil, fmt.Errorf("sweep plan %s lists no parameters", path)
	}
	return plan.Parameters, nil
}

// expandGrid returns the cartesian product of the given value lists, in
// order of segments, collectors, traffic mean, traffic stddev and range.
// An empty list leaves that field unset, keeping the base environment's
// value.
func expandGrid(segments, mdcs []int, means, stdevs, ranges []float64) []sweep.Params {
	var out []sweep.Params
	for _, s := range choices(segments) {
		for _, m := range choices(mdcs) {
			for _, mean := range choices(means) {
				for _, sd := range choices(stdevs) {
					for _, r := range choices(ranges) {
						out = append(out, sweep.Params{
							SegmentCount:  s,
							MDCCount:      m,
							TrafficMean:   mean,
							TrafficStdDev: sd,
							CommsRange:    r,
						})
					}
				}
			}
		}
	}
	return out
}

// choices returns a pointer to each value, or a single nil for an empty list.
func choices[T any](v []T) []*T {
	if len(v) == 0 {
		return []*T{nil}
	}
	out := make([]*T, len(v))
	for i := range v {
		out[i] = &v[i]
	}
	return out
}
