package sim

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wsn-sims/mdcsim/sim/tour"
)

// Environment holds the tunable constants of one run. It is built once and
// passed by reference to every component that needs it.
type Environment struct {
	SegmentCount int `yaml:"segment_count"`
	MDCCount     int `yaml:"mdc_count"` // regular clusters + hub

	TrafficMean   float64 `yaml:"traffic_mean"`  // Mb per ordered segment pair
	TrafficStdDev float64 `yaml:"traffic_stdev"` // Mb
	CommsRange    float64 `yaml:"comms_range"`   // meters

	MoveCost  float64 `yaml:"move_cost"`  // J/m
	MDCSpeed  float64 `yaml:"mdc_speed"`  // m/s
	CommsRate float64 `yaml:"comms_rate"` // Mb/s
	CommsCost float64 `yaml:"comms_cost"` // J/Mb

	GridWidth  float64 `yaml:"grid_width"`  // meters, placement only
	GridHeight float64 `yaml:"grid_height"` // meters, placement only

	UseCells           bool    `yaml:"use_cells"`            // cluster grid cells instead of raw segments
	InteriorScaling    string  `yaml:"interior_scaling"`     // "clamp" (default) or "always"
	MaxRebalanceRounds int     `yaml:"max_rebalance_rounds"` // hill-climbing cap
	DominanceRatio     float64 `yaml:"dominance_ratio"`      // lhs >> rhs when rhs/lhs < ratio
}

// DefaultEnvironment returns the reference parameter set.
func DefaultEnvironment() Environment {
	return Environment{
		SegmentCount:       30,
		MDCCount:           9,
		TrafficMean:        4,
		TrafficStdDev:      3,
		CommsRange:         100,
		MoveCost:           1,
		MDCSpeed:           1,
		CommsRate:          0.1,
		CommsCost:          2,
		GridWidth:          1200,
		GridHeight:         1200,
		InteriorScaling:    string(tour.ScaleClamp),
		MaxRebalanceRounds: 100,
		DominanceRatio:     0.2,
	}
}

// TourOptions returns the tour engine options for clusters of this run.
func (e *Environment) TourOptions(radioRange float64) tour.Options {
	return tour.Options{RadioRange: radioRange, Scaling: tour.Scaling(e.InteriorScaling)}
}

// Validate checks that all fields are usable.
func (e *Environment) Validate() error {
	if e.SegmentCount < 1 {
		return fmt.Errorf("segment_count must be positive, got %d", e.SegmentCount)
	}
	if e.MDCCount < 2 {
		return fmt.Errorf("mdc_count must be at least 2, got %d", e.MDCCount)
	}
	if e.TrafficStdDev < 0 {
		return fmt.Errorf("traffic_stdev must be non-negative, got %f", e.TrafficStdDev)
	}
	if e.CommsRange < 0 {
		return fmt.Errorf("comms_range must be non-negative, got %f", e.CommsRange)
	}
	if e.UseCells && e.CommsRange == 0 {
		return fmt.Errorf("comms_range must be positive when use_cells is set")
	}
	for name, v := range map[string]float64{
		"mdc_speed":   e.MDCSpeed,
		"comms_rate":  e.CommsRate,
		"grid_width":  e.GridWidth,
		"grid_height": e.GridHeight,
	} {
		if v <= 0 {
			return fmt.Errorf("%s must be positive, got %f", name, v)
		}
	}
	if e.MoveCost < 0 || e.CommsCost < 0 {
		return fmt.Errorf("move_cost and comms_cost must be non-negative, got %f and %f", e.MoveCost, e.CommsCost)
	}
	if !tour.IsValidScaling(e.InteriorScaling) {
		return fmt.Errorf("unknown interior_scaling %q; valid: clamp, always", e.InteriorScaling)
	}
	if e.MaxRebalanceRounds < 1 {
		return fmt.Errorf("max_rebalance_rounds must be positive, got %d", e.MaxRebalanceRounds)
	}
	if e.DominanceRatio <= 0 || e.DominanceRatio >= 1 {
		return fmt.Errorf("dominance_ratio must be in (0, 1), got %f", e.DominanceRatio)
	}
	return nil
}

// LoadEnvironment reads a YAML environment file on top of DefaultEnvironment.
// Unknown keys are rejected.
func LoadEnvironment(path string) (Environment, error) {
	env := DefaultEnvironment()
	data, err := os.ReadFile(path)
	if err != nil {
		return env, fmt.Errorf("reading environment: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&env); err != nil && !errors.Is(err, io.EOF) {
		return env, fmt.Errorf("parsing environment: %w", err)
	}
	return env, nil
}
