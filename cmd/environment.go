package cmd

import (
	"github.com/spf13/cobra"

	"github.com/wsn-sims/mdcsim/sim"
)

// envFlags holds the environment overrides shared by run and sweep.
// Flags only override the config file when set explicitly on the command
// line, checked with Flags().Changed.
type envFlags struct {
	config string

	segmentCount   int
	mdcCount       int
	trafficMean    float64
	trafficStdDev  float64
	commsRange     float64
	moveCost       float64
	mdcSpeed       float64
	commsRate      float64
	commsCost      float64
	gridWidth      float64
	gridHeight     float64
	useCells       bool
	scaling        string
	maxRounds      int
	dominanceRatio float64
}

func (f *envFlags) register(cmd *cobra.Command) {
	d := sim.DefaultEnvironment()
	fs := cmd.Flags()
	fs.StringVar(&f.config, "config", "", "YAML environment file; flags set explicitly override it")
	fs.IntVar(&f.segmentCount, "segments", d.SegmentCount, "Number of sensor segments")
	fs.IntVar(&f.mdcCount, "mdcs", d.MDCCount, "Number of mobile data collectors (regular clusters + hub)")
	fs.Float64Var(&f.trafficMean, "traffic-mean", d.TrafficMean, "Mean data volume per ordered segment pair (Mb)")
	fs.Float64Var(&f.trafficStdDev, "traffic-stdev", d.TrafficStdDev, "Stddev of the data volume per ordered segment pair (Mb)")
	fs.Float64Var(&f.commsRange, "comms-range", d.CommsRange, "Radio range (m)")
	fs.Float64Var(&f.moveCost, "move-cost", d.MoveCost, "Movement energy (J/m)")
	fs.Float64Var(&f.mdcSpeed, "mdc-speed", d.MDCSpeed, "Collector speed (m/s)")
	fs.Float64Var(&f.commsRate, "comms-rate", d.CommsRate, "Transmission rate (Mb/s)")
	fs.Float64Var(&f.commsCost, "comms-cost", d.CommsCost, "Communication energy (J/Mb)")
	fs.Float64Var(&f.gridWidth, "grid-width", d.GridWidth, "Field width (m)")
	fs.Float64Var(&f.gridHeight, "grid-height", d.GridHeight, "Field height (m)")
	fs.BoolVar(&f.useCells, "cells", d.UseCells, "Serve grid cells from a set cover instead of raw segments")
	fs.StringVar(&f.scaling, "scaling", d.InteriorScaling, "Interior collection point scaling (clamp, always)")
	fs.IntVar(&f.maxRounds, "max-rounds", d.MaxRebalanceRounds, "Rebalancing round cap")
	fs.Float64Var(&f.dominanceRatio, "dominance-ratio", d.DominanceRatio, "Ratio below which one energy term dominates the other")
}

// environment loads --config (or the defaults) and applies every flag the
// user set explicitly.
func (f *envFlags) environment(cmd *cobra.Command) (sim.Environment, error) {
	env := sim.DefaultEnvironment()
	if f.config != "" {
		loaded, err := sim.LoadEnvironment(f.config)
		if err != nil {
			return env, err
		}
		env = loaded
	}

	changed := cmd.Flags().Changed
	if changed("segments") {
		env.SegmentCount = f.segmentCount
	}
	if changed("mdcs") {
		env.MDCCount = f.mdcCount
	}
	if changed("traffic-mean") {
		env.TrafficMean = f.trafficMean
	}
	if changed("traffic-stdev") {
		env.TrafficStdDev = f.trafficStdDev
	}
	if changed("comms-range") {
		env.CommsRange = f.commsRange
	}
	if changed("move-cost") {
		env.MoveCost = f.moveCost
	}
	if changed("mdc-speed") {
		env.MDCSpeed = f.mdcSpeed
	}
	if changed("comms-rate") {
		env.CommsRate = f.commsRate
	}
	if changed("comms-cost") {
		env.CommsCost = f.commsCost
	}
	if changed("grid-width") {
		env.GridWidth = f.gridWidth
	}
	if changed("grid-height") {
		env.GridHeight = f.gridHeight
	}
	if changed("cells") {
		env.UseCells = f.useCells
	}
	if changed("scaling") {
		env.InteriorScaling = f.scaling
	}
	if changed("max-rounds") {
		env.MaxRebalanceRounds = f.maxRounds
	}
	if changed("dominance-ratio") {
		env.DominanceRatio = f.dominanceRatio
	}
	return env, env.Validate()
}
