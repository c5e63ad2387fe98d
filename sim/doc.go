// Package sim provides the core model for the mdcsim mobile data collector
// simulator.
//
// # Reading Guide
//
// Start with these files to understand the model:
//   - run.go: RunContext, the per-run owner of config, RNG and id allocation
//   - scenario.go: segment placement, nodes and the traffic matrix
//   - cluster.go: clusters, their roles, and the Partition view
//   - energy.go: movement and communication energy of a cluster
//
// # Architecture
//
// The sim package defines the shared types; algorithms live in sub-packages:
//   - sim/geom/: 2D points, centroids, projections, convex hull
//   - sim/tour/: collection tour construction over a point set
//   - sim/grid/: grid cells and the segment set cover for cell mode
//   - sim/flower/: the clustering optimizer state machine
//   - sim/movement/: shortest routes over the union of cluster tours
//   - sim/report/: delay, energy and buffer metrics of a finished run
//   - sim/trace/: decision trace recording for the optimizer
//   - sim/sweep/: parallel independent runs and CSV output
//   - sim/render/: PNG plots of tours
//
// A run is: NewRunContext → NewScenario → flower.New(...).Run() →
// report.New(...). Every run owns its own RunContext, so concurrent runs
// share nothing.
package sim
