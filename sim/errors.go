package sim

import "errors"

// Error kinds surfaced by the engine. A run that returns one of them
// produced no result; sweeps replace such runs with fresh seeds.
var (
	// ErrCluster signals a structural violation such as removing a node that
	// is not a member.
	ErrCluster = errors.New("cluster violation")

	// ErrLookup signals a query for an unknown node or cluster id.
	ErrLookup = errors.New("unknown id")

	// ErrNumeric signals a NaN or infinite metric, usually a disconnected
	// movement graph.
	ErrNumeric = errors.New("non-finite metric")

	// ErrDivergence signals an optimizer that was still changing the
	// partition after Env.MaxRebalanceRounds rounds.
	ErrDivergence = errors.New("optimization diverged")
)
