// Package trace provides decision-trace recording for the clustering optimizer.
// This package has no dependencies on sim/ or its other sub-packages; it
// stores pure data types.
package trace

// TransitionRecord captures one optimizer state change.
type TransitionRecord struct {
	From string
	To   string
}

// MergeRecord captures one virtual-merge decision.
type MergeRecord struct {
	Round    int
	Left     int // id of the cluster whose tour cost is the baseline
	Right    int
	Merged   int
	Cost     float64 // tour length increase paid for the merge
	Remained int     // virtual clusters left after the merge
}

// ExpansionRecord captures one greedy-expansion round.
type ExpansionRecord struct {
	Round     int
	ClusterID int
	NodeID    int64 // -1 when no node was added
	Energy    float64
	Completed bool
	Reason    string
}

// MoveRecord captures one single-point move tried by rebalancing or the
// local swap, whether or not it was kept.
type MoveRecord struct {
	Round         int
	Phase         string
	NodeID        int64
	FromCluster   int
	ToCluster     int
	BalanceBefore float64
	BalanceAfter  float64
	Accepted      bool
}

// Improvement returns the balance reduction of the move (negative when the
// move made things worse).
func (m MoveRecord) Improvement() float64 {
	return m.BalanceBefore - m.BalanceAfter
}
