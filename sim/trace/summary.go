package trace

// TraceSummary aggregates statistics from an OptimizerTrace.
type TraceSummary struct {
	States          []string // visited states in order, starting with the first From
	TotalMerges     int
	MeanMergeCost   float64
	TotalExpansions int
	NodesAdded      int
	MovesAccepted   int
	MovesRejected   int
	MeanImprovement float64 // over accepted moves
	MaxImprovement  float64
	// GrowthDistribution maps cluster id → nodes added during expansion.
	GrowthDistribution map[int]int
}

// Summarize computes aggregate statistics from an OptimizerTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(ot *OptimizerTrace) *TraceSummary {
	summary := &TraceSummary{
		GrowthDistribution: make(map[int]int),
	}
	if ot == nil {
		return summary
	}

	for i, tr := range ot.Transitions {
		if i == 0 {
			summary.States = append(summary.States, tr.From)
		}
		summary.States = append(summary.States, tr.To)
	}

	summary.TotalMerges = len(ot.Merges)
	if len(ot.Merges) > 0 {
		total := 0.0
		for _, m := range ot.Merges {
			total += m.Cost
		}
		summary.MeanMergeCost = total / float64(len(ot.Merges))
	}

	summary.TotalExpansions = len(ot.Expansions)
	for _, e := range ot.Expansions {
		if e.NodeID >= 0 {
			summary.NodesAdded++
			summary.GrowthDistribution[e.ClusterID]++
		}
	}

	totalImprovement := 0.0
	for _, m := range ot.Moves {
		if !m.Accepted {
			summary.MovesRejected++
			continue
		}
		summary.MovesAccepted++
		imp := m.Improvement()
		totalImprovement += imp
		if imp > summary.MaxImprovement {
			summary.MaxImprovement = imp
		}
	}
	if summary.MovesAccepted > 0 {
		summary.MeanImprovement = totalImprovement / float64(summary.MovesAccepted)
	}

	return summary
}
