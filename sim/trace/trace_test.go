package trace

import (
	"testing"
)

func TestOptimizerTrace_RecordMerge_AppendsRecord(t *testing.T) {
	// GIVEN a trace configured for decisions
	ot := NewOptimizerTrace(TraceConfig{Level: TraceLevelDecisions})

	// WHEN a merge record is recorded
	ot.RecordMerge(MergeRecord{Round: 1, Left: 3, Right: 4, Merged: 12, Cost: 7.5, Remained: 8})

	// THEN the trace contains one merge record with correct data
	if len(ot.Merges) != 1 {
		t.Fatalf("expected 1 merge, got %d", len(ot.Merges))
	}
	if ot.Merges[0].Merged != 12 {
		t.Errorf("expected merged id 12, got %d", ot.Merges[0].Merged)
	}
	if ot.Merges[0].Cost != 7.5 {
		t.Errorf("expected cost 7.5, got %f", ot.Merges[0].Cost)
	}
}

func TestOptimizerTrace_RecordMove_AppendsRecord(t *testing.T) {
	// GIVEN a trace configured for decisions
	ot := NewOptimizerTrace(TraceConfig{Level: TraceLevelDecisions})

	// WHEN a rejected move is recorded
	ot.RecordMove(MoveRecord{
		Round:         2,
		Phase:         "rebalance",
		NodeID:        17,
		FromCluster:   0,
		ToCluster:     8,
		BalanceBefore: 10,
		BalanceAfter:  12,
		Accepted:      false,
	})

	// THEN the trace holds it with a negative improvement
	if len(ot.Moves) != 1 {
		t.Fatalf("expected 1 move, got %d", len(ot.Moves))
	}
	if ot.Moves[0].Accepted {
		t.Error("expected accepted=false")
	}
	if got := ot.Moves[0].Improvement(); got != -2 {
		t.Errorf("expected improvement -2, got %f", got)
	}
}

func TestOptimizerTrace_RecordTransitionAndExpansion(t *testing.T) {
	ot := NewOptimizerTrace(TraceConfig{Level: TraceLevelDecisions})

	ot.RecordTransition(TransitionRecord{From: "init", To: "virtual-merge"})
	ot.RecordExpansion(ExpansionRecord{Round: 1, ClusterID: 2, NodeID: 5})

	if len(ot.Transitions) != 1 || ot.Transitions[0].To != "virtual-merge" {
		t.Errorf("unexpected transitions %+v", ot.Transitions)
	}
	if len(ot.Expansions) != 1 || ot.Expansions[0].NodeID != 5 {
		t.Errorf("unexpected expansions %+v", ot.Expansions)
	}
}

func TestIsValidTraceLevel(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"none", true},
		{"decisions", true},
		{"", true},
		{"verbose", false},
	}
	for _, tt := range tests {
		if got := IsValidTraceLevel(tt.level); got != tt.valid {
			t.Errorf("IsValidTraceLevel(%q) = %v, want %v", tt.level, got, tt.valid)
		}
	}
}
