package trace

// TraceLevel controls the verbosity of decision tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelDecisions captures every merge, expansion and move decision.
	TraceLevelDecisions TraceLevel = "decisions"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:      true,
	TraceLevelDecisions: true,
	"":                  true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// OptimizerTrace collects decision records during one optimizer run.
type OptimizerTrace struct {
	Config      TraceConfig
	Transitions []TransitionRecord
	Merges      []MergeRecord
	Expansions  []ExpansionRecord
	Moves       []MoveRecord
}

// NewOptimizerTrace creates an OptimizerTrace ready for recording.
func NewOptimizerTrace(config TraceConfig) *OptimizerTrace {
	return &OptimizerTrace{
		Config:      config,
		Transitions: make([]TransitionRecord, 0),
		Merges:      make([]MergeRecord, 0),
		Expansions:  make([]ExpansionRecord, 0),
		Moves:       make([]MoveRecord, 0),
	}
}

// RecordTransition appends a state-change record.
func (ot *OptimizerTrace) RecordTransition(record TransitionRecord) {
	ot.Transitions = append(ot.Transitions, record)
}

// RecordMerge appends a virtual-merge record.
func (ot *OptimizerTrace) RecordMerge(record MergeRecord) {
	ot.Merges = append(ot.Merges, record)
}

// RecordExpansion appends a greedy-expansion record.
func (ot *OptimizerTrace) RecordExpansion(record ExpansionRecord) {
	ot.Expansions = append(ot.Expansions, record)
}

// RecordMove appends a rebalance or local-swap record.
func (ot *OptimizerTrace) RecordMove(record MoveRecord) {
	ot.Moves = append(ot.Moves, record)
}
