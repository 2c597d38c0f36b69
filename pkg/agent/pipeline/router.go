package pipeline

// Stage names the processing branch a message is routed to.
type Stage string

const (
	StageRag           Stage = "rag"
	StageCodeAnalysis  Stage = "code_analysis"
	StageClarification Stage = "clarification"
)

// Route maps an intent to its processing stage. It is a pure function:
// the same intent always routes to the same stage.
func Route(intent Intent) Stage {
	switch intent {
	case IntentCodeQuestion:
		return StageCodeAnalysis
	case IntentClarificationNeeded:
		return StageClarification
	default:
		// GENERAL_QUESTION and FOLLOW_UP share the retrieval stage; the
		// conversation history gives follow-ups their context.
		return StageRag
	}
}
