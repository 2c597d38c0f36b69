package pipeline

import (
	"doc-agent-be/pkg/llm"
	"doc-agent-be/pkg/store"

	"github.com/google/uuid"
)

// Step markers recorded on the state as it moves through the pipeline.
const (
	StepStarted                = "started"
	StepInputReceived          = "input_received"
	StepIntentAnalyzed         = "intent_analyzed"
	StepRouted                 = "routed"
	StepRagCompleted           = "rag_completed"
	StepCodeAnalysisCompleted  = "code_analysis_completed"
	StepClarificationRequested = "clarification_requested"
	StepCodeFormatted          = "code_formatted"
	StepMemoryUpdated          = "memory_updated"
)

// State carries one message through the pipeline. Every stage mutates it
// in place and stamps CurrentStep before handing it on.
type State struct {
	SessionID   uuid.UUID
	UserMessage string
	History     []llm.Message

	Intent    Intent
	NextStage Stage

	Retrieved []store.Retrieved
	Response  string
	Sources   []string

	CurrentStep string
	Memory      MemoryRecord
}

// MemoryRecord summarizes the exchange after the response is final.
type MemoryRecord struct {
	LastUserMessage       string
	LastAssistantResponse string
	ConversationLength    int
}
