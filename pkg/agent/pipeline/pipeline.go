package pipeline

import (
	"context"
	"fmt"
	"log"

	"doc-agent-be/pkg/llm"

	"github.com/google/uuid"
)

// Result is what one pipeline run hands back to the caller. ProcessMessage
// always produces one; failures surface as the response text plus an
// "error" metadata key, never as a Go error.
type Result struct {
	Response string
	Sources  []string
	Metadata map[string]interface{}
}

// Executor runs a message through the full pipeline:
// input → intent → route → {rag | code analysis | clarification} →
// code formatting → memory.
type Executor struct {
	classifier *Classifier
	rag        *RagStage
	code       *CodeAnalysisStage
	clarify    *ClarificationStage
	logger     *log.Logger
}

func NewExecutor(llmProvider llm.LLMProvider, retriever Retriever, logger *log.Logger) *Executor {
	rag := NewRagStage(llmProvider, retriever, logger)
	return &Executor{
		classifier: NewClassifier(llmProvider, logger),
		rag:        rag,
		code:       NewCodeAnalysisStage(llmProvider, retriever, rag, logger),
		clarify:    NewClarificationStage(llmProvider, logger),
		logger:     logger,
	}
}

// ProcessMessage runs the pipeline for one user message. It never
// returns an error: anything unrecoverable becomes an error response
// with the cause in the result metadata.
func (e *Executor) ProcessMessage(ctx context.Context, sessionID uuid.UUID, message string, history []llm.Message) *Result {
	state := &State{
		SessionID:   sessionID,
		History:     history,
		Sources:     []string{},
		CurrentStep: StepStarted,
	}

	if err := e.run(ctx, state, message); err != nil {
		e.logger.Printf("[PIPELINE] Processing failed for session %s: %v", sessionID, err)
		return &Result{
			Response: fmt.Sprintf("Error processing your message: %v", err),
			Sources:  []string{},
			Metadata: map[string]interface{}{"error": err.Error()},
		}
	}

	return &Result{
		Response: state.Response,
		Sources:  state.Sources,
		Metadata: map[string]interface{}{
			"intent":                 state.Intent.String(),
			"current_step":           state.CurrentStep,
			"retrieved_chunks_count": len(state.Retrieved),
		},
	}
}

func (e *Executor) run(ctx context.Context, state *State, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	state.UserMessage = message
	state.CurrentStep = StepInputReceived

	state.Intent = e.classifier.Classify(ctx, state.UserMessage, state.History)
	state.CurrentStep = StepIntentAnalyzed

	state.NextStage = Route(state.Intent)
	state.CurrentStep = StepRouted
	e.logger.Printf("[PIPELINE] Intent %s routed to stage %s", state.Intent, state.NextStage)

	var err error
	switch state.NextStage {
	case StageCodeAnalysis:
		err = e.code.Run(ctx, state)
	case StageClarification:
		err = e.clarify.Run(ctx, state)
	default:
		err = e.rag.Run(ctx, state)
	}
	if err != nil {
		return err
	}

	FormatCodeBlocks(state)
	UpdateMemory(state)
	return nil
}
