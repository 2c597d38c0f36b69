package pipeline

import (
	"context"
	"log"
	"strings"

	"doc-agent-be/pkg/llm"
)

// ClarificationFallbackMessage is used when the clarification prompt
// itself cannot be generated.
const ClarificationFallbackMessage = "I'm not sure I understand your question. Could you please rephrase it or provide more details?"

// ClarificationStage asks the user to restate an ambiguous question.
type ClarificationStage struct {
	llmProvider llm.LLMProvider
	logger      *log.Logger
}

func NewClarificationStage(llmProvider llm.LLMProvider, logger *log.Logger) *ClarificationStage {
	return &ClarificationStage{
		llmProvider: llmProvider,
		logger:      logger,
	}
}

func (s *ClarificationStage) Run(ctx context.Context, state *State) error {
	var prompt strings.Builder
	prompt.WriteString("The user's question seems unclear or ambiguous:\n\n")
	prompt.WriteString("User Question: ")
	prompt.WriteString(state.UserMessage)
	prompt.WriteString("\n\nPlease ask for clarification to better understand what they're looking for.\n")
	prompt.WriteString("Be specific about what additional information would help you provide a better answer.")

	response, err := s.llmProvider.Generate(ctx, prompt.String(), llm.WithTemperature(0.1))
	if err != nil {
		s.logger.Printf("[CLARIFY] Generation failed, using fixed fallback: %v", err)
		response = ClarificationFallbackMessage
	}

	state.Response = response
	state.Sources = []string{}
	state.CurrentStep = StepClarificationRequested
	return nil
}
