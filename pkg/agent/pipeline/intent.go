package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"

	"doc-agent-be/pkg/llm"
)

// Intent is the resolved category of a user message.
type Intent int

const (
	// IntentGeneralQuestion is the default and the fallback for anything
	// the classifier cannot place.
	IntentGeneralQuestion Intent = iota
	IntentCodeQuestion
	IntentFollowUp
	IntentClarificationNeeded
)

func (i Intent) String() string {
	switch i {
	case IntentCodeQuestion:
		return "CODE_QUESTION"
	case IntentFollowUp:
		return "FOLLOW_UP"
	case IntentClarificationNeeded:
		return "CLARIFICATION_NEEDED"
	default:
		return "GENERAL_QUESTION"
	}
}

// ParseIntent maps a classifier label to its Intent. Unknown labels
// report false and the caller is expected to fall back to
// IntentGeneralQuestion.
func ParseIntent(s string) (Intent, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "GENERAL_QUESTION":
		return IntentGeneralQuestion, true
	case "CODE_QUESTION":
		return IntentCodeQuestion, true
	case "FOLLOW_UP":
		return IntentFollowUp, true
	case "CLARIFICATION_NEEDED":
		return IntentClarificationNeeded, true
	default:
		return IntentGeneralQuestion, false
	}
}

// Classifier performs pure LLM-based intent classification.
// No retrieval happens here, just understanding.
type Classifier struct {
	llmProvider llm.LLMProvider
	logger      *log.Logger
}

func NewClassifier(llmProvider llm.LLMProvider, logger *log.Logger) *Classifier {
	return &Classifier{
		llmProvider: llmProvider,
		logger:      logger,
	}
}

// Classify resolves the intent of the user message given recent history.
// Classification never fails the pipeline: on any error or unrecognized
// label it silently falls back to IntentGeneralQuestion.
func (c *Classifier) Classify(ctx context.Context, message string, history []llm.Message) Intent {
	prompt := c.buildPrompt(message, history)

	response, err := c.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.1))
	if err != nil {
		c.logger.Printf("[INTENT] Classification failed, falling back to GENERAL_QUESTION: %v", err)
		return IntentGeneralQuestion
	}

	intent, ok := ParseIntent(response)
	if !ok {
		c.logger.Printf("[INTENT] Unrecognized label %q, falling back to GENERAL_QUESTION", strings.TrimSpace(response))
		return IntentGeneralQuestion
	}

	c.logger.Printf("[INTENT] Resolved: %s", intent)
	return intent
}

func (c *Classifier) buildPrompt(message string, history []llm.Message) string {
	// Only the last few exchanges matter for classification.
	var context string
	if len(history) > 0 {
		recent := history
		if len(recent) > 3 {
			recent = recent[len(recent)-3:]
		}
		lines := make([]string, len(recent))
		for i, msg := range recent {
			lines[i] = fmt.Sprintf("%s: %s", msg.Role, msg.Content)
		}
		context = strings.Join(lines, "\n")
	}

	var prompt strings.Builder
	prompt.WriteString("Analyze the user's intent based on their message and conversation context.\n\n")
	prompt.WriteString("Conversation Context:\n")
	prompt.WriteString(context)
	prompt.WriteString("\n\nUser Message: ")
	prompt.WriteString(message)
	prompt.WriteString("\n\nClassify the intent into one of these categories:\n")
	prompt.WriteString("1. GENERAL_QUESTION - General questions about the documentation\n")
	prompt.WriteString("2. CODE_QUESTION - Questions about specific code or implementation\n")
	prompt.WriteString("3. FOLLOW_UP - Follow-up questions that reference previous conversation\n")
	prompt.WriteString("4. CLARIFICATION_NEEDED - Unclear or ambiguous questions\n\n")
	prompt.WriteString("Respond with only the category name.")

	return prompt.String()
}
