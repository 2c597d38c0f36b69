package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"

	"doc-agent-be/pkg/llm"
	"doc-agent-be/pkg/store"
)

// NoRelevantInfoMessage is returned when the index has nothing close
// enough to ground an answer on. It short-circuits generation entirely.
const NoRelevantInfoMessage = "I couldn't find relevant information in the documentation to answer your question. Could you please rephrase or ask about a different topic?"

// Retriever is the slice of the store an answer stage needs.
// *store.Index satisfies it.
type Retriever interface {
	Query(ctx context.Context, text string, topK int) ([]store.Retrieved, error)
}

// RagStage answers general questions grounded on retrieved chunks.
type RagStage struct {
	llmProvider llm.LLMProvider
	retriever   Retriever
	logger      *log.Logger
}

func NewRagStage(llmProvider llm.LLMProvider, retriever Retriever, logger *log.Logger) *RagStage {
	return &RagStage{
		llmProvider: llmProvider,
		retriever:   retriever,
		logger:      logger,
	}
}

// Run retrieves the top chunks for the user message and generates an
// answer from them. Retrieval and generation errors become the response
// text; they never abort the pipeline.
func (s *RagStage) Run(ctx context.Context, state *State) error {
	results, err := s.retriever.Query(ctx, state.UserMessage, 5)
	if err != nil {
		s.logger.Printf("[RAG] Retrieval failed: %v", err)
		state.Response = fmt.Sprintf("Error retrieving information: %v", err)
		state.Sources = []string{}
		state.CurrentStep = StepRagCompleted
		return nil
	}

	if len(results) == 0 {
		state.Retrieved = []store.Retrieved{}
		state.Response = NoRelevantInfoMessage
		state.Sources = []string{}
		state.CurrentStep = StepRagCompleted
		return nil
	}

	contents := make([]string, len(results))
	for i, r := range results {
		contents[i] = r.Content
	}
	docContext := strings.Join(contents, "\n\n")

	var conversationContext string
	if len(state.History) > 0 {
		recent := state.History
		if len(recent) > 5 {
			recent = recent[len(recent)-5:]
		}
		lines := make([]string, len(recent))
		for i, msg := range recent {
			lines[i] = fmt.Sprintf("%s: %s", msg.Role, msg.Content)
		}
		conversationContext = strings.Join(lines, "\n")
	}

	var prompt strings.Builder
	prompt.WriteString("You are a helpful assistant that answers questions about technical documentation.\n\n")
	prompt.WriteString("Conversation History:\n")
	prompt.WriteString(conversationContext)
	prompt.WriteString("\n\nRelevant Documentation Context:\n")
	prompt.WriteString(docContext)
	prompt.WriteString("\n\nUser Question: ")
	prompt.WriteString(state.UserMessage)
	prompt.WriteString("\n\nPlease provide a comprehensive and accurate answer based on the documentation context.\n")
	prompt.WriteString("If the answer includes code, format it properly with markdown.\n")
	prompt.WriteString("If you're not sure about something, say so clearly.\n\nAnswer:")

	response, err := s.llmProvider.Generate(ctx, prompt.String(), llm.WithTemperature(0.1))
	if err != nil {
		s.logger.Printf("[RAG] Generation failed: %v", err)
		state.Response = fmt.Sprintf("Error retrieving information: %v", err)
		state.Sources = []string{}
		state.CurrentStep = StepRagCompleted
		return nil
	}

	state.Retrieved = results
	state.Response = response
	state.Sources = collectSources(results)
	state.CurrentStep = StepRagCompleted
	return nil
}

// CodeAnalysisStage answers code questions from a wider retrieval pass
// narrowed to code-bearing chunks. When no code chunks surface it
// delegates the whole message to the general stage.
type CodeAnalysisStage struct {
	llmProvider llm.LLMProvider
	retriever   Retriever
	rag         *RagStage
	logger      *log.Logger
}

func NewCodeAnalysisStage(llmProvider llm.LLMProvider, retriever Retriever, rag *RagStage, logger *log.Logger) *CodeAnalysisStage {
	return &CodeAnalysisStage{
		llmProvider: llmProvider,
		retriever:   retriever,
		rag:         rag,
		logger:      logger,
	}
}

func (s *CodeAnalysisStage) Run(ctx context.Context, state *State) error {
	results, err := s.retriever.Query(ctx, state.UserMessage, 10)
	if err != nil {
		s.logger.Printf("[CODE] Retrieval failed, delegating to general stage: %v", err)
		return s.rag.Run(ctx, state)
	}

	codeChunks := filterCodeChunks(results)
	if len(codeChunks) == 0 {
		s.logger.Printf("[CODE] No code chunks retrieved, delegating to general stage")
		return s.rag.Run(ctx, state)
	}

	contents := make([]string, len(codeChunks))
	for i, r := range codeChunks {
		contents[i] = r.Content
	}
	codeContext := strings.Join(contents, "\n\n")

	var prompt strings.Builder
	prompt.WriteString("You are a technical assistant specializing in code analysis and explanation.\n\n")
	prompt.WriteString("Code Context:\n")
	prompt.WriteString(codeContext)
	prompt.WriteString("\n\nUser Question: ")
	prompt.WriteString(state.UserMessage)
	prompt.WriteString("\n\nPlease provide a detailed explanation of the code, including:\n")
	prompt.WriteString("1. What the code does\n")
	prompt.WriteString("2. How it works\n")
	prompt.WriteString("3. Any important patterns or concepts\n")
	prompt.WriteString("4. Examples if relevant\n\n")
	prompt.WriteString("Format code blocks properly with markdown syntax highlighting.")

	response, err := s.llmProvider.Generate(ctx, prompt.String(), llm.WithTemperature(0.1))
	if err != nil {
		s.logger.Printf("[CODE] Generation failed, delegating to general stage: %v", err)
		return s.rag.Run(ctx, state)
	}

	state.Retrieved = codeChunks
	state.Response = response
	state.Sources = collectSources(codeChunks)
	state.CurrentStep = StepCodeAnalysisCompleted
	return nil
}

// filterCodeChunks keeps chunks that carry code: typed as code, mention
// code, or contain a fenced block.
func filterCodeChunks(results []store.Retrieved) []store.Retrieved {
	var filtered []store.Retrieved
	for _, r := range results {
		if r.Metadata.ChunkType == "code" ||
			strings.Contains(strings.ToLower(r.Content), "code") ||
			strings.Contains(r.Content, "```") {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// collectSources deduplicates chunk URLs preserving retrieval order.
func collectSources(results []store.Retrieved) []string {
	seen := make(map[string]struct{})
	sources := []string{}
	for _, r := range results {
		url := r.Metadata.URL
		if url == "" {
			continue
		}
		if _, ok := seen[url]; ok {
			continue
		}
		seen[url] = struct{}{}
		sources = append(sources, url)
	}
	return sources
}
