package pipeline

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"doc-agent-be/pkg/docs/chunker"
	"doc-agent-be/pkg/llm"
	"doc-agent-be/pkg/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLLM struct {
	generateFn    func(prompt string) (string, error)
	generateCalls int
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	f.generateCalls++
	if f.generateFn == nil {
		return "", errors.New("no generate function configured")
	}
	return f.generateFn(prompt)
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	if len(history) == 0 {
		return "", errors.New("empty history")
	}
	return f.Generate(ctx, history[len(history)-1].Content)
}

type fakeRetriever struct {
	queryFn func(text string, topK int) ([]store.Retrieved, error)
}

func (f *fakeRetriever) Query(ctx context.Context, text string, topK int) ([]store.Retrieved, error) {
	return f.queryFn(text, topK)
}

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// classifyThen answers the classification prompt with the given label and
// every other prompt with the given answer.
func classifyThen(label, answer string) func(string) (string, error) {
	return func(prompt string) (string, error) {
		if strings.Contains(prompt, "Classify the intent") {
			return label, nil
		}
		return answer, nil
	}
}

func textChunk(content, url string) store.Retrieved {
	return store.Retrieved{
		Content:  content,
		Metadata: chunker.Metadata{URL: url, ChunkType: "section"},
	}
}

func codeChunk(content, url string) store.Retrieved {
	return store.Retrieved{
		Content:  content,
		Metadata: chunker.Metadata{URL: url, ChunkType: "code"},
	}
}

func TestProcessMessageGeneralQuestion(t *testing.T) {
	llmFake := &fakeLLM{generateFn: classifyThen("GENERAL_QUESTION", "Routing is configured in app.go.\n```\napp.Get(\"/\")\n```")}
	retriever := &fakeRetriever{queryFn: func(text string, topK int) ([]store.Retrieved, error) {
		assert.Equal(t, 5, topK)
		return []store.Retrieved{
			textChunk("Routing overview", "https://docs.example.com/routing"),
			textChunk("Handlers", "https://docs.example.com/routing"),
			textChunk("Middleware", "https://docs.example.com/middleware"),
		}, nil
	}}

	executor := NewExecutor(llmFake, retriever, testLogger())
	result := executor.ProcessMessage(context.Background(), uuid.New(), "How does routing work?", nil)

	require.NotNil(t, result)
	// Untagged fence is normalized after generation.
	assert.Contains(t, result.Response, "```text\n")
	assert.Equal(t, []string{"https://docs.example.com/routing", "https://docs.example.com/middleware"}, result.Sources)
	assert.Equal(t, "GENERAL_QUESTION", result.Metadata["intent"])
	assert.Equal(t, StepMemoryUpdated, result.Metadata["current_step"])
	assert.Equal(t, 3, result.Metadata["retrieved_chunks_count"])
}

func TestProcessMessageNoChunksSkipsGeneration(t *testing.T) {
	llmFake := &fakeLLM{generateFn: classifyThen("GENERAL_QUESTION", "should never be asked")}
	retriever := &fakeRetriever{queryFn: func(text string, topK int) ([]store.Retrieved, error) {
		return nil, nil
	}}

	executor := NewExecutor(llmFake, retriever, testLogger())
	result := executor.ProcessMessage(context.Background(), uuid.New(), "Anything about quasars?", nil)

	assert.Equal(t, NoRelevantInfoMessage, result.Response)
	assert.Empty(t, result.Sources)
	assert.Equal(t, 0, result.Metadata["retrieved_chunks_count"])
	// Only the classification call reaches the model; the empty-index
	// short circuit never asks for an answer.
	assert.Equal(t, 1, llmFake.generateCalls)
}

func TestProcessMessageClassifierFailureFallsBack(t *testing.T) {
	llmFake := &fakeLLM{generateFn: func(prompt string) (string, error) {
		if strings.Contains(prompt, "Classify the intent") {
			return "", errors.New("model timeout")
		}
		return "grounded answer", nil
	}}
	retriever := &fakeRetriever{queryFn: func(text string, topK int) ([]store.Retrieved, error) {
		return []store.Retrieved{textChunk("chunk", "https://docs.example.com")}, nil
	}}

	executor := NewExecutor(llmFake, retriever, testLogger())
	result := executor.ProcessMessage(context.Background(), uuid.New(), "hello", nil)

	assert.Equal(t, "GENERAL_QUESTION", result.Metadata["intent"])
	assert.Equal(t, "grounded answer", result.Response)
}

func TestProcessMessageCodeQuestion(t *testing.T) {
	llmFake := &fakeLLM{generateFn: classifyThen("CODE_QUESTION", "The handler registers a route.")}
	retriever := &fakeRetriever{queryFn: func(text string, topK int) ([]store.Retrieved, error) {
		assert.Equal(t, 10, topK)
		return []store.Retrieved{
			codeChunk("Code Block (go):\n```go\napp.Get(\"/\")\n```", "https://docs.example.com/routing"),
			textChunk("Plain prose without fences", "https://docs.example.com/intro"),
		}, nil
	}}

	executor := NewExecutor(llmFake, retriever, testLogger())
	result := executor.ProcessMessage(context.Background(), uuid.New(), "Explain the handler code", nil)

	assert.Equal(t, "CODE_QUESTION", result.Metadata["intent"])
	// Only the code-bearing chunk survives the filter.
	assert.Equal(t, 1, result.Metadata["retrieved_chunks_count"])
	assert.Equal(t, []string{"https://docs.example.com/routing"}, result.Sources)
}

func TestProcessMessageCodeQuestionDelegatesWhenNoCodeChunks(t *testing.T) {
	answer := "general grounded answer"
	queryFn := func(text string, topK int) ([]store.Retrieved, error) {
		if topK == 10 {
			return []store.Retrieved{textChunk("prose only, nothing fenced", "https://docs.example.com/a")}, nil
		}
		return []store.Retrieved{
			textChunk("prose only, nothing fenced", "https://docs.example.com/a"),
			textChunk("more prose", "https://docs.example.com/b"),
		}, nil
	}

	codePath := NewExecutor(&fakeLLM{generateFn: classifyThen("CODE_QUESTION", answer)}, &fakeRetriever{queryFn: queryFn}, testLogger())
	generalPath := NewExecutor(&fakeLLM{generateFn: classifyThen("GENERAL_QUESTION", answer)}, &fakeRetriever{queryFn: queryFn}, testLogger())

	sessionID := uuid.New()
	codeResult := codePath.ProcessMessage(context.Background(), sessionID, "show me the code", nil)
	generalResult := generalPath.ProcessMessage(context.Background(), sessionID, "show me the code", nil)

	// Full delegation: everything except the recorded intent matches a
	// plain general run over the same index.
	assert.Equal(t, generalResult.Response, codeResult.Response)
	assert.Equal(t, generalResult.Sources, codeResult.Sources)
	assert.Equal(t, generalResult.Metadata["current_step"], codeResult.Metadata["current_step"])
	assert.Equal(t, generalResult.Metadata["retrieved_chunks_count"], codeResult.Metadata["retrieved_chunks_count"])
	assert.Equal(t, "CODE_QUESTION", codeResult.Metadata["intent"])
}

func TestProcessMessageClarification(t *testing.T) {
	llmFake := &fakeLLM{generateFn: func(prompt string) (string, error) {
		if strings.Contains(prompt, "Classify the intent") {
			return "CLARIFICATION_NEEDED", nil
		}
		return "", errors.New("model unavailable")
	}}
	retriever := &fakeRetriever{queryFn: func(text string, topK int) ([]store.Retrieved, error) {
		t.Fatal("clarification must not hit the index")
		return nil, nil
	}}

	executor := NewExecutor(llmFake, retriever, testLogger())
	result := executor.ProcessMessage(context.Background(), uuid.New(), "it?", nil)

	assert.Equal(t, ClarificationFallbackMessage, result.Response)
	assert.Empty(t, result.Sources)
	assert.Equal(t, "CLARIFICATION_NEEDED", result.Metadata["intent"])
	assert.Equal(t, 0, result.Metadata["retrieved_chunks_count"])
}

func TestProcessMessageRetrievalErrorBecomesResponse(t *testing.T) {
	llmFake := &fakeLLM{generateFn: classifyThen("GENERAL_QUESTION", "unused")}
	retriever := &fakeRetriever{queryFn: func(text string, topK int) ([]store.Retrieved, error) {
		return nil, errors.New("connection refused")
	}}

	executor := NewExecutor(llmFake, retriever, testLogger())
	result := executor.ProcessMessage(context.Background(), uuid.New(), "anything", nil)

	assert.Equal(t, "Error retrieving information: connection refused", result.Response)
	assert.Empty(t, result.Sources)
	assert.Equal(t, StepMemoryUpdated, result.Metadata["current_step"])
}

func TestProcessMessageCancelledContext(t *testing.T) {
	llmFake := &fakeLLM{generateFn: classifyThen("GENERAL_QUESTION", "unused")}
	retriever := &fakeRetriever{queryFn: func(text string, topK int) ([]store.Retrieved, error) {
		return nil, nil
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	executor := NewExecutor(llmFake, retriever, testLogger())
	result := executor.ProcessMessage(ctx, uuid.New(), "anything", nil)

	assert.True(t, strings.HasPrefix(result.Response, "Error processing your message:"))
	assert.Equal(t, context.Canceled.Error(), result.Metadata["error"])
}

func TestUpdateMemory(t *testing.T) {
	state := &State{
		UserMessage: "question",
		Response:    "answer",
		History: []llm.Message{
			{Role: "user", Content: "earlier question"},
			{Role: "assistant", Content: "earlier answer"},
		},
	}

	UpdateMemory(state)

	assert.Equal(t, "question", state.Memory.LastUserMessage)
	assert.Equal(t, "answer", state.Memory.LastAssistantResponse)
	assert.Equal(t, 4, state.Memory.ConversationLength)
	assert.Equal(t, StepMemoryUpdated, state.CurrentStep)
}

func TestCollectSources(t *testing.T) {
	results := []store.Retrieved{
		textChunk("a", "https://docs.example.com/one"),
		textChunk("b", ""),
		textChunk("c", "https://docs.example.com/two"),
		textChunk("d", "https://docs.example.com/one"),
	}

	assert.Equal(t, []string{"https://docs.example.com/one", "https://docs.example.com/two"}, collectSources(results))
}
