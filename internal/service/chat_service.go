package service

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"

	"doc-agent-be/internal/dto"
	"doc-agent-be/internal/entity"
	"doc-agent-be/internal/pkg/serverutils"
	"doc-agent-be/internal/repository/memory"
	"doc-agent-be/internal/repository/specification"
	"doc-agent-be/internal/repository/unitofwork"
	"doc-agent-be/pkg/agent/pipeline"
	"doc-agent-be/pkg/llm"
	"doc-agent-be/pkg/store"

	"github.com/google/uuid"
)

// Fixed responses for sessions that cannot chat yet. These are answers,
// not transport errors: the request itself succeeded.
const (
	SessionNotFoundMessage   = "Error: Chat session not found. Please process documentation first."
	StillProcessingMessage   = "Error: Documentation is still being processed. Please wait."
	ChatDeletedMessageFormat = "Chat session %s deleted successfully"
)

// IChatService defines the chat surface over an ingested documentation page.
type IChatService interface {
	SendMessage(ctx context.Context, chatId uuid.UUID, request *dto.SendMessageRequest) (*dto.SendMessageResponse, error)
	GetChatHistory(ctx context.Context, chatId uuid.UUID) (*dto.ChatHistoryResponse, error)
	DeleteChat(ctx context.Context, chatId uuid.UUID) error
}

type chatService struct {
	uowFactory  unitofwork.RepositoryFactory
	llmProvider llm.LLMProvider
	chunkStore  *store.Store
	statusRepo  *memory.StatusRepository
	llmLogger   *log.Logger
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	llmProvider llm.LLMProvider,
	chunkStore *store.Store,
	statusRepo *memory.StatusRepository,
) IChatService {
	return &chatService{
		uowFactory:  uowFactory,
		llmProvider: llmProvider,
		chunkStore:  chunkStore,
		statusRepo:  statusRepo,
		llmLogger:   initLLMLogger(),
	}
}

// initLLMLogger keeps the verbose pipeline trace out of the main logs.
func initLLMLogger() *log.Logger {
	logPath := filepath.Join(".", "logs", "llm_pipeline.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		log.Printf("Failed to create logs directory: %v", err)
	}
	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return log.New(os.Stdout, "[LLM-PIPELINE] ", log.LstdFlags)
	}
	return log.New(file, "", log.LstdFlags)
}

// SendMessage runs one user message through the agent pipeline against
// the session's index partition and persists both sides of the exchange.
func (cs *chatService) SendMessage(ctx context.Context, chatId uuid.UUID, request *dto.SendMessageRequest) (*dto.SendMessageResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByID{ID: chatId})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return &dto.SendMessageResponse{
			ChatId:   chatId,
			Response: SessionNotFoundMessage,
			Sources:  []string{},
		}, nil
	}
	if session.Status != entity.StatusCompleted {
		return &dto.SendMessageResponse{
			ChatId:   chatId,
			Response: StillProcessingMessage,
			Sources:  []string{},
		}, nil
	}

	now := time.Now()
	userMessage := entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: chatId,
		Role:          entity.RoleUser,
		Content:       request.Message,
		CreatedAt:     now,
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.ChatMessageRepository().Create(ctx, &userMessage); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	// History includes the message just saved; the pipeline's memory
	// bookkeeping counts on that.
	history, err := cs.loadHistory(ctx, chatId)
	if err != nil {
		return nil, err
	}

	executor := pipeline.NewExecutor(cs.llmProvider, cs.chunkStore.Open(chatId), cs.llmLogger)
	result := executor.ProcessMessage(ctx, chatId, request.Message, history)

	assistantMessage := entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: chatId,
		Role:          entity.RoleAssistant,
		Content:       result.Response,
		Sources:       result.Sources,
		CreatedAt:     time.Now(),
	}

	uow = cs.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.ChatMessageRepository().Create(ctx, &assistantMessage); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	return &dto.SendMessageResponse{
		ChatId:   chatId,
		Response: result.Response,
		Sources:  result.Sources,
		Metadata: result.Metadata,
	}, nil
}

// GetChatHistory returns the full exchange for a session, oldest first.
func (cs *chatService) GetChatHistory(ctx context.Context, chatId uuid.UUID) (*dto.ChatHistoryResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByID{ID: chatId})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, &serverutils.NotFoundError{Resource: "Chat session"}
	}

	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: chatId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	formatted := make([]dto.ChatHistoryMessage, 0, len(messages))
	for _, msg := range messages {
		sources := msg.Sources
		if sources == nil {
			sources = []string{}
		}
		formatted = append(formatted, dto.ChatHistoryMessage{
			Role:      msg.Role,
			Content:   msg.Content,
			Timestamp: msg.CreatedAt,
			Sources:   sources,
		})
	}

	return &dto.ChatHistoryResponse{
		ChatId:   chatId,
		Messages: formatted,
	}, nil
}

// DeleteChat removes the session, its messages and its index partition in
// one transaction.
func (cs *chatService) DeleteChat(ctx context.Context, chatId uuid.UUID) error {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByID{ID: chatId})
	if err != nil {
		return err
	}
	if session == nil {
		return &serverutils.NotFoundError{Resource: "Chat session"}
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ChatSessionRepository().Delete(ctx, chatId); err != nil {
		return err
	}
	if err := uow.ChatMessageRepository().DeleteByChatSessionId(ctx, chatId); err != nil {
		return err
	}
	if err := uow.DocumentChunkRepository().DeleteByChatSessionId(ctx, chatId); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return err
	}

	cs.statusRepo.Delete(chatId.String())
	return nil
}

func (cs *chatService) loadHistory(ctx context.Context, chatId uuid.UUID) ([]llm.Message, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: chatId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	history := make([]llm.Message, len(messages))
	for i, msg := range messages {
		history[i] = llm.Message{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}
	return history, nil
}
