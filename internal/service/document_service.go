package service

import (
	"context"
	"encoding/json"
	"time"

	"doc-agent-be/internal/dto"
	"doc-agent-be/internal/entity"
	"doc-agent-be/internal/pkg/logger"
	"doc-agent-be/internal/pkg/serverutils"
	"doc-agent-be/internal/repository/memory"
	"doc-agent-be/internal/repository/specification"
	"doc-agent-be/internal/repository/unitofwork"
	"doc-agent-be/pkg/docs/chunker"
	"doc-agent-be/pkg/scraper"
	"doc-agent-be/pkg/store"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// IDocumentService manages documentation ingestion: starting a job,
// running it, and reporting its progress.
type IDocumentService interface {
	StartProcessing(ctx context.Context, request *dto.ProcessDocumentationRequest) (*dto.ProcessDocumentationResponse, error)
	Status(ctx context.Context, chatSessionId uuid.UUID) (*dto.ProcessingStatusResponse, error)
	Process(ctx context.Context, chatSessionId uuid.UUID, url string) error
}

type documentService struct {
	uowFactory  unitofwork.RepositoryFactory
	pageScraper *scraper.Scraper
	chunker     *chunker.Chunker
	chunkStore  *store.Store
	statusRepo  *memory.StatusRepository
	publisher   message.Publisher
	topicName   string
	logger      logger.ILogger
}

func NewDocumentService(
	uowFactory unitofwork.RepositoryFactory,
	pageScraper *scraper.Scraper,
	docChunker *chunker.Chunker,
	chunkStore *store.Store,
	statusRepo *memory.StatusRepository,
	publisher message.Publisher,
	topicName string,
	log logger.ILogger,
) IDocumentService {
	return &documentService{
		uowFactory:  uowFactory,
		pageScraper: pageScraper,
		chunker:     docChunker,
		chunkStore:  chunkStore,
		statusRepo:  statusRepo,
		publisher:   publisher,
		topicName:   topicName,
		logger:      log,
	}
}

// StartProcessing registers a new chat session for the URL and queues the
// ingestion job. The heavy work happens on the worker; the caller gets an
// id to poll immediately.
func (ds *documentService) StartProcessing(ctx context.Context, request *dto.ProcessDocumentationRequest) (*dto.ProcessDocumentationResponse, error) {
	session := entity.ChatSession{
		Id:        uuid.New(),
		Url:       request.Url,
		Status:    entity.StatusPending,
		Progress:  0,
		CreatedAt: time.Now(),
	}

	uow := ds.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.ChatSessionRepository().Create(ctx, &session); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	ds.statusRepo.Save(session.Id.String(), &memory.StatusSnapshot{
		Status:   entity.StatusPending,
		Progress: 0,
	})

	payload, err := json.Marshal(dto.ProcessDocumentationMessage{
		ChatSessionId: session.Id,
		Url:           request.Url,
	})
	if err != nil {
		return nil, err
	}

	if err := ds.publisher.Publish(ds.topicName, message.NewMessage(watermill.NewUUID(), payload)); err != nil {
		return nil, err
	}

	ds.logger.Info("document", "Documentation processing queued", map[string]interface{}{
		"chat_session_id": session.Id.String(),
		"url":             request.Url,
	})

	return &dto.ProcessDocumentationResponse{
		ChatId:  session.Id,
		Status:  entity.StatusProcessing,
		Message: "Documentation processing started",
	}, nil
}

// Status reports ingestion progress, preferring the in-memory snapshot
// over a database read.
func (ds *documentService) Status(ctx context.Context, chatSessionId uuid.UUID) (*dto.ProcessingStatusResponse, error) {
	if snapshot, found := ds.statusRepo.Get(chatSessionId.String()); found {
		return &dto.ProcessingStatusResponse{
			ChatId:       chatSessionId,
			Status:       snapshot.Status,
			Progress:     snapshot.Progress,
			ErrorMessage: snapshot.ErrorMessage,
		}, nil
	}

	uow := ds.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByID{ID: chatSessionId})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, &serverutils.NotFoundError{Resource: "Chat session"}
	}

	ds.statusRepo.Save(chatSessionId.String(), &memory.StatusSnapshot{
		Status:       session.Status,
		Progress:     session.Progress,
		ErrorMessage: session.ErrorMessage,
	})

	return &dto.ProcessingStatusResponse{
		ChatId:       chatSessionId,
		Status:       session.Status,
		Progress:     session.Progress,
		ErrorMessage: session.ErrorMessage,
	}, nil
}

// Process runs the full ingestion ladder for one session:
// fetch (10) → extract (30) → chunk (50) → embed+index (70) → done (100).
// Failures stamp the session failed with the reason; a failed session
// always ends with an empty index partition.
func (ds *documentService) Process(ctx context.Context, chatSessionId uuid.UUID, url string) error {
	if err := ds.setStatus(ctx, chatSessionId, entity.StatusProcessing, 10, ""); err != nil {
		return err
	}

	htmlContent, err := ds.pageScraper.Fetch(ctx, url)
	if err != nil {
		ds.logger.Error("document", "Fetch failed", map[string]interface{}{
			"chat_session_id": chatSessionId.String(),
			"url":             url,
			"error":           err.Error(),
		})
		return ds.fail(ctx, chatSessionId, "Failed to fetch URL")
	}

	if err := ds.setStatus(ctx, chatSessionId, entity.StatusProcessing, 30, ""); err != nil {
		return err
	}

	content, err := ds.pageScraper.Extract(htmlContent)
	if err != nil {
		return ds.fail(ctx, chatSessionId, "No content extracted")
	}

	if err := ds.setStatus(ctx, chatSessionId, entity.StatusProcessing, 50, ""); err != nil {
		return err
	}

	chunks, err := ds.chunker.Chunk(content, url)
	if err != nil {
		return ds.fail(ctx, chatSessionId, "No chunks created")
	}

	if err := ds.setStatus(ctx, chatSessionId, entity.StatusProcessing, 70, ""); err != nil {
		return err
	}

	index := ds.chunkStore.Open(chatSessionId)
	if err := index.Upsert(ctx, chunks); err != nil {
		ds.logger.Error("document", "Indexing failed", map[string]interface{}{
			"chat_session_id": chatSessionId.String(),
			"error":           err.Error(),
		})
		return ds.fail(ctx, chatSessionId, err.Error())
	}

	if err := ds.setStatus(ctx, chatSessionId, entity.StatusCompleted, 100, ""); err != nil {
		return err
	}

	ds.logger.Info("document", "Documentation processed", map[string]interface{}{
		"chat_session_id": chatSessionId.String(),
		"chunks":          len(chunks),
	})
	return nil
}

func (ds *documentService) fail(ctx context.Context, chatSessionId uuid.UUID, reason string) error {
	// A failed session must not keep a half-built partition around.
	if err := ds.chunkStore.Open(chatSessionId).Drop(ctx); err != nil {
		ds.logger.Warn("document", "Failed to drop partition after error", map[string]interface{}{
			"chat_session_id": chatSessionId.String(),
			"error":           err.Error(),
		})
	}
	return ds.setStatus(ctx, chatSessionId, entity.StatusFailed, 0, reason)
}

func (ds *documentService) setStatus(ctx context.Context, chatSessionId uuid.UUID, status string, progress int, errorMessage string) error {
	uow := ds.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByID{ID: chatSessionId})
	if err != nil {
		return err
	}
	if session == nil {
		return &serverutils.NotFoundError{Resource: "Chat session"}
	}

	session.Status = status
	session.Progress = progress
	if errorMessage != "" {
		session.ErrorMessage = errorMessage
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ChatSessionRepository().Update(ctx, session); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return err
	}

	ds.statusRepo.Save(chatSessionId.String(), &memory.StatusSnapshot{
		Status:       status,
		Progress:     progress,
		ErrorMessage: session.ErrorMessage,
	})
	return nil
}
