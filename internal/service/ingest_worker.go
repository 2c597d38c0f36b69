package service

import (
	"context"
	"encoding/json"

	"doc-agent-be/internal/dto"
	"doc-agent-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// IIngestWorkerService consumes queued ingestion jobs and runs them
// through the document service.
type IIngestWorkerService interface {
	Consume(ctx context.Context) error
}

type ingestWorkerService struct {
	pubSub          *gochannel.GoChannel
	topicName       string
	documentService IDocumentService
	logger          logger.ILogger
}

func NewIngestWorkerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	documentService IDocumentService,
	log logger.ILogger,
) IIngestWorkerService {
	return &ingestWorkerService{
		pubSub:          pubSub,
		topicName:       topicName,
		documentService: documentService,
		logger:          log,
	}
}

// Consume subscribes to the ingestion topic and processes jobs on a
// single goroutine. One job at a time keeps embedding providers from
// being hammered by concurrent pages.
func (ws *ingestWorkerService) Consume(ctx context.Context) error {
	messages, err := ws.pubSub.Subscribe(ctx, ws.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			ws.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (ws *ingestWorkerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.ProcessDocumentationMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		ws.logger.Error("ingest-worker", "Failed to unmarshal job payload", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // malformed payloads are never retriable
		return
	}

	ws.logger.Info("ingest-worker", "Processing documentation job", map[string]interface{}{
		"chat_session_id": payload.ChatSessionId.String(),
		"url":             payload.Url,
	})

	// Process records failures on the session itself; an error here means
	// even that bookkeeping failed. Either way the job is spent.
	if err := ws.documentService.Process(ctx, payload.ChatSessionId, payload.Url); err != nil {
		ws.logger.Error("ingest-worker", "Documentation job failed", map[string]interface{}{
			"chat_session_id": payload.ChatSessionId.String(),
			"error":           err.Error(),
		})
	}

	msg.Ack()
}
