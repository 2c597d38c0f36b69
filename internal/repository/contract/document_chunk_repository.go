package contract

import (
	"context"

	"doc-agent-be/internal/entity"
	"doc-agent-be/internal/repository/specification"

	"github.com/google/uuid"
)

type DocumentChunkRepository interface {
	Create(ctx context.Context, chunk *entity.DocumentChunk) error
	CreateBulk(ctx context.Context, chunks []*entity.DocumentChunk) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByChatSessionId(ctx context.Context, chatSessionId uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.DocumentChunk, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentChunk, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// SearchSimilar returns the chunks of one chat session ordered by cosine
	// distance to the query vector, closest first.
	SearchSimilar(ctx context.Context, embedding []float32, limit int, chatSessionId uuid.UUID) ([]*entity.ScoredDocumentChunk, error)
}
