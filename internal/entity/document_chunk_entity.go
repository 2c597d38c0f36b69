package entity

import (
	"time"

	"github.com/google/uuid"
)

type DocumentChunk struct {
	Id            uuid.UUID
	ChatSessionId uuid.UUID
	Content       string
	Embedding     []float32
	Url           string
	Section       string
	SectionId     string
	Level         int
	ChunkType     string
	Language      string
	CodeId        string
	CreatedAt     time.Time
	DeletedAt     *time.Time
	IsDeleted     bool
}

// ScoredDocumentChunk pairs a chunk with its cosine distance to a query
// vector (lower is closer).
type ScoredDocumentChunk struct {
	Chunk    *DocumentChunk
	Distance float64
}
