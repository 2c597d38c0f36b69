package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// DocumentChunk is both the durable chunk record and the vector index
// row: per-scope retrieval queries filter on chat_session_id, so a
// scope's partition is exactly its set of rows.
type DocumentChunk struct {
	Id            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ChatSessionId uuid.UUID       `gorm:"type:uuid;not null;index"`
	Content       string          `gorm:"type:text;not null"`
	Embedding     pgvector.Vector `gorm:"type:vector(768)"` // nomic-embed-text uses 768 dimensions
	Url           string          `gorm:"type:text"`
	Section       string          `gorm:"type:text"`
	SectionId     string          `gorm:"type:text"`
	Level         int             `gorm:"default:0"`
	ChunkType     string          `gorm:"type:text;not null;index"`
	Language      string          `gorm:"type:text"`
	CodeId        string          `gorm:"type:text"`
	CreatedAt     time.Time       `gorm:"autoCreateTime"`
	DeletedAt     gorm.DeletedAt  `gorm:"index"`
}

func (DocumentChunk) TableName() string {
	return "document_chunks"
}
