package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByChatSessionID struct {
	ChatSessionID uuid.UUID
}

func (s ByChatSessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("chat_session_id = ?", s.ChatSessionID)
}

type ByChunkType struct {
	ChunkType string
}

func (s ByChunkType) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("chunk_type = ?", s.ChunkType)
}
