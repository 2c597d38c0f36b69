package mapper

import (
	"time"

	"doc-agent-be/internal/entity"
	"doc-agent-be/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type DocumentChunkMapper struct{}

func NewDocumentChunkMapper() *DocumentChunkMapper {
	return &DocumentChunkMapper{}
}

func (m *DocumentChunkMapper) ToEntity(c *model.DocumentChunk) *entity.DocumentChunk {
	if c == nil {
		return nil
	}

	var deletedAt *time.Time
	if c.DeletedAt.Valid {
		t := c.DeletedAt.Time
		deletedAt = &t
	}

	return &entity.DocumentChunk{
		Id:            c.Id,
		ChatSessionId: c.ChatSessionId,
		Content:       c.Content,
		Embedding:     c.Embedding.Slice(),
		Url:           c.Url,
		Section:       c.Section,
		SectionId:     c.SectionId,
		Level:         c.Level,
		ChunkType:     c.ChunkType,
		Language:      c.Language,
		CodeId:        c.CodeId,
		CreatedAt:     c.CreatedAt,
		DeletedAt:     deletedAt,
		IsDeleted:     c.DeletedAt.Valid,
	}
}

func (m *DocumentChunkMapper) ToModel(c *entity.DocumentChunk) *model.DocumentChunk {
	if c == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if c.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *c.DeletedAt, Valid: true}
	} else if c.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	return &model.DocumentChunk{
		Id:            c.Id,
		ChatSessionId: c.ChatSessionId,
		Content:       c.Content,
		Embedding:     pgvector.NewVector(c.Embedding),
		Url:           c.Url,
		Section:       c.Section,
		SectionId:     c.SectionId,
		Level:         c.Level,
		ChunkType:     c.ChunkType,
		Language:      c.Language,
		CodeId:        c.CodeId,
		CreatedAt:     c.CreatedAt,
		DeletedAt:     deletedAt,
	}
}

func (m *DocumentChunkMapper) ToEntities(chunks []*model.DocumentChunk) []*entity.DocumentChunk {
	entities := make([]*entity.DocumentChunk, len(chunks))
	for i, c := range chunks {
		entities[i] = m.ToEntity(c)
	}
	return entities
}

func (m *DocumentChunkMapper) ToModels(chunks []*entity.DocumentChunk) []*model.DocumentChunk {
	models := make([]*model.DocumentChunk, len(chunks))
	for i, c := range chunks {
		models[i] = m.ToModel(c)
	}
	return models
}
