package store

import (
	"context"
	"fmt"
	"log"

	"doc-agent-be/internal/entity"
	"doc-agent-be/internal/repository/specification"
	"doc-agent-be/internal/repository/unitofwork"
	"doc-agent-be/pkg/docs/chunker"
	"doc-agent-be/pkg/embedding"

	"github.com/google/uuid"
)

// Retrieved is a chunk returned from a similarity query, paired with its
// cosine distance to the query vector (lower is closer).
type Retrieved struct {
	Content  string
	Metadata chunker.Metadata
	Distance float64
}

// Store provides access to per-session chunk indexes. Each chat session
// owns an isolated partition of the vector index; a partition is only
// reachable through the Index handle returned by Open.
type Store struct {
	uowFactory unitofwork.RepositoryFactory
	embedder   embedding.EmbeddingProvider
	logger     *log.Logger
}

func New(uowFactory unitofwork.RepositoryFactory, embedder embedding.EmbeddingProvider, logger *log.Logger) *Store {
	return &Store{
		uowFactory: uowFactory,
		embedder:   embedder,
		logger:     logger,
	}
}

// Open returns the index handle for one chat session's partition. Opening
// does not touch the database; a handle for an empty partition is valid
// and simply returns no results.
func (s *Store) Open(sessionID uuid.UUID) *Index {
	return &Index{
		sessionID: sessionID,
		store:     s,
	}
}

// Index is a handle to a single session's slice of the vector index.
// All reads and writes through it are scoped to that session.
type Index struct {
	sessionID uuid.UUID
	store     *Store
}

func (i *Index) SessionID() uuid.UUID {
	return i.sessionID
}

// Upsert embeds the given chunks and persists them in one transaction.
// Either every chunk becomes retrievable or none does: embedding failures
// abort before anything is written.
func (i *Index) Upsert(ctx context.Context, chunks []chunker.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	entities := make([]*entity.DocumentChunk, len(chunks))
	for idx, chunk := range chunks {
		vector, err := i.store.embedder.Generate(ctx, chunk.Content)
		if err != nil {
			return fmt.Errorf("embedding chunk %d of %d: %w", idx+1, len(chunks), err)
		}
		entities[idx] = &entity.DocumentChunk{
			ChatSessionId: i.sessionID,
			Content:       chunk.Content,
			Embedding:     vector,
			Url:           chunk.Metadata.URL,
			Section:       chunk.Metadata.Section,
			SectionId:     chunk.Metadata.SectionID,
			Level:         chunk.Metadata.Level,
			ChunkType:     chunk.Metadata.ChunkType,
			Language:      chunk.Metadata.Language,
			CodeId:        chunk.Metadata.CodeID,
		}
	}

	uow := i.store.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.DocumentChunkRepository().CreateBulk(ctx, entities); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return err
	}

	i.store.logger.Printf("[INDEX] Indexed %d chunks for session %s", len(entities), i.sessionID)
	return nil
}

// Query embeds the text and returns the topK closest chunks in this
// session's partition, closest first.
func (i *Index) Query(ctx context.Context, text string, topK int) ([]Retrieved, error) {
	vector, err := i.store.embedder.Generate(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	uow := i.store.uowFactory.NewUnitOfWork(ctx)
	scored, err := uow.DocumentChunkRepository().SearchSimilar(ctx, vector, topK, i.sessionID)
	if err != nil {
		return nil, err
	}

	results := make([]Retrieved, len(scored))
	for idx, sc := range scored {
		results[idx] = Retrieved{
			Content: sc.Chunk.Content,
			Metadata: chunker.Metadata{
				URL:       sc.Chunk.Url,
				Section:   sc.Chunk.Section,
				SectionID: sc.Chunk.SectionId,
				Level:     sc.Chunk.Level,
				ChunkType: sc.Chunk.ChunkType,
				Language:  sc.Chunk.Language,
				CodeID:    sc.Chunk.CodeId,
			},
			Distance: sc.Distance,
		}
	}

	i.store.logger.Printf("[INDEX] Query returned %d chunks for session %s", len(results), i.sessionID)
	return results, nil
}

// Count reports how many chunks this session's partition holds.
func (i *Index) Count(ctx context.Context) (int64, error) {
	uow := i.store.uowFactory.NewUnitOfWork(ctx)
	return uow.DocumentChunkRepository().Count(ctx, specification.ByChatSessionID{ChatSessionID: i.sessionID})
}

// Drop removes every chunk in this session's partition in one
// transaction, so concurrent queries see the partition either full or
// empty, never half-deleted.
func (i *Index) Drop(ctx context.Context) error {
	uow := i.store.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.DocumentChunkRepository().DeleteByChatSessionId(ctx, i.sessionID); err != nil {
		return err
	}

	return uow.Commit()
}
