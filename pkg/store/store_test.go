package store

import (
	"context"
	"errors"
	"io"
	"log"
	"sort"
	"testing"

	"doc-agent-be/internal/entity"
	"doc-agent-be/internal/repository/contract"
	"doc-agent-be/internal/repository/specification"
	"doc-agent-be/internal/repository/unitofwork"
	"doc-agent-be/pkg/docs/chunker"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbedder maps known texts to fixed unit vectors and fails on
// anything listed in failOn.
type fakeEmbedder struct {
	vectors map[string][]float32
	failOn  string
}

func (f *fakeEmbedder) Generate(ctx context.Context, text string) ([]float32, error) {
	if f.failOn != "" && text == f.failOn {
		return nil, errors.New("embedding backend unavailable")
	}
	if vec, ok := f.vectors[text]; ok {
		return vec, nil
	}
	return []float32{1, 0, 0}, nil
}

// fakeChunkRepo keeps chunks in memory. Writes are staged per unit of
// work and only land on Commit, mirroring the transactional repository.
type fakeChunkRepo struct {
	committed []*entity.DocumentChunk
}

type fakeUow struct {
	repo   *fakeChunkRepo
	staged []*entity.DocumentChunk
	// staged deletions by chat session id
	stagedDrops []uuid.UUID
	inTx        bool
}

type fakeFactory struct {
	repo *fakeChunkRepo
}

func (f *fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &fakeUow{repo: f.repo}
}

func (u *fakeUow) Begin(ctx context.Context) error {
	u.inTx = true
	return nil
}

func (u *fakeUow) Commit() error {
	if !u.inTx {
		return errors.New("commit outside transaction")
	}
	u.repo.committed = append(u.repo.committed, u.staged...)
	for _, sessionId := range u.stagedDrops {
		kept := u.repo.committed[:0]
		for _, chunk := range u.repo.committed {
			if chunk.ChatSessionId != sessionId {
				kept = append(kept, chunk)
			}
		}
		u.repo.committed = kept
	}
	u.inTx = false
	u.staged = nil
	u.stagedDrops = nil
	return nil
}

func (u *fakeUow) Rollback() error {
	u.inTx = false
	u.staged = nil
	u.stagedDrops = nil
	return nil
}

func (u *fakeUow) ChatSessionRepository() contract.ChatSessionRepository { return nil }
func (u *fakeUow) ChatMessageRepository() contract.ChatMessageRepository { return nil }
func (u *fakeUow) DocumentChunkRepository() contract.DocumentChunkRepository {
	return &fakeUowChunkRepo{uow: u}
}

type fakeUowChunkRepo struct {
	uow *fakeUow
}

func (r *fakeUowChunkRepo) Create(ctx context.Context, chunk *entity.DocumentChunk) error {
	return r.CreateBulk(ctx, []*entity.DocumentChunk{chunk})
}

func (r *fakeUowChunkRepo) CreateBulk(ctx context.Context, chunks []*entity.DocumentChunk) error {
	if !r.uow.inTx {
		return errors.New("write outside transaction")
	}
	r.uow.staged = append(r.uow.staged, chunks...)
	return nil
}

func (r *fakeUowChunkRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return errors.New("not implemented")
}

func (r *fakeUowChunkRepo) DeleteByChatSessionId(ctx context.Context, chatSessionId uuid.UUID) error {
	if !r.uow.inTx {
		return errors.New("write outside transaction")
	}
	r.uow.stagedDrops = append(r.uow.stagedDrops, chatSessionId)
	return nil
}

func (r *fakeUowChunkRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.DocumentChunk, error) {
	return nil, errors.New("not implemented")
}

func (r *fakeUowChunkRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentChunk, error) {
	return nil, errors.New("not implemented")
}

func (r *fakeUowChunkRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	// Only the session scope is used here
	var sessionId uuid.UUID
	for _, spec := range specs {
		if bySession, ok := spec.(specification.ByChatSessionID); ok {
			sessionId = bySession.ChatSessionID
		}
	}
	var count int64
	for _, chunk := range r.uow.repo.committed {
		if chunk.ChatSessionId == sessionId {
			count++
		}
	}
	return count, nil
}

func (r *fakeUowChunkRepo) SearchSimilar(ctx context.Context, queryVector []float32, limit int, chatSessionId uuid.UUID) ([]*entity.ScoredDocumentChunk, error) {
	var scored []*entity.ScoredDocumentChunk
	for _, chunk := range r.uow.repo.committed {
		if chunk.ChatSessionId != chatSessionId {
			continue
		}
		var dot float64
		for i := range queryVector {
			dot += float64(queryVector[i]) * float64(chunk.Embedding[i])
		}
		scored = append(scored, &entity.ScoredDocumentChunk{Chunk: chunk, Distance: 1 - dot})
	}
	sort.Slice(scored, func(a, b int) bool { return scored[a].Distance < scored[b].Distance })
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func sectionChunk(content string) chunker.Chunk {
	return chunker.Chunk{
		ID:      uuid.New().String(),
		Content: content,
		Type:    chunker.ChunkTypeSection,
		Metadata: chunker.Metadata{
			URL:       "https://docs.example.com/routing",
			Section:   "Routing",
			ChunkType: chunker.ChunkTypeSection,
		},
	}
}

func TestIndexUpsertAndQueryAreScopedToSession(t *testing.T) {
	repo := &fakeChunkRepo{}
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"routing basics":    {1, 0, 0},
		"middleware basics": {0, 1, 0},
		"how do I route?":   {0.9, 0.1, 0},
	}}
	chunkStore := New(&fakeFactory{repo: repo}, embedder, discardLogger())

	first := chunkStore.Open(uuid.New())
	second := chunkStore.Open(uuid.New())

	require.NoError(t, first.Upsert(context.Background(), []chunker.Chunk{
		sectionChunk("routing basics"),
		sectionChunk("middleware basics"),
	}))
	require.NoError(t, second.Upsert(context.Background(), []chunker.Chunk{
		sectionChunk("routing basics"),
	}))

	results, err := first.Query(context.Background(), "how do I route?", 5)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "routing basics", results[0].Content)
	assert.Equal(t, "Routing", results[0].Metadata.Section)
	assert.Less(t, results[0].Distance, results[1].Distance)

	count, err := first.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	count, err = second.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestIndexQueryHonorsTopK(t *testing.T) {
	repo := &fakeChunkRepo{}
	embedder := &fakeEmbedder{vectors: map[string][]float32{}}
	chunkStore := New(&fakeFactory{repo: repo}, embedder, discardLogger())

	index := chunkStore.Open(uuid.New())
	require.NoError(t, index.Upsert(context.Background(), []chunker.Chunk{
		sectionChunk("first"),
		sectionChunk("second"),
		sectionChunk("third"),
	}))

	results, err := index.Query(context.Background(), "anything", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestIndexUpsertIsAllOrNothing(t *testing.T) {
	repo := &fakeChunkRepo{}
	embedder := &fakeEmbedder{
		vectors: map[string][]float32{},
		failOn:  "poison chunk",
	}
	chunkStore := New(&fakeFactory{repo: repo}, embedder, discardLogger())

	index := chunkStore.Open(uuid.New())
	err := index.Upsert(context.Background(), []chunker.Chunk{
		sectionChunk("fine chunk"),
		sectionChunk("poison chunk"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedding chunk 2 of 2")

	count, err := index.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestIndexDropEmptiesOnlyOwnPartition(t *testing.T) {
	repo := &fakeChunkRepo{}
	embedder := &fakeEmbedder{vectors: map[string][]float32{}}
	chunkStore := New(&fakeFactory{repo: repo}, embedder, discardLogger())

	first := chunkStore.Open(uuid.New())
	second := chunkStore.Open(uuid.New())

	require.NoError(t, first.Upsert(context.Background(), []chunker.Chunk{sectionChunk("a"), sectionChunk("b")}))
	require.NoError(t, second.Upsert(context.Background(), []chunker.Chunk{sectionChunk("c")}))

	require.NoError(t, first.Drop(context.Background()))

	count, err := first.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	count, err = second.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestIndexUpsertNoChunksIsNoop(t *testing.T) {
	repo := &fakeChunkRepo{}
	chunkStore := New(&fakeFactory{repo: repo}, &fakeEmbedder{}, discardLogger())

	index := chunkStore.Open(uuid.New())
	require.NoError(t, index.Upsert(context.Background(), nil))
	assert.Empty(t, repo.committed)
}
