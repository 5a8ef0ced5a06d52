package service

import (
	"context"
	"errors"
	"sync"

	"ai-specforge-be/internal/entity"
	"ai-specforge-be/internal/repository/contract"
	"ai-specforge-be/internal/repository/specification"
	"ai-specforge-be/internal/repository/unitofwork"
	"ai-specforge-be/pkg/embedding"
	"ai-specforge-be/pkg/llm"

	"github.com/google/uuid"
)

// memAnalysisRepo is an in-memory analysis store that understands the
// specifications the services actually use.
type memAnalysisRepo struct {
	mu       sync.Mutex
	rows     map[uuid.UUID]*entity.Analysis
	updates  int
	searched []*contract.ScoredAnalysis
}

func newMemAnalysisRepo() *memAnalysisRepo {
	return &memAnalysisRepo{rows: map[uuid.UUID]*entity.Analysis{}}
}

func (r *memAnalysisRepo) Create(ctx context.Context, a *entity.Analysis) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *a
	r.rows[a.Id] = &copied
	return nil
}

func (r *memAnalysisRepo) Update(ctx context.Context, a *entity.Analysis) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *a
	r.rows[a.Id] = &copied
	r.updates++
	return nil
}

func (r *memAnalysisRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, id)
	return nil
}

func (r *memAnalysisRepo) matches(a *entity.Analysis, specs []specification.Specification) bool {
	for _, s := range specs {
		switch spec := s.(type) {
		case specification.ByID:
			if a.Id != spec.ID {
				return false
			}
		case specification.OwnedBy:
			if a.OwnerId != spec.OwnerID {
				return false
			}
		case specification.ByRootID:
			if a.RootId != spec.RootID {
				return false
			}
		}
	}
	return true
}

func (r *memAnalysisRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Analysis, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.rows {
		if r.matches(a, specs) {
			copied := *a
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *memAnalysisRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Analysis, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Analysis
	for _, a := range r.rows {
		if r.matches(a, specs) {
			copied := *a
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *memAnalysisRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	rows, _ := r.FindAll(ctx, specs...)
	return int64(len(rows)), nil
}

func (r *memAnalysisRepo) MaxVersionForUpdate(ctx context.Context, rootId uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	max := 0
	for _, a := range r.rows {
		if a.RootId == rootId && a.Version > max {
			max = a.Version
		}
	}
	return max, nil
}

func (r *memAnalysisRepo) SearchSimilarFinalized(ctx context.Context, vector []float32, limit int) ([]*contract.ScoredAnalysis, error) {
	return r.searched, nil
}

func (r *memAnalysisRepo) get(id uuid.UUID) *entity.Analysis {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.rows[id]; ok {
		copied := *a
		return &copied
	}
	return nil
}

func (r *memAnalysisRepo) updateCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updates
}

type memChunkRepo struct {
	mu     sync.Mutex
	hashes map[string]*entity.KnowledgeChunk
}

func newMemChunkRepo() *memChunkRepo {
	return &memChunkRepo{hashes: map[string]*entity.KnowledgeChunk{}}
}

func (r *memChunkRepo) CreateIgnoreDuplicates(ctx context.Context, chunks []*entity.KnowledgeChunk) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := 0
	for _, c := range chunks {
		if _, exists := r.hashes[c.Hash]; exists {
			continue
		}
		r.hashes[c.Hash] = c
		stored++
	}
	return stored, nil
}

func (r *memChunkRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.KnowledgeChunk, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.KnowledgeChunk
	for _, c := range r.hashes {
		out = append(out, c)
	}
	return out, nil
}

func (r *memChunkRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.hashes)), nil
}

type memRevisionRepo struct {
	mu   sync.Mutex
	rows []*entity.RevisionMessage
}

func (r *memRevisionRepo) Create(ctx context.Context, msg *entity.RevisionMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *msg
	r.rows = append(r.rows, &copied)
	return nil
}

func (r *memRevisionRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.RevisionMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.RevisionMessage, len(r.rows))
	copy(out, r.rows)
	return out, nil
}

// memUow satisfies the unit-of-work contract without a database;
// transactions are no-ops over the shared in-memory repos.
type memUow struct {
	analyses  *memAnalysisRepo
	chunks    *memChunkRepo
	revisions *memRevisionRepo
}

func (u *memUow) Begin(ctx context.Context) error { return nil }
func (u *memUow) Commit() error                   { return nil }
func (u *memUow) Rollback() error                 { return nil }
func (u *memUow) AnalysisRepository() contract.AnalysisRepository {
	return u.analyses
}
func (u *memUow) KnowledgeChunkRepository() contract.KnowledgeChunkRepository {
	return u.chunks
}
func (u *memUow) RevisionMessageRepository() contract.RevisionMessageRepository {
	return u.revisions
}

type memFactory struct {
	uow *memUow
}

func newMemFactory() *memFactory {
	return &memFactory{uow: &memUow{
		analyses:  newMemAnalysisRepo(),
		chunks:    newMemChunkRepo(),
		revisions: &memRevisionRepo{},
	}}
}

func (f *memFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return f.uow
}

// fakePublisher records payloads and can be told to fail.
type fakePublisher struct {
	mu       sync.Mutex
	payloads [][]byte
	err      error
}

func (p *fakePublisher) Publish(ctx context.Context, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.payloads = append(p.payloads, payload)
	return nil
}

func (p *fakePublisher) published() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.payloads)
}

// fakeEmbedding returns a fixed vector or an error.
type fakeEmbedding struct {
	vector []float32
	err    error
}

func (f *fakeEmbedding) Generate(text string, taskType string) (*embedding.EmbeddingResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: f.vector},
	}, nil
}

// fakeLLM returns canned text for the inference gateway.
type fakeLLM struct {
	response string
	err      error
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return f.response, f.err
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return f.response, f.err
}

// nopLogger satisfies ILogger for tests.
type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

var errQueueDown = errors.New("queue down")
