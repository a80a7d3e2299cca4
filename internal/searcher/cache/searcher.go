package cache

import (
	"context"

	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/searcher/ranker"
)

type Backend interface {
	FindTopDocumentsByStatus(raw string, status index.Status) ([]ranker.ScoredDoc, error)
	InstanceID() string
	Generation() uint64
}

// Searcher answers status queries from the cache when possible and from the
// backend otherwise.
type Searcher struct {
	cache   *QueryCache
	backend Backend
}

func NewSearcher(c *QueryCache, backend Backend) *Searcher {
	return &Searcher{cache: c, backend: backend}
}

func (s *Searcher) FindTopDocuments(ctx context.Context, raw string) ([]ranker.ScoredDoc, error) {
	return s.FindTopDocumentsByStatus(ctx, raw, index.StatusActual)
}

// FindTopDocumentsByStatus returns the backend's answer for raw, serving it
// from the cache when this backend stored it and its document set has not
// changed since.
// Malformed queries go straight to the backend so its error is returned.
func (s *Searcher) FindTopDocumentsByStatus(ctx context.Context, raw string, status index.Status) ([]ranker.ScoredDoc, error) {
	key, err := BuildKey(raw, status, s.backend.InstanceID(), s.backend.Generation())
	if err != nil {
		return s.backend.FindTopDocumentsByStatus(raw, status)
	}
	docs, _, err := s.cache.GetOrCompute(ctx, key, func() ([]ranker.ScoredDoc, error) {
		return s.backend.FindTopDocumentsByStatus(raw, status)
	})
	return docs, err
}

// Stats reports the hit and miss counts of the underlying cache.
func (s *Searcher) Stats() (hits, misses int64) {
	return s.cache.Stats()
}

// Bind fixes ctx so s can be used where a context-free searcher is expected.
func (s *Searcher) Bind(ctx context.Context) BoundSearcher {
	return BoundSearcher{ctx: ctx, s: s}
}

type BoundSearcher struct {
	ctx context.Context
	s   *Searcher
}

func (b BoundSearcher) FindTopDocuments(raw string) ([]ranker.ScoredDoc, error) {
	return b.s.FindTopDocuments(b.ctx, raw)
}
