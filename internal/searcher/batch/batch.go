// Package batch runs many top-documents queries concurrently against one
// searcher.
package batch

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/metrics"
)

type Searcher interface {
	FindTopDocuments(raw string) ([]ranker.ScoredDoc, error)
}

type options struct {
	metrics *metrics.Metrics
	workers int
}

type Option func(*options)

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithWorkers bounds the number of queries in flight. Values below 1 use
// GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// ProcessQueries runs every query and returns the results in query order.
// The first failing query cancels the rest and its error is returned.
func ProcessQueries(ctx context.Context, s Searcher, queries []string, opts ...Option) ([][]ranker.ScoredDoc, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers < 1 {
		o.workers = runtime.GOMAXPROCS(0)
	}

	if _, ok := logger.RequestID(ctx); !ok {
		ctx = logger.WithRequestID(ctx, uuid.NewString())
	}
	log := logger.FromContext(ctx).With("component", "batch")
	start := time.Now()

	results := make([][]ranker.ScoredDoc, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for i, q := range queries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			docs, err := s.FindTopDocuments(q)
			if err != nil {
				return fmt.Errorf("query %d %q: %w", i, q, err)
			}
			results[i] = docs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Warn("batch failed", "queries", len(queries), "error", err)
		return nil, err
	}

	if o.metrics != nil {
		o.metrics.BatchQueriesTotal.Add(float64(len(queries)))
	}
	log.Debug("batch processed",
		"queries", len(queries),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return results, nil
}

// ProcessQueriesJoined runs every query and concatenates the results in
// query order.
func ProcessQueriesJoined(ctx context.Context, s Searcher, queries []string, opts ...Option) ([]ranker.ScoredDoc, error) {
	perQuery, err := ProcessQueries(ctx, s, queries, opts...)
	if err != nil {
		return nil, err
	}
	total := 0
	for _, docs := range perQuery {
		total += len(docs)
	}
	joined := make([]ranker.ScoredDoc, 0, total)
	for _, docs := range perQuery {
		joined = append(joined, docs...)
	}
	return joined, nil
}
