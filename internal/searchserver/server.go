// Package searchserver is the public face of the search engine: it owns the
// index and the query executor and adds logging and metrics around every
// operation.
package searchserver

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/execution"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/metrics"
)

type Option func(*Server)

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithAccumulatorBuckets sets the lock-stripe count used by parallel
// queries. Values below 1 select executor.DefaultAccumulatorBuckets.
func WithAccumulatorBuckets(n int) Option {
	return func(s *Server) { s.buckets = n }
}

type Server struct {
	index      *index.Index
	exec       *executor.Executor
	buckets    int
	instanceID string
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// New builds a server whose stop words are the given words.
func New(stopWords []string, opts ...Option) (*Server, error) {
	sw, err := tokenizer.NewStopWords(stopWords)
	if err != nil {
		return nil, fmt.Errorf("building stop words: %w", err)
	}
	return newServer(sw, opts), nil
}

// NewFromText builds a server whose stop words are the space-separated words
// of text.
func NewFromText(text string, opts ...Option) (*Server, error) {
	sw, err := tokenizer.ParseStopWords(text)
	if err != nil {
		return nil, fmt.Errorf("building stop words: %w", err)
	}
	return newServer(sw, opts), nil
}

func newServer(sw *tokenizer.StopWords, opts []Option) *Server {
	s := &Server{
		logger: slog.Default().With("component", "search-server"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.index = index.New(sw)
	s.exec = executor.New(s.index, s.buckets)
	s.instanceID = uuid.NewString()
	s.logger.Info("search server created",
		"stop_words", sw.Len(),
		"accumulator_buckets", s.exec.Buckets(),
		"instance_id", s.instanceID,
	)
	return s
}

func (s *Server) AddDocument(id int, text string, status index.Status, ratings []int) error {
	if err := s.index.AddDocument(id, text, status, ratings); err != nil {
		s.logger.Warn("add document rejected", "doc_id", id, "error", err)
		return err
	}
	if s.metrics != nil {
		s.metrics.DocsIndexedTotal.Inc()
		s.metrics.IndexDocumentCount.Set(float64(s.index.DocumentCount()))
	}
	return nil
}

// RemoveDocument removes id sequentially. Absent ids are ignored.
func (s *Server) RemoveDocument(id int) {
	s.RemoveDocumentWith(execution.Sequential, id)
}

func (s *Server) RemoveDocumentWith(policy execution.Policy, id int) {
	if !s.index.RemoveDocument(policy, id) {
		return
	}
	if s.metrics != nil {
		s.metrics.DocsRemovedTotal.Inc()
		s.metrics.IndexDocumentCount.Set(float64(s.index.DocumentCount()))
	}
}

// FindTopDocuments returns the best ACTUAL documents for raw.
func (s *Server) FindTopDocuments(raw string) ([]ranker.ScoredDoc, error) {
	return s.FindTopDocumentsWith(execution.Sequential, raw, executor.ByStatus(index.StatusActual))
}

func (s *Server) FindTopDocumentsByStatus(raw string, status index.Status) ([]ranker.ScoredDoc, error) {
	return s.FindTopDocumentsWith(execution.Sequential, raw, executor.ByStatus(status))
}

// FindTopDocumentsWith runs raw under policy, keeping documents accepted by
// pred. A nil pred accepts ACTUAL documents only.
func (s *Server) FindTopDocumentsWith(policy execution.Policy, raw string, pred executor.Predicate) ([]ranker.ScoredDoc, error) {
	res, err := s.Search(policy, raw, pred)
	if err != nil {
		return nil, err
	}
	return res.Results, nil
}

// Search is FindTopDocumentsWith returning the full executor result,
// including the number of candidates before truncation.
func (s *Server) Search(policy execution.Policy, raw string, pred executor.Predicate) (*executor.SearchResult, error) {
	start := time.Now()
	res, err := s.exec.FindTopDocuments(policy, raw, pred)
	s.observeSearch(policy, res, err, time.Since(start))
	if err != nil {
		s.logger.Debug("query rejected", "query", raw, "error", err)
		return nil, err
	}
	return res, nil
}

func (s *Server) observeSearch(policy execution.Policy, res *executor.SearchResult, err error, took time.Duration) {
	if s.metrics == nil {
		return
	}
	resultType := "hit"
	switch {
	case err != nil:
		resultType = "error"
	case len(res.Results) == 0:
		resultType = "zero_result"
	}
	s.metrics.SearchQueriesTotal.WithLabelValues(policy.String(), resultType).Inc()
	s.metrics.SearchLatency.WithLabelValues(policy.String()).Observe(took.Seconds())
	if err == nil {
		s.metrics.SearchResultsCount.Observe(float64(len(res.Results)))
	}
}

// MatchDocument lists the plus words of raw present in document id, or none
// if a minus word is present, together with the document's status.
func (s *Server) MatchDocument(raw string, id int) ([]string, index.Status, error) {
	return s.MatchDocumentWith(execution.Sequential, raw, id)
}

func (s *Server) MatchDocumentWith(policy execution.Policy, raw string, id int) ([]string, index.Status, error) {
	words, status, err := s.exec.MatchDocument(policy, raw, id)
	if s.metrics != nil {
		result := "ok"
		if err != nil {
			result = "error"
		}
		s.metrics.MatchQueriesTotal.WithLabelValues(policy.String(), result).Inc()
	}
	return words, status, err
}

func (s *Server) GetWordFrequencies(id int) map[string]float64 {
	return s.index.GetWordFrequencies(id)
}

func (s *Server) DocumentCount() int {
	return s.index.DocumentCount()
}

// IDs returns the live document ids in ascending order.
func (s *Server) IDs() []int {
	return s.index.IDs()
}

func (s *Server) Contains(id int) bool {
	return s.index.Contains(id)
}

// Generation changes whenever the document set changes.
func (s *Server) Generation() uint64 {
	return s.index.Generation()
}

// InstanceID identifies this server's in-memory index. It is fresh for every
// process, so two indexes that reach the same generation never share it.
func (s *Server) InstanceID() string {
	return s.instanceID
}

// AccumulatorBuckets is the lock-stripe count parallel queries use.
func (s *Server) AccumulatorBuckets() int {
	return s.exec.Buckets()
}

func (s *Server) StopWords() []string {
	return s.index.StopWords().Words()
}
