// Package analytics keeps a bounded history of find requests and answers
// questions about it, such as how many recent requests found nothing.
package analytics

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/execution"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/searcher/ranker"
)

// DefaultHistorySize is one request per minute for a day.
const DefaultHistorySize = 1440

type Searcher interface {
	FindTopDocumentsWith(policy execution.Policy, raw string, pred executor.Predicate) ([]ranker.ScoredDoc, error)
}

// RequestQueue forwards find requests to a searcher and remembers the last
// capacity successful ones. Failed requests are not recorded.
type RequestQueue struct {
	mu       sync.Mutex
	searcher Searcher
	records  []QueryRecord
	head     int
	size     int
	noResult int
	now      func() time.Time
	logger   *slog.Logger
}

func NewRequestQueue(s Searcher, capacity int) *RequestQueue {
	if capacity < 1 {
		capacity = DefaultHistorySize
	}
	return &RequestQueue{
		searcher: s,
		records:  make([]QueryRecord, capacity),
		now:      time.Now,
		logger:   slog.Default().With("component", "request-queue"),
	}
}

// AddFindRequest searches ACTUAL documents.
func (q *RequestQueue) AddFindRequest(raw string) ([]ranker.ScoredDoc, error) {
	return q.AddFindRequestWith(execution.Sequential, raw, executor.ByStatus(index.StatusActual))
}

func (q *RequestQueue) AddFindRequestByStatus(raw string, status index.Status) ([]ranker.ScoredDoc, error) {
	return q.AddFindRequestWith(execution.Sequential, raw, executor.ByStatus(status))
}

func (q *RequestQueue) AddFindRequestWith(policy execution.Policy, raw string, pred executor.Predicate) ([]ranker.ScoredDoc, error) {
	docs, err := q.searcher.FindTopDocumentsWith(policy, raw, pred)
	if err != nil {
		return nil, err
	}
	q.record(QueryRecord{
		Query:     raw,
		Policy:    policy.String(),
		Returned:  len(docs),
		Timestamp: q.now(),
	})
	return docs, nil
}

func (q *RequestQueue) record(rec QueryRecord) {
	q.mu.Lock()
	defer q.mu.Unlock()

	capacity := len(q.records)
	if q.size == capacity {
		evicted := q.records[q.head]
		if evicted.Returned == 0 {
			q.noResult--
		}
		q.records[q.head] = rec
		q.head = (q.head + 1) % capacity
	} else {
		q.records[(q.head+q.size)%capacity] = rec
		q.size++
	}
	if rec.Returned == 0 {
		q.noResult++
		q.logger.Debug("request found nothing", "query", rec.Query)
	}
}

// NoResultRequests counts recorded requests that returned no documents.
func (q *RequestQueue) NoResultRequests() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.noResult
}

func (q *RequestQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

func (q *RequestQueue) Capacity() int {
	return len(q.records)
}

// Recent returns up to n records, newest first.
func (q *RequestQueue) Recent(n int) []QueryRecord {
	q.mu.Lock()
	defer q.mu.Unlock()
	if n > q.size || n < 0 {
		n = q.size
	}
	out := make([]QueryRecord, 0, n)
	for i := 0; i < n; i++ {
		idx := (q.head + q.size - 1 - i) % len(q.records)
		out = append(out, q.records[idx])
	}
	return out
}

// Stats summarises the history; top lists hold at most limit entries.
func (q *RequestQueue) Stats(limit int) Stats {
	q.mu.Lock()
	counts := make(map[string]int64)
	zero := make(map[string]int64)
	for i := 0; i < q.size; i++ {
		rec := q.records[(q.head+i)%len(q.records)]
		counts[rec.Query]++
		if rec.Returned == 0 {
			zero[rec.Query]++
		}
	}
	stats := Stats{
		Requests:         q.size,
		NoResultRequests: q.noResult,
	}
	q.mu.Unlock()

	stats.TopQueries = topN(counts, limit)
	stats.ZeroResultQueries = topN(zero, limit)
	return stats
}

func topN(m map[string]int64, n int) []QueryCount {
	items := make([]QueryCount, 0, len(m))
	for q, c := range m {
		items = append(items, QueryCount{Query: q, Count: c})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Count != items[j].Count {
			return items[i].Count > items[j].Count
		}
		return items[i].Query < items[j].Query
	})
	if n > 0 && len(items) > n {
		items = items[:n]
	}
	return items
}
