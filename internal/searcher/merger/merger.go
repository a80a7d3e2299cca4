// Package merger combines independently ranked result chunks into a single
// best-first list of bounded size.
package merger

import (
	"container/heap"

	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/searcher/ranker"
)

// Merge returns the best limit documents across all chunks, ordered by
// ranker.Less. A limit <= 0 falls back to ranker.MaxResultDocumentCount.
func Merge(chunks [][]ranker.ScoredDoc, limit int) []ranker.ScoredDoc {
	if limit <= 0 {
		limit = ranker.MaxResultDocumentCount
	}
	h := &worstFirstHeap{}
	heap.Init(h)
	for _, chunk := range chunks {
		for _, doc := range chunk {
			heap.Push(h, doc)
			if h.Len() > limit {
				heap.Pop(h)
			}
		}
	}
	result := make([]ranker.ScoredDoc, h.Len())
	for i := len(result) - 1; i >= 0; i-- {
		result[i] = heap.Pop(h).(ranker.ScoredDoc)
	}
	return result
}

// worstFirstHeap keeps the lowest-ranked document at the root so it can be
// evicted once the heap grows past the limit.
type worstFirstHeap []ranker.ScoredDoc

func (h worstFirstHeap) Len() int { return len(h) }

func (h worstFirstHeap) Less(i, j int) bool { return ranker.Less(h[j], h[i]) }

func (h worstFirstHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *worstFirstHeap) Push(x any) {
	*h = append(*h, x.(ranker.ScoredDoc))
}

func (h *worstFirstHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
