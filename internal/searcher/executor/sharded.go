package executor

import (
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/searcher/accumulator"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/searcher/merger"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/searcher/ranker"
)

// findAllParallel fans the plus words out to one worker each, all adding
// into a lock-striped accumulator. Minus words are applied only after every
// plus worker has finished, so an erased id cannot be re-added.
func (e *Executor) findAllParallel(r index.Reader, q *parser.Query, pred Predicate) []ranker.ScoredDoc {
	acc := accumulator.New[int, float64](e.buckets)
	total := r.DocumentCount()
	workers := runtime.GOMAXPROCS(0)

	var plus errgroup.Group
	plus.SetLimit(workers)
	for _, word := range distinct(q.PlusWords) {
		postings := r.Postings(word)
		if len(postings) == 0 {
			continue
		}
		idf := ranker.IDF(total, len(postings))
		plus.Go(func() error {
			for id, tf := range postings {
				data, _ := r.Document(id)
				if pred(id, data.Status, data.Rating) {
					acc.Add(id, idf*tf)
				}
			}
			return nil
		})
	}
	_ = plus.Wait()

	var minus errgroup.Group
	minus.SetLimit(workers)
	for _, word := range distinct(q.MinusWords) {
		postings := r.Postings(word)
		if len(postings) == 0 {
			continue
		}
		minus.Go(func() error {
			for id := range postings {
				acc.Erase(id)
			}
			return nil
		})
	}
	_ = minus.Wait()

	return collect(r, acc.BuildOrdinaryMap())
}

// rankParallel sorts contiguous chunks of docs concurrently, keeps the best
// of each and merges the survivors.
func rankParallel(docs []ranker.ScoredDoc) []ranker.ScoredDoc {
	workers := runtime.GOMAXPROCS(0)
	if len(docs) <= ranker.MaxResultDocumentCount || workers < 2 {
		return ranker.Rank(docs)
	}
	size := (len(docs) + workers - 1) / workers
	if size < ranker.MaxResultDocumentCount {
		size = ranker.MaxResultDocumentCount
	}

	chunks := make([][]ranker.ScoredDoc, 0, workers)
	for start := 0; start < len(docs); start += size {
		chunks = append(chunks, docs[start:min(start+size, len(docs))])
	}

	var g errgroup.Group
	for i := range chunks {
		g.Go(func() error {
			chunks[i] = ranker.Rank(chunks[i])
			return nil
		})
	}
	_ = g.Wait()

	return merger.Merge(chunks, ranker.MaxResultDocumentCount)
}
