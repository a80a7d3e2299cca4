// Package index holds the document store of the search server: the forward
// index (document → word → term frequency), the inverted index
// (word → document → term frequency), per-document metadata, and the set of
// live document ids.
package index

import (
	"log/slog"
	"runtime"
	"strings"
	"sync"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/execution"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/searchserver/pkg/errors"
)

type Index struct {
	mu         sync.RWMutex
	stopWords  *tokenizer.StopWords
	wordDocs   map[string]map[int]float64
	docWords   map[int]map[string]float64
	documents  map[int]DocumentData
	ids        *roaring64.Bitmap
	generation uint64
	logger     *slog.Logger
}

func New(stopWords *tokenizer.StopWords) *Index {
	return &Index{
		stopWords: stopWords,
		wordDocs:  make(map[string]map[int]float64),
		docWords:  make(map[int]map[string]float64),
		documents: make(map[int]DocumentData),
		ids:       roaring64.New(),
		logger:    slog.Default().With("component", "index"),
	}
}

// AddDocument tokenizes text, drops stop words and records the term
// frequencies of the remaining words under id. Nothing is modified when
// validation fails.
func (ix *Index) AddDocument(id int, text string, status Status, ratings []int) error {
	if id < 0 {
		return apperrors.InvalidInputf("document id %d is negative", id)
	}
	words, err := tokenizer.Tokenize(text)
	if err != nil {
		return err
	}
	words = ix.stopWords.Filter(words)

	termFreqs := make(map[string]float64, len(words))
	if len(words) > 0 {
		inc := 1.0 / float64(len(words))
		for _, word := range words {
			termFreqs[word] += inc
		}
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	if _, exists := ix.documents[id]; exists {
		return apperrors.InvalidInputf("document id %d already exists", id)
	}

	row := make(map[string]float64, len(termFreqs))
	for word, tf := range termFreqs {
		// Own the key so the index never pins the caller's text.
		owned := strings.Clone(word)
		docs, ok := ix.wordDocs[owned]
		if !ok {
			docs = make(map[int]float64)
			ix.wordDocs[owned] = docs
		}
		docs[id] = tf
		row[owned] = tf
	}
	ix.docWords[id] = row
	ix.documents[id] = DocumentData{
		Rating: AverageRating(ratings),
		Status: status,
	}
	ix.ids.Add(uint64(id))
	ix.generation++

	ix.logger.Debug("document added",
		"doc_id", id,
		"distinct_words", len(row),
		"status", status,
	)
	return nil
}

// RemoveDocument deletes id from every table and reports whether it was
// present. Unknown ids are ignored. With
// the parallel policy the per-word postings erasures are spread over a
// worker group; each worker touches only its own word's postings map.
func (ix *Index) RemoveDocument(policy execution.Policy, id int) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	row, ok := ix.docWords[id]
	if !ok {
		return false
	}

	postings := make([]map[int]float64, 0, len(row))
	for word := range row {
		if docs, ok := ix.wordDocs[word]; ok {
			postings = append(postings, docs)
		}
	}

	switch policy {
	case execution.Parallel:
		var g errgroup.Group
		g.SetLimit(runtime.GOMAXPROCS(0))
		for _, docs := range postings {
			g.Go(func() error {
				delete(docs, id)
				return nil
			})
		}
		_ = g.Wait()
	default:
		for _, docs := range postings {
			delete(docs, id)
		}
	}

	for word := range row {
		if len(ix.wordDocs[word]) == 0 {
			delete(ix.wordDocs, word)
		}
	}
	delete(ix.docWords, id)
	delete(ix.documents, id)
	ix.ids.Remove(uint64(id))
	ix.generation++

	ix.logger.Debug("document removed",
		"doc_id", id,
		"words", len(row),
		"policy", policy,
	)
	return true
}

// GetWordFrequencies returns a copy of the forward-index row for id, or an
// empty map if id is unknown.
func (ix *Index) GetWordFrequencies(id int) map[string]float64 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	row := ix.docWords[id]
	out := make(map[string]float64, len(row))
	for word, tf := range row {
		out[word] = tf
	}
	return out
}

func (ix *Index) DocumentCount() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.documents)
}

// IDs returns the live document ids in ascending order.
func (ix *Index) IDs() []int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make([]int, 0, ix.ids.GetCardinality())
	it := ix.ids.Iterator()
	for it.HasNext() {
		out = append(out, int(it.Next()))
	}
	return out
}

func (ix *Index) Contains(id int) bool {
	if id < 0 {
		return false
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.ids.Contains(uint64(id))
}

func (ix *Index) Document(id int) (DocumentData, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	data, ok := ix.documents[id]
	return data, ok
}

// Generation changes every time a document is added or removed.
func (ix *Index) Generation() uint64 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.generation
}

func (ix *Index) StopWords() *tokenizer.StopWords {
	return ix.stopWords
}

// View runs fn with a read-only view of the index. Writers are excluded for
// the duration of fn, so one query observes a single index state.
func (ix *Index) View(fn func(r Reader) error) error {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return fn(Reader{ix: ix})
}

// Reader exposes the index tables inside View. Maps returned by a Reader are
// borrowed: callers must not modify them or keep them after fn returns.
type Reader struct {
	ix *Index
}

func (r Reader) Postings(word string) map[int]float64 {
	return r.ix.wordDocs[word]
}

func (r Reader) Document(id int) (DocumentData, bool) {
	data, ok := r.ix.documents[id]
	return data, ok
}

func (r Reader) DocumentCount() int {
	return len(r.ix.documents)
}

func (r Reader) WordFrequencies(id int) map[string]float64 {
	return r.ix.docWords[id]
}
