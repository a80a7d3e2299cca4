package executor

import (
	"log/slog"
	"slices"

	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/execution"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/searcher/ranker"
	apperrors "github.com/Adithya-Monish-Kumar-K/searchserver/pkg/errors"
)

// DefaultAccumulatorBuckets is the number of lock stripes used by the
// parallel scoring path when none is configured.
const DefaultAccumulatorBuckets = 6

// Predicate decides whether a document may appear in results. Under the
// parallel policy it is called from several goroutines at once.
type Predicate func(id int, status index.Status, rating int) bool

// ByStatus accepts documents with the given status only.
func ByStatus(status index.Status) Predicate {
	return func(_ int, s index.Status, _ int) bool {
		return s == status
	}
}

type SearchResult struct {
	Query     string             `json:"query"`
	Policy    string             `json:"policy"`
	TotalHits int                `json:"total_hits"`
	Results   []ranker.ScoredDoc `json:"results"`
}

type Executor struct {
	ix      *index.Index
	buckets int
	logger  *slog.Logger
}

func New(ix *index.Index, buckets int) *Executor {
	if buckets < 1 {
		buckets = DefaultAccumulatorBuckets
	}
	return &Executor{
		ix:      ix,
		buckets: buckets,
		logger:  slog.Default().With("component", "query-executor"),
	}
}

// Buckets is the accumulator stripe count after defaults are applied.
func (e *Executor) Buckets() int {
	return e.buckets
}

// FindTopDocuments parses raw, scores every matching document accepted by
// pred and returns the best ranker.MaxResultDocumentCount of them.
func (e *Executor) FindTopDocuments(policy execution.Policy, raw string, pred Predicate) (*SearchResult, error) {
	q, err := parseWith(policy, raw, e.ix)
	if err != nil {
		return nil, err
	}
	all, err := e.FindAllDocuments(policy, q, pred)
	if err != nil {
		return nil, err
	}

	var ranked []ranker.ScoredDoc
	if policy == execution.Parallel {
		ranked = rankParallel(all)
	} else {
		ranked = ranker.Rank(all)
	}

	e.logger.Debug("query executed",
		"query", raw,
		"policy", policy,
		"plus_words", len(q.PlusWords),
		"minus_words", len(q.MinusWords),
		"candidates", len(all),
		"results", len(ranked),
	)
	return &SearchResult{
		Query:     raw,
		Policy:    policy.String(),
		TotalHits: len(all),
		Results:   ranked,
	}, nil
}

// FindAllDocuments returns every document matching q and pred with its
// relevance, ordered by id. The whole computation observes one index state.
func (e *Executor) FindAllDocuments(policy execution.Policy, q *parser.Query, pred Predicate) ([]ranker.ScoredDoc, error) {
	if pred == nil {
		pred = ByStatus(index.StatusActual)
	}
	var docs []ranker.ScoredDoc
	err := e.ix.View(func(r index.Reader) error {
		if policy == execution.Parallel {
			docs = e.findAllParallel(r, q, pred)
		} else {
			docs = findAllSequential(r, q, pred)
		}
		return nil
	})
	return docs, err
}

func findAllSequential(r index.Reader, q *parser.Query, pred Predicate) []ranker.ScoredDoc {
	relevance := make(map[int]float64)
	total := r.DocumentCount()
	for _, word := range distinct(q.PlusWords) {
		postings := r.Postings(word)
		if len(postings) == 0 {
			continue
		}
		idf := ranker.IDF(total, len(postings))
		for id, tf := range postings {
			data, _ := r.Document(id)
			if pred(id, data.Status, data.Rating) {
				relevance[id] += idf * tf
			}
		}
	}
	for _, word := range q.MinusWords {
		for id := range r.Postings(word) {
			delete(relevance, id)
		}
	}
	return collect(r, relevance)
}

// MatchDocument reports which plus words of raw occur in document id. The
// list is empty when any minus word occurs in the document.
func (e *Executor) MatchDocument(policy execution.Policy, raw string, id int) ([]string, index.Status, error) {
	if id < 0 {
		return nil, 0, apperrors.InvalidInputf("document id %d is negative", id)
	}
	q, err := parseWith(policy, raw, e.ix)
	if err != nil {
		return nil, 0, err
	}

	var (
		matched []string
		status  index.Status
	)
	err = e.ix.View(func(r index.Reader) error {
		data, ok := r.Document(id)
		if !ok {
			return apperrors.InvalidInputf("document id %d not found", id)
		}
		status = data.Status
		row := r.WordFrequencies(id)
		matched = make([]string, 0)
		for _, word := range q.MinusWords {
			if _, ok := row[word]; ok {
				return nil
			}
		}
		for _, word := range q.PlusWords {
			if _, ok := row[word]; ok {
				matched = append(matched, word)
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	if policy == execution.Parallel {
		slices.Sort(matched)
		matched = slices.Compact(matched)
	}
	return matched, status, nil
}

func parseWith(policy execution.Policy, raw string, ix *index.Index) (*parser.Query, error) {
	if policy == execution.Parallel {
		return parser.ParseParallel(raw, ix.StopWords())
	}
	return parser.Parse(raw, ix.StopWords())
}

// collect turns the relevance map into scored documents ordered by id.
func collect(r index.Reader, relevance map[int]float64) []ranker.ScoredDoc {
	docs := make([]ranker.ScoredDoc, 0, len(relevance))
	for id, rel := range relevance {
		data, _ := r.Document(id)
		docs = append(docs, ranker.ScoredDoc{
			ID:        id,
			Relevance: rel,
			Rating:    data.Rating,
		})
	}
	slices.SortFunc(docs, func(a, b ranker.ScoredDoc) int {
		return a.ID - b.ID
	})
	return docs
}

func distinct(words []string) []string {
	if len(words) < 2 {
		return words
	}
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}
