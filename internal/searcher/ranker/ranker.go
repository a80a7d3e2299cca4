package ranker

import (
	"math"
	"slices"
)

const (
	// MaxResultDocumentCount caps every top-documents result.
	MaxResultDocumentCount = 5
	// RelevanceEpsilon is the distance below which two relevances are
	// considered equal and the rating decides the order.
	RelevanceEpsilon = 1e-6
)

type ScoredDoc struct {
	ID        int     `json:"id"`
	Relevance float64 `json:"relevance"`
	Rating    int     `json:"rating"`
}

// IDF returns ln(totalDocs / docFreq), or 0 when either count is not
// positive.
func IDF(totalDocs, docFreq int) float64 {
	if totalDocs <= 0 || docFreq <= 0 {
		return 0
	}
	return math.Log(float64(totalDocs) / float64(docFreq))
}

// Less reports whether a ranks ahead of b: higher relevance first, then
// higher rating when relevances are within RelevanceEpsilon, then lower id.
func Less(a, b ScoredDoc) bool {
	if math.Abs(a.Relevance-b.Relevance) < RelevanceEpsilon {
		if a.Rating != b.Rating {
			return a.Rating > b.Rating
		}
		return a.ID < b.ID
	}
	return a.Relevance > b.Relevance
}

func Compare(a, b ScoredDoc) int {
	switch {
	case Less(a, b):
		return -1
	case Less(b, a):
		return 1
	default:
		return 0
	}
}

// Sort orders docs best first.
func Sort(docs []ScoredDoc) {
	slices.SortFunc(docs, Compare)
}

// Truncate keeps at most limit docs; limit <= 0 keeps everything.
func Truncate(docs []ScoredDoc, limit int) []ScoredDoc {
	if limit > 0 && len(docs) > limit {
		return docs[:limit]
	}
	return docs
}

// Rank sorts docs and truncates them to MaxResultDocumentCount.
func Rank(docs []ScoredDoc) []ScoredDoc {
	Sort(docs)
	return Truncate(docs, MaxResultDocumentCount)
}
