package parser

import (
	"slices"

	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/searchserver/pkg/errors"
)

// Query is the structured form of a raw query. Plus words must match and
// contribute to relevance; a document containing any minus word is
// excluded. Stop words never appear in either list.
type Query struct {
	RawQuery   string
	PlusWords  []string
	MinusWords []string
}

type QueryWord struct {
	Data    string
	IsMinus bool
	IsStop  bool
}

// ParseQueryWord classifies a single query token. A leading '-' marks a
// minus word; the remainder must be non-empty, must not start with another
// '-', and must be a valid word.
func ParseQueryWord(text string, stopWords *tokenizer.StopWords) (QueryWord, error) {
	if text == "" {
		return QueryWord{}, apperrors.New(apperrors.ErrInvalidInput, "empty query word")
	}
	isMinus := false
	if text[0] == '-' {
		isMinus = true
		text = text[1:]
	}
	if text == "" {
		return QueryWord{}, apperrors.New(apperrors.ErrInvalidInput, "missing word after '-'")
	}
	if text[0] == '-' {
		return QueryWord{}, apperrors.InvalidInputf("more than one '-' before %q", text[1:])
	}
	if !tokenizer.IsValidWord(text) {
		return QueryWord{}, apperrors.InvalidInputf("query word %q contains a control character", text)
	}
	return QueryWord{
		Data:    text,
		IsMinus: isMinus,
		IsStop:  stopWords.Contains(text),
	}, nil
}

// Parse builds a Query with sorted, deduplicated plus and minus words.
func Parse(text string, stopWords *tokenizer.StopWords) (*Query, error) {
	q, err := ParseParallel(text, stopWords)
	if err != nil {
		return nil, err
	}
	slices.Sort(q.PlusWords)
	q.PlusWords = slices.Compact(q.PlusWords)
	slices.Sort(q.MinusWords)
	q.MinusWords = slices.Compact(q.MinusWords)
	return q, nil
}

// ParseParallel validates and classifies the words of text but keeps them in
// source order, duplicates included.
func ParseParallel(text string, stopWords *tokenizer.StopWords) (*Query, error) {
	q := &Query{
		RawQuery:   text,
		PlusWords:  make([]string, 0),
		MinusWords: make([]string, 0),
	}
	for _, token := range tokenizer.SplitWords(text) {
		word, err := ParseQueryWord(token, stopWords)
		if err != nil {
			return nil, err
		}
		if word.IsStop {
			continue
		}
		if word.IsMinus {
			q.MinusWords = append(q.MinusWords, word.Data)
		} else {
			q.PlusWords = append(q.PlusWords, word.Data)
		}
	}
	return q, nil
}
