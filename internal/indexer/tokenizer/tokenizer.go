// Package tokenizer splits document and query text into words, validates
// them, and holds the immutable stop-word set used by the index and the
// query parser.
package tokenizer

import (
	"sort"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/searchserver/pkg/errors"
)

// SplitWords splits text on ASCII spaces and returns the non-empty words in
// source order. The returned strings share memory with text.
func SplitWords(text string) []string {
	words := make([]string, 0, strings.Count(text, " ")+1)
	for len(text) > 0 {
		i := strings.IndexByte(text, ' ')
		if i < 0 {
			words = append(words, text)
			break
		}
		if i > 0 {
			words = append(words, text[:i])
		}
		text = text[i+1:]
	}
	return words
}

// IsValidWord reports whether word is free of ASCII control characters.
func IsValidWord(word string) bool {
	for i := 0; i < len(word); i++ {
		if word[i] < ' ' {
			return false
		}
	}
	return true
}

// Tokenize splits text and validates every word.
func Tokenize(text string) ([]string, error) {
	words := SplitWords(text)
	for _, word := range words {
		if !IsValidWord(word) {
			return nil, apperrors.InvalidInputf("word %q contains a control character", word)
		}
	}
	return words, nil
}

// StopWords is an immutable set of words excluded from indexing and querying.
type StopWords struct {
	set map[string]struct{}
}

// NewStopWords builds a stop-word set from words, dropping empty entries and
// duplicates. It fails if any word is invalid.
func NewStopWords(words []string) (*StopWords, error) {
	set := make(map[string]struct{}, len(words))
	for _, word := range words {
		if word == "" {
			continue
		}
		if !IsValidWord(word) {
			return nil, apperrors.InvalidInputf("stop word %q contains a control character", word)
		}
		set[strings.Clone(word)] = struct{}{}
	}
	return &StopWords{set: set}, nil
}

// ParseStopWords builds a stop-word set from space-separated text.
func ParseStopWords(text string) (*StopWords, error) {
	return NewStopWords(SplitWords(text))
}

func (s *StopWords) Contains(word string) bool {
	if s == nil {
		return false
	}
	_, ok := s.set[word]
	return ok
}

func (s *StopWords) Len() int {
	if s == nil {
		return 0
	}
	return len(s.set)
}

// Words returns the stop words in lexical order.
func (s *StopWords) Words() []string {
	if s == nil {
		return nil
	}
	words := make([]string, 0, len(s.set))
	for word := range s.set {
		words = append(words, word)
	}
	sort.Strings(words)
	return words
}

// Filter returns the words of in that are not stop words, preserving order.
func (s *StopWords) Filter(in []string) []string {
	out := make([]string, 0, len(in))
	for _, word := range in {
		if !s.Contains(word) {
			out = append(out, word)
		}
	}
	return out
}
