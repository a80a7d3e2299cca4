// Package dedup finds and removes documents whose set of words repeats the
// word set of a document with a lower id.
package dedup

import (
	"log/slog"
	"slices"
	"strings"
)

type Index interface {
	IDs() []int
	GetWordFrequencies(id int) map[string]float64
}

type Remover interface {
	Index
	RemoveDocument(id int)
}

// FindDuplicates returns, in ascending order, the ids whose word set equals
// that of some lower id. Word frequencies and order are ignored.
func FindDuplicates(ix Index) []int {
	seen := make(map[string]struct{})
	var duplicates []int
	for _, id := range ix.IDs() {
		key := wordSetKey(ix.GetWordFrequencies(id))
		if _, ok := seen[key]; ok {
			duplicates = append(duplicates, id)
			continue
		}
		seen[key] = struct{}{}
	}
	return duplicates
}

// RemoveDuplicates removes every duplicate found by FindDuplicates, logging
// each one, and returns the removed ids.
func RemoveDuplicates(ix Remover, logger *slog.Logger) []int {
	if logger == nil {
		logger = slog.Default().With("component", "dedup")
	}
	duplicates := FindDuplicates(ix)
	for _, id := range duplicates {
		logger.Info("found duplicate document", "doc_id", id)
		ix.RemoveDocument(id)
	}
	return duplicates
}

func wordSetKey(freqs map[string]float64) string {
	words := make([]string, 0, len(freqs))
	for w := range freqs {
		words = append(words, w)
	}
	slices.Sort(words)
	// Words never contain spaces, so the join is unambiguous.
	return strings.Join(words, " ")
}
