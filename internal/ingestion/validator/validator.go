// Package validator checks document events before they reach the index and
// returns per-field error details.
package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/ingestion"
)

const (
	maxTextLength  = 1048576
	maxRatingCount = 10000
)

// ValidationError holds per-field validation failure messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s:%s", field, e.Fields[field]))
	}
	return strings.Join(parts, "; ")
}

// ValidateDocumentEvent checks the fields an event's operation relies on and
// returns a ValidationError listing every problem found.
func ValidateDocumentEvent(ev *ingestion.DocumentEvent) error {
	errs := make(map[string]string)

	if ev.DocumentID < 0 {
		errs["document_id"] = "document id must not be negative"
	}
	switch ev.Op {
	case ingestion.OpRemove:
	case ingestion.OpAdd:
		if len(ev.Text) > maxTextLength {
			errs["text"] = fmt.Sprintf("text must be at most %d bytes", maxTextLength)
		} else if _, err := tokenizer.Tokenize(ev.Text); err != nil {
			errs["text"] = "text contains a control character"
		}
		if _, err := ev.DocumentStatus(); err != nil {
			errs["status"] = fmt.Sprintf("unknown status %q", ev.Status)
		}
		if len(ev.Ratings) > maxRatingCount {
			errs["ratings"] = fmt.Sprintf("at most %d ratings are allowed", maxRatingCount)
		}
	default:
		errs["op"] = fmt.Sprintf("op must be %q or %q", ingestion.OpAdd, ingestion.OpRemove)
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
