package validator

import (
	"errors"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/ingestion"
)

func TestValidateDocumentEvent(t *testing.T) {
	tests := []struct {
		name   string
		ev     ingestion.DocumentEvent
		fields []string
	}{
		{"valid add", ingestion.DocumentEvent{Op: ingestion.OpAdd, DocumentID: 1, Text: "cat dog", Ratings: []int{1}}, nil},
		{"valid add with status", ingestion.DocumentEvent{Op: ingestion.OpAdd, DocumentID: 2, Text: "cat", Status: "banned"}, nil},
		{"valid remove", ingestion.DocumentEvent{Op: ingestion.OpRemove, DocumentID: 3}, nil},
		{"unknown op", ingestion.DocumentEvent{Op: "upsert", DocumentID: 1}, []string{"op"}},
		{"negative id", ingestion.DocumentEvent{Op: ingestion.OpRemove, DocumentID: -4}, []string{"document_id"}},
		{"control character", ingestion.DocumentEvent{Op: ingestion.OpAdd, DocumentID: 1, Text: "cat\tdog"}, []string{"text"}},
		{"bad status and id", ingestion.DocumentEvent{Op: ingestion.OpAdd, DocumentID: -1, Text: "x", Status: "gone"}, []string{"document_id", "status"}},
		{"text too long", ingestion.DocumentEvent{Op: ingestion.OpAdd, Text: strings.Repeat("a", maxTextLength+1)}, []string{"text"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocumentEvent(&tt.ev)
			if len(tt.fields) == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want *ValidationError", err)
			}
			if len(verr.Fields) != len(tt.fields) {
				t.Errorf("fields = %v, want %v", verr.Fields, tt.fields)
			}
			for _, f := range tt.fields {
				if _, ok := verr.Fields[f]; !ok {
					t.Errorf("missing field %q in %v", f, verr.Fields)
				}
			}
		})
	}
}

func TestValidationErrorIsSorted(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"status": "bad", "document_id": "neg"}}
	if got, want := err.Error(), "document_id:neg; status:bad"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
