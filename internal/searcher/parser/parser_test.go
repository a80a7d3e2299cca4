package parser

import (
	"reflect"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/searchserver/pkg/errors"
)

func stopWords(t *testing.T, text string) *tokenizer.StopWords {
	t.Helper()
	sw, err := tokenizer.ParseStopWords(text)
	if err != nil {
		t.Fatal(err)
	}
	return sw
}

func TestParse(t *testing.T) {
	sw := stopWords(t, "in the")
	tests := []struct {
		name  string
		query string
		plus  []string
		minus []string
	}{
		{"empty", "", []string{}, []string{}},
		{"plus only", "fluffy cat", []string{"cat", "fluffy"}, []string{}},
		{"minus", "cat -dog", []string{"cat"}, []string{"dog"}},
		{"dedup and sort", "dog cat dog -b -a -b", []string{"cat", "dog"}, []string{"a", "b"}},
		{"stop words dropped", "cat in the -the city", []string{"cat", "city"}, []string{}},
		{"hyphen inside word", "well-known -self-made", []string{"well-known"}, []string{"self-made"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := Parse(tt.query, sw)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.query, err)
			}
			if !reflect.DeepEqual(q.PlusWords, tt.plus) {
				t.Errorf("plus = %q, want %q", q.PlusWords, tt.plus)
			}
			if !reflect.DeepEqual(q.MinusWords, tt.minus) {
				t.Errorf("minus = %q, want %q", q.MinusWords, tt.minus)
			}
			if q.RawQuery != tt.query {
				t.Errorf("RawQuery = %q", q.RawQuery)
			}
		})
	}
}

func TestParseRejectsMalformedQueries(t *testing.T) {
	sw := stopWords(t, "")
	for _, query := range []string{
		"cat --dog",
		"cat -",
		"-",
		"---",
		"cat do\x03g",
		"cat -do\x1fg",
	} {
		if _, err := Parse(query, sw); !apperrors.IsInvalidInput(err) {
			t.Errorf("Parse(%q): expected invalid input, got %v", query, err)
		}
		if _, err := ParseParallel(query, sw); !apperrors.IsInvalidInput(err) {
			t.Errorf("ParseParallel(%q): expected invalid input, got %v", query, err)
		}
	}
}

func TestParseParallelKeepsOrderAndDuplicates(t *testing.T) {
	sw := stopWords(t, "a")
	q, err := ParseParallel("dog cat a dog -x -x", sw)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(q.PlusWords, []string{"dog", "cat", "dog"}) {
		t.Errorf("plus = %q", q.PlusWords)
	}
	if !reflect.DeepEqual(q.MinusWords, []string{"x", "x"}) {
		t.Errorf("minus = %q", q.MinusWords)
	}
}

func TestParseIsOrderIndependent(t *testing.T) {
	sw := stopWords(t, "")
	a, err := Parse("b a -d c -e", sw)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Parse("-e c -d a b a", sw)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a.PlusWords, b.PlusWords) || !reflect.DeepEqual(a.MinusWords, b.MinusWords) {
		t.Errorf("queries differ: %+v vs %+v", a, b)
	}
}

func TestParseQueryWord(t *testing.T) {
	sw := stopWords(t, "the")
	w, err := ParseQueryWord("-the", sw)
	if err != nil {
		t.Fatal(err)
	}
	if w.Data != "the" || !w.IsMinus || !w.IsStop {
		t.Errorf("unexpected %+v", w)
	}
	if _, err := ParseQueryWord("", sw); !apperrors.IsInvalidInput(err) {
		t.Errorf("empty word: expected invalid input, got %v", err)
	}
}
