package executor

import (
	"fmt"
	"math"
	"math/rand"
	"reflect"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/execution"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/searcher/ranker"
	apperrors "github.com/Adithya-Monish-Kumar-K/searchserver/pkg/errors"
)

var policies = []execution.Policy{execution.Sequential, execution.Parallel}

func newIndex(t testing.TB, stop string) *index.Index {
	t.Helper()
	sw, err := tokenizer.ParseStopWords(stop)
	if err != nil {
		t.Fatalf("stop words: %v", err)
	}
	return index.New(sw)
}

func add(t testing.TB, ix *index.Index, id int, text string, status index.Status, ratings ...int) {
	t.Helper()
	if err := ix.AddDocument(id, text, status, ratings); err != nil {
		t.Fatalf("AddDocument(%d): %v", id, err)
	}
}

func petCorpus(t testing.TB) *index.Index {
	ix := newIndex(t, "and in on")
	add(t, ix, 0, "white cat and fashionable collar", index.StatusActual, 8, -3)
	add(t, ix, 1, "fluffy cat fluffy tail", index.StatusActual, 7, 2, 7)
	add(t, ix, 2, "groomed dog expressive eyes", index.StatusActual, 5, -12, 2, 1)
	add(t, ix, 3, "groomed starling eugene", index.StatusBanned, 9)
	return ix
}

func ids(docs []ranker.ScoredDoc) []int {
	out := make([]int, len(docs))
	for i, d := range docs {
		out[i] = d.ID
	}
	return out
}

func TestFindTopDocumentsRanking(t *testing.T) {
	for _, policy := range policies {
		t.Run(policy.String(), func(t *testing.T) {
			ex := New(petCorpus(t), 0)
			res, err := ex.FindTopDocuments(policy, "fluffy groomed cat", nil)
			if err != nil {
				t.Fatalf("FindTopDocuments: %v", err)
			}
			if got, want := ids(res.Results), []int{1, 0, 2}; !reflect.DeepEqual(got, want) {
				t.Fatalf("ids = %v, want %v", got, want)
			}
			wantRel := []float64{
				math.Log(4)*0.5 + math.Log(2)*0.25,
				math.Log(2) * 0.25,
				math.Log(2) * 0.25,
			}
			for i, d := range res.Results {
				if math.Abs(d.Relevance-wantRel[i]) > 1e-6 {
					t.Errorf("doc %d relevance = %v, want %v", d.ID, d.Relevance, wantRel[i])
				}
			}
			if res.Results[1].Rating != 2 || res.Results[2].Rating != -1 {
				t.Errorf("ratings = %d, %d", res.Results[1].Rating, res.Results[2].Rating)
			}
			if res.TotalHits != 3 {
				t.Errorf("TotalHits = %d, want 3", res.TotalHits)
			}
		})
	}
}

func TestPredicateFiltering(t *testing.T) {
	ex := New(petCorpus(t), 0)
	for _, policy := range policies {
		res, err := ex.FindTopDocuments(policy, "groomed", ByStatus(index.StatusBanned))
		if err != nil {
			t.Fatal(err)
		}
		if got := ids(res.Results); !reflect.DeepEqual(got, []int{3}) {
			t.Errorf("%s: banned ids = %v, want [3]", policy, got)
		}

		even := func(id int, _ index.Status, _ int) bool { return id%2 == 0 }
		res, err = ex.FindTopDocuments(policy, "cat groomed", even)
		if err != nil {
			t.Fatal(err)
		}
		if got := ids(res.Results); !reflect.DeepEqual(got, []int{0, 2}) {
			t.Errorf("%s: even ids = %v, want [0 2]", policy, got)
		}
	}
}

func TestMinusWordExcludes(t *testing.T) {
	ix := newIndex(t, "")
	add(t, ix, 1, "cat", index.StatusActual, 1)
	add(t, ix, 2, "cat dog", index.StatusActual, 1)
	add(t, ix, 3, "bird", index.StatusActual, 1)
	ex := New(ix, 3)
	for _, policy := range policies {
		res, err := ex.FindTopDocuments(policy, "cat -dog", nil)
		if err != nil {
			t.Fatal(err)
		}
		if got := ids(res.Results); !reflect.DeepEqual(got, []int{1}) {
			t.Errorf("%s: ids = %v, want [1]", policy, got)
		}
		res, err = ex.FindTopDocuments(policy, "-cat", nil)
		if err != nil {
			t.Fatal(err)
		}
		if len(res.Results) != 0 {
			t.Errorf("%s: minus-only query returned %v", policy, res.Results)
		}
	}
}

func TestDisjointVocabularyFindsNothing(t *testing.T) {
	ex := New(petCorpus(t), 0)
	for _, policy := range policies {
		res, err := ex.FindTopDocuments(policy, "parrot owl", nil)
		if err != nil {
			t.Fatal(err)
		}
		if len(res.Results) != 0 {
			t.Errorf("%s: got %v", policy, res.Results)
		}
	}
}

func TestIDFUsesDocumentCountAtQueryTime(t *testing.T) {
	ix := newIndex(t, "")
	add(t, ix, 1, "cat", index.StatusActual, 1)
	add(t, ix, 2, "dog", index.StatusActual, 1)
	ex := New(ix, 0)

	res, err := ex.FindTopDocuments(execution.Sequential, "cat", nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Results[0].Relevance; math.Abs(got-math.Log(2)) > 1e-9 {
		t.Fatalf("relevance = %v, want ln 2", got)
	}

	add(t, ix, 3, "bird", index.StatusActual, 1)
	add(t, ix, 4, "fish", index.StatusActual, 1)
	res, err = ex.FindTopDocuments(execution.Sequential, "cat", nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Results[0].Relevance; math.Abs(got-math.Log(4)) > 1e-9 {
		t.Fatalf("relevance = %v, want ln 4", got)
	}
}

func TestResultsCappedAtMaximum(t *testing.T) {
	ix := newIndex(t, "")
	for id := 0; id < 12; id++ {
		add(t, ix, id, fmt.Sprintf("common word%d", id), index.StatusActual, id)
	}
	ex := New(ix, 0)
	for _, policy := range policies {
		res, err := ex.FindTopDocuments(policy, "common", nil)
		if err != nil {
			t.Fatal(err)
		}
		if len(res.Results) != ranker.MaxResultDocumentCount {
			t.Fatalf("%s: len = %d", policy, len(res.Results))
		}
		// Equal relevance: highest ratings first.
		if got, want := ids(res.Results), []int{11, 10, 9, 8, 7}; !reflect.DeepEqual(got, want) {
			t.Errorf("%s: ids = %v, want %v", policy, got, want)
		}
	}
}

func TestMalformedQueries(t *testing.T) {
	ex := New(petCorpus(t), 0)
	for _, raw := range []string{"cat -", "cat --dog", "ca\x01t"} {
		for _, policy := range policies {
			if _, err := ex.FindTopDocuments(policy, raw, nil); !apperrors.IsInvalidInput(err) {
				t.Errorf("%s %q: err = %v, want invalid input", policy, raw, err)
			}
		}
	}
}

func TestSequentialAndParallelAgree(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	vocab := make([]string, 60)
	for i := range vocab {
		vocab[i] = fmt.Sprintf("w%02d", i)
	}
	ix := newIndex(t, "w00 w01")
	for id := 0; id < 400; id++ {
		n := 3 + rng.Intn(12)
		words := make([]string, n)
		for i := range words {
			words[i] = vocab[rng.Intn(len(vocab))]
		}
		status := index.Status(rng.Intn(4))
		add(t, ix, id, strings.Join(words, " "), status, rng.Intn(20)-5, rng.Intn(20))
	}
	ex := New(ix, 6)

	for i := 0; i < 40; i++ {
		var parts []string
		for j := 0; j < 1+rng.Intn(6); j++ {
			parts = append(parts, vocab[rng.Intn(len(vocab))])
		}
		for j := 0; j < rng.Intn(3); j++ {
			parts = append(parts, "-"+vocab[rng.Intn(len(vocab))])
		}
		raw := strings.Join(parts, " ")

		seqQ, err := parser.Parse(raw, ix.StopWords())
		if err != nil {
			t.Fatal(err)
		}
		parQ, err := parser.ParseParallel(raw, ix.StopWords())
		if err != nil {
			t.Fatal(err)
		}
		seq, _ := ex.FindAllDocuments(execution.Sequential, seqQ, nil)
		par, _ := ex.FindAllDocuments(execution.Parallel, parQ, nil)
		if len(seq) != len(par) {
			t.Fatalf("%q: %d sequential vs %d parallel results", raw, len(seq), len(par))
		}
		for k := range seq {
			if seq[k].ID != par[k].ID || math.Abs(seq[k].Relevance-par[k].Relevance) > 1e-6 {
				t.Fatalf("%q: result %d differs: %+v vs %+v", raw, k, seq[k], par[k])
			}
		}

		seqTop, _ := ex.FindTopDocuments(execution.Sequential, raw, nil)
		parTop, _ := ex.FindTopDocuments(execution.Parallel, raw, nil)
		if !reflect.DeepEqual(ids(seqTop.Results), ids(parTop.Results)) {
			t.Fatalf("%q: top ids %v vs %v", raw, ids(seqTop.Results), ids(parTop.Results))
		}
	}
}

func TestMatchDocument(t *testing.T) {
	ex := New(petCorpus(t), 0)
	tests := []struct {
		name   string
		raw    string
		id     int
		want   []string
		status index.Status
	}{
		{"plus words", "fluffy cat cat parrot", 1, []string{"cat", "fluffy"}, index.StatusActual},
		{"minus word present", "fluffy -tail", 1, []string{}, index.StatusActual},
		{"minus word absent", "cat -dog", 0, []string{"cat"}, index.StatusActual},
		{"banned document", "eugene", 3, []string{"eugene"}, index.StatusBanned},
		{"nothing matches", "parrot", 2, []string{}, index.StatusActual},
	}
	for _, tt := range tests {
		for _, policy := range policies {
			t.Run(tt.name+"/"+policy.String(), func(t *testing.T) {
				words, status, err := ex.MatchDocument(policy, tt.raw, tt.id)
				if err != nil {
					t.Fatalf("MatchDocument: %v", err)
				}
				if !reflect.DeepEqual(words, tt.want) {
					t.Errorf("words = %v, want %v", words, tt.want)
				}
				if status != tt.status {
					t.Errorf("status = %v, want %v", status, tt.status)
				}
			})
		}
	}
}

func TestMatchDocumentInvalidIDs(t *testing.T) {
	ex := New(petCorpus(t), 0)
	for _, policy := range policies {
		for _, id := range []int{-1, 99} {
			if _, _, err := ex.MatchDocument(policy, "cat", id); !apperrors.IsInvalidInput(err) {
				t.Errorf("%s id %d: err = %v", policy, id, err)
			}
		}
		if _, _, err := ex.MatchDocument(policy, "--cat", 1); !apperrors.IsInvalidInput(err) {
			t.Errorf("%s: malformed query accepted", policy)
		}
	}
}

func BenchmarkFindTopDocuments(b *testing.B) {
	rng := rand.New(rand.NewSource(3))
	ix := newIndex(b, "")
	for id := 0; id < 5000; id++ {
		words := make([]string, 20)
		for i := range words {
			words[i] = fmt.Sprintf("t%d", rng.Intn(500))
		}
		add(b, ix, id, strings.Join(words, " "), index.StatusActual, rng.Intn(10))
	}
	ex := New(ix, 0)
	query := "t1 t2 t3 t4 t5 t6 t7 t8 -t9 -t10"
	for _, policy := range policies {
		b.Run(policy.String(), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := ex.FindTopDocuments(policy, query, nil); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
