package dedup

import (
	"bytes"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/searchserver"
)

func buildServer(t *testing.T) *searchserver.Server {
	t.Helper()
	s, err := searchserver.NewFromText("and with")
	if err != nil {
		t.Fatal(err)
	}
	docs := map[int]string{
		1: "funny pet and nasty rat",
		2: "funny pet with curly hair",
		3: "funny pet with curly hair",
		4: "funny pet and curly hair",
		5: "funny funny pet and nasty nasty rat",
		6: "funny pet and not very nasty rat",
		7: "very nasty rat and not very funny pet",
		8: "pet with rat and rat and rat",
		9: "nasty rat with curly hair",
	}
	for id := 1; id <= len(docs); id++ {
		if err := s.AddDocument(id, docs[id], index.StatusActual, []int{1, 2}); err != nil {
			t.Fatal(err)
		}
	}
	return s
}

func TestFindDuplicates(t *testing.T) {
	s := buildServer(t)
	if got, want := FindDuplicates(s), []int{3, 4, 5, 7}; !reflect.DeepEqual(got, want) {
		t.Errorf("FindDuplicates = %v, want %v", got, want)
	}
	if s.DocumentCount() != 9 {
		t.Error("FindDuplicates must not modify the index")
	}
}

func TestRemoveDuplicates(t *testing.T) {
	s := buildServer(t)
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	removed := RemoveDuplicates(s, logger)
	if !reflect.DeepEqual(removed, []int{3, 4, 5, 7}) {
		t.Errorf("removed = %v", removed)
	}
	if got, want := s.IDs(), []int{1, 2, 6, 8, 9}; !reflect.DeepEqual(got, want) {
		t.Errorf("IDs() = %v, want %v", got, want)
	}
	if n := strings.Count(buf.String(), "found duplicate document"); n != 4 {
		t.Errorf("logged %d duplicates, want 4", n)
	}
	if again := RemoveDuplicates(s, logger); len(again) != 0 {
		t.Errorf("second pass removed %v", again)
	}
}

func TestEmptyDocumentsAreDuplicatesOfEachOther(t *testing.T) {
	s, err := searchserver.NewFromText("a the")
	if err != nil {
		t.Fatal(err)
	}
	_ = s.AddDocument(10, "the a", index.StatusActual, nil)
	_ = s.AddDocument(11, "", index.StatusActual, nil)
	_ = s.AddDocument(12, "word", index.StatusActual, nil)
	if got := FindDuplicates(s); !reflect.DeepEqual(got, []int{11}) {
		t.Errorf("FindDuplicates = %v, want [11]", got)
	}
}
