package loader

import (
	"context"
	"os"
	"reflect"
	"testing"

	"github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/searchserver"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/postgres"
)

func TestApplyRows(t *testing.T) {
	srv, err := searchserver.New([]string{"the"})
	if err != nil {
		t.Fatal(err)
	}
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	rows := []Row{
		{ID: 1, Body: "the white cat", Status: "ACTUAL", Ratings: []int{4, 6}},
		{ID: 2, Body: "a bad\x02row", Status: "ACTUAL"},
		{ID: 3, Body: "grey dog", Status: "irrelevant"},
		{ID: 1, Body: "duplicate id"},
		{ID: 4, Body: "parrot", Status: "EXTINCT"},
		{ID: 5, Body: "fish", Status: ""},
	}
	res := ApplyRows(srv, rows, m, nil)
	if res != (Result{Indexed: 3, Skipped: 3}) {
		t.Errorf("result = %+v", res)
	}
	if got := srv.IDs(); !reflect.DeepEqual(got, []int{1, 3, 5}) {
		t.Errorf("IDs() = %v", got)
	}
	docs, _ := srv.FindTopDocumentsByStatus("dog", index.StatusIrrelevant)
	if len(docs) != 1 || docs[0].ID != 3 {
		t.Errorf("irrelevant search = %v", docs)
	}
	docs, _ = srv.FindTopDocuments("cat")
	if len(docs) != 1 || docs[0].Rating != 5 {
		t.Errorf("cat search = %v", docs)
	}
	if got := testutil.ToFloat64(m.LoaderRowsTotal.WithLabelValues("skipped")); got != 3 {
		t.Errorf("skipped counter = %v", got)
	}
}

// TestLoadFromPostgres needs a disposable database:
// SP_TEST_POSTGRES_HOST, SP_TEST_POSTGRES_USER, SP_TEST_POSTGRES_PASSWORD and
// SP_TEST_POSTGRES_DATABASE.
func TestLoadFromPostgres(t *testing.T) {
	host := os.Getenv("SP_TEST_POSTGRES_HOST")
	if host == "" {
		t.Skip("SP_TEST_POSTGRES_HOST not set")
	}
	cfg := config.PostgresConfig{
		Host:         host,
		Port:         5432,
		User:         os.Getenv("SP_TEST_POSTGRES_USER"),
		Password:     os.Getenv("SP_TEST_POSTGRES_PASSWORD"),
		Database:     os.Getenv("SP_TEST_POSTGRES_DATABASE"),
		SSLMode:      "disable",
		MaxOpenConns: 2,
		MaxIdleConns: 1,
	}
	ctx := context.Background()
	client, err := postgres.New(ctx, cfg)
	if err != nil {
		t.Fatalf("connecting: %v", err)
	}
	defer client.Close()

	l := New(client, nil)
	if err := l.EnsureSchema(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := client.DB.ExecContext(ctx, `TRUNCATE documents`); err != nil {
		t.Fatal(err)
	}
	for _, r := range []Row{
		{ID: 10, Body: "cat in the hat", Status: "ACTUAL", Ratings: []int{3, 5}},
		{ID: 11, Body: "dog", Status: "BANNED", Ratings: []int{}},
	} {
		if _, err := client.DB.ExecContext(ctx,
			`INSERT INTO documents (id, body, status, ratings) VALUES ($1, $2, $3, $4)`,
			r.ID, r.Body, r.Status, pq.Array(r.Ratings),
		); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := client.DB.ExecContext(ctx,
		`INSERT INTO documents (id, body) VALUES (12, 'parrot')`,
	); err != nil {
		t.Fatal(err)
	}

	srv, err := searchserver.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	res, err := l.Load(ctx, srv)
	if err != nil {
		t.Fatal(err)
	}
	if res.Indexed != 3 || res.Skipped != 0 {
		t.Errorf("result = %+v", res)
	}
	if got := srv.IDs(); !reflect.DeepEqual(got, []int{10, 11, 12}) {
		t.Errorf("IDs() = %v", got)
	}
	// Rows inserted without status or ratings take the column defaults.
	docs, err := srv.FindTopDocuments("parrot")
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 || docs[0].ID != 12 || docs[0].Rating != 0 {
		t.Errorf("parrot = %+v, want document 12 as ACTUAL with rating 0", docs)
	}
}
