// Package loader fills the index from the documents table at startup.
package loader

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer/consumer"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/postgres"
)

// Schema creates the documents table the loader reads.
const Schema = `CREATE TABLE IF NOT EXISTS documents (
	id      INTEGER PRIMARY KEY CHECK (id >= 0),
	body    TEXT NOT NULL,
	status  TEXT NOT NULL DEFAULT 'ACTUAL',
	ratings INTEGER[] NOT NULL DEFAULT '{}'
)`

const selectDocuments = `SELECT id, body, status, ratings FROM documents ORDER BY id`

type Row struct {
	ID      int
	Body    string
	Status  string
	Ratings []int
}

type Result struct {
	Indexed int
	Skipped int
}

type Loader struct {
	client  *postgres.Client
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func New(client *postgres.Client, m *metrics.Metrics) *Loader {
	return &Loader{
		client:  client,
		metrics: m,
		logger:  slog.Default().With("component", "document-loader"),
	}
}

// EnsureSchema creates the documents table if it does not exist.
func (l *Loader) EnsureSchema(ctx context.Context) error {
	if _, err := l.client.DB.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("creating documents table: %w", err)
	}
	return nil
}

// Load reads every document from one read-only snapshot and adds it to w.
// Rows the index rejects are logged and counted as skipped.
func (l *Loader) Load(ctx context.Context, w consumer.Writer) (Result, error) {
	start := time.Now()
	var rows []Row
	err := l.client.InTx(ctx, &sql.TxOptions{ReadOnly: true, Isolation: sql.LevelRepeatableRead}, func(tx *sql.Tx) error {
		var err error
		rows, err = readRows(ctx, tx)
		return err
	})
	if err != nil {
		return Result{}, fmt.Errorf("reading documents: %w", err)
	}

	res := ApplyRows(w, rows, l.metrics, l.logger)
	l.logger.Info("documents loaded",
		"indexed", res.Indexed,
		"skipped", res.Skipped,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

func readRows(ctx context.Context, tx *sql.Tx) ([]Row, error) {
	rs, err := tx.QueryContext(ctx, selectDocuments)
	if err != nil {
		return nil, err
	}
	defer rs.Close()

	var out []Row
	for rs.Next() {
		var (
			id      int64
			body    string
			status  string
			ratings pq.Int64Array
		)
		if err := rs.Scan(&id, &body, &status, &ratings); err != nil {
			return nil, fmt.Errorf("scanning document row: %w", err)
		}
		row := Row{ID: int(id), Body: body, Status: status, Ratings: make([]int, len(ratings))}
		for i, r := range ratings {
			row.Ratings[i] = int(r)
		}
		out = append(out, row)
	}
	return out, rs.Err()
}

// ApplyRows adds rows to w in order, skipping the ones that fail validation
// or are rejected by the index.
func ApplyRows(w consumer.Writer, rows []Row, m *metrics.Metrics, logger *slog.Logger) Result {
	if logger == nil {
		logger = slog.Default().With("component", "document-loader")
	}
	var res Result
	for _, row := range rows {
		ev := ingestion.DocumentEvent{
			Op:         ingestion.OpAdd,
			DocumentID: row.ID,
			Text:       row.Body,
			Status:     row.Status,
			Ratings:    row.Ratings,
		}
		status, err := consumer.Apply(w, &ev)
		if err != nil {
			res.Skipped++
			logger.Warn("document row skipped", "doc_id", row.ID, "reason", status, "error", err)
			if m != nil {
				m.LoaderRowsTotal.WithLabelValues("skipped").Inc()
			}
			continue
		}
		res.Indexed++
		if m != nil {
			m.LoaderRowsTotal.WithLabelValues("indexed").Inc()
		}
	}
	return res
}
