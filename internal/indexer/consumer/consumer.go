// Package consumer reads document events from Kafka and applies them to the
// search server.
package consumer

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/ingestion/validator"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/metrics"
)

// Writer is the part of the search server that events mutate.
type Writer interface {
	AddDocument(id int, text string, status index.Status, ratings []int) error
	RemoveDocument(id int)
}

// IndexConsumer wraps a Kafka consumer to drive index updates.
type IndexConsumer struct {
	consumer *kafka.Consumer
	logger   *slog.Logger
}

func New(kafkaConsumer *kafka.Consumer) *IndexConsumer {
	return &IndexConsumer{
		consumer: kafkaConsumer,
		logger:   slog.Default().With("component", "index-consumer"),
	}
}

// Start begins consuming Kafka messages. It blocks until ctx is cancelled.
func (ic *IndexConsumer) Start(ctx context.Context) error {
	ic.logger.Info("index consumer starting")
	return ic.consumer.Start(ctx)
}

// HandleMessage returns a Kafka MessageHandler applying every document event
// to w. Events that can never succeed (undecodable, invalid, rejected by the
// index) are logged and committed so they do not block the partition.
func HandleMessage(w Writer, m *metrics.Metrics) kafka.MessageHandler {
	logger := slog.Default().With("component", "index-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[ingestion.DocumentEvent](value)
		if err != nil {
			logger.Error("failed to decode document event",
				"error", err,
				"key", string(key),
			)
			count(m, "unknown", "invalid")
			return nil
		}
		status, err := Apply(w, &event)
		count(m, string(event.Op), status)
		if err != nil {
			logger.Warn("document event dropped",
				"op", event.Op,
				"doc_id", event.DocumentID,
				"error", err,
			)
			return nil
		}
		logger.Debug("document event applied",
			"op", event.Op,
			"doc_id", event.DocumentID,
		)
		return nil
	}
}

// Apply validates ev and performs it on w. The returned status is one of
// "applied", "invalid" or "rejected".
func Apply(w Writer, ev *ingestion.DocumentEvent) (string, error) {
	if err := validator.ValidateDocumentEvent(ev); err != nil {
		return "invalid", err
	}
	switch ev.Op {
	case ingestion.OpRemove:
		w.RemoveDocument(ev.DocumentID)
		return "applied", nil
	case ingestion.OpAdd:
		status, err := ev.DocumentStatus()
		if err != nil {
			return "invalid", err
		}
		if err := w.AddDocument(ev.DocumentID, ev.Text, status, ev.Ratings); err != nil {
			return "rejected", err
		}
		return "applied", nil
	}
	return "invalid", errors.New("unreachable operation")
}

func count(m *metrics.Metrics, op, status string) {
	if m == nil {
		return
	}
	m.IngestionEventsTotal.WithLabelValues(op, status).Inc()
}
