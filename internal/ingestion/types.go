// Package ingestion defines the document events that feed the index from
// outside the process, whether replayed from Kafka or read from PostgreSQL.
package ingestion

import (
	"time"

	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer/index"
)

type Op string

const (
	OpAdd    Op = "add"
	OpRemove Op = "remove"
)

// DocumentEvent is the Kafka message payload describing one change to the
// document set. Text, Status and Ratings are only meaningful for OpAdd.
type DocumentEvent struct {
	Op         Op        `json:"op"`
	DocumentID int       `json:"document_id"`
	Text       string    `json:"text,omitempty"`
	Status     string    `json:"status,omitempty"`
	Ratings    []int     `json:"ratings,omitempty"`
	EmittedAt  time.Time `json:"emitted_at"`
}

// DocumentStatus returns the event's status, ACTUAL when none is given.
func (e DocumentEvent) DocumentStatus() (index.Status, error) {
	if e.Status == "" {
		return index.StatusActual, nil
	}
	return index.ParseStatus(e.Status)
}
