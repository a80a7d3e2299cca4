package analytics

import "time"

// QueryRecord is one successful find request kept in the request history.
type QueryRecord struct {
	Query     string    `json:"query"`
	Policy    string    `json:"policy"`
	Returned  int       `json:"returned"`
	Timestamp time.Time `json:"timestamp"`
}

type QueryCount struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

type Stats struct {
	Requests          int          `json:"requests"`
	NoResultRequests  int          `json:"no_result_requests"`
	TopQueries        []QueryCount `json:"top_queries"`
	ZeroResultQueries []QueryCount `json:"zero_result_queries"`
}
