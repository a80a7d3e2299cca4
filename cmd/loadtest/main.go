package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"os"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/execution"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/searchserver"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/logger"
)

type Config struct {
	Documents   int
	WordsPerDoc int
	Concurrency int
	Duration    time.Duration
	Policy      execution.Policy
	Queries     []string
}

type Stats struct {
	totalRequests atomic.Int64
	hitCount      atomic.Int64
	emptyCount    atomic.Int64
	errorCount    atomic.Int64
	matchedDocs   atomic.Int64
	latencies     []time.Duration
	latenciesMu   sync.Mutex
}

func NewStats() *Stats {
	return &Stats{latencies: make([]time.Duration, 0, 100000)}
}

// RecordRequest counts one query. matched is the number of documents that
// matched before truncation to the top results.
func (s *Stats) RecordRequest(duration time.Duration, results, matched int, err error) {
	s.totalRequests.Add(1)
	if err != nil {
		s.errorCount.Add(1)
		return
	}
	s.matchedDocs.Add(int64(matched))
	switch {
	case results == 0:
		s.emptyCount.Add(1)
	default:
		s.hitCount.Add(1)
	}
	s.latenciesMu.Lock()
	s.latencies = append(s.latencies, duration)
	s.latenciesMu.Unlock()
}

var vocabulary = strings.Fields(`curly cat dog fancy collar expressive eyes big city
small town well groomed starling parrot fluffy tail sleepy kitten loud bark
green garden river bridge old house quiet street bright window`)

func main() {
	docs := flag.Int("docs", 10000, "number of synthetic documents to index")
	words := flag.Int("words", 12, "words per document")
	concurrency := flag.Int("concurrency", 8, "number of concurrent query workers")
	duration := flag.Duration("duration", 10*time.Second, "test duration")
	parallel := flag.Bool("parallel", false, "run queries under the parallel policy")
	flag.Parse()

	logger.Setup("warn", "text", os.Stderr)

	cfg := Config{
		Documents:   *docs,
		WordsPerDoc: *words,
		Concurrency: *concurrency,
		Duration:    *duration,
		Policy:      execution.FromBool(*parallel),
		Queries: []string{
			"curly cat",
			"fluffy -cat",
			"dog in the big city",
			"sleepy kitten -dog",
			"old house quiet street",
			"starling parrot -river",
			"groomed dog with fancy collar",
			"nonexistent",
		},
	}

	srv, err := searchserver.New([]string{"in", "the", "with", "and"})
	if err != nil {
		slog.Error("failed to create search server", "error", err)
		os.Exit(1)
	}
	start := time.Now()
	if err := populate(srv, cfg, rand.New(rand.NewPCG(1, 2))); err != nil {
		slog.Error("failed to index corpus", "error", err)
		os.Exit(1)
	}

	fmt.Println("=== Search Server Load Test ===")
	fmt.Printf("Documents:   %d (indexed in %s)\n", srv.DocumentCount(), time.Since(start).Round(time.Millisecond))
	fmt.Printf("Policy:      %s\n", cfg.Policy)
	fmt.Printf("Concurrency: %d\n", cfg.Concurrency)
	fmt.Printf("Duration:    %s\n", cfg.Duration)
	fmt.Printf("Queries:     %d unique\n", len(cfg.Queries))
	fmt.Println()

	stats := runLoadTest(srv, cfg)
	if !printReport(os.Stdout, stats, cfg.Duration) {
		os.Exit(1)
	}
}

func populate(srv *searchserver.Server, cfg Config, rng *rand.Rand) error {
	statuses := []index.Status{index.StatusActual, index.StatusActual, index.StatusActual, index.StatusIrrelevant, index.StatusBanned}
	words := make([]string, cfg.WordsPerDoc)
	for id := 0; id < cfg.Documents; id++ {
		for i := range words {
			words[i] = vocabulary[rng.IntN(len(vocabulary))]
		}
		ratings := []int{rng.IntN(11) - 5, rng.IntN(11) - 5}
		if err := srv.AddDocument(id, strings.Join(words, " "), statuses[id%len(statuses)], ratings); err != nil {
			return fmt.Errorf("adding document %d: %w", id, err)
		}
	}
	return nil
}

func runLoadTest(srv *searchserver.Server, cfg Config) *Stats {
	stats := NewStats()
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()

	var wg sync.WaitGroup
	for w := 0; w < cfg.Concurrency; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			queryIdx := workerID
			for ctx.Err() == nil {
				query := cfg.Queries[queryIdx%len(cfg.Queries)]
				queryIdx++

				begin := time.Now()
				res, err := srv.Search(cfg.Policy, query, nil)
				if err != nil {
					stats.RecordRequest(time.Since(begin), 0, 0, err)
					continue
				}
				stats.RecordRequest(time.Since(begin), len(res.Results), res.TotalHits, nil)
			}
		}(w)
	}
	wg.Wait()
	return stats
}

// printReport writes the summary and reports whether any query completed.
func printReport(w io.Writer, stats *Stats, duration time.Duration) bool {
	total := stats.totalRequests.Load()
	fmt.Fprintln(w, "=== Results ===")
	fmt.Fprintf(w, "Total Queries:   %d\n", total)
	fmt.Fprintf(w, "With Results:    %d\n", stats.hitCount.Load())
	fmt.Fprintf(w, "Empty:           %d\n", stats.emptyCount.Load())
	fmt.Fprintf(w, "Errors:          %d\n", stats.errorCount.Load())
	if total > 0 && duration > 0 {
		fmt.Fprintf(w, "Queries/sec:     %.2f\n", float64(total)/duration.Seconds())
	}
	if ok := total - stats.errorCount.Load(); ok > 0 {
		fmt.Fprintf(w, "Avg Matched:     %.1f\n", float64(stats.matchedDocs.Load())/float64(ok))
	}

	stats.latenciesMu.Lock()
	latencies := slices.Clone(stats.latencies)
	stats.latenciesMu.Unlock()

	if len(latencies) > 0 {
		slices.Sort(latencies)
		var sum time.Duration
		for _, l := range latencies {
			sum += l
		}
		avg := sum / time.Duration(len(latencies))

		fmt.Fprintln(w)
		fmt.Fprintln(w, "=== Latency ===")
		fmt.Fprintf(w, "Min:    %s\n", latencies[0])
		fmt.Fprintf(w, "Avg:    %s\n", avg)
		fmt.Fprintf(w, "P50:    %s\n", percentile(latencies, 50))
		fmt.Fprintf(w, "P90:    %s\n", percentile(latencies, 90))
		fmt.Fprintf(w, "P99:    %s\n", percentile(latencies, 99))
		fmt.Fprintf(w, "Max:    %s\n", latencies[len(latencies)-1])
	}

	if total == 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "WARNING: no queries completed")
		return false
	}
	return true
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	idx = max(0, min(idx, len(sorted)-1))
	return sorted[idx]
}
