// Package console implements the interactive line protocol of the search
// server: a plain line is a query, a line starting with ':' is a command.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/dedup"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/execution"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/searcher/batch"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/searchserver"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/metrics"
)

const helpText = `query words...            top ACTUAL documents (-word excludes)
:status STATUS words...   top documents with the given status
:par [on|off]             show or switch the execution policy
:match ID words...        plus words of the query found in document ID
:add ID STATUS R,R,.. text  add a document (ratings may be "-")
:remove ID                remove a document
:freq ID                  word frequencies of a document
:count                    number of documents
:ids                      document ids in ascending order
:dedup                    remove documents repeating an earlier word set
:noresults                recent requests that found nothing
:stats [N]                top queries and the N most recent requests
:batch q1 | q2 | ...      run several queries concurrently
:help                     this text`

// LineReader is satisfied by *readline.Instance.
type LineReader interface {
	Readline() (string, error)
}

type Shell struct {
	server  *searchserver.Server
	queue   *analytics.RequestQueue
	cache   *cache.Searcher
	policy  execution.Policy
	metrics *metrics.Metrics
	out     io.Writer
	logger  *slog.Logger
}

type Option func(*Shell)

// WithCache routes plain queries under the sequential policy through c.
func WithCache(c *cache.Searcher) Option {
	return func(s *Shell) { s.cache = c }
}

func WithPolicy(p execution.Policy) Option {
	return func(s *Shell) { s.policy = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Shell) { s.metrics = m }
}

// WithHistorySize bounds the request history used by :noresults.
func WithHistorySize(n int) Option {
	return func(s *Shell) { s.queue = analytics.NewRequestQueue(searchBackend{s}, n) }
}

func New(server *searchserver.Server, out io.Writer, opts ...Option) *Shell {
	s := &Shell{
		server: server,
		out:    out,
		logger: slog.Default().With("component", "console"),
	}
	s.queue = analytics.NewRequestQueue(searchBackend{s}, analytics.DefaultHistorySize)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Completer offers the command names to readline.
func Completer() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem(":status",
			readline.PcItem("ACTUAL"),
			readline.PcItem("IRRELEVANT"),
			readline.PcItem("BANNED"),
			readline.PcItem("REMOVED"),
		),
		readline.PcItem(":par", readline.PcItem("on"), readline.PcItem("off")),
		readline.PcItem(":match"),
		readline.PcItem(":add"),
		readline.PcItem(":remove"),
		readline.PcItem(":freq"),
		readline.PcItem(":count"),
		readline.PcItem(":ids"),
		readline.PcItem(":dedup"),
		readline.PcItem(":noresults"),
		readline.PcItem(":stats"),
		readline.PcItem(":batch"),
		readline.PcItem(":help"),
	)
}

// Run executes lines from r until EOF, an interrupt on an empty line, or
// ctx is cancelled.
func (s *Shell) Run(ctx context.Context, r LineReader) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		line, err := r.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading line: %w", err)
		}
		if err := s.Execute(ctx, line); err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
	}
}

// Execute runs a single line and writes its output.
func (s *Shell) Execute(ctx context.Context, line string) error {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return nil
	}
	if !strings.HasPrefix(line, ":") {
		return s.query(line, nil)
	}

	name, rest, _ := strings.Cut(strings.TrimPrefix(line, ":"), " ")
	switch name {
	case "help":
		fmt.Fprintln(s.out, helpText)
		return nil
	case "status":
		word, query, _ := strings.Cut(rest, " ")
		status, err := index.ParseStatus(word)
		if err != nil {
			return err
		}
		return s.query(query, executor.ByStatus(status))
	case "par":
		return s.setPolicy(strings.TrimSpace(rest))
	case "match":
		return s.match(rest)
	case "add":
		return s.add(rest)
	case "remove":
		id, err := parseID(rest)
		if err != nil {
			return err
		}
		s.server.RemoveDocumentWith(s.policy, id)
		fmt.Fprintf(s.out, "documents: %d\n", s.server.DocumentCount())
		return nil
	case "freq":
		return s.freq(rest)
	case "count":
		fmt.Fprintf(s.out, "documents: %d\n", s.server.DocumentCount())
		return nil
	case "ids":
		fmt.Fprintln(s.out, joinInts(s.server.IDs()))
		return nil
	case "dedup":
		removed := dedup.RemoveDuplicates(s.server, s.logger)
		fmt.Fprintf(s.out, "removed %d duplicates: %s\n", len(removed), joinInts(removed))
		return nil
	case "noresults":
		fmt.Fprintf(s.out, "no-result requests: %d of %d\n", s.queue.NoResultRequests(), s.queue.Len())
		return nil
	case "stats":
		return s.stats(rest)
	case "batch":
		return s.batch(ctx, rest)
	}
	return fmt.Errorf("unknown command %q, try :help", name)
}

func (s *Shell) query(raw string, pred executor.Predicate) error {
	docs, err := s.queue.AddFindRequestWith(s.policy, raw, pred)
	if err != nil {
		return err
	}
	s.printDocs(docs)
	return nil
}

func (s *Shell) setPolicy(arg string) error {
	switch strings.ToLower(arg) {
	case "":
	case "on":
		s.policy = execution.Parallel
	case "off":
		s.policy = execution.Sequential
	default:
		p, err := execution.ParsePolicy(arg)
		if err != nil {
			return err
		}
		s.policy = p
	}
	fmt.Fprintf(s.out, "policy: %s\n", s.policy)
	return nil
}

func (s *Shell) match(rest string) error {
	idText, query, _ := strings.Cut(rest, " ")
	id, err := parseID(idText)
	if err != nil {
		return err
	}
	words, status, err := s.server.MatchDocumentWith(s.policy, query, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "{ document_id = %d, status = %s, words = %s }\n", id, status, strings.Join(words, " "))
	return nil
}

func (s *Shell) add(rest string) error {
	fields := strings.SplitN(rest, " ", 4)
	if len(fields) < 3 {
		return errors.New("usage: :add ID STATUS R,R,.. text")
	}
	id, err := parseID(fields[0])
	if err != nil {
		return err
	}
	status, err := index.ParseStatus(fields[1])
	if err != nil {
		return err
	}
	var ratings []int
	if fields[2] != "-" {
		for _, r := range strings.Split(fields[2], ",") {
			v, err := strconv.Atoi(r)
			if err != nil {
				return fmt.Errorf("rating %q: %w", r, err)
			}
			ratings = append(ratings, v)
		}
	}
	text := ""
	if len(fields) == 4 {
		text = fields[3]
	}
	if err := s.server.AddDocument(id, text, status, ratings); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "documents: %d\n", s.server.DocumentCount())
	return nil
}

func (s *Shell) freq(rest string) error {
	id, err := parseID(rest)
	if err != nil {
		return err
	}
	freqs := s.server.GetWordFrequencies(id)
	words := make([]string, 0, len(freqs))
	for w := range freqs {
		words = append(words, w)
	}
	slices.Sort(words)
	for _, w := range words {
		fmt.Fprintf(s.out, "%s: %g\n", w, freqs[w])
	}
	return nil
}

const defaultStatsLimit = 5

func (s *Shell) stats(rest string) error {
	limit := defaultStatsLimit
	if arg := strings.TrimSpace(rest); arg != "" {
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 {
			return fmt.Errorf("invalid limit %q", arg)
		}
		limit = n
	}
	st := s.queue.Stats(limit)
	fmt.Fprintf(s.out, "requests: %d, no results: %d\n", st.Requests, st.NoResultRequests)
	fmt.Fprintln(s.out, "top queries:")
	for _, qc := range st.TopQueries {
		fmt.Fprintf(s.out, "  %d  %s\n", qc.Count, qc.Query)
	}
	fmt.Fprintln(s.out, "zero-result queries:")
	for _, qc := range st.ZeroResultQueries {
		fmt.Fprintf(s.out, "  %d  %s\n", qc.Count, qc.Query)
	}
	fmt.Fprintln(s.out, "recent:")
	for _, rec := range s.queue.Recent(limit) {
		fmt.Fprintf(s.out, "  %s  %-10s  returned=%d  %s\n",
			rec.Timestamp.Format("15:04:05"), rec.Policy, rec.Returned, rec.Query)
	}
	if s.cache != nil {
		hits, misses := s.cache.Stats()
		fmt.Fprintf(s.out, "cache: hits=%d misses=%d\n", hits, misses)
	}
	return nil
}

func (s *Shell) batch(ctx context.Context, rest string) error {
	parts := strings.Split(rest, "|")
	queries := make([]string, 0, len(parts))
	for _, p := range parts {
		if q := strings.TrimSpace(p); q != "" {
			queries = append(queries, q)
		}
	}
	var searcher batch.Searcher = s.server
	if s.cache != nil {
		searcher = s.cache.Bind(ctx)
	}
	results, err := batch.ProcessQueries(ctx, searcher, queries, batch.WithMetrics(s.metrics))
	if err != nil {
		return err
	}
	for i, docs := range results {
		fmt.Fprintf(s.out, "[%s]\n", queries[i])
		s.printDocs(docs)
	}
	return nil
}

func (s *Shell) printDocs(docs []ranker.ScoredDoc) {
	if len(docs) == 0 {
		fmt.Fprintln(s.out, "no documents found")
		return
	}
	for _, d := range docs {
		fmt.Fprintf(s.out, "{ document_id = %d, relevance = %.6f, rating = %d }\n", d.ID, d.Relevance, d.Rating)
	}
}

// searchBackend lets the request history see the shell's cache when one is
// configured.
type searchBackend struct {
	s *Shell
}

func (b searchBackend) FindTopDocumentsWith(policy execution.Policy, raw string, pred executor.Predicate) ([]ranker.ScoredDoc, error) {
	if b.s.cache != nil && pred == nil && policy == execution.Sequential {
		return b.s.cache.FindTopDocuments(context.Background(), raw)
	}
	return b.s.server.FindTopDocumentsWith(policy, raw, pred)
}

func parseID(text string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, fmt.Errorf("invalid document id %q", text)
	}
	return id, nil
}

func joinInts(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, " ")
}
