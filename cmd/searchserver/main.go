package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chzyer/readline"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/console"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/execution"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer/consumer"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/ingestion/loader"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/searchserver"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/searchserver/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	envPath := flag.String("env", ".env", "path to env file")
	flag.Parse()

	if err := godotenv.Load(*envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load env file: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
	slog.Info("starting search server",
		"stop_words", len(cfg.Search.StopWords),
		"accumulator_buckets", cfg.Search.AccumulatorBuckets,
		"parallel", cfg.Search.Parallel,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var m *metrics.Metrics
	checker := health.NewChecker()
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		m = metrics.New(reg)
		shutdown := metrics.StartServer(cfg.Metrics.Port, reg, checker)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(shutdownCtx)
		}()
	}

	srv, err := searchserver.New(cfg.Search.StopWords,
		searchserver.WithMetrics(m),
		searchserver.WithAccumulatorBuckets(cfg.Search.AccumulatorBuckets),
	)
	if err != nil {
		slog.Error("failed to create search server", "error", err)
		os.Exit(1)
	}
	checker.Register("index", health.IndexCheck(srv))

	if cfg.Postgres.Enabled {
		if err := bootstrap(ctx, cfg.Postgres, srv, m); err != nil {
			slog.Error("bootstrap from postgres failed", "error", err)
			os.Exit(1)
		}
	}

	if cfg.Kafka.Enabled {
		ic := consumer.New(kafka.NewConsumer(cfg.Kafka, consumer.HandleMessage(srv, m)))
		go func() {
			if err := ic.Start(ctx); err != nil {
				slog.Error("index consumer error", "error", err)
			}
		}()
		slog.Info("index consumer started", "topic", cfg.Kafka.Topic)
	}

	opts := []console.Option{
		console.WithPolicy(execution.FromBool(cfg.Search.Parallel)),
		console.WithMetrics(m),
		console.WithHistorySize(cfg.Search.HistorySize),
	}
	if cfg.Redis.Enabled {
		var redisClient *pkgredis.Client
		err := resilience.Retry(ctx, "redis connect", resilience.Backoff{MaxAttempts: 3}, func(ctx context.Context) error {
			var err error
			redisClient, err = pkgredis.NewClient(ctx, cfg.Redis)
			return err
		})
		if err != nil {
			slog.Warn("redis unavailable, search caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			checker.Register("redis", health.PingCheck(redisClient))
			qc := cache.New(redisClient, cfg.Redis.CacheTTL, m)
			if err := qc.Invalidate(ctx); err != nil {
				slog.Warn("clearing stale search cache entries failed", "error", err)
			}
			opts = append(opts, console.WithCache(cache.NewSearcher(qc, srv)))
			slog.Info("search cache enabled",
				"addr", cfg.Redis.Addr,
				"ttl", cfg.Redis.CacheTTL,
				"instance_id", srv.InstanceID(),
			)
		}
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "search> ",
		AutoComplete:    console.Completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		slog.Error("failed to open terminal", "error", err)
		os.Exit(1)
	}
	defer rl.Close()
	go func() {
		<-ctx.Done()
		_ = rl.Close()
	}()

	sh := console.New(srv, rl.Stdout(), opts...)
	if err := sh.Run(ctx, rl); err != nil {
		slog.Error("console error", "error", err)
	}
	slog.Info("search server stopped", "documents", srv.DocumentCount())
}

func bootstrap(ctx context.Context, cfg config.PostgresConfig, srv *searchserver.Server, m *metrics.Metrics) error {
	var client *postgres.Client
	err := resilience.Retry(ctx, "postgres connect", resilience.DefaultBackoff, func(ctx context.Context) error {
		var err error
		client, err = postgres.New(ctx, cfg)
		return err
	})
	if err != nil {
		return err
	}
	defer client.Close()

	l := loader.New(client, m)
	if err := l.EnsureSchema(ctx); err != nil {
		return err
	}
	res, err := l.Load(ctx, srv)
	if err != nil {
		return err
	}
	slog.Info("bootstrap complete", "indexed", res.Indexed, "skipped", res.Skipped)
	return nil
}
