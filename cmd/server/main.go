package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	h "github.com/billzhuang6569/gravity/internal/api/http"
	cfgpkg "github.com/billzhuang6569/gravity/internal/config"
	"github.com/billzhuang6569/gravity/internal/extract"
	"github.com/billzhuang6569/gravity/internal/fileserve"
	"github.com/billzhuang6569/gravity/internal/queue"
	"github.com/billzhuang6569/gravity/internal/retry"
	svc "github.com/billzhuang6569/gravity/internal/service"
	"github.com/billzhuang6569/gravity/internal/store"
	"github.com/billzhuang6569/gravity/internal/worker"
)

const publicDownloadPrefix = "/api/v1/downloads"

func main() {

	cfg, err := cfgpkg.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	cfgpkg.SetupLogger(cfg)
	slog.Info("configuration loaded successfully")

	client, err := store.Connect(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		slog.Error("failed to connect to redis", "addr", cfg.RedisAddr, "error", err)
		os.Exit(1)
	}
	defer client.Close()

	taskStore := store.NewTaskStore(client, cfg.TaskTTL)
	history := store.NewHistory(client, cfg.HistorySize)

	files := fileserve.NewFileStorage(cfg.DownloadDir, publicDownloadPrefix)
	extractor := extract.NewYtDlp(cfg.YtDlpPath, cfg.DownloadDir, cfg.TempDir, cfg.SoftTimeLimit, slog.Default())

	producer, consumer, closeQueue, err := buildQueue(cfg)
	if err != nil {
		slog.Error("failed to initialize work queue", "driver", cfg.QueueDriver, "error", err)
		os.Exit(1)
	}
	defer closeQueue()

	runner := worker.NewRunner(taskStore, history, extractor, files, cfg.HardTimeLimit, slog.Default())
	policy := retry.NewPolicy(cfg.MaxRetries, cfg.RetryBaseDelay)
	dispatcher := worker.NewDispatcher(runner, consumer, producer, policy, cfg.WorkerCount, slog.Default())

	janitor := fileserve.NewJanitor(
		[]string{cfg.DownloadDir, cfg.TempDir},
		cfg.FileRetention,
		cfg.CleanupInterval,
		slog.Default(),
	)

	downloadService := svc.NewDownloadService(taskStore, history, producer, extractor, slog.Default())

	router := h.NewRouter(downloadService, files, slog.Default())
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPTimeout,
		WriteTimeout: cfg.HTTPTimeout,
		IdleTimeout:  cfg.HTTPTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		slog.Info("worker dispatcher starting", "workers", cfg.WorkerCount, "driver", cfg.QueueDriver)
		if err := dispatcher.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("dispatcher: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := janitor.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("janitor: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped gracefully")
}

// buildQueue selects the work-queue transport. The memory driver is a
// single object serving both ends; the kafka driver splits producer and
// consumer group.
func buildQueue(cfg *cfgpkg.Config) (queue.Producer, queue.Consumer, func(), error) {
	switch cfg.QueueDriver {
	case "kafka":
		brokers := strings.Split(cfg.KafkaBrokers, ",")

		producer, err := queue.NewKafkaProducer(brokers, cfg.KafkaTopic)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("kafka producer: %w", err)
		}

		consumer, err := queue.NewKafkaConsumer(brokers, cfg.KafkaGroup, cfg.KafkaTopic, slog.Default())
		if err != nil {
			producer.Close()
			return nil, nil, nil, fmt.Errorf("kafka consumer: %w", err)
		}

		return producer, consumer, func() {
			if err := consumer.Close(); err != nil {
				slog.Error("failed to close kafka consumer", "error", err)
			}
			if err := producer.Close(); err != nil {
				slog.Error("failed to close kafka producer", "error", err)
			}
		}, nil

	default:
		q := queue.NewMemoryQueue(cfg.QueueSize, slog.Default())
		return q, q, q.Close, nil
	}
}
