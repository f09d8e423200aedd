package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/voxrag/voxrag/internal/bootstrap"
	"github.com/voxrag/voxrag/internal/config"
	"github.com/voxrag/voxrag/internal/observability/logging"
	"github.com/voxrag/voxrag/internal/observability/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := logging.NewJSONLogger("worker", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	m := metrics.NewWorkerMetrics("worker")
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		addr := ":" + cfg.WorkerMetricsPort
		logger.Info("worker metrics listening", "port", cfg.WorkerMetricsPort)
		if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
			logger.Error("worker metrics server error", "error", err)
		}
	}()

	logger.Info("worker subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeDocumentIngested(ctx, func(handlerCtx context.Context, documentID string) error {
		processCtx, cancel := context.WithTimeout(handlerCtx, 5*time.Minute)
		defer cancel()

		m.StartDocument()
		started := time.Now()
		procErr := app.ProcessUC.ProcessByID(processCtx, documentID)
		m.FinishDocument("worker", time.Since(started), procErr)

		if procErr == nil {
			if doc, err := app.Repo.GetByID(processCtx, documentID); err == nil {
				m.ObserveIndexedChunks("worker", doc.ChunkCount)
				m.ObserveQueueLag("worker", started.Sub(doc.CreatedAt))
			}
		}
		return procErr
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}
