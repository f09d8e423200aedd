package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/net/netutil"

	httpadapter "github.com/voxrag/voxrag/internal/adapters/http"
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

	logger := logging.NewJSONLogger("api", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	m := metrics.NewHTTPServerMetrics("api")
	router := httpadapter.NewRouter(cfg, app.IngestUC, app.QueryUC, app.Repo, m).Handler()
	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	listener, err := net.Listen("tcp", server.Addr)
	if err != nil {
		log.Fatalf("listen on %s: %v", server.Addr, err)
	}
	if cfg.MaxConns > 0 {
		listener = netutil.LimitListener(listener, cfg.MaxConns)
	}

	go func() {
		logger.Info("api listening", "port", cfg.APIPort)
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Fatalf("api server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api shutdown error", "error", err)
	}
}
