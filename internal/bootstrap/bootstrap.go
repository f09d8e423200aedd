package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/voxrag/voxrag/internal/config"
	"github.com/voxrag/voxrag/internal/core/ports"
	"github.com/voxrag/voxrag/internal/core/session"
	"github.com/voxrag/voxrag/internal/core/usecase"
	"github.com/voxrag/voxrag/internal/infrastructure/chunking"
	"github.com/voxrag/voxrag/internal/infrastructure/extractor"
	"github.com/voxrag/voxrag/internal/infrastructure/llm/ollama"
	"github.com/voxrag/voxrag/internal/infrastructure/queue/nats"
	"github.com/voxrag/voxrag/internal/infrastructure/repository/postgres"
	"github.com/voxrag/voxrag/internal/infrastructure/rerank"
	"github.com/voxrag/voxrag/internal/infrastructure/resilience"
	"github.com/voxrag/voxrag/internal/infrastructure/storage/localfs"
	"github.com/voxrag/voxrag/internal/infrastructure/vector/qdrant"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue     ports.MessageQueue
	Repo      ports.DocumentRepository
	IngestUC  ports.DocumentIngestor
	ProcessUC ports.DocumentProcessor
	QueryUC   ports.QueryService

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	chunkRepo := postgres.NewChunkRepository(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, executor)
	embedder := ollama.NewEmbedder(ollamaClient)
	generator := ollama.NewGenerator(ollamaClient).WithSampling(cfg.GenTemperature, cfg.GenMaxTokens)

	vectorDB := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection, embedder)
	scorer := rerank.New(cfg.RerankURL, cfg.RerankModel, executor)
	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	extract := extractor.NewDispatcher()

	memory := session.NewMemory(cfg.SessionMaxTurns, time.Duration(cfg.SessionTTLMinutes)*time.Minute)

	searchUC := usecase.NewHybridSearchUseCase(vectorDB, chunkRepo, chunkRepo, usecase.HybridSearchConfig{
		VectorTopK:  cfg.VectorTopK,
		LexicalTopK: cfg.LexicalTopK,
		FusionK:     cfg.FusionRRFK,
		FusedLimit:  cfg.FusedLimit,
	}, logger)
	rerankUC := usecase.NewRerankUseCase(scorer, cfg.RerankTopN, cfg.RerankKeep, logger)
	rewriteUC := usecase.NewRewriteUseCase(generator, cfg.RewriteWindow, logger)
	answerUC := usecase.NewAnswerUseCase(generator)

	queryUC := usecase.NewRespondUseCase(memory, rewriteUC, searchUC, rerankUC, answerUC, usecase.RespondConfig{
		Fillers:         cfg.FillerPhrases,
		RewriteTimeout:  time.Duration(cfg.RewriteTimeoutMS) * time.Millisecond,
		SearchTimeout:   time.Duration(cfg.SearchTimeoutMS) * time.Millisecond,
		RerankTimeout:   time.Duration(cfg.RerankTimeoutMS) * time.Millisecond,
		GenerateTimeout: time.Duration(cfg.GenerateTimeoutMS) * time.Millisecond,
	}, logger)

	ingestUC := usecase.NewIngestDocumentUseCase(repo, storage, queue)
	processUC := usecase.NewProcessDocumentUseCase(repo, storage, extract, chunker, embedder, chunkRepo, vectorDB)

	return &App{
		Config: cfg,
		Logger: logger,
		Queue:  queue,
		Repo:   repo,

		IngestUC:  ingestUC,
		ProcessUC: processUC,
		QueryUC:   queryUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
