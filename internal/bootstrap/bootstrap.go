// Package bootstrap assembles the intake pipeline from configuration:
// storage, queue, model clients, vector index and the use cases on top.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/meridianbio/labintake/internal/config"
	"github.com/meridianbio/labintake/internal/core/ports"
	"github.com/meridianbio/labintake/internal/core/rules"
	"github.com/meridianbio/labintake/internal/core/usecase"
	"github.com/meridianbio/labintake/internal/infrastructure/chunking"
	"github.com/meridianbio/labintake/internal/infrastructure/extractor/doctext"
	"github.com/meridianbio/labintake/internal/infrastructure/llm/ollama"
	natsqueue "github.com/meridianbio/labintake/internal/infrastructure/queue/nats"
	"github.com/meridianbio/labintake/internal/infrastructure/repository/postgres"
	"github.com/meridianbio/labintake/internal/infrastructure/storage/localfs"
	"github.com/meridianbio/labintake/internal/infrastructure/vector/qdrant"
	"github.com/meridianbio/labintake/internal/observability/metrics"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue    ports.MessageQueue
	Store    ports.SubmissionStore
	Storage  *localfs.Storage
	Policy   rules.QualityPolicy
	Pipeline *metrics.PipelineMetrics

	IngestUC *usecase.IngestSubmissionUseCase
	Workflow *usecase.IntakeWorkflow

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger, service string) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	store := postgres.NewSubmissionRepository(db, logger)
	if err := store.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	queue, err := natsqueue.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, natsqueue.Options{Logger: logger})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	policy := rules.DefaultPolicy()
	if cfg.QualityPolicyPath != "" {
		policy, err = rules.LoadPolicy(cfg.QualityPolicyPath)
		if err != nil {
			queue.Close()
			_ = db.Close()
			return nil, fmt.Errorf("load quality policy: %w", err)
		}
	}

	ollamaClient := ollama.New(ollama.Config{
		BaseURL:        cfg.OllamaURL,
		GenerateModel:  cfg.OllamaGenModel,
		EmbeddingModel: cfg.OllamaEmbedModel,
		RequestsPerSec: cfg.OllamaRPS,
	}, logger)
	embedder := ollama.NewEmbedder(ollamaClient)
	extractor := ollama.NewExtractor(ollamaClient)

	vectorDB := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection)
	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	textExtractor := doctext.NewExtractor()

	pipelineMetrics := metrics.NewPipelineMetrics(service)
	events := metrics.NewEventRecorder(service, pipelineMetrics, logger)
	review := natsqueue.GateFromQueue(queue, cfg.ReviewSubject)

	extraction := usecase.NewExtractionPipeline(
		textExtractor, chunker, embedder, vectorDB, extractor, cfg.ContextTopK,
	)

	workflow := usecase.NewIntakeWorkflow(
		usecase.NewFileValidator(int64(cfg.MaxDocumentMB)*1024*1024),
		extraction,
		policy,
		usecase.WorkflowOptions{
			Review:        review,
			Store:         store,
			Events:        events,
			Logger:        logger,
			ReviewTimeout: time.Duration(cfg.ReviewTimeoutSeconds) * time.Second,
		},
	)

	ingestUC := usecase.NewIngestSubmissionUseCase(store, storage, queue)

	return &App{
		Config:   cfg,
		Logger:   logger,
		Queue:    queue,
		Store:    store,
		Storage:  storage,
		Policy:   policy,
		Pipeline: pipelineMetrics,
		IngestUC: ingestUC,
		Workflow: workflow,
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

// NewOffline builds a workflow for local batch runs: model, vector and
// chunking wiring only, with no database, queue or review channel. Results
// are returned to the caller instead of being persisted.
func NewOffline(cfg config.Config, logger *slog.Logger, service string) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	policy := rules.DefaultPolicy()
	if cfg.QualityPolicyPath != "" {
		var err error
		policy, err = rules.LoadPolicy(cfg.QualityPolicyPath)
		if err != nil {
			return nil, fmt.Errorf("load quality policy: %w", err)
		}
	}

	ollamaClient := ollama.New(ollama.Config{
		BaseURL:        cfg.OllamaURL,
		GenerateModel:  cfg.OllamaGenModel,
		EmbeddingModel: cfg.OllamaEmbedModel,
		RequestsPerSec: cfg.OllamaRPS,
	}, logger)

	pipelineMetrics := metrics.NewPipelineMetrics(service)

	extraction := usecase.NewExtractionPipeline(
		doctext.NewExtractor(),
		chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap),
		ollama.NewEmbedder(ollamaClient),
		qdrant.New(cfg.QdrantURL, cfg.QdrantCollection),
		ollama.NewExtractor(ollamaClient),
		cfg.ContextTopK,
	)

	workflow := usecase.NewIntakeWorkflow(
		usecase.NewFileValidator(int64(cfg.MaxDocumentMB)*1024*1024),
		extraction,
		policy,
		usecase.WorkflowOptions{
			Events: metrics.NewEventRecorder(service, pipelineMetrics, logger),
			Logger: logger,
		},
	)

	return &App{
		Config:   cfg,
		Logger:   logger,
		Policy:   policy,
		Pipeline: pipelineMetrics,
		Workflow: workflow,
	}, nil
}
