package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Vishwatejkhot/Self-Healing-Enterprise-AI-System/internal/adapters/audit"
	"github.com/Vishwatejkhot/Self-Healing-Enterprise-AI-System/internal/adapters/classifier"
	"github.com/Vishwatejkhot/Self-Healing-Enterprise-AI-System/internal/adapters/embedding"
	"github.com/Vishwatejkhot/Self-Healing-Enterprise-AI-System/internal/adapters/llm"
	"github.com/Vishwatejkhot/Self-Healing-Enterprise-AI-System/internal/adapters/loader"
	"github.com/Vishwatejkhot/Self-Healing-Enterprise-AI-System/internal/adapters/metrics"
	"github.com/Vishwatejkhot/Self-Healing-Enterprise-AI-System/internal/adapters/prompt"
	"github.com/Vishwatejkhot/Self-Healing-Enterprise-AI-System/internal/adapters/vectordb"
	"github.com/Vishwatejkhot/Self-Healing-Enterprise-AI-System/internal/domain/ports"
	"github.com/Vishwatejkhot/Self-Healing-Enterprise-AI-System/internal/domain/usecases"
	"github.com/Vishwatejkhot/Self-Healing-Enterprise-AI-System/internal/infrastructure/config"
)

// app holds the adapters and use cases shared by every command.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	llm       ports.LLMService
	embedder  *embedding.OllamaAdapter
	tuner     *prompt.Tuner
	metrics   *metrics.PrometheusSink
	snapshots *usecases.SnapshotHolder
	pipeline  *usecases.ReingestionPipeline
	retriever *usecases.ConfidenceRetriever
	generator *usecases.AnswerGenerator
}

func newApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	backend, err := newLLM(cfg.LLM, logger)
	if err != nil {
		return nil, err
	}

	embedder := embedding.NewOllamaAdapter(cfg.Embedding.BaseURL, cfg.Embedding.Model,
		embedding.WithConcurrency(cfg.Ingest.EmbedConcurrency),
		embedding.WithLogger(logger),
	)

	store, err := vectordb.NewSQLiteSnapshotStore(cfg.Index.Dir, logger)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot store: %w", err)
	}

	sink := metrics.NewPrometheusSink()
	snapshots := usecases.NewSnapshotHolder()
	source := loader.NewDirectorySource(cfg.Corpus.Dirs, loader.NewTextLoader(cfg.Corpus.Extensions...), logger)
	pipeline := usecases.NewReingestionPipeline(
		source,
		usecases.NewChunker(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap),
		embedder,
		vectordb.NewMemoryIndexBuilder(),
		store,
		snapshots,
		sink,
		logger,
	)
	tuner := prompt.NewTuner(prompt.DefaultLadder, logger)

	return &app{
		cfg:       cfg,
		logger:    logger,
		llm:       backend,
		embedder:  embedder,
		tuner:     tuner,
		metrics:   sink,
		snapshots: snapshots,
		pipeline:  pipeline,
		retriever: usecases.NewConfidenceRetriever(embedder, snapshots, cfg.Retrieval.K),
		generator: usecases.NewAnswerGenerator(backend, tuner, logger),
	}, nil
}

func newLLM(lc config.LLMConfig, logger *slog.Logger) (ports.LLMService, error) {
	switch lc.Backend {
	case "openai":
		return llm.NewOpenAIClient(lc.APIKey, lc.BaseURL, lc.Model, logger)
	default:
		return llm.NewOllamaLLMAdapter(lc.BaseURL, lc.Model, logger), nil
	}
}

// bootstrap publishes an index snapshot: the persisted one if present, then an
// ingestion run when enabled so drift that happened while offline is picked up.
func (a *app) bootstrap(ctx context.Context) error {
	_, err := a.pipeline.Restore(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ports.ErrSnapshotNotFound):
		a.logger.Info("no persisted index snapshot")
	default:
		a.logger.Warn("persisted index snapshot unusable", "error", err)
	}

	if a.cfg.Ingest.OnStartup {
		if _, err := a.pipeline.Run(ctx, false); err != nil {
			a.logger.Error("startup ingestion failed", "error", err)
		}
	}

	if a.snapshots.Current() == nil {
		return fmt.Errorf("%w: run `aegis ingest` once the corpus is in place", usecases.ErrIndexUnavailable)
	}
	return nil
}

// policyClassifier combines the embedded patterns with the LLM check when enabled.
func (a *app) policyClassifier() (ports.PolicyClassifier, error) {
	patterns, err := classifier.NewPatternPolicyClassifier()
	if err != nil {
		return nil, fmt.Errorf("loading policy patterns: %w", err)
	}
	var judge ports.PolicyClassifier
	if a.cfg.Policy.LLMCheck {
		judge = classifier.NewLLMPolicyClassifier(a.llm)
	}
	return classifier.NewCompositePolicyClassifier(patterns, judge), nil
}

func (a *app) openAudit() (*audit.FileSink, error) {
	sink, err := audit.NewFileSink(a.cfg.Audit.Path)
	if err != nil {
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	return sink, nil
}
