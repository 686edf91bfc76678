package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Vishwatejkhot/Self-Healing-Enterprise-AI-System/internal/adapters/classifier"
	"github.com/Vishwatejkhot/Self-Healing-Enterprise-AI-System/internal/adapters/filewatcher"
	"github.com/Vishwatejkhot/Self-Healing-Enterprise-AI-System/internal/domain/usecases"
	httpserver "github.com/Vishwatejkhot/Self-Healing-Enterprise-AI-System/internal/infrastructure/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the ask API with background self-healing",
	Long: `Restores the persisted index snapshot (ingesting the corpus first when
ingest.on_startup is set), starts the healing workers and optionally the
corpus watcher, then serves POST /ask, /metrics, /health and /admin/reingest.

Refuses to start while no index snapshot exists.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	if err := a.bootstrap(ctx); err != nil {
		return err
	}

	auditSink, err := a.openAudit()
	if err != nil {
		return err
	}
	defer auditSink.Close()

	policy, err := a.policyClassifier()
	if err != nil {
		return err
	}

	diagnoser := usecases.NewRootCauseDiagnoser(
		classifier.NewLLMDiagnosticClassifier(a.llm),
		cfg.Diagnosis.ConfidenceThreshold,
		logger,
	)
	controller := usecases.NewHealingController(diagnoser, a.pipeline, a.tuner, auditSink, a.metrics, usecases.HealingConfig{
		Workers:       cfg.Healing.Workers,
		QueueSize:     cfg.Healing.QueueSize,
		RatePerSecond: cfg.Healing.RatePerSecond,
		Burst:         cfg.Healing.Burst,
	}, logger)
	controller.Start(ctx)
	// Runs before the audit sink closes so the last repairs are still recorded.
	defer controller.Close()

	ask := usecases.NewAskUseCase(
		a.retriever,
		a.generator,
		usecases.NewQualityGate(policy, cfg.Quality.MinAnswerLength, cfg.Quality.UnknownMarkers),
		controller,
		auditSink,
		a.metrics,
		usecases.AskTimeouts{Retrieval: cfg.Retrieval.Timeout, Generation: cfg.Generation.Timeout},
		logger,
	)

	if cfg.Watch.Enabled {
		fw, err := filewatcher.NewFSNotifyWatcher(cfg.Corpus.Extensions, logger)
		if err != nil {
			return err
		}
		watcher := usecases.NewCorpusWatcher(fw, a.pipeline, cfg.Watch.Debounce, logger)
		go func() {
			if err := watcher.Run(ctx, a.pipeline.Dirs()); err != nil {
				logger.Error("corpus watcher stopped", "error", err)
			}
		}()
	}

	srv := httpserver.NewServer(httpserver.Deps{
		Asker:      ask,
		Reingester: a.pipeline,
		Snapshots:  a.snapshots,
		Healing:    controller,
		Metrics:    a.metrics,
		Exposition: a.metrics.Handler(),
		Logger:     logger,
	}, cfg.Server.Addr)
	return srv.Start(ctx)
}
