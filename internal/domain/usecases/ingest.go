// Package usecases contains application business rules.
// Clean Architecture: Usecases orchestrate entities and depend on port interfaces.
// They hold no transport or storage code; the only libraries they import are for
// IDs, tracing, text splitting and concurrency control.
package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Vishwatejkhot/Self-Healing-Enterprise-AI-System/internal/domain/entities"
	"github.com/Vishwatejkhot/Self-Healing-Enterprise-AI-System/internal/domain/ports"
)

// Reingest outcomes reported to the metrics sink.
const (
	OutcomeRebuilt = "rebuilt"
	OutcomeNoDrift = "no_drift"
	OutcomeEmpty   = "empty"
	OutcomeError   = "error"
)

// ReingestionPipeline re-derives the corpus and rebuilds the index when it drifted.
// Single Responsibility: Only ingestion logic. At most one run writes at a time.
type ReingestionPipeline struct {
	source    ports.DocumentSource
	chunker   *Chunker
	embedder  ports.EmbeddingService
	builder   ports.IndexBuilder
	store     ports.SnapshotStore
	snapshots *SnapshotHolder
	metrics   ports.MetricsSink
	logger    *slog.Logger

	mu sync.Mutex
}

// NewReingestionPipeline creates a pipeline with injected dependencies.
// Dependency Injection: Adapters are passed in, not created here.
func NewReingestionPipeline(
	source ports.DocumentSource,
	chunker *Chunker,
	embedder ports.EmbeddingService,
	builder ports.IndexBuilder,
	store ports.SnapshotStore,
	snapshots *SnapshotHolder,
	metrics ports.MetricsSink,
	logger *slog.Logger,
) *ReingestionPipeline {
	if chunker == nil {
		chunker = NewChunker(DefaultChunkSize, DefaultChunkOverlap)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReingestionPipeline{
		source:    source,
		chunker:   chunker,
		embedder:  embedder,
		builder:   builder,
		store:     store,
		snapshots: snapshots,
		metrics:   metrics,
		logger:    logger,
	}
}

// Restore loads the persisted snapshot and publishes it.
// Returns ports.ErrSnapshotNotFound when nothing has been ingested yet.
func (p *ReingestionPipeline) Restore(ctx context.Context) (*Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	persisted, err := p.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	index, err := p.builder.Build(ctx, persisted.Chunks)
	if err != nil {
		return nil, fmt.Errorf("building index from snapshot %s: %w", persisted.ID, err)
	}
	builtAt := persisted.BuiltAt
	if builtAt.IsZero() {
		builtAt = time.Now().UTC()
	}
	snap := &Snapshot{
		ID:          persisted.ID,
		Fingerprint: persisted.Fingerprint,
		Index:       index,
		BuiltAt:     builtAt,
	}
	p.snapshots.Publish(snap)
	p.logger.Info("index snapshot restored", "snapshot_id", snap.ID, "fingerprint", snap.Fingerprint, "chunks", index.Len())
	return snap, nil
}

// Dirs returns the corpus directories the source reads, for watching.
func (p *ReingestionPipeline) Dirs() []string {
	return p.source.Dirs()
}

// Run re-reads the corpus; without force it is a no-op when the fingerprint is unchanged.
// ErrNoDocumentsFound leaves the index and stored fingerprint untouched.
func (p *ReingestionPipeline) Run(ctx context.Context, force bool) (entities.IngestReport, error) {
	ctx, span := tracer.Start(ctx, "ReingestionPipeline.Run")
	defer span.End()
	span.SetAttributes(attribute.Bool("force", force))

	p.mu.Lock()
	defer p.mu.Unlock()

	report, err := p.run(ctx, force)
	switch {
	case errors.Is(err, ErrNoDocumentsFound):
		p.metrics.IncReingest(OutcomeEmpty)
	case err != nil:
		recordSpanError(span, err)
		p.metrics.IncReingest(OutcomeError)
	case report.NoDrift:
		p.metrics.IncReingest(OutcomeNoDrift)
	default:
		p.metrics.IncReingest(OutcomeRebuilt)
	}
	return report, err
}

func (p *ReingestionPipeline) run(ctx context.Context, force bool) (entities.IngestReport, error) {
	report := entities.IngestReport{Forced: force}

	// 1. Enumerate the corpus
	docs, err := p.source.Documents(ctx)
	if err != nil {
		return report, fmt.Errorf("loading documents: %w", err)
	}
	if len(docs) == 0 {
		return report, ErrNoDocumentsFound
	}
	report.Documents = len(docs)

	// 2. Detect drift
	fingerprint := Fingerprint(docs)
	report.Fingerprint = fingerprint
	previous := p.snapshots.Fingerprint()
	if previous != "" && !force && previous == fingerprint {
		p.logger.Info("no data drift detected", "fingerprint", fingerprint)
		report.NoDrift = true
		report.FinishedAt = time.Now().UTC()
		return report, nil
	}

	// 3. Chunk and embed
	chunks, err := p.chunker.Split(docs)
	if err != nil {
		return report, fmt.Errorf("chunking documents: %w", err)
	}
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}
	embeddings, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return report, fmt.Errorf("embedding chunks: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return report, fmt.Errorf("embedding chunks: got %d vectors for %d chunks", len(embeddings), len(chunks))
	}
	for i := range chunks {
		chunks[i].Embedding = embeddings[i]
	}

	// 4. Rebuild from scratch, persist, then publish
	index, err := p.builder.Build(ctx, chunks)
	if err != nil {
		return report, fmt.Errorf("building index: %w", err)
	}
	id := uuid.NewString()
	builtAt := time.Now().UTC()
	if err := p.store.Save(ctx, ports.PersistedSnapshot{ID: id, Fingerprint: fingerprint, BuiltAt: builtAt, Chunks: chunks}); err != nil {
		return report, fmt.Errorf("persisting snapshot: %w", err)
	}
	p.snapshots.Publish(&Snapshot{
		ID:          id,
		Fingerprint: fingerprint,
		Index:       index,
		BuiltAt:     builtAt,
	})

	report.Chunks = len(chunks)
	report.Rebuilt = true
	report.SnapshotID = id
	report.FinishedAt = time.Now().UTC()
	p.logger.Info("ingestion completed", "snapshot_id", id, "documents", len(docs), "chunks", len(chunks), "forced", force)
	return report, nil
}
