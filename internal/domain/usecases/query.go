// Package usecases - query.go handles retrieval and the confidence score derived from it.
package usecases

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Vishwatejkhot/Self-Healing-Enterprise-AI-System/internal/domain/entities"
	"github.com/Vishwatejkhot/Self-Healing-Enterprise-AI-System/internal/domain/ports"
)

// DefaultTopK is the number of passages retrieved per query.
const DefaultTopK = 4

// confidenceScale is the average distance at which confidence reaches zero.
const confidenceScale = 3.0

// ConfidenceRetriever wraps nearest-neighbor search over the current snapshot
// and turns distances into a confidence score.
// Read-only against the index.
type ConfidenceRetriever struct {
	embedder  ports.EmbeddingService
	snapshots *SnapshotHolder
	topK      int
}

// NewConfidenceRetriever creates a retriever with injected dependencies.
func NewConfidenceRetriever(embedder ports.EmbeddingService, snapshots *SnapshotHolder, topK int) *ConfidenceRetriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &ConfidenceRetriever{
		embedder:  embedder,
		snapshots: snapshots,
		topK:      topK,
	}
}

// TopK returns the configured default k.
func (r *ConfidenceRetriever) TopK() int {
	return r.topK
}

// Retrieve searches the current snapshot with the configured k.
func (r *ConfidenceRetriever) Retrieve(ctx context.Context, query string) (entities.RetrievedContext, error) {
	return r.RetrieveK(ctx, query, r.topK)
}

// RetrieveK searches the current snapshot for the k nearest passages.
// Zero results yield an empty context with confidence 0, not an error.
// ErrIndexUnavailable is returned when no snapshot has been published.
func (r *ConfidenceRetriever) RetrieveK(ctx context.Context, query string, k int) (entities.RetrievedContext, error) {
	ctx, span := tracer.Start(ctx, "ConfidenceRetriever.Retrieve")
	defer span.End()

	snap := r.snapshots.Current()
	if snap == nil {
		return entities.RetrievedContext{}, ErrIndexUnavailable
	}
	if k <= 0 {
		k = r.topK
	}

	embedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		recordSpanError(span, err)
		return entities.RetrievedContext{}, fmt.Errorf("embedding query: %w", err)
	}

	results, err := snap.Index.Search(ctx, embedding, k)
	if err != nil {
		recordSpanError(span, err)
		return entities.RetrievedContext{}, fmt.Errorf("searching snapshot %s: %w", snap.ID, err)
	}

	retrieved := BuildContext(results)
	span.SetAttributes(
		attribute.String("snapshot_id", snap.ID),
		attribute.Int("results", len(results)),
		attribute.Float64("confidence", retrieved.Confidence),
	)
	return retrieved, nil
}

// BuildContext concatenates passages in result order and scores them.
func BuildContext(results []entities.QueryResult) entities.RetrievedContext {
	if len(results) == 0 {
		return entities.RetrievedContext{Context: "", Confidence: 0.0}
	}
	passages := make([]string, len(results))
	distances := make([]float64, len(results))
	for i, res := range results {
		passages[i] = res.Chunk.Content
		distances[i] = res.Distance
	}
	return entities.RetrievedContext{
		Passages:   passages,
		Distances:  distances,
		Context:    strings.Join(passages, "\n"),
		Confidence: Confidence(distances),
	}
}

// Confidence maps distances to clamp(1 - mean/3, 0, 1) rounded to 2 decimals,
// exact halves to even. It is an ordinal quality signal, not a probability.
// Empty input scores 0.
func Confidence(distances []float64) float64 {
	if len(distances) == 0 {
		return 0.0
	}
	var sum float64
	for _, d := range distances {
		sum += d
	}
	avg := sum / float64(len(distances))
	c := math.Max(0.0, math.Min(1.0, 1.0-avg/confidenceScale))
	return roundHalfEven(c, 2)
}

// roundHalfEven rounds the exact binary value of f, so 0.125 becomes 0.12
// while 0.145 (stored as 0.14499...) becomes 0.14.
func roundHalfEven(f float64, places int) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(f, 'f', places, 64), 64)
	if err != nil {
		return f
	}
	return r
}
