// Package vectordb provides the vector index and its persistence.
// Clean Architecture: Adapters implementing ports.SearchIndex, ports.IndexBuilder
// and ports.SnapshotStore.
package vectordb

import (
	"context"
	"fmt"
	"sort"

	"github.com/Vishwatejkhot/Self-Healing-Enterprise-AI-System/internal/domain/entities"
	"github.com/Vishwatejkhot/Self-Healing-Enterprise-AI-System/internal/domain/ports"
)

// MemoryIndex is an exact flat index over squared L2 distance.
// It is never mutated after Build, so concurrent Search needs no locking.
type MemoryIndex struct {
	chunks []entities.Chunk
	dims   int
}

// MemoryIndexBuilder implements ports.IndexBuilder.
type MemoryIndexBuilder struct{}

// NewMemoryIndexBuilder creates a builder.
func NewMemoryIndexBuilder() *MemoryIndexBuilder {
	return &MemoryIndexBuilder{}
}

// Build copies the chunks into a fresh index. Every chunk must carry an
// embedding of the same dimension.
func (MemoryIndexBuilder) Build(ctx context.Context, chunks []entities.Chunk) (ports.SearchIndex, error) {
	return NewMemoryIndex(ctx, chunks)
}

// NewMemoryIndex builds an index from embedded chunks.
func NewMemoryIndex(ctx context.Context, chunks []entities.Chunk) (*MemoryIndex, error) {
	idx := &MemoryIndex{chunks: make([]entities.Chunk, len(chunks))}
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(chunk.Embedding) == 0 {
			return nil, fmt.Errorf("chunk %s has no embedding", chunk.ID)
		}
		if i == 0 {
			idx.dims = len(chunk.Embedding)
		} else if len(chunk.Embedding) != idx.dims {
			return nil, fmt.Errorf("chunk %s has %d dims, index has %d", chunk.ID, len(chunk.Embedding), idx.dims)
		}
		chunk.Embedding = append([]float32(nil), chunk.Embedding...)
		idx.chunks[i] = chunk
	}
	return idx, nil
}

// Search returns the k nearest chunks by ascending squared L2 distance.
// Equal distances keep chunk order.
func (m *MemoryIndex) Search(ctx context.Context, embedding []float32, k int) ([]entities.QueryResult, error) {
	if k <= 0 || len(m.chunks) == 0 {
		return nil, nil
	}
	if len(embedding) != m.dims {
		return nil, fmt.Errorf("query has %d dims, index has %d", len(embedding), m.dims)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type scored struct {
		pos      int
		distance float64
	}
	results := make([]scored, len(m.chunks))
	for i, chunk := range m.chunks {
		results[i] = scored{pos: i, distance: squaredL2(embedding, chunk.Embedding)}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].distance < results[j].distance
	})

	if len(results) > k {
		results = results[:k]
	}

	queryResults := make([]entities.QueryResult, len(results))
	for i, r := range results {
		chunk := m.chunks[r.pos]
		queryResults[i] = entities.QueryResult{
			Chunk:     chunk,
			Distance:  r.distance,
			SourceDoc: chunk.Source,
		}
	}
	return queryResults, nil
}

// Len returns the number of indexed chunks.
func (m *MemoryIndex) Len() int {
	return len(m.chunks)
}

// squaredL2 is the squared Euclidean distance. Lower is more similar.
func squaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}
