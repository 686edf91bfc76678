package usecases

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/Vishwatejkhot/Self-Healing-Enterprise-AI-System/internal/domain/entities"
)

const (
	DefaultChunkSize    = 700
	DefaultChunkOverlap = 100
)

// Chunker splits documents into overlapping chunks measured in characters.
type Chunker struct {
	splitter textsplitter.TextSplitter
}

// NewChunker creates a recursive character splitter.
// Non-positive size falls back to 700; an overlap outside [0, size) falls back to size/7.
func NewChunker(chunkSize, chunkOverlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 7
	}
	return &Chunker{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
			textsplitter.WithSeparators([]string{"\n\n", "\n", " ", ""}),
		),
	}
}

// Split chunks every document in order. Empty documents produce no chunks.
func (c *Chunker) Split(docs []entities.Document) ([]entities.Chunk, error) {
	var chunks []entities.Chunk
	for _, doc := range docs {
		content := strings.TrimSpace(doc.Content)
		if content == "" {
			continue
		}
		parts, err := c.splitter.SplitText(content)
		if err != nil {
			return nil, fmt.Errorf("splitting %s: %w", doc.Name, err)
		}
		index := 0
		for _, part := range parts {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			chunks = append(chunks, entities.Chunk{
				ID:         generateChunkID(doc.ID, index),
				DocumentID: doc.ID,
				Source:     doc.Name,
				Content:    part,
				Index:      index,
			})
			index++
		}
	}
	return chunks, nil
}

// generateChunkID creates a deterministic ID for a chunk.
func generateChunkID(docID string, index int) string {
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s#%d", docID, index)))
	return hex.EncodeToString(hash[:8])
}
