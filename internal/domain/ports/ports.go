// Package ports defines interfaces for external dependencies.
// Clean Architecture: These are the boundaries - usecases depend on these abstractions,
// not concrete implementations. Adapters implement these interfaces.
// This follows Dependency Inversion Principle (DIP) strictly.
package ports

import (
	"context"
	"errors"
	"time"

	"github.com/Vishwatejkhot/Self-Healing-Enterprise-AI-System/internal/domain/entities"
)

// ErrSnapshotNotFound is returned by SnapshotStore.Load when nothing was persisted yet.
var ErrSnapshotNotFound = errors.New("index snapshot not found")

// EmbeddingService generates vector embeddings for text.
// Interface Segregation: Only embedding responsibility, nothing else.
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, preserving order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// LLMService generates text from a language model.
// Single Responsibility: Only LLM inference, no embedding logic.
type LLMService interface {
	// Generate produces a completion for a fully rendered prompt.
	Generate(ctx context.Context, prompt string) (string, error)
}

// SearchIndex is one immutable build of the retrieval index.
// Implementations must be safe for concurrent readers.
type SearchIndex interface {
	// Search returns up to k matches ordered by ascending distance.
	Search(ctx context.Context, embedding []float32, k int) ([]entities.QueryResult, error)

	// Len returns the number of indexed chunks.
	Len() int
}

// IndexBuilder builds a fresh SearchIndex from embedded chunks. Never incremental.
type IndexBuilder interface {
	Build(ctx context.Context, chunks []entities.Chunk) (SearchIndex, error)
}

// PersistedSnapshot is what a SnapshotStore keeps on disk.
type PersistedSnapshot struct {
	ID          string
	Fingerprint string
	BuiltAt     time.Time
	Chunks      []entities.Chunk
}

// SnapshotStore persists an index snapshot together with its corpus fingerprint.
// Save must commit both atomically: a later Load never pairs a new fingerprint
// with old chunks or vice versa.
type SnapshotStore interface {
	Save(ctx context.Context, snap PersistedSnapshot) error

	// Load returns ErrSnapshotNotFound when no snapshot has been committed.
	Load(ctx context.Context) (PersistedSnapshot, error)
}

// DocumentLoader reads a single document.
type DocumentLoader interface {
	// Load reads a document from the given path.
	Load(ctx context.Context, path string) (*entities.Document, error)

	// SupportedExtensions returns file extensions this loader handles.
	SupportedExtensions() []string
}

// DocumentSource enumerates the corpus in directory-then-filename order.
type DocumentSource interface {
	Documents(ctx context.Context) ([]entities.Document, error)

	// Dirs returns the configured corpus directories.
	Dirs() []string
}

// PolicyClassifier decides whether an answer violates enterprise policy
// (security, privacy, access control).
type PolicyClassifier interface {
	Violates(ctx context.Context, answer string) (bool, error)
}

// DiagnosticClassifier picks a root cause for a failed query.
// The returned text is expected to name one of Retrieval, Prompt or Data staleness,
// but callers must cope with anything.
type DiagnosticClassifier interface {
	Classify(ctx context.Context, query string) (string, error)
}

// GroundednessJudge decides whether an answer is fully supported by its context.
type GroundednessJudge interface {
	Grounded(ctx context.Context, answer, retrieved string) (bool, error)
}

// PromptSource provides the generation prompt template currently in effect.
type PromptSource interface {
	// Template returns a text/template body with .Context and .Question fields.
	Template() string
}

// PromptRepairer adjusts generation prompt configuration.
// Best-effort: it either changes something or is a no-op.
type PromptRepairer interface {
	Repair(ctx context.Context) (changed bool)
}

// AuditSink is the durable, append-only event log.
// Implementations must serialize appends.
type AuditSink interface {
	Append(ctx context.Context, event entities.AuditEvent) error
}

// MetricsSink receives the process counters. Reset happens at construction.
type MetricsSink interface {
	IncQueries()
	IncFailures()
	IncPolicyViolations()
	IncHeal(action entities.HealingAction)
	IncHealError()
	IncHealDropped()
	IncReingest(outcome string)
	ObserveConfidence(confidence float64)

	// Counters returns a flat name -> value view for the JSON metrics endpoint.
	Counters() map[string]float64
}

// FileWatcher monitors directories for changes.
type FileWatcher interface {
	// Watch starts monitoring the directories and emits events.
	Watch(ctx context.Context, dirs ...string) (<-chan FileEvent, error)

	// Stop stops the watcher.
	Stop() error
}

// FileEvent represents a file system change.
type FileEvent struct {
	Path      string
	Operation FileOperation
}

// FileOperation is the type of file change.
type FileOperation int

const (
	FileCreated FileOperation = iota
	FileModified
	FileDeleted
	FileRenamed
)
