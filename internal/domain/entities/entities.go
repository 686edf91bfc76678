// Package entities contains core business entities.
// These are the enterprise business rules - pure domain objects with no external dependencies.
package entities

import "time"

// Document represents a source document (TXT, MD) from a corpus directory.
// This is a core entity - no knowledge of storage or external systems.
type Document struct {
	ID        string
	Name      string
	Path      string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Chunk represents a piece of a document for embedding.
// Clean Architecture: Entity knows nothing about how it's stored or embedded.
type Chunk struct {
	ID         string
	DocumentID string
	Source     string    // Document name for citation
	Content    string
	Index      int       // Position in document
	Embedding  []float32 // Vector representation (populated by adapter)
}

// QueryResult is one nearest-neighbor match.
// Distance is non-negative; lower means more similar.
type QueryResult struct {
	Chunk     Chunk
	Distance  float64
	SourceDoc string
}

// RetrievedContext is the per-request output of retrieval.
type RetrievedContext struct {
	Passages   []string
	Distances  []float64
	Context    string  // Passages joined by newline, in result order
	Confidence float64 // Clamped to [0,1], rounded to 2 decimals
}

// FailureCause is the category a diagnosis resolved to.
type FailureCause string

const (
	CauseRetrievalDrift FailureCause = "retrieval_drift"
	CausePromptIssue    FailureCause = "prompt_issue"
	CauseDataStaleness  FailureCause = "data_staleness"
	CauseUnknown        FailureCause = "unknown"
)

// FailureReason is produced once per failed request and consumed once by healing.
// Text is the raw diagnosis ("Retrieval drift" or the classifier's answer).
type FailureReason struct {
	Cause FailureCause
	Text  string
}

// HealingAction is the single repair dispatched for a FailureReason.
type HealingAction string

const (
	ActionReingest     HealingAction = "reingest"
	ActionPromptRepair HealingAction = "prompt_repair"
)

// Audit event kinds.
const (
	EventPolicyViolation = "policy_violation"
	EventSelfHeal        = "self_heal"
	EventSuccess         = "success"
	EventHealError       = "heal_error"
	EventHealDropped     = "heal_dropped"
)

// AuditEvent is one append-only audit log record.
type AuditEvent struct {
	ID      string         `json:"id"`
	Time    time.Time      `json:"time"`
	Event   string         `json:"event"`
	Payload map[string]any `json:"payload"`
}

// AskStatus is the outcome of a request at the response boundary.
type AskStatus string

const (
	StatusAnswered AskStatus = "answered"
	StatusBlocked  AskStatus = "blocked"
)

// AskResult is what the request pipeline hands back to the caller.
type AskResult struct {
	RequestID  string
	Status     AskStatus
	Answer     string
	Confidence float64
	// Degraded is set when the answer failed the quality gate and healing was dispatched.
	Degraded bool
}

// IngestReport summarizes one ReingestionPipeline run.
type IngestReport struct {
	Documents   int       `json:"documents"`
	Chunks      int       `json:"chunks"`
	Fingerprint string    `json:"fingerprint"`
	Rebuilt     bool      `json:"rebuilt"`
	NoDrift     bool      `json:"no_drift"`
	Forced      bool      `json:"forced"`
	SnapshotID  string    `json:"snapshot_id,omitempty"`
	FinishedAt  time.Time `json:"finished_at"`
}

// RegressionCase is a golden query with keywords the answer must mention.
type RegressionCase struct {
	Query            string   `yaml:"query" json:"query"`
	ExpectedKeywords []string `yaml:"expected_keywords" json:"expected_keywords"`
}

// RegressionFailure records a regression case whose answer missed keywords.
type RegressionFailure struct {
	Query   string   `json:"query"`
	Answer  string   `json:"answer"`
	Missing []string `json:"missing"`
}

// GroundingCase is a golden query whose answer must be supported by context.
type GroundingCase struct {
	Query       string   `yaml:"query" json:"query"`
	MustContain []string `yaml:"must_contain" json:"must_contain"`
}

// GroundingResult is the outcome of one groundedness check.
type GroundingResult struct {
	Query    string `json:"query"`
	Answer   string `json:"answer"`
	Grounded bool   `json:"grounded"`
	Passed   bool   `json:"passed"`
}
