package usecases

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Vishwatejkhot/Self-Healing-Enterprise-AI-System/internal/domain/entities"
	"github.com/Vishwatejkhot/Self-Healing-Enterprise-AI-System/internal/domain/ports"
)

// DefaultDriftThreshold is the confidence above which a failure is attributed
// to retrieval drift without consulting the classifier.
const DefaultDriftThreshold = 0.7

// RetrievalDriftText is the reason text of the fast path.
const RetrievalDriftText = "Retrieval drift"

// RootCauseDiagnoser maps a failed answer to a FailureReason. Stateless.
type RootCauseDiagnoser struct {
	classifier ports.DiagnosticClassifier
	threshold  float64
	logger     *slog.Logger
}

// NewRootCauseDiagnoser creates a diagnoser. A non-positive threshold uses 0.7.
func NewRootCauseDiagnoser(classifier ports.DiagnosticClassifier, threshold float64, logger *slog.Logger) *RootCauseDiagnoser {
	if threshold <= 0 {
		threshold = DefaultDriftThreshold
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RootCauseDiagnoser{classifier: classifier, threshold: threshold, logger: logger}
}

// Diagnose returns RetrievalDrift when confidence > threshold; otherwise it asks the
// classifier and keeps its raw answer. A classifier error yields CauseUnknown.
func (d *RootCauseDiagnoser) Diagnose(ctx context.Context, query string, confidence float64) entities.FailureReason {
	if confidence > d.threshold {
		return entities.FailureReason{Cause: entities.CauseRetrievalDrift, Text: RetrievalDriftText}
	}

	ctx, span := tracer.Start(ctx, "RootCauseDiagnoser.Classify")
	defer span.End()

	text, err := d.classifier.Classify(ctx, query)
	if err != nil {
		recordSpanError(span, err)
		d.logger.Warn("diagnostic classifier failed", "error", err)
		return entities.FailureReason{Cause: entities.CauseUnknown, Text: "diagnosis inconclusive: " + err.Error()}
	}
	text = strings.TrimSpace(text)
	return entities.FailureReason{Cause: ParseCause(text), Text: text}
}

// ParseCause buckets free-form classifier text, ignoring case. Retrieval wins
// over the others since it is the only cause with a distinct repair.
func ParseCause(text string) entities.FailureCause {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "retrieval"):
		return entities.CauseRetrievalDrift
	case strings.Contains(lower, "stale"):
		return entities.CauseDataStaleness
	case strings.Contains(lower, "prompt"):
		return entities.CausePromptIssue
	default:
		return entities.CauseUnknown
	}
}

// ActionFor picks the single repair for a reason: reingestion for retrieval
// causes, prompt repair for everything else including unknown causes.
func ActionFor(reason entities.FailureReason) entities.HealingAction {
	if reason.Cause == entities.CauseRetrievalDrift {
		return entities.ActionReingest
	}
	return entities.ActionPromptRepair
}
