package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/Vishwatejkhot/Self-Healing-Enterprise-AI-System/internal/domain/ports"
)

// DefaultMinAnswerLength is the trimmed length below which an answer is non-substantive.
const DefaultMinAnswerLength = 10

// DefaultUnknownMarkers are phrases that make an answer an explicit "unknown".
var DefaultUnknownMarkers = []string{"I don't know", "I don’t know"}

// QualityGate holds the policy check and the hallucination check.
// Both are side-effect free.
type QualityGate struct {
	policy         ports.PolicyClassifier
	minLength      int
	unknownMarkers []string
}

// NewQualityGate creates a gate. Zero values fall back to the defaults.
func NewQualityGate(policy ports.PolicyClassifier, minLength int, unknownMarkers []string) *QualityGate {
	if minLength <= 0 {
		minLength = DefaultMinAnswerLength
	}
	if len(unknownMarkers) == 0 {
		unknownMarkers = DefaultUnknownMarkers
	}
	markers := make([]string, len(unknownMarkers))
	for i, m := range unknownMarkers {
		markers[i] = strings.ToLower(m)
	}
	return &QualityGate{policy: policy, minLength: minLength, unknownMarkers: markers}
}

// PolicyViolation reports whether the answer must be withheld.
// A classifier error is returned alongside true: the gate fails closed.
func (g *QualityGate) PolicyViolation(ctx context.Context, answer string) (bool, error) {
	ctx, span := tracer.Start(ctx, "QualityGate.PolicyViolation")
	defer span.End()

	violates, err := g.policy.Violates(ctx, answer)
	if err != nil {
		recordSpanError(span, err)
		return true, fmt.Errorf("policy classifier: %w", err)
	}
	return violates, nil
}

// Hallucinated reports whether the answer is non-substantive: an explicit
// unknown, or shorter than the minimum length once trimmed.
func (g *QualityGate) Hallucinated(answer string) bool {
	trimmed := strings.TrimSpace(answer)
	if len([]rune(trimmed)) < g.minLength {
		return true
	}
	lower := strings.ToLower(trimmed)
	for _, m := range g.unknownMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// ShouldFail fails only on hallucination. confidence is accepted so callers
// pass the full quality signal, but it is informational and never fails an
// answer on its own.
func ShouldFail(hallucinated bool, confidence float64) bool {
	return hallucinated
}
