package classifier

import (
	"context"

	"github.com/Vishwatejkhot/Self-Healing-Enterprise-AI-System/internal/domain/ports"
)

// CompositePolicyClassifier runs members in order and stops at the first
// violation or error. Cheap members should come first.
type CompositePolicyClassifier struct {
	members []ports.PolicyClassifier
}

// NewCompositePolicyClassifier combines classifiers. Nil members are skipped.
func NewCompositePolicyClassifier(members ...ports.PolicyClassifier) *CompositePolicyClassifier {
	kept := make([]ports.PolicyClassifier, 0, len(members))
	for _, m := range members {
		if m != nil {
			kept = append(kept, m)
		}
	}
	return &CompositePolicyClassifier{members: kept}
}

// Violates returns the first member's error unchanged so the caller can fail closed.
func (c *CompositePolicyClassifier) Violates(ctx context.Context, answer string) (bool, error) {
	for _, m := range c.members {
		violates, err := m.Violates(ctx, answer)
		if err != nil {
			return false, err
		}
		if violates {
			return true, nil
		}
	}
	return false, nil
}
