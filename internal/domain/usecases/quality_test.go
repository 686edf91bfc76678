package usecases

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Vishwatejkhot/Self-Healing-Enterprise-AI-System/internal/domain/entities"
)

// mockPolicy implements ports.PolicyClassifier for testing
type mockPolicy struct {
	violates bool
	err      error
	calls    atomic.Int32
}

func (m *mockPolicy) Violates(ctx context.Context, answer string) (bool, error) {
	m.calls.Add(1)
	return m.violates, m.err
}

// mockDiagnostic implements ports.DiagnosticClassifier for testing
type mockDiagnostic struct {
	text  string
	err   error
	calls atomic.Int32
}

func (m *mockDiagnostic) Classify(ctx context.Context, query string) (string, error) {
	m.calls.Add(1)
	return m.text, m.err
}

func TestShouldFail(t *testing.T) {
	assert.True(t, ShouldFail(true, 0.99))
	assert.True(t, ShouldFail(true, 0.0))
	assert.False(t, ShouldFail(false, 0.0))
	assert.False(t, ShouldFail(false, 1.0))
}

func TestQualityGate_Hallucinated(t *testing.T) {
	g := NewQualityGate(&mockPolicy{}, 0, nil)
	tests := []struct {
		answer string
		want   bool
	}{
		{"I don't know", true},
		{"Sorry, I don’t know the answer to that.", true},
		{"i DON'T KNOW, the context is silent.", true},
		{"", true},
		{"   short  ", true},
		{"123456789", true},
		{"1234567890", false},
		{"Employees receive 25 days of annual leave.", false},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, g.Hallucinated(tc.answer), "answer %q", tc.answer)
	}
}

func TestQualityGate_CustomMarkers(t *testing.T) {
	g := NewQualityGate(&mockPolicy{}, 3, []string{"Not in the documents"})
	assert.True(t, g.Hallucinated("That is not in the documents."))
	assert.False(t, g.Hallucinated("I don't know"), "defaults are replaced")
	assert.False(t, g.Hallucinated("Yes."))
}

func TestQualityGate_PolicyViolation(t *testing.T) {
	g := NewQualityGate(&mockPolicy{violates: true}, 0, nil)
	violates, err := g.PolicyViolation(context.Background(), "the root password is hunter2")
	assert.NoError(t, err)
	assert.True(t, violates)

	g = NewQualityGate(&mockPolicy{}, 0, nil)
	violates, err = g.PolicyViolation(context.Background(), "fine")
	assert.NoError(t, err)
	assert.False(t, violates)
}

func TestQualityGate_PolicyFailsClosed(t *testing.T) {
	g := NewQualityGate(&mockPolicy{err: errors.New("classifier timeout")}, 0, nil)
	violates, err := g.PolicyViolation(context.Background(), "anything")
	assert.True(t, violates)
	assert.ErrorContains(t, err, "classifier timeout")
}

func TestRootCauseDiagnoser_FastPath(t *testing.T) {
	classifier := &mockDiagnostic{text: "Prompt"}
	d := NewRootCauseDiagnoser(classifier, 0, nil)

	for _, q := range []string{"", "leave policy", "what is the VPN?"} {
		reason := d.Diagnose(context.Background(), q, 0.8)
		assert.Equal(t, entities.CauseRetrievalDrift, reason.Cause)
		assert.Equal(t, RetrievalDriftText, reason.Text)
	}
	assert.Zero(t, classifier.calls.Load(), "classifier never consulted above the threshold")
}

func TestRootCauseDiagnoser_Classifier(t *testing.T) {
	tests := []struct {
		text string
		want entities.FailureCause
	}{
		{"Retrieval", entities.CauseRetrievalDrift},
		{"the retrieval step missed", entities.CauseRetrievalDrift},
		{"  Prompt\n", entities.CausePromptIssue},
		{"Data staleness", entities.CauseDataStaleness},
		{"I cannot tell", entities.CauseUnknown},
	}
	for _, tc := range tests {
		classifier := &mockDiagnostic{text: tc.text}
		d := NewRootCauseDiagnoser(classifier, 0.7, nil)

		reason := d.Diagnose(context.Background(), "q", 0.7)
		assert.Equal(t, tc.want, reason.Cause, tc.text)
		assert.Equal(t, int32(1), classifier.calls.Load())
	}
}

func TestRootCauseDiagnoser_ClassifierError(t *testing.T) {
	d := NewRootCauseDiagnoser(&mockDiagnostic{err: errors.New("rate limited")}, 0.7, nil)
	reason := d.Diagnose(context.Background(), "q", 0.2)
	assert.Equal(t, entities.CauseUnknown, reason.Cause)
	assert.Contains(t, reason.Text, "rate limited")
	assert.Equal(t, entities.ActionPromptRepair, ActionFor(reason))
}

func TestActionFor(t *testing.T) {
	assert.Equal(t, entities.ActionReingest, ActionFor(entities.FailureReason{Cause: entities.CauseRetrievalDrift}))
	assert.Equal(t, entities.ActionPromptRepair, ActionFor(entities.FailureReason{Cause: entities.CausePromptIssue}))
	assert.Equal(t, entities.ActionPromptRepair, ActionFor(entities.FailureReason{Cause: entities.CauseDataStaleness}))
	assert.Equal(t, entities.ActionPromptRepair, ActionFor(entities.FailureReason{Cause: entities.CauseUnknown, Text: "Retrieval?"}))
}
