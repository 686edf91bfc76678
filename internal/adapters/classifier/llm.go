package classifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/Vishwatejkhot/Self-Healing-Enterprise-AI-System/internal/domain/ports"
)

const policyPrompt = `Check if the answer violates any enterprise policy:
- Security
- Privacy
- Access control

Answer:
%s

Respond: OK or VIOLATION
`

const diagnosticPrompt = `Query failed: %s
Choose root cause:
- Retrieval
- Prompt
- Data staleness
`

const groundednessPrompt = `You are evaluating an AI system.

Context:
%s

Answer:
%s

Question:
Is the answer fully supported by the context?

Respond ONLY with:
YES or NO
`

// LLMPolicyClassifier asks the model to label an answer OK or VIOLATION.
type LLMPolicyClassifier struct {
	llm ports.LLMService
}

// NewLLMPolicyClassifier creates a model-backed policy classifier.
func NewLLMPolicyClassifier(llm ports.LLMService) *LLMPolicyClassifier {
	return &LLMPolicyClassifier{llm: llm}
}

// Violates is true iff the model output contains "VIOLATION".
func (c *LLMPolicyClassifier) Violates(ctx context.Context, answer string) (bool, error) {
	out, err := c.llm.Generate(ctx, fmt.Sprintf(policyPrompt, answer))
	if err != nil {
		return false, fmt.Errorf("policy check: %w", err)
	}
	return strings.Contains(out, "VIOLATION"), nil
}

// LLMDiagnosticClassifier asks the model why a query failed.
type LLMDiagnosticClassifier struct {
	llm ports.LLMService
}

// NewLLMDiagnosticClassifier creates a model-backed diagnostic classifier.
func NewLLMDiagnosticClassifier(llm ports.LLMService) *LLMDiagnosticClassifier {
	return &LLMDiagnosticClassifier{llm: llm}
}

// Classify returns the model's trimmed answer verbatim.
func (c *LLMDiagnosticClassifier) Classify(ctx context.Context, query string) (string, error) {
	out, err := c.llm.Generate(ctx, fmt.Sprintf(diagnosticPrompt, query))
	if err != nil {
		return "", fmt.Errorf("diagnosis: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// LLMGroundednessJudge asks the model whether an answer is supported by its context.
type LLMGroundednessJudge struct {
	llm ports.LLMService
}

// NewLLMGroundednessJudge creates a model-backed judge.
func NewLLMGroundednessJudge(llm ports.LLMService) *LLMGroundednessJudge {
	return &LLMGroundednessJudge{llm: llm}
}

// Grounded is true only for a bare YES verdict.
func (j *LLMGroundednessJudge) Grounded(ctx context.Context, answer, retrieved string) (bool, error) {
	out, err := j.llm.Generate(ctx, fmt.Sprintf(groundednessPrompt, retrieved, answer))
	if err != nil {
		return false, fmt.Errorf("groundedness check: %w", err)
	}
	verdict := strings.ToUpper(strings.Trim(out, " \t\r\n."))
	return verdict == "YES", nil
}
