package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/Vishwatejkhot/Self-Healing-Enterprise-AI-System/internal/domain/entities"
	"github.com/Vishwatejkhot/Self-Healing-Enterprise-AI-System/internal/domain/ports"
)

// EvalRunner replays golden cases through retrieval and generation.
// It does not pass through the quality gate or trigger healing.
type EvalRunner struct {
	retriever *ConfidenceRetriever
	generator *AnswerGenerator
	judge     ports.GroundednessJudge
}

// NewEvalRunner creates a runner. judge may be nil when only Regression is used.
func NewEvalRunner(retriever *ConfidenceRetriever, generator *AnswerGenerator, judge ports.GroundednessJudge) *EvalRunner {
	return &EvalRunner{retriever: retriever, generator: generator, judge: judge}
}

// Regression returns the cases whose answers miss an expected keyword.
// An empty result means no quality degradation.
func (r *EvalRunner) Regression(ctx context.Context, cases []entities.RegressionCase) ([]entities.RegressionFailure, error) {
	var failures []entities.RegressionFailure
	for _, c := range cases {
		answer, _, err := r.answer(ctx, c.Query)
		if err != nil {
			return failures, err
		}
		if missing := missingPhrases(answer, c.ExpectedKeywords); len(missing) > 0 {
			failures = append(failures, entities.RegressionFailure{Query: c.Query, Answer: answer, Missing: missing})
		}
	}
	return failures, nil
}

// Groundedness judges every case. A case passes when the judge says the answer
// is supported by the context and every required phrase is present.
func (r *EvalRunner) Groundedness(ctx context.Context, cases []entities.GroundingCase) ([]entities.GroundingResult, error) {
	if r.judge == nil {
		return nil, fmt.Errorf("groundedness eval: no judge configured")
	}
	results := make([]entities.GroundingResult, 0, len(cases))
	for _, c := range cases {
		answer, retrieved, err := r.answer(ctx, c.Query)
		if err != nil {
			return results, err
		}
		grounded, err := r.judge.Grounded(ctx, answer, retrieved)
		if err != nil {
			return results, fmt.Errorf("judging %q: %w", c.Query, err)
		}
		results = append(results, entities.GroundingResult{
			Query:    c.Query,
			Answer:   answer,
			Grounded: grounded,
			Passed:   grounded && len(missingPhrases(answer, c.MustContain)) == 0,
		})
	}
	return results, nil
}

func (r *EvalRunner) answer(ctx context.Context, query string) (string, string, error) {
	retrieved, err := r.retriever.Retrieve(ctx, query)
	if err != nil {
		return "", "", fmt.Errorf("retrieving for %q: %w", query, err)
	}
	return r.generator.Generate(ctx, query, retrieved.Context), retrieved.Context, nil
}

func missingPhrases(answer string, phrases []string) []string {
	lower := strings.ToLower(answer)
	var missing []string
	for _, p := range phrases {
		if !strings.Contains(lower, strings.ToLower(p)) {
			missing = append(missing, p)
		}
	}
	return missing
}
