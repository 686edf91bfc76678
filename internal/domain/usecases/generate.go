package usecases

import (
	"context"
	"log/slog"
	"strings"
	"text/template"

	"github.com/Vishwatejkhot/Self-Healing-Enterprise-AI-System/internal/domain/ports"
)

// AnswerGenerator produces an answer from query and retrieved context using
// whichever prompt template the PromptSource currently holds.
type AnswerGenerator struct {
	llm     ports.LLMService
	prompts ports.PromptSource
	logger  *slog.Logger
}

// NewAnswerGenerator creates an AnswerGenerator with injected dependencies.
func NewAnswerGenerator(llm ports.LLMService, prompts ports.PromptSource, logger *slog.Logger) *AnswerGenerator {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnswerGenerator{llm: llm, prompts: prompts, logger: logger}
}

// Generate returns the model's answer. Backend failures are logged and
// reported as an empty answer, which the quality gate treats as a non-answer.
func (g *AnswerGenerator) Generate(ctx context.Context, query, retrieved string) string {
	ctx, span := tracer.Start(ctx, "AnswerGenerator.Generate")
	defer span.End()

	prompt, err := renderPrompt(g.prompts.Template(), query, retrieved)
	if err != nil {
		recordSpanError(span, err)
		g.logger.Error("rendering prompt template", "error", err)
		return ""
	}

	answer, err := g.llm.Generate(ctx, prompt)
	if err != nil {
		recordSpanError(span, err)
		g.logger.Warn("answer generation failed", "error", err)
		return ""
	}
	return answer
}

// renderPrompt fills a template with .Context and .Question.
func renderPrompt(tmpl, query, retrieved string) (string, error) {
	t, err := template.New("prompt").Parse(tmpl)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	err = t.Execute(&sb, struct {
		Context  string
		Question string
	}{Context: retrieved, Question: query})
	if err != nil {
		return "", err
	}
	return sb.String(), nil
}
