// Package prompt holds the generation prompt and its repair ladder.
// Clean Architecture: Adapter implementing ports.PromptSource and ports.PromptRepairer.
package prompt

import (
	"context"
	"log/slog"
	"sync"
)

// DefaultLadder goes from the baseline prompt to progressively stricter
// grounding instructions. Every rung keeps the "I don't know" escape hatch.
var DefaultLadder = []string{
	`Answer ONLY from context.
If unsure, say "I don't know".

Context:
{{.Context}}

Question:
{{.Question}}
`,
	`You are an enterprise assistant. Answer ONLY using facts stated in the context below.
Quote exact figures (numbers, durations, limits) as they appear in the context.
If the context does not contain the answer, say "I don't know".

Context:
{{.Context}}

Question:
{{.Question}}

Answer in one or two complete sentences.
`,
	`You are an enterprise assistant answering from internal policy, API and incident documents.
Rules:
1. Use ONLY the context below. Do not use prior knowledge.
2. Find the passage that answers the question and restate it in a complete sentence.
3. Include every number, duration and named requirement the passage gives.
4. If no passage answers the question, reply exactly "I don't know".

Context:
{{.Context}}

Question:
{{.Question}}

Answer:
`,
}

// Tuner is the active prompt plus the rung it sits on.
type Tuner struct {
	mu     sync.RWMutex
	ladder []string
	rung   int
	logger *slog.Logger
}

// NewTuner creates a tuner on the first rung of ladder (DefaultLadder when empty).
func NewTuner(ladder []string, logger *slog.Logger) *Tuner {
	if len(ladder) == 0 {
		ladder = DefaultLadder
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Tuner{ladder: ladder, logger: logger}
}

// Template returns the prompt currently in effect.
func (t *Tuner) Template() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.ladder[t.rung]
}

// Repair moves one rung up. It is a no-op on the last rung.
func (t *Tuner) Repair(_ context.Context) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.rung == len(t.ladder)-1 {
		return false
	}
	t.rung++
	t.logger.Info("prompt repaired", "rung", t.rung, "rungs", len(t.ladder))
	return true
}

// Rung reports the current position on the ladder, starting at 0.
func (t *Tuner) Rung() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.rung
}
