package prompt

import (
	"context"
	"strings"
	"testing"
	"text/template"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vishwatejkhot/Self-Healing-Enterprise-AI-System/internal/domain/ports"
)

var (
	_ ports.PromptSource   = (*Tuner)(nil)
	_ ports.PromptRepairer = (*Tuner)(nil)
)

func TestTuner_RepairClimbsThenStops(t *testing.T) {
	tuner := NewTuner(nil, nil)
	ctx := context.Background()

	first := tuner.Template()
	assert.True(t, tuner.Repair(ctx))
	assert.NotEqual(t, first, tuner.Template())

	for tuner.Rung() < len(DefaultLadder)-1 {
		require.True(t, tuner.Repair(ctx))
	}
	top := tuner.Template()
	assert.False(t, tuner.Repair(ctx))
	assert.Equal(t, top, tuner.Template())
}

func TestDefaultLadder_TemplatesRender(t *testing.T) {
	for i, body := range DefaultLadder {
		tmpl, err := template.New("p").Parse(body)
		require.NoError(t, err, "rung %d", i)

		var sb strings.Builder
		require.NoError(t, tmpl.Execute(&sb, struct{ Context, Question string }{"CTX-TEXT", "Q-TEXT"}))
		assert.Contains(t, sb.String(), "CTX-TEXT", "rung %d", i)
		assert.Contains(t, sb.String(), "Q-TEXT", "rung %d", i)
		assert.Contains(t, sb.String(), "I don't know", "rung %d", i)
	}
}

func TestTuner_SingleRungNeverChanges(t *testing.T) {
	tuner := NewTuner([]string{"only {{.Question}}"}, nil)
	assert.False(t, tuner.Repair(context.Background()))
	assert.Equal(t, "only {{.Question}}", tuner.Template())
}
