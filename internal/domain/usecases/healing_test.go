package usecases

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vishwatejkhot/Self-Healing-Enterprise-AI-System/internal/domain/entities"
)

// mockRepairer implements ports.PromptRepairer for testing
type mockRepairer struct {
	calls   atomic.Int32
	explode atomic.Bool
}

func (m *mockRepairer) Repair(ctx context.Context) bool {
	m.calls.Add(1)
	if m.explode.CompareAndSwap(true, false) {
		panic("tuner exploded")
	}
	return true
}

// mockReingester implements Reingester; it blocks while gate is open.
type mockReingester struct {
	calls  atomic.Int32
	forced atomic.Int32
	gate   chan struct{}
	err    error
}

func (m *mockReingester) Run(ctx context.Context, force bool) (entities.IngestReport, error) {
	m.calls.Add(1)
	if force {
		m.forced.Add(1)
	}
	if m.gate != nil {
		<-m.gate
	}
	return entities.IngestReport{Rebuilt: m.err == nil, Forced: force}, m.err
}

type healingFixture struct {
	classifier *mockDiagnostic
	reingest   *mockReingester
	repairer   *mockRepairer
	audit      *mockAudit
	metrics    *mockMetrics
	controller *HealingController
}

func newHealingFixture(cfg HealingConfig) *healingFixture {
	f := &healingFixture{
		classifier: &mockDiagnostic{text: "Prompt"},
		reingest:   &mockReingester{},
		repairer:   &mockRepairer{},
		audit:      &mockAudit{},
		metrics:    newMockMetrics(),
	}
	f.controller = NewHealingController(
		NewRootCauseDiagnoser(f.classifier, 0.7, nil),
		f.reingest, f.repairer, f.audit, f.metrics, cfg, nil,
	)
	return f
}

func TestHealingController_PromptRepair(t *testing.T) {
	f := newHealingFixture(HealingConfig{})

	reason, action, err := f.controller.Heal(context.Background(), HealingRequest{RequestID: "r1", Query: "vpn?", Confidence: 0.2})
	require.NoError(t, err)

	assert.Equal(t, entities.CausePromptIssue, reason.Cause)
	assert.Equal(t, entities.ActionPromptRepair, action)
	assert.Equal(t, int32(1), f.repairer.calls.Load())
	assert.Zero(t, f.reingest.calls.Load())
	assert.Equal(t, 1, f.metrics.get("heals_prompt_repair"))

	heals := f.audit.ofKind(entities.EventSelfHeal)
	require.Len(t, heals, 1)
	assert.Equal(t, "r1", heals[0].Payload["request_id"])
	assert.Equal(t, "Prompt", heals[0].Payload["reason"])
	assert.Equal(t, string(entities.ActionPromptRepair), heals[0].Payload["action"])
	assert.Equal(t, 0.2, heals[0].Payload["confidence"])
	assert.NotEmpty(t, heals[0].ID)
	assert.Equal(t, StateIdle, f.controller.State())
}

func TestHealingController_RetrievalDriftReingestsForced(t *testing.T) {
	f := newHealingFixture(HealingConfig{})

	reason, action, err := f.controller.Heal(context.Background(), HealingRequest{RequestID: "r2", Query: "q", Confidence: 0.9})
	require.NoError(t, err)

	assert.Equal(t, entities.CauseRetrievalDrift, reason.Cause)
	assert.Equal(t, entities.ActionReingest, action)
	assert.Equal(t, int32(1), f.reingest.forced.Load())
	assert.Zero(t, f.repairer.calls.Load())
	assert.Zero(t, f.classifier.calls.Load())
}

func TestHealingController_ClassifierRetrievalChoice(t *testing.T) {
	f := newHealingFixture(HealingConfig{})
	f.classifier.text = "Retrieval"

	_, action, err := f.controller.Heal(context.Background(), HealingRequest{RequestID: "r3", Query: "q", Confidence: 0.1})
	require.NoError(t, err)
	assert.Equal(t, entities.ActionReingest, action)
	assert.Equal(t, int32(1), f.reingest.calls.Load())
}

func TestHealingController_RepairFailureIsAudited(t *testing.T) {
	f := newHealingFixture(HealingConfig{Workers: 1})
	f.reingest.err = ErrNoDocumentsFound
	f.controller.Start(context.Background())

	require.True(t, f.controller.Submit(HealingRequest{RequestID: "r4", Query: "q", Confidence: 0.95}))
	f.controller.Close()

	require.Len(t, f.audit.ofKind(entities.EventSelfHeal), 1)
	errs := f.audit.ofKind(entities.EventHealError)
	require.Len(t, errs, 1)
	assert.Equal(t, "r4", errs[0].Payload["request_id"])
	assert.Contains(t, errs[0].Payload["error"], "no documents found")
	assert.Equal(t, 1, f.metrics.get("heal_errors"))
}

func TestHealingController_PanicIsRecovered(t *testing.T) {
	f := newHealingFixture(HealingConfig{Workers: 1})
	f.repairer.explode.Store(true)
	f.controller.Start(context.Background())

	require.True(t, f.controller.Submit(HealingRequest{RequestID: "boom", Query: "q", Confidence: 0.1}))
	require.True(t, f.controller.Submit(HealingRequest{RequestID: "after", Query: "q", Confidence: 0.1}))
	f.controller.Close()

	errs := f.audit.ofKind(entities.EventHealError)
	require.Len(t, errs, 1)
	assert.Equal(t, "boom", errs[0].Payload["request_id"])
	assert.Contains(t, errs[0].Payload["error"], "tuner exploded")
	assert.Equal(t, int32(2), f.repairer.calls.Load(), "worker survives the panic")
}

func TestHealingController_ThrottledRepairKeepsDiagnosis(t *testing.T) {
	f := newHealingFixture(HealingConfig{RatePerSecond: 0.001, Burst: 1})

	_, _, err := f.controller.Heal(context.Background(), HealingRequest{RequestID: "first", Query: "q", Confidence: 0.2})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	reason, _, err := f.controller.Heal(ctx, HealingRequest{RequestID: "second", Query: "q", Confidence: 0.2})
	require.Error(t, err)
	assert.Equal(t, entities.CausePromptIssue, reason.Cause)

	heals := f.audit.ofKind(entities.EventSelfHeal)
	require.Len(t, heals, 2)
	assert.Equal(t, "second", heals[1].Payload["request_id"])
	assert.Equal(t, "Prompt", heals[1].Payload["reason"])
	assert.Equal(t, int32(1), f.repairer.calls.Load(), "throttled request never repairs")
}

func TestHealingController_FullQueueDrops(t *testing.T) {
	f := newHealingFixture(HealingConfig{Workers: 1, QueueSize: 1})

	assert.True(t, f.controller.Submit(HealingRequest{RequestID: "a"}))
	assert.False(t, f.controller.Submit(HealingRequest{RequestID: "b"}))
	assert.Equal(t, 1, f.metrics.get("heal_dropped"))

	f.controller.Start(context.Background())
	f.controller.Close()
	assert.Len(t, f.audit.ofKind(entities.EventSelfHeal), 1)

	assert.False(t, f.controller.Submit(HealingRequest{RequestID: "c"}), "closed controller rejects")
	assert.Equal(t, 2, f.metrics.get("heal_dropped"))
}

func TestHealingController_ConcurrentReingestsCoalesce(t *testing.T) {
	f := newHealingFixture(HealingConfig{Workers: 4, QueueSize: 8})
	f.reingest.gate = make(chan struct{})
	f.controller.Start(context.Background())

	for _, id := range []string{"a", "b", "c", "d"} {
		require.True(t, f.controller.Submit(HealingRequest{RequestID: id, Query: "q", Confidence: 0.9}))
	}

	require.Eventually(t, func() bool {
		return len(f.audit.ofKind(entities.EventSelfHeal)) == 4
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, StateRepairing, f.controller.State())
	// Give the remaining workers time to join the in-flight rebuild.
	time.Sleep(50 * time.Millisecond)
	close(f.reingest.gate)
	f.controller.Close()

	assert.Equal(t, int32(1), f.reingest.calls.Load())
	assert.Equal(t, 4, f.metrics.get("heals_reingest"), "every request still gets its repair accounted")
	assert.Empty(t, f.audit.ofKind(entities.EventHealError))
	assert.Equal(t, StateIdle, f.controller.State())
}

func TestHealingController_AuditFailureDoesNotStopRepair(t *testing.T) {
	f := newHealingFixture(HealingConfig{})
	f.audit.err = errors.New("disk full")

	_, _, err := f.controller.Heal(context.Background(), HealingRequest{RequestID: "r", Query: "q", Confidence: 0.2})
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.repairer.calls.Load())
}

func TestHealingState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "diagnosing", StateDiagnosing.String())
	assert.Equal(t, "repairing", StateRepairing.String())
}
