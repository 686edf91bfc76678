package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/Vishwatejkhot/Self-Healing-Enterprise-AI-System/internal/domain/entities"
	"github.com/Vishwatejkhot/Self-Healing-Enterprise-AI-System/internal/domain/ports"
)

// HealingState is the observable phase of a healing worker.
type HealingState int32

const (
	StateIdle HealingState = iota
	StateDiagnosing
	StateRepairing
)

func (s HealingState) String() string {
	switch s {
	case StateDiagnosing:
		return "diagnosing"
	case StateRepairing:
		return "repairing"
	default:
		return "idle"
	}
}

// HealingRequest is the "healing needed" message a failed request publishes.
type HealingRequest struct {
	RequestID  string
	Query      string
	Confidence float64
}

// Reingester is the part of ReingestionPipeline healing depends on.
type Reingester interface {
	Run(ctx context.Context, force bool) (entities.IngestReport, error)
}

// HealingConfig tunes the worker pool and repair throttle.
type HealingConfig struct {
	Workers       int
	QueueSize     int
	RatePerSecond float64
	Burst         int
	RepairTimeout time.Duration
}

// HealingController consumes healing requests off a bounded queue and
// dispatches exactly one repair per request. Concurrent reingestion triggers
// coalesce into one in-flight rebuild.
type HealingController struct {
	diagnoser *RootCauseDiagnoser
	reingest  Reingester
	prompt    ports.PromptRepairer
	audit     ports.AuditSink
	metrics   ports.MetricsSink
	logger    *slog.Logger

	queue   chan HealingRequest
	workers int
	timeout time.Duration
	limiter *rate.Limiter
	flight  singleflight.Group

	busy   atomic.Int32
	state  atomic.Int32
	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewHealingController creates a controller. Call Start before Submit.
func NewHealingController(
	diagnoser *RootCauseDiagnoser,
	reingest Reingester,
	prompt ports.PromptRepairer,
	audit ports.AuditSink,
	metrics ports.MetricsSink,
	cfg HealingConfig,
	logger *slog.Logger,
) *HealingController {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.RepairTimeout <= 0 {
		cfg.RepairTimeout = 10 * time.Minute
	}
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HealingController{
		diagnoser: diagnoser,
		reingest:  reingest,
		prompt:    prompt,
		audit:     audit,
		metrics:   metrics,
		logger:    logger,
		queue:     make(chan HealingRequest, cfg.QueueSize),
		workers:   cfg.Workers,
		timeout:   cfg.RepairTimeout,
		limiter:   rate.NewLimiter(limit, cfg.Burst),
	}
}

// Start launches the workers. They exit when Close drains the queue.
// ctx bounds the repairs themselves; cancelling it does not drop queued requests.
func (h *HealingController) Start(ctx context.Context) {
	for i := 0; i < h.workers; i++ {
		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			for req := range h.queue {
				h.handle(ctx, req)
			}
		}()
	}
}

// Submit enqueues a request without blocking. It returns false when the
// queue is full or the controller is closed; the request is then dropped
// and the caller records it as heal_dropped.
func (h *HealingController) Submit(req HealingRequest) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		h.metrics.IncHealDropped()
		return false
	}
	select {
	case h.queue <- req:
		return true
	default:
		h.metrics.IncHealDropped()
		h.logger.Warn("healing queue full, dropping request", "request_id", req.RequestID)
		return false
	}
}

// Close stops intake and waits for queued and in-flight repairs to finish.
func (h *HealingController) Close() {
	h.mu.Lock()
	if !h.closed {
		h.closed = true
		close(h.queue)
	}
	h.mu.Unlock()
	h.wg.Wait()
}

// State returns the phase most recently entered by any worker, and Idle once
// no request is in progress.
func (h *HealingController) State() HealingState {
	return HealingState(h.state.Load())
}

// Heal runs one request synchronously: diagnose, audit the decision, then
// dispatch one action once the limiter grants a slot.
func (h *HealingController) Heal(ctx context.Context, req HealingRequest) (entities.FailureReason, entities.HealingAction, error) {
	ctx, span := tracer.Start(ctx, "HealingController.Heal")
	defer span.End()

	h.enter(StateDiagnosing)
	defer h.leave()

	reason := h.diagnoser.Diagnose(ctx, req.Query, req.Confidence)
	action := ActionFor(reason)
	span.SetAttributes(
		attribute.String("request_id", req.RequestID),
		attribute.String("cause", string(reason.Cause)),
		attribute.String("action", string(action)),
	)

	h.logger.Info("healing", "request_id", req.RequestID, "reason", reason.Text, "action", action)
	h.metrics.IncHeal(action)
	h.appendAudit(ctx, entities.EventSelfHeal, map[string]any{
		"request_id": req.RequestID,
		"query":      req.Query,
		"reason":     reason.Text,
		"cause":      string(reason.Cause),
		"action":     string(action),
		"confidence": req.Confidence,
	})

	h.state.Store(int32(StateRepairing))
	if err := h.limiter.Wait(ctx); err != nil {
		recordSpanError(span, err)
		return reason, action, fmt.Errorf("waiting for repair slot: %w", err)
	}

	var err error
	switch action {
	case entities.ActionReingest:
		err = h.reingestShared(ctx)
	default:
		if !h.prompt.Repair(ctx) {
			h.logger.Info("prompt repair was a no-op", "request_id", req.RequestID)
		}
	}
	if err != nil {
		recordSpanError(span, err)
	}
	return reason, action, err
}

// reingestShared joins an in-flight forced rebuild instead of starting another.
func (h *HealingController) reingestShared(ctx context.Context) error {
	_, err, shared := h.flight.Do("reingest", func() (any, error) {
		return h.reingest.Run(ctx, true)
	})
	if shared {
		h.logger.Debug("joined in-flight reingestion")
	}
	return err
}

func (h *HealingController) handle(ctx context.Context, req HealingRequest) {
	defer func() {
		if r := recover(); r != nil {
			h.fail(ctx, req, fmt.Errorf("healing panic: %v", r))
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	if _, _, err := h.Heal(ctx, req); err != nil {
		h.fail(ctx, req, err)
	}
}

func (h *HealingController) fail(ctx context.Context, req HealingRequest, err error) {
	h.metrics.IncHealError()
	h.logger.Error("healing failed", "request_id", req.RequestID, "error", err)
	h.appendAudit(context.WithoutCancel(ctx), entities.EventHealError, map[string]any{
		"request_id": req.RequestID,
		"error":      err.Error(),
	})
}

func (h *HealingController) appendAudit(ctx context.Context, kind string, payload map[string]any) {
	err := h.audit.Append(ctx, entities.AuditEvent{
		ID:      uuid.NewString(),
		Time:    time.Now().UTC(),
		Event:   kind,
		Payload: payload,
	})
	if err != nil {
		h.logger.Error("audit append failed", "event", kind, "error", err)
	}
}

func (h *HealingController) enter(s HealingState) {
	h.busy.Add(1)
	h.state.Store(int32(s))
}

func (h *HealingController) leave() {
	if h.busy.Add(-1) == 0 {
		h.state.Store(int32(StateIdle))
	}
}
