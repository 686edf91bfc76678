package usecases

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Vishwatejkhot/Self-Healing-Enterprise-AI-System/internal/domain/entities"
	"github.com/Vishwatejkhot/Self-Healing-Enterprise-AI-System/internal/domain/ports"
)

// HealingDispatcher accepts "healing needed" messages without blocking.
type HealingDispatcher interface {
	Submit(req HealingRequest) bool
}

// AskTimeouts bound the calls to external collaborators on the request path.
type AskTimeouts struct {
	Retrieval  time.Duration
	Generation time.Duration
}

// AskUseCase is the per-request pipeline:
// retrieve -> generate -> policy gate (blocking) -> quality gate -> dispatch healing.
type AskUseCase struct {
	retriever *ConfidenceRetriever
	generator *AnswerGenerator
	gate      *QualityGate
	healing   HealingDispatcher
	audit     ports.AuditSink
	metrics   ports.MetricsSink
	timeouts  AskTimeouts
	logger    *slog.Logger
}

// NewAskUseCase creates an AskUseCase with injected dependencies.
func NewAskUseCase(
	retriever *ConfidenceRetriever,
	generator *AnswerGenerator,
	gate *QualityGate,
	healing HealingDispatcher,
	audit ports.AuditSink,
	metrics ports.MetricsSink,
	timeouts AskTimeouts,
	logger *slog.Logger,
) *AskUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &AskUseCase{
		retriever: retriever,
		generator: generator,
		gate:      gate,
		healing:   healing,
		audit:     audit,
		metrics:   metrics,
		timeouts:  timeouts,
		logger:    logger,
	}
}

// Ask answers one query. The response is fully decided before healing is
// dispatched, and healing never runs for a blocked answer.
func (uc *AskUseCase) Ask(ctx context.Context, query string) (entities.AskResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return entities.AskResult{}, ErrEmptyQuery
	}

	requestID := uuid.NewString()
	ctx, span := tracer.Start(ctx, "AskUseCase.Ask")
	defer span.End()
	span.SetAttributes(attribute.String("request_id", requestID))

	uc.metrics.IncQueries()
	logger := uc.logger.With("request_id", requestID)

	// 1. Retrieve
	retrieved, err := uc.retrieve(ctx, query)
	if err != nil {
		recordSpanError(span, err)
		return entities.AskResult{}, err
	}
	uc.metrics.ObserveConfidence(retrieved.Confidence)

	// 2. Generate
	answer := uc.generate(ctx, query, retrieved.Context)

	// 3. Policy enforcement (blocking, terminal)
	violates, err := uc.gate.PolicyViolation(ctx, answer)
	if violates {
		payload := map[string]any{"request_id": requestID, "query": query, "confidence": retrieved.Confidence}
		if err != nil {
			payload["classifier_error"] = err.Error()
			logger.Error("policy check failed, blocking answer", "error", err)
		}
		uc.metrics.IncPolicyViolations()
		uc.appendAudit(ctx, entities.EventPolicyViolation, payload)
		span.SetAttributes(attribute.String("status", string(entities.StatusBlocked)))
		return entities.AskResult{RequestID: requestID, Status: entities.StatusBlocked, Confidence: retrieved.Confidence}, nil
	}

	result := entities.AskResult{
		RequestID:  requestID,
		Status:     entities.StatusAnswered,
		Answer:     answer,
		Confidence: retrieved.Confidence,
	}

	// 4. Quality gate; healing is fire-and-forget
	if ShouldFail(uc.gate.Hallucinated(answer), retrieved.Confidence) {
		uc.metrics.IncFailures()
		result.Degraded = true
		queued := uc.healing.Submit(HealingRequest{RequestID: requestID, Query: query, Confidence: retrieved.Confidence})
		logger.Info("answer failed quality gate", "confidence", retrieved.Confidence, "healing_queued", queued)
		if !queued {
			uc.appendAudit(ctx, entities.EventHealDropped, map[string]any{
				"request_id": requestID,
				"query":      query,
				"confidence": retrieved.Confidence,
			})
		}
		span.SetAttributes(attribute.Bool("degraded", true))
		return result, nil
	}

	uc.appendAudit(ctx, entities.EventSuccess, map[string]any{
		"request_id": requestID,
		"query":      query,
		"confidence": retrieved.Confidence,
	})
	return result, nil
}

func (uc *AskUseCase) retrieve(ctx context.Context, query string) (entities.RetrievedContext, error) {
	if uc.timeouts.Retrieval > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.timeouts.Retrieval)
		defer cancel()
	}
	return uc.retriever.Retrieve(ctx, query)
}

func (uc *AskUseCase) generate(ctx context.Context, query, retrieved string) string {
	if uc.timeouts.Generation > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.timeouts.Generation)
		defer cancel()
	}
	return uc.generator.Generate(ctx, query, retrieved)
}

func (uc *AskUseCase) appendAudit(ctx context.Context, kind string, payload map[string]any) {
	err := uc.audit.Append(ctx, entities.AuditEvent{
		ID:      uuid.NewString(),
		Time:    time.Now().UTC(),
		Event:   kind,
		Payload: payload,
	})
	if err != nil {
		uc.logger.Error("audit append failed", "event", kind, "error", err)
	}
}
