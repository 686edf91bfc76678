package usecases

import (
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	// ErrNoDocumentsFound aborts an ingestion run without touching the index.
	ErrNoDocumentsFound = errors.New("no documents found for ingestion")

	// ErrIndexUnavailable means no snapshot has been built or loaded yet.
	ErrIndexUnavailable = errors.New("vector index unavailable: run ingestion first")

	// ErrEmptyQuery is an input error; no healing, no failure audit.
	ErrEmptyQuery = errors.New("missing query")
)

var tracer = otel.Tracer("aegis/usecases")

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
