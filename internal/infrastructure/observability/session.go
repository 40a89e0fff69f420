package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"devaccountbook-backend/internal/infrastructure/graph"
	"devaccountbook-backend/pkg/errors"
)

// InstrumentedSession records a client span and metrics for every graph
// transaction. A nil collector disables metrics.
type InstrumentedSession struct {
	next      graph.Session
	collector *Collector
	tracer    trace.Tracer
	database  string
}

// NewInstrumentedSession wraps next.
func NewInstrumentedSession(next graph.Session, collector *Collector, database string) *InstrumentedSession {
	return &InstrumentedSession{
		next:      next,
		collector: collector,
		tracer:    otel.Tracer("devaccountbook-backend.graph"),
		database:  database,
	}
}

func (s *InstrumentedSession) ExecuteRead(ctx context.Context, query string, params map[string]any) ([]graph.Record, error) {
	return s.observe(ctx, "read", func(ctx context.Context) ([]graph.Record, error) {
		return s.next.ExecuteRead(ctx, query, params)
	})
}

func (s *InstrumentedSession) ExecuteWrite(ctx context.Context, query string, params map[string]any) ([]graph.Record, error) {
	return s.observe(ctx, "write", func(ctx context.Context) ([]graph.Record, error) {
		return s.next.ExecuteWrite(ctx, query, params)
	})
}

func (s *InstrumentedSession) observe(ctx context.Context, mode string, run func(context.Context) ([]graph.Record, error)) ([]graph.Record, error) {
	operation := graph.OperationFrom(ctx)
	ctx, span := s.tracer.Start(ctx, "neo4j "+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "neo4j"),
			attribute.String("db.name", s.database),
			attribute.String("db.operation", operation),
			attribute.String("db.access_mode", mode),
		),
	)
	defer span.End()

	start := time.Now()
	rows, err := run(ctx)
	duration := time.Since(start)

	status := "ok"
	if err != nil {
		status = statusOf(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, status)
	} else {
		span.SetAttributes(attribute.Int("db.rows", len(rows)))
	}
	if s.collector != nil {
		s.collector.RecordGraphOperation(operation, mode, status, duration)
	}
	return rows, err
}

func statusOf(err error) string {
	if appErr := errors.GetAppError(err); appErr != nil {
		return string(appErr.Type)
	}
	return "error"
}
