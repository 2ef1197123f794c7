package database

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const dbTracerName = "github.com/justQrius/ai-opportunity-browser/database"

// TracedPool wraps a DatabasePool and opens a client span around every statement
type TracedPool struct {
	pool   DatabasePool
	tracer trace.Tracer
}

// NewTracedPool wraps pool with spans from the global tracer provider
func NewTracedPool(pool DatabasePool) *TracedPool {
	return &TracedPool{pool: pool, tracer: otel.Tracer(dbTracerName)}
}

// NewTracedPoolWith wraps pool with spans from an explicit tracer provider
func NewTracedPoolWith(pool DatabasePool, tp trace.TracerProvider) *TracedPool {
	return &TracedPool{pool: pool, tracer: tp.Tracer(dbTracerName)}
}

func (p *TracedPool) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	ctx, span := p.start(ctx, sql)
	defer span.End()

	rows, err := p.pool.Query(ctx, sql, args...)
	recordSpanError(span, err)
	return rows, err
}

// QueryRow traces only the dispatch; scan errors surface to the caller after the span ends
func (p *TracedPool) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	ctx, span := p.start(ctx, sql)
	defer span.End()

	return p.pool.QueryRow(ctx, sql, args...)
}

func (p *TracedPool) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	ctx, span := p.start(ctx, sql)
	defer span.End()

	tag, err := p.pool.Exec(ctx, sql, args...)
	if err == nil {
		span.SetAttributes(attribute.Int64("db.rows_affected", tag.RowsAffected()))
	}
	recordSpanError(span, err)
	return tag, err
}

func (p *TracedPool) start(ctx context.Context, sql string) (context.Context, trace.Span) {
	operation := statementOperation(sql)
	return p.tracer.Start(ctx, "db."+strings.ToLower(operation),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", operation),
			attribute.String("db.statement", compactStatement(sql)),
		),
	)
}

func recordSpanError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// statementOperation returns the leading SQL keyword in upper case
func statementOperation(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "UNKNOWN"
	}
	return strings.ToUpper(fields[0])
}

func compactStatement(sql string) string {
	return strings.Join(strings.Fields(sql), " ")
}
