package store

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/aryan0dhankhar/coachsync/internal/observability/metrics"
)

// Instrument wraps c so every call records a Prometheus observation and a span.
func Instrument(c Client) Client {
	return &instrumented{next: c, tracer: otel.Tracer("coachsync/store")}
}

type instrumented struct {
	next   Client
	tracer trace.Tracer
}

func (i *instrumented) observe(ctx context.Context, op, relation string, fn func(context.Context) error) error {
	ctx, span := i.tracer.Start(ctx, "store."+op, trace.WithAttributes(
		attribute.String("db.relation", relation),
		attribute.String("db.system", string(i.next.Dialect())),
	))
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	result := "ok"
	if err != nil {
		result = KindOf(err).String()
		span.RecordError(err)
		span.SetStatus(codes.Error, Message(err))
	}
	metrics.ObserveStoreOp(relation, op, result, time.Since(start))
	return err
}

func (i *instrumented) Select(ctx context.Context, q Query) ([]Row, error) {
	var rows []Row
	err := i.observe(ctx, "select", q.Relation, func(ctx context.Context) error {
		var err error
		rows, err = i.next.Select(ctx, q)
		return err
	})
	return rows, err
}

func (i *instrumented) Insert(ctx context.Context, relation string, rows []Row) error {
	return i.observe(ctx, "insert", relation, func(ctx context.Context) error {
		return i.next.Insert(ctx, relation, rows)
	})
}

func (i *instrumented) Upsert(ctx context.Context, relation string, rows []Row) error {
	return i.observe(ctx, "upsert", relation, func(ctx context.Context) error {
		return i.next.Upsert(ctx, relation, rows)
	})
}

func (i *instrumented) Update(ctx context.Context, relation string, values Row, filters ...Filter) error {
	return i.observe(ctx, "update", relation, func(ctx context.Context) error {
		return i.next.Update(ctx, relation, values, filters...)
	})
}

func (i *instrumented) Delete(ctx context.Context, relation string, filters ...Filter) error {
	return i.observe(ctx, "delete", relation, func(ctx context.Context) error {
		return i.next.Delete(ctx, relation, filters...)
	})
}

func (i *instrumented) Exec(ctx context.Context, statements ...string) error {
	return i.observe(ctx, "exec", "", func(ctx context.Context) error {
		return i.next.Exec(ctx, statements...)
	})
}

func (i *instrumented) Dialect() Dialect { return i.next.Dialect() }
func (i *instrumented) Ping(ctx context.Context) error { return i.next.Ping(ctx) }
func (i *instrumented) Close() error { return i.next.Close() }
