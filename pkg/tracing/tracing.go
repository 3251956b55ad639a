package tracing

import (
	"context"

	"github.com/serum-errors/go-serum"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type ctxKey struct{}

// TracerFromCtx returns the tracer set for the current context.
// If no tracer is currently set in ctx, a new no-op tracer will be returned.
func TracerFromCtx(ctx context.Context) trace.Tracer {
	tracer, ok := ctx.Value(ctxKey{}).(trace.Tracer)
	// SetTracer never stores a nil tracer, so ok is the only thing to check.
	if !ok {
		return trace.NewNoopTracerProvider().Tracer("")
	}
	return tracer
}

// SetTracer returns a new context with the given tracer associated with it.
// Setting the tracer to nil will create a noop tracer and insert it into the context.
func SetTracer(ctx context.Context, tracer trace.Tracer) context.Context {
	if tracer == nil {
		tracer = trace.NewNoopTracerProvider().Tracer("")
	}
	if existing, ok := ctx.Value(ctxKey{}).(trace.Tracer); ok {
		if existing == tracer {
			// Do not store same object twice.
			return ctx
		}
	}
	return context.WithValue(ctx, ctxKey{}, tracer)
}

// Start is a shortcut for retrieving the context tracer and calling Start.
// Start creates a span and a context.Context containing the newly-created span.
//
// If the current context does not contain a tracer then a new no-op tracer will be created for the new context.
// See go.opentelemetry.io/otel/trace.Tracer.Start for more information on the Start function.
func Start(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return TracerFromCtx(ctx).Start(ctx, spanName, opts...)
}

// SetSpanError records err on the span in ctx.
// The serum error code is attached as an attribute; errors without one are recorded as unknown.
func SetSpanError(ctx context.Context, err error) {
	if err == nil {
		return
	}
	code := "ledgerview-error-unknown"
	if serr, ok := err.(serum.ErrorInterface); ok {
		code = serr.Code()
	}
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.String(AttrKeyLedgerviewErrorCode, code),
	)
	span.SetStatus(codes.Error, err.Error())
}

// EndWithError is a helper for deferred span completion:
//
//	ctx, span := tracing.Start(ctx, "name")
//	defer tracing.EndWithError(ctx, span, &err)
func EndWithError(ctx context.Context, span trace.Span, err *error) {
	if err != nil && *err != nil {
		SetSpanError(ctx, *err)
	}
	span.End()
}
