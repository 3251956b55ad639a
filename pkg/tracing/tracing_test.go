package tracing

import (
	"context"
	"errors"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/serum-errors/go-serum"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestSetTracerNil(t *testing.T) {
	ctx := SetTracer(context.Background(), nil)
	qt.Assert(t, TracerFromCtx(ctx), qt.Not(qt.IsNil))
}

func TestSpanErrorCode(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	ctx := SetTracer(context.Background(), provider.Tracer("test"))

	func() (err error) {
		ctx, span := Start(ctx, "coded")
		defer EndWithError(ctx, span, &err)
		return serum.Errorf("ledgerview-error-remote-data-read", "cannot sync remote data: %w", errors.New("boom"))
	}()
	func() (err error) {
		ctx, span := Start(ctx, "plain")
		defer EndWithError(ctx, span, &err)
		return errors.New("boom")
	}()

	spans := recorder.Ended()
	qt.Assert(t, spans, qt.HasLen, 2)
	qt.Check(t, spans[0].Status().Code, qt.Equals, codes.Error)
	qt.Check(t, errorCode(spans[0].Attributes()), qt.Equals, "ledgerview-error-remote-data-read")
	qt.Check(t, errorCode(spans[1].Attributes()), qt.Equals, "ledgerview-error-unknown")
}

func errorCode(attrs []attribute.KeyValue) string {
	for _, kv := range attrs {
		if kv.Key == AttrKeyLedgerviewErrorCode {
			return kv.Value.AsString()
		}
	}
	return ""
}
