package tracing_test

import (
	"context"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/okian/hackathon/pkg/tracing"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSetup(t *testing.T) {
	Convey("Given no endpoint", t, func() {
		shutdown, err := tracing.Setup(context.Background(), "test-service", "")

		Convey("Then setup is a no-op", func() {
			So(err, ShouldBeNil)
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			So(shutdown(ctx), ShouldBeNil)
		})
	})

	Convey("Given an unreachable endpoint", t, func() {
		// non-routable, nothing is exported
		shutdown, err := tracing.Setup(context.Background(), "test-service", "http://192.0.2.1:4318")

		Convey("Then the provider is installed and shuts down cleanly", func() {
			So(err, ShouldBeNil)
			So(shutdown(context.Background()), ShouldBeNil)
		})
	})
}

func TestIDs(t *testing.T) {
	Convey("Given a context without a span", t, func() {
		traceID, spanID := tracing.IDs(context.Background())

		Convey("Then no ids are reported", func() {
			So(traceID, ShouldBeEmpty)
			So(spanID, ShouldBeEmpty)
		})
	})

	Convey("Given a recorded span", t, func() {
		recorder := tracetest.NewSpanRecorder()
		tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
		ctx, span := tp.Tracer("test").Start(context.Background(), "op")
		defer span.End()

		Convey("Then its ids are reported", func() {
			traceID, spanID := tracing.IDs(ctx)
			So(traceID, ShouldEqual, span.SpanContext().TraceID().String())
			So(spanID, ShouldEqual, span.SpanContext().SpanID().String())
		})
	})
}
