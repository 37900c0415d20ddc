package core

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "runcurry/internal/core"

var tracer = otel.Tracer(instrumentationName)

type instruments struct {
	decisions   metric.Int64Counter
	invocations metric.Int64Counter
}

// meters resolves instruments lazily so they bind to whatever meter provider
// the CLI installed before the first dispatch.
var meters = sync.OnceValue(func() instruments {
	meter := otel.Meter(instrumentationName)
	decisions, _ := meter.Int64Counter("runcurry.cache.decisions",
		metric.WithDescription("Artifact cache decisions by outcome."))
	invocations, _ := meter.Int64Counter("runcurry.toolchain.invocations",
		metric.WithDescription("External toolchain processes started, by operation."))
	return instruments{decisions: decisions, invocations: invocations}
})

func recordDecision(ctx context.Context, d CacheDecision) {
	if c := meters().decisions; c != nil {
		c.Add(ctx, 1, metric.WithAttributes(attribute.String("decision", d.String())))
	}
}

func recordInvocation(ctx context.Context, op string) {
	if c := meters().invocations; c != nil {
		c.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
	}
}

// emitDispatchEvent writes one log record per finished dispatch to the otel
// log pipeline.
func emitDispatchEvent(ctx context.Context, kind SourceKind, code int, err error) {
	var rec otellog.Record
	rec.SetTimestamp(time.Now())
	rec.SetSeverity(otellog.SeverityInfo)
	rec.SetBody(otellog.StringValue("dispatch finished"))
	rec.AddAttributes(
		otellog.String("mode", kind.String()),
		otellog.Int("exit_code", code),
	)
	if err != nil {
		rec.SetSeverity(otellog.SeverityError)
		rec.AddAttributes(otellog.String("error", err.Error()))
	}
	global.Logger(instrumentationName).Emit(ctx, rec)
}
