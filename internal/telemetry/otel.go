package telemetry

import (
	"context"
	"errors"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Setup installs global tracer, meter and logger providers. The returned
// shutdown flushes everything that was recorded; a short-lived CLI must call
// it before exiting or the batches are lost.
func Setup(ctx context.Context, opts ...Option) (shutdown func(context.Context) error, err error) {
	options := &options{output: os.Stdout}
	for _, opt := range opts {
		opt(options)
	}
	if err := options.fillExporters(); err != nil {
		return nil, err
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName("runcurry"),
		semconv.ServiceVersion(options.version),
		semconv.ServiceInstanceID(options.instanceId),
	)

	var shutdownFuncs []func(context.Context) error

	// shutdown calls cleanup functions registered via shutdownFuncs.
	// The errors from the calls are joined.
	// Each registered cleanup will be invoked once.
	shutdown = func(ctx context.Context) error {
		var err error
		for _, fn := range shutdownFuncs {
			err = errors.Join(err, fn(ctx))
		}
		shutdownFuncs = nil
		return err
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	tracerProvider := trace.NewTracerProvider(
		trace.WithSyncer(options.traceExporter),
		trace.WithResource(res),
	)
	shutdownFuncs = append(shutdownFuncs, tracerProvider.Shutdown)
	otel.SetTracerProvider(tracerProvider)

	// Readers export on shutdown; a run is usually over before any interval.
	meterProvider := metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(options.metricExporter)),
		metric.WithResource(res),
	)
	shutdownFuncs = append(shutdownFuncs, meterProvider.Shutdown)
	otel.SetMeterProvider(meterProvider)

	loggerProvider := log.NewLoggerProvider(
		log.WithProcessor(log.NewSimpleProcessor(options.logExporter)),
		log.WithResource(res),
	)
	shutdownFuncs = append(shutdownFuncs, loggerProvider.Shutdown)
	global.SetLoggerProvider(loggerProvider)

	return shutdown, nil
}

func (o *options) fillExporters() error {
	var err error
	if o.traceExporter == nil {
		if o.traceExporter, err = stdouttrace.New(stdouttrace.WithWriter(o.output)); err != nil {
			return err
		}
	}
	if o.metricExporter == nil {
		if o.metricExporter, err = stdoutmetric.New(stdoutmetric.WithWriter(o.output)); err != nil {
			return err
		}
	}
	if o.logExporter == nil {
		if o.logExporter, err = stdoutlog.New(stdoutlog.WithWriter(o.output)); err != nil {
			return err
		}
	}
	return nil
}
