package telemetry

import (
	"io"

	"go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/trace"
)

type options struct {
	output         io.Writer
	traceExporter  trace.SpanExporter
	metricExporter metric.Exporter
	logExporter    log.Exporter
	version        string
	instanceId     string
}

type Option func(*options)

// WithOutput sends the default stdout exporters to w instead of os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.output = w
	}
}

func WithTraceExporter(exporter trace.SpanExporter) Option {
	return func(o *options) {
		o.traceExporter = exporter
	}
}

func WithMetricExporter(exporter metric.Exporter) Option {
	return func(o *options) {
		o.metricExporter = exporter
	}
}

func WithLogExporter(exporter log.Exporter) Option {
	return func(o *options) {
		o.logExporter = exporter
	}
}

func WithVersion(version string) Option {
	return func(o *options) {
		o.version = version
	}
}

func WithInstanceId(instanceId string) Option {
	return func(o *options) {
		o.instanceId = instanceId
	}
}
