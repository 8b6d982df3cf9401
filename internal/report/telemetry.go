package report

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/tuannvm/jira-reporter/internal/report"

type telemetry struct {
	tracer    trace.Tracer
	generated metric.Int64Counter
	failed    metric.Int64Counter
	fallbacks metric.Int64Counter
}

func newTelemetry() *telemetry {
	meter := otel.Meter(instrumentationName)
	return &telemetry{
		tracer:    otel.Tracer(instrumentationName),
		generated: counter(meter, "reports.generated", "Reports returned successfully"),
		failed:    counter(meter, "reports.failed", "Reports that ended in an error result"),
		fallbacks: counter(meter, "reports.summary_fallbacks", "Summaries that fell back to the plain report"),
	}
}

func counter(meter metric.Meter, name, desc string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(desc))
	if err != nil {
		c, _ = noop.NewMeterProvider().Meter(instrumentationName).Int64Counter(name)
	}
	return c
}

func (t *telemetry) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (t *telemetry) count(ctx context.Context, c metric.Int64Counter, tool string) {
	c.Add(ctx, 1, metric.WithAttributes(attribute.String("tool", tool)))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
