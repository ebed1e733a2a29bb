package audiomode

import (
	"context"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const scopeName = "github.com/opd-ai/callaudio/audiomode"

var (
	tracer = otel.Tracer(scopeName)
	meter  = otel.Meter(scopeName)

	eventCounter      = newCounter("audiomode.events", "Events processed by the audio mode machine")
	transitionCounter = newCounter("audiomode.transitions", "State changes of the audio mode machine")
)

func newCounter(name, description string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "newCounter",
			"counter":  name,
			"error":    err.Error(),
		}).Warn("Failed to create counter, using no-op")
		c, _ = noop.Meter{}.Int64Counter(name)
	}
	return c
}

// startProcessSpan opens the span covering one event, parented on the
// producer's session when it carries a valid span context.
func startProcessSpan(kind EventKind, args *EventArgs) (context.Context, trace.Span) {
	parent := context.Background()
	if args != nil && args.Session.SpanContext.IsValid() {
		parent = trace.ContextWithRemoteSpanContext(parent, args.Session.SpanContext)
	}
	return tracer.Start(parent, "audiomode.process",
		trace.WithAttributes(attribute.String("audiomode.event", kind.String())))
}

func recordOutcome(ctx context.Context, span trace.Span, kind EventKind, from Snapshot, out Outcome) {
	span.SetAttributes(
		attribute.String("audiomode.from", from.State.String()),
		attribute.String("audiomode.to", out.Next.State.String()),
		attribute.Bool("audiomode.handled", out.Handled),
	)
	eventCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event", kind.String()),
		attribute.Bool("handled", out.Handled),
	))
	if out.Changed(from) {
		transitionCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("from", from.State.String()),
			attribute.String("to", out.Next.State.String()),
		))
	}
}
