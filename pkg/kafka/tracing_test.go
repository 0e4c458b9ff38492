package kafka

import (
	"context"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestHeaderCarrier_GetSetKeys(t *testing.T) {
	headers := []kafka.Header{{Key: "event_type", Value: []byte("user.registered")}}
	c := NewHeaderCarrier(&headers)

	assert.Equal(t, "user.registered", c.Get("event_type"))
	assert.Empty(t, c.Get("missing"))

	c.Set("source", "homestead-api")
	c.Set("event_type", "user.logged_in")

	assert.Equal(t, "user.logged_in", c.Get("event_type"))
	assert.ElementsMatch(t, []string{"event_type", "source"}, c.Keys())
	assert.Len(t, headers, 2, "Set must write through to the wrapped slice")
}

func TestHeaderCarrier_PropagationRoundTrip(t *testing.T) {
	prop := propagation.TraceContext{}

	traceID, _ := trace.TraceIDFromHex("abcdef1234567890abcdef1234567890")
	spanID, _ := trace.SpanIDFromHex("1234567890abcdef")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled,
	}))

	var headers []kafka.Header
	prop.Inject(ctx, NewHeaderCarrier(&headers))

	extracted := trace.SpanContextFromContext(prop.Extract(context.Background(), NewHeaderCarrier(&headers)))
	assert.Equal(t, traceID, extracted.TraceID())
	assert.Equal(t, spanID, extracted.SpanID())
}
