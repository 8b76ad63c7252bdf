package tracing

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateRequestID(t *testing.T) {
	a := GenerateRequestID()
	b := GenerateRequestID()

	assert.True(t, strings.HasPrefix(a, "req_"))
	assert.NotEqual(t, a, b)
}

func TestGenerateTraceID(t *testing.T) {
	id := GenerateTraceID()
	assert.Len(t, id, 32)
	assert.NotEqual(t, id, GenerateTraceID())
}

func TestContextRoundTrip(t *testing.T) {
	ctx := context.Background()
	start := time.Now()

	ctx = WithRequestID(ctx, "req_1")
	ctx = WithTraceID(ctx, "trace_1")
	ctx = WithSpanID(ctx, "span_1")
	ctx = WithStartTime(ctx, start)

	assert.Equal(t, "req_1", GetRequestID(ctx))
	assert.Equal(t, "trace_1", GetTraceID(ctx))
	assert.Equal(t, "span_1", GetSpanID(ctx))
	assert.Equal(t, start, GetStartTime(ctx))

	info := GetRequestInfo(ctx)
	assert.Equal(t, "req_1", info.RequestID)
	assert.Equal(t, "trace_1", info.TraceID)
}

func TestContextDefaults(t *testing.T) {
	ctx := context.Background()

	assert.Equal(t, "", GetRequestID(ctx))
	assert.Equal(t, "", GetTraceID(ctx))
	assert.True(t, GetStartTime(ctx).IsZero())
	assert.Equal(t, time.Duration(0), Duration(ctx))
}

func TestWithFullTracing(t *testing.T) {
	ctx := WithFullTracing(context.Background())

	assert.NotEmpty(t, GetRequestID(ctx))
	assert.NotEmpty(t, GetTraceID(ctx))
	assert.NotEmpty(t, GetSpanID(ctx))
	assert.False(t, GetStartTime(ctx).IsZero())
	assert.GreaterOrEqual(t, Duration(ctx), time.Duration(0))
}
