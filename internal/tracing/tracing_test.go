package tracing

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/mocktracer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/therealutkarshpriyadarshi/tasktracker/internal/config"
)

func TestInitTracerDisabled(t *testing.T) {
	tracer, closer, err := InitTracer(appconfig.TracingConfig{Enabled: false})
	require.NoError(t, err)
	assert.NotNil(t, tracer)
	assert.NoError(t, closer.Close())
}

func TestStartSpanUsesGlobalTracer(t *testing.T) {
	tracer := mocktracer.New()
	prev := opentracing.GlobalTracer()
	opentracing.SetGlobalTracer(tracer)
	defer opentracing.SetGlobalTracer(prev)

	span, ctx := StartSpan(context.Background(), "tasks.create")
	SetTag(span, "task.id", 12)
	LogError(span, errors.New("boom"))
	FinishSpan(span)

	assert.NotNil(t, opentracing.SpanFromContext(ctx))

	finished := tracer.FinishedSpans()
	require.Len(t, finished, 1)
	assert.Equal(t, "tasks.create", finished[0].OperationName)
	assert.Equal(t, 12, finished[0].Tag("task.id"))
	assert.Equal(t, true, finished[0].Tag("error"))
}

func TestStartServerSpanContinuesTrace(t *testing.T) {
	tracer := mocktracer.New()

	parent := tracer.StartSpan("client")
	req := httptest.NewRequest("GET", "/tasks/", nil)
	require.NoError(t, tracer.Inject(parent.Context(), opentracing.HTTPHeaders, opentracing.HTTPHeadersCarrier(req.Header)))

	span, ctx := StartServerSpan(tracer, req, "GET /tasks/")
	span.Finish()
	parent.Finish()

	assert.Equal(t, span, opentracing.SpanFromContext(ctx))

	server := span.(*mocktracer.MockSpan)
	assert.Equal(t, parent.(*mocktracer.MockSpan).SpanContext.TraceID, server.SpanContext.TraceID)
	assert.Equal(t, "GET", server.Tag("http.method"))
}

func TestNilSpanHelpers(t *testing.T) {
	FinishSpan(nil)
	LogError(nil, errors.New("ignored"))
	SetTag(nil, "k", "v")
}
