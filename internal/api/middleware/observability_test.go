package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func tracedMux(t *testing.T) (http.Handler, *tracetest.SpanRecorder) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/providers/{id}/rate-limit", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /api/quotes", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.WriteHeader(http.StatusOK)
	})
	return ObservabilityMiddleware(nil, MuxRouteResolver(mux))(mux), recorder
}

func spanAttr(span sdktrace.ReadOnlySpan, key attribute.Key) attribute.Value {
	for _, kv := range span.Attributes() {
		if kv.Key == key {
			return kv.Value
		}
	}
	return attribute.Value{}
}

func TestObservabilityMiddleware_UsesRoutePattern(t *testing.T) {
	handler, recorder := tracedMux(t)

	for _, id := range []string{"thrifty-haulers", "white-glove-movers"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/providers/"+id+"/rate-limit", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	for _, span := range spans {
		assert.Equal(t, "HTTP GET /api/providers/{id}/rate-limit", span.Name())
		assert.Equal(t, "GET /api/providers/{id}/rate-limit", spanAttr(span, "http.route").AsString())
	}
}

func TestObservabilityMiddleware_UnmatchedPathsShareOneLabel(t *testing.T) {
	handler, recorder := tracedMux(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/wp-admin/setup.php", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "HTTP unmatched", spans[0].Name())
	assert.Equal(t, int64(http.StatusNotFound), spanAttr(spans[0], "http.status_code").AsInt64())
}

func TestObservabilityMiddleware_RequestID(t *testing.T) {
	handler, recorder := tracedMux(t)

	req := httptest.NewRequest(http.MethodGet, "/api/providers/a/rate-limit", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "req-123", rec.Header().Get(RequestIDHeader))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/providers/a/rate-limit", nil))
	generated := rec.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "req-123", spanAttr(spans[0], "http.request_id").AsString())
	assert.Equal(t, generated, spanAttr(spans[1], "http.request_id").AsString())
}

func TestObservabilityMiddleware_ServerErrorMarksSpan(t *testing.T) {
	handler, recorder := tracedMux(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/quotes", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, int64(http.StatusInternalServerError), spanAttr(spans[0], "http.status_code").AsInt64())
}
