package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func installRecorder(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	prevTP, prevProp := otel.GetTracerProvider(), otel.GetTextMapPropagator()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})
	return exporter
}

func tracedRouter(method, pattern string, status int) *chi.Mux {
	r := chi.NewRouter()
	r.Use(Tracing("cart-service"))
	r.MethodFunc(method, pattern, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
	})
	return r
}

func spanAttr(span tracetest.SpanStub, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTracing_SpanPerRequest(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		pattern    string
		target     string
		status     int
		wantName   string
		wantStatus codes.Code
	}{
		{
			name:       "mutation named after route",
			method:     http.MethodPost,
			pattern:    "/api/v1/cart/products/{productId}",
			target:     "/api/v1/cart/products/7",
			status:     http.StatusOK,
			wantName:   "POST /api/v1/cart/products/{productId}",
			wantStatus: codes.Unset,
		},
		{
			name:       "client error is not a span error",
			method:     http.MethodPut,
			pattern:    "/api/v1/cart/products/{productId}",
			target:     "/api/v1/cart/products/abc",
			status:     http.StatusBadRequest,
			wantName:   "PUT /api/v1/cart/products/{productId}",
			wantStatus: codes.Unset,
		},
		{
			name:       "server error marks span",
			method:     http.MethodGet,
			pattern:    "/api/v1/products",
			target:     "/api/v1/products",
			status:     http.StatusBadGateway,
			wantName:   "GET /api/v1/products",
			wantStatus: codes.Error,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exporter := installRecorder(t)

			rec := httptest.NewRecorder()
			tracedRouter(tt.method, tt.pattern, tt.status).ServeHTTP(rec, httptest.NewRequest(tt.method, tt.target, nil))

			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			span := spans[0]

			assert.Equal(t, tt.wantName, span.Name)
			assert.Equal(t, trace.SpanKindServer, span.SpanKind)
			assert.Equal(t, tt.wantStatus, span.Status.Code)

			code, ok := spanAttr(span, "http.status_code")
			require.True(t, ok)
			assert.Equal(t, int64(tt.status), code.AsInt64())

			route, ok := spanAttr(span, "http.route")
			require.True(t, ok)
			assert.Equal(t, tt.pattern, route.AsString())
		})
	}
}

func TestTracing_ContinuesInboundTrace(t *testing.T) {
	exporter := installRecorder(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	rec := httptest.NewRecorder()
	tracedRouter(http.MethodGet, "/api/v1/cart", http.StatusOK).ServeHTTP(rec, req)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", spans[0].SpanContext.TraceID().String())
	assert.Equal(t, "00f067aa0ba902b7", spans[0].Parent.SpanID().String())
	assert.Contains(t, rec.Header().Get("traceparent"), "4bf92f3577b34da6a3ce929d0e0e4736")
}

func TestTracing_HandlerSeesSpanContext(t *testing.T) {
	installRecorder(t)

	var inner trace.SpanContext
	r := chi.NewRouter()
	r.Use(Tracing("cart-service"))
	r.Get("/api/v1/cart", func(w http.ResponseWriter, r *http.Request) {
		inner = trace.SpanContextFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))

	assert.True(t, inner.IsValid())
	assert.NotEmpty(t, rec.Header().Get("traceparent"))
}
