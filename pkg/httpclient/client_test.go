package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/richxcame/map-directions/pkg/logger"
	"github.com/richxcame/map-directions/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestPostSendsJSONAndHeaders(t *testing.T) {
	var gotBody map[string]string
	var gotHeaders http.Header
	var gotQuery string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		gotQuery = r.URL.RawQuery
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	ctx := logger.ContextWithCorrelationID(context.Background(), "corr-1")

	body, err := client.Post(ctx, "/compute?key=abc", map[string]string{"hello": "world"}, map[string]string{"X-Goog-FieldMask": "routes.duration"})
	require.NoError(t, err)

	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.Equal(t, "world", gotBody["hello"])
	assert.Equal(t, "key=abc", gotQuery)
	assert.Equal(t, "application/json", gotHeaders.Get("Content-Type"))
	assert.Equal(t, "routes.duration", gotHeaders.Get("X-Goog-FieldMask"))
	assert.Equal(t, "corr-1", gotHeaders.Get(middleware.CorrelationIDHeader))
}

func TestPostReturnsHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"bad"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	_, err := client.Post(context.Background(), "", json.RawMessage(`{}`), nil)
	require.Error(t, err)

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
	assert.Contains(t, httpErr.Error(), "HTTP 400")
}

func TestPostIsSingleShot(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	_, err := client.Post(context.Background(), "", nil, nil)
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestPostPropagatesTraceContext(t *testing.T) {
	previous := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	defer otel.SetTextMapPropagator(previous)

	var traceparent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceparent = r.Header.Get("traceparent")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	tp := sdktrace.NewTracerProvider()
	ctx, span := tp.Tracer("test").Start(context.Background(), "compute")
	defer span.End()

	_, err := NewClient(server.URL, time.Second, WithHTTPClient(server.Client())).Post(ctx, "", nil, nil)
	require.NoError(t, err)
	assert.Contains(t, traceparent, span.SpanContext().TraceID().String())
}

func TestPostRejectsOversizedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 64)))
	}))
	defer server.Close()

	_, err := NewClient(server.URL, time.Second, WithMaxBodyBytes(16)).Post(context.Background(), "", nil, nil)
	assert.ErrorContains(t, err, "exceeds 16 bytes")
}
