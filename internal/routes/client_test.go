package routes

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richxcame/map-directions/pkg/config"
	"github.com/richxcame/map-directions/pkg/resilience"
)

const oneRoute = `{"routes":[{"duration":"600s","distanceMeters":15000,"polyline":{"encodedPolyline":"_p~iF~ps|U_ulLnnqC"}}]}`

type capturedRequest struct {
	method string
	query  string
	mask   string
	body   map[string]interface{}
}

func newRoutesServer(t *testing.T, status int, response string) (*httptest.Server, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.method = r.Method
		captured.query = r.URL.RawQuery
		captured.mask = r.Header.Get("X-Goog-FieldMask")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &captured.body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(server.Close)
	return server, captured
}

func TestComputeRoutesSuccess(t *testing.T) {
	server, captured := newRoutesServer(t, http.StatusOK, oneRoute)
	client := NewClient(ClientConfig{BaseURL: server.URL, APIKey: "secret"})

	resp, err := client.ComputeRoutes(context.Background(), baseRequest())
	require.NoError(t, err)
	require.Len(t, resp.Routes, 1)
	assert.Equal(t, "600s", resp.Routes[0].Duration)
	assert.Equal(t, "_p~iF~ps|U_ulLnnqC", resp.Routes[0].Polyline.EncodedPolyline)

	assert.Equal(t, http.MethodPost, captured.method)
	assert.Equal(t, "key=secret", captured.query)
	assert.Equal(t, DefaultFieldMask, captured.mask)
	assert.Equal(t, "DRIVE", captured.body["travelMode"])
}

func TestComputeRoutesOptimizeExtendsFieldMask(t *testing.T) {
	server, captured := newRoutesServer(t, http.StatusOK, oneRoute)
	client := NewClient(ClientConfig{BaseURL: server.URL, APIKey: "k", FieldMask: "routes.duration"})

	req := baseRequest()
	req.Options.OptimizeWaypointOrder = true
	_, err := client.ComputeRoutes(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "routes.duration,routes.optimized_intermediate_waypoint_index", captured.mask)
}

func TestComputeRoutesEmptyRoutes(t *testing.T) {
	for _, body := range []string{`{}`, `{"routes":[]}`} {
		server, _ := newRoutesServer(t, http.StatusOK, body)
		client := NewClient(ClientConfig{BaseURL: server.URL, APIKey: "k"})

		resp, err := client.ComputeRoutes(context.Background(), baseRequest())
		assert.Nil(t, resp)
		assert.ErrorIs(t, err, ErrNoRoutes)
		assert.Equal(t, "no routes found", err.Error())
	}
}

func TestComputeRoutesServiceError(t *testing.T) {
	server, _ := newRoutesServer(t, http.StatusBadRequest,
		`{"error":{"code":400,"message":"Invalid origin.","status":"INVALID_ARGUMENT"}}`)
	client := NewClient(ClientConfig{BaseURL: server.URL, APIKey: "k"})

	_, err := client.ComputeRoutes(context.Background(), baseRequest())

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, http.StatusBadRequest, reqErr.StatusCode)
	assert.Equal(t, "INVALID_ARGUMENT", reqErr.Status)
	assert.Equal(t, "Invalid origin.", reqErr.Message)
	assert.True(t, reqErr.ClientFault())
	assert.Contains(t, err.Error(), "Invalid origin.")
}

func TestComputeRoutesMalformedJSON(t *testing.T) {
	server, _ := newRoutesServer(t, http.StatusOK, `{"routes":[`)
	client := NewClient(ClientConfig{BaseURL: server.URL, APIKey: "k"})

	_, err := client.ComputeRoutes(context.Background(), baseRequest())
	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Zero(t, reqErr.StatusCode)
	assert.Contains(t, err.Error(), "invalid response body")
}

func TestComputeRoutesTransportErrorRedactsKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	baseURL := server.URL
	server.Close()

	client := NewClient(ClientConfig{BaseURL: baseURL, APIKey: "top-secret"})
	_, err := client.ComputeRoutes(context.Background(), baseRequest())

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, "request", Kind(err))
	assert.NotContains(t, err.Error(), "top-secret")
	assert.Contains(t, err.Error(), "REDACTED")
}

func TestComputeRoutesIsSingleShot(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, APIKey: "k"})
	_, err := client.ComputeRoutes(context.Background(), baseRequest())
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestComputeRoutesConfiguration(t *testing.T) {
	_, err := NewClient(ClientConfig{BaseURL: "http://example.test"}).ComputeRoutes(context.Background(), baseRequest())
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = NewClient(ClientConfig{APIKey: "k"}).ComputeRoutes(context.Background(), baseRequest())
	assert.ErrorIs(t, err, ErrMissingBaseURL)

	req := baseRequest()
	req.Origin = nil
	_, err = NewClient(ClientConfig{BaseURL: "http://example.test", APIKey: "k"}).ComputeRoutes(context.Background(), req)
	assert.ErrorIs(t, err, ErrMissingEndpoint)
}

func TestComputeRoutesCancelled(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	client := NewClient(ClientConfig{BaseURL: server.URL, APIKey: "k"})
	_, err := client.ComputeRoutes(ctx, baseRequest())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBreakerOpensOnServerErrorsOnly(t *testing.T) {
	var status int32 = http.StatusBadRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(atomic.LoadInt32(&status)))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	breaker := NewBreaker(config.CircuitBreakerSettings{FailureThreshold: 2, SuccessThreshold: 1, TimeoutSeconds: 30, IntervalSeconds: 60})
	client := NewClient(ClientConfig{BaseURL: server.URL, APIKey: "k"}, WithBreaker(breaker))

	for i := 0; i < 3; i++ {
		_, err := client.ComputeRoutes(context.Background(), baseRequest())
		require.Error(t, err)
	}
	assert.True(t, breaker.Allow(), "client errors must not trip the breaker")

	atomic.StoreInt32(&status, http.StatusInternalServerError)
	for i := 0; i < 2; i++ {
		_, _ = client.ComputeRoutes(context.Background(), baseRequest())
	}
	assert.False(t, breaker.Allow())

	_, err := client.ComputeRoutes(context.Background(), baseRequest())
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	var reqErr *RequestError
	assert.True(t, errors.As(err, &reqErr))
}
