package routes

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNoRoutes is returned when the service answers successfully with no routes.
	ErrNoRoutes = errors.New("no routes found")
	// ErrMissingAPIKey is returned when no API key is configured.
	ErrMissingAPIKey = errors.New("missing API key")
	// ErrMissingBaseURL is returned when no service endpoint is configured.
	ErrMissingBaseURL = errors.New("missing directions service base URL")
	// ErrMissingEndpoint is returned when origin or destination is absent.
	ErrMissingEndpoint = errors.New("origin and destination are required")
	// ErrTooManyWaypoints is returned when more than MaxWaypoints intermediates are given.
	ErrTooManyWaypoints = fmt.Errorf("at most %d waypoints are allowed", MaxWaypoints)
	// ErrNoGeometry is returned when a route carries no polyline at all.
	ErrNoGeometry = errors.New("route has no polyline")
)

// RequestError reports a transport, HTTP or parse failure of a route request.
type RequestError struct {
	// StatusCode is the HTTP status, zero when no response was received.
	StatusCode int
	// Status and Message come from the service's error body when present.
	Status  string
	Message string
	Err     error
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		msg := e.Message
		if msg == "" && e.Err != nil {
			msg = e.Err.Error()
		}
		if e.Status != "" {
			return fmt.Sprintf("routes request failed: HTTP %d %s: %s", e.StatusCode, e.Status, msg)
		}
		return fmt.Sprintf("routes request failed: HTTP %d: %s", e.StatusCode, msg)
	}
	if e.Err == nil {
		return "routes request failed"
	}
	return "routes request failed: " + e.Err.Error()
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// ClientFault reports whether the service rejected the request itself.
func (e *RequestError) ClientFault() bool {
	return e.StatusCode >= http.StatusBadRequest && e.StatusCode < http.StatusInternalServerError &&
		e.StatusCode != http.StatusTooManyRequests
}

// DecodeError reports a malformed polyline in one of the returned routes.
type DecodeError struct {
	RouteIndex int
	Err        error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode polyline of %s: %v", RouteKey(e.RouteIndex), e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Error kinds reported by Kind.
const (
	KindNoRoutes = "no_routes"
	KindDecode   = "decode"
	KindRequest  = "request"
	KindConfig   = "config"
	KindInvalid  = "invalid"
	KindUnknown  = "unknown"
)

// Kind classifies err for logs, events and metrics.
func Kind(err error) string {
	var reqErr *RequestError
	var decErr *DecodeError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoRoutes):
		return KindNoRoutes
	case errors.As(err, &decErr):
		return KindDecode
	case errors.As(err, &reqErr):
		return KindRequest
	case errors.Is(err, ErrMissingAPIKey), errors.Is(err, ErrMissingBaseURL):
		return KindConfig
	case errors.Is(err, ErrMissingEndpoint), errors.Is(err, ErrTooManyWaypoints):
		return KindInvalid
	default:
		return KindUnknown
	}
}
