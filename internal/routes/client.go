package routes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/richxcame/map-directions/pkg/config"
	apperrors "github.com/richxcame/map-directions/pkg/errors"
	"github.com/richxcame/map-directions/pkg/httpclient"
	"github.com/richxcame/map-directions/pkg/logger"
	"github.com/richxcame/map-directions/pkg/resilience"
	"github.com/richxcame/map-directions/pkg/tracing"
	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is the Google Routes API computeRoutes endpoint.
	DefaultBaseURL = "https://routes.googleapis.com/directions/v2:computeRoutes"

	fieldMaskHeader = "X-Goog-FieldMask"
	tracerName      = "directions-routes"
	serviceName     = "google-routes"
	breakerName     = "routes-api"
)

// Fetcher computes routes for a request.
type Fetcher interface {
	// Configured returns ErrMissingAPIKey or ErrMissingBaseURL when the
	// fetcher cannot issue requests.
	Configured() error
	ComputeRoutes(ctx context.Context, req *Request) (*Response, error)
}

// ClientConfig configures a Client.
type ClientConfig struct {
	BaseURL   string
	APIKey    string
	FieldMask string
	Timeout   time.Duration
}

// Client calls the routing service. Each call is a single attempt.
type Client struct {
	http      *httpclient.Client
	apiKey    string
	fieldMask string
	breaker   *resilience.CircuitBreaker
	httpOpts  []httpclient.Option
}

var _ Fetcher = (*Client)(nil)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBreaker routes every call through b.
func WithBreaker(b *resilience.CircuitBreaker) ClientOption {
	return func(c *Client) {
		c.breaker = b
	}
}

// WithHTTPOptions passes options to the underlying HTTP client.
func WithHTTPOptions(opts ...httpclient.Option) ClientOption {
	return func(c *Client) {
		c.httpOpts = append(c.httpOpts, opts...)
	}
}

// NewClient creates a routing service client.
func NewClient(cfg ClientConfig, opts ...ClientOption) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultHTTPClientTimeoutDuration()
	}

	c := &Client{
		apiKey:    cfg.APIKey,
		fieldMask: cfg.FieldMask,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http = httpclient.NewClient(cfg.BaseURL, timeout, c.httpOpts...)
	return c
}

// NewClientFromConfig builds a client, and its breaker when enabled, from the
// service configuration.
func NewClientFromConfig(cfg *config.Config) *Client {
	var opts []ClientOption
	if cfg.Resilience.CircuitBreaker.Enabled {
		opts = append(opts, WithBreaker(NewBreaker(cfg.Resilience.CircuitBreaker.SettingsFor(breakerName))))
	}

	return NewClient(ClientConfig{
		BaseURL:   cfg.Directions.BaseURL,
		APIKey:    cfg.Directions.APIKey,
		FieldMask: cfg.Directions.FieldMask,
		Timeout:   cfg.Timeout.HTTPClientTimeoutDuration(),
	}, opts...)
}

// NewBreaker creates the circuit breaker guarding the routing service.
// Cancellations, empty results and rejected requests do not count as failures.
func NewBreaker(s config.CircuitBreakerSettings) *resilience.CircuitBreaker {
	return resilience.NewCircuitBreaker(resilience.Settings{
		Name:             breakerName,
		Interval:         time.Duration(s.IntervalSeconds) * time.Second,
		Timeout:          time.Duration(s.TimeoutSeconds) * time.Second,
		FailureThreshold: uint32(s.FailureThreshold),
		SuccessThreshold: uint32(s.SuccessThreshold),
		IsSuccessful:     countsAsSuccess,
	})
}

func countsAsSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, ErrNoRoutes) {
		return true
	}
	var reqErr *RequestError
	return errors.As(err, &reqErr) && reqErr.ClientFault()
}

// Configured implements Fetcher.
func (c *Client) Configured() error {
	if c.apiKey == "" {
		return ErrMissingAPIKey
	}
	if c.http.BaseURL() == "" {
		return ErrMissingBaseURL
	}
	return nil
}

// Breaker returns the client's circuit breaker, or nil.
func (c *Client) Breaker() *resilience.CircuitBreaker {
	return c.breaker
}

// ComputeRoutes sends req to the routing service.
func (c *Client) ComputeRoutes(ctx context.Context, req *Request) (*Response, error) {
	if err := c.Configured(); err != nil {
		return nil, err
	}

	body, err := BuildBody(req)
	if err != nil {
		return nil, err
	}
	mask := FieldMask(c.fieldMask, body.OptimizeWaypointOrder)

	attrs := tracing.RouteRequestAttributes(string(body.TravelMode), len(body.Intermediates),
		body.OptimizeWaypointOrder, req.Origin.Latitude, req.Origin.Longitude)

	started := time.Now()
	var resp *Response
	err = tracing.TraceExternalAPI(ctx, tracerName, serviceName, "computeRoutes", attrs, func(ctx context.Context) error {
		result, err := c.breaker.Execute(ctx, func(ctx context.Context) (interface{}, error) {
			return c.post(ctx, body, mask)
		})
		if err != nil {
			return err
		}
		resp = result.(*Response)
		tracing.AddSpanAttributes(ctx, tracing.RouteCountKey.Int(len(resp.Routes)))
		return nil
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		err = &RequestError{Err: err}
	}
	observeUpstream(err, started)

	if err != nil {
		logger.WarnContext(ctx, "route computation failed",
			zap.String("kind", Kind(err)),
			zap.Duration("duration", time.Since(started)),
			zap.Error(err),
		)
		return nil, err
	}

	logger.DebugContext(ctx, "routes computed",
		zap.Int("routes", len(resp.Routes)),
		zap.Duration("duration", time.Since(started)),
	)
	return resp, nil
}

func (c *Client) post(ctx context.Context, body *Body, mask string) (*Response, error) {
	raw, err := c.http.Post(ctx, "?key="+url.QueryEscape(c.apiKey), body, map[string]string{
		fieldMaskHeader: mask,
	})
	if err != nil {
		return nil, requestError(err)
	}

	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &RequestError{Err: fmt.Errorf("invalid response body: %w", err)}
	}
	if len(resp.Routes) == 0 {
		return nil, ErrNoRoutes
	}
	return &resp, nil
}

type serviceError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func requestError(err error) *RequestError {
	var httpErr *httpclient.HTTPError
	if errors.As(err, &httpErr) {
		reqErr := &RequestError{StatusCode: httpErr.StatusCode, Err: err}
		var body serviceError
		if json.Unmarshal([]byte(httpErr.Body), &body) == nil {
			reqErr.Status = body.Error.Status
			reqErr.Message = body.Error.Message
		}
		return reqErr
	}

	// The request URL carries the API key.
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		urlErr.URL = apperrors.RedactURL(urlErr.URL)
	}
	return &RequestError{Err: err}
}
