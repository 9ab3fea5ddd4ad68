package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/richxcame/map-directions/pkg/config"
	"github.com/richxcame/map-directions/pkg/logger"
)

// ErrSentryDisabled is returned by InitSentry when no DSN is configured.
var ErrSentryDisabled = stderrors.New("sentry DSN is not configured")

// sensitiveHeaders are stripped from HTTP breadcrumbs.
var sensitiveHeaders = []string{"Authorization", "Cookie", "X-API-Key", "X-Goog-Api-Key"}

// ClientOptions maps the service configuration onto Sentry client options.
// Without an explicit traces rate, production samples 10% and every other
// environment samples everything.
func ClientOptions(cfg *config.Config) sentry.ClientOptions {
	tracesRate := cfg.Sentry.TracesSampleRate
	if tracesRate <= 0 {
		tracesRate = 1.0
		if cfg.Server.Environment == "production" {
			tracesRate = 0.1
		}
	}

	return sentry.ClientOptions{
		Dsn:              cfg.Sentry.DSN,
		Environment:      cfg.Server.Environment,
		Release:          cfg.Server.ServiceName + "@" + cfg.Server.Version,
		ServerName:       cfg.Server.ServiceName,
		SampleRate:       cfg.Sentry.SampleRate,
		TracesSampleRate: tracesRate,
		EnableTracing:    true,
		AttachStacktrace: true,
		Debug:            cfg.Sentry.Debug,
		BeforeSend:       scrubEvent,
		BeforeBreadcrumb: scrubBreadcrumb,
	}
}

// InitSentry initializes the Sentry SDK with the given configuration
func InitSentry(cfg *config.Config) error {
	if cfg.Sentry.DSN == "" {
		return ErrSentryDisabled
	}
	if err := sentry.Init(ClientOptions(cfg)); err != nil {
		return fmt.Errorf("failed to initialize sentry: %w", err)
	}
	return nil
}

// scrubEvent drops low-severity events and redacts the API key from request
// URLs.
func scrubEvent(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	if event.Level == sentry.LevelInfo || event.Level == sentry.LevelDebug {
		return nil
	}
	if event.Request != nil {
		event.Request.QueryString = RedactQuery(event.Request.QueryString)
		event.Request.URL = RedactURL(event.Request.URL)
	}
	return event
}

func scrubBreadcrumb(breadcrumb *sentry.Breadcrumb, _ *sentry.BreadcrumbHint) *sentry.Breadcrumb {
	if breadcrumb.Category != "http" || breadcrumb.Data == nil {
		return breadcrumb
	}
	for _, header := range sensitiveHeaders {
		delete(breadcrumb.Data, header)
	}
	return breadcrumb
}

// Flush flushes the Sentry buffer
func Flush(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}

// CaptureErrorWithContext reports err on the hub bound to ctx, tagged with the
// correlation and session IDs found in ctx plus any extras.
func CaptureErrorWithContext(ctx context.Context, err error, extras map[string]interface{}) *sentry.EventID {
	if err == nil {
		return nil
	}

	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub().Clone()
	}

	var eventID *sentry.EventID
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetExtras(extras)
		if id := logger.CorrelationIDFromContext(ctx); id != "" {
			scope.SetTag("correlation_id", id)
		}
		if id := logger.SessionIDFromContext(ctx); id != "" {
			scope.SetTag("session_id", id)
		}
		eventID = hub.CaptureException(err)
	})
	return eventID
}

// AddBreadcrumbForRequest records a completed request. The path is recorded
// without its query so the API key never reaches a breadcrumb.
func AddBreadcrumbForRequest(method, path string, statusCode int, duration time.Duration) {
	sentry.AddBreadcrumb(&sentry.Breadcrumb{
		Type:      "http",
		Category:  "http.request",
		Level:     sentry.LevelInfo,
		Message:   method + " " + path,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"method":      method,
			"url":         path,
			"status_code": statusCode,
			"duration_ms": duration.Milliseconds(),
		},
	})
}

// ShouldReportError reports whether err is worth an event. Cancellations and
// client errors other than 429 are not.
func ShouldReportError(err error, statusCode int) bool {
	switch {
	case err == nil, stderrors.Is(err, context.Canceled):
		return false
	case statusCode == http.StatusTooManyRequests:
		return true
	case statusCode >= http.StatusBadRequest && statusCode < http.StatusInternalServerError:
		return false
	}
	return true
}
