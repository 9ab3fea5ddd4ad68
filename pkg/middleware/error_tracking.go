package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	apperrors "github.com/richxcame/map-directions/pkg/errors"
)

// SentryMiddleware attaches a Sentry hub to each request and reports panics.
func SentryMiddleware() gin.HandlerFunc {
	return sentrygin.New(sentrygin.Options{
		Repanic:         true,
		WaitForDelivery: false,
		Timeout:         2 * time.Second,
	})
}

// ErrorHandler reports errors attached to the gin context, and bare 5xx
// responses, to Sentry. Place it after SentryMiddleware.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		apperrors.AddBreadcrumbForRequest(c.Request.Method, c.Request.URL.Path, statusCode, duration)

		extras := map[string]interface{}{
			"status_code": statusCode,
			"path":        c.Request.URL.Path,
			"duration_ms": duration.Milliseconds(),
		}

		for _, ginErr := range c.Errors {
			if apperrors.ShouldReportError(ginErr.Err, statusCode) {
				apperrors.CaptureErrorWithContext(requestContext(c), ginErr.Err, extras)
			}
		}

		if statusCode >= 500 && len(c.Errors) == 0 {
			apperrors.CaptureErrorWithContext(requestContext(c), fmt.Errorf("HTTP %d on %s %s", statusCode, c.Request.Method, c.Request.URL.Path), extras)
		}
	}
}

// requestContext returns the request context carrying the Sentry hub that
// sentrygin attached to the gin context, when present.
func requestContext(c *gin.Context) context.Context {
	ctx := c.Request.Context()
	if hub := sentrygin.GetHubFromContext(c); hub != nil && sentry.GetHubFromContext(ctx) == nil {
		ctx = sentry.SetHubOnContext(ctx, hub)
	}
	return ctx
}
