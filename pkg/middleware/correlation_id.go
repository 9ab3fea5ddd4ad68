package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/richxcame/map-directions/pkg/logger"
)

const (
	// CorrelationIDHeader carries the request ID in both directions.
	CorrelationIDHeader = "X-Request-ID"
	// CorrelationIDKey is the gin context key holding the request ID.
	CorrelationIDKey = "correlation_id"
)

// CorrelationID tags each request with an ID. A caller-supplied UUID is kept;
// anything else is replaced so log lines stay joinable. The ID is echoed in
// the response and stored in the request context for the logger.
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := incomingID(c.GetHeader(CorrelationIDHeader))

		c.Set(CorrelationIDKey, id)
		c.Header(CorrelationIDHeader, id)
		c.Request = c.Request.WithContext(logger.ContextWithCorrelationID(c.Request.Context(), id))

		c.Next()
	}
}

func incomingID(header string) string {
	header = strings.TrimSpace(header)
	if parsed, err := uuid.Parse(header); err == nil {
		return parsed.String()
	}
	return uuid.NewString()
}

// GetCorrelationID returns the request ID, falling back to the one stored in
// the request context.
func GetCorrelationID(c *gin.Context) string {
	if id := c.GetString(CorrelationIDKey); id != "" {
		return id
	}
	return logger.CorrelationIDFromContext(c.Request.Context())
}
