package middleware

import (
	"net/http"

	"github.com/gin-contrib/timeout"
	"github.com/gin-gonic/gin"
	"github.com/richxcame/map-directions/pkg/config"
	"github.com/richxcame/map-directions/pkg/logger"
	"go.uber.org/zap"
)

// RequestTimeout bounds handler execution using gin-contrib/timeout. The
// duration comes from the route override table, keyed by method and path.
func RequestTimeout(method, path string, cfg config.TimeoutConfig) gin.HandlerFunc {
	limit := cfg.TimeoutForRoute(method, path)

	return timeout.New(
		timeout.WithTimeout(limit),
		timeout.WithHandler(func(c *gin.Context) { c.Next() }),
		timeout.WithResponse(func(c *gin.Context) {
			c.Header("X-Timeout", "true")
			c.JSON(http.StatusGatewayTimeout, gin.H{
				"success": false,
				"error": gin.H{
					"code":    http.StatusGatewayTimeout,
					"message": "Request timeout",
				},
			})

			logger.WithContext(c.Request.Context()).Warn("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
				zap.Duration("timeout", limit),
			)
		}),
	)
}
