package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/map-directions/pkg/logger"
)

// Response is the envelope every JSON endpoint answers with.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// ErrorInfo describes a failed request.
type ErrorInfo struct {
	Code      int    `json:"code"`
	ErrorCode string `json:"error_code,omitempty"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// Meta describes a route result.
type Meta struct {
	RouteCount int    `json:"route_count"`
	Cached     bool   `json:"cached"`
	RequestID  string `json:"request_id,omitempty"`
}

// SuccessResponseWithMeta sends a 200 with data and meta. The request ID is
// filled in from the request context when meta leaves it empty.
func SuccessResponseWithMeta(c *gin.Context, data interface{}, meta *Meta) {
	if meta != nil && meta.RequestID == "" {
		meta.RequestID = requestID(c)
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: data, Meta: meta})
}

// ErrorResponse sends an error with only a status and message.
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	writeError(c, &ErrorInfo{Code: statusCode, Message: message})
}

// AppErrorResponse sends err with its status and machine-readable code.
func AppErrorResponse(c *gin.Context, err *AppError) {
	writeError(c, &ErrorInfo{Code: err.Code, ErrorCode: err.ErrorCode, Message: err.Message})
}

func writeError(c *gin.Context, info *ErrorInfo) {
	info.RequestID = requestID(c)
	c.JSON(info.Code, Response{Success: false, Error: info})
}

func requestID(c *gin.Context) string {
	if c.Request == nil {
		return ""
	}
	return logger.CorrelationIDFromContext(c.Request.Context())
}
