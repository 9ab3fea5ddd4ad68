package common

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/map-directions/pkg/logger"
	"go.uber.org/zap"
)

// HandleServiceError writes err as a JSON error response. It returns true when
// a response was sent.
//
// Usage:
//
//	result, err := h.service.Compute(ctx, req)
//	if common.HandleServiceError(c, err, "failed to compute routes") {
//	    return
//	}
func HandleServiceError(c *gin.Context, err error, fallbackMessage string) bool {
	if err == nil {
		return false
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.Code >= http.StatusInternalServerError {
			logger.ErrorContext(c.Request.Context(), appErr.Message, zap.Error(err))
		}
		_ = c.Error(err)
		AppErrorResponse(c, appErr)
		return true
	}

	logger.ErrorContext(c.Request.Context(), fallbackMessage,
		zap.Error(err),
	)
	_ = c.Error(err)

	ErrorResponse(c, http.StatusInternalServerError, fallbackMessage)
	return true
}

// BindJSON decodes the request body into dst. On failure a 400 response is sent
// and false is returned.
func BindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		AppErrorResponse(c, NewBadRequestError("invalid request body: "+err.Error(), err).WithErrorCode("INVALID_REQUEST"))
		return false
	}
	return true
}
