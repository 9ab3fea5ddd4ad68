package directions

import (
	"context"
	"errors"
	"net/http"

	"github.com/richxcame/map-directions/internal/routes"
	"github.com/richxcame/map-directions/pkg/common"
	"github.com/richxcame/map-directions/pkg/resilience"
)

// Machine readable error codes.
const (
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeNoRoutes            = "NO_ROUTES"
	CodeRouteOutOfRange     = "ROUTE_OUT_OF_RANGE"
	CodeRoutingRejected     = "ROUTING_REJECTED"
	CodeRoutingFailed       = "ROUTING_FAILED"
	CodeInvalidGeometry     = "INVALID_GEOMETRY"
	CodeRoutingUnavailable  = "ROUTING_UNAVAILABLE"
	CodeRoutingUnconfigured = "ROUTING_NOT_CONFIGURED"
	CodeTimeout             = "TIMEOUT"
)

// AppError maps a route computation error onto an HTTP error.
func AppError(err error) *common.AppError {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var reqErr *routes.RequestError
	var decErr *routes.DecodeError
	switch {
	case errors.Is(err, routes.ErrMissingEndpoint), errors.Is(err, routes.ErrTooManyWaypoints):
		return common.NewBadRequestError(err.Error(), err).WithErrorCode(CodeInvalidRequest)
	case errors.Is(err, routes.ErrNoRoutes):
		return common.NewNotFoundError("no routes found", err).WithErrorCode(CodeNoRoutes)
	case errors.Is(err, routes.ErrMissingAPIKey), errors.Is(err, routes.ErrMissingBaseURL):
		return common.NewServiceUnavailableError("routing service is not configured", err).WithErrorCode(CodeRoutingUnconfigured)
	case errors.Is(err, resilience.ErrCircuitOpen):
		return common.NewServiceUnavailableError("routing service temporarily unavailable", err).WithErrorCode(CodeRoutingUnavailable)
	case errors.Is(err, context.DeadlineExceeded):
		return common.NewAppError(http.StatusGatewayTimeout, "route computation timed out", err).WithErrorCode(CodeTimeout)
	case errors.As(err, &decErr):
		return common.NewBadGatewayError("routing service returned invalid geometry", err).WithErrorCode(CodeInvalidGeometry)
	case errors.As(err, &reqErr):
		// Auth failures are a deployment problem, not the caller's.
		if reqErr.ClientFault() && reqErr.StatusCode != http.StatusUnauthorized && reqErr.StatusCode != http.StatusForbidden {
			return common.NewBadRequestError(reqErr.Error(), err).WithErrorCode(CodeRoutingRejected)
		}
		return common.NewBadGatewayError("routing service request failed", err).WithErrorCode(CodeRoutingFailed)
	default:
		return common.NewInternalError("failed to compute routes", err)
	}
}
