package directions

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/map-directions/internal/mapview"
	"github.com/richxcame/map-directions/pkg/common"
	"github.com/richxcame/map-directions/pkg/validation"
)

// Computer runs one-shot route computations.
type Computer interface {
	Compute(ctx context.Context, in mapview.Inputs, selected int) (*Result, error)
}

// Handler handles HTTP requests for route computation
type Handler struct {
	service Computer
}

// NewHandler creates a new directions handler
func NewHandler(service Computer) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the directions routes. Middlewares run before the
// compute handler only.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, middlewares ...gin.HandlerFunc) {
	directions := rg.Group("/directions")
	{
		directions.POST("/routes", append(middlewares, h.ComputeRoutes)...)
	}
}

// ComputeRoutes handles one-shot route computation requests
func (h *Handler) ComputeRoutes(c *gin.Context) {
	var req ComputeRequest
	if !common.BindJSON(c, &req) {
		return
	}
	if err := Validate(req.RouteInput); err != nil {
		common.AppErrorResponse(c, common.NewBadRequestError(err.Error(), err).WithErrorCode(CodeInvalidRequest))
		return
	}
	if req.SelectedIndex < 0 {
		common.AppErrorResponse(c, common.NewValidationError("selected_index must be 0 or greater").WithErrorCode(CodeInvalidRequest))
		return
	}

	result, err := h.service.Compute(c.Request.Context(), req.Inputs(), req.SelectedIndex)
	if common.HandleServiceError(c, err, "failed to compute routes") {
		return
	}

	common.SuccessResponseWithMeta(c, ComputeResponse{
		Routes: result.Routes,
		Frame:  result.Frame,
	}, &common.Meta{RouteCount: len(result.Routes), Cached: result.Cached})
}

// Validate checks client supplied inputs.
func Validate(in RouteInput) error {
	return validation.ValidateStruct(in)
}
