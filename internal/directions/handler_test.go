package directions

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/richxcame/map-directions/internal/mapview"
	"github.com/richxcame/map-directions/internal/routes"
	"github.com/richxcame/map-directions/pkg/common"
)

type MockComputer struct {
	mock.Mock
}

func (m *MockComputer) Compute(ctx context.Context, in mapview.Inputs, selected int) (*Result, error) {
	args := m.Called(ctx, in, selected)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Result), args.Error(1)
}

func setupRouter(computer Computer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHandler(computer).RegisterRoutes(router.Group("/api/v1"))
	return router
}

func postJSON(t *testing.T, router *gin.Engine, body string) (*httptest.ResponseRecorder, common.Response) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/directions/routes", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp common.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w, resp
}

const validBody = `{
	"origin": {"latitude": 37, "longitude": -122},
	"destination": {"latitude": 37.1, "longitude": -122.1},
	"waypoints": [{"latitude": 37.05, "longitude": -122.05}],
	"region": "us",
	"selected_index": 1,
	"options": {"mode": "WALK", "units": "METRIC"}
}`

func TestComputeRoutesSuccess(t *testing.T) {
	computer := new(MockComputer)
	computer.On("Compute", mock.Anything, mock.MatchedBy(func(in mapview.Inputs) bool {
		return in.Origin.Latitude == 37 && in.Destination.Longitude == -122.1 &&
			len(in.Waypoints) == 1 && in.Region == "us" && in.Options.Mode == routes.TravelModeWalk
	}), 1).Return(&Result{
		Routes: []routes.DecodedRoute{{Key: "route-0"}, {Key: "route-1", Index: 1}},
		Frame:  mapview.Frame{Visible: true, SelectedIndex: 1},
		Cached: true,
	}, nil)

	w, resp := postJSON(t, setupRouter(computer), validBody)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 2, resp.Meta.RouteCount)
	assert.True(t, resp.Meta.Cached)

	data := resp.Data.(map[string]interface{})
	assert.Len(t, data["routes"], 2)
	assert.Equal(t, float64(1), data["frame"].(map[string]interface{})["selected_index"])
	computer.AssertExpectations(t)
}

func TestComputeRoutesRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "malformed json", body: `{"origin":`, want: "invalid request body"},
		{name: "unknown mode", body: `{"origin":{"latitude":1,"longitude":1},"destination":{"latitude":2,"longitude":2},"options":{"mode":"FLY"}}`, want: "options.mode"},
		{name: "missing longitude", body: `{"origin":{"latitude":1},"destination":{"latitude":2,"longitude":2}}`, want: "origin.longitude"},
		{name: "bad precision", body: `{"precision":"medium"}`, want: "precision"},
		{name: "negative selection", body: `{"selected_index":-1}`, want: "selected_index"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			computer := new(MockComputer)
			w, resp := postJSON(t, setupRouter(computer), tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Contains(t, resp.Error.Message, tt.want)
			computer.AssertNotCalled(t, "Compute", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestComputeRoutesMapsServiceErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "no routes", err: AppError(routes.ErrNoRoutes), status: http.StatusNotFound, code: CodeNoRoutes},
		{name: "upstream", err: AppError(&routes.RequestError{StatusCode: 500}), status: http.StatusBadGateway, code: CodeRoutingFailed},
		{name: "unexpected", err: assert.AnError, status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			computer := new(MockComputer)
			computer.On("Compute", mock.Anything, mock.Anything, 0).Return(nil, tt.err)

			w, resp := postJSON(t, setupRouter(computer), `{"origin":{"latitude":1,"longitude":1},"destination":{"latitude":2,"longitude":2}}`)

			assert.Equal(t, tt.status, w.Code)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.ErrorCode)
		})
	}
}
