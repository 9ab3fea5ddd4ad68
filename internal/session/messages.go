package session

import (
	"github.com/richxcame/map-directions/internal/routes"
)

// Client message types.
const (
	TypeUpdate         = "update"
	TypeSelectRoute    = "select_route"
	TypeResetSelection = "reset_selection"
)

// Server message types.
const (
	TypeSessionOpened = "session_opened"
	TypeFetchStarted  = "fetch_started"
	TypeRoutesReady   = "routes_ready"
	TypeRoutesError   = "routes_error"
	TypeRouteSelected = "route_selected"
	TypeFrame         = "frame"
)

// SelectRoutePayload is the data of a select_route message.
type SelectRoutePayload struct {
	Index *int `json:"index" validate:"required"`
}

// OpenedPayload is sent once when the connection is established.
type OpenedPayload struct {
	SessionID string `json:"session_id"`
}

// RoutesReadyPayload carries every decoded route of a completed fetch.
type RoutesReadyPayload struct {
	Routes []routes.DecodedRoute `json:"routes"`
}

// RouteSelectedPayload reports the active route.
type RouteSelectedPayload struct {
	Index int    `json:"index"`
	Key   string `json:"key"`
}
