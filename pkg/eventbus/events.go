package eventbus

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Subjects for directions events. All of them fall under the stream's
// "directions.>" wildcard.
const (
	SubjectRoutesReady   = "directions.routes.ready"
	SubjectRoutesFailed  = "directions.routes.failed"
	SubjectRouteSelected = "directions.route.selected"
	SubjectSessionOpened = "directions.session.opened"
	SubjectSessionClosed = "directions.session.closed"
)

// Event is the envelope for all events published through the bus.
type Event struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Source    string          `json:"source"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// NewEvent wraps data in an envelope with a fresh ID and a UTC timestamp.
func NewEvent(eventType, source string, data interface{}) (*Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal event data: %w", err)
	}
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    source,
		Timestamp: time.Now().UTC(),
		Data:      raw,
	}, nil
}

// RoutesReadyData is emitted when a view finishes fetching routes.
type RoutesReadyData struct {
	SessionID      string    `json:"session_id"`
	TravelMode     string    `json:"travel_mode"`
	RouteCount     int       `json:"route_count"`
	DistanceMeters int       `json:"distance_meters"`
	Duration       string    `json:"duration"`
	SelectedRoute  int       `json:"selected_route"`
	CompletedAt    time.Time `json:"completed_at"`
}

// RoutesFailedData is emitted when a fetch cycle fails.
type RoutesFailedData struct {
	SessionID  string    `json:"session_id"`
	TravelMode string    `json:"travel_mode"`
	Kind       string    `json:"kind"`
	Message    string    `json:"message"`
	FailedAt   time.Time `json:"failed_at"`
}

// RouteSelectedData is emitted when the user picks an alternative route.
type RouteSelectedData struct {
	SessionID  string    `json:"session_id"`
	RouteIndex int       `json:"route_index"`
	RouteKey   string    `json:"route_key"`
	SelectedAt time.Time `json:"selected_at"`
}

// SessionData is emitted when a live map session opens or closes.
type SessionData struct {
	SessionID string    `json:"session_id"`
	RemoteIP  string    `json:"remote_ip,omitempty"`
	At        time.Time `json:"at"`
}
