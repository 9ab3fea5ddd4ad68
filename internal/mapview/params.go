package mapview

import (
	"github.com/richxcame/map-directions/internal/routes"
	"github.com/richxcame/map-directions/pkg/geo"
)

// Coordinate precision hints.
const (
	PrecisionLow  = "low"
	PrecisionHigh = "high"
)

// Point is a coordinate with optional marker customisation.
type Point struct {
	geo.LatLng
	Heading      float64       `json:"heading,omitempty"`
	CustomMarker *CustomMarker `json:"custom_marker,omitempty"`
}

// Inputs is everything a host sets on a view.
type Inputs struct {
	Origin         *Point         `json:"origin"`
	Destination    *Point         `json:"destination"`
	Waypoints      []Point        `json:"waypoints,omitempty"`
	ExtraMarkers   []Point        `json:"extra_markers,omitempty"`
	Precision      string         `json:"precision,omitempty"`
	SplitWaypoints bool           `json:"split_waypoints,omitempty"`
	// Region is the legacy name of Options.RegionCode and only used when
	// RegionCode is empty.
	Region         string         `json:"region,omitempty"`
	Options        routes.Options `json:"options"`
}

// Request builds the routing request for in.
func (in Inputs) Request() *routes.Request {
	opts := in.Options.WithDefaults()
	if opts.RegionCode == "" {
		opts.RegionCode = in.Region
	}

	req := &routes.Request{Options: opts}
	if in.Origin != nil {
		origin := in.Origin.LatLng
		req.Origin = &origin
	}
	if in.Destination != nil {
		destination := in.Destination.LatLng
		req.Destination = &destination
	}
	if len(in.Waypoints) > 0 {
		req.Waypoints = make([]routes.Waypoint, len(in.Waypoints))
		for i, wp := range in.Waypoints {
			req.Waypoints[i] = routes.NewWaypoint(wp.LatLng)
		}
	}
	return req
}

// RouteParams is the subset of Inputs whose change triggers a new fetch.
type RouteParams struct {
	Origin         *geo.LatLng
	Destination    *geo.LatLng
	Waypoints      []geo.LatLng
	Mode           routes.TravelMode
	Precision      string
	SplitWaypoints bool
}

// ParamsOf extracts the route-affecting parameters of in.
func ParamsOf(in Inputs) RouteParams {
	p := RouteParams{
		Mode:           in.Options.WithDefaults().Mode,
		Precision:      in.Precision,
		SplitWaypoints: in.SplitWaypoints,
	}
	if p.Precision == "" {
		p.Precision = PrecisionLow
	}
	if in.Origin != nil {
		origin := in.Origin.LatLng
		p.Origin = &origin
	}
	if in.Destination != nil {
		destination := in.Destination.LatLng
		p.Destination = &destination
	}
	for _, wp := range in.Waypoints {
		p.Waypoints = append(p.Waypoints, wp.LatLng)
	}
	return p
}

// Equal compares two parameter sets field by field.
func (p RouteParams) Equal(o RouteParams) bool {
	if p.Mode != o.Mode || p.Precision != o.Precision || p.SplitWaypoints != o.SplitWaypoints {
		return false
	}
	if !equalPtr(p.Origin, o.Origin) || !equalPtr(p.Destination, o.Destination) {
		return false
	}
	return equalCoords(p.Waypoints, o.Waypoints)
}

// Complete reports whether both endpoints are present.
func (p RouteParams) Complete() bool {
	return p.Origin != nil && p.Destination != nil
}

func equalPtr(a, b *geo.LatLng) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalCoords(a, b []geo.LatLng) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
