package directions

import (
	"github.com/richxcame/map-directions/internal/mapview"
	"github.com/richxcame/map-directions/internal/routes"
	"github.com/richxcame/map-directions/pkg/geo"
)

// Coordinate is a map point as accepted from clients. Values outside the
// valid latitude and longitude ranges are forwarded unchanged.
type Coordinate struct {
	Latitude     *float64              `json:"latitude" validate:"required"`
	Longitude    *float64              `json:"longitude" validate:"required"`
	Heading      float64               `json:"heading,omitempty"`
	CustomMarker *mapview.CustomMarker `json:"custom_marker,omitempty"`
}

func (c *Coordinate) point() *mapview.Point {
	if c == nil || c.Latitude == nil || c.Longitude == nil {
		return nil
	}
	return &mapview.Point{
		LatLng:       geo.LatLng{Latitude: *c.Latitude, Longitude: *c.Longitude},
		Heading:      c.Heading,
		CustomMarker: c.CustomMarker,
	}
}

// RouteInput is the client representation of view inputs.
type RouteInput struct {
	Origin         *Coordinate    `json:"origin"`
	Destination    *Coordinate    `json:"destination"`
	Waypoints      []Coordinate   `json:"waypoints,omitempty" validate:"max=25,dive"`
	ExtraMarkers   []Coordinate   `json:"extra_markers,omitempty" validate:"dive"`
	Precision      string         `json:"precision,omitempty" validate:"omitempty,oneof=low high"`
	SplitWaypoints bool           `json:"split_waypoints,omitempty"`
	Region         string         `json:"region,omitempty" validate:"region_code"`
	Options        routes.Options `json:"options"`
}

// Inputs converts the client representation into view inputs.
func (in RouteInput) Inputs() mapview.Inputs {
	out := mapview.Inputs{
		Origin:         in.Origin.point(),
		Destination:    in.Destination.point(),
		Precision:      in.Precision,
		SplitWaypoints: in.SplitWaypoints,
		Region:         in.Region,
		Options:        in.Options,
	}
	out.Waypoints = points(in.Waypoints)
	out.ExtraMarkers = points(in.ExtraMarkers)
	return out
}

func points(in []Coordinate) []mapview.Point {
	if len(in) == 0 {
		return nil
	}
	out := make([]mapview.Point, 0, len(in))
	for i := range in {
		if p := in[i].point(); p != nil {
			out = append(out, *p)
		}
	}
	return out
}

// ComputeRequest is the body of a one-shot route computation.
type ComputeRequest struct {
	RouteInput
	SelectedIndex int `json:"selected_index,omitempty"`
}

// ComputeResponse carries the decoded routes and the frame derived from them.
type ComputeResponse struct {
	Routes []routes.DecodedRoute `json:"routes"`
	Frame  mapview.Frame         `json:"frame"`
}
