package mapview

import (
	"fmt"

	"github.com/richxcame/map-directions/internal/routes"
	"github.com/richxcame/map-directions/pkg/geo"
)

const (
	defaultStrokeWidth   = 4
	initialRegionDelta   = 0.5
	defaultRouteColor    = "gray"
	defaultSelectedColor = "blue"
)

// Padding is the camera edge padding in points.
type Padding struct {
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
}

// DefaultPadding is the padding used to fit markers into view.
var DefaultPadding = Padding{Top: 90, Right: 50, Bottom: 100, Left: 50}

// RoutePolyline is one drawable route.
type RoutePolyline struct {
	Key         string       `json:"key"`
	Index       int          `json:"index"`
	Coordinates []geo.LatLng `json:"coordinates"`
	StrokeColor string       `json:"stroke_color"`
	StrokeWidth int          `json:"stroke_width"`
	Selected    bool         `json:"selected"`
	Tappable    bool         `json:"tappable"`
}

// FitCommand asks the map to fit its camera around the given coordinates.
type FitCommand struct {
	Coordinates []geo.LatLng `json:"coordinates"`
	Bounds      geo.Bounds   `json:"bounds"`
	EdgePadding Padding      `json:"edge_padding"`
	Animated    bool         `json:"animated"`
}

// Region is a camera region centred on a coordinate.
type Region struct {
	geo.LatLng
	LatitudeDelta  float64 `json:"latitude_delta"`
	LongitudeDelta float64 `json:"longitude_delta"`
}

// Frame is the render output of a view. Visible is false while no routes
// are held, in which case the frame carries nothing to draw.
type Frame struct {
	Sequence      uint64          `json:"sequence"`
	Status        Status          `json:"status"`
	Visible       bool            `json:"visible"`
	SelectedIndex int             `json:"selected_index"`
	InitialRegion *Region         `json:"initial_region,omitempty"`
	Markers       []Marker        `json:"markers"`
	Polylines     []RoutePolyline `json:"polylines"`
	Fit           *FitCommand     `json:"fit,omitempty"`
}

type frameStyle struct {
	selectedColor string
	routeColor    string
	padding       Padding
	animated      bool
}

// markers resolves every marker of in: origin, waypoints, destination, extras.
func markers(in Inputs) []Marker {
	var out []Marker
	if in.Origin != nil {
		out = append(out, NewMarker(RoleOrigin, "origin", *in.Origin))
	}
	for i, wp := range in.Waypoints {
		out = append(out, NewMarker(RoleWaypoint, keyf("intermediate", i), wp))
	}
	if in.Destination != nil {
		out = append(out, NewMarker(RoleDestination, "destination", *in.Destination))
	}
	for i, p := range in.ExtraMarkers {
		out = append(out, NewMarker(RoleExtra, keyf("extraMarker", i), p))
	}
	return out
}

// fitCoordinates lists the coordinates the camera is fitted to. Extra
// markers are not included.
func fitCoordinates(in Inputs) []geo.LatLng {
	var out []geo.LatLng
	if in.Origin != nil {
		out = append(out, in.Origin.LatLng)
	}
	for _, wp := range in.Waypoints {
		out = append(out, wp.LatLng)
	}
	if in.Destination != nil {
		out = append(out, in.Destination.LatLng)
	}
	return out
}

// polylines draws non-selected routes first so the selected one is on top.
func polylines(decoded []routes.DecodedRoute, selected int, style frameStyle) []RoutePolyline {
	out := make([]RoutePolyline, 0, len(decoded))
	for i, r := range decoded {
		if i == selected {
			continue
		}
		out = append(out, RoutePolyline{
			Key:         r.Key,
			Index:       i,
			Coordinates: copyCoords(r.Coordinates),
			StrokeColor: style.routeColor,
			StrokeWidth: defaultStrokeWidth,
			Tappable:    true,
		})
	}
	if selected >= 0 && selected < len(decoded) {
		r := decoded[selected]
		out = append(out, RoutePolyline{
			Key:         r.Key,
			Index:       selected,
			Coordinates: copyCoords(r.Coordinates),
			StrokeColor: style.selectedColor,
			StrokeWidth: defaultStrokeWidth,
			Selected:    true,
		})
	}
	return out
}

func copyCoords(in []geo.LatLng) []geo.LatLng {
	if in == nil {
		return nil
	}
	out := make([]geo.LatLng, len(in))
	copy(out, in)
	return out
}

func copyRoutes(in []routes.DecodedRoute) []routes.DecodedRoute {
	if in == nil {
		return nil
	}
	out := make([]routes.DecodedRoute, len(in))
	for i, r := range in {
		out[i] = r
		out[i].Coordinates = copyCoords(r.Coordinates)
	}
	return out
}

func keyf(prefix string, i int) string {
	return fmt.Sprintf("%s-%d", prefix, i)
}
