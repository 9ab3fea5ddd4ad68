package routes

import (
	"strings"
	"time"
)

// DefaultFieldMask selects the fields needed to render routes.
const DefaultFieldMask = "routes.duration,routes.distanceMeters,routes.polyline.encodedPolyline"

const optimizedOrderField = "routes.optimized_intermediate_waypoint_index"

// Body is the JSON payload of a computeRoutes call.
type Body struct {
	Origin                   Waypoint            `json:"origin"`
	Destination              Waypoint            `json:"destination"`
	TravelMode               TravelMode          `json:"travelMode"`
	RoutingPreference        RoutingPreference   `json:"routingPreference"`
	ComputeAlternativeRoutes bool                `json:"computeAlternativeRoutes"`
	LanguageCode             string              `json:"languageCode"`
	Units                    Units               `json:"units"`
	Intermediates            []Waypoint          `json:"intermediates,omitempty"`
	PolylineQuality          string              `json:"polylineQuality,omitempty"`
	PolylineEncoding         string              `json:"polylineEncoding,omitempty"`
	DepartureTime            string              `json:"departureTime,omitempty"`
	ArrivalTime              string              `json:"arrivalTime,omitempty"`
	RouteModifiers           *RouteModifiers     `json:"routeModifiers,omitempty"`
	RegionCode               string              `json:"regionCode,omitempty"`
	OptimizeWaypointOrder    bool                `json:"optimizeWaypointOrder,omitempty"`
	RequestedReferenceRoutes []string            `json:"requestedReferenceRoutes,omitempty"`
	ExtraComputations        []string            `json:"extraComputations,omitempty"`
	TransitPreferences       *TransitPreferences `json:"transitPreferences,omitempty"`
}

// BuildBody assembles the request payload. Only presence is checked;
// coordinates and enum values are passed through as given.
func BuildBody(req *Request) (*Body, error) {
	if req == nil || req.Origin == nil || req.Destination == nil {
		return nil, ErrMissingEndpoint
	}
	if len(req.Waypoints) > MaxWaypoints {
		return nil, ErrTooManyWaypoints
	}

	opts := req.Options
	body := &Body{
		Origin:                   NewWaypoint(*req.Origin),
		Destination:              NewWaypoint(*req.Destination),
		TravelMode:               opts.Mode,
		RoutingPreference:        opts.RoutingPreference,
		ComputeAlternativeRoutes: opts.ComputeAlternativeRoutes,
		LanguageCode:             opts.LanguageCode,
		Units:                    opts.Units,
		PolylineQuality:          opts.PolylineQuality,
		PolylineEncoding:         opts.PolylineEncoding,
		RegionCode:               opts.RegionCode,
		OptimizeWaypointOrder:    opts.OptimizeWaypointOrder,
		RequestedReferenceRoutes: opts.RequestedReferenceRoutes,
		ExtraComputations:        opts.ExtraComputations,
	}

	if len(req.Waypoints) > 0 {
		body.Intermediates = make([]Waypoint, len(req.Waypoints))
		copy(body.Intermediates, req.Waypoints)
	}
	if opts.DepartureTime != nil {
		body.DepartureTime = opts.DepartureTime.UTC().Format(time.RFC3339)
	}
	if opts.ArrivalTime != nil {
		body.ArrivalTime = opts.ArrivalTime.UTC().Format(time.RFC3339)
	}
	if !opts.RouteModifiers.IsEmpty() {
		body.RouteModifiers = opts.RouteModifiers
	}
	if !opts.TransitPreferences.IsEmpty() {
		body.TransitPreferences = opts.TransitPreferences
	}

	return body, nil
}

// FieldMask returns the X-Goog-FieldMask value for a request.
func FieldMask(base string, optimizeWaypoints bool) string {
	if base == "" {
		base = DefaultFieldMask
	}
	if optimizeWaypoints && !strings.Contains(base, optimizedOrderField) {
		base += "," + optimizedOrderField
	}
	return base
}
