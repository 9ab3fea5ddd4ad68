package routes

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/richxcame/map-directions/pkg/geo"
)

// LatLng is a coordinate in decimal degrees.
type LatLng = geo.LatLng

// TravelMode selects the mode of transport.
type TravelMode string

const (
	TravelModeDrive      TravelMode = "DRIVE"
	TravelModeWalk       TravelMode = "WALK"
	TravelModeTwoWheeler TravelMode = "TWO_WHEELER"
	TravelModeBicycle    TravelMode = "BICYCLE"
	TravelModeTransit    TravelMode = "TRANSIT"
)

// RoutingPreference controls how traffic is taken into account.
type RoutingPreference string

const (
	RoutingTrafficUnaware      RoutingPreference = "TRAFFIC_UNAWARE"
	RoutingTrafficAware        RoutingPreference = "TRAFFIC_AWARE"
	RoutingTrafficAwareOptimal RoutingPreference = "TRAFFIC_AWARE_OPTIMAL"
)

// Units is the unit system used for display values.
type Units string

const (
	UnitsMetric   Units = "METRIC"
	UnitsImperial Units = "IMPERIAL"
)

// Polyline quality and encoding values.
const (
	PolylineQualityOverview    = "OVERVIEW"
	PolylineQualityHighQuality = "HIGH_QUALITY"

	PolylineEncodingEncoded = "ENCODED_POLYLINE"
	PolylineEncodingGeoJSON = "GEO_JSON_LINESTRING"
)

// Reference routes, extra computations and vehicle emission types.
const (
	ReferenceRouteFuelEfficient   = "FUEL_EFFICIENT"
	ReferenceRouteShorterDistance = "SHORTER_DISTANCE"

	ExtraComputationTolls              = "TOLLS"
	ExtraComputationFuelConsumption    = "FUEL_CONSUMPTION"
	ExtraComputationTrafficOnPolyline  = "TRAFFIC_ON_POLYLINE"
	ExtraComputationHTMLNavInstruction = "HTML_FORMATTED_NAVIGATION_INSTRUCTIONS"

	EmissionGasoline = "GASOLINE"
	EmissionElectric = "ELECTRIC"
	EmissionHybrid   = "HYBRID"
	EmissionDiesel   = "DIESEL"
)

// Transit modes and preferences.
const (
	TransitModeBus       = "BUS"
	TransitModeSubway    = "SUBWAY"
	TransitModeTrain     = "TRAIN"
	TransitModeLightRail = "LIGHT_RAIL"
	TransitModeRail      = "RAIL"

	TransitLessWalking    = "LESS_WALKING"
	TransitFewerTransfers = "FEWER_TRANSFERS"
)

// MaxWaypoints is the largest number of intermediates accepted per request.
const MaxWaypoints = 25

// Location wraps a coordinate the way the routing service expects it.
type Location struct {
	LatLng LatLng `json:"latLng"`
}

// Waypoint is an intermediate stop between origin and destination.
type Waypoint struct {
	Location Location `json:"location"`
	Via      bool     `json:"via,omitempty"`
}

// NewWaypoint builds a stopover waypoint at ll.
func NewWaypoint(ll LatLng) Waypoint {
	return Waypoint{Location: Location{LatLng: ll}}
}

// VehicleInfo describes the vehicle used for DRIVE routes.
type VehicleInfo struct {
	EmissionType string `json:"emissionType,omitempty" validate:"emission_type"`
}

// RouteModifiers lists conditions the route should satisfy.
type RouteModifiers struct {
	AvoidTolls    bool         `json:"avoidTolls,omitempty"`
	AvoidHighways bool         `json:"avoidHighways,omitempty"`
	AvoidFerries  bool         `json:"avoidFerries,omitempty"`
	AvoidIndoor   bool         `json:"avoidIndoor,omitempty"`
	VehicleInfo   *VehicleInfo `json:"vehicleInfo,omitempty"`
	TollPasses    []string     `json:"tollPasses,omitempty"`
}

// IsEmpty reports whether no modifier is set.
func (m *RouteModifiers) IsEmpty() bool {
	if m == nil {
		return true
	}
	return !m.AvoidTolls && !m.AvoidHighways && !m.AvoidFerries && !m.AvoidIndoor &&
		(m.VehicleInfo == nil || m.VehicleInfo.EmissionType == "") &&
		len(m.TollPasses) == 0
}

// TransitPreferences narrows TRANSIT routes.
type TransitPreferences struct {
	AllowedTravelModes []string `json:"allowedTravelModes,omitempty" validate:"dive,transit_mode"`
	RoutingPreference  string   `json:"routingPreference,omitempty" validate:"transit_preference"`
}

// IsEmpty reports whether no preference is set.
func (p *TransitPreferences) IsEmpty() bool {
	return p == nil || (len(p.AllowedTravelModes) == 0 && p.RoutingPreference == "")
}

// Options holds the routing options sent with every request.
type Options struct {
	Mode                     TravelMode          `json:"mode,omitempty" validate:"travel_mode"`
	RoutingPreference        RoutingPreference   `json:"routing_preference,omitempty" validate:"routing_preference"`
	ComputeAlternativeRoutes bool                `json:"compute_alternative_routes,omitempty"`
	LanguageCode             string              `json:"language_code,omitempty" validate:"language_tag"`
	Units                    Units               `json:"units,omitempty" validate:"units"`
	PolylineQuality          string              `json:"polyline_quality,omitempty" validate:"polyline_quality"`
	PolylineEncoding         string              `json:"polyline_encoding,omitempty" validate:"polyline_encoding"`
	DepartureTime            *time.Time          `json:"departure_time,omitempty"`
	ArrivalTime              *time.Time          `json:"arrival_time,omitempty"`
	RouteModifiers           *RouteModifiers     `json:"route_modifiers,omitempty"`
	RegionCode               string              `json:"region_code,omitempty" validate:"region_code"`
	OptimizeWaypointOrder    bool                `json:"optimize_waypoint_order,omitempty"`
	RequestedReferenceRoutes []string            `json:"requested_reference_routes,omitempty" validate:"dive,reference_route"`
	ExtraComputations        []string            `json:"extra_computations" validate:"dive,extra_computation"`
	TransitPreferences       *TransitPreferences `json:"transit_preferences,omitempty"`
}

// DefaultOptions returns the options used when a caller sets nothing.
func DefaultOptions() Options {
	return Options{
		Mode:              TravelModeDrive,
		RoutingPreference: RoutingTrafficAwareOptimal,
		LanguageCode:      "en-US",
		Units:             UnitsImperial,
		PolylineQuality:   PolylineQualityOverview,
		PolylineEncoding:  PolylineEncodingEncoded,
		ExtraComputations: []string{ExtraComputationFuelConsumption, ExtraComputationTolls},
	}
}

// WithDefaults fills unset fields from DefaultOptions. A nil ExtraComputations
// takes the default list; an empty non-nil one stays empty.
func (o Options) WithDefaults() Options {
	d := DefaultOptions()
	if o.Mode == "" {
		o.Mode = d.Mode
	}
	if o.RoutingPreference == "" {
		o.RoutingPreference = d.RoutingPreference
	}
	if o.LanguageCode == "" {
		o.LanguageCode = d.LanguageCode
	}
	if o.Units == "" {
		o.Units = d.Units
	}
	if o.PolylineQuality == "" {
		o.PolylineQuality = d.PolylineQuality
	}
	if o.PolylineEncoding == "" {
		o.PolylineEncoding = d.PolylineEncoding
	}
	if o.ExtraComputations == nil {
		o.ExtraComputations = d.ExtraComputations
	}
	return o
}

// Request is one route computation.
type Request struct {
	Origin      *LatLng    `json:"origin"`
	Destination *LatLng    `json:"destination"`
	Waypoints   []Waypoint `json:"waypoints,omitempty"`
	Options     Options    `json:"options"`
}

// Response is the routing service reply.
type Response struct {
	Routes           []Route         `json:"routes"`
	FallbackInfo     json.RawMessage `json:"fallbackInfo,omitempty"`
	GeocodingResults json.RawMessage `json:"geocodingResults,omitempty"`

	CacheHit bool `json:"-"`
}

// GeoJSONLineString is the alternative polyline representation.
type GeoJSONLineString struct {
	Type        string      `json:"type"`
	Coordinates [][]float64 `json:"coordinates"`
}

// Polyline carries a route's geometry in one of the two encodings.
type Polyline struct {
	EncodedPolyline   string             `json:"encodedPolyline,omitempty"`
	GeoJSONLinestring *GeoJSONLineString `json:"geoJsonLinestring,omitempty"`
}

// Route is one alternative returned by the service. Fields not modelled here
// are kept verbatim.
type Route struct {
	Duration                           string          `json:"duration,omitempty"`
	StaticDuration                     string          `json:"staticDuration,omitempty"`
	DistanceMeters                     int             `json:"distanceMeters,omitempty"`
	Polyline                           Polyline        `json:"polyline"`
	Description                        string          `json:"description,omitempty"`
	RouteLabels                        []string        `json:"routeLabels,omitempty"`
	Warnings                           []string        `json:"warnings,omitempty"`
	OptimizedIntermediateWaypointIndex []int           `json:"optimizedIntermediateWaypointIndex,omitempty"`
	RouteToken                         string          `json:"routeToken,omitempty"`
	Legs                               json.RawMessage `json:"legs,omitempty"`
	Viewport                           json.RawMessage `json:"viewport,omitempty"`
	TravelAdvisory                     json.RawMessage `json:"travelAdvisory,omitempty"`
	LocalizedValues                    json.RawMessage `json:"localizedValues,omitempty"`
}

// DurationValue parses the protobuf duration string, e.g. "1234s".
func (r Route) DurationValue() (time.Duration, error) {
	if r.Duration == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(r.Duration)
	if err != nil {
		return 0, fmt.Errorf("invalid route duration %q: %w", r.Duration, err)
	}
	return d, nil
}

// DecodedRoute is a Route with its decoded geometry and a stable key.
type DecodedRoute struct {
	Route
	Key         string   `json:"key"`
	Index       int      `json:"index"`
	Coordinates []LatLng `json:"coordinates"`
}

// RouteKey returns the key of the route at index i.
func RouteKey(i int) string {
	return fmt.Sprintf("route-%d", i)
}
