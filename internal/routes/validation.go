package routes

import (
	"fmt"

	"github.com/richxcame/map-directions/pkg/validation"
)

// Enum validation tags used on Options and its nested types.
var enums = map[string][]string{
	"travel_mode": {
		string(TravelModeDrive), string(TravelModeWalk), string(TravelModeTwoWheeler),
		string(TravelModeBicycle), string(TravelModeTransit),
	},
	"routing_preference": {
		string(RoutingTrafficUnaware), string(RoutingTrafficAware), string(RoutingTrafficAwareOptimal),
	},
	"units":              {string(UnitsMetric), string(UnitsImperial)},
	"polyline_quality":   {PolylineQualityOverview, PolylineQualityHighQuality},
	"polyline_encoding":  {PolylineEncodingEncoded, PolylineEncodingGeoJSON},
	"reference_route":    {ReferenceRouteFuelEfficient, ReferenceRouteShorterDistance},
	"extra_computation":  {ExtraComputationTolls, ExtraComputationFuelConsumption, ExtraComputationTrafficOnPolyline, ExtraComputationHTMLNavInstruction},
	"emission_type":      {EmissionGasoline, EmissionElectric, EmissionHybrid, EmissionDiesel},
	"transit_mode":       {TransitModeBus, TransitModeSubway, TransitModeTrain, TransitModeLightRail, TransitModeRail},
	"transit_preference": {TransitLessWalking, TransitFewerTransfers},
}

func init() {
	for tag, values := range enums {
		if err := validation.RegisterEnum(tag, values...); err != nil {
			panic(fmt.Sprintf("register %s validation: %v", tag, err))
		}
	}
}
