package routes

import (
	"github.com/richxcame/map-directions/pkg/polyline"
)

// DecodeRoutes expands the geometry of every route in resp. Any malformed
// polyline fails the whole result; no partial geometry is returned.
func DecodeRoutes(resp *Response, decoder *polyline.Decoder) ([]DecodedRoute, error) {
	if resp == nil || len(resp.Routes) == 0 {
		return nil, ErrNoRoutes
	}
	if decoder == nil {
		decoder = polyline.Default
	}

	decoded := make([]DecodedRoute, 0, len(resp.Routes))
	for i, route := range resp.Routes {
		coords, err := decodeGeometry(route.Polyline, decoder)
		if err != nil {
			return nil, &DecodeError{RouteIndex: i, Err: err}
		}
		decoded = append(decoded, DecodedRoute{
			Route:       route,
			Key:         RouteKey(i),
			Index:       i,
			Coordinates: coords,
		})
	}
	return decoded, nil
}

func decodeGeometry(p Polyline, decoder *polyline.Decoder) ([]LatLng, error) {
	switch {
	case p.EncodedPolyline != "":
		return decoder.Decode(p.EncodedPolyline)
	case p.GeoJSONLinestring != nil:
		return polyline.FromGeoJSON(p.GeoJSONLinestring.Coordinates)
	default:
		return nil, ErrNoGeometry
	}
}
