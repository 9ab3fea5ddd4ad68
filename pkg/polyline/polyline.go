// Package polyline decodes Google encoded polylines into coordinates.
package polyline

import (
	"errors"
	"fmt"

	gopolyline "github.com/twpayne/go-polyline"

	"github.com/richxcame/map-directions/pkg/geo"
)

// Supported precisions, in decimal digits.
const (
	Precision5 = 5
	Precision6 = 6
)

// ErrTrailingData is returned when bytes remain after the last complete coordinate.
var ErrTrailingData = errors.New("polyline: trailing data after last coordinate")

// Decoder decodes polylines at a fixed precision.
type Decoder struct {
	codec gopolyline.Codec
}

// NewDecoder returns a decoder for the given precision (5 or 6).
func NewDecoder(precision int) (*Decoder, error) {
	var scale float64
	switch precision {
	case Precision5:
		scale = 1e5
	case Precision6:
		scale = 1e6
	default:
		return nil, fmt.Errorf("polyline: unsupported precision %d", precision)
	}
	return &Decoder{codec: gopolyline.Codec{Dim: 2, Scale: scale}}, nil
}

// Default decodes at precision 5.
var Default = &Decoder{codec: gopolyline.Codec{Dim: 2, Scale: 1e5}}

// Decode returns the ordered coordinates of encoded. An empty string decodes to
// an empty path.
func (d *Decoder) Decode(encoded string) ([]geo.LatLng, error) {
	if encoded == "" {
		return []geo.LatLng{}, nil
	}

	coords, rest, err := d.codec.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("polyline: %w", err)
	}
	if len(rest) > 0 {
		return nil, ErrTrailingData
	}

	points := make([]geo.LatLng, 0, len(coords))
	for _, c := range coords {
		points = append(points, geo.LatLng{Latitude: c[0], Longitude: c[1]})
	}
	return points, nil
}

// Encode is the inverse of Decode.
func (d *Decoder) Encode(points []geo.LatLng) string {
	coords := make([][]float64, len(points))
	for i, p := range points {
		coords[i] = []float64{p.Latitude, p.Longitude}
	}
	return string(d.codec.EncodeCoords(nil, coords))
}

// Decode decodes encoded at precision 5.
func Decode(encoded string) ([]geo.LatLng, error) {
	return Default.Decode(encoded)
}

// FromGeoJSON converts GeoJSON LineString positions ([lng, lat]) to coordinates.
func FromGeoJSON(positions [][]float64) ([]geo.LatLng, error) {
	points := make([]geo.LatLng, 0, len(positions))
	for i, pos := range positions {
		if len(pos) < 2 {
			return nil, fmt.Errorf("polyline: position %d has %d values", i, len(pos))
		}
		points = append(points, geo.LatLng{Latitude: pos[1], Longitude: pos[0]})
	}
	return points, nil
}
