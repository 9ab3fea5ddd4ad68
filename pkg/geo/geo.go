package geo

import "math"

const earthRadiusKm = 6371.0

// LatLng is a WGS84 coordinate in decimal degrees.
type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Bounds is the smallest latitude/longitude box containing a set of points.
type Bounds struct {
	Southwest LatLng `json:"southwest"`
	Northeast LatLng `json:"northeast"`
}

// BoundsOf returns the bounding box of points. ok is false for an empty slice.
func BoundsOf(points []LatLng) (b Bounds, ok bool) {
	if len(points) == 0 {
		return Bounds{}, false
	}

	b.Southwest = points[0]
	b.Northeast = points[0]
	for _, p := range points[1:] {
		b.Southwest.Latitude = math.Min(b.Southwest.Latitude, p.Latitude)
		b.Southwest.Longitude = math.Min(b.Southwest.Longitude, p.Longitude)
		b.Northeast.Latitude = math.Max(b.Northeast.Latitude, p.Latitude)
		b.Northeast.Longitude = math.Max(b.Northeast.Longitude, p.Longitude)
	}
	return b, true
}

// Center returns the midpoint of the box.
func (b Bounds) Center() LatLng {
	return LatLng{
		Latitude:  (b.Southwest.Latitude + b.Northeast.Latitude) / 2,
		Longitude: (b.Southwest.Longitude + b.Northeast.Longitude) / 2,
	}
}

// Haversine calculates the great-circle distance in kilometres between two
// coordinates. The result is rounded to two decimal places.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180.0
	dLon := (lon2 - lon1) * math.Pi / 180.0

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180.0)*math.Cos(lat2*math.Pi/180.0)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return math.Round(earthRadiusKm*c*100) / 100
}

// PathLengthKm sums the great-circle length of consecutive segments.
func PathLengthKm(points []LatLng) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += Haversine(points[i-1].Latitude, points[i-1].Longitude, points[i].Latitude, points[i].Longitude)
	}
	return total
}
