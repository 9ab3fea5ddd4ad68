package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBoundsOf(t *testing.T) {
	_, ok := BoundsOf(nil)
	assert.False(t, ok)

	b, ok := BoundsOf([]LatLng{
		{Latitude: 37.0, Longitude: -122.0},
		{Latitude: 37.1, Longitude: -122.1},
		{Latitude: 36.9, Longitude: -121.9},
	})
	assert.True(t, ok)
	assert.Equal(t, LatLng{Latitude: 36.9, Longitude: -122.1}, b.Southwest)
	assert.Equal(t, LatLng{Latitude: 37.1, Longitude: -121.9}, b.Northeast)
	assert.InDelta(t, 37.0, b.Center().Latitude, 1e-9)
	assert.InDelta(t, -122.0, b.Center().Longitude, 1e-9)
}

func TestHaversine(t *testing.T) {
	assert.Equal(t, 0.0, Haversine(37, -122, 37, -122))
	// San Francisco to Los Angeles
	assert.InDelta(t, 559, Haversine(37.7749, -122.4194, 34.0522, -118.2437), 2)
}

func TestPathLengthKm(t *testing.T) {
	assert.Equal(t, 0.0, PathLengthKm([]LatLng{{Latitude: 1, Longitude: 1}}))

	points := []LatLng{{Latitude: 0, Longitude: 0}, {Latitude: 0, Longitude: 1}, {Latitude: 0, Longitude: 2}}
	assert.InDelta(t, 2*111.19, PathLengthKm(points), 0.1)
}
