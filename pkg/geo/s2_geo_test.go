package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProjectPointToLineCoord(t *testing.T) {
	a := NewCoordinate(47.667324, -122.118989)
	b := NewCoordinate(47.667338, -122.121784)
	p := NewCoordinate(47.667500, -122.120561)

	proj := ProjectPointToLineCoord(a, b, p)

	// the projection falls on the (nearly east-west) segment, between its
	// endpoints and south of the query point.
	assert.InDelta(t, 47.66733, proj.Lat, 0.0001)
	assert.InDelta(t, p.Lon, proj.Lon, 0.0001)
	assert.Less(t, proj.Lat, p.Lat)
	assert.Greater(t, proj.Lon, b.Lon)
	assert.Less(t, proj.Lon, a.Lon)
}
