package geo

import (
	"math"

	"github.com/lintang-b-s/railnav/pkg/datastructure"

	"github.com/golang/geo/s2"
)

// PointLinePerpendicularDistance distance (in meter) from point p to the
// segment (a,b), using the s2 projection of p onto the segment.
func PointLinePerpendicularDistance(a, b, p datastructure.Coordinate) float64 {
	aS2 := s2.PointFromLatLng(s2.LatLngFromDegrees(a.Lat, a.Lon))
	bS2 := s2.PointFromLatLng(s2.LatLngFromDegrees(b.Lat, b.Lon))
	pS2 := s2.PointFromLatLng(s2.LatLngFromDegrees(p.Lat, p.Lon))

	projection := s2.Project(pS2, aS2, bS2)
	projLatLng := s2.LatLngFromPoint(projection)

	return CalculateHaversineDistance(p.Lat, p.Lon,
		projLatLng.Lat.Degrees(), projLatLng.Lng.Degrees()) * 1000
}

// GetDestinationPoint titik tujuan dari (lat,lon) dengan bearing (degree) dan
// jarak dist (km). https://www.movable-type.co.uk/scripts/latlong.html
func GetDestinationPoint(lat, lon float64, bearing, dist float64) (float64, float64) {
	latRad := degreeToRadians(lat)
	lonRad := degreeToRadians(lon)
	bearingRad := degreeToRadians(bearing)
	angularDist := dist / earthRadiusKM

	destLat := math.Asin(math.Sin(latRad)*math.Cos(angularDist) +
		math.Cos(latRad)*math.Sin(angularDist)*math.Cos(bearingRad))
	destLon := lonRad + math.Atan2(
		math.Sin(bearingRad)*math.Sin(angularDist)*math.Cos(latRad),
		math.Cos(angularDist)-math.Sin(latRad)*math.Sin(destLat))

	return destLat * 180.0 / math.Pi, destLon * 180.0 / math.Pi
}
