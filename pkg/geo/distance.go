package geo

import (
	"math"

	"github.com/lintang-b-s/osmnet/pkg/util"
	"github.com/paulmach/orb"
)

const (
	earthRadiusKM = 6371.0
)

func havFunction(angleRad float64) float64 {
	return (1 - math.Cos(angleRad)) / 2.0
}

// CalculateHaversineDistance. calculate haversine distance in km
func CalculateHaversineDistance(latOne, longOne, latTwo, longTwo float64) float64 {
	latOne = util.DegreeToRadians(latOne)
	longOne = util.DegreeToRadians(longOne)
	latTwo = util.DegreeToRadians(latTwo)
	longTwo = util.DegreeToRadians(longTwo)

	a := havFunction(latOne-latTwo) + math.Cos(latOne)*math.Cos(latTwo)*havFunction(longOne-longTwo)
	return 2 * earthRadiusKM * math.Asin(math.Sqrt(a))
}

// LengthMeters returns the geodesic length of a polyline in meters.
func LengthMeters(ls orb.LineString) float64 {
	length := 0.0
	for i := 1; i < len(ls); i++ {
		length += CalculateHaversineDistance(ls[i-1].Lat(), ls[i-1].Lon(), ls[i].Lat(), ls[i].Lon())
	}
	return length * 1000
}

// GetDestinationPoint returns the coordinate reached when travelling distanceKm
// from (lat, lon) along the given initial bearing (in degrees).
func GetDestinationPoint(lat, lon, bearingDegree, distanceKm float64) (float64, float64) {
	latRad := util.DegreeToRadians(lat)
	lonRad := util.DegreeToRadians(lon)
	bearing := util.DegreeToRadians(bearingDegree)
	angular := distanceKm / earthRadiusKM

	destLat := math.Asin(math.Sin(latRad)*math.Cos(angular) +
		math.Cos(latRad)*math.Sin(angular)*math.Cos(bearing))
	destLon := lonRad + math.Atan2(
		math.Sin(bearing)*math.Sin(angular)*math.Cos(latRad),
		math.Cos(angular)-math.Sin(latRad)*math.Sin(destLat))

	return util.RadiansToDegree(destLat), util.RadiansToDegree(destLon)
}
