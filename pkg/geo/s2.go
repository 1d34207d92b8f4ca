package geo

import (
	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
)

func toS2(pt orb.Point) s2.Point {
	return s2.PointFromLatLng(s2.LatLngFromDegrees(pt.Lat(), pt.Lon()))
}

func fromS2(pt s2.Point) orb.Point {
	ll := s2.LatLngFromPoint(pt)
	return orb.Point{ll.Lng.Degrees(), ll.Lat.Degrees()}
}

// ProjectPointToLine projects snap onto the geodesic segment (pointA, pointB).
func ProjectPointToLine(pointA, pointB, snap orb.Point) orb.Point {
	projection := s2.Project(toS2(snap), toS2(pointA), toS2(pointB))
	return fromS2(projection)
}

// PointLinePerpendicularDistance returns the distance in meters between snap
// and its projection onto the segment (pointA, pointB).
func PointLinePerpendicularDistance(pointA, pointB, snap orb.Point) float64 {
	projection := ProjectPointToLine(pointA, pointB, snap)
	dist := CalculateHaversineDistance(snap.Lat(), snap.Lon(), projection.Lat(), projection.Lon())
	return dist * 1000
}
