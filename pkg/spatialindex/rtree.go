package spatialindex

import (
	"math"

	"github.com/lintang-b-s/osmnet/pkg/geo"
	"github.com/lintang-b-s/osmnet/pkg/network"
	"github.com/paulmach/orb"
	"github.com/tidwall/rtree"
	"go.uber.org/zap"
)

// Rtree indexes the links of one network layer by the bounding box of their
// geometry, padded with a configurable radius so small links stay findable.
type Rtree struct {
	tr *rtree.RTreeG[*network.Link]
}

func NewRtree() *Rtree {
	var tr rtree.RTreeG[*network.Link]
	return &Rtree{tr: &tr}
}

// Build indexes every live link of the layer. boundingBoxRadius (km) pads
// each link's box on all sides.
func (rt *Rtree) Build(layer *network.Layer, boundingBoxRadius float64, log *zap.Logger) {
	log.Info("building r-tree spatial index", zap.String("layer", layer.String()))

	for _, link := range layer.Links() {
		minLat, minLon := math.Inf(1), math.Inf(1)
		maxLat, maxLon := math.Inf(-1), math.Inf(-1)
		for _, pt := range link.Geometry() {
			lowerLat, lowerLon := geo.GetDestinationPoint(pt.Lat(), pt.Lon(), 225, boundingBoxRadius)
			upperLat, upperLon := geo.GetDestinationPoint(pt.Lat(), pt.Lon(), 45, boundingBoxRadius)
			minLat = math.Min(minLat, lowerLat)
			minLon = math.Min(minLon, lowerLon)
			maxLat = math.Max(maxLat, upperLat)
			maxLon = math.Max(maxLon, upperLon)
		}
		rt.tr.Insert([2]float64{minLon, minLat}, [2]float64{maxLon, maxLat}, link)
	}

	log.Info("r-tree spatial index built", zap.Int("links", rt.tr.Len()))
}

// LinksNear returns up to limit links whose padded bounding box intersects
// the search box of the given radius (km) around the query point.
func (rt *Rtree) LinksNear(qLat, qLon, radius float64, limit int) []*network.Link {
	lowerLat, lowerLon := geo.GetDestinationPoint(qLat, qLon, 225, radius)
	upperLat, upperLon := geo.GetDestinationPoint(qLat, qLon, 45, radius)

	results := make([]*network.Link, 0, 10)
	rt.tr.Search([2]float64{lowerLon, lowerLat}, [2]float64{upperLon, upperLat},
		func(min, max [2]float64, link *network.Link) bool {
			results = append(results, link)
			return limit <= 0 || len(results) < limit
		})
	return results
}

// NearestLink snaps the query point to the closest link within radius (km).
// It returns the link, the projected point on its geometry and the distance
// in meters, or nil when no link is within reach.
func (rt *Rtree) NearestLink(qLat, qLon, radius float64) (*network.Link, orb.Point, float64) {
	query := orb.Point{qLon, qLat}

	var (
		best     *network.Link
		bestPt   orb.Point
		bestDist = math.Inf(1)
	)
	for _, link := range rt.LinksNear(qLat, qLon, radius, 0) {
		geom := link.Geometry()
		for i := 1; i < len(geom); i++ {
			dist := geo.PointLinePerpendicularDistance(geom[i-1], geom[i], query)
			if dist < bestDist {
				best = link
				bestPt = geo.ProjectPointToLine(geom[i-1], geom[i], query)
				bestDist = dist
			}
		}
	}
	if best == nil {
		return nil, orb.Point{}, 0
	}
	return best, bestPt, bestDist
}
