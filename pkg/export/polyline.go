package export

import (
	"github.com/lintang-b-s/osmnet/pkg/network"
	"github.com/twpayne/go-polyline"
)

// EncodeLinkPolyline returns the link's geometry as a google encoded
// polyline (lat,lon order).
func EncodeLinkPolyline(link *network.Link) string {
	coords := make([][]float64, 0, len(link.Geometry()))
	for _, pt := range link.Geometry() {
		coords = append(coords, []float64{pt.Lat(), pt.Lon()})
	}
	return string(polyline.EncodeCoords(coords))
}
