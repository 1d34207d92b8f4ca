package export

import (
	"os"

	"github.com/lintang-b-s/osmnet/pkg/geo"
	"github.com/lintang-b-s/osmnet/pkg/network"
	"github.com/paulmach/orb/geojson"
)

// WriteGeoJSON writes the layer's live links as a GeoJSON FeatureCollection,
// one LineString feature per link with its directed segments flattened into
// properties.
func WriteGeoJSON(layer *network.Layer, filename string) error {
	fc := geojson.NewFeatureCollection()
	for _, link := range layer.Links() {
		feature := geojson.NewFeature(link.Geometry())
		feature.Properties = geojson.Properties{
			"id":            link.ID(),
			"osmWayId":      link.ExternalID(),
			"name":          link.Name(),
			"type":          link.TypeValue(),
			"verticalLayer": link.VerticalLayer(),
			"lengthMeters":  geo.LengthMeters(link.Geometry()),
		}
		for _, dir := range []network.Direction{network.DirectionForward, network.DirectionBackward} {
			seg := link.Segment(dir)
			if seg == nil {
				continue
			}
			prefix := dir.String()
			feature.Properties[prefix+"MaxSpeedKmh"] = seg.MaxSpeedKmh()
			feature.Properties[prefix+"Lanes"] = seg.Lanes()
			feature.Properties[prefix+"Modes"] = seg.Type().Modes().String()
		}
		fc.Append(feature)
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}
