package export

import (
	"bufio"
	"fmt"
	"os"
	"strconv"

	"github.com/dsnet/compress/bzip2"
	"github.com/lintang-b-s/osmnet/pkg/geo"
	"github.com/lintang-b-s/osmnet/pkg/network"
)

// WriteNetworkFile writes the layer as a bzip2-compressed plain text file:
// a counts header, then one line per node, segment type, link and segment.
// Link geometry is stored as an encoded polyline.
func WriteNetworkFile(layer *network.Layer, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	bz, err := bzip2.NewWriter(f, &bzip2.WriterConfig{})
	if err != nil {
		return err
	}
	defer bz.Close()

	w := bufio.NewWriter(bz)

	links := layer.Links()
	segments := layer.Segments()
	types := layer.SegmentTypes()

	fmt.Fprintf(w, "%d %d %d %d\n", layer.CountNodes(), len(links), len(segments), len(types))

	for _, n := range layer.Nodes() {
		latF := strconv.FormatFloat(n.Position().Lat(), 'f', -1, 64)
		lonF := strconv.FormatFloat(n.Position().Lon(), 'f', -1, 64)
		fmt.Fprintf(w, "%d %d %s %s\n", n.ID(), n.ExternalID(), latF, lonF)
	}

	for _, t := range types {
		fmt.Fprintf(w, "%d %q %q %s\n", t.ID(), t.Name(), t.ExternalID(), t.Modes().Key())
	}

	for _, link := range links {
		lengthF := strconv.FormatFloat(geo.LengthMeters(link.Geometry()), 'f', 2, 64)
		fmt.Fprintf(w, "%d %d %d %s %d %s %q %s %s\n",
			link.ID(), link.NodeA().ID(), link.NodeB().ID(),
			link.ExternalID(), link.VerticalLayer(), link.TypeValue(),
			link.Name(), lengthF, EncodeLinkPolyline(link))
	}

	for _, seg := range segments {
		speedF := strconv.FormatFloat(seg.MaxSpeedKmh(), 'f', -1, 64)
		fmt.Fprintf(w, "%d %d %s %d %s %d\n",
			seg.ID(), seg.Parent().ID(), seg.Direction(),
			seg.Type().ID(), speedF, seg.Lanes())
	}

	return w.Flush()
}
