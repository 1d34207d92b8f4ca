package osmreader

import (
	"testing"

	"github.com/lintang-b-s/osmnet/pkg/logger"
	"github.com/lintang-b-s/osmnet/pkg/network"
	"github.com/lintang-b-s/osmnet/pkg/osmtags"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"
)

func newBreakerFixture(t *testing.T) (*network.Layer, *LayerData, *Stats, *Breaker) {
	t.Helper()
	cfg := DefaultConfig("DEU")
	layer := network.NewLayer(1, "road", cfg.Scheme(osmtags.RoadInfrastructure).SupportedModes())
	data := NewLayerData(layer)
	stats := &Stats{}
	log, err := logger.New()
	require.NoError(t, err)
	return layer, data, stats, NewBreaker(data, stats, log)
}

func mustLink(t *testing.T, layer *network.Layer, data *LayerData, wayID string, geometry orb.LineString, extA, extB int64) *network.Link {
	t.Helper()
	a := layer.CreateNode(geometry[0], extA)
	b := layer.CreateNode(geometry[len(geometry)-1], extB)
	data.RegisterNode(a)
	data.RegisterNode(b)
	link, err := layer.CreateLink(a, b, geometry, wayID)
	require.NoError(t, err)
	return link
}

func liveLinks(layer *network.Layer) []*network.Link {
	var out []*network.Link
	for _, l := range layer.Links() {
		if !l.Removed() {
			out = append(out, l)
		}
	}
	return out
}

func TestBreakerRemapsLaterBreaksToFragments(t *testing.T) {
	layer, data, stats, breaker := newBreakerFixture(t)

	p := func(i int) orb.Point { return orb.Point{float64(i) * 0.001, 0} }
	link := mustLink(t, layer, data, "42",
		orb.LineString{p(0), p(1), p(2), p(3), p(4)}, 10, 14)
	data.RegisterWayLink(42, link)

	// crossing ways created real nodes at two interior coordinates
	for i, osmID := range map[int]int64{1: 11, 3: 13} {
		node := layer.CreateNode(p(i), osmID)
		data.RegisterNode(node)
		data.RegisterInternal(p(i), osmID, link)
	}

	require.NoError(t, breaker.Run())

	// the second break lands on a fragment of the first one, so the way
	// ends up as three fragments covering the original geometry
	fragments := data.LinksForOsmWay(42)
	require.Len(t, fragments, 3)
	require.True(t, link.Removed())
	require.Len(t, liveLinks(layer), 3)
	require.Equal(t, int64(2), stats.LinksBroken)

	for _, frag := range fragments {
		require.False(t, frag.Removed())
		require.Equal(t, "42", frag.ExternalID())
		require.False(t, frag.HasInteriorPoint(p(1)))
		require.False(t, frag.HasInteriorPoint(p(3)))
	}
	total := 0
	for _, frag := range fragments {
		total += len(frag.Geometry()) - 1
	}
	require.Equal(t, 4, total, "fragments cover the original coordinates")
}

func TestBreakerMaterializesPureIntersections(t *testing.T) {
	layer, data, stats, breaker := newBreakerFixture(t)

	cross := orb.Point{0.001, 0.001}
	linkA := mustLink(t, layer, data, "1",
		orb.LineString{{0, 0.001}, cross, {0.002, 0.001}}, 1, 2)
	linkB := mustLink(t, layer, data, "2",
		orb.LineString{{0.001, 0}, cross, {0.001, 0.002}}, 3, 4)
	data.RegisterWayLink(1, linkA)
	data.RegisterWayLink(2, linkB)
	data.RegisterInternal(cross, 99, linkA)
	data.RegisterInternal(cross, 99, linkB)

	require.NoError(t, breaker.Run())

	require.Equal(t, int64(1), stats.NodesCreated, "one node synthesized at the crossing")
	require.Equal(t, int64(2), stats.LinksBroken)
	require.Len(t, liveLinks(layer), 4)

	node := data.NodeForOsmNode(99)
	require.NotNil(t, node)
	require.Equal(t, cross, node.Position())
	for _, l := range liveLinks(layer) {
		require.True(t, node == l.NodeA() || node == l.NodeB(),
			"every fragment ends at the synthesized crossing node")
	}
}

func TestBreakerIgnoresSingleLinkInteriors(t *testing.T) {
	layer, data, stats, breaker := newBreakerFixture(t)

	mid := orb.Point{0.001, 0}
	link := mustLink(t, layer, data, "7",
		orb.LineString{{0, 0}, mid, {0.002, 0}}, 1, 2)
	data.RegisterWayLink(7, link)
	data.RegisterInternal(mid, 50, link)

	require.NoError(t, breaker.Run())

	require.False(t, link.Removed())
	require.Len(t, liveLinks(layer), 1)
	require.Equal(t, int64(0), stats.LinksBroken)
	require.Equal(t, int64(0), stats.NodesCreated)
}
