package osmreader

import (
	"context"
	"math"
	"testing"

	"github.com/lintang-b-s/osmnet/pkg/logger"
	"github.com/lintang-b-s/osmnet/pkg/network"
	"github.com/lintang-b-s/osmnet/pkg/osmtags"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func newHandlerFixture(t *testing.T, countryCode string) (*layerHandler, *NodeRegistry) {
	t.Helper()
	cfg := DefaultConfig(countryCode)
	scheme := cfg.Scheme(osmtags.RoadInfrastructure)
	registry := NewNodeRegistry(nil)
	log, err := logger.New()
	require.NoError(t, err)
	return newLayerHandler(1, cfg, scheme, registry, log), registry
}

func TestHandleWaySimpleTwoWayRoad(t *testing.T) {
	h, registry := newHandlerFixture(t, "DEU")
	registry.RegisterNode(1, orb.Point{0, 0})
	registry.RegisterNode(2, orb.Point{0.001, 0})
	registry.RegisterNode(3, orb.Point{0.002, 0})

	way := &Way{ID: 5, NodeIDs: []int64{1, 2, 3}, Tags: map[string]string{
		"highway": "primary", "maxspeed": "60", "lanes": "2", "name": "Hauptstrasse",
	}}
	require.NoError(t, h.handleWay(way))
	require.NoError(t, h.finish())

	layer := h.data.Layer()
	require.Equal(t, 1, layer.CountLinks())
	link := layer.Links()[0]
	require.Equal(t, "5", link.ExternalID())
	require.Equal(t, "Hauptstrasse", link.Name())
	require.Equal(t, "primary", link.TypeValue())
	require.Len(t, link.Geometry(), 3)

	for _, dir := range []network.Direction{network.DirectionForward, network.DirectionBackward} {
		seg := link.Segment(dir)
		require.NotNil(t, seg, "two-way road carries a segment per direction")
		require.InDelta(t, 60.0, seg.MaxSpeedKmh(), 1e-9)
		require.Equal(t, 1, seg.Lanes(), "two total lanes split one per direction")
		require.True(t, seg.Type().Allows(network.ModeCar))
		require.False(t, seg.Type().Allows(network.ModeFoot), "through roads carry no pedestrians")
	}
	require.Same(t, link.Segment(network.DirectionForward).Type(),
		link.Segment(network.DirectionBackward).Type(),
		"no mode deltas, both directions share the default type")
	require.Equal(t, int64(1), h.stats.WaysProcessed)
	require.Equal(t, int64(1), h.stats.LinksCreated)
	require.Equal(t, int64(2), h.stats.SegmentsCreated)
}

func TestHandleWayOnewayWithOppositeCycleway(t *testing.T) {
	h, registry := newHandlerFixture(t, "DEU")
	registry.RegisterNode(1, orb.Point{0, 0})
	registry.RegisterNode(2, orb.Point{0.001, 0})

	way := &Way{ID: 6, NodeIDs: []int64{1, 2}, Tags: map[string]string{
		"highway": "residential", "oneway": "yes", "cycleway": "opposite_lane",
	}}
	require.NoError(t, h.handleWay(way))
	require.NoError(t, h.finish())

	require.Equal(t, 1, h.data.Layer().CountLinks())
	link := h.data.Layer().Links()[0]

	fwd := link.Segment(network.DirectionForward)
	require.NotNil(t, fwd)
	require.True(t, fwd.Type().Allows(network.ModeCar))
	require.True(t, fwd.Type().Allows(network.ModeBicycle))

	bwd := link.Segment(network.DirectionBackward)
	require.NotNil(t, bwd, "the contraflow cycle lane keeps the backward direction alive")
	require.True(t, bwd.Type().Allows(network.ModeBicycle))
	require.True(t, bwd.Type().Allows(network.ModeFoot))
	require.False(t, bwd.Type().Allows(network.ModeCar))
	require.False(t, bwd.Type().Allows(network.ModeBus))
}

func TestHandleWaySkipsAreasAndForeignKinds(t *testing.T) {
	h, registry := newHandlerFixture(t, "DEU")
	registry.RegisterNode(1, orb.Point{0, 0})
	registry.RegisterNode(2, orb.Point{0.001, 0})

	for _, way := range []*Way{
		{ID: 1, NodeIDs: []int64{1, 2}, Tags: map[string]string{"highway": "primary", "area": "yes"}},
		{ID: 2, NodeIDs: []int64{1, 2}, Tags: map[string]string{"railway": "rail"}},
		{ID: 3, NodeIDs: []int64{1, 2}, Tags: map[string]string{"building": "yes"}},
	} {
		require.NoError(t, h.handleWay(way))
	}
	require.Equal(t, int64(0), h.stats.WaysProcessed)
	require.Equal(t, 0, h.data.Layer().CountLinks())
}

func TestFinishResolvesRoundaboutWithForcedDirection(t *testing.T) {
	h, registry := newHandlerFixture(t, "DEU")

	// a counter-clockwise ring of four nodes
	for i := int64(1); i <= 4; i++ {
		angle := 2 * math.Pi * float64(i-1) / 4
		registry.RegisterNode(i, orb.Point{math.Cos(angle) * 0.001, math.Sin(angle) * 0.001})
	}
	// a straight road passing through ring node 2
	registry.RegisterNode(10, orb.Point{-0.002, 0.001})
	registry.RegisterNode(11, orb.Point{0.002, 0.001})
	straight := &Way{ID: 100, NodeIDs: []int64{10, 2, 11},
		Tags: map[string]string{"highway": "primary"}}
	roundabout := &Way{ID: 200, NodeIDs: []int64{1, 2, 3, 4, 1},
		Tags: map[string]string{"highway": "primary", "junction": "roundabout"}}

	require.NoError(t, h.handleWay(straight))
	require.NoError(t, h.handleWay(roundabout))
	require.Len(t, h.pendingCircular, 1, "the closed way is deferred")
	require.Equal(t, 1, h.data.Layer().CountLinks())

	require.NoError(t, h.finish())

	var ringLinks, straightLinks int
	for _, link := range h.data.Layer().Links() {
		if link.Removed() {
			continue
		}
		switch link.ExternalID() {
		case "200":
			ringLinks++
			require.True(t, link.HasSegment(network.DirectionForward))
			require.False(t, link.HasSegment(network.DirectionBackward),
				"right-hand traffic circulates counter-clockwise only")
		case "100":
			straightLinks++
			require.True(t, link.HasSegment(network.DirectionForward))
			require.True(t, link.HasSegment(network.DirectionBackward))
		}
	}
	require.Equal(t, 2, ringLinks, "the ring splits at its contact node and the synthesized midpoint")
	require.Equal(t, 2, straightLinks, "the crossing road is broken at the contact node")
	require.Equal(t, int64(1), h.stats.CircularWays)
}

func TestFinishBreaksPureIntersections(t *testing.T) {
	h, registry := newHandlerFixture(t, "DEU")
	registry.RegisterNode(1, orb.Point{-0.001, 0})
	registry.RegisterNode(2, orb.Point{0, 0})
	registry.RegisterNode(3, orb.Point{0.001, 0})
	registry.RegisterNode(4, orb.Point{0, -0.001})
	registry.RegisterNode(5, orb.Point{0, 0.001})

	for _, way := range []*Way{
		{ID: 301, NodeIDs: []int64{1, 2, 3}, Tags: map[string]string{"highway": "residential"}},
		{ID: 302, NodeIDs: []int64{4, 2, 5}, Tags: map[string]string{"highway": "residential"}},
	} {
		require.NoError(t, h.handleWay(way))
	}
	require.Equal(t, 2, h.data.Layer().CountLinks())
	require.Nil(t, h.data.NodeForOsmNode(2), "the shared node is interior to both ways")

	require.NoError(t, h.finish())

	crossing := h.data.NodeForOsmNode(2)
	require.NotNil(t, crossing, "the pure intersection is materialized")
	live := 0
	for _, link := range h.data.Layer().Links() {
		if link.Removed() {
			continue
		}
		live++
		require.True(t, crossing == link.NodeA() || crossing == link.NodeB())
	}
	require.Equal(t, 4, live)
	require.Equal(t, int64(2), h.stats.LinksBroken)
	require.Equal(t, 5, h.data.Layer().CountNodes())
}

func TestFinishResolvesClockwiseRoundabout(t *testing.T) {
	h, registry := newHandlerFixture(t, "DEU")

	// the same ring as above, but drawn clockwise
	for i := int64(1); i <= 4; i++ {
		angle := -2 * math.Pi * float64(i-1) / 4
		registry.RegisterNode(i, orb.Point{math.Cos(angle) * 0.001, math.Sin(angle) * 0.001})
	}
	registry.RegisterNode(10, orb.Point{-0.002, -0.001})
	registry.RegisterNode(11, orb.Point{0.002, -0.001})
	straight := &Way{ID: 100, NodeIDs: []int64{10, 2, 11},
		Tags: map[string]string{"highway": "primary"}}
	roundabout := &Way{ID: 200, NodeIDs: []int64{1, 2, 3, 4, 1},
		Tags: map[string]string{"highway": "primary", "junction": "roundabout"}}

	require.NoError(t, h.handleWay(straight))
	require.NoError(t, h.handleWay(roundabout))
	require.NoError(t, h.finish())

	ringLinks := 0
	for _, link := range h.data.Layer().Links() {
		if link.ExternalID() != "200" {
			continue
		}
		ringLinks++
		require.False(t, link.HasSegment(network.DirectionForward))
		require.True(t, link.HasSegment(network.DirectionBackward),
			"a clockwise ring in right-hand traffic is traversed against node order")
	}
	require.Equal(t, 2, ringLinks, "clockwise rings must not vanish")
}

func TestFinishPostPassesShareTheRegistryConcurrently(t *testing.T) {
	cfg := DefaultConfig("DEU")
	registry := NewNodeRegistry(nil)
	log, err := logger.New()
	require.NoError(t, err)
	road := newLayerHandler(1, cfg, cfg.Scheme(osmtags.RoadInfrastructure), registry, log)
	rail := newLayerHandler(2, cfg, cfg.Scheme(osmtags.RailInfrastructure), registry, log)

	// rings starting at a never-registered node: every half the circular
	// resolver extracts collapses or would need truncation, so both
	// post-passes mark ways unavailable while they run side by side
	for i := int64(0); i < 200; i++ {
		base := i * 10
		registry.RegisterNode(base+1, orb.Point{float64(i) * 0.01, 0})
		registry.RegisterNode(base+2, orb.Point{float64(i) * 0.01, 0.001})
		nodeIDs := []int64{base + 3, base + 1, base + 2, base + 3}
		require.NoError(t, road.handleWay(&Way{ID: 1000 + i, NodeIDs: nodeIDs,
			Tags: map[string]string{"highway": "residential"}}))
		require.NoError(t, rail.handleWay(&Way{ID: 5000 + i, NodeIDs: nodeIDs,
			Tags: map[string]string{"railway": "rail"}}))
	}
	require.Len(t, road.pendingCircular, 200)
	require.Len(t, rail.pendingCircular, 200)

	group, _ := errgroup.WithContext(context.Background())
	group.Go(road.finish)
	group.Go(rail.finish)
	require.NoError(t, group.Wait())

	require.False(t, road.data.IsWayAvailable(1000), "the collapsed ring is dropped in its own layer")
	require.False(t, rail.data.IsWayAvailable(5000))
	require.True(t, road.data.IsWayAvailable(5000), "way availability is layer-local state")
	require.True(t, rail.data.IsWayAvailable(1000))
}
