package osmreader

import (
	"strconv"

	"github.com/lintang-b-s/osmnet/pkg/network"
	"github.com/lintang-b-s/osmnet/pkg/osmtags"
	"github.com/lintang-b-s/osmnet/pkg/util"
	"github.com/paulmach/orb"
	"go.uber.org/zap"
)

// LinkBuilder converts a contiguous node-index range of a way into a single
// undirected link, reusing an existing link when one with the same endpoints
// and geometry already exists.
type LinkBuilder struct {
	registry *NodeRegistry
	data     *LayerData
	stats    *Stats
	log      *zap.Logger
}

func NewLinkBuilder(registry *NodeRegistry, data *LayerData, stats *Stats, log *zap.Logger) *LinkBuilder {
	return &LinkBuilder{
		registry: registry,
		data:     data,
		stats:    stats,
		log:      log,
	}
}

// BuildOrReuse builds the link for way[startIdx..endIdx]. It returns nil
// without error when the fragment has to be discarded because of missing
// (clipped) nodes; the way is then marked unavailable so dependents skip it
// silently. Invalid indices are a programming error, not bad data.
func (b *LinkBuilder) BuildOrReuse(way *Way, startIdx, endIdx int, allowTruncation bool, typeValue string) (*network.Link, error) {
	if startIdx < 0 || endIdx >= len(way.NodeIDs) || startIdx >= endIdx {
		return nil, util.WrapErrorf(nil, util.ErrInvariant,
			"invalid node index range [%d,%d] for way %d with %d nodes",
			startIdx, endIdx, way.ID, len(way.NodeIDs))
	}

	firstIdx, lastIdx := -1, -1
	for i := startIdx; i <= endIdx; i++ {
		if b.registry.IsAvailable(way.NodeIDs[i]) {
			firstIdx = i
			break
		}
	}
	for i := endIdx; i >= startIdx; i-- {
		if b.registry.IsAvailable(way.NodeIDs[i]) {
			lastIdx = i
			break
		}
	}

	if firstIdx < 0 || firstIdx == lastIdx {
		// the fragment collapsed to nothing or a single point, usually a
		// consequence of bounding area clipping
		b.discard(way, "fragment collapsed after resolving available nodes")
		return nil, nil
	}
	if !allowTruncation && (firstIdx != startIdx || lastIdx != endIdx) {
		b.discard(way, "truncation not allowed for this fragment")
		return nil, nil
	}

	geometry := make(orb.LineString, 0, lastIdx-firstIdx+1)
	for i := firstIdx; i <= lastIdx; i++ {
		pos, ok := b.registry.Position(way.NodeIDs[i])
		if !ok {
			b.log.Debug("skipping unavailable node in way geometry",
				zap.Int64("osmWayID", way.ID), zap.Int64("osmNodeID", way.NodeIDs[i]))
			continue
		}
		// drop consecutive duplicate coordinates of degenerate geometry
		if n := len(geometry); n > 0 && geometry[n-1] == pos {
			continue
		}
		geometry = append(geometry, pos)
	}
	if len(geometry) < 2 {
		b.discard(way, "degenerate geometry")
		return nil, nil
	}

	nodeA := b.nodeFor(way.NodeIDs[firstIdx])
	nodeB := b.nodeFor(way.NodeIDs[lastIdx])
	if nodeA == nil || nodeB == nil || nodeA == nodeB {
		b.discard(way, "could not resolve two distinct endpoint nodes")
		return nil, nil
	}

	if existing := b.findEqualLink(nodeA, nodeB, geometry); existing != nil {
		return existing, nil
	}

	link, err := b.data.Layer().CreateLink(nodeA, nodeB, geometry, strconv.FormatInt(way.ID, 10))
	if err != nil {
		return nil, err
	}
	link.SetName(way.Name())
	link.SetTypeValue(typeValue)
	link.SetVerticalLayer(osmtags.VerticalLayer(way.Tags))
	b.stats.LinksCreated++

	for i := firstIdx + 1; i < lastIdx; i++ {
		pos, ok := b.registry.Position(way.NodeIDs[i])
		if !ok {
			continue
		}
		b.data.RegisterInternal(pos, way.NodeIDs[i], link)
	}

	b.data.RegisterWayLink(way.ID, link)
	return link, nil
}

// nodeFor returns the network node for an OSM node, creating and indexing it
// on first use.
func (b *LinkBuilder) nodeFor(osmNodeID int64) *network.Node {
	if node := b.data.NodeForOsmNode(osmNodeID); node != nil {
		return node
	}
	pos, ok := b.registry.Position(osmNodeID)
	if !ok {
		return nil
	}
	node := b.data.Layer().CreateNode(pos, osmNodeID)
	b.data.RegisterNode(node)
	b.stats.NodesCreated++
	return node
}

// findEqualLink returns an existing link with the same endpoints and
// coordinate-wise equal geometry; this occurs when a way is visited more
// than once, e.g. through multiple layers.
func (b *LinkBuilder) findEqualLink(a, bNode *network.Node, geometry orb.LineString) *network.Link {
	for _, candidate := range b.data.Layer().LinksBetween(a, bNode) {
		candGeom := candidate.Geometry()
		if candidate.NodeA() == a && network.GeometryEqual(candGeom, geometry) {
			return candidate
		}
		if candidate.NodeA() == bNode && network.GeometryEqual(candGeom, util.ReverseG(geometry)) {
			return candidate
		}
	}
	return nil
}

func (b *LinkBuilder) discard(way *Way, reason string) {
	b.log.Debug("discarding way fragment",
		zap.Int64("osmWayID", way.ID), zap.String("reason", reason))
	b.data.MarkWayUnavailable(way.ID)
	b.stats.WaysDiscarded++
}
