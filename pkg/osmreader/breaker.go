package osmreader

import (
	"strconv"

	"github.com/lintang-b-s/osmnet/pkg/network"
	"go.uber.org/zap"
)

// Breaker restores the invariant that two links only meet at shared endpoint
// nodes. It runs once per layer after all ways are processed, splitting every
// link that has a node, or a pure intersection location, strictly interior
// to its geometry.
type Breaker struct {
	data  *LayerData
	stats *Stats
	log   *zap.Logger
}

func NewBreaker(data *LayerData, stats *Stats, log *zap.Logger) *Breaker {
	return &Breaker{data: data, stats: stats, log: log}
}

// Run performs the two-phase breaking pass. Phase one visits every node
// created during way processing, in creation order, and breaks the links its
// location is internal to. Phase two materializes nodes for locations
// internal to two or more links that never became a link endpoint, in OSM
// node id order, and breaks there as well.
func (b *Breaker) Run() error {
	layer := b.data.Layer()

	original := make([]*network.Node, len(layer.Nodes()))
	copy(original, layer.Nodes())
	for _, node := range original {
		if !b.data.HasInternalLocation(node.Position()) {
			continue
		}
		if err := b.breakAt(node); err != nil {
			return err
		}
	}

	for _, entry := range b.data.pendingIntersections(2) {
		node := b.data.NodeForLocation(entry.position)
		if node == nil {
			node = layer.CreateNode(entry.position, entry.osmNodeID)
			b.data.RegisterNode(node)
			b.stats.NodesCreated++
		}
		if err := b.breakAt(node); err != nil {
			return err
		}
	}
	return nil
}

// breakAt splits every link registered against the node's location. Links
// broken earlier along the same way are re-resolved to the fragment that
// currently contains the location.
func (b *Breaker) breakAt(node *network.Node) error {
	for _, link := range b.data.LinksWithInternalLocation(node.Position()) {
		wayID, fragment := b.resolveFragment(link, node)
		if fragment == nil {
			continue
		}
		_, _, err := b.data.Layer().BreakLinkAt(fragment, node, func(orig, first, second *network.Link) {
			b.data.ReplaceWayLink(wayID, orig, first, second)
		})
		if err != nil {
			return err
		}
		b.stats.LinksBroken++
	}
	b.data.dropInternal(node.Position())
	return nil
}

// resolveFragment maps a registered link to whichever current fragment of
// its way still has the node strictly interior. It returns nil when the node
// already became a fragment endpoint (no break needed) or when no fragment
// matches (malformed way, logged and dropped).
func (b *Breaker) resolveFragment(link *network.Link, node *network.Node) (int64, *network.Link) {
	wayID, err := strconv.ParseInt(link.ExternalID(), 10, 64)
	if err != nil {
		b.log.Warn("link carries a non numeric way id, skipping break",
			zap.Int64("linkID", link.ID()), zap.String("externalID", link.ExternalID()))
		return 0, nil
	}

	candidates := []*network.Link{link}
	if b.data.OsmWayHasMultipleLinks(wayID) {
		candidates = b.data.LinksForOsmWay(wayID)
	}

	for _, candidate := range candidates {
		if candidate.Removed() {
			continue
		}
		if node == candidate.NodeA() || node == candidate.NodeB() {
			// an earlier break already made the location an endpoint
			return wayID, nil
		}
		if candidate.HasInteriorPoint(node.Position()) {
			return wayID, candidate
		}
	}

	b.log.Warn("internal location matches no current fragment of its way, dropping",
		zap.Int64("osmWayID", wayID), zap.Int64("nodeID", node.ID()),
		zap.Float64("lon", node.Position().Lon()), zap.Float64("lat", node.Position().Lat()))
	return wayID, nil
}
