package osmreader

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// NodeRegistry tracks which OSM nodes are spatially eligible and keeps only
// those in memory. Nodes outside the bounding area are dropped unless they
// were explicitly marked to be retained before streaming started. Once the
// node scan is done the registry is only read, so the per-layer post-passes
// may share it concurrently.
type NodeRegistry struct {
	bounding  orb.Polygon // nil accepts everything
	keep      map[int64]struct{}
	positions map[int64]orb.Point
}

func NewNodeRegistry(bounding orb.Polygon) *NodeRegistry {
	return &NodeRegistry{
		bounding:  bounding,
		keep:      make(map[int64]struct{}),
		positions: make(map[int64]orb.Point),
	}
}

// MarkKeep retains the node regardless of the bounding area. Must be called
// before the node is streamed.
func (r *NodeRegistry) MarkKeep(osmNodeID int64) {
	r.keep[osmNodeID] = struct{}{}
}

// IsWithinBoundingArea reports whether a point falls inside the configured
// bounding area.
func (r *NodeRegistry) IsWithinBoundingArea(pt orb.Point) bool {
	if r.bounding == nil {
		return true
	}
	return planar.PolygonContains(r.bounding, pt)
}

// RegisterNode stores the node when it is eligible and reports whether it
// was kept.
func (r *NodeRegistry) RegisterNode(osmNodeID int64, pt orb.Point) bool {
	if _, forced := r.keep[osmNodeID]; !forced && !r.IsWithinBoundingArea(pt) {
		return false
	}
	r.positions[osmNodeID] = pt
	return true
}

// IsAvailable reports whether the node was registered as eligible.
func (r *NodeRegistry) IsAvailable(osmNodeID int64) bool {
	_, ok := r.positions[osmNodeID]
	return ok
}

// Position returns the stored location of an eligible node.
func (r *NodeRegistry) Position(osmNodeID int64) (orb.Point, bool) {
	pt, ok := r.positions[osmNodeID]
	return pt, ok
}

// CountNodes returns the number of eligible nodes in memory.
func (r *NodeRegistry) CountNodes() int {
	return len(r.positions)
}
