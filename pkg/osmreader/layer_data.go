package osmreader

import (
	"sort"

	"github.com/lintang-b-s/osmnet/pkg/network"
	"github.com/lintang-b-s/osmnet/pkg/util"
	"github.com/paulmach/orb"
)

// locationKey identifies a geometric location with coordinates rounded to
// seven decimals (roughly centimeter precision), so that lookups survive
// float round-tripping.
type locationKey [2]float64

func locKey(pt orb.Point) locationKey {
	return locationKey{util.RoundFloat(pt.Lon(), 7), util.RoundFloat(pt.Lat(), 7)}
}

// internalEntry records one location that lies strictly between the two
// endpoints of at least one link. These entries are the trigger set for the
// link breaking pass.
type internalEntry struct {
	osmNodeID int64 // 0 for synthetic stop locations
	position  orb.Point
	links     []*network.Link
}

// LayerData is the per-layer bookkeeping built up during a run: OSM node to
// network node, OSM way to resulting links (when a way was split into more
// than one), and location to the links for which that location is internal.
type LayerData struct {
	layer *network.Layer

	nodesByOsmID    map[int64]*network.Node
	nodesByLocation map[locationKey]*network.Node

	singleWayLink map[int64]*network.Link
	wayLinks      map[int64][]*network.Link

	internals map[locationKey]*internalEntry

	unavailableWays map[int64]struct{}
}

func NewLayerData(layer *network.Layer) *LayerData {
	return &LayerData{
		layer:           layer,
		nodesByOsmID:    make(map[int64]*network.Node),
		nodesByLocation: make(map[locationKey]*network.Node),
		singleWayLink:   make(map[int64]*network.Link),
		wayLinks:        make(map[int64][]*network.Link),
		internals:       make(map[locationKey]*internalEntry),
		unavailableWays: make(map[int64]struct{}),
	}
}

// MarkWayUnavailable flags a way as processed-and-dropped in this layer so
// dependents can skip it silently instead of re-reporting it.
func (d *LayerData) MarkWayUnavailable(osmWayID int64) {
	d.unavailableWays[osmWayID] = struct{}{}
}

// IsWayAvailable reports whether the way has not been dropped in this layer.
func (d *LayerData) IsWayAvailable(osmWayID int64) bool {
	_, dropped := d.unavailableWays[osmWayID]
	return !dropped
}

// Layer returns the network layer this data belongs to.
func (d *LayerData) Layer() *network.Layer {
	return d.layer
}

// RegisterNode indexes a network node by its OSM id (when it has one) and by
// location.
func (d *LayerData) RegisterNode(node *network.Node) {
	if node.HasExternalID() {
		d.nodesByOsmID[node.ExternalID()] = node
	}
	d.nodesByLocation[locKey(node.Position())] = node
}

// NodeForOsmNode returns the network node created for an OSM node, or nil.
func (d *LayerData) NodeForOsmNode(osmNodeID int64) *network.Node {
	return d.nodesByOsmID[osmNodeID]
}

// NodeForLocation returns the network node at a location, or nil.
func (d *LayerData) NodeForLocation(pt orb.Point) *network.Node {
	return d.nodesByLocation[locKey(pt)]
}

// RegisterInternal records that pt lies strictly between the endpoints of
// link. osmNodeID is 0 for synthetic locations.
func (d *LayerData) RegisterInternal(pt orb.Point, osmNodeID int64, link *network.Link) {
	key := locKey(pt)
	entry, ok := d.internals[key]
	if !ok {
		entry = &internalEntry{osmNodeID: osmNodeID, position: pt}
		d.internals[key] = entry
	}
	entry.links = append(entry.links, link)
}

// LinksWithInternalLocation returns the links for which pt was registered as
// an interior location.
func (d *LayerData) LinksWithInternalLocation(pt orb.Point) []*network.Link {
	entry, ok := d.internals[locKey(pt)]
	if !ok {
		return nil
	}
	return entry.links
}

// HasInternalLocation reports whether any link has pt strictly between its
// endpoints.
func (d *LayerData) HasInternalLocation(pt orb.Point) bool {
	entry, ok := d.internals[locKey(pt)]
	return ok && len(entry.links) > 0
}

// dropInternal removes the trigger entry for pt once it has been fully
// handled (or found unresolvable).
func (d *LayerData) dropInternal(pt orb.Point) {
	delete(d.internals, locKey(pt))
}

// pendingIntersections returns the locations internal to at least minLinks
// links that never became a node, sorted by OSM node id for determinism.
func (d *LayerData) pendingIntersections(minLinks int) []*internalEntry {
	out := make([]*internalEntry, 0)
	for _, entry := range d.internals {
		if len(entry.links) < minLinks {
			continue
		}
		if d.NodeForLocation(entry.position) != nil {
			continue
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].osmNodeID != out[j].osmNodeID {
			return out[i].osmNodeID < out[j].osmNodeID
		}
		ki, kj := locKey(out[i].position), locKey(out[j].position)
		if ki[0] != kj[0] {
			return ki[0] < kj[0]
		}
		return ki[1] < kj[1]
	})
	return out
}

// RegisterWayLink records a link produced for an OSM way. The first link per
// way is tracked implicitly (its external id is the way id); further links
// promote the way into the multi-link index.
func (d *LayerData) RegisterWayLink(osmWayID int64, link *network.Link) {
	if links, ok := d.wayLinks[osmWayID]; ok {
		d.wayLinks[osmWayID] = append(links, link)
		return
	}
	if first, ok := d.singleWayLink[osmWayID]; ok {
		delete(d.singleWayLink, osmWayID)
		d.wayLinks[osmWayID] = []*network.Link{first, link}
		return
	}
	d.singleWayLink[osmWayID] = link
}

// OsmWayHasMultipleLinks reports whether the way was split into more than
// one link (circular decomposition or link breaking).
func (d *LayerData) OsmWayHasMultipleLinks(osmWayID int64) bool {
	_, ok := d.wayLinks[osmWayID]
	return ok
}

// LinksForOsmWay returns the current set of links representing the way.
func (d *LayerData) LinksForOsmWay(osmWayID int64) []*network.Link {
	if links, ok := d.wayLinks[osmWayID]; ok {
		return links
	}
	if link, ok := d.singleWayLink[osmWayID]; ok {
		return []*network.Link{link}
	}
	return nil
}

// ReplaceWayLink substitutes a broken link with its fragments in the way
// index, merging with any fragments from earlier breaks of the same way.
func (d *LayerData) ReplaceWayLink(osmWayID int64, removed *network.Link, added ...*network.Link) {
	current := d.LinksForOsmWay(osmWayID)
	delete(d.singleWayLink, osmWayID)

	next := make([]*network.Link, 0, len(current)+len(added))
	for _, link := range current {
		if link != removed {
			next = append(next, link)
		}
	}
	next = append(next, added...)
	d.wayLinks[osmWayID] = next
}
