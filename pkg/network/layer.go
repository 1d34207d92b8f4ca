package network

import (
	"fmt"
	"math"

	"github.com/lintang-b-s/osmnet/pkg/util"
	"github.com/paulmach/orb"
)

const coordEpsilon = 1e-9

func coordEqual(a, b orb.Point) bool {
	return math.Abs(a.Lon()-b.Lon()) < coordEpsilon && math.Abs(a.Lat()-b.Lat()) < coordEpsilon
}

// GeometryEqual reports whether two polylines are coordinate-wise equal.
func GeometryEqual(a, b orb.LineString) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !coordEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

type nodePair [2]int64

func pairKey(a, b *Node) nodePair {
	if a.id < b.id {
		return nodePair{a.id, b.id}
	}
	return nodePair{b.id, a.id}
}

// Layer is one partition of the network by mode group (road, rail, water).
// It owns its nodes, links, segments and types and generates their internal
// ids. All mutation is single-threaded per layer.
type Layer struct {
	id             int
	name           string
	supportedModes ModeSet

	nodes    []*Node
	links    []*Link
	segments []*LinkSegment
	types    []*LinkSegmentType

	linksByPair map[nodePair][]*Link

	nextNodeID    int64
	nextLinkID    int64
	nextSegmentID int64
	nextTypeID    int64
}

func NewLayer(id int, name string, supportedModes ModeSet) *Layer {
	return &Layer{
		id:             id,
		name:           name,
		supportedModes: supportedModes,
		linksByPair:    make(map[nodePair][]*Link),
	}
}

func (l *Layer) ID() int {
	return l.id
}

func (l *Layer) Name() string {
	return l.name
}

// SupportedModes returns the modes this layer carries at all.
func (l *Layer) SupportedModes() ModeSet {
	return l.supportedModes
}

// CreateNode registers a new node. externalID is the raw OSM node id, or 0
// for synthesized locations.
func (l *Layer) CreateNode(position orb.Point, externalID int64) *Node {
	l.nextNodeID++
	n := &Node{
		id:         l.nextNodeID,
		externalID: externalID,
		position:   position,
	}
	l.nodes = append(l.nodes, n)
	return n
}

// CreateLink registers a new undirected link between two distinct nodes. The
// geometry must start at a's position and end at b's.
func (l *Layer) CreateLink(a, b *Node, geometry orb.LineString, externalID string) (*Link, error) {
	if a == nil || b == nil || a == b {
		return nil, util.WrapErrorf(nil, util.ErrInvariant, "link endpoints must be two distinct nodes")
	}
	if len(geometry) < 2 {
		return nil, util.WrapErrorf(nil, util.ErrInvariant, "link geometry must have at least two coordinates")
	}
	if !coordEqual(geometry[0], a.position) || !coordEqual(geometry[len(geometry)-1], b.position) {
		return nil, util.WrapErrorf(nil, util.ErrInvariant,
			"link geometry must start and end at its endpoint node positions")
	}

	l.nextLinkID++
	link := &Link{
		id:         l.nextLinkID,
		nodeA:      a,
		nodeB:      b,
		geometry:   geometry,
		externalID: externalID,
	}
	l.links = append(l.links, link)

	key := pairKey(a, b)
	l.linksByPair[key] = append(l.linksByPair[key], link)
	return link, nil
}

// LinksBetween returns the existing links connecting the two nodes.
func (l *Layer) LinksBetween(a, b *Node) []*Link {
	return l.linksByPair[pairKey(a, b)]
}

// CreateSegment attaches a directed segment to the link. At most one segment
// may exist per direction.
func (l *Layer) CreateSegment(link *Link, dir Direction, t *LinkSegmentType, maxSpeedKmh float64, lanes int) (*LinkSegment, error) {
	if t == nil {
		return nil, util.WrapErrorf(nil, util.ErrInvariant, "link segment requires a type")
	}
	if link.Segment(dir) != nil {
		return nil, util.WrapErrorf(nil, util.ErrInvariant,
			"link %d already has a %s segment", link.id, dir)
	}

	l.nextSegmentID++
	seg := &LinkSegment{
		id:          l.nextSegmentID,
		parent:      link,
		direction:   dir,
		segmentType: t,
		maxSpeedKmh: maxSpeedKmh,
		lanes:       lanes,
	}
	if dir == DirectionForward {
		link.forward = seg
	} else {
		link.backward = seg
	}
	l.segments = append(l.segments, seg)
	return seg, nil
}

// RegisterSegmentType registers a new immutable link segment type.
func (l *Layer) RegisterSegmentType(name, externalID string, access map[Mode]AccessProperties) *LinkSegmentType {
	l.nextTypeID++
	cloned := make(map[Mode]AccessProperties, len(access))
	for m, props := range access {
		cloned[m] = props
	}
	t := &LinkSegmentType{
		id:         l.nextTypeID,
		name:       name,
		externalID: externalID,
		access:     cloned,
	}
	l.types = append(l.types, t)
	return t
}

// CloneSegmentType deep-copies base into a newly registered type with the
// given name suffix and access map overrides applied by the caller.
func (l *Layer) CloneSegmentType(base *LinkSegmentType, suffix string) *LinkSegmentType {
	return l.RegisterSegmentType(base.name+suffix, base.externalID+suffix, base.cloneAccess())
}

// ModifySegmentTypeAccess is only legal on a type that has not been attached
// to any segment yet; the type resolver uses it to finish a fresh clone.
func (l *Layer) ModifySegmentTypeAccess(t *LinkSegmentType, add map[Mode]AccessProperties, remove ModeSet) {
	for m, props := range add {
		t.access[m] = props
	}
	for m := range remove {
		delete(t.access, m)
	}
}

// Nodes returns the layer's nodes in creation order.
func (l *Layer) Nodes() []*Node {
	return l.nodes
}

// Links returns the layer's live links in creation order; links consumed by
// breaking are excluded, their fragments appear at the end.
func (l *Layer) Links() []*Link {
	out := make([]*Link, 0, len(l.links))
	for _, link := range l.links {
		if link.removed {
			continue
		}
		out = append(out, link)
	}
	return out
}

// Segments returns the layer's live segments in creation order.
func (l *Layer) Segments() []*LinkSegment {
	out := make([]*LinkSegment, 0, len(l.segments))
	for _, seg := range l.segments {
		if seg.parent.removed {
			continue
		}
		out = append(out, seg)
	}
	return out
}

// SegmentTypes returns all registered types in registration order.
func (l *Layer) SegmentTypes() []*LinkSegmentType {
	return l.types
}

func (l *Layer) CountNodes() int {
	return len(l.nodes)
}

func (l *Layer) CountLinks() int {
	return len(l.Links())
}

func (l *Layer) CountSegments() int {
	return len(l.Segments())
}

// interiorIndex returns the index of the coordinate equal to position,
// considering interior coordinates only.
func interiorIndex(geometry orb.LineString, position orb.Point) (int, bool) {
	for i := 1; i < len(geometry)-1; i++ {
		if coordEqual(geometry[i], position) {
			return i, true
		}
	}
	return 0, false
}

// BreakLinkAt splits the link into two new links at the given node, whose
// position must be strictly interior to the link's geometry. Both fragments
// inherit the original's external id, name, type value and vertical layer,
// and the original's segments are re-created on each fragment. The original
// link is removed from the layer. onSplit is invoked after the mutation so
// the caller can re-synchronize indexes derived from the external id.
func (l *Layer) BreakLinkAt(link *Link, node *Node, onSplit func(orig, first, second *Link)) (*Link, *Link, error) {
	if link.removed {
		return nil, nil, util.WrapErrorf(nil, util.ErrInvariant,
			"link %d was already consumed by an earlier break", link.id)
	}
	if node == link.nodeA || node == link.nodeB {
		return nil, nil, util.WrapErrorf(nil, util.ErrInvariant,
			"node %d is an endpoint of link %d, nothing to break", node.id, link.id)
	}
	idx, ok := interiorIndex(link.geometry, node.position)
	if !ok {
		return nil, nil, util.WrapErrorf(nil, util.ErrInvariant,
			"node %d is not interior to link %d", node.id, link.id)
	}

	geomFirst := make(orb.LineString, idx+1)
	copy(geomFirst, link.geometry[:idx+1])
	geomSecond := make(orb.LineString, len(link.geometry)-idx)
	copy(geomSecond, link.geometry[idx:])

	first, err := l.CreateLink(link.nodeA, node, geomFirst, link.externalID)
	if err != nil {
		return nil, nil, err
	}
	second, err := l.CreateLink(node, link.nodeB, geomSecond, link.externalID)
	if err != nil {
		return nil, nil, err
	}
	for _, fragment := range []*Link{first, second} {
		fragment.name = link.name
		fragment.typeValue = link.typeValue
		fragment.vertLayer = link.vertLayer
	}

	for _, dir := range []Direction{DirectionForward, DirectionBackward} {
		seg := link.Segment(dir)
		if seg == nil {
			continue
		}
		if _, err := l.CreateSegment(first, dir, seg.segmentType, seg.maxSpeedKmh, seg.lanes); err != nil {
			return nil, nil, err
		}
		if _, err := l.CreateSegment(second, dir, seg.segmentType, seg.maxSpeedKmh, seg.lanes); err != nil {
			return nil, nil, err
		}
	}

	l.removeLink(link)
	if onSplit != nil {
		onSplit(link, first, second)
	}
	return first, second, nil
}

func (l *Layer) removeLink(link *Link) {
	link.removed = true
	key := pairKey(link.nodeA, link.nodeB)
	kept := l.linksByPair[key][:0]
	for _, candidate := range l.linksByPair[key] {
		if candidate != link {
			kept = append(kept, candidate)
		}
	}
	if len(kept) == 0 {
		delete(l.linksByPair, key)
	} else {
		l.linksByPair[key] = kept
	}
}

func (l *Layer) String() string {
	return fmt.Sprintf("layer %q: %d nodes, %d links, %d segments, %d types",
		l.name, l.CountNodes(), l.CountLinks(), l.CountSegments(), len(l.types))
}
