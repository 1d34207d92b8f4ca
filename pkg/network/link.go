package network

import (
	"github.com/paulmach/orb"
)

// Direction identifies one of the two possible traversal directions of a
// link. Forward is node A towards node B, which by construction coincides
// with the geometry's drawing direction.
type Direction uint8

const (
	DirectionForward Direction = iota + 1
	DirectionBackward
)

func (d Direction) String() string {
	if d == DirectionForward {
		return "forward"
	}
	return "backward"
}

// Opposite returns the reverse direction.
func (d Direction) Opposite() Direction {
	if d == DirectionForward {
		return DirectionBackward
	}
	return DirectionForward
}

// Link is an undirected edge between two distinct nodes. Its external id is
// the originating OSM way id as a string; it is not unique because one way
// may yield multiple links.
type Link struct {
	id         int64
	nodeA      *Node
	nodeB      *Node
	geometry   orb.LineString
	externalID string
	name       string
	typeValue  string // the raw OSM infrastructure type value, e.g. "primary"
	vertLayer  int

	forward  *LinkSegment
	backward *LinkSegment

	removed bool
}

// Removed reports whether the link was consumed by a break operation and is
// no longer part of the layer.
func (l *Link) Removed() bool {
	return l.removed
}

func (l *Link) ID() int64 {
	return l.id
}

func (l *Link) NodeA() *Node {
	return l.nodeA
}

func (l *Link) NodeB() *Node {
	return l.nodeB
}

func (l *Link) Geometry() orb.LineString {
	return l.geometry
}

func (l *Link) ExternalID() string {
	return l.externalID
}

func (l *Link) Name() string {
	return l.name
}

func (l *Link) SetName(name string) {
	l.name = name
}

func (l *Link) TypeValue() string {
	return l.typeValue
}

func (l *Link) SetTypeValue(v string) {
	l.typeValue = v
}

// VerticalLayer disambiguates vertically overlapping infrastructure
// (bridges, tunnels); 0 is ground level.
func (l *Link) VerticalLayer() int {
	return l.vertLayer
}

func (l *Link) SetVerticalLayer(layer int) {
	l.vertLayer = layer
}

// Segment returns the directed segment for the given direction, or nil when
// the direction carries no modes.
func (l *Link) Segment(dir Direction) *LinkSegment {
	if dir == DirectionForward {
		return l.forward
	}
	return l.backward
}

func (l *Link) HasSegment(dir Direction) bool {
	return l.Segment(dir) != nil
}

// HasInteriorPoint reports whether pt coincides with one of the link's
// strictly interior geometry coordinates.
func (l *Link) HasInteriorPoint(pt orb.Point) bool {
	_, ok := interiorIndex(l.geometry, pt)
	return ok
}

// Other returns the endpoint opposite to the given node, or nil when the
// node is not an endpoint of this link.
func (l *Link) Other(n *Node) *Node {
	switch n {
	case l.nodeA:
		return l.nodeB
	case l.nodeB:
		return l.nodeA
	}
	return nil
}

// LinkSegment is a directed traversal of a link carrying the resolved
// physical speed limit (km/h) and lane count for that direction.
type LinkSegment struct {
	id          int64
	parent      *Link
	direction   Direction
	segmentType *LinkSegmentType
	maxSpeedKmh float64
	lanes       int
}

func (s *LinkSegment) ID() int64 {
	return s.id
}

func (s *LinkSegment) Parent() *Link {
	return s.parent
}

func (s *LinkSegment) Direction() Direction {
	return s.direction
}

func (s *LinkSegment) Type() *LinkSegmentType {
	return s.segmentType
}

func (s *LinkSegment) MaxSpeedKmh() float64 {
	return s.maxSpeedKmh
}

func (s *LinkSegment) Lanes() int {
	return s.lanes
}

// UpstreamNode returns the node the segment departs from.
func (s *LinkSegment) UpstreamNode() *Node {
	if s.direction == DirectionForward {
		return s.parent.nodeA
	}
	return s.parent.nodeB
}

// DownstreamNode returns the node the segment arrives at.
func (s *LinkSegment) DownstreamNode() *Node {
	if s.direction == DirectionForward {
		return s.parent.nodeB
	}
	return s.parent.nodeA
}
