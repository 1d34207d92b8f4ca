package network

import "github.com/paulmach/orb"

// Node is a point location in the network. It is created either from an OSM
// node, in which case it carries that node's id as external id, or
// synthesized for a location that must exist without a raw OSM counterpart.
// Position is immutable after creation.
type Node struct {
	id         int64
	externalID int64 // 0 when synthesized
	position   orb.Point
}

func (n *Node) ID() int64 {
	return n.id
}

func (n *Node) ExternalID() int64 {
	return n.externalID
}

// HasExternalID reports whether the node originates from a raw OSM node.
func (n *Node) HasExternalID() bool {
	return n.externalID != 0
}

func (n *Node) Position() orb.Point {
	return n.position
}
