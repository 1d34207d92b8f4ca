// Package osmtags interprets the raw OpenStreetMap tag vocabulary: which keys
// mark infrastructure, how direction and access values are encoded, and how
// unit-suffixed quantities (speed, lanes, vertical layer) are parsed.
package osmtags

const (
	KeyHighway  = "highway"
	KeyRailway  = "railway"
	KeyWaterway = "waterway"

	KeyOneway   = "oneway"
	KeyJunction = "junction"
	KeyAccess   = "access"
	KeyArea     = "area"
	KeyLayer    = "layer"
	KeyName     = "name"
	KeyMaxSpeed = "maxspeed"
	KeyLanes    = "lanes"
	KeyTracks   = "tracks"
	KeyCycleway = "cycleway"
	KeyBusway   = "busway"
	KeySidewalk = "sidewalk"
	KeyFootway  = "footway"

	ValueForward  = "forward"
	ValueBackward = "backward"
	ValueBoth     = "both"
	ValueLeft     = "left"
	ValueRight    = "right"
	ValueLane     = "lane"

	ValueRoundabout = "roundabout"
	ValueCircular   = "circular"

	ValueOppositeLane  = "opposite_lane"
	ValueOppositeTrack = "opposite_track"
	ValueOpposite      = "opposite"
)

// IsOneWay reports whether the way is tagged one-way in the direction of its
// node sequence.
func IsOneWay(tags map[string]string) bool {
	switch tags[KeyOneway] {
	case "yes", "true", "1":
		return true
	}
	return false
}

// IsReversedOneWay reports whether the way is tagged one-way against the
// direction of its node sequence.
func IsReversedOneWay(tags map[string]string) bool {
	switch tags[KeyOneway] {
	case "-1", "reverse":
		return true
	}
	return false
}

// HasOneWayTag reports whether any oneway tagging is present, regardless of
// its direction or whether it disables one-way behaviour.
func HasOneWayTag(tags map[string]string) bool {
	_, ok := tags[KeyOneway]
	return ok
}

// IsRoundabout reports whether the way is part of a circular junction.
func IsRoundabout(tags map[string]string) bool {
	switch tags[KeyJunction] {
	case ValueRoundabout, ValueCircular:
		return true
	}
	return false
}

// IsArea reports whether the way outlines an area rather than a linear
// feature (parking lots, plazas and similar are never links).
func IsArea(tags map[string]string) bool {
	area, ok := tags[KeyArea]
	return ok && area != "no"
}
