package osmreader

import (
	"github.com/lintang-b-s/osmnet/pkg/network"
	"github.com/lintang-b-s/osmnet/pkg/osmtags"
	"go.uber.org/zap"
)

// PartialLinkOptions control how one fragment of a circular way is turned
// into a link.
type PartialLinkOptions struct {
	// PartOfCircularWay disallows geometry truncation for the fragment.
	PartOfCircularWay bool
	// ForcedDirection, when set, is the only direction a segment may be
	// created for, overriding whatever the mode tags say.
	ForcedDirection network.Direction
}

// partialLinkFunc extracts one link for way[startIdx..endIdx]. It returns
// nil without error when the fragment is discarded.
type partialLinkFunc func(way *Way, startIdx, endIdx int, opts PartialLinkOptions) (*network.Link, error)

// CircularResolver decomposes a way whose node sequence loops into straight
// partial links plus one or more perfectly circular components.
type CircularResolver struct {
	cfg      *Config
	registry *NodeRegistry
	data     *LayerData
	stats    *Stats
	log      *zap.Logger
	extract  partialLinkFunc
}

func NewCircularResolver(cfg *Config, registry *NodeRegistry, data *LayerData, stats *Stats, log *zap.Logger, extract partialLinkFunc) *CircularResolver {
	return &CircularResolver{
		cfg:      cfg,
		registry: registry,
		data:     data,
		stats:    stats,
		log:      log,
		extract:  extract,
	}
}

// Resolve decomposes the way, creating all of its links. Ways with multiple
// disjoint loops are handled recursively.
func (r *CircularResolver) Resolve(way *Way) ([]*network.Link, error) {
	r.stats.CircularWays++
	return r.resolveFrom(way, 0)
}

func (r *CircularResolver) resolveFrom(way *Way, start int) ([]*network.Link, error) {
	last := len(way.NodeIDs) - 1
	loopStart, loopEnd, found := findLoop(way.NodeIDs, start)
	if !found {
		// plain non-circular tail
		if start >= last {
			return nil, nil
		}
		link, err := r.extract(way, start, last, PartialLinkOptions{})
		if err != nil || link == nil {
			return nil, err
		}
		return []*network.Link{link}, nil
	}

	var links []*network.Link
	if loopStart > start {
		link, err := r.extract(way, start, loopStart, PartialLinkOptions{})
		if err != nil {
			return nil, err
		}
		if link != nil {
			links = append(links, link)
		}
	}

	// the remainder beyond the loop is processed first so the loop handler
	// can discover the links it touches
	if loopEnd < last {
		tail, err := r.resolveFrom(way, loopEnd)
		if err != nil {
			return nil, err
		}
		links = append(links, tail...)
	}

	loopLinks, err := r.resolveLoop(way, loopStart, loopEnd)
	if err != nil {
		return nil, err
	}
	return append(links, loopLinks...), nil
}

// findLoop locates the first sub-range at or after from whose first and
// last node coincide.
func findLoop(nodeIDs []int64, from int) (int, int, bool) {
	seen := make(map[int64]int, len(nodeIDs)-from)
	for idx := from; idx < len(nodeIDs); idx++ {
		if first, ok := seen[nodeIDs[idx]]; ok {
			return first, idx, true
		}
		seen[nodeIDs[idx]] = idx
	}
	return 0, 0, false
}

// resolveLoop breaks the perfect loop way[loopStart..loopEnd] into partial
// links between its active nodes, with the traversal direction forced when
// the way is tagged as a roundabout or oneway.
func (r *CircularResolver) resolveLoop(way *Way, loopStart, loopEnd int) ([]*network.Link, error) {
	opts := PartialLinkOptions{
		PartOfCircularWay: true,
		ForcedDirection:   r.forcedDirection(way, loopStart, loopEnd),
	}

	firstActive, prev := -1, -1
	var links []*network.Link
	for idx := loopStart; idx <= loopEnd; idx++ {
		if !r.isActiveNode(way.NodeIDs[idx]) {
			continue
		}
		if firstActive < 0 {
			firstActive, prev = idx, idx
			continue
		}
		if idx == loopEnd && prev == loopStart {
			// the only active node is the loop's own start/end, emitting
			// [loopStart,loopEnd] would make the whole loop one link with
			// identical endpoints
			continue
		}
		link, err := r.extract(way, prev, idx, opts)
		if err != nil {
			return nil, err
		}
		if link != nil {
			links = append(links, link)
		}
		prev = idx
	}

	if firstActive < 0 {
		// an isolated loop with no connection to the parsed network, start
		// from the loop's first index so a real node gets created there
		firstActive, prev = loopStart, loopStart
	}

	switch {
	case len(links) == 0:
		// single contact point, split the remaining loop in half
		half, err := r.splitLoopInHalf(way, loopStart, loopEnd, firstActive, opts)
		if err != nil {
			return nil, err
		}
		links = append(links, half...)
	case prev != loopEnd || firstActive != loopStart:
		// close the loop back to the first active node
		link, err := r.extractWrapped(way, loopStart, loopEnd, prev, firstActive, opts)
		if err != nil {
			return nil, err
		}
		if link != nil {
			links = append(links, link)
		}
	}
	return links, nil
}

// splitLoopInHalf covers a loop with a single contact node (or none at all)
// by two partial links meeting at the node halfway around.
func (r *CircularResolver) splitLoopInHalf(way *Way, loopStart, loopEnd, contact int, opts PartialLinkOptions) ([]*network.Link, error) {
	loopLen := loopEnd - loopStart
	if loopLen < 2 {
		return nil, nil
	}
	mid := contact + loopLen/2
	if mid > loopEnd {
		mid -= loopLen
	}

	var links []*network.Link
	for _, half := range [][2]int{{contact, mid}, {mid, contact}} {
		var (
			link *network.Link
			err  error
		)
		if half[0] < half[1] {
			link, err = r.extract(way, half[0], half[1], opts)
		} else {
			link, err = r.extractWrapped(way, loopStart, loopEnd, half[0], half[1], opts)
		}
		if err != nil {
			return nil, err
		}
		if link != nil {
			links = append(links, link)
		}
	}
	return links, nil
}

// extractWrapped extracts the fragment running from index from, through the
// loop's end (which equals its start), to index to. The builder only works
// on contiguous ranges, so the loop is rotated into a synthetic way first.
func (r *CircularResolver) extractWrapped(way *Way, loopStart, loopEnd, from, to int, opts PartialLinkOptions) (*network.Link, error) {
	if from == loopStart {
		return r.extract(way, loopStart, to, opts)
	}
	if to == loopEnd || to == loopStart {
		return r.extract(way, from, loopEnd, opts)
	}

	// way[from..loopEnd] followed by way[loopStart+1..to], dropping the
	// duplicated loop start/end node
	rotated := make([]int64, 0, (loopEnd-from)+(to-loopStart)+1)
	rotated = append(rotated, way.NodeIDs[from:loopEnd+1]...)
	rotated = append(rotated, way.NodeIDs[loopStart+1:to+1]...)
	synthetic := &Way{ID: way.ID, NodeIDs: rotated, Tags: way.Tags}
	return r.extract(synthetic, 0, len(rotated)-1, opts)
}

// isActiveNode reports whether the OSM node is already part of the network,
// as an endpoint of or internal to a previously created link.
func (r *CircularResolver) isActiveNode(osmNodeID int64) bool {
	if !r.registry.IsAvailable(osmNodeID) {
		return false
	}
	if r.data.NodeForOsmNode(osmNodeID) != nil {
		return true
	}
	pos, ok := r.registry.Position(osmNodeID)
	return ok && r.data.HasInternalLocation(pos)
}

// forcedDirection yields the single allowed traversal direction for loops
// tagged as roundabouts or oneway, derived from the loop's winding order
// and the country's roundabout convention.
func (r *CircularResolver) forcedDirection(way *Way, loopStart, loopEnd int) network.Direction {
	if !osmtags.IsRoundabout(way.Tags) && !osmtags.HasOneWayTag(way.Tags) {
		return 0
	}

	// shoelace signed area, negative winds clockwise
	var area float64
	for i := loopStart; i < loopEnd; i++ {
		a, okA := r.registry.Position(way.NodeIDs[i])
		b, okB := r.registry.Position(way.NodeIDs[i+1])
		if !okA || !okB {
			continue
		}
		area += a[0]*b[1] - b[0]*a[1]
	}
	clockwise := area < 0

	if clockwise == r.cfg.RoundaboutClockwise {
		return network.DirectionForward
	}
	return network.DirectionBackward
}
