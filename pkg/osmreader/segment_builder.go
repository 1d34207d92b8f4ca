package osmreader

import (
	"github.com/lintang-b-s/osmnet/pkg/network"
	"github.com/lintang-b-s/osmnet/pkg/osmtags"
	"github.com/lintang-b-s/osmnet/pkg/util"
	"go.uber.org/zap"
)

// SegmentBuilder materializes up to two directed link segments on a built
// link, resolving the physical speed limit and lane count per direction.
type SegmentBuilder struct {
	cfg    *Config
	scheme *KindScheme
	data   *LayerData
	stats  *Stats
	log    *zap.Logger
}

func NewSegmentBuilder(cfg *Config, scheme *KindScheme, data *LayerData, stats *Stats, log *zap.Logger) *SegmentBuilder {
	return &SegmentBuilder{
		cfg:    cfg,
		scheme: scheme,
		data:   data,
		stats:  stats,
		log:    log,
	}
}

// Build attaches the directed segments for every direction with a non-nil
// type. Forward is the link's A to B direction, which by construction
// coincides with the way's node sequence.
func (b *SegmentBuilder) Build(way *Way, link *network.Link, forwardType, backwardType *network.LinkSegmentType, typeValue string) error {
	if link.Geometry()[0] != link.NodeA().Position() {
		// should be impossible by construction; flag it but keep going
		b.log.Warn("link geometry does not start at node A",
			zap.Int64("linkID", link.ID()), zap.String("osmWayID", link.ExternalID()))
	}

	for _, dir := range []network.Direction{network.DirectionForward, network.DirectionBackward} {
		segmentType := forwardType
		if dir == network.DirectionBackward {
			segmentType = backwardType
		}
		if segmentType == nil {
			continue
		}

		if link.HasSegment(dir) {
			// duplicate processing of the same way fragment
			b.log.Warn("link segment already exists, reusing",
				zap.Int64("linkID", link.ID()), zap.String("direction", dir.String()))
			continue
		}

		speed, err := b.resolveSpeedKmh(way.Tags, dir, typeValue)
		if err != nil {
			return err
		}
		lanes := b.resolveLanes(way.Tags, dir, typeValue)

		if _, err := b.data.Layer().CreateSegment(link, dir, segmentType, speed, lanes); err != nil {
			return err
		}
		b.stats.SegmentsCreated++
	}
	return nil
}

// resolveSpeedKmh resolves the speed limit for one direction: an explicit
// directional tag wins, then the non-directional tag, then the
// infrastructure type default (counted as missing). A way with no tag and no
// type default cannot be processed at all.
func (b *SegmentBuilder) resolveSpeedKmh(tags map[string]string, dir network.Direction, typeValue string) (float64, error) {
	dirSuffix := osmtags.ValueForward
	if dir == network.DirectionBackward {
		dirSuffix = osmtags.ValueBackward
	}

	if v, ok := tags[osmtags.KeyMaxSpeed+":"+dirSuffix]; ok {
		if speed, err := osmtags.ParseSpeedKmh(v); err == nil {
			return speed, nil
		}
	}
	if v, ok := tags[osmtags.KeyMaxSpeed+":lanes:"+dirSuffix]; ok {
		if speed, err := osmtags.ParseMaxLaneSpeedKmh(v); err == nil {
			return speed, nil
		}
	}
	if v, ok := tags[osmtags.KeyMaxSpeed]; ok {
		if speed, err := osmtags.ParseSpeedKmh(v); err == nil {
			return speed, nil
		}
	}
	if v, ok := tags[osmtags.KeyMaxSpeed+":lanes"]; ok {
		if speed, err := osmtags.ParseMaxLaneSpeedKmh(v); err == nil {
			return speed, nil
		}
	}

	if speed, ok := b.scheme.DefaultSpeedKmh(typeValue); ok {
		b.stats.MissingSpeedLimit++
		return speed, nil
	}
	return 0, util.WrapErrorf(nil, util.ErrInvariant,
		"no speed limit tagged and no default speed configured for %s=%s", b.scheme.Kind.Key(), typeValue)
}

// resolveLanes resolves the directional lane count: explicit directional
// tags for roads, total lanes combined with oneway state, track count for
// rail, and the configured default for water ways and anything underivable.
func (b *SegmentBuilder) resolveLanes(tags map[string]string, dir network.Direction, typeValue string) int {
	switch b.scheme.Kind {
	case osmtags.RoadInfrastructure:
		if lanes, ok := b.roadLanes(tags, dir); ok {
			return lanes
		}
	case osmtags.RailInfrastructure:
		if v, ok := tags[osmtags.KeyTracks]; ok {
			// rail has no inherent directionality, both directions get
			// the full track count
			if tracks, err := osmtags.ParseLanes(v); err == nil {
				return tracks
			}
		}
	case osmtags.WaterInfrastructure:
		// water ways carry no lane tagging, the configured default for the
		// specific way type is the derivation itself, not a fallback
		if lanes, ok := b.scheme.DefaultDirectionalLanes(typeValue); ok {
			return lanes
		}
	}

	b.stats.MissingLanes++
	if lanes, ok := b.scheme.DefaultDirectionalLanes(typeValue); ok {
		return lanes
	}
	return b.cfg.FallbackDirectionalLanes
}

func (b *SegmentBuilder) roadLanes(tags map[string]string, dir network.Direction) (int, bool) {
	dirSuffix := osmtags.ValueForward
	if dir == network.DirectionBackward {
		dirSuffix = osmtags.ValueBackward
	}
	if v, ok := tags[osmtags.KeyLanes+":"+dirSuffix]; ok {
		if lanes, err := osmtags.ParseLanes(v); err == nil {
			return lanes, true
		}
	}

	v, ok := tags[osmtags.KeyLanes]
	if !ok {
		return 0, false
	}
	total, err := osmtags.ParseLanes(v)
	if err != nil {
		return 0, false
	}

	switch {
	case osmtags.IsReversedOneWay(tags):
		if dir == network.DirectionBackward {
			return total, true
		}
	case osmtags.IsOneWay(tags):
		if dir == network.DirectionForward {
			return total, true
		}
	case total%2 == 0:
		return total / 2, true
	}
	// odd totals on bidirectional ways are not derivable per direction
	return 0, false
}
