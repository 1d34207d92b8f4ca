package osmreader

import (
	"fmt"
	"math"

	"github.com/lintang-b-s/osmnet/pkg/network"
	"github.com/lintang-b-s/osmnet/pkg/util"
)

// SegmentTypeResolver turns (default type, modes to add, modes to remove)
// into a registered link segment type. Encountered deltas are memoized so a
// re-occurring modification reuses the earlier type instead of registering an
// endless stream of structurally equal copies.
type SegmentTypeResolver struct {
	layer  *network.Layer
	cfg    *Config
	scheme *KindScheme
	stats  *Stats

	memo map[string]*network.LinkSegmentType
}

func NewSegmentTypeResolver(layer *network.Layer, cfg *Config, scheme *KindScheme, stats *Stats) *SegmentTypeResolver {
	return &SegmentTypeResolver{
		layer:  layer,
		cfg:    cfg,
		scheme: scheme,
		stats:  stats,
		memo:   make(map[string]*network.LinkSegmentType),
	}
}

func memoKey(base *network.LinkSegmentType, toAdd, toRemove network.ModeSet) string {
	return fmt.Sprintf("%d|+%s|-%s", base.ID(), toAdd.Key(), toRemove.Key())
}

// Resolve returns the link segment type matching the default type with the
// given mode deltas applied. The input type is returned unchanged when the
// deltas are a no-op.
func (r *SegmentTypeResolver) Resolve(base *network.LinkSegmentType, toAdd, toRemove network.ModeSet, typeValue string) (*network.LinkSegmentType, error) {
	if base == nil {
		return nil, util.WrapErrorf(nil, util.ErrInvariant, "cannot modify a nil link segment type")
	}

	baseModes := base.Modes()
	effectiveAdd := network.NewModeSet()
	for _, m := range toAdd.Sorted() {
		if !baseModes.Contains(m) {
			effectiveAdd.Add(m)
		}
	}
	effectiveRemove := toRemove.Intersect(baseModes)

	// no-op fast path; also bail out when the removal set exceeds what the
	// type carries, which would imply a negative mode count
	if (effectiveAdd.Empty() && effectiveRemove.Empty()) || len(toRemove) > len(baseModes)+len(effectiveAdd) {
		return base, nil
	}

	key := memoKey(base, toAdd, toRemove)
	if modified, ok := r.memo[key]; ok {
		return modified, nil
	}

	modified := r.layer.CloneSegmentType(base, "_mod")
	r.stats.TypesCreated++

	added := make(map[network.Mode]network.AccessProperties, len(effectiveAdd))
	for _, m := range effectiveAdd.Sorted() {
		props, err := r.accessPropertiesFor(m, base, typeValue)
		if err != nil {
			return nil, err
		}
		added[m] = props
	}
	r.layer.ModifySegmentTypeAccess(modified, added, effectiveRemove)

	r.memo[key] = modified
	return modified, nil
}

// accessPropertiesFor computes the access group for a newly added mode:
// the mode's absolute maximum speed capped by the infrastructure type's
// default speed. An equal group already present on the original type is
// reused to avoid proliferating near-identical groups.
func (r *SegmentTypeResolver) accessPropertiesFor(m network.Mode, base *network.LinkSegmentType, typeValue string) (network.AccessProperties, error) {
	typeSpeed, ok := r.scheme.DefaultSpeedKmh(typeValue)
	if !ok {
		// missing default speed data is a configuration error, not a data
		// error, and must abort processing of this way
		return network.AccessProperties{}, util.WrapErrorf(nil, util.ErrInvariant,
			"no default speed configured for %s=%s while adding mode %s", r.scheme.Kind.Key(), typeValue, m)
	}

	capped := typeSpeed
	if modeMax, ok := r.cfg.ModeMaxSpeedKmh(m); ok {
		capped = math.Min(modeMax, typeSpeed)
	}
	props := network.AccessProperties{MaxSpeedKmh: capped, CriticalSpeedKmh: capped}

	// access groups are value types; an equal group already present on the
	// original type collapses onto the same value automatically
	if existing, ok := base.HasEqualAccessGroup(props); ok {
		existingProps, _ := base.AccessOf(existing)
		return existingProps, nil
	}
	return props, nil
}
