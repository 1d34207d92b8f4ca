package osmreader

import (
	"github.com/lintang-b-s/osmnet/pkg/network"
	"github.com/lintang-b-s/osmnet/pkg/osmtags"
)

// modeTagKeys maps an OSM access tag key onto the modes it governs. Umbrella
// keys (vehicle, motor_vehicle) fan out to every mode they cover.
var modeTagKeys = map[string][]network.Mode{
	"foot":          {network.ModeFoot},
	"bicycle":       {network.ModeBicycle},
	"bus":           {network.ModeBus},
	"psv":           {network.ModeBus},
	"motorcar":      {network.ModeCar},
	"motorcycle":    {network.ModeMotorcycle},
	"hgv":           {network.ModeHeavyGoods},
	"motor_vehicle": {network.ModeCar, network.ModeBus, network.ModeMotorcycle, network.ModeHeavyGoods},
	"vehicle":       {network.ModeCar, network.ModeBus, network.ModeMotorcycle, network.ModeHeavyGoods, network.ModeBicycle},
	"train":         {network.ModeTrain},
	"tram":          {network.ModeTram},
	"light_rail":    {network.ModeLightRail},
	"ferry":         {network.ModeFerry},
}

// vehicularModes are excluded by default in the opposite direction of a
// one-way way; foot is not directionally restricted by oneway tagging.
var vehicularModes = []network.Mode{
	network.ModeCar, network.ModeBus, network.ModeBicycle, network.ModeMotorcycle,
	network.ModeHeavyGoods, network.ModeTrain, network.ModeTram, network.ModeLightRail,
	network.ModeFerry,
}

// accessDelta accumulates mode inclusions and exclusions while the rule
// ladder runs. A rule firing later overrides an earlier opposite decision by
// removing the mode from the other set.
type accessDelta struct {
	included network.ModeSet
	excluded network.ModeSet
}

func newAccessDelta() *accessDelta {
	return &accessDelta{
		included: network.NewModeSet(),
		excluded: network.NewModeSet(),
	}
}

func (d *accessDelta) include(modes ...network.Mode) {
	d.excluded.Remove(modes...)
	d.included.Add(modes...)
}

func (d *accessDelta) exclude(modes ...network.Mode) {
	d.included.Remove(modes...)
	d.excluded.Add(modes...)
}

// excludeSoft registers an exclusion only for modes no earlier rule included.
func (d *accessDelta) excludeSoft(modes ...network.Mode) {
	for _, m := range modes {
		if d.included.Contains(m) {
			continue
		}
		d.excluded.Add(m)
	}
}

// includeSoft registers an inclusion only for modes no earlier rule excluded.
func (d *accessDelta) includeSoft(modes ...network.Mode) {
	for _, m := range modes {
		if d.excluded.Contains(m) {
			continue
		}
		d.included.Add(m)
	}
}

func (d *accessDelta) applyAccessValue(value string, modes ...network.Mode) {
	switch osmtags.ClassifyAccessValue(value) {
	case osmtags.AccessPositive:
		d.include(modes...)
	case osmtags.AccessNegative:
		d.exclude(modes...)
	}
}

// ModeResolver derives, per direction, which modes a way's tags explicitly
// grant or deny, layering generic, direction-specific and scheme-specific
// (lane/busway/cycleway) rules in precedence order.
type ModeResolver struct {
	cfg    *Config
	scheme *KindScheme
}

func NewModeResolver(cfg *Config, scheme *KindScheme) *ModeResolver {
	return &ModeResolver{cfg: cfg, scheme: scheme}
}

// ExplicitlyIncludedModes returns the modes the tags explicitly grant in the
// explored direction.
func (r *ModeResolver) ExplicitlyIncludedModes(tags map[string]string, forward bool, typeValue string) network.ModeSet {
	included, _ := r.ResolveModeAccess(tags, forward, typeValue)
	return included
}

// ExplicitlyExcludedModes returns the modes the tags explicitly deny in the
// explored direction.
func (r *ModeResolver) ExplicitlyExcludedModes(tags map[string]string, forward bool, typeValue string) network.ModeSet {
	_, excluded := r.ResolveModeAccess(tags, forward, typeValue)
	return excluded
}

// ResolveModeAccess runs the full precedence ladder for one direction and
// returns the accumulated inclusion and exclusion sets. When a mode was hit
// by rules on both sides, the rule firing last wins; access= is applied last
// as an override layer.
func (r *ModeResolver) ResolveModeAccess(tags map[string]string, forward bool, typeValue string) (network.ModeSet, network.ModeSet) {
	delta := newAccessDelta()

	oneWay := osmtags.IsOneWay(tags)
	reversedOneWay := osmtags.IsReversedOneWay(tags)
	// opposite means: the explored direction runs against the tagged main
	// direction of a one-way way.
	opposite := (forward && reversedOneWay) || (!forward && oneWay)

	r.applyOnewayAgnosticRules(delta, tags, forward)

	switch {
	case oneWay || reversedOneWay:
		if opposite {
			r.applyOppositeDirectionRules(delta, tags)
		} else {
			r.applyMainDirectionRules(delta, tags)
		}
	default:
		r.applySidedRules(delta, tags, forward)
	}

	if !opposite {
		r.applyGenericModeTags(delta, tags)
		r.applyAccessTag(delta, tags, typeValue)
	}

	supported := r.scheme.SupportedModes()
	return delta.included.Intersect(supported), delta.excluded.Intersect(supported)
}

// applyOnewayAgnosticRules covers tagging that determines access regardless
// of any oneway tag: explicit per-direction mode tags, mode lane schemes,
// cycleway=both and sidewalks.
func (r *ModeResolver) applyOnewayAgnosticRules(delta *accessDelta, tags map[string]string, forward bool) {
	dir := osmtags.ValueBackward
	if forward {
		dir = osmtags.ValueForward
	}

	for key, modes := range modeTagKeys {
		// <mode>:oneway=no lifts any directional restriction for that mode
		if tags[key+":oneway"] == "no" {
			delta.include(modes...)
		}
		// <mode>:forward / <mode>:backward
		if v, ok := tags[key+":"+dir]; ok {
			delta.applyAccessValue(v, modes...)
		}
		// direction-qualified lane tagging schemes imply presence
		if _, ok := tags["lanes:"+key+":"+dir]; ok {
			delta.include(modes...)
		}
		if _, ok := tags[key+":lanes:"+dir]; ok {
			delta.include(modes...)
		}
	}

	if tags[osmtags.KeyCycleway] == osmtags.ValueBoth {
		delta.include(network.ModeBicycle)
	}

	switch tags[osmtags.KeySidewalk] {
	case osmtags.ValueBoth, osmtags.ValueLeft, osmtags.ValueRight, "yes":
		delta.include(network.ModeFoot)
	}
}

// applyOppositeDirectionRules handles the reverse direction of a one-way
// way: contraflow bus and cycle lanes grant access, everything vehicular is
// otherwise excluded by default.
func (r *ModeResolver) applyOppositeDirectionRules(delta *accessDelta, tags map[string]string) {
	switch tags[osmtags.KeyCycleway] {
	case osmtags.ValueOpposite, osmtags.ValueOppositeLane, osmtags.ValueOppositeTrack:
		delta.include(network.ModeBicycle)
	}
	for _, side := range []string{osmtags.ValueLeft, osmtags.ValueRight} {
		switch tags[osmtags.KeyCycleway+":"+side] {
		case osmtags.ValueOpposite, osmtags.ValueOppositeLane, osmtags.ValueOppositeTrack:
			delta.include(network.ModeBicycle)
		}
		if tags[osmtags.KeyBusway+":"+side] == osmtags.ValueOppositeLane {
			delta.include(network.ModeBus)
		}
	}
	if tags[osmtags.KeyBusway] == osmtags.ValueOppositeLane {
		delta.include(network.ModeBus)
	}

	delta.excludeSoft(vehicularModes...)
}

// applyMainDirectionRules handles the tagged direction of a one-way way:
// side-qualified busway/cycleway lanes and lane tagging without an explicit
// direction all refer to the main direction.
func (r *ModeResolver) applyMainDirectionRules(delta *accessDelta, tags map[string]string) {
	for _, side := range []string{osmtags.ValueLeft, osmtags.ValueRight} {
		if isPresentLaneValue(tags[osmtags.KeyCycleway+":"+side]) {
			delta.include(network.ModeBicycle)
		}
		if tags[osmtags.KeyBusway+":"+side] == osmtags.ValueLane {
			delta.include(network.ModeBus)
		}
	}

	for key, modes := range modeTagKeys {
		if _, ok := tags["lanes:"+key]; ok {
			delta.include(modes...)
		}
		if _, ok := tags[key+":lanes"]; ok {
			delta.include(modes...)
		}
	}
}

// applySidedRules handles left/right qualified tagging on ways without any
// oneway tag; which side maps onto the explored direction depends on the
// country's driving side.
func (r *ModeResolver) applySidedRules(delta *accessDelta, tags map[string]string, forward bool) {
	if osmtags.IsRoundabout(tags) && !forward {
		// circular junctions are traversed in one direction only; the
		// non-traveled direction is closed for everything
		delta.exclude(vehicularModes...)
		delta.exclude(network.ModeFoot)
		return
	}

	for _, side := range []string{osmtags.ValueLeft, osmtags.ValueRight} {
		sideForward := side == osmtags.ValueLeft
		if !r.cfg.LeftHandDrive {
			sideForward = !sideForward
		}
		if sideForward != forward {
			continue
		}
		if isPresentLaneValue(tags[osmtags.KeyCycleway+":"+side]) {
			delta.include(network.ModeBicycle)
		}
		if tags[osmtags.KeyBusway+":"+side] == osmtags.ValueLane {
			delta.include(network.ModeBus)
		}
	}
}

// applyGenericModeTags handles plain <mode>=<value> and access:<mode>=<value>
// tags; they bind both directions outside the opposite-direction branch.
func (r *ModeResolver) applyGenericModeTags(delta *accessDelta, tags map[string]string) {
	for key, modes := range modeTagKeys {
		if v, ok := tags[key]; ok {
			delta.applyAccessValue(v, modes...)
		}
		if v, ok := tags[osmtags.KeyAccess+":"+key]; ok {
			delta.applyAccessValue(v, modes...)
		}
	}
}

// applyAccessTag resolves the blanket access= tag last, as an override
// layer over everything accumulated so far.
func (r *ModeResolver) applyAccessTag(delta *accessDelta, tags map[string]string, typeValue string) {
	value, ok := tags[osmtags.KeyAccess]
	if !ok {
		return
	}

	supported := r.scheme.AllowedModes[typeValue]

	if modes, isMode := modeTagKeys[value]; isMode {
		// access=<specific-mode>: only that mode, everything else closed
		for _, m := range r.scheme.SupportedModes().Sorted() {
			delta.exclude(m)
		}
		delta.include(modes...)
		return
	}

	switch osmtags.ClassifyAccessValue(value) {
	case osmtags.AccessPositive:
		if supported != nil {
			delta.includeSoft(supported.Sorted()...)
		}
	case osmtags.AccessNegative:
		delta.exclude(r.scheme.SupportedModes().Sorted()...)
	}
}

// isPresentLaneValue reports whether a cycleway side value indicates a lane
// in the direction of travel (as opposed to absence or a contraflow value).
func isPresentLaneValue(value string) bool {
	switch value {
	case osmtags.ValueLane, "track", "shared_lane", "share_busway", "yes":
		return true
	}
	return false
}
