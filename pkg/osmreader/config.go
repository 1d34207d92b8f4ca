package osmreader

import (
	"github.com/lintang-b-s/osmnet/pkg/network"
	"github.com/lintang-b-s/osmnet/pkg/osmtags"
	"github.com/paulmach/orb"
)

// KindScheme bundles everything the reader needs to know about one
// infrastructure kind, resolved once at configuration time: whether the kind
// is parsed at all and the per-type-value defaults for speed, directional
// lanes and allowed modes.
type KindScheme struct {
	Kind             osmtags.InfrastructureKind
	Activated        bool
	SpeedDefaultsKmh map[string]float64
	LaneDefaults     map[string]int
	AllowedModes     map[string]network.ModeSet
}

// Supports reports whether the given raw type value has any viable modes.
func (s *KindScheme) Supports(typeValue string) bool {
	modes, ok := s.AllowedModes[typeValue]
	return ok && !modes.Empty()
}

// DefaultSpeedKmh returns the default speed for a type value.
func (s *KindScheme) DefaultSpeedKmh(typeValue string) (float64, bool) {
	speed, ok := s.SpeedDefaultsKmh[typeValue]
	return speed, ok
}

// DefaultDirectionalLanes returns the default per-direction lane count for a
// type value.
func (s *KindScheme) DefaultDirectionalLanes(typeValue string) (int, bool) {
	lanes, ok := s.LaneDefaults[typeValue]
	return lanes, ok
}

// SupportedModes returns the union of modes over all type values.
func (s *KindScheme) SupportedModes() network.ModeSet {
	out := network.NewModeSet()
	for _, modes := range s.AllowedModes {
		for _, m := range modes.Sorted() {
			out.Add(m)
		}
	}
	return out
}

// Config is the immutable run configuration. It is fully constructed before
// a run starts; all per-run mutable state lives in the Reader.
type Config struct {
	CountryCode   string
	LeftHandDrive bool
	// RoundaboutClockwise is the traversal convention for circular
	// junctions, derived from the driving side unless overridden.
	RoundaboutClockwise bool

	// BoundingPolygon restricts which OSM nodes are spatially eligible;
	// nil means the whole input extent.
	BoundingPolygon orb.Polygon

	// KeepNodeIDs are OSM nodes retained even outside the bounding polygon.
	KeepNodeIDs []int64

	Schemes map[osmtags.InfrastructureKind]*KindScheme

	// ModeMaxSpeedsKmh caps mode speeds regardless of infrastructure type.
	ModeMaxSpeedsKmh map[network.Mode]float64

	// FallbackDirectionalLanes applies when a type value has no lane
	// default of its own.
	FallbackDirectionalLanes int
}

// Scheme returns the scheme for an infrastructure kind, or nil when the kind
// is unknown.
func (c *Config) Scheme(kind osmtags.InfrastructureKind) *KindScheme {
	return c.Schemes[kind]
}

// ModeMaxSpeedKmh returns the absolute speed cap of a mode.
func (c *Config) ModeMaxSpeedKmh(m network.Mode) (float64, bool) {
	speed, ok := c.ModeMaxSpeedsKmh[m]
	return speed, ok
}

var leftHandDriveCountries = map[string]struct{}{
	"AUS": {}, "GBR": {}, "IRL": {}, "JPN": {}, "IDN": {}, "IND": {},
	"NZL": {}, "ZAF": {}, "THA": {}, "MYS": {}, "SGP": {}, "KEN": {},
}

// IsLeftHandDrive reports the driving side convention of a country
// (ISO 3166-1 alpha-3 code).
func IsLeftHandDrive(countryCode string) bool {
	_, ok := leftHandDriveCountries[countryCode]
	return ok
}

var roadModes = func() map[string]network.ModeSet {
	motorized := []network.Mode{network.ModeCar, network.ModeBus, network.ModeMotorcycle, network.ModeHeavyGoods}
	// through roads carry cyclists but no pedestrians by default; local
	// streets carry both
	through := append([]network.Mode{network.ModeBicycle}, motorized...)
	local := append([]network.Mode{network.ModeBicycle, network.ModeFoot}, motorized...)
	return map[string]network.ModeSet{
		"motorway":       network.NewModeSet(motorized...),
		"motorway_link":  network.NewModeSet(motorized...),
		"trunk":          network.NewModeSet(motorized...),
		"trunk_link":     network.NewModeSet(motorized...),
		"primary":        network.NewModeSet(through...),
		"primary_link":   network.NewModeSet(through...),
		"secondary":      network.NewModeSet(through...),
		"secondary_link": network.NewModeSet(through...),
		"tertiary":       network.NewModeSet(through...),
		"tertiary_link":  network.NewModeSet(through...),
		"unclassified":   network.NewModeSet(local...),
		"residential":    network.NewModeSet(local...),
		"road":           network.NewModeSet(local...),
		"living_street": network.NewModeSet(network.ModeCar, network.ModeBicycle, network.ModeFoot),
		"service":        network.NewModeSet(network.ModeCar, network.ModeBus, network.ModeBicycle, network.ModeFoot),
		"track":          network.NewModeSet(network.ModeFoot, network.ModeBicycle),
		"path":           network.NewModeSet(network.ModeFoot, network.ModeBicycle),
		"footway":        network.NewModeSet(network.ModeFoot),
		"pedestrian":     network.NewModeSet(network.ModeFoot),
		"steps":          network.NewModeSet(network.ModeFoot),
		"bridleway":      network.NewModeSet(network.ModeFoot),
		"cycleway":       network.NewModeSet(network.ModeBicycle),
	}
}()

var roadSpeedDefaultsKmh = map[string]float64{
	"motorway":       120,
	"motorway_link":  120,
	"trunk":          100,
	"trunk_link":     100,
	"primary":        80,
	"primary_link":   80,
	"secondary":      60,
	"secondary_link": 60,
	"tertiary":       40,
	"tertiary_link":  40,
	"unclassified":   30,
	"residential":    30,
	"road":           30,
	"living_street":  10,
	"service":        30,
	"track":          20,
	"path":           5,
	"footway":        5,
	"pedestrian":     5,
	"steps":          5,
	"bridleway":      15,
	"cycleway":       15,
}

var roadLaneDefaults = map[string]int{
	"motorway":      2,
	"motorway_link": 1,
	"trunk":         2,
	"trunk_link":    1,
	"primary":       2,
	"primary_link":  1,
	"secondary":     1,
	"tertiary":      1,
	"unclassified":  1,
	"residential":   1,
	"road":          1,
	"living_street": 1,
	"service":       1,
	"track":         1,
	"path":          1,
	"footway":       1,
	"pedestrian":    1,
	"steps":         1,
	"bridleway":     1,
	"cycleway":      1,
}

var railModes = map[string]network.ModeSet{
	"rail":         network.NewModeSet(network.ModeTrain),
	"narrow_gauge": network.NewModeSet(network.ModeTrain),
	"tram":         network.NewModeSet(network.ModeTram),
	"light_rail":   network.NewModeSet(network.ModeLightRail),
	"subway":       network.NewModeSet(network.ModeLightRail),
}

var railSpeedDefaultsKmh = map[string]float64{
	"rail":         140,
	"narrow_gauge": 40,
	"tram":         40,
	"light_rail":   60,
	"subway":       60,
}

var railLaneDefaults = map[string]int{
	"rail":         1,
	"narrow_gauge": 1,
	"tram":         1,
	"light_rail":   1,
	"subway":       1,
}

var waterModes = map[string]network.ModeSet{
	"canal":   network.NewModeSet(network.ModeFerry),
	"river":   network.NewModeSet(network.ModeFerry),
	"fairway": network.NewModeSet(network.ModeFerry),
}

var waterSpeedDefaultsKmh = map[string]float64{
	"canal":   20,
	"river":   20,
	"fairway": 20,
}

var waterLaneDefaults = map[string]int{
	"canal":   1,
	"river":   1,
	"fairway": 1,
}

var defaultModeMaxSpeedsKmh = map[network.Mode]float64{
	network.ModeCar:        130,
	network.ModeBus:        100,
	network.ModeBicycle:    25,
	network.ModeFoot:       5,
	network.ModeMotorcycle: 130,
	network.ModeHeavyGoods: 90,
	network.ModeTrain:      180,
	network.ModeTram:       70,
	network.ModeLightRail:  80,
	network.ModeFerry:      40,
}

// DefaultConfig builds the standard configuration for a country: road and
// rail layers activated, water deactivated, driving side and roundabout
// convention derived from the country code.
func DefaultConfig(countryCode string) *Config {
	leftHand := IsLeftHandDrive(countryCode)
	return &Config{
		CountryCode:         countryCode,
		LeftHandDrive:       leftHand,
		RoundaboutClockwise: leftHand,
		Schemes: map[osmtags.InfrastructureKind]*KindScheme{
			osmtags.RoadInfrastructure: {
				Kind:             osmtags.RoadInfrastructure,
				Activated:        true,
				SpeedDefaultsKmh: roadSpeedDefaultsKmh,
				LaneDefaults:     roadLaneDefaults,
				AllowedModes:     roadModes,
			},
			osmtags.RailInfrastructure: {
				Kind:             osmtags.RailInfrastructure,
				Activated:        true,
				SpeedDefaultsKmh: railSpeedDefaultsKmh,
				LaneDefaults:     railLaneDefaults,
				AllowedModes:     railModes,
			},
			osmtags.WaterInfrastructure: {
				Kind:             osmtags.WaterInfrastructure,
				Activated:        false,
				SpeedDefaultsKmh: waterSpeedDefaultsKmh,
				LaneDefaults:     waterLaneDefaults,
				AllowedModes:     waterModes,
			},
		},
		ModeMaxSpeedsKmh:         defaultModeMaxSpeedsKmh,
		FallbackDirectionalLanes: 1,
	}
}
