package osmtags

import "fmt"

// InfrastructureKind is the transport layer a way belongs to. Each kind maps
// to exactly one OSM key and each network layer is built from one kind.
type InfrastructureKind uint8

const (
	RoadInfrastructure InfrastructureKind = iota + 1
	RailInfrastructure
	WaterInfrastructure
)

func (k InfrastructureKind) String() string {
	switch k {
	case RoadInfrastructure:
		return "road"
	case RailInfrastructure:
		return "rail"
	case WaterInfrastructure:
		return "water"
	}
	panic(fmt.Sprintf("unknown InfrastructureKind %d", k))
}

// Key returns the OSM tag key identifying this kind of infrastructure.
func (k InfrastructureKind) Key() string {
	switch k {
	case RoadInfrastructure:
		return KeyHighway
	case RailInfrastructure:
		return KeyRailway
	case WaterInfrastructure:
		return KeyWaterway
	}
	panic(fmt.Sprintf("unknown InfrastructureKind %d", k))
}

// InfrastructureKeyFor classifies a tag set as road, rail or water
// infrastructure and returns the tagged type value. Road wins when a way
// carries more than one infrastructure key, which happens on e.g. highways
// crossing a weir.
func InfrastructureKeyFor(tags map[string]string) (InfrastructureKind, string, bool) {
	if v, ok := tags[KeyHighway]; ok && v != "" {
		return RoadInfrastructure, v, true
	}
	if v, ok := tags[KeyRailway]; ok && v != "" {
		return RailInfrastructure, v, true
	}
	if v, ok := tags[KeyWaterway]; ok && v != "" {
		return WaterInfrastructure, v, true
	}
	return 0, "", false
}
