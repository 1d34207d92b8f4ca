package osmtags

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseSpeedKmh parses a maxspeed-style value into km/h. OSM allows plain
// numbers (km/h by convention) and unit-suffixed values.
func ParseSpeedKmh(value string) (float64, error) {
	value = strings.TrimSpace(value)
	switch {
	case strings.Contains(value, "mph"):
		speed, err := strconv.ParseFloat(strings.TrimSpace(strings.Replace(value, "mph", "", -1)), 64)
		if err != nil {
			return 0, fmt.Errorf("unparseable mph speed value %q: %w", value, err)
		}
		return speed * 1.60934, nil
	case strings.Contains(value, "km/h"):
		speed, err := strconv.ParseFloat(strings.TrimSpace(strings.Replace(value, "km/h", "", -1)), 64)
		if err != nil {
			return 0, fmt.Errorf("unparseable km/h speed value %q: %w", value, err)
		}
		return speed, nil
	case strings.Contains(value, "knots"):
		speed, err := strconv.ParseFloat(strings.TrimSpace(strings.Replace(value, "knots", "", -1)), 64)
		if err != nil {
			return 0, fmt.Errorf("unparseable knots speed value %q: %w", value, err)
		}
		return speed * 1.852, nil
	default:
		speed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("unparseable speed value %q: %w", value, err)
		}
		return speed, nil
	}
}

// ParseMaxLaneSpeedKmh parses a per-lane maxspeed value ("50|60|40") and
// returns the maximum across lanes.
func ParseMaxLaneSpeedKmh(value string) (float64, error) {
	maxSpeed := 0.0
	found := false
	for _, lane := range strings.Split(value, "|") {
		lane = strings.TrimSpace(lane)
		if lane == "" {
			continue
		}
		speed, err := ParseSpeedKmh(lane)
		if err != nil {
			return 0, err
		}
		if speed > maxSpeed {
			maxSpeed = speed
		}
		found = true
	}
	if !found {
		return 0, fmt.Errorf("no lane speeds in %q", value)
	}
	return maxSpeed, nil
}

// ParseLanes parses a lanes or tracks value into a count.
func ParseLanes(value string) (int, error) {
	// some ways carry fractional lane counts ("1.5"); round down to stay
	// conservative
	if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil && f > 0 {
		return int(f), nil
	}
	return 0, fmt.Errorf("unparseable lanes value %q", value)
}

// VerticalLayer returns the vertical layer index of the way (bridges above,
// tunnels below), defaulting to 0 for untagged or malformed values.
func VerticalLayer(tags map[string]string) int {
	v, ok := tags[KeyLayer]
	if !ok {
		return 0
	}
	layer, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0
	}
	return layer
}
