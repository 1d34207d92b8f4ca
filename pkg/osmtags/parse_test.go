package osmtags

import (
	"math"
	"testing"
)

func TestParseSpeedKmh(t *testing.T) {
	testCases := []struct {
		name    string
		value   string
		want    float64
		wantErr bool
	}{
		{name: "plain km/h by convention", value: "50", want: 50},
		{name: "explicit km/h unit", value: "30 km/h", want: 30},
		{name: "mph", value: "30 mph", want: 48.2802},
		{name: "mph without space", value: "30mph", want: 48.2802},
		{name: "knots", value: "10 knots", want: 18.52},
		{name: "decimal", value: "7.5", want: 7.5},
		{name: "walk is not a number", value: "walk", wantErr: true},
		{name: "empty", value: "", wantErr: true},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSpeedKmh(tt.value)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseSpeedKmh(%q) expected error, got %v", tt.value, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSpeedKmh(%q) err: %v", tt.value, err)
			}
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("ParseSpeedKmh(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestParseMaxLaneSpeedKmh(t *testing.T) {
	got, err := ParseMaxLaneSpeedKmh("50|60|40")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if got != 60 {
		t.Errorf("max lane speed = %v, want 60", got)
	}

	if _, err := ParseMaxLaneSpeedKmh("||"); err == nil {
		t.Error("expected error for empty lane list")
	}
}

func TestParseLanes(t *testing.T) {
	testCases := []struct {
		value   string
		want    int
		wantErr bool
	}{
		{value: "2", want: 2},
		{value: "1.5", want: 1},
		{value: " 4 ", want: 4},
		{value: "0", wantErr: true},
		{value: "many", wantErr: true},
	}
	for _, tt := range testCases {
		got, err := ParseLanes(tt.value)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseLanes(%q) expected error, got %d", tt.value, got)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseLanes(%q) = %d, %v, want %d", tt.value, got, err, tt.want)
		}
	}
}

func TestVerticalLayer(t *testing.T) {
	if got := VerticalLayer(map[string]string{"layer": "-1"}); got != -1 {
		t.Errorf("layer=-1 parsed as %d", got)
	}
	if got := VerticalLayer(map[string]string{"layer": "bridge"}); got != 0 {
		t.Errorf("malformed layer should default to 0, got %d", got)
	}
	if got := VerticalLayer(map[string]string{}); got != 0 {
		t.Errorf("missing layer should default to 0, got %d", got)
	}
}

func TestOnewayClassification(t *testing.T) {
	testCases := []struct {
		name         string
		tags         map[string]string
		oneWay       bool
		reversed     bool
		hasOnewayTag bool
	}{
		{name: "yes", tags: map[string]string{"oneway": "yes"}, oneWay: true, hasOnewayTag: true},
		{name: "numeric true", tags: map[string]string{"oneway": "1"}, oneWay: true, hasOnewayTag: true},
		{name: "reversed", tags: map[string]string{"oneway": "-1"}, reversed: true, hasOnewayTag: true},
		{name: "explicit no", tags: map[string]string{"oneway": "no"}, hasOnewayTag: true},
		{name: "untagged", tags: map[string]string{}},
	}
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			if IsOneWay(tt.tags) != tt.oneWay {
				t.Errorf("IsOneWay = %v, want %v", IsOneWay(tt.tags), tt.oneWay)
			}
			if IsReversedOneWay(tt.tags) != tt.reversed {
				t.Errorf("IsReversedOneWay = %v, want %v", IsReversedOneWay(tt.tags), tt.reversed)
			}
			if HasOneWayTag(tt.tags) != tt.hasOnewayTag {
				t.Errorf("HasOneWayTag = %v, want %v", HasOneWayTag(tt.tags), tt.hasOnewayTag)
			}
		})
	}
}

func TestInfrastructureKeyFor(t *testing.T) {
	kind, value, ok := InfrastructureKeyFor(map[string]string{"highway": "primary"})
	if !ok || kind != RoadInfrastructure || value != "primary" {
		t.Errorf("highway=primary classified as %v/%v/%v", kind, value, ok)
	}

	// road wins over other infrastructure keys on the same way
	kind, value, ok = InfrastructureKeyFor(map[string]string{"highway": "service", "railway": "tram"})
	if !ok || kind != RoadInfrastructure || value != "service" {
		t.Errorf("mixed keys classified as %v/%v/%v, want road/service", kind, value, ok)
	}

	kind, value, ok = InfrastructureKeyFor(map[string]string{"waterway": "canal"})
	if !ok || kind != WaterInfrastructure || value != "canal" {
		t.Errorf("waterway=canal classified as %v/%v/%v", kind, value, ok)
	}

	if _, _, ok := InfrastructureKeyFor(map[string]string{"building": "yes"}); ok {
		t.Error("building should not classify as infrastructure")
	}
}

func TestIsRoundaboutAndArea(t *testing.T) {
	if !IsRoundabout(map[string]string{"junction": "roundabout"}) {
		t.Error("junction=roundabout not detected")
	}
	if !IsRoundabout(map[string]string{"junction": "circular"}) {
		t.Error("junction=circular not detected")
	}
	if IsRoundabout(map[string]string{"junction": "yes"}) {
		t.Error("junction=yes should not be circular")
	}
	if !IsArea(map[string]string{"area": "yes"}) || IsArea(map[string]string{"area": "no"}) {
		t.Error("area classification wrong")
	}
}
