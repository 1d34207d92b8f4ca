package osmreader

import (
	"testing"

	"github.com/paulmach/orb"
)

func TestRegisterNodeBoundingAndKeep(t *testing.T) {
	bounding := orb.Polygon{orb.Ring{
		{0, 0}, {0.01, 0}, {0.01, 0.01}, {0, 0.01}, {0, 0},
	}}
	r := NewNodeRegistry(bounding)
	r.MarkKeep(3)

	if !r.RegisterNode(1, orb.Point{0.005, 0.005}) {
		t.Error("node inside the bounding polygon must be kept")
	}
	if r.RegisterNode(2, orb.Point{0.5, 0.5}) {
		t.Error("node outside the bounding polygon must be dropped")
	}
	if !r.RegisterNode(3, orb.Point{0.5, 0.5}) {
		t.Error("a marked node must be kept even outside the bounding polygon")
	}

	if !r.IsAvailable(1) || !r.IsAvailable(3) {
		t.Error("kept nodes must be available")
	}
	if r.IsAvailable(2) {
		t.Error("dropped node must not be available")
	}
	if got := r.CountNodes(); got != 2 {
		t.Errorf("CountNodes = %d, want 2", got)
	}
}
