package spatialindex

import (
	"testing"

	"github.com/lintang-b-s/osmnet/pkg/logger"
	"github.com/lintang-b-s/osmnet/pkg/network"
	"github.com/paulmach/orb"
)

func buildTestLayer(t *testing.T) (*network.Layer, *network.Link, *network.Link) {
	t.Helper()
	layer := network.NewLayer(1, "road", network.ModeSet{})

	mkLink := func(a, b orb.Point, id string) *network.Link {
		na := layer.CreateNode(a, 0)
		nb := layer.CreateNode(b, 0)
		link, err := layer.CreateLink(na, nb, orb.LineString{a, b}, id)
		if err != nil {
			t.Fatalf("CreateLink: %v", err)
		}
		return link
	}

	// one link through the origin, one roughly 1.1 km north of it
	near := mkLink(orb.Point{-0.001, 0}, orb.Point{0.001, 0}, "1")
	far := mkLink(orb.Point{-0.001, 0.01}, orb.Point{0.001, 0.01}, "2")
	return layer, near, far
}

func TestLinksNear(t *testing.T) {
	layer, near, far := buildTestLayer(t)
	log, err := logger.New()
	if err != nil {
		t.Fatal(err)
	}

	index := NewRtree()
	index.Build(layer, 0.01, log)

	got := index.LinksNear(0, 0, 0.3, 0)
	if len(got) != 1 || got[0] != near {
		t.Fatalf("LinksNear(0.3km) = %v, want only the near link", got)
	}

	got = index.LinksNear(0, 0, 2.0, 0)
	if len(got) != 2 {
		t.Fatalf("LinksNear(2km) returned %d links, want 2", len(got))
	}
	_ = far
}

func TestNearestLink(t *testing.T) {
	layer, near, _ := buildTestLayer(t)
	log, err := logger.New()
	if err != nil {
		t.Fatal(err)
	}

	index := NewRtree()
	index.Build(layer, 0.01, log)

	// slightly north of the near link, the snap must land on it
	link, snapped, dist := index.NearestLink(0.0005, 0, 2.0)
	if link != near {
		t.Fatalf("NearestLink snapped to %v, want the near link", link)
	}
	if dist <= 0 || dist > 100 {
		t.Errorf("snap distance = %f m, want within (0,100]", dist)
	}
	if snapped.Lat() > 0.0001 || snapped.Lat() < -0.0001 {
		t.Errorf("snapped point %v not on the near link's latitude", snapped)
	}

	if link, _, _ := index.NearestLink(10, 10, 1.0); link != nil {
		t.Errorf("NearestLink far away = %v, want nil", link)
	}
}
