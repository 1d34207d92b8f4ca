package osmreader

import (
	"testing"

	"github.com/lintang-b-s/osmnet/pkg/network"
	"github.com/lintang-b-s/osmnet/pkg/osmtags"
	"github.com/stretchr/testify/require"
)

func newTypeResolverFixture(t *testing.T) (*SegmentTypeResolver, *network.Layer, *network.LinkSegmentType, *Stats) {
	t.Helper()
	cfg := DefaultConfig("DEU")
	scheme := cfg.Scheme(osmtags.RoadInfrastructure)
	layer := network.NewLayer(1, "road", scheme.SupportedModes())
	stats := &Stats{}

	base := layer.RegisterSegmentType("primary", "highway=primary", map[network.Mode]network.AccessProperties{
		network.ModeCar:     {MaxSpeedKmh: 80, CriticalSpeedKmh: 80},
		network.ModeBicycle: {MaxSpeedKmh: 25, CriticalSpeedKmh: 25},
	})
	return NewSegmentTypeResolver(layer, cfg, scheme, stats), layer, base, stats
}

func TestResolveNoopReturnsSameInstance(t *testing.T) {
	resolver, _, base, stats := newTypeResolverFixture(t)

	got, err := resolver.Resolve(base, network.NewModeSet(), network.NewModeSet(), "primary")
	require.NoError(t, err)
	require.Same(t, base, got, "empty deltas must not copy the type")

	// adding a mode the type already carries is also a no-op
	got, err = resolver.Resolve(base, network.NewModeSet(network.ModeCar), network.NewModeSet(), "primary")
	require.NoError(t, err)
	require.Same(t, base, got)

	// removing a mode the type never carried is also a no-op
	got, err = resolver.Resolve(base, network.NewModeSet(), network.NewModeSet(network.ModeTrain), "primary")
	require.NoError(t, err)
	require.Same(t, base, got)

	require.EqualValues(t, 0, stats.TypesCreated)
}

func TestResolveAppliesDeltas(t *testing.T) {
	resolver, _, base, stats := newTypeResolverFixture(t)

	got, err := resolver.Resolve(base,
		network.NewModeSet(network.ModeFoot), network.NewModeSet(network.ModeCar), "primary")
	require.NoError(t, err)
	require.NotSame(t, base, got)
	require.True(t, got.Allows(network.ModeFoot))
	require.True(t, got.Allows(network.ModeBicycle))
	require.False(t, got.Allows(network.ModeCar))
	require.EqualValues(t, 1, stats.TypesCreated)

	// the added mode's speed is the type default capped by the mode maximum
	props, ok := got.AccessOf(network.ModeFoot)
	require.True(t, ok)
	require.InDelta(t, 5, props.MaxSpeedKmh, 0.001)

	// the base type is untouched
	require.True(t, base.Allows(network.ModeCar))
	require.False(t, base.Allows(network.ModeFoot))
}

func TestResolveMemoizesIdenticalDeltas(t *testing.T) {
	resolver, _, base, stats := newTypeResolverFixture(t)

	toAdd := network.NewModeSet(network.ModeFoot)
	toRemove := network.NewModeSet(network.ModeCar)

	first, err := resolver.Resolve(base, toAdd, toRemove, "primary")
	require.NoError(t, err)
	second, err := resolver.Resolve(base, toAdd.Clone(), toRemove.Clone(), "primary")
	require.NoError(t, err)

	require.Same(t, first, second, "the same delta must reuse the memoized type")
	require.EqualValues(t, 1, stats.TypesCreated)

	// a different delta yields a different type
	third, err := resolver.Resolve(base, network.NewModeSet(network.ModeFoot), network.NewModeSet(), "primary")
	require.NoError(t, err)
	require.NotSame(t, first, third)
	require.EqualValues(t, 2, stats.TypesCreated)
}

func TestResolveNilBaseIsInvariantViolation(t *testing.T) {
	resolver, _, _, _ := newTypeResolverFixture(t)
	_, err := resolver.Resolve(nil, network.NewModeSet(network.ModeFoot), network.NewModeSet(), "primary")
	require.Error(t, err)
}

func TestResolveMissingDefaultSpeedIsFatal(t *testing.T) {
	resolver, layer, _, _ := newTypeResolverFixture(t)
	base := layer.RegisterSegmentType("mystery", "highway=mystery", map[network.Mode]network.AccessProperties{
		network.ModeCar: {MaxSpeedKmh: 50, CriticalSpeedKmh: 50},
	})

	// "mystery" has no configured default speed, so adding a mode cannot
	// derive access properties
	_, err := resolver.Resolve(base, network.NewModeSet(network.ModeFoot), network.NewModeSet(), "mystery")
	require.Error(t, err)
}
