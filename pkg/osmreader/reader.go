package osmreader

import (
	"context"
	"errors"
	"os"
	"sort"

	"github.com/lintang-b-s/osmnet/pkg/network"
	"github.com/lintang-b-s/osmnet/pkg/osmtags"
	"github.com/lintang-b-s/osmnet/pkg/util"
	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Reader drives the conversion of an OSM extract into network layers: one
// streaming scan over the extract (nodes establish spatial eligibility
// before the first way arrives), deferred handling of circular ways, and a
// link breaking post-pass per layer.
type Reader struct {
	cfg *Config
	log *zap.Logger
}

func NewReader(cfg *Config, log *zap.Logger) *Reader {
	return &Reader{cfg: cfg, log: log}
}

// LayerResult is one converted network layer together with its run counters.
type LayerResult struct {
	Kind  osmtags.InfrastructureKind
	Layer *network.Layer
	Stats *Stats
}

type Result struct {
	Layers []*LayerResult
}

// Layer returns the result for one infrastructure kind, or nil.
func (r *Result) Layer(kind osmtags.InfrastructureKind) *LayerResult {
	for _, lr := range r.Layers {
		if lr.Kind == kind {
			return lr
		}
	}
	return nil
}

// Read parses the .osm.pbf extract at mapFile and builds one network layer
// per activated infrastructure kind.
func (r *Reader) Read(ctx context.Context, mapFile string) (*Result, error) {
	f, err := os.Open(mapFile)
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrDirtyData, "osmreader.Read %s", mapFile)
	}
	defer f.Close()

	registry := NewNodeRegistry(r.cfg.BoundingPolygon)
	for _, osmNodeID := range r.cfg.KeepNodeIDs {
		registry.MarkKeep(osmNodeID)
	}

	handlers := make([]*layerHandler, 0, len(r.cfg.Schemes))
	for _, kind := range []osmtags.InfrastructureKind{
		osmtags.RoadInfrastructure, osmtags.RailInfrastructure, osmtags.WaterInfrastructure,
	} {
		scheme := r.cfg.Scheme(kind)
		if scheme == nil || !scheme.Activated {
			continue
		}
		handlers = append(handlers, newLayerHandler(len(handlers)+1, r.cfg, scheme, registry, r.log))
	}
	if len(handlers) == 0 {
		return nil, util.WrapErrorf(nil, util.ErrInvariant, "no infrastructure kind is activated")
	}

	scanner := osmpbf.New(ctx, f, 0)
	// must not be parallel, ways depend on every node being registered
	defer scanner.Close()

	countNodes, countWays := 0, 0
	for scanner.Scan() {
		o := scanner.Object()

		switch o.ObjectID().Type() {
		case osm.TypeNode:
			node := o.(*osm.Node)
			registry.RegisterNode(int64(node.ID), orb.Point{node.Lon, node.Lat})
			if (countNodes+1)%1000000 == 0 {
				r.log.Sugar().Infof("scanning openstreetmap nodes: %d...", countNodes+1)
			}
			countNodes++
		case osm.TypeWay:
			osmWay := o.(*osm.Way)
			if len(osmWay.Nodes) < 2 {
				continue
			}
			if (countWays+1)%100000 == 0 {
				r.log.Sugar().Infof("scanning openstreetmap ways: %d...", countWays+1)
			}
			countWays++

			way := convertWay(osmWay)
			for _, handler := range handlers {
				if err := handler.handleWay(way); err != nil {
					if errors.Is(err, util.ErrInvariant) {
						return nil, err
					}
					r.log.Warn("skipping way after processing error",
						zap.Int64("osmWayID", way.ID), zap.Error(err))
					handler.stats.WaysDiscarded++
				}
			}
		case osm.TypeRelation:
			// relations (routes, restrictions) do not contribute links
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, util.WrapErrorf(err, util.ErrDirtyData, "osmreader.Read scan")
	}

	// per-layer post-passes are independent of each other
	group, _ := errgroup.WithContext(ctx)
	for _, handler := range handlers {
		handler := handler
		group.Go(handler.finish)
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	result := &Result{Layers: make([]*LayerResult, 0, len(handlers))}
	for _, handler := range handlers {
		handler.stats.Log(r.log, handler.scheme.Kind.String())
		result.Layers = append(result.Layers, &LayerResult{
			Kind:  handler.scheme.Kind,
			Layer: handler.data.Layer(),
			Stats: handler.stats,
		})
	}
	return result, nil
}

func convertWay(osmWay *osm.Way) *Way {
	nodeIDs := make([]int64, len(osmWay.Nodes))
	for i, n := range osmWay.Nodes {
		nodeIDs[i] = int64(n.ID)
	}
	return &Way{
		ID:      int64(osmWay.ID),
		NodeIDs: nodeIDs,
		Tags:    osmWay.Tags.Map(),
	}
}

// layerHandler owns the full extraction pipeline of one network layer.
type layerHandler struct {
	cfg      *Config
	scheme   *KindScheme
	registry *NodeRegistry
	data     *LayerData
	stats    *Stats
	log      *zap.Logger

	modes    *ModeResolver
	types    *SegmentTypeResolver
	links    *LinkBuilder
	segments *SegmentBuilder
	circular *CircularResolver

	defaultTypes    map[string]*network.LinkSegmentType
	pendingCircular []*Way
}

func newLayerHandler(id int, cfg *Config, scheme *KindScheme, registry *NodeRegistry, log *zap.Logger) *layerHandler {
	layer := network.NewLayer(id, scheme.Kind.String(), scheme.SupportedModes())
	data := NewLayerData(layer)
	stats := &Stats{}

	h := &layerHandler{
		cfg:          cfg,
		scheme:       scheme,
		registry:     registry,
		data:         data,
		stats:        stats,
		log:          log,
		defaultTypes: make(map[string]*network.LinkSegmentType),
	}
	h.modes = NewModeResolver(cfg, scheme)
	h.types = NewSegmentTypeResolver(layer, cfg, scheme, stats)
	h.links = NewLinkBuilder(registry, data, stats, log)
	h.segments = NewSegmentBuilder(cfg, scheme, data, stats, log)
	h.circular = NewCircularResolver(cfg, registry, data, stats, log, h.extractPartialLink)
	return h
}

// handleWay processes one streamed way for this layer. Circular ways are
// deferred until all straight ways exist, so their contact points with the
// rest of the network are known.
func (h *layerHandler) handleWay(way *Way) error {
	if osmtags.IsArea(way.Tags) {
		return nil
	}
	kind, typeValue, ok := osmtags.InfrastructureKeyFor(way.Tags)
	if !ok || kind != h.scheme.Kind || !h.scheme.Supports(typeValue) {
		return nil
	}
	h.stats.WaysProcessed++

	if !h.data.IsWayAvailable(way.ID) {
		return nil
	}
	if _, _, loops := findLoop(way.NodeIDs, 0); loops {
		h.pendingCircular = append(h.pendingCircular, way)
		return nil
	}

	_, err := h.extractPartialLink(way, 0, len(way.NodeIDs)-1, PartialLinkOptions{})
	return err
}

// extractPartialLink turns way[startIdx..endIdx] into a link with up to two
// directed segments. It returns nil when no supported mode may traverse the
// fragment in either direction, or when the link builder discarded it.
func (h *layerHandler) extractPartialLink(way *Way, startIdx, endIdx int, opts PartialLinkOptions) (*network.Link, error) {
	_, typeValue, ok := osmtags.InfrastructureKeyFor(way.Tags)
	if !ok {
		return nil, nil
	}
	base, err := h.defaultTypeFor(typeValue)
	if err != nil {
		return nil, err
	}

	var fwdType, bwdType *network.LinkSegmentType
	for _, dir := range []network.Direction{network.DirectionForward, network.DirectionBackward} {
		if opts.ForcedDirection != 0 && dir != opts.ForcedDirection {
			continue
		}
		forward := dir == network.DirectionForward
		if opts.ForcedDirection != 0 {
			// the forced direction is the traveled one; resolve access as
			// the way's main direction so the oneway and roundabout
			// exclusions for the opposite direction do not fire
			forward = true
		}
		included, excluded := h.modes.ResolveModeAccess(way.Tags, forward, typeValue)

		viable := base.Modes()
		viable.Add(included.Sorted()...)
		viable.Remove(excluded.Sorted()...)
		if viable.Empty() {
			continue
		}

		resolved, err := h.types.Resolve(base, included, excluded, typeValue)
		if err != nil {
			return nil, err
		}
		if dir == network.DirectionForward {
			fwdType = resolved
		} else {
			bwdType = resolved
		}
	}
	if fwdType == nil && bwdType == nil {
		return nil, nil
	}

	link, err := h.links.BuildOrReuse(way, startIdx, endIdx, !opts.PartOfCircularWay, typeValue)
	if err != nil || link == nil {
		return nil, err
	}
	if err := h.segments.Build(way, link, fwdType, bwdType, typeValue); err != nil {
		return nil, err
	}
	return link, nil
}

// defaultTypeFor lazily registers the layer's default segment type for one
// way type value, granting every allowed mode the type's default speed
// capped by the mode's own maximum.
func (h *layerHandler) defaultTypeFor(typeValue string) (*network.LinkSegmentType, error) {
	if t, ok := h.defaultTypes[typeValue]; ok {
		return t, nil
	}

	speed, ok := h.scheme.DefaultSpeedKmh(typeValue)
	if !ok {
		return nil, util.WrapErrorf(nil, util.ErrInvariant,
			"no default speed configured for %s=%s", h.scheme.Kind.Key(), typeValue)
	}

	access := make(map[network.Mode]network.AccessProperties)
	for _, m := range h.scheme.AllowedModes[typeValue].Sorted() {
		capped := speed
		if modeMax, ok := h.cfg.ModeMaxSpeedKmh(m); ok && modeMax < capped {
			capped = modeMax
		}
		access[m] = network.AccessProperties{MaxSpeedKmh: capped, CriticalSpeedKmh: capped}
	}

	t := h.data.Layer().RegisterSegmentType(typeValue, h.scheme.Kind.Key()+"="+typeValue, access)
	h.stats.TypesCreated++
	h.defaultTypes[typeValue] = t
	return t, nil
}

// finish runs the deferred circular way decomposition, in way id order for
// reproducible identifiers, followed by the link breaking pass.
func (h *layerHandler) finish() error {
	sort.Slice(h.pendingCircular, func(i, j int) bool {
		return h.pendingCircular[i].ID < h.pendingCircular[j].ID
	})
	for _, way := range h.pendingCircular {
		if !h.data.IsWayAvailable(way.ID) {
			continue
		}
		if _, err := h.circular.Resolve(way); err != nil {
			if errors.Is(err, util.ErrInvariant) {
				return err
			}
			h.log.Warn("skipping malformed circular way",
				zap.Int64("osmWayID", way.ID), zap.Error(err))
			h.stats.WaysDiscarded++
		}
	}

	return NewBreaker(h.data, h.stats, h.log).Run()
}
