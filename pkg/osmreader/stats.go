package osmreader

import "go.uber.org/zap"

// Stats aggregates per-layer observability counters for one run. Defaults
// applied for missing tags are data quality signals, not errors.
type Stats struct {
	NodesCreated    int64
	LinksCreated    int64
	SegmentsCreated int64
	TypesCreated    int64

	WaysProcessed int64
	WaysDiscarded int64
	CircularWays  int64
	LinksBroken   int64

	MissingSpeedLimit int64
	MissingLanes      int64
}

func (s *Stats) percentDefaulted(count int64) float64 {
	if s.SegmentsCreated == 0 {
		return 0
	}
	return 100 * float64(count) / float64(s.SegmentsCreated)
}

// PercentDefaultSpeed is the share of segments that fell back to the
// infrastructure type's default speed.
func (s *Stats) PercentDefaultSpeed() float64 {
	return s.percentDefaulted(s.MissingSpeedLimit)
}

// PercentDefaultLanes is the share of segments that fell back to the
// configured default lane count.
func (s *Stats) PercentDefaultLanes() float64 {
	return s.percentDefaulted(s.MissingLanes)
}

// Log writes the run summary for one layer.
func (s *Stats) Log(log *zap.Logger, layerName string) {
	log.Info("layer summary",
		zap.String("layer", layerName),
		zap.Int64("nodes", s.NodesCreated),
		zap.Int64("links", s.LinksCreated),
		zap.Int64("segments", s.SegmentsCreated),
		zap.Int64("types", s.TypesCreated),
		zap.Int64("waysProcessed", s.WaysProcessed),
		zap.Int64("waysDiscarded", s.WaysDiscarded),
		zap.Int64("circularWays", s.CircularWays),
		zap.Int64("linksBroken", s.LinksBroken),
		zap.Float64("percentDefaultSpeed", s.PercentDefaultSpeed()),
		zap.Float64("percentDefaultLanes", s.PercentDefaultLanes()),
	)
}
