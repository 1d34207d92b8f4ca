package main

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/lintang-b-s/osmnet/pkg/export"
	"github.com/lintang-b-s/osmnet/pkg/logger"
	"github.com/lintang-b-s/osmnet/pkg/network"
	"github.com/lintang-b-s/osmnet/pkg/osmreader"
	"github.com/lintang-b-s/osmnet/pkg/osmtags"
	"github.com/lintang-b-s/osmnet/pkg/spatialindex"
	"github.com/lintang-b-s/osmnet/pkg/util"
	"github.com/paulmach/orb"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	input      = flag.String("input", "./data/map.osm.pbf", "input .osm.pbf extract")
	output     = flag.String("output", "./data/network", "output path prefix, one file per layer")
	format     = flag.String("format", "geojson", "output format: geojson or net")
	country    = flag.String("country", "DEU", "ISO 3166-1 alpha-3 country code for driving side defaults")
	configPath = flag.String("config", "", "optional directory holding config.yaml with overrides")
	probe      = flag.String("probe", "", "optional lon,lat sanity probe snapped to the nearest link of every layer")
)

func main() {
	flag.Parse()
	logger, err := logger.New()
	if err != nil {
		panic(err)
	}

	cfg := osmreader.DefaultConfig(*country)
	if *configPath != "" {
		if err := util.ReadConfig(*configPath); err != nil {
			panic(err)
		}
		applyOverrides(cfg)
	}

	reader := osmreader.NewReader(cfg, logger)
	result, err := reader.Read(context.Background(), *input)
	if err != nil {
		panic(err)
	}

	for _, lr := range result.Layers {
		name := fmt.Sprintf("%s_%s", *output, strings.ToLower(lr.Kind.String()))
		if err := write(lr.Layer, name); err != nil {
			panic(err)
		}
		logger.Info("layer written",
			zap.String("layer", lr.Kind.String()), zap.String("file", name))
	}

	if *probe != "" {
		runProbe(result, *probe, logger)
	}

	logger.Sugar().Infof("network conversion completed successfully.")
}

func write(layer *network.Layer, name string) error {
	switch *format {
	case "geojson":
		return export.WriteGeoJSON(layer, name+".geojson")
	case "net":
		return export.WriteNetworkFile(layer, name+".net.bz2")
	default:
		return fmt.Errorf("unknown output format %q", *format)
	}
}

// runProbe snaps a lon,lat coordinate onto every layer, a quick check that
// the converted network covers the expected area.
func runProbe(result *osmreader.Result, coord string, logger *zap.Logger) {
	parts := strings.Split(coord, ",")
	if len(parts) != 2 {
		panic(fmt.Errorf("invalid probe coordinate %q, want lon,lat", coord))
	}
	lon, errLon := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lat, errLat := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if errLon != nil || errLat != nil {
		panic(fmt.Errorf("invalid probe coordinate %q, want lon,lat", coord))
	}

	for _, lr := range result.Layers {
		index := spatialindex.NewRtree()
		index.Build(lr.Layer, 0.1, logger)
		link, snapped, dist := index.NearestLink(lat, lon, 1.0)
		if link == nil {
			logger.Warn("probe found no link within 1 km",
				zap.String("layer", lr.Kind.String()))
			continue
		}
		logger.Info("probe snapped",
			zap.String("layer", lr.Kind.String()),
			zap.Int64("linkID", link.ID()),
			zap.String("osmWayId", link.ExternalID()),
			zap.String("name", link.Name()),
			zap.Float64("snappedLon", snapped.Lon()),
			zap.Float64("snappedLat", snapped.Lat()),
			zap.Float64("distanceMeters", dist))
	}
}

// applyOverrides layers config.yaml values over the country defaults.
func applyOverrides(cfg *osmreader.Config) {
	viper.SetDefault("FALLBACK_DIRECTIONAL_LANES", cfg.FallbackDirectionalLanes)
	viper.SetDefault("RAIL_ACTIVATED", cfg.Scheme(osmtags.RailInfrastructure).Activated)
	viper.SetDefault("WATER_ACTIVATED", cfg.Scheme(osmtags.WaterInfrastructure).Activated)

	cfg.FallbackDirectionalLanes = viper.GetInt("FALLBACK_DIRECTIONAL_LANES")
	cfg.Scheme(osmtags.RailInfrastructure).Activated = viper.GetBool("RAIL_ACTIVATED")
	cfg.Scheme(osmtags.WaterInfrastructure).Activated = viper.GetBool("WATER_ACTIVATED")

	// KEEP_NODE_IDS: OSM nodes retained even outside the bounding polygon
	for _, raw := range viper.GetStringSlice("KEEP_NODE_IDS") {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			cfg.KeepNodeIDs = append(cfg.KeepNodeIDs, id)
		}
	}

	// BOUNDING_POLYGON: flat lon,lat pairs, e.g. [7.1, 51.2, 7.3, 51.2, ...]
	coords := viper.GetStringSlice("BOUNDING_POLYGON")
	if len(coords) >= 6 && len(coords)%2 == 0 {
		ring := make(orb.Ring, 0, len(coords)/2)
		for i := 0; i+1 < len(coords); i += 2 {
			lon, errLon := strconv.ParseFloat(coords[i], 64)
			lat, errLat := strconv.ParseFloat(coords[i+1], 64)
			if errLon != nil || errLat != nil {
				return
			}
			ring = append(ring, orb.Point{lon, lat})
		}
		if ring[0] != ring[len(ring)-1] {
			ring = append(ring, ring[0])
		}
		cfg.BoundingPolygon = orb.Polygon{ring}
	}
}
