package usecases

import (
	"github.com/jomondi/fleetpulse/internal/core/domain"
	"github.com/jomondi/fleetpulse/internal/pkg/geospatial"
)

// ClusterOptions tunes the marker clustering pass.
type ClusterOptions struct {
	// MaxZoom is the zoom level at and above which clustering is disabled so
	// individual vehicles stay selectable at street level.
	MaxZoom int
	// RadiusPx is the on-screen pixel radius within which points merge.
	RadiusPx float64
}

// DefaultClusterOptions returns the standard clustering parameters.
func DefaultClusterOptions() ClusterOptions {
	return ClusterOptions{MaxZoom: 16, RadiusPx: 40}
}

// ClusterEngine groups point markers by pixel proximity at a given zoom
// level. It is a pure function of its inputs and keeps no state.
type ClusterEngine struct {
	opts ClusterOptions
}

// NewClusterEngine creates an engine with the given options; zero-value
// options fall back to the defaults.
func NewClusterEngine(opts ClusterOptions) *ClusterEngine {
	if opts.MaxZoom <= 0 {
		opts.MaxZoom = 16
	}
	if opts.RadiusPx <= 0 {
		opts.RadiusPx = 40
	}
	return &ClusterEngine{opts: opts}
}

// Cluster partitions points into groups whose members are within RadiusPx of
// the cluster seed at the given zoom.
//
// The scan is greedy and O(n²): each unprocessed point seeds a cluster and
// absorbs every remaining point within radius. That is acceptable for fleet
// sizes in the low hundreds; a spatial-index bucketing pass is the upgrade
// path for larger sets, and any replacement must keep this output
// (cluster_engine_test.go pins the contract).
//
// Inputs are assumed to carry valid coordinates; malformed points are
// filtered out upstream at ingest.
func (e *ClusterEngine) Cluster(points []domain.PointMarker, zoom int) []domain.ClusterPoint {
	if len(points) == 0 {
		return nil
	}

	// At street-level zoom every point stays individually selectable.
	if zoom >= e.opts.MaxZoom {
		clusters := make([]domain.ClusterPoint, len(points))
		for i, p := range points {
			clusters[i] = singletonCluster(p)
		}
		return clusters
	}

	processed := make([]bool, len(points))
	var clusters []domain.ClusterPoint

	for i, seed := range points {
		if processed[i] {
			continue
		}
		processed[i] = true

		cluster := singletonCluster(seed)
		sumLat, sumLng := seed.Lat, seed.Lng

		for j := i + 1; j < len(points); j++ {
			if processed[j] {
				continue
			}
			p := points[j]
			if geospatial.PixelDistance(seed.Lat, seed.Lng, p.Lat, p.Lng, zoom) <= e.opts.RadiusPx {
				processed[j] = true
				cluster.MemberIDs = append(cluster.MemberIDs, p.ID)
				cluster.Count++
				sumLat += p.Lat
				sumLng += p.Lng
				cluster.Bounds = extendBounds(cluster.Bounds, p.Lat, p.Lng)
			}
		}

		if cluster.Count > 1 {
			cluster.CenterLat = sumLat / float64(cluster.Count)
			cluster.CenterLng = sumLng / float64(cluster.Count)
		}
		clusters = append(clusters, cluster)
	}

	return clusters
}

func singletonCluster(p domain.PointMarker) domain.ClusterPoint {
	return domain.ClusterPoint{
		CenterLat: p.Lat,
		CenterLng: p.Lng,
		MemberIDs: []string{p.ID},
		Count:     1,
		Bounds: domain.Viewport{
			North: p.Lat, South: p.Lat,
			East: p.Lng, West: p.Lng,
		},
	}
}

func extendBounds(b domain.Viewport, lat, lng float64) domain.Viewport {
	if lat > b.North {
		b.North = lat
	}
	if lat < b.South {
		b.South = lat
	}
	if lng > b.East {
		b.East = lng
	}
	if lng < b.West {
		b.West = lng
	}
	return b
}
