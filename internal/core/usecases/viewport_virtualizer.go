package usecases

import (
	"fmt"
	"sync"
	"time"

	"github.com/jomondi/fleetpulse/internal/core/domain"
	"github.com/jomondi/fleetpulse/internal/pkg/metrics"
)

// VirtualizerOptions tunes how much of the marker set a frame materializes.
type VirtualizerOptions struct {
	BufferFactor       float64       // viewport expansion, 1.5 = 25% margin each side
	MaxVehiclesPerView int           // above this, switch to clusters
	MaxSamples         int           // cap for the sampled render level
	UpdateThrottle     time.Duration // pan/zoom gesture debounce
	CacheLimit         int           // bounded result cache entries
	ClusteringEnabled  bool
	Cluster            ClusterOptions
}

// DefaultVirtualizerOptions returns the standard virtualization parameters.
func DefaultVirtualizerOptions() VirtualizerOptions {
	return VirtualizerOptions{
		BufferFactor:       1.5,
		MaxVehiclesPerView: 200,
		MaxSamples:         100,
		UpdateThrottle:     250 * time.Millisecond,
		CacheLimit:         50,
		ClusteringEnabled:  true,
		Cluster:            DefaultClusterOptions(),
	}
}

// ViewportVirtualizer decides, per map frame, how much of the full marker set
// to materialize and at what fidelity, bounding render cost regardless of
// fleet size. Construct one instance per map surface; the internal lock makes
// concurrent handler calls safe, but unrelated surfaces sharing an instance
// would collide on cache keys.
type ViewportVirtualizer struct {
	mu     sync.Mutex
	opts   VirtualizerOptions
	engine *ClusterEngine
	points []domain.PointMarker
	cache  map[string]domain.VirtualizedResult
	order  []string // cache keys in insertion order
	lastAt time.Time
	last   *domain.VirtualizedResult
	nowFn  func() time.Time
}

// NewViewportVirtualizer creates a virtualizer with the given options;
// zero-value fields fall back to the defaults.
func NewViewportVirtualizer(opts VirtualizerOptions) *ViewportVirtualizer {
	def := DefaultVirtualizerOptions()
	if opts.BufferFactor <= 1 {
		opts.BufferFactor = def.BufferFactor
	}
	if opts.MaxVehiclesPerView <= 0 {
		opts.MaxVehiclesPerView = def.MaxVehiclesPerView
	}
	if opts.MaxSamples <= 0 {
		opts.MaxSamples = def.MaxSamples
	}
	if opts.UpdateThrottle <= 0 {
		opts.UpdateThrottle = def.UpdateThrottle
	}
	if opts.CacheLimit <= 0 {
		opts.CacheLimit = def.CacheLimit
	}
	return &ViewportVirtualizer{
		opts:   opts,
		engine: NewClusterEngine(opts.Cluster),
		cache:  make(map[string]domain.VirtualizedResult),
		nowFn:  time.Now,
	}
}

// SetData replaces the full point set and invalidates all cached results.
// Clearing unconditionally trades precision for simplicity.
func (v *ViewportVirtualizer) SetData(points []domain.PointMarker) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.points = points
	v.cache = make(map[string]domain.VirtualizedResult)
	v.order = v.order[:0]
	v.last = nil
	v.lastAt = time.Time{}
}

// Virtualize filters the marker set to a buffered viewport and picks a render
// strategy. It never blocks and always returns a result, possibly empty.
func (v *ViewportVirtualizer) Virtualize(viewport domain.Viewport, zoom int) domain.VirtualizedResult {
	v.mu.Lock()
	defer v.mu.Unlock()

	now := v.nowFn()

	// Throttle: during continuous pan/zoom, serve the previous frame while
	// the requested view still fits inside the loaded buffered bounds.
	if v.last != nil && now.Sub(v.lastAt) < v.opts.UpdateThrottle &&
		v.last.LoadedBounds.ContainsViewport(viewport) {
		metrics.ViewportCacheHits.WithLabelValues("throttle").Inc()
		return *v.last
	}

	key := cacheKey(viewport, zoom)
	if cached, ok := v.cache[key]; ok {
		metrics.ViewportCacheHits.WithLabelValues("result").Inc()
		v.last = &cached
		v.lastAt = now
		return cached
	}
	metrics.ViewportCacheMisses.Inc()

	result := v.compute(viewport, zoom)

	v.cache[key] = result
	v.order = append(v.order, key)
	for len(v.order) > v.opts.CacheLimit {
		// Oldest-inserted eviction; not LRU.
		oldest := v.order[0]
		v.order = v.order[1:]
		delete(v.cache, oldest)
	}

	v.last = &result
	v.lastAt = now
	return result
}

func (v *ViewportVirtualizer) compute(viewport domain.Viewport, zoom int) domain.VirtualizedResult {
	started := v.nowFn()

	buffered := viewport.Expand((v.opts.BufferFactor - 1) / 2)

	var visible []domain.PointMarker
	for _, p := range v.points {
		if buffered.Contains(p.Lat, p.Lng) {
			visible = append(visible, p)
		}
	}

	level := v.renderLevel(zoom, len(visible))
	result := domain.VirtualizedResult{
		TotalCount:   len(visible),
		RenderLevel:  level,
		LoadedBounds: buffered,
	}

	switch level {
	case domain.RenderClustered:
		result.Clusters = v.engine.Cluster(visible, zoom)
	case domain.RenderSampled:
		result.VisibleVehicleIDs = sampleIDs(visible, v.opts.MaxSamples)
	default:
		ids := make([]string, len(visible))
		for i, p := range visible {
			ids[i] = p.ID
		}
		result.VisibleVehicleIDs = ids
	}

	metrics.VirtualizePassDuration.Observe(v.nowFn().Sub(started).Seconds())
	return result
}

func (v *ViewportVirtualizer) renderLevel(zoom, count int) domain.RenderLevel {
	switch {
	case zoom >= 16:
		if count <= v.opts.MaxVehiclesPerView {
			return domain.RenderIndividual
		}
		return domain.RenderClustered
	case zoom <= 8 && count > 2*v.opts.MaxVehiclesPerView:
		return domain.RenderSampled
	case count > v.opts.MaxVehiclesPerView && v.opts.ClusteringEnabled:
		return domain.RenderClustered
	default:
		return domain.RenderIndividual
	}
}

// sampleIDs takes a deterministic fixed-stride subsample, always including
// the first element.
func sampleIDs(points []domain.PointMarker, maxSamples int) []string {
	if len(points) == 0 {
		return nil
	}
	stride := (len(points) + maxSamples - 1) / maxSamples
	if stride < 1 {
		stride = 1
	}
	ids := make([]string, 0, maxSamples)
	for i := 0; i < len(points) && len(ids) < maxSamples; i += stride {
		ids = append(ids, points[i].ID)
	}
	return ids
}

// cacheKey quantizes the viewport so tiny coordinate jitter during a pan maps
// to the same entry.
func cacheKey(v domain.Viewport, zoom int) string {
	return fmt.Sprintf("%d:%.3f:%.3f:%.3f:%.3f", zoom, v.North, v.South, v.East, v.West)
}
