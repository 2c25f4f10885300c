package usecases_test

import (
	"testing"

	"github.com/jomondi/fleetpulse/internal/core/domain"
	"github.com/jomondi/fleetpulse/internal/core/usecases"
)

// Two markers ~55m apart in Nairobi. At zoom 10 they are well within a 40px
// radius; at zoom 16+ clustering is off entirely.
var nearbyPair = []domain.PointMarker{
	{ID: "a", Lat: -1.2921, Lng: 36.8219},
	{ID: "b", Lat: -1.2926, Lng: 36.8219},
}

func TestClusterEngine_EmptyInput(t *testing.T) {
	engine := usecases.NewClusterEngine(usecases.DefaultClusterOptions())
	if got := engine.Cluster(nil, 10); got != nil {
		t.Fatalf("expected nil for empty input, got %v", got)
	}
}

func TestClusterEngine_MergesNearbyPoints(t *testing.T) {
	engine := usecases.NewClusterEngine(usecases.DefaultClusterOptions())

	clusters := engine.Cluster(nearbyPair, 10)
	if len(clusters) != 1 {
		t.Fatalf("expected 1 cluster, got %d", len(clusters))
	}

	c := clusters[0]
	if c.Count != 2 || len(c.MemberIDs) != 2 {
		t.Fatalf("expected count 2 with 2 members, got count=%d members=%v", c.Count, c.MemberIDs)
	}

	// Centroid of the members
	wantLat := (nearbyPair[0].Lat + nearbyPair[1].Lat) / 2
	if c.CenterLat != wantLat {
		t.Errorf("expected centroid lat %f, got %f", wantLat, c.CenterLat)
	}

	// Bounds cover both raw positions
	if c.Bounds.North != nearbyPair[0].Lat || c.Bounds.South != nearbyPair[1].Lat {
		t.Errorf("bounds do not cover members: %+v", c.Bounds)
	}
}

func TestClusterEngine_SingletonsAtMaxZoom(t *testing.T) {
	engine := usecases.NewClusterEngine(usecases.ClusterOptions{MaxZoom: 16, RadiusPx: 40})

	clusters := engine.Cluster(nearbyPair, 16)
	if len(clusters) != 2 {
		t.Fatalf("expected 2 singleton clusters at max zoom, got %d", len(clusters))
	}
	for i, c := range clusters {
		if c.Count != 1 {
			t.Errorf("cluster %d: expected singleton, got count %d", i, c.Count)
		}
		if c.CenterLat != nearbyPair[i].Lat || c.CenterLng != nearbyPair[i].Lng {
			t.Errorf("cluster %d: singleton center must be the raw position", i)
		}
	}
}

func TestClusterEngine_FarPointsStaySeparate(t *testing.T) {
	engine := usecases.NewClusterEngine(usecases.DefaultClusterOptions())

	// Nairobi and Mombasa, ~440km apart
	points := []domain.PointMarker{
		{ID: "nbo", Lat: -1.2921, Lng: 36.8219},
		{ID: "mba", Lat: -4.0435, Lng: 39.6682},
	}

	clusters := engine.Cluster(points, 10)
	if len(clusters) != 2 {
		t.Fatalf("expected 2 clusters for far-apart points, got %d", len(clusters))
	}
}

func TestClusterEngine_FarPointsStaySeparateAnyOrder(t *testing.T) {
	engine := usecases.NewClusterEngine(usecases.DefaultClusterOptions())

	// Nairobi, Mombasa, Kisumu: pairwise hundreds of km apart
	points := []domain.PointMarker{
		{ID: "nbo", Lat: -1.2921, Lng: 36.8219},
		{ID: "mba", Lat: -4.0435, Lng: 39.6682},
		{ID: "ksm", Lat: -0.0917, Lng: 34.7680},
	}

	orders := [][]int{
		{0, 1, 2},
		{0, 2, 1},
		{1, 0, 2},
		{1, 2, 0},
		{2, 0, 1},
		{2, 1, 0},
	}
	for _, order := range orders {
		shuffled := make([]domain.PointMarker, len(points))
		for i, j := range order {
			shuffled[i] = points[j]
		}

		clusters := engine.Cluster(shuffled, 10)
		if len(clusters) != 3 {
			t.Fatalf("order %v: expected 3 singletons, got %d clusters", order, len(clusters))
		}
		for _, c := range clusters {
			if c.Count != 1 {
				t.Errorf("order %v: expected singleton, got count %d", order, c.Count)
			}
		}
	}
}

func TestClusterEngine_ZoomChangesGranularity(t *testing.T) {
	engine := usecases.NewClusterEngine(usecases.DefaultClusterOptions())

	// ~1.1km apart: one cluster when zoomed out, separate when zoomed in
	points := []domain.PointMarker{
		{ID: "a", Lat: -1.2921, Lng: 36.8219},
		{ID: "b", Lat: -1.3021, Lng: 36.8219},
	}

	low := engine.Cluster(points, 5)
	if len(low) != 1 {
		t.Fatalf("zoom 5: expected 1 cluster, got %d", len(low))
	}
	high := engine.Cluster(points, 14)
	if len(high) != 2 {
		t.Fatalf("zoom 14: expected 2 clusters, got %d", len(high))
	}
}

func TestClusterEngine_EveryPointAssignedOnce(t *testing.T) {
	engine := usecases.NewClusterEngine(usecases.DefaultClusterOptions())

	points := []domain.PointMarker{
		{ID: "a", Lat: -1.2921, Lng: 36.8219},
		{ID: "b", Lat: -1.2922, Lng: 36.8220},
		{ID: "c", Lat: -1.2923, Lng: 36.8221},
		{ID: "d", Lat: -4.0435, Lng: 39.6682},
		{ID: "e", Lat: -4.0436, Lng: 39.6683},
	}

	clusters := engine.Cluster(points, 10)

	seen := make(map[string]int)
	total := 0
	for _, c := range clusters {
		if c.Count != len(c.MemberIDs) {
			t.Errorf("count %d does not match members %v", c.Count, c.MemberIDs)
		}
		total += c.Count
		for _, id := range c.MemberIDs {
			seen[id]++
		}
	}

	if total != len(points) {
		t.Fatalf("expected %d points assigned, got %d", len(points), total)
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("point %s assigned %d times", id, n)
		}
	}
}

func TestClusterEngine_Deterministic(t *testing.T) {
	engine := usecases.NewClusterEngine(usecases.DefaultClusterOptions())

	points := []domain.PointMarker{
		{ID: "a", Lat: -1.2921, Lng: 36.8219},
		{ID: "b", Lat: -1.2922, Lng: 36.8220},
		{ID: "c", Lat: -1.2923, Lng: 36.8221},
	}

	first := engine.Cluster(points, 10)
	second := engine.Cluster(points, 10)

	if len(first) != len(second) {
		t.Fatalf("non-deterministic cluster count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Count != second[i].Count || first[i].CenterLat != second[i].CenterLat {
			t.Errorf("cluster %d differs between identical runs", i)
		}
	}
}
