package domain

// PointMarker is a single vehicle marker handed to the map pipeline.
// Coordinates are assumed pre-validated at ingest.
type PointMarker struct {
	ID  string  `json:"id"`
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ClusterPoint is a group of nearby markers rendered as one aggregate marker.
// Invariants: Count == len(MemberIDs), Count >= 1, Bounds is the minimal box
// covering every member's raw position.
type ClusterPoint struct {
	CenterLat float64  `json:"center_lat"`
	CenterLng float64  `json:"center_lng"`
	MemberIDs []string `json:"member_ids"`
	Count     int      `json:"count"`
	Bounds    Viewport `json:"bounds"`
}

// RenderLevel selects how a virtualized frame materializes markers.
type RenderLevel string

const (
	RenderIndividual RenderLevel = "individual"
	RenderClustered  RenderLevel = "clustered"
	RenderSampled    RenderLevel = "sampled"
)

// VirtualizedResult is one map frame's worth of renderable markers.
// Exactly one of VisibleVehicleIDs / Clusters is meaningfully populated
// depending on RenderLevel; sampled reuses VisibleVehicleIDs with a
// subsampled set.
type VirtualizedResult struct {
	VisibleVehicleIDs []string       `json:"visible_vehicle_ids"`
	Clusters          []ClusterPoint `json:"clusters"`
	TotalCount        int            `json:"total_count"`
	RenderLevel       RenderLevel    `json:"render_level"`
	LoadedBounds      Viewport       `json:"loaded_bounds"`
}
