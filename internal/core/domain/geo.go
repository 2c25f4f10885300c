package domain

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the coordinate is inside WGS 84 bounds.
func (p GeoPoint) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// Viewport is the lat/lng rectangle currently visible on a map widget.
type Viewport struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// Contains reports whether a point falls inside the viewport (inclusive).
func (v Viewport) Contains(lat, lng float64) bool {
	return lat >= v.South && lat <= v.North && lng >= v.West && lng <= v.East
}

// ContainsViewport reports whether other lies entirely within v.
func (v Viewport) ContainsViewport(other Viewport) bool {
	return other.South >= v.South && other.North <= v.North &&
		other.West >= v.West && other.East <= v.East
}

// Expand grows the viewport symmetrically by the given fraction of its own
// height and width on each side.
func (v Viewport) Expand(fraction float64) Viewport {
	dLat := (v.North - v.South) * fraction
	dLng := (v.East - v.West) * fraction
	return Viewport{
		North: v.North + dLat,
		South: v.South - dLat,
		East:  v.East + dLng,
		West:  v.West - dLng,
	}
}
