package domain

// GeoPoint represents a geographic coordinate (WGS 84).
//
// Field names follow the Google Maps LatLngLiteral so the value can be
// handed to the map script unchanged.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLat float64 `json:"max_lat"`
	MaxLng float64 `json:"max_lng"`
}

// Contains returns true if the point is within the bounds.
func (b Bounds) Contains(p GeoPoint) bool {
	return p.Lng >= b.MinLng && p.Lng <= b.MaxLng &&
		p.Lat >= b.MinLat && p.Lat <= b.MaxLat
}

// Intersects returns true if the given bounds intersects with this bounds.
func (b Bounds) Intersects(other Bounds) bool {
	return !(other.MaxLng < b.MinLng ||
		other.MinLng > b.MaxLng ||
		other.MaxLat < b.MinLat ||
		other.MinLat > b.MaxLat)
}
