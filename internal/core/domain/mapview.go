package domain

// Map types understood by the map surfaces.
const (
	MapTypeSatellite = "satellite"
	MapTypeRoadmap   = "roadmap"
	MapTypeHybrid    = "hybrid"
	MapTypeTerrain   = "terrain"
)

// MapViewConfig is the initial view of a map surface.
// JSON names match the Google Maps MapOptions fields.
type MapViewConfig struct {
	Center    GeoPoint `json:"center"`
	Zoom      int      `json:"zoom"`
	MapTypeID string   `json:"mapTypeId"`
	Tilt      int      `json:"tilt"`
}

// StyleRule is one entry of a map style override.
type StyleRule struct {
	FeatureType string   `json:"featureType"`
	ElementType string   `json:"elementType"`
	Stylers     []Styler `json:"stylers"`
}

// Styler only carries visibility; nothing else is ever overridden.
type Styler struct {
	Visibility string `json:"visibility"`
}

// HideAllLabels is the style override that turns every map label off.
func HideAllLabels() []StyleRule {
	return []StyleRule{
		{
			FeatureType: "all",
			ElementType: "labels",
			Stylers:     []Styler{{Visibility: "off"}},
		},
	}
}

// Polyline is a drawn path.
type Polyline struct {
	ID          string     `json:"id,omitempty"`
	Path        []GeoPoint `json:"path"`
	Geodesic    bool       `json:"geodesic"`
	StrokeColor string     `json:"strokeColor"`
}

// Marker is a drawn point.
type Marker struct {
	Position GeoPoint `json:"position"`
}

// Rendering is the serialized output of a surface.
type Rendering struct {
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}
