package ports

import "github.com/chtimi59/getmaptiles/internal/core/domain"

// Surface is a map rendering surface. Shapes drawn on it stay attached to it;
// there is no update or removal.
type Surface interface {
	SetStyles(rules []domain.StyleRule)
	DrawPolyline(p domain.Polyline)
	DrawMarker(m domain.Marker)
}

// SurfaceFactory acquires a surface bound to a handle (a DOM element id,
// an output name) with the given initial view.
type SurfaceFactory interface {
	NewSurface(handle string, view domain.MapViewConfig) (Surface, error)
}

// Exporter is implemented by surfaces that serialize what was drawn on them.
type Exporter interface {
	Export() (domain.Rendering, error)
}
