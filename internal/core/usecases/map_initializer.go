package usecases

import (
	"fmt"
	"log/slog"

	"github.com/chtimi59/getmaptiles/internal/core/domain"
	"github.com/chtimi59/getmaptiles/internal/core/ports"
	"github.com/chtimi59/getmaptiles/internal/pkg/metrics"
)

// DefaultCenter is the initial map center (Lille, top-left of the surveyed area).
var DefaultCenter = domain.GeoPoint{Lat: 50.646993960909164, Lng: 3.0301131155001353}

// InitOptions configures the map view and the optional shapes.
type InitOptions struct {
	Center       domain.GeoPoint
	Zoom         int
	MapTypeID    string
	Tilt         int
	HideLabels   bool
	DefaultColor string

	// Marker, when set, is drawn after all rectangles.
	Marker *domain.GeoPoint
	// Reference, when set, is drawn after all rectangles in domain.ReferenceColor
	// unless it has its own color.
	Reference *domain.Rectangle
}

// DefaultInitOptions returns a satellite view at zoom 10 with labels hidden,
// no marker and no reference rectangle.
func DefaultInitOptions() InitOptions {
	return InitOptions{
		Center:       DefaultCenter,
		Zoom:         10,
		MapTypeID:    domain.MapTypeSatellite,
		Tilt:         0,
		HideLabels:   true,
		DefaultColor: domain.DefaultStrokeColor,
	}
}

// View returns the initial map view for these options.
func (o InitOptions) View() domain.MapViewConfig {
	return domain.MapViewConfig{
		Center:    o.Center,
		Zoom:      o.Zoom,
		MapTypeID: o.MapTypeID,
		Tilt:      o.Tilt,
	}
}

// MapInitializer sets up a map surface and draws rectangle sets on it.
type MapInitializer struct {
	surfaces ports.SurfaceFactory
	opts     InitOptions
}

// NewMapInitializer creates a new MapInitializer.
func NewMapInitializer(surfaces ports.SurfaceFactory, opts InitOptions) *MapInitializer {
	if opts.DefaultColor == "" {
		opts.DefaultColor = domain.DefaultStrokeColor
	}
	return &MapInitializer{surfaces: surfaces, opts: opts}
}

// Options returns the options the initializer was built with.
func (m *MapInitializer) Options() InitOptions {
	return m.opts
}

// Initialize acquires a surface bound to handle, applies the style override and
// draws every rectangle of every set, sets in argument order and rectangles in
// set order. An empty set draws nothing. Descriptors are not validated.
func (m *MapInitializer) Initialize(handle string, rectangles domain.RectangleSet, extra ...domain.RectangleSet) (ports.Surface, error) {
	surface, err := m.surfaces.NewSurface(handle, m.opts.View())
	if err != nil {
		return nil, fmt.Errorf("acquire surface %q: %w", handle, err)
	}

	if m.opts.HideLabels {
		surface.SetStyles(domain.HideAllLabels())
	}

	drawn := 0
	for _, set := range append([]domain.RectangleSet{rectangles}, extra...) {
		if set.Len() == 0 {
			continue
		}
		fallback := m.opts.DefaultColor
		if set.DefaultColor != "" {
			fallback = set.DefaultColor
		}
		for _, r := range set.Rectangles {
			m.drawRectangle(surface, r, fallback)
			drawn++
		}
	}

	if m.opts.Reference != nil {
		m.drawRectangle(surface, *m.opts.Reference, domain.ReferenceColor)
		drawn++
	}

	if m.opts.Marker != nil {
		surface.DrawMarker(domain.Marker{Position: *m.opts.Marker})
		metrics.MarkersDrawn.Inc()
	}

	slog.Debug("map initialized", "handle", handle, "polylines", drawn, "sets", 1+len(extra))
	return surface, nil
}

func (m *MapInitializer) drawRectangle(surface ports.Surface, r domain.Rectangle, fallback string) {
	surface.DrawPolyline(domain.Polyline{
		ID:          r.ID,
		Path:        r.Path(),
		Geodesic:    true,
		StrokeColor: r.StrokeColor(fallback),
	})
	metrics.PolylinesDrawn.Inc()
}
