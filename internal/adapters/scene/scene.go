// Package scene records what is drawn on a map surface, in call order.
package scene

import (
	"encoding/json"

	"github.com/chtimi59/getmaptiles/internal/core/domain"
	"github.com/chtimi59/getmaptiles/internal/core/ports"
)

// Shape kinds.
const (
	KindPolyline = "polyline"
	KindMarker   = "marker"
)

// Shape is one recorded draw call.
type Shape struct {
	Kind     string           `json:"kind"`
	Polyline *domain.Polyline `json:"polyline,omitempty"`
	Marker   *domain.Marker   `json:"marker,omitempty"`
}

// Scene implements ports.Surface by recording calls.
type Scene struct {
	Handle string               `json:"handle"`
	View   domain.MapViewConfig `json:"view"`
	Styles []domain.StyleRule   `json:"styles"`
	Shapes []Shape              `json:"shapes"`
}

// New creates an empty scene.
func New(handle string, view domain.MapViewConfig) *Scene {
	return &Scene{Handle: handle, View: view, Styles: []domain.StyleRule{}, Shapes: []Shape{}}
}

func (s *Scene) SetStyles(rules []domain.StyleRule) {
	s.Styles = append(s.Styles[:0], rules...)
}

func (s *Scene) DrawPolyline(p domain.Polyline) {
	s.Shapes = append(s.Shapes, Shape{Kind: KindPolyline, Polyline: &p})
}

func (s *Scene) DrawMarker(m domain.Marker) {
	s.Shapes = append(s.Shapes, Shape{Kind: KindMarker, Marker: &m})
}

// Polylines returns the recorded polylines in draw order.
func (s *Scene) Polylines() []domain.Polyline {
	var out []domain.Polyline
	for _, sh := range s.Shapes {
		if sh.Polyline != nil {
			out = append(out, *sh.Polyline)
		}
	}
	return out
}

// Markers returns the recorded markers in draw order.
func (s *Scene) Markers() []domain.Marker {
	var out []domain.Marker
	for _, sh := range s.Shapes {
		if sh.Marker != nil {
			out = append(out, *sh.Marker)
		}
	}
	return out
}

// Export serializes the scene as JSON.
func (s *Scene) Export() (domain.Rendering, error) {
	body, err := json.Marshal(s)
	if err != nil {
		return domain.Rendering{}, err
	}
	return domain.Rendering{ContentType: "application/json", Body: body}, nil
}

// Factory creates scenes.
type Factory struct{}

// NewSurface implements ports.SurfaceFactory.
func (Factory) NewSurface(handle string, view domain.MapViewConfig) (ports.Surface, error) {
	return New(handle, view), nil
}
