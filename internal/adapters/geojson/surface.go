// Package geojson renders a map surface as a GeoJSON FeatureCollection.
package geojson

import (
	"fmt"
	"math"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/chtimi59/getmaptiles/internal/core/domain"
	"github.com/chtimi59/getmaptiles/internal/core/ports"
)

// DefaultMaxSegment is the longest great-circle step kept in exported lines.
const DefaultMaxSegment = 0.001 * math.Pi / 180

// Surface implements ports.Surface and ports.Exporter.
type Surface struct {
	handle     string
	view       domain.MapViewConfig
	styles     []domain.StyleRule
	maxSegment s1.Angle
	fc         *geojson.FeatureCollection
}

// NewSurface creates an empty collection.
func NewSurface(handle string, view domain.MapViewConfig, maxSegment s1.Angle) *Surface {
	return &Surface{
		handle:     handle,
		view:       view,
		maxSegment: maxSegment,
		fc:         geojson.NewFeatureCollection(),
	}
}

func (s *Surface) SetStyles(rules []domain.StyleRule) {
	s.styles = append([]domain.StyleRule(nil), rules...)
}

func (s *Surface) DrawPolyline(p domain.Polyline) {
	var line orb.LineString
	if p.Geodesic {
		line = Densify(p.Path, s.maxSegment)
	} else {
		line = make(orb.LineString, len(p.Path))
		for i, pt := range p.Path {
			line[i] = orb.Point{pt.Lng, pt.Lat}
		}
	}

	f := geojson.NewFeature(line)
	if p.ID != "" {
		f.ID = p.ID
	}
	f.Properties["stroke"] = p.StrokeColor
	f.Properties["geodesic"] = p.Geodesic
	s.fc.Append(f)
}

func (s *Surface) DrawMarker(m domain.Marker) {
	f := geojson.NewFeature(orb.Point{m.Position.Lng, m.Position.Lat})
	f.Properties["marker"] = true
	s.fc.Append(f)
}

// Collection returns the features drawn so far.
func (s *Surface) Collection() *geojson.FeatureCollection {
	return s.fc
}

// Export serializes the collection. The view and styles travel as foreign members.
func (s *Surface) Export() (domain.Rendering, error) {
	s.fc.ExtraMembers = geojson.Properties{
		"handle": s.handle,
		"view":   s.view,
	}
	if len(s.styles) > 0 {
		s.fc.ExtraMembers["styles"] = s.styles
	}
	body, err := s.fc.MarshalJSON()
	if err != nil {
		return domain.Rendering{}, fmt.Errorf("marshal feature collection: %w", err)
	}
	return domain.Rendering{ContentType: "application/geo+json", Body: body}, nil
}

// MaxEdgeSteps bounds the points Densify adds to a single edge.
const MaxEdgeSteps = 1024

// Densify follows each edge of path along the great circle, adding points so
// that no step is longer than maxSegment. Long edges are split into at most
// MaxEdgeSteps steps.
func Densify(path []domain.GeoPoint, maxSegment s1.Angle) orb.LineString {
	if len(path) == 0 {
		return orb.LineString{}
	}
	line := orb.LineString{{path[0].Lng, path[0].Lat}}
	for i := 1; i < len(path); i++ {
		a := s2.PointFromLatLng(s2.LatLngFromDegrees(path[i-1].Lat, path[i-1].Lng))
		b := s2.PointFromLatLng(s2.LatLngFromDegrees(path[i].Lat, path[i].Lng))

		steps := 1
		if maxSegment > 0 {
			steps = int(math.Ceil(float64(a.Distance(b) / maxSegment)))
			steps = min(max(steps, 1), MaxEdgeSteps)
		}
		for k := 1; k < steps; k++ {
			ll := s2.LatLngFromPoint(s2.Interpolate(float64(k)/float64(steps), a, b))
			line = append(line, orb.Point{ll.Lng.Degrees(), ll.Lat.Degrees()})
		}
		// Keep vertices exact.
		line = append(line, orb.Point{path[i].Lng, path[i].Lat})
	}
	return line
}

// Factory creates GeoJSON surfaces.
type Factory struct {
	MaxSegment s1.Angle
}

// NewSurface implements ports.SurfaceFactory.
func (f Factory) NewSurface(handle string, view domain.MapViewConfig) (ports.Surface, error) {
	seg := f.MaxSegment
	if seg == 0 {
		seg = DefaultMaxSegment
	}
	return NewSurface(handle, view, seg), nil
}
