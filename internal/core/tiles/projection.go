package tiles

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
	"github.com/wroge/wgs84"

	"github.com/chtimi59/getmaptiles/internal/core/domain"
)

// Projection converts between WGS84 and a planar system.
type Projection interface {
	Forward(p domain.GeoPoint) Point
	Inverse(p Point) domain.GeoPoint
}

// ProjectionByName returns lambert93 or mercator.
func ProjectionByName(name string) (Projection, error) {
	switch name {
	case "lambert93", "":
		return NewLambert93(), nil
	case "mercator":
		return Mercator{}, nil
	}
	return nil, fmt.Errorf("unknown projection %q", name)
}

// Mercator is spherical Web Mercator (EPSG:3857).
type Mercator struct{}

func (Mercator) Forward(p domain.GeoPoint) Point {
	m := project.WGS84.ToMercator(orb.Point{p.Lng, p.Lat})
	return Point{X: m.X(), Y: m.Y()}
}

func (Mercator) Inverse(p Point) domain.GeoPoint {
	ll := project.Mercator.ToWGS84(orb.Point{p.X, p.Y})
	return domain.GeoPoint{Lat: ll.Lat(), Lng: ll.Lon()}
}

// EPSGProjection projects WGS84 coordinates to a planar system of the EPSG
// registry.
type EPSGProjection struct {
	Code    int
	forward wgs84.Func
	inverse wgs84.Func
}

// NewLambert93 returns the French RGF93 / Lambert-93 projection (EPSG:2154).
func NewLambert93() *EPSGProjection {
	return NewEPSGProjection(2154)
}

// NewEPSGProjection builds the projection from EPSG:4326 to code.
func NewEPSGProjection(code int) *EPSGProjection {
	epsg := wgs84.EPSG()
	geographic, planar := epsg.Code(4326), epsg.Code(code)
	return &EPSGProjection{
		Code:    code,
		forward: wgs84.Transform(geographic, planar),
		inverse: wgs84.Transform(planar, geographic),
	}
}

func (e *EPSGProjection) Forward(p domain.GeoPoint) Point {
	x, y, _ := e.forward(p.Lng, p.Lat, 0)
	return Point{X: x, Y: y}
}

func (e *EPSGProjection) Inverse(p Point) domain.GeoPoint {
	lng, lat, _ := e.inverse(p.X, p.Y, 0)
	return domain.GeoPoint{Lat: lat, Lng: lng}
}
