package tiles

import (
	"fmt"
	"math"

	"github.com/chtimi59/getmaptiles/internal/core/domain"
)

// MaxCoverage bounds the number of tiles a single coverage may return.
const MaxCoverage = 10000

// Reference corners of the surveyed area. The default root tile is four times
// their extent and centered on A.
var (
	CornerA = domain.GeoPoint{Lat: 50.646993960909164, Lng: 3.0301131155001353}
	CornerB = domain.GeoPoint{Lat: 50.57243526433171, Lng: 3.1522652309582746}
)

// RootFromCorners builds the root tile at RootLevel around two corners.
func RootFromCorners(proj Projection, a, b domain.GeoPoint) System {
	pa, pb := proj.Forward(a), proj.Forward(b)
	width := math.Abs(pa.X-pb.X) * 4
	height := math.Abs(pa.Y-pb.Y) * 4
	left := math.Min(pa.X, pb.X) - width/2
	top := math.Max(pa.Y, pb.Y) + height/2
	return NewSystem(width, height, left, top, RootLevel)
}

// Mapper ties a tile system to the projection it was laid over.
type Mapper struct {
	System     System
	Projection Projection
}

// NewMapper creates a mapper with the root tile built from a and b.
func NewMapper(proj Projection, a, b domain.GeoPoint) *Mapper {
	return &Mapper{System: RootFromCorners(proj, a, b), Projection: proj}
}

// DefaultMapper is the Lambert-93 pyramid around CornerA and CornerB.
func DefaultMapper() *Mapper {
	return NewMapper(NewLambert93(), CornerA, CornerB)
}

// Rectangle returns the tile's extent as a descriptor, top-left corner first.
func (m *Mapper) Rectangle(name string) (domain.Rectangle, error) {
	b, err := m.System.Box(name)
	if err != nil {
		return domain.Rectangle{}, err
	}
	return m.boxRectangle(name, b), nil
}

// Locate names the tile at level containing p.
func (m *Mapper) Locate(level int, p domain.GeoPoint) (string, error) {
	return m.System.Locate(level, m.Projection.Forward(p))
}

// Trace returns the descriptors of every tile containing p down to level.
func (m *Mapper) Trace(level int, p domain.GeoPoint) ([]domain.Rectangle, error) {
	trace, err := m.System.Trace(level, m.Projection.Forward(p))
	if err != nil {
		return nil, err
	}
	out := make([]domain.Rectangle, len(trace))
	for i, t := range trace {
		out[i] = m.boxRectangle(t.Label, t.Box)
	}
	return out, nil
}

// Coverage lists the tiles at level covering area, row by row from the
// top-left tile to the bottom-right one. Descriptor ids are tile names.
func (m *Mapper) Coverage(level int, area domain.Rectangle) ([]domain.Rectangle, error) {
	bounds := area.Bounds()
	tl, err := m.Locate(level, domain.GeoPoint{Lat: bounds.MaxLat, Lng: bounds.MinLng})
	if err != nil {
		return nil, err
	}
	br, err := m.Locate(level, domain.GeoPoint{Lat: bounds.MinLat, Lng: bounds.MaxLng})
	if err != nil {
		return nil, err
	}

	grid := Grid{Depth: m.System.Depth(level)}
	c1, r1, err := grid.Index(tl)
	if err != nil {
		return nil, err
	}
	c2, r2, err := grid.Index(br)
	if err != nil {
		return nil, err
	}

	count := (c2 - c1 + 1) * (r2 - r1 + 1)
	if count > MaxCoverage {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooLarge, count, MaxCoverage)
	}

	out := make([]domain.Rectangle, 0, count)
	for row := r1; row <= r2; row++ {
		for col := c1; col <= c2; col++ {
			name, err := grid.Name(col, row)
			if err != nil {
				return nil, err
			}
			r, err := m.Rectangle(name)
			if err != nil {
				return nil, err
			}
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *Mapper) boxRectangle(id string, b Box) domain.Rectangle {
	tl := m.Projection.Inverse(Point{X: b.Left, Y: b.Top})
	br := m.Projection.Inverse(Point{X: b.Right, Y: b.Bottom})
	return domain.Rectangle{ID: id, Data: [4]float64{tl.Lat, tl.Lng, br.Lat, br.Lng}}
}
