// Package tiles names the tiles of a quadtree pyramid laid over a planar
// projection and maps geographic areas to the tiles covering them.
//
// Children of a tile are numbered by quadrant:
//
//	+---+---+
//	| 1 | 3 |
//	+---+---+
//	| 0 | 2 |
//	+---+---+
//
// A tile name is one digit per level below the root, root digit first.
package tiles

import (
	"errors"
	"fmt"
	"strings"
)

// RootLevel is the pyramid level of the root tile in the default system.
const RootLevel = 9

var (
	ErrLevel     = errors.New("level above root tile")
	ErrTileName  = errors.New("invalid tile name")
	ErrTooLarge  = errors.New("area covers too many tiles")
	ErrOutOfGrid = errors.New("tile index outside grid")
)

// Point is a planar position, y growing northwards.
type Point struct {
	X, Y float64
}

// Box is a planar tile extent.
type Box struct {
	Left, Top, Right, Bottom float64
}

// Center returns the middle of the box.
func (b Box) Center() Point {
	return Point{X: (b.Left + b.Right) / 2, Y: (b.Top + b.Bottom) / 2}
}

// Tile is a named box of the pyramid.
type Tile struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Box   Box    `json:"box"`
}

// System is a quadtree rooted at one planar tile.
type System struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
	Level  int
}

// NewSystem creates a system with its root tile at the given level.
func NewSystem(width, height, left, top float64, level int) System {
	return System{Left: left, Top: top, Width: width, Height: height, Level: level}
}

// Depth is the length of tile names at level.
func (s System) Depth(level int) int {
	return level - s.Level + 1
}

// Locate names the tile at level containing p. Points on a split line go
// right and down.
func (s System) Locate(level int, p Point) (string, error) {
	trace, err := s.Trace(level, p)
	if err != nil {
		return "", err
	}
	return trace[len(trace)-1].Name, nil
}

// Trace returns every tile containing p from the root's children down to level.
func (s System) Trace(level int, p Point) ([]Tile, error) {
	if level < s.Level {
		return nil, fmt.Errorf("%w: %d < %d", ErrLevel, level, s.Level)
	}

	x0, y0, dx, dy := s.Left, s.Top, s.Width, s.Height
	var name strings.Builder
	out := make([]Tile, 0, s.Depth(level))

	for l := s.Level; l <= level; l++ {
		dx /= 2
		dy /= 2

		right := p.X >= x0+dx
		bottom := p.Y <= y0-dy
		name.WriteByte(digit(right, bottom))

		if right {
			x0 += dx
		}
		if bottom {
			y0 -= dy
		}
		n := name.String()
		out = append(out, Tile{
			Name:  n,
			Label: s.Label(n),
			Box:   Box{Left: x0, Top: y0, Right: x0 + dx, Bottom: y0 - dy},
		})
	}
	return out, nil
}

// Box returns the extent of the named tile.
func (s System) Box(name string) (Box, error) {
	x0, y0, dx, dy := s.Left, s.Top, s.Width, s.Height
	for i := 0; i < len(name); i++ {
		right, bottom, ok := quadrant(name[i])
		if !ok {
			return Box{}, fmt.Errorf("%w: %q", ErrTileName, name)
		}
		dx /= 2
		dy /= 2
		if right {
			x0 += dx
		}
		if bottom {
			y0 -= dy
		}
	}
	return Box{Left: x0, Top: y0, Right: x0 + dx, Bottom: y0 - dy}, nil
}

// Center returns the planar center of the named tile.
func (s System) Center(name string) (Point, error) {
	b, err := s.Box(name)
	if err != nil {
		return Point{}, err
	}
	return b.Center(), nil
}

// Label is the pyramid file label of a tile, e.g. L17_21112330.
func (s System) Label(name string) string {
	return fmt.Sprintf("L%d_%s", s.Level+len(name), name)
}

// DataPath is where the tile's b3dm lives under the data root: names are split
// into directories of three digits and the last full group is left out.
func (s System) DataPath(name string) string {
	dirs := len(name) / 3
	if len(name)%3 == 0 {
		dirs--
	}

	var b strings.Builder
	b.WriteString("/Data/")
	for i := 0; i < dirs; i++ {
		b.WriteString(name[i*3 : i*3+3])
		b.WriteByte('/')
	}
	b.WriteString(s.Label(name))
	b.WriteString(".b3dm")
	return b.String()
}

func digit(right, bottom bool) byte {
	switch {
	case right && bottom:
		return '2'
	case right:
		return '3'
	case bottom:
		return '0'
	default:
		return '1'
	}
}

func quadrant(c byte) (right, bottom, ok bool) {
	switch c {
	case '0':
		return false, true, true
	case '1':
		return false, false, true
	case '2':
		return true, true, true
	case '3':
		return true, false, true
	}
	return false, false, false
}
