package tiles

import "fmt"

// Grid addresses the tiles of one depth as integer columns and rows, origin at
// the top-left tile.
type Grid struct {
	Depth int
}

// Size is the number of columns (and rows) of the grid.
func (g Grid) Size() int {
	return 1 << g.Depth
}

// Index returns the column and row of a tile name.
func (g Grid) Index(name string) (col, row int, err error) {
	if len(name) != g.Depth {
		return 0, 0, fmt.Errorf("%w: %q has %d digits, want %d", ErrTileName, name, len(name), g.Depth)
	}
	for i := 0; i < len(name); i++ {
		right, bottom, ok := quadrant(name[i])
		if !ok {
			return 0, 0, fmt.Errorf("%w: %q", ErrTileName, name)
		}
		col <<= 1
		row <<= 1
		if right {
			col |= 1
		}
		if bottom {
			row |= 1
		}
	}
	return col, row, nil
}

// Name returns the tile name at col, row.
func (g Grid) Name(col, row int) (string, error) {
	if col < 0 || row < 0 || col >= g.Size() || row >= g.Size() {
		return "", fmt.Errorf("%w: (%d, %d) in %dx%d", ErrOutOfGrid, col, row, g.Size(), g.Size())
	}
	name := make([]byte, g.Depth)
	for i := 0; i < g.Depth; i++ {
		shift := g.Depth - 1 - i
		name[i] = digit(col>>shift&1 == 1, row>>shift&1 == 1)
	}
	return string(name), nil
}
