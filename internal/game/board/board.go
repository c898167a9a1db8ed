// Package board provides the tile geometry for the 10x10 Wormhole Warp
// board: a boustrophedon ("snake") path of 100 tiles.
package board

import (
	"fmt"
	"sync"
)

const (
	// Size is the board edge length in tiles.
	Size = 10
	// Tiles is the total tile count.
	Tiles = Size * Size
	// FirstTile and LastTile bound the valid tile range.
	FirstTile = 1
	LastTile  = Tiles
	// VerticalOffset is the constant world-space lift applied to every tile
	// center so tokens sit on top of the board surface.
	VerticalOffset = 0.5
)

// Coord is a 2D board coordinate. Row 9 is the bottom row (holding tile 1);
// row 0 is the top row (holding tile 100).
type Coord struct {
	Row int
	Col int
}

// memo holds the lazily built tile<->coordinate tables.
//
// Invariant: once built, forward[i] and reverse are consistent bijections
// over tiles 1..Tiles.
var memo struct {
	once    sync.Once
	forward [Tiles + 1]Coord
	reverse map[Coord]int
}

func buildTables() {
	memo.reverse = make(map[Coord]int, Tiles)
	for tile := FirstTile; tile <= LastTile; tile++ {
		i := tile - 1
		logicalRow := i / Size
		col := i % Size
		// Odd logical rows run right-to-left so consecutive tiles stay
		// adjacent across row boundaries.
		if logicalRow%2 == 1 {
			col = Size - 1 - col
		}
		c := Coord{Row: Size - 1 - logicalRow, Col: col}
		memo.forward[tile] = c
		memo.reverse[c] = tile
	}
}

// TileToCoord maps a tile index to its board coordinate.
//
// Precondition: tile must be in [FirstTile, LastTile].
// Postcondition: Returns the coordinate of the tile, or an error for
// out-of-range input.
func TileToCoord(tile int) (Coord, error) {
	if tile < FirstTile || tile > LastTile {
		return Coord{}, fmt.Errorf("board: tile %d out of range [%d,%d]", tile, FirstTile, LastTile)
	}
	memo.once.Do(buildTables)
	return memo.forward[tile], nil
}

// CoordToTile is the reverse lookup: board coordinate to tile index.
//
// Postcondition: Returns (tile, true) for coordinates on the board,
// (0, false) otherwise.
func CoordToTile(c Coord) (int, bool) {
	memo.once.Do(buildTables)
	tile, ok := memo.reverse[c]
	return tile, ok
}

// TileToPoint maps a tile to a world-space point for the rendering layer:
// X along columns, Y along rows, Z the constant vertical offset.
//
// Precondition: tile must be in [FirstTile, LastTile].
func TileToPoint(tile int) (x, y, z float64, err error) {
	c, err := TileToCoord(tile)
	if err != nil {
		return 0, 0, 0, err
	}
	return float64(c.Col), float64(c.Row), VerticalOffset, nil
}
