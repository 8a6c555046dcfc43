package engine

import (
	"math"

	"github.com/wricardo/mcp-training/numberblocks/game/actor"
	"github.com/wricardo/mcp-training/numberblocks/game/blocks"
	"github.com/wricardo/mcp-training/numberblocks/game/scene"
)

const (
	WallKey   = scene.AssetKey("wall")
	FloorKey  = scene.AssetKey("floor")
	wallPath  = "assets/kenney_sokobanpack/PNG/Default size/Blocks/block_05.png"
	floorPath = "assets/kenney_sokobanpack/PNG/Default size/Ground/ground_06.png"
)

// Manifest returns every asset the world can load
func Manifest() map[scene.AssetKey]string {
	m := blocks.Manifest()
	for k, v := range actor.Manifest() {
		m[k] = v
	}
	m[WallKey] = wallPath
	m[FloorKey] = floorPath
	return m
}

// CellCenter returns the world coordinates of a cell's center
func CellCenter(c Cell, pitch float64) (float64, float64) {
	return float64(c.X) * pitch, float64(c.Y) * pitch
}

// CellOf returns the cell containing a world point
func CellOf(x, y, pitch float64) Cell {
	return Cell{X: int(math.Round(x / pitch)), Y: int(math.Round(y / pitch))}
}

// boundaryWalls encloses a width x height world with a one-cell border
func boundaryWalls(width, height int) []Rect {
	return []Rect{
		{X: -1, Y: -1, W: width + 2, H: 1},
		{X: -1, Y: height, W: width + 2, H: 1},
		{X: -1, Y: 0, W: 1, H: height},
		{X: width, Y: 0, W: 1, H: height},
	}
}
