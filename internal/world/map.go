package world

import (
	"fmt"
	"sort"
)

// Map holds every tile of the island keyed by rounded coordinate.
// Tiles are created by Build and never removed. Get hands out copies, so the
// stored tiles change only through RevealAround and MarkExit.
type Map struct {
	tiles  map[HexCoord]*Tile
	Width  int `json:"width"`
	Height int `json:"height"`
}

// NewMap creates an empty map for a width×height elevation grid.
func NewMap(width, height int) *Map {
	return &Map{
		tiles:  make(map[HexCoord]*Tile, width*height),
		Width:  width,
		Height: height,
	}
}

// Get returns a copy of the tile at the given coordinate. Changes to the copy
// do not reach the map.
func (m *Map) Get(coord HexCoord) (Tile, bool) {
	t := m.tiles[coord]
	if t == nil {
		return Tile{}, false
	}
	return *t, true
}

// Set stores a copy of t at its coordinate, replacing any tile there.
func (m *Map) Set(t Tile) {
	m.tiles[t.Coord] = &t
}

// Len returns the total number of tiles in the map.
func (m *Map) Len() int {
	return len(m.tiles)
}

// Each calls fn for every tile in coordinate order.
func (m *Map) Each(fn func(t Tile)) {
	for _, c := range m.sortedCoords(nil) {
		fn(*m.tiles[c])
	}
}

// WalkableCount returns the number of tiles the player may stand on.
func (m *Map) WalkableCount() int {
	n := 0
	for _, t := range m.tiles {
		if t.Walkable() {
			n++
		}
	}
	return n
}

// WalkableCoords returns walkable tile coordinates sorted by (q, r) so that
// random selection over them is reproducible for a given seed.
func (m *Map) WalkableCoords() []HexCoord {
	return m.sortedCoords(func(t *Tile) bool { return t.Walkable() })
}

// MarkExit turns the tile at coord into the exit. Its ground is kept.
func (m *Map) MarkExit(coord HexCoord) error {
	t := m.tiles[coord]
	if t == nil {
		return fmt.Errorf("mark exit: no tile at %v", coord)
	}
	t.Kind = TerrainExit
	return nil
}

func (m *Map) sortedCoords(keep func(t *Tile) bool) []HexCoord {
	coords := make([]HexCoord, 0, len(m.tiles))
	for c, t := range m.tiles {
		if keep == nil || keep(t) {
			coords = append(coords, c)
		}
	}
	sort.Slice(coords, func(i, j int) bool {
		if coords[i].Q != coords[j].Q {
			return coords[i].Q < coords[j].Q
		}
		return coords[i].R < coords[j].R
	})
	return coords
}

// TerrainCounts returns a summary of terrain kind distribution.
func TerrainCounts(m *Map) map[Terrain]int {
	counts := make(map[Terrain]int)
	for _, t := range m.tiles {
		counts[t.Kind]++
	}
	return counts
}

// String returns a summary of the map.
func (m *Map) String() string {
	return fmt.Sprintf("Map(%dx%d, tiles=%d, walkable=%d)", m.Width, m.Height, m.Len(), m.WalkableCount())
}
