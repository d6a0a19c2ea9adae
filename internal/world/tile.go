package world

// Terrain types for hex tiles.
type Terrain uint8

const (
	TerrainWater Terrain = iota // Impassable
	TerrainGrass                // The only walkable ground
	TerrainExit                 // Portal home; drawn over grass
)

// Draw order for renderers, lowest first.
const (
	DrawOrderWater = iota
	DrawOrderGrass
	DrawOrderExit
	DrawOrderActor // Player and cursor
)

// String returns a human-readable name for a terrain type.
func (t Terrain) String() string {
	switch t {
	case TerrainWater:
		return "Water"
	case TerrainGrass:
		return "Grass"
	case TerrainExit:
		return "Exit"
	default:
		return "Unknown"
	}
}

// DrawOrder returns the fixed layer a renderer should draw this kind on.
func (t Terrain) DrawOrder() int {
	switch t {
	case TerrainGrass:
		return DrawOrderGrass
	case TerrainExit:
		return DrawOrderExit
	default:
		return DrawOrderWater
	}
}

// Tile represents a single cell of the island.
type Tile struct {
	Coord HexCoord `json:"coord"`

	// Kind is what a renderer shows; Ground is what the player stands on.
	// They differ only on the exit tile, which keeps its grass underneath.
	Kind   Terrain `json:"kind"`
	Ground Terrain `json:"ground"`

	Elevation float64 `json:"elevation"`

	// Fog of war. Written only by RevealAround, never reset.
	Revealed bool `json:"revealed"`
}

// Walkable reports whether the player may occupy the tile.
func (t *Tile) Walkable() bool {
	return t.Ground == TerrainGrass
}

// IsExit reports whether the tile is the goal.
func (t *Tile) IsExit() bool {
	return t.Kind == TerrainExit
}

// ClassifyElevation derives the ground terrain from an elevation sample.
func ClassifyElevation(elev, waterLevel float64) Terrain {
	if elev < waterLevel {
		return TerrainWater
	}
	return TerrainGrass
}
