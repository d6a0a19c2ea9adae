package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap_GetReturnsCopy(t *testing.T) {
	m := gridMap("gg", "gg")
	c := HexCoord{Q: 1, R: 0}

	tile, ok := m.Get(c)
	require.True(t, ok)
	tile.Revealed = true
	tile.Kind = TerrainExit
	tile.Ground = TerrainWater

	stored := tileAt(t, m, c)
	assert.False(t, stored.Revealed)
	assert.Equal(t, TerrainGrass, stored.Kind)
	assert.True(t, stored.Walkable())
	assert.Equal(t, 0, m.RevealedCount())
}

func TestMap_GetMissing(t *testing.T) {
	m := gridMap("g")
	tile, ok := m.Get(HexCoord{Q: 5, R: 5})
	assert.False(t, ok)
	assert.Equal(t, Tile{}, tile)
}

func TestMap_SetStoresCopy(t *testing.T) {
	m := NewMap(1, 1)
	tile := Tile{Coord: HexCoord{}, Kind: TerrainGrass, Ground: TerrainGrass}
	m.Set(tile)
	tile.Revealed = true

	assert.False(t, tileAt(t, m, HexCoord{}).Revealed)
	assert.Equal(t, 1, m.RevealAround(HexCoord{}))
	assert.True(t, tileAt(t, m, HexCoord{}).Revealed)
}

func TestMap_MarkExitKeepsGround(t *testing.T) {
	m := gridMap("gw")
	require.NoError(t, m.MarkExit(HexCoord{}))
	assert.Error(t, m.MarkExit(HexCoord{Q: 9}))

	exit := tileAt(t, m, HexCoord{})
	assert.True(t, exit.IsExit())
	assert.True(t, exit.Walkable())
	assert.Equal(t, 1, TerrainCounts(m)[TerrainExit])
}
