// Spawn and exit placement: two distinct random grass tiles.
package world

import (
	"errors"
	"fmt"
	"math/rand"
)

// DefaultMaxResample bounds the search for an exit distinct from the spawn.
const DefaultMaxResample = 64

var (
	// ErrNoWalkableTiles means there is nowhere to put the player.
	ErrNoWalkableTiles = errors.New("no walkable tiles")
	// ErrDegenerateWalkableSet means spawn and exit cannot be distinct.
	ErrDegenerateWalkableSet = errors.New("only one walkable tile")
	// ErrPlacementExhausted means resampling never found a distinct exit.
	ErrPlacementExhausted = errors.New("exit placement exhausted")
)

// Placement holds the chosen start and goal cells.
type Placement struct {
	Spawn HexCoord
	Exit  HexCoord
}

// PlaceSpawnAndExit picks the spawn uniformly among walkable tiles, then
// resamples for an exit until it differs from the spawn, at most maxResample
// times. The exit tile is marked on the map; both tiles stay unrevealed.
func PlaceSpawnAndExit(m *Map, rng *rand.Rand, maxResample int) (Placement, error) {
	candidates := m.WalkableCoords()
	switch len(candidates) {
	case 0:
		return Placement{}, ErrNoWalkableTiles
	case 1:
		return Placement{}, fmt.Errorf("%w: %v", ErrDegenerateWalkableSet, candidates[0])
	}
	if maxResample <= 0 {
		maxResample = DefaultMaxResample
	}

	spawn := candidates[rng.Intn(len(candidates))]

	for i := 0; i < maxResample; i++ {
		exit := candidates[rng.Intn(len(candidates))]
		if exit == spawn {
			continue
		}
		if err := m.MarkExit(exit); err != nil {
			return Placement{}, err
		}
		return Placement{Spawn: spawn, Exit: exit}, nil
	}

	return Placement{}, fmt.Errorf("%w: %d draws over %d tiles", ErrPlacementExhausted, maxResample, len(candidates))
}
