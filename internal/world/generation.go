// Island generation: classify a height field into water and grass, retrying
// with fresh seeds until enough of the island is walkable.
package world

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"
)

var (
	// ErrGenerationExhausted means no attempt met the walkable threshold.
	ErrGenerationExhausted = errors.New("map generation exhausted")
	// ErrInvalidConfig means the generation parameters can never succeed.
	ErrInvalidConfig = errors.New("invalid generation config")
)

// GenConfig holds island generation parameters.
type GenConfig struct {
	Width       int     // Elevation grid width
	Height      int     // Elevation grid height
	WaterLevel  float64 // Elevation below this is water
	MinWalkable int     // Minimum grass tiles for an accepted map
	MaxAttempts int     // Regeneration bound
	Seed        int64   // Master seed (0 = random)
	Noise       NoiseParams
}

// DefaultGenConfig returns the standard 40×40 island configuration.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Width:       40,
		Height:      40,
		WaterLevel:  0.27,
		MinWalkable: 250,
		MaxAttempts: 100,
		Seed:        0,
		Noise:       DefaultNoiseParams(),
	}
}

// SmallTestConfig returns a tiny island for rapid iteration.
func SmallTestConfig() GenConfig {
	cfg := DefaultGenConfig()
	cfg.Width = 12
	cfg.Height = 12
	cfg.MinWalkable = 10
	cfg.Seed = 42
	return cfg
}

// Validate rejects configurations that can never produce a map.
func (cfg GenConfig) Validate() error {
	switch {
	case cfg.Width <= 0 || cfg.Height <= 0:
		return fmt.Errorf("%w: grid %dx%d", ErrInvalidConfig, cfg.Width, cfg.Height)
	case cfg.MaxAttempts <= 0:
		return fmt.Errorf("%w: max attempts %d", ErrInvalidConfig, cfg.MaxAttempts)
	case cfg.MinWalkable < 0 || cfg.MinWalkable > cfg.Width*cfg.Height:
		return fmt.Errorf("%w: min walkable %d for %d cells", ErrInvalidConfig, cfg.MinWalkable, cfg.Width*cfg.Height)
	case cfg.Noise.Octaves <= 0:
		return fmt.Errorf("%w: %d octaves", ErrInvalidConfig, cfg.Noise.Octaves)
	}
	return nil
}

// BuildResult is an accepted island.
type BuildResult struct {
	Map      *Map
	Seed     int64 // Seed of the accepted attempt
	Attempts int
	Walkable int
}

// Build generates islands from fresh seeds until one has at least
// cfg.MinWalkable grass tiles, giving up after cfg.MaxAttempts.
// Attempt seeds are drawn from a source seeded by cfg.Seed, so a fixed
// master seed always yields the same map.
func Build(cfg GenConfig) (*BuildResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	best := 0
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		attemptSeed := rng.Int63()
		field := NewHeightField(cfg.Width, cfg.Height, attemptSeed, cfg.Noise)
		m := Classify(field, cfg.WaterLevel)

		walkable := m.WalkableCount()
		if walkable >= cfg.MinWalkable {
			slog.Debug("map accepted", "attempt", attempt, "seed", attemptSeed, "walkable", walkable)
			return &BuildResult{
				Map:      m,
				Seed:     attemptSeed,
				Attempts: attempt,
				Walkable: walkable,
			}, nil
		}

		slog.Debug("map rejected", "attempt", attempt, "seed", attemptSeed,
			"walkable", walkable, "required", cfg.MinWalkable)
		if walkable > best {
			best = walkable
		}
	}

	return nil, fmt.Errorf("%w: %d attempts, best %d walkable of %d required",
		ErrGenerationExhausted, cfg.MaxAttempts, best, cfg.MinWalkable)
}

// Classify turns every cell of a height field into a tile.
func Classify(field *HeightField, waterLevel float64) *Map {
	m := NewMap(field.Width, field.Height)
	for x := 0; x < field.Width; x++ {
		for y := 0; y < field.Height; y++ {
			elev := field.At(x, y)
			ground := ClassifyElevation(elev, waterLevel)
			m.Set(Tile{
				Coord:     GridToAxial(x, y),
				Kind:      ground,
				Ground:    ground,
				Elevation: elev,
			})
		}
	}
	return m
}
