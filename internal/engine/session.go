// Package engine runs a single play session on a generated island: ordered
// start-up, movement validation and fog-of-war updates.
package engine

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/talgya/homeward/internal/world"
)

// SessionConfig holds everything needed to start a session.
type SessionConfig struct {
	Gen         world.GenConfig
	TileSize    float64 // World pixels per tile
	MaxResample int     // Bound on exit resampling
}

// DefaultSessionConfig returns the standard island and tile size.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Gen:         world.DefaultGenConfig(),
		TileSize:    world.DefaultTileSize,
		MaxResample: world.DefaultMaxResample,
	}
}

// Player is the single player of a session.
type Player struct {
	Coord world.HexCoord `json:"coord"`
	X     float64        `json:"x"` // World-space centre of Coord
	Y     float64        `json:"y"`
}

// Recorder receives session history. Implementations must not block for long;
// failures are logged and never affect play.
type Recorder interface {
	RecordSession(s *Session) error
	RecordMove(sessionID string, mv MoveRecord) error
}

// MoveRecord is one evaluated move, accepted or not.
type MoveRecord struct {
	Seq     int            `json:"seq"`
	From    world.HexCoord `json:"from"`
	To      world.HexCoord `json:"to"`
	Outcome MoveOutcome    `json:"outcome"`
	Won     bool           `json:"won"`
	At      time.Time      `json:"at"`
}

// Session holds the state of one island run. The map, player and exit are
// direct fields; nothing is looked up globally.
type Session struct {
	ID        string
	Seed      int64 // Seed of the accepted generation attempt
	Attempts  int   // Generation attempts used
	StartedAt time.Time

	Map    *world.Map
	Layout world.Layout
	Player Player
	Spawn  world.HexCoord
	Exit   world.HexCoord

	Moves    int  // Accepted moves
	Rejected int  // Rejected move requests
	Won      bool // Player reached the exit

	Recorder Recorder

	seq int
}

// NewSession generates an island and readies it for play:
// Setup (build the map) → Populate (spawn and exit) → Ready (first reveal).
func NewSession(cfg SessionConfig) (*Session, error) {
	start := time.Now()

	// Setup.
	res, err := world.Build(cfg.Gen)
	if err != nil {
		return nil, fmt.Errorf("setup: %w", err)
	}

	// Populate.
	rng := rand.New(rand.NewSource(res.Seed))
	placement, err := world.PlaceSpawnAndExit(res.Map, rng, cfg.MaxResample)
	if err != nil {
		return nil, fmt.Errorf("populate: %w", err)
	}

	// Ready.
	s := NewSessionFromMap(res.Map, placement, world.NewLayout(cfg.TileSize))
	s.Seed = res.Seed
	s.Attempts = res.Attempts

	slog.Info("session ready",
		"id", s.ID,
		"seed", s.Seed,
		"attempts", s.Attempts,
		"tiles", humanize.Comma(int64(s.Map.Len())),
		"walkable", humanize.Comma(int64(res.Walkable)),
		"spawn", s.Spawn,
		"exit", s.Exit,
		"took", time.Since(start),
	)
	return s, nil
}

// NewSessionFromMap assembles a ready session from an already populated map,
// placing the player on the spawn tile and revealing around it.
func NewSessionFromMap(m *world.Map, p world.Placement, layout world.Layout) *Session {
	s := &Session{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
		Map:       m,
		Layout:    layout,
		Spawn:     p.Spawn,
		Exit:      p.Exit,
	}
	s.placePlayer(p.Spawn)
	m.RevealAround(p.Spawn)
	return s
}

// Attach sets the recorder and records the session start.
func (s *Session) Attach(r Recorder) {
	s.Recorder = r
	if r == nil {
		return
	}
	if err := r.RecordSession(s); err != nil {
		slog.Warn("record session failed", "id", s.ID, "error", err)
	}
}

func (s *Session) placePlayer(c world.HexCoord) {
	x, y := s.Layout.ToPixel(c)
	s.Player = Player{Coord: c, X: x, Y: y}
}

// PlayerPosition returns the player's world position for camera follow.
func (s *Session) PlayerPosition() (x, y float64) {
	return s.Player.X, s.Player.Y
}
