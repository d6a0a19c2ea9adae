package engine

import (
	"log/slog"
	"time"

	"github.com/talgya/homeward/internal/world"
)

// MoveOutcome is the verdict on a requested step.
type MoveOutcome uint8

const (
	MoveAccepted    MoveOutcome = iota
	MoveNoTile                  // Target is off the island
	MoveNotWalkable             // Target is water
	MoveNotAdjacent             // Target is not exactly one step away
	MoveFinished                // Session already won
)

// String returns a short name for the outcome.
func (o MoveOutcome) String() string {
	switch o {
	case MoveAccepted:
		return "accepted"
	case MoveNoTile:
		return "no_tile"
	case MoveNotWalkable:
		return "not_walkable"
	case MoveNotAdjacent:
		return "not_adjacent"
	case MoveFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// MarshalText encodes the outcome by name.
func (o MoveOutcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// MoveResult reports what a move request did.
type MoveResult struct {
	Outcome  MoveOutcome    `json:"outcome"`
	Target   world.HexCoord `json:"target"`
	Revealed int            `json:"revealed"` // Tiles newly revealed
	Won      bool           `json:"won"`
}

// Accepted reports whether the player moved.
func (r MoveResult) Accepted() bool {
	return r.Outcome == MoveAccepted
}

// CanStep is the single adjacency rule shared by moves and hover previews:
// the target tile must exist, be walkable, and lie exactly one step away.
func (s *Session) CanStep(from, to world.HexCoord) MoveOutcome {
	t, ok := s.Map.Get(to)
	switch {
	case !ok:
		return MoveNoTile
	case !t.Walkable():
		return MoveNotWalkable
	case world.Distance(from, to) != 1:
		return MoveNotAdjacent
	}
	return MoveAccepted
}

// Move tries to step the player onto the tile under world point (x, y).
// Rejections leave the session untouched and are normal results, not errors.
func (s *Session) Move(x, y float64) MoveResult {
	target := s.Layout.FromPixel(x, y)
	from := s.Player.Coord

	outcome := MoveFinished
	if !s.Won {
		outcome = s.CanStep(from, target)
	}
	res := MoveResult{Outcome: outcome, Target: target}

	if outcome != MoveAccepted {
		s.Rejected++
		slog.Debug("move rejected", "session", s.ID, "from", from, "to", target, "outcome", outcome)
		s.record(from, res)
		return res
	}

	s.placePlayer(target)
	res.Revealed = s.Map.RevealAround(target)
	s.Moves++

	if t, _ := s.Map.Get(target); t.IsExit() {
		s.Won = true
		res.Won = true
		slog.Info("exit reached", "session", s.ID, "moves", s.Moves, "revealed", s.Map.RevealedCount())
	}

	s.record(from, res)
	return res
}

// Preview reports whether clicking world point (x, y) would move the player,
// and the hex it would move to. Nothing is changed.
func (s *Session) Preview(x, y float64) (world.HexCoord, bool) {
	target := s.Layout.FromPixel(x, y)
	if s.Won {
		return target, false
	}
	return target, s.CanStep(s.Player.Coord, target) == MoveAccepted
}

func (s *Session) record(from world.HexCoord, res MoveResult) {
	s.seq++
	if s.Recorder == nil {
		return
	}
	mv := MoveRecord{
		Seq:     s.seq,
		From:    from,
		To:      res.Target,
		Outcome: res.Outcome,
		Won:     res.Won,
		At:      time.Now(),
	}
	if err := s.Recorder.RecordMove(s.ID, mv); err != nil {
		slog.Warn("record move failed", "session", s.ID, "seq", mv.Seq, "error", err)
	}
}
