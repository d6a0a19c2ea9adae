package engine

import "github.com/talgya/homeward/internal/world"

// TileView is what a renderer needs to draw one tile.
type TileView struct {
	Q         int     `json:"q"`
	R         int     `json:"r"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Kind      string  `json:"kind"`
	DrawOrder int     `json:"draw_order"`
	Revealed  bool    `json:"revealed"`
}

// PlayerView is the player as drawn.
type PlayerView struct {
	Q         int     `json:"q"`
	R         int     `json:"r"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	DrawOrder int     `json:"draw_order"`
}

// Status summarizes a session.
type Status struct {
	ID        string `json:"id"`
	Seed      int64  `json:"seed"`
	Attempts  int    `json:"attempts"`
	Tiles     int    `json:"tiles"`
	Walkable  int    `json:"walkable"`
	Revealed  int    `json:"revealed"`
	Moves     int    `json:"moves"`
	Rejected  int    `json:"rejected"`
	Won       bool   `json:"won"`
	StartedAt string `json:"started_at"`
}

// Tiles returns render data for the map. With revealedOnly set, fogged tiles
// are left out entirely.
func (s *Session) Tiles(revealedOnly bool) []TileView {
	views := make([]TileView, 0, s.Map.Len())
	s.Map.Each(func(t world.Tile) {
		if revealedOnly && !t.Revealed {
			return
		}
		x, y := s.Layout.ToPixel(t.Coord)
		views = append(views, TileView{
			Q:         t.Coord.Q,
			R:         t.Coord.R,
			X:         x,
			Y:         y,
			Kind:      t.Kind.String(),
			DrawOrder: t.Kind.DrawOrder(),
			Revealed:  t.Revealed,
		})
	})
	return views
}

// PlayerView returns the player for rendering and camera follow.
func (s *Session) PlayerView() PlayerView {
	return PlayerView{
		Q:         s.Player.Coord.Q,
		R:         s.Player.Coord.R,
		X:         s.Player.X,
		Y:         s.Player.Y,
		DrawOrder: world.DrawOrderActor,
	}
}

// Status returns summary counters.
func (s *Session) Status() Status {
	return Status{
		ID:        s.ID,
		Seed:      s.Seed,
		Attempts:  s.Attempts,
		Tiles:     s.Map.Len(),
		Walkable:  s.Map.WalkableCount(),
		Revealed:  s.Map.RevealedCount(),
		Moves:     s.Moves,
		Rejected:  s.Rejected,
		Won:       s.Won,
		StartedAt: s.StartedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}
