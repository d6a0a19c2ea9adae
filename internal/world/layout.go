package world

import "math"

// DefaultTileSize is the sprite size in world pixels.
const DefaultTileSize = 16.0

var sqrt3 = math.Sqrt(3)

// Layout converts between hex coordinates and world pixels for flat-top tiles
// drawn at TileSize.
type Layout struct {
	TileSize float64
}

// NewLayout returns a layout for the given tile size, falling back to
// DefaultTileSize for non-positive values.
func NewLayout(tileSize float64) Layout {
	if tileSize <= 0 {
		tileSize = DefaultTileSize
	}
	return Layout{TileSize: tileSize}
}

func (l Layout) sizeW() float64 { return l.TileSize / 2 }
func (l Layout) sizeH() float64 { return l.TileSize / sqrt3 }

// ToPixel returns the world-space centre of a hex.
// At the default size this is x = 12q, y = 8q + 16r.
func (l Layout) ToPixel(h HexCoord) (x, y float64) {
	q := float64(h.Q)
	r := float64(h.R)
	x = l.sizeW() * (1.5 * q)
	y = l.sizeH() * (sqrt3/2*q + sqrt3*r)
	return x, y
}

// FractionalFromPixel inverts ToPixel without rounding.
func (l Layout) FractionalFromPixel(x, y float64) FractionalHex {
	q := (2.0 / 3.0 * x) / l.sizeW()
	r := (y/l.sizeH() - sqrt3/2*q) / sqrt3
	return FractionalHex{Q: q, R: r}
}

// FromPixel returns the hex cell containing a world-space point.
func (l Layout) FromPixel(x, y float64) HexCoord {
	return l.FractionalFromPixel(x, y).Round()
}
