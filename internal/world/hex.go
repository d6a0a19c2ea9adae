// Package world provides the hex grid, terrain generation, spawn placement and
// fog of war for the island.
// Uses axial coordinates (q, r) for the hex grid.
package world

import "math"

// HexCoord represents a position on the hex grid using axial coordinates.
// It is always the rounded form and is the only form used as a map key.
// The third cube coordinate s is derived: s = -q - r.
type HexCoord struct {
	Q int `json:"q"`
	R int `json:"r"`
}

// S returns the implicit third cube coordinate.
func (h HexCoord) S() int {
	return -h.Q - h.R
}

// Cube returns the cube form of the coordinate.
func (h HexCoord) Cube() Cube {
	return Cube{X: float64(h.Q), Y: float64(h.S()), Z: float64(h.R)}
}

// FractionalHex is an axial position that has not been snapped to a cell yet.
// Pixel conversions produce one of these before rounding.
type FractionalHex struct {
	Q float64
	R float64
}

// Cube returns the cube form of the fractional position.
func (f FractionalHex) Cube() Cube {
	return Cube{X: f.Q, Y: -f.Q - f.R, Z: f.R}
}

// Round snaps a fractional position to the hex cell containing it.
func (f FractionalHex) Round() HexCoord {
	return f.Cube().Round().Axial()
}

// Cube is a cube coordinate triple with X + Y + Z = 0.
// X maps to axial q and Z to axial r.
type Cube struct {
	X, Y, Z float64
}

// Round rounds each component to the nearest integer, then recomputes the
// component with the largest rounding error from the other two so the sum
// stays exactly zero.
func (c Cube) Round() Cube {
	rx := math.Round(c.X)
	ry := math.Round(c.Y)
	rz := math.Round(c.Z)

	dx := math.Abs(rx - c.X)
	dy := math.Abs(ry - c.Y)
	dz := math.Abs(rz - c.Z)

	switch {
	case dx > dy && dx > dz:
		rx = -ry - rz
	case dy > dz:
		ry = -rx - rz
	default:
		rz = -rx - ry
	}
	return Cube{X: rx, Y: ry, Z: rz}
}

// Axial converts an integral cube back to an axial coordinate.
func (c Cube) Axial() HexCoord {
	return HexCoord{Q: int(c.X), R: int(c.Z)}
}

// HexNeighborDirections defines the six neighbor offsets in axial coordinates.
var HexNeighborDirections = [6]HexCoord{
	{Q: 1, R: 0},
	{Q: 1, R: -1},
	{Q: 0, R: -1},
	{Q: -1, R: 0},
	{Q: -1, R: 1},
	{Q: 0, R: 1},
}

// Neighbors returns the six adjacent hex coordinates.
func (h HexCoord) Neighbors() [6]HexCoord {
	var result [6]HexCoord
	for i, dir := range HexNeighborDirections {
		result[i] = HexCoord{Q: h.Q + dir.Q, R: h.R + dir.R}
	}
	return result
}

// Distance returns the number of hex steps between two coordinates:
// half the Manhattan distance of their cube forms.
func Distance(a, b HexCoord) int {
	return (abs(a.Q-b.Q) + abs(a.S()-b.S()) + abs(a.R-b.R)) / 2
}

// GridToAxial maps an integer cell of the elevation grid onto the hex grid.
// Odd columns are shifted so the rectangle stays rectangular on screen.
func GridToAxial(x, y int) HexCoord {
	return HexCoord{Q: x, R: y - floorDiv(x, 2)}
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
