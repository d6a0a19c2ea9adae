// Terrain height synthesis using layered simplex noise under a radial mask.
package world

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// NoiseParams configures the fractal noise layers.
type NoiseParams struct {
	Octaves     int     // Number of layers
	Scale       float64 // Frequency of the first layer; doubles per layer
	Persistence float64 // Amplitude multiplier per layer
}

// DefaultNoiseParams returns the island noise settings.
func DefaultNoiseParams() NoiseParams {
	return NoiseParams{
		Octaves:     8,
		Scale:       0.025,
		Persistence: 0.015,
	}
}

// HeightField is a width×height grid of elevations in [0, 1], highest near
// the centre. It is immutable once built.
type HeightField struct {
	Width  int
	Height int
	Seed   int64

	params  NoiseParams
	noise   opensimplex.Noise
	cx, cy  float64
	maxDist float64
	values  []float64 // Row-major: values[y*Width+x]
}

// NewHeightField synthesizes the elevation grid for a seed.
// The same seed and parameters always produce the same field.
func NewHeightField(width, height int, seed int64, params NoiseParams) *HeightField {
	cx := float64(width-1) / 2
	cy := float64(height-1) / 2
	f := &HeightField{
		Width:   width,
		Height:  height,
		Seed:    seed,
		params:  params,
		noise:   opensimplex.New(seed),
		cx:      cx,
		cy:      cy,
		maxDist: math.Hypot(cx, cy),
		values:  make([]float64, width*height),
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			f.values[y*width+x] = f.SumOctave(x, y) * f.BaseValue(x, y)
		}
	}
	return f
}

// At returns the elevation of grid cell (x, y).
func (f *HeightField) At(x, y int) float64 {
	return f.values[y*f.Width+x]
}

// SumOctave layers the noise octaves at (x, y), normalizes by the total
// amplitude and maps the result into [0, 1].
func (f *HeightField) SumOctave(x, y int) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0
	frequency := f.params.Scale

	for i := 0; i < f.params.Octaves; i++ {
		total += f.noise.Eval2(float64(x)*frequency, float64(y)*frequency) * amplitude
		maxVal += amplitude
		amplitude *= f.params.Persistence
		frequency *= 2
	}
	if maxVal == 0 {
		return 0
	}

	return clamp01((total/maxVal + 1) / 2)
}

// BaseValue is the radial falloff: 1 at the grid centre, 0 at the corners.
func (f *HeightField) BaseValue(x, y int) float64 {
	if f.maxDist == 0 {
		return 1
	}
	d := math.Hypot(float64(x)-f.cx, float64(y)-f.cy)
	return 1 - d/f.maxDist
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
