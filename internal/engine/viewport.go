package engine

// Viewport describes how the renderer shows the world: a window of
// Width×Height screen pixels centred on the camera, scaled by Scale.
type Viewport struct {
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	CameraX float64 `json:"camera_x"`
	CameraY float64 `json:"camera_y"`
	Scale   float64 `json:"scale"` // World pixels per screen pixel
}

// ScreenToWorld maps a screen point to world coordinates.
func (v Viewport) ScreenToWorld(sx, sy float64) (x, y float64) {
	scale := v.Scale
	if scale == 0 {
		scale = 1
	}
	x = v.CameraX + (sx-v.Width/2)*scale
	y = v.CameraY + (sy-v.Height/2)*scale
	return x, y
}
