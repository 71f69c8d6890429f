package camera

import "github.com/lao-tseu-is-alive/go-gpu-boids/pkg/geometry"

// Key is an input-agnostic camera intent. Window toolkits map their own key codes onto it.
type Key int

const (
	KeyUp Key = iota
	KeyDown
	KeyLeft
	KeyRight
	KeyZoomIn
	KeyZoomOut
	keyCount
)

func (k Key) String() string {
	switch k {
	case KeyUp:
		return "up"
	case KeyDown:
		return "down"
	case KeyLeft:
		return "left"
	case KeyRight:
		return "right"
	case KeyZoomIn:
		return "zoom-in"
	case KeyZoomOut:
		return "zoom-out"
	}
	return "unknown"
}

// Default controller speeds.
const (
	DefaultMoveSpeed = 0.1
	DefaultZoomSpeed = 0.05
)

// Controller accumulates held keys and applies them to a Camera once per frame.
// It is driven from the window thread only.
type Controller struct {
	MoveSpeed float32
	ZoomSpeed float32
	held      [keyCount]bool
}

// NewController returns a controller with the given speeds.
func NewController(moveSpeed, zoomSpeed float32) *Controller {
	return &Controller{MoveSpeed: moveSpeed, ZoomSpeed: zoomSpeed}
}

// SetKey records a press (down=true) or release of k.
func (c *Controller) SetKey(k Key, down bool) {
	if k < 0 || k >= keyCount {
		return
	}
	c.held[k] = down
}

// Pressed reports whether k is currently held.
func (c *Controller) Pressed(k Key) bool {
	return k >= 0 && k < keyCount && c.held[k]
}

// Update moves and zooms cam from the held keys and reports whether it changed.
// Movement and zoom both apply in the same frame when both are held.
// Diagonal movement is normalized so it is no faster than straight movement.
// Zoom-out multiplies the scale by (1 - ZoomSpeed) and zoom-in divides by the
// same factor, so one step of each cancels out.
func (c *Controller) Update(cam *Camera) bool {
	var dir geometry.Vec2
	if c.held[KeyUp] {
		dir.Y += 1
	}
	if c.held[KeyDown] {
		dir.Y -= 1
	}
	if c.held[KeyLeft] {
		dir.X -= 1
	}
	if c.held[KeyRight] {
		dir.X += 1
	}

	changed := false
	if dir != (geometry.Vec2{}) {
		cam.Origin = cam.Origin.Add(dir.Normalize().Mul(c.MoveSpeed))
		changed = true
	}

	factor := 1 - c.ZoomSpeed
	switch {
	case c.held[KeyZoomIn] && !c.held[KeyZoomOut]:
		cam.Scale = cam.Scale.Mul(1 / factor)
		changed = true
	case c.held[KeyZoomOut] && !c.held[KeyZoomIn]:
		cam.Scale = cam.Scale.Mul(factor)
		changed = true
	}
	return changed
}
