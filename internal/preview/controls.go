package preview

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

var (
	borderColor = color.RGBA{R: 200, G: 200, B: 200, A: 255}
	buttonColor = color.RGBA{R: 80, G: 120, B: 180, A: 255}
	hoverColor  = color.RGBA{R: 100, G: 150, B: 220, A: 255}
	checkColor  = color.RGBA{R: 100, G: 200, B: 100, A: 255}
)

type rect struct {
	X, Y, W, H float64
}

func (r rect) contains(x, y int) bool {
	return float64(x) >= r.X && float64(x) <= r.X+r.W &&
		float64(y) >= r.Y && float64(y) <= r.Y+r.H
}

// click turns a held mouse button into a single event per press.
type click struct {
	held bool
}

// fired reports true once when the button goes down inside r.
func (c *click) fired(r rect, mx, my int, pressed bool) bool {
	if pressed && r.contains(mx, my) {
		if c.held {
			return false
		}
		c.held = true
		return true
	}
	c.held = false
	return false
}

// toggle is a labelled checkbox.
type toggle struct {
	rect
	Label string
	Value bool
	click click
}

func newToggle(x, y float64, label string, value bool) *toggle {
	return &toggle{rect: rect{X: x, Y: y, W: 16, H: 16}, Label: label, Value: value}
}

func (t *toggle) update(mx, my int, pressed bool) {
	if t.click.fired(t.rect, mx, my, pressed) {
		t.Value = !t.Value
	}
}

func (t *toggle) draw(screen *ebiten.Image) {
	vector.StrokeRect(screen, float32(t.X), float32(t.Y), float32(t.W), float32(t.H), 2, borderColor, true)
	if t.Value {
		vector.FillRect(screen, float32(t.X+2), float32(t.Y+2), float32(t.W-4), float32(t.H-4), checkColor, true)
	}
	ebitenutil.DebugPrintAt(screen, t.Label, int(t.X+t.W+6), int(t.Y))
}

// button runs OnClick once per press.
type button struct {
	rect
	Label   string
	OnClick func()
	click   click
	hover   bool
}

func newButton(x, y, w, h float64, label string, onClick func()) *button {
	return &button{rect: rect{X: x, Y: y, W: w, H: h}, Label: label, OnClick: onClick}
}

func (b *button) update(mx, my int, pressed bool) {
	b.hover = b.contains(mx, my)
	if b.click.fired(b.rect, mx, my, pressed) && b.OnClick != nil {
		b.OnClick()
	}
}

func (b *button) draw(screen *ebiten.Image) {
	bg := buttonColor
	if b.hover {
		bg = hoverColor
	}
	vector.FillRect(screen, float32(b.X), float32(b.Y), float32(b.W), float32(b.H), bg, true)
	vector.StrokeRect(screen, float32(b.X), float32(b.Y), float32(b.W), float32(b.H), 2, borderColor, true)
	ebitenutil.DebugPrintAt(screen, b.Label, int(b.X+6), int(b.Y+b.H/2-8))
}

// controls is the bottom-left strip of the preview window.
type controls struct {
	stats *toggle
	reset *button
}

func newControls(height int, onReset func()) *controls {
	y := float64(height) - 40
	return &controls{
		stats: newToggle(10, y+6, "stats (F1)", true),
		reset: newButton(140, y, 120, 28, "reset camera", onReset),
	}
}

// place keeps the strip anchored to the bottom edge after a resize.
func (c *controls) place(height int) {
	y := float64(height) - 40
	c.stats.Y = y + 6
	c.reset.Y = y
}

func (c *controls) update(mx, my int, pressed bool) {
	c.stats.update(mx, my, pressed)
	c.reset.update(mx, my, pressed)
}

func (c *controls) draw(screen *ebiten.Image) {
	c.stats.draw(screen)
	c.reset.draw(screen)
}
