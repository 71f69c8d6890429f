// Package preview hosts the engine in an ebiten window on the software device.
//
// Every tick runs one engine frame; Draw then paints the instanced draws the
// software surface captured, so the preview shows exactly what was submitted.
package preview

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/lao-tseu-is-alive/go-gpu-boids/internal/engine"
	"github.com/lao-tseu-is-alive/go-gpu-boids/internal/gpu"
	"github.com/lao-tseu-is-alive/go-gpu-boids/internal/gpu/soft"
	"github.com/lao-tseu-is-alive/go-gpu-boids/pkg/boid"
	"github.com/lao-tseu-is-alive/go-gpu-boids/pkg/camera"
	"github.com/lao-tseu-is-alive/go-gpu-boids/pkg/geometry"
)

// maxBatchInstances keeps one DrawTriangles call under the uint16 index range.
const maxBatchInstances = (math.MaxUint16 + 1) / len(boid.MeshVertices)

var keyBindings = []struct {
	key  camera.Key
	keys []ebiten.Key
}{
	{camera.KeyUp, []ebiten.Key{ebiten.KeyW, ebiten.KeyArrowUp}},
	{camera.KeyDown, []ebiten.Key{ebiten.KeyS, ebiten.KeyArrowDown}},
	{camera.KeyLeft, []ebiten.Key{ebiten.KeyA, ebiten.KeyArrowLeft}},
	{camera.KeyRight, []ebiten.Key{ebiten.KeyD, ebiten.KeyArrowRight}},
	{camera.KeyZoomIn, []ebiten.Key{ebiten.KeyEqual, ebiten.KeyNumpadAdd}},
	{camera.KeyZoomOut, []ebiten.Key{ebiten.KeyMinus, ebiten.KeyNumpadSubtract}},
}

type Game struct {
	driver  *engine.Driver
	surface *soft.Surface
	ctrl    *camera.Controller
	cam     camera.Camera
	home    camera.Camera
	reset   bool

	width, height int
	resizeErr     error
	controls      *controls

	whiteImage *ebiten.Image
	vertices   []ebiten.Vertex
	indices    []uint16

	// Timing instrumentation
	lastUpdateDuration time.Duration
	lastDrawDuration   time.Duration
	updateAvg          float64 // Rolling average in ms
	drawAvg            float64 // Rolling average in ms
}

// NewGame wraps a driver built on surface. width and height must match the
// viewport the driver was created with.
func NewGame(driver *engine.Driver, surface *soft.Surface, cam camera.Camera, ctrl *camera.Controller, width, height int) *Game {
	white := ebiten.NewImage(3, 3)
	white.Fill(color.White)
	g := &Game{
		driver:     driver,
		surface:    surface,
		ctrl:       ctrl,
		cam:        cam,
		home:       cam,
		width:      width,
		height:     height,
		whiteImage: white,
	}
	g.controls = newControls(height, g.resetCamera)
	return g
}

func (g *Game) resetCamera() {
	g.cam = g.home
	g.reset = true
}

func (g *Game) Update() error {
	start := time.Now()
	defer func() {
		g.lastUpdateDuration = time.Since(start)
		g.updateAvg = rolling(g.updateAvg, g.lastUpdateDuration)
	}()

	if g.resizeErr != nil {
		return g.resizeErr
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF1) {
		g.controls.stats.Value = !g.controls.stats.Value
	}
	mx, my := ebiten.CursorPosition()
	g.controls.update(mx, my, ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft))
	for _, b := range keyBindings {
		down := false
		for _, k := range b.keys {
			down = down || ebiten.IsKeyPressed(k)
		}
		g.ctrl.SetKey(b.key, down)
	}

	changed := g.ctrl.Update(&g.cam) || g.reset
	g.reset = false
	if _, err := g.driver.Frame(g.cam, changed); err != nil {
		return fmt.Errorf("frame %d: %w", g.driver.FrameIndex(), err)
	}
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	start := time.Now()

	img, _ := g.surface.Presented()
	screen.Fill(toNRGBA(img.Clear))
	size := geometry.Vec2{X: float32(screen.Bounds().Dx()), Y: float32(screen.Bounds().Dy())}
	for _, call := range img.Draws {
		g.paint(screen, call, size)
	}

	g.lastDrawDuration = time.Since(start)
	g.drawAvg = rolling(g.drawAvg, g.lastDrawDuration)

	g.controls.draw(screen)
	if g.controls.stats.Value {
		msg := fmt.Sprintf("FPS: %.2f\nTPS: %.2f\n\nUpdate: %.2fms\nDraw: %.2fms\n\nAgents: %d\nFrame: %d\nScale: %.1f",
			ebiten.ActualFPS(), ebiten.ActualTPS(),
			g.updateAvg, g.drawAvg,
			g.driver.Store().Count(), g.driver.FrameIndex(), g.cam.Scale.X)
		ebitenutil.DebugPrintAt(screen, msg, 10, 10)
	}
}

// Layout follows the window size; a change resizes the engine surface.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth <= 0 || outsideHeight <= 0 {
		return g.width, g.height
	}
	if outsideWidth != g.width || outsideHeight != g.height {
		if _, err := g.driver.Resize(uint32(outsideWidth), uint32(outsideHeight)); err != nil {
			g.resizeErr = errors.Join(g.resizeErr, fmt.Errorf("resizing to %dx%d: %w", outsideWidth, outsideHeight, err))
		}
		g.width, g.height = outsideWidth, outsideHeight
		g.controls.place(g.height)
	}
	return g.width, g.height
}

func (g *Game) paint(screen *ebiten.Image, call soft.DrawCall, size geometry.Vec2) {
	forEachBatch(int(call.InstanceCount), maxBatchInstances, func(first, last int) {
		g.vertices, g.indices = triangles(g.vertices[:0], g.indices[:0], call, first, last, size)
		screen.DrawTriangles(g.vertices, g.indices, g.whiteImage, &ebiten.DrawTrianglesOptions{})
	})
}

// forEachBatch calls fn for consecutive [first, last) ranges of at most size items.
func forEachBatch(n, size int, fn func(first, last int)) {
	for first := 0; first < n; first += size {
		fn(first, min(first+size, n))
	}
}

// triangles appends the screen-space mesh of instances [first, last) of call.
// The mesh is read with uint16 indices, the format the boids pipeline binds.
func triangles(vs []ebiten.Vertex, is []uint16, call soft.DrawCall, first, last int, size geometry.Vec2) ([]ebiten.Vertex, []uint16) {
	if call.VertexStride == 0 || call.InstanceStride == 0 {
		return vs, is
	}
	uniform := camera.UnmarshalUniform(call.Uniform)
	mesh := make([]geometry.Vec2, len(call.Vertices)/int(call.VertexStride))
	for i := range mesh {
		mesh[i] = boid.ReadMeshVertex(call.Vertices[i*int(call.VertexStride):], 0)
	}

	stride := int(call.InstanceStride)
	for n := first; n < last; n++ {
		a := boid.ReadAgent(call.Instances[n*stride:])
		base := uint16(len(vs))
		for _, v := range mesh {
			p := toScreen(uniform.Project(boid.Orient(v, a.Position, a.Velocity)), size)
			vs = append(vs, ebiten.Vertex{
				DstX: p.X, DstY: p.Y,
				SrcX: 1, SrcY: 1,
				ColorR: a.Color[0], ColorG: a.Color[1], ColorB: a.Color[2], ColorA: 1,
			})
		}
		for k := 0; k < int(call.IndexCount); k++ {
			is = append(is, base+boid.ReadMeshIndex(call.Indices, k))
		}
	}
	return vs, is
}

// toScreen maps clip space [-1, 1] to pixels, with Y growing downwards.
func toScreen(clip, size geometry.Vec2) geometry.Vec2 {
	return geometry.Vec2{
		X: (clip.X + 1) * 0.5 * size.X,
		Y: (1 - clip.Y) * 0.5 * size.Y,
	}
}

func toNRGBA(c gpu.Color) color.NRGBA {
	ch := func(v float64) uint8 { return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255)) }
	return color.NRGBA{R: ch(c.R), G: ch(c.G), B: ch(c.B), A: ch(c.A)}
}

func rolling(avg float64, d time.Duration) float64 {
	return avg*0.95 + float64(d.Microseconds())/1000.0*0.05
}
