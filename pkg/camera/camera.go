// Package camera holds the 2D view transform and the controller that turns
// held keys into camera motion.
package camera

import (
	"encoding/binary"
	"math"

	"github.com/lao-tseu-is-alive/go-gpu-boids/pkg/geometry"
)

// UniformSize is the byte size of the camera uniform block (origin.xy, scale.xy).
const UniformSize = 16

// DefaultBaseScale is the world-to-pixel factor before dividing by the viewport.
const DefaultBaseScale = 200

// Camera is the view state: the world point at the screen center and a per-axis
// base scale in pixels per world unit.
type Camera struct {
	Origin geometry.Vec2
	Scale  geometry.Vec2
}

// New returns a camera centered on the origin.
func New(baseScale float32) Camera {
	return Camera{Scale: geometry.Splat(baseScale)}
}

// Uniform is what the vertex shader reads: clip = (world - Origin) * Scale.
type Uniform struct {
	Origin geometry.Vec2
	Scale  geometry.Vec2
}

// UniformFor derives the shader uniform for a viewport of width x height pixels.
// The second result is false when either dimension is zero, since there is no
// finite scale for an empty viewport.
func (c Camera) UniformFor(width, height uint32) (Uniform, bool) {
	if width == 0 || height == 0 {
		return Uniform{}, false
	}
	viewport := geometry.Vec2{X: float32(width), Y: float32(height)}
	return Uniform{
		Origin: c.Origin,
		Scale:  c.Scale.DivVec(viewport),
	}, true
}

// Marshal returns the little-endian layout of the WGSL Camera struct.
func (u Uniform) Marshal() []byte {
	b := make([]byte, UniformSize)
	for i, f := range [...]float32{u.Origin.X, u.Origin.Y, u.Scale.X, u.Scale.Y} {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(f))
	}
	return b
}

// UnmarshalUniform decodes a block produced by Marshal.
func UnmarshalUniform(b []byte) Uniform {
	f := func(o int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(b[o:])) }
	return Uniform{
		Origin: geometry.Vec2{X: f(0), Y: f(4)},
		Scale:  geometry.Vec2{X: f(8), Y: f(12)},
	}
}

// Project maps a world point to clip space [-1, 1].
func (u Uniform) Project(world geometry.Vec2) geometry.Vec2 {
	return world.Sub(u.Origin).MulVec(u.Scale)
}
