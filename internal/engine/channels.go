package engine

import (
	"fmt"

	"github.com/lao-tseu-is-alive/go-gpu-boids/internal/gpu"
	"github.com/lao-tseu-is-alive/go-gpu-boids/pkg/boid"
	"github.com/lao-tseu-is-alive/go-gpu-boids/pkg/camera"
)

// ParamChannel is the parameter uniform buffer read by the compute pass.
// It is rewritten in place every frame.
type ParamChannel struct {
	buf    gpu.Buffer
	params boid.Params
}

// NewParamChannel creates the uniform buffer, initialised with a zero-delta snapshot.
func NewParamChannel(dev gpu.Device, params boid.Params) (*ParamChannel, error) {
	buf, err := dev.CreateBuffer(&gpu.BufferDescriptor{
		Label:    "params uniform",
		Contents: params.Snapshot(0).Marshal(),
		Usage:    gpu.BufferUsageUniform | gpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("creating params uniform: %w", err)
	}
	return &ParamChannel{buf: buf, params: params}, nil
}

// Snapshot derives the uniforms for a frame that measured dt seconds.
func (c *ParamChannel) Snapshot(dt float32) boid.Uniforms { return c.params.Snapshot(dt) }

// Params returns the fixed simulation parameters.
func (c *ParamChannel) Params() boid.Params { return c.params }

// Buffer is the GPU uniform buffer.
func (c *ParamChannel) Buffer() gpu.Buffer { return c.buf }

func (c *ParamChannel) Release() {
	if c.buf != nil {
		c.buf.Release()
		c.buf = nil
	}
}

// CameraChannel is the camera uniform buffer read by the vertex shader.
// It is re-derived only when the camera moved or the viewport changed.
type CameraChannel struct {
	buf    gpu.Buffer
	width  uint32
	height uint32
	dirty  bool
	last   camera.Uniform
}

// NewCameraChannel creates the uniform buffer for cam on a width x height viewport.
func NewCameraChannel(dev gpu.Device, cam camera.Camera, width, height uint32) (*CameraChannel, error) {
	u, ok := cam.UniformFor(width, height)
	if !ok {
		return nil, fmt.Errorf("camera uniform for a %dx%d viewport", width, height)
	}
	buf, err := dev.CreateBuffer(&gpu.BufferDescriptor{
		Label:    "camera uniform",
		Contents: u.Marshal(),
		Usage:    gpu.BufferUsageUniform | gpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("creating camera uniform: %w", err)
	}
	return &CameraChannel{buf: buf, width: width, height: height, last: u}, nil
}

// SetViewport records a new viewport size and marks the channel dirty.
// A zero dimension is ignored and reported as false.
func (c *CameraChannel) SetViewport(width, height uint32) bool {
	if width == 0 || height == 0 {
		return false
	}
	c.width, c.height = width, height
	c.dirty = true
	return true
}

// MarkDirty flags that the camera changed since the last upload.
func (c *CameraChannel) MarkDirty() { c.dirty = true }

// Dirty reports whether the next Update will produce a new block.
func (c *CameraChannel) Dirty() bool { return c.dirty }

// Update returns the uniform for cam and clears the dirty flag. The second
// result is false, and the previous uniform is kept, when nothing changed.
func (c *CameraChannel) Update(cam camera.Camera) (camera.Uniform, bool) {
	if !c.dirty {
		return c.last, false
	}
	u, ok := cam.UniformFor(c.width, c.height)
	if !ok {
		return c.last, false
	}
	c.dirty = false
	c.last = u
	return u, true
}

// Uniform is the last derived uniform.
func (c *CameraChannel) Uniform() camera.Uniform { return c.last }

// Viewport returns the current viewport size.
func (c *CameraChannel) Viewport() (uint32, uint32) { return c.width, c.height }

// Buffer is the GPU uniform buffer.
func (c *CameraChannel) Buffer() gpu.Buffer { return c.buf }

func (c *CameraChannel) Release() {
	if c.buf != nil {
		c.buf.Release()
		c.buf = nil
	}
}
