package wgpudev

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/lao-tseu-is-alive/go-gpu-boids/internal/gpu"
)

// Surface is the window's swap chain.
type Surface struct {
	dev     *Device
	surface *wgpu.Surface
	config  *wgpu.SurfaceConfiguration
}

var _ gpu.Surface = (*Surface)(nil)

func (s *Surface) Configure(width, height uint32) error {
	if width == 0 || height == 0 {
		return fmt.Errorf("configure surface: zero dimension %dx%d", width, height)
	}
	s.config.Width = width
	s.config.Height = height
	s.surface.Configure(s.dev.adapter, s.dev.device, s.config)
	return nil
}

func (s *Surface) Format() gpu.TextureFormat { return gpu.TextureFormat(s.config.Format) }

func (s *Surface) AcquireNextFrame() (gpu.Frame, error) {
	texture, err := s.surface.GetCurrentTexture()
	if err != nil {
		return nil, classify(err)
	}
	view, err := texture.CreateView(nil)
	if err != nil {
		texture.Release()
		return nil, fmt.Errorf("creating surface view: %w", classify(err))
	}
	return &frame{surface: s, texture: texture, view: &textureView{view: view}}, nil
}

// Release frees the native surface.
func (s *Surface) Release() {
	if s.surface != nil {
		s.surface.Release()
		s.surface = nil
	}
}

type textureView struct{ view *wgpu.TextureView }

func (v *textureView) Release() { v.view.Release() }

type frame struct {
	surface *Surface
	texture *wgpu.Texture
	view    *textureView
	done    bool
}

func (f *frame) View() gpu.TextureView { return f.view }

func (f *frame) Present() error {
	if f.done {
		return fmt.Errorf("surface frame already presented")
	}
	f.done = true
	f.surface.surface.Present()
	return nil
}

func (f *frame) Release() {
	if f.view != nil {
		f.view.Release()
		f.view = nil
	}
	if f.texture != nil {
		f.texture.Release()
		f.texture = nil
	}
}
