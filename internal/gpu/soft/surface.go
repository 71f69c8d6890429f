package soft

import (
	"errors"
	"fmt"
	"sync"

	"github.com/lao-tseu-is-alive/go-gpu-boids/internal/gpu"
)

// FormatRGBA8 is the only format the software surface offers.
const FormatRGBA8 gpu.TextureFormat = 1

// DrawCall is a captured instanced draw: byte copies of the buffers as they were
// when the draw executed.
type DrawCall struct {
	Instances      []byte
	InstanceStride uint64
	InstanceCount  uint32
	Vertices       []byte
	VertexStride   uint64
	Indices        []byte
	IndexCount     uint32
	// Uniform is group 0 binding 0, the camera block for the boids pipeline.
	Uniform []byte
}

// Image is the content of one presented frame.
type Image struct {
	Width, Height uint32
	Clear         gpu.Color
	Draws         []DrawCall
}

// Surface is a presentable target that keeps the last presented Image.
type Surface struct {
	dev   *Device
	label string

	mu         sync.Mutex
	width      uint32
	height     uint32
	configured bool
	acquired   bool
	failures   []error
	presented  Image
	presents   uint64
}

var _ gpu.Surface = (*Surface)(nil)

// NewSurface returns an unconfigured surface recording into d's trace.
func (d *Device) NewSurface(label string) *Surface {
	return &Surface{dev: d, label: label}
}

func (s *Surface) Configure(width, height uint32) error {
	if width == 0 || height == 0 {
		return fmt.Errorf("configure %q: zero dimension %dx%d", s.label, width, height)
	}
	s.mu.Lock()
	s.width, s.height = width, height
	s.configured = true
	s.acquired = false
	s.mu.Unlock()
	s.dev.record(Command{Op: OpConfigure, Label: s.label, Count: width})
	return nil
}

func (s *Surface) Format() gpu.TextureFormat { return FormatRGBA8 }

// Size returns the configured dimensions.
func (s *Surface) Size() (uint32, uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

// FailNext queues errors returned by the next AcquireNextFrame calls, one per call.
// A lost surface stays lost until Configure is called.
func (s *Surface) FailNext(errs ...error) {
	s.mu.Lock()
	s.failures = append(s.failures, errs...)
	s.mu.Unlock()
}

func (s *Surface) AcquireNextFrame() (gpu.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.configured {
		return nil, fmt.Errorf("acquire from %q: %w", s.label, gpu.ErrSurfaceOutdated)
	}
	if len(s.failures) > 0 {
		err := s.failures[0]
		s.failures = s.failures[1:]
		if errors.Is(err, gpu.ErrSurfaceLost) {
			s.configured = false
		}
		return nil, fmt.Errorf("acquire from %q: %w", s.label, err)
	}
	if s.acquired {
		return nil, fmt.Errorf("acquire from %q: previous frame not presented", s.label)
	}
	s.acquired = true
	s.dev.record(Command{Op: OpAcquire, Label: s.label, Count: s.width})
	return &frame{surface: s, image: Image{Width: s.width, Height: s.height}}, nil
}

// Presented returns the last presented image and the number of presents so far.
func (s *Surface) Presented() (Image, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.presented, s.presents
}

type frame struct {
	surface *Surface
	image   Image
	done    bool
}

func (f *frame) View() gpu.TextureView { return f }

func (f *frame) Present() error {
	if f.done {
		return fmt.Errorf("present on %q: frame already presented", f.surface.label)
	}
	f.done = true
	s := f.surface
	s.mu.Lock()
	s.presented = f.image
	s.presents++
	s.acquired = false
	s.mu.Unlock()
	s.dev.record(Command{Op: OpPresent, Label: s.label})
	return nil
}

// Release drops an acquired frame without presenting it.
func (f *frame) Release() {
	if f.done {
		return
	}
	f.done = true
	f.surface.mu.Lock()
	f.surface.acquired = false
	f.surface.mu.Unlock()
}
