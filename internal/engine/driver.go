// Package engine is the per-frame core of the simulation: the double-buffered
// agent store, the parameter and camera uniform channels, the compute and render
// stages, and the driver that sequences them once per displayed frame.
//
// Nothing here waits on the GPU. Correctness rests on two rules: every write a
// frame depends on is enqueued on the single queue before the work that reads it,
// and the compute pass of a frame never reads the slot it writes.
package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/lao-tseu-is-alive/go-gpu-boids/internal/gpu"
	"github.com/lao-tseu-is-alive/go-gpu-boids/internal/shaders"
	"github.com/lao-tseu-is-alive/go-gpu-boids/pkg/boid"
	"github.com/lao-tseu-is-alive/go-gpu-boids/pkg/camera"
)

// State is the driver's position in the frame cycle.
type State int

const (
	StateIdle State = iota
	StateComputePending
	StateRenderPending
	StatePresented
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateComputePending:
		return "compute-pending"
	case StateRenderPending:
		return "render-pending"
	case StatePresented:
		return "presented"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Setup is the fixed configuration of a simulation session.
type Setup struct {
	Agents        []boid.Agent
	Params        boid.Params
	Camera        camera.Camera
	Width, Height uint32
	ClearColor    gpu.Color
	// MaxDelta caps the measured frame delta. Zero leaves it unclamped.
	MaxDelta time.Duration
}

// Option customises a Driver.
type Option func(*Driver)

// WithClock sets the time source dt is measured from.
func WithClock(c Clock) Option { return func(d *Driver) { d.clock = c } }

// WithPacer sets the post-present pacing policy.
func WithPacer(p Pacer) Option { return func(d *Driver) { d.pacer = p } }

// WithLogger sets the logger.
func WithLogger(l Logger) Option { return func(d *Driver) { d.log = l } }

// WithObserver registers o to receive a report after every frame cycle.
func WithObserver(o Observer) Option {
	return func(d *Driver) { d.observers = append(d.observers, o) }
}

// Driver runs the frame cycle Idle -> ComputePending -> RenderPending -> Presented -> Idle.
// It is not safe for concurrent use; the window thread owns it.
type Driver struct {
	dev     gpu.Device
	surface gpu.Surface

	store  *AgentStore
	params *ParamChannel
	camera *CameraChannel
	sim    *SimulationStage
	render *RenderStage

	clock     Clock
	pacer     Pacer
	log       Logger
	observers []Observer

	maxDelta time.Duration
	frame    uint64
	state    State
	last     time.Time
}

// NewDriver configures the surface and builds every GPU resource of the session.
// Any failure here is fatal for the session: there is no device or surface to fall back to.
func NewDriver(dev gpu.Device, surface gpu.Surface, setup Setup, opts ...Option) (d *Driver, err error) {
	if setup.Width == 0 || setup.Height == 0 {
		return nil, fmt.Errorf("initial viewport %dx%d has a zero dimension", setup.Width, setup.Height)
	}
	d = &Driver{
		dev:      dev,
		surface:  surface,
		clock:    SystemClock{},
		pacer:    SleepPacer{Interval: DefaultFrameInterval},
		log:      nopLogger{},
		maxDelta: setup.MaxDelta,
	}
	for _, opt := range opts {
		opt(d)
	}
	defer func() {
		if err != nil {
			d.Release()
			d = nil
		}
	}()

	if err = surface.Configure(setup.Width, setup.Height); err != nil {
		return d, fmt.Errorf("configuring surface: %w", err)
	}

	computeModule, err := dev.CreateShaderModule(&gpu.ShaderModuleDescriptor{Label: "compute.wgsl", WGSL: shaders.Compute})
	if err != nil {
		return d, fmt.Errorf("creating compute shader: %w", err)
	}
	defer computeModule.Release()
	drawModule, err := dev.CreateShaderModule(&gpu.ShaderModuleDescriptor{Label: "draw.wgsl", WGSL: shaders.Draw})
	if err != nil {
		return d, fmt.Errorf("creating draw shader: %w", err)
	}
	defer drawModule.Release()

	if d.params, err = NewParamChannel(dev, setup.Params); err != nil {
		return d, err
	}
	if d.camera, err = NewCameraChannel(dev, setup.Camera, setup.Width, setup.Height); err != nil {
		return d, err
	}
	if d.store, err = NewAgentStore(dev, setup.Agents, d.params.Buffer()); err != nil {
		return d, err
	}
	if d.sim, err = NewSimulationStage(dev, computeModule, d.store); err != nil {
		return d, err
	}
	if d.render, err = NewRenderStage(dev, drawModule, surface.Format(), d.store, d.camera, setup.ClearColor); err != nil {
		return d, err
	}

	d.last = d.clock.Now()
	d.log.Infof("engine ready: %d agents, %d workgroups of %d, viewport %dx%d",
		d.store.Count(), d.sim.Workgroups(), shaders.WorkgroupSize, setup.Width, setup.Height)
	return d, nil
}

// FrameIndex is the number of frame cycles that submitted compute work.
func (d *Driver) FrameIndex() uint64 { return d.frame }

// Parity is the parity the next frame will compute with.
func (d *Driver) Parity() Parity { return ParityOf(d.frame) }

// State is the current position in the frame cycle.
func (d *Driver) State() State { return d.state }

// Store exposes the agent slots.
func (d *Driver) Store() *AgentStore { return d.store }

// Workgroups is the compute dispatch size.
func (d *Driver) Workgroups() uint32 { return d.sim.Workgroups() }

// CameraUniform is the last camera block derived by the camera channel.
func (d *Driver) CameraUniform() camera.Uniform { return d.camera.Uniform() }

// Viewport is the size the surface was last configured with.
func (d *Driver) Viewport() (uint32, uint32) { return d.camera.Viewport() }

// Resize reconfigures the surface and rescales the camera. Sizes with a zero
// dimension (a minimised window) are ignored and reported as false.
func (d *Driver) Resize(width, height uint32) (bool, error) {
	if width == 0 || height == 0 {
		d.log.Debugf("ignoring resize to %dx%d", width, height)
		return false, nil
	}
	if err := d.surface.Configure(width, height); err != nil {
		return false, fmt.Errorf("reconfiguring surface to %dx%d: %w", width, height, err)
	}
	d.camera.SetViewport(width, height)
	return true, nil
}

// Frame runs one full cycle. cam is the current camera and cameraChanged the
// controller's report for this frame.
//
// The returned error is non-nil only for fatal conditions: an out-of-memory
// device or a failure to record or submit commands. Transient surface failures
// come back as FrameSkipped or FrameReconfigured.
func (d *Driver) Frame(cam camera.Camera, cameraChanged bool) (FrameResult, error) {
	if d.state != StateIdle {
		return FrameFailed, fmt.Errorf("frame started in state %s", d.state)
	}

	// Idle -> ComputePending
	d.state = StateComputePending
	dt := d.measure()
	if cameraChanged {
		d.camera.MarkDirty()
	}
	var camBlock *camera.Uniform
	if u, ok := d.camera.Update(cam); ok {
		camBlock = &u
	}
	parity := d.Parity()
	d.log.Debugf("frame %d: dt=%v parity=%d", d.frame, dt, parity)

	uploaded, err := ComputeFrame{d: d, parity: parity}.Upload(d.params.Snapshot(float32(dt.Seconds())), camBlock)
	if err != nil {
		return d.fail(dt, err)
	}
	rendering, err := uploaded.Dispatch()
	if err != nil {
		return d.fail(dt, err)
	}

	// ComputePending -> RenderPending: the slots have advanced, so must the counter,
	// whatever happens to the image.
	d.state = StateRenderPending
	d.frame++

	target, err := d.surface.AcquireNextFrame()
	if err != nil {
		return d.recoverAcquire(dt, parity, err)
	}
	defer target.Release()

	drawn, err := rendering.Draw(target)
	if err != nil {
		return d.fail(dt, err)
	}
	if err := drawn.Present(); err != nil {
		return d.fail(dt, err)
	}

	// RenderPending -> Presented -> Idle
	d.state = StatePresented
	d.finish(dt, parity, FramePresented)
	d.pacer.AfterPresent()
	return FramePresented, nil
}

// measure returns the time since the previous measurement. It is never negative
// and never reused: every call consumes the gap it reports.
func (d *Driver) measure() time.Duration {
	now := d.clock.Now()
	dt := now.Sub(d.last)
	d.last = now
	if dt < 0 {
		d.log.Warnf("clock went back by %v, using a zero frame delta", -dt)
		dt = 0
	}
	if d.maxDelta > 0 && dt > d.maxDelta {
		d.log.Debugf("clamping frame delta %v to %v", dt, d.maxDelta)
		dt = d.maxDelta
	}
	return dt
}

func (d *Driver) recoverAcquire(dt time.Duration, parity Parity, err error) (FrameResult, error) {
	switch {
	case errors.Is(err, gpu.ErrSurfaceLost):
		w, h := d.camera.Viewport()
		d.log.Infof("surface lost, reconfiguring at %dx%d", w, h)
		if cerr := d.surface.Configure(w, h); cerr != nil {
			return d.fail(dt, fmt.Errorf("reconfiguring lost surface: %w", cerr))
		}
		d.finish(dt, parity, FrameReconfigured)
		return FrameReconfigured, nil
	case errors.Is(err, gpu.ErrOutOfMemory):
		return d.fail(dt, fmt.Errorf("acquiring surface frame: %w", err))
	case errors.Is(err, gpu.ErrSurfaceOutdated), errors.Is(err, gpu.ErrSurfaceTimeout):
		d.log.Warnf("skipping frame %d: %v", d.frame-1, err)
	default:
		d.log.Errorf("skipping frame %d: %v", d.frame-1, err)
	}
	d.finish(dt, parity, FrameSkipped)
	return FrameSkipped, nil
}

func (d *Driver) fail(dt time.Duration, err error) (FrameResult, error) {
	d.log.Errorf("frame %d failed: %v", d.frame, err)
	d.finish(dt, d.Parity(), FrameFailed)
	return FrameFailed, err
}

func (d *Driver) finish(dt time.Duration, parity Parity, result FrameResult) {
	d.state = StateIdle
	if len(d.observers) == 0 {
		return
	}
	report := FrameReport{
		Index:  d.frame,
		Delta:  dt,
		Parity: parity,
		Result: result,
		Agents: d.store.Count(),
	}
	for _, o := range d.observers {
		o.ObserveFrame(report)
	}
}

// Release frees every resource the driver created. The device and surface
// belong to the caller.
func (d *Driver) Release() {
	if d.render != nil {
		d.render.Release()
		d.render = nil
	}
	if d.sim != nil {
		d.sim.Release()
		d.sim = nil
	}
	if d.store != nil {
		d.store.Release()
		d.store = nil
	}
	if d.camera != nil {
		d.camera.Release()
		d.camera = nil
	}
	if d.params != nil {
		d.params.Release()
		d.params = nil
	}
}
