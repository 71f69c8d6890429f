package engine

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/lao-tseu-is-alive/go-gpu-boids/internal/gpu"
	"github.com/lao-tseu-is-alive/go-gpu-boids/internal/gpu/soft"
	"github.com/lao-tseu-is-alive/go-gpu-boids/internal/shaders"
	"github.com/lao-tseu-is-alive/go-gpu-boids/pkg/boid"
	"github.com/lao-tseu-is-alive/go-gpu-boids/pkg/camera"
)

const frameDelta = time.Second / 60

type harness struct {
	driver  *Driver
	dev     *soft.Device
	surface *soft.Surface
	clock   *ManualClock
	cam     camera.Camera
	setup   Setup
}

func newHarness(t *testing.T, count int, opts ...Option) *harness {
	t.Helper()
	dev := soft.New(shaders.SoftKernels())
	surface := dev.NewSurface("test surface")
	clock := NewManualClock(time.Unix(1000, 0))
	cam := camera.New(camera.DefaultBaseScale)
	setup := Setup{
		Agents:     boid.NewPopulation(boid.NewRand(42), count),
		Params:     boid.DefaultParams(),
		Camera:     cam,
		Width:      800,
		Height:     600,
		ClearColor: gpu.Color{A: 1},
	}
	all := append([]Option{WithClock(clock), WithPacer(PresentPacer{})}, opts...)
	d, err := NewDriver(dev, surface, setup, all...)
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}
	t.Cleanup(d.Release)
	return &harness{driver: d, dev: dev, surface: surface, clock: clock, cam: cam, setup: setup}
}

// step advances the clock by one frame delta and runs a frame.
func (h *harness) step(t *testing.T) FrameResult {
	t.Helper()
	h.clock.Advance(frameDelta)
	res, err := h.driver.Frame(h.cam, false)
	if err != nil {
		t.Fatalf("Frame %d: %v", h.driver.FrameIndex(), err)
	}
	return res
}

func slotBytes(t *testing.T, d *Driver, i int) []byte {
	t.Helper()
	b, ok := d.Store().Slot(i).(*soft.Buffer)
	if !ok {
		t.Fatalf("slot %d is %T; want *soft.Buffer", i, d.Store().Slot(i))
	}
	return b.Bytes()
}

func uploadedParams(t *testing.T, d *Driver) boid.Uniforms {
	t.Helper()
	return boid.UnmarshalUniforms(d.params.Buffer().(*soft.Buffer).Bytes())
}

func ops(trace []soft.Command, keep func(soft.Command) bool) []soft.Command {
	var out []soft.Command
	for _, c := range trace {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}

func TestWorkgroupCount(t *testing.T) {
	tests := []struct {
		count, size, want uint32
	}{
		{1000, 64, 16},
		{1024, 64, 16},
		{1025, 64, 17},
		{64, 64, 1},
		{1, 64, 1},
		{0, 64, 0},
		{10, 0, 0},
	}
	for _, tt := range tests {
		if got := WorkgroupCount(tt.count, tt.size); got != tt.want {
			t.Errorf("WorkgroupCount(%d, %d) = %d; want %d", tt.count, tt.size, got, tt.want)
		}
	}
}

func TestParity(t *testing.T) {
	for n := uint64(0); n < 8; n++ {
		p := ParityOf(n)
		if p.ReadSlot() == p.WriteSlot() {
			t.Fatalf("frame %d reads and writes slot %d", n, p.ReadSlot())
		}
		if want := int(n % 2); p.ReadSlot() != want {
			t.Errorf("frame %d ReadSlot = %d; want %d", n, p.ReadSlot(), want)
		}
		// the next frame reads what this one wrote
		if got := ParityOf(n + 1).ReadSlot(); got != p.WriteSlot() {
			t.Errorf("frame %d reads slot %d; frame %d wrote slot %d", n+1, got, n, p.WriteSlot())
		}
		if p.Next() != ParityOf(n+1) {
			t.Errorf("ParityOf(%d).Next() = %d; want %d", n, p.Next(), ParityOf(n+1))
		}
	}
}

func TestAgentStore(t *testing.T) {
	dev := soft.New(shaders.SoftKernels())
	params, err := NewParamChannel(dev, boid.DefaultParams())
	if err != nil {
		t.Fatalf("NewParamChannel: %v", err)
	}
	agents := boid.NewPopulation(boid.NewRand(42), 100)

	t.Run("BindGroupsNeverAlias", func(t *testing.T) {
		s, err := NewAgentStore(dev, agents, params.Buffer())
		if err != nil {
			t.Fatalf("NewAgentStore: %v", err)
		}
		defer s.Release()
		for _, p := range []Parity{0, 1} {
			g := s.BindGroupFor(p).(*soft.BindGroup)
			in := g.Buffer(shaders.BindingAgentsIn)
			out := g.Buffer(shaders.BindingAgentsOut)
			if in == out {
				t.Errorf("parity %d binds %s for both input and output", p, in.Label())
			}
			if in.Label() != SlotLabel(p.ReadSlot()) || out.Label() != SlotLabel(p.WriteSlot()) {
				t.Errorf("parity %d binds in=%s out=%s; want in=%s out=%s",
					p, in.Label(), out.Label(), SlotLabel(p.ReadSlot()), SlotLabel(p.WriteSlot()))
			}
		}
		want := string(boid.Encode(agents))
		for i := 0; i < SlotCount; i++ {
			if got := string(s.Slot(i).(*soft.Buffer).Bytes()); got != want {
				t.Errorf("slot %d does not hold the initial population", i)
			}
		}
		if s.Count() != len(agents) {
			t.Errorf("Count = %d; want %d", s.Count(), len(agents))
		}
	})

	t.Run("Empty", func(t *testing.T) {
		if _, err := NewAgentStore(dev, nil, params.Buffer()); err == nil {
			t.Error("NewAgentStore with no agents should fail")
		}
	})

	t.Run("AllocationFailure", func(t *testing.T) {
		boom := errors.New("boom")
		dev.FailNextAllocation(boom)
		_, err := NewAgentStore(dev, agents, params.Buffer())
		if !errors.Is(err, boom) {
			t.Errorf("NewAgentStore error = %v; want %v", err, boom)
		}
	})
}

func TestDriver_SlotsAlternate(t *testing.T) {
	h := newHarness(t, 100)
	h.dev.ResetTrace()
	const frames = 6
	for i := 0; i < frames; i++ {
		h.step(t)
	}

	dispatches := ops(h.dev.Trace(), func(c soft.Command) bool { return c.Op == soft.OpDispatch })
	draws := ops(h.dev.Trace(), func(c soft.Command) bool { return c.Op == soft.OpDraw })
	if len(dispatches) != frames || len(draws) != frames {
		t.Fatalf("got %d dispatches and %d draws; want %d of each", len(dispatches), len(draws), frames)
	}
	for n := 0; n < frames; n++ {
		p := ParityOf(uint64(n))
		if want := BindGroupLabel(p); dispatches[n].Label != want {
			t.Errorf("frame %d dispatched with %s; want %s", n, dispatches[n].Label, want)
		}
		if want := SlotLabel(p.WriteSlot()); draws[n].Slot != want {
			t.Errorf("frame %d drew %s; want the written %s", n, draws[n].Slot, want)
		}
	}
	if h.driver.FrameIndex() != frames {
		t.Errorf("FrameIndex = %d; want %d", h.driver.FrameIndex(), frames)
	}
}

func TestDriver_SubmissionOrder(t *testing.T) {
	h := newHarness(t, 64)
	h.dev.ResetTrace()
	for i := 0; i < 4; i++ {
		h.step(t)
	}

	isParams := func(c soft.Command) bool { return c.Op == soft.OpWriteBuffer && c.Label == "params uniform" }
	seq := ops(h.dev.Trace(), func(c soft.Command) bool {
		return isParams(c) || c.Op == soft.OpDispatch || c.Op == soft.OpDraw || c.Op == soft.OpPresent
	})
	want := []soft.Op{soft.OpWriteBuffer, soft.OpDispatch, soft.OpDraw, soft.OpPresent}
	if len(seq) != 4*len(want) {
		t.Fatalf("trace has %d relevant commands; want %d: %v", len(seq), 4*len(want), seq)
	}
	for i, c := range seq {
		if c.Op != want[i%len(want)] {
			t.Errorf("command %d = %v; want %v", i, c, want[i%len(want)])
		}
	}
}

func TestDriver_WorkgroupsFixedAtInit(t *testing.T) {
	h := newHarness(t, 1000)
	if got := h.driver.Workgroups(); got != 16 {
		t.Fatalf("Workgroups = %d; want 16", got)
	}
	h.dev.ResetTrace()
	for i := 0; i < 3; i++ {
		h.step(t)
	}
	for _, c := range ops(h.dev.Trace(), func(c soft.Command) bool { return c.Op == soft.OpDispatch }) {
		if c.Count != 16 {
			t.Errorf("dispatch %v; want 16 workgroups", c)
		}
	}
}

// Both slots start from the same population, so an agent the dispatch skips
// stays equal to its input.
func TestDriver_EveryAgentStepped(t *testing.T) {
	for _, count := range []int{1, 63, 1000, 4097} {
		t.Run(fmt.Sprint(count), func(t *testing.T) {
			h := newHarness(t, count)
			in, err := boid.Decode(slotBytes(t, h.driver, 0))
			if err != nil {
				t.Fatal(err)
			}
			h.step(t)
			out, err := boid.Decode(slotBytes(t, h.driver, 1))
			if err != nil {
				t.Fatal(err)
			}
			stale := 0
			for i := range in {
				if out[i] == in[i] {
					stale++
				}
			}
			if stale != 0 {
				t.Errorf("workgroups = %d, agents not written by the first dispatch: %d of %d; want 0",
					h.driver.Workgroups(), stale, count)
			}
		})
	}
}

func TestDriver_EndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("runs 100 frames of 1000 agents on the CPU")
	}
	const count, frames = 1000, 100
	h := newHarness(t, count)

	for i := 0; i < frames; i++ {
		if res := h.step(t); res != FramePresented {
			t.Fatalf("frame %d = %v; want presented", i, res)
		}
		for slot := 0; slot < SlotCount; slot++ {
			agents, err := boid.Decode(slotBytes(t, h.driver, slot))
			if err != nil {
				t.Fatalf("frame %d slot %d: %v", i, slot, err)
			}
			if len(agents) != count {
				t.Fatalf("frame %d slot %d holds %d agents; want %d", i, slot, len(agents), count)
			}
			for j, a := range agents {
				if !a.IsFinite() {
					t.Fatalf("frame %d slot %d agent %d = %v; want finite", i, slot, j, a)
				}
			}
		}
	}
	if err := h.dev.Err(); err != nil {
		t.Fatalf("device error: %v", err)
	}
	if _, presents := h.surface.Presented(); presents != frames {
		t.Errorf("presents = %d; want %d", presents, frames)
	}
	if got := uploadedParams(t, h.driver).DeltaTime; got != float32(frameDelta.Seconds())*h.setup.Params.StepMult {
		t.Errorf("last DeltaTime = %v; want %v", got, float32(frameDelta.Seconds())*h.setup.Params.StepMult)
	}
}

func TestDriver_PresentedImage(t *testing.T) {
	h := newHarness(t, 50)
	h.step(t)

	img, presents := h.surface.Presented()
	if presents != 1 {
		t.Fatalf("presents = %d; want 1", presents)
	}
	if img.Clear != h.setup.ClearColor {
		t.Errorf("Clear = %v; want %v", img.Clear, h.setup.ClearColor)
	}
	if len(img.Draws) != 1 {
		t.Fatalf("draws = %d; want 1", len(img.Draws))
	}
	call := img.Draws[0]
	if call.InstanceCount != 50 || call.IndexCount != 6 {
		t.Errorf("draw instances=%d indices=%d; want 50 and 6", call.InstanceCount, call.IndexCount)
	}
	if string(call.Instances) != string(slotBytes(t, h.driver, ParityOf(0).WriteSlot())) {
		t.Error("draw did not read the slot written this frame")
	}
	if string(call.Instances) == string(boid.Encode(h.setup.Agents)) {
		t.Error("draw shows the initial population; want the simulated one")
	}
}

func TestDriver_DeltaTime(t *testing.T) {
	stepMult := boid.DefaultParams().StepMult

	t.Run("MeasuredGap", func(t *testing.T) {
		h := newHarness(t, 8)
		h.clock.Advance(20 * time.Millisecond)
		if _, err := h.driver.Frame(h.cam, false); err != nil {
			t.Fatal(err)
		}
		if got, want := uploadedParams(t, h.driver).DeltaTime, float32(0.02)*stepMult; got != want {
			t.Errorf("DeltaTime = %v; want %v", got, want)
		}
		// no time passes: the gap is not reused
		if _, err := h.driver.Frame(h.cam, false); err != nil {
			t.Fatal(err)
		}
		if got := uploadedParams(t, h.driver).DeltaTime; got != 0 {
			t.Errorf("DeltaTime after no elapsed time = %v; want 0", got)
		}
	})

	t.Run("ClockRollback", func(t *testing.T) {
		h := newHarness(t, 8)
		h.clock.Set(h.clock.Now().Add(-time.Second))
		if _, err := h.driver.Frame(h.cam, false); err != nil {
			t.Fatal(err)
		}
		if got := uploadedParams(t, h.driver).DeltaTime; got != 0 {
			t.Errorf("DeltaTime after rollback = %v; want 0", got)
		}
	})

	t.Run("UnclampedByDefault", func(t *testing.T) {
		h := newHarness(t, 8)
		h.clock.Advance(5 * time.Second)
		if _, err := h.driver.Frame(h.cam, false); err != nil {
			t.Fatal(err)
		}
		if got, want := uploadedParams(t, h.driver).DeltaTime, float32(5)*stepMult; got != want {
			t.Errorf("DeltaTime = %v; want %v", got, want)
		}
	})

	t.Run("MaxDelta", func(t *testing.T) {
		h := newHarness(t, 8)
		h.driver.maxDelta = 100 * time.Millisecond
		h.clock.Advance(5 * time.Second)
		if _, err := h.driver.Frame(h.cam, false); err != nil {
			t.Fatal(err)
		}
		if got, want := uploadedParams(t, h.driver).DeltaTime, float32(0.1)*stepMult; got != want {
			t.Errorf("DeltaTime = %v; want %v", got, want)
		}
	})
}

func TestDriver_Resize(t *testing.T) {
	tests := []struct {
		name          string
		width, height uint32
		want          bool
	}{
		{"ZeroWidth", 0, 600, false},
		{"ZeroHeight", 800, 0, false},
		{"BothZero", 0, 0, false},
		{"Grow", 1600, 1200, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, 8)
			before := h.driver.CameraUniform()
			h.dev.ResetTrace()

			got, err := h.driver.Resize(tt.width, tt.height)
			if err != nil {
				t.Fatalf("Resize: %v", err)
			}
			if got != tt.want {
				t.Fatalf("Resize(%d, %d) = %v; want %v", tt.width, tt.height, got, tt.want)
			}
			configures := ops(h.dev.Trace(), func(c soft.Command) bool { return c.Op == soft.OpConfigure })
			if !tt.want {
				if len(configures) != 0 {
					t.Errorf("degenerate resize configured the surface: %v", configures)
				}
				h.step(t)
				if h.driver.CameraUniform() != before {
					t.Errorf("camera uniform changed to %v; want %v", h.driver.CameraUniform(), before)
				}
				return
			}
			if len(configures) != 1 || configures[0].Count != tt.width {
				t.Fatalf("configures = %v; want one at width %d", configures, tt.width)
			}
			h.step(t)
			want, _ := h.cam.UniformFor(tt.width, tt.height)
			if got := h.driver.CameraUniform(); !got.Scale.Eq(want.Scale) {
				t.Errorf("camera scale = %v; want %v", got.Scale, want.Scale)
			}
		})
	}
}

func TestDriver_CameraUpload(t *testing.T) {
	h := newHarness(t, 8)
	isCamera := func(c soft.Command) bool { return c.Op == soft.OpWriteBuffer && c.Label == "camera uniform" }

	h.dev.ResetTrace()
	h.step(t)
	if n := len(ops(h.dev.Trace(), isCamera)); n != 0 {
		t.Errorf("unchanged camera uploaded %d times; want 0", n)
	}

	h.dev.ResetTrace()
	h.cam.Origin.X = 3
	h.clock.Advance(frameDelta)
	if _, err := h.driver.Frame(h.cam, true); err != nil {
		t.Fatal(err)
	}
	trace := h.dev.Trace()
	camAt, drawAt := -1, -1
	for i, c := range trace {
		if isCamera(c) && camAt < 0 {
			camAt = i
		}
		if c.Op == soft.OpDraw && drawAt < 0 {
			drawAt = i
		}
	}
	if camAt < 0 || camAt > drawAt {
		t.Fatalf("camera upload at %d, draw at %d; want the upload first", camAt, drawAt)
	}
	img, _ := h.surface.Presented()
	if got := camera.UnmarshalUniform(img.Draws[0].Uniform).Origin.X; got != 3 {
		t.Errorf("drawn camera origin.x = %v; want 3", got)
	}
}

func TestDriver_SurfaceErrors(t *testing.T) {
	tests := []struct {
		err        error
		want       FrameResult
		fatal      bool
		configures int
	}{
		{gpu.ErrSurfaceLost, FrameReconfigured, false, 1},
		{gpu.ErrSurfaceOutdated, FrameSkipped, false, 0},
		{gpu.ErrSurfaceTimeout, FrameSkipped, false, 0},
		{errors.New("driver hiccup"), FrameSkipped, false, 0},
		{gpu.ErrOutOfMemory, FrameFailed, true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			h := newHarness(t, 16)
			h.dev.ResetTrace()
			h.surface.FailNext(tt.err)
			h.clock.Advance(frameDelta)

			got, err := h.driver.Frame(h.cam, false)
			if got != tt.want {
				t.Errorf("Frame = %v; want %v", got, tt.want)
			}
			if tt.fatal != (err != nil) {
				t.Fatalf("Frame error = %v; want fatal=%v", err, tt.fatal)
			}
			if tt.fatal && !errors.Is(err, tt.err) {
				t.Errorf("Frame error = %v; want it to wrap %v", err, tt.err)
			}
			if h.driver.State() != StateIdle {
				t.Errorf("State = %v; want idle", h.driver.State())
			}
			// the compute pass ran, so the frame counts
			if h.driver.FrameIndex() != 1 {
				t.Errorf("FrameIndex = %d; want 1", h.driver.FrameIndex())
			}
			trace := h.dev.Trace()
			if n := len(ops(trace, func(c soft.Command) bool { return c.Op == soft.OpConfigure })); n != tt.configures {
				t.Errorf("configures = %d; want %d", n, tt.configures)
			}
			if n := len(ops(trace, func(c soft.Command) bool { return c.Op == soft.OpDraw })); n != 0 {
				t.Errorf("draws = %d; want 0", n)
			}
			if tt.fatal {
				return
			}

			// the next frame presents and draws the slot its own compute pass wrote
			h.dev.ResetTrace()
			if res := h.step(t); res != FramePresented {
				t.Fatalf("recovery frame = %v; want presented", res)
			}
			draws := ops(h.dev.Trace(), func(c soft.Command) bool { return c.Op == soft.OpDraw })
			if want := SlotLabel(ParityOf(1).WriteSlot()); len(draws) != 1 || draws[0].Slot != want {
				t.Errorf("recovery draws = %v; want one from %s", draws, want)
			}
		})
	}
}

type countingPacer struct{ calls int }

func (p *countingPacer) AfterPresent() { p.calls++ }

func TestDriver_PacingAndObservers(t *testing.T) {
	pacer := &countingPacer{}
	var reports []FrameReport
	h := newHarness(t, 16,
		WithPacer(pacer),
		WithObserver(ObserverFunc(func(r FrameReport) { reports = append(reports, r) })),
	)

	h.step(t)
	h.surface.FailNext(gpu.ErrSurfaceTimeout)
	h.step(t)
	h.step(t)

	if pacer.calls != 2 {
		t.Errorf("pacer calls = %d; want 2 (skipped frames are not paced)", pacer.calls)
	}
	want := []FrameResult{FramePresented, FrameSkipped, FramePresented}
	if len(reports) != len(want) {
		t.Fatalf("reports = %d; want %d", len(reports), len(want))
	}
	for i, r := range reports {
		if r.Result != want[i] {
			t.Errorf("report %d result = %v; want %v", i, r.Result, want[i])
		}
		if r.Index != uint64(i+1) || r.Parity != ParityOf(uint64(i)) {
			t.Errorf("report %d = %+v; want index %d parity %d", i, r, i+1, ParityOf(uint64(i)))
		}
		if r.Delta != frameDelta || r.Agents != 16 {
			t.Errorf("report %d = %+v; want delta %v and 16 agents", i, r, frameDelta)
		}
	}
}

func TestFrameSteps_OutsideRecorder(t *testing.T) {
	if _, err := (ComputeFrame{}).Upload(boid.Uniforms{}, nil); !errors.Is(err, errStaleStep) {
		t.Errorf("ComputeFrame{}.Upload error = %v; want %v", err, errStaleStep)
	}
	if _, err := (ParamsReady{}).Dispatch(); !errors.Is(err, errStaleStep) {
		t.Errorf("ParamsReady{}.Dispatch error = %v; want %v", err, errStaleStep)
	}
	if _, err := (RenderFrame{}).Draw(nil); !errors.Is(err, errStaleStep) {
		t.Errorf("RenderFrame{}.Draw error = %v; want %v", err, errStaleStep)
	}
	if err := (DrawnFrame{}).Present(); !errors.Is(err, errStaleStep) {
		t.Errorf("DrawnFrame{}.Present error = %v; want %v", err, errStaleStep)
	}
}

func TestNewDriver_Errors(t *testing.T) {
	base := Setup{
		Agents: boid.NewPopulation(boid.NewRand(1), 4),
		Params: boid.DefaultParams(),
		Camera: camera.New(camera.DefaultBaseScale),
		Width:  640,
		Height: 480,
	}
	tests := []struct {
		name   string
		mutate func(*Setup)
		dev    func() *soft.Device
	}{
		{"ZeroViewport", func(s *Setup) { s.Width = 0 }, func() *soft.Device { return soft.New(shaders.SoftKernels()) }},
		{"NoAgents", func(s *Setup) { s.Agents = nil }, func() *soft.Device { return soft.New(shaders.SoftKernels()) }},
		{"NoKernel", func(*Setup) {}, func() *soft.Device { return soft.New(nil) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setup := base
			tt.mutate(&setup)
			dev := tt.dev()
			d, err := NewDriver(dev, dev.NewSurface("s"), setup)
			if err == nil {
				t.Errorf("NewDriver succeeded; want an error")
			}
			if d != nil {
				t.Errorf("NewDriver returned a driver alongside error %v", err)
			}
		})
	}
}

func TestNewPacer(t *testing.T) {
	if _, ok := NewPacer("present", 0).(PresentPacer); !ok {
		t.Error(`NewPacer("present") is not a PresentPacer`)
	}
	p, ok := NewPacer("sleep", 0).(SleepPacer)
	if !ok || p.Interval != DefaultFrameInterval {
		t.Errorf(`NewPacer("sleep", 0) = %v; want SleepPacer{%v}`, p, DefaultFrameInterval)
	}
	if p := NewPacer("", 5*time.Millisecond).(SleepPacer); p.Interval != 5*time.Millisecond {
		t.Errorf("interval = %v; want 5ms", p.Interval)
	}
}

func TestManualClock(t *testing.T) {
	start := time.Unix(0, 0)
	c := NewManualClock(start)
	c.Advance(time.Second)
	if got := c.Now().Sub(start); got != time.Second {
		t.Errorf("after Advance = %v; want 1s", got)
	}
	c.Set(start)
	if !c.Now().Equal(start) {
		t.Errorf("after Set = %v; want %v", c.Now(), start)
	}
}

func TestStateString(t *testing.T) {
	for s, want := range map[State]string{
		StateIdle:           "idle",
		StateComputePending: "compute-pending",
		StateRenderPending:  "render-pending",
		StatePresented:      "presented",
	} {
		if got := s.String(); got != want {
			t.Errorf("%d.String() = %q; want %q", int(s), got, want)
		}
	}
	if got := FrameResult(9).String(); got != fmt.Sprintf("FrameResult(%d)", 9) {
		t.Errorf("FrameResult(9).String() = %q", got)
	}
}

func BenchmarkFrame(b *testing.B) {
	dev := soft.New(shaders.SoftKernels())
	clock := NewManualClock(time.Unix(0, 0))
	d, err := NewDriver(dev, dev.NewSurface("bench"), Setup{
		Agents: boid.NewPopulation(boid.NewRand(42), 256),
		Params: boid.DefaultParams(),
		Camera: camera.New(camera.DefaultBaseScale),
		Width:  800,
		Height: 600,
	}, WithClock(clock), WithPacer(PresentPacer{}))
	if err != nil {
		b.Fatal(err)
	}
	defer d.Release()
	cam := camera.New(camera.DefaultBaseScale)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		clock.Advance(frameDelta)
		if _, err := d.Frame(cam, false); err != nil {
			b.Fatal(err)
		}
	}
}
