package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/goaktpb"
	golog "github.com/tochemey/goakt/v3/log"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/lao-tseu-is-alive/go-gpu-boids/internal/engine"
)

// DefaultWindow is how often the monitor logs the frame rate.
const DefaultWindow = time.Second

// Stats summarises one reporting window.
type Stats struct {
	Frames    int
	Skipped   int
	FPS       float64
	MeanFrame time.Duration
	Window    time.Duration
}

func (s Stats) String() string {
	return fmt.Sprintf("%.1f fps, mean frame %v, %d skipped", s.FPS, s.MeanFrame.Round(time.Microsecond), s.Skipped)
}

// Monitor is an actor that receives one message per frame: a durationpb.Duration
// (the frame delta) for presented frames and a wrapperspb.StringValue (the result)
// for the others. Once per window it logs the frame rate and, when out is set,
// pushes the Stats to it without blocking.
type Monitor struct {
	window time.Duration
	clock  engine.Clock
	out    chan<- Stats

	start   time.Time
	frames  int
	skipped int
	total   time.Duration
}

var _ actor.Actor = (*Monitor)(nil)

func NewMonitor(window time.Duration, clock engine.Clock, out chan<- Stats) *Monitor {
	if window <= 0 {
		window = DefaultWindow
	}
	if clock == nil {
		clock = engine.SystemClock{}
	}
	return &Monitor{window: window, clock: clock, out: out}
}

func (m *Monitor) PreStart(ctx *actor.Context) error {
	m.start = m.clock.Now()
	return nil
}

func (m *Monitor) Receive(ctx *actor.ReceiveContext) {
	switch msg := ctx.Message().(type) {
	case *goaktpb.PostStart:
		ctx.Logger().Infof("%s started, reporting every %v", ctx.Self().Name(), m.window)
	case *durationpb.Duration:
		m.frames++
		m.total += msg.AsDuration()
		m.flush(ctx)
	case *wrapperspb.StringValue:
		m.skipped++
		ctx.Logger().Debugf("frame not presented: %s", msg.GetValue())
		m.flush(ctx)
	default:
		ctx.Unhandled()
	}
}

func (m *Monitor) flush(ctx *actor.ReceiveContext) {
	now := m.clock.Now()
	elapsed := now.Sub(m.start)
	if elapsed < m.window {
		return
	}
	s := Stats{
		Frames:  m.frames,
		Skipped: m.skipped,
		FPS:     float64(m.frames) / elapsed.Seconds(),
		Window:  elapsed,
	}
	if m.frames > 0 {
		s.MeanFrame = m.total / time.Duration(m.frames)
	}
	ctx.Logger().Infof("%s", s)
	if m.out != nil {
		select {
		case m.out <- s:
		default:
		}
	}
	m.start, m.frames, m.skipped, m.total = now, 0, 0, 0
}

func (m *Monitor) PostStop(ctx *actor.Context) error {
	ctx.ActorSystem().Logger().Infof("%s stopped", ctx.ActorName())
	return nil
}

// Reporter owns the actor system hosting a Monitor and forwards frame reports to it.
type Reporter struct {
	ctx    context.Context
	system actor.ActorSystem
	pid    *actor.PID
}

var _ engine.Observer = (*Reporter)(nil)

// StartReporter starts an actor system named "BoidsTelemetry" and spawns m in it.
func StartReporter(ctx context.Context, logger golog.Logger, m *Monitor) (*Reporter, error) {
	system, err := actor.NewActorSystem("BoidsTelemetry",
		actor.WithLogger(logger),
		actor.WithActorInitMaxRetries(3))
	if err != nil {
		return nil, fmt.Errorf("creating actor system: %w", err)
	}
	if err := system.Start(ctx); err != nil {
		return nil, fmt.Errorf("starting actor system: %w", err)
	}
	pid, err := system.Spawn(ctx, "frame-monitor", m)
	if err != nil {
		_ = system.Stop(ctx)
		return nil, fmt.Errorf("spawning frame monitor: %w", err)
	}
	return &Reporter{ctx: ctx, system: system, pid: pid}, nil
}

// ObserveFrame sends the report to the monitor. Tell does not wait for the actor.
func (r *Reporter) ObserveFrame(rep engine.FrameReport) {
	if rep.Result == engine.FramePresented {
		_ = actor.Tell(r.ctx, r.pid, durationpb.New(rep.Delta))
		return
	}
	_ = actor.Tell(r.ctx, r.pid, wrapperspb.String(rep.Result.String()))
}

// Stop shuts the actor system down.
func (r *Reporter) Stop(ctx context.Context) error {
	return r.system.Stop(ctx)
}
