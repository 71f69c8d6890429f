// Command boids runs the GPU flocking simulation in a GLFW window through wgpu.
//
// Environment:
//
//	WGPU_LOG_LEVEL=OFF|ERROR|WARN|INFO|DEBUG|TRACE   wgpu-native log verbosity
//	WGPU_FORCE_FALLBACK_ADAPTER=1                    use the software adapter
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
	golog "github.com/tochemey/goakt/v3/log"

	"github.com/lao-tseu-is-alive/go-gpu-boids/internal/config"
	"github.com/lao-tseu-is-alive/go-gpu-boids/internal/engine"
	"github.com/lao-tseu-is-alive/go-gpu-boids/internal/gpu/wgpudev"
	"github.com/lao-tseu-is-alive/go-gpu-boids/internal/telemetry"
	"github.com/lao-tseu-is-alive/go-gpu-boids/pkg/camera"
)

func init() {
	// GLFW and the surface must stay on the main thread.
	runtime.LockOSThread()
	wgpudev.SetLogLevel(os.Getenv("WGPU_LOG_LEVEL"))
}

var keyMap = map[glfw.Key]camera.Key{
	glfw.KeyW:          camera.KeyUp,
	glfw.KeyUp:         camera.KeyUp,
	glfw.KeyS:          camera.KeyDown,
	glfw.KeyDown:       camera.KeyDown,
	glfw.KeyA:          camera.KeyLeft,
	glfw.KeyLeft:       camera.KeyLeft,
	glfw.KeyD:          camera.KeyRight,
	glfw.KeyRight:      camera.KeyRight,
	glfw.KeyEqual:      camera.KeyZoomIn,
	glfw.KeyKPAdd:      camera.KeyZoomIn,
	glfw.KeyMinus:      camera.KeyZoomOut,
	glfw.KeyKPSubtract: camera.KeyZoomOut,
}

// applyKey feeds a GLFW key event to the controller. Repeats keep the key held.
func applyKey(ctrl *camera.Controller, key glfw.Key, action glfw.Action) {
	k, ok := keyMap[key]
	if !ok {
		return
	}
	switch action {
	case glfw.Press, glfw.Repeat:
		ctrl.SetKey(k, true)
	case glfw.Release:
		ctrl.SetKey(k, false)
	}
}

// options holds the command line. set names the flags given explicitly, so an
// explicit zero such as -seed 0 still overrides the config file.
type options struct {
	configFile  string
	schemaFile  string
	agents      int
	seed        uint64
	metrics     string
	presentMode string
	set         map[string]bool
}

func parseFlags(name string, args []string) (*options, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	o := &options{set: map[string]bool{}}
	fs.StringVar(&o.configFile, "config", "", "JSON configuration file (defaults apply when empty)")
	fs.StringVar(&o.schemaFile, "schema", "", "JSON schema to validate against instead of the embedded one")
	fs.IntVar(&o.agents, "agents", 0, "override the agent count")
	fs.Uint64Var(&o.seed, "seed", 0, "override the population seed")
	fs.StringVar(&o.metrics, "metrics", "", "override the Prometheus listen address, e.g. :9464; empty disables it")
	fs.StringVar(&o.presentMode, "present-mode", "fifo", "surface present mode: fifo, mailbox or immediate")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })
	return o, nil
}

// apply copies the overriding flags onto cfg.
func (o *options) apply(cfg *config.Config) {
	if o.set["agents"] {
		cfg.AgentCount = o.agents
	}
	if o.set["seed"] {
		cfg.Seed = o.seed
	}
	if o.set["metrics"] {
		cfg.MetricsAddr = o.metrics
	}
}

func main() {
	opts, err := parseFlags(os.Args[0], os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		os.Exit(2)
	}

	cfg := config.DefaultConfig()
	if opts.configFile != "" {
		if cfg, err = config.LoadConfig(opts.configFile, opts.schemaFile); err != nil {
			log.Fatalf("loading config: %v", err)
		}
	}
	opts.apply(cfg)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger := golog.New(cfg.Level(), os.Stdout)
	if err := run(cfg, opts.presentMode, logger); err != nil {
		logger.Fatalf("%v", err)
	}
}

func run(cfg *config.Config, presentMode string, logger golog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("initializing glfw: %w", err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	window, err := glfw.CreateWindow(cfg.Window.Width, cfg.Window.Height, cfg.Window.Title, nil, nil)
	if err != nil {
		return fmt.Errorf("creating window: %w", err)
	}
	defer window.Destroy()

	dev, surface, err := wgpudev.NewFromWindow(window, wgpudev.Options{
		ForceFallbackAdapter: os.Getenv("WGPU_FORCE_FALLBACK_ADAPTER") == "1",
		PresentMode:          presentMode,
	})
	if err != nil {
		return fmt.Errorf("initializing wgpu: %w", err)
	}
	defer dev.Release()
	defer surface.Release()

	reporter, err := telemetry.StartReporter(ctx, logger, telemetry.NewMonitor(telemetry.DefaultWindow, engine.SystemClock{}, nil))
	if err != nil {
		return fmt.Errorf("starting telemetry: %w", err)
	}
	defer func() { _ = reporter.Stop(ctx) }()
	if cfg.MetricsAddr != "" {
		go telemetry.Serve(ctx, telemetry.NewServer(cfg.MetricsAddr), logger)
	}

	width, height := window.GetFramebufferSize()
	setup := cfg.Setup(uint32(width), uint32(height))
	driver, err := engine.NewDriver(dev, surface, setup,
		engine.WithPacer(cfg.Pacer()),
		engine.WithLogger(logger),
		engine.WithObserver(telemetry.FrameMetrics{}),
		engine.WithObserver(reporter))
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}
	defer driver.Release()

	ctrl := cfg.Controller()
	cam := setup.Camera

	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			w.SetShouldClose(true)
			return
		}
		applyKey(ctrl, key, action)
	})
	var resizeErr error
	resize := func(width, height int) {
		if width < 0 || height < 0 {
			return
		}
		if _, err := driver.Resize(uint32(width), uint32(height)); err != nil {
			resizeErr = err
		}
	}
	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		resize(width, height)
	})
	// a DPI change can leave the window size alone but change the framebuffer
	window.SetContentScaleCallback(func(w *glfw.Window, x, y float32) {
		resize(w.GetFramebufferSize())
	})

	for !window.ShouldClose() {
		glfw.PollEvents()
		if resizeErr != nil {
			return fmt.Errorf("resizing surface: %w", resizeErr)
		}
		changed := ctrl.Update(&cam)
		if _, err := driver.Frame(cam, changed); err != nil {
			return fmt.Errorf("frame %d: %w", driver.FrameIndex(), err)
		}
	}
	logger.Infof("exiting after %d frames", driver.FrameIndex())
	return nil
}
