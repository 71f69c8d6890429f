// Command preview runs the boids engine on the software device inside an ebiten window.
// It needs no GPU, which makes it handy for checking a configuration.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	golog "github.com/tochemey/goakt/v3/log"

	"github.com/lao-tseu-is-alive/go-gpu-boids/internal/config"
	"github.com/lao-tseu-is-alive/go-gpu-boids/internal/engine"
	"github.com/lao-tseu-is-alive/go-gpu-boids/internal/gpu/soft"
	"github.com/lao-tseu-is-alive/go-gpu-boids/internal/preview"
	"github.com/lao-tseu-is-alive/go-gpu-boids/internal/shaders"
	"github.com/lao-tseu-is-alive/go-gpu-boids/internal/telemetry"
)

func main() {
	configFile := flag.String("config", "", "JSON configuration file (defaults apply when empty)")
	schemaFile := flag.String("schema", "", "JSON schema to validate against instead of the embedded one")
	agents := flag.Int("agents", 0, "override the agent count")
	flag.Parse()

	cfg := config.DefaultConfig()
	if *configFile != "" {
		var err error
		if cfg, err = config.LoadConfig(*configFile, *schemaFile); err != nil {
			log.Fatalf("loading config: %v", err)
		}
	}
	if *agents > 0 {
		cfg.AgentCount = *agents
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	logger := golog.New(cfg.Level(), os.Stdout)

	dev := soft.New(shaders.SoftKernels())
	surface := dev.NewSurface("preview")
	setup := cfg.Setup(uint32(cfg.Window.Width), uint32(cfg.Window.Height))

	// ebiten already ticks at a fixed rate, so the driver must not sleep as well
	opts := []engine.Option{
		engine.WithPacer(engine.PresentPacer{}),
		engine.WithLogger(logger),
		engine.WithObserver(telemetry.FrameMetrics{}),
	}
	reporter, err := telemetry.StartReporter(ctx, logger, telemetry.NewMonitor(telemetry.DefaultWindow, engine.SystemClock{}, nil))
	if err != nil {
		log.Fatalf("starting telemetry: %v", err)
	}
	defer func() { _ = reporter.Stop(ctx) }()
	opts = append(opts, engine.WithObserver(reporter))

	if cfg.MetricsAddr != "" {
		go telemetry.Serve(ctx, telemetry.NewServer(cfg.MetricsAddr), logger)
	}

	driver, err := engine.NewDriver(dev, surface, setup, opts...)
	if err != nil {
		log.Fatalf("creating engine: %v", err)
	}
	defer driver.Release()

	ebiten.SetWindowSize(cfg.Window.Width, cfg.Window.Height)
	ebiten.SetWindowTitle(cfg.Window.Title + " (preview)")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	game := preview.NewGame(driver, surface, setup.Camera, cfg.Controller(), cfg.Window.Width, cfg.Window.Height)
	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
