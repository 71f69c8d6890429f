// Package config loads the run configuration from JSON, validated against a JSON schema.
package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	golog "github.com/tochemey/goakt/v3/log"

	"github.com/lao-tseu-is-alive/go-gpu-boids/internal/engine"
	"github.com/lao-tseu-is-alive/go-gpu-boids/internal/gpu"
	"github.com/lao-tseu-is-alive/go-gpu-boids/pkg/boid"
	"github.com/lao-tseu-is-alive/go-gpu-boids/pkg/camera"
)

//go:embed config.schema.json
var schema string

// Schema returns the embedded configuration schema.
func Schema() string { return schema }

type Window struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Title  string `json:"title"`
}

type Camera struct {
	BaseScale float32 `json:"baseScale"` // pixels per world unit before dividing by the viewport
	MoveSpeed float32 `json:"moveSpeed"`
	ZoomSpeed float32 `json:"zoomSpeed"`
}

type Config struct {
	AgentCount int         `json:"agentCount"`
	Seed       uint64      `json:"seed"`
	Window     Window      `json:"window"`
	Simulation boid.Params `json:"simulation"`
	Camera     Camera      `json:"camera"`
	ClearColor [4]float64  `json:"clearColor"`

	Pacing          string  `json:"pacing"`          // "sleep" or "present"
	FrameIntervalMs int     `json:"frameIntervalMs"` // sleep after each present when pacing is "sleep"
	MaxDeltaTime    float64 `json:"maxDeltaTime"`    // seconds, 0 leaves the frame delta unclamped

	LogLevel    string `json:"logLevel"`
	MetricsAddr string `json:"metricsAddr"` // empty disables the metrics endpoint
}

func DefaultConfig() *Config {
	return &Config{
		AgentCount: 1000,
		Seed:       42,
		Window: Window{
			Width:  1280,
			Height: 720,
			Title:  "GPU Boids",
		},
		Simulation: boid.DefaultParams(),
		Camera: Camera{
			BaseScale: camera.DefaultBaseScale,
			MoveSpeed: camera.DefaultMoveSpeed,
			ZoomSpeed: camera.DefaultZoomSpeed,
		},
		ClearColor:      [4]float64{0, 0, 0, 1},
		Pacing:          "sleep",
		FrameIntervalMs: 16,
		LogLevel:        "info",
	}
}

// LoadConfig loads configuration from a JSON file and validates it against the schema.
// An empty schemaFile uses the embedded schema. Fields missing from the file keep
// their DefaultConfig value.
func LoadConfig(configFile string, schemaFile string) (*Config, error) {
	var (
		sch *jsonschema.Schema
		err error
	)
	if schemaFile == "" {
		sch, err = jsonschema.CompileString("config.schema.json", schema)
	} else {
		sch, err = jsonschema.Compile(schemaFile)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	b, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("failed to decode config json: %w", err)
	}
	if err := sch.Validate(v); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks the invariants the schema cannot see once flags have overridden file values.
func (c *Config) Validate() error {
	var errs []error
	if c.AgentCount <= 0 {
		errs = append(errs, fmt.Errorf("agentCount must be positive, got %d", c.AgentCount))
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window %dx%d has a zero dimension", c.Window.Width, c.Window.Height))
	}
	if c.Camera.BaseScale <= 0 {
		errs = append(errs, fmt.Errorf("camera baseScale must be positive, got %v", c.Camera.BaseScale))
	}
	if c.Camera.ZoomSpeed < 0 || c.Camera.ZoomSpeed >= 1 {
		errs = append(errs, fmt.Errorf("camera zoomSpeed must be in [0, 1), got %v", c.Camera.ZoomSpeed))
	}
	if c.Pacing != "sleep" && c.Pacing != "present" {
		errs = append(errs, fmt.Errorf("pacing must be sleep or present, got %q", c.Pacing))
	}
	if c.MaxDeltaTime < 0 {
		errs = append(errs, fmt.Errorf("maxDeltaTime must not be negative, got %v", c.MaxDeltaTime))
	}
	return errors.Join(errs...)
}

func (c *Config) FrameInterval() time.Duration {
	return time.Duration(c.FrameIntervalMs) * time.Millisecond
}

func (c *Config) MaxDelta() time.Duration {
	return time.Duration(c.MaxDeltaTime * float64(time.Second))
}

func (c *Config) Clear() gpu.Color {
	return gpu.Color{R: c.ClearColor[0], G: c.ClearColor[1], B: c.ClearColor[2], A: c.ClearColor[3]}
}

// Level maps LogLevel to the logger level, defaulting to info.
func (c *Config) Level() golog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return golog.DebugLevel
	case "warn", "warning":
		return golog.WarningLevel
	case "error":
		return golog.ErrorLevel
	}
	return golog.InfoLevel
}

// Setup seeds the population and returns the engine session for a viewport of
// width x height pixels.
func (c *Config) Setup(width, height uint32) engine.Setup {
	return engine.Setup{
		Agents:     boid.NewPopulation(boid.NewRand(c.Seed), c.AgentCount),
		Params:     c.Simulation,
		Camera:     camera.New(c.Camera.BaseScale),
		Width:      width,
		Height:     height,
		ClearColor: c.Clear(),
		MaxDelta:   c.MaxDelta(),
	}
}

// Controller returns a camera controller with the configured speeds.
func (c *Config) Controller() *camera.Controller {
	return camera.NewController(c.Camera.MoveSpeed, c.Camera.ZoomSpeed)
}

// Pacer returns the post-present pacing policy.
func (c *Config) Pacer() engine.Pacer {
	return engine.NewPacer(c.Pacing, c.FrameInterval())
}
