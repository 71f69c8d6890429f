package main

import (
	"testing"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/lao-tseu-is-alive/go-gpu-boids/internal/config"
	"github.com/lao-tseu-is-alive/go-gpu-boids/pkg/camera"
)

func TestApplyKey(t *testing.T) {
	tests := []struct {
		name   string
		key    glfw.Key
		events []glfw.Action
		want   camera.Key
		held   bool
	}{
		{"PressW", glfw.KeyW, []glfw.Action{glfw.Press}, camera.KeyUp, true},
		{"ArrowDown", glfw.KeyDown, []glfw.Action{glfw.Press}, camera.KeyDown, true},
		{"Released", glfw.KeyA, []glfw.Action{glfw.Press, glfw.Release}, camera.KeyLeft, false},
		{"RepeatHolds", glfw.KeyD, []glfw.Action{glfw.Press, glfw.Repeat}, camera.KeyRight, true},
		{"KeypadPlus", glfw.KeyKPAdd, []glfw.Action{glfw.Press}, camera.KeyZoomIn, true},
		{"Minus", glfw.KeyMinus, []glfw.Action{glfw.Press}, camera.KeyZoomOut, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := camera.NewController(camera.DefaultMoveSpeed, camera.DefaultZoomSpeed)
			for _, a := range tt.events {
				applyKey(ctrl, tt.key, a)
			}
			if got := ctrl.Pressed(tt.want); got != tt.held {
				t.Errorf("Pressed(%v) = %v; want %v", tt.want, got, tt.held)
			}
		})
	}
}

func TestApplyKey_Unmapped(t *testing.T) {
	ctrl := camera.NewController(camera.DefaultMoveSpeed, camera.DefaultZoomSpeed)
	applyKey(ctrl, glfw.KeyQ, glfw.Press)
	cam := camera.New(camera.DefaultBaseScale)
	if ctrl.Update(&cam) {
		t.Error("an unmapped key moved the camera")
	}
}

func TestOptions_Apply(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		wantAgents  int
		wantSeed    uint64
		wantMetrics string
	}{
		{"NoFlagsKeepFile", nil, 500, 7, ":9464"},
		{"ZeroSeedOverrides", []string{"-seed", "0"}, 500, 0, ":9464"},
		{"SeedAndAgents", []string{"-seed=99", "-agents", "64"}, 64, 99, ":9464"},
		{"EmptyMetricsDisables", []string{"-metrics="}, 500, 7, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := parseFlags("boids", tt.args)
			if err != nil {
				t.Fatalf("parseFlags(%q): %v", tt.args, err)
			}
			cfg := config.DefaultConfig()
			cfg.AgentCount, cfg.Seed, cfg.MetricsAddr = 500, 7, ":9464"
			opts.apply(cfg)
			if cfg.AgentCount != tt.wantAgents || cfg.Seed != tt.wantSeed || cfg.MetricsAddr != tt.wantMetrics {
				t.Errorf("agents, seed, metrics = %d, %d, %q; want %d, %d, %q",
					cfg.AgentCount, cfg.Seed, cfg.MetricsAddr, tt.wantAgents, tt.wantSeed, tt.wantMetrics)
			}
		})
	}
}

func TestParseFlags_PresentMode(t *testing.T) {
	opts, err := parseFlags("boids", []string{"-present-mode", "mailbox", "-config", "boids.json"})
	if err != nil {
		t.Fatal(err)
	}
	if opts.presentMode != "mailbox" || opts.configFile != "boids.json" {
		t.Errorf("presentMode, config = %q, %q; want mailbox, boids.json", opts.presentMode, opts.configFile)
	}
	if _, err := parseFlags("boids", []string{"-seed", "-1"}); err == nil {
		t.Error("parseFlags(-seed -1) = nil error; want a parse error")
	}
}
