// Package shaders embeds the WGSL modules of the boids pipelines and pairs the
// compute entry point with its CPU implementation for the software device.
package shaders

import (
	_ "embed"

	"github.com/lao-tseu-is-alive/go-gpu-boids/internal/gpu/soft"
	"github.com/lao-tseu-is-alive/go-gpu-boids/pkg/boid"
)

//go:embed compute.wgsl
var Compute string

//go:embed draw.wgsl
var Draw string

// WorkgroupSize is the @workgroup_size of the Compute entry point. The dispatch
// size is derived from it, never from configuration.
const WorkgroupSize = boid.WorkgroupSize

// Entry points.
const (
	ComputeEntry  = "main"
	VertexEntry   = "vs_main"
	FragmentEntry = "fs_main"
)

// Binding numbers of the compute bind group.
const (
	BindingParams    = 0
	BindingAgentsIn  = 1
	BindingAgentsOut = 2
)

// BindingCamera is the render bind group's only binding.
const BindingCamera = 0

// SoftKernels returns the CPU kernels that stand in for Compute on the software device.
func SoftKernels() map[string]soft.Kernel {
	return map[string]soft.Kernel{
		ComputeEntry: {
			WorkgroupSize: WorkgroupSize,
			Run: func(bindings map[uint32][]byte, invocations uint32) error {
				return boid.Run(bindings[BindingParams], bindings[BindingAgentsIn], bindings[BindingAgentsOut], invocations)
			},
		},
	}
}
