package engine

import (
	"fmt"

	"github.com/lao-tseu-is-alive/go-gpu-boids/internal/gpu"
	"github.com/lao-tseu-is-alive/go-gpu-boids/internal/shaders"
	"github.com/lao-tseu-is-alive/go-gpu-boids/pkg/boid"
	"github.com/lao-tseu-is-alive/go-gpu-boids/pkg/camera"
)

// WorkgroupCount returns ceil(count / size).
func WorkgroupCount(count, size uint32) uint32 {
	if size == 0 {
		return 0
	}
	return (count + size - 1) / size
}

// SimulationStage records the single compute dispatch of a frame.
type SimulationStage struct {
	pipeline   gpu.ComputePipeline
	workgroups uint32
}

// NewSimulationStage builds the compute pipeline and fixes the workgroup count
// for the store's agent count, using the kernel's own workgroup size. The count
// is not recomputed afterwards.
func NewSimulationStage(dev gpu.Device, module gpu.ShaderModule, store *AgentStore) (*SimulationStage, error) {
	pipeline, err := dev.CreateComputePipeline(&gpu.ComputePipelineDescriptor{
		Label:      "boids compute pipeline",
		Layouts:    []gpu.BindGroupLayout{store.Layout()},
		Module:     module,
		EntryPoint: shaders.ComputeEntry,
	})
	if err != nil {
		return nil, fmt.Errorf("creating compute pipeline: %w", err)
	}
	return &SimulationStage{
		pipeline:   pipeline,
		workgroups: WorkgroupCount(uint32(store.Count()), shaders.WorkgroupSize),
	}, nil
}

// Workgroups is the dispatch size used every frame.
func (s *SimulationStage) Workgroups() uint32 { return s.workgroups }

func (s *SimulationStage) encode(enc gpu.CommandEncoder, group gpu.BindGroup) error {
	pass := enc.BeginComputePass("boids compute pass")
	pass.SetPipeline(s.pipeline)
	pass.SetBindGroup(0, group)
	pass.DispatchWorkgroups(s.workgroups, 1, 1)
	if err := pass.End(); err != nil {
		return fmt.Errorf("ending compute pass: %w", err)
	}
	return nil
}

func (s *SimulationStage) Release() {
	if s.pipeline != nil {
		s.pipeline.Release()
		s.pipeline = nil
	}
}

// RenderStage records the instanced draw of a frame: one mesh instance per agent,
// fed from the slot the compute pass just wrote.
type RenderStage struct {
	pipeline  gpu.RenderPipeline
	layout    gpu.BindGroupLayout
	group     gpu.BindGroup
	mesh      gpu.Buffer
	index     gpu.Buffer
	instances uint32
	clear     gpu.Color
}

// InstanceLayout is the per-agent vertex layout, matching boid.Agent.
var InstanceLayout = gpu.VertexBufferLayout{
	ArrayStride: boid.AgentSize,
	StepMode:    gpu.VertexStepModeInstance,
	Attributes: []gpu.VertexAttribute{
		{Format: gpu.VertexFormatFloat32x2, Offset: boid.PositionOffset, ShaderLocation: 0},
		{Format: gpu.VertexFormatFloat32x2, Offset: boid.VelocityOffset, ShaderLocation: 1},
		{Format: gpu.VertexFormatFloat32x3, Offset: boid.ColorOffset, ShaderLocation: 2},
	},
}

// MeshLayout is the per-vertex layout of the shared mesh.
var MeshLayout = gpu.VertexBufferLayout{
	ArrayStride: boid.MeshVertexStride,
	StepMode:    gpu.VertexStepModeVertex,
	Attributes: []gpu.VertexAttribute{
		{Format: gpu.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 3},
	},
}

// NewRenderStage builds the render pipeline for format, the mesh buffers and the
// camera bind group.
func NewRenderStage(dev gpu.Device, module gpu.ShaderModule, format gpu.TextureFormat, store *AgentStore, cam *CameraChannel, clear gpu.Color) (r *RenderStage, err error) {
	r = &RenderStage{instances: uint32(store.Count()), clear: clear}
	defer func() {
		if err != nil {
			r.Release()
			r = nil
		}
	}()

	r.layout, err = dev.CreateBindGroupLayout(&gpu.BindGroupLayoutDescriptor{
		Label: "camera bind group layout",
		Entries: []gpu.BindGroupLayoutEntry{
			{Binding: shaders.BindingCamera, Visibility: gpu.ShaderStageVertex, Type: gpu.BindingUniform, MinBindingSize: camera.UniformSize},
		},
	})
	if err != nil {
		return r, fmt.Errorf("creating camera bind group layout: %w", err)
	}
	r.group, err = dev.CreateBindGroup(&gpu.BindGroupDescriptor{
		Label:   "camera bind group",
		Layout:  r.layout,
		Entries: []gpu.BindGroupEntry{{Binding: shaders.BindingCamera, Buffer: cam.Buffer()}},
	})
	if err != nil {
		return r, fmt.Errorf("creating camera bind group: %w", err)
	}

	r.mesh, err = dev.CreateBuffer(&gpu.BufferDescriptor{
		Label:    "mesh vertices",
		Contents: boid.MeshVertexBytes(),
		Usage:    gpu.BufferUsageVertex | gpu.BufferUsageCopyDst,
	})
	if err != nil {
		return r, fmt.Errorf("creating mesh vertex buffer: %w", err)
	}
	r.index, err = dev.CreateBuffer(&gpu.BufferDescriptor{
		Label:    "mesh indices",
		Contents: boid.MeshIndexBytes(),
		Usage:    gpu.BufferUsageIndex | gpu.BufferUsageCopyDst,
	})
	if err != nil {
		return r, fmt.Errorf("creating mesh index buffer: %w", err)
	}

	r.pipeline, err = dev.CreateRenderPipeline(&gpu.RenderPipelineDescriptor{
		Label:              "boids render pipeline",
		Layouts:            []gpu.BindGroupLayout{r.layout},
		Module:             module,
		VertexEntryPoint:   shaders.VertexEntry,
		FragmentEntryPoint: shaders.FragmentEntry,
		Buffers:            []gpu.VertexBufferLayout{InstanceLayout, MeshLayout},
		TargetFormat:       format,
	})
	if err != nil {
		return r, fmt.Errorf("creating render pipeline: %w", err)
	}
	return r, nil
}

func (r *RenderStage) encode(enc gpu.CommandEncoder, view gpu.TextureView, instances gpu.Buffer) error {
	pass := enc.BeginRenderPass(&gpu.RenderPassDescriptor{
		Label:      "boids render pass",
		Target:     view,
		ClearColor: r.clear,
	})
	pass.SetPipeline(r.pipeline)
	pass.SetBindGroup(0, r.group)
	pass.SetVertexBuffer(0, instances)
	pass.SetVertexBuffer(1, r.mesh)
	pass.SetIndexBuffer(r.index, gpu.IndexFormatUint16)
	pass.DrawIndexed(uint32(len(boid.MeshIndices)), r.instances)
	if err := pass.End(); err != nil {
		return fmt.Errorf("ending render pass: %w", err)
	}
	return nil
}

func (r *RenderStage) Release() {
	for _, res := range []gpu.Releaser{r.pipeline, r.group, r.layout, r.index, r.mesh} {
		if res != nil {
			res.Release()
		}
	}
	r.pipeline, r.group, r.layout, r.index, r.mesh = nil, nil, nil, nil, nil
}
