// Package gpu declares the slice of a WebGPU-style device that the frame engine needs.
//
// Two implementations live below it: wgpudev drives a real adapter through
// cogentcore/webgpu, and soft runs every pass on the CPU and keeps a trace of
// what was submitted, which is what the engine tests assert against.
package gpu

import (
	"errors"
)

// Surface acquisition failures. Backends wrap their native errors so callers can use errors.Is.
var (
	ErrSurfaceLost     = errors.New("surface was lost")
	ErrSurfaceOutdated = errors.New("surface is outdated")
	ErrSurfaceTimeout  = errors.New("surface timed out")
	ErrOutOfMemory     = errors.New("device out of memory")
)

// BufferUsage is a bit set describing how a buffer may be bound.
type BufferUsage uint32

const (
	BufferUsageVertex BufferUsage = 1 << iota
	BufferUsageIndex
	BufferUsageUniform
	BufferUsageStorage
	BufferUsageCopyDst
)

// Has reports whether all bits of flag are set.
func (u BufferUsage) Has(flag BufferUsage) bool { return u&flag == flag }

// ShaderStage is a bit set of pipeline stages a binding is visible to.
type ShaderStage uint32

const (
	ShaderStageVertex ShaderStage = 1 << iota
	ShaderStageFragment
	ShaderStageCompute
)

// BindingType selects how a buffer binding is accessed by the shader.
type BindingType int

const (
	BindingUniform BindingType = iota
	BindingReadOnlyStorage
	BindingStorage
)

func (t BindingType) String() string {
	switch t {
	case BindingUniform:
		return "uniform"
	case BindingReadOnlyStorage:
		return "read-only-storage"
	case BindingStorage:
		return "storage"
	}
	return "unknown"
}

type VertexFormat int

const (
	VertexFormatFloat32x2 VertexFormat = iota
	VertexFormatFloat32x3
)

// Size returns the byte size of one attribute of this format.
func (f VertexFormat) Size() uint64 {
	switch f {
	case VertexFormatFloat32x2:
		return 8
	case VertexFormatFloat32x3:
		return 12
	}
	return 0
}

type VertexStepMode int

const (
	VertexStepModeVertex VertexStepMode = iota
	VertexStepModeInstance
)

type IndexFormat int

const (
	IndexFormatUint16 IndexFormat = iota
	IndexFormatUint32
)

// TextureFormat is opaque to the engine: it is read from the surface and handed back
// to the backend when a render pipeline targets that surface.
type TextureFormat uint32

// Color is a clear color in linear RGBA.
type Color struct {
	R, G, B, A float64
}

type BufferDescriptor struct {
	Label string
	// Size is ignored when Contents is set; the buffer is sized to the contents.
	Size     uint64
	Contents []byte
	Usage    BufferUsage
}

type BindGroupLayoutEntry struct {
	Binding    uint32
	Visibility ShaderStage
	Type       BindingType
	// MinBindingSize of zero means "checked at draw/dispatch time".
	MinBindingSize uint64
}

type BindGroupLayoutDescriptor struct {
	Label   string
	Entries []BindGroupLayoutEntry
}

type BindGroupEntry struct {
	Binding uint32
	Buffer  Buffer
}

type BindGroupDescriptor struct {
	Label   string
	Layout  BindGroupLayout
	Entries []BindGroupEntry
}

type ShaderModuleDescriptor struct {
	Label string
	WGSL  string
}

type ComputePipelineDescriptor struct {
	Label      string
	Layouts    []BindGroupLayout
	Module     ShaderModule
	EntryPoint string
}

type VertexAttribute struct {
	Format         VertexFormat
	Offset         uint64
	ShaderLocation uint32
}

type VertexBufferLayout struct {
	ArrayStride uint64
	StepMode    VertexStepMode
	Attributes  []VertexAttribute
}

type RenderPipelineDescriptor struct {
	Label              string
	Layouts            []BindGroupLayout
	Module             ShaderModule
	VertexEntryPoint   string
	FragmentEntryPoint string
	Buffers            []VertexBufferLayout
	TargetFormat       TextureFormat
}

type RenderPassDescriptor struct {
	Label      string
	Target     TextureView
	ClearColor Color
}

// Releaser is implemented by every backend object that owns native resources.
type Releaser interface {
	Release()
}

type Buffer interface {
	Releaser
	Size() uint64
}

type BindGroupLayout interface{ Releaser }
type BindGroup interface{ Releaser }
type ShaderModule interface{ Releaser }
type ComputePipeline interface{ Releaser }
type RenderPipeline interface{ Releaser }
type CommandBuffer interface{ Releaser }
type TextureView interface{ Releaser }

// Device creates resources and command encoders.
type Device interface {
	CreateBuffer(desc *BufferDescriptor) (Buffer, error)
	CreateBindGroupLayout(desc *BindGroupLayoutDescriptor) (BindGroupLayout, error)
	CreateBindGroup(desc *BindGroupDescriptor) (BindGroup, error)
	CreateShaderModule(desc *ShaderModuleDescriptor) (ShaderModule, error)
	CreateComputePipeline(desc *ComputePipelineDescriptor) (ComputePipeline, error)
	CreateRenderPipeline(desc *RenderPipelineDescriptor) (RenderPipeline, error)
	CreateCommandEncoder(label string) (CommandEncoder, error)
	Queue() Queue
}

// Queue is the single submission queue. Writes and submissions execute in call order.
type Queue interface {
	WriteBuffer(buf Buffer, offset uint64, data []byte) error
	Submit(cmds ...CommandBuffer)
}

type CommandEncoder interface {
	Releaser
	BeginComputePass(label string) ComputePass
	BeginRenderPass(desc *RenderPassDescriptor) RenderPass
	Finish() (CommandBuffer, error)
}

type ComputePass interface {
	SetPipeline(p ComputePipeline)
	SetBindGroup(index uint32, group BindGroup)
	DispatchWorkgroups(x, y, z uint32)
	End() error
}

type RenderPass interface {
	SetPipeline(p RenderPipeline)
	SetBindGroup(index uint32, group BindGroup)
	SetVertexBuffer(slot uint32, buf Buffer)
	SetIndexBuffer(buf Buffer, format IndexFormat)
	DrawIndexed(indexCount, instanceCount uint32)
	End() error
}

// Surface is the presentable target sized to the viewport.
type Surface interface {
	// Configure (re)creates the swap chain. Callers must not pass a zero dimension.
	Configure(width, height uint32) error
	Format() TextureFormat
	// AcquireNextFrame returns an error wrapping one of ErrSurfaceLost, ErrSurfaceOutdated,
	// ErrSurfaceTimeout or ErrOutOfMemory on the known failure paths.
	AcquireNextFrame() (Frame, error)
}

// Frame is one acquired surface image.
type Frame interface {
	Releaser
	View() TextureView
	Present() error
}
