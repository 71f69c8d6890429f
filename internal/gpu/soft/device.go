// Package soft is a CPU implementation of the gpu interfaces.
//
// Compute passes run Go kernels registered by entry point, render passes capture
// their draws into the acquired frame, and every queue event is appended to a
// trace so tests can check submission order.
package soft

import (
	"errors"
	"fmt"
	"sync"

	"github.com/lao-tseu-is-alive/go-gpu-boids/internal/gpu"
)

// ErrReleased is returned when a released resource is used.
var ErrReleased = errors.New("resource already released")

// Kernel is the CPU stand-in for a compute entry point. Run receives group 0's
// bound buffers by binding number and the total invocation count of the dispatch.
type Kernel struct {
	WorkgroupSize uint32
	Run           func(bindings map[uint32][]byte, invocations uint32) error
}

// Device is the software device. It is safe for use from one goroutine at a time
// plus concurrent trace readers.
type Device struct {
	mu      sync.Mutex
	kernels map[string]Kernel
	trace   []Command
	queue   *Queue
	// failures injected into the next CreateBuffer calls
	allocFailures []error
}

var _ gpu.Device = (*Device)(nil)

// New returns a device that runs the given kernels for compute pipelines whose
// entry point matches a key.
func New(kernels map[string]Kernel) *Device {
	d := &Device{kernels: make(map[string]Kernel, len(kernels))}
	for name, k := range kernels {
		d.kernels[name] = k
	}
	d.queue = &Queue{dev: d}
	return d
}

// Trace returns a copy of the recorded commands.
func (d *Device) Trace() []Command {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Command, len(d.trace))
	copy(out, d.trace)
	return out
}

// ResetTrace drops the recorded commands.
func (d *Device) ResetTrace() {
	d.mu.Lock()
	d.trace = d.trace[:0]
	d.mu.Unlock()
}

// FailNextAllocation makes the next CreateBuffer return err.
func (d *Device) FailNextAllocation(err error) {
	d.mu.Lock()
	d.allocFailures = append(d.allocFailures, err)
	d.mu.Unlock()
}

func (d *Device) record(c Command) {
	d.mu.Lock()
	d.trace = append(d.trace, c)
	d.mu.Unlock()
}

// Buffer is a host-memory buffer.
type Buffer struct {
	label    string
	usage    gpu.BufferUsage
	data     []byte
	released bool
}

func (b *Buffer) Size() uint64  { return uint64(len(b.data)) }
func (b *Buffer) Label() string { return b.label }
func (b *Buffer) Release()      { b.released = true }

// Bytes returns a copy of the buffer contents.
func (b *Buffer) Bytes() []byte {
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out
}

func (d *Device) CreateBuffer(desc *gpu.BufferDescriptor) (gpu.Buffer, error) {
	d.mu.Lock()
	if len(d.allocFailures) > 0 {
		err := d.allocFailures[0]
		d.allocFailures = d.allocFailures[1:]
		d.mu.Unlock()
		return nil, err
	}
	d.mu.Unlock()

	size := desc.Size
	if desc.Contents != nil {
		size = uint64(len(desc.Contents))
	}
	if size == 0 {
		return nil, fmt.Errorf("buffer %q: zero size", desc.Label)
	}
	b := &Buffer{label: desc.Label, usage: desc.Usage, data: make([]byte, size)}
	copy(b.data, desc.Contents)
	return b, nil
}

type bindGroupLayout struct {
	desc gpu.BindGroupLayoutDescriptor
}

func (*bindGroupLayout) Release() {}

func (d *Device) CreateBindGroupLayout(desc *gpu.BindGroupLayoutDescriptor) (gpu.BindGroupLayout, error) {
	return &bindGroupLayout{desc: *desc}, nil
}

// BindGroup maps binding numbers to buffers.
type BindGroup struct {
	label   string
	buffers map[uint32]*Buffer
}

func (*BindGroup) Release() {}

// Label returns the bind group label.
func (g *BindGroup) Label() string { return g.label }

// Buffer returns the buffer bound at binding, or nil.
func (g *BindGroup) Buffer(binding uint32) *Buffer { return g.buffers[binding] }

func (d *Device) CreateBindGroup(desc *gpu.BindGroupDescriptor) (gpu.BindGroup, error) {
	layout, ok := desc.Layout.(*bindGroupLayout)
	if !ok {
		return nil, fmt.Errorf("bind group %q: layout from another device", desc.Label)
	}
	g := &BindGroup{label: desc.Label, buffers: make(map[uint32]*Buffer, len(desc.Entries))}
	for _, e := range desc.Entries {
		buf, ok := e.Buffer.(*Buffer)
		if !ok {
			return nil, fmt.Errorf("bind group %q: binding %d is not a soft buffer", desc.Label, e.Binding)
		}
		g.buffers[e.Binding] = buf
	}
	for _, le := range layout.desc.Entries {
		buf, ok := g.buffers[le.Binding]
		if !ok {
			return nil, fmt.Errorf("bind group %q: binding %d missing", desc.Label, le.Binding)
		}
		if buf.Size() < le.MinBindingSize {
			return nil, fmt.Errorf("bind group %q: binding %d is %d bytes, layout wants %d",
				desc.Label, le.Binding, buf.Size(), le.MinBindingSize)
		}
		switch le.Type {
		case gpu.BindingUniform:
			if !buf.usage.Has(gpu.BufferUsageUniform) {
				return nil, fmt.Errorf("bind group %q: binding %d lacks uniform usage", desc.Label, le.Binding)
			}
		case gpu.BindingStorage, gpu.BindingReadOnlyStorage:
			if !buf.usage.Has(gpu.BufferUsageStorage) {
				return nil, fmt.Errorf("bind group %q: binding %d lacks storage usage", desc.Label, le.Binding)
			}
		}
	}
	return g, nil
}

type shaderModule struct {
	label string
}

func (*shaderModule) Release() {}

func (d *Device) CreateShaderModule(desc *gpu.ShaderModuleDescriptor) (gpu.ShaderModule, error) {
	return &shaderModule{label: desc.Label}, nil
}

type computePipeline struct {
	label  string
	kernel Kernel
}

func (*computePipeline) Release() {}

func (d *Device) CreateComputePipeline(desc *gpu.ComputePipelineDescriptor) (gpu.ComputePipeline, error) {
	k, ok := d.kernels[desc.EntryPoint]
	if !ok {
		return nil, fmt.Errorf("compute pipeline %q: no kernel registered for entry point %q", desc.Label, desc.EntryPoint)
	}
	if k.WorkgroupSize == 0 {
		return nil, fmt.Errorf("compute pipeline %q: kernel %q has zero workgroup size", desc.Label, desc.EntryPoint)
	}
	return &computePipeline{label: desc.Label, kernel: k}, nil
}

type renderPipeline struct {
	label   string
	buffers []gpu.VertexBufferLayout
}

func (*renderPipeline) Release() {}

func (d *Device) CreateRenderPipeline(desc *gpu.RenderPipelineDescriptor) (gpu.RenderPipeline, error) {
	if len(desc.Buffers) == 0 {
		return nil, fmt.Errorf("render pipeline %q: no vertex buffers", desc.Label)
	}
	return &renderPipeline{label: desc.Label, buffers: desc.Buffers}, nil
}

func (d *Device) Queue() gpu.Queue { return d.queue }
