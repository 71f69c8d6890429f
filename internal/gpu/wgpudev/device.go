// Package wgpudev implements the gpu interfaces on top of wgpu-native through
// github.com/cogentcore/webgpu, with a GLFW window as the presentation surface.
//
// Every function here must run on the thread that created the window.
package wgpudev

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/lao-tseu-is-alive/go-gpu-boids/internal/gpu"
)

// Options select the adapter and presentation behaviour.
type Options struct {
	// ForceFallbackAdapter requests the software adapter (WGPU_FORCE_FALLBACK_ADAPTER=1).
	ForceFallbackAdapter bool
	// PresentMode is "fifo", "mailbox" or "immediate". Empty means fifo.
	PresentMode string
}

// SetLogLevel maps a WGPU_LOG_LEVEL value to the wgpu-native log level.
// Unknown values leave the level untouched.
func SetLogLevel(level string) {
	switch strings.ToUpper(level) {
	case "OFF":
		wgpu.SetLogLevel(wgpu.LogLevelOff)
	case "ERROR":
		wgpu.SetLogLevel(wgpu.LogLevelError)
	case "WARN":
		wgpu.SetLogLevel(wgpu.LogLevelWarn)
	case "INFO":
		wgpu.SetLogLevel(wgpu.LogLevelInfo)
	case "DEBUG":
		wgpu.SetLogLevel(wgpu.LogLevelDebug)
	case "TRACE":
		wgpu.SetLogLevel(wgpu.LogLevelTrace)
	}
}

func presentMode(name string) (wgpu.PresentMode, error) {
	switch strings.ToLower(name) {
	case "", "fifo":
		return wgpu.PresentModeFifo, nil
	case "mailbox":
		return wgpu.PresentModeMailbox, nil
	case "immediate":
		return wgpu.PresentModeImmediate, nil
	}
	return wgpu.PresentModeFifo, fmt.Errorf("unknown present mode %q", name)
}

// Device wraps the adapter, the logical device and its queue.
type Device struct {
	adapter *wgpu.Adapter
	device  *wgpu.Device
	queue   *Queue
}

var _ gpu.Device = (*Device)(nil)

// NewFromWindow creates a surface for window, then an adapter compatible with it
// and a device. The surface is left unconfigured.
func NewFromWindow(window *glfw.Window, opts Options) (d *Device, s *Surface, err error) {
	mode, err := presentMode(opts.PresentMode)
	if err != nil {
		return nil, nil, err
	}

	instance := wgpu.CreateInstance(nil)
	defer instance.Release()

	d = &Device{}
	s = &Surface{dev: d}
	defer func() {
		if err != nil {
			s.Release()
			d.Release()
			d, s = nil, nil
		}
	}()

	s.surface = instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(window))

	d.adapter, err = instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: opts.ForceFallbackAdapter,
		CompatibleSurface:    s.surface,
	})
	if err != nil {
		return d, s, fmt.Errorf("requesting adapter: %w", err)
	}
	d.device, err = d.adapter.RequestDevice(nil)
	if err != nil {
		return d, s, fmt.Errorf("requesting device: %w", classify(err))
	}
	d.queue = &Queue{queue: d.device.GetQueue()}

	caps := s.surface.GetCapabilities(d.adapter)
	if len(caps.Formats) == 0 || len(caps.AlphaModes) == 0 {
		return d, s, errors.New("surface is not compatible with the adapter")
	}
	s.config = &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      caps.Formats[0],
		PresentMode: mode,
		AlphaMode:   caps.AlphaModes[0],
	}
	return d, s, nil
}

// Release frees the queue, the device and the adapter.
func (d *Device) Release() {
	if d.queue != nil {
		d.queue.queue.Release()
		d.queue = nil
	}
	if d.device != nil {
		d.device.Release()
		d.device = nil
	}
	if d.adapter != nil {
		d.adapter.Release()
		d.adapter = nil
	}
}

// classify wraps the wgpu-native error strings the engine reacts to in the
// matching gpu sentinel. Anything else is returned unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "Surface was lost"):
		return fmt.Errorf("%w: %v", gpu.ErrSurfaceLost, err)
	case strings.Contains(msg, "Surface is outdated"):
		return fmt.Errorf("%w: %v", gpu.ErrSurfaceOutdated, err)
	case strings.Contains(msg, "Surface timed out"):
		return fmt.Errorf("%w: %v", gpu.ErrSurfaceTimeout, err)
	case strings.Contains(strings.ToLower(msg), "out of memory"):
		return fmt.Errorf("%w: %v", gpu.ErrOutOfMemory, err)
	}
	return err
}

func bufferUsage(u gpu.BufferUsage) wgpu.BufferUsage {
	var out wgpu.BufferUsage
	for flag, w := range map[gpu.BufferUsage]wgpu.BufferUsage{
		gpu.BufferUsageVertex:  wgpu.BufferUsageVertex,
		gpu.BufferUsageIndex:   wgpu.BufferUsageIndex,
		gpu.BufferUsageUniform: wgpu.BufferUsageUniform,
		gpu.BufferUsageStorage: wgpu.BufferUsageStorage,
		gpu.BufferUsageCopyDst: wgpu.BufferUsageCopyDst,
	} {
		if u.Has(flag) {
			out |= w
		}
	}
	return out
}

func shaderStage(s gpu.ShaderStage) wgpu.ShaderStage {
	var out wgpu.ShaderStage
	if s&gpu.ShaderStageVertex != 0 {
		out |= wgpu.ShaderStageVertex
	}
	if s&gpu.ShaderStageFragment != 0 {
		out |= wgpu.ShaderStageFragment
	}
	if s&gpu.ShaderStageCompute != 0 {
		out |= wgpu.ShaderStageCompute
	}
	return out
}

func bindingType(t gpu.BindingType) wgpu.BufferBindingType {
	switch t {
	case gpu.BindingReadOnlyStorage:
		return wgpu.BufferBindingTypeReadOnlyStorage
	case gpu.BindingStorage:
		return wgpu.BufferBindingTypeStorage
	}
	return wgpu.BufferBindingTypeUniform
}

func vertexFormat(f gpu.VertexFormat) wgpu.VertexFormat {
	if f == gpu.VertexFormatFloat32x3 {
		return wgpu.VertexFormatFloat32x3
	}
	return wgpu.VertexFormatFloat32x2
}

func indexFormat(f gpu.IndexFormat) wgpu.IndexFormat {
	if f == gpu.IndexFormatUint32 {
		return wgpu.IndexFormatUint32
	}
	return wgpu.IndexFormatUint16
}

// Buffer is a device buffer.
type Buffer struct{ buf *wgpu.Buffer }

func (b *Buffer) Size() uint64 { return b.buf.GetSize() }
func (b *Buffer) Release()     { b.buf.Release() }

func (d *Device) CreateBuffer(desc *gpu.BufferDescriptor) (gpu.Buffer, error) {
	var (
		buf *wgpu.Buffer
		err error
	)
	if desc.Contents != nil {
		buf, err = d.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
			Label:    desc.Label,
			Contents: desc.Contents,
			Usage:    bufferUsage(desc.Usage),
		})
	} else {
		buf, err = d.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: desc.Label,
			Size:  desc.Size,
			Usage: bufferUsage(desc.Usage),
		})
	}
	if err != nil {
		return nil, fmt.Errorf("buffer %q: %w", desc.Label, classify(err))
	}
	return &Buffer{buf: buf}, nil
}

type bindGroupLayout struct{ layout *wgpu.BindGroupLayout }

func (l *bindGroupLayout) Release() { l.layout.Release() }

func (d *Device) CreateBindGroupLayout(desc *gpu.BindGroupLayoutDescriptor) (gpu.BindGroupLayout, error) {
	entries := make([]wgpu.BindGroupLayoutEntry, len(desc.Entries))
	for i, e := range desc.Entries {
		entries[i] = wgpu.BindGroupLayoutEntry{
			Binding:    e.Binding,
			Visibility: shaderStage(e.Visibility),
			Buffer: wgpu.BufferBindingLayout{
				Type:           bindingType(e.Type),
				MinBindingSize: e.MinBindingSize,
			},
		}
	}
	layout, err := d.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{Label: desc.Label, Entries: entries})
	if err != nil {
		return nil, fmt.Errorf("bind group layout %q: %w", desc.Label, err)
	}
	return &bindGroupLayout{layout: layout}, nil
}

type bindGroup struct{ group *wgpu.BindGroup }

func (g *bindGroup) Release() { g.group.Release() }

func (d *Device) CreateBindGroup(desc *gpu.BindGroupDescriptor) (gpu.BindGroup, error) {
	layout, ok := desc.Layout.(*bindGroupLayout)
	if !ok {
		return nil, fmt.Errorf("bind group %q: layout from another device", desc.Label)
	}
	entries := make([]wgpu.BindGroupEntry, len(desc.Entries))
	for i, e := range desc.Entries {
		buf, ok := e.Buffer.(*Buffer)
		if !ok {
			return nil, fmt.Errorf("bind group %q: binding %d is not a device buffer", desc.Label, e.Binding)
		}
		entries[i] = wgpu.BindGroupEntry{Binding: e.Binding, Buffer: buf.buf, Size: wgpu.WholeSize}
	}
	group, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   desc.Label,
		Layout:  layout.layout,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("bind group %q: %w", desc.Label, err)
	}
	return &bindGroup{group: group}, nil
}

type shaderModule struct{ module *wgpu.ShaderModule }

func (m *shaderModule) Release() { m.module.Release() }

func (d *Device) CreateShaderModule(desc *gpu.ShaderModuleDescriptor) (gpu.ShaderModule, error) {
	module, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          desc.Label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: desc.WGSL},
	})
	if err != nil {
		return nil, fmt.Errorf("shader module %q: %w", desc.Label, err)
	}
	return &shaderModule{module: module}, nil
}

func (d *Device) pipelineLayout(label string, layouts []gpu.BindGroupLayout) (*wgpu.PipelineLayout, error) {
	native := make([]*wgpu.BindGroupLayout, len(layouts))
	for i, l := range layouts {
		bl, ok := l.(*bindGroupLayout)
		if !ok {
			return nil, fmt.Errorf("pipeline layout %q: group %d layout from another device", label, i)
		}
		native[i] = bl.layout
	}
	return d.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            label,
		BindGroupLayouts: native,
	})
}

type computePipeline struct{ pipeline *wgpu.ComputePipeline }

func (p *computePipeline) Release() { p.pipeline.Release() }

func (d *Device) CreateComputePipeline(desc *gpu.ComputePipelineDescriptor) (gpu.ComputePipeline, error) {
	module, ok := desc.Module.(*shaderModule)
	if !ok {
		return nil, fmt.Errorf("compute pipeline %q: module from another device", desc.Label)
	}
	layout, err := d.pipelineLayout(desc.Label+" layout", desc.Layouts)
	if err != nil {
		return nil, err
	}
	defer layout.Release()

	pipeline, err := d.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  desc.Label,
		Layout: layout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module.module,
			EntryPoint: desc.EntryPoint,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("compute pipeline %q: %w", desc.Label, err)
	}
	return &computePipeline{pipeline: pipeline}, nil
}

type renderPipeline struct{ pipeline *wgpu.RenderPipeline }

func (p *renderPipeline) Release() { p.pipeline.Release() }

func (d *Device) CreateRenderPipeline(desc *gpu.RenderPipelineDescriptor) (gpu.RenderPipeline, error) {
	module, ok := desc.Module.(*shaderModule)
	if !ok {
		return nil, fmt.Errorf("render pipeline %q: module from another device", desc.Label)
	}
	layout, err := d.pipelineLayout(desc.Label+" layout", desc.Layouts)
	if err != nil {
		return nil, err
	}
	defer layout.Release()

	buffers := make([]wgpu.VertexBufferLayout, len(desc.Buffers))
	for i, b := range desc.Buffers {
		attrs := make([]wgpu.VertexAttribute, len(b.Attributes))
		for j, a := range b.Attributes {
			attrs[j] = wgpu.VertexAttribute{
				Format:         vertexFormat(a.Format),
				Offset:         a.Offset,
				ShaderLocation: a.ShaderLocation,
			}
		}
		step := wgpu.VertexStepModeVertex
		if b.StepMode == gpu.VertexStepModeInstance {
			step = wgpu.VertexStepModeInstance
		}
		buffers[i] = wgpu.VertexBufferLayout{ArrayStride: b.ArrayStride, StepMode: step, Attributes: attrs}
	}

	pipeline, err := d.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     module.module,
			EntryPoint: desc.VertexEntryPoint,
			Buffers:    buffers,
		},
		Fragment: &wgpu.FragmentState{
			Module:     module.module,
			EntryPoint: desc.FragmentEntryPoint,
			Targets: []wgpu.ColorTargetState{{
				Format:    wgpu.TextureFormat(desc.TargetFormat),
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("render pipeline %q: %w", desc.Label, err)
	}
	return &renderPipeline{pipeline: pipeline}, nil
}

func (d *Device) Queue() gpu.Queue { return d.queue }

// Queue is the device queue.
type Queue struct{ queue *wgpu.Queue }

func (q *Queue) WriteBuffer(buf gpu.Buffer, offset uint64, data []byte) error {
	b, ok := buf.(*Buffer)
	if !ok {
		return errors.New("write to a buffer from another device")
	}
	if offset+uint64(len(data)) > b.Size() {
		return fmt.Errorf("write of %d bytes at offset %d overflows a %d byte buffer", len(data), offset, b.Size())
	}
	// wgpu copies data into its staging memory before returning.
	if err := q.queue.WriteBuffer(b.buf, offset, data); err != nil {
		return fmt.Errorf("writing %d bytes at offset %d: %w", len(data), offset, classify(err))
	}
	return nil
}

// Submit panics on a command buffer recorded by another device: dropping it
// would leave the frame half executed.
func (q *Queue) Submit(cmds ...gpu.CommandBuffer) {
	native, err := nativeCommands(cmds)
	if err != nil {
		panic(fmt.Sprintf("wgpudev: %v", err))
	}
	q.queue.Submit(native...)
}

func nativeCommands(cmds []gpu.CommandBuffer) ([]*wgpu.CommandBuffer, error) {
	native := make([]*wgpu.CommandBuffer, 0, len(cmds))
	for i, c := range cmds {
		cb, ok := c.(*commandBuffer)
		if !ok {
			return nil, fmt.Errorf("submit of a foreign command buffer %T at position %d", c, i)
		}
		native = append(native, cb.cmd)
	}
	return native, nil
}
