package soft

import (
	"errors"
	"fmt"

	"github.com/lao-tseu-is-alive/go-gpu-boids/internal/gpu"
)

// step is one recorded command, executed when its command buffer is submitted.
type step struct {
	op Op

	// dispatch
	compute    *computePipeline
	workgroups [3]uint32

	// clear and draw
	target        *frame
	clear         gpu.Color
	render        *renderPipeline
	vertex        map[uint32]*Buffer
	index         *Buffer
	indexCount    uint32
	instanceCount uint32

	groups map[uint32]*BindGroup
}

// opClear is internal to the encoder and never appears in the trace.
const opClear Op = -1

type commandEncoder struct {
	dev      *Device
	label    string
	steps    []step
	err      error
	finished bool
}

func (d *Device) CreateCommandEncoder(label string) (gpu.CommandEncoder, error) {
	return &commandEncoder{dev: d, label: label}, nil
}

func (e *commandEncoder) Release() {}

func (e *commandEncoder) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}

func (e *commandEncoder) BeginComputePass(label string) gpu.ComputePass {
	return &computePass{enc: e, label: label, groups: map[uint32]*BindGroup{}}
}

func (e *commandEncoder) BeginRenderPass(desc *gpu.RenderPassDescriptor) gpu.RenderPass {
	p := &renderPass{enc: e, label: desc.Label, groups: map[uint32]*BindGroup{}, vertex: map[uint32]*Buffer{}}
	target, ok := desc.Target.(*frame)
	if !ok {
		p.err = fmt.Errorf("render pass %q: target is not a soft frame", desc.Label)
		return p
	}
	p.target = target
	e.steps = append(e.steps, step{op: opClear, target: target, clear: desc.ClearColor})
	return p
}

func (e *commandEncoder) Finish() (gpu.CommandBuffer, error) {
	if e.finished {
		return nil, errors.New("command encoder already finished")
	}
	e.finished = true
	if e.err != nil {
		return nil, e.err
	}
	return &commandBuffer{label: e.label, steps: e.steps}, nil
}

type commandBuffer struct {
	label string
	steps []step
}

func (*commandBuffer) Release() {}

type computePass struct {
	enc      *commandEncoder
	label    string
	pipeline *computePipeline
	groups   map[uint32]*BindGroup
	err      error
}

func (p *computePass) SetPipeline(pl gpu.ComputePipeline) {
	cp, ok := pl.(*computePipeline)
	if !ok {
		p.err = fmt.Errorf("compute pass %q: foreign pipeline", p.label)
		return
	}
	p.pipeline = cp
}

func (p *computePass) SetBindGroup(index uint32, group gpu.BindGroup) {
	g, ok := group.(*BindGroup)
	if !ok {
		p.err = fmt.Errorf("compute pass %q: foreign bind group", p.label)
		return
	}
	p.groups[index] = g
}

func (p *computePass) DispatchWorkgroups(x, y, z uint32) {
	if p.pipeline == nil {
		p.err = fmt.Errorf("compute pass %q: dispatch without pipeline", p.label)
		return
	}
	if p.groups[0] == nil {
		p.err = fmt.Errorf("compute pass %q: dispatch without bind group 0", p.label)
		return
	}
	p.enc.steps = append(p.enc.steps, step{
		op:         OpDispatch,
		compute:    p.pipeline,
		workgroups: [3]uint32{x, y, z},
		groups:     copyGroups(p.groups),
	})
}

func (p *computePass) End() error {
	if p.err != nil {
		p.enc.fail(p.err)
	}
	return p.err
}

type renderPass struct {
	enc      *commandEncoder
	label    string
	target   *frame
	pipeline *renderPipeline
	groups   map[uint32]*BindGroup
	vertex   map[uint32]*Buffer
	index    *Buffer
	err      error
}

func (p *renderPass) SetPipeline(pl gpu.RenderPipeline) {
	rp, ok := pl.(*renderPipeline)
	if !ok {
		p.err = fmt.Errorf("render pass %q: foreign pipeline", p.label)
		return
	}
	p.pipeline = rp
}

func (p *renderPass) SetBindGroup(index uint32, group gpu.BindGroup) {
	g, ok := group.(*BindGroup)
	if !ok {
		p.err = fmt.Errorf("render pass %q: foreign bind group", p.label)
		return
	}
	p.groups[index] = g
}

func (p *renderPass) SetVertexBuffer(slot uint32, buf gpu.Buffer) {
	b, ok := buf.(*Buffer)
	if !ok || !b.usage.Has(gpu.BufferUsageVertex) {
		p.err = fmt.Errorf("render pass %q: vertex slot %d needs a soft vertex buffer", p.label, slot)
		return
	}
	p.vertex[slot] = b
}

func (p *renderPass) SetIndexBuffer(buf gpu.Buffer, format gpu.IndexFormat) {
	b, ok := buf.(*Buffer)
	if !ok || !b.usage.Has(gpu.BufferUsageIndex) {
		p.err = fmt.Errorf("render pass %q: index buffer is not a soft index buffer", p.label)
		return
	}
	if format != gpu.IndexFormatUint16 {
		p.err = fmt.Errorf("render pass %q: only uint16 indices are supported", p.label)
		return
	}
	p.index = b
}

func (p *renderPass) DrawIndexed(indexCount, instanceCount uint32) {
	switch {
	case p.err != nil || p.target == nil:
		return
	case p.pipeline == nil:
		p.err = fmt.Errorf("render pass %q: draw without pipeline", p.label)
		return
	case p.index == nil:
		p.err = fmt.Errorf("render pass %q: indexed draw without index buffer", p.label)
		return
	case len(p.vertex) < len(p.pipeline.buffers):
		p.err = fmt.Errorf("render pass %q: %d vertex buffers bound, pipeline wants %d",
			p.label, len(p.vertex), len(p.pipeline.buffers))
		return
	}
	vertex := make(map[uint32]*Buffer, len(p.vertex))
	for k, v := range p.vertex {
		vertex[k] = v
	}
	p.enc.steps = append(p.enc.steps, step{
		op:            OpDraw,
		target:        p.target,
		render:        p.pipeline,
		vertex:        vertex,
		index:         p.index,
		indexCount:    indexCount,
		instanceCount: instanceCount,
		groups:        copyGroups(p.groups),
	})
}

func (p *renderPass) End() error {
	if p.err != nil {
		p.enc.fail(p.err)
	}
	return p.err
}

func copyGroups(src map[uint32]*BindGroup) map[uint32]*BindGroup {
	out := make(map[uint32]*BindGroup, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
