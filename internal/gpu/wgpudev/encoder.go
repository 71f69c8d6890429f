package wgpudev

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/lao-tseu-is-alive/go-gpu-boids/internal/gpu"
)

type commandEncoder struct {
	enc *wgpu.CommandEncoder
	err error
}

func (d *Device) CreateCommandEncoder(label string) (gpu.CommandEncoder, error) {
	enc, err := d.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, fmt.Errorf("command encoder %q: %w", label, classify(err))
	}
	return &commandEncoder{enc: enc}, nil
}

func (e *commandEncoder) Release() { e.enc.Release() }

func (e *commandEncoder) BeginComputePass(label string) gpu.ComputePass {
	return &computePass{pass: e.enc.BeginComputePass(&wgpu.ComputePassDescriptor{Label: label})}
}

func (e *commandEncoder) BeginRenderPass(desc *gpu.RenderPassDescriptor) gpu.RenderPass {
	view, ok := desc.Target.(*textureView)
	if !ok {
		e.err = fmt.Errorf("render pass %q: target is not a surface view", desc.Label)
		return &renderPass{err: e.err}
	}
	c := desc.ClearColor
	pass := e.enc.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: desc.Label,
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view.view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{R: c.R, G: c.G, B: c.B, A: c.A},
		}},
	})
	return &renderPass{pass: pass}
}

func (e *commandEncoder) Finish() (gpu.CommandBuffer, error) {
	if e.err != nil {
		return nil, e.err
	}
	cmd, err := e.enc.Finish(nil)
	if err != nil {
		return nil, classify(err)
	}
	return &commandBuffer{cmd: cmd}, nil
}

type commandBuffer struct{ cmd *wgpu.CommandBuffer }

func (c *commandBuffer) Release() { c.cmd.Release() }

// computePass records into a wgpu compute pass. The native pass is released in
// End: wgpu-native requires it before the encoder is finished.
type computePass struct {
	pass *wgpu.ComputePassEncoder
	err  error
}

func (p *computePass) SetPipeline(pl gpu.ComputePipeline) {
	cp, ok := pl.(*computePipeline)
	if !ok {
		p.err = errors.New("compute pass: pipeline from another device")
		return
	}
	p.pass.SetPipeline(cp.pipeline)
}

func (p *computePass) SetBindGroup(index uint32, group gpu.BindGroup) {
	g, ok := group.(*bindGroup)
	if !ok {
		p.err = errors.New("compute pass: bind group from another device")
		return
	}
	p.pass.SetBindGroup(index, g.group, nil)
}

func (p *computePass) DispatchWorkgroups(x, y, z uint32) {
	p.pass.DispatchWorkgroups(x, y, z)
}

func (p *computePass) End() error {
	err := p.pass.End()
	p.pass.Release()
	if p.err != nil {
		return p.err
	}
	return err
}

type renderPass struct {
	pass *wgpu.RenderPassEncoder
	err  error
}

func (p *renderPass) SetPipeline(pl gpu.RenderPipeline) {
	rp, ok := pl.(*renderPipeline)
	if !ok || p.pass == nil {
		p.setErr(errors.New("render pass: pipeline from another device"))
		return
	}
	p.pass.SetPipeline(rp.pipeline)
}

func (p *renderPass) SetBindGroup(index uint32, group gpu.BindGroup) {
	g, ok := group.(*bindGroup)
	if !ok || p.pass == nil {
		p.setErr(errors.New("render pass: bind group from another device"))
		return
	}
	p.pass.SetBindGroup(index, g.group, nil)
}

func (p *renderPass) SetVertexBuffer(slot uint32, buf gpu.Buffer) {
	b, ok := buf.(*Buffer)
	if !ok || p.pass == nil {
		p.setErr(fmt.Errorf("render pass: vertex slot %d buffer from another device", slot))
		return
	}
	p.pass.SetVertexBuffer(slot, b.buf, 0, wgpu.WholeSize)
}

func (p *renderPass) SetIndexBuffer(buf gpu.Buffer, format gpu.IndexFormat) {
	b, ok := buf.(*Buffer)
	if !ok || p.pass == nil {
		p.setErr(errors.New("render pass: index buffer from another device"))
		return
	}
	p.pass.SetIndexBuffer(b.buf, indexFormat(format), 0, wgpu.WholeSize)
}

func (p *renderPass) DrawIndexed(indexCount, instanceCount uint32) {
	if p.pass == nil {
		return
	}
	p.pass.DrawIndexed(indexCount, instanceCount, 0, 0, 0)
}

func (p *renderPass) setErr(err error) {
	if p.err == nil {
		p.err = err
	}
}

func (p *renderPass) End() error {
	if p.pass == nil {
		return p.err
	}
	err := p.pass.End()
	p.pass.Release()
	if p.err != nil {
		return p.err
	}
	return err
}
