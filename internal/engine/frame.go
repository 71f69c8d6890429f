package engine

import (
	"errors"
	"fmt"

	"github.com/lao-tseu-is-alive/go-gpu-boids/internal/gpu"
	"github.com/lao-tseu-is-alive/go-gpu-boids/pkg/boid"
	"github.com/lao-tseu-is-alive/go-gpu-boids/pkg/camera"
)

// The frame recorder is a chain of value types, one per step. Each step can only
// be obtained from the previous one, so the compiler keeps uniform uploads ahead
// of the dispatch that reads them and the dispatch ahead of the draw that reads
// its output, all on the one queue.
//
//	ComputeFrame --Upload--> ParamsReady --Dispatch--> RenderFrame --Draw--> DrawnFrame --Present

// errStaleStep is returned by a step value that was not produced by the recorder.
var errStaleStep = errors.New("frame step used outside its recorder")

// ComputeFrame is a frame that has entered ComputePending and not uploaded anything yet.
type ComputeFrame struct {
	d      *Driver
	parity Parity
}

// Parity is the slot parity this frame computes with.
func (f ComputeFrame) Parity() Parity { return f.parity }

// Upload enqueues the parameter block and, when cam is non-nil, the camera block.
func (f ComputeFrame) Upload(params boid.Uniforms, cam *camera.Uniform) (ParamsReady, error) {
	if f.d == nil {
		return ParamsReady{}, errStaleStep
	}
	q := f.d.dev.Queue()
	if err := q.WriteBuffer(f.d.params.Buffer(), 0, params.Marshal()); err != nil {
		return ParamsReady{}, fmt.Errorf("uploading params: %w", err)
	}
	if cam != nil {
		if err := q.WriteBuffer(f.d.camera.Buffer(), 0, cam.Marshal()); err != nil {
			return ParamsReady{}, fmt.Errorf("uploading camera: %w", err)
		}
	}
	return ParamsReady(f), nil
}

// ParamsReady is a frame whose uniforms are enqueued.
type ParamsReady struct {
	d      *Driver
	parity Parity
}

// Dispatch records and submits the compute pass bound for this frame's parity.
func (f ParamsReady) Dispatch() (RenderFrame, error) {
	if f.d == nil {
		return RenderFrame{}, errStaleStep
	}
	enc, err := f.d.dev.CreateCommandEncoder("compute encoder")
	if err != nil {
		return RenderFrame{}, fmt.Errorf("creating compute encoder: %w", err)
	}
	defer enc.Release()

	if err := f.d.sim.encode(enc, f.d.store.BindGroupFor(f.parity)); err != nil {
		return RenderFrame{}, err
	}
	cmd, err := enc.Finish()
	if err != nil {
		return RenderFrame{}, fmt.Errorf("finishing compute commands: %w", err)
	}
	defer cmd.Release()
	f.d.dev.Queue().Submit(cmd)

	return RenderFrame{d: f.d, parity: f.parity}, nil
}

// RenderFrame is a frame whose compute pass is submitted.
type RenderFrame struct {
	d      *Driver
	parity Parity
}

// WrittenSlot is the slot the compute pass wrote and the draw will read.
func (f RenderFrame) WrittenSlot() int { return f.parity.WriteSlot() }

// Draw records and submits the render pass into target, reading the written slot.
func (f RenderFrame) Draw(target gpu.Frame) (DrawnFrame, error) {
	if f.d == nil {
		return DrawnFrame{}, errStaleStep
	}
	enc, err := f.d.dev.CreateCommandEncoder("render encoder")
	if err != nil {
		return DrawnFrame{}, fmt.Errorf("creating render encoder: %w", err)
	}
	defer enc.Release()

	if err := f.d.render.encode(enc, target.View(), f.d.store.Slot(f.WrittenSlot())); err != nil {
		return DrawnFrame{}, err
	}
	cmd, err := enc.Finish()
	if err != nil {
		return DrawnFrame{}, fmt.Errorf("finishing render commands: %w", err)
	}
	defer cmd.Release()
	f.d.dev.Queue().Submit(cmd)

	return DrawnFrame{target: target}, nil
}

// DrawnFrame is a frame whose draw is submitted and which only awaits presentation.
type DrawnFrame struct {
	target gpu.Frame
}

// Present hands the image to the surface.
func (f DrawnFrame) Present() error {
	if f.target == nil {
		return errStaleStep
	}
	if err := f.target.Present(); err != nil {
		return fmt.Errorf("presenting frame: %w", err)
	}
	return nil
}
