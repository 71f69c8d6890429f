package soft

import (
	"fmt"

	"github.com/lao-tseu-is-alive/go-gpu-boids/internal/gpu"
)

// Queue executes writes and command buffers synchronously, in call order.
type Queue struct {
	dev *Device
	err error
}

// Err returns the first error raised while executing submitted work.
// Like a real device, Submit itself does not fail; problems surface here.
func (d *Device) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.queue.err
}

func (q *Queue) fail(err error) {
	q.dev.mu.Lock()
	if q.err == nil {
		q.err = err
	}
	q.dev.mu.Unlock()
}

func (q *Queue) WriteBuffer(buf gpu.Buffer, offset uint64, data []byte) error {
	b, ok := buf.(*Buffer)
	if !ok {
		return fmt.Errorf("write to a foreign buffer")
	}
	if b.released {
		return fmt.Errorf("write to %q: %w", b.label, ErrReleased)
	}
	if !b.usage.Has(gpu.BufferUsageCopyDst) {
		return fmt.Errorf("write to %q: buffer lacks copy-dst usage", b.label)
	}
	if offset+uint64(len(data)) > b.Size() {
		return fmt.Errorf("write to %q: %d bytes at offset %d overflow %d", b.label, len(data), offset, b.Size())
	}
	copy(b.data[offset:], data)
	q.dev.record(Command{Op: OpWriteBuffer, Label: b.label, Count: uint32(len(data))})
	return nil
}

func (q *Queue) Submit(cmds ...gpu.CommandBuffer) {
	for _, c := range cmds {
		cb, ok := c.(*commandBuffer)
		if !ok {
			q.fail(fmt.Errorf("submit of a foreign command buffer"))
			continue
		}
		for _, s := range cb.steps {
			if err := q.execute(s); err != nil {
				q.fail(fmt.Errorf("executing %q: %w", cb.label, err))
			}
		}
		q.dev.record(Command{Op: OpSubmit, Label: cb.label, Count: uint32(len(cb.steps))})
	}
}

func (q *Queue) execute(s step) error {
	switch s.op {
	case OpDispatch:
		return q.dispatch(s)
	case opClear:
		s.target.image.Clear = s.clear
		s.target.image.Draws = s.target.image.Draws[:0]
		return nil
	case OpDraw:
		return q.draw(s)
	}
	return fmt.Errorf("unknown step %v", s.op)
}

func (q *Queue) dispatch(s step) error {
	group := s.groups[0]
	bindings := make(map[uint32][]byte, len(group.buffers))
	for binding, buf := range group.buffers {
		if buf.released {
			return fmt.Errorf("dispatch reads %q: %w", buf.label, ErrReleased)
		}
		bindings[binding] = buf.data
	}
	k := s.compute.kernel
	invocations := s.workgroups[0] * s.workgroups[1] * s.workgroups[2] * k.WorkgroupSize
	q.dev.record(Command{Op: OpDispatch, Label: group.label, Count: s.workgroups[0]})
	return k.Run(bindings, invocations)
}

func (q *Queue) draw(s step) error {
	call := DrawCall{IndexCount: s.indexCount, InstanceCount: s.instanceCount}
	slotLabel := ""
	for slot, layout := range s.render.buffers {
		buf := s.vertex[uint32(slot)]
		if buf == nil {
			return fmt.Errorf("draw: vertex slot %d unbound", slot)
		}
		switch layout.StepMode {
		case gpu.VertexStepModeInstance:
			call.Instances = buf.Bytes()
			call.InstanceStride = layout.ArrayStride
			slotLabel = buf.label
		case gpu.VertexStepModeVertex:
			call.Vertices = buf.Bytes()
			call.VertexStride = layout.ArrayStride
		}
	}
	if need := uint64(s.instanceCount) * call.InstanceStride; uint64(len(call.Instances)) < need {
		return fmt.Errorf("draw: %d instances need %d bytes, buffer %q has %d", s.instanceCount, need, slotLabel, len(call.Instances))
	}
	call.Indices = s.index.Bytes()
	if g := s.groups[0]; g != nil {
		if u := g.buffers[0]; u != nil {
			call.Uniform = u.Bytes()
		}
	}
	s.target.image.Draws = append(s.target.image.Draws, call)
	q.dev.record(Command{Op: OpDraw, Label: s.render.label, Count: s.instanceCount, Slot: slotLabel})
	return nil
}
