package engine

import (
	"errors"
	"fmt"

	"github.com/lao-tseu-is-alive/go-gpu-boids/internal/gpu"
	"github.com/lao-tseu-is-alive/go-gpu-boids/internal/shaders"
	"github.com/lao-tseu-is-alive/go-gpu-boids/pkg/boid"
)

// SlotCount is the number of agent buffers. The code below assumes exactly two.
const SlotCount = 2

// Parity selects the slot roles of a frame: the compute pass reads slot Parity
// and writes the other one.
type Parity uint8

// ParityOf returns the parity of frame index n.
func ParityOf(n uint64) Parity {
	return Parity(n % SlotCount)
}

// ReadSlot is the slot the compute pass reads this frame.
func (p Parity) ReadSlot() int { return int(p) }

// WriteSlot is the slot the compute pass writes and the render pass then draws.
func (p Parity) WriteSlot() int { return (int(p) + 1) % SlotCount }

// Next returns the parity of the following frame.
func (p Parity) Next() Parity { return Parity(p.WriteSlot()) }

// AgentStore owns the two agent slots and the compute bind group of each parity.
// A bind group never names the same slot for reading and writing, so no frame
// can alias its input and output.
type AgentStore struct {
	count  int
	layout gpu.BindGroupLayout
	slots  [SlotCount]gpu.Buffer
	groups [SlotCount]gpu.BindGroup
}

// NewAgentStore uploads agents into both slots and builds the per-parity bind
// groups around params, the parameter uniform buffer.
func NewAgentStore(dev gpu.Device, agents []boid.Agent, params gpu.Buffer) (s *AgentStore, err error) {
	if len(agents) == 0 {
		return nil, errors.New("agent store needs at least one agent")
	}
	s = &AgentStore{count: len(agents)}
	defer func() {
		if err != nil {
			s.Release()
			s = nil
		}
	}()

	slotSize := uint64(len(agents)) * boid.AgentSize
	s.layout, err = dev.CreateBindGroupLayout(&gpu.BindGroupLayoutDescriptor{
		Label: "agents bind group layout",
		Entries: []gpu.BindGroupLayoutEntry{
			{Binding: shaders.BindingParams, Visibility: gpu.ShaderStageCompute, Type: gpu.BindingUniform, MinBindingSize: boid.UniformSize},
			{Binding: shaders.BindingAgentsIn, Visibility: gpu.ShaderStageCompute, Type: gpu.BindingReadOnlyStorage, MinBindingSize: slotSize},
			{Binding: shaders.BindingAgentsOut, Visibility: gpu.ShaderStageCompute, Type: gpu.BindingStorage, MinBindingSize: slotSize},
		},
	})
	if err != nil {
		return s, fmt.Errorf("creating agents bind group layout: %w", err)
	}

	contents := boid.Encode(agents)
	for i := range s.slots {
		s.slots[i], err = dev.CreateBuffer(&gpu.BufferDescriptor{
			Label:    SlotLabel(i),
			Contents: contents,
			Usage:    gpu.BufferUsageVertex | gpu.BufferUsageStorage | gpu.BufferUsageCopyDst,
		})
		if err != nil {
			return s, fmt.Errorf("creating %s: %w", SlotLabel(i), err)
		}
	}

	for i := range s.groups {
		p := Parity(i)
		s.groups[i], err = dev.CreateBindGroup(&gpu.BindGroupDescriptor{
			Label:  BindGroupLabel(p),
			Layout: s.layout,
			Entries: []gpu.BindGroupEntry{
				{Binding: shaders.BindingParams, Buffer: params},
				{Binding: shaders.BindingAgentsIn, Buffer: s.slots[p.ReadSlot()]},
				{Binding: shaders.BindingAgentsOut, Buffer: s.slots[p.WriteSlot()]},
			},
		})
		if err != nil {
			return s, fmt.Errorf("creating %s: %w", BindGroupLabel(p), err)
		}
	}
	return s, nil
}

// SlotLabel is the debug label of slot i.
func SlotLabel(i int) string { return fmt.Sprintf("agents slot %d", i) }

// BindGroupLabel is the debug label of the compute bind group of parity p.
func BindGroupLabel(p Parity) string { return fmt.Sprintf("agents bind group %d", p) }

// Count is the number of agents per slot. It never changes.
func (s *AgentStore) Count() int { return s.count }

// Layout is the compute bind group layout shared by both parities.
func (s *AgentStore) Layout() gpu.BindGroupLayout { return s.layout }

// BindGroupFor returns the compute bind group of parity p.
func (s *AgentStore) BindGroupFor(p Parity) gpu.BindGroup { return s.groups[p] }

// Slot returns agent buffer i.
func (s *AgentStore) Slot(i int) gpu.Buffer { return s.slots[i] }

// Release frees the bind groups, the slots and the layout, in that order.
func (s *AgentStore) Release() {
	for i, g := range s.groups {
		if g != nil {
			g.Release()
			s.groups[i] = nil
		}
	}
	for i, b := range s.slots {
		if b != nil {
			b.Release()
			s.slots[i] = nil
		}
	}
	if s.layout != nil {
		s.layout.Release()
		s.layout = nil
	}
}
