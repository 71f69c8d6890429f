// Package boid holds the agent record shared by the compute kernel and the instanced draw,
// the tunable flocking parameters, and a CPU version of the flocking step.
//
// Boids is an artificial life program, developed by Craig Reynolds in 1986,
// which simulates the flocking behaviour of birds. https://en.wikipedia.org/wiki/Boids
package boid

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/lao-tseu-is-alive/go-gpu-boids/pkg/geometry"
)

// AgentSize is the byte stride of one Agent in a storage or vertex buffer.
// It must match the WGSL struct and the instance vertex layout.
const AgentSize = 32

// Byte offsets of the Agent fields, used by the instance vertex layout.
const (
	PositionOffset = 0
	VelocityOffset = 8
	ColorOffset    = 16
)

// Agent is one boid. The trailing pad keeps the stride at 32 bytes (a multiple of 16).
type Agent struct {
	Position geometry.Vec2
	Velocity geometry.Vec2
	Color    [3]float32
	_        float32
}

// IsFinite reports whether position and velocity hold no NaN or infinity.
func (a Agent) IsFinite() bool {
	return a.Position.IsFinite() && a.Velocity.IsFinite()
}

func (a Agent) String() string {
	return fmt.Sprintf("pos=%v vel=%v rgb=(%.2f, %.2f, %.2f)", a.Position, a.Velocity, a.Color[0], a.Color[1], a.Color[2])
}

// PutAgent writes a at the start of b, which must hold at least AgentSize bytes.
func PutAgent(b []byte, a Agent) {
	putF32(b[0:], a.Position.X)
	putF32(b[4:], a.Position.Y)
	putF32(b[8:], a.Velocity.X)
	putF32(b[12:], a.Velocity.Y)
	putF32(b[16:], a.Color[0])
	putF32(b[20:], a.Color[1])
	putF32(b[24:], a.Color[2])
	putF32(b[28:], 0)
}

// ReadAgent decodes the Agent stored at the start of b.
func ReadAgent(b []byte) Agent {
	return Agent{
		Position: geometry.Vec2{X: f32(b[0:]), Y: f32(b[4:])},
		Velocity: geometry.Vec2{X: f32(b[8:]), Y: f32(b[12:])},
		Color:    [3]float32{f32(b[16:]), f32(b[20:]), f32(b[24:])},
	}
}

// Encode packs agents into the little-endian layout the GPU reads.
func Encode(agents []Agent) []byte {
	out := make([]byte, len(agents)*AgentSize)
	for i, a := range agents {
		PutAgent(out[i*AgentSize:], a)
	}
	return out
}

// Decode unpacks a buffer produced by Encode or by the compute kernel.
func Decode(b []byte) ([]Agent, error) {
	if len(b)%AgentSize != 0 {
		return nil, fmt.Errorf("agent buffer of %d bytes is not a multiple of %d", len(b), AgentSize)
	}
	agents := make([]Agent, len(b)/AgentSize)
	for i := range agents {
		agents[i] = ReadAgent(b[i*AgentSize:])
	}
	return agents, nil
}

func putF32(b []byte, v float32) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
}

func f32(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}
