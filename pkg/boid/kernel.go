package boid

import (
	"fmt"
	"math"

	"github.com/lao-tseu-is-alive/go-gpu-boids/pkg/geometry"
)

// WorkgroupSize is the @workgroup_size of the compute entry point.
const WorkgroupSize = 64

// MaxSpeed caps the velocity magnitude after forces are applied.
const MaxSpeed = 4.0

// Step computes the next state of agent idx from the previous slot in.
// It reads every agent and returns one; it never mutates in. This is the CPU
// twin of the WGSL compute entry point and follows it line for line.
func Step(u Uniforms, in []Agent, idx int) Agent {
	self := in[idx]

	// force accumulators
	var separation, velSum, posSum geometry.Vec2
	var colorSum [3]float32
	aligned, cohesive := 0, 0

	sepSq := u.SeparationReach * u.SeparationReach
	alignSq := u.AlignmentReach * u.AlignmentReach
	cohSq := u.CohesionReach * u.CohesionReach

	for j := range in {
		if j == idx {
			continue
		}
		other := &in[j]
		d := self.Position.Sub(other.Position)
		distSq := d.LenSqr()
		// coincident agents have no direction to push along
		if distSq == 0 {
			continue
		}

		// 1. Separation, fading linearly to zero at the reach
		if distSq < sepSq {
			dist := float32(math.Sqrt(float64(distSq)))
			separation = separation.Add(d.Mul((u.SeparationReach - dist) / (u.SeparationReach * dist)))
		}

		// 2. Alignment (heading and color)
		if distSq < alignSq {
			velSum = velSum.Add(other.Velocity)
			colorSum[0] += other.Color[0]
			colorSum[1] += other.Color[1]
			colorSum[2] += other.Color[2]
			aligned++
		}

		// 3. Cohesion
		if distSq < cohSq {
			posSum = posSum.Add(other.Position)
			cohesive++
		}
	}

	acc := separation.Mul(u.SeparationScale)
	color := self.Color

	if aligned > 0 {
		inv := 1 / float32(aligned)
		avgVel := velSum.Mul(inv)
		acc = acc.Add(avgVel.Sub(self.Velocity).Mul(u.AlignmentScale))

		t := clamp01(u.ColorMult * u.DeltaTime)
		for c := range color {
			color[c] += (colorSum[c]*inv - color[c]) * t
		}
	}

	if cohesive > 0 {
		avgPos := posSum.Mul(1 / float32(cohesive))
		acc = acc.Add(avgPos.Sub(self.Position).Mul(u.CohesionScale))
	}

	acc = acc.Sub(self.Position.Mul(u.CenterAttraction))

	vel := self.Velocity.Add(acc.Mul(u.DeltaTime))
	if speed := vel.Len(); speed > MaxSpeed {
		vel = vel.Mul(MaxSpeed / speed)
	}

	return Agent{
		Position: self.Position.Add(vel.Mul(u.DeltaTime)),
		Velocity: vel,
		Color:    color,
	}
}

// Run executes one dispatch on raw buffers: params is the uniform block, in the
// read-only slot and out the writable slot. Invocations past the agent count are
// ignored, the same bounds check the WGSL kernel does.
func Run(params, in, out []byte, invocations uint32) error {
	if len(params) < UniformSize {
		return fmt.Errorf("uniform block is %d bytes, want at least %d", len(params), UniformSize)
	}
	if len(in) != len(out) {
		return fmt.Errorf("agent slots differ in size: %d != %d", len(in), len(out))
	}
	agents, err := Decode(in)
	if err != nil {
		return err
	}
	u := UnmarshalUniforms(params)
	n := min(int(invocations), len(agents))
	for i := 0; i < n; i++ {
		PutAgent(out[i*AgentSize:], Step(u, agents, i))
	}
	return nil
}

func clamp01(f float32) float32 {
	return max(0, min(1, f))
}
