package boid

import (
	"encoding/binary"
	"math"
)

// UniformSize is the byte size of the parameter uniform block: nine f32 fields
// padded to a 16-byte multiple.
const UniformSize = 48

// Params controls the flocking force law. It is fixed once the simulation starts.
type Params struct {
	SeparationReach  float32 `json:"separationReach"`  // neighbours closer than this push away
	SeparationScale  float32 `json:"separationScale"`  // strength of the push
	AlignmentReach   float32 `json:"alignmentReach"`   // neighbours closer than this share heading
	AlignmentScale   float32 `json:"alignmentScale"`   // strength of heading matching
	CohesionReach    float32 `json:"cohesionReach"`    // neighbours closer than this pull together
	CohesionScale    float32 `json:"cohesionScale"`    // strength of the pull
	ColorMult        float32 `json:"colorMult"`        // how fast colors blend with neighbours
	StepMult         float32 `json:"stepMult"`         // multiplier applied to the measured frame delta
	CenterAttraction float32 `json:"centerAttraction"` // pull toward the world origin
}

// DefaultParams returns the tuning the simulation ships with.
func DefaultParams() Params {
	return Params{
		SeparationReach:  4.0,
		SeparationScale:  1.0,
		AlignmentReach:   1.0,
		AlignmentScale:   3.5,
		CohesionReach:    4.0,
		CohesionScale:    3.0,
		ColorMult:        1.0,
		StepMult:         2.0,
		CenterAttraction: 0.05,
	}
}

// Uniforms is the per-frame snapshot uploaded to the parameter channel.
type Uniforms struct {
	DeltaTime        float32
	SeparationReach  float32
	SeparationScale  float32
	AlignmentReach   float32
	AlignmentScale   float32
	CohesionReach    float32
	CohesionScale    float32
	ColorMult        float32
	CenterAttraction float32
}

// Snapshot derives this frame's uniforms. dt is the measured frame delta in seconds;
// the uploaded delta is dt * StepMult.
func (p Params) Snapshot(dt float32) Uniforms {
	return Uniforms{
		DeltaTime:        dt * p.StepMult,
		SeparationReach:  p.SeparationReach,
		SeparationScale:  p.SeparationScale,
		AlignmentReach:   p.AlignmentReach,
		AlignmentScale:   p.AlignmentScale,
		CohesionReach:    p.CohesionReach,
		CohesionScale:    p.CohesionScale,
		ColorMult:        p.ColorMult,
		CenterAttraction: p.CenterAttraction,
	}
}

// Marshal returns the little-endian byte layout of the WGSL SimParams struct.
func (u Uniforms) Marshal() []byte {
	b := make([]byte, UniformSize)
	fields := [...]float32{
		u.DeltaTime,
		u.SeparationReach,
		u.SeparationScale,
		u.AlignmentReach,
		u.AlignmentScale,
		u.CohesionReach,
		u.CohesionScale,
		u.ColorMult,
		u.CenterAttraction,
	}
	for i, f := range fields {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(f))
	}
	return b
}

// UnmarshalUniforms decodes a block produced by Marshal.
func UnmarshalUniforms(b []byte) Uniforms {
	return Uniforms{
		DeltaTime:        f32(b[0:]),
		SeparationReach:  f32(b[4:]),
		SeparationScale:  f32(b[8:]),
		AlignmentReach:   f32(b[12:]),
		AlignmentScale:   f32(b[16:]),
		CohesionReach:    f32(b[20:]),
		CohesionScale:    f32(b[24:]),
		ColorMult:        f32(b[28:]),
		CenterAttraction: f32(b[32:]),
	}
}
