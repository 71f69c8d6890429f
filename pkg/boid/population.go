package boid

import (
	"math/rand/v2"

	"github.com/lao-tseu-is-alive/go-gpu-boids/pkg/geometry"
)

// Spawn bounds of the initial population.
const (
	SpawnExtent = 10.0
	SpawnSpeed  = 1.0
)

// NewRand returns the PCG generator used to seed populations.
// The same seed always yields the same sequence.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

// NewPopulation draws count agents from rng: positions uniform in [-10, 10),
// velocity components uniform in [-1, 1) and color channels uniform in [0, 1).
// It only touches the generator it is given.
func NewPopulation(rng *rand.Rand, count int) []Agent {
	agents := make([]Agent, count)
	for i := range agents {
		agents[i] = Agent{
			Position: geometry.Vec2{X: uniform(rng, SpawnExtent), Y: uniform(rng, SpawnExtent)},
			Velocity: geometry.Vec2{X: uniform(rng, SpawnSpeed), Y: uniform(rng, SpawnSpeed)},
			Color:    [3]float32{rng.Float32(), rng.Float32(), rng.Float32()},
		}
	}
	return agents
}

// uniform returns a value in [-extent, extent).
func uniform(rng *rand.Rand, extent float32) float32 {
	return (rng.Float32()*2 - 1) * extent
}
