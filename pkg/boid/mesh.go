package boid

import (
	"encoding/binary"

	"github.com/lao-tseu-is-alive/go-gpu-boids/pkg/geometry"
)

// MeshVertices is the arrow-head drawn for every agent, pointing along +Y in model space.
// The vertex shader rotates it to the agent's heading.
var MeshVertices = [4]geometry.Vec2{
	{X: 0, Y: 0.1},
	{X: -0.045, Y: -0.1},
	{X: 0, Y: -0.065},
	{X: 0.045, Y: -0.1},
}

// MeshIndices are the two triangles of the fan over MeshVertices.
var MeshIndices = [6]uint16{0, 1, 2, 2, 3, 0}

// MeshVertexStride is the byte stride of one mesh vertex (vec2<f32>).
const MeshVertexStride = 8

// MeshVertexBytes returns MeshVertices in GPU layout.
func MeshVertexBytes() []byte {
	b := make([]byte, len(MeshVertices)*MeshVertexStride)
	for i, v := range MeshVertices {
		putF32(b[i*MeshVertexStride:], v.X)
		putF32(b[i*MeshVertexStride+4:], v.Y)
	}
	return b
}

// MeshIndexBytes returns MeshIndices as little-endian uint16s.
func MeshIndexBytes() []byte {
	b := make([]byte, len(MeshIndices)*2)
	for i, idx := range MeshIndices {
		binary.LittleEndian.PutUint16(b[i*2:], idx)
	}
	return b
}

// ReadMeshVertex decodes vertex i from a buffer produced by MeshVertexBytes.
func ReadMeshVertex(b []byte, i int) geometry.Vec2 {
	o := i * MeshVertexStride
	return geometry.Vec2{X: f32(b[o:]), Y: f32(b[o+4:])}
}

// ReadMeshIndex decodes index i from a buffer produced by MeshIndexBytes.
func ReadMeshIndex(b []byte, i int) uint16 {
	return binary.LittleEndian.Uint16(b[i*2:])
}

// Orient places a model-space mesh vertex in world space for an agent at pos heading along vel.
// A zero velocity keeps the model orientation.
func Orient(vertex, pos, vel geometry.Vec2) geometry.Vec2 {
	dir := vel.Normalize()
	if dir == (geometry.Vec2{}) {
		return pos.Add(vertex)
	}
	// model +Y maps to dir, model +X maps to the right-hand perpendicular of dir
	right := geometry.Vec2{X: dir.Y, Y: -dir.X}
	return pos.Add(right.Mul(vertex.X)).Add(dir.Mul(vertex.Y))
}
