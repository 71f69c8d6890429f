package geometry

import (
	"fmt"
	"math"
)

// Epsilon is the tolerance used by Eq.
// float32 carries about 7 significant digits, so this is much looser than a float64 epsilon.
const (
	Epsilon = 1e-5
)

// Vec2 is a 2D vector in single precision, matching the vec2<f32> the GPU sees.
// Fields are public so literals like Vec2{1, 2} work.
type Vec2 struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

// Splat returns a vector with both components set to s.
func Splat(s float32) Vec2 {
	return Vec2{s, s}
}

// String implements the fmt.Stringer interface.
func (v Vec2) String() string {
	return fmt.Sprintf("(%.3f, %.3f)", v.X, v.Y)
}

// ---------------------------------------------------------------------
// Arithmetic Operations
// Value receivers, new values returned.
// ---------------------------------------------------------------------

// Add adds two vectors and returns the result.
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{v.X + other.X, v.Y + other.Y}
}

// Sub subtracts the other vector from the current vector.
func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{v.X - other.X, v.Y - other.Y}
}

// Mul scales the vector by a scalar value.
func (v Vec2) Mul(scalar float32) Vec2 {
	return Vec2{v.X * scalar, v.Y * scalar}
}

// MulVec multiplies component-wise.
func (v Vec2) MulVec(other Vec2) Vec2 {
	return Vec2{v.X * other.X, v.Y * other.Y}
}

// DivVec divides component-wise. A zero component of other yields an infinite component,
// callers that divide by a viewport size must reject zero sizes first.
func (v Vec2) DivVec(other Vec2) Vec2 {
	return Vec2{v.X / other.X, v.Y / other.Y}
}

// ---------------------------------------------------------------------
// Magnitude and Normalization
// ---------------------------------------------------------------------

// LenSqr calculates the squared magnitude of the vector. Use it for range comparisons.
func (v Vec2) LenSqr() float32 {
	return v.X*v.X + v.Y*v.Y
}

// Len calculates the magnitude of the vector.
func (v Vec2) Len() float32 {
	return float32(math.Hypot(float64(v.X), float64(v.Y)))
}

// Normalize returns a unit vector in the same direction, or the zero vector
// when the length is effectively zero.
func (v Vec2) Normalize() Vec2 {
	l := v.Len()
	if l < Epsilon {
		return Vec2{}
	}
	return v.Mul(1 / l)
}

// ---------------------------------------------------------------------
// Comparison
// ---------------------------------------------------------------------

// Eq checks if two vectors are approximately equal using Epsilon.
func (v Vec2) Eq(other Vec2) bool {
	return abs32(v.X-other.X) <= Epsilon && abs32(v.Y-other.Y) <= Epsilon
}

// IsFinite reports whether neither component is NaN or infinite.
func (v Vec2) IsFinite() bool {
	return isFinite32(v.X) && isFinite32(v.Y)
}

func abs32(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}

func isFinite32(f float32) bool {
	return !math.IsNaN(float64(f)) && !math.IsInf(float64(f), 0)
}
