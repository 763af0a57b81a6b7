package core

import (
	"math"

	"golang.org/x/image/math/f32"
)

// Vec3 is a 3D vector of 32-bit floats. It doubles as an RGB color
// carrier; color math never needs more than linear add and scale.
type Vec3 f32.Vec3

// NewVec3 creates a new Vec3
func NewVec3(x, y, z float32) Vec3 {
	return Vec3{x, y, z}
}

// Add returns the sum of two vectors
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{v[0] + other[0], v[1] + other[1], v[2] + other[2]}
}

// Subtract returns the difference of two vectors
func (v Vec3) Subtract(other Vec3) Vec3 {
	return Vec3{v[0] - other[0], v[1] - other[1], v[2] - other[2]}
}

// Multiply returns the vector scaled by a scalar
func (v Vec3) Multiply(scalar float32) Vec3 {
	return Vec3{v[0] * scalar, v[1] * scalar, v[2] * scalar}
}

// MultiplyVec returns component-wise multiplication of two vectors
func (v Vec3) MultiplyVec(other Vec3) Vec3 {
	return Vec3{v[0] * other[0], v[1] * other[1], v[2] * other[2]}
}

// Dot returns the dot product of two vectors
func (v Vec3) Dot(other Vec3) float32 {
	return v[0]*other[0] + v[1]*other[1] + v[2]*other[2]
}

// Cross returns the cross product of two vectors
func (v Vec3) Cross(other Vec3) Vec3 {
	return Vec3{
		v[1]*other[2] - v[2]*other[1],
		v[2]*other[0] - v[0]*other[2],
		v[0]*other[1] - v[1]*other[0],
	}
}

// Length returns the magnitude of the vector
func (v Vec3) Length() float32 {
	return sqrtf(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// LengthSquared returns the squared magnitude of the vector
func (v Vec3) LengthSquared() float32 {
	return v[0]*v[0] + v[1]*v[1] + v[2]*v[2]
}

// Normalize returns a unit vector in the same direction
func (v Vec3) Normalize() Vec3 {
	length := v.Length()
	if length == 0 {
		return Vec3{}
	}
	return Vec3{v[0] / length, v[1] / length, v[2] / length}
}

// Negate returns the negative of the vector
func (v Vec3) Negate() Vec3 {
	return Vec3{-v[0], -v[1], -v[2]}
}

// Clamp returns a vector with components clamped to [minVal, maxVal]
func (v Vec3) Clamp(minVal, maxVal float32) Vec3 {
	return Vec3{
		max(minVal, min(maxVal, v[0])),
		max(minVal, min(maxVal, v[1])),
		max(minVal, min(maxVal, v[2])),
	}
}

// Lerp returns the linear interpolation between v and other at alpha
func (v Vec3) Lerp(other Vec3, alpha float32) Vec3 {
	return Vec3{
		v[0] + (other[0]-v[0])*alpha,
		v[1] + (other[1]-v[1])*alpha,
		v[2] + (other[2]-v[2])*alpha,
	}
}

// MinVec3 returns the component-wise minimum of two vectors
func MinVec3(a, b Vec3) Vec3 {
	return Vec3{min(a[0], b[0]), min(a[1], b[1]), min(a[2], b[2])}
}

// MaxVec3 returns the component-wise maximum of two vectors
func MaxVec3(a, b Vec3) Vec3 {
	return Vec3{max(a[0], b[0]), max(a[1], b[1]), max(a[2], b[2])}
}

// LerpVec3 is Vec3.Lerp in the function form TimeBox sampling wants.
func LerpVec3(a, b Vec3, alpha float32) Vec3 {
	return a.Lerp(b, alpha)
}

func sqrtf(x float32) float32 {
	return float32(math.Sqrt(float64(x)))
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
