package core

import (
	"math"

	"golang.org/x/image/math/f32"
)

// Matrix44 is a 4x4 affine transform matrix in row-major order, where
// m[4*r+c] is the element in the r'th row and c'th column.
type Matrix44 f32.Mat4

// Identity returns the identity matrix
func Identity() Matrix44 {
	return Matrix44{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// NewTranslation returns a matrix translating by (x, y, z)
func NewTranslation(x, y, z float32) Matrix44 {
	m := Identity()
	m[3] = x
	m[7] = y
	m[11] = z
	return m
}

// NewScale returns a matrix scaling by (x, y, z)
func NewScale(x, y, z float32) Matrix44 {
	m := Identity()
	m[0] = x
	m[5] = y
	m[10] = z
	return m
}

// NewRotationX returns a matrix rotating by angle radians around the X axis
func NewRotationX(angle float32) Matrix44 {
	s := float32(math.Sin(float64(angle)))
	c := float32(math.Cos(float64(angle)))
	m := Identity()
	m[5], m[6] = c, -s
	m[9], m[10] = s, c
	return m
}

// NewRotationY returns a matrix rotating by angle radians around the Y axis
func NewRotationY(angle float32) Matrix44 {
	s := float32(math.Sin(float64(angle)))
	c := float32(math.Cos(float64(angle)))
	m := Identity()
	m[0], m[2] = c, s
	m[8], m[10] = -s, c
	return m
}

// NewRotationZ returns a matrix rotating by angle radians around the Z axis
func NewRotationZ(angle float32) Matrix44 {
	s := float32(math.Sin(float64(angle)))
	c := float32(math.Cos(float64(angle)))
	m := Identity()
	m[0], m[1] = c, -s
	m[4], m[5] = s, c
	return m
}

// Mul returns the matrix product m * other, so that
// m.Mul(other).MultPos(p) == m.MultPos(other.MultPos(p)).
func (m Matrix44) Mul(other Matrix44) Matrix44 {
	var out Matrix44
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += m[4*r+k] * other[4*k+c]
			}
			out[4*r+c] = sum
		}
	}
	return out
}

// MultPos applies the matrix to a position, including translation
func (m Matrix44) MultPos(v Vec3) Vec3 {
	return Vec3{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2] + m[3],
		m[4]*v[0] + m[5]*v[1] + m[6]*v[2] + m[7],
		m[8]*v[0] + m[9]*v[1] + m[10]*v[2] + m[11],
	}
}

// MultDir applies the matrix to a direction, ignoring translation
func (m Matrix44) MultDir(v Vec3) Vec3 {
	return Vec3{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2],
		m[4]*v[0] + m[5]*v[1] + m[6]*v[2],
		m[8]*v[0] + m[9]*v[1] + m[10]*v[2],
	}
}

// MultDirTranspose applies the matrix transpose to a direction. Normals
// transform by the inverse transpose of the point matrix, so applying this
// to the point matrix's inverse handles them without another inversion.
func (m Matrix44) MultDirTranspose(v Vec3) Vec3 {
	return Vec3{
		m[0]*v[0] + m[4]*v[1] + m[8]*v[2],
		m[1]*v[0] + m[5]*v[1] + m[9]*v[2],
		m[2]*v[0] + m[6]*v[1] + m[10]*v[2],
	}
}

// Inverse returns the inverse of an affine matrix (bottom row 0,0,0,1).
// A singular matrix returns the identity.
func (m Matrix44) Inverse() Matrix44 {
	// Cofactors of the upper-left 3x3.
	c00 := m[5]*m[10] - m[6]*m[9]
	c01 := m[6]*m[8] - m[4]*m[10]
	c02 := m[4]*m[9] - m[5]*m[8]

	det := m[0]*c00 + m[1]*c01 + m[2]*c02
	if det == 0 {
		return Identity()
	}
	inv := 1.0 / det

	out := Matrix44{
		c00 * inv, (m[2]*m[9] - m[1]*m[10]) * inv, (m[1]*m[6] - m[2]*m[5]) * inv, 0,
		c01 * inv, (m[0]*m[10] - m[2]*m[8]) * inv, (m[2]*m[4] - m[0]*m[6]) * inv, 0,
		c02 * inv, (m[1]*m[8] - m[0]*m[9]) * inv, (m[0]*m[5] - m[1]*m[4]) * inv, 0,
		0, 0, 0, 1,
	}

	// Inverse translation: -R' * t
	t := Vec3{m[3], m[7], m[11]}
	it := out.MultDir(t)
	out[3] = -it[0]
	out[7] = -it[1]
	out[11] = -it[2]
	return out
}

// LerpMatrix returns the component-wise interpolation of two matrices.
// Good enough for shutter-interval motion blur between nearby transforms.
func LerpMatrix(a, b Matrix44, alpha float32) Matrix44 {
	var out Matrix44
	for i := range a {
		out[i] = a[i] + (b[i]-a[i])*alpha
	}
	return out
}

// Transform pairs a forward matrix with its precomputed inverse.
type Transform struct {
	Fwd Matrix44
	Inv Matrix44
}

// NewTransform creates a transform from a forward matrix, computing the inverse
func NewTransform(m Matrix44) Transform {
	return Transform{Fwd: m, Inv: m.Inverse()}
}

// IdentityTransform returns the identity transform
func IdentityTransform() Transform {
	return Transform{Fwd: Identity(), Inv: Identity()}
}

// Mul composes two transforms: applying the result equals applying other
// first, then t.
func (t Transform) Mul(other Transform) Transform {
	return Transform{
		Fwd: t.Fwd.Mul(other.Fwd),
		Inv: other.Inv.Mul(t.Inv),
	}
}

// Pos applies the forward transform to a position
func (t Transform) Pos(v Vec3) Vec3 {
	return t.Fwd.MultPos(v)
}

// Dir applies the forward transform to a direction
func (t Transform) Dir(v Vec3) Vec3 {
	return t.Fwd.MultDir(v)
}

// InvPos applies the inverse transform to a position
func (t Transform) InvPos(v Vec3) Vec3 {
	return t.Inv.MultPos(v)
}

// InvDir applies the inverse transform to a direction
func (t Transform) InvDir(v Vec3) Vec3 {
	return t.Inv.MultDir(v)
}

// LerpTransform interpolates the forward matrices and recomputes the
// inverse, so the pair stays consistent at intermediate times.
func LerpTransform(a, b Transform, alpha float32) Transform {
	return NewTransform(LerpMatrix(a.Fwd, b.Fwd, alpha))
}
