package core

import "math"

// BBox is an axis-aligned bounding box
type BBox struct {
	Min Vec3
	Max Vec3
}

// NewBBox creates a new BBox from min and max corners
func NewBBox(min, max Vec3) BBox {
	return BBox{Min: min, Max: max}
}

// EmptyBBox returns a degenerate box that unions as the empty set
func EmptyBBox() BBox {
	inf := float32(math.Inf(1))
	return BBox{
		Min: Vec3{inf, inf, inf},
		Max: Vec3{-inf, -inf, -inf},
	}
}

// NewBBoxFromPoints creates a BBox that bounds all given points
func NewBBoxFromPoints(points ...Vec3) BBox {
	if len(points) == 0 {
		return EmptyBBox()
	}
	b := BBox{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		b.Min = MinVec3(b.Min, p)
		b.Max = MaxVec3(b.Max, p)
	}
	return b
}

// Union returns a BBox that bounds both boxes
func (b BBox) Union(other BBox) BBox {
	return BBox{
		Min: MinVec3(b.Min, other.Min),
		Max: MaxVec3(b.Max, other.Max),
	}
}

// UnionPoint returns a BBox grown to include a point
func (b BBox) UnionPoint(p Vec3) BBox {
	return BBox{
		Min: MinVec3(b.Min, p),
		Max: MaxVec3(b.Max, p),
	}
}

// Expand returns a BBox inflated by amount in all directions
func (b BBox) Expand(amount float32) BBox {
	e := Vec3{amount, amount, amount}
	return BBox{Min: b.Min.Subtract(e), Max: b.Max.Add(e)}
}

// Transformed returns the BBox of this box's corners under the matrix
func (b BBox) Transformed(m Matrix44) BBox {
	out := EmptyBBox()
	for i := 0; i < 8; i++ {
		p := Vec3{b.Min[0], b.Min[1], b.Min[2]}
		if i&1 != 0 {
			p[0] = b.Max[0]
		}
		if i&2 != 0 {
			p[1] = b.Max[1]
		}
		if i&4 != 0 {
			p[2] = b.Max[2]
		}
		out = out.UnionPoint(m.MultPos(p))
	}
	return out
}

// Center returns the center point of the box
func (b BBox) Center() Vec3 {
	return b.Min.Add(b.Max).Multiply(0.5)
}

// Size returns the extent of the box along each axis
func (b BBox) Size() Vec3 {
	return b.Max.Subtract(b.Min)
}

// SurfaceArea returns the surface area of the box
func (b BBox) SurfaceArea() float32 {
	s := b.Size()
	return 2.0 * (s[0]*s[1] + s[1]*s[2] + s[2]*s[0])
}

// LongestAxis returns the axis (0=X, 1=Y, 2=Z) with the longest extent
func (b BBox) LongestAxis() int {
	s := b.Size()
	if s[0] > s[1] && s[0] > s[2] {
		return 0
	}
	if s[1] > s[2] {
		return 1
	}
	return 2
}

// IsValid returns true if min <= max on all axes
func (b BBox) IsValid() bool {
	return b.Min[0] <= b.Max[0] && b.Min[1] <= b.Max[1] && b.Min[2] <= b.Max[2]
}

// Intersect slab-tests the box against a finalized ray over [0, maxT].
// On a hit it returns the clamped entry and exit distances.
func (b BBox) Intersect(r *Ray, maxT float32) (tnear, tfar float32, ok bool) {
	tmin := float32(0)
	tmax := maxT

	for axis := 0; axis < 3; axis++ {
		// A ray parallel to the slab either misses outright or
		// constrains nothing on this axis.
		if r.D[axis] == 0 {
			if r.O[axis] < b.Min[axis] || r.O[axis] > b.Max[axis] {
				return 0, 0, false
			}
			continue
		}

		t1 := (b.Min[axis] - r.O[axis]) * r.DInv[axis]
		t2 := (b.Max[axis] - r.O[axis]) * r.DInv[axis]
		if r.DSign[axis] != 0 {
			t1, t2 = t2, t1
		}

		if t1 > tmin {
			tmin = t1
		}
		if t2 < tmax {
			tmax = t2
		}
		if tmin > tmax {
			return 0, 0, false
		}
	}

	return tmin, tmax, true
}

// LerpBBox interpolates two boxes corner-wise, for motion-blurred bounds.
func LerpBBox(a, b BBox, alpha float32) BBox {
	return BBox{
		Min: a.Min.Lerp(b.Min, alpha),
		Max: a.Max.Lerp(b.Max, alpha),
	}
}
