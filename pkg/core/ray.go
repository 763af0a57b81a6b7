package core

import "math"

// Inf32 is the float32 infinity used as the "no bound yet" ray extent.
var Inf32 = float32(math.Inf(1))

// RayType classifies a world ray by how it was spawned.
type RayType uint8

const (
	CameraRay RayType = iota
	ReflectDiffuseRay
	ReflectSpecularRay
	TransmitDiffuseRay
	TransmitSpecularRay
	OcclusionRay
)

// RayFlag holds per-ray status bits used by the tracer.
type RayFlag uint32

const (
	// RayOcclusion marks an any-hit shadow ray.
	RayOcclusion RayFlag = 1 << iota
	// RayDone marks a ray whose traversal has finished.
	RayDone
	// RayDeeperSplit records that dicing was clamped by the grid size
	// cap and the primitive would rather have been split further.
	RayDeeperSplit
)

// OcclusionMinT is how far a shadow ray must travel before hits count,
// avoiding self-intersection with the surface that spawned it.
const OcclusionMinT = 0.01

// BitStack is a 64-level stack of single bits. Rays record BVH descent
// decisions on it so traversal can be suspended and resumed.
type BitStack uint64

// Push pushes the low bit of b
func (s *BitStack) Push(b uint32) {
	*s = (*s << 1) | BitStack(b&1)
}

// Pop removes and returns the top bit
func (s *BitStack) Pop() uint32 {
	b := uint32(*s & 1)
	*s >>= 1
	return b
}

// Peek returns the top bit without removing it
func (s *BitStack) Peek() uint32 {
	return uint32(*s & 1)
}

// Ray is the traversal-facing ray: a finalized origin/direction pair plus
// the compact per-axis width state that approximates its footprint along t.
// Width along each image axis follows
//
//	w(t) = |ow - fw + dw*t| + fw
//
// and the ray's width is the smaller of the two axes. The floor term fw
// models the waist where the differential rays cross the primary.
type Ray struct {
	O Vec3
	D Vec3

	MinT float32
	MaxT float32
	Time float32

	// Width state, indexed by image axis (0 = X, 1 = Y).
	OW [2]float32
	DW [2]float32
	FW [2]float32

	// Precomputed by Finalize for slab tests.
	DInv  Vec3
	DSign [3]uint32

	Flags RayFlag
	ID    uint32

	// TScale converts this ray's t values back to world units after
	// lowering through an instance transform: tWorld = tLocal / TScale.
	TScale float32

	// TravStack records BVH descent decisions for resumable traversal.
	TravStack BitStack
}

// NewRay creates an unbounded ray at time 0. Finalize must be called
// before the ray is traced.
func NewRay(origin, direction Vec3) Ray {
	return Ray{O: origin, D: direction, MaxT: Inf32, TScale: 1}
}

// Finalize normalizes the direction and computes the data slab tests
// depend on. The direction must be non-zero.
func (r *Ray) Finalize() {
	r.D = r.D.Normalize()
	if r.TScale == 0 {
		r.TScale = 1
	}

	r.DInv = Vec3{1.0 / r.D[0], 1.0 / r.D[1], 1.0 / r.D[2]}
	for i := 0; i < 3; i++ {
		if r.D[i] < 0 {
			r.DSign[i] = 1
		} else {
			r.DSign[i] = 0
		}
	}
}

// At returns the point at distance t along the ray
func (r *Ray) At(t float32) Vec3 {
	return r.O.Add(r.D.Multiply(t))
}

func (r *Ray) widthAxis(axis int, t float32) float32 {
	return absf(r.OW[axis]-r.FW[axis]+r.DW[axis]*t) + r.FW[axis]
}

// Width returns the approximate footprint of the ray at distance t.
func (r *Ray) Width(t float32) float32 {
	return min(r.widthAxis(0, t), r.widthAxis(1, t))
}

func (r *Ray) minWidthAxis(axis int, tnear, tfar float32) float32 {
	if r.DW[axis] != 0 {
		// The waist is where the absolute term crosses zero; inside
		// the range, the axis bottoms out at its floor.
		tflip := (r.FW[axis] - r.OW[axis]) / r.DW[axis]
		if tflip >= tnear && tflip <= tfar {
			return r.FW[axis]
		}
	}
	return min(r.widthAxis(axis, tnear), r.widthAxis(axis, tfar))
}

// MinWidth returns the smallest footprint the ray takes on anywhere in
// [tnear, tfar]. Primitives use it to pick dicing rates for the whole
// range they occupy.
func (r *Ray) MinWidth(tnear, tfar float32) float32 {
	return min(r.minWidthAxis(0, tnear, tfar), r.minWidthAxis(1, tnear, tfar))
}

// IsOcclusion reports whether this is an any-hit shadow ray
func (r *Ray) IsOcclusion() bool {
	return r.Flags&RayOcclusion != 0
}

// WorldRay is the integrator-facing ray: world-space origin and direction
// plus the four differential vectors describing how the ray changes per
// image and lens coordinate. Occlusion rays encode their extent as the
// length of D and carry no differentials.
type WorldRay struct {
	O Vec3
	D Vec3

	ODX, ODY Vec3 // origin differentials
	DDX, DDY Vec3 // direction differentials

	Time float32
	Type RayType
}

// widthParams collapses one origin/direction differential pair into the
// (ow, dw, fw) width state. It finds the t where the differential ray
// passes closest to the primary; if that t is not ahead of the origin the
// differentials diverge from the start and there is no waist.
func widthParams(od, dd Vec3) (ow, dw, fw float32) {
	ow = od.Length()

	ddSq := dd.LengthSquared()
	if ddSq == 0 {
		return ow, 0, 0
	}

	t := -od.Dot(dd) / ddSq
	if t <= 0 {
		return ow, dd.Length(), 0
	}

	fw = od.Add(dd.Multiply(t)).Length()
	return ow, (fw - ow) / t, fw
}

// ToRay lowers the world ray into the space of the given matrix and
// finalizes it. Differentials transform as directions and are collapsed
// into width state; t values scale with the transform, so the returned
// ray's MaxT already accounts for it. worldMaxT bounds the ray in world
// units (pass Inf32 for "no bound").
func (wr WorldRay) ToRay(m Matrix44, worldMaxT float32) Ray {
	r := Ray{Time: wr.Time, ID: 0, TScale: 1}

	dLen := wr.D.Length()
	if dLen == 0 {
		r.Flags |= RayDone
		r.D = Vec3{0, 0, 1}
		r.Finalize()
		return r
	}

	r.O = m.MultPos(wr.O)
	rawD := m.MultDir(wr.D)
	rawLen := rawD.Length()
	r.D = rawD
	r.TScale = rawLen / dLen

	if wr.Type == OcclusionRay {
		r.Flags |= RayOcclusion
		r.MinT = OcclusionMinT * r.TScale
		r.MaxT = rawLen // |D| carries the world distance to the light
	} else {
		r.MaxT = Inf32

		invL := 1.0 / r.TScale
		r.OW[0], r.DW[0], r.FW[0] = widthParams(m.MultDir(wr.ODX), m.MultDir(wr.DDX).Multiply(invL))
		r.OW[1], r.DW[1], r.FW[1] = widthParams(m.MultDir(wr.ODY), m.MultDir(wr.DDY).Multiply(invL))
	}

	if worldMaxT < Inf32 {
		r.MaxT = min(r.MaxT, worldMaxT*r.TScale)
	}

	r.Finalize()
	return r
}
