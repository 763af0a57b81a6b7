package core

// Intersection records the result of intersecting one ray against the
// scene. A fresh record has T at infinity so closest-hit comparisons work
// without a separate "first hit" branch.
type Intersection struct {
	Hit        bool
	Backfacing bool

	T float32
	P Vec3

	// In is the incoming ray direction; OW and DW reconstruct the ray's
	// width near the hit as ow + dw*t.
	In Vec3
	OW float32
	DW float32

	N Vec3

	U float32
	V float32

	// Offset nudges spawned rays off the surface: add for reflection,
	// subtract for transmission.
	Offset Vec3

	Col        Vec3
	InstanceID uint32
}

// NewIntersection returns an empty intersection record
func NewIntersection() Intersection {
	return Intersection{T: Inf32}
}

// RayWidth returns the ray's footprint at the hit point
func (i *Intersection) RayWidth() float32 {
	return i.OW + i.DW*i.T
}
