package scene

import (
	"github.com/micropath/micropath/pkg/core"
)

// Light is an emitter the integrator can sample directly. Lights live in
// assemblies but are not geometry: they never block rays, and instance
// transforms do not apply to them.
type Light interface {
	// Sample picks a point on the light for shading the surface point p.
	// It returns the arriving radiance at p and the unnormalized vector
	// from p to the sampled point; the vector's length is the occlusion
	// test extent.
	Sample(p core.Vec3, u, v, time float32) (core.Vec3, core.Vec3)

	// Outgoing returns the radiance leaving the light in the given
	// direction.
	Outgoing(dir core.Vec3, u, v, time float32) core.Vec3

	// Arriving returns the radiance arriving at p without sampling a
	// direction.
	Arriving(p core.Vec3, u, v, time float32) core.Vec3

	// IsDelta reports whether the light has zero area.
	IsDelta() bool

	// IsInfinite reports whether the light sits at infinity, like an
	// environment. Infinite lights are excluded from the light table.
	IsInfinite() bool

	// TotalEnergy approximates the light's total output, used as a
	// relative weight when picking among lights.
	TotalEnergy() float32

	Bounds() core.BBox
}
