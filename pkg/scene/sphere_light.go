package scene

import (
	"math"

	"github.com/micropath/micropath/pkg/core"
)

// SphereLight is a spherical area emitter with uniform surface radiance.
type SphereLight struct {
	center core.Vec3
	radius float32
	color  core.Vec3
}

func NewSphereLight(center core.Vec3, radius float32, color core.Vec3) *SphereLight {
	return &SphereLight{center: center, radius: radius, color: color}
}

// Sample picks a uniform point on the sphere's surface and returns the
// radiance arriving at p from it, together with the vector from p to the
// sampled point.
func (l *SphereLight) Sample(p core.Vec3, u, v, time float32) (core.Vec3, core.Vec3) {
	q := l.center.Add(uniformSphere(u, v).Multiply(l.radius))
	toLight := q.Subtract(p)
	return l.arrivingFrom(toLight.LengthSquared()), toLight
}

func (l *SphereLight) Outgoing(dir core.Vec3, u, v, time float32) core.Vec3 {
	return l.color
}

func (l *SphereLight) Arriving(p core.Vec3, u, v, time float32) core.Vec3 {
	return l.arrivingFrom(l.center.Subtract(p).LengthSquared())
}

// arrivingFrom scales the surface radiance by the solid-angle falloff.
// Points inside the sphere clamp to the surface value.
func (l *SphereLight) arrivingFrom(distSq float32) core.Vec3 {
	rSq := l.radius * l.radius
	if distSq < rSq {
		distSq = rSq
	}
	if distSq < 1e-12 {
		distSq = 1e-12
	}
	return l.color.Multiply(rSq / distSq)
}

func (l *SphereLight) IsDelta() bool { return false }

func (l *SphereLight) IsInfinite() bool { return false }

func (l *SphereLight) TotalEnergy() float32 {
	area := 4 * float32(math.Pi) * l.radius * l.radius
	return (l.color[0] + l.color[1] + l.color[2]) * area
}

func (l *SphereLight) Bounds() core.BBox {
	r := core.NewVec3(l.radius, l.radius, l.radius)
	return core.NewBBox(l.center.Subtract(r), l.center.Add(r))
}

// uniformSphere maps two unit uniforms onto the unit sphere.
func uniformSphere(u, v float32) core.Vec3 {
	z := 1 - 2*u
	r := float32(math.Sqrt(math.Max(0, float64(1-z*z))))
	phi := 2 * float32(math.Pi) * v
	return core.NewVec3(
		r*float32(math.Cos(float64(phi))),
		r*float32(math.Sin(float64(phi))),
		z,
	)
}
