package scene

import (
	"github.com/micropath/micropath/pkg/core"
)

// PointLight emits uniformly in all directions from a single point.
type PointLight struct {
	position core.Vec3
	color    core.Vec3
}

func NewPointLight(position, color core.Vec3) *PointLight {
	return &PointLight{position: position, color: color}
}

// Sample returns the radiance arriving at p along with the vector from p
// to the light. Falloff follows the inverse square of the distance.
func (l *PointLight) Sample(p core.Vec3, u, v, time float32) (core.Vec3, core.Vec3) {
	toLight := l.position.Subtract(p)
	return l.Arriving(p, u, v, time), toLight
}

func (l *PointLight) Outgoing(dir core.Vec3, u, v, time float32) core.Vec3 {
	return l.color
}

func (l *PointLight) Arriving(p core.Vec3, u, v, time float32) core.Vec3 {
	distSq := l.position.Subtract(p).LengthSquared()
	if distSq < 1e-12 {
		distSq = 1e-12
	}
	return l.color.Multiply(1.0 / distSq)
}

func (l *PointLight) IsDelta() bool { return true }

func (l *PointLight) IsInfinite() bool { return false }

func (l *PointLight) TotalEnergy() float32 {
	return l.color[0] + l.color[1] + l.color[2]
}

func (l *PointLight) Bounds() core.BBox {
	return core.NewBBox(l.position, l.position)
}
