package scene

import (
	"math"

	"github.com/micropath/micropath/pkg/core"
)

// Camera is a thin-lens projective camera. Transforms map camera space
// (origin at the lens, +Z forward) into world space; more than one
// transform sample gives the camera motion blur.
type Camera struct {
	transforms    core.TimeBox[core.Matrix44]
	tfov          float32
	lensDiameter  float32
	focusDistance float32
}

// NewCamera builds a camera from camera-to-world transform samples.
// fov is the full horizontal field of view in radians. A lens diameter
// of zero gives a pinhole camera; focusDistance only matters when the
// lens has size.
func NewCamera(transforms []core.Matrix44, fov, lensDiameter, focusDistance float32) *Camera {
	if len(transforms) == 0 {
		transforms = []core.Matrix44{core.Identity()}
	}
	half := float64(fov) / 2
	return &Camera{
		transforms:    core.NewTimeBox(transforms...),
		tfov:          float32(math.Tan(half)),
		lensDiameter:  lensDiameter,
		focusDistance: focusDistance,
	}
}

// GenerateRay shoots a ray through the image plane point (x, y), where x
// spans [-1, 1] and y spans the same window scaled by the aspect ratio.
// dx and dy are the image plane footprints of one pixel, u and v pick the
// lens position, and time picks the transform sample.
func (c *Camera) GenerateRay(x, y, dx, dy, time, u, v float32) core.WorldRay {
	ox := c.lensDiameter * (u*2 - 1) * 0.5
	oy := c.lensDiameter * (v*2 - 1) * 0.5
	ox, oy = squareToCircle(ox, oy)

	d := core.NewVec3(x*c.tfov, y*c.tfov, 1)
	if c.focusDistance > 0 {
		d[0] -= ox / c.focusDistance
		d[1] -= oy / c.focusDistance
	}
	d = d.Normalize()

	ff := core.GetConfig().FocusFactor
	wr := core.WorldRay{
		O:    core.NewVec3(ox, oy, 0),
		D:    d,
		ODX:  core.NewVec3(c.lensDiameter*ff, 0, 0),
		ODY:  core.NewVec3(0, c.lensDiameter*ff, 0),
		DDX:  core.NewVec3(dx, 0, 0),
		DDY:  core.NewVec3(0, dy, 0),
		Time: time,
		Type: core.CameraRay,
	}

	m := c.transforms.At(time, core.LerpMatrix)
	wr.O = m.MultPos(wr.O)
	wr.D = m.MultDir(wr.D)
	wr.ODX = m.MultDir(wr.ODX)
	wr.ODY = m.MultDir(wr.ODY)
	wr.DDX = m.MultDir(wr.DDX)
	wr.DDY = m.MultDir(wr.DDY)
	return wr
}

// squareToCircle maps square lens coordinates onto a disk of the same
// radius, preserving relative areas (the concentric map).
func squareToCircle(x, y float32) (float32, float32) {
	if x == 0 && y == 0 {
		return 0, 0
	}
	var r, theta float64
	if absf(x) > absf(y) {
		r = float64(x)
		theta = math.Pi / 4 * float64(y/x)
	} else {
		r = float64(y)
		theta = math.Pi/2 - math.Pi/4*float64(x/y)
	}
	return float32(r * math.Cos(theta)), float32(r * math.Sin(theta))
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
