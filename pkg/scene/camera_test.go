package scene

import (
	"math"
	"testing"

	"github.com/micropath/micropath/pkg/core"
)

func TestCameraCenterRay(t *testing.T) {
	cam := NewCamera(nil, float32(math.Pi)/2, 0, 0)
	wr := cam.GenerateRay(0, 0, 0.01, 0.01, 0, 0.5, 0.5)

	if !vecNear(wr.O, core.NewVec3(0, 0, 0), 1e-6) {
		t.Errorf("pinhole origin = %v, want the lens center", wr.O)
	}
	if !vecNear(wr.D, core.NewVec3(0, 0, 1), 1e-6) {
		t.Errorf("center ray direction = %v, want +z", wr.D)
	}
	if wr.Type != core.CameraRay {
		t.Errorf("ray type = %v, want camera", wr.Type)
	}
}

func TestCameraFieldOfView(t *testing.T) {
	// With a 90 degree fov the image plane edge x=1 maps to a 45 degree
	// direction.
	cam := NewCamera(nil, float32(math.Pi)/2, 0, 0)
	wr := cam.GenerateRay(1, 0, 0.01, 0.01, 0, 0.5, 0.5)

	want := core.NewVec3(1, 0, 1).Normalize()
	if !vecNear(wr.D, want, 1e-5) {
		t.Errorf("edge ray direction = %v, want %v", wr.D, want)
	}
}

func TestCameraDifferentials(t *testing.T) {
	cam := NewCamera(nil, float32(math.Pi)/2, 0, 0)
	wr := cam.GenerateRay(0, 0, 0.004, 0.002, 0, 0.5, 0.5)

	if !vecNear(wr.DDX, core.NewVec3(0.004, 0, 0), 1e-7) {
		t.Errorf("DDX = %v, want pixel footprint on x", wr.DDX)
	}
	if !vecNear(wr.DDY, core.NewVec3(0, 0.002, 0), 1e-7) {
		t.Errorf("DDY = %v, want pixel footprint on y", wr.DDY)
	}
	// Pinhole cameras have no origin differentials.
	if !vecNear(wr.ODX, core.NewVec3(0, 0, 0), 1e-7) || !vecNear(wr.ODY, core.NewVec3(0, 0, 0), 1e-7) {
		t.Errorf("pinhole origin differentials = %v, %v, want zero", wr.ODX, wr.ODY)
	}
}

func TestCameraLensSampling(t *testing.T) {
	orig := *core.GetConfig()
	defer core.SetConfig(orig)
	cfg := core.DefaultConfig()
	cfg.FocusFactor = 0.5
	core.SetConfig(cfg)

	lensD := float32(0.4)
	cam := NewCamera(nil, float32(math.Pi)/2, lensD, 3)

	// The center lens sample stays a pinhole ray.
	wr := cam.GenerateRay(0, 0, 0.01, 0.01, 0, 0.5, 0.5)
	if !vecNear(wr.O, core.NewVec3(0, 0, 0), 1e-6) {
		t.Errorf("center lens sample origin = %v, want lens center", wr.O)
	}

	// Any sample stays within the lens radius, and the origin
	// differentials carry the focus-scaled lens size.
	for _, uv := range [][2]float32{{0, 0}, {1, 1}, {0.25, 0.8}, {0.9, 0.1}} {
		wr = cam.GenerateRay(0, 0, 0.01, 0.01, 0, uv[0], uv[1])
		r := float32(math.Hypot(float64(wr.O[0]), float64(wr.O[1])))
		if r > lensD/2+1e-5 {
			t.Errorf("lens sample %v lies outside the lens: radius %g", uv, r)
		}
	}
	if !vecNear(wr.ODX, core.NewVec3(lensD*0.5, 0, 0), 1e-6) {
		t.Errorf("ODX = %v, want lens diameter times focus factor", wr.ODX)
	}
}

func TestCameraFocusConvergence(t *testing.T) {
	// Rays from opposite lens edges toward the image center cross at the
	// focus distance.
	focus := float32(5)
	cam := NewCamera(nil, float32(math.Pi)/2, 0.5, focus)

	left := cam.GenerateRay(0, 0, 0.01, 0.01, 0, 0, 0.5)
	right := cam.GenerateRay(0, 0, 0.01, 0.01, 0, 1, 0.5)

	// Advance each ray to z = focus and compare x.
	tl := focus / left.D[2]
	tr := focus / right.D[2]
	pl := left.O.Add(left.D.Multiply(tl))
	pr := right.O.Add(right.D.Multiply(tr))
	if !vecNear(pl, pr, 1e-4) {
		t.Errorf("lens edge rays meet at %v and %v, want the same focus point", pl, pr)
	}
}

func TestCameraTransformMotion(t *testing.T) {
	xforms := []core.Matrix44{
		core.NewTranslation(0, 0, 0),
		core.NewTranslation(4, 0, 0),
	}
	cam := NewCamera(xforms, float32(math.Pi)/2, 0, 0)

	for _, tc := range []struct {
		time  float32
		wantX float32
	}{
		{0, 0},
		{0.5, 2},
		{1, 4},
	} {
		wr := cam.GenerateRay(0, 0, 0.01, 0.01, tc.time, 0.5, 0.5)
		if !near(wr.O[0], tc.wantX, 1e-5) {
			t.Errorf("camera origin x at time %g = %g, want %g", tc.time, wr.O[0], tc.wantX)
		}
		if !vecNear(wr.D, core.NewVec3(0, 0, 1), 1e-6) {
			t.Errorf("translation changed direction: %v", wr.D)
		}
	}
}

func TestSquareToCircle(t *testing.T) {
	for _, tc := range []struct {
		x, y   float32
		wx, wy float32
	}{
		{0, 0, 0, 0},
		{1, 0, 1, 0},
		{0, 1, 0, 1},
		{-1, 0, -1, 0},
	} {
		gx, gy := squareToCircle(tc.x, tc.y)
		if !near(gx, tc.wx, 1e-6) || !near(gy, tc.wy, 1e-6) {
			t.Errorf("squareToCircle(%g, %g) = (%g, %g), want (%g, %g)",
				tc.x, tc.y, gx, gy, tc.wx, tc.wy)
		}
	}

	// Corners land on the unit circle, not outside it.
	gx, gy := squareToCircle(1, 1)
	r := float32(math.Hypot(float64(gx), float64(gy)))
	if !near(r, 1, 1e-5) {
		t.Errorf("corner maps to radius %g, want 1", r)
	}
}
