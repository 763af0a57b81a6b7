package integrator

import (
	"testing"

	"github.com/micropath/micropath/pkg/core"
)

func near(a, b, tol float32) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= tol
}

func vecNear(a, b core.Vec3, tol float32) bool {
	return near(a[0], b[0], tol) && near(a[1], b[1], tol) && near(a[2], b[2], tol)
}

func TestImageWindowFollowsAspect(t *testing.T) {
	img := NewImage(4, 2)
	if img.MinX != -1 || img.MaxX != 1 {
		t.Errorf("x window = [%g, %g], want [-1, 1]", img.MinX, img.MaxX)
	}
	if img.MinY != -0.5 || img.MaxY != 0.5 {
		t.Errorf("y window = [%g, %g], want [-0.5, 0.5]", img.MinY, img.MaxY)
	}
}

func TestImageSplatAndNormalize(t *testing.T) {
	img := NewImage(2, 2)

	img.Splat(0, 0, core.NewVec3(2, 4, 6), 0.5)
	img.Splat(0, 0, core.NewVec3(2, 4, 6), 0.5)
	img.Splat(1, 1, core.NewVec3(1, 1, 1), 2)

	// Out-of-frame splats are dropped silently.
	img.Splat(-1, 0, core.NewVec3(9, 9, 9), 1)
	img.Splat(0, 5, core.NewVec3(9, 9, 9), 1)

	img.Normalize()

	if got := img.Pixel(0, 0); !vecNear(got, core.NewVec3(2, 4, 6), 1e-5) {
		t.Errorf("pixel (0,0) = %v, want (2,4,6)", got)
	}
	if got := img.Pixel(1, 1); !vecNear(got, core.NewVec3(1, 1, 1), 1e-5) {
		t.Errorf("pixel (1,1) = %v, want (1,1,1)", got)
	}
	// Never splatted: stays black instead of dividing zero by zero.
	if got := img.Pixel(1, 0); !vecNear(got, core.NewVec3(0, 0, 0), 1e-7) {
		t.Errorf("untouched pixel = %v, want black", got)
	}
}

func TestImageNormalizeClampsNegative(t *testing.T) {
	img := NewImage(1, 1)
	img.Splat(0, 0, core.NewVec3(1, 1, 1), 1)
	img.Splat(0, 0, core.NewVec3(10, 10, 10), -0.5)
	img.Normalize()

	got := img.Pixel(0, 0)
	for c := 0; c < 3; c++ {
		if got[c] < 0 {
			t.Errorf("channel %d = %g, want clamped to zero", c, got[c])
		}
	}
}

func TestImageToRGBA(t *testing.T) {
	img := NewImage(3, 1)
	img.Splat(0, 0, core.NewVec3(0.25, 0.25, 0.25), 1)
	img.Splat(1, 0, core.NewVec3(0, 0, 0), 1)
	img.Splat(2, 0, core.NewVec3(4, 4, 4), 1)
	img.Normalize()

	rgba := img.ToRGBA(2.0)

	// Gamma 2.0 maps 0.25 to 0.5.
	r, _, _, _ := rgba.At(0, 0).RGBA()
	if got := uint8(r >> 8); got != 128 {
		t.Errorf("0.25 encoded as %d, want 128", got)
	}
	r, _, _, _ = rgba.At(1, 0).RGBA()
	if got := uint8(r >> 8); got != 0 {
		t.Errorf("black encoded as %d, want 0", got)
	}
	r, _, _, a := rgba.At(2, 0).RGBA()
	if got := uint8(r >> 8); got != 255 {
		t.Errorf("overbright encoded as %d, want 255", got)
	}
	if uint8(a>>8) != 255 {
		t.Error("alpha should be opaque")
	}
}
