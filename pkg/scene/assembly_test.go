package scene

import (
	"testing"

	"github.com/pkg/errors"

	"github.com/micropath/micropath/pkg/core"
	"github.com/micropath/micropath/pkg/geometry"
)

// quad builds a unit-ish patch centered on the origin in the xy plane at
// the given z, with the given half extent.
func quad(z, half float32) *geometry.Bilinear {
	return geometry.NewBilinear([4]core.Vec3{
		core.NewVec3(-half, -half, z),
		core.NewVec3(half, -half, z),
		core.NewVec3(half, half, z),
		core.NewVec3(-half, half, z),
	})
}

func TestCreateInstanceUnknownName(t *testing.T) {
	a := NewAssembly()

	err := a.CreateObjectInstance("ghost", nil)
	if !errors.Is(err, ErrUnknownName) {
		t.Errorf("object instance error = %v, want ErrUnknownName", err)
	}

	err = a.CreateAssemblyInstance("ghost", nil)
	if !errors.Is(err, ErrUnknownName) {
		t.Errorf("assembly instance error = %v, want ErrUnknownName", err)
	}
}

func TestFinalizeBuildsAccelAndLights(t *testing.T) {
	a := NewAssembly()
	a.AddObject("quad", quad(5, 1))
	if err := a.CreateObjectInstance("quad", nil); err != nil {
		t.Fatal(err)
	}
	a.AddLight(NewPointLight(core.NewVec3(0, 3, 0), core.NewVec3(1, 1, 1)))

	if a.Accel() != nil || a.LightTree() != nil {
		t.Fatal("accel and light tree should not exist before finalize")
	}
	if err := a.Finalize(); err != nil {
		t.Fatal(err)
	}
	if a.Accel() == nil {
		t.Error("finalize did not build the BVH")
	}
	if a.LightTree() == nil || a.LightTree().Count() != 1 {
		t.Error("finalize did not build the light table")
	}

	// Finalizing again is a no-op.
	if err := a.Finalize(); err != nil {
		t.Errorf("second finalize: %v", err)
	}
}

func TestInstanceBoundsTranslated(t *testing.T) {
	a := NewAssembly()
	a.AddObject("quad", quad(0, 1))
	err := a.CreateObjectInstance("quad", []core.Transform{
		core.NewTransform(core.NewTranslation(3, 0, 5)),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Finalize(); err != nil {
		t.Fatal(err)
	}

	b := a.Accel().Bounds().At(0, core.LerpBBox)
	if !vecNear(b.Min, core.NewVec3(2, -1, 5), 1e-5) || !vecNear(b.Max, core.NewVec3(4, 1, 5), 1e-5) {
		t.Errorf("instance bounds = [%v, %v], want translated patch box", b.Min, b.Max)
	}
}

func TestInstanceBoundsDenserTransforms(t *testing.T) {
	a := NewAssembly()
	a.AddObject("quad", quad(0, 1))
	err := a.CreateObjectInstance("quad", []core.Transform{
		core.NewTransform(core.NewTranslation(0, 0, 0)),
		core.NewTransform(core.NewTranslation(2, 0, 0)),
		core.NewTransform(core.NewTranslation(4, 0, 0)),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Finalize(); err != nil {
		t.Fatal(err)
	}

	tb := a.Accel().Bounds()
	if tb.Count() != 3 {
		t.Fatalf("bounds sample count = %d, want one per transform", tb.Count())
	}
	for _, tc := range []struct {
		time  float32
		wantX float32
	}{
		{0, 0},
		{0.5, 2},
		{1, 4},
	} {
		b := tb.At(tc.time, core.LerpBBox)
		if !near(b.Center()[0], tc.wantX, 1e-5) {
			t.Errorf("bounds center x at time %g = %g, want %g", tc.time, b.Center()[0], tc.wantX)
		}
	}
}

func TestInstanceBoundsDenserGeometry(t *testing.T) {
	// The patch itself moves with two vertex samples; the single
	// transform must apply to both.
	moving := geometry.NewBilinear(
		[4]core.Vec3{
			core.NewVec3(-1, -1, 0),
			core.NewVec3(1, -1, 0),
			core.NewVec3(1, 1, 0),
			core.NewVec3(-1, 1, 0),
		},
		[4]core.Vec3{
			core.NewVec3(-1, -1, 6),
			core.NewVec3(1, -1, 6),
			core.NewVec3(1, 1, 6),
			core.NewVec3(-1, 1, 6),
		},
	)
	a := NewAssembly()
	a.AddObject("moving", moving)
	err := a.CreateObjectInstance("moving", []core.Transform{
		core.NewTransform(core.NewTranslation(10, 0, 0)),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Finalize(); err != nil {
		t.Fatal(err)
	}

	tb := a.Accel().Bounds()
	if tb.Count() != 2 {
		t.Fatalf("bounds sample count = %d, want one per vertex sample", tb.Count())
	}
	b0 := tb.At(0, core.LerpBBox)
	b1 := tb.At(1, core.LerpBBox)
	if !near(b0.Center()[0], 10, 1e-5) || !near(b1.Center()[0], 10, 1e-5) {
		t.Errorf("translation lost: centers x %g, %g, want 10", b0.Center()[0], b1.Center()[0])
	}
	if !near(b0.Center()[2], 0, 1e-5) || !near(b1.Center()[2], 6, 1e-5) {
		t.Errorf("motion lost: centers z %g, %g, want 0 and 6", b0.Center()[2], b1.Center()[2])
	}
}

func TestInstanceTransformLerp(t *testing.T) {
	a := NewAssembly()
	a.AddObject("quad", quad(0, 1))
	err := a.CreateObjectInstance("quad", []core.Transform{
		core.NewTransform(core.NewTranslation(0, 0, 0)),
		core.NewTransform(core.NewTranslation(8, 0, 0)),
	})
	if err != nil {
		t.Fatal(err)
	}

	inst := a.Instances()[0]
	xf, ok := a.InstanceTransform(inst, 0.25)
	if !ok {
		t.Fatal("expected a transform")
	}
	p := xf.Pos(core.NewVec3(0, 0, 0))
	if !vecNear(p, core.NewVec3(2, 0, 0), 1e-5) {
		t.Errorf("transform at time 0.25 maps origin to %v, want (2,0,0)", p)
	}

	static := NewAssembly()
	static.AddObject("quad", quad(0, 1))
	if err := static.CreateObjectInstance("quad", nil); err != nil {
		t.Fatal(err)
	}
	if _, ok := static.InstanceTransform(static.Instances()[0], 0.5); ok {
		t.Error("instance without transforms reported one")
	}
}

func TestFinalizeSplitsOversizedObjects(t *testing.T) {
	// A 16:1 patch cannot dice at its natural footprint inside one
	// 64x64 grid; halving the long side three times can.
	needle := geometry.NewBilinear([4]core.Vec3{
		core.NewVec3(-8, -0.5, 5),
		core.NewVec3(8, -0.5, 5),
		core.NewVec3(8, 0.5, 5),
		core.NewVec3(-8, 0.5, 5),
	})
	a := NewAssembly()
	a.AddObject("needle", needle)
	if err := a.CreateObjectInstance("needle", nil); err != nil {
		t.Fatal(err)
	}
	if err := a.Finalize(); err != nil {
		t.Fatal(err)
	}

	if got := len(a.Instances()); got != 8 {
		t.Errorf("needle split into %d instances, want 8", got)
	}

	// The pieces together still cover the original bounds.
	b := a.Accel().Bounds().At(0, core.LerpBBox)
	if !vecNear(b.Min, core.NewVec3(-8, -0.5, 5), 1e-4) || !vecNear(b.Max, core.NewVec3(8, 0.5, 5), 1e-4) {
		t.Errorf("split pieces cover [%v, %v], want the original patch", b.Min, b.Max)
	}
}

func TestFinalizeKeepsSquarePatchWhole(t *testing.T) {
	a := NewAssembly()
	a.AddObject("quad", quad(5, 1))
	if err := a.CreateObjectInstance("quad", nil); err != nil {
		t.Fatal(err)
	}
	if err := a.Finalize(); err != nil {
		t.Fatal(err)
	}
	if got := len(a.Instances()); got != 1 {
		t.Errorf("square patch split into %d instances, want 1", got)
	}
}

func TestLightTreeGathersSubAssemblies(t *testing.T) {
	sub := NewAssembly()
	sub.AddLight(NewPointLight(core.NewVec3(1, 1, 1), core.NewVec3(2, 2, 2)))

	root := NewAssembly()
	root.AddAssembly("sub", sub)
	if err := root.CreateAssemblyInstance("sub", nil); err != nil {
		t.Fatal(err)
	}
	root.AddLight(NewSphereLight(core.NewVec3(0, 5, 0), 1, core.NewVec3(3, 3, 3)))

	if err := root.Finalize(); err != nil {
		t.Fatal(err)
	}
	lt := root.LightTree()
	if lt.Count() != 2 {
		t.Fatalf("light table has %d lights, want 2", lt.Count())
	}
	if lt.TotalEnergy() <= 0 {
		t.Error("total energy should be positive")
	}
}

func TestLightTreePick(t *testing.T) {
	lt := &LightTree{}
	for i := 0; i < 3; i++ {
		lt.lights = append(lt.lights, NewPointLight(core.NewVec3(float32(i), 0, 0), core.NewVec3(1, 1, 1)))
	}

	if _, i := lt.Pick(0); i != 0 {
		t.Errorf("Pick(0) = %d, want 0", i)
	}
	if _, i := lt.Pick(0.999); i != 2 {
		t.Errorf("Pick(0.999) = %d, want 2", i)
	}
	if l, i := lt.Pick(1); l == nil || i < 0 || i > 2 {
		t.Errorf("Pick(1) = %d, want a valid index", i)
	}

	empty := &LightTree{}
	if l, i := empty.Pick(0.5); l != nil || i != -1 {
		t.Error("empty table should return nil, -1")
	}
}
