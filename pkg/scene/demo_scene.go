package scene

import (
	"fmt"
	"math"

	"pgregory.net/rand"

	"github.com/micropath/micropath/pkg/core"
	"github.com/micropath/micropath/pkg/geometry"
)

// NewDemoScene builds the default preset: a field of tilted panels over
// a floor, a two-patch pedestal assembly instanced twice, a sphere light
// overhead and a cool point fill.
func NewDemoScene() *Scene {
	rng := rand.New(7)
	root := NewAssembly()

	floor := geometry.NewBilinear([4]core.Vec3{
		core.NewVec3(-10, 0, -10),
		core.NewVec3(10, 0, -10),
		core.NewVec3(10, 0, 10),
		core.NewVec3(-10, 0, 10),
	})
	floor.SetColor(core.NewVec3(0.85, 0.85, 0.85))
	root.AddObject("floor", floor)
	mustInstanceObject(root, "floor", nil)

	palette := []core.Vec3{
		core.NewVec3(0.9, 0.3, 0.25),
		core.NewVec3(0.25, 0.6, 0.9),
		core.NewVec3(0.95, 0.8, 0.3),
	}
	for i, col := range palette {
		panel := geometry.NewBilinear([4]core.Vec3{
			core.NewVec3(-0.5, 0, -0.5),
			core.NewVec3(0.5, 0, -0.5),
			core.NewVec3(0.5, 0, 0.5),
			core.NewVec3(-0.5, 0, 0.5),
		})
		panel.SetColor(col)
		root.AddObject(fmt.Sprintf("panel_%d", i), panel)
	}

	// 5x5 grid of panels with jittered heights and tilts.
	for i := 0; i < 5; i++ {
		for j := 0; j < 5; j++ {
			x := float32(i-2) * 1.6
			z := float32(j-2) * 1.6
			h := 0.4 + rng.Float32()*1.2
			m := core.NewTranslation(x, h, z).
				Mul(core.NewRotationY(rng.Float32() * 2 * float32(math.Pi))).
				Mul(core.NewRotationX(0.3 + rng.Float32()*0.5))
			name := fmt.Sprintf("panel_%d", rng.Intn(len(palette)))
			mustInstanceObject(root, name, []core.Transform{core.NewTransform(m)})
		}
	}

	// Pedestal: a small assembly instanced at two corners.
	ped := NewAssembly()
	for k, c := range [][4]core.Vec3{
		{
			core.NewVec3(-0.4, 0, -0.4),
			core.NewVec3(0.4, 0, -0.4),
			core.NewVec3(0.4, 1.4, -0.4),
			core.NewVec3(-0.4, 1.4, -0.4),
		},
		{
			core.NewVec3(-0.4, 0, 0.4),
			core.NewVec3(0.4, 0, 0.4),
			core.NewVec3(0.4, 1.4, 0.4),
			core.NewVec3(-0.4, 1.4, 0.4),
		},
	} {
		side := geometry.NewBilinear(c)
		side.SetColor(core.NewVec3(0.7, 0.72, 0.75))
		name := fmt.Sprintf("side_%d", k)
		ped.AddObject(name, side)
		mustInstanceObject(ped, name, nil)
	}
	root.AddAssembly("pedestal", ped)
	mustInstanceAssembly(root, "pedestal", []core.Transform{
		core.NewTransform(core.NewTranslation(-4, 0, -4)),
	})
	mustInstanceAssembly(root, "pedestal", []core.Transform{
		core.NewTransform(core.NewTranslation(4, 0, -4).Mul(core.NewRotationY(0.6))),
	})

	root.AddLight(NewSphereLight(core.NewVec3(0, 7, 0), 1.2, core.NewVec3(22, 21, 19)))
	root.AddLight(NewPointLight(core.NewVec3(-5, 3.5, -3), core.NewVec3(4, 5, 8)))

	camToWorld := core.NewTranslation(0, 3, -8).Mul(core.NewRotationX(0.3))
	cam := NewCamera([]core.Matrix44{camToWorld}, 55*float32(math.Pi)/180, 0, 8)

	sc := NewScene(cam, root)
	sc.Background = core.NewVec3(0.04, 0.05, 0.08)
	return sc
}

// NewMotionScene is a minimal motion blur preset: one panel sweeping
// sideways under a two-sample transform, a static panel behind it for
// reference, and a single light.
func NewMotionScene() *Scene {
	root := NewAssembly()

	panel := geometry.NewBilinear([4]core.Vec3{
		core.NewVec3(-0.6, -0.6, 0),
		core.NewVec3(0.6, -0.6, 0),
		core.NewVec3(0.6, 0.6, 0),
		core.NewVec3(-0.6, 0.6, 0),
	})
	panel.SetColor(core.NewVec3(0.9, 0.4, 0.3))
	root.AddObject("mover", panel)
	mustInstanceObject(root, "mover", []core.Transform{
		core.NewTransform(core.NewTranslation(-1.5, 0, 4)),
		core.NewTransform(core.NewTranslation(1.5, 0, 4)),
	})

	back := geometry.NewBilinear([4]core.Vec3{
		core.NewVec3(-4, -2.5, 7),
		core.NewVec3(4, -2.5, 7),
		core.NewVec3(4, 2.5, 7),
		core.NewVec3(-4, 2.5, 7),
	})
	back.SetColor(core.NewVec3(0.4, 0.45, 0.5))
	root.AddObject("backdrop", back)
	mustInstanceObject(root, "backdrop", nil)

	root.AddLight(NewSphereLight(core.NewVec3(0, 4, 0), 0.8, core.NewVec3(30, 30, 28)))

	cam := NewCamera([]core.Matrix44{core.Identity()}, 50*float32(math.Pi)/180, 0, 4)

	sc := NewScene(cam, root)
	sc.Background = core.NewVec3(0.02, 0.02, 0.03)
	return sc
}

// Preset builders only reference names they just added, so instance
// creation cannot fail; a panic here means the builder itself is broken.
func mustInstanceObject(a *Assembly, name string, xforms []core.Transform) {
	if err := a.CreateObjectInstance(name, xforms); err != nil {
		panic(err)
	}
}

func mustInstanceAssembly(a *Assembly, name string, xforms []core.Transform) {
	if err := a.CreateAssemblyInstance(name, xforms); err != nil {
		panic(err)
	}
}
