package geometry

import "github.com/micropath/micropath/pkg/core"

// Primitive is a piece of geometry that can bound itself over the shutter
// interval and answer ray queries in its own local space.
type Primitive interface {
	// Bounds returns time-sampled boxes covering the primitive for the
	// whole shutter interval, padded for any displacement.
	Bounds() core.TimeBox[core.BBox]

	// IntersectRay tests the ray against the primitive. On a hit closer
	// than isect.T it fills isect and returns true. Occlusion rays may
	// pass a nil isect, in which case any hit suffices.
	IntersectRay(ray *core.Ray, isect *core.Intersection) bool
}

// Diceable primitives tessellate into micropolygon grids sized to a ray
// footprint, and can split in parameter space when one grid would blow
// past the dicing limits.
type Diceable interface {
	Primitive

	// MicroEstimate returns the micropolygon count dicing at the given
	// footprint would produce, ignoring the grid size clamp. Scene
	// builders use it to choose between dicing and splitting.
	MicroEstimate(width float32) int

	// MicroGenerate dices the primitive so micropolygons span roughly
	// the given footprint.
	MicroGenerate(width float32) *MicroSurface

	// Split cuts the primitive in two across its longer parametric
	// direction.
	Split() (Diceable, Diceable)
}
