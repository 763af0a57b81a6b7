package geometry

import "github.com/micropath/micropath/pkg/core"

const (
	// triEpsilon rejects ray-triangle determinants too small to invert.
	triEpsilon = 1e-7

	// minHitOffset keeps shading offsets above float32 noise even for
	// needle-thin footprints.
	minHitOffset = 1e-5

	// microSurfaceOverhead approximates the fixed allocations a cached
	// surface carries besides its vertex payload.
	microSurfaceOverhead = 192
)

// MicroSurface is a diced grid ready for ray tests. It is immutable once
// built, so cached surfaces are shared freely between workers.
type MicroSurface struct {
	grid   *Grid
	bounds core.TimeBox[core.BBox]
	col    core.Vec3
}

// NewMicroSurface wraps a freshly diced grid, taking ownership of it.
func NewMicroSurface(grid *Grid, col core.Vec3) *MicroSurface {
	boxes := make([]core.BBox, grid.TimeCount)
	for i := range boxes {
		boxes[i] = core.EmptyBBox()
	}
	for i, v := range grid.Verts {
		t := i % grid.TimeCount
		boxes[t] = boxes[t].UnionPoint(v)
	}
	return &MicroSurface{
		grid:   grid,
		bounds: core.NewTimeBox(boxes...),
		col:    col,
	}
}

// Res returns the vertex resolution of the underlying grid.
func (s *MicroSurface) Res() (int, int) {
	return s.grid.RU, s.grid.RV
}

// Bounds returns the time-sampled bounds of the diced surface.
func (s *MicroSurface) Bounds() core.TimeBox[core.BBox] {
	return s.bounds
}

// Bytes reports resident memory for cache accounting. Vertex storage
// dominates, so that is what gets counted.
func (s *MicroSurface) Bytes() uint64 {
	return uint64(len(s.grid.Verts))*12 + uint64(s.grid.TimeCount)*24 + microSurfaceOverhead
}

// IntersectRay walks the micropolygons and keeps the nearest hit inside
// the ray's [MinT, MaxT]. width is the ray footprint at the surface, used
// to pad the bounds test. Occlusion rays, and callers passing a nil isect,
// get an answer on the first hit found.
func (s *MicroSurface) IntersectRay(ray *core.Ray, width float32, isect *core.Intersection) bool {
	bounds := s.bounds.At(ray.Time, core.LerpBBox).Expand(width)
	if _, _, ok := bounds.Intersect(ray, ray.MaxT); !ok {
		return false
	}

	anyHit := ray.IsOcclusion() || isect == nil
	closest := ray.MaxT
	if isect != nil && isect.Hit && isect.T < closest {
		closest = isect.T
	}

	hit := false
	for y := 0; y < s.grid.RV-1; y++ {
		for x := 0; x < s.grid.RU-1; x++ {
			p00 := s.grid.VertAt(x, y, ray.Time)
			p10 := s.grid.VertAt(x+1, y, ray.Time)
			p11 := s.grid.VertAt(x+1, y+1, ray.Time)
			p01 := s.grid.VertAt(x, y+1, ray.Time)

			// Each micropolygon is two triangles sharing the 00-11
			// diagonal. Cell coordinates come back from the winning
			// triangle's barycentrics.
			t1, b1u, b1v, ok1 := intersectTriangle(ray, p00, p10, p11, closest)
			t2, b2u, b2v, ok2 := intersectTriangle(ray, p00, p11, p01, closest)

			var t, cu, cv float32
			var e1, e2 core.Vec3
			switch {
			case ok1 && (!ok2 || t1 <= t2):
				t, cu, cv = t1, b1u+b1v, b1v
				e1, e2 = p10.Subtract(p00), p11.Subtract(p00)
			case ok2:
				t, cu, cv = t2, b2u, b2u+b2v
				e1, e2 = p11.Subtract(p00), p01.Subtract(p00)
			default:
				continue
			}

			hit = true
			if anyHit {
				if isect != nil {
					isect.Hit = true
					isect.T = t
				}
				return true
			}
			closest = t

			n := e1.Cross(e2).Normalize()
			backfacing := n.Dot(ray.D) > 0
			if backfacing {
				n = n.Negate()
			}
			fx := (float32(x) + cu) / float32(s.grid.RU-1)
			fy := (float32(y) + cv) / float32(s.grid.RV-1)
			u, v := s.grid.uvAt(fx, fy)

			ow := ray.Width(0)
			dw := float32(0)
			if t > 0 {
				dw = (ray.Width(t) - ow) / t
			}

			isect.Hit = true
			isect.Backfacing = backfacing
			isect.T = t
			isect.P = ray.At(t)
			isect.In = ray.D
			isect.N = n
			isect.U, isect.V = u, v
			isect.OW, isect.DW = ow, dw
			isect.Offset = n.Multiply(maxf(ow+dw*t, minHitOffset))
			isect.Col = s.col
		}
	}
	return hit
}

// intersectTriangle runs Möller-Trumbore against one micropolygon half,
// returning the hit distance and barycentric coordinates.
func intersectTriangle(ray *core.Ray, v0, v1, v2 core.Vec3, tMax float32) (t, u, v float32, ok bool) {
	edge1 := v1.Subtract(v0)
	edge2 := v2.Subtract(v0)

	h := ray.D.Cross(edge2)
	a := edge1.Dot(h)
	if a > -triEpsilon && a < triEpsilon {
		return 0, 0, 0, false
	}

	f := 1.0 / a
	s := ray.O.Subtract(v0)
	u = f * s.Dot(h)
	if u < 0 || u > 1 {
		return 0, 0, 0, false
	}

	q := s.Cross(edge1)
	v = f * ray.D.Dot(q)
	if v < 0 || u+v > 1 {
		return 0, 0, 0, false
	}

	t = f * edge2.Dot(q)
	if t < ray.MinT || t > tMax {
		return 0, 0, 0, false
	}
	return t, u, v, true
}
