package geometry

import "github.com/micropath/micropath/pkg/core"

// Grid is a regular lattice of micropolygon vertices with one position per
// time sample. All time samples of a lattice point sit adjacent in memory,
// so interpolating a vertex to an arbitrary time touches one cache line.
type Grid struct {
	RU, RV    int // vertices per side
	TimeCount int

	// Verts holds RU*RV*TimeCount positions, indexed
	// (RU*y + x)*TimeCount + time.
	Verts []core.Vec3

	// Parametric coordinates of the lattice corners, in the order
	// (0,0), (RU-1,0), (RU-1,RV-1), (0,RV-1).
	U1, V1 float32
	U2, V2 float32
	U3, V3 float32
	U4, V4 float32
}

// NewGrid allocates a grid of ru by rv vertices with timeCount time samples.
func NewGrid(ru, rv, timeCount int) *Grid {
	return &Grid{
		RU:        ru,
		RV:        rv,
		TimeCount: timeCount,
		Verts:     make([]core.Vec3, ru*rv*timeCount),
	}
}

// Faces returns the number of micropolygons in the grid.
func (g *Grid) Faces() int {
	return (g.RU - 1) * (g.RV - 1)
}

// Vert returns the vertex at lattice position (x, y) for one time sample.
func (g *Grid) Vert(x, y, time int) core.Vec3 {
	return g.Verts[(g.RU*y+x)*g.TimeCount+time]
}

// SetVert stores the vertex at lattice position (x, y) for one time sample.
func (g *Grid) SetVert(x, y, time int, v core.Vec3) {
	g.Verts[(g.RU*y+x)*g.TimeCount+time] = v
}

// VertAt returns the vertex at (x, y) interpolated to an arbitrary time.
func (g *Grid) VertAt(x, y int, time float32) core.Vec3 {
	base := (g.RU*y + x) * g.TimeCount
	i, alpha := core.SampleIndex(g.TimeCount, time)
	if alpha == 0 {
		return g.Verts[base+i]
	}
	return g.Verts[base+i].Lerp(g.Verts[base+i+1], alpha)
}

// UV returns the parametric coordinates of lattice point (x, y).
func (g *Grid) UV(x, y int) (float32, float32) {
	var fx, fy float32
	if g.RU > 1 {
		fx = float32(x) / float32(g.RU-1)
	}
	if g.RV > 1 {
		fy = float32(y) / float32(g.RV-1)
	}
	return g.uvAt(fx, fy)
}

// uvAt bilinearly blends the corner parametric coordinates at fractional
// lattice coordinates in [0,1].
func (g *Grid) uvAt(fx, fy float32) (float32, float32) {
	u := lerpf(lerpf(g.U1, g.U2, fx), lerpf(g.U4, g.U3, fx), fy)
	v := lerpf(lerpf(g.V1, g.V2, fx), lerpf(g.V4, g.V3, fx), fy)
	return u, v
}

func lerpf(a, b, alpha float32) float32 {
	return a + (b-a)*alpha
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
