package core

// TransferDifferential projects a ray origin differential onto the surface
// hit at distance t along the primary ray, so footprint tracking can stay
// consistent across bounces. normal and d must be normalized. Returns
// false when d is perpendicular to normal; a grazing differential has no
// meaningful projection.
//
// Secondary-ray integrators may use this to seed the differentials of
// spawned rays; the direct-lighting integrator does not need it.
func TransferDifferential(normal, d Vec3, t float32, od, dd Vec3) (Vec3, bool) {
	dn := d.Dot(normal)
	if dn == 0 {
		return Vec3{}, false
	}

	moved := od.Add(dd.Multiply(t))
	td := moved.Dot(normal) / dn
	return moved.Subtract(d.Multiply(td)), true
}
