package scene

// LightTree is the flat table of finite lights an assembly exposes for
// direct-light sampling. Infinite lights are left out; the integrator
// handles those on ray misses.
type LightTree struct {
	lights      []Light
	totalEnergy float32
}

// newLightTree gathers the finite lights of an assembly and all of its
// sub-assemblies. A light instanced through multiple sub-assembly
// instances still enters the table once.
func newLightTree(root *Assembly) *LightTree {
	lt := &LightTree{}
	var collect func(a *Assembly)
	collect = func(a *Assembly) {
		for _, l := range a.lights {
			if l.IsInfinite() {
				continue
			}
			lt.lights = append(lt.lights, l)
			lt.totalEnergy += l.TotalEnergy()
		}
		for _, sub := range a.assemblies {
			collect(sub)
		}
	}
	collect(root)
	return lt
}

func (lt *LightTree) Count() int {
	return len(lt.lights)
}

// Pick maps a unit uniform onto one light of the table. Every light is
// picked with equal probability; the caller compensates by scaling the
// sampled radiance by Count. Returns nil and -1 when the table is empty.
func (lt *LightTree) Pick(u float32) (Light, int) {
	n := len(lt.lights)
	if n == 0 {
		return nil, -1
	}
	i := int(u*float32(n)) % n
	if i < 0 {
		i = 0
	}
	return lt.lights[i], i
}

func (lt *LightTree) Light(i int) Light {
	return lt.lights[i]
}

func (lt *LightTree) TotalEnergy() float32 {
	return lt.totalEnergy
}
