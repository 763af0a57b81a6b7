package integrator

import "math"

// FilterRadius is the half-width in pixels of the reconstruction window;
// each sample splats into the (2r+1) by (2r+1) pixels around it.
const FilterRadius = 2

// Filter weighs a sample's contribution to a nearby pixel by the offset
// between them, in pixels.
type Filter interface {
	Eval(x, y float32) float32
}

// MitchellFilter is the Mitchell-Netravali reconstruction filter with B
// tied to 1-2C, the usual quality constraint. Larger C sharpens.
type MitchellFilter struct {
	C float32
}

func (f MitchellFilter) Eval(x, y float32) float32 {
	return mitchell1D(x, f.C) * mitchell1D(y, f.C)
}

func mitchell1D(x, c float32) float32 {
	b := 1 - 2*c
	x = abs32(x)
	switch {
	case x > 2:
		return 0
	case x > 1:
		return ((-b-6*c)*x*x*x + (6*b+30*c)*x*x + (-12*b-48*c)*x + (8*b + 24*c)) / 6
	default:
		return ((12-9*b-6*c)*x*x*x + (-18+12*b+6*c)*x*x + (6 - 2*b)) / 6
	}
}

// GaussianFilter falls off as a gaussian with the given standard
// deviation in pixels. It never goes negative, trading sharpness for
// freedom from ringing.
type GaussianFilter struct {
	Width float32
}

func (f GaussianFilter) Eval(x, y float32) float32 {
	w2 := 2 * f.Width * f.Width
	return exp32(-x*x/w2) * exp32(-y*y/w2)
}

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

func exp32(x float32) float32 {
	return float32(math.Exp(float64(x)))
}
