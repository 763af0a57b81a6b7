package core

// TimeBox holds an ordered sequence of samples of a time-varying quantity
// over the shutter interval [0,1]. A single sample means the quantity is
// static; an empty TimeBox must not be sampled.
type TimeBox[T any] struct {
	Samples []T
}

// NewTimeBox creates a TimeBox over the given samples
func NewTimeBox[T any](samples ...T) TimeBox[T] {
	return TimeBox[T]{Samples: samples}
}

// Count returns the number of time samples
func (tb TimeBox[T]) Count() int {
	return len(tb.Samples)
}

// SampleIndex maps a time in [0,1] to a sample index and a fractional alpha
// for a sequence of count evenly spaced time samples. The value at that time
// is lerp(alpha, sample[i], sample[i+1]). With a single sample it returns
// (0, 0).
func SampleIndex(count int, time float32) (int, float32) {
	if count <= 1 {
		return 0, 0
	}

	scaled := time * float32(count-1)
	i := int(scaled)
	if i < 0 {
		i = 0
	}
	if i > count-2 {
		i = count - 2
	}
	return i, scaled - float32(i)
}

// Sample maps a time in [0,1] to a sample index and a fractional alpha
// such that the value at that time is lerp(alpha, Samples[i], Samples[i+1]).
// With a single sample it returns (0, 0). Panics on an empty TimeBox.
func (tb TimeBox[T]) Sample(time float32) (int, float32) {
	if len(tb.Samples) == 0 {
		panic("core: sampling an empty TimeBox")
	}
	return SampleIndex(len(tb.Samples), time)
}

// At returns the interpolated value at the given time, using lerp to blend
// adjacent samples.
func (tb TimeBox[T]) At(time float32, lerp func(a, b T, alpha float32) T) T {
	i, alpha := tb.Sample(time)
	if alpha == 0 {
		return tb.Samples[i]
	}
	return lerp(tb.Samples[i], tb.Samples[i+1], alpha)
}

// Resampled returns a TimeBox with count samples evaluated at evenly spaced
// times. Used to reconcile quantities stored at different motion-blur rates.
func (tb TimeBox[T]) Resampled(count int, lerp func(a, b T, alpha float32) T) TimeBox[T] {
	if count < 1 || len(tb.Samples) == count {
		out := make([]T, len(tb.Samples))
		copy(out, tb.Samples)
		return TimeBox[T]{Samples: out}
	}

	out := make([]T, count)
	if count == 1 {
		out[0] = tb.At(0.5, lerp)
		return TimeBox[T]{Samples: out}
	}
	for j := 0; j < count; j++ {
		out[j] = tb.At(float32(j)/float32(count-1), lerp)
	}
	return TimeBox[T]{Samples: out}
}
