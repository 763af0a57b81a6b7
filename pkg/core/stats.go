package core

import "sync/atomic"

// Stats aggregates process-wide render counters. Hot paths bump these
// atomically; the renderer reports them at the end of a frame.
var Stats struct {
	RaysTraced          atomic.Uint64
	PrimitiveRayTests   atomic.Uint64
	CacheMisses         atomic.Uint64
	Splits              atomic.Uint64
	MicropolysGenerated atomic.Uint64
}

// ResetStats zeroes all counters. Call between frames, not during one.
func ResetStats() {
	Stats.RaysTraced.Store(0)
	Stats.PrimitiveRayTests.Store(0)
	Stats.CacheMisses.Store(0)
	Stats.Splits.Store(0)
	Stats.MicropolysGenerated.Store(0)
}
