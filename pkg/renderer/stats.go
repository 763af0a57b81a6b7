package renderer

import (
	"time"

	"github.com/micropath/micropath/pkg/core"
	"github.com/micropath/micropath/pkg/geometry"
)

// FrameStats summarizes the work done to render one frame.
type FrameStats struct {
	RaysTraced     uint64
	PrimitiveTests uint64
	CacheMisses    uint64
	Splits         uint64
	Micropolys     uint64
	CacheBytes     uint64
	RenderTime     time.Duration
}

func snapshotStats(elapsed time.Duration) FrameStats {
	return FrameStats{
		RaysTraced:     core.Stats.RaysTraced.Load(),
		PrimitiveTests: core.Stats.PrimitiveRayTests.Load(),
		CacheMisses:    core.Stats.CacheMisses.Load(),
		Splits:         core.Stats.Splits.Load(),
		Micropolys:     core.Stats.MicropolysGenerated.Load(),
		CacheBytes:     geometry.SurfaceCache().UsedBytes(),
		RenderTime:     elapsed,
	}
}
