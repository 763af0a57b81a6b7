package geometry

import (
	"github.com/micropath/micropath/pkg/cache"
	"github.com/micropath/micropath/pkg/core"
)

// surfaceCache holds diced microsurfaces for every patch in the scene,
// shared across render workers.
var surfaceCache = cache.New[*MicroSurface](core.DefaultConfig().GridCacheBytes)

// SurfaceCache exposes the shared microsurface cache.
func SurfaceCache() *cache.LRU[*MicroSurface] {
	return surfaceCache
}

// ResetSurfaceCache drops all cached surfaces and applies a new byte
// budget. Call it before rendering starts, never while rays are in flight.
func ResetSurfaceCache(maxBytes uint64) {
	surfaceCache = cache.New[*MicroSurface](maxBytes)
}
