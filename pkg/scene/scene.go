// Package scene holds the scene graph: assemblies of instanced objects
// and lights under time-sampled transforms, the camera, and the BVH that
// accelerates instance lookup.
package scene

import (
	"github.com/micropath/micropath/pkg/core"
)

// Scene ties a camera to the root assembly. Background is the radiance
// returned for rays that leave the scene.
type Scene struct {
	Camera     *Camera
	Root       *Assembly
	Background core.Vec3
}

func NewScene(camera *Camera, root *Assembly) *Scene {
	return &Scene{Camera: camera, Root: root}
}

// Finalize prepares the scene for rendering. Must be called once before
// tracing; afterwards the scene is immutable.
func (s *Scene) Finalize() error {
	return s.Root.Finalize()
}
