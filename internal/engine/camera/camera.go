// Package camera provides the perspective camera used to render thumbnails.
package camera

import (
	gomath "math"

	"github.com/Faultbox/stlthumb/pkg/math"
)

// Camera is a perspective camera. It is a plain value; callers pass it
// explicitly to whatever renders with it.
type Camera struct {
	Position math.Vec3 // Eye position in world space
	Target   math.Vec3 // Look-at point
	Up       math.Vec3 // Up direction
	FOVY     float64   // Vertical field of view (radians)
	Near     float64   // Near clip distance
	Far      float64   // Far clip distance
}

// New returns a camera at position looking at target with +Y up.
func New(position, target math.Vec3, fovY, near, far float64) Camera {
	return Camera{
		Position: position,
		Target:   target,
		Up:       math.Vec3{Y: 1},
		FOVY:     fovY,
		Near:     near,
		Far:      far,
	}
}

// FOVDegrees returns the vertical field of view in degrees.
func (c Camera) FOVDegrees() float64 {
	return c.FOVY * 180 / gomath.Pi
}

// Distance returns the distance from eye to target.
func (c Camera) Distance() float64 {
	return c.Position.Distance(c.Target)
}

// Forward returns the unit viewing direction.
func (c Camera) Forward() math.Vec3 {
	return c.Target.Sub(c.Position).Normalize()
}

// ViewMatrix returns the world-to-view transform.
func (c Camera) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Position, c.Target, c.Up)
}

// ProjectionMatrix returns the perspective projection for the given aspect
// ratio (width/height).
func (c Camera) ProjectionMatrix(aspect float64) math.Mat4 {
	return math.Perspective(c.FOVY, aspect, c.Near, c.Far)
}

// ViewProjection returns projection * view.
func (c Camera) ViewProjection(aspect float64) math.Mat4 {
	return c.ProjectionMatrix(aspect).Mul(c.ViewMatrix())
}

// VisibleHeight returns the height of the view frustum at the given depth.
func (c Camera) VisibleHeight(depth float64) float64 {
	return 2 * gomath.Tan(c.FOVY/2) * depth
}
