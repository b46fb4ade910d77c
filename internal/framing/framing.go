// Package framing computes the camera and model transform for a thumbnail.
//
// Given a mesh it centres the model at the origin, optionally turns a Z-up
// model into Y-up, places a camera at a fixed oblique offset and scales the
// model so it fills a fixed fraction of the view height. The result depends
// only on the input geometry and options.
package framing

import (
	gomath "math"

	"github.com/Faultbox/stlthumb/internal/engine/camera"
	"github.com/Faultbox/stlthumb/pkg/math"
	"github.com/Faultbox/stlthumb/pkg/stl"
)

const (
	// DefaultFOVDegrees is the vertical field of view.
	DefaultFOVDegrees = 35.0
	// DefaultMargin is the fraction of the view height the model fills.
	DefaultMargin = 0.9
	// Epsilon replaces a zero model extent.
	Epsilon = 1e-6

	nearFactor = 0.01
	farFactor  = 10.0
)

// CameraOffset is the camera direction, in multiples of the framing
// distance. It gives a three-quarter view rather than a flat front view.
var CameraOffset = math.Vec3{X: 0.6, Y: 0.3, Z: 1.2}

// ZUpToYUp is the fixed -90 degree turn about X applied when
// Options.RotateZUpToYUp is set.
var ZUpToYUp = math.RotateX(-gomath.Pi / 2)

// Options controls framing.
type Options struct {
	FOVDegrees     float64 // Vertical field of view in degrees, (0, 180)
	Margin         float64 // Fraction of the view height to fill, > 0
	RotateZUpToYUp bool    // Convert a Z-up model to Y-up before scaling
}

// DefaultOptions returns the standard thumbnail framing.
func DefaultOptions() Options {
	return Options{
		FOVDegrees:     DefaultFOVDegrees,
		Margin:         DefaultMargin,
		RotateZUpToYUp: true,
	}
}

// normalized replaces out-of-range values with defaults.
func (o Options) normalized() Options {
	if !(o.FOVDegrees > 0 && o.FOVDegrees < 180) {
		o.FOVDegrees = DefaultFOVDegrees
	}
	if !(o.Margin > 0) || gomath.IsInf(o.Margin, 0) {
		o.Margin = DefaultMargin
	}
	return o
}

// Result describes how a mesh was framed.
type Result struct {
	Camera     camera.Camera // Eye at CameraOffset*Distance, looking at the origin
	Distance   float64       // Distance that frames MaxDim exactly at the field of view
	ViewHeight float64       // Visible height used to derive Scale
	Scale      float64       // Uniform scale applied after centring (and rotation)
	Rotated    bool          // Whether ZUpToYUp was applied
	Rotation   math.Mat4     // ZUpToYUp or identity
	Center     math.Vec3     // Centre of the source bounding box
	Size       math.Vec3     // Extent measured after rotation, before scaling
	MaxDim     float64       // Largest extent, Epsilon if the model has none
	Degenerate bool          // The model had no extent (single point, empty or non-finite)
	Transform  math.Mat4     // Scale * Rotation * Translate(-Center)
}

// UnitScale returns the scale from source units into multiples of the camera
// distance. Framing the same model pre-scaled by k divides it by k.
func (r Result) UnitScale() float64 {
	return r.Scale / r.Distance
}

// Frame centres, orients and scales mesh for a square thumbnail and returns
// the camera to render it with. The input mesh is not modified; the returned
// mesh is a new value owned by the caller.
//
// Order of operations:
//  1. bounding box, centre c
//  2. translate by -c
//  3. rotate Z-up to Y-up (optional)
//  4. measure the rotated extent; maxDim = largest axis (Epsilon if zero)
//  5. distance = maxDim / (2 tan(fov/2))
//  6. camera at CameraOffset * distance looking at the origin
//  7. scale = margin * 2 tan(fov/2) * camera.Z / maxDim
//  8. scale the centred geometry
func Frame(mesh *stl.Mesh, opts Options) (Result, *stl.Mesh) {
	opts = opts.normalized()

	box := mesh.Bounds()
	center := box.Center()
	degenerate := false
	if !center.IsFinite() {
		center = math.Vec3{}
		degenerate = true
	}
	translate := math.Translate(center.Negate())

	rotation := math.Identity()
	if opts.RotateZUpToYUp {
		rotation = ZUpToYUp
	}

	// Measure after rotating so the scale reflects the final orientation.
	size := box.Transform(rotation.Mul(translate)).Size()
	maxDim := size.MaxComponent()
	if !(maxDim > 0) || gomath.IsInf(maxDim, 0) {
		maxDim = Epsilon
		degenerate = true
	}

	fovRad := opts.FOVDegrees * gomath.Pi / 180
	tanHalf := gomath.Tan(fovRad / 2)
	distance := maxDim / (2 * tanHalf)

	eye := CameraOffset.Scale(distance)
	viewHeight := 2 * tanHalf * eye.Z
	targetSize := viewHeight * opts.Margin
	scale := targetSize / maxDim

	transform := math.UniformScale(scale).Mul(rotation).Mul(translate)

	result := Result{
		Camera:     camera.New(eye, math.Vec3{}, fovRad, distance*nearFactor, distance*farFactor),
		Distance:   distance,
		ViewHeight: viewHeight,
		Scale:      scale,
		Rotated:    opts.RotateZUpToYUp,
		Rotation:   rotation,
		Center:     center,
		Size:       size,
		MaxDim:     maxDim,
		Degenerate: degenerate,
		Transform:  transform,
	}
	return result, mesh.Transform(transform)
}
