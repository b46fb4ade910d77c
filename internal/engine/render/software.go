package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	gomath "math"
	"sync"

	"github.com/nfnt/resize"
	"golang.org/x/image/draw"

	"github.com/Faultbox/stlthumb/pkg/math"
	"github.com/Faultbox/stlthumb/pkg/stl"
)

const (
	// DefaultSupersample is the internal resolution multiplier.
	DefaultSupersample = 2
	// DefaultQuality is the JPEG quality.
	DefaultQuality = 90

	// Triangles drawn between cancellation checks.
	cancelCheckInterval = 4096
)

// Light is a single directional light plus an ambient term.
type Light struct {
	Position  math.Vec3 // Light comes from this point towards the origin
	Intensity float64   // Diffuse multiplier
	Ambient   float64   // Constant term, 0..1
}

// DefaultLight is a key light above and to the right of the camera.
func DefaultLight() Light {
	return Light{
		Position:  math.Vec3{X: 50, Y: 50, Z: 50},
		Intensity: 1,
		Ambient:   0x40 / 255.0,
	}
}

// Software is a CPU rasterizer with a depth buffer and flat shading.
//
// Facets are drawn from both sides: STL winding is not reliable enough to
// cull. Each facet is lit by its stored normal, or by the winding normal
// when the stored one is zero, flipped to face the camera.
//
// The frame buffers are reused between calls, so Render is serialised.
type Software struct {
	Supersample int // Render at Size*Supersample then downscale
	Quality     int // JPEG quality, 1..100
	Light       Light

	mu    sync.Mutex
	color *image.NRGBA
	depth []float64
}

// NewSoftware returns a renderer with default settings.
func NewSoftware() *Software {
	return &Software{
		Supersample: DefaultSupersample,
		Quality:     DefaultQuality,
		Light:       DefaultLight(),
	}
}

// Render draws the scene and encodes it as JPEG.
func (r *Software) Render(ctx context.Context, scene Scene) ([]byte, error) {
	img, err := r.RenderImage(ctx, scene)
	if err != nil {
		return nil, err
	}

	quality := r.Quality
	if quality < 1 || quality > 100 {
		quality = DefaultQuality
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encoding thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderImage draws the scene and returns the downscaled image.
func (r *Software) RenderImage(ctx context.Context, scene Scene) (image.Image, error) {
	if scene.Size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, scene.Size)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ss := r.Supersample
	if ss < 1 {
		ss = 1
	}
	size := scene.Size * ss
	r.prepare(size, scene.Background)

	if scene.Mesh != nil {
		if err := r.drawMesh(ctx, scene, size); err != nil {
			return nil, err
		}
	}

	if ss == 1 {
		out := image.NewNRGBA(r.color.Rect)
		copy(out.Pix, r.color.Pix)
		return out, nil
	}
	return resize.Resize(uint(scene.Size), uint(scene.Size), r.color, resize.Lanczos3), nil
}

// prepare sizes the buffers and clears them.
func (r *Software) prepare(size int, bg color.Color) {
	if bg == nil {
		bg = DefaultBackground
	}
	if r.color == nil || r.color.Rect.Dx() != size {
		r.color = image.NewNRGBA(image.Rect(0, 0, size, size))
		r.depth = make([]float64, size*size)
	}
	draw.Draw(r.color, r.color.Rect, image.NewUniform(bg), image.Point{}, draw.Src)
	for i := range r.depth {
		r.depth[i] = gomath.MaxFloat64
	}
}

// screenVertex is a projected vertex: pixel coordinates plus NDC depth.
type screenVertex struct {
	X, Y, Z float64
}

func (r *Software) drawMesh(ctx context.Context, scene Scene, size int) error {
	model := scene.Color
	if model == nil {
		model = DefaultModelColor
	}
	base := color.NRGBAModel.Convert(model).(color.NRGBA)

	cam := scene.Camera
	vp := cam.ViewProjection(1)
	lightDir := r.Light.Position.Normalize()

	for i, tri := range scene.Mesh.Triangles {
		if i%cancelCheckInterval == 0 && i > 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		var sv [3]screenVertex
		visible := true
		for k, v := range tri.V {
			clip := vp.MulPositionW(v)
			// Anything at or behind the near plane is dropped whole.
			if !(clip[3] > cam.Near) {
				visible = false
				break
			}
			sv[k] = screenVertex{
				X: (clip[0]/clip[3] + 1) / 2 * float64(size),
				Y: (1 - clip[1]/clip[3]) / 2 * float64(size),
				Z: clip[2] / clip[3],
			}
		}
		if !visible {
			continue
		}

		shade := r.shade(tri, cam.Position, lightDir)
		c := color.NRGBA{
			R: scaleChannel(base.R, shade),
			G: scaleChannel(base.G, shade),
			B: scaleChannel(base.B, shade),
			A: 0xff,
		}
		r.rasterize(sv, c, size)
	}
	return nil
}

// shade returns the light factor for a facet.
func (r *Software) shade(tri stl.Triangle, eye, lightDir math.Vec3) float64 {
	n := tri.Normal
	if n.IsZero() || !n.IsFinite() {
		n = tri.WindingNormal()
	}
	if n.IsZero() {
		return r.Light.Ambient
	}
	n = n.Normalize()

	centroid := tri.V[0].Add(tri.V[1]).Add(tri.V[2]).Scale(1.0 / 3)
	if n.Dot(eye.Sub(centroid)) < 0 {
		n = n.Negate()
	}
	diffuse := gomath.Max(0, n.Dot(lightDir)) * r.Light.Intensity
	return gomath.Min(1, r.Light.Ambient+diffuse)
}

func scaleChannel(c uint8, f float64) uint8 {
	v := float64(c) * f
	if v >= 255 {
		return 255
	}
	if v <= 0 {
		return 0
	}
	return uint8(v + 0.5)
}

func edge(a, b, p screenVertex) float64 {
	return (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
}

// rasterize fills a triangle using edge functions evaluated at pixel centres.
// Either winding is accepted.
func (r *Software) rasterize(s [3]screenVertex, c color.NRGBA, size int) {
	area := edge(s[0], s[1], s[2])
	if area == 0 || gomath.IsNaN(area) {
		return
	}
	ra := 1 / area

	minX := gomath.Floor(gomath.Min(s[0].X, gomath.Min(s[1].X, s[2].X)))
	maxX := gomath.Ceil(gomath.Max(s[0].X, gomath.Max(s[1].X, s[2].X)))
	minY := gomath.Floor(gomath.Min(s[0].Y, gomath.Min(s[1].Y, s[2].Y)))
	maxY := gomath.Ceil(gomath.Max(s[0].Y, gomath.Max(s[1].Y, s[2].Y)))

	x0 := clampInt(minX, 0, size-1)
	x1 := clampInt(maxX, 0, size-1)
	y0 := clampInt(minY, 0, size-1)
	y1 := clampInt(maxY, 0, size-1)

	pix := r.color.Pix
	stride := r.color.Stride

	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			p := screenVertex{X: float64(x) + 0.5, Y: float64(y) + 0.5}
			b0 := edge(s[1], s[2], p) * ra
			b1 := edge(s[2], s[0], p) * ra
			b2 := edge(s[0], s[1], p) * ra
			if b0 < 0 || b1 < 0 || b2 < 0 {
				continue
			}

			z := b0*s[0].Z + b1*s[1].Z + b2*s[2].Z
			i := y*size + x
			if z > r.depth[i] {
				continue
			}
			r.depth[i] = z

			o := y*stride + x*4
			pix[o+0] = c.R
			pix[o+1] = c.G
			pix[o+2] = c.B
			pix[o+3] = c.A
		}
	}
}

func clampInt(v float64, lo, hi int) int {
	if v < float64(lo) {
		return lo
	}
	if v > float64(hi) {
		return hi
	}
	return int(v)
}
