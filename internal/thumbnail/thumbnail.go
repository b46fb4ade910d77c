// Package thumbnail decides when a model needs a thumbnail and produces it.
//
// For each model reference the generator checks the store, and unless a
// thumbnail already exists (and overwrite is off) it decodes the model,
// frames it, renders it and writes the image back to the store.
package thumbnail

import (
	"context"
	"fmt"
	"image/color"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/stlthumb/internal/engine/render"
	"github.com/Faultbox/stlthumb/internal/framing"
	"github.com/Faultbox/stlthumb/internal/storage"
	"github.com/Faultbox/stlthumb/pkg/stl"
)

// Outcome is what Generate did for one model.
type Outcome int

const (
	OutcomeSkipped Outcome = iota // A thumbnail existed and overwrite was off
	OutcomeWritten                // A new thumbnail was stored
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeWritten:
		return "written"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// IOError is a storage failure for one model.
type IOError struct {
	Ref string // Model reference
	Op  string // "exists", "read", "write"
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Ref, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Options controls how thumbnails look.
type Options struct {
	Framing    framing.Options
	Size       int         // Output edge length in pixels
	Background color.Color // Image background
	Color      color.Color // Model colour
}

// DefaultOptions returns 500x500 thumbnails with the standard framing.
func DefaultOptions() Options {
	return Options{
		Framing:    framing.DefaultOptions(),
		Size:       render.DefaultSize,
		Background: render.DefaultBackground,
		Color:      render.DefaultModelColor,
	}
}

// Generator produces thumbnails. It holds no per-model state; the renderer
// is the only shared resource and is called once per generated thumbnail.
type Generator struct {
	Models   storage.ModelSource
	Thumbs   storage.ThumbnailStore
	Renderer render.Renderer
	Options  Options
	Log      *zap.Logger
}

// NewGenerator wires a generator. A nil logger disables logging.
func NewGenerator(models storage.ModelSource, thumbs storage.ThumbnailStore, renderer render.Renderer, opts Options, log *zap.Logger) *Generator {
	return &Generator{
		Models:   models,
		Thumbs:   thumbs,
		Renderer: renderer,
		Options:  opts,
		Log:      log,
	}
}

func (g *Generator) log() *zap.Logger {
	if g.Log == nil {
		return zap.NewNop()
	}
	return g.Log
}

// Generate ensures ref has a thumbnail. With overwrite off an existing
// thumbnail is left untouched and the model is not read.
//
// Decode failures are returned as *stl.FormatError (wrapped), storage
// failures as *IOError.
func (g *Generator) Generate(ctx context.Context, ref string, overwrite bool) (Outcome, error) {
	outcome, _, err := g.generate(ctx, ref, overwrite)
	return outcome, err
}

// generate is Generate that also reports whether the model had zero extent.
func (g *Generator) generate(ctx context.Context, ref string, overwrite bool) (Outcome, bool, error) {
	log := g.log().With(zap.String("model", ref))

	exists, err := g.Thumbs.Exists(ref)
	if err != nil {
		return OutcomeSkipped, false, &IOError{Ref: ref, Op: "exists", Err: err}
	}
	if exists && !overwrite {
		log.Debug("Thumbnail exists, skipping")
		return OutcomeSkipped, false, nil
	}

	start := time.Now()

	data, err := g.Models.ReadModel(ref)
	if err != nil {
		return OutcomeSkipped, false, &IOError{Ref: ref, Op: "read", Err: err}
	}

	mesh, err := stl.Decode(data)
	if err != nil {
		return OutcomeSkipped, false, fmt.Errorf("decoding %s: %w", ref, err)
	}

	result, framed := framing.Frame(mesh, g.Options.Framing)
	if result.Degenerate {
		log.Warn("Degenerate geometry, using minimum extent",
			zap.Int("triangles", mesh.Len()),
			zap.Float64("epsilon", framing.Epsilon))
	}

	size := g.Options.Size
	if size <= 0 {
		size = render.DefaultSize
	}
	img, err := g.Renderer.Render(ctx, render.Scene{
		Mesh:       framed,
		Camera:     result.Camera,
		Size:       size,
		Background: g.Options.Background,
		Color:      g.Options.Color,
	})
	if err != nil {
		return OutcomeSkipped, result.Degenerate, fmt.Errorf("rendering %s: %w", ref, err)
	}

	if err := g.Thumbs.Write(ref, img); err != nil {
		return OutcomeSkipped, result.Degenerate, &IOError{Ref: ref, Op: "write", Err: err}
	}

	log.Info("Thumbnail written",
		zap.Int("triangles", mesh.Len()),
		zap.Float64("scale", result.Scale),
		zap.Bool("rotated", result.Rotated),
		zap.Int("bytes", len(img)),
		zap.Duration("elapsed", time.Since(start)))
	return OutcomeWritten, result.Degenerate, nil
}
