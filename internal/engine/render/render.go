// Package render turns a framed mesh into a thumbnail image.
package render

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/Faultbox/stlthumb/internal/engine/camera"
	"github.com/Faultbox/stlthumb/pkg/stl"
)

// Default scene colours.
var (
	DefaultBackground = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	DefaultModelColor = color.NRGBA{R: 0x99, G: 0x99, B: 0x99, A: 0xff}
)

// DefaultSize is the thumbnail edge length in pixels.
const DefaultSize = 500

// ErrInvalidSize is returned for a non-positive output size.
var ErrInvalidSize = errors.New("render: invalid output size")

// Scene is everything needed to draw one thumbnail.
type Scene struct {
	Mesh       *stl.Mesh     // Geometry in world space, already framed
	Camera     camera.Camera // Viewpoint
	Size       int           // Output width and height in pixels
	Background color.Color
	Color      color.Color // Model surface colour
}

// Renderer produces an encoded image of a scene.
// Implementations may serialise calls internally.
type Renderer interface {
	Render(ctx context.Context, scene Scene) ([]byte, error)
}

// ParseHexColor parses "#rrggbb" or "rrggbb".
func ParseHexColor(s string) (color.NRGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) != 6 {
		return color.NRGBA{}, fmt.Errorf("invalid colour %q: want #rrggbb", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// HexColor formats c as "#rrggbb".
func HexColor(c color.Color) string {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return fmt.Sprintf("#%02x%02x%02x", n.R, n.G, n.B)
}
