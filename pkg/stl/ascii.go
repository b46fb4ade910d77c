package stl

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/Faultbox/stlthumb/pkg/math"
)

// DefaultSolidName is used when the caller does not name the solid.
const DefaultSolidName = "model"

// WriteASCII writes a textual transcript of the mesh in ASCII STL syntax.
// It is derived purely from the parsed triangles; the source buffer is not
// needed. Coordinates are printed with the shortest representation that
// round-trips the original float32 value.
func (m *Mesh) WriteASCII(w io.Writer, name string) error {
	if name == "" {
		name = DefaultSolidName
	}

	bw := bufio.NewWriter(w)
	bw.WriteString("solid " + name + "\n")
	for _, t := range m.Triangles {
		bw.WriteString("  facet normal ")
		writeVec(bw, t.Normal)
		bw.WriteString("\n    outer loop\n")
		for _, v := range t.V {
			bw.WriteString("      vertex ")
			writeVec(bw, v)
			bw.WriteString("\n")
		}
		bw.WriteString("    endloop\n  endfacet\n")
	}
	bw.WriteString("endsolid " + name + "\n")
	return bw.Flush()
}

// ASCII returns the transcript produced by WriteASCII.
func (m *Mesh) ASCII(name string) string {
	var sb strings.Builder
	// strings.Builder never returns a write error.
	_ = m.WriteASCII(&sb, name)
	return sb.String()
}

func writeVec(w *bufio.Writer, v math.Vec3) {
	w.WriteString(formatFloat(v.X))
	w.WriteByte(' ')
	w.WriteString(formatFloat(v.Y))
	w.WriteByte(' ')
	w.WriteString(formatFloat(v.Z))
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 32)
}
