package stl

import (
	"bytes"
	"sync"

	"github.com/Faultbox/stlthumb/pkg/math"
)

// Triangle is one facet as stored in the file.
// The normal is kept as given and is not checked against the winding.
type Triangle struct {
	Normal    math.Vec3
	V         [3]math.Vec3
	Attribute uint16
}

// WindingNormal returns the unit normal implied by the vertex order,
// or zero for a degenerate facet.
func (t Triangle) WindingNormal() math.Vec3 {
	e1 := t.V[1].Sub(t.V[0])
	e2 := t.V[2].Sub(t.V[0])
	return e1.Cross(e2).Normalize()
}

// Area returns the facet area.
func (t Triangle) Area() float64 {
	e1 := t.V[1].Sub(t.V[0])
	e2 := t.V[2].Sub(t.V[0])
	return e1.Cross(e2).Length() / 2
}

// Mesh is a decoded triangle mesh.
//
// The package never modifies a Mesh after it is returned. Transform and
// Clone produce new meshes that share nothing with the receiver.
type Mesh struct {
	Header    [80]byte
	Triangles []Triangle

	boundsOnce sync.Once
	bounds     math.Box
}

// NewMesh builds a mesh from triangles. The slice is copied.
func NewMesh(triangles []Triangle) *Mesh {
	m := &Mesh{Triangles: make([]Triangle, len(triangles))}
	copy(m.Triangles, triangles)
	return m
}

// Len returns the triangle count.
func (m *Mesh) Len() int {
	return len(m.Triangles)
}

// Consumed returns how many bytes of the source buffer the mesh occupied.
func (m *Mesh) Consumed() int64 {
	return Consumed(len(m.Triangles))
}

// HeaderText returns the 80-byte header with NUL and space padding removed.
func (m *Mesh) HeaderText() string {
	h := m.Header[:]
	if i := bytes.IndexByte(h, 0); i >= 0 {
		h = h[:i]
	}
	return string(bytes.TrimRight(h, " "))
}

// Bounds returns the axis-aligned box covering every vertex.
// It is computed on first use and cached. An empty mesh has an empty box.
func (m *Mesh) Bounds() math.Box {
	m.boundsOnce.Do(func() {
		b := math.EmptyBox()
		for i := range m.Triangles {
			for _, v := range m.Triangles[i].V {
				b = b.Extend(v)
			}
		}
		m.bounds = b
	})
	return m.bounds
}

// Clone returns a deep copy. The header is preserved.
func (m *Mesh) Clone() *Mesh {
	c := NewMesh(m.Triangles)
	c.Header = m.Header
	return c
}

// Transform returns a new mesh with every vertex mapped through t.
// Normals go through the direction part of t and are renormalised, so a
// uniform scale or a rotation keeps them unit length. Zero normals stay zero.
func (m *Mesh) Transform(t math.Mat4) *Mesh {
	out := &Mesh{
		Header:    m.Header,
		Triangles: make([]Triangle, len(m.Triangles)),
	}
	for i, tri := range m.Triangles {
		nt := Triangle{Attribute: tri.Attribute}
		for v := range tri.V {
			nt.V[v] = t.MulPosition(tri.V[v])
		}
		if !tri.Normal.IsZero() {
			nt.Normal = t.MulDirection(tri.Normal).Normalize()
		}
		out.Triangles[i] = nt
	}
	return out
}

// Stats summarises a mesh.
type Stats struct {
	Triangles   int
	Bounds      math.Box
	Size        math.Vec3
	Center      math.Vec3
	SurfaceArea float64
}

// Stats computes summary figures for display.
func (m *Mesh) Stats() Stats {
	b := m.Bounds()
	s := Stats{
		Triangles: len(m.Triangles),
		Bounds:    b,
		Size:      b.Size(),
		Center:    b.Center(),
	}
	for _, t := range m.Triangles {
		s.SurfaceArea += t.Area()
	}
	return s
}
