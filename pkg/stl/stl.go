// Package stl decodes binary STL files into triangle meshes.
//
// Binary STL layout (little-endian):
//
//	0..79   header, ignored
//	80..83  uint32 triangle count N
//	84..    N records of 50 bytes:
//	          12 bytes normal   (3 x float32)
//	          36 bytes vertices (3 x 3 x float32)
//	           2 bytes attribute byte count, ignored
//
// Only the binary variant is supported.
package stl

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	gomath "math"
	"os"

	"github.com/Faultbox/stlthumb/pkg/math"
)

const (
	// HeaderSize is the size of the opaque header plus the triangle count.
	HeaderSize = 84
	// RecordSize is the size of one triangle record.
	RecordSize = 50

	countOffset = 80
)

// STL format errors.
var (
	ErrFormat             = errors.New("malformed binary STL")
	ErrTruncatedHeader    = errors.New("truncated STL header")
	ErrTruncatedTriangles = errors.New("truncated STL triangle data")
)

// FormatError describes a buffer that is not a structurally valid binary STL.
type FormatError struct {
	Need int64 // bytes the header implies
	Have int64 // bytes supplied
	Err  error // ErrTruncatedHeader or ErrTruncatedTriangles
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%v: need %d bytes, have %d", e.Err, e.Need, e.Have)
}

// Unwrap returns the specific cause.
func (e *FormatError) Unwrap() error {
	return e.Err
}

// Is makes every FormatError match ErrFormat.
func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

// Decode parses a binary STL buffer.
// Bytes past the last triangle record are ignored.
func Decode(data []byte) (*Mesh, error) {
	if len(data) < HeaderSize {
		return nil, &FormatError{Need: HeaderSize, Have: int64(len(data)), Err: ErrTruncatedHeader}
	}

	count := binary.LittleEndian.Uint32(data[countOffset:HeaderSize])

	// uint64 arithmetic: a hostile count cannot wrap.
	need := uint64(HeaderSize) + uint64(count)*RecordSize
	if uint64(len(data)) < need {
		return nil, &FormatError{Need: int64(need), Have: int64(len(data)), Err: ErrTruncatedTriangles}
	}

	mesh := &Mesh{
		Triangles: make([]Triangle, count),
	}
	copy(mesh.Header[:], data[:countOffset])

	off := HeaderSize
	for i := range mesh.Triangles {
		mesh.Triangles[i] = decodeRecord(data[off : off+RecordSize])
		off += RecordSize
	}

	return mesh, nil
}

// decodeRecord transcribes one 50-byte record.
func decodeRecord(rec []byte) Triangle {
	var t Triangle
	t.Normal = readVec3(rec[0:12])
	for v := 0; v < 3; v++ {
		start := 12 + v*12
		t.V[v] = readVec3(rec[start : start+12])
	}
	t.Attribute = binary.LittleEndian.Uint16(rec[48:50])
	return t
}

func readVec3(b []byte) math.Vec3 {
	return math.Vec3{
		X: float64(readFloat32(b[0:4])),
		Y: float64(readFloat32(b[4:8])),
		Z: float64(readFloat32(b[8:12])),
	}
}

func readFloat32(b []byte) float32 {
	return gomath.Float32frombits(binary.LittleEndian.Uint32(b))
}

// DecodeReader reads r to EOF and decodes the result.
func DecodeReader(r io.Reader) (*Mesh, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("reading STL data: %w", err)
	}
	return Decode(buf.Bytes())
}

// DecodeFile decodes an STL file from disk.
func DecodeFile(path string) (*Mesh, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading STL file: %w", err)
	}
	return Decode(data)
}

// Consumed returns the number of bytes a buffer must hold for the given
// triangle count.
func Consumed(count int) int64 {
	return HeaderSize + int64(count)*RecordSize
}
