package thumbnail

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	gomath "math"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/stlthumb/internal/engine/render"
	"github.com/Faultbox/stlthumb/pkg/stl"
)

// stlBytes builds a binary STL whose triangles are the given vertex triples.
func stlBytes(tris ...[9]float32) []byte {
	var buf bytes.Buffer
	buf.Write(make([]byte, 80))
	binary.Write(&buf, binary.LittleEndian, uint32(len(tris)))
	for _, v := range tris {
		binary.Write(&buf, binary.LittleEndian, [3]float32{0, 0, 1})
		binary.Write(&buf, binary.LittleEndian, v)
		binary.Write(&buf, binary.LittleEndian, uint16(0))
	}
	return buf.Bytes()
}

var cubeSTL = stlBytes(
	[9]float32{0, 0, 0, 10, 0, 0, 0, 10, 0},
	[9]float32{10, 10, 10, 0, 10, 10, 10, 0, 10},
)

var pointSTL = stlBytes([9]float32{1, 2, 3, 1, 2, 3, 1, 2, 3})

type memModels struct {
	files map[string][]byte
	reads []string
	err   error
}

func (m *memModels) ReadModel(ref string) ([]byte, error) {
	m.reads = append(m.reads, ref)
	if m.err != nil {
		return nil, m.err
	}
	data, ok := m.files[ref]
	if !ok {
		return nil, errors.New("no such model")
	}
	return data, nil
}

type memThumbs struct {
	data      map[string][]byte
	existsErr error
	writeErr  error
}

func newMemThumbs() *memThumbs {
	return &memThumbs{data: map[string][]byte{}}
}

func (s *memThumbs) Exists(ref string) (bool, error) {
	if s.existsErr != nil {
		return false, s.existsErr
	}
	_, ok := s.data[ref]
	return ok, nil
}

func (s *memThumbs) Read(ref string) ([]byte, error) {
	return s.data[ref], nil
}

func (s *memThumbs) Write(ref string, data []byte) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.data[ref] = data
	return nil
}

// fakeRenderer records scenes and tracks concurrent calls.
type fakeRenderer struct {
	mu          sync.Mutex
	scenes      []render.Scene
	inFlight    int
	maxInFlight int
	err         error
	onRender    func()
}

func (r *fakeRenderer) Render(ctx context.Context, scene render.Scene) ([]byte, error) {
	r.mu.Lock()
	r.inFlight++
	if r.inFlight > r.maxInFlight {
		r.maxInFlight = r.inFlight
	}
	r.scenes = append(r.scenes, scene)
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.inFlight--
		r.mu.Unlock()
	}()

	if r.onRender != nil {
		r.onRender()
	}
	if r.err != nil {
		return nil, r.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []byte("jpeg:" + string(rune('0'+len(r.scenes)))), nil
}

func newTestGenerator(models map[string][]byte) (*Generator, *memModels, *memThumbs, *fakeRenderer) {
	m := &memModels{files: models}
	s := newMemThumbs()
	r := &fakeRenderer{}
	return NewGenerator(m, s, r, DefaultOptions(), nil), m, s, r
}

func TestGenerate_WritesMissingThumbnail(t *testing.T) {
	g, _, store, rend := newTestGenerator(map[string][]byte{"cube.stl": cubeSTL})

	outcome, err := g.Generate(context.Background(), "cube.stl", false)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if outcome != OutcomeWritten {
		t.Errorf("outcome = %v, want written", outcome)
	}
	if _, ok := store.data["cube.stl"]; !ok {
		t.Fatal("thumbnail not stored")
	}

	if len(rend.scenes) != 1 {
		t.Fatalf("renderer called %d times, want 1", len(rend.scenes))
	}
	scene := rend.scenes[0]
	if scene.Size != 500 {
		t.Errorf("Size = %d, want 500", scene.Size)
	}
	if gomath.Abs(scene.Camera.FOVDegrees()-35) > 1e-9 {
		t.Errorf("fov = %v, want 35", scene.Camera.FOVDegrees())
	}
	if c := scene.Mesh.Bounds().Center(); gomath.Abs(c.X)+gomath.Abs(c.Y)+gomath.Abs(c.Z) > 1e-6 {
		t.Errorf("rendered mesh not centred: %v", c)
	}
	if scene.Background != render.DefaultBackground {
		t.Errorf("Background = %v, want white", scene.Background)
	}
}

func TestGenerate_CachePolicy(t *testing.T) {
	tests := []struct {
		name        string
		existing    bool
		overwrite   bool
		wantOutcome Outcome
		wantRender  int
		wantReads   int
	}{
		{"missing, no overwrite", false, false, OutcomeWritten, 1, 1},
		{"missing, overwrite", false, true, OutcomeWritten, 1, 1},
		{"existing, no overwrite", true, false, OutcomeSkipped, 0, 0},
		{"existing, overwrite", true, true, OutcomeWritten, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, models, store, rend := newTestGenerator(map[string][]byte{"m.stl": cubeSTL})
			if tt.existing {
				store.data["m.stl"] = []byte("old")
			}

			outcome, err := g.Generate(context.Background(), "m.stl", tt.overwrite)
			if err != nil {
				t.Fatalf("Generate failed: %v", err)
			}
			if outcome != tt.wantOutcome {
				t.Errorf("outcome = %v, want %v", outcome, tt.wantOutcome)
			}
			if len(rend.scenes) != tt.wantRender {
				t.Errorf("renders = %d, want %d", len(rend.scenes), tt.wantRender)
			}
			if len(models.reads) != tt.wantReads {
				t.Errorf("model reads = %d, want %d", len(models.reads), tt.wantReads)
			}
			if tt.existing && !tt.overwrite && string(store.data["m.stl"]) != "old" {
				t.Error("existing thumbnail was replaced")
			}
		})
	}
}

func TestGenerate_FormatError(t *testing.T) {
	truncated := cubeSTL[:len(cubeSTL)-10]
	g, _, store, rend := newTestGenerator(map[string][]byte{"bad.stl": truncated})

	_, err := g.Generate(context.Background(), "bad.stl", false)
	if !errors.Is(err, stl.ErrFormat) {
		t.Fatalf("err = %v, want ErrFormat", err)
	}
	var fe *stl.FormatError
	if !errors.As(err, &fe) {
		t.Errorf("err should carry *stl.FormatError: %v", err)
	}
	if len(rend.scenes) != 0 || len(store.data) != 0 {
		t.Error("nothing should be rendered or stored for a malformed model")
	}
}

func TestGenerate_IOErrors(t *testing.T) {
	boom := errors.New("disk on fire")

	tests := []struct {
		name   string
		setup  func(*memModels, *memThumbs)
		wantOp string
	}{
		{"exists fails", func(_ *memModels, s *memThumbs) { s.existsErr = boom }, "exists"},
		{"read fails", func(m *memModels, _ *memThumbs) { m.err = boom }, "read"},
		{"write fails", func(_ *memModels, s *memThumbs) { s.writeErr = boom }, "write"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, models, store, _ := newTestGenerator(map[string][]byte{"m.stl": cubeSTL})
			tt.setup(models, store)

			_, err := g.Generate(context.Background(), "m.stl", false)
			var ioe *IOError
			if !errors.As(err, &ioe) {
				t.Fatalf("err = %v, want *IOError", err)
			}
			if ioe.Op != tt.wantOp || ioe.Ref != "m.stl" {
				t.Errorf("IOError = %+v, want op %q", ioe, tt.wantOp)
			}
			if !errors.Is(err, boom) {
				t.Error("IOError should wrap the cause")
			}
		})
	}
}

func TestGenerate_DegenerateIsWarningOnly(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	g, _, store, _ := newTestGenerator(map[string][]byte{"dot.stl": pointSTL})
	g.Log = zap.New(core)

	outcome, err := g.Generate(context.Background(), "dot.stl", false)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if outcome != OutcomeWritten || store.data["dot.stl"] == nil {
		t.Error("degenerate model should still get a thumbnail")
	}

	warnings := logs.FilterLevelExact(zapcore.WarnLevel).All()
	if len(warnings) != 1 {
		t.Fatalf("got %d warnings, want 1", len(warnings))
	}
	if got := warnings[0].ContextMap()["model"]; got != "dot.stl" {
		t.Errorf("warning model field = %v", got)
	}
}

func TestGenerate_RenderError(t *testing.T) {
	g, _, store, rend := newTestGenerator(map[string][]byte{"m.stl": cubeSTL})
	rend.err = errors.New("gpu lost")

	if _, err := g.Generate(context.Background(), "m.stl", false); !errors.Is(err, rend.err) {
		t.Errorf("err = %v, want render error", err)
	}
	if len(store.data) != 0 {
		t.Error("nothing should be stored when rendering fails")
	}
}

func TestOutcome_String(t *testing.T) {
	if OutcomeSkipped.String() != "skipped" || OutcomeWritten.String() != "written" {
		t.Errorf("unexpected names %q %q", OutcomeSkipped, OutcomeWritten)
	}
	if Outcome(9).String() != "Outcome(9)" {
		t.Errorf("unknown outcome = %q", Outcome(9).String())
	}
}
