package thumbnail

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"go.uber.org/multierr"

	"github.com/Faultbox/stlthumb/pkg/stl"
)

func TestBatch_ContinuesPastFailures(t *testing.T) {
	g, _, store, _ := newTestGenerator(map[string][]byte{
		"a.stl": cubeSTL,
		"b.stl": cubeSTL[:90],
		"d.stl": pointSTL,
	})
	store.data["c.stl"] = []byte("cached")

	var seen []Progress
	report := g.Batch(context.Background(), []string{"a.stl", "b.stl", "c.stl", "d.stl", "missing.stl"}, false, func(p Progress) {
		seen = append(seen, p)
	})

	if want := []string{"a.stl", "d.stl"}; !reflect.DeepEqual(report.Written, want) {
		t.Errorf("Written = %v, want %v", report.Written, want)
	}
	if want := []string{"c.stl"}; !reflect.DeepEqual(report.Skipped, want) {
		t.Errorf("Skipped = %v, want %v", report.Skipped, want)
	}
	if len(report.Failed) != 2 || report.Failed[0].Ref != "b.stl" || report.Failed[1].Ref != "missing.stl" {
		t.Fatalf("Failed = %+v", report.Failed)
	}
	if want := []string{"d.stl"}; !reflect.DeepEqual(report.Degenerate, want) {
		t.Errorf("Degenerate = %v, want %v", report.Degenerate, want)
	}
	if report.Canceled {
		t.Error("batch was not canceled")
	}
	if report.Total() != 5 {
		t.Errorf("Total = %d, want 5", report.Total())
	}

	err := report.Err()
	if len(multierr.Errors(err)) != 2 {
		t.Errorf("Err() combines %d errors, want 2", len(multierr.Errors(err)))
	}
	if !errors.Is(err, stl.ErrFormat) {
		t.Error("Err() should expose the decode failure")
	}
	var ioe *IOError
	if !errors.As(err, &ioe) || ioe.Ref != "missing.stl" {
		t.Errorf("Err() should expose the read failure, got %v", err)
	}

	if len(seen) != 5 {
		t.Fatalf("progress called %d times, want 5", len(seen))
	}
	for i, p := range seen {
		if p.Index != i || p.Total != 5 || p.Done() != i+1 {
			t.Errorf("progress %d = %+v", i, p)
		}
	}
	if seen[1].Err == nil || seen[2].Outcome != OutcomeSkipped {
		t.Errorf("progress did not carry per-file results: %+v", seen)
	}
	if seen[0].Degenerate || !seen[3].Degenerate {
		t.Errorf("progress degenerate flags = %v, %v; want false, true", seen[0].Degenerate, seen[3].Degenerate)
	}
}

func TestBatch_Sequential(t *testing.T) {
	models := map[string][]byte{}
	var refs []string
	for _, name := range []string{"1.stl", "2.stl", "3.stl", "4.stl"} {
		models[name] = cubeSTL
		refs = append(refs, name)
	}
	g, _, _, rend := newTestGenerator(models)

	report := g.Batch(context.Background(), refs, false, nil)
	if len(report.Written) != 4 {
		t.Fatalf("Written = %v", report.Written)
	}
	if rend.maxInFlight != 1 {
		t.Errorf("max renders in flight = %d, want 1", rend.maxInFlight)
	}
	if report.Err() != nil {
		t.Errorf("Err() = %v, want nil", report.Err())
	}
}

func TestBatch_CancelBetweenFiles(t *testing.T) {
	g, _, store, rend := newTestGenerator(map[string][]byte{
		"a.stl": cubeSTL,
		"b.stl": cubeSTL,
		"c.stl": cubeSTL,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Cancel while the second model is rendering; it must still finish.
	rend.onRender = func() {
		if len(rend.scenes) == 2 {
			cancel()
		}
	}

	report := g.Batch(ctx, []string{"a.stl", "b.stl", "c.stl"}, false, nil)

	if want := []string{"a.stl", "b.stl"}; !reflect.DeepEqual(report.Written, want) {
		t.Errorf("Written = %v, want %v", report.Written, want)
	}
	if !report.Canceled {
		t.Fatal("expected Canceled")
	}
	if want := []string{"c.stl"}; !reflect.DeepEqual(report.Pending, want) {
		t.Errorf("Pending = %v, want %v", report.Pending, want)
	}
	if !errors.Is(report.Err(), context.Canceled) {
		t.Errorf("Err() = %v, want context.Canceled", report.Err())
	}
	if _, ok := store.data["c.stl"]; ok {
		t.Error("c.stl should not have been processed")
	}
	for _, ref := range []string{"a.stl", "b.stl"} {
		if _, ok := store.data[ref]; !ok {
			t.Errorf("%s thumbnail missing after cancel", ref)
		}
	}
}

func TestBatch_AlreadyCanceled(t *testing.T) {
	g, models, _, _ := newTestGenerator(map[string][]byte{"a.stl": cubeSTL})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := g.Batch(ctx, []string{"a.stl"}, false, nil)
	if !report.Canceled || report.Total() != 0 {
		t.Errorf("report = %+v, want canceled with nothing done", report)
	}
	if len(models.reads) != 0 {
		t.Error("no model should be read after cancellation")
	}
}

func TestBatch_Empty(t *testing.T) {
	g, _, _, _ := newTestGenerator(nil)
	report := g.Batch(context.Background(), nil, true, nil)
	if report.Total() != 0 || report.Err() != nil || report.Canceled {
		t.Errorf("report = %+v", report)
	}
}
