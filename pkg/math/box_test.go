package math

import "testing"

func TestBoxExtend(t *testing.T) {
	b := BoxOf(Vec3{1, 2, 3}, Vec3{4, 5, 6}, Vec3{-1, 0, 2})

	if want := (Vec3{-1, 0, 2}); b.Min != want {
		t.Errorf("Min: got %v, want %v", b.Min, want)
	}
	if want := (Vec3{4, 5, 6}); b.Max != want {
		t.Errorf("Max: got %v, want %v", b.Max, want)
	}
}

func TestBoxSizeCenter(t *testing.T) {
	b := BoxOf(Vec3{0, 0, 0}, Vec3{10, 20, 30})

	if got, want := b.Size(), (Vec3{10, 20, 30}); got != want {
		t.Errorf("Size: got %v, want %v", got, want)
	}
	if got, want := b.Center(), (Vec3{5, 10, 15}); got != want {
		t.Errorf("Center: got %v, want %v", got, want)
	}
	if got := b.MaxDim(); got != 30 {
		t.Errorf("MaxDim: got %v, want 30", got)
	}
}

func TestBoxDegenerate(t *testing.T) {
	tests := []struct {
		name       string
		box        Box
		degenerate bool
		empty      bool
	}{
		{"empty", EmptyBox(), true, true},
		{"single point", BoxOf(Vec3{3, 3, 3}), true, false},
		{"flat", BoxOf(Vec3{0, 0, 0}, Vec3{1, 1, 0}), false, false},
		{"solid", BoxOf(Vec3{0, 0, 0}, Vec3{1, 1, 1}), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.box.IsDegenerate(); got != tt.degenerate {
				t.Errorf("IsDegenerate: got %v, want %v", got, tt.degenerate)
			}
			if got := tt.box.IsEmpty(); got != tt.empty {
				t.Errorf("IsEmpty: got %v, want %v", got, tt.empty)
			}
		})
	}
}

func TestEmptyBoxHasZeroSizeAndCenter(t *testing.T) {
	b := EmptyBox()
	if b.Size() != (Vec3{}) || b.Center() != (Vec3{}) {
		t.Errorf("empty box: size %v center %v, want zeros", b.Size(), b.Center())
	}
}

func TestBoxTransform(t *testing.T) {
	b := BoxOf(Vec3{0, 0, 0}, Vec3{1, 2, 3})
	got := b.Transform(Translate(Vec3{1, 1, 1}).Mul(UniformScale(2)))
	want := Box{Min: Vec3{1, 1, 1}, Max: Vec3{3, 5, 7}}
	if got != want {
		t.Errorf("Transform: got %v, want %v", got, want)
	}
}

func TestBoxCorners(t *testing.T) {
	b := BoxOf(Vec3{-1, -1, -1}, Vec3{1, 1, 1})
	seen := make(map[Vec3]bool)
	for _, c := range b.Corners() {
		seen[c] = true
	}
	if len(seen) != 8 {
		t.Errorf("expected 8 distinct corners, got %d", len(seen))
	}
}
