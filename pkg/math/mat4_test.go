package math

import (
	"math"
	"testing"
)

func TestIdentity(t *testing.T) {
	m := Identity()
	// Diagonal should be 1
	if m[0] != 1 || m[5] != 1 || m[10] != 1 || m[15] != 1 {
		t.Error("Identity diagonal should be 1")
	}
	// Off-diagonal should be 0
	if m[1] != 0 || m[4] != 0 {
		t.Error("Identity off-diagonal should be 0")
	}
}

func TestMulIdentity(t *testing.T) {
	m := Translate(Vec3{1, 2, 3})
	result := m.Mul(Identity())

	for i := 0; i < 16; i++ {
		if result[i] != m[i] {
			t.Errorf("M * I should equal M, element %d: got %f, want %f", i, result[i], m[i])
		}
	}
}

func TestTranslate(t *testing.T) {
	m := Translate(Vec3{5, 10, 15})

	// Translation should be in column 4 (indices 12, 13, 14)
	if m[12] != 5 || m[13] != 10 || m[14] != 15 {
		t.Errorf("Translate: got (%f, %f, %f), want (5, 10, 15)", m[12], m[13], m[14])
	}
}

func TestMulPosition(t *testing.T) {
	tests := []struct {
		name string
		m    Mat4
		p    Vec3
		want Vec3
	}{
		{"translate", Translate(Vec3{10, 20, 30}), Vec3{1, 2, 3}, Vec3{11, 22, 33}},
		{"scale", UniformScale(2), Vec3{1, 2, 3}, Vec3{2, 4, 6}},
		{"non-uniform scale", Scale(Vec3{1, 2, 3}), Vec3{1, 1, 1}, Vec3{1, 2, 3}},
		{"scale then translate", Translate(Vec3{1, 0, 0}).Mul(UniformScale(3)), Vec3{1, 1, 1}, Vec3{4, 3, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.MulPosition(tt.p); got != tt.want {
				t.Errorf("MulPosition: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMulDirectionIgnoresTranslation(t *testing.T) {
	m := Translate(Vec3{100, 100, 100})
	d := Vec3{0, 1, 0}
	if got := m.MulDirection(d); got != d {
		t.Errorf("MulDirection: got %v, want %v", got, d)
	}
}

func TestRotateY90(t *testing.T) {
	m := RotateY(math.Pi / 2) // 90 degrees
	result := m.MulPosition(Vec3{1, 0, 0})

	// After 90 degree Y rotation, (1,0,0) should become (0,0,-1)
	if !result.ApproxEqual(Vec3{0, 0, -1}, 1e-12) {
		t.Errorf("RotateY 90: got %v, want (0, 0, -1)", result)
	}
}

func TestRotateXQuarterTurnIsExact(t *testing.T) {
	// Z-up to Y-up: up (0,0,1) must become (0,1,0) with no rounding residue.
	m := RotateX(-math.Pi / 2)

	tests := []struct {
		in, want Vec3
	}{
		{Vec3{0, 0, 1}, Vec3{0, 1, 0}},
		{Vec3{0, 1, 0}, Vec3{0, 0, -1}},
		{Vec3{1, 0, 0}, Vec3{1, 0, 0}},
		{Vec3{2, 3, 4}, Vec3{2, 4, -3}},
	}

	for _, tt := range tests {
		if got := m.MulPosition(tt.in); got != tt.want {
			t.Errorf("RotateX(-90) %v: got %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRotateXArbitraryAngle(t *testing.T) {
	m := RotateX(math.Pi / 4)
	got := m.MulPosition(Vec3{0, 1, 0})
	h := math.Sqrt2 / 2
	if !got.ApproxEqual(Vec3{0, h, h}, 1e-12) {
		t.Errorf("RotateX 45: got %v, want (0, %f, %f)", got, h, h)
	}
}

func TestPerspective(t *testing.T) {
	m := Perspective(math.Pi/4, 1, 0.1, 100)

	// Element [15] should be 0 for perspective projection
	if m[15] != 0 {
		t.Errorf("Perspective [15] should be 0, got %f", m[15])
	}
	// Element [11] should be -1 for perspective projection
	if m[11] != -1 {
		t.Errorf("Perspective [11] should be -1, got %f", m[11])
	}
	// f = 1/tan(fov/2)
	if want := 1 / math.Tan(math.Pi/8); math.Abs(m[5]-want) > 1e-12 {
		t.Errorf("Perspective [5]: got %f, want %f", m[5], want)
	}
}

func TestLookAtMovesEyeToOrigin(t *testing.T) {
	eye := Vec3{3, 4, 5}
	m := LookAt(eye, Vec3{}, Vec3{0, 1, 0})

	if got := m.MulPosition(eye); !got.ApproxEqual(Vec3{}, 1e-12) {
		t.Errorf("LookAt(eye) should map eye to origin, got %v", got)
	}

	// The target lies straight ahead, down -Z in view space.
	target := m.MulPosition(Vec3{})
	if math.Abs(target.X) > 1e-12 || math.Abs(target.Y) > 1e-12 {
		t.Errorf("target should be on the view axis, got %v", target)
	}
	if want := -eye.Length(); math.Abs(target.Z-want) > 1e-12 {
		t.Errorf("target depth: got %f, want %f", target.Z, want)
	}
}
