package tensor

import (
	"math"
	"testing"
)

func TestNest2DViewsBackingArray(t *testing.T) {
	flat := []float32{1, 2, 3, 4, 5, 6}
	rows := Nest2D(flat, 3, 2)
	if len(rows) != 3 || len(rows[1]) != 2 {
		t.Fatalf("shape = %dx%d, want 3x2", len(rows), len(rows[1]))
	}
	rows[1][0] = 99
	if flat[2] != 99 {
		t.Error("Nest2D must reslice, not copy")
	}
}

func TestNest3D(t *testing.T) {
	flat := make([]float32, 2*3*4)
	for i := range flat {
		flat[i] = float32(i)
	}
	cube := Nest3D(flat, 2, 3, 4)
	if len(cube) != 2 || len(cube[0]) != 3 || len(cube[0][0]) != 4 {
		t.Fatalf("shape wrong: %d/%d/%d", len(cube), len(cube[0]), len(cube[0][0]))
	}
	if cube[1][2][3] != flat[1*12+2*4+3] {
		t.Errorf("cube[1][2][3] = %v, want %v", cube[1][2][3], flat[1*12+2*4+3])
	}
}

func TestDotF32(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{4, 5, 6}
	if got := DotF32(a, b); got != 32 {
		t.Errorf("DotF32 = %v, want 32", got)
	}
}

func TestMeanF32(t *testing.T) {
	flat := []float32{
		1, 1,
		3, 3,
		100, 100, // outside the [0,2) range below
	}
	dst := make([]float32, 2)
	MeanF32(dst, flat, 2, 0, 2)
	if dst[0] != 2 || dst[1] != 2 {
		t.Errorf("mean = %v, want [2,2]", dst)
	}
}

func TestMeanF32EmptyRange(t *testing.T) {
	dst := []float32{9, 9}
	MeanF32(dst, []float32{1, 2, 3, 4}, 2, 1, 1)
	if dst[0] != 0 || dst[1] != 0 {
		t.Errorf("mean over empty range = %v, want [0,0]", dst)
	}
}

func TestFloat16ToFloat32KnownValues(t *testing.T) {
	cases := []struct {
		bits uint16
		want float32
	}{
		{0x0000, 0.0},
		{0x3C00, 1.0},
		{0xBC00, -1.0},
		{0x4000, 2.0},
	}
	for _, c := range cases {
		got := Float16ToFloat32(c.bits)
		if got != c.want {
			t.Errorf("Float16ToFloat32(0x%04x) = %v, want %v", c.bits, got, c.want)
		}
	}
}

func TestFloat16ToFloat32Subnormal(t *testing.T) {
	// Smallest positive subnormal half: 2^-24.
	got := Float16ToFloat32(0x0001)
	want := float32(math.Pow(2, -24))
	if math.Abs(float64(got-want)) > 1e-12 {
		t.Errorf("Float16ToFloat32(subnormal) = %v, want %v", got, want)
	}
}
