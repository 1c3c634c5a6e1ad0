package pipeline

import "testing"

func TestFlattenRows(t *testing.T) {
	rows := [][]float32{{1, 2}, {3, 4}, {5, 6}}
	flat := flattenRows(rows)
	want := []float32{1, 2, 3, 4, 5, 6}
	if len(flat) != len(want) {
		t.Fatalf("len = %d, want %d", len(flat), len(want))
	}
	for i := range want {
		if flat[i] != want[i] {
			t.Errorf("flat[%d] = %v, want %v", i, flat[i], want[i])
		}
	}
}

func TestFlattenRowsEmpty(t *testing.T) {
	if got := flattenRows(nil); got != nil {
		t.Errorf("flattenRows(nil) = %v, want nil", got)
	}
}

func TestPadWordsPadsWithZeroVectors(t *testing.T) {
	wordEmb := [][]float32{{1, 1}}
	padded := padWords(wordEmb, 3, 2)
	if len(padded) != 3 {
		t.Fatalf("len = %d, want 3", len(padded))
	}
	if padded[0][0] != 1 {
		t.Errorf("padded[0] = %v, want original row", padded[0])
	}
	if padded[1][0] != 0 || padded[2][1] != 0 {
		t.Errorf("padded rows beyond input must be zero vectors: %v", padded)
	}
}

func TestPadVectorsTruncatesBeyondPMax(t *testing.T) {
	vecs := [][]float32{{1, 1}, {2, 2}, {3, 3}}
	out := padVectors(vecs, 2, 2)
	if len(out) != 4 {
		t.Fatalf("len = %d, want 4", len(out))
	}
	if out[0] != 1 || out[2] != 2 {
		t.Errorf("out = %v, want first two vectors copied", out)
	}
}

func TestPadSpansZerosBeyondNaturalTable(t *testing.T) {
	indices := [][2]int{{0, 0}, {0, 1}}
	mask := []float32{1, 1}
	outIdx, outMask := padSpans(indices, mask, 4, 1)
	if len(outIdx) != 4 || len(outMask) != 4 {
		t.Fatalf("padded lengths wrong: %d %d", len(outIdx), len(outMask))
	}
	if outMask[2] != 0 || outMask[3] != 0 {
		t.Errorf("padded tail must be masked out: %v", outMask)
	}
	if outIdx[2] != [2]int{0, 0} {
		t.Errorf("padded index = %v, want [0,0]", outIdx[2])
	}
}

func TestArgmaxClampedPicksHighestLogit(t *testing.T) {
	logits := []float32{0.1, 5.0, 2.0, 0.9}
	if got := argmaxClamped(logits, 10); got != 1 {
		t.Errorf("argmaxClamped = %d, want 1", got)
	}
}

func TestArgmaxClampedClampsToMaxCount(t *testing.T) {
	logits := []float32{0.1, 0.2, 0.3, 9.0}
	if got := argmaxClamped(logits, 2); got != 2 {
		t.Errorf("argmaxClamped = %d, want clamped to 2", got)
	}
}

func TestArgmaxClampedEmptyLogits(t *testing.T) {
	if got := argmaxClamped(nil, 4); got != 0 {
		t.Errorf("argmaxClamped(nil) = %d, want 0", got)
	}
}
