package decoder

import (
	"testing"

	"github.com/screenager/gliner2/internal/tokenizer"
)

func wordRanges(words ...string) ([]tokenizer.CharRange, string) {
	var text string
	ranges := make([]tokenizer.CharRange, len(words))
	for i, w := range words {
		start := len(text)
		text += w
		ranges[i] = tokenizer.CharRange{Start: start, End: len(text)}
		if i != len(words)-1 {
			text += " "
		}
	}
	return ranges, text
}

func TestDecodeEmptyInputsReturnNil(t *testing.T) {
	ranges, text := wordRanges("John", "Smith")
	if got := Decode(nil, []string{"person"}, 0.3, text, ranges); got != nil {
		t.Errorf("empty scores should return nil, got %v", got)
	}
	if got := Decode([][][]float32{{{1}}}, nil, 0.3, text, ranges); got != nil {
		t.Errorf("empty labels should return nil, got %v", got)
	}
}

func TestDecodeThresholdMonotonicity(t *testing.T) {
	ranges, text := wordRanges("John", "Smith")
	scores := [][][]float32{{{10}, {-10}}, {{0}, {0}}}
	low := Decode(scores, []string{"person"}, 0.1, text, ranges)
	high := Decode(scores, []string{"person"}, 0.99999, text, ranges)
	if len(low) < len(high) {
		t.Fatalf("raising the threshold should never increase accepted count: low=%d high=%d", len(low), len(high))
	}
}

func TestDecodeGreedyOverlapSuppressionKeepsHigherScore(t *testing.T) {
	ranges, text := wordRanges("John", "Smith", "Works")
	// Two overlapping spans inside words [0,1]: one with high score, one
	// with low score, plus a disjoint span at word 2 that should survive.
	scores := [][][]float32{
		{{-10}, {10}}, // word 0: width1 -> [0,1] (high)
		{{1}, {-10}},  // word 1: width0 -> [1,1] (low, overlaps width1 span above)
		{{10}, {0}},   // word 2: width0 -> [2,2]
	}
	got := Decode(scores, []string{"person"}, 0.5, text, ranges)
	// Expect word0-width1 span [0,1] and word2 span [2,2]; word1's low-score
	// single-word span is suppressed by the overlapping higher-score span.
	if len(got) != 2 {
		t.Fatalf("got %d entities, want 2: %+v", len(got), got)
	}
	if got[0].Text != "John Smith" {
		t.Errorf("got[0].Text = %q, want the higher-scoring span \"John Smith\"", got[0].Text)
	}
}

func TestDecodeOrdersByStartThenScore(t *testing.T) {
	ranges, text := wordRanges("A", "B", "C")
	scores := [][][]float32{
		{{-10}, {0}},
		{{10}, {0}},
		{{10}, {0}},
	}
	got := Decode(scores, []string{"x"}, 0.5, text, ranges)
	for i := 1; i < len(got); i++ {
		if got[i-1].Start > got[i].Start {
			t.Fatalf("entities not ordered by start: %+v", got)
		}
	}
}
