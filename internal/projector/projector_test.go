package projector

import (
	"testing"

	"github.com/screenager/gliner2/internal/tokenizer"
)

func hiddenRows(n, h int) [][]float32 {
	out := make([][]float32, n)
	for i := range out {
		row := make([]float32, h)
		for j := range row {
			row[j] = float32(i*10 + j)
		}
		out[i] = row
	}
	return out
}

func TestProjectGathersFirstSubwordPerWord(t *testing.T) {
	hidden := hiddenRows(4, 2)
	enc := &tokenizer.SchemaEncoding{
		TextWords: make([]tokenizer.Word, 2),
		Mappings: []tokenizer.Mapping{
			{Segment: tokenizer.SegText, OriginalIndex: 0},
			{Segment: tokenizer.SegText, OriginalIndex: 0}, // second subword of word 0, must be ignored
			{Segment: tokenizer.SegText, OriginalIndex: 1},
		},
	}
	wordEmb, specials, err := Project(hidden, enc, 2)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	if len(specials) != 0 {
		t.Fatalf("expected no special vectors, got %d", len(specials))
	}
	if wordEmb[0][0] != hidden[0][0] {
		t.Errorf("word 0 embedding = %v, want first-subword row %v", wordEmb[0], hidden[0])
	}
	if wordEmb[1][0] != hidden[2][0] {
		t.Errorf("word 1 embedding = %v, want row 2 %v", wordEmb[1], hidden[2])
	}
}

func TestProjectFailsWhenWordHasNoSubword(t *testing.T) {
	hidden := hiddenRows(2, 2)
	enc := &tokenizer.SchemaEncoding{
		TextWords: make([]tokenizer.Word, 2),
		Mappings: []tokenizer.Mapping{
			{Segment: tokenizer.SegText, OriginalIndex: 0},
		},
	}
	if _, _, err := Project(hidden, enc, 2); err == nil {
		t.Fatal("expected error when a text word has no mapped subword")
	}
}

func TestProjectMeanPoolsPromptLocations(t *testing.T) {
	hidden := hiddenRows(3, 2)
	enc := &tokenizer.SchemaEncoding{
		TextWords: nil,
		Mappings:  nil,
		PromptLocations: []tokenizer.PromptLocation{
			{Kind: tokenizer.KindEntity, Start: 1, End: 3},
		},
	}
	_, specials, err := Project(hidden, enc, 2)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	if len(specials) != 1 {
		t.Fatalf("got %d specials, want 1", len(specials))
	}
	want0 := (hidden[1][0] + hidden[2][0]) / 2
	if specials[0].Vector[0] != want0 {
		t.Errorf("mean-pooled vector[0] = %v, want %v", specials[0].Vector[0], want0)
	}
}

func TestProjectRejectsEmptyPromptLocation(t *testing.T) {
	hidden := hiddenRows(2, 2)
	enc := &tokenizer.SchemaEncoding{
		PromptLocations: []tokenizer.PromptLocation{{Start: 1, End: 1}},
	}
	if _, _, err := Project(hidden, enc, 2); err == nil {
		t.Fatal("expected error for empty prompt location range")
	}
}
