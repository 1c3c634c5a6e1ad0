// Package projector implements the Schema Projector (§4.4): gathering
// per-word and per-prompt-marker embeddings out of the encoder's hidden
// states.
package projector

import (
	"github.com/screenager/gliner2/internal/nerrors"
	"github.com/screenager/gliner2/internal/tensor"
	"github.com/screenager/gliner2/internal/tokenizer"
)

const stage = "projector"

// SpecialVector is one (kind, vector) pair produced for a schema group's
// prompt locations, in the order they were declared (§4.4).
type SpecialVector struct {
	Kind   tokenizer.PromptKind
	Vector []float32
}

// Project builds word embeddings (one per text word, first-subword
// gather) and special vectors (one per prompt location, mean pooled)
// from encoder hidden states hidden[S][H] and a schema encoding.
func Project(hidden [][]float32, enc *tokenizer.SchemaEncoding, hiddenSize int) (wordEmb [][]float32, specials []SpecialVector, err error) {
	numWords := len(enc.TextWords)
	wordEmb = make([][]float32, numWords)
	found := make([]bool, numWords)

	for i, m := range enc.Mappings {
		if m.Segment != tokenizer.SegText {
			continue
		}
		w := m.OriginalIndex
		if found[w] {
			continue
		}
		if i >= len(hidden) {
			return nil, nil, nerrors.New(nerrors.EncodingError, stage, "subword position out of range for hidden states")
		}
		wordEmb[w] = append([]float32(nil), hidden[i]...)
		found[w] = true
	}
	for _, ok := range found {
		if !ok {
			return nil, nil, nerrors.New(nerrors.EncodingError, stage, "no subword found for a text word")
		}
	}

	flat := flatten(hidden, hiddenSize)
	specials = make([]SpecialVector, len(enc.PromptLocations))
	for i, loc := range enc.PromptLocations {
		if loc.End <= loc.Start || loc.Start < 0 || loc.End > len(hidden) {
			return nil, nil, nerrors.New(nerrors.EncodingError, stage, "empty or out-of-range prompt location")
		}
		vec := make([]float32, hiddenSize)
		tensor.MeanF32(vec, flat, hiddenSize, loc.Start, loc.End)
		specials[i] = SpecialVector{Kind: loc.Kind, Vector: vec}
	}

	return wordEmb, specials, nil
}

// flatten copies hidden's rows into one contiguous buffer so tensor.MeanF32
// can index it as [S*H]; hidden is already a view from onnxbackend, but
// projector keeps its own copy since it only reads a subset of rows per
// call and the source buffer's lifetime is the adapter's, not the caller's.
func flatten(rows [][]float32, hiddenSize int) []float32 {
	out := make([]float32, len(rows)*hiddenSize)
	for i, r := range rows {
		copy(out[i*hiddenSize:(i+1)*hiddenSize], r)
	}
	return out
}
