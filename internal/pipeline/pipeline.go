// Package pipeline orchestrates the four non-encoder heads for one
// encoded schema, following §4.5. Phase structure and per-phase shape
// follows the teacher's internal/embed/embedder.embedBatch: tokenize,
// build tensors, run, decode — mirrored here as project, promote, pad,
// span-rep, classify, count.
package pipeline

import (
	"github.com/screenager/gliner2/internal/manifest"
	"github.com/screenager/gliner2/internal/nerrors"
	"github.com/screenager/gliner2/internal/onnxbackend"
	"github.com/screenager/gliner2/internal/projector"
	"github.com/screenager/gliner2/internal/tokenizer"
)

const stage = "pipeline"

// Result bundles everything the Score Builder and Span Decoder need
// (§4.5 step 8).
type Result struct {
	SpanEmb          []float32 // flat [|text_words| * W * H]
	SpanMask         []float32
	WordEmb          [][]float32
	LabelEmb         [][]float32 // projector's [E] marker vectors, one per label
	PromptEmb        []float32
	ClassifierLogits []float32
	CountLogits      []float32
	StructureEmb     [][][]float32
	PredictedCount   int
	Labels           []string
}

// Pipeline wires a compiled Adapters set against one manifest's shape
// constants.
type Pipeline struct {
	adapters *onnxbackend.Adapters
	m        *manifest.Manifest
}

func New(adapters *onnxbackend.Adapters, m *manifest.Manifest) *Pipeline {
	return &Pipeline{adapters: adapters, m: m}
}

// Run executes §4.5 for one schema encoding whose subword stream has
// already been run through the encoder (hidden holds the resulting
// [S][H] hidden states).
func (p *Pipeline) Run(hidden [][]float32, enc *tokenizer.SchemaEncoding) (*Result, error) {
	H := p.m.HiddenSize
	W := p.m.MaxWidth
	Smax := p.m.MaxSeqLen
	numWords := len(enc.TextWords)
	labels := enc.EntityLabels

	// 1. Projection (§4.4).
	wordEmb, specials, err := projector.Project(hidden, enc, H)
	if err != nil {
		return nil, err
	}

	// 2. Promote specials: first special is [P], the rest are [E] label
	// vectors in label order.
	if len(specials) == 0 || specials[0].Kind != tokenizer.KindPrompt {
		return nil, nerrors.New(nerrors.EncodingError, stage, "missing [P] prompt vector")
	}
	promptEmb := specials[0].Vector
	entityVecs := specials[1:]
	if len(entityVecs) != len(labels) {
		return nil, nerrors.New(nerrors.EncodingError, stage, "entity marker count does not match label count")
	}
	labelEmb := make([][]float32, len(entityVecs))
	for i, sv := range entityVecs {
		labelEmb[i] = sv.Vector
	}

	schemaEmbeddings := flattenVectors(specials)

	// 3. Pad word embeddings to S_max; pad span indices to S_max*W with
	// [0,0] / mask 0 beyond the natural span table.
	paddedWordEmb := padWords(wordEmb, Smax, H)
	paddedIndices, paddedMask := padSpans(enc.SpanIndices, enc.SpanMask, Smax, W)

	// 4. Span representation; trim the leading |text_words| rows.
	tokenEmbFlat := flattenRows(paddedWordEmb)
	spanRows, err := p.adapters.SpanRep(tokenEmbFlat, Smax, paddedIndices)
	if err != nil {
		return nil, err
	}
	trimmed := spanRows
	if numWords*W <= len(spanRows) {
		trimmed = spanRows[:numWords*W]
	}
	spanEmb := flattenRows(trimmed)
	spanMask := paddedMask[:min(len(paddedMask), numWords*W)]

	// 5. Classifier (not consumed by the entity-only path, §9 decision,
	// but still exercised so a multi-task caller could use the logits).
	classifierLogits, _, err := p.adapters.Classifier(schemaEmbeddings, len(specials))
	if err != nil {
		return nil, err
	}

	// 6. Count prediction: argmax clamped to [0, C_max].
	countLogits, err := p.adapters.CountPredictor(promptEmb)
	if err != nil {
		return nil, err
	}
	predictedCount := argmaxClamped(countLogits, p.m.MaxCount)

	// 7. Count embedding.
	var structureEmb [][][]float32
	if predictedCount > 0 {
		pMax := p.m.MaxSchemaTokens
		labelBuf := padVectors(labelEmb, pMax, H)
		full, err := p.adapters.CountEmbed(labelBuf, pMax)
		if err != nil {
			return nil, err
		}
		if predictedCount <= len(full) {
			structureEmb = full[:predictedCount]
		} else {
			structureEmb = full
		}
	}

	return &Result{
		SpanEmb:          spanEmb,
		SpanMask:         spanMask,
		WordEmb:          wordEmb,
		LabelEmb:         labelEmb,
		PromptEmb:        promptEmb,
		ClassifierLogits: classifierLogits,
		CountLogits:      countLogits,
		StructureEmb:     structureEmb,
		PredictedCount:   predictedCount,
		Labels:           labels,
	}, nil
}

func flattenRows(rows [][]float32) []float32 {
	if len(rows) == 0 {
		return nil
	}
	cols := len(rows[0])
	out := make([]float32, len(rows)*cols)
	for i, r := range rows {
		copy(out[i*cols:(i+1)*cols], r)
	}
	return out
}

func flattenVectors(specials []projector.SpecialVector) []float32 {
	if len(specials) == 0 {
		return nil
	}
	h := len(specials[0].Vector)
	out := make([]float32, len(specials)*h)
	for i, sv := range specials {
		copy(out[i*h:(i+1)*h], sv.Vector)
	}
	return out
}

func padWords(wordEmb [][]float32, sMax, hiddenSize int) [][]float32 {
	out := make([][]float32, sMax)
	for i := 0; i < sMax; i++ {
		if i < len(wordEmb) {
			out[i] = wordEmb[i]
		} else {
			out[i] = make([]float32, hiddenSize)
		}
	}
	return out
}

func padVectors(vecs [][]float32, pMax, hiddenSize int) []float32 {
	out := make([]float32, pMax*hiddenSize)
	for i, v := range vecs {
		if i >= pMax {
			break
		}
		copy(out[i*hiddenSize:(i+1)*hiddenSize], v)
	}
	return out
}

func padSpans(indices [][2]int, mask []float32, sMax, width int) ([][2]int, []float32) {
	n := sMax * width
	outIdx := make([][2]int, n)
	outMask := make([]float32, n)
	for i := 0; i < n; i++ {
		if i < len(indices) {
			outIdx[i] = indices[i]
			outMask[i] = mask[i]
		} else {
			outIdx[i] = [2]int{0, 0}
			outMask[i] = 0
		}
	}
	return outIdx, outMask
}

func argmaxClamped(logits []float32, maxCount int) int {
	if len(logits) == 0 {
		return 0
	}
	best := 0
	for i, v := range logits {
		if v > logits[best] {
			best = i
		}
	}
	if best < 0 {
		best = 0
	}
	if best > maxCount {
		best = maxCount
	}
	return best
}
