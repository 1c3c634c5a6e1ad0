// Package scorer implements the Score Builder (§4.6): dot-producting
// span representations against label embeddings to produce a
// [word][width][label] score tensor.
package scorer

import "github.com/screenager/gliner2/internal/tensor"

// Build computes scores[word][width][label] = dot(spanEmb[word][width],
// labelEmb[label]) for every (word, width) with spanMask >= 0.5 and a
// hidden-size match; all other entries stay zero (§4.6).
//
// spanEmb is a flat [numWords*width*hiddenSize] buffer (the trimmed
// span-rep output); labelEmb holds the first structure instance's label
// vectors, one per label; a label vector whose length is not hiddenSize
// leaves its scores at zero.
func Build(spanEmb []float32, hiddenSize int, spanMask []float32, numWords, width int, labelEmb [][]float32) [][][]float32 {
	numLabels := len(labelEmb)
	scores := make([][][]float32, numWords)
	for w := 0; w < numWords; w++ {
		scores[w] = make([][]float32, width)
		for d := 0; d < width; d++ {
			scores[w][d] = make([]float32, numLabels)
			idx := w*width + d
			if idx >= len(spanMask) || spanMask[idx] < 0.5 {
				continue
			}
			base := idx * hiddenSize
			if base+hiddenSize > len(spanEmb) {
				continue
			}
			span := spanEmb[base : base+hiddenSize]
			for l, lab := range labelEmb {
				if len(lab) != hiddenSize {
					continue
				}
				scores[w][d][l] = tensor.DotF32(span, lab)
			}
		}
	}
	return scores
}
