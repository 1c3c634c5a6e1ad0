// Package decoder implements the Span Decoder (§4.7): sigmoid
// thresholding, greedy label-agnostic overlap suppression, and
// conversion of surviving candidates into character-offset entities.
//
// Config.NMSThreshold (the legacy IoU-based suppression path) is not
// consulted here: Decode always uses strict interval overlap.
package decoder

import (
	"math"
	"sort"

	"github.com/screenager/gliner2/internal/tokenizer"
)

// Entity is one decoded span.
type Entity struct {
	Text  string
	Label string
	Score float32
	Start uint32
	End   uint32
}

type candidate struct {
	startWord int
	endWord   int // inclusive
	labelIdx  int
	prob      float32
}

func sigmoid(x float32) float32 {
	return float32(1 / (1 + math.Exp(-float64(x))))
}

// Decode runs §4.7 over a [word][width][label] score tensor.
func Decode(scores [][][]float32, labels []string, threshold float32, text string, wordRanges []tokenizer.CharRange) []Entity {
	numWords := len(scores)
	if numWords == 0 || len(wordRanges) == 0 || len(labels) == 0 {
		return nil
	}

	var candidates []candidate
	for w, widths := range scores {
		for width, perLabel := range widths {
			endWord := w + width
			if endWord >= numWords {
				continue
			}
			for l, raw := range perLabel {
				if l >= len(labels) {
					continue
				}
				prob := sigmoid(raw)
				if prob >= threshold {
					candidates = append(candidates, candidate{
						startWord: w,
						endWord:   endWord,
						labelIdx:  l,
						prob:      prob,
					})
				}
			}
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].prob > candidates[j].prob
	})

	var accepted []candidate
	for _, c := range candidates {
		overlaps := false
		for _, a := range accepted {
			if c.startWord <= a.endWord && a.startWord <= c.endWord {
				overlaps = true
				break
			}
		}
		if !overlaps {
			accepted = append(accepted, c)
		}
	}

	sort.SliceStable(accepted, func(i, j int) bool {
		if accepted[i].startWord != accepted[j].startWord {
			return accepted[i].startWord < accepted[j].startWord
		}
		return accepted[i].prob > accepted[j].prob
	})

	entities := make([]Entity, 0, len(accepted))
	for _, c := range accepted {
		if c.startWord >= len(wordRanges) || c.endWord >= len(wordRanges) {
			continue
		}
		charStart := wordRanges[c.startWord].Start
		charEnd := wordRanges[c.endWord].End
		if charStart < 0 || charEnd > len(text) || charStart > charEnd {
			continue
		}
		entities = append(entities, Entity{
			Text:  text[charStart:charEnd],
			Label: labels[c.labelIdx],
			Score: c.prob,
			Start: uint32(charStart),
			End:   uint32(charEnd),
		})
	}
	return entities
}
