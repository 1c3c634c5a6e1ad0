package chunker

import (
	"sort"
	"strings"

	"github.com/screenager/gliner2/internal/decoder"
)

// Merge translates each chunk's decoder.Entity offsets (relative to the
// chunk's own text) to absolute offsets into the original input, then
// deduplicates across chunks (§4.8, §8 Merger property): when two
// entities share a label and either have the same case-insensitive text
// or overlapping [Start, End) ranges, only the higher-scoring one
// survives. The result is sorted by score descending.
func Merge(chunks []TextChunk, perChunk [][]decoder.Entity) []decoder.Entity {
	var all []decoder.Entity
	for ci, ents := range perChunk {
		base := uint32(chunks[ci].CharStart)
		for _, e := range ents {
			all = append(all, decoder.Entity{
				Text:  e.Text,
				Label: e.Label,
				Score: e.Score,
				Start: e.Start + base,
				End:   e.End + base,
			})
		}
	}
	if len(all) == 0 {
		return nil
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Score > all[j].Score
	})

	var kept []decoder.Entity
	for _, e := range all {
		dup := false
		for _, k := range kept {
			if k.Label == e.Label && overlapsOrSameText(k, e) {
				dup = true
				break
			}
		}
		if !dup {
			kept = append(kept, e)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Score > kept[j].Score
	})
	return kept
}

func overlapsOrSameText(a, b decoder.Entity) bool {
	if strings.EqualFold(a.Text, b.Text) {
		return true
	}
	return a.Start < b.End && b.Start < a.End
}
