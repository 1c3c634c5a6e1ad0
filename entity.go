package gliner2

import "github.com/screenager/gliner2/internal/decoder"

// Entity is one recognised span of the input (§6 Public API).
type Entity struct {
	Text  string  `json:"text"`
	Label string  `json:"label"`
	Score float32 `json:"score"`
	Start uint32  `json:"start"`
	End   uint32  `json:"end"`
}

// EntityKey is the (text,label,start,end) tuple Entity equality and
// hashing is defined over (§6); Score is intentionally excluded.
type EntityKey struct {
	Text  string
	Label string
	Start uint32
	End   uint32
}

// Key returns e's identity tuple, usable as a comparable map key.
func (e Entity) Key() EntityKey {
	return EntityKey{Text: e.Text, Label: e.Label, Start: e.Start, End: e.End}
}

func fromDecoderEntities(in []decoder.Entity) []Entity {
	out := make([]Entity, len(in))
	for i, e := range in {
		out[i] = Entity{Text: e.Text, Label: e.Label, Score: e.Score, Start: e.Start, End: e.End}
	}
	return out
}

func toDecoderEntities(in []Entity) []decoder.Entity {
	out := make([]decoder.Entity, len(in))
	for i, e := range in {
		out[i] = decoder.Entity{Text: e.Text, Label: e.Label, Score: e.Score, Start: e.Start, End: e.End}
	}
	return out
}
