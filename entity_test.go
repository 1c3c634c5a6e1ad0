package gliner2

import (
	"testing"

	"github.com/screenager/gliner2/internal/decoder"
)

func TestEntityKeyExcludesScore(t *testing.T) {
	a := Entity{Text: "Apple", Label: "org", Score: 0.4, Start: 0, End: 5}
	b := Entity{Text: "Apple", Label: "org", Score: 0.9, Start: 0, End: 5}
	if a.Key() != b.Key() {
		t.Errorf("Key() should ignore score: %+v vs %+v", a.Key(), b.Key())
	}
}

func TestEntityKeyDiffersOnLabel(t *testing.T) {
	a := Entity{Text: "Apple", Label: "org", Start: 0, End: 5}
	b := Entity{Text: "Apple", Label: "product", Start: 0, End: 5}
	if a.Key() == b.Key() {
		t.Errorf("Key() should differ across labels")
	}
}

func TestFromToDecoderEntitiesRoundTrip(t *testing.T) {
	in := []decoder.Entity{{Text: "a", Label: "x", Score: 0.7, Start: 1, End: 4}}
	out := fromDecoderEntities(in)
	if len(out) != 1 || out[0].Text != "a" || out[0].Label != "x" || out[0].Score != 0.7 {
		t.Fatalf("fromDecoderEntities = %+v", out)
	}
	back := toDecoderEntities(out)
	if len(back) != 1 || back[0] != in[0] {
		t.Fatalf("round trip mismatch: %+v vs %+v", back, in)
	}
}
