package tokenizer

import "testing"

func TestNormalizePrependsMarkerAndCollapsesSpace(t *testing.T) {
	got := normalize("hello   world")
	want := spMark + "hello" + spMark + "world"
	if got != want {
		t.Errorf("normalize = %q, want %q", got, want)
	}
}

func TestNormalizeEmptyAfterTrim(t *testing.T) {
	if got := normalize("   \t\n  "); got != "" {
		t.Errorf("normalize(whitespace) = %q, want empty", got)
	}
}

func TestNormalizeCollapsesIdeographicSpaceAndBOM(t *testing.T) {
	got := normalize("a　b\xef\xbb\xbfc")
	want := spMark + "a" + spMark + "b" + spMark + "c"
	if got != want {
		t.Errorf("normalize = %q, want %q", got, want)
	}
}
