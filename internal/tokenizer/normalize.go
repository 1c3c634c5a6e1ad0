package tokenizer

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// spMark is the SentencePiece continuation marker "▁" (U+2581), used to
// mark the start of a new word in the normalized character stream.
const spMark = "▁"

// normalize applies the five-step pipeline from §4.2: trim, NFKC, collapse
// whitespace runs (including ideographic space and BOM) to a single ASCII
// space, prepend a leading space, then replace every space with spMark.
func normalize(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	text = norm.NFKC.String(text)
	text = collapseWhitespace(text)

	if text != "" && !strings.HasPrefix(text, " ") {
		text = " " + text
	}

	return strings.ReplaceAll(text, " ", spMark)
}

// collapseWhitespace replaces every maximal run of whitespace — including
// U+3000 (ideographic space) and U+FEFF (BOM) — with a single ASCII space.
func collapseWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inRun := false
	for _, r := range s {
		if isCollapsibleSpace(r) {
			if !inRun {
				b.WriteByte(' ')
				inRun = true
			}
			continue
		}
		inRun = false
		b.WriteRune(r)
	}
	return b.String()
}

func isCollapsibleSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f', '\u3000', '\ufeff':
		return true
	default:
		return false
	}
}
