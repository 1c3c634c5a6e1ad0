package tokenizer

import "unicode"

// Word is a contiguous run of letters/digits (with internal "-"/"_") or a
// single non-whitespace character, together with the byte range it
// occupies in the original input (§3).
type Word struct {
	Text  string
	Start int
	End   int
}

// CharRange is a half-open [Start, End) byte range into an original input
// string.
type CharRange struct {
	Start int
	End   int
}

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isWordJoiner(r rune) bool {
	return r == '-' || r == '_'
}

// splitWords implements the §3 Word rule over text, returning words in
// left-to-right order with byte offsets into text.
func splitWords(text string) []Word {
	var words []Word
	runes := []rune(text)
	// byteOffsets[i] is the byte offset of runes[i]; byteOffsets[len(runes)]
	// is len(text).
	byteOffsets := make([]int, len(runes)+1)
	{
		b := 0
		for i, r := range runes {
			byteOffsets[i] = b
			b += runeLen(r)
		}
		byteOffsets[len(runes)] = b
	}

	i := 0
	for i < len(runes) {
		r := runes[i]
		if unicode.IsSpace(r) {
			i++
			continue
		}
		if isAlnum(r) {
			start := i
			j := i + 1
			for j < len(runes) && (isAlnum(runes[j]) || isWordJoiner(runes[j])) {
				j++
			}
			// Trim trailing joiners: "-"/"_" are only word-internal.
			for j > start+1 && isWordJoiner(runes[j-1]) {
				j--
			}
			words = append(words, Word{
				Text:  string(runes[start:j]),
				Start: byteOffsets[start],
				End:   byteOffsets[j],
			})
			i = j
			continue
		}
		// Single non-whitespace character.
		words = append(words, Word{
			Text:  string(r),
			Start: byteOffsets[i],
			End:   byteOffsets[i+1],
		})
		i++
	}
	return words
}

func runeLen(r rune) int {
	switch {
	case r < 0x80:
		return 1
	case r < 0x800:
		return 2
	case r < 0x10000:
		return 3
	default:
		return 4
	}
}
