// Package chunker splits long input text into overlapping word-bounded
// windows so each window fits the encoder's sequence budget, then merges
// and deduplicates entities decoded from each window back into one
// result over the original text (§4.8). The boundary-preference cascade
// (newline, then whitespace, then hard cut) is carried over from the
// teacher's byte-window file chunker. Each window after the first starts
// OverlapChars bytes before the previous window ended (skipping any
// whitespace there); that start is not moved to a word boundary, so it may
// fall inside a word.
package chunker

import (
	"strings"
	"unicode"
)

// Options controls chunking behaviour (§6: chunker.max_chars,
// chunker.overlap_chars, chunker.max_words).
type Options struct {
	MaxChars     int
	OverlapChars int
	MaxWords     int
}

// DefaultOptions returns the spec's default chunking parameters.
func DefaultOptions() Options {
	return Options{
		MaxChars:     1600,
		OverlapChars: 200,
		MaxWords:     240,
	}
}

// TextChunk is one window of the original input, carrying its
// [CharStart, CharEnd) range so decoded entities can be translated back
// to absolute offsets.
type TextChunk struct {
	Text      string
	CharStart int
	CharEnd   int
}

// WordCount counts whitespace-delimited words, matching should_chunk's
// and chunk's word-budget accounting (§4.8).
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// ShouldChunk reports whether text exceeds opts.MaxWords and therefore
// needs windowing at all.
func ShouldChunk(text string, opts Options) bool {
	return WordCount(text) > opts.MaxWords
}

// Chunk partitions text into overlapping windows per §4.8. If
// !ShouldChunk(text, opts) it returns a single chunk spanning the whole
// (trimmed) input, or nil when the input is all whitespace.
func Chunk(text string, opts Options) []TextChunk {
	if opts.MaxChars < 256 {
		opts.MaxChars = 256
	}
	if opts.OverlapChars < 0 {
		opts.OverlapChars = 0
	}

	if !ShouldChunk(text, opts) {
		trimmed := strings.TrimFunc(text, unicode.IsSpace)
		if trimmed == "" {
			return nil
		}
		start := strings.Index(text, trimmed)
		return []TextChunk{{Text: trimmed, CharStart: start, CharEnd: start + len(trimmed)}}
	}

	var chunks []TextChunk
	n := len(text)
	start := 0

	for start < n {
		// Skip leading whitespace so empty windows never get produced.
		for start < n && unicode.IsSpace(rune(text[start])) {
			start++
		}
		if start >= n {
			break
		}

		end := start + opts.MaxChars
		if end >= n {
			end = n
		} else {
			end = preferredBoundary(text, start, end)
		}

		window := text[start:end]
		for WordCount(window) > opts.MaxWords {
			shrunk := lastWhitespace(window)
			if shrunk <= 0 {
				break
			}
			window = window[:shrunk]
		}

		trimmedWindow := strings.TrimFunc(window, unicode.IsSpace)
		if trimmedWindow != "" {
			localStart := strings.Index(window, trimmedWindow)
			chunkStart := start + localStart
			chunks = append(chunks, TextChunk{
				Text:      trimmedWindow,
				CharStart: chunkStart,
				CharEnd:   chunkStart + len(trimmedWindow),
			})
		}

		actualEnd := start + len(window)
		nextStart := actualEnd - opts.OverlapChars
		if nextStart <= start {
			nextStart = actualEnd
			if nextStart <= start {
				nextStart = start + 1
			}
		}
		start = nextStart
	}

	return chunks
}

// preferredBoundary finds the best place to end a window starting at
// start and budgeted up to limit: last newline, else last whitespace,
// else the hard limit.
func preferredBoundary(text string, start, limit int) int {
	window := text[start:limit]
	if i := strings.LastIndexByte(window, '\n'); i != -1 {
		return start + i + 1
	}
	if i := lastWhitespace(window); i > 0 {
		return start + i
	}
	return limit
}

// lastWhitespace returns the byte index of the last whitespace character
// in s, or -1 if s has none.
func lastWhitespace(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if unicode.IsSpace(rune(s[i])) {
			return i
		}
	}
	return -1
}
