package tokenizer

import (
	"strings"

	"github.com/screenager/gliner2/internal/nerrors"
)

// Segment classifies which part of a schema encoding's subword stream a
// given position belongs to (§3).
type Segment int

const (
	SegSchema Segment = iota
	SegSeparator
	SegText
)

func (s Segment) String() string {
	switch s {
	case SegSchema:
		return "schema"
	case SegSeparator:
		return "separator"
	case SegText:
		return "text"
	default:
		return "unknown"
	}
}

// Mapping records, for one subword position, which coarse token or text
// word it came from and which schema group it belongs to (§3).
type Mapping struct {
	Segment       Segment
	OriginalIndex int // index into SchemaTokens (schema segment) or TextWords (text segment)
	SchemaGroup   int // -1 for separator/text positions
}

// PromptKind classifies a special marker's role inside a schema (§3).
type PromptKind int

const (
	KindPrompt PromptKind = iota
	KindEntity
	KindRelation
	KindClassification
	KindList
)

// PromptLocation is the subword range a special marker (and, for markers
// like [E] that introduce label text, the text that follows it) expanded
// to (§3, §4.4).
type PromptLocation struct {
	Kind  PromptKind
	Start int // inclusive subword index
	End   int // exclusive subword index
}

// SchemaEncoding is the full tokenizer output the rest of the GLiNER2
// pipeline consumes (§3).
type SchemaEncoding struct {
	SchemaTokens    []string
	TextWords       []Word
	InputIDs        []int
	AttentionMask   []int
	Mappings        []Mapping
	PromptLocations []PromptLocation
	TextWordRanges  []CharRange
	SpanIndices     [][2]int
	SpanMask        []float32
	EntityLabels    []string
}

const (
	markerPrompt    = "[P]"
	markerEntity    = "[E]"
	markerSepText   = "[SEP_TEXT]"
	markerSepStruct = "[SEP_STRUCT]"
)

const schemaStage = "tokenizer.schema"

// schemaBuilder accumulates a schema encoding's subword stream.
type schemaBuilder struct {
	t             *Tokenizer
	schemaTokens  []string
	inputIDs      []int
	mappings      []Mapping
	promptLocs    []PromptLocation
}

// addSchemaToken tokenizes a literal coarse schema token (parentheses, the
// word "entities", or a label string) with the normal Viterbi path and
// records one mapping entry per produced subword.
func (b *schemaBuilder) addSchemaToken(tok string, group int) {
	coarseIdx := len(b.schemaTokens)
	b.schemaTokens = append(b.schemaTokens, tok)
	for _, p := range b.t.tokenize(tok) {
		b.inputIDs = append(b.inputIDs, p.ID)
		b.mappings = append(b.mappings, Mapping{Segment: SegSchema, OriginalIndex: coarseIdx, SchemaGroup: group})
	}
}

// addSpecial looks up a bracketed marker string in the registry (never
// re-tokenized, per §4.2) and appends its single id.
func (b *schemaBuilder) addSpecial(marker string, seg Segment, group int) (pos int, err error) {
	id, ok := b.t.IDOf(marker)
	if !ok {
		return 0, nerrors.New(nerrors.TokenizerError, schemaStage, "unknown special token: "+marker)
	}
	coarseIdx := len(b.schemaTokens)
	b.schemaTokens = append(b.schemaTokens, marker)
	pos = len(b.inputIDs)
	b.inputIDs = append(b.inputIDs, id)
	segOriginal := coarseIdx
	if seg != SegSchema {
		segOriginal = -1
	}
	b.mappings = append(b.mappings, Mapping{Segment: seg, OriginalIndex: segOriginal, SchemaGroup: group})
	return pos, nil
}

func (b *schemaBuilder) pos() int { return len(b.inputIDs) }

// EncodeGliner2Schema builds the combined schema+text subword stream and
// every mapping the downstream pipeline needs (§3, §4.2). Only the
// single-group entity task is built, matching this repository's scope
// (the multi-task Schema API that chains several groups is out of
// scope per §1).
func (t *Tokenizer) EncodeGliner2Schema(text string, labels []string, maxLength, maxSpanWidth int) (*SchemaEncoding, error) {
	if maxLength < 1 {
		return nil, nerrors.New(nerrors.TokenizerError, schemaStage, "maxLength must be positive")
	}
	if maxSpanWidth < 1 {
		return nil, nerrors.New(nerrors.InvalidInput, schemaStage, "maxSpanWidth must be positive")
	}

	b := &schemaBuilder{t: t}
	const group = 0

	b.addSchemaToken("(", group)
	if _, err := b.addSpecial(markerPrompt, SegSchema, group); err != nil {
		return nil, err
	}
	b.addSchemaToken("entities", group)
	b.addSchemaToken("(", group)

	for _, label := range labels {
		ePos, err := b.addSpecial(markerEntity, SegSchema, group)
		if err != nil {
			return nil, err
		}
		b.addSchemaToken(label, group)
		b.promptLocs = append(b.promptLocs, PromptLocation{Kind: KindEntity, Start: ePos, End: b.pos()})
	}

	b.addSchemaToken(")", group)
	b.addSchemaToken(")", group)

	if _, err := b.addSpecial(markerSepText, SegSeparator, -1); err != nil {
		return nil, err
	}

	textWords := splitWords(text)
	textWordRanges := make([]CharRange, len(textWords))
	for wi, w := range textWords {
		textWordRanges[wi] = CharRange{Start: w.Start, End: w.End}
		lowered := strings.ToLower(w.Text)
		pieces := t.tokenize(lowered)
		for _, p := range pieces {
			b.inputIDs = append(b.inputIDs, p.ID)
			b.mappings = append(b.mappings, Mapping{Segment: SegText, OriginalIndex: wi, SchemaGroup: -1})
		}
	}

	if len(b.inputIDs) > maxLength {
		return nil, nerrors.New(nerrors.TokenizerError, schemaStage,
			"schema encoding exceeds maxLength")
	}

	// The [P] marker's own prompt location, a single-subword range.
	promptLoc := PromptLocation{}
	for i, m := range b.mappings {
		if m.Segment == SegSchema {
			surface := b.schemaTokens[m.OriginalIndex]
			if surface == markerPrompt {
				promptLoc = PromptLocation{Kind: KindPrompt, Start: i, End: i + 1}
				break
			}
		}
	}
	allLocs := append([]PromptLocation{promptLoc}, b.promptLocs...)

	attentionMask := make([]int, len(b.inputIDs))
	for i := range attentionMask {
		attentionMask[i] = 1
	}

	spanIndices, spanMask := planSpans(len(textWords), maxSpanWidth)

	return &SchemaEncoding{
		SchemaTokens:    b.schemaTokens,
		TextWords:       textWords,
		InputIDs:        b.inputIDs,
		AttentionMask:   attentionMask,
		Mappings:        b.mappings,
		PromptLocations: allLocs,
		TextWordRanges:  textWordRanges,
		SpanIndices:     spanIndices,
		SpanMask:        spanMask,
		EntityLabels:    labels,
	}, nil
}

// planSpans builds the row-major span_indices/span_mask tables described
// in §3: for each word s and width w, (s, s+w) is valid iff s+w < numWords.
func planSpans(numWords, maxSpanWidth int) ([][2]int, []float32) {
	n := numWords * maxSpanWidth
	spanIndices := make([][2]int, n)
	spanMask := make([]float32, n)
	idx := 0
	for s := 0; s < numWords; s++ {
		for w := 0; w < maxSpanWidth; w++ {
			end := s + w
			if end < numWords {
				spanIndices[idx] = [2]int{s, end}
				spanMask[idx] = 1.0
			} else {
				spanIndices[idx] = [2]int{0, 0}
				spanMask[idx] = 0.0
			}
			idx++
		}
	}
	return spanIndices, spanMask
}

// PromptedEncoding is the result of EncodePrompted (§4.2): a simpler,
// schema-wrapper-free prompt used by callers that only need per-word
// embeddings and label marker positions, not the full nested schema
// structure of EncodeGliner2Schema.
type PromptedEncoding struct {
	InputIDs            []int
	AttentionMask       []int
	Tokens              []Piece
	WordMask            []int // 1-based text word index at each word's first subword, 0 elsewhere
	TextWordRanges      []CharRange
	EntityMarkerIndices []int
}

// EncodePrompted implements §4.2's encode_prompted: "[E] label1 [E] label2
// … [SEP] word1 word2 …", no CLS, no schema parenthesisation.
func (t *Tokenizer) EncodePrompted(text string, labels []string, maxLength int, padToMax bool) (*PromptedEncoding, error) {
	if maxLength < 1 {
		return nil, nerrors.New(nerrors.TokenizerError, schemaStage, "maxLength must be positive")
	}

	var ids []int
	var mask []int
	var tokens []Piece
	var entityMarkers []int

	eID, ok := t.IDOf(markerEntity)
	if !ok {
		return nil, nerrors.New(nerrors.TokenizerError, schemaStage, "unknown special token: "+markerEntity)
	}
	sepID, ok := t.IDOf("[SEP]")
	if !ok {
		return nil, nerrors.New(nerrors.TokenizerError, schemaStage, "unknown special token: [SEP]")
	}

	for _, label := range labels {
		entityMarkers = append(entityMarkers, len(ids))
		ids = append(ids, eID)
		mask = append(mask, 1)
		tokens = append(tokens, Piece{ID: eID, Surface: markerEntity})

		for _, p := range t.tokenize(strings.ToLower(label)) {
			ids = append(ids, p.ID)
			mask = append(mask, 1)
			tokens = append(tokens, p)
		}
	}

	ids = append(ids, sepID)
	mask = append(mask, 1)
	tokens = append(tokens, Piece{ID: sepID, Surface: "[SEP]"})

	words := splitWords(text)
	wordMask := make([]int, len(ids))
	ranges := make([]CharRange, len(words))
	for wi, w := range words {
		ranges[wi] = CharRange{Start: w.Start, End: w.End}
		pieces := t.tokenize(strings.ToLower(w.Text))
		for pi, p := range pieces {
			ids = append(ids, p.ID)
			mask = append(mask, 1)
			tokens = append(tokens, p)
			if pi == 0 {
				wordMask = append(wordMask, wi+1)
			} else {
				wordMask = append(wordMask, 0)
			}
		}
	}

	if len(ids) > maxLength {
		return nil, nerrors.New(nerrors.TokenizerError, schemaStage, "prompted encoding exceeds maxLength")
	}

	if padToMax {
		padID := t.PADID()
		for len(ids) < maxLength {
			ids = append(ids, padID)
			mask = append(mask, 0)
			tokens = append(tokens, Piece{ID: padID, Surface: "[PAD]"})
			wordMask = append(wordMask, 0)
		}
	}

	return &PromptedEncoding{
		InputIDs:            ids,
		AttentionMask:       mask,
		Tokens:              tokens,
		WordMask:            wordMask,
		TextWordRanges:      ranges,
		EntityMarkerIndices: entityMarkers,
	}, nil
}
