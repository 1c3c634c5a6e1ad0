// Package tokenizer implements the SentencePiece Unigram tokenizer with
// Viterbi decoding (§4.2), the GLiNER2 prompt/schema formatter, and the
// special-token registry both depend on.
package tokenizer

import (
	"sync"

	"github.com/screenager/gliner2/internal/nerrors"
)

// Tokenizer is a loaded, immutable SentencePiece Unigram model plus a
// mutable special-token registry. Per §4.2, the loaded vocabulary itself
// never changes after Load; only special-token registration mutates
// shared state, and that mutation is guarded by specialsMu. All other
// methods are safe for concurrent use.
type Tokenizer struct {
	pieces      []Piece // id-indexed
	bySurface   map[string]int
	unkID       int
	maxTokenLen int // longest vocabulary piece, in runes

	specialsMu sync.Mutex
}

const tokStage = "tokenizer"

// Load reads the tokenizer descriptor from dir (§6: "tokenizer/tokenizer.json"
// or "tokenizer.json") and returns an immutable Tokenizer with the four
// required specials ([UNK] [PAD] [CLS] [SEP]) already present.
func Load(dir string) (*Tokenizer, error) {
	path, err := locateTokenizerFile(dir)
	if err != nil {
		return nil, err
	}
	pieces, bySurface, unkID, maxTokenLen, err := loadVocab(path)
	if err != nil {
		return nil, err
	}
	return &Tokenizer{
		pieces:      pieces,
		bySurface:   bySurface,
		unkID:       unkID,
		maxTokenLen: maxTokenLen,
	}, nil
}

// RegisterSpecial adds or overwrites a special token mapping. Called after
// Load to register the span-head metadata's model-wide marker, entity
// marker, and separator marker (§4.2), and available to callers who need
// additional markers. Safe for concurrent use; the tokenizer's core vocab
// lookup (bySurface) is otherwise read-only after Load.
func (t *Tokenizer) RegisterSpecial(token string, id int) error {
	if token == "" {
		return nerrors.New(nerrors.TokenizerError, tokStage, "cannot register empty special token")
	}
	t.specialsMu.Lock()
	defer t.specialsMu.Unlock()

	if id >= len(t.pieces) {
		grown := make([]Piece, id+1)
		copy(grown, t.pieces)
		t.pieces = grown
	}
	t.pieces[id] = Piece{ID: id, Surface: token, Score: 0}
	t.bySurface[token] = id
	return nil
}

// IDOf returns the vocabulary id of a literal surface string (used for
// special tokens, which are looked up rather than re-tokenized).
func (t *Tokenizer) IDOf(surface string) (int, bool) {
	t.specialsMu.Lock()
	defer t.specialsMu.Unlock()
	id, ok := t.bySurface[surface]
	return id, ok
}

func (t *Tokenizer) mustID(surface string) int {
	id, _ := t.IDOf(surface)
	return id
}

// CLSID, SEPID, PADID, UNKID return the required specials' vocabulary ids.
func (t *Tokenizer) CLSID() int { return t.mustID("[CLS]") }
func (t *Tokenizer) SEPID() int { return t.mustID("[SEP]") }
func (t *Tokenizer) PADID() int { return t.mustID("[PAD]") }
func (t *Tokenizer) UNKID() int { return t.unkID }

// VocabSize returns the number of ids the tokenizer currently knows,
// including any registered specials.
func (t *Tokenizer) VocabSize() int {
	t.specialsMu.Lock()
	defer t.specialsMu.Unlock()
	return len(t.pieces)
}

// tokenize runs normalize+Viterbi over text and returns the raw subword
// pieces, with no special tokens added.
func (t *Tokenizer) tokenize(text string) []Piece {
	normalized := normalize(text)
	if normalized == "" {
		return nil
	}
	return t.viterbi([]rune(normalized))
}

// Encode implements §4.2's encode(text, pad_to_max?): CLS ... SEP,
// truncated to maxLength if longer, padded with PAD (mask 0) if shorter
// and padToMax is requested.
func (t *Tokenizer) Encode(text string, maxLength int, padToMax bool) (ids []int, mask []int, tokens []Piece, err error) {
	if maxLength < 2 {
		return nil, nil, nil, nerrors.New(nerrors.TokenizerError, tokStage, "maxLength must be at least 2")
	}

	pieces := t.tokenize(text)
	budget := maxLength - 2 // room for CLS/SEP
	if len(pieces) > budget {
		pieces = pieces[:budget]
	}

	ids = make([]int, 0, len(pieces)+2)
	mask = make([]int, 0, len(pieces)+2)
	tokens = make([]Piece, 0, len(pieces)+2)

	clsPiece := Piece{ID: t.CLSID(), Surface: "[CLS]"}
	sepPiece := Piece{ID: t.SEPID(), Surface: "[SEP]"}

	ids = append(ids, clsPiece.ID)
	mask = append(mask, 1)
	tokens = append(tokens, clsPiece)

	for _, p := range pieces {
		ids = append(ids, p.ID)
		mask = append(mask, 1)
		tokens = append(tokens, p)
	}

	ids = append(ids, sepPiece.ID)
	mask = append(mask, 1)
	tokens = append(tokens, sepPiece)

	if padToMax {
		padID := t.PADID()
		for len(ids) < maxLength {
			ids = append(ids, padID)
			mask = append(mask, 0)
			tokens = append(tokens, Piece{ID: padID, Surface: "[PAD]"})
		}
	}

	return ids, mask, tokens, nil
}
