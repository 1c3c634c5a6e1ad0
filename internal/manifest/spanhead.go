package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/screenager/gliner2/internal/nerrors"
)

// SpecialTokens carries the integer vocabulary ids the tokenizer must
// register for the model's special markers, per §6's span-head metadata
// contract.
type SpecialTokens struct {
	CLS  int `json:"cls"`
	SEP  int `json:"sep"`
	UNK  int `json:"unk"`
	PAD  int `json:"pad"`
	MASK int `json:"mask"`

	// Prompt is the model-wide marker token, written "[P]" in schema
	// encodings (§4.2).
	Prompt int `json:"prompt"`
	// Entity is the per-label marker, written "[E]" in schema encodings.
	Entity int `json:"entity"`
	// SepText separates the schema portion from the text words.
	SepText int `json:"sep_text"`
	// SepStruct separates multiple schema groups from each other.
	SepStruct int `json:"sep_struct"`
}

// SpanHead is the model-wide metadata declared alongside the tokenizer:
// hidden size and max span width (redundant with, and cross-checked
// against, the manifest's own values), the classifier's token index
// convention, the literal marker strings, and the special token ids to
// register.
type SpanHead struct {
	HiddenSize      int           `json:"hidden_size"`
	MaxWidth        int           `json:"max_width"`
	ClassTokenIndex int           `json:"class_token_index"`
	EntToken        string        `json:"ent_token"`
	SepToken        string        `json:"sep_token"`
	SpecialTokens   SpecialTokens `json:"special_tokens"`
}

const spanHeadStage = "manifest.spanhead"

// SpanHeadPath returns the path this manifest's span-head metadata is
// expected to live at. The manifest format (§4.1) does not name this file
// explicitly among its keys, so it is always "span_head.json" inside the
// tokenizer directory, the same directory whose contents it describes.
func (m *Manifest) SpanHeadPath() string {
	return filepath.Join(m.TokenizerDir, "span_head.json")
}

// LoadSpanHead reads and validates the span-head metadata at path.
func LoadSpanHead(path string) (*SpanHead, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nerrors.Wrap(nerrors.ResourceError, spanHeadStage, "read span-head metadata", err)
	}
	var sh SpanHead
	if err := json.Unmarshal(data, &sh); err != nil {
		return nil, nerrors.Wrap(nerrors.ResourceError, spanHeadStage, "parse span-head metadata json", err)
	}
	if sh.HiddenSize <= 0 {
		return nil, nerrors.New(nerrors.ResourceError, spanHeadStage, "hidden_size must be positive")
	}
	if sh.MaxWidth <= 0 {
		return nil, nerrors.New(nerrors.ResourceError, spanHeadStage, "max_width must be positive")
	}
	if sh.EntToken == "" {
		return nil, nerrors.New(nerrors.ResourceError, spanHeadStage, "ent_token is required")
	}
	if sh.SepToken == "" {
		return nil, nerrors.New(nerrors.ResourceError, spanHeadStage, "sep_token is required")
	}
	return &sh, nil
}
