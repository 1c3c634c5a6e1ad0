package tokenizer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/screenager/gliner2/internal/nerrors"
)

// Piece is a single SentencePiece vocabulary entry: its id and surface
// string (the literal bytes a Viterbi match consumes), plus the
// unigram log-probability used as its lattice score.
type Piece struct {
	ID      int
	Surface string
	Score   float64
}

// requiredSpecials are the special-token surfaces the tokenizer descriptor
// must provide, per §6.
var requiredSpecials = []string{"[UNK]", "[PAD]", "[CLS]", "[SEP]"}

// vocabEntry decodes one ["surface", score] pair from the raw tokenizer
// JSON's model.vocab array.
type vocabEntry struct {
	Surface string
	Score   float64
}

func (v *vocabEntry) UnmarshalJSON(data []byte) error {
	var tuple [2]interface{}
	if err := json.Unmarshal(data, &tuple); err != nil {
		return err
	}
	s, ok := tuple[0].(string)
	if !ok {
		return fmt.Errorf("vocab entry surface is not a string")
	}
	f, ok := tuple[1].(float64)
	if !ok {
		return fmt.Errorf("vocab entry score is not a number")
	}
	v.Surface = s
	v.Score = f
	return nil
}

type rawAddedToken struct {
	ID      int    `json:"id"`
	Content string `json:"content"`
}

type rawTokenizerFile struct {
	Model struct {
		Type  string       `json:"type"`
		Vocab []vocabEntry `json:"vocab"`
		UnkID int          `json:"unk_id"`
	} `json:"model"`
	AddedTokens []rawAddedToken `json:"added_tokens"`
}

const loadStage = "tokenizer.load"

// locateTokenizerFile resolves the tokenizer descriptor inside dir, trying
// "tokenizer/tokenizer.json" then "tokenizer.json", per §6.
func locateTokenizerFile(dir string) (string, error) {
	candidates := []string{
		filepath.Join(dir, "tokenizer", "tokenizer.json"),
		filepath.Join(dir, "tokenizer.json"),
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		}
	}
	return "", nerrors.New(nerrors.ResourceError, loadStage,
		"no tokenizer.json found under "+dir)
}

// loadVocab parses the tokenizer descriptor at path into id-indexed vocab
// and surface-indexed lookup tables, merging the base unigram vocab (id =
// list index) with any explicit added_tokens (arbitrary id).
func loadVocab(path string) (pieces []Piece, bySurface map[string]int, unkID int, maxTokenLen int, err error) {
	data, readErr := os.ReadFile(path)
	if readErr != nil {
		return nil, nil, 0, 0, nerrors.Wrap(nerrors.ResourceError, loadStage, "read tokenizer.json", readErr)
	}

	var raw rawTokenizerFile
	if jsonErr := json.Unmarshal(data, &raw); jsonErr != nil {
		return nil, nil, 0, 0, nerrors.Wrap(nerrors.ResourceError, loadStage, "parse tokenizer.json", jsonErr)
	}

	if raw.Model.Type != "unigram" {
		return nil, nil, 0, 0, nerrors.New(nerrors.TokenizerError, loadStage,
			fmt.Sprintf("unsupported model type %q, only unigram is supported", raw.Model.Type))
	}
	if len(raw.Model.Vocab) == 0 {
		return nil, nil, 0, 0, nerrors.New(nerrors.ResourceError, loadStage, "model.vocab is empty")
	}

	maxID := len(raw.Model.Vocab) - 1
	for _, at := range raw.AddedTokens {
		if at.ID > maxID {
			maxID = at.ID
		}
	}

	pieces = make([]Piece, maxID+1)
	bySurface = make(map[string]int, maxID+1)

	for i, v := range raw.Model.Vocab {
		pieces[i] = Piece{ID: i, Surface: v.Surface, Score: v.Score}
		bySurface[v.Surface] = i
		if n := utf8.RuneCountInString(v.Surface); n > maxTokenLen {
			maxTokenLen = n
		}
	}
	for _, at := range raw.AddedTokens {
		pieces[at.ID] = Piece{ID: at.ID, Surface: at.Content, Score: 0}
		bySurface[at.Content] = at.ID
		if n := utf8.RuneCountInString(at.Content); n > maxTokenLen {
			maxTokenLen = n
		}
	}

	unkID = raw.Model.UnkID
	for _, req := range requiredSpecials {
		if _, ok := bySurface[req]; !ok {
			return nil, nil, 0, 0, nerrors.New(nerrors.ResourceError, loadStage,
				"required special token missing from vocabulary: "+req)
		}
	}
	if maxTokenLen == 0 {
		maxTokenLen = 1
	}

	return pieces, bySurface, unkID, maxTokenLen, nil
}
