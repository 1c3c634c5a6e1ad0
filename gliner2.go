// Package gliner2 is the public API of an on-device zero-shot
// named-entity-recognition runtime built around the GLiNER2 model
// family: schema/prompt construction, SentencePiece tokenization,
// transformer encoding, span scoring, and greedy decoding, with
// chunking for inputs longer than the model's sequence budget.
package gliner2

import (
	"context"
	"sort"
	"strings"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/screenager/gliner2/internal/cache"
	"github.com/screenager/gliner2/internal/chunker"
	"github.com/screenager/gliner2/internal/config"
	"github.com/screenager/gliner2/internal/decoder"
	"github.com/screenager/gliner2/internal/manifest"
	"github.com/screenager/gliner2/internal/nerrors"
	"github.com/screenager/gliner2/internal/onnxbackend"
	"github.com/screenager/gliner2/internal/pipeline"
	"github.com/screenager/gliner2/internal/scorer"
	"github.com/screenager/gliner2/internal/tokenizer"
)

const stage = "gliner2"

// tokenizerCache and spanHeadCache are process-wide, keyed by directory
// or file path, shared across every NER handle (§3, §5): "the
// tokenizer-directory cache and span-head metadata cache ... grow
// monotonically and are never evicted within a process."
var (
	tokenizerCache = cache.New[string, *tokenizer.Tokenizer]()
	spanHeadCache  = cache.New[string, *manifest.SpanHead]()
)

// NER is the immutable, freely shareable top-level handle (§5). Its
// constructor is the only blocking initialisation point; every
// subsequent call is a read-only traversal of its backends and
// tokenizer.
type NER struct {
	manifest *manifest.Manifest
	tok      *tokenizer.Tokenizer
	backend  *onnxbackend.ONNXBackend
	adapters *onnxbackend.Adapters
	pipe     *pipeline.Pipeline
	cfg      config.Config
}

// New loads the manifest at manifestPath, the tokenizer and span-head
// metadata it names, and compiles the five backend modules, returning an
// immutable handle. numThreads controls the backend's intra-op
// parallelism (0 = auto).
func New(manifestPath string, cfg config.Config, numThreads int) (*NER, error) {
	m, err := manifest.Load(manifestPath)
	if err != nil {
		return nil, err
	}

	tok, err := tokenizerCache.GetOrLoad(m.TokenizerDir, func() (*tokenizer.Tokenizer, error) {
		return tokenizer.Load(m.TokenizerDir)
	})
	if err != nil {
		return nil, err
	}

	spanHeadPath := m.SpanHeadPath()
	sh, err := spanHeadCache.GetOrLoad(spanHeadPath, func() (*manifest.SpanHead, error) {
		return manifest.LoadSpanHead(spanHeadPath)
	})
	if err != nil {
		return nil, err
	}
	if sh.HiddenSize != m.HiddenSize || sh.MaxWidth != m.MaxWidth {
		return nil, nerrors.New(nerrors.ResourceError, stage, "span-head hidden_size/max_width disagree with manifest")
	}
	if err := registerSpecials(tok, sh); err != nil {
		return nil, err
	}

	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, nerrors.Wrap(nerrors.ResourceError, stage, "initialize onnxruntime", err)
		}
	}
	backend := onnxbackend.NewONNXBackend(numThreads)
	adapters, err := onnxbackend.Compile(backend, m)
	if err != nil {
		return nil, err
	}

	return &NER{
		manifest: m,
		tok:      tok,
		backend:  backend,
		adapters: adapters,
		pipe:     pipeline.New(adapters, m),
		cfg:      cfg,
	}, nil
}

// Close releases the compiled backend modules.
func (n *NER) Close() error {
	return n.adapters.Close()
}

// registerSpecials registers the span-head's declared marker ids against
// the tokenizer (§4.2/§6): required specials plus the task markers
// ([P], [E], [SEP_TEXT], [SEP_STRUCT]) this runtime's schema formatter
// emits.
func registerSpecials(tok *tokenizer.Tokenizer, sh *manifest.SpanHead) error {
	regs := map[string]int{
		"[CLS]":        sh.SpecialTokens.CLS,
		"[SEP]":        sh.SpecialTokens.SEP,
		"[UNK]":        sh.SpecialTokens.UNK,
		"[PAD]":        sh.SpecialTokens.PAD,
		"[MASK]":       sh.SpecialTokens.MASK,
		"[P]":          sh.SpecialTokens.Prompt,
		"[E]":          sh.SpecialTokens.Entity,
		"[SEP_TEXT]":   sh.SpecialTokens.SepText,
		"[SEP_STRUCT]": sh.SpecialTokens.SepStruct,
	}
	for surface, id := range regs {
		if err := tok.RegisterSpecial(surface, id); err != nil {
			return err
		}
	}
	return nil
}

// ExtractEntities runs the full pipeline over text against labels,
// chunking internally when text exceeds the configured word budget
// (§4.8), and returns entities sorted by start ascending (§8). threshold
// overrides the configured default when provided.
func (n *NER) ExtractEntities(ctx context.Context, text string, labels []string, threshold ...float32) ([]Entity, error) {
	thr := n.cfg.Threshold
	if len(threshold) > 0 {
		thr = threshold[0]
	}

	if strings.TrimSpace(text) == "" || len(labels) == 0 {
		return nil, nil
	}

	opts := n.cfg.ChunkerOptions()
	if !chunker.ShouldChunk(text, opts) {
		ents, err := n.runOne(ctx, text, labels, thr)
		if err != nil {
			return nil, err
		}
		return sortByStart(ents), nil
	}

	chunks := chunker.Chunk(text, opts)
	perChunk := make([][]decoder.Entity, len(chunks))
	for i, c := range chunks {
		select {
		case <-ctx.Done():
			return nil, nerrors.Wrap(nerrors.Cancelled, stage, "extract_entities", ctx.Err())
		default:
		}
		ents, err := n.runOne(ctx, c.Text, labels, thr)
		if err != nil {
			return nil, err
		}
		perChunk[i] = toDecoderEntities(ents)
	}

	merged := chunker.Merge(chunks, perChunk)
	return sortByStart(fromDecoderEntities(merged)), nil
}

// runOne runs the encoder + span pipeline + score builder + decoder over
// one already-chunk-sized piece of text.
func (n *NER) runOne(ctx context.Context, text string, labels []string, threshold float32) ([]Entity, error) {
	select {
	case <-ctx.Done():
		return nil, nerrors.Wrap(nerrors.Cancelled, stage, "run", ctx.Err())
	default:
	}

	enc, err := n.tok.EncodeGliner2Schema(text, labels, n.manifest.MaxSeqLen, n.manifest.MaxWidth)
	if err != nil {
		return nil, err
	}
	if len(enc.TextWords) == 0 {
		return nil, nil
	}

	inputIDs32 := toInt32(enc.InputIDs)
	attnMask32 := toInt32(enc.AttentionMask)
	hidden, err := n.adapters.Encoder(inputIDs32, attnMask32, len(enc.InputIDs))
	if err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, nerrors.Wrap(nerrors.Cancelled, stage, "run", ctx.Err())
	default:
	}

	result, err := n.pipe.Run(hidden, enc)
	if err != nil {
		return nil, err
	}

	// §4.6: the entity-only path scores against the *first* structure
	// instance's label embeddings; if none were predicted there is
	// nothing to dot against and every score stays zero.
	var structureLabelEmb [][]float32
	if len(result.StructureEmb) > 0 {
		structureLabelEmb = result.StructureEmb[0]
	}
	scores := scorer.Build(result.SpanEmb, n.manifest.HiddenSize, result.SpanMask, len(enc.TextWords), n.manifest.MaxWidth, structureLabelEmb)
	decoded := decoder.Decode(scores, labels, threshold, text, enc.TextWordRanges)
	return fromDecoderEntities(decoded), nil
}

func toInt32(ids []int) []int32 {
	out := make([]int32, len(ids))
	for i, v := range ids {
		out[i] = int32(v)
	}
	return out
}

func sortByStart(ents []Entity) []Entity {
	sort.SliceStable(ents, func(i, j int) bool {
		return ents[i].Start < ents[j].Start
	})
	return ents
}
