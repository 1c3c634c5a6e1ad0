package onnxbackend

import (
	"github.com/screenager/gliner2/internal/manifest"
	"github.com/screenager/gliner2/internal/nerrors"
	"github.com/screenager/gliner2/internal/tensor"
)

// Adapters bundles the five compiled module handles an NER instance needs
// for the life of the process (§4.3). Compile is called once per module at
// startup; Run never recompiles.
type Adapters struct {
	backend Backend

	encoder        Handle
	spanRep        Handle
	classifier     Handle
	countPredictor Handle
	countEmbed     Handle

	hiddenSize int
	maxWidth   int
	maxCount   int
}

// ioNames per module, per §4.3's table.
var (
	encoderIn   = []string{"input_ids", "attention_mask"}
	encoderOut  = []string{"last_hidden_state"}
	spanRepIn   = []string{"token_embeddings", "span_indices"}
	spanRepOut  = []string{"span_representations"}
	classIn     = []string{"schema_embeddings"}
	classOut    = []string{"logits"}
	countPIn    = []string{"prompt_embeddings"}
	countPOut   = []string{"count_logits"}
	countEIn    = []string{"label_embeddings"}
	countEOut   = []string{"structure_embeddings"}
)

// Compile loads the five artifacts named by m against backend, in the
// order the runtime needs them ready.
func Compile(backend Backend, m *manifest.Manifest) (*Adapters, error) {
	a := &Adapters{backend: backend, hiddenSize: m.HiddenSize, maxWidth: m.MaxWidth, maxCount: m.MaxCount}

	compileNamed := func(path string, in, out []string) (Handle, error) {
		ob, ok := backend.(*ONNXBackend)
		if !ok {
			return nil, nerrors.New(nerrors.ResourceError, "onnxbackend.compile", "backend does not support named compilation")
		}
		return ob.Compile(path, in, out)
	}

	var err error
	if a.encoder, err = compileNamed(m.Artifacts.Encoder, encoderIn, encoderOut); err != nil {
		return nil, err
	}
	if a.spanRep, err = compileNamed(m.Artifacts.SpanRep, spanRepIn, spanRepOut); err != nil {
		return nil, err
	}
	if a.classifier, err = compileNamed(m.Artifacts.Classifier, classIn, classOut); err != nil {
		return nil, err
	}
	if a.countPredictor, err = compileNamed(m.Artifacts.CountPredictor, countPIn, countPOut); err != nil {
		return nil, err
	}
	if a.countEmbed, err = compileNamed(m.Artifacts.CountEmbed, countEIn, countEOut); err != nil {
		return nil, err
	}
	return a, nil
}

// Close releases all five compiled handles.
func (a *Adapters) Close() error {
	for _, h := range []Handle{a.encoder, a.spanRep, a.classifier, a.countPredictor, a.countEmbed} {
		if h != nil {
			h.Close()
		}
	}
	return nil
}

// Encoder runs the transformer encoder: input_ids/attention_mask [1,S] ->
// hidden states, returned as a [S][H] view over one flat contiguous
// buffer (§4.3).
func (a *Adapters) Encoder(inputIDs, attentionMask []int32, seqLen int) ([][]float32, error) {
	inputs := map[string]Value{
		"input_ids":      {DType: DTInt32, Shape: []int{1, seqLen}, I32: inputIDs},
		"attention_mask": {DType: DTInt32, Shape: []int{1, seqLen}, I32: attentionMask},
	}
	out, err := a.backend.Run(a.encoder, inputs, encoderOut)
	if err != nil {
		return nil, nerrors.Wrap(nerrors.InvalidOutput, "onnxbackend.encoder", "run", err)
	}
	hidden := out["last_hidden_state"]
	if len(hidden.Shape) != 3 || hidden.Shape[1] != seqLen || hidden.Shape[2] != a.hiddenSize {
		return nil, nerrors.New(nerrors.InvalidOutput, "onnxbackend.encoder", "unexpected hidden state shape")
	}
	return tensor.Nest2D(hidden.F32, seqLen, a.hiddenSize), nil
}

// SpanRep calls the span representation head: token embeddings [1,S,H]
// plus flattened span indices [1,S*W,2] -> [S,W,H], returned as a
// contiguous [S*W][H] view (the caller trims the leading |text_words|
// rows, §4.5 step 4).
func (a *Adapters) SpanRep(tokenEmbeddings []float32, seqLen int, spanIndices [][2]int) ([][]float32, error) {
	flatIdx := make([]int32, len(spanIndices)*2)
	for i, p := range spanIndices {
		flatIdx[2*i] = int32(p[0])
		flatIdx[2*i+1] = int32(p[1])
	}
	inputs := map[string]Value{
		"token_embeddings": {DType: DTFloat32, Shape: []int{1, seqLen, a.hiddenSize}, F32: tokenEmbeddings},
		"span_indices":     {DType: DTInt32, Shape: []int{1, len(spanIndices), 2}, I32: flatIdx},
	}
	out, err := a.backend.Run(a.spanRep, inputs, spanRepOut)
	if err != nil {
		return nil, nerrors.Wrap(nerrors.InvalidOutput, "onnxbackend.spanrep", "run", err)
	}
	rep := out["span_representations"]
	rows := rep.elemCount() / a.hiddenSize
	return tensor.Nest2D(rep.F32, rows, a.hiddenSize), nil
}

// Classifier calls the classifier head with the ordered special-marker
// embeddings of a schema group (§4.5 step 2/5). The entity-only path does
// not need the resulting logits but still exercises the module so a
// multi-task schema could consume them unchanged.
func (a *Adapters) Classifier(schemaEmbeddings []float32, numSpecials int) ([]float32, []int, error) {
	inputs := map[string]Value{
		"schema_embeddings": {DType: DTFloat32, Shape: []int{numSpecials, a.hiddenSize}, F32: schemaEmbeddings},
	}
	out, err := a.backend.Run(a.classifier, inputs, classOut)
	if err != nil {
		return nil, nil, nerrors.Wrap(nerrors.InvalidOutput, "onnxbackend.classifier", "run", err)
	}
	logits := out["logits"]
	return logits.F32, logits.Shape, nil
}

// CountPredictor calls the count-prediction head with the [P] prompt
// vector and returns the raw count logits (length C_max+1 or compatible,
// §4.3/§4.5 step 6 — argmax/clamp happens in the pipeline).
func (a *Adapters) CountPredictor(promptEmbedding []float32) ([]float32, error) {
	inputs := map[string]Value{
		"prompt_embeddings": {DType: DTFloat32, Shape: []int{1, a.hiddenSize}, F32: promptEmbedding},
	}
	out, err := a.backend.Run(a.countPredictor, inputs, countPOut)
	if err != nil {
		return nil, nerrors.Wrap(nerrors.InvalidOutput, "onnxbackend.countpredictor", "run", err)
	}
	return out["count_logits"].F32, nil
}

// CountEmbed calls the count-embedding head with the (schema-order)
// label embeddings, padded by the caller to P_max rows, and returns the
// projected structure embeddings as a [C_max][L_cap][H] view (§4.5 step 7).
func (a *Adapters) CountEmbed(labelEmbeddings []float32, pMax int) ([][][]float32, error) {
	inputs := map[string]Value{
		"label_embeddings": {DType: DTFloat32, Shape: []int{pMax, a.hiddenSize}, F32: labelEmbeddings},
	}
	out, err := a.backend.Run(a.countEmbed, inputs, countEOut)
	if err != nil {
		return nil, nerrors.Wrap(nerrors.InvalidOutput, "onnxbackend.countembed", "run", err)
	}
	se := out["structure_embeddings"]
	if len(se.Shape) != 3 {
		return nil, nerrors.New(nerrors.InvalidOutput, "onnxbackend.countembed", "unexpected structure embedding shape")
	}
	return tensor.Nest3D(se.F32, se.Shape[0], se.Shape[1], se.Shape[2]), nil
}
