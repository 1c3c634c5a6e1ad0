package onnxbackend

import "testing"

// fakeHandle is a no-op Handle for tests that never touch ONNX Runtime.
type fakeHandle struct{ name string }

func (fakeHandle) Close() error { return nil }

// fakeBackend lets tests script the output a Run call returns for a given
// handle, without loading a real model.
type fakeBackend struct {
	runFn func(h Handle, inputs map[string]Value, outputNames []string) (map[string]Value, error)
}

func (b *fakeBackend) Compile(path string, inputNames, outputNames []string) (Handle, error) {
	return fakeHandle{name: path}, nil
}

func (b *fakeBackend) Run(h Handle, inputs map[string]Value, outputNames []string) (map[string]Value, error) {
	return b.runFn(h, inputs, outputNames)
}

func newTestAdapters(run func(h Handle, inputs map[string]Value, outputNames []string) (map[string]Value, error)) *Adapters {
	return &Adapters{
		backend:        &fakeBackend{runFn: run},
		encoder:        fakeHandle{name: "encoder"},
		spanRep:        fakeHandle{name: "span_rep"},
		classifier:     fakeHandle{name: "classifier"},
		countPredictor: fakeHandle{name: "count_predictor"},
		countEmbed:     fakeHandle{name: "count_embed"},
		hiddenSize:     4,
		maxWidth:       2,
		maxCount:       3,
	}
}

func TestAdaptersEncoderNestsHiddenStates(t *testing.T) {
	a := newTestAdapters(func(h Handle, inputs map[string]Value, outputNames []string) (map[string]Value, error) {
		flat := make([]float32, 2*4)
		for i := range flat {
			flat[i] = float32(i)
		}
		return map[string]Value{"last_hidden_state": {DType: DTFloat32, Shape: []int{1, 2, 4}, F32: flat}}, nil
	})
	hidden, err := a.Encoder([]int32{1, 2}, []int32{1, 1}, 2)
	if err != nil {
		t.Fatalf("Encoder: %v", err)
	}
	if len(hidden) != 2 || len(hidden[0]) != 4 {
		t.Fatalf("hidden shape = %dx%d, want 2x4", len(hidden), len(hidden[0]))
	}
	if hidden[1][0] != 4 {
		t.Errorf("hidden[1][0] = %v, want 4", hidden[1][0])
	}
}

func TestAdaptersEncoderRejectsWrongShape(t *testing.T) {
	a := newTestAdapters(func(h Handle, inputs map[string]Value, outputNames []string) (map[string]Value, error) {
		return map[string]Value{"last_hidden_state": {DType: DTFloat32, Shape: []int{1, 3, 4}, F32: make([]float32, 12)}}, nil
	})
	if _, err := a.Encoder([]int32{1, 2}, []int32{1, 1}, 2); err == nil {
		t.Fatal("expected error for mismatched sequence length in output shape")
	}
}

func TestAdaptersCountEmbedNests3D(t *testing.T) {
	a := newTestAdapters(func(h Handle, inputs map[string]Value, outputNames []string) (map[string]Value, error) {
		flat := make([]float32, 1*2*4)
		for i := range flat {
			flat[i] = float32(i)
		}
		return map[string]Value{"structure_embeddings": {DType: DTFloat32, Shape: []int{1, 2, 4}, F32: flat}}, nil
	})
	se, err := a.CountEmbed(make([]float32, 2*4), 2)
	if err != nil {
		t.Fatalf("CountEmbed: %v", err)
	}
	if len(se) != 1 || len(se[0]) != 2 || len(se[0][0]) != 4 {
		t.Fatalf("structure embeddings shape wrong: %d/%d/%d", len(se), len(se[0]), len(se[0][0]))
	}
}

func TestAdaptersClassifierPassesThroughLogits(t *testing.T) {
	a := newTestAdapters(func(h Handle, inputs map[string]Value, outputNames []string) (map[string]Value, error) {
		return map[string]Value{"logits": {DType: DTFloat32, Shape: []int{3, 2}, F32: []float32{1, 2, 3, 4, 5, 6}}}, nil
	})
	logits, shape, err := a.Classifier(make([]float32, 3*4), 3)
	if err != nil {
		t.Fatalf("Classifier: %v", err)
	}
	if len(logits) != 6 || shape[0] != 3 || shape[1] != 2 {
		t.Fatalf("unexpected logits/shape: %v %v", logits, shape)
	}
}
