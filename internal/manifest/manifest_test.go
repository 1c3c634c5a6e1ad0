package manifest

import (
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, dir string, body string) string {
	t.Helper()
	path := filepath.Join(dir, "manifest.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

const validManifest = `{
	"model_id": "gliner2-small",
	"max_seq_len": 384,
	"max_schema_tokens": 64,
	"max_width": 8,
	"hidden_size": 768,
	"counting_layer": "linear",
	"max_count": 4,
	"precision": "float32",
	"artifacts": {
		"encoder": "encoder.onnx",
		"span_rep": "span_rep.onnx",
		"classifier": "classifier.onnx",
		"count_predictor": "count_predictor.onnx",
		"count_embed": "count_embed.onnx"
	},
	"tokenizer_dir": "tokenizer"
}`

func TestLoadResolvesRelativePaths(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, validManifest)

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Artifacts.Encoder != filepath.Join(dir, "encoder.onnx") {
		t.Errorf("encoder path not resolved against manifest dir: %s", m.Artifacts.Encoder)
	}
	if m.TokenizerDir != filepath.Join(dir, "tokenizer") {
		t.Errorf("tokenizer dir not resolved: %s", m.TokenizerDir)
	}
	if m.HiddenSize != 768 {
		t.Errorf("hidden_size = %d, want 768", m.HiddenSize)
	}
}

func TestLoadMissingArtifactFails(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `{
		"max_seq_len": 384, "max_schema_tokens": 64, "max_width": 8, "hidden_size": 768,
		"artifacts": {"span_rep": "a", "classifier": "b", "count_predictor": "c", "count_embed": "d"},
		"tokenizer_dir": "tokenizer"
	}`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for missing encoder artifact")
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "does-not-exist.json")); err == nil {
		t.Fatal("expected error for missing manifest file")
	}
}
