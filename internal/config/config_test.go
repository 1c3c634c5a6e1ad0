package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultMatchesDocumentedDefaults(t *testing.T) {
	c := Default()
	if c.Threshold != 0.3 || c.MaxSequenceLength != 384 || c.MaxSpanLength != 8 || c.StrideLength != 192 {
		t.Errorf("unexpected scalar defaults: %+v", c)
	}
	if c.Chunker.MaxChars != 1600 || c.Chunker.OverlapChars != 200 || c.Chunker.MaxWords != 240 {
		t.Errorf("unexpected chunker defaults: %+v", c.Chunker)
	}
	if c.SimilarityMetric != SimilarityDot || c.PoolingMethod != PoolingMean {
		t.Errorf("unexpected enum defaults: %v %v", c.SimilarityMetric, c.PoolingMethod)
	}
}

func TestLoadOverridesOnlySpecifiedFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := "threshold = 0.5\n[chunker]\nmax_words = 100\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Threshold != 0.5 {
		t.Errorf("threshold = %v, want 0.5", cfg.Threshold)
	}
	if cfg.Chunker.MaxWords != 100 {
		t.Errorf("chunker.max_words = %d, want 100", cfg.Chunker.MaxWords)
	}
	if cfg.MaxSequenceLength != 384 {
		t.Errorf("unspecified max_sequence_length should keep default, got %d", cfg.MaxSequenceLength)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidateRejectsUnknownSimilarityMetric(t *testing.T) {
	c := Default()
	c.SimilarityMetric = "euclidean"
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for unknown similarity_metric")
	}
}

func TestValidateRejectsUnknownPoolingMethod(t *testing.T) {
	c := Default()
	c.PoolingMethod = "sum"
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for unknown pooling_method")
	}
}

func TestChunkerOptionsAdapts(t *testing.T) {
	c := Default()
	opts := c.ChunkerOptions()
	if opts.MaxChars != c.Chunker.MaxChars || opts.OverlapChars != c.Chunker.OverlapChars || opts.MaxWords != c.Chunker.MaxWords {
		t.Errorf("ChunkerOptions() = %+v, want fields copied from %+v", opts, c.Chunker)
	}
}
