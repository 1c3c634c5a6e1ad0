// Package manifest loads the small JSON descriptor naming a GLiNER2
// model's five artifact paths, its tokenizer directory, and its shape
// constants. Loading is stateless: nothing here is cached or retained
// beyond the returned *Manifest.
package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/screenager/gliner2/internal/nerrors"
)

// Artifacts names the on-disk paths of the five neural modules GLiNER2
// orchestrates.
type Artifacts struct {
	Encoder        string `json:"encoder"`
	SpanRep        string `json:"span_rep"`
	Classifier     string `json:"classifier"`
	CountPredictor string `json:"count_predictor"`
	CountEmbed     string `json:"count_embed"`
}

// Manifest is the fully resolved descriptor for one GLiNER2 model.
type Manifest struct {
	ModelID         string    `json:"model_id"`
	MaxSeqLen       int       `json:"max_seq_len"`
	MaxSchemaTokens int       `json:"max_schema_tokens"`
	MaxWidth        int       `json:"max_width"`
	HiddenSize      int       `json:"hidden_size"`
	CountingLayer   string    `json:"counting_layer"`
	MaxCount        int       `json:"max_count"`
	Precision       string    `json:"precision"`
	Artifacts       Artifacts `json:"artifacts"`
	TokenizerDir    string    `json:"tokenizer_dir"`

	// Dir is the manifest file's own directory, used to resolve every
	// relative path above. Not part of the JSON shape.
	Dir string `json:"-"`
}

const stage = "manifest"

// Load reads and validates the manifest at path, resolving every
// relative artifact/tokenizer path against the manifest's directory.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nerrors.Wrap(nerrors.ResourceError, stage, "read manifest", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, nerrors.Wrap(nerrors.ResourceError, stage, "parse manifest json", err)
	}
	m.Dir = filepath.Dir(path)

	if m.TokenizerDir == "" {
		return nil, nerrors.New(nerrors.ResourceError, stage, "tokenizer_dir is required")
	}
	m.TokenizerDir = resolve(m.Dir, m.TokenizerDir)

	for name, p := range map[string]*string{
		"encoder":         &m.Artifacts.Encoder,
		"span_rep":        &m.Artifacts.SpanRep,
		"classifier":      &m.Artifacts.Classifier,
		"count_predictor": &m.Artifacts.CountPredictor,
		"count_embed":     &m.Artifacts.CountEmbed,
	} {
		if *p == "" {
			return nil, nerrors.New(nerrors.ResourceError, stage, "missing artifact path: "+name)
		}
		*p = resolve(m.Dir, *p)
	}

	if m.HiddenSize <= 0 {
		return nil, nerrors.New(nerrors.ResourceError, stage, "hidden_size must be positive")
	}
	if m.MaxSeqLen <= 0 {
		return nil, nerrors.New(nerrors.ResourceError, stage, "max_seq_len must be positive")
	}
	if m.MaxSchemaTokens <= 0 {
		return nil, nerrors.New(nerrors.ResourceError, stage, "max_schema_tokens must be positive")
	}
	if m.MaxWidth <= 0 {
		return nil, nerrors.New(nerrors.ResourceError, stage, "max_width must be positive")
	}
	if m.MaxCount < 0 {
		return nil, nerrors.New(nerrors.ResourceError, stage, "max_count must not be negative")
	}

	return &m, nil
}

// resolve joins rel against base unless rel is already absolute.
func resolve(base, rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(base, rel)
}
