// Package config defines the runtime's configuration surface (§6) and an
// optional TOML override file, following the teacher's cmd/sift
// "parse, unmarshal onto defaults" pattern.
package config

import (
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/screenager/gliner2/internal/chunker"
	"github.com/screenager/gliner2/internal/nerrors"
)

// SimilarityMetric and PoolingMethod are reserved for the legacy
// fallback path (§6); the GLiNER2 head always uses raw dot products and
// never consults these fields, but they round-trip through config for
// callers that share a config file with that path.
type SimilarityMetric string

const (
	SimilarityCosine SimilarityMetric = "cosine"
	SimilarityDot    SimilarityMetric = "dot"
)

type PoolingMethod string

const (
	PoolingMean   PoolingMethod = "mean"
	PoolingMax    PoolingMethod = "max"
	PoolingConcat PoolingMethod = "concat"
)

// Config holds every recognised configuration option from §6.
type Config struct {
	Threshold         float32          `toml:"threshold"`
	MaxSequenceLength int              `toml:"max_sequence_length"`
	MaxSpanLength     int              `toml:"max_span_length"`
	StrideLength      int              `toml:"stride_length"`
	Chunker           ChunkerConfig    `toml:"chunker"`
	SimilarityMetric  SimilarityMetric `toml:"similarity_metric"`
	PoolingMethod     PoolingMethod    `toml:"pooling_method"`
	NMSThreshold      float32          `toml:"nms_threshold"`
}

// ChunkerConfig mirrors internal/chunker.Options in config-file shape.
type ChunkerConfig struct {
	MaxChars     int `toml:"max_chars"`
	OverlapChars int `toml:"overlap_chars"`
	MaxWords     int `toml:"max_words"`
}

// Default returns the spec's documented defaults (§6).
func Default() Config {
	return Config{
		Threshold:         0.3,
		MaxSequenceLength: 384,
		MaxSpanLength:     8,
		StrideLength:      192,
		Chunker: ChunkerConfig{
			MaxChars:     1600,
			OverlapChars: 200,
			MaxWords:     240,
		},
		SimilarityMetric: SimilarityDot,
		PoolingMethod:    PoolingMean,
		NMSThreshold:     0.5,
	}
}

// ChunkerOptions adapts Config's chunker block to internal/chunker.Options.
func (c Config) ChunkerOptions() chunker.Options {
	return chunker.Options{
		MaxChars:     c.Chunker.MaxChars,
		OverlapChars: c.Chunker.OverlapChars,
		MaxWords:     c.Chunker.MaxWords,
	}
}

const stage = "config"

// Load reads a TOML override file at path onto Default(), following the
// teacher's ".sift.toml" pattern (fields omitted from the file keep
// their defaults, since toml.Unmarshal fills a pre-populated struct).
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, nerrors.Wrap(nerrors.ResourceError, stage, "read config file", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, nerrors.Wrap(nerrors.ResourceError, stage, "parse config toml", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects unrecognised similarity_metric/pooling_method values.
// Both fields are otherwise inert on the GLiNER2 decode path (§6: "the
// GLiNER2 head uses raw dot products"/"the GLiNER2 decoder uses strict
// interval overlap instead") but a typo in a shared config file should
// still surface as a config error rather than silently falling back.
func (c Config) Validate() error {
	switch c.SimilarityMetric {
	case "", SimilarityCosine, SimilarityDot:
	default:
		return nerrors.New(nerrors.InvalidInput, stage, "unknown similarity_metric: "+string(c.SimilarityMetric))
	}
	switch c.PoolingMethod {
	case "", PoolingMean, PoolingMax, PoolingConcat:
	default:
		return nerrors.New(nerrors.InvalidInput, stage, "unknown pooling_method: "+string(c.PoolingMethod))
	}
	return nil
}
