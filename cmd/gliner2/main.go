// Command gliner2 is a minimal demonstration CLI around the gliner2
// package: it reads a text file and a comma-separated label list, runs
// entity extraction, and prints the result as JSON. CLI argument
// parsing, benchmarking, and summary reporting beyond this are out of
// scope (§1 Non-goals).
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/screenager/gliner2"
	"github.com/screenager/gliner2/internal/chunker"
	"github.com/screenager/gliner2/internal/config"
)

var (
	defaultManifestPath = "./model/manifest.json"
	defaultThreads      = 0
)

func main() {
	root := &cobra.Command{
		Use:   "gliner2",
		Short: "On-device zero-shot named entity recognition",
		Long:  "gliner2 — offline zero-shot NER over the GLiNER2 model family.",
	}

	var fileCfg struct {
		ManifestPath string `toml:"manifest-path"`
		Threads      int    `toml:"threads"`
	}
	if b, err := os.ReadFile(".gliner2.toml"); err == nil {
		if err := toml.Unmarshal(b, &fileCfg); err == nil {
			if fileCfg.ManifestPath != "" {
				defaultManifestPath = fileCfg.ManifestPath
			}
			if fileCfg.Threads > 0 {
				defaultThreads = fileCfg.Threads
			}
		}
	}

	var manifestPath string
	var numThreads int
	var configPath string
	root.PersistentFlags().StringVar(&manifestPath, "manifest", defaultManifestPath, "path to the model manifest JSON")
	root.PersistentFlags().IntVar(&numThreads, "threads", defaultThreads, "ONNX intra-op thread count (0 = auto)")
	root.PersistentFlags().StringVar(&configPath, "config", "", "optional gliner2.toml overriding runtime defaults")

	var labelsFlag string
	var thresholdFlag float32
	extractCmd := &cobra.Command{
		Use:   "extract <text-file>",
		Short: "Extract entities from a text file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			labels := splitLabels(labelsFlag)
			if len(labels) == 0 {
				return fmt.Errorf("--labels must list at least one entity type")
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			text := string(data)

			cfg := config.Default()
			if configPath != "" {
				cfg, err = config.Load(configPath)
				if err != nil {
					return err
				}
			}

			fmt.Fprint(os.Stderr, "Loading model… ")
			ner, err := gliner2.New(manifestPath, cfg, numThreads)
			if err != nil {
				fmt.Fprintln(os.Stderr, "")
				return err
			}
			defer ner.Close()
			fmt.Fprintln(os.Stderr, "ready.")

			bar := progressBarFor(text, cfg)

			ctx := context.Background()
			var ents []gliner2.Entity
			if thresholdFlag > 0 {
				ents, err = ner.ExtractEntities(ctx, text, labels, thresholdFlag)
			} else {
				ents, err = ner.ExtractEntities(ctx, text, labels)
			}
			if bar != nil {
				bar.SetCurrent(bar.Current() + 1)
			}
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(ents, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal entities: %w", err)
			}
			fmt.Println(string(out))
			return nil
		},
	}
	extractCmd.Flags().StringVar(&labelsFlag, "labels", "", "comma-separated entity type labels")
	extractCmd.Flags().Float32Var(&thresholdFlag, "threshold", 0, "sigmoid threshold override (0 = use configured default)")
	root.AddCommand(extractCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func splitLabels(s string) []string {
	var out []string
	for _, l := range strings.Split(s, ",") {
		l = strings.TrimSpace(l)
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}

// progressBarFor shows a bar over the number of chunks long input will
// be split into; short input that needs no chunking gets a single-step
// bar so the "ready."/entities transition still has visible progress.
func progressBarFor(text string, cfg config.Config) *mpb.Bar {
	opts := cfg.ChunkerOptions()
	total := int64(1)
	if chunker.ShouldChunk(text, opts) {
		total = int64(len(chunker.Chunk(text, opts)))
	}
	p := mpb.New(mpb.WithWidth(40))
	return p.AddBar(total,
		mpb.PrependDecorators(
			decor.Name("Extracting: "),
			decor.Percentage(decor.WCSyncSpace),
		),
		mpb.AppendDecorators(
			decor.OnComplete(decor.AverageETA(decor.ET_STYLE_GO), "done!"),
		),
	)
}
