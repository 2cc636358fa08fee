/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/noveldiff/internal"
	"github.com/valpere/noveldiff/internal/hasher"
	"github.com/valpere/noveldiff/internal/orchestrator"
	"github.com/valpere/noveldiff/internal/store"
)

var (
	chapterID string
	aiFile    string
	fanFile   string
	rawFile   string
	feedback  string

	aiVersion  string
	fanVersion string
	rawVersion string

	analyzeServices []string
	provider        string
	model           string
	defaultProvider string
	defaultModel    string

	ollamaURL     string
	openrouterKey string

	analyzeDBPath string
	algoVersion   string
	temperature   float64
	templateFile  string
	noCache       bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze an AI translation against its references",
	Long: `Analyze a chapter's AI translation against the fan translation and raw
source, producing one divergence marker per paragraph.

Results are cached under (chapter, ai/fan/raw versions, algo version) and
additionally matched by content hash, so re-imported chapters with new
version ids reuse existing analyses instead of calling the LLM again.

Available services:
  - ollama      Ollama LLM (self-hosted)
  - openrouter  OpenRouter LLM (requires API key)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		aiText, err := os.ReadFile(aiFile)
		if err != nil {
			return fmt.Errorf("failed to read AI translation: %w", err)
		}
		rawText, err := os.ReadFile(rawFile)
		if err != nil {
			return fmt.Errorf("failed to read raw text: %w", err)
		}

		var fanText []byte
		if fanFile != "" {
			fanText, err = os.ReadFile(fanFile)
			if err != nil {
				return fmt.Errorf("failed to read fan translation: %w", err)
			}
		}

		template := ""
		if templateFile != "" {
			data, err := os.ReadFile(templateFile)
			if err != nil {
				return fmt.Errorf("failed to read template: %w", err)
			}
			template = string(data)
		}

		services, err := buildServices(analyzeServices, ollamaURL, openrouterKey)
		if err != nil {
			return err
		}

		db, err := store.New(dbPathOrDefault(analyzeDBPath))
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		// Version ids default to content hashes so files can be analyzed
		// without an external version registry.
		if aiVersion == "" {
			aiVersion = hasher.Content(string(aiText))
		}
		if rawVersion == "" {
			rawVersion = hasher.Content(string(rawText))
		}
		if fanVersion == "" && len(fanText) > 0 {
			fanVersion = hasher.Content(string(fanText))
		}

		events := orchestrator.Events{
			OnChange: func(ev orchestrator.ChangeEvent) {
				if ev.CacheHit {
					fmt.Fprintf(os.Stderr, "Chapter %s: reused cached analysis\n", ev.ChapterID)
				} else {
					fmt.Fprintf(os.Stderr, "Chapter %s: analysis updated\n", ev.ChapterID)
				}
			},
			OnError: func(ev orchestrator.ErrorEvent) {
				fmt.Fprintf(os.Stderr, "Chapter %s: analysis error: %s\n", ev.ChapterID, ev.Error)
			},
		}

		analyzer := orchestrator.New(services, db, orchestrator.Config{
			Enabled:           true,
			AlgoVersion:       algoVersion,
			Template:          template,
			Temperature:       temperature,
			SkipCache:         noCache,
			PreferredProvider: provider,
			PreferredModel:    model,
			DefaultProvider:   defaultProvider,
			DefaultModel:      defaultModel,
		}, events, nil)

		result, err := analyzer.OnTranslationCompleted(context.Background(), orchestrator.Request{
			ChapterID:        chapterID,
			AIVersionID:      aiVersion,
			FanVersionID:     fanVersion,
			RawVersionID:     rawVersion,
			AIText:           string(aiText),
			FanText:          string(fanText),
			RawText:          string(rawText),
			PreviousFeedback: feedback,
		})
		if err != nil {
			return err
		}

		printResult(result)
		return nil
	},
}

func printResult(res *internal.Result) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "POS\tCHUNK\tCOLORS\tREASONS\tCONF\tEXPLANATION")
	for _, m := range res.Markers {
		conf := "-"
		if m.Confidence != nil {
			conf = fmt.Sprintf("%.2f", *m.Confidence)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			m.Position, m.ChunkID,
			joinColors(m.Colors), joinReasons(m.Reasons),
			conf, snippet(strings.Join(m.Explanations, "; "), 60))
	}
	w.Flush()

	fmt.Printf("\nMarkers: %d  Model: %s  Cost: $%.4f  Analyzed: %s\n",
		len(res.Markers), res.Model, res.CostUSD, res.AnalyzedAt.Format("2006-01-02 15:04:05"))
}

func joinColors(colors []internal.Color) string {
	parts := make([]string, len(colors))
	for i, c := range colors {
		parts[i] = string(c)
	}
	return strings.Join(parts, ",")
}

func joinReasons(reasons []internal.Reason) string {
	parts := make([]string, len(reasons))
	for i, r := range reasons {
		parts[i] = string(r)
	}
	return strings.Join(parts, ",")
}

func snippet(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > max {
		return s[:max-3] + "..."
	}
	return s
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&chapterID, "chapter", "", "Chapter identifier (required)")
	analyzeCmd.Flags().StringVar(&aiFile, "ai", "", "File with the AI translation (required)")
	analyzeCmd.Flags().StringVar(&fanFile, "fan", "", "File with the fan translation (optional)")
	analyzeCmd.Flags().StringVar(&rawFile, "raw", "", "File with the raw source text (required)")
	analyzeCmd.Flags().StringVar(&feedback, "feedback", "", "Reader feedback on earlier analyses")

	analyzeCmd.Flags().StringVar(&aiVersion, "ai-version", "", "AI translation version id (default: content hash)")
	analyzeCmd.Flags().StringVar(&fanVersion, "fan-version", "", "Fan translation version id (default: content hash)")
	analyzeCmd.Flags().StringVar(&rawVersion, "raw-version", "", "Raw text version id (default: content hash)")

	analyzeCmd.Flags().StringSliceVar(&analyzeServices, "services", []string{"ollama"}, "LLM services to register (comma-separated)")
	analyzeCmd.Flags().StringVar(&provider, "provider", "", "Preferred provider for the first attempt")
	analyzeCmd.Flags().StringVar(&model, "model", "", "Preferred model for the first attempt")
	analyzeCmd.Flags().StringVar(&defaultProvider, "default-provider", "ollama", "Fallback provider")
	analyzeCmd.Flags().StringVar(&defaultModel, "default-model", "", "Fallback model (provider default if empty)")

	analyzeCmd.Flags().StringVar(&ollamaURL, "ollama-url", "", "Ollama base URL")
	analyzeCmd.Flags().StringVar(&openrouterKey, "openrouter-key", "", "OpenRouter API key")

	analyzeCmd.Flags().StringVar(&analyzeDBPath, "db", "", "Database path for the diff cache")
	analyzeCmd.Flags().StringVar(&algoVersion, "algo-version", "1", "Analysis algorithm version tag")
	analyzeCmd.Flags().Float64Var(&temperature, "temperature", 0.2, "LLM sampling temperature")
	analyzeCmd.Flags().StringVar(&templateFile, "template", "", "Custom prompt template file")
	analyzeCmd.Flags().BoolVar(&noCache, "no-cache", false, "Skip cache lookups and force a fresh analysis")

	analyzeCmd.MarkFlagRequired("chapter")
	analyzeCmd.MarkFlagRequired("ai")
	analyzeCmd.MarkFlagRequired("raw")
}
