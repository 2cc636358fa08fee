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
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/noveldiff/internal/orchestrator"
	"github.com/valpere/noveldiff/internal/scorer"
	"github.com/valpere/noveldiff/internal/store"
)

var (
	goldenFile string

	scoreServices []string
	scoreProvider string
	scoreModel    string

	scoreOllamaURL     string
	scoreOpenrouterKey string
	scoreTemperature   float64
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score analysis quality against a golden dataset",
	Long: `Run the full analysis pipeline over every case of a hand-labeled golden
dataset and report precision/recall/F1 per case plus the micro-averaged
aggregate. Uses an in-memory cache so golden runs never touch the real
diff cache.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cases, err := scorer.LoadGolden(goldenFile)
		if err != nil {
			return err
		}
		if len(cases) == 0 {
			return fmt.Errorf("golden dataset is empty")
		}

		services, err := buildServices(scoreServices, scoreOllamaURL, scoreOpenrouterKey)
		if err != nil {
			return err
		}

		db, err := store.New(":memory:")
		if err != nil {
			return fmt.Errorf("failed to open in-memory database: %w", err)
		}
		defer db.Close()

		analyzer := orchestrator.New(services, db, orchestrator.Config{
			Enabled:           true,
			AlgoVersion:       "golden",
			Temperature:       scoreTemperature,
			PreferredProvider: scoreProvider,
			PreferredModel:    scoreModel,
			DefaultProvider:   scoreServices[0],
		}, orchestrator.Events{}, nil)

		ctx := context.Background()
		perCase := make([]scorer.Metrics, 0, len(cases))

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CASE\tTP\tFP\tFN\tWEAK\tPRECISION\tRECALL\tF1")

		for _, c := range cases {
			result, err := analyzer.OnTranslationCompleted(ctx, orchestrator.Request{
				ChapterID:    "golden-" + c.ID,
				AIVersionID:  c.ID + "-ai",
				RawVersionID: c.ID + "-raw",
				AIText:       c.AITranslation,
				FanText:      c.FanTranslation,
				RawText:      c.RawText,
			})
			if err != nil {
				fmt.Fprintf(os.Stderr, "Case %s failed: %v\n", c.ID, err)
				continue
			}

			m, err := scorer.Score(c.ExpectedMarkers, result.Markers)
			if err != nil {
				return fmt.Errorf("case %s: %w", c.ID, err)
			}
			perCase = append(perCase, m)

			fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%.3f\t%.3f\t%.3f\n",
				c.ID, m.TruePositives, m.FalsePositives, m.FalseNegatives,
				m.WeakMatches, m.Precision, m.Recall, m.F1)
		}
		w.Flush()

		if len(perCase) == 0 {
			return fmt.Errorf("no golden case completed")
		}

		total := scorer.Aggregate(perCase)
		fmt.Printf("\nAggregate (micro): precision=%.3f recall=%.3f f1=%.3f (TP=%d FP=%d FN=%d)\n",
			total.Precision, total.Recall, total.F1,
			total.TruePositives, total.FalsePositives, total.FalseNegatives)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().StringVar(&goldenFile, "golden", "", "Golden dataset JSON file (required)")

	scoreCmd.Flags().StringSliceVar(&scoreServices, "services", []string{"ollama"}, "LLM services to register (comma-separated)")
	scoreCmd.Flags().StringVar(&scoreProvider, "provider", "", "Preferred provider")
	scoreCmd.Flags().StringVar(&scoreModel, "model", "", "Preferred model")

	scoreCmd.Flags().StringVar(&scoreOllamaURL, "ollama-url", "", "Ollama base URL")
	scoreCmd.Flags().StringVar(&scoreOpenrouterKey, "openrouter-key", "", "OpenRouter API key")
	scoreCmd.Flags().Float64Var(&scoreTemperature, "temperature", 0.0, "LLM sampling temperature")

	scoreCmd.MarkFlagRequired("golden")
}
