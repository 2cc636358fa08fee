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
	"fmt"
	"os"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"
)

var (
	compareLeft  string
	compareRight string
	comparePlain bool
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Show a raw text diff between two translation files",
	Long: `Print a character-level diff between two translation files, useful for
eyeballing the divergences the analyzer flags. This is a plain text
comparison; it applies no chunking and calls no LLM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		left, err := os.ReadFile(compareLeft)
		if err != nil {
			return fmt.Errorf("failed to read left file: %w", err)
		}
		right, err := os.ReadFile(compareRight)
		if err != nil {
			return fmt.Errorf("failed to read right file: %w", err)
		}

		dmp := diffmatchpatch.New()
		diffs := dmp.DiffMain(string(left), string(right), false)
		diffs = dmp.DiffCleanupSemantic(diffs)

		if comparePlain {
			for _, d := range diffs {
				switch d.Type {
				case diffmatchpatch.DiffInsert:
					fmt.Printf("+%q\n", d.Text)
				case diffmatchpatch.DiffDelete:
					fmt.Printf("-%q\n", d.Text)
				}
			}
			return nil
		}

		fmt.Println(dmp.DiffPrettyText(diffs))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(compareCmd)

	compareCmd.Flags().StringVar(&compareLeft, "left", "", "Left file, typically the AI translation (required)")
	compareCmd.Flags().StringVar(&compareRight, "right", "", "Right file, typically the fan translation (required)")
	compareCmd.Flags().BoolVar(&comparePlain, "plain", false, "Print insert/delete segments without terminal colors")

	compareCmd.MarkFlagRequired("left")
	compareCmd.MarkFlagRequired("right")
}
