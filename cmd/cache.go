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

	"github.com/valpere/noveldiff/internal/store"
)

var (
	cacheDBPath  string
	cacheChapter string
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the diff result cache",
	Long:  `List, inspect, and clear the SQLite diff result cache.`,
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached diff results for a chapter",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cacheChapter == "" {
			return fmt.Errorf("--chapter is required")
		}

		db, err := store.New(dbPathOrDefault(cacheDBPath))
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		results, err := db.GetByChapter(context.Background(), cacheChapter)
		if err != nil {
			return fmt.Errorf("failed to list results: %w", err)
		}

		if len(results) == 0 {
			fmt.Println("No cached results for this chapter.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "AI VERSION\tFAN VERSION\tRAW VERSION\tALGO\tMARKERS\tMODEL\tCOST\tANALYZED")
		for _, r := range results {
			fan := r.FanVersionID
			if fan == "" {
				fan = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t$%.4f\t%s\n",
				r.AIVersionID, fan, r.RawVersionID, r.AlgoVersion,
				len(r.Markers), r.Model, r.CostUSD,
				r.AnalyzedAt.Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show diff cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := store.New(dbPathOrDefault(cacheDBPath))
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		stats, err := db.Stats(context.Background())
		if err != nil {
			return fmt.Errorf("failed to get stats: %w", err)
		}

		fmt.Printf("Cached results:  %d\n", stats.TotalResults)
		fmt.Printf("Chapters:        %d\n", stats.TotalChapters)
		fmt.Printf("Total cost:      $%.4f\n", stats.TotalCostUSD)
		fmt.Printf("Requests served: %d (%d from cache)\n", stats.TotalRequests, stats.CacheHits)
		return nil
	},
}

var cacheDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete every cached result for a chapter",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cacheChapter == "" {
			return fmt.Errorf("--chapter is required")
		}

		db, err := store.New(dbPathOrDefault(cacheDBPath))
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		if err := db.DeleteByChapter(context.Background(), cacheChapter); err != nil {
			return fmt.Errorf("failed to delete chapter results: %w", err)
		}
		fmt.Printf("Deleted cached results for chapter: %s\n", cacheChapter)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove cached diff results, for one chapter or all of them",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := store.New(dbPathOrDefault(cacheDBPath))
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		if cacheChapter != "" {
			if err := db.DeleteByChapter(context.Background(), cacheChapter); err != nil {
				return fmt.Errorf("failed to clear chapter results: %w", err)
			}
			fmt.Printf("Cleared cached results for chapter: %s\n", cacheChapter)
			return nil
		}

		n, err := db.Clear(context.Background())
		if err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		fmt.Printf("Cleared %d results from the diff cache.\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)

	cacheCmd.PersistentFlags().StringVar(&cacheDBPath, "db", "", "Database path")
	cacheCmd.PersistentFlags().StringVar(&cacheChapter, "chapter", "", "Chapter identifier")

	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheDeleteCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
