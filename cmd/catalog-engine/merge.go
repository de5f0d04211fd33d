// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/catalog-engine/internal/reconcile"
	"github.com/pdiddy/catalog-engine/pkg/types"
)

var mergeCmd = &cobra.Command{
	Use:   "merge [paths...]",
	Short: "Reconcile page documents into one record per SKU",
	Long: `Merge reads page documents from directories of page_NNNN.json files (as
written by vision) or parsed-document files (as written by extract) and
folds them by SKU. The first value seen for a field is kept; later
disagreeing values are logged as conflicts. Items without a SKU are kept
as unmatched.

Writes by_sku.json, unmatched_items.json and conflicts.json.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().String("catalog", "", "catalog name stamped on every record (e.g. natura)")
	mergeCmd.Flags().String("cycle", "", "catalog cycle stamped on every record (e.g. C01)")
	mergeCmd.Flags().String("output-dir", "", "output directory (default output/merged/<catalog>/<cycle>)")

	rootCmd.AddCommand(mergeCmd)
}

func runMerge(cmd *cobra.Command, args []string) error {
	cfg := types.MergeConfig{
		Catalog:   stringSetting(cmd, "catalog", "merge.catalog"),
		Cycle:     stringSetting(cmd, "cycle", "merge.cycle"),
		OutputDir: stringSetting(cmd, "output-dir", "merge.output_dir"),
	}
	if cfg.Catalog == "" || cfg.Cycle == "" {
		return fmt.Errorf("--catalog and --cycle are required")
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = filepath.Join("output", "merged", cfg.Catalog, cfg.Cycle)
	}

	docs, err := reconcile.Load(args, os.Stdout)
	if err != nil {
		return err
	}
	res := reconcile.Merge(docs, cfg.Catalog, cfg.Cycle)
	if err := reconcile.Write(cfg.OutputDir, res); err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "merged %d page(s): %d SKUs, %d unmatched, %d conflicts -> %s\n",
		len(docs), len(res.BySKU), len(res.Unmatched), len(res.Conflicts), cfg.OutputDir)
	return nil
}
