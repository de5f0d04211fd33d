// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/catalog-engine/internal/extract"
	"github.com/pdiddy/catalog-engine/pkg/types"
)

var extractCmd = &cobra.Command{
	Use:   "extract [documents...]",
	Short: "Parse products from every page with the layout-specific strategy",
	Long: `Extract classifies each page and routes it to the parser for its layout
type. Documents whose name contains an override fragment (by default
"holistic") use that catalog-specific parser for every page.

One <document>.json is written per document with the page documents that
yielded products. Documents whose output is newer than the source are
skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

func init() {
	addTextSourceFlags(extractCmd)
	extractCmd.Flags().String("output-dir", "output/parsed", "directory for parsed documents")
	extractCmd.Flags().Int("workers", 4, "pages extracted concurrently")
	extractCmd.Flags().StringToString("override", nil, "document-name fragment to layout type, e.g. holistic=HOLISTIC")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	overrides, err := layoutOverrides(cmd)
	if err != nil {
		return err
	}
	cfg := types.ExtractionConfig{
		TextSourceConfig: textSourceConfig(cmd),
		Workers:          intSetting(cmd, "workers", "extraction.workers"),
		Overrides:        overrides,
		OutputDir:        stringSetting(cmd, "output-dir", "extraction.output_dir"),
	}

	ctx := cmd.Context()
	router := extract.NewRouter(cfg.Overrides)
	summary, err := extract.ExtractAll(ctx, newPageReader(ctx, cfg.TextSourceConfig), router, args, cfg, os.Stdout)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "\nextracted: %d, skipped: %d, failed: %d\n",
		summary.Extracted, summary.Skipped, summary.Failed)
	if summary.HasFailures() {
		return fmt.Errorf("%d document(s) failed extraction", summary.Failed)
	}
	return nil
}

// layoutOverrides merges extraction.overrides from the config with
// --override flags. It returns nil when neither is given so the router
// keeps its defaults.
func layoutOverrides(cmd *cobra.Command) (map[string]types.LayoutType, error) {
	raw := viper.GetStringMapString("extraction.overrides")
	flags, _ := cmd.Flags().GetStringToString("override")
	for k, v := range flags {
		if raw == nil {
			raw = map[string]string{}
		}
		raw[k] = v
	}
	if len(raw) == 0 {
		return nil, nil
	}

	out := make(map[string]types.LayoutType, len(raw))
	for fragment, name := range raw {
		lt, err := types.ParseLayoutType(name)
		if err != nil {
			return nil, fmt.Errorf("override %q: %w", fragment, err)
		}
		out[fragment] = lt
	}
	return out, nil
}
