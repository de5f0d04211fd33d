// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/catalog-engine/internal/classify"
	"github.com/pdiddy/catalog-engine/internal/textsource"
	"github.com/pdiddy/catalog-engine/pkg/types"
)

var classifyCmd = &cobra.Command{
	Use:   "classify [documents...]",
	Short: "Label every page of each catalog with a layout type",
	Long: `Classify reads the page texts of each document (PDF, .txt with form-feed
page breaks, or a directory of page_NNNN.txt files) and assigns every page
one layout type: EMPTY, LEGAL, PROMO_BANNER, COMBO, TONES_LIST, DE_TO_A,
PRODUCT_SIMPLE, SKU_ONLY or UNKNOWN.

One <document>_classification.yaml is written per document, plus
summary.yaml and summary.csv across all documents.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runClassify,
}

var skusCmd = &cobra.Command{
	Use:   "skus [documents...]",
	Short: "Print the sorted set of SKU codes found in the documents",
	Long: `Skus classifies each document and prints the union of the SKU codes
seen on any page as a JSON array, in numeric order.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSKUs,
}

func init() {
	addTextSourceFlags(classifyCmd)
	classifyCmd.Flags().String("output-dir", "output/page_classification", "directory for classification results")
	classifyCmd.Flags().Int("workers", 4, "pages classified concurrently")

	addTextSourceFlags(skusCmd)

	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(skusCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := types.ClassifyConfig{
		TextSourceConfig: textSourceConfig(cmd),
		Workers:          intSetting(cmd, "workers", "classify.workers"),
		OutputDir:        stringSetting(cmd, "output-dir", "classify.output_dir"),
	}

	summary, err := classify.ClassifyAll(ctx, newPageReader(ctx, cfg.TextSourceConfig), args, cfg, os.Stdout)
	if err != nil {
		return err
	}
	if summary.HasFailures() {
		return fmt.Errorf("%d document(s) failed classification", summary.Failed)
	}
	return nil
}

func runSKUs(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := types.ClassifyConfig{TextSourceConfig: textSourceConfig(cmd)}

	summary, err := classify.ClassifyAll(ctx, newPageReader(ctx, cfg.TextSourceConfig), args, cfg, os.Stderr)
	if err != nil {
		return err
	}

	if err := printJSON(classify.CollectSKUs(summary.Results)); err != nil {
		return err
	}
	if summary.HasFailures() {
		return fmt.Errorf("%d document(s) could not be read", summary.Failed)
	}
	return nil
}

// --- shared text source helpers ---

func addTextSourceFlags(cmd *cobra.Command) {
	cmd.Flags().Int("min-native-chars", 50, "native PDF text below this many characters is treated as scanned")
	cmd.Flags().String("ocr-image", "", "container image used to OCR scanned PDFs (empty disables OCR)")
	cmd.Flags().String("ocr-lang", "spa", "OCR language")
}

func textSourceConfig(cmd *cobra.Command) types.TextSourceConfig {
	return types.TextSourceConfig{
		MinNativeChars: intSetting(cmd, "min-native-chars", "text.min_native_chars"),
		OCRImage:       stringSetting(cmd, "ocr-image", "text.ocr_image"),
		OCRLanguage:    stringSetting(cmd, "ocr-lang", "text.ocr_language"),
	}
}

// newPageReader builds a text source. OCR is attached only when an image
// is configured and a container runtime can run it.
func newPageReader(ctx context.Context, cfg types.TextSourceConfig) *textsource.Source {
	if cfg.OCRImage == "" {
		return textsource.New(cfg, nil)
	}
	ocr, err := textsource.DetectOCR(ctx, cfg.OCRImage, cfg.OCRLanguage)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: OCR disabled: %v\n", err)
		return textsource.New(cfg, nil)
	}
	fmt.Fprintf(os.Stderr, "OCR via %s (%s)\n", ocr.Runtime(), cfg.OCRImage)
	return textsource.New(cfg, ocr)
}
