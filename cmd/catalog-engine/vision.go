// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/catalog-engine/internal/secrets"
	"github.com/pdiddy/catalog-engine/internal/vision"
	"github.com/pdiddy/catalog-engine/pkg/types"
)

const defaultUserAgent = "catalog-engine/0.1"

var visionCmd = &cobra.Command{
	Use:   "vision",
	Short: "Read rendered page images with a vision model and merge by SKU",
	Long: `Vision sends each page_NNNN.png in --images to an OpenAI-compatible
Responses API and asks for one JSON object per page. Payloads are
validated, failed pages are retried and then recorded as error documents,
and the successful pages are reconciled by SKU.

Writes page_json/page_NNNN.json, by_sku.json, unmatched_items.json,
conflicts.json and run_summary.json under the output directory.

The API key is read from --api-key, OPENAI_API_KEY or
<secrets-dir>/openai-api-key.`,
	RunE: runVision,
}

func init() {
	visionCmd.Flags().String("images", "", "directory of rendered page images (page_NNNN.png)")
	visionCmd.Flags().String("catalog", "", "catalog name (e.g. natura)")
	visionCmd.Flags().String("cycle", "", "catalog cycle (e.g. C01)")
	visionCmd.Flags().String("out", "", "output directory (default output/vision/<catalog>/<cycle>)")
	visionCmd.Flags().String("model", "gpt-4.1-mini", "vision model identifier")
	visionCmd.Flags().String("base-url", "https://api.openai.com/v1", "OpenAI-compatible API root")
	visionCmd.Flags().String("api-key", "", "API key (overrides environment and secrets)")
	visionCmd.Flags().String("secrets-dir", ".secrets", "directory holding the openai-api-key file")
	visionCmd.Flags().Int("retry", 1, "extra attempts per page")
	visionCmd.Flags().Int("start-page", 0, "first page to read (0 = first available)")
	visionCmd.Flags().Int("end-page", 0, "last page to read, inclusive (0 = last available)")
	visionCmd.Flags().Int("max-pages", 0, "maximum number of pages to read (0 = all)")
	visionCmd.Flags().Duration("sleep", 0, "pause between page calls")
	visionCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 120s)")

	rootCmd.AddCommand(visionCmd)
}

func runVision(cmd *cobra.Command, args []string) error {
	cfg := types.VisionConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   durationSetting(cmd, "timeout", "vision.timeout"),
			UserAgent: defaultUserAgent,
		},
		MergeConfig: types.MergeConfig{
			Catalog:   stringSetting(cmd, "catalog", "vision.catalog"),
			Cycle:     stringSetting(cmd, "cycle", "vision.cycle"),
			OutputDir: stringSetting(cmd, "out", "vision.output_dir"),
		},
		BaseURL:    stringSetting(cmd, "base-url", "vision.base_url"),
		Model:      stringSetting(cmd, "model", "vision.model"),
		MaxRetries: intSetting(cmd, "retry", "vision.max_retries"),
		ImagesDir:  stringSetting(cmd, "images", "vision.images_dir"),
		StartPage:  intSetting(cmd, "start-page", "vision.start_page"),
		EndPage:    intSetting(cmd, "end-page", "vision.end_page"),
		MaxPages:   intSetting(cmd, "max-pages", "vision.max_pages"),
		Sleep:      durationSetting(cmd, "sleep", "vision.sleep"),
	}
	if cfg.ImagesDir == "" || cfg.Catalog == "" || cfg.Cycle == "" {
		return fmt.Errorf("--images, --catalog and --cycle are required")
	}

	secretsDir, _ := cmd.Flags().GetString("secrets-dir")
	apiKey, err := secrets.Resolve(
		stringSetting(cmd, "api-key", "vision.api_key"), "OPENAI_API_KEY", secretsDir, secrets.OpenAIKey)
	if err != nil {
		return err
	}

	backend := vision.NewOpenAIBackend(cfg, apiKey)
	summary, err := vision.Run(cmd.Context(), backend, cfg, os.Stdout)
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout)
	if err := printJSON(summary); err != nil {
		return err
	}
	if summary.PagesError > 0 {
		return fmt.Errorf("%d page(s) failed vision extraction", summary.PagesError)
	}
	return nil
}
