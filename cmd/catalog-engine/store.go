// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/catalog-engine/internal/reconcile"
	"github.com/pdiddy/catalog-engine/internal/store"
	"github.com/pdiddy/catalog-engine/pkg/types"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the catalog store (ingest, query, export, runs)",
	Long: `Store keeps reconciled catalog cycles in a local SQLite database.
Use subcommands to ingest merge outputs, query records, export them or
list ingested runs.`,
}

// --- ingest subcommand ---

var storeIngestCmd = &cobra.Command{
	Use:   "ingest [merge-dirs...]",
	Short: "Ingest merge outputs (by_sku.json, unmatched_items.json, conflicts.json)",
	Long: `Ingest reads the outputs written by merge or vision from each directory
and stores them as a run. Ingesting a catalog cycle again replaces its
records, conflicts and unmatched items.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runStoreIngest,
}

func runStoreIngest(cmd *cobra.Command, args []string) error {
	catalog, _ := cmd.Flags().GetString("catalog")
	cycle, _ := cmd.Flags().GetString("cycle")
	if catalog == "" || cycle == "" {
		return fmt.Errorf("--catalog and --cycle are required")
	}

	s, err := store.Open(storeConfig(cmd))
	if err != nil {
		return err
	}
	defer s.Close()

	failed := 0
	for _, dir := range args {
		res, err := reconcile.ReadResult(dir, catalog, cycle)
		if err != nil {
			fmt.Fprintf(os.Stdout, "failed  %s: %v\n", dir, err)
			failed++
			continue
		}
		run, err := s.Ingest(cmd.Context(), res, dir)
		if err != nil {
			fmt.Fprintf(os.Stdout, "failed  %s: %v\n", dir, err)
			failed++
			continue
		}
		fmt.Fprintf(os.Stdout, "ingested %s %s/%s (%d records, %d unmatched, %d conflicts) run %s\n",
			dir, run.Catalog, run.Cycle, run.Records, run.Unmatched, run.Conflicts, run.ID)
	}
	if failed > 0 {
		return fmt.Errorf("%d director(ies) failed ingestion", failed)
	}
	return nil
}

// --- query subcommand ---

var storeQueryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Query canonical records by text, catalog, cycle or SKU",
	Long: `Query matches records whose name, description, variant or SKU contain
the text, restricted by the catalog, cycle and SKU filters.

Use --conflicts to list the logged conflicts for the same filters instead.`,
	RunE: runStoreQuery,
}

func runStoreQuery(cmd *cobra.Command, args []string) error {
	s, err := store.Open(storeConfig(cmd))
	if err != nil {
		return err
	}
	defer s.Close()

	opts := queryOptsFromFlags(cmd, args)
	jsonOutput, _ := cmd.Flags().GetBool("json")

	if showConflicts, _ := cmd.Flags().GetBool("conflicts"); showConflicts {
		conflicts, err := s.Conflicts(cmd.Context(), opts)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(conflicts)
		}
		return formatConflicts(conflicts)
	}

	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide search text, --catalog, --cycle or --sku")
	}
	records, err := s.Query(cmd.Context(), opts)
	if err != nil {
		return err
	}
	if jsonOutput {
		if records == nil {
			records = []types.CanonicalRecord{}
		}
		return printJSON(records)
	}
	return formatRecords(records)
}

func formatRecords(records []types.CanonicalRecord) error {
	if len(records) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-8s  %-10s  %-6s  %-40s  %10s  %10s  %s\n",
		"SKU", "Catalog", "Cycle", "Name", "Regular", "Final", "Pages")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 105))

	for _, r := range records {
		name := r.Name
		if len([]rune(name)) > 40 {
			name = string([]rune(name)[:37]) + "..."
		}
		fmt.Fprintf(os.Stdout, "%-8s  %-10s  %-6s  %-40s  %10s  %10s  %s\n",
			r.SKU, r.Catalog, r.Cycle, name,
			money(r.PriceRegular), money(r.PriceSaleFinal), joinInts(r.Trace.Pages))
	}

	fmt.Fprintf(os.Stdout, "\n%d results\n", len(records))
	return nil
}

func formatConflicts(conflicts []types.ConflictRecord) error {
	if len(conflicts) == 0 {
		fmt.Println("No conflicts.")
		return nil
	}
	fmt.Fprintf(os.Stdout, "%-8s  %-18s  %-20s  %-20s  %s\n", "SKU", "Field", "Kept", "Seen", "Pages")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 85))
	for _, c := range conflicts {
		fmt.Fprintf(os.Stdout, "%-8s  %-18s  %-20v  %-20v  %s\n",
			c.SKU, c.Field, c.FirstValue, c.NewValue, joinInts(c.Pages))
	}
	return nil
}

func money(p *float64) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *p)
}

func joinInts(vs []int) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ",")
}

// --- export subcommand ---

var storeExportCmd = &cobra.Command{
	Use:   "export [text]",
	Short: "Export canonical records to YAML, JSON or XLSX",
	Long: `Export writes the stored records (or a filtered subset) to
<store-dir>/export.yaml, export.json or export.xlsx. The XLSX workbook has
a Catalog sheet and a Conflicts sheet.`,
	RunE: runStoreExport,
}

func runStoreExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	s, err := store.Open(storeConfig(cmd))
	if err != nil {
		return err
	}
	defer s.Close()

	path, err := s.Export(cmd.Context(), strings.ToLower(format), queryOptsFromFlags(cmd, args))
	if err != nil {
		return err
	}
	fmt.Println("Exported to", path)
	return nil
}

// --- runs subcommand ---

var storeRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List ingested runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := store.Open(storeConfig(cmd))
		if err != nil {
			return err
		}
		defer s.Close()

		runs, err := s.Runs(cmd.Context())
		if err != nil {
			return err
		}
		for _, r := range runs {
			fmt.Fprintf(os.Stdout, "%s  %s  %-10s %-6s %4d records  %3d unmatched  %3d conflicts  %s\n",
				r.ID, r.IngestedAt.Format("2006-01-02 15:04"), r.Catalog, r.Cycle,
				r.Records, r.Unmatched, r.Conflicts, r.Source)
		}
		return nil
	},
}

// --- shared helpers ---

func storeConfig(cmd *cobra.Command) types.StoreConfig {
	return types.StoreConfig{
		Dir:        stringSetting(cmd, "store-dir", "store.dir"),
		MaxResults: intSetting(cmd, "max-results", "store.max_results"),
	}
}

func queryOptsFromFlags(cmd *cobra.Command, args []string) store.QueryOptions {
	catalog, _ := cmd.Flags().GetString("catalog")
	cycle, _ := cmd.Flags().GetString("cycle")
	sku, _ := cmd.Flags().GetString("sku")
	limit, _ := cmd.Flags().GetInt("limit")

	return store.QueryOptions{
		Query:      strings.Join(args, " "),
		Catalog:    catalog,
		Cycle:      cycle,
		SKU:        sku,
		MaxResults: limit,
	}
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	storeCmd.PersistentFlags().String("store-dir", "output/store", "directory holding catalog.db and exports")
	storeCmd.PersistentFlags().Int("max-results", 20, "maximum number of query results")
	storeCmd.PersistentFlags().String("catalog", "", "catalog name")
	storeCmd.PersistentFlags().String("cycle", "", "catalog cycle")

	storeQueryCmd.Flags().String("sku", "", "filter by SKU")
	storeQueryCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	storeExportCmd.Flags().String("sku", "", "export a single SKU")
	storeQueryCmd.Flags().Bool("json", false, "output results as JSON")
	storeQueryCmd.Flags().Bool("conflicts", false, "list conflicts instead of records")
	storeExportCmd.Flags().String("format", store.FormatYAML, "export format: yaml, json or xlsx")

	storeCmd.AddCommand(storeIngestCmd)
	storeCmd.AddCommand(storeQueryCmd)
	storeCmd.AddCommand(storeExportCmd)
	storeCmd.AddCommand(storeRunsCmd)

	rootCmd.AddCommand(storeCmd)
}
