//go:build mage

package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/pdiddy/catalog-engine/internal/reconcile"
)

// Stats prints what the pipeline has produced so far: catalogs waiting in
// catalogs/, classified and parsed documents, and every reconciled cycle
// under output/merged and output/vision.
func Stats() error {
	pdfs, _ := filepath.Glob(filepath.Join(catalogsDir, "*.pdf"))
	classified, _ := filepath.Glob(filepath.Join("output", "page_classification", "*_classification.yaml"))
	fmt.Printf("Catalog PDFs:          %d\n", len(pdfs))
	fmt.Printf("Classified documents:  %d\n", len(classified))

	parsed, _ := filepath.Glob(filepath.Join("output", "parsed", "*.json"))
	pages, items := 0, 0
	for _, path := range parsed {
		docs, err := reconcile.LoadParsedFile(path)
		if err != nil {
			fmt.Printf("  skipped %s: %v\n", path, err)
			continue
		}
		pages += len(docs)
		for _, d := range docs {
			items += len(d.Items)
		}
	}
	fmt.Printf("Parsed documents:      %d (%d pages, %d items)\n", len(parsed), pages, items)

	dirs, err := mergedDirs("output/merged", "output/vision")
	if err != nil {
		return err
	}
	fmt.Printf("Reconciled cycles:     %d\n", len(dirs))
	for _, dir := range dirs {
		res, err := reconcile.ReadResult(dir, "", "")
		if err != nil {
			fmt.Printf("  failed  %s: %v\n", dir, err)
			continue
		}
		fmt.Printf("  %-40s %5d SKUs  %4d unmatched  %4d conflicts\n",
			dir, len(res.BySKU), len(res.Unmatched), len(res.Conflicts))
	}
	return nil
}

// mergedDirs returns the directories under roots holding a by_sku.json,
// sorted. Missing roots are skipped.
func mergedDirs(roots ...string) ([]string, error) {
	var dirs []string
	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if os.IsNotExist(err) {
					return filepath.SkipDir
				}
				return err
			}
			if !d.IsDir() && d.Name() == reconcile.BySKUFile {
				dirs = append(dirs, filepath.Dir(path))
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", root, err)
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}
