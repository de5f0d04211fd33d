// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reconcile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/pdiddy/catalog-engine/pkg/types"
)

// Output file names written by Write.
const (
	BySKUFile     = "by_sku.json"
	UnmatchedFile = "unmatched_items.json"
	ConflictsFile = "conflicts.json"
)

var rePageFile = regexp.MustCompile(`^page_(\d+)\.json$`)

// PageFileName returns the file name of a page document, e.g. page_0007.json.
func PageFileName(page int) string {
	return fmt.Sprintf("page_%04d.json", page)
}

// Write persists the three reconciliation outputs as indented JSON in dir.
func Write(dir string, res types.MergeResult) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	files := []struct {
		name string
		v    any
	}{
		{BySKUFile, res.BySKU},
		{UnmatchedFile, res.Unmatched},
		{ConflictsFile, res.Conflicts},
	}
	for _, f := range files {
		if err := WriteJSON(filepath.Join(dir, f.name), f.v); err != nil {
			return err
		}
	}
	return nil
}

// WriteJSON writes v as two-space indented JSON without HTML escaping.
func WriteJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("marshaling %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// ReadResult loads the outputs written by Write.
func ReadResult(dir, catalog, cycle string) (types.MergeResult, error) {
	res := types.MergeResult{Catalog: catalog, Cycle: cycle}
	files := []struct {
		name string
		v    any
	}{
		{BySKUFile, &res.BySKU},
		{UnmatchedFile, &res.Unmatched},
		{ConflictsFile, &res.Conflicts},
	}
	for _, f := range files {
		data, err := os.ReadFile(filepath.Join(dir, f.name))
		if err != nil {
			return types.MergeResult{}, fmt.Errorf("reading %s: %w", f.name, err)
		}
		if err := json.Unmarshal(data, f.v); err != nil {
			return types.MergeResult{}, fmt.Errorf("parsing %s: %w", f.name, err)
		}
	}
	if res.BySKU == nil {
		res.BySKU = map[string]*types.CanonicalRecord{}
	}
	for _, rec := range res.BySKU {
		if res.Catalog == "" {
			res.Catalog = rec.Catalog
		}
		if res.Cycle == "" {
			res.Cycle = rec.Cycle
		}
	}
	return res, nil
}

// LoadPageDir reads every page_NNNN.json in dir in ascending page order.
// A document whose page field is unset takes the page from its file name.
func LoadPageDir(dir string) ([]types.PageDocument, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading page directory %s: %w", dir, err)
	}

	type pageFile struct {
		page int
		path string
	}
	var files []pageFile
	for _, e := range entries {
		m := rePageFile.FindStringSubmatch(e.Name())
		if e.IsDir() || m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		files = append(files, pageFile{page: n, path: filepath.Join(dir, e.Name())})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].page < files[j].page })

	docs := make([]types.PageDocument, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f.path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f.path, err)
		}
		var doc types.PageDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", f.path, err)
		}
		if doc.Page == 0 {
			doc.Page = f.page
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// LoadParsedFile reads the page documents of a parsed-document JSON file.
func LoadParsedFile(path string) ([]types.PageDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var doc types.ParsedDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return doc.Pages, nil
}

// Load reads page documents from each path: a directory of page files or a
// parsed-document JSON file. Documents carrying an error are skipped.
func Load(paths []string, w io.Writer) ([]types.PageDocument, error) {
	var docs []types.PageDocument
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
		var got []types.PageDocument
		if info.IsDir() {
			got, err = LoadPageDir(p)
		} else {
			got, err = LoadParsedFile(p)
		}
		if err != nil {
			return nil, err
		}
		for _, d := range got {
			if d.Error != "" {
				fmt.Fprintf(w, "skipped page %d: %s\n", d.Page, d.Error)
				continue
			}
			docs = append(docs, d)
		}
	}
	return docs, nil
}
