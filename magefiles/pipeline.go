//go:build mage

package main

import (
	"fmt"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const catalogsDir = "catalogs"

// catalogPDFs lists the PDFs dropped into catalogs/.
func catalogPDFs() ([]string, error) {
	pdfs, err := filepath.Glob(filepath.Join(catalogsDir, "*.pdf"))
	if err != nil {
		return nil, err
	}
	if len(pdfs) == 0 {
		return nil, fmt.Errorf("no PDFs in %s/", catalogsDir)
	}
	return pdfs, nil
}

// Classify labels every page of the catalogs in catalogs/ with a layout type.
func Classify() error {
	mg.Deps(Build)
	pdfs, err := catalogPDFs()
	if err != nil {
		return err
	}
	return sh.RunV(filepath.Join(binDir, binName), append([]string{"classify"}, pdfs...)...)
}

// Extract parses products from the catalogs in catalogs/ into output/parsed/.
func Extract() error {
	mg.Deps(Build)
	pdfs, err := catalogPDFs()
	if err != nil {
		return err
	}
	return sh.RunV(filepath.Join(binDir, binName), append([]string{"extract"}, pdfs...)...)
}
