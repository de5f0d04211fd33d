// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// TextSourceConfig holds settings for reading page text from documents.
type TextSourceConfig struct {
	// MinNativeChars is the amount of native PDF text below which a
	// document is treated as scanned and sent to OCR (default 50).
	MinNativeChars int `json:"min_native_chars" yaml:"min_native_chars"`

	// OCRImage is the container image used for OCR. Empty disables OCR.
	OCRImage string `json:"ocr_image,omitempty" yaml:"ocr_image,omitempty"`

	// OCRLanguage is passed to the OCR engine (default "spa").
	OCRLanguage string `json:"ocr_language" yaml:"ocr_language"`
}

// ClassifyConfig holds settings for the classification stage.
type ClassifyConfig struct {
	TextSourceConfig `yaml:",inline"`

	// Workers bounds concurrent page classification (default 4).
	Workers int `json:"workers" yaml:"workers"`

	// OutputDir receives per-document results and summaries
	// (e.g. "output/page_classification").
	OutputDir string `json:"output_dir" yaml:"output_dir"`
}

// ExtractionConfig holds settings for the extraction stage.
type ExtractionConfig struct {
	TextSourceConfig `yaml:",inline"`

	// Workers bounds concurrent page extraction (default 4).
	Workers int `json:"workers" yaml:"workers"`

	// Overrides maps a document-name fragment to the catalog-specific
	// strategy used for every page of matching documents
	// (e.g. "holistic" -> HOLISTIC).
	Overrides map[string]LayoutType `json:"overrides" yaml:"overrides"`

	// OutputDir receives per-document page documents (e.g. "output/parsed").
	OutputDir string `json:"output_dir" yaml:"output_dir"`
}

// MergeConfig identifies the catalog cycle being reconciled.
type MergeConfig struct {
	Catalog string `json:"catalog" yaml:"catalog"`
	Cycle   string `json:"cycle" yaml:"cycle"`

	// OutputDir receives by_sku.json, unmatched_items.json and conflicts.json.
	OutputDir string `json:"output_dir" yaml:"output_dir"`
}

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// VisionConfig holds settings for vision-model page extraction.
type VisionConfig struct {
	HTTPConfig  `yaml:",inline"`
	MergeConfig `yaml:",inline"`

	// BaseURL is the OpenAI-compatible API root (default "https://api.openai.com/v1").
	BaseURL string `json:"base_url" yaml:"base_url"`

	// Model is the vision model identifier (e.g. "gpt-4.1-mini").
	Model string `json:"model" yaml:"model"`

	// APIKey authenticates against the API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of extra attempts per page (default 1).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// ImagesDir holds pre-rendered page images named page_NNNN.png.
	ImagesDir string `json:"images_dir" yaml:"images_dir"`

	// StartPage, EndPage and MaxPages restrict the pages processed.
	// Zero means unrestricted.
	StartPage int `json:"start_page" yaml:"start_page"`
	EndPage   int `json:"end_page" yaml:"end_page"`
	MaxPages  int `json:"max_pages" yaml:"max_pages"`

	// Sleep is the pause between consecutive page calls.
	Sleep time.Duration `json:"sleep" yaml:"sleep"`
}

// StoreConfig holds settings for the catalog store.
type StoreConfig struct {
	// Dir is the directory holding catalog.db and exports.
	Dir string `json:"dir" yaml:"dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

