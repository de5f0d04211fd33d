// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/catalog-engine/internal/httputil"
	"github.com/pdiddy/catalog-engine/pkg/types"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4.1-mini"
	defaultTimeout = 120 * time.Second

	// nonJSONWarning marks a page whose model output could not be parsed.
	nonJSONWarning = "NON_JSON_OUTPUT_FALLBACK"

	// RawOutputKey carries unparsable model output out of ExtractPage. The
	// runner writes it to page_NNNN.raw.txt and removes it from the payload.
	RawOutputKey = "_raw_output"
)

// OpenAIBackend calls an OpenAI-compatible Responses API with the page
// image inlined as a base64 PNG data URL.
type OpenAIBackend struct {
	client     *http.Client
	baseURL    string
	model      string
	apiKey     string
	userAgent  string
	catalog    string
	maxRetries int
}

// NewOpenAIBackend builds a backend from cfg. apiKey is sent as a bearer
// token.
func NewOpenAIBackend(cfg types.VisionConfig, apiKey string) *OpenAIBackend {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	return &OpenAIBackend{
		client:     &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		model:      model,
		apiKey:     apiKey,
		userAgent:  cfg.UserAgent,
		catalog:    cfg.Catalog,
		maxRetries: cfg.MaxRetries,
	}
}

type responsesRequest struct {
	Model string          `json:"model"`
	Input []inputMessage  `json:"input"`
	Text  *textFormatSpec `json:"text,omitempty"`
}

type inputMessage struct {
	Role    string         `json:"role"`
	Content []inputContent `json:"content"`
}

type inputContent struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

type textFormatSpec struct {
	Format struct {
		Type string `json:"type"`
	} `json:"format"`
}

type responsesResponse struct {
	OutputText string `json:"output_text"`
	Output     []struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
}

// text returns the first text output of the response.
func (r responsesResponse) text() (string, bool) {
	if r.OutputText != "" {
		return r.OutputText, true
	}
	for _, item := range r.Output {
		for _, c := range item.Content {
			if (c.Type == "output_text" || c.Type == "text") && c.Text != "" {
				return c.Text, true
			}
		}
	}
	return "", false
}

// ExtractPage sends one page image and returns the decoded JSON object the
// model produced. Output that is not JSON yields a fallback payload with no
// items, a warning and the raw text under RawOutputKey.
func (b *OpenAIBackend) ExtractPage(ctx context.Context, image []byte, page int) (map[string]any, error) {
	prompt, err := renderPrompt(b.catalog, page)
	if err != nil {
		return nil, fmt.Errorf("rendering prompt: %w", err)
	}

	reqBody := responsesRequest{
		Model: b.model,
		Input: []inputMessage{{
			Role: "user",
			Content: []inputContent{
				{Type: "input_text", Text: prompt},
				{Type: "input_image", ImageURL: "data:image/png;base64," + base64.StdEncoding.EncodeToString(image)},
			},
		}},
		Text: &textFormatSpec{},
	}
	reqBody.Text.Format.Type = "json_object"

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/responses", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.apiKey)
	if b.userAgent != "" {
		req.Header.Set("User-Agent", b.userAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, b.client, req, b.maxRetries)
	if err != nil {
		return nil, fmt.Errorf("calling vision API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("vision API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var r responsesResponse
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("decoding vision response: %w", err)
	}
	text, ok := r.text()
	if !ok {
		return nil, errors.New("vision response did not include text output")
	}
	return ParseOutput(text, page), nil
}

// ParseOutput decodes model output into a JSON object. Text around the
// outermost braces is ignored. Output with no decodable object becomes a
// fallback payload carrying the raw text.
func ParseOutput(raw string, page int) map[string]any {
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err == nil && obj != nil {
		return obj
	}
	if i, j := strings.Index(raw, "{"), strings.LastIndex(raw, "}"); i >= 0 && j > i {
		if err := json.Unmarshal([]byte(raw[i:j+1]), &obj); err == nil && obj != nil {
			return obj
		}
	}
	return map[string]any{
		"page":       page,
		"items":      []any{},
		"warnings":   []any{nonJSONWarning},
		RawOutputKey: raw,
	}
}
