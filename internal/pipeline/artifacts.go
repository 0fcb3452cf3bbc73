package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"fatura/internal/config"
	"fatura/internal/imageprep"
	"fatura/internal/invoice"
)

// ArtifactWriter persists extraction outputs: one JSON document per invoice
// in the output directory, one error document per failed input in the errors
// directory, and normalized page snapshots in the processed directory.
type ArtifactWriter struct {
	outputDir    string
	errorsDir    string
	processedDir string
}

// NewArtifactWriter builds a writer rooted at the configured directories.
func NewArtifactWriter(cfg *config.Config) *ArtifactWriter {
	return &ArtifactWriter{
		outputDir:    cfg.Paths.OutputDir,
		errorsDir:    cfg.Paths.ErrorsDir,
		processedDir: cfg.Paths.ProcessedDir,
	}
}

type successMetadata struct {
	Provider           invoice.ProviderRole `json:"provider_used"`
	Model              string               `json:"model,omitempty"`
	Confidence         float64              `json:"confidence"`
	LatencyMS          int64                `json:"latency_ms"`
	InputFile          string               `json:"input_file"`
	LineItemCount      int                  `json:"line_item_count"`
	ExpectedCommission decimal.Decimal      `json:"expected_commission"`
	Warnings           []invoice.Issue      `json:"warnings,omitempty"`
}

type successDocument struct {
	Invoice  *invoice.ExtractedInvoice `json:"invoice"`
	Metadata successMetadata           `json:"metadata"`
}

type errorDocument struct {
	InputFile    string               `json:"input_file"`
	StageReached string               `json:"stage_reached"`
	Errors       []invoice.Issue      `json:"errors"`
	Warnings     []invoice.Issue      `json:"warnings,omitempty"`
	Provider     invoice.ProviderRole `json:"provider_used,omitempty"`
	Confidence   float64              `json:"confidence"`
	LatencyMS    int64                `json:"latency_ms"`
	RawResponse  string               `json:"raw_response,omitempty"`
}

// WriteSuccess writes {invoice_id}.json for a successful extraction and
// returns the artifact path.
func (w *ArtifactWriter) WriteSuccess(result *invoice.ExtractionResult) (string, error) {
	if result == nil || !result.Success || result.Invoice == nil {
		return "", fmt.Errorf("write success: result is not a successful extraction")
	}

	doc := successDocument{
		Invoice: result.Invoice,
		Metadata: successMetadata{
			Provider:           result.ProviderUsed,
			Model:              result.Model,
			Confidence:         result.Confidence,
			LatencyMS:          result.LatencyMS,
			InputFile:          result.InputFile,
			LineItemCount:      result.Invoice.LineItemCount(),
			ExpectedCommission: result.Invoice.ExpectedCommission(),
			Warnings:           result.Warnings,
		},
	}

	path := filepath.Join(w.outputDir, result.Invoice.InvoiceID+".json")
	if err := writeJSON(path, doc); err != nil {
		return "", err
	}
	return path, nil
}

// WriteFailure writes {stem}_error.json for a failed extraction and returns
// the artifact path.
func (w *ArtifactWriter) WriteFailure(result *invoice.ExtractionResult) (string, error) {
	if result == nil {
		return "", fmt.Errorf("write failure: result is nil")
	}

	doc := errorDocument{
		InputFile:    result.InputFile,
		StageReached: result.StageReached,
		Errors:       result.Errors,
		Warnings:     result.Warnings,
		Provider:     result.ProviderUsed,
		Confidence:   result.Confidence,
		LatencyMS:    result.LatencyMS,
		RawResponse:  result.RawResponse,
	}

	path := filepath.Join(w.errorsDir, stem(result.InputFile)+"_error.json")
	if err := writeJSON(path, doc); err != nil {
		return "", err
	}
	return path, nil
}

// WritePages stores the normalized page images for traceability. Filenames
// follow {stem}_page{N}.png in page order.
func (w *ArtifactWriter) WritePages(stem string, pages []imageprep.ProcessedImage) ([]string, error) {
	if len(pages) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(w.processedDir, 0o755); err != nil {
		return nil, fmt.Errorf("create processed dir: %w", err)
	}

	paths := make([]string, 0, len(pages))
	for _, page := range pages {
		path := filepath.Join(w.processedDir, fmt.Sprintf("%s_page%d.png", stem, page.PageIndex))
		if err := os.WriteFile(path, page.Content, 0o644); err != nil {
			return nil, fmt.Errorf("write page %d: %w", page.PageIndex, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeJSON(path string, doc any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal artifact: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write artifact %s: %w", path, err)
	}
	return nil
}
