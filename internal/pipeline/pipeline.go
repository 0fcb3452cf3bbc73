package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"fatura/internal/config"
	"fatura/internal/gateway"
	"fatura/internal/imageprep"
	"fatura/internal/invoice"
	"fatura/internal/logging"
	"fatura/internal/prompts"
	"fatura/internal/services"
	"fatura/internal/validation"
)

// Stage names recorded on results and ledger rows.
const (
	StageInit            = "INIT"
	StageImageProcessing = "IMAGE_PROCESSING"
	StageExtraction      = "EXTRACTION"
	StageValidation      = "VALIDATION"
	StageDone            = "DONE"
)

// Extractor is the gateway surface the pipeline depends on.
type Extractor interface {
	Extract(ctx context.Context, images []imageprep.ProcessedImage, prompt string) (*gateway.Outcome, error)
}

// Pipeline runs the full extraction flow for one invoice file at a time.
// It is safe for concurrent use.
type Pipeline struct {
	cfg        *config.Config
	normalizer *imageprep.Normalizer
	prompts    *prompts.Store
	extractor  Extractor
	validator  *validation.Validator
	artifacts  *ArtifactWriter
	logger     *slog.Logger
}

// New constructs a Pipeline around the provided extractor.
func New(cfg *config.Config, extractor Extractor, logger *slog.Logger) (*Pipeline, error) {
	validator, err := validation.New(cfg.Extraction.LLMConfidenceDefault, logger)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		cfg:        cfg,
		normalizer: imageprep.NewNormalizer(cfg.Extraction.MaxImageEdge, logger),
		prompts:    prompts.NewStore(cfg.Paths.TemplatesDir, validation.SchemaJSON()),
		extractor:  extractor,
		validator:  validator,
		artifacts:  NewArtifactWriter(cfg),
		logger:     logging.NewComponentLogger(logger, "pipeline"),
	}, nil
}

// Validator exposes the underlying validator for offline re-validation.
func (p *Pipeline) Validator() *validation.Validator {
	return p.validator
}

// ProcessFile runs one invoice through the state machine and returns its
// result. Per-invoice failures are reported through the result, never as an
// error.
func (p *Pipeline) ProcessFile(ctx context.Context, path string, vendor invoice.VendorType) *invoice.ExtractionResult {
	start := time.Now()
	ctx = services.WithInvoiceFile(ctx, path)

	result := &invoice.ExtractionResult{
		InputFile:    path,
		StageReached: StageInit,
	}

	ctx = services.WithStage(ctx, StageImageProcessing)
	result.StageReached = StageImageProcessing
	pages, err := p.normalizer.ProcessFile(path)
	if err != nil {
		result.Errors = append(result.Errors, invoice.Issue{
			Stage:   strings.ToLower(StageImageProcessing),
			Message: "image processing failed: " + err.Error(),
		})
		result.LatencyMS = time.Since(start).Milliseconds()
		p.logFailure(ctx, result)
		return result
	}
	if _, err := p.artifacts.WritePages(stem(path), pages); err != nil {
		// Processed page snapshots are diagnostics; extraction continues
		// from the in-memory bytes.
		p.logger.Warn("persist processed pages", logging.String(logging.FieldInvoiceFile, path), logging.Error(err))
	}

	prompt, err := p.prompts.Prompt(vendor)
	if err != nil {
		result.Errors = append(result.Errors, invoice.Issue{
			Stage:   strings.ToLower(StageImageProcessing),
			Message: "prompt loading failed: " + err.Error(),
		})
		result.LatencyMS = time.Since(start).Milliseconds()
		p.logFailure(ctx, result)
		return result
	}

	ctx = services.WithStage(ctx, StageExtraction)
	result.StageReached = StageExtraction
	outcome, err := p.extractor.Extract(ctx, pages, prompt)
	if err != nil {
		result.Errors = append(result.Errors, invoice.Issue{
			Stage:   strings.ToLower(StageExtraction),
			Message: "extraction failed: " + err.Error(),
		})
		result.LatencyMS = time.Since(start).Milliseconds()
		p.logFailure(ctx, result)
		return result
	}
	result.ProviderUsed = outcome.Provider
	result.Model = outcome.Model

	ctx = services.WithStage(ctx, StageValidation)
	result.StageReached = StageValidation
	inv, vr := p.validator.Validate([]byte(outcome.RawJSON), nil)
	result.Confidence = vr.ConfidenceScore

	for _, msg := range vr.SchemaErrors {
		result.Errors = append(result.Errors, invoice.Issue{
			Stage:   strings.ToLower(StageValidation),
			Code:    "schema",
			Message: msg,
		})
	}
	for _, violation := range vr.BlockingViolations() {
		result.Errors = append(result.Errors, invoice.Issue{
			Stage:   strings.ToLower(StageValidation),
			Code:    violation.RuleID,
			Message: violation.Message,
		})
	}
	for _, violation := range vr.Warnings() {
		result.Warnings = append(result.Warnings, invoice.Issue{
			Stage:   strings.ToLower(StageValidation),
			Code:    violation.RuleID,
			Message: violation.Message,
		})
	}

	result.LatencyMS = time.Since(start).Milliseconds()

	if !vr.IsValid || inv == nil {
		result.RawResponse = outcome.RawJSON
		p.logFailure(ctx, result)
		return result
	}

	result.Success = true
	result.Invoice = inv
	result.StageReached = StageDone

	p.logger.Info("invoice extracted",
		logging.String(logging.FieldInvoiceFile, path),
		logging.String("invoice_id", inv.InvoiceID),
		logging.String(logging.FieldProvider, string(result.ProviderUsed)),
		logging.Float64("confidence", result.Confidence),
		logging.Int64("latency_ms", result.LatencyMS),
	)
	return result
}

// Run processes one file and writes its success or error artifact. The
// returned path points at whichever artifact was written.
func (p *Pipeline) Run(ctx context.Context, path string, vendor invoice.VendorType) (*invoice.ExtractionResult, string, error) {
	result := p.ProcessFile(ctx, path, vendor)
	if result.Success {
		artifact, err := p.artifacts.WriteSuccess(result)
		return result, artifact, err
	}
	artifact, err := p.artifacts.WriteFailure(result)
	return result, artifact, err
}

func (p *Pipeline) logFailure(ctx context.Context, result *invoice.ExtractionResult) {
	attrs := []slog.Attr{
		logging.String(logging.FieldInvoiceFile, result.InputFile),
		logging.String(logging.FieldStage, result.StageReached),
		logging.String("error", result.ErrorSummary()),
	}
	p.logger.LogAttrs(ctx, slog.LevelWarn, "invoice failed", attrs...)
}

// ResolveVendor picks the vendor for a file. An explicit value other than
// "auto" wins; otherwise the filename is scanned for vendor tokens before
// falling back to the configured default.
func ResolveVendor(explicit, path string, fallback invoice.VendorType) invoice.VendorType {
	trimmed := strings.ToLower(strings.TrimSpace(explicit))
	if trimmed != "" && trimmed != "auto" {
		if vendor, ok := invoice.ParseVendorType(trimmed); ok {
			return vendor
		}
	}

	name := strings.ToLower(filepath.Base(path))
	for _, vendor := range invoice.AllVendorTypes() {
		if vendor == invoice.VendorGeneric {
			continue
		}
		if strings.Contains(name, string(vendor)) {
			return vendor
		}
	}

	if fallback != "" {
		return fallback
	}
	return invoice.VendorGeneric
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
