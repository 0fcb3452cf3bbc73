package services

import "context"

type contextKey string

const (
	invoiceFileKey contextKey = "invoice_file"
	stageKey       contextKey = "stage"
	runIDKey       contextKey = "run_id"
)

// WithInvoiceFile annotates context with the input file being processed.
func WithInvoiceFile(ctx context.Context, path string) context.Context {
	if path == "" {
		return ctx
	}
	return context.WithValue(ctx, invoiceFileKey, path)
}

// InvoiceFileFromContext extracts the input file path if present.
func InvoiceFileFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(invoiceFileKey).(string)
	return v, ok
}

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext extracts the pipeline stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(stageKey).(string)
	return v, ok
}

// WithRunID annotates context with the batch run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the batch run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(runIDKey).(string)
	return v, ok
}
