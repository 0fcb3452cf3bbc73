package queue

import (
	"database/sql"
	"errors"
	"time"

	"fatura/internal/invoice"
)

const itemColumns = "id, source_path, vendor_type, status, invoice_id, confidence, provider, model, output_path, error_message, stage_reached, run_id, created_at, updated_at"

func scanItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var (
		id           int64
		sourcePath   sql.NullString
		vendorType   sql.NullString
		statusStr    string
		invoiceID    sql.NullString
		confidence   sql.NullFloat64
		provider     sql.NullString
		model        sql.NullString
		outputPath   sql.NullString
		errorMessage sql.NullString
		stageReached sql.NullString
		runID        sql.NullString
		createdRaw   sql.NullString
		updatedRaw   sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&sourcePath,
		&vendorType,
		&statusStr,
		&invoiceID,
		&confidence,
		&provider,
		&model,
		&outputPath,
		&errorMessage,
		&stageReached,
		&runID,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	item := &Item{
		ID:           id,
		SourcePath:   sourcePath.String,
		VendorType:   invoice.VendorType(vendorType.String),
		Status:       Status(statusStr),
		InvoiceID:    invoiceID.String,
		Confidence:   confidence.Float64,
		Provider:     provider.String,
		Model:        model.String,
		OutputPath:   outputPath.String,
		ErrorMessage: errorMessage.String,
		StageReached: stageReached.String,
		RunID:        runID.String,
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		item.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		item.UpdatedAt = updated
	}
	return item, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
