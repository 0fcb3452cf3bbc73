package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"fatura/internal/invoice"
)

var requiredFields = []string{
	"invoice_id",
	"vendor_name",
	"invoice_date",
	"due_date",
	"subtotal",
	"total_amount",
}

// Money fields that default to zero when the model omits them or emits null.
var optionalMoneyFields = []string{"tax_amount", "commission_rate", "commission_amount"}

var moneyFields = []string{"subtotal", "tax_amount", "commission_rate", "commission_amount", "total_amount"}

// parseRecord decodes raw provider JSON into a generic record. Numbers are
// kept as json.Number so monetary values never pass through float64.
func parseRecord(raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var record map[string]any
	if err := dec.Decode(&record); err != nil {
		return nil, fmt.Errorf("parse record: %w", err)
	}
	return record, nil
}

// sanitizeRecord normalizes provider quirks in place before schema
// validation: trimmed strings, defaulted optionals, and money values coerced
// from formatted strings ("R$ 1.234,56") to plain numbers. Only lenient,
// loss-free fixes happen here; anything still wrong is the schema layer's
// job to report.
func sanitizeRecord(record map[string]any) {
	for _, key := range []string{"invoice_id", "vendor_name", "invoice_date", "due_date"} {
		if s, ok := record[key].(string); ok {
			record[key] = strings.TrimSpace(s)
		}
	}

	if s, ok := record["currency"].(string); ok {
		record["currency"] = strings.ToUpper(strings.TrimSpace(s))
	}
	if s, ok := record["currency"].(string); !ok || s == "" {
		record["currency"] = "BRL"
	}

	vendor := ""
	if s, ok := record["vendor_type"].(string); ok {
		vendor = strings.ToLower(strings.TrimSpace(s))
	}
	if vt, ok := invoice.ParseVendorType(vendor); ok {
		record["vendor_type"] = string(vt)
	} else if vendor == "" {
		record["vendor_type"] = string(invoice.VendorGeneric)
	}

	for _, key := range optionalMoneyFields {
		if v, present := record[key]; !present || v == nil {
			record[key] = json.Number("0")
		}
	}
	for _, key := range moneyFields {
		coerceMoney(record, key)
	}

	if items, ok := record["line_items"].([]any); ok {
		for _, entry := range items {
			item, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			if s, ok := item["description"].(string); ok {
				item["description"] = strings.TrimSpace(s)
			}
			if v, present := item["quantity"]; !present || v == nil {
				item["quantity"] = json.Number("1")
			}
			coerceMoney(item, "unit_price")
		}
	} else if v, present := record["line_items"]; present && v == nil {
		record["line_items"] = []any{}
	}
}

// coerceMoney rewrites a formatted money string as a plain json.Number.
// Values that cannot be interpreted are left alone for the schema layer to
// reject.
func coerceMoney(record map[string]any, key string) {
	s, ok := record[key].(string)
	if !ok {
		return
	}
	d, err := parseMoney(s)
	if err != nil {
		return
	}
	record[key] = json.Number(d.String())
}

// parseMoney interprets human-formatted amounts: currency symbols, thousands
// separators, and comma decimals all appear in real provider output.
func parseMoney(s string) (decimal.Decimal, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',', r == '-':
			return r
		default:
			return -1
		}
	}, s)
	if cleaned == "" {
		return decimal.Decimal{}, fmt.Errorf("no numeric content in %q", s)
	}

	lastDot := strings.LastIndex(cleaned, ".")
	lastComma := strings.LastIndex(cleaned, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		// The later separator is the decimal point.
		if lastComma > lastDot {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case lastComma >= 0:
		// A single trailing comma group of 1-2 digits is a decimal comma;
		// anything else is a thousands separator.
		if strings.Count(cleaned, ",") == 1 && len(cleaned)-lastComma-1 <= 2 {
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return d, nil
}

// decodeInvoice materializes the sanitized record into the typed model.
func decodeInvoice(record map[string]any) (*invoice.ExtractedInvoice, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	var inv invoice.ExtractedInvoice
	if err := json.Unmarshal(data, &inv); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return &inv, nil
}

// extractLLMConfidence pulls a model self-reported confidence out of the
// record when present. Some providers volunteer one even though the prompt
// does not ask for it.
func extractLLMConfidence(record map[string]any) (float64, bool) {
	raw, present := record["confidence"]
	if !present {
		return 0, false
	}
	switch v := raw.(type) {
	case json.Number:
		f, err := v.Float64()
		if err != nil || f < 0 || f > 1 {
			return 0, false
		}
		return f, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || f < 0 || f > 1 {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// completeness is the fraction of required fields present and non-empty in
// the raw record.
func completeness(record map[string]any) float64 {
	present := 0
	for _, field := range requiredFields {
		v, ok := record[field]
		if !ok || v == nil {
			continue
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			continue
		}
		present++
	}
	return float64(present) / float64(len(requiredFields))
}
