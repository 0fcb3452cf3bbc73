package validation

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"fatura/internal/invoice"
)

func newTestValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := New(0.8, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return v
}

func validRecord() map[string]any {
	return map[string]any{
		"invoice_id":   "UE-2025-001234",
		"vendor_name":  "Restaurante Exemplo LTDA",
		"vendor_type":  "ubereats",
		"invoice_date": "2025-01-15",
		"due_date":     "2025-02-15",
		"currency":     "BRL",
		"line_items": []any{
			map[string]any{"description": "Food Delivery Sales", "quantity": 1, "unit_price": 1000.00},
		},
		"subtotal":          1000.00,
		"tax_amount":        50.00,
		"commission_rate":   0.15,
		"commission_amount": 150.00,
		"total_amount":      1050.00,
	}
}

func encode(t *testing.T, record map[string]any) []byte {
	t.Helper()
	data, err := json.Marshal(record)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func approx(t *testing.T, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("confidence = %v, want %v", got, want)
	}
}

func TestValidateValidRecord(t *testing.T) {
	v := newTestValidator(t)

	inv, result := v.Validate(encode(t, validRecord()), nil)
	if !result.IsValid {
		t.Fatalf("expected valid, got %+v", result)
	}
	if inv == nil {
		t.Fatal("invoice is nil")
	}
	if inv.InvoiceID != "UE-2025-001234" {
		t.Errorf("invoice_id = %q", inv.InvoiceID)
	}
	if inv.VendorType != invoice.VendorUberEats {
		t.Errorf("vendor_type = %q", inv.VendorType)
	}
	if !inv.Subtotal.Equal(mustDecimal(t, "1000")) {
		t.Errorf("subtotal = %s", inv.Subtotal)
	}
	// 0.40*1.0 + 0.30*1.0 + 0.30*0.8
	approx(t, result.ConfidenceScore, 0.94)
}

func TestValidateLenientMoneyStrings(t *testing.T) {
	v := newTestValidator(t)

	record := validRecord()
	record["subtotal"] = "R$ 1.000,00"
	record["tax_amount"] = "R$ 50,00"
	record["commission_amount"] = "R$ 150,00"
	record["total_amount"] = "R$ 1.050,00"
	record["commission_rate"] = "0,15"

	inv, result := v.Validate(encode(t, record), nil)
	if !result.IsValid {
		t.Fatalf("lenient record rejected: %+v", result)
	}
	if !inv.TotalAmount.Equal(mustDecimal(t, "1050")) {
		t.Errorf("total = %s", inv.TotalAmount)
	}
}

func TestValidateNullOptionalsDefaultToZero(t *testing.T) {
	v := newTestValidator(t)

	record := validRecord()
	record["tax_amount"] = nil
	record["commission_rate"] = nil
	record["commission_amount"] = nil
	record["total_amount"] = 1000.00
	delete(record, "currency")

	inv, result := v.Validate(encode(t, record), nil)
	if !result.IsValid {
		t.Fatalf("record with null optionals rejected: %+v", result)
	}
	if !inv.TaxAmount.IsZero() || !inv.CommissionRate.IsZero() {
		t.Error("null optionals not zeroed")
	}
	if inv.Currency != "BRL" {
		t.Errorf("currency default = %q, want BRL", inv.Currency)
	}
}

func TestValidateEmptyLineItems(t *testing.T) {
	v := newTestValidator(t)

	for name, mutate := range map[string]func(map[string]any){
		"empty list": func(r map[string]any) { r["line_items"] = []any{} },
		"missing":    func(r map[string]any) { delete(r, "line_items") },
		"null":       func(r map[string]any) { r["line_items"] = nil },
	} {
		record := validRecord()
		mutate(record)

		_, result := v.Validate(encode(t, record), nil)
		if result.IsValid {
			t.Errorf("%s: record without line items accepted", name)
			continue
		}
		found := false
		for _, msg := range result.SchemaErrors {
			if strings.Contains(msg, "line_items") {
				found = true
			}
		}
		if !found {
			t.Errorf("%s: schema errors missing line_items: %v", name, result.SchemaErrors)
		}
	}
}

func TestValidateMissingRequiredField(t *testing.T) {
	v := newTestValidator(t)

	record := validRecord()
	delete(record, "invoice_id")

	inv, result := v.Validate(encode(t, record), nil)
	if result.IsValid {
		t.Fatal("record without invoice_id accepted")
	}
	if inv == nil {
		t.Fatal("rules layer should still decode and run")
	}
	found := false
	for _, msg := range result.SchemaErrors {
		if strings.Contains(msg, "invoice_id") {
			found = true
		}
	}
	if !found {
		t.Errorf("schema errors missing invoice_id: %v", result.SchemaErrors)
	}
	// Layers do not short-circuit: confidence still reflects 5/6
	// completeness and clean rules.
	approx(t, result.ConfidenceScore, 0.40*(5.0/6.0)+0.30+0.24)
}

func TestValidateTotalBelowFloor(t *testing.T) {
	v := newTestValidator(t)

	record := validRecord()
	record["total_amount"] = 900.00

	_, result := v.Validate(encode(t, record), nil)
	if result.IsValid {
		t.Fatal("short total accepted")
	}
	if len(result.BlockingViolations()) != 1 || result.BlockingViolations()[0].RuleID != "BR-001" {
		t.Fatalf("violations = %+v", result.BusinessRuleViolations)
	}
	// One of six rules failed.
	approx(t, result.ConfidenceScore, 0.40+0.30*(5.0/6.0)+0.24)
}

func TestValidateTotalAboveFloorIsFine(t *testing.T) {
	v := newTestValidator(t)

	// Delivery and service fees push the total above subtotal + tax.
	record := validRecord()
	record["total_amount"] = 1200.00

	_, result := v.Validate(encode(t, record), nil)
	if !result.IsValid {
		t.Fatalf("total above floor rejected: %+v", result.BusinessRuleViolations)
	}
}

func TestValidateDueDateBeforeInvoiceDate(t *testing.T) {
	v := newTestValidator(t)

	record := validRecord()
	record["due_date"] = "2025-01-01"

	_, result := v.Validate(encode(t, record), nil)
	if result.IsValid {
		t.Fatal("backwards dates accepted")
	}
	if got := result.BlockingViolations(); len(got) != 1 || got[0].RuleID != "BR-002" {
		t.Fatalf("violations = %+v", result.BusinessRuleViolations)
	}
}

func TestValidateCommissionTolerance(t *testing.T) {
	v := newTestValidator(t)

	// Expected commission is 150.00; 150.02 sits exactly on the tolerance.
	withinRecord := validRecord()
	withinRecord["commission_amount"] = 150.02
	_, within := v.Validate(encode(t, withinRecord), nil)
	if !within.IsValid {
		t.Fatalf("commission within tolerance rejected: %+v", within.BusinessRuleViolations)
	}

	beyondRecord := validRecord()
	beyondRecord["commission_amount"] = 150.03
	_, beyond := v.Validate(encode(t, beyondRecord), nil)
	if beyond.IsValid {
		t.Fatal("commission beyond tolerance accepted")
	}
	if got := beyond.BlockingViolations(); len(got) != 1 || got[0].RuleID != "BR-003" {
		t.Fatalf("violations = %+v", beyond.BusinessRuleViolations)
	}
}

func TestValidateLineItemMismatchIsWarning(t *testing.T) {
	v := newTestValidator(t)

	record := validRecord()
	record["line_items"] = []any{
		map[string]any{"description": "Partial listing", "quantity": 1, "unit_price": 400.00},
	}

	_, result := v.Validate(encode(t, record), nil)
	if !result.IsValid {
		t.Fatalf("warning-only violation blocked the record: %+v", result)
	}
	if got := result.Warnings(); len(got) != 1 || got[0].RuleID != "BR-004" {
		t.Fatalf("warnings = %+v", result.BusinessRuleViolations)
	}
}

func TestValidateInvoiceIDFormatIsWarning(t *testing.T) {
	v := newTestValidator(t)

	record := validRecord()
	record["invoice_id"] = "INVOICE-123"

	_, result := v.Validate(encode(t, record), nil)
	if !result.IsValid {
		t.Fatalf("non-standard id blocked the record: %+v", result)
	}
	if got := result.Warnings(); len(got) != 1 || got[0].RuleID != "BR-006" {
		t.Fatalf("warnings = %+v", result.BusinessRuleViolations)
	}
}

func TestValidateNegativeAmount(t *testing.T) {
	v := newTestValidator(t)

	record := validRecord()
	record["tax_amount"] = -5.00

	_, result := v.Validate(encode(t, record), nil)
	if result.IsValid {
		t.Fatal("negative amount accepted")
	}
	foundSchema := len(result.SchemaErrors) > 0
	foundRule := false
	for _, violation := range result.BusinessRuleViolations {
		if violation.RuleID == "BR-005" {
			foundRule = true
		}
	}
	if !foundSchema || !foundRule {
		t.Errorf("schema=%v rule=%v, both layers should flag the negative", foundSchema, foundRule)
	}
}

func TestValidateUnknownCurrency(t *testing.T) {
	v := newTestValidator(t)

	record := validRecord()
	record["currency"] = "XQZ"

	_, result := v.Validate(encode(t, record), nil)
	if result.IsValid {
		t.Fatal("unknown currency accepted")
	}
	found := false
	for _, msg := range result.SchemaErrors {
		if strings.Contains(msg, "ISO 4217") {
			found = true
		}
	}
	if !found {
		t.Errorf("missing currency error: %v", result.SchemaErrors)
	}
}

func TestValidateUnparseableJSON(t *testing.T) {
	v := newTestValidator(t)

	inv, result := v.Validate([]byte("{not json"), nil)
	if result.IsValid || inv != nil {
		t.Fatal("garbage accepted")
	}
	if result.ConfidenceScore != 0 {
		t.Errorf("confidence = %v, want 0", result.ConfidenceScore)
	}
}

func TestValidateSelfReportedConfidence(t *testing.T) {
	v := newTestValidator(t)

	record := validRecord()
	record["confidence"] = 0.95

	_, result := v.Validate(encode(t, record), nil)
	approx(t, result.ConfidenceScore, 0.40+0.30+0.30*0.95)
}

func TestValidateExplicitConfidenceOverride(t *testing.T) {
	v := newTestValidator(t)

	record := validRecord()
	record["confidence"] = 0.95
	override := 0.5

	_, result := v.Validate(encode(t, record), &override)
	approx(t, result.ConfidenceScore, 0.40+0.30+0.30*0.5)
}

func TestValidateIdempotent(t *testing.T) {
	v := newTestValidator(t)
	data := encode(t, validRecord())

	_, first := v.Validate(data, nil)
	_, second := v.Validate(data, nil)
	if first.IsValid != second.IsValid || first.ConfidenceScore != second.ConfidenceScore {
		t.Errorf("validation not idempotent: %+v vs %+v", first, second)
	}
}
