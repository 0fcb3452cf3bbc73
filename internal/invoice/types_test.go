package invoice_test

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"

	"fatura/internal/invoice"
)

func TestParseVendorType(t *testing.T) {
	cases := []struct {
		input string
		want  invoice.VendorType
		ok    bool
	}{
		{"ubereats", invoice.VendorUberEats, true},
		{" DoorDash ", invoice.VendorDoorDash, true},
		{"ifood", invoice.VendorIFood, true},
		{"other", invoice.VendorGeneric, true},
		{"generic", invoice.VendorGeneric, true},
		{"", "", false},
		{"netflix", "", false},
	}
	for _, tc := range cases {
		got, ok := invoice.ParseVendorType(tc.input)
		if ok != tc.ok || got != tc.want {
			t.Errorf("ParseVendorType(%q) = (%q, %v), want (%q, %v)", tc.input, got, ok, tc.want, tc.ok)
		}
	}
}

func TestLineItemAmountDerived(t *testing.T) {
	item := invoice.LineItem{
		Description: "Delivery Service Fee",
		Quantity:    3,
		UnitPrice:   decimal.RequireFromString("15.35"),
	}
	if got := item.Amount(); !got.Equal(decimal.RequireFromString("46.05")) {
		t.Fatalf("Amount = %s, want 46.05", got)
	}
}

func TestDateRoundTrip(t *testing.T) {
	d := invoice.MustDate("2025-01-15")
	encoded, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal date: %v", err)
	}
	if string(encoded) != `"2025-01-15"` {
		t.Fatalf("unexpected encoding %s", encoded)
	}
	var decoded invoice.Date
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("unmarshal date: %v", err)
	}
	if !decoded.Equal(d.Time) {
		t.Fatalf("round trip mismatch: %s vs %s", decoded, d)
	}
}

func TestDateUnmarshalNull(t *testing.T) {
	var d invoice.Date
	if err := json.Unmarshal([]byte("null"), &d); err != nil {
		t.Fatalf("unmarshal null: %v", err)
	}
	if !d.IsZero() {
		t.Fatalf("expected zero date, got %s", d)
	}
}

func TestExpectedCommission(t *testing.T) {
	inv := &invoice.ExtractedInvoice{
		Subtotal:       decimal.RequireFromString("1000.00"),
		CommissionRate: decimal.RequireFromString("0.15"),
	}
	if got := inv.ExpectedCommission(); !got.Equal(decimal.RequireFromString("150.00")) {
		t.Fatalf("ExpectedCommission = %s, want 150.00", got)
	}
}

func TestLineItemsTotal(t *testing.T) {
	inv := &invoice.ExtractedInvoice{
		LineItems: []invoice.LineItem{
			{Description: "a", Quantity: 2, UnitPrice: decimal.RequireFromString("10.00")},
			{Description: "b", Quantity: 1, UnitPrice: decimal.RequireFromString("5.50")},
		},
	}
	if got := inv.LineItemsTotal(); !got.Equal(decimal.RequireFromString("25.50")) {
		t.Fatalf("LineItemsTotal = %s, want 25.50", got)
	}
	if inv.LineItemCount() != 2 {
		t.Fatalf("LineItemCount = %d, want 2", inv.LineItemCount())
	}
}

func TestInvoiceIDPattern(t *testing.T) {
	valid := []string{"UE-2025-001234", "DD-2024-12345678", "GRUB-2025-0001"}
	invalid := []string{"ue-2025-001234", "U-2025-001234", "UE-25-001234", "UE-2025-001", ""}
	for _, id := range valid {
		if !invoice.InvoiceIDPattern.MatchString(id) {
			t.Errorf("expected %q to match", id)
		}
	}
	for _, id := range invalid {
		if invoice.InvoiceIDPattern.MatchString(id) {
			t.Errorf("expected %q not to match", id)
		}
	}
}
