package invoice

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// VendorType identifies the delivery platform that issued the invoice.
type VendorType string

const (
	VendorUberEats VendorType = "ubereats"
	VendorDoorDash VendorType = "doordash"
	VendorGrubhub  VendorType = "grubhub"
	VendorIFood    VendorType = "ifood"
	VendorRappi    VendorType = "rappi"
	VendorGeneric  VendorType = "generic"
)

var allVendorTypes = []VendorType{
	VendorUberEats,
	VendorDoorDash,
	VendorGrubhub,
	VendorIFood,
	VendorRappi,
	VendorGeneric,
}

var vendorTypeSet = func() map[VendorType]struct{} {
	set := make(map[VendorType]struct{}, len(allVendorTypes))
	for _, vt := range allVendorTypes {
		set[vt] = struct{}{}
	}
	return set
}()

// AllVendorTypes returns the ordered list of known vendor types.
func AllVendorTypes() []VendorType {
	cp := make([]VendorType, len(allVendorTypes))
	copy(cp, allVendorTypes)
	return cp
}

// ParseVendorType converts a string into a known VendorType. The legacy
// "other" spelling maps to generic.
func ParseVendorType(value string) (VendorType, bool) {
	normalized := VendorType(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	if normalized == "other" {
		return VendorGeneric, true
	}
	if _, ok := vendorTypeSet[normalized]; ok {
		return normalized, true
	}
	return "", false
}

// InvoiceIDPattern is the expected identifier shape, e.g. "UE-2025-001234".
var InvoiceIDPattern = regexp.MustCompile(`^[A-Z]{2,4}-\d{4}-\d{4,8}$`)

// dateLayout is the wire format for invoice and due dates.
const dateLayout = "2006-01-02"

// Date is a calendar day carried as YYYY-MM-DD on the wire.
type Date struct {
	time.Time
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(value string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(value))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", value, err)
	}
	return Date{Time: t}, nil
}

// MustDate parses a YYYY-MM-DD string and panics on failure. Test helper.
func MustDate(value string) Date {
	d, err := ParseDate(value)
	if err != nil {
		panic(err)
	}
	return d
}

// String renders the date in wire format, or "" for the zero value.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// MarshalJSON renders the date as a YYYY-MM-DD string.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts a YYYY-MM-DD string or null.
func (d *Date) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil || strings.TrimSpace(*raw) == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(*raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Before reports whether d falls on an earlier day than other.
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

// LineItem is a single invoice line. Amount is always derived from quantity
// and unit price, never stored independently.
type LineItem struct {
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// Amount returns quantity × unit_price rounded to two places.
func (li LineItem) Amount() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity))).Round(2)
}

// ExtractedInvoice is the structured record produced by a provider and
// verified by the validator.
type ExtractedInvoice struct {
	InvoiceID   string     `json:"invoice_id"`
	VendorName  string     `json:"vendor_name"`
	VendorType  VendorType `json:"vendor_type"`
	InvoiceDate Date       `json:"invoice_date"`
	DueDate     Date       `json:"due_date"`
	Currency    string     `json:"currency"`

	LineItems []LineItem `json:"line_items"`

	Subtotal         decimal.Decimal `json:"subtotal"`
	TaxAmount        decimal.Decimal `json:"tax_amount"`
	CommissionRate   decimal.Decimal `json:"commission_rate"`
	CommissionAmount decimal.Decimal `json:"commission_amount"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
}

// LineItemCount returns the number of line items.
func (inv *ExtractedInvoice) LineItemCount() int {
	return len(inv.LineItems)
}

// LineItemsTotal sums the derived amounts of all line items.
func (inv *ExtractedInvoice) LineItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range inv.LineItems {
		total = total.Add(item.Amount())
	}
	return total
}

// ExpectedCommission computes subtotal × commission_rate rounded to two
// places.
func (inv *ExtractedInvoice) ExpectedCommission() decimal.Decimal {
	return inv.Subtotal.Mul(inv.CommissionRate).Round(2)
}
