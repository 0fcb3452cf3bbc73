package validation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"fatura/internal/invoice"
)

// RuleCount is the number of business rules the consistency score is
// measured against.
const RuleCount = 6

var (
	totalTolerance      = decimal.RequireFromString("0.05")
	commissionTolerance = decimal.RequireFromString("0.02")
	lineItemsTolerance  = decimal.RequireFromString("0.10")
)

// EvaluateRules runs BR-001 through BR-006 against a decoded invoice and
// returns every violation found. Rules are independent; one failing never
// stops the rest.
func EvaluateRules(inv *invoice.ExtractedInvoice) []invoice.RuleViolation {
	var violations []invoice.RuleViolation

	// BR-001: delivery platforms legitimately add delivery and service fees
	// on top of subtotal + tax, so only a total BELOW that floor indicates
	// missing data.
	expectedMinimum := inv.Subtotal.Add(inv.TaxAmount)
	if inv.TotalAmount.LessThan(expectedMinimum.Sub(totalTolerance)) {
		violations = append(violations, invoice.RuleViolation{
			RuleID:   "BR-001",
			Severity: invoice.SeverityBlocking,
			Message: fmt.Sprintf("total_amount (%s) is less than subtotal + tax_amount (%s), possible missing data",
				inv.TotalAmount, expectedMinimum),
		})
	}

	// BR-002: payment cannot come due before the invoice is issued.
	if !inv.DueDate.IsZero() && !inv.InvoiceDate.IsZero() && inv.DueDate.Before(inv.InvoiceDate) {
		violations = append(violations, invoice.RuleViolation{
			RuleID:   "BR-002",
			Severity: invoice.SeverityBlocking,
			Message: fmt.Sprintf("due_date (%s) cannot be before invoice_date (%s)",
				inv.DueDate, inv.InvoiceDate),
		})
	}

	// BR-003: commission must reconcile with subtotal at the stated rate.
	expectedCommission := inv.ExpectedCommission()
	commissionDiff := inv.CommissionAmount.Sub(expectedCommission).Abs()
	if commissionDiff.GreaterThan(commissionTolerance) {
		violations = append(violations, invoice.RuleViolation{
			RuleID:   "BR-003",
			Severity: invoice.SeverityBlocking,
			Message: fmt.Sprintf("commission_amount (%s) does not match subtotal * commission_rate (%s), difference: %s",
				inv.CommissionAmount, expectedCommission, commissionDiff),
		})
	}

	// BR-004: line items should sum to the subtotal. Warning only; partial
	// extractions of long invoices are common and still usable.
	if len(inv.LineItems) > 0 {
		itemsDiff := inv.LineItemsTotal().Sub(inv.Subtotal).Abs()
		if itemsDiff.GreaterThan(lineItemsTolerance) {
			violations = append(violations, invoice.RuleViolation{
				RuleID:   "BR-004",
				Severity: invoice.SeverityWarning,
				Message: fmt.Sprintf("line items sum (%s) does not match subtotal (%s), difference: %s",
					inv.LineItemsTotal(), inv.Subtotal, itemsDiff),
			})
		}
	}

	// BR-005: no negative money anywhere, and the rate stays a fraction.
	if violation := checkNonNegative(inv); violation != nil {
		violations = append(violations, *violation)
	}

	// BR-006: identifier shape. Warning only; platforms occasionally print
	// non-standard document numbers the model transcribes faithfully.
	if inv.InvoiceID != "" && !invoice.InvoiceIDPattern.MatchString(inv.InvoiceID) {
		violations = append(violations, invoice.RuleViolation{
			RuleID:   "BR-006",
			Severity: invoice.SeverityWarning,
			Message:  fmt.Sprintf("invoice_id (%s) does not match the expected PREFIX-YYYY-NNNN format", inv.InvoiceID),
		})
	}

	return violations
}

func checkNonNegative(inv *invoice.ExtractedInvoice) *invoice.RuleViolation {
	amounts := map[string]decimal.Decimal{
		"subtotal":          inv.Subtotal,
		"tax_amount":        inv.TaxAmount,
		"commission_rate":   inv.CommissionRate,
		"commission_amount": inv.CommissionAmount,
		"total_amount":      inv.TotalAmount,
	}
	for _, field := range []string{"subtotal", "tax_amount", "commission_rate", "commission_amount", "total_amount"} {
		if amounts[field].IsNegative() {
			return &invoice.RuleViolation{
				RuleID:   "BR-005",
				Severity: invoice.SeverityBlocking,
				Message:  fmt.Sprintf("%s (%s) is negative", field, amounts[field]),
			}
		}
	}
	if inv.CommissionRate.GreaterThan(decimal.NewFromInt(1)) {
		return &invoice.RuleViolation{
			RuleID:   "BR-005",
			Severity: invoice.SeverityBlocking,
			Message:  fmt.Sprintf("commission_rate (%s) exceeds 1.0", inv.CommissionRate),
		}
	}
	for i, item := range inv.LineItems {
		if item.UnitPrice.IsNegative() {
			return &invoice.RuleViolation{
				RuleID:   "BR-005",
				Severity: invoice.SeverityBlocking,
				Message:  fmt.Sprintf("line_items[%d].unit_price (%s) is negative", i, item.UnitPrice),
			}
		}
	}
	return nil
}
