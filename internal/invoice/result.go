package invoice

import "strings"

// ProviderRole records which slot in the failover chain produced a response.
type ProviderRole string

const (
	RolePrimary  ProviderRole = "primary"
	RoleFallback ProviderRole = "fallback"
)

// Severity grades a business rule violation.
type Severity string

const (
	SeverityBlocking Severity = "blocking"
	SeverityWarning  Severity = "warning"
)

// Issue is a structured error or warning attached to an extraction result.
type Issue struct {
	Stage   string `json:"stage,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// RuleViolation reports one failed business rule.
type RuleViolation struct {
	RuleID   string   `json:"rule_id"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// ValidationResult is the full three-layer validation report. It is a pure
// function of the raw candidate JSON plus the configured LLM confidence
// default: identical inputs produce identical results.
type ValidationResult struct {
	IsValid                bool            `json:"is_valid"`
	SchemaErrors           []string        `json:"schema_errors"`
	BusinessRuleViolations []RuleViolation `json:"business_rule_violations"`
	ConfidenceScore        float64         `json:"confidence_score"`
}

// BlockingViolations returns only the violations that gate validity.
func (vr ValidationResult) BlockingViolations() []RuleViolation {
	var blocking []RuleViolation
	for _, v := range vr.BusinessRuleViolations {
		if v.Severity == SeverityBlocking {
			blocking = append(blocking, v)
		}
	}
	return blocking
}

// Warnings returns the warning-grade violations.
func (vr ValidationResult) Warnings() []RuleViolation {
	var warnings []RuleViolation
	for _, v := range vr.BusinessRuleViolations {
		if v.Severity == SeverityWarning {
			warnings = append(warnings, v)
		}
	}
	return warnings
}

// ExtractionResult is the per-file outcome of the pipeline. Created once and
// never mutated downstream.
type ExtractionResult struct {
	Success      bool              `json:"success"`
	Invoice      *ExtractedInvoice `json:"invoice,omitempty"`
	Confidence   float64           `json:"confidence"`
	ProviderUsed ProviderRole      `json:"provider_used,omitempty"`
	Model        string            `json:"model,omitempty"`
	LatencyMS    int64             `json:"latency_ms"`
	Errors       []Issue           `json:"errors"`
	Warnings     []Issue           `json:"warnings"`
	// RawResponse is retained only on failure, for diagnostics.
	RawResponse  string `json:"raw_response,omitempty"`
	InputFile    string `json:"input_file,omitempty"`
	StageReached string `json:"stage_reached,omitempty"`
}

// FirstError returns the first error message, or "" when none exist.
func (r ExtractionResult) FirstError() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Message
}

// ErrorSummary joins all error messages into a single line for ledger
// storage and terminal output.
func (r ExtractionResult) ErrorSummary() string {
	if len(r.Errors) == 0 {
		return ""
	}
	parts := make([]string, 0, len(r.Errors))
	for _, issue := range r.Errors {
		parts = append(parts, issue.Message)
	}
	return strings.Join(parts, "; ")
}
