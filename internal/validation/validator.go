package validation

import (
	"log/slog"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"fatura/internal/invoice"
	"fatura/internal/logging"
)

// Validator runs the full three-layer pipeline. Validation is pure: the same
// raw JSON and the same configured default always produce the same result.
type Validator struct {
	schema               *jsonschema.Schema
	llmConfidenceDefault float64
	logger               *slog.Logger
}

// New constructs a Validator. llmConfidenceDefault substitutes for a missing
// model self-reported confidence; out-of-range values fall back to 0.8.
func New(llmConfidenceDefault float64, logger *slog.Logger) (*Validator, error) {
	if llmConfidenceDefault <= 0 || llmConfidenceDefault > 1 {
		llmConfidenceDefault = 0.8
	}
	schema, err := compileSchema()
	if err != nil {
		return nil, err
	}
	return &Validator{
		schema:               schema,
		llmConfidenceDefault: llmConfidenceDefault,
		logger:               logging.NewComponentLogger(logger, "validation"),
	}, nil
}

// Validate runs schema validation, business rules, and confidence scoring
// against raw provider JSON. All layers run on every call; schema failures
// do not suppress rule evaluation unless the record cannot be decoded at
// all. The returned invoice is nil only when decoding was impossible.
//
// llmConfidence overrides both the record's self-reported confidence and the
// configured default when non-nil.
func (v *Validator) Validate(rawJSON []byte, llmConfidence *float64) (*invoice.ExtractedInvoice, invoice.ValidationResult) {
	record, err := parseRecord(rawJSON)
	if err != nil {
		return nil, invoice.ValidationResult{
			IsValid:         false,
			SchemaErrors:    []string{"JSON parsing error: " + err.Error()},
			ConfidenceScore: 0,
		}
	}

	sanitizeRecord(record)

	schemaErrors := v.validateAgainstSchema(record)

	inv, decodeErr := decodeInvoice(record)
	var violations []invoice.RuleViolation
	if decodeErr != nil {
		schemaErrors = append(schemaErrors, decodeErr.Error())
	} else {
		violations = EvaluateRules(inv)
	}

	llm := v.llmConfidenceDefault
	if llmConfidence != nil {
		llm = clamp01(*llmConfidence)
	} else if reported, ok := extractLLMConfidence(record); ok {
		llm = reported
	}

	var confidence float64
	if decodeErr != nil {
		// No rules ran, so the consistency component contributes nothing.
		confidence = clamp01(weightCompleteness*completeness(record) + weightLLM*llm)
	} else {
		confidence = scoreConfidence(completeness(record), len(violations), llm)
	}

	blocking := 0
	for _, violation := range violations {
		if violation.Severity == invoice.SeverityBlocking {
			blocking++
		}
	}
	isValid := len(schemaErrors) == 0 && blocking == 0

	result := invoice.ValidationResult{
		IsValid:                isValid,
		SchemaErrors:           schemaErrors,
		BusinessRuleViolations: violations,
		ConfidenceScore:        confidence,
	}

	if decodeErr != nil {
		return nil, result
	}

	v.logger.Debug("validation complete",
		logging.Bool("is_valid", isValid),
		logging.Int("schema_errors", len(schemaErrors)),
		logging.Int("rule_violations", len(violations)),
		logging.Float64("confidence", confidence),
	)
	return inv, result
}
