package validation

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/text/currency"
)

//go:embed schema.json
var schemaJSON string

// SchemaJSON returns the invoice record schema text. Prompt templates embed
// it so the model sees the exact contract the validator enforces.
func SchemaJSON() string {
	return schemaJSON
}

func compileSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("invoice.schema.json", strings.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	schema, err := compiler.Compile("invoice.schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// validateAgainstSchema runs the structural layer and returns one message per
// failing instance location. The ISO 4217 check supplements the schema's
// shape-only currency pattern.
func (v *Validator) validateAgainstSchema(record map[string]any) []string {
	var errs []string

	if err := v.schema.Validate(record); err != nil {
		if ve, ok := err.(*jsonschema.ValidationError); ok {
			errs = append(errs, flattenSchemaError(ve)...)
		} else {
			errs = append(errs, err.Error())
		}
	}

	if raw, ok := record["currency"].(string); ok && raw != "" {
		if _, err := currency.ParseISO(raw); err != nil {
			errs = append(errs, fmt.Sprintf("currency: %q is not a known ISO 4217 code", raw))
		}
	}

	return errs
}

// flattenSchemaError converts the nested cause tree into leaf messages keyed
// by instance location.
func flattenSchemaError(ve *jsonschema.ValidationError) []string {
	leaves := map[string]string{}
	collectLeaves(ve, leaves)

	messages := make([]string, 0, len(leaves))
	for location, message := range leaves {
		field := strings.TrimPrefix(location, "/")
		field = strings.ReplaceAll(field, "/", ".")
		if field == "" {
			field = "record"
		}
		messages = append(messages, field+": "+message)
	}
	sort.Strings(messages)
	return messages
}

func collectLeaves(ve *jsonschema.ValidationError, out map[string]string) {
	if len(ve.Causes) == 0 {
		if _, seen := out[ve.InstanceLocation]; !seen {
			out[ve.InstanceLocation] = ve.Message
		}
		return
	}
	for _, cause := range ve.Causes {
		collectLeaves(cause, out)
	}
}
