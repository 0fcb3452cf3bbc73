package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fatura/internal/config"
	"fatura/internal/validation"
)

// unwrapRecord peels the "invoice" envelope off a success artifact so
// pipeline output can be re-validated directly. Raw records pass through
// untouched.
func unwrapRecord(raw []byte) []byte {
	var envelope struct {
		Invoice json.RawMessage `json:"invoice"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return raw
	}
	inner := bytes.TrimSpace(envelope.Invoice)
	if len(inner) > 0 && inner[0] == '{' {
		return inner
	}
	return raw
}

func newValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file.json>",
		Short: "Re-validate an extracted record offline",
		Long: "Runs schema validation, business rules, and confidence scoring " +
			"against a JSON record without calling any provider. Accepts either a " +
			"raw provider record or a pipeline success artifact. Identical input " +
			"always produces identical output.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			raw, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read record: %w", err)
			}

			validator, err := validation.New(cfg.Extraction.LLMConfidenceDefault, ctx.ensureLogger())
			if err != nil {
				return err
			}

			_, result := validator.Validate(unwrapRecord(raw), nil)
			if err := writeJSON(cmd, result); err != nil {
				return err
			}
			if !result.IsValid {
				return fmt.Errorf("record is invalid")
			}
			return nil
		},
	}
}
