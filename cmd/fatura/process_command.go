package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"fatura/internal/config"
	"fatura/internal/pipeline"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var vendorFlag string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "process <file>",
		Short: "Extract a single invoice image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, cfg, err := ctx.newPipeline()
			if err != nil {
				return err
			}

			input, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			vendor := pipeline.ResolveVendor(vendorFlag, input, defaultVendor(cfg))

			result, artifact, err := p.Run(cmd.Context(), input, vendor)
			if err != nil {
				return err
			}

			if jsonOutput {
				if err := writeJSON(cmd, result); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				if result.Success {
					fmt.Fprintf(out, "%s %s  confidence=%.2f provider=%s latency=%dms\n",
						okMark(colorize), result.Invoice.InvoiceID, result.Confidence, result.ProviderUsed, result.LatencyMS)
					fmt.Fprintf(out, "  wrote %s\n", artifact)
					for _, warning := range result.Warnings {
						fmt.Fprintf(out, "  warning: %s\n", warning.Message)
					}
				} else {
					fmt.Fprintf(out, "%s %s  stage=%s\n", failMark(colorize), input, result.StageReached)
					for _, issue := range result.Errors {
						fmt.Fprintf(out, "  error: %s\n", issue.Message)
					}
					fmt.Fprintf(out, "  wrote %s\n", artifact)
				}
			}

			if !result.Success {
				return errors.New("extraction failed")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&vendorFlag, "vendor", "auto", "Vendor template (ubereats, doordash, grubhub, ifood, rappi, generic, auto)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the full extraction result as JSON")
	return cmd
}
