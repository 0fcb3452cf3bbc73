package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"fatura/internal/config"
	"fatura/internal/pipeline"
	"fatura/internal/queue"
	"fatura/internal/workspace"
)

func newBatchCommand(ctx *commandContext) *cobra.Command {
	var vendorFlag string
	var jsonOutput bool
	var workersFlag int

	cmd := &cobra.Command{
		Use:   "batch <dir>",
		Short: "Extract every invoice image in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, cfg, err := ctx.newPipeline()
			if err != nil {
				return err
			}

			inputDir, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}

			lock := workspace.NewLock(cfg)
			if err := lock.Acquire(); err != nil {
				return err
			}
			defer lock.Release()

			store, err := queue.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			workers := cfg.Batch.Workers
			if workersFlag > 0 {
				workers = workersFlag
			}

			runner := pipeline.NewBatchRunner(p, store, workers, ctx.ensureLogger())
			summary, err := runner.Run(cmd.Context(), inputDir, vendorFlag)
			if err != nil {
				return err
			}

			if jsonOutput {
				if err := writeJSON(cmd, summary); err != nil {
					return err
				}
			} else {
				renderBatchSummary(cmd, summary)
			}

			if summary.Failed > 0 {
				return fmt.Errorf("%d of %d invoices failed", summary.Failed, len(summary.Outcomes))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&vendorFlag, "vendor", "auto", "Vendor template applied to every file (or auto)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the batch summary as JSON")
	cmd.Flags().IntVar(&workersFlag, "workers", 0, "Worker pool size (defaults to configuration)")
	return cmd
}

func renderBatchSummary(cmd *cobra.Command, summary *pipeline.BatchSummary) {
	out := cmd.OutOrStdout()
	if len(summary.Outcomes) == 0 {
		fmt.Fprintln(out, "No invoice files found")
		return
	}

	colorize := shouldColorize(out)
	rows := make([][]string, 0, len(summary.Outcomes))
	for _, outcome := range summary.Outcomes {
		mark := failMark(colorize)
		invoiceID := ""
		confidence := ""
		detail := ""
		if outcome.Result != nil {
			confidence = strconv.FormatFloat(outcome.Result.Confidence, 'f', 2, 64)
			if outcome.Result.Success {
				mark = okMark(colorize)
				invoiceID = outcome.Result.Invoice.InvoiceID
			} else {
				detail = outcome.Result.FirstError()
			}
		}
		rows = append(rows, []string{
			mark,
			filepath.Base(outcome.InputFile),
			invoiceID,
			confidence,
			detail,
		})
	}

	table := renderTable(
		[]string{"", "File", "Invoice", "Confidence", "Error"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	)
	fmt.Fprintln(out, table)
	fmt.Fprintf(out, "%d/%d succeeded (run %s)\n", summary.Succeeded, len(summary.Outcomes), summary.RunID)
}
