package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"fatura/internal/invoice"
	"fatura/internal/logging"
	"fatura/internal/queue"
	"fatura/internal/services"
)

var invoiceExtensions = map[string]struct{}{
	".tif":  {},
	".tiff": {},
	".png":  {},
	".jpg":  {},
	".jpeg": {},
}

// FileOutcome pairs one input file with its result and artifact location.
type FileOutcome struct {
	InputFile string
	Result    *invoice.ExtractionResult
	Artifact  string
	LedgerID  int64
}

// BatchSummary aggregates a directory run.
type BatchSummary struct {
	RunID     string
	Outcomes  []FileOutcome
	Succeeded int
	Failed    int
}

// BatchRunner fans the pipeline out over a directory with a bounded worker
// pool. The ledger store is optional; without it runs are untracked.
type BatchRunner struct {
	pipeline *Pipeline
	store    *queue.Store
	workers  int
	logger   *slog.Logger
}

// NewBatchRunner constructs a runner. workers < 1 falls back to 1.
func NewBatchRunner(p *Pipeline, store *queue.Store, workers int, logger *slog.Logger) *BatchRunner {
	if workers < 1 {
		workers = 1
	}
	return &BatchRunner{
		pipeline: p,
		store:    store,
		workers:  workers,
		logger:   logging.NewComponentLogger(logger, "batch"),
	}
}

// DiscoverInvoiceFiles lists the invoice images directly under dir, sorted by
// name.
func DiscoverInvoiceFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input dir: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if _, ok := invoiceExtensions[ext]; ok {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// Run processes every invoice image in dir. One file's failure never stops
// the rest; the returned summary reports per-file outcomes. The error return
// covers run-level problems only (unreadable directory, ledger unavailable).
func (b *BatchRunner) Run(ctx context.Context, dir, vendorFlag string) (*BatchSummary, error) {
	files, err := DiscoverInvoiceFiles(dir)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)

	summary := &BatchSummary{
		RunID:    runID,
		Outcomes: make([]FileOutcome, len(files)),
	}
	if len(files) == 0 {
		b.logger.Info("no invoice files found", logging.String("dir", dir))
		return summary, nil
	}

	b.logger.Info("batch starting",
		logging.String(logging.FieldRunID, runID),
		logging.Int("files", len(files)),
		logging.Int("workers", b.workers),
	)

	vendors := make([]invoice.VendorType, len(files))
	items := make([]*queue.Item, len(files))
	for i, file := range files {
		vendors[i] = ResolveVendor(vendorFlag, file, invoice.VendorType(b.pipeline.cfg.Extraction.DefaultVendor))
		if b.store == nil {
			continue
		}
		item, err := b.store.NewFile(ctx, file, vendors[i])
		if err != nil {
			return nil, fmt.Errorf("ledger insert for %s: %w", file, err)
		}
		items[i] = item
	}

	group := new(errgroup.Group)
	group.SetLimit(b.workers)
	for i := range files {
		i := i
		group.Go(func() error {
			summary.Outcomes[i] = b.processOne(ctx, files[i], vendors[i], items[i])
			return nil
		})
	}
	// Workers never return errors; failures live in the outcomes.
	_ = group.Wait()

	for _, outcome := range summary.Outcomes {
		if outcome.Result != nil && outcome.Result.Success {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}

	b.logger.Info("batch complete",
		logging.String(logging.FieldRunID, runID),
		logging.Int("succeeded", summary.Succeeded),
		logging.Int("failed", summary.Failed),
	)
	return summary, nil
}

func (b *BatchRunner) processOne(ctx context.Context, file string, vendor invoice.VendorType, item *queue.Item) FileOutcome {
	runID, _ := services.RunIDFromContext(ctx)

	if item != nil {
		item.Status = queue.StatusProcessing
		item.RunID = runID
		if err := b.store.Update(ctx, item); err != nil {
			b.logger.Warn("ledger update", logging.String(logging.FieldInvoiceFile, file), logging.Error(err))
		}
	}

	result, artifact, err := b.pipeline.Run(ctx, file, vendor)
	if err != nil {
		b.logger.Warn("artifact write", logging.String(logging.FieldInvoiceFile, file), logging.Error(err))
	}

	outcome := FileOutcome{InputFile: file, Result: result, Artifact: artifact}
	if item == nil {
		return outcome
	}

	outcome.LedgerID = item.ID
	item.Provider = string(result.ProviderUsed)
	item.Model = result.Model
	item.Confidence = result.Confidence
	item.StageReached = result.StageReached
	if result.Success {
		item.Status = queue.StatusCompleted
		item.InvoiceID = result.Invoice.InvoiceID
		item.OutputPath = artifact
		item.ErrorMessage = ""
	} else {
		item.Status = queue.StatusFailed
		item.OutputPath = artifact
		item.ErrorMessage = result.ErrorSummary()
	}
	if err := b.store.Update(ctx, item); err != nil {
		b.logger.Warn("ledger update", logging.String(logging.FieldInvoiceFile, file), logging.Error(err))
	}
	return outcome
}
