package queue

import (
	"time"

	"fatura/internal/invoice"
)

// Status represents the lifecycle of a ledger item.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusProcessing,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// ValidStatus reports whether value names a known lifecycle state.
func ValidStatus(value Status) bool {
	_, ok := statusSet[value]
	return ok
}

// HealthSummary describes aggregated ledger counts per lifecycle state.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Completed  int
	Failed     int
}

// Item represents one invoice file tracked in the ledger.
type Item struct {
	ID           int64
	SourcePath   string
	VendorType   invoice.VendorType
	Status       Status
	InvoiceID    string
	Confidence   float64
	Provider     string
	Model        string
	OutputPath   string
	ErrorMessage string
	StageReached string
	RunID        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
