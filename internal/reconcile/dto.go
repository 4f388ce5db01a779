package reconcile

import (
	"github.com/google/uuid"
)

// RunInput tunes one reconciliation run.
type RunInput struct {
	// SkipMatched leaves already-matched lines untouched so a re-run after
	// hand corrections only revisits the problem lines.
	SkipMatched bool `json:"skip_matched"`
}

// RunSummaryDTO reports one run's outcome. StatusCounts is keyed by the
// terminal reconciliation status of each processed line.
type RunSummaryDTO struct {
	InvoiceID      uuid.UUID      `json:"invoice_id"`
	ProcessedLines int            `json:"processed_lines"`
	SkippedLines   int            `json:"skipped_lines"`
	StatusCounts   map[string]int `json:"status_counts"`
	AuditLog       []string       `json:"audit_log"`
}
