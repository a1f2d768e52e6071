package core

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Outcome classifies a completed (or aborted) pipeline run.
type Outcome string

const (
	OutcomeSuccess      Outcome = "success"
	OutcomeWithWarnings Outcome = "completed-with-warnings"
	OutcomeFatal        Outcome = "fatal"
)

// RunReport accumulates counters across one pipeline run. It is written by a
// single goroutine; the pipeline is sequential by design.
type RunReport struct {
	RunID   uuid.UUID
	Version string

	StartedAt  time.Time
	FinishedAt time.Time

	Fetched        int
	Normalized     int
	Inserted       int
	SkippedRecords int
	FailedBatches  int
	Findings       int

	// SkippedTables names tables whose component download failed and were
	// left empty for this run.
	SkippedTables []string

	// Fatal is set when the run aborted before completing all tables.
	Fatal error
}

// NewRunReport starts a report for a fresh run.
func NewRunReport() *RunReport {
	return &RunReport{
		RunID:     uuid.New(),
		StartedAt: time.Now().UTC(),
	}
}

// Outcome derives the run classification from the accumulated counters.
func (r *RunReport) Outcome() Outcome {
	switch {
	case r.Fatal != nil:
		return OutcomeFatal
	case r.SkippedRecords > 0 || r.FailedBatches > 0 || r.Findings > 0 || len(r.SkippedTables) > 0:
		return OutcomeWithWarnings
	default:
		return OutcomeSuccess
	}
}

// Finish stamps the end time and logs the summary.
func (r *RunReport) Finish() {
	r.FinishedAt = time.Now().UTC()

	attrs := []any{
		"run_id", r.RunID,
		"outcome", string(r.Outcome()),
		"version", r.Version,
		"fetched", r.Fetched,
		"normalized", r.Normalized,
		"inserted", r.Inserted,
		"skipped_records", r.SkippedRecords,
		"failed_batches", r.FailedBatches,
		"findings", r.Findings,
		"skipped_tables", r.SkippedTables,
		"elapsed", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond),
	}

	if r.Fatal != nil {
		slog.Error("run aborted", append(attrs, "error", r.Fatal)...)
		return
	}
	slog.Info("run complete", attrs...)
}
