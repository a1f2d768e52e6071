package core

// load.go writes normalized rows in bounded, transactional batches. Each
// batch either commits completely or rolls back completely; a failed batch is
// recorded and the run moves on to the next one. Primary keys are assigned by
// the store; the loader captures them for cross-table provenance reporting.
//
// Operational precondition: the loader does not deduplicate. Rerunning a
// pipeline without clearing destination tables produces duplicate rows; a
// full refresh per run is assumed.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Into-The-Grey/CodexKeep/internal/diag"
)

// errBeginFailed marks a batch whose transaction could not be opened. Without
// transactions no batch can make progress, so Load propagates it instead of
// recording a per-batch failure.
var errBeginFailed = errors.New("begin transaction")

// DefaultBatchSize is the number of rows committed per transaction when the
// loader is not configured otherwise.
const DefaultBatchSize = 2500

// BatchResult summarizes loading one table.
type BatchResult struct {
	Table    string
	Batches  int
	Inserted int
	Failed   []BatchFailure

	// Keys maps a row's source identifier to the store-assigned RowID.
	// When one definition produced several rows the last key wins; the
	// map exists for provenance reporting, not uniqueness.
	Keys map[string]int64
}

// Loader partitions rows into batches and writes each one transactionally.
type Loader struct {
	db        DB
	batchSize int
	diag      Diagnostics
}

// NewLoader creates a loader. A non-positive batchSize selects the default.
func NewLoader(db DB, batchSize int, d Diagnostics) *Loader {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if d == nil {
		d = NopDiagnostics{}
	}
	return &Loader{db: db, batchSize: batchSize, diag: d}
}

// Load writes rows for one table. Input order is preserved across batches.
// The returned error is non-nil only for failures that make further progress
// impossible (a transaction cannot even be opened); per-batch failures are
// reported in the result and diagnostics instead.
func (l *Loader) Load(ctx context.Context, def TableDefinition, rows []NormalizedRow) (*BatchResult, error) {
	result := &BatchResult{
		Table: def.Name,
		Keys:  make(map[string]int64),
	}
	if len(rows) == 0 {
		return result, nil
	}

	insertSQL := buildInsertSQL(def.Name, rows[0].Columns)

	for start := 0; start < len(rows); start += l.batchSize {
		// Cancellation is honored between batches only, so a batch is
		// always either fully committed or fully rolled back.
		if err := ctx.Err(); err != nil {
			return result, err
		}

		end := start + l.batchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[start:end]
		result.Batches++

		keys, err := l.loadBatch(ctx, insertSQL, batch)
		if err != nil {
			if errors.Is(err, errBeginFailed) {
				l.diag.Error(diag.StageLoad, def.Name,
					fmt.Sprintf("batch-%d", result.Batches), err.Error())
				return result, err
			}
			failure := BatchFailure{
				Table:    def.Name,
				Batch:    result.Batches,
				RowStart: start,
				RowEnd:   end,
				Err:      err,
			}
			result.Failed = append(result.Failed, failure)
			l.diag.Error(diag.StageLoad, def.Name,
				fmt.Sprintf("batch-%d", failure.Batch),
				fmt.Sprintf("rows %d-%d rolled back: %v", start, end, err))
			continue
		}

		for sourceID, rowID := range keys {
			result.Keys[sourceID] = rowID
		}
		result.Inserted += len(batch)
	}

	slog.Info("table loaded",
		"table", def.Name,
		"rows", result.Inserted,
		"batches", result.Batches,
		"failed_batches", len(result.Failed),
	)
	return result, nil
}

// loadBatch inserts one batch inside its own transaction. The returned keys
// are only valid once the commit succeeded; a rolled-back batch contributes
// nothing to the provenance map.
func (l *Loader) loadBatch(ctx context.Context, insertSQL string, batch []NormalizedRow) (map[string]int64, error) {
	tx, err := l.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errBeginFailed, err)
	}
	defer tx.Rollback(ctx)

	keys := make(map[string]int64, len(batch))
	for _, row := range batch {
		var rowID int64
		if err := tx.QueryRow(ctx, insertSQL, row.Values...).Scan(&rowID); err != nil {
			return nil, fmt.Errorf("insert %s: %w", row.SourceID, err)
		}
		keys[row.SourceID] = rowID
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return keys, nil
}

// buildInsertSQL renders the parameterized insert for a column set, returning
// the store-assigned identity key.
func buildInsertSQL(table string, columns []string) string {
	quoted := make([]string, len(columns))
	params := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = quoteIdentifier(col)
		params[i] = fmt.Sprintf("$%d", i+1)
	}

	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		quoteIdentifier(table),
		strings.Join(quoted, ", "),
		strings.Join(params, ", "),
		quoteIdentifier("RowID"),
	)
}
