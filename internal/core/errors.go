package core

import "fmt"

// MappingError indicates one definition record could not be normalized for a
// destination table. Scoped to the record: it is skipped and the run
// continues.
type MappingError struct {
	Table  string
	Hash   string
	Field  string
	Reason string
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("normalize %s %s: field %q: %s", e.Table, e.Hash, e.Field, e.Reason)
}

// BatchFailure records one rolled-back batch. Scoped to the batch: the run
// continues with the next one.
type BatchFailure struct {
	Table    string
	Batch    int // 1-based batch number
	RowStart int // index of the first row in the batch
	RowEnd   int // index past the last row
	Err      error
}

func (e *BatchFailure) Error() string {
	return fmt.Sprintf("load %s batch %d (rows %d-%d): %v", e.Table, e.Batch, e.RowStart, e.RowEnd, e.Err)
}

func (e *BatchFailure) Unwrap() error { return e.Err }
