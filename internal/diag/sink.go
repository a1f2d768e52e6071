// Package diag implements the append-only diagnostics sink for pipeline runs.
//
// Two separate artifacts are kept so operators can triage structural failures
// independently from data-quality issues:
//
//   - the error log receives run and stage errors (fetch, normalize, load)
//   - the findings log receives post-insertion validation findings
//
// Recording never fails the caller. If a file write fails the entry is
// downgraded to stderr; diagnostics are for operators, not for the pipeline.
package diag

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// Pipeline stages attributed on error events.
const (
	StageFetch     = "FETCH"
	StageNormalize = "NORMALIZE"
	StageLoad      = "LOAD"
	StageValidate  = "VALIDATE"
	StageRun       = "RUN"
)

// Sink appends structured diagnostics records to the two run artifacts.
// Safe for use from a single run goroutine; a mutex guards the files so the
// web side can share a sink if needed.
type Sink struct {
	mu       sync.Mutex
	errors   *os.File
	findings *os.File

	// now is overridable for tests.
	now func() time.Time
}

// Open creates or opens the two append-only diagnostics files.
func Open(errorPath, findingsPath string) (*Sink, error) {
	errFile, err := os.OpenFile(errorPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open error log: %w", err)
	}

	findFile, err := os.OpenFile(findingsPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		errFile.Close()
		return nil, fmt.Errorf("open findings log: %w", err)
	}

	return &Sink{
		errors:   errFile,
		findings: findFile,
		now:      time.Now,
	}, nil
}

// Error records a run or stage error event.
// id identifies the failing unit (record hash, batch number, table name).
func (s *Sink) Error(stage, table, id, message string) {
	line := s.format(stage, table, id, message)
	s.append(s.errors, line)
}

// Finding records one post-insertion validation finding.
func (s *Sink) Finding(table, id, kind, message string) {
	line := s.format(kind, table, id, message)
	s.append(s.findings, line)
}

// Close flushes and closes both artifacts.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	errClose := s.errors.Close()
	findClose := s.findings.Close()
	if errClose != nil {
		return errClose
	}
	return findClose
}

// format renders one record line:
//
//	[2025-01-02 15:04:05] LOAD Items batch-3: insert failed
func (s *Sink) format(tag, table, id, message string) string {
	ts := s.now().Format("2006-01-02 15:04:05")
	switch {
	case table == "" && id == "":
		return fmt.Sprintf("[%s] %s: %s\n", ts, tag, message)
	case id == "":
		return fmt.Sprintf("[%s] %s %s: %s\n", ts, tag, table, message)
	default:
		return fmt.Sprintf("[%s] %s %s %s: %s\n", ts, tag, table, id, message)
	}
}

// append writes the line, falling back to stderr on failure.
// A sink write failure must never propagate as a pipeline fault.
func (s *Sink) append(f *os.File, line string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := f.WriteString(line); err != nil {
		fmt.Fprintf(os.Stderr, "diag: sink write failed (%v): %s", err, line)
	}
}
