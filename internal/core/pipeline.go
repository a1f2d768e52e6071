package core

// pipeline.go runs one end-to-end ingestion: fetch the manifest version,
// register the game row, then walk every table in dependency order through
// download, normalize, and load, finishing with post-load validation.
// Everything is sequential; failure scoping is the whole point (a bad record
// skips the record, a bad batch skips the batch, a bad component skips the
// table, and only authentication or version fetch failures abort the run).

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Into-The-Grey/CodexKeep/internal/diag"
)

// Fetcher supplies manifest data. *bungie.Client implements it; tests supply
// fakes.
type Fetcher interface {
	Version(ctx context.Context) (string, error)
	DownloadComponent(ctx context.Context, component string) ([]DefinitionRecord, error)
}

// isFatal reports whether a fetch error must abort the run rather than skip
// the component. Errors opt in by implementing Fatal() (bungie.AuthError
// does).
func isFatal(err error) bool {
	var fatal interface{ Fatal() bool }
	return errors.As(err, &fatal) && fatal.Fatal()
}

// GameName is the row written to Games for every run of this catalog.
const GameName = "Destiny 2"

// Pipeline wires the fetch, normalize, load, and validate stages together.
type Pipeline struct {
	fetcher   Fetcher
	db        DB
	loader    *Loader
	validator *Validator
	diag      Diagnostics
}

// NewPipeline assembles a pipeline. batchSize follows the loader's default
// when non-positive.
func NewPipeline(fetcher Fetcher, db DB, batchSize int, d Diagnostics) *Pipeline {
	if d == nil {
		d = NopDiagnostics{}
	}
	return &Pipeline{
		fetcher:   fetcher,
		db:        db,
		loader:    NewLoader(db, batchSize, d),
		validator: NewValidator(db, d),
		diag:      d,
	}
}

// Run executes one full ingestion and always returns a report; the report's
// Fatal field carries the abort cause when the run could not complete.
func (p *Pipeline) Run(ctx context.Context) *RunReport {
	report := NewRunReport()
	defer report.Finish()

	version, err := p.fetcher.Version(ctx)
	if err != nil {
		p.diag.Error(diag.StageFetch, "", "", err.Error())
		report.Fatal = fmt.Errorf("manifest version: %w", err)
		return report
	}
	report.Version = version
	slog.Info("run started", "run_id", report.RunID, "version", version)

	gameID, err := p.insertGame(ctx, version)
	if err != nil {
		p.diag.Error(diag.StageLoad, "Games", "", err.Error())
		report.Fatal = fmt.Errorf("register game: %w", err)
		return report
	}

	// Rows produced by one table's expander for a later table.
	pending := make(map[string][]NormalizedRow)
	fetched := make(map[string]bool)

	for _, def := range All() {
		var rows []NormalizedRow

		if def.Component != "" {
			records, err := p.fetcher.DownloadComponent(ctx, def.Component)
			if err != nil {
				if isFatal(err) {
					report.Fatal = err
					return report
				}
				p.diag.Error(diag.StageFetch, def.Name, def.Component, err.Error())
				report.SkippedTables = append(report.SkippedTables, def.Name)
				continue
			}
			if !fetched[def.Component] {
				fetched[def.Component] = true
				report.Fetched += len(records)
			}
			rows = p.normalize(def, records, gameID, report, pending)
		}

		rows = append(rows, pending[def.Name]...)
		delete(pending, def.Name)
		report.Normalized += len(rows)

		result, err := p.loader.Load(ctx, def, rows)
		if err != nil {
			report.Fatal = fmt.Errorf("load %s: %w", def.Name, err)
			return report
		}
		report.Inserted += result.Inserted
		report.FailedBatches += len(result.Failed)
	}

	for _, def := range All() {
		findings, err := p.validator.ValidateTable(ctx, def)
		if err != nil {
			p.diag.Error(diag.StageValidate, def.Name, "", err.Error())
			report.Fatal = fmt.Errorf("validate %s: %w", def.Name, err)
			return report
		}
		report.Findings += len(findings)
	}

	return report
}

// normalize maps every record of one component through a table definition,
// routing expander output to its destination table.
func (p *Pipeline) normalize(def TableDefinition, records []DefinitionRecord, gameID int64, report *RunReport, pending map[string][]NormalizedRow) []NormalizedRow {
	var own []NormalizedRow
	for _, rec := range records {
		rows, err := Normalize(rec, def, gameID)
		if err != nil {
			report.SkippedRecords++
			var mapErr *MappingError
			if errors.As(err, &mapErr) {
				p.diag.Error(diag.StageNormalize, mapErr.Table, mapErr.Hash, err.Error())
			} else {
				p.diag.Error(diag.StageNormalize, def.Name, rec.Hash, err.Error())
			}
			continue
		}
		for _, row := range rows {
			if row.Table == def.Name {
				own = append(own, row)
			} else {
				pending[row.Table] = append(pending[row.Table], row)
			}
		}
	}
	return own
}

// insertGame records the catalog row every other table hangs off and returns
// its store-assigned id.
func (p *Pipeline) insertGame(ctx context.Context, version string) (int64, error) {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var gameID int64
	err = tx.QueryRow(ctx,
		`INSERT INTO "Games" ("GameName", "Version", "LastUpdated") VALUES ($1, $2, $3) RETURNING "RowID"`,
		GameName, version, time.Now().UTC(),
	).Scan(&gameID)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return gameID, nil
}
