package core

// In-memory DB fake shared by the loader, validator, and pipeline tests. It
// understands exactly the SQL this package generates: parameterized inserts
// with RETURNING "RowID", and flat SELECTs over one table.

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// recordingDiag captures diagnostic events for assertions.
type recordingDiag struct {
	mu       sync.Mutex
	errors   []string
	findings []string
}

func (d *recordingDiag) Error(stage, table, id, message string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.errors = append(d.errors, fmt.Sprintf("%s %s %s: %s", stage, table, id, message))
}

func (d *recordingDiag) Finding(table, id, kind, message string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.findings = append(d.findings, fmt.Sprintf("%s %s %s: %s", table, id, kind, message))
}

type fakeTable struct {
	columns []string
	rows    [][]any
}

type fakeDB struct {
	mu     sync.Mutex
	nextID int64
	tables map[string]*fakeTable

	beginErr      error
	beginErrAfter int // successful Begin calls allowed before beginErr applies
	failInsert    func(table string, args []any) error
}

func newFakeDB() *fakeDB {
	return &fakeDB{tables: make(map[string]*fakeTable)}
}

func (db *fakeDB) rowCount(table string) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	t, ok := db.tables[table]
	if !ok {
		return 0
	}
	return len(t.rows)
}

func (db *fakeDB) Begin(ctx context.Context) (Tx, error) {
	if db.beginErr != nil {
		db.mu.Lock()
		allowed := db.beginErrAfter > 0
		if allowed {
			db.beginErrAfter--
		}
		db.mu.Unlock()
		if !allowed {
			return nil, db.beginErr
		}
	}
	return &fakeTx{db: db}, nil
}

func (db *fakeDB) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, fmt.Errorf("unexpected Exec: %s", sql)
}

func (db *fakeDB) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	return &fakeRow{err: fmt.Errorf("unexpected QueryRow outside a transaction: %s", sql)}
}

// Query serves the validator's SELECTs from committed rows.
func (db *fakeDB) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	cols, table, err := parseSelect(sql)
	if err != nil {
		return nil, err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	t := db.tables[table]
	if t == nil {
		return &fakeRows{}, nil
	}

	index := make(map[string]int, len(t.columns))
	for i, c := range t.columns {
		index[c] = i
	}

	out := make([][]any, 0, len(t.rows))
	for _, row := range t.rows {
		projected := make([]any, len(cols))
		for i, c := range cols {
			pos, ok := index[c]
			if !ok {
				return nil, fmt.Errorf("table %s has no column %s", table, c)
			}
			projected[i] = row[pos]
		}
		out = append(out, projected)
	}
	return &fakeRows{rows: out}, nil
}

type fakeTx struct {
	db       *fakeDB
	pending  []pendingInsert
	done     bool
	commits  int
	rollback bool
}

type pendingInsert struct {
	table   string
	columns []string
	values  []any
}

func (tx *fakeTx) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, fmt.Errorf("unexpected Exec: %s", sql)
}

func (tx *fakeTx) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	return nil, fmt.Errorf("unexpected Query in transaction: %s", sql)
}

func (tx *fakeTx) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	table, cols, err := parseInsert(sql)
	if err != nil {
		return &fakeRow{err: err}
	}
	if len(args) != len(cols) {
		return &fakeRow{err: fmt.Errorf("insert %s: %d args for %d columns", table, len(args), len(cols))}
	}
	if tx.db.failInsert != nil {
		if err := tx.db.failInsert(table, args); err != nil {
			return &fakeRow{err: err}
		}
	}

	tx.db.mu.Lock()
	tx.db.nextID++
	id := tx.db.nextID
	tx.db.mu.Unlock()

	stored := make([]any, 0, len(args)+1)
	stored = append(stored, id)
	for _, arg := range args {
		stored = append(stored, decodePg(arg))
	}

	tx.pending = append(tx.pending, pendingInsert{
		table:   table,
		columns: append([]string{"RowID"}, cols...),
		values:  stored,
	})
	return &fakeRow{values: []any{id}}
}

// decodePg unwraps pgtype parameters into the native values the driver would
// hand back on a later read.
func decodePg(v any) any {
	switch t := v.(type) {
	case pgtype.Text:
		if !t.Valid {
			return nil
		}
		return t.String
	case pgtype.Int8:
		if !t.Valid {
			return nil
		}
		return t.Int64
	case pgtype.Float8:
		if !t.Valid {
			return nil
		}
		return t.Float64
	case pgtype.Bool:
		if !t.Valid {
			return nil
		}
		return t.Bool
	case pgtype.Timestamptz:
		if !t.Valid {
			return nil
		}
		return t.Time
	default:
		return v
	}
}

func (tx *fakeTx) Commit(ctx context.Context) error {
	if tx.done {
		return fmt.Errorf("transaction already finished")
	}
	tx.done = true
	tx.commits++

	tx.db.mu.Lock()
	defer tx.db.mu.Unlock()
	for _, ins := range tx.pending {
		t := tx.db.tables[ins.table]
		if t == nil {
			t = &fakeTable{columns: ins.columns}
			tx.db.tables[ins.table] = t
		}
		t.rows = append(t.rows, ins.values)
	}
	return nil
}

func (tx *fakeTx) Rollback(ctx context.Context) error {
	if !tx.done {
		tx.done = true
		tx.rollback = true
		tx.pending = nil
	}
	return nil
}

type fakeRow struct {
	values []any
	err    error
}

func (r *fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(dest, r.values)
}

type fakeRows struct {
	rows [][]any
	pos  int
	err  error
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.rows) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	return assign(dest, r.rows[r.pos-1])
}

func (r *fakeRows) Values() ([]any, error) {
	return r.rows[r.pos-1], nil
}

func assign(dest, values []any) error {
	if len(dest) != len(values) {
		return fmt.Errorf("scan: %d targets for %d values", len(dest), len(values))
	}
	for i, d := range dest {
		switch target := d.(type) {
		case *int64:
			n, ok := AsInt64(values[i])
			if !ok {
				return fmt.Errorf("scan: value %v is not an integer", values[i])
			}
			*target = n
		case *any:
			*target = values[i]
		case *string:
			s, ok := AsString(values[i])
			if !ok {
				return fmt.Errorf("scan: value %v is not a string", values[i])
			}
			*target = s
		default:
			return fmt.Errorf("scan: unsupported target %T", d)
		}
	}
	return nil
}

func parseInsert(sql string) (table string, columns []string, err error) {
	rest, ok := strings.CutPrefix(sql, "INSERT INTO ")
	if !ok {
		return "", nil, fmt.Errorf("not an insert: %s", sql)
	}
	table, rest, ok = cutQuoted(rest)
	if !ok {
		return "", nil, fmt.Errorf("bad insert table: %s", sql)
	}
	open := strings.Index(rest, "(")
	closing := strings.Index(rest, ")")
	if open < 0 || closing < open {
		return "", nil, fmt.Errorf("bad insert columns: %s", sql)
	}
	for _, col := range strings.Split(rest[open+1:closing], ",") {
		columns = append(columns, strings.Trim(strings.TrimSpace(col), `"`))
	}
	return table, columns, nil
}

func parseSelect(sql string) (columns []string, table string, err error) {
	rest, ok := strings.CutPrefix(sql, "SELECT ")
	if !ok {
		return nil, "", fmt.Errorf("not a select: %s", sql)
	}
	colPart, tablePart, ok := strings.Cut(rest, " FROM ")
	if !ok {
		return nil, "", fmt.Errorf("bad select: %s", sql)
	}
	for _, col := range strings.Split(colPart, ",") {
		columns = append(columns, strings.Trim(strings.TrimSpace(col), `"`))
	}
	table = strings.Trim(strings.TrimSpace(tablePart), `"`)
	return columns, table, nil
}

func cutQuoted(s string) (name, rest string, ok bool) {
	if !strings.HasPrefix(s, `"`) {
		return "", "", false
	}
	end := strings.Index(s[1:], `"`)
	if end < 0 {
		return "", "", false
	}
	return s[1 : end+1], s[end+2:], true
}
