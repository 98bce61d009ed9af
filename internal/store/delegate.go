package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/soyeahso/hookmount/internal/hook"
)

// Delegate is the database handle given to hook handlers. It exposes a
// fixed set of operations, each also reachable by name through Call, and
// remembers the outcome of the last statement.
//
// Queries may use "{prefix}" in place of the table prefix.
type Delegate struct {
	db *DB

	mu           sync.Mutex
	lastErr      error
	insertID     int64
	rowsAffected int64
}

// NewDelegate creates a delegate over db.
func NewDelegate(db *DB) *Delegate {
	return &Delegate{db: db}
}

// Row is one result row keyed by column name.
type Row = map[string]any

// Query runs query and returns all rows.
func (d *Delegate) Query(query string, args ...any) ([]Row, error) {
	rows, err := d.db.sql.Query(d.db.expand(query), args...)
	if err != nil {
		return nil, d.fail(err)
	}
	defer rows.Close()

	out, err := scanRows(rows)
	if err != nil {
		return nil, d.fail(err)
	}
	d.succeed(0, int64(len(out)))
	return out, nil
}

// QueryRow runs query and returns its first row, or nil when there is none.
func (d *Delegate) QueryRow(query string, args ...any) (Row, error) {
	rows, err := d.Query(query, args...)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

// GetVar returns the first column of the first row, or nil when the query
// returns nothing.
func (d *Delegate) GetVar(query string, args ...any) (any, error) {
	col, err := d.GetCol(query, args...)
	if err != nil || len(col) == 0 {
		return nil, err
	}
	return col[0], nil
}

// GetCol returns the first column of every row.
func (d *Delegate) GetCol(query string, args ...any) ([]any, error) {
	rows, err := d.db.sql.Query(d.db.expand(query), args...)
	if err != nil {
		return nil, d.fail(err)
	}
	defer rows.Close()

	var out []any
	for rows.Next() {
		cols, err := rows.Columns()
		if err != nil {
			return nil, d.fail(err)
		}
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, d.fail(err)
		}
		out = append(out, normalize(vals[0]))
	}
	if err := rows.Err(); err != nil {
		return nil, d.fail(err)
	}
	d.succeed(0, int64(len(out)))
	return out, nil
}

// Exec runs a statement that returns no rows and reports the number of
// rows it affected.
func (d *Delegate) Exec(query string, args ...any) (int64, error) {
	res, err := d.db.sql.Exec(d.db.expand(query), args...)
	if err != nil {
		return 0, d.fail(err)
	}
	affected, _ := res.RowsAffected()
	id, _ := res.LastInsertId()
	d.succeed(id, affected)
	return affected, nil
}

// Prepare creates a prepared statement. The caller must close it.
func (d *Delegate) Prepare(query string) (*sql.Stmt, error) {
	stmt, err := d.db.sql.Prepare(d.db.expand(query))
	if err != nil {
		return nil, d.fail(err)
	}
	return stmt, nil
}

// Prefix returns the table prefix.
func (d *Delegate) Prefix() string { return d.db.prefix }

// LastError returns the error of the last failed statement, cleared by the
// next successful one.
func (d *Delegate) LastError() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastErr
}

// InsertID returns the row ID of the last row inserted by Exec.
func (d *Delegate) InsertID() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.insertID
}

// RowsAffected returns the row count of the last statement: rows changed
// by Exec or rows returned by a query.
func (d *Delegate) RowsAffected() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rowsAffected
}

func (d *Delegate) fail(err error) error {
	d.mu.Lock()
	d.lastErr = err
	d.mu.Unlock()
	return err
}

func (d *Delegate) succeed(insertID, affected int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastErr = nil
	if insertID != 0 {
		d.insertID = insertID
	}
	d.rowsAffected = affected
}

type delegateOp func(d *Delegate, args []any) (any, error)

// delegateOps is the complete set of members reachable through Call. The
// snake_case names are accepted for scripts written against the classic
// database API.
var delegateOps = map[string]delegateOp{
	"Query": func(d *Delegate, args []any) (any, error) {
		q, rest, err := splitQuery(args)
		if err != nil {
			return nil, err
		}
		return d.Query(q, rest...)
	},
	"QueryRow": func(d *Delegate, args []any) (any, error) {
		q, rest, err := splitQuery(args)
		if err != nil {
			return nil, err
		}
		return d.QueryRow(q, rest...)
	},
	"GetVar": func(d *Delegate, args []any) (any, error) {
		q, rest, err := splitQuery(args)
		if err != nil {
			return nil, err
		}
		return d.GetVar(q, rest...)
	},
	"GetCol": func(d *Delegate, args []any) (any, error) {
		q, rest, err := splitQuery(args)
		if err != nil {
			return nil, err
		}
		return d.GetCol(q, rest...)
	},
	"Exec": func(d *Delegate, args []any) (any, error) {
		q, rest, err := splitQuery(args)
		if err != nil {
			return nil, err
		}
		return d.Exec(q, rest...)
	},
	"Prefix":       func(d *Delegate, _ []any) (any, error) { return d.Prefix(), nil },
	"LastError":    func(d *Delegate, _ []any) (any, error) { return d.LastError(), nil },
	"InsertID":     func(d *Delegate, _ []any) (any, error) { return d.InsertID(), nil },
	"RowsAffected": func(d *Delegate, _ []any) (any, error) { return d.RowsAffected(), nil },
}

var delegateAliases = map[string]string{
	"query":         "Exec",
	"get_results":   "Query",
	"get_row":       "QueryRow",
	"get_var":       "GetVar",
	"get_col":       "GetCol",
	"prefix":        "Prefix",
	"last_error":    "LastError",
	"insert_id":     "InsertID",
	"rows_affected": "RowsAffected",
}

// Call invokes the member called name. Queries take the SQL text as the
// first argument. Unknown names fail with hook.ErrUnknownDelegate.
func (d *Delegate) Call(name string, args ...any) (any, error) {
	if alias, ok := delegateAliases[name]; ok {
		name = alias
	}
	op, ok := delegateOps[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", hook.ErrUnknownDelegate, name)
	}
	return op(d, args)
}

// Members returns the names accepted by Call, aliases included, sorted.
func (d *Delegate) Members() []string {
	names := make([]string, 0, len(delegateOps)+len(delegateAliases))
	for name := range delegateOps {
		names = append(names, name)
	}
	for name := range delegateAliases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var errNoQuery = errors.New("first argument must be the query text")

func splitQuery(args []any) (string, []any, error) {
	if len(args) == 0 {
		return "", nil, errNoQuery
	}
	q, ok := args[0].(string)
	if !ok || q == "" {
		return "", nil, errNoQuery
	}
	return q, args[1:], nil
}

func scanRows(rows *sql.Rows) ([]Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []Row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(Row, len(cols))
		for i, c := range cols {
			row[c] = normalize(vals[i])
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// normalize turns driver byte slices into strings.
func normalize(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
