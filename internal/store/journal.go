package store

import (
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// maxArgLen bounds each recorded argument.
const maxArgLen = 120

// timeFormat is fixed-width so stored times sort as strings.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Firing is one recorded hook firing.
type Firing struct {
	ID       string
	Hook     string
	Args     []string
	Handlers int
	Error    string
	FiredAt  time.Time
}

// Journal records hook firings.
type Journal struct {
	db *DB
}

// NewJournal creates a journal using the given database.
func NewJournal(db *DB) *Journal {
	return &Journal{db: db}
}

// Record stores a firing of hook with the number of handlers that ran and
// the error the firing ended with, if any.
func (j *Journal) Record(hook string, args []any, handlers int, fireErr error) (Firing, error) {
	f := Firing{
		ID:       uuid.New().String(),
		Hook:     hook,
		Args:     SummarizeArgs(args),
		Handlers: handlers,
		FiredAt:  time.Now().UTC(),
	}
	if fireErr != nil {
		f.Error = fireErr.Error()
	}

	data, err := json.Marshal(f.Args)
	if err != nil {
		return Firing{}, fmt.Errorf("encoding args: %w", err)
	}

	_, err = j.db.sql.Exec(
		j.db.expand(`INSERT INTO {prefix}firings (id, hook, args, handlers, error, fired_at)
		 VALUES (?, ?, ?, ?, ?, ?)`),
		f.ID, f.Hook, string(data), f.Handlers, f.Error, f.FiredAt.Format(timeFormat),
	)
	if err != nil {
		return Firing{}, fmt.Errorf("recording firing of %s: %w", hook, err)
	}

	j.db.log.Debug().Str("id", f.ID).Str("hook", hook).Int("handlers", handlers).Msg("firing recorded")
	return f, nil
}

// Finish updates a recorded firing with its outcome once its handlers have
// run: how many ran and the error the firing ended with, if any.
func (j *Journal) Finish(id string, handlers int, fireErr error) error {
	var msg string
	if fireErr != nil {
		msg = fireErr.Error()
	}
	res, err := j.db.sql.Exec(
		j.db.expand(`UPDATE {prefix}firings SET handlers = ?, error = ? WHERE id = ?`),
		handlers, msg, id,
	)
	if err != nil {
		return fmt.Errorf("finishing firing %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finishing firing %s: not recorded", id)
	}
	return nil
}

// Recent returns up to limit firings, newest first. A non-empty hook
// restricts the result to that hook.
func (j *Journal) Recent(hook string, limit int) ([]Firing, error) {
	if limit <= 0 {
		return nil, nil
	}

	query := `SELECT id, hook, args, handlers, error, fired_at FROM {prefix}firings`
	args := []any{}
	if hook != "" {
		query += ` WHERE hook = ?`
		args = append(args, hook)
	}
	query += ` ORDER BY rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := j.db.sql.Query(j.db.expand(query), args...)
	if err != nil {
		return nil, fmt.Errorf("querying firings: %w", err)
	}
	defer rows.Close()

	var out []Firing
	for rows.Next() {
		var f Firing
		var argsJSON, firedAt string
		if err := rows.Scan(&f.ID, &f.Hook, &argsJSON, &f.Handlers, &f.Error, &firedAt); err != nil {
			return nil, fmt.Errorf("scanning firing: %w", err)
		}
		if err := json.Unmarshal([]byte(argsJSON), &f.Args); err != nil {
			return nil, fmt.Errorf("decoding args of firing %s: %w", f.ID, err)
		}
		f.FiredAt, _ = time.Parse(timeFormat, firedAt)
		out = append(out, f)
	}
	return out, rows.Err()
}

// Count returns the number of recorded firings of hook, or of all hooks
// when hook is empty.
func (j *Journal) Count(hook string) (int, error) {
	query := `SELECT COUNT(*) FROM {prefix}firings`
	var args []any
	if hook != "" {
		query += ` WHERE hook = ?`
		args = append(args, hook)
	}
	var n int
	if err := j.db.sql.QueryRow(j.db.expand(query), args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting firings: %w", err)
	}
	return n, nil
}

// Prune deletes firings older than before and returns how many were removed.
func (j *Journal) Prune(before time.Time) (int64, error) {
	res, err := j.db.sql.Exec(
		j.db.expand(`DELETE FROM {prefix}firings WHERE fired_at < ?`),
		before.UTC().Format(timeFormat),
	)
	if err != nil {
		return 0, fmt.Errorf("pruning firings: %w", err)
	}
	return res.RowsAffected()
}

// SummarizeArgs renders arguments for the journal, truncating long values.
func SummarizeArgs(args []any) []string {
	out := make([]string, len(args))
	for i, a := range args {
		s := fmt.Sprintf("%v", a)
		if a == nil {
			s = "nil"
		}
		if utf8.RuneCountInString(s) > maxArgLen {
			s = string([]rune(s)[:maxArgLen]) + "..."
		}
		out[i] = s
	}
	return out
}
