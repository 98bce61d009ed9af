package store

// migration represents a single schema migration. "{prefix}" in SQL is
// replaced by the table prefix.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create firings",
		SQL: `
			CREATE TABLE {prefix}firings (
				id        TEXT PRIMARY KEY,
				hook      TEXT NOT NULL,
				args      TEXT NOT NULL DEFAULT '[]',
				handlers  INTEGER NOT NULL DEFAULT 0,
				fired_at  TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE INDEX {prefix}idx_firings_hook ON {prefix}firings (hook, fired_at);
			CREATE INDEX {prefix}idx_firings_time ON {prefix}firings (fired_at);
		`,
	},
	{
		Version: 2,
		Name:    "record firing errors",
		SQL: `
			ALTER TABLE {prefix}firings ADD COLUMN error TEXT NOT NULL DEFAULT '';
		`,
	},
}
