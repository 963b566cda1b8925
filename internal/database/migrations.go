package database

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS sdrs (
    id TEXT PRIMARY KEY,
    company_id TEXT NOT NULL,
    name TEXT NOT NULL,
    email TEXT,
    created_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS calls (
    id TEXT PRIMARY KEY,
    company_id TEXT NOT NULL,
    sdr_id TEXT NOT NULL REFERENCES sdrs(id) ON DELETE CASCADE,
    recorded_at TEXT NOT NULL,
    week_number INTEGER NOT NULL,
    year INTEGER NOT NULL,
    status TEXT NOT NULL DEFAULT 'pending' CHECK(status IN ('pending', 'completed', 'failed')),
    transcript TEXT,
    created_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS call_analyses (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    call_id TEXT UNIQUE NOT NULL REFERENCES calls(id) ON DELETE CASCADE,
    overall_score REAL NOT NULL,
    strengths TEXT NOT NULL DEFAULT '',
    weaknesses TEXT NOT NULL DEFAULT '',
    summary TEXT NOT NULL DEFAULT '',
    created_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS dimension_scores (
    analysis_id INTEGER NOT NULL REFERENCES call_analyses(id) ON DELETE CASCADE,
    dimension TEXT NOT NULL,
    score INTEGER NOT NULL CHECK(score BETWEEN 1 AND 10),
    justification TEXT NOT NULL DEFAULT '',
    evidence_quotes TEXT,
    PRIMARY KEY (analysis_id, dimension)
);

CREATE TABLE IF NOT EXISTS coaching_items (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    analysis_id INTEGER NOT NULL REFERENCES call_analyses(id) ON DELETE CASCADE,
    sdr_id TEXT NOT NULL,
    company_id TEXT NOT NULL,
    dimension TEXT NOT NULL,
    recommendation TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'open' CHECK(status IN ('open', 'in_progress', 'completed')),
    created_at TEXT DEFAULT (datetime('now')),
    updated_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS weekly_reports (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    company_id TEXT NOT NULL,
    sdr_id TEXT NOT NULL,
    week_number INTEGER NOT NULL,
    year INTEGER NOT NULL,
    calls_analyzed INTEGER NOT NULL DEFAULT 0,
    avg_scores TEXT NOT NULL,
    best_call_id TEXT,
    worst_call_id TEXT,
    comparison_with_previous TEXT NOT NULL,
    coaching_impact TEXT NOT NULL,
    summary TEXT NOT NULL DEFAULT '',
    generated_at TEXT DEFAULT (datetime('now')),
    UNIQUE (sdr_id, week_number, year)
);

CREATE INDEX IF NOT EXISTS idx_calls_window ON calls(sdr_id, year, week_number);
CREATE INDEX IF NOT EXISTS idx_calls_company ON calls(company_id);
CREATE INDEX IF NOT EXISTS idx_coaching_sdr ON coaching_items(sdr_id);
CREATE INDEX IF NOT EXISTS idx_reports_company ON weekly_reports(company_id);
`)
			return err
		},
	},
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
