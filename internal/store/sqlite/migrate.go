package sqlite

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// migrate creates missing tables and adds every column the current model
// requires that a legacy database lacks. Columns are only ever added, never
// dropped, so databases written by older builds keep opening.
func (s *Store) migrate(ctx context.Context) error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS raw_posts (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			title TEXT NOT NULL,
			body TEXT,
			author TEXT,
			url TEXT,
			upvotes INTEGER,
			comments_count INTEGER,
			created_at TEXT,
			subreddit TEXT,
			metadata TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS signals (
			post_id TEXT PRIMARY KEY,
			score REAL,
			reasoning TEXT,
			detected_problems TEXT,
			suggested_solutions TEXT,
			validation_score REAL,
			engagement_score REAL,
			recency_score REAL,
			composite_value REAL,
			analyzed_at TEXT,
			FOREIGN KEY (post_id) REFERENCES raw_posts (id)
		)`,
		`CREATE TABLE IF NOT EXISTS leads (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			post_id TEXT,
			author TEXT,
			content_snippet TEXT,
			intent_score REAL,
			contact_url TEXT,
			status TEXT,
			created_at TEXT,
			FOREIGN KEY (post_id) REFERENCES raw_posts (id)
		)`,
		`CREATE TABLE IF NOT EXISTS validation_reports (
			post_id TEXT PRIMARY KEY,
			idea_summary TEXT,
			market_size_estimate TEXT,
			competitors TEXT,
			swot_analysis TEXT,
			validation_verdict TEXT,
			next_steps TEXT,
			generated_at TEXT,
			FOREIGN KEY (post_id) REFERENCES raw_posts (id)
		)`,
		`CREATE TABLE IF NOT EXISTS opportunity_scores (
			post_id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			final_score REAL NOT NULL,
			pain_intensity REAL DEFAULT 0.0,
			engagement_norm REAL DEFAULT 0.0,
			validation_evidence REAL DEFAULT 0.0,
			sentiment_intensity REAL DEFAULT 0.0,
			recency REAL DEFAULT 0.0,
			trend_momentum REAL DEFAULT 0.5,
			market_signal REAL DEFAULT 0.0,
			cross_source_bonus REAL DEFAULT 0.0,
			dimensions TEXT,
			weights TEXT,
			computed_at TEXT,
			FOREIGN KEY (post_id) REFERENCES raw_posts (id)
		)`,
		`CREATE TABLE IF NOT EXISTS personas (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			role TEXT NOT NULL,
			company TEXT,
			industry TEXT,
			pain_points TEXT,
			personality TEXT,
			budget TEXT,
			preferred_communication TEXT,
			buying_triggers TEXT,
			decision_maker TEXT,
			persona_type TEXT DEFAULT 'startup_founder',
			analysis TEXT,
			opportunity_fit_score REAL DEFAULT 0.0,
			generated_at TEXT
		)`,
	}

	for _, ddl := range tables {
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}

	// Column backfills for databases created before the columns existed.
	migrations := []struct {
		table, column, typ string
	}{
		{"raw_posts", "metadata", "TEXT"},
		{"raw_posts", "channel", "TEXT"},
		{"raw_posts", "sentiment_label", "TEXT"},
		{"raw_posts", "sentiment_intensity", "REAL DEFAULT 0.0"},

		{"signals", "validation_score", "REAL"},
		{"signals", "engagement_score", "REAL"},
		{"signals", "recency_score", "REAL"},
		{"signals", "composite_value", "REAL"},
		{"signals", "analyzed_at", "TEXT"},
		{"signals", "sentiment_label", "TEXT"},
		{"signals", "sentiment_intensity", "REAL DEFAULT 0.0"},

		{"leads", "author", "TEXT"},
		{"leads", "content_snippet", "TEXT"},
		{"leads", "intent_score", "REAL"},
		{"leads", "contact_url", "TEXT"},
		{"leads", "status", "TEXT"},
		{"leads", "created_at", "TEXT"},
		{"leads", "source", "TEXT DEFAULT 'reddit'"},
		{"leads", "sentiment_label", "TEXT"},
		{"leads", "sentiment_intensity", "REAL DEFAULT 0.0"},
		{"leads", "verified_profiles", "TEXT"},

		{"validation_reports", "source", "TEXT DEFAULT 'reddit'"},
		{"validation_reports", "corroborating_sources", "TEXT"},
		{"validation_reports", "corroborating_post_ids", "TEXT"},
	}

	for _, m := range migrations {
		if err := s.addColumnIfMissing(ctx, m.table, m.column, m.typ); err != nil {
			return err
		}
	}
	return nil
}

// addColumnIfMissing inspects the table via PRAGMA table_info and issues an
// ALTER TABLE only when the column does not already exist.
func (s *Store) addColumnIfMissing(ctx context.Context, table, column, typ string) error {
	rows, err := s.db.QueryxContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return fmt.Errorf("inspect table %s: %w", table, err)
	}
	defer rows.Close()

	exists := false
	for rows.Next() {
		var (
			cid        int
			name, typ2 string
			notnull    int
			dflt       any
			pk         int
		)
		if err := rows.Scan(&cid, &name, &typ2, &notnull, &dflt, &pk); err != nil {
			return fmt.Errorf("scan table info for %s: %w", table, err)
		}
		if name == column {
			exists = true
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("read table info for %s: %w", table, err)
	}
	if exists {
		return nil
	}

	if _, err := s.db.ExecContext(ctx,
		fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, typ)); err != nil {
		return fmt.Errorf("add column %s.%s: %w", table, column, err)
	}
	log.Debug().Str("table", table).Str("column", column).Msg("Added missing column")
	return nil
}
