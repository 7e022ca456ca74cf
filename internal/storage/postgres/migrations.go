package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Migration is one versioned schema change
type Migration struct {
	Version int
	Name    string
	UpSQL   string
}

// Migrations returns the embedded schema history in order
func Migrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_users", UpSQL: migration001Up},
		{Version: 2, Name: "create_matches", UpSQL: migration002Up},
		{Version: 3, Name: "create_questions", UpSQL: migration003Up},
	}
}

const migrationsTable = "schema_migrations"

// Migrate applies every pending migration, each in its own transaction
func Migrate(ctx context.Context, conn *Connection) error {
	_, err := conn.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS `+migrationsTable+` (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	rows, err := conn.pool.Query(ctx, "SELECT version FROM "+migrationsTable)
	if err != nil {
		return fmt.Errorf("failed to query applied migrations: %w", err)
	}
	applied, err := pgx.CollectRows(rows, pgx.RowTo[int])
	if err != nil {
		return fmt.Errorf("failed to scan applied migrations: %w", err)
	}
	done := make(map[int]bool, len(applied))
	for _, v := range applied {
		done[v] = true
	}

	for _, mig := range Migrations() {
		if done[mig.Version] {
			continue
		}
		err := conn.WithTx(ctx, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, mig.UpSQL); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, "INSERT INTO "+migrationsTable+" (version, name) VALUES ($1, $2)", mig.Version, mig.Name)
			return err
		})
		if err != nil {
			return fmt.Errorf("%w: version %d: %v", ErrMigrationFailed, mig.Version, err)
		}
	}
	return nil
}

const migration001Up = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    seq BIGSERIAL NOT NULL,
    handle TEXT NOT NULL UNIQUE,
    display_code INTEGER NOT NULL,
    quiz_answers JSONB NOT NULL DEFAULT '{}'::jsonb,
    verification_question TEXT NOT NULL DEFAULT '',
    verification_answer TEXT NOT NULL DEFAULT '',
    partner_id TEXT,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_users_unmatched ON users(seq) WHERE partner_id IS NULL;
`

const migration002Up = `
CREATE TABLE IF NOT EXISTS matches (
    id TEXT PRIMARY KEY,
    user_a TEXT NOT NULL,
    user_b TEXT NOT NULL,
    status TEXT NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_status CHECK (status IN ('pending', 'verified', 'expired'))
);

CREATE INDEX IF NOT EXISTS idx_matches_user_a ON matches(user_a);
CREATE INDEX IF NOT EXISTS idx_matches_user_b ON matches(user_b);
`

const migration003Up = `
CREATE TABLE IF NOT EXISTS questions (
    short_id TEXT PRIMARY KEY,
    text TEXT NOT NULL,
    options JSONB NOT NULL DEFAULT '[]'::jsonb,
    sort_order INTEGER NOT NULL DEFAULT 0
);
`
