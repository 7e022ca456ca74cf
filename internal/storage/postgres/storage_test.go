package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/comate/comate/internal/storage"
	"github.com/comate/comate/internal/storage/storagetest"
)

// Set COMATE_TEST_DATABASE_URL to a disposable database to run these tests
const testDatabaseEnv = "COMATE_TEST_DATABASE_URL"

func newTestStorage(t *testing.T) *Storage {
	url := os.Getenv(testDatabaseEnv)
	if url == "" {
		t.Skipf("%s not set", testDatabaseEnv)
	}

	cfg := DefaultConfig()
	cfg.URL = url

	ctx := context.Background()
	s, err := New(ctx, cfg)
	require.NoError(t, err)

	_, err = s.conn.pool.Exec(ctx, "TRUNCATE users, matches, questions RESTART IDENTITY")
	require.NoError(t, err)
	return s
}

func TestStorageConformance(t *testing.T) {
	if os.Getenv(testDatabaseEnv) == "" {
		t.Skipf("%s not set", testDatabaseEnv)
	}
	suite.Run(t, &storagetest.Suite{
		NewStorage: func(t *testing.T) storage.Storage { return newTestStorage(t) },
	})
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := newTestStorage(t)
	defer s.Close()

	require.NoError(t, Migrate(context.Background(), s.conn))

	var n int
	err := s.conn.pool.QueryRow(context.Background(), "SELECT count(*) FROM "+migrationsTable).Scan(&n)
	require.NoError(t, err)
	require.Equal(t, len(Migrations()), n)
}

func TestLenientQuizAnswersColumn(t *testing.T) {
	s := newTestStorage(t)
	defer s.Close()
	ctx := context.Background()

	_, err := s.conn.pool.Exec(ctx,
		`INSERT INTO users (id, handle, display_code, quiz_answers) VALUES ('legacy', 'old', 1234, '[]'::jsonb)`)
	require.NoError(t, err)

	user, err := s.GetUser(ctx, "legacy")
	require.NoError(t, err)
	require.NotNil(t, user.QuizAnswers)
	require.Empty(t, user.QuizAnswers)
}
