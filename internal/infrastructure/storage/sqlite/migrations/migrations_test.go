package migrations_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"better-todo/internal/infrastructure/logger"
	"better-todo/internal/infrastructure/storage/sqlite/migrations"
)

func tables(t *testing.T, db *sql.DB) []string {
	t.Helper()
	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' AND name != 'schema_migrations' ORDER BY name`)
	require.NoError(t, err)
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	return names
}

func TestNewMigrator(t *testing.T) {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "m.db"))
	require.NoError(t, err)
	defer db.Close()

	tests := map[string]struct {
		db     *sql.DB
		logger bool
		expErr string
	}{
		"Missing db.":     {logger: true, expErr: "db is required"},
		"Missing logger.": {db: db, expErr: "logger is required"},
		"Valid.":          {db: db, logger: true},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			var m *migrations.Migrator
			var err error
			if test.logger {
				m, err = migrations.NewMigrator(test.db, logger.NewNop())
			} else {
				m, err = migrations.NewMigrator(test.db, nil)
			}
			if test.expErr != "" {
				assert.EqualError(t, err, test.expErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, m)
		})
	}
}

func TestUpDownUp(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "m.db"))
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(1)

	m, err := migrations.NewMigrator(db, logger.NewNop())
	require.NoError(t, err)

	schema := []string{"agent_task_log_entries", "agent_task_messages", "agent_tasks", "api_keys", "notes", "todos"}

	require.NoError(t, m.Up(ctx))
	assert.Equal(t, schema, tables(t, db))
	require.NoError(t, m.Up(ctx), "a second up is a no-op")

	require.NoError(t, m.Down(ctx))
	assert.Empty(t, tables(t, db))
	require.NoError(t, m.Down(ctx), "a second down is a no-op")

	require.NoError(t, m.Up(ctx))
	assert.Equal(t, schema, tables(t, db))
}
