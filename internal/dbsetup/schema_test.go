package dbsetup_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myyrakle/batchman/internal/dbsetup"
)

func TestOpen_AppliesSchema(t *testing.T) {
	db, err := dbsetup.Open("sqlite://:memory:")
	require.NoError(t, err)
	defer db.Close()

	for _, table := range []string{"task_definition", "job", "schedule"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestOpen_RejectsUnsupportedScheme(t *testing.T) {
	_, err := dbsetup.Open("postgres://localhost/db")
	require.Error(t, err)
}

func TestMigrate_IsIdempotent(t *testing.T) {
	db, err := dbsetup.Open("sqlite://:memory:")
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, dbsetup.Migrate(db))
	require.NoError(t, dbsetup.Migrate(db))
}
