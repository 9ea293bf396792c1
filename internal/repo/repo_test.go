package repo_test

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/myyrakle/batchman/internal/dbsetup"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := dbsetup.Open("sqlite://:memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func ptr[T any](v T) *T { return &v }

func dptr[T any](v T) **T {
	p := &v
	return &p
}
