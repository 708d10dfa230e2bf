package store

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatementsSplitsSchema(t *testing.T) {
	stmts := statements(schema)
	require.NotEmpty(t, stmts)
	for _, stmt := range stmts {
		assert.False(t, strings.HasSuffix(stmt, ";"))
		assert.NotContains(t, stmt, "--")
		assert.True(t, strings.HasPrefix(stmt, "CREATE ") || strings.HasPrefix(stmt, "ALTER TABLE "), stmt)
	}
	assert.Contains(t, stmts, "ALTER TABLE users ADD COLUMN IF NOT EXISTS profile_pic TEXT NOT NULL DEFAULT ''")
}

func TestStatementsSkipsCommentsAndBlanks(t *testing.T) {
	stmts := statements("-- header\nCREATE TABLE a (id TEXT);\n\n  ;\nCREATE INDEX b ON a (id);\n")
	assert.Equal(t, []string{"CREATE TABLE a (id TEXT)", "CREATE INDEX b ON a (id)"}, stmts)
}

func TestNilHandlesAreUnhealthy(t *testing.T) {
	var d *DB
	assert.False(t, d.Healthy(context.Background()))
	assert.NoError(t, d.Close())

	var r *Redis
	assert.False(t, r.Healthy(context.Background()))
}
