package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitSQL(t *testing.T) {
	script := `-- users
CREATE TABLE a (
  id INTEGER
);

CREATE INDEX idx_a ON a (id);
`
	stmts := splitSQL(script)
	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE TABLE a (\n  id INTEGER\n);", stmts[0])
	assert.Equal(t, "CREATE INDEX idx_a ON a (id);", stmts[1])
}

func TestEmbeddedSchemas(t *testing.T) {
	for _, driver := range []string{"sqlite", "postgres"} {
		t.Run(driver, func(t *testing.T) {
			bytes, err := migrationFS.ReadFile("migration/" + driver + "/" + LatestSchemaFileName)
			require.NoError(t, err)
			stmts := splitSQL(string(bytes))
			assert.Len(t, stmts, 7)
			for _, table := range []string{"app_user", "conversation", "message", "document"} {
				assert.Contains(t, string(bytes), "CREATE TABLE IF NOT EXISTS "+table)
			}
		})
	}
}
