package main

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingExecer struct {
	statements []string
}

func (r *recordingExecer) Exec(query string, _ ...any) (sql.Result, error) {
	r.statements = append(r.statements, query)
	return nil, nil
}

func TestSplitSQL(t *testing.T) {
	script := `-- header
CREATE TABLE a (
  id uuid primary key
);
CREATE INDEX a_idx ON a (id);

`
	statements := splitSQL(script)
	require.Len(t, statements, 2)
	assert.Contains(t, statements[0], "CREATE TABLE a")
	assert.Contains(t, statements[1], "CREATE INDEX a_idx")
}

func TestApplyFileSkipsDownSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "001_init.sql")
	content := "CREATE TABLE a (id int);\n-- +migrate Down\nDROP TABLE a;\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	exec := &recordingExecer{}
	require.NoError(t, applyFile(exec, path))
	require.Len(t, exec.statements, 1)
	assert.NotContains(t, exec.statements[0], "DROP")
}
