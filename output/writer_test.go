package output

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterCreate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "docs", "prompts")
	w := NewWriter(dir, DefaultNaming())

	path, err := w.Create("T-1", "# hello\n")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "dev-agent-T-1-v1.md"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# hello\n", string(data))

	idx, err := Scan(dir, DefaultNaming())
	require.NoError(t, err)
	assert.True(t, idx.Has("T-1"))
}

func TestWriterNeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, DefaultNaming())

	_, err := w.Create("T-1", "first")
	require.NoError(t, err)

	_, err = w.Create("T-1", "second")
	require.ErrorIs(t, err, ErrExists)

	data, err := os.ReadFile(w.Path("T-1"))
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
}

func TestWriterDirectoryIsAFile(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "out")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	_, err := NewWriter(blocker, DefaultNaming()).Create("T-1", "x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrExists)
}

func TestWriterRefusesPathsOutsideDir(t *testing.T) {
	parent := t.TempDir()
	dir := filepath.Join(parent, "prompts")
	w := NewWriter(dir, DefaultNaming())

	for _, id := range []string{"x/../../escaped", "nested/T-1", `a\b`} {
		_, err := w.Create(id, "x")
		require.ErrorIs(t, err, ErrOutsideDir, id)
	}

	assert.NoFileExists(t, filepath.Join(parent, "escaped-v1.md"))
	assert.NoDirExists(t, dir)
}
