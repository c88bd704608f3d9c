package output

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamingFileName(t *testing.T) {
	assert.Equal(t, "dev-agent-T-1-v1.md", DefaultNaming().FileName("T-1"))

	n := Naming{Prefix: "qa", Version: 3, Extension: "txt"}
	assert.Equal(t, "qa-TKT-9-v3.txt", n.FileName("TKT-9"))
}

func TestNamingParseFileName(t *testing.T) {
	n := DefaultNaming()

	tests := []struct {
		name    string
		id      string
		version int
		ok      bool
	}{
		{"dev-agent-T-1-v1.md", "T-1", 1, true},
		{"dev-agent-T-1-v3.md", "T-1", 3, true},
		{"dev-agent-TKT-v2-v10.md", "TKT-v2", 10, true},
		{"dev-agent-T-1.md", "", 0, false},
		{"dev-agent-T-1-v.md", "", 0, false},
		{"dev-agent-T-1-vx.md", "", 0, false},
		{"dev-agent-T-1-v-1.md", "", 0, false},
		{"dev-agent--v1.md", "", 0, false},
		{"dev-agent-T-1-v1.txt", "", 0, false},
		{"qa-agent-T-1-v1.md", "", 0, false},
		{"README.md", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, version, ok := n.ParseFileName(tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.id, id)
			assert.Equal(t, tt.version, version)
		})
	}
}

func TestNamingRoundTrip(t *testing.T) {
	n := Naming{Prefix: "dev-agent", Version: 7, Extension: "md"}
	id, version, ok := n.ParseFileName(n.FileName("FEAT-12"))
	require.True(t, ok)
	assert.Equal(t, "FEAT-12", id)
	assert.Equal(t, 7, version)
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"dev-agent-T-1-v1.md",
		"dev-agent-T-2-v4.md",
		"notes.md",
		"dev-agent-T-3-v1.md.bak",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "dev-agent-T-9-v1.md"), 0o755))

	idx, err := Scan(dir, DefaultNaming())
	require.NoError(t, err)

	assert.Equal(t, []string{"T-1", "T-2"}, idx.IDs())
	assert.Equal(t, 2, idx.Len())
	assert.True(t, idx.Has("T-2"), "any version marks the ticket as generated")
	assert.False(t, idx.Has("T-3"))
	assert.False(t, idx.Has("T-9"), "directories are skipped")
}

func TestScanMissingDirectory(t *testing.T) {
	idx, err := Scan(filepath.Join(t.TempDir(), "absent"), DefaultNaming())
	require.NoError(t, err)
	assert.Equal(t, 0, idx.Len())
}

func TestScanNotADirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	_, err := Scan(file, DefaultNaming())
	assert.Error(t, err)
}
