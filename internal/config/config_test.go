package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madhatter5501/devprompts/kanban"
)

// clearEnv unsets every override for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvTickets, EnvOutputDir, EnvDatabase, EnvLogLevel, EnvDryRun} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "docs/data/tickets.json", cfg.Tickets)
	assert.Equal(t, "docs/prompts/active", cfg.OutputDir)
	assert.Equal(t, "dev-agent", cfg.Naming.Prefix)
	assert.Equal(t, 1, cfg.Naming.Version)
	assert.Equal(t, "md", cfg.Naming.Extension)
	assert.Equal(t, "ready", cfg.ReadyStatus)
	assert.Equal(t, []string{"sanitization", "password", "cache", "ttl", "webhook", "stripe", "auth", "billing"}, cfg.Vocabulary)
}

func TestLoadWithoutFiles(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	cfg, err := Load("", filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadExplicitMissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), "")
	assert.Error(t, err)
}

func TestLoadYAML(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "devprompts.yaml", `
tickets: board.yaml
output_dir: out/prompts
naming:
  prefix: qa-agent
  version: 2
ready_status: approved
vocabulary: [gdpr, pii]
template:
  sop_path: handbook/SOP.md
  baseline_checks: ["go vet ./...", "go test ./..."]
log_level: debug
dry_run: true
`)

	cfg, err := Load(path, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "board.yaml", cfg.Tickets)
	assert.Equal(t, "out/prompts", cfg.OutputDir)
	assert.Equal(t, "qa-agent", cfg.Naming.Prefix)
	assert.Equal(t, 2, cfg.Naming.Version)
	assert.Equal(t, "md", cfg.Naming.Extension, "unset keys keep their defaults")
	assert.Equal(t, []string{"gdpr", "pii"}, cfg.Vocabulary)
	assert.Equal(t, "handbook/SOP.md", cfg.Template.SOPPath)
	assert.Equal(t, "agent/", cfg.Template.BranchPrefix)
	assert.True(t, cfg.DryRun)

	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	gen := cfg.Generator()
	assert.Equal(t, kanban.Status("approved"), gen.ReadyStatus)
	assert.Equal(t, []string{"go vet ./...", "go test ./..."}, gen.Template.BaselineChecks)
	assert.True(t, gen.DryRun)
}

func TestLoadMalformedYAML(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "devprompts.yaml", "naming: [unclosed")

	_, err := Load(path, filepath.Join(dir, "missing.env"))
	assert.Error(t, err)
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "devprompts.yaml", "output_dir: from-file\nlog_level: warn\n")

	t.Setenv(EnvOutputDir, "from-env")
	t.Setenv(EnvDatabase, "state/devprompts.db")
	t.Setenv(EnvDryRun, "true")

	cfg, err := Load(path, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.OutputDir)
	assert.Equal(t, "state/devprompts.db", cfg.Database)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.True(t, cfg.DryRun)
}

func TestDotEnvFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	envFile := writeFile(t, dir, ".env", "DEVPROMPTS_TICKETS=from-dotenv.json\nDEVPROMPTS_LOG_LEVEL=error\n")

	// A variable already in the environment beats the .env file.
	t.Setenv(EnvLogLevel, "debug")

	cfg, err := Load("", envFile)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv.json", cfg.Tickets)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestInvalidDryRunEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvDryRun, "sometimes")

	_, err := Load("", filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"no source", func(c *Config) { c.Tickets = ""; c.Database = "" }},
		{"no output dir", func(c *Config) { c.OutputDir = "" }},
		{"no prefix", func(c *Config) { c.Naming.Prefix = "" }},
		{"zero version", func(c *Config) { c.Naming.Version = 0 }},
		{"separator in prefix", func(c *Config) { c.Naming.Prefix = "a/b" }},
		{"no ready status", func(c *Config) { c.ReadyStatus = "" }},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	t.Run("database only", func(t *testing.T) {
		cfg := Default()
		cfg.Tickets = ""
		cfg.Database = "devprompts.db"
		assert.NoError(t, cfg.Validate())
	})
}
