// Package config loads devprompts settings from a YAML file, a .env file
// and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/madhatter5501/devprompts"
	"github.com/madhatter5501/devprompts/kanban"
	"github.com/madhatter5501/devprompts/output"
	"github.com/madhatter5501/devprompts/prompt"
)

// Default file locations, relative to the working directory.
const (
	DefaultPath    = "devprompts.yaml"
	DefaultEnvFile = ".env"
)

// Environment variables that override the file.
const (
	EnvTickets   = "DEVPROMPTS_TICKETS"
	EnvOutputDir = "DEVPROMPTS_OUTPUT_DIR"
	EnvDatabase  = "DEVPROMPTS_DB"
	EnvLogLevel  = "DEVPROMPTS_LOG_LEVEL"
	EnvDryRun    = "DEVPROMPTS_DRY_RUN"
)

// Config is the full tool configuration.
type Config struct {
	// Sources
	Tickets  string `yaml:"tickets"`  // JSON or YAML board file
	Database string `yaml:"database"` // SQLite store; used instead of Tickets when set

	// Output
	OutputDir string        `yaml:"output_dir"`
	Naming    output.Naming `yaml:"naming"`

	// Selection
	ReadyStatus string   `yaml:"ready_status"`
	Vocabulary  []string `yaml:"vocabulary"`

	// Rendering
	Template prompt.Template `yaml:"template"`

	// Behavior
	LogLevel string `yaml:"log_level"` // debug, info, warn, error
	DryRun   bool   `yaml:"dry_run"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Tickets:     "docs/data/tickets.json",
		OutputDir:   "docs/prompts/active",
		Naming:      output.DefaultNaming(),
		ReadyStatus: string(kanban.StatusReady),
		Vocabulary:  append([]string{}, devprompts.DefaultConfig().Vocabulary...),
		Template:    prompt.DefaultTemplate(),
		LogLevel:    "info",
	}
}

// Load builds the configuration from defaults, the YAML file at path, the
// .env file at envFile and then the process environment, each layer
// overriding the one before. Missing default files are ignored; an
// explicitly named file that is missing is an error.
func Load(path, envFile string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	if err := cfg.loadFile(path); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	}

	if envFile == "" {
		envFile = DefaultEnvFile
	}
	// godotenv never overrides variables already set in the environment.
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvTickets); v != "" {
		c.Tickets = v
	}
	if v := os.Getenv(EnvOutputDir); v != "" {
		c.OutputDir = v
	}
	if v := os.Getenv(EnvDatabase); v != "" {
		c.Database = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvDryRun); v != "" {
		dry, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvDryRun, err)
		}
		c.DryRun = dry
	}
	return nil
}

// Validate checks the configuration is usable.
func (c Config) Validate() error {
	if c.Tickets == "" && c.Database == "" {
		return fmt.Errorf("either tickets or database is required")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir is required")
	}
	if c.Naming.Prefix == "" || c.Naming.Extension == "" {
		return fmt.Errorf("naming prefix and extension are required")
	}
	if c.Naming.Version < 1 {
		return fmt.Errorf("naming version must be at least 1, got %d", c.Naming.Version)
	}
	if strings.ContainsAny(c.Naming.Prefix+c.Naming.Extension, `/\`) {
		return fmt.Errorf("naming prefix and extension must not contain path separators")
	}
	if c.ReadyStatus == "" {
		return fmt.Errorf("ready_status is required")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel parses LogLevel.
func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	return level, nil
}

// Generator returns the generator settings.
func (c Config) Generator() devprompts.Config {
	return devprompts.Config{
		OutputDir:   c.OutputDir,
		Naming:      c.Naming,
		ReadyStatus: kanban.Status(c.ReadyStatus),
		Vocabulary:  c.Vocabulary,
		Template:    c.Template.Merge(prompt.DefaultTemplate()),
		DryRun:      c.DryRun,
	}
}
