// Devprompts turns ready kanban tickets into dev-agent prompt documents.
// Each ticket gets exactly one document; existing documents are never
// touched.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/madhatter5501/devprompts/internal/config"
)

var (
	version   = "dev"
	gitCommit = "unknown"
	buildTime = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "devprompts",
		Short: "Generate dev-agent prompts from ready tickets",
		Long: `devprompts reads the ticket board, finds every ready ticket that has no
prompt yet, checks it is fit for a dev agent and writes a one-shot prompt
document for it. Existing prompts are never overwritten.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newGenerateCmd(),
		newImportCmd(),
		newStatusCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "devprompts %s (commit: %s, built: %s)\n", version, gitCommit, buildTime)
		},
	}
}

// options are the flags shared by every command that reads configuration.
type options struct {
	configPath string
	envFile    string
	tickets    string
	database   string
	outputDir  string
	logLevel   string
	dryRun     bool
}

// AddFlags registers the configuration flags.
func (o *options) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&o.configPath, "config", "", "config file (default "+config.DefaultPath+" if present)")
	flagSet.StringVar(&o.envFile, "env-file", "", "dotenv file (default "+config.DefaultEnvFile+" if present)")
	flagSet.StringVar(&o.tickets, "tickets", "", "ticket board file (.json or .yaml)")
	flagSet.StringVar(&o.database, "db", "", "SQLite ticket store")
	flagSet.StringVar(&o.outputDir, "out", "", "prompt output directory")
	flagSet.StringVar(&o.logLevel, "log-level", "", "log level: debug, info, warn, error")
}

// load resolves the configuration: file and environment first, then any
// flag the user set explicitly.
func (o *options) load(flagSet *pflag.FlagSet) (config.Config, error) {
	cfg, err := config.Load(o.configPath, o.envFile)
	if err != nil {
		return config.Config{}, err
	}

	if flagSet.Changed("tickets") {
		cfg.Tickets = o.tickets
	}
	if flagSet.Changed("db") {
		cfg.Database = o.database
	}
	if flagSet.Changed("out") {
		cfg.OutputDir = o.outputDir
	}
	if flagSet.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if flagSet.Changed("dry-run") {
		cfg.DryRun = o.dryRun
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(w io.Writer, cfg config.Config) *slog.Logger {
	level, _ := cfg.SlogLevel()
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}
