package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/madhatter5501/devprompts"
	"github.com/madhatter5501/devprompts/internal/config"
	"github.com/madhatter5501/devprompts/internal/db"
	"github.com/madhatter5501/devprompts/kanban"
)

func newGenerateCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write prompts for ready tickets that don't have one",
		Long: `Generate a dev-agent prompt for every ready ticket without an existing
prompt document. Tickets with no files_to_modify, or whose fix_required
mentions a sensitive term the title and issue never mention, are skipped
for review.

Examples:
  # Use docs/data/tickets.json and docs/prompts/active
  devprompts generate

  # Read tickets from the SQLite store and record the run there
  devprompts generate --db docs/data/devprompts.db

  # Show what would be written
  devprompts generate --dry-run
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd.Flags())
			if err != nil {
				return err
			}
			// An explicit ticket file beats a database from the config.
			if cmd.Flags().Changed("tickets") {
				cfg.Database = ""
			}
			return runGenerate(cmd, cfg)
		},
	}

	opts.AddFlags(cmd.Flags())
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "render and check prompts without writing them")
	cmd.MarkFlagsMutuallyExclusive("tickets", "db")
	return cmd
}

func runGenerate(cmd *cobra.Command, cfg config.Config) error {
	logger := newLogger(cmd.ErrOrStderr(), cfg)
	genOpts := []devprompts.Option{
		devprompts.WithLogger(logger),
		devprompts.WithConsole(cmd.OutOrStdout()),
	}

	var source kanban.TicketSource
	if cfg.Database != "" {
		database, err := db.Open(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer database.Close()

		store := db.NewStore(database)
		source = store
		genOpts = append(genOpts, devprompts.WithRecorder(store))
	} else {
		source = kanban.NewFileSource(cfg.Tickets)
	}

	gen := devprompts.NewGenerator(cfg.Generator(), source, genOpts...)
	summary, err := gen.Run()
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d prompts could not be written: %w", summary.Failed, summary.Missing, summary.Err())
	}
	return nil
}
