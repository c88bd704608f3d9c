package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/madhatter5501/devprompts/internal/db"
	"github.com/madhatter5501/devprompts/kanban"
)

func newImportCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Copy tickets from a board file into the SQLite store",
		Long: `Import reads a JSON or YAML ticket board and inserts every ticket whose
id is not in the store yet. Tickets already in the store are left as they
are, so the command can be re-run safely.

Examples:
  devprompts import --tickets docs/data/tickets.json --db docs/data/devprompts.db
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd.Flags())
			if err != nil {
				return err
			}
			if cfg.Database == "" {
				return fmt.Errorf("import needs a database: pass --db or set database in the config")
			}
			if cfg.Tickets == "" {
				return fmt.Errorf("import needs a ticket file: pass --tickets")
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "📋 Importing tickets...")

			tickets, err := kanban.NewFileSource(cfg.Tickets).LoadTickets()
			if err != nil {
				return err
			}

			database, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer database.Close()

			result, err := db.NewStore(database).ImportTickets(tickets)
			if err != nil {
				return err
			}

			newLogger(cmd.ErrOrStderr(), cfg).Info("Tickets imported",
				"source", cfg.Tickets,
				"database", cfg.Database,
				"imported", len(result.Imported),
				"skipped", len(result.Skipped))
			fmt.Fprintf(out, "  ✓ Imported %d tickets (%d skipped)\n", len(result.Imported), len(result.Skipped))
			return nil
		},
	}

	opts.AddFlags(cmd.Flags())
	return cmd
}
