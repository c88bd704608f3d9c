package main

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/madhatter5501/devprompts/internal/config"
	"github.com/madhatter5501/devprompts/internal/db"
	"github.com/madhatter5501/devprompts/kanban"
	"github.com/madhatter5501/devprompts/output"
)

const recentRunLimit = 5

func newStatusCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show ticket counts, existing prompts and recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd.Flags())
			if err != nil {
				return err
			}
			return runStatus(cmd.OutOrStdout(), cfg)
		},
	}

	opts.AddFlags(cmd.Flags())
	return cmd
}

func runStatus(out io.Writer, cfg config.Config) error {
	var (
		tickets []kanban.Ticket
		stats   map[kanban.Status]int
		store   *db.Store
		source  = cfg.Tickets
	)
	if cfg.Database != "" {
		database, err := db.Open(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer database.Close()
		source = database.Path()
		store = db.NewStore(database)
		if tickets, err = store.LoadTickets(); err != nil {
			return err
		}
		stats = store.GetStats()
	} else {
		var err error
		if tickets, err = kanban.NewFileSource(cfg.Tickets).LoadTickets(); err != nil {
			return err
		}
		stats = kanban.StatusCounts(tickets)
	}

	existing, err := output.Scan(cfg.OutputDir, cfg.Naming)
	if err != nil {
		return err
	}

	missing := 0
	for _, t := range tickets {
		if t.Status == kanban.Status(cfg.ReadyStatus) && !existing.Has(t.ID) {
			missing++
		}
	}

	fmt.Fprintln(out, "=== Devprompts Status ===")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Tickets (%s):\n", source)
	for _, s := range kanban.Statuses {
		fmt.Fprintf(out, "  %-13s %d\n", string(s)+":", stats[s])
		delete(stats, s)
	}
	unknown := make([]string, 0, len(stats))
	for s := range stats {
		unknown = append(unknown, string(s))
	}
	sort.Strings(unknown)
	for _, s := range unknown {
		fmt.Fprintf(out, "  %-13s %d  (unknown status)\n", s+":", stats[kanban.Status(s)])
	}
	fmt.Fprintln(out)

	fmt.Fprintf(out, "Prompts in %s:\n", cfg.OutputDir)
	fmt.Fprintf(out, "  Existing:      %d\n", existing.Len())
	fmt.Fprintf(out, "  Missing:       %d  (ready without a prompt)\n", missing)

	if store == nil {
		return nil
	}

	runs, err := store.RecentRuns(recentRunLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		return nil
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Recent Runs:")
	for _, r := range runs {
		mode := ""
		if r.DryRun {
			mode = " [dry run]"
		}
		fmt.Fprintf(out, "  %s %s created=%d skipped=%d failed=%d%s\n",
			r.StartedAt.Local().Format(time.RFC3339), r.ID, r.Created, r.Skipped, r.Failed, mode)
	}
	return nil
}
