// Package devprompts turns ready kanban tickets into one-shot dev-agent
// prompt documents.
package devprompts

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/madhatter5501/devprompts/guard"
	"github.com/madhatter5501/devprompts/kanban"
	"github.com/madhatter5501/devprompts/output"
	"github.com/madhatter5501/devprompts/prompt"
)

// Generator runs the load, index, guard, render and persist pipeline.
type Generator struct {
	// Configuration
	config Config

	// Components
	source   kanban.TicketSource
	rules    guard.Rules
	writer   *output.Writer
	recorder RunRecorder

	// Runtime
	logger  *slog.Logger
	console io.Writer
	now     func() time.Time
}

// Config holds generator configuration.
type Config struct {
	// Paths
	OutputDir string `json:"outputDir"`

	// Naming
	Naming output.Naming `json:"naming"`

	// Selection
	ReadyStatus kanban.Status `json:"readyStatus"`
	Vocabulary  []string      `json:"vocabulary"` // empty means guard.DefaultVocabulary

	// Rendering
	Template prompt.Template `json:"template"`

	// Behavior
	DryRun bool `json:"dryRun"` // Render and check, but don't write
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		OutputDir:   "docs/prompts/active",
		Naming:      output.DefaultNaming(),
		ReadyStatus: kanban.StatusReady,
		Vocabulary:  guard.DefaultVocabulary,
		Template:    prompt.DefaultTemplate(),
	}
}

// RunRecorder persists a finished run. db.Store implements it.
type RunRecorder interface {
	RecordRun(s Summary) error
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

// WithConsole sets where the human-readable report goes. Defaults to stdout.
func WithConsole(w io.Writer) Option {
	return func(g *Generator) { g.console = w }
}

// WithRecorder stores every finished run.
func WithRecorder(r RunRecorder) Option {
	return func(g *Generator) { g.recorder = r }
}

// WithRules replaces the default guard rules.
func WithRules(rules guard.Rules) Option {
	return func(g *Generator) { g.rules = rules }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// NewGenerator creates a generator reading tickets from source.
func NewGenerator(config Config, source kanban.TicketSource, opts ...Option) *Generator {
	defaults := DefaultConfig()
	if config.ReadyStatus == "" {
		config.ReadyStatus = defaults.ReadyStatus
	}
	if config.Naming == (output.Naming{}) {
		config.Naming = defaults.Naming
	}
	if len(config.Vocabulary) == 0 {
		config.Vocabulary = defaults.Vocabulary
	}
	config.Template = config.Template.Merge(defaults.Template)

	g := &Generator{
		config:  config,
		source:  source,
		rules:   guard.Default(config.Vocabulary),
		writer:  output.NewWriter(config.OutputDir, config.Naming),
		console: os.Stdout,
		logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Skip records a ready ticket that a guard rule excluded.
type Skip struct {
	TicketID string `json:"ticketId"`
	guard.Violation
}

// Failure records a ticket that passed the guards but could not be
// rendered or written.
type Failure struct {
	TicketID string `json:"ticketId"`
	Err      error  `json:"-"`
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.TicketID, f.Err)
}

// Document is a prompt created (or, in dry-run, that would be created).
type Document struct {
	TicketID string `json:"ticketId"`
	Path     string `json:"path"`
	Digest   string `json:"digest"` // blake3 of the content
}

// Summary reports what a run did.
type Summary struct {
	RunID      string    `json:"runId"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	DryRun     bool      `json:"dryRun"`

	Tickets  int `json:"tickets"`  // loaded from the source
	Ready    int `json:"ready"`    // with the ready status
	Existing int `json:"existing"` // documents already in the output directory
	Missing  int `json:"missing"`  // ready without a document

	Created int `json:"created"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`

	SkippedByRule map[string]int `json:"skippedByRule"`
	Documents     []Document     `json:"documents"`
	Skips         []Skip         `json:"skips"`
	Failures      []Failure      `json:"failures"`
}

// Err returns a joined error of every per-ticket failure, or nil.
func (s Summary) Err() error {
	errs := make([]error, len(s.Failures))
	for i, f := range s.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// Run generates a document for every ready ticket that doesn't have one.
// The returned error is non-nil only when the run could not start: the
// template breaks the prompt structure, tickets failed to load or the
// output directory could not be scanned. Per-ticket
// problems are reported in the summary.
func (g *Generator) Run() (Summary, error) {
	summary := Summary{
		RunID:         uuid.New().String(),
		StartedAt:     g.now(),
		DryRun:        g.config.DryRun,
		SkippedByRule: make(map[string]int),
	}
	logger := g.logger.With("run_id", summary.RunID)
	logger.Info("Starting prompt generation", "output", g.config.OutputDir, "dry_run", g.config.DryRun)

	sample := prompt.Target{FileName: g.config.Naming.FileName("SAMPLE"), Version: g.config.Naming.Version}
	if err := prompt.CheckTemplate(g.config.Template, sample); err != nil {
		return summary, fmt.Errorf("invalid prompt template: %w", err)
	}

	tickets, err := g.source.LoadTickets()
	if err != nil {
		return summary, fmt.Errorf("failed to load tickets: %w", err)
	}

	existing, err := output.Scan(g.config.OutputDir, g.config.Naming)
	if err != nil {
		return summary, err
	}

	var missing []kanban.Ticket
	for _, t := range tickets {
		if t.Status != g.config.ReadyStatus {
			continue
		}
		summary.Ready++
		if !existing.Has(t.ID) {
			missing = append(missing, t)
		}
	}
	summary.Tickets = len(tickets)
	summary.Existing = existing.Len()
	summary.Missing = len(missing)

	logger.Info("Board status",
		"tickets", summary.Tickets,
		"ready", summary.Ready,
		"existing", summary.Existing,
		"missing", summary.Missing)

	fmt.Fprintf(g.console, "Ready tickets: %d\n", summary.Ready)
	fmt.Fprintf(g.console, "Existing prompts: %d\n", summary.Existing)
	fmt.Fprintf(g.console, "Missing prompts: %d\n\n", summary.Missing)

	for _, t := range missing {
		g.process(logger, t, &summary)
	}

	summary.FinishedAt = g.now()
	g.report(summary)

	logger.Info("Prompt generation complete",
		"created", summary.Created,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"duration", summary.FinishedAt.Sub(summary.StartedAt))

	if g.recorder != nil {
		if err := g.recorder.RecordRun(summary); err != nil {
			logger.Warn("Failed to record run", "error", err)
		}
	}
	return summary, nil
}

// process handles a single missing ticket.
func (g *Generator) process(logger *slog.Logger, t kanban.Ticket, summary *Summary) {
	if v := g.rules.Evaluate(t); v != nil {
		summary.Skipped++
		summary.SkippedByRule[v.Rule]++
		summary.Skips = append(summary.Skips, Skip{TicketID: t.ID, Violation: *v})
		logger.Warn("Ticket skipped", "ticket", t.ID, "rule", v.Rule, "reason", v.Reason, "term", v.Term)
		fmt.Fprintf(g.console, "⚠️  Skipped %s: %s\n", t.ID, v)
		return
	}

	target := prompt.Target{
		FileName: g.config.Naming.FileName(t.ID),
		Version:  g.config.Naming.Version,
	}
	content := prompt.Render(t, g.config.Template, target)

	path := g.writer.Path(t.ID)
	if g.config.DryRun {
		logger.Info("[DRY RUN] Would create prompt", "ticket", t.ID, "path", path)
	} else {
		var err error
		if path, err = g.writer.Create(t.ID, content); err != nil {
			g.fail(logger, t.ID, err, summary)
			return
		}
		logger.Info("Prompt created", "ticket", t.ID, "path", path)
	}

	summary.Created++
	summary.Documents = append(summary.Documents, Document{TicketID: t.ID, Path: path, Digest: output.Digest(content)})
	fmt.Fprintf(g.console, "✅ Created: %s\n", path)
}

func (g *Generator) fail(logger *slog.Logger, ticketID string, err error, summary *Summary) {
	summary.Failed++
	summary.Failures = append(summary.Failures, Failure{TicketID: ticketID, Err: err})
	logger.Error("Failed to generate prompt", "ticket", ticketID, "error", err)
	fmt.Fprintf(g.console, "❌ Failed %s: %v\n", ticketID, err)
}

func (g *Generator) report(s Summary) {
	fmt.Fprintln(g.console)
	if s.Skipped > 0 {
		fmt.Fprintf(g.console, "⚠️  Skipped %d tickets due to validation issues - review manually\n", s.Skipped)
		rules := make([]string, 0, len(s.SkippedByRule))
		for rule := range s.SkippedByRule {
			rules = append(rules, rule)
		}
		sort.Strings(rules)
		for _, rule := range rules {
			fmt.Fprintf(g.console, "    Skipped (%s): %d\n", rule, s.SkippedByRule[rule])
		}
	}
	if s.Failed > 0 {
		fmt.Fprintf(g.console, "❌ Failed to write %d prompts\n", s.Failed)
	}
	if s.DryRun {
		fmt.Fprintf(g.console, "[DRY RUN] Would create %d prompt files.\n", s.Created)
		return
	}
	fmt.Fprintf(g.console, "Done! Created %d prompt files.\n", s.Created)
}
