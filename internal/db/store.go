package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/madhatter5501/devprompts"
	"github.com/madhatter5501/devprompts/kanban"
)

// Store implements ticket loading and the run ledger on SQLite.
type Store struct {
	db *DB
}

// NewStore creates a new SQLite-backed store.
func NewStore(db *DB) *Store {
	return &Store{db: db}
}

// --- Ticket Operations ---

const ticketColumns = `
	id, title, priority, difficulty, feature, source, status, issue,
	files_to_modify, files_to_read, feature_docs, similar_code,
	fix_required, acceptance_criteria, out_of_scope, risks, dev_checks,
	qa_notes`

// CreateTicket inserts a ticket.
func (s *Store) CreateTicket(t kanban.Ticket) error {
	return createTicket(s.db, t)
}

// LoadTickets returns every ticket in insertion order. It makes Store a
// kanban.TicketSource.
func (s *Store) LoadTickets() ([]kanban.Ticket, error) {
	rows, err := s.db.Query(`SELECT ` + ticketColumns + ` FROM tickets ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tickets: %w", err)
	}
	defer rows.Close()

	var tickets []kanban.Ticket
	for rows.Next() {
		t, err := scanTicketRows(rows)
		if err != nil {
			return nil, &kanban.ParseError{Source: s.db.path, Err: err}
		}
		tickets = append(tickets, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read tickets: %w", err)
	}

	return tickets, nil
}

// ImportResult reports which tickets an import inserted.
type ImportResult struct {
	Imported []string
	Skipped  []string // already present
}

// ImportTickets inserts tickets whose id is not in the store yet. Existing
// tickets are left untouched. The import is a single transaction.
func (s *Store) ImportTickets(tickets []kanban.Ticket) (ImportResult, error) {
	var result ImportResult

	tx, err := s.db.Begin()
	if err != nil {
		return result, fmt.Errorf("failed to begin import: %w", err)
	}
	defer tx.Rollback()

	for _, t := range tickets {
		var exists int
		err := tx.QueryRow(`SELECT COUNT(*) FROM tickets WHERE id = ?`, t.ID).Scan(&exists)
		if err != nil {
			return ImportResult{}, fmt.Errorf("failed to check ticket %s: %w", t.ID, err)
		}
		if exists > 0 {
			result.Skipped = append(result.Skipped, t.ID)
			continue
		}
		if err := createTicket(tx, t); err != nil {
			return ImportResult{}, err
		}
		result.Imported = append(result.Imported, t.ID)
	}

	if err := tx.Commit(); err != nil {
		return ImportResult{}, fmt.Errorf("failed to commit import: %w", err)
	}
	return result, nil
}

// GetStats returns ticket counts by status.
func (s *Store) GetStats() map[kanban.Status]int {
	rows, err := s.db.Query(`
		SELECT status, COUNT(*) FROM tickets GROUP BY status
	`)
	if err != nil {
		return make(map[kanban.Status]int)
	}
	defer rows.Close()

	stats := make(map[kanban.Status]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			continue
		}
		stats[kanban.Status(status)] = count
	}

	return stats
}

// --- Run Ledger ---

// Prompt outcomes stored per ticket.
const (
	OutcomeCreated = "created"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// RunRecord is a stored generation run.
type RunRecord struct {
	ID            string
	StartedAt     time.Time
	FinishedAt    time.Time
	DryRun        bool
	Tickets       int
	Ready         int
	Existing      int
	Missing       int
	Created       int
	Skipped       int
	Failed        int
	SkippedByRule map[string]int
}

// PromptRecord is one ticket outcome within a run.
type PromptRecord struct {
	RunID    string
	TicketID string
	Outcome  string
	Path     string
	Digest   string
	Rule     string
	Detail   string
}

// RecordRun stores a finished run and its per-ticket outcomes. It makes
// Store a devprompts.RunRecorder.
func (s *Store) RecordRun(summary devprompts.Summary) error {
	byRule, _ := json.Marshal(summary.SkippedByRule)

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin run record: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO generation_runs (
			id, started_at, finished_at, dry_run,
			tickets, ready, existing, missing,
			created, skipped, failed, skipped_by_rule
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		summary.RunID, summary.StartedAt.UTC(), summary.FinishedAt.UTC(), boolToInt(summary.DryRun),
		summary.Tickets, summary.Ready, summary.Existing, summary.Missing,
		summary.Created, summary.Skipped, summary.Failed, string(byRule),
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	insert := `
		INSERT INTO generated_prompts (run_id, ticket_id, outcome, path, digest, rule, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	for _, d := range summary.Documents {
		if _, err := tx.Exec(insert, summary.RunID, d.TicketID, OutcomeCreated, d.Path, nullString(d.Digest), nil, nil); err != nil {
			return fmt.Errorf("failed to record prompt %s: %w", d.TicketID, err)
		}
	}
	for _, sk := range summary.Skips {
		if _, err := tx.Exec(insert, summary.RunID, sk.TicketID, OutcomeSkipped, nil, nil, sk.Rule, sk.Violation.String()); err != nil {
			return fmt.Errorf("failed to record skip %s: %w", sk.TicketID, err)
		}
	}
	for _, f := range summary.Failures {
		if _, err := tx.Exec(insert, summary.RunID, f.TicketID, OutcomeFailed, nil, nil, nil, f.Err.Error()); err != nil {
			return fmt.Errorf("failed to record failure %s: %w", f.TicketID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run record: %w", err)
	}
	return nil
}

// RecentRuns returns the latest runs, newest first.
func (s *Store) RecentRuns(limit int) ([]RunRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, started_at, finished_at, dry_run,
			tickets, ready, existing, missing,
			created, skipped, failed, skipped_by_rule
		FROM generation_runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var r RunRecord
		var dryRun int
		var byRule sql.NullString
		if err := rows.Scan(
			&r.ID, &r.StartedAt, &r.FinishedAt, &dryRun,
			&r.Tickets, &r.Ready, &r.Existing, &r.Missing,
			&r.Created, &r.Skipped, &r.Failed, &byRule,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.DryRun = dryRun == 1
		if byRule.Valid {
			json.Unmarshal([]byte(byRule.String), &r.SkippedByRule)
		}
		runs = append(runs, r)
	}

	return runs, rows.Err()
}

// RunPrompts returns the per-ticket outcomes of a run in the order they
// were recorded.
func (s *Store) RunPrompts(runID string) ([]PromptRecord, error) {
	rows, err := s.db.Query(`
		SELECT run_id, ticket_id, outcome, path, digest, rule, detail
		FROM generated_prompts WHERE run_id = ? ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query prompts: %w", err)
	}
	defer rows.Close()

	var records []PromptRecord
	for rows.Next() {
		var p PromptRecord
		var path, digest, rule, detail sql.NullString
		if err := rows.Scan(&p.RunID, &p.TicketID, &p.Outcome, &path, &digest, &rule, &detail); err != nil {
			return nil, fmt.Errorf("failed to scan prompt: %w", err)
		}
		p.Path = path.String
		p.Digest = digest.String
		p.Rule = rule.String
		p.Detail = detail.String
		records = append(records, p)
	}

	return records, rows.Err()
}

// --- Helpers ---

// execer is satisfied by both *DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}

func createTicket(e execer, t kanban.Ticket) error {
	_, err := e.Exec(`INSERT INTO tickets (`+ticketColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Priority, t.Difficulty, nullString(t.Feature), nullString(t.Source), string(t.Status), t.Issue,
		jsonList(t.FilesToModify), jsonList(t.FilesToRead), jsonList(t.FeatureDocs), jsonList(t.SimilarCode),
		jsonList(t.FixRequired), jsonList(t.AcceptanceCriteria), jsonList(t.OutOfScope), jsonList(t.Risks), jsonList(t.DevChecks),
		nullString(t.QANotes),
	)
	if err != nil {
		return fmt.Errorf("failed to create ticket %s: %w", t.ID, err)
	}
	return nil
}

// Scanner interface for both sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTicketRows(rows *sql.Rows) (*kanban.Ticket, error) {
	return scanTicketGeneric(rows)
}

func scanTicketGeneric(s scanner) (*kanban.Ticket, error) {
	var t kanban.Ticket
	var status string
	var feature, source, issue, qaNotes sql.NullString
	var filesToModify, filesToRead, featureDocs, similarCode sql.NullString
	var fixRequired, criteria, outOfScope, risks, devChecks sql.NullString

	err := s.Scan(
		&t.ID, &t.Title, &t.Priority, &t.Difficulty, &feature, &source, &status, &issue,
		&filesToModify, &filesToRead, &featureDocs, &similarCode,
		&fixRequired, &criteria, &outOfScope, &risks, &devChecks,
		&qaNotes,
	)
	if err != nil {
		return nil, err
	}
	t.Status = kanban.Status(status)

	// Handle nullable string fields
	t.Feature = feature.String
	t.Source = source.String
	t.QANotes = qaNotes.String
	t.Issue = kanban.DefaultIssue
	if issue.Valid {
		t.Issue = issue.String
	}

	// Unmarshal JSON fields
	lists := []struct {
		column string
		raw    sql.NullString
		dst    *[]string
	}{
		{"files_to_modify", filesToModify, &t.FilesToModify},
		{"files_to_read", filesToRead, &t.FilesToRead},
		{"feature_docs", featureDocs, &t.FeatureDocs},
		{"similar_code", similarCode, &t.SimilarCode},
		{"fix_required", fixRequired, &t.FixRequired},
		{"acceptance_criteria", criteria, &t.AcceptanceCriteria},
		{"out_of_scope", outOfScope, &t.OutOfScope},
		{"risks", risks, &t.Risks},
		{"dev_checks", devChecks, &t.DevChecks},
	}
	for _, l := range lists {
		if !l.raw.Valid || l.raw.String == "" {
			continue
		}
		if err := json.Unmarshal([]byte(l.raw.String), l.dst); err != nil {
			return nil, fmt.Errorf("ticket %s: invalid %s: %w", t.ID, l.column, err)
		}
	}

	return &t, nil
}

func jsonList(items []string) string {
	if items == nil {
		items = []string{}
	}
	data, _ := json.Marshal(items)
	return string(data)
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
