package kanban

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// TicketSource is the interface for loading the ticket collection.
// Both the file-based FileSource and the SQLite Store implement it.
type TicketSource interface {
	// LoadTickets returns every ticket in source order. Any structural
	// problem is reported as a *ParseError.
	LoadTickets() ([]Ticket, error)
}

// ErrMissingTickets indicates the document has no top-level tickets key.
var ErrMissingTickets = errors.New("missing top-level \"tickets\" key")

// ParseError is fatal: a malformed source aborts the run before any output.
type ParseError struct {
	Source string // file path or store name
	Err    error
}

func (e *ParseError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("failed to parse tickets: %v", e.Err)
	}
	return fmt.Sprintf("failed to parse tickets from %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Format identifies the encoding of a ticket file.
type Format string

const (
	FormatJSON Format = "json" // JSON, comments and trailing commas allowed
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from the file extension. Anything that
// is not .yaml/.yml is treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// FileSource loads tickets from a board file on disk.
type FileSource struct {
	path string
}

// NewFileSource creates a ticket source for the given file.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// LoadTickets reads and parses the board file.
func (s *FileSource) LoadTickets() ([]Ticket, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, &ParseError{Source: s.path, Err: fmt.Errorf("failed to read ticket file: %w", err)}
	}

	tickets, err := Parse(data, FormatFromPath(s.path))
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			perr.Source = s.path
			return nil, perr
		}
		return nil, &ParseError{Source: s.path, Err: err}
	}
	return tickets, nil
}

// board is the on-disk document shape.
type board struct {
	Tickets *[]record `json:"tickets" yaml:"tickets"`
}

// record mirrors a ticket as authored. Pointers distinguish an absent key
// from an empty value so defaults and legacy aliases resolve correctly.
type record struct {
	ID                 *string   `json:"id" yaml:"id"`
	Title              *string   `json:"title" yaml:"title"`
	Priority           *string   `json:"priority" yaml:"priority"`
	Difficulty         *string   `json:"difficulty" yaml:"difficulty"`
	Feature            string    `json:"feature" yaml:"feature"`
	Source             string    `json:"source" yaml:"source"`
	Status             *string   `json:"status" yaml:"status"`
	Issue              *string   `json:"issue" yaml:"issue"`
	FilesToModify      *[]string `json:"files_to_modify" yaml:"files_to_modify"`
	Files              *[]string `json:"files" yaml:"files"` // legacy name for files_to_modify
	FilesToRead        []string  `json:"files_to_read" yaml:"files_to_read"`
	FeatureDocs        []string  `json:"feature_docs" yaml:"feature_docs"`
	SimilarCode        []string  `json:"similar_code" yaml:"similar_code"`
	FixRequired        []string  `json:"fix_required" yaml:"fix_required"`
	AcceptanceCriteria []string  `json:"acceptance_criteria" yaml:"acceptance_criteria"`
	OutOfScope         []string  `json:"out_of_scope" yaml:"out_of_scope"`
	Risks              *[]string `json:"risks" yaml:"risks"`
	RiskNotes          *[]string `json:"risk_notes" yaml:"risk_notes"` // legacy name for risks
	DevChecks          []string  `json:"dev_checks" yaml:"dev_checks"`
	QANotes            string    `json:"qa_notes" yaml:"qa_notes"`
}

// Parse decodes a ticket board. The returned tickets keep source order and
// have defaults and aliases resolved.
func Parse(data []byte, format Format) ([]Ticket, error) {
	var doc board
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, &ParseError{Err: fmt.Errorf("invalid YAML: %w", err)}
		}
	default:
		if err := json.Unmarshal(jsonc.ToJSON(data), &doc); err != nil {
			return nil, &ParseError{Err: fmt.Errorf("invalid JSON: %w", err)}
		}
	}

	if doc.Tickets == nil {
		return nil, &ParseError{Err: ErrMissingTickets}
	}

	tickets := make([]Ticket, 0, len(*doc.Tickets))
	seen := make(map[string]int, len(*doc.Tickets))
	for i, r := range *doc.Tickets {
		t, err := r.resolve()
		if err != nil {
			return nil, &ParseError{Err: fmt.Errorf("ticket #%d: %w", i+1, err)}
		}
		if first, dup := seen[t.ID]; dup {
			return nil, &ParseError{Err: fmt.Errorf("duplicate ticket id %q (entries #%d and #%d)", t.ID, first, i+1)}
		}
		seen[t.ID] = i + 1
		tickets = append(tickets, t)
	}
	return tickets, nil
}

// resolve turns an authored record into a Ticket.
func (r record) resolve() (Ticket, error) {
	if r.ID == nil || strings.TrimSpace(*r.ID) == "" {
		return Ticket{}, errors.New("missing id")
	}
	if strings.ContainsAny(*r.ID, `/\`) || strings.Contains(*r.ID, "..") {
		return Ticket{}, fmt.Errorf("ticket id %q: must not contain path separators or \"..\"", *r.ID)
	}
	if r.Status == nil {
		return Ticket{}, fmt.Errorf("ticket %s: missing status", *r.ID)
	}

	return Ticket{
		ID:                 *r.ID,
		Title:              stringOr(r.Title, DefaultTitle),
		Priority:           stringOr(r.Priority, DefaultPriority),
		Difficulty:         stringOr(r.Difficulty, DefaultDifficulty),
		Feature:            r.Feature,
		Source:             r.Source,
		Status:             Status(*r.Status),
		Issue:              stringOr(r.Issue, DefaultIssue),
		FilesToModify:      listOr(r.FilesToModify, r.Files),
		FilesToRead:        r.FilesToRead,
		FeatureDocs:        r.FeatureDocs,
		SimilarCode:        r.SimilarCode,
		FixRequired:        r.FixRequired,
		AcceptanceCriteria: r.AcceptanceCriteria,
		OutOfScope:         r.OutOfScope,
		Risks:              listOr(r.Risks, r.RiskNotes),
		DevChecks:          r.DevChecks,
		QANotes:            r.QANotes,
	}, nil
}

func stringOr(v *string, fallback string) string {
	if v == nil {
		return fallback
	}
	return *v
}

// listOr returns current when the key was present, otherwise legacy.
func listOr(current, legacy *[]string) []string {
	if current != nil {
		return *current
	}
	if legacy != nil {
		return *legacy
	}
	return nil
}
