// Package kanban provides the ticket model for the dev-agent prompt generator.
// Tickets are loaded from a JSON/YAML board file or from the SQLite workflow store.
package kanban

// Status represents the current stage of a ticket in the pipeline.
type Status string

const (
	StatusDraft       Status = "draft"        // Captured, not yet scoped
	StatusTicketed    Status = "ticketed"     // Promoted from a finding, awaiting PM review
	StatusReady       Status = "ready"        // Scoped, eligible for a dev prompt
	StatusInProgress  Status = "in_progress"  // Dev agent is working on it
	StatusBlocked     Status = "blocked"      // Blocked by a dependency or question
	StatusDevComplete Status = "dev_complete" // Dev finished, awaiting QA
	StatusMerged      Status = "merged"       // Merged to main
	StatusClosed      Status = "closed"       // Won't do / superseded
)

// Statuses lists the known statuses in workflow order.
var Statuses = []Status{
	StatusDraft,
	StatusTicketed,
	StatusReady,
	StatusInProgress,
	StatusBlocked,
	StatusDevComplete,
	StatusMerged,
	StatusClosed,
}

// Defaults applied when a ticket omits the field.
const (
	DefaultTitle      = "Untitled"
	DefaultPriority   = "medium"
	DefaultDifficulty = "medium"
	DefaultIssue      = "No issue description provided."
)

// Ticket represents a single unit of work handed to a dev agent.
// Defaults and legacy field aliases are resolved when the ticket is loaded,
// so every field here is already in its final form.
type Ticket struct {
	// Identity
	ID    string `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`

	// Classification
	Priority   string `json:"priority" yaml:"priority"`     // low, medium, high, critical
	Difficulty string `json:"difficulty" yaml:"difficulty"` // easy, medium, hard
	Feature    string `json:"feature,omitempty" yaml:"feature,omitempty"`
	Source     string `json:"source,omitempty" yaml:"source,omitempty"`
	Status     Status `json:"status" yaml:"status"`

	// Problem statement
	Issue string `json:"issue" yaml:"issue"`

	// Scope
	FilesToModify []string `json:"files_to_modify" yaml:"files_to_modify"`
	FilesToRead   []string `json:"files_to_read,omitempty" yaml:"files_to_read,omitempty"`
	FeatureDocs   []string `json:"feature_docs,omitempty" yaml:"feature_docs,omitempty"`
	SimilarCode   []string `json:"similar_code,omitempty" yaml:"similar_code,omitempty"`

	// Implementation guidance
	FixRequired        []string `json:"fix_required,omitempty" yaml:"fix_required,omitempty"`
	AcceptanceCriteria []string `json:"acceptance_criteria,omitempty" yaml:"acceptance_criteria,omitempty"`
	OutOfScope         []string `json:"out_of_scope,omitempty" yaml:"out_of_scope,omitempty"`
	Risks              []string `json:"risks,omitempty" yaml:"risks,omitempty"`
	DevChecks          []string `json:"dev_checks,omitempty" yaml:"dev_checks,omitempty"`
	QANotes            string   `json:"qa_notes,omitempty" yaml:"qa_notes,omitempty"`
}

// IsReady reports whether the ticket may receive a dev prompt.
func (t Ticket) IsReady() bool {
	return t.Status == StatusReady
}

// StatusCounts tallies tickets per status.
func StatusCounts(tickets []Ticket) map[Status]int {
	counts := make(map[Status]int)
	for _, t := range tickets {
		counts[t.Status]++
	}
	return counts
}
