// Package guard decides whether a ready ticket is fit for prompt generation.
// Rules run in order and stop at the first violation.
package guard

import (
	"fmt"
	"strings"

	"github.com/madhatter5501/devprompts/kanban"
)

// Rule names, used as keys in run summaries.
const (
	RuleFilesPresent    = "files-present"
	RuleSuspiciousTerms = "suspicious-terms"
)

// Skip reasons.
const (
	ReasonNoFiles      = "no files_to_modify specified — needs review"
	ReasonDataMismatch = "data mismatch"
)

// DefaultVocabulary lists the terms whose presence in fix_required must be
// backed by the ticket's own title or issue text. Order matters: the first
// unmatched term is the one reported.
var DefaultVocabulary = []string{
	"sanitization",
	"password",
	"cache",
	"ttl",
	"webhook",
	"stripe",
	"auth",
	"billing",
}

// Violation explains why a ticket was excluded from a run.
type Violation struct {
	Rule        string `json:"rule"`
	Reason      string `json:"reason"`
	Term        string `json:"term,omitempty"`        // suspicious-terms only
	Instruction string `json:"instruction,omitempty"` // the fix_required entry that matched
}

func (v *Violation) String() string {
	if v.Term != "" {
		return fmt.Sprintf("%s: fix_required mentions '%s' but title/issue doesn't", v.Reason, v.Term)
	}
	return v.Reason
}

// Rule inspects a ticket and returns a violation, or nil if it passes.
type Rule func(t kanban.Ticket) *Violation

// Rules is an ordered, short-circuiting rule set.
type Rules []Rule

// Default returns the standard rule set: files-present, then suspicious-terms.
func Default(vocabulary []string) Rules {
	return Rules{
		FilesPresent(),
		SuspiciousTerms(vocabulary),
	}
}

// Evaluate runs each rule in order and returns the first violation.
func (r Rules) Evaluate(t kanban.Ticket) *Violation {
	for _, rule := range r {
		if v := rule(t); v != nil {
			return v
		}
	}
	return nil
}

// FilesPresent fails tickets that have not been scoped to any files yet.
func FilesPresent() Rule {
	return func(t kanban.Ticket) *Violation {
		if len(t.FilesToModify) == 0 {
			return &Violation{Rule: RuleFilesPresent, Reason: ReasonNoFiles}
		}
		return nil
	}
}

// SuspiciousTerms fails tickets whose fix_required instructions mention a
// sensitive term that the title and issue never mention. This catches
// records whose instructions were copied from a different ticket.
func SuspiciousTerms(vocabulary []string) Rule {
	terms := make([]string, 0, len(vocabulary))
	for _, term := range vocabulary {
		if term = strings.ToLower(strings.TrimSpace(term)); term != "" {
			terms = append(terms, term)
		}
	}

	return func(t kanban.Ticket) *Violation {
		ticketText := strings.ToLower(t.Title) + " " + strings.ToLower(t.Issue)
		for _, fix := range t.FixRequired {
			fixLower := strings.ToLower(fix)
			for _, term := range terms {
				if strings.Contains(fixLower, term) && !strings.Contains(ticketText, term) {
					return &Violation{
						Rule:        RuleSuspiciousTerms,
						Reason:      ReasonDataMismatch,
						Term:        term,
						Instruction: fix,
					}
				}
			}
		}
		return nil
	}
}
