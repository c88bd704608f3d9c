package prompt

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/madhatter5501/devprompts/kanban"
)

// Target identifies the document being rendered.
type Target struct {
	FileName string // dev-agent-T-1-v1.md
	Version  int
}

// Render produces the full prompt document for a ticket. It has no side
// effects; the same inputs always yield the same text.
func Render(t kanban.Ticket, tpl Template, target Target) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Dev Agent: %s - %s\n\n", t.ID, t.Title)
	b.WriteString("> **One-liner to launch:**\n")
	fmt.Fprintf(&b, "> `You are a Dev Agent. Read %s then execute: %s`\n\n", tpl.SOPPath, joinPath(tpl.PromptsDir, target.FileName))
	b.WriteString("---\n\n")
	fmt.Fprintf(&b, "You are a Dev Agent. Your job is to implement **%s: %s**.\n\n", t.ID, t.Title)
	fmt.Fprintf(&b, "**First, read the Dev Agent SOP:** `%s`\n\n", tpl.SOPPath)
	b.WriteString("---\n\n")

	b.WriteString("## Your Assignment\n\n")
	fmt.Fprintf(&b, "**Ticket:** %s\n", t.ID)
	fmt.Fprintf(&b, "**Priority:** %s\n", Capitalize(t.Priority))
	fmt.Fprintf(&b, "**Difficulty:** %s\n", Capitalize(t.Difficulty))
	fmt.Fprintf(&b, "**Branch:** `%s`\n", BranchName(t, tpl))
	fmt.Fprintf(&b, "**Version:** v%d\n\n", target.Version)
	b.WriteString("---\n\n")

	b.WriteString("## The Problem\n\n")
	b.WriteString(t.Issue)
	b.WriteString("\n\n---\n\n")

	b.WriteString("## Files to Modify\n\n")
	b.WriteString("| File | What to Change |\n|------|----------------|\n")
	b.WriteString(FilesTable(t.FilesToModify, tpl))
	b.WriteString("\n\n")
	b.WriteString(FeatureDocsSection(t.FeatureDocs))
	b.WriteString("\n")
	b.WriteString(SimilarCodeSection(t.SimilarCode))
	b.WriteString("\n---\n\n")

	b.WriteString("## What to Implement\n\n")
	b.WriteString(FixRequiredList(t.FixRequired, tpl))
	b.WriteString("\n\n---\n\n")

	b.WriteString("## Acceptance Criteria\n\n")
	b.WriteString(AcceptanceCriteriaList(t.AcceptanceCriteria, tpl))
	b.WriteString("\n\n---\n\n")

	b.WriteString("## Out of Scope\n\n")
	b.WriteString(OutOfScopeList(t.OutOfScope, tpl))
	b.WriteString("\n\n---\n\n")

	b.WriteString("## Risks to Avoid\n\n")
	b.WriteString(RisksTable(t.Risks, tpl))
	b.WriteString("\n\n---\n\n")

	b.WriteString("## Dev Checks\n\n")
	b.WriteString(BaselineChecksBlock(tpl))
	b.WriteString("\n")
	b.WriteString(DevChecksSection(t.DevChecks, tpl))
	b.WriteString("\n\n---\n")
	b.WriteString(QANotesSection(t.QANotes))
	b.WriteString("\n")
	b.WriteString(reportingSection(t.ID, tpl))
	return b.String()
}

// Capitalize upper-cases the first letter and lower-cases the rest, so
// "HIGH" and "high" both display as "High".
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	s = cases.Lower(language.Und).String(s)
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToTitle(r)) + s[size:]
}

// BranchSlug derives a branch suffix from a ticket title: lowercase, spaces
// to hyphens, at most maxLen runes, no trailing hyphen.
func BranchSlug(title string, maxLen int) string {
	slug := strings.ReplaceAll(strings.ToLower(title), " ", "-")
	if runes := []rune(slug); maxLen > 0 && len(runes) > maxLen {
		slug = string(runes[:maxLen])
	}
	return strings.TrimRight(slug, "-")
}

// BranchName returns the full branch the dev agent should work on.
func BranchName(t kanban.Ticket, tpl Template) string {
	return fmt.Sprintf("%s%s-%s", tpl.BranchPrefix, strings.ToLower(t.ID), BranchSlug(t.Title, tpl.SlugLength))
}

// FilesTable renders one table row per file, or a placeholder row.
func FilesTable(files []string, tpl Template) string {
	if len(files) == 0 {
		return tpl.NoFilesRow
	}
	rows := make([]string, len(files))
	for i, f := range files {
		rows[i] = fmt.Sprintf("| `%s` | %s |", f, tpl.FileAction)
	}
	return strings.Join(rows, "\n")
}

// FeatureDocsSection renders the feature documentation list, or nothing.
func FeatureDocsSection(docs []string) string {
	if len(docs) == 0 {
		return ""
	}
	return "\n**Feature Documentation:**\n" + bulletList(docs, "- `%s`") + "\n\n"
}

// SimilarCodeSection renders pointers to similar code, or nothing.
func SimilarCodeSection(refs []string) string {
	if len(refs) == 0 {
		return ""
	}
	return "\n**Similar Code:**\n" + bulletList(refs, "- %s") + "\n\n"
}

// FixRequiredList renders a 1-indexed list of implementation steps.
func FixRequiredList(steps []string, tpl Template) string {
	if len(steps) == 0 {
		return tpl.NoFixRequired
	}
	lines := make([]string, len(steps))
	for i, s := range steps {
		lines[i] = fmt.Sprintf("%d. %s", i+1, s)
	}
	return strings.Join(lines, "\n")
}

// AcceptanceCriteriaList renders a checkbox per criterion.
func AcceptanceCriteriaList(criteria []string, tpl Template) string {
	if len(criteria) == 0 {
		return tpl.CriterionCheckbox + " " + tpl.NoCriteria
	}
	return bulletList(criteria, tpl.CriterionCheckbox+" %s")
}

// OutOfScopeList renders one marker line per excluded item.
func OutOfScopeList(items []string, tpl Template) string {
	if len(items) == 0 {
		return tpl.NoOutOfScope
	}
	return bulletList(items, tpl.OutOfScopeMarker+" %s")
}

// RisksTable renders risks with the generic mitigation text.
func RisksTable(risks []string, tpl Template) string {
	var b strings.Builder
	b.WriteString("| Risk | How to Avoid |\n|------|--------------|")
	if len(risks) == 0 {
		risks = []string{tpl.NoRisks}
	}
	for _, r := range risks {
		fmt.Fprintf(&b, "\n| %s | %s |", r, tpl.RiskMitigation)
	}
	return b.String()
}

// BaselineChecksBlock renders the mandatory checks as an aligned bash block.
func BaselineChecksBlock(tpl Template) string {
	width := 0
	for _, c := range tpl.BaselineChecks {
		if n := utf8.RuneCountInString(c); n > width {
			width = n
		}
	}

	var b strings.Builder
	b.WriteString("```bash\n")
	for _, c := range tpl.BaselineChecks {
		fmt.Fprintf(&b, "%-*s  # Must pass\n", width, c)
	}
	b.WriteString("```")
	return b.String()
}

// ExtraDevChecks drops entries that restate a baseline check.
func ExtraDevChecks(checks []string, tpl Template) []string {
	var extra []string
	for _, c := range checks {
		if !mentionsAny(strings.ToLower(c), tpl.BaselineKeywords) {
			extra = append(extra, c)
		}
	}
	return extra
}

// DevChecksSection renders the ticket's additional checks, or nothing when
// every entry duplicates a baseline check.
func DevChecksSection(checks []string, tpl Template) string {
	extra := ExtraDevChecks(checks, tpl)
	if len(extra) == 0 {
		return ""
	}
	return "\n\n**Additional checks:**\n" + bulletList(extra, "- %s")
}

// QANotesSection renders the QA notes block, or nothing.
func QANotesSection(notes string) string {
	if notes == "" {
		return ""
	}
	return "\n## QA Notes\n\n" + notes + "\n\n---\n"
}

func reportingSection(id string, tpl Template) string {
	var b strings.Builder
	b.WriteString("## ⚠️ REQUIRED: Follow Dev Agent SOP\n\n")
	b.WriteString("**All reporting is handled per the SOP:**\n")
	fmt.Fprintf(&b, "- **Start:** Write to `%s`\n", joinPath(tpl.ReportDir, "started", id+"-[TIMESTAMP].json"))
	fmt.Fprintf(&b, "- **Complete:** Write to `%s`\n", joinPath(tpl.ReportDir, "completions", id+"-[TIMESTAMP].md"))
	fmt.Fprintf(&b, "- **Update:** Add to `%s` completed array\n", tpl.StatusFile)
	fmt.Fprintf(&b, "- **Blocked:** Write to `%s`\n", joinPath(tpl.ReportDir, "blocked", "BLOCKED-"+id+"-[TIMESTAMP].json"))
	fmt.Fprintf(&b, "- **Findings:** Write to `%s`\n\n", joinPath(tpl.ReportDir, "findings", "F-DEV-"+id+"-[TIMESTAMP].json"))
	fmt.Fprintf(&b, "See `%s` for exact formats.\n", tpl.SOPPath)
	return b.String()
}

func bulletList(items []string, format string) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = fmt.Sprintf(format, item)
	}
	return strings.Join(lines, "\n")
}

func mentionsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if k != "" && strings.Contains(s, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

// joinPath joins document-relative paths with forward slashes regardless of
// the host OS, since the text is read by agents, not the filesystem.
func joinPath(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.Trim(p, "/"); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "/")
}
