// Package prompt renders dev-agent task documents from tickets.
//
// Rendering is a pure composition of small section functions. Every fixed
// string the document uses (paths, fallback lines, baseline checks) lives
// in Template so callers can override it.
package prompt

// Template holds the fixed shape parameters of a dev-agent prompt.
type Template struct {
	// Paths referenced by the document.
	SOPPath    string `yaml:"sop_path"`    // docs/workflow/DEV_AGENT_SOP.md
	PromptsDir string `yaml:"prompts_dir"` // where the launch one-liner points
	ReportDir  string `yaml:"report_dir"`  // root for started/completions/blocked/findings
	StatusFile string `yaml:"status_file"` // dev-status.json the agent updates

	// Branch naming.
	BranchPrefix string `yaml:"branch_prefix"`
	SlugLength   int    `yaml:"slug_length"`

	// Baseline checks every ticket runs, and the keywords that mark a
	// ticket's own dev_checks entry as a duplicate of them.
	BaselineChecks   []string `yaml:"baseline_checks"`
	BaselineKeywords []string `yaml:"baseline_keywords"`

	// Table filler text.
	FileAction     string `yaml:"file_action"`
	RiskMitigation string `yaml:"risk_mitigation"`

	// Fallbacks for empty sections.
	NoFilesRow        string `yaml:"no_files_row"`
	NoFixRequired     string `yaml:"no_fix_required"`
	NoCriteria        string `yaml:"no_criteria"`
	NoOutOfScope      string `yaml:"no_out_of_scope"`
	NoRisks           string `yaml:"no_risks"`
	OutOfScopeMarker  string `yaml:"out_of_scope_marker"`
	CriterionCheckbox string `yaml:"criterion_checkbox"`
}

// DefaultTemplate returns the stock dev-agent prompt shape.
func DefaultTemplate() Template {
	return Template{
		SOPPath:           "docs/workflow/DEV_AGENT_SOP.md",
		PromptsDir:        "docs/prompts/active",
		ReportDir:         "docs/agent-output",
		StatusFile:        "docs/data/dev-status.json",
		BranchPrefix:      "agent/",
		SlugLength:        30,
		BaselineChecks:    []string{"pnpm typecheck", "pnpm build"},
		BaselineKeywords:  []string{"typecheck", "build"},
		FileAction:        "Implement required changes",
		RiskMitigation:    "Follow existing patterns",
		NoFilesRow:        "| (see ticket for files) | |",
		NoFixRequired:     "(See ticket for implementation details)",
		NoCriteria:        "(See ticket for acceptance criteria)",
		NoOutOfScope:      "- (No explicit out-of-scope items listed)",
		NoRisks:           "(Low risk)",
		OutOfScopeMarker:  "- ❌",
		CriterionCheckbox: "- [ ]",
	}
}

// Merge returns t with every zero-valued field taken from base.
func (t Template) Merge(base Template) Template {
	pick := func(v, fallback string) string {
		if v == "" {
			return fallback
		}
		return v
	}

	out := Template{
		SOPPath:           pick(t.SOPPath, base.SOPPath),
		PromptsDir:        pick(t.PromptsDir, base.PromptsDir),
		ReportDir:         pick(t.ReportDir, base.ReportDir),
		StatusFile:        pick(t.StatusFile, base.StatusFile),
		BranchPrefix:      pick(t.BranchPrefix, base.BranchPrefix),
		SlugLength:        t.SlugLength,
		BaselineChecks:    t.BaselineChecks,
		BaselineKeywords:  t.BaselineKeywords,
		FileAction:        pick(t.FileAction, base.FileAction),
		RiskMitigation:    pick(t.RiskMitigation, base.RiskMitigation),
		NoFilesRow:        pick(t.NoFilesRow, base.NoFilesRow),
		NoFixRequired:     pick(t.NoFixRequired, base.NoFixRequired),
		NoCriteria:        pick(t.NoCriteria, base.NoCriteria),
		NoOutOfScope:      pick(t.NoOutOfScope, base.NoOutOfScope),
		NoRisks:           pick(t.NoRisks, base.NoRisks),
		OutOfScopeMarker:  pick(t.OutOfScopeMarker, base.OutOfScopeMarker),
		CriterionCheckbox: pick(t.CriterionCheckbox, base.CriterionCheckbox),
	}
	if out.SlugLength <= 0 {
		out.SlugLength = base.SlugLength
	}
	if len(out.BaselineChecks) == 0 {
		out.BaselineChecks = base.BaselineChecks
	}
	if len(out.BaselineKeywords) == 0 {
		out.BaselineKeywords = base.BaselineKeywords
	}
	return out
}
