package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madhatter5501/devprompts/kanban"
)

func target(id string) Target {
	return Target{FileName: "dev-agent-" + id + "-v1.md", Version: 1}
}

func TestRenderGolden(t *testing.T) {
	tests := []struct {
		name   string
		ticket func(t *testing.T) kanban.Ticket
		golden string
	}{
		{
			name: "every section populated",
			ticket: func(t *testing.T) kanban.Ticket {
				tickets, err := kanban.NewFileSource(filepath.Join("testdata", "full.json")).LoadTickets()
				require.NoError(t, err)
				require.Len(t, tickets, 1)
				return tickets[0]
			},
			golden: "full.golden.md",
		},
		{
			name: "minimal ticket uses fallbacks",
			ticket: func(t *testing.T) kanban.Ticket {
				tickets, err := kanban.Parse([]byte(`{"tickets":[{"id":"T-1","status":"ready","files_to_modify":["a.ts"],"fix_required":["Add input validation"]}]}`), kanban.FormatJSON)
				require.NoError(t, err)
				return tickets[0]
			},
			golden: "minimal.golden.md",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ticket := tt.ticket(t)
			want, err := os.ReadFile(filepath.Join("testdata", tt.golden))
			require.NoError(t, err)

			got := Render(ticket, DefaultTemplate(), target(ticket.ID))
			assert.Equal(t, string(want), got)
			assert.NoError(t, CheckStructure(got))
		})
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	ticket := kanban.Ticket{ID: "T-3", Title: "Stable", Priority: "low", Difficulty: "easy", Issue: "x", FilesToModify: []string{"a"}}
	first := Render(ticket, DefaultTemplate(), target("T-3"))
	second := Render(ticket, DefaultTemplate(), target("T-3"))
	assert.Equal(t, first, second)
}

func TestBranchSlug(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Implement Rate Limiting For The Public API Gateway", "implement-rate-limiting-for-th"},
		{"Add a b c d e f g h i j k l m n o", "add-a-b-c-d-e-f-g-h-i-j-k-l-m"},
		{"Short title", "short-title"},
		{"Trailing space ", "trailing-space"},
		{"", ""},
		{"Überprüfung der Zahlungsabwicklung im Shop", "überprüfung-der-zahlungsabwick"},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			got := BranchSlug(tt.title, 30)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len([]rune(got)), 30)
			assert.False(t, strings.HasSuffix(got, "-"))
		})
	}
}

func TestBranchName(t *testing.T) {
	ticket := kanban.Ticket{ID: "TKT-7", Title: "Fix Login"}
	assert.Equal(t, "agent/tkt-7-fix-login", BranchName(ticket, DefaultTemplate()))
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "High", Capitalize("HIGH"))
	assert.Equal(t, "Medium", Capitalize("medium"))
	assert.Equal(t, "Very high", Capitalize("very HIGH"))
	assert.Equal(t, "", Capitalize(""))
}

func TestFilesTable(t *testing.T) {
	tpl := DefaultTemplate()
	assert.Equal(t, "| `a.ts` | Implement required changes |", FilesTable([]string{"a.ts"}, tpl))
	assert.Equal(t, tpl.NoFilesRow, FilesTable(nil, tpl))

	rows := strings.Split(FilesTable([]string{"a", "b", "c"}, tpl), "\n")
	assert.Len(t, rows, 3)
}

func TestOptionalSectionsOmittedWhenEmpty(t *testing.T) {
	tpl := DefaultTemplate()

	assert.Empty(t, FeatureDocsSection(nil))
	assert.Empty(t, SimilarCodeSection([]string{}))
	assert.Empty(t, QANotesSection(""))
	assert.Empty(t, DevChecksSection(nil, tpl))

	assert.Contains(t, FeatureDocsSection([]string{"docs/a.md"}), "**Feature Documentation:**\n- `docs/a.md`")
	assert.Contains(t, SimilarCodeSection([]string{"src/x.ts"}), "**Similar Code:**\n- src/x.ts")
	assert.Contains(t, QANotesSection("check it"), "## QA Notes\n\ncheck it")
}

func TestListFallbacks(t *testing.T) {
	tpl := DefaultTemplate()

	assert.Equal(t, tpl.NoFixRequired, FixRequiredList(nil, tpl))
	assert.Equal(t, "1. one\n2. two", FixRequiredList([]string{"one", "two"}, tpl))

	assert.Equal(t, "- [ ] (See ticket for acceptance criteria)", AcceptanceCriteriaList(nil, tpl))
	assert.Equal(t, "- [ ] works", AcceptanceCriteriaList([]string{"works"}, tpl))

	assert.Equal(t, "- (No explicit out-of-scope items listed)", OutOfScopeList(nil, tpl))

	risks := RisksTable(nil, tpl)
	assert.True(t, strings.HasSuffix(risks, "| (Low risk) | Follow existing patterns |"))
	assert.Equal(t, 3, strings.Count(risks, "\n")+1)
}

func TestDevChecksFiltersBaseline(t *testing.T) {
	tpl := DefaultTemplate()

	assert.Empty(t, DevChecksSection([]string{"pnpm typecheck", "Run the BUILD"}, tpl))

	extra := ExtraDevChecks([]string{"pnpm typecheck", "pnpm lint", "pnpm build", "pnpm test"}, tpl)
	assert.Equal(t, []string{"pnpm lint", "pnpm test"}, extra)
	assert.Equal(t, "\n\n**Additional checks:**\n- pnpm lint\n- pnpm test", DevChecksSection([]string{"pnpm lint", "pnpm test", "pnpm build"}, tpl))
}

func TestBaselineChecksBlockAligns(t *testing.T) {
	tpl := DefaultTemplate()
	tpl.BaselineChecks = []string{"go vet ./...", "go build ./..."}

	assert.Equal(t, "```bash\ngo vet ./...    # Must pass\ngo build ./...  # Must pass\n```", BaselineChecksBlock(tpl))
}

func TestOutOfScopeOmissionLaw(t *testing.T) {
	base := kanban.Ticket{ID: "T-5", Title: "Scope", Priority: "low", Difficulty: "easy", Issue: "x", FilesToModify: []string{"a.ts"}}

	empty := ParseOutline(Render(base, DefaultTemplate(), target("T-5")))
	assert.Equal(t, 1, empty.ListItems["Out of Scope"], "only the fallback marker")

	base.OutOfScope = []string{"one", "two", "three"}
	doc := Render(base, DefaultTemplate(), target("T-5"))
	three := ParseOutline(doc)
	assert.Equal(t, 3, three.ListItems["Out of Scope"])
	assert.Equal(t, 3, strings.Count(doc, "- ❌ "))
}

func TestTemplateOverrides(t *testing.T) {
	tpl := Template{
		SOPPath:        "handbook/SOP.md",
		BranchPrefix:   "feat/",
		RiskMitigation: "Ask the owning team",
	}.Merge(DefaultTemplate())

	assert.Equal(t, 30, tpl.SlugLength)
	assert.Equal(t, []string{"pnpm typecheck", "pnpm build"}, tpl.BaselineChecks)

	ticket := kanban.Ticket{ID: "T-8", Title: "Override", Priority: "low", Difficulty: "easy", Issue: "x", FilesToModify: []string{"a.ts"}, Risks: []string{"Regression"}}
	doc := Render(ticket, tpl, target("T-8"))

	assert.Contains(t, doc, "Read handbook/SOP.md then execute: docs/prompts/active/dev-agent-T-8-v1.md")
	assert.Contains(t, doc, "**Branch:** `feat/t-8-override`")
	assert.Contains(t, doc, "| Regression | Ask the owning team |")
	assert.NoError(t, CheckStructure(doc))
}
