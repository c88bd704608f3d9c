package prompt

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/madhatter5501/devprompts/kanban"
)

// RequiredSections are the level-2 headings every prompt must carry.
var RequiredSections = []string{
	"Your Assignment",
	"The Problem",
	"Files to Modify",
	"What to Implement",
	"Acceptance Criteria",
	"Out of Scope",
	"Risks to Avoid",
	"Dev Checks",
}

// Outline is the parsed skeleton of a rendered prompt.
type Outline struct {
	Sections  []string // level-2 headings in document order
	FileRows  int      // body rows of the Files to Modify table
	HasFiles  bool     // a table headed "File" was found
	ListItems map[string]int
}

// ParseOutline reads a rendered prompt back with a GFM markdown parser and
// summarises its structure.
func ParseOutline(doc string) Outline {
	source := []byte(doc)
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	root := md.Parser().Parse(text.NewReader(source))

	outline := Outline{ListItems: make(map[string]int)}
	current := ""

	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			if node.Level == 2 {
				current = nodeText(node, source)
				outline.Sections = append(outline.Sections, current)
			}
			return ast.WalkSkipChildren, nil
		case *extast.Table:
			if header := firstHeaderCell(node, source); header == "File" {
				outline.HasFiles = true
				outline.FileRows = node.ChildCount() - 1
			}
			return ast.WalkSkipChildren, nil
		case *ast.ListItem:
			if current != "" {
				outline.ListItems[current]++
			}
		}
		return ast.WalkContinue, nil
	})
	return outline
}

// CheckTemplate renders a sparse and a fully populated sample ticket and
// checks both keep the required shape. Ticket text is never parsed, so a
// code snippet in an issue cannot fail a real document.
func CheckTemplate(tpl Template, target Target) error {
	samples := []kanban.Ticket{
		{
			ID:            "SAMPLE-1",
			Title:         "Sample",
			Priority:      kanban.DefaultPriority,
			Difficulty:    kanban.DefaultDifficulty,
			Issue:         kanban.DefaultIssue,
			FilesToModify: []string{"src/sample.go"},
		},
		{
			ID:                 "SAMPLE-2",
			Title:              "Sample with every section",
			Priority:           "high",
			Difficulty:         "hard",
			Feature:            "sample",
			Issue:              "Sample issue.",
			FilesToModify:      []string{"src/sample.go"},
			FilesToRead:        []string{"src/context.go"},
			FeatureDocs:        []string{"docs/sample.md"},
			SimilarCode:        []string{"src/similar.go"},
			FixRequired:        []string{"Change the sample"},
			AcceptanceCriteria: []string{"The sample works"},
			OutOfScope:         []string{"Anything else"},
			Risks:              []string{"Breaking the sample"},
			DevChecks:          []string{"Run the sample"},
			QANotes:            "Check the sample.",
		},
	}
	for _, t := range samples {
		if err := CheckStructure(Render(t, tpl, target)); err != nil {
			return fmt.Errorf("template breaks prompt structure: %w", err)
		}
	}
	return nil
}

// CheckStructure verifies a rendered prompt still has every required
// section and a files table.
func CheckStructure(doc string) error {
	outline := ParseOutline(doc)

	have := make(map[string]bool, len(outline.Sections))
	for _, s := range outline.Sections {
		have[s] = true
	}
	var missing []string
	for _, s := range RequiredSections {
		if !have[s] {
			missing = append(missing, s)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("prompt is missing sections: %s", strings.Join(missing, ", "))
	}
	if !outline.HasFiles {
		return fmt.Errorf("prompt has no files table")
	}
	return nil
}

func firstHeaderCell(table *extast.Table, source []byte) string {
	header, ok := table.FirstChild().(*extast.TableHeader)
	if !ok || header.FirstChild() == nil {
		return ""
	}
	return nodeText(header.FirstChild(), source)
}

// nodeText concatenates the literal text beneath n.
func nodeText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(source))
			if t.SoftLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(buf.String())
}
