package formatter

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/expedit/internal/diff"
	"github.com/alexanderramin/expedit/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// FormatDocumentList renders local documents inside a bordered box.
func FormatDocumentList(docs []*domain.Document, now time.Time) string {
	headers := []string{"ID", "KIND", "EXPERIENCE", "LANG", "STATUS", "FLOW", "LOCAL", "FETCHED"}
	rows := make([][]string, 0, len(docs))
	for _, d := range docs {
		local := Dim("clean")
		if d.Modified {
			local = StyleYellow.Render("● edited")
		}
		rows = append(rows, []string{
			TruncID(d.ID),
			string(d.Kind),
			Bold(d.ExperienceID),
			d.LanguageCode,
			StatusPill(d.StatusCode),
			string(d.FlowCode),
			local,
			HumanTimestamp(d.FetchedAt, now),
		})
	}
	return RenderBox("Documents", RenderTable(headers, rows, "no documents pulled yet"))
}

// FormatDocument renders the working copy grouped by wire partition.
// Properties named in changed are marked with an asterisk.
func FormatDocument(doc *domain.Document, table *diff.Table, changed []string) string {
	marked := make(map[string]bool, len(changed))
	for _, name := range changed {
		marked[name] = true
	}

	meta := []string{
		fmt.Sprintf("%s %s  %s %s  %s %s",
			Dim("id"), doc.DisplayID(),
			Dim("lang"), doc.LanguageCode,
			Dim("flow"), string(doc.FlowCode)),
		StatusPill(doc.StatusCode),
	}

	sections := []string{strings.Join(meta, "\n")}
	for _, partition := range []diff.Partition{diff.PartitionTop, diff.PartitionCommercial, diff.PartitionFunctional, diff.PartitionResource} {
		var rows [][]string
		for _, p := range table.Properties {
			if p.Partition != partition {
				continue
			}
			f, ok := doc.Fields[p.Name]
			if !ok {
				continue
			}
			name := p.Name
			if f.Required {
				name += Dim(" (req)")
			}
			mark := " "
			if marked[p.Name] {
				mark = StyleYellow.Render("*")
			}
			value := Value(f.Value)
			if partition == diff.PartitionResource {
				value = itemsSummary(f.Value)
			}
			rows = append(rows, []string{mark, name, Truncate(value, 72)})
		}
		if len(rows) == 0 {
			continue
		}
		sections = append(sections, Header(string(partition))+"\n"+RenderTable([]string{"", "FIELD", "VALUE"}, rows, ""))
	}

	title := fmt.Sprintf("%s %s", doc.Kind, doc.ExperienceID)
	return RenderBox(title, lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func itemsSummary(v any) string {
	items, err := domain.ItemsFromValue(v)
	if err != nil {
		return StyleRed.Render("unreadable: " + err.Error())
	}
	pending := 0
	for _, it := range items {
		switch it.Action {
		case domain.ActionCreate, domain.ActionEdit, domain.ActionDelete:
			pending++
		}
	}
	s := fmt.Sprintf("%d items", len(items))
	if pending > 0 {
		s += StyleYellow.Render(fmt.Sprintf(" (%d pending)", pending))
	}
	return s
}

// FormatPatch renders the body a save would send.
func FormatPatch(p diff.Patch) string {
	if p.IsEmpty() {
		return Dim("No changes.")
	}
	raw, err := json.MarshalIndent(p.Body(), "", "  ")
	if err != nil {
		return StyleRed.Render(err.Error())
	}
	var b strings.Builder
	b.WriteString(Header("patch"))
	b.WriteString("\n")
	b.WriteString(string(raw))
	b.WriteString("\n")
	if len(p.Changed) > 0 {
		fmt.Fprintf(&b, "%s %s\n", Dim("changed:"), strings.Join(p.Changed, ", "))
	}
	if p.StatusCode != "" {
		fmt.Fprintf(&b, "%s %s\n", Dim("status →"), StatusPill(p.StatusCode))
	}
	return b.String()
}

// FormatJournal renders the API writes recorded for a document.
func FormatJournal(entries []domain.JournalEntry, now time.Time) string {
	headers := []string{"WHEN", "OP", "METHOD", "TARGET", "OUTCOME", "ERROR"}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			HumanTimestamp(e.CreatedAt, now),
			string(e.Operation),
			strings.ToUpper(e.Method),
			e.Target,
			OutcomeBadge(e.Outcome),
			Truncate(e.Error, 60),
		})
	}
	return RenderTable(headers, rows, "nothing sent yet")
}
