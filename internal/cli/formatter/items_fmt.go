package formatter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/expedit/internal/domain"
	"github.com/alexanderramin/expedit/internal/resolver"
)

// FormatItems renders the items of one sub-resource with their index, the
// handle the item commands take.
func FormatItems(key domain.ResourceKey, items []domain.ManageableItem) string {
	headers := []string{"#", "ID", "NAME", "CODE", "ORDER", "ACTION"}
	rows := make([][]string, 0, len(items))
	for i, it := range items {
		id := Dim("(new)")
		if it.HasID() {
			id = it.IDValue()
		}
		name := it.Name
		if strings.TrimSpace(name) == "" {
			name = Dim("(empty)")
		}
		rows = append(rows, []string{
			strconv.Itoa(i),
			id,
			name,
			it.Code,
			strconv.Itoa(it.VisualizationOrder),
			ActionBadge(it.Action),
		})
	}
	return Header(string(key)) + "\n" + RenderTable(headers, rows, "no items")
}

// FormatActions renders a commit plan.
func FormatActions(actions []resolver.Action) string {
	if len(actions) == 0 {
		return Dim("Nothing to commit.")
	}
	headers := []string{"METHOD", "TARGET", "ORDER", "NAME"}
	rows := make([][]string, 0, len(actions))
	for _, a := range actions {
		order, name := Dim("--"), Dim("--")
		if a.Item != nil {
			order = strconv.Itoa(a.Item.VisualizationOrder)
			name = a.Item.Name
		}
		rows = append(rows, []string{methodLabel(a.Method), a.Target(), order, name})
	}
	return RenderTable(headers, rows, "")
}

// CommitOutcome pairs an action with its settled error.
type CommitOutcome struct {
	Action resolver.Action
	Err    error
}

// FormatCommit renders the settled outcome of every action, in plan order.
func FormatCommit(outcomes []CommitOutcome, elapsed time.Duration) string {
	if len(outcomes) == 0 {
		return Dim("Nothing to commit.")
	}
	var b strings.Builder
	failed := 0
	for _, o := range outcomes {
		status := StyleGreen.Render("✔")
		detail := ""
		if o.Err != nil {
			failed++
			status = StyleRed.Render("✖")
			detail = "  " + StyleRed.Render(o.Err.Error())
		}
		fmt.Fprintf(&b, "%s %s %s%s\n", status, methodLabel(o.Action.Method), o.Action.Target(), detail)
	}
	summary := fmt.Sprintf("%d sent, %d failed in %s", len(outcomes)-failed, failed, elapsed.Round(time.Millisecond))
	if failed > 0 {
		b.WriteString(StyleRed.Render(summary))
		b.WriteString("\n")
		b.WriteString(Dim("Local items were kept; inspect the journal and commit again."))
	} else {
		b.WriteString(StyleGreen.Render(summary))
	}
	b.WriteString("\n")
	return b.String()
}

func methodLabel(m resolver.Method) string {
	switch m {
	case resolver.MethodPost:
		return StyleGreen.Render("POST  ")
	case resolver.MethodPut:
		return StyleYellow.Render("PUT   ")
	case resolver.MethodDel:
		return StyleRed.Render("DELETE")
	default:
		return string(m)
	}
}
