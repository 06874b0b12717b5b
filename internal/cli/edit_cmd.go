package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexanderramin/expedit/internal/cli/formatter"
	"github.com/alexanderramin/expedit/internal/diff"
	"github.com/alexanderramin/expedit/internal/domain"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// longTextThreshold switches a field from a single-line input to a text area.
const longTextThreshold = 500

// fieldEdit is one text field offered in the edit form.
type fieldEdit struct {
	Name     string
	Label    string
	Original string
	Value    string
	Long     bool
}

func newEditCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <doc>",
		Short: "Edit the text fields of a document in a form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.interactive() {
				return errors.New("edit needs an interactive terminal; use 'expedit set' instead")
			}
			ctx := cmd.Context()
			doc, err := app.Documents.Get(ctx, args[0])
			if err != nil {
				return err
			}
			table, err := app.Tables.Table(doc.Kind)
			if err != nil {
				return err
			}

			edits := editableFields(doc, table)
			if len(edits) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim("No text fields to edit."))
				return nil
			}
			if err := app.runForm(editForm(edits, table)); err != nil {
				if errors.Is(err, huh.ErrUserAborted) {
					fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim("Cancelled."))
					return nil
				}
				return err
			}

			changed, err := applyEdits(ctx, app, doc.ID, edits)
			if err != nil {
				return err
			}
			if changed == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim("No changes."))
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %d field(s) on %s [%s]; run 'expedit save %s' to send them\n",
				changed, doc.ExperienceID, doc.DisplayID(), doc.DisplayID())
			return nil
		},
	}
}

// editableFields lists the top-level and commercial properties holding
// text, in table order.
func editableFields(doc *domain.Document, table *diff.Table) []*fieldEdit {
	var edits []*fieldEdit
	for _, p := range table.Properties {
		if p.Partition != diff.PartitionTop && p.Partition != diff.PartitionCommercial {
			continue
		}
		f, ok := doc.Fields[p.Name]
		if !ok {
			continue
		}
		var current string
		switch v := f.Value.(type) {
		case nil:
		case string:
			current = v
		default:
			continue
		}
		label := p.Name
		if f.Required {
			label += " *"
		}
		edits = append(edits, &fieldEdit{
			Name:     p.Name,
			Label:    label,
			Original: current,
			Value:    current,
			Long:     p.MaxLength > longTextThreshold,
		})
	}
	return edits
}

func editForm(edits []*fieldEdit, table *diff.Table) *huh.Form {
	fields := make([]huh.Field, 0, len(edits))
	for _, e := range edits {
		validate := func(s string) error {
			p, _ := table.Property(e.Name)
			return table.ValidateField(e.Name, domain.Field{Value: s, Required: p.Required})
		}
		if e.Long {
			fields = append(fields, huh.NewText().Title(e.Label).Value(&e.Value).Validate(validate))
			continue
		}
		fields = append(fields, huh.NewInput().Title(e.Label).Value(&e.Value).Validate(validate))
	}
	return huh.NewForm(huh.NewGroup(fields...)).WithTheme(expeditHuhTheme()).WithShowHelp(true)
}

// applyEdits stores the fields the user changed and returns how many.
func applyEdits(ctx context.Context, app *App, docID string, edits []*fieldEdit) (int, error) {
	changed := 0
	for _, e := range edits {
		if e.Value == e.Original {
			continue
		}
		if _, err := app.Documents.SetField(ctx, docID, e.Name, e.Value); err != nil {
			return changed, fmt.Errorf("%s: %w", e.Name, err)
		}
		changed++
	}
	return changed, nil
}

// expeditHuhTheme returns a huh theme matching the formatter palette.
func expeditHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	t.Focused.TextInput.Cursor = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.ErrorMessage = lipgloss.NewStyle().Foreground(formatter.ColorRed)
	t.Focused.Description = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	return t
}
