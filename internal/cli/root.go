package cli

import (
	"time"

	"github.com/alexanderramin/expedit/internal/diff"
	"github.com/alexanderramin/expedit/internal/service"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

// App holds the services and terminal hooks the commands use.
type App struct {
	Documents service.DocumentService
	Items     service.ItemService
	History   service.HistoryService
	Tables    *diff.Registry

	// IsInteractive reports whether stdin is a terminal. Nil means no.
	IsInteractive func() bool
	// RunForm and RunProgram drive huh forms and bubbletea programs.
	// Tests replace them; nil uses the real terminal.
	RunForm    func(*huh.Form) error
	RunProgram func(tea.Model) error

	Now func() time.Time
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now().UTC()
}

func (a *App) runForm(f *huh.Form) error {
	if a.RunForm != nil {
		return a.RunForm(f)
	}
	return f.Run()
}

func (a *App) runProgram(m tea.Model) error {
	if a.RunProgram != nil {
		return a.RunProgram(m)
	}
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

// NewRootCmd creates the top-level "expedit" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "expedit",
		Short:         "Edit experience documents against the editorial API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newPullCmd(app),
		newListCmd(app),
		newShowCmd(app),
		newSetCmd(app),
		newEditCmd(app),
		newValidateCmd(app),
		newDiffCmd(app),
		newSaveCmd(app),
		newPublishCmd(app),
		newDeleteCmd(app),
		newJournalCmd(app),
		newItemsCmd(app),
		newHistoryCmd(app),
	)

	return root
}
