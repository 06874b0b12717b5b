package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/expedit/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

// Predefined lipgloss styles.
var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg     = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// StatusPill returns a colored indicator for a document status.
func StatusPill(status domain.StatusCode) string {
	switch status {
	case domain.StatusUpToDate:
		return StyleGreen.Render("● UP_TO_DATE")
	case domain.StatusInReview:
		return StyleYellow.Render("◐ IN_REVIEW")
	case domain.StatusSentToReview:
		return StyleBlue.Render("◑ SENT_TO_REVIEW")
	case domain.StatusInCreation:
		return StylePurple.Render("○ IN_CREATION")
	case domain.StatusReady:
		return StyleGreen.Render("✔ READY")
	case domain.StatusToBeEdit:
		return StyleRed.Render("✎ TO_BE_EDIT")
	case "":
		return StyleDim.Render("--")
	default:
		return StyleDim.Render(string(status))
	}
}

// ActionBadge renders the pending action of a manageable item.
func ActionBadge(a domain.Action) string {
	switch a {
	case domain.ActionCreate:
		return StyleGreen.Render("+ create")
	case domain.ActionEdit:
		return StyleYellow.Render("~ edit")
	case domain.ActionDelete:
		return StyleRed.Render("- delete")
	case domain.ActionRemove:
		return StyleDim.Render("× remove")
	default:
		return StyleDim.Render("·")
	}
}

// OutcomeBadge renders a journal outcome.
func OutcomeBadge(o domain.Outcome) string {
	if o == domain.OutcomeOK {
		return StyleGreen.Render("✔ ok")
	}
	return StyleRed.Render("✖ failed")
}

// Header renders a section header with the orange header style and an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", len(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

// Dim renders text in the muted/dim color.
func Dim(text string) string {
	return StyleDim.Render(text)
}

// Bold renders text in bold with the foreground color.
func Bold(text string) string {
	return StyleBold.Render(text)
}
