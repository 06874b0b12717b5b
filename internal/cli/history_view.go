package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/expedit/internal/cli/formatter"
	"github.com/alexanderramin/expedit/internal/domain"
	"github.com/alexanderramin/expedit/internal/history"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

type historyKeyMap struct {
	Badges key.Binding
	Quit   key.Binding
}

func defaultHistoryKeys() historyKeyMap {
	return historyKeyMap{
		Badges: key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "badges only")),
		Quit:   key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// historyModel is a scrollable view over one version list.
type historyModel struct {
	title    string
	versions []domain.VersionInfo
	now      time.Time

	keys       historyKeyMap
	viewport   viewport.Model
	ready      bool
	badgesOnly bool
}

func newHistoryModel(experienceID string, flow domain.FlowCode, versions []domain.VersionInfo, now time.Time) *historyModel {
	return &historyModel{
		title:    fmt.Sprintf("%s %s", experienceID, flow),
		versions: versions,
		now:      now,
		keys:     defaultHistoryKeys(),
	}
}

func (m *historyModel) Init() tea.Cmd { return nil }

func (m *historyModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		height := max(msg.Height-4, 1)
		if !m.ready {
			m.viewport = viewport.New(msg.Width, height)
			m.viewport.KeyMap = historyViewportKeys()
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = height
		}
		m.viewport.SetContent(m.content())
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Badges):
			m.badgesOnly = !m.badgesOnly
			m.viewport.SetContent(m.content())
			m.viewport.GotoTop()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *historyModel) View() string {
	if !m.ready {
		return "loading..."
	}
	header := formatter.Header(m.title)
	hints := []string{
		formatter.Dim(m.keys.Badges.Help().Key + ": " + m.keys.Badges.Help().Desc),
		formatter.Dim(m.keys.Quit.Help().Key + ": " + m.keys.Quit.Help().Desc),
		scrollIndicator(m.viewport),
	}
	return header + "\n" + m.viewport.View() + "\n" + strings.Join(hints, "  ")
}

// visible returns the versions the view currently lists.
func (m *historyModel) visible() []domain.VersionInfo {
	if !m.badgesOnly {
		return m.versions
	}
	idx := history.Flagged(m.versions)
	out := make([]domain.VersionInfo, 0, len(idx))
	for _, i := range idx {
		out = append(out, m.versions[i])
	}
	return out
}

func (m *historyModel) content() string {
	return formatter.FormatVersions(m.visible(), m.now)
}

// historyViewportKeys leaves letter keys free for the view's own bindings.
func historyViewportKeys() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		Up:           key.NewBinding(key.WithKeys("up")),
		Down:         key.NewBinding(key.WithKeys("down")),
	}
}

func scrollIndicator(vp viewport.Model) string {
	switch {
	case vp.AtTop():
		return formatter.Dim("[TOP]")
	case vp.AtBottom():
		return formatter.Dim("[END]")
	default:
		return formatter.Dim(fmt.Sprintf("[%d%%]", int(vp.ScrollPercent()*100)))
	}
}
