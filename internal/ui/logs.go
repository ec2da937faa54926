package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/shelf/internal/logtail"
	"github.com/five82/shelf/internal/session"
)

// viewLogsRoute addresses the log view. It is local to the UI and never
// produced by workflows.
const viewLogsRoute session.Route = "/logs"

type logBatchMsg struct {
	entries []logtail.Entry
	err     error
}

// initLogViewport initializes the log viewport.
func (m *Model) initLogViewport() {
	m.logViewport = viewport.New(max(m.width-4, 0), max(m.contentHeight()-2, 0))
	m.logViewport.Style = lipgloss.NewStyle()
}

func (m *Model) resizeLogViewport() {
	m.logViewport.Width = max(m.width-4, 0)
	m.logViewport.Height = max(m.contentHeight()-2, 0)
	m.updateLogViewport(false)
}

// refreshLogs reads the tail of the log file off the update loop.
func (m *Model) refreshLogs() tea.Cmd {
	path := m.logPath
	if path == "" {
		return nil
	}
	return func() tea.Msg {
		lines, err := logtail.Read(path, LogTailLines)
		if err != nil {
			return logBatchMsg{err: err}
		}
		entries := make([]logtail.Entry, 0, len(lines))
		for _, line := range lines {
			if strings.TrimSpace(line) == "" {
				continue
			}
			entries = append(entries, logtail.Parse(line))
		}
		return logBatchMsg{entries: entries}
	}
}

func (m *Model) handleLogBatch(msg logBatchMsg) {
	if msg.err != nil {
		m.logErr = msg.err
		return
	}
	m.logErr = nil
	atBottom := m.logViewport.AtBottom() || len(m.logEntries) == 0
	m.logEntries = msg.entries
	m.updateLogViewport(atBottom)
}

// updateLogViewport re-renders the entries into the viewport. The view
// follows the tail unless the user scrolled up.
func (m *Model) updateLogViewport(follow bool) {
	m.logViewport.Style = lipgloss.NewStyle().Background(lipgloss.Color(m.theme.FocusBg))
	m.logViewport.SetContent(m.renderLogContent())
	if follow {
		m.logViewport.GotoBottom()
	}
}

// handleLogsKey processes keyboard input for the log view.
func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Down):
		m.logViewport.LineDown(1)
	case key.Matches(msg, m.keys.Up):
		m.logViewport.LineUp(1)
	case key.Matches(msg, m.keys.PageDown):
		m.logViewport.HalfViewDown()
	case key.Matches(msg, m.keys.PageUp):
		m.logViewport.HalfViewUp()
	case key.Matches(msg, m.keys.Top):
		m.logViewport.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		m.logViewport.GotoBottom()
	}
	return m, nil
}

// renderLogs renders the log view.
func (m Model) renderLogs(height int) string {
	styles := m.theme.Styles()
	title := "Logs " + truncateMiddle(m.logPath, max(m.width/2, 20))

	var content string
	switch {
	case m.logPath == "":
		content = lipgloss.Place(m.width-2, height-2, lipgloss.Center, lipgloss.Center,
			styles.MutedText.Render("Logging is disabled (no log_file configured)"))
	case m.logErr != nil:
		content = lipgloss.Place(m.width-2, height-2, lipgloss.Center, lipgloss.Center,
			styles.DangerText.Render(truncate(m.logErr.Error(), max(m.width-6, 20))))
	case len(m.logEntries) == 0:
		content = lipgloss.Place(m.width-2, height-2, lipgloss.Center, lipgloss.Center,
			styles.MutedText.Render("No log entries yet"))
	default:
		content = " " + strings.ReplaceAll(m.logViewport.View(), "\n", "\n ")
	}

	return m.renderTitledBox(title, content, m.width, height, true)
}

// renderLogContent colors each entry by level.
func (m Model) renderLogContent() string {
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)
	bg := NewBgStyle(m.theme.FocusBg)

	lines := make([]string, 0, len(m.logEntries))
	for _, e := range m.logEntries {
		lines = append(lines, m.formatLogEntry(e, styles, bg))
	}
	return strings.Join(lines, "\n")
}

func (m Model) formatLogEntry(e logtail.Entry, styles Styles, bg BgStyle) string {
	if e.Raw != "" || (e.Level == "" && e.Message == "") {
		return bg.Render(e.Raw, styles.MutedText)
	}

	levelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.LevelColor(e.Level))).Bold(true)

	var parts []string
	if !e.Time.IsZero() {
		parts = append(parts, bg.Render(e.Time.Local().Format("15:04:05"), styles.FaintText))
	}
	parts = append(parts,
		bg.Render(padRight(strings.ToUpper(e.Level), 5), levelStyle),
		bg.Render(e.Message, styles.Text))

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts,
			bg.Render(k+"=", styles.MutedText)+bg.Render(fmt.Sprint(e.Fields[k]), styles.AccentText))
	}
	return strings.Join(parts, bg.Space())
}
