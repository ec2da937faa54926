package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/shelf/internal/book"
	"github.com/five82/shelf/internal/session"
	"github.com/five82/shelf/internal/state"
)

const detailLabelWidth = 10

// handleDetailKey processes keyboard input for the detail view.
func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	b, ok := book.Find(m.snapshot.Result.Data(), m.detailID)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Edit):
		return m, m.navigate(navigation{route: session.EditRoute(b.ID)})
	case key.Matches(msg, m.keys.Delete):
		return m, m.requestDelete(b)
	}
	return m, nil
}

// renderDetail renders the fields of the book addressed by the route.
func (m Model) renderDetail(height int) string {
	styles := m.theme.Styles()
	res := m.snapshot.Result
	innerWidth, innerHeight := m.width-2, height-2
	title := "Book #" + m.detailID.String()

	b, ok := book.Find(res.Data(), m.detailID)
	if !ok {
		var content string
		switch {
		case res.Status() == state.StatusFailed:
			content = m.renderFailure(res.Err(), innerWidth)
		case res.IsLoading():
			content = m.spinner.View() + " " + styles.MutedText.Render("Loading book...")
		default:
			content = styles.MutedText.Render("This book is not in your list")
		}
		content = lipgloss.Place(innerWidth, innerHeight, lipgloss.Center, lipgloss.Center, content)
		return m.renderTitledBox(title, content, m.width, height, true)
	}

	return m.renderTitledBox(title, m.renderDetailContent(b, innerWidth, m.theme.FocusBg), m.width, height, true)
}

// renderDetailContent lays the book out as label/value rows.
func (m Model) renderDetailContent(b book.Book, width int, bgColor string) string {
	styles := m.theme.Styles().WithBackground(bgColor)
	bg := NewBgStyle(bgColor)
	valueWidth := max(width-detailLabelWidth-2, 10)

	added := "unknown"
	if !b.CreatedAt.IsZero() {
		added = b.CreatedAt.Local().Format("2006-01-02 15:04")
	}

	rows := []struct {
		label string
		value string
		style lipgloss.Style
	}{
		{"Title", b.Title, styles.Text.Bold(true)},
		{"Author", b.Author, styles.AccentText},
		{"URL", truncateMiddle(b.URL, valueWidth), styles.InfoText},
		{"Added", added, styles.MutedText},
	}

	var out strings.Builder
	out.WriteString("\n")
	for _, row := range rows {
		out.WriteString(bg.Space())
		out.WriteString(bg.Render(padRight(row.label, detailLabelWidth), styles.FaintText))
		out.WriteString(bg.Render(truncate(row.value, valueWidth), row.style))
		out.WriteString("\n")
	}
	return out.String()
}
