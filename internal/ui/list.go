package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/shelf/internal/apperr"
	"github.com/five82/shelf/internal/book"
	"github.com/five82/shelf/internal/session"
	"github.com/five82/shelf/internal/state"
)

// handleListKey processes keyboard input for the list view.
func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	books := m.snapshot.Result.Data()
	count := len(books)
	if count == 0 {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Down):
		if m.selectedRow < count-1 {
			m.selectedRow++
		}
	case key.Matches(msg, m.keys.Up):
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case key.Matches(msg, m.keys.Top):
		m.selectedRow = 0
	case key.Matches(msg, m.keys.Bottom):
		m.selectedRow = count - 1
	case key.Matches(msg, m.keys.PageDown):
		m.selectedRow = min(m.selectedRow+m.pageSize(), count-1)
	case key.Matches(msg, m.keys.PageUp):
		m.selectedRow = max(m.selectedRow-m.pageSize(), 0)
	case key.Matches(msg, m.keys.Open):
		if b, ok := m.selectedBook(); ok {
			return m, m.navigate(navigation{route: session.DetailRoute(b.ID)})
		}
	case key.Matches(msg, m.keys.Edit):
		if b, ok := m.selectedBook(); ok {
			return m, m.navigate(navigation{route: session.EditRoute(b.ID)})
		}
	case key.Matches(msg, m.keys.Delete):
		if b, ok := m.selectedBook(); ok {
			return m, m.requestDelete(b)
		}
	}

	return m, nil
}

// selectedBook returns the highlighted row of the current snapshot.
func (m Model) selectedBook() (book.Book, bool) {
	books := m.snapshot.Result.Data()
	if m.selectedRow < 0 || m.selectedRow >= len(books) {
		return book.Book{}, false
	}
	return books[m.selectedRow], true
}

func (m Model) pageSize() int {
	return max(m.contentHeight()-2, 1)
}

// renderList renders the book list with its loading and failure states.
// Rows from a previous success stay visible while a refresh is in flight.
func (m Model) renderList(height int) string {
	styles := m.theme.Styles()
	res := m.snapshot.Result
	innerWidth, innerHeight := m.width-2, height-2

	if res.Len() > 0 {
		content := m.renderRows(res.Data(), innerWidth, innerHeight)
		return m.renderTitledBox(m.listTitle(), content, m.width, height, true)
	}

	var content string
	switch res.Status() {
	case state.StatusFailed:
		content = m.renderFailure(res.Err(), innerWidth)
	case state.StatusIdle:
		content = styles.MutedText.Render("Press r to load your books")
	case state.StatusLoading:
		content = m.spinner.View() + " " + styles.MutedText.Render("Loading books...")
	default:
		content = styles.MutedText.Render("No books yet. Press a to add one.")
	}
	content = lipgloss.Place(innerWidth, innerHeight, lipgloss.Center, lipgloss.Center, content)

	return m.renderTitledBox(m.listTitle(), content, m.width, height, true)
}

func (m Model) listTitle() string {
	res := m.snapshot.Result
	title := "Books"
	if res.HasData() {
		title = fmt.Sprintf("Books (%d)", res.Len())
	}
	if res.IsLoading() {
		title += " · refreshing"
	}
	return title
}

// renderRows renders the visible window of rows, keeping the selection in view.
func (m Model) renderRows(books []book.Book, width, height int) string {
	if len(books) == 0 || height <= 0 {
		return ""
	}

	start := 0
	if m.selectedRow >= height {
		start = m.selectedRow - height + 1
	}
	end := min(start+height, len(books))

	bgColor := m.theme.FocusBg
	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		selected := i == m.selectedRow
		rowBg := bgColor
		if selected {
			rowBg = m.theme.SelectionBg
		}
		content := m.formatRowContent(books[i], width, rowBg, selected)
		lines = append(lines, lipgloss.NewStyle().
			Background(lipgloss.Color(rowBg)).
			Width(width).
			Render(content))
	}
	return strings.Join(lines, "\n")
}

// formatRowContent formats a book row as "#ID Title · Author".
// Selected rows use SelectionText for every part to keep contrast.
func (m Model) formatRowContent(b book.Book, width int, bgColor string, selected bool) string {
	bg := NewBgStyle(bgColor)

	idStr := "#" + b.ID.String()
	author := truncate(b.Author, max(width/3, 8))
	separatorLen := 3 // " · "
	titleWidth := max(width-len(idStr)-lipgloss.Width(author)-separatorLen-2, 10)

	var idStyle, titleStyle, sepStyle, authorStyle lipgloss.Style
	if selected {
		selText := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.SelectionText))
		idStyle, titleStyle, sepStyle, authorStyle = selText, selText, selText, selText
	} else {
		styles := m.theme.Styles()
		idStyle = styles.MutedText
		titleStyle = styles.Text
		sepStyle = styles.FaintText
		authorStyle = styles.AccentText
	}

	return bg.Render(idStr, idStyle) + bg.Space() +
		bg.Render(truncate(b.Title, titleWidth), titleStyle) +
		bg.Render(" · ", sepStyle) +
		bg.Render(author, authorStyle)
}

// renderFailure renders a failed result with its kind and a retry hint.
func (m Model) renderFailure(err error, width int) string {
	styles := m.theme.Styles()
	label := failureLabel(apperr.KindOf(err))

	var b strings.Builder
	b.WriteString(styles.DangerText.Render(label))
	b.WriteString("\n\n")
	if err != nil {
		b.WriteString(styles.Text.Render(truncate(err.Error(), max(width-4, 20))))
		b.WriteString("\n\n")
	}
	hint := "Press r to retry"
	if apperr.IsKind(err, apperr.KindAuth) {
		hint = "Sign in again to continue"
	}
	b.WriteString(styles.MutedText.Render(hint))
	return b.String()
}

func failureLabel(kind apperr.Kind) string {
	switch kind {
	case apperr.KindValidation:
		return "Invalid book"
	case apperr.KindAuth:
		return "Not signed in"
	case apperr.KindNotFound:
		return "Book not found"
	default:
		return "Could not reach the book service"
	}
}
