package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/shelf/internal/book"
	"github.com/five82/shelf/internal/workflow"
)

// Modal is the interface for modal dialogs.
// The Update method returns the updated modal, a command, and a bool indicating if the modal should close.
type Modal interface {
	Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool)
	View(theme Theme, width, height int) string
}

// confirmDeleteMsg is sent when the user accepts a delete confirmation.
type confirmDeleteMsg struct {
	id book.ID
}

// confirmDelete asks before removing a book.
type confirmDelete struct {
	book book.Book
}

func (c confirmDelete) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return c, nil, false
	}
	switch {
	case key.Matches(keyMsg, keys.Yes), key.Matches(keyMsg, keys.Confirm):
		id := c.book.ID
		return c, func() tea.Msg { return confirmDeleteMsg{id: id} }, true
	case key.Matches(keyMsg, keys.No):
		return c, nil, true
	}
	return c, nil, false
}

func (c confirmDelete) View(theme Theme, width, height int) string {
	styles := theme.Styles()

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Delete book?"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 30)))
	b.WriteString("\n\n")
	b.WriteString(styles.Text.Render(truncate(c.book.Title, 34)))
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render(truncate(c.book.Author, 34)))
	b.WriteString("\n\n")
	b.WriteString(styles.WarningText.Render("y"))
	b.WriteString(styles.MutedText.Render(" delete   "))
	b.WriteString(styles.WarningText.Render("n"))
	b.WriteString(styles.MutedText.Render(" keep"))

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.Danger)).
		Padding(1, 2).
		Width(40)

	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		modal.Render(b.String()),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(theme.Background)),
	)
}

// requestDelete opens the confirmation modal, or deletes straight away when
// confirmations are turned off.
func (m *Model) requestDelete(b book.Book) tea.Cmd {
	if m.prefs.ConfirmDelete {
		m.modal = confirmDelete{book: b}
		return nil
	}
	return m.dispatch(workflow.Delete{ID: b.ID})
}
