package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/shelf/internal/apperr"
	"github.com/five82/shelf/internal/book"
	"github.com/five82/shelf/internal/workflow"
)

type formKind int

const (
	formAdd formKind = iota
	formEdit
)

// formFields lists the book form inputs in focus order. Names match the
// field names reported by book.Request.Validate.
var formFields = [...]struct {
	name        string
	label       string
	placeholder string
	limit       int
}{
	{"title", "Title:  ", "e.g. Dune", 200},
	{"author", "Author: ", "e.g. Frank Herbert", 200},
	{"url", "URL:    ", "https://", 2048},
}

// formState holds the add/edit form.
type formState struct {
	kind       formKind
	id         book.ID
	inputs     [len(formFields)]textinput.Model
	focusIdx   int
	fieldErrs  map[string]string
	err        string
	submitting bool
}

func newFormState(kind formKind, id book.ID, req book.Request) formState {
	f := formState{kind: kind, id: id}
	values := [len(formFields)]string{req.Title, req.Author, req.URL}
	for i, field := range formFields {
		in := textinput.New()
		in.Placeholder = field.placeholder
		in.CharLimit = field.limit
		in.Width = LayoutFormWidth - 16
		in.SetValue(values[i])
		f.inputs[i] = in
	}
	f.focus(0)
	return f
}

// request returns the form contents as a book request.
func (f formState) request() book.Request {
	return book.Request{
		Title:  f.inputs[0].Value(),
		Author: f.inputs[1].Value(),
		URL:    f.inputs[2].Value(),
	}.Normalize()
}

func (f *formState) focus(idx int) {
	n := len(f.inputs)
	f.focusIdx = (idx%n + n) % n
	for i := range f.inputs {
		if i == f.focusIdx {
			f.inputs[i].Focus()
		} else {
			f.inputs[i].Blur()
		}
	}
}

// absorb shows err on the form when it is a validation failure. It reports
// whether the error was handled here.
func (f *formState) absorb(err error) bool {
	f.submitting = false
	if !apperr.IsKind(err, apperr.KindValidation) {
		return false
	}

	f.fieldErrs = make(map[string]string)
	f.err = ""
	fields := apperr.FieldsOf(err)
	for _, fe := range fields {
		f.fieldErrs[fe.Field] = fe.Message
	}
	if len(fields) == 0 {
		f.err = err.Error()
	}
	for i, field := range formFields {
		if _, bad := f.fieldErrs[field.name]; bad {
			f.focus(i)
			break
		}
	}
	return true
}

// handleFormKey processes keyboard input for the add/edit form.
func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "ctrl+c":
		return m, tea.Quit

	case key.Matches(msg, m.keys.Escape):
		return m, m.navigate(navigation{back: true})

	case key.Matches(msg, m.keys.Tab), msg.String() == "down":
		m.form.focus(m.form.focusIdx + 1)
		return m, nil

	case key.Matches(msg, m.keys.ShiftTab), msg.String() == "up":
		m.form.focus(m.form.focusIdx - 1)
		return m, nil

	case key.Matches(msg, m.keys.Confirm):
		return m.submitForm()
	}

	var cmd tea.Cmd
	m.form.inputs[m.form.focusIdx], cmd = m.form.inputs[m.form.focusIdx].Update(msg)
	return m, cmd
}

// submitForm validates the form and dispatches Add or Edit. Invalid input
// never reaches the store.
func (m Model) submitForm() (tea.Model, tea.Cmd) {
	if m.form.submitting {
		return m, nil
	}

	req := m.form.request()
	if err := req.Validate(); err != nil {
		m.form.absorb(err)
		return m, nil
	}
	m.form.fieldErrs = nil
	m.form.err = ""

	var in workflow.Intent = workflow.Add{Request: req}
	if m.form.kind == formEdit {
		in = workflow.Edit{ID: m.form.id, Request: req}
	}

	cmd := m.dispatch(in)
	m.form.submitting = cmd != nil
	return m, cmd
}

// renderForm renders the add/edit form.
func (m Model) renderForm(height int) string {
	styles := m.theme.Styles()
	f := m.form

	title := "Add Book"
	if f.kind == formEdit {
		title = "Edit Book #" + f.id.String()
	}

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render(title))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", LayoutFormWidth-6)))
	b.WriteString("\n\n")

	for i, field := range formFields {
		label := styles.MutedText.Render(field.label)
		if i == f.focusIdx {
			label = styles.AccentText.Render(field.label)
		}
		b.WriteString(label)
		b.WriteString(f.inputs[i].View())
		b.WriteString("\n")
		if msg := f.fieldErrs[field.name]; msg != "" {
			b.WriteString(strings.Repeat(" ", len(field.label)))
			b.WriteString(styles.DangerText.Render(msg))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case f.submitting:
		b.WriteString(m.spinner.View() + " " + styles.MutedText.Render("Saving..."))
	case f.err != "":
		b.WriteString(styles.DangerText.Render(truncate(f.err, LayoutFormWidth-6)))
	default:
		b.WriteString(styles.MutedText.Render("enter save · tab next field · esc cancel"))
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.BorderFocus)).
		Padding(1, 2).
		Width(LayoutFormWidth)

	return m.centered(box.Render(b.String()), height)
}
