package ui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/shelf/internal/session"
	"github.com/five82/shelf/internal/workflow"
)

var errMissingCredentials = errors.New("email and password are required")

// signInState holds the sign-in form.
type signInState struct {
	inputs   [2]textinput.Model // email, password
	focusIdx int
	err      error
	busy     bool
}

func newSignInState() signInState {
	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.CharLimit = 254
	email.Width = LayoutFormWidth - 18

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 128
	password.Width = LayoutFormWidth - 18
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	s := signInState{inputs: [2]textinput.Model{email, password}}
	s.focus(0)
	return s
}

func (s *signInState) focus(idx int) {
	s.focusIdx = (idx%2 + 2) % 2
	for i := range s.inputs {
		if i == s.focusIdx {
			s.inputs[i].Focus()
		} else {
			s.inputs[i].Blur()
		}
	}
}

// handleSignInKey processes keyboard input for the sign-in view.
func (m Model) handleSignInKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "ctrl+c", msg.String() == "esc":
		return m, tea.Quit

	case key.Matches(msg, m.keys.Tab), msg.String() == "down":
		m.signIn.focus(m.signIn.focusIdx + 1)
		return m, nil

	case key.Matches(msg, m.keys.ShiftTab), msg.String() == "up":
		m.signIn.focus(m.signIn.focusIdx - 1)
		return m, nil

	case key.Matches(msg, m.keys.Confirm):
		if m.signIn.focusIdx == 0 {
			m.signIn.focus(1)
			return m, nil
		}
		return m.submitSignIn()
	}

	var cmd tea.Cmd
	m.signIn.inputs[m.signIn.focusIdx], cmd = m.signIn.inputs[m.signIn.focusIdx].Update(msg)
	return m, cmd
}

// submitSignIn exchanges the entered credentials for a token off the update loop.
func (m Model) submitSignIn() (tea.Model, tea.Cmd) {
	if m.signIn.busy || m.auth == nil {
		return m, nil
	}
	email := strings.TrimSpace(m.signIn.inputs[0].Value())
	password := m.signIn.inputs[1].Value()
	if email == "" || password == "" {
		m.signIn.err = errMissingCredentials
		return m, nil
	}

	m.signIn.busy = true
	m.signIn.err = nil
	auth, ctx := m.auth, m.ctx
	return m, func() tea.Msg {
		token, err := auth.SignIn(ctx, email, password)
		return signInDoneMsg{token: token, err: err}
	}
}

func (m Model) handleSignInDone(msg signInDoneMsg) (tea.Model, tea.Cmd) {
	m.signIn.busy = false
	if msg.err != nil {
		m.signIn.err = msg.err
		m.signIn.inputs[1].SetValue("")
		m.signIn.focus(1)
		return m, nil
	}
	if err := m.sess.SignIn(msg.token); err != nil {
		m.signIn.err = err
		return m, nil
	}
	m.setNotice("Signed in")
	cmd := m.navigate(navigation{route: session.RouteList})
	if cmd == nil {
		// A failed list from the previous session is not reloaded by navigation.
		cmd = m.dispatch(workflow.List{})
	}
	return m, cmd
}

// renderSignIn renders the sign-in form.
func (m Model) renderSignIn(height int) string {
	styles := m.theme.Styles()
	s := m.signIn

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Sign in"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", LayoutFormWidth-6)))
	b.WriteString("\n\n")

	labels := [2]string{"Email:    ", "Password: "}
	for i, label := range labels {
		if i == s.focusIdx {
			b.WriteString(styles.AccentText.Render(label))
		} else {
			b.WriteString(styles.MutedText.Render(label))
		}
		b.WriteString(s.inputs[i].View())
		b.WriteString("\n\n")
	}

	switch {
	case s.busy:
		b.WriteString(m.spinner.View() + " " + styles.MutedText.Render("Signing in..."))
	case s.err != nil:
		b.WriteString(styles.DangerText.Render(truncate(s.err.Error(), LayoutFormWidth-6)))
	default:
		b.WriteString(styles.MutedText.Render("enter sign in · tab next field · esc quit"))
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		Padding(1, 2).
		Width(LayoutFormWidth)

	return m.centered(box.Render(b.String()), height)
}
