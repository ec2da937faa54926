package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/shelf/internal/apperr"
	"github.com/five82/shelf/internal/state"
)

// renderHeader renders the status bar and the notice line under it.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	compact := m.width < LayoutCompactWidth

	parts := []string{bg.Render("shelf", styles.Logo)}

	if m.currentView == ViewSignIn {
		parts = append(parts, bg.Render("Signed out", styles.MutedText))
	} else {
		res := m.snapshot.Result
		status := res.Status().String()
		badge := styles.StatusStyle(status).Render(strings.ToUpper(status))
		parts = append(parts, badge)

		if res.HasData() {
			parts = append(parts,
				bg.Render("Books:", styles.MutedText)+bg.Space()+
					bg.Render(fmt.Sprintf("%d", res.Len()), styles.Text))
		}
		if m.snapshot.IsOffline() {
			parts = append(parts, bg.Render("OFFLINE", styles.DangerText))
		}
		if res.Status() == state.StatusFailed && !compact {
			parts = append(parts, bg.Render(titleCase(apperr.KindOf(res.Err()).String()), styles.WarningText))
		}
		if ts := m.formatTimestamp(); ts != "" && !compact {
			parts = append(parts, bg.Render(ts, styles.FaintText))
		}
	}

	line := lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Surface)).
		Foreground(lipgloss.Color(m.theme.Text)).
		Width(m.width).
		Render(bg.Join(parts, "  "))

	return line + "\n" + m.renderNotice()
}

// renderNotice renders the last error or confirmation message.
func (m Model) renderNotice() string {
	styles := m.theme.Styles().WithBackground(m.theme.Background)
	bg := NewBgStyle(m.theme.Background)

	text := ""
	if m.notice != "" {
		style := styles.SuccessText
		if m.noticeIsErr {
			style = styles.DangerText
		}
		text = bg.Render(truncate(m.notice, max(m.width-2, 10)), style)
	}
	return bg.FillLine(" "+text, m.width)
}

// formatTimestamp formats the last update time with relative indicator.
func (m Model) formatTimestamp() string {
	if m.lastUpdated.IsZero() {
		return ""
	}

	timeSince := time.Since(m.lastUpdated)
	timeStr := m.lastUpdated.Format("15:04:05")

	if timeSince < time.Minute {
		timeStr += " (now)"
	} else if timeSince < time.Hour {
		timeStr += fmt.Sprintf(" (%dm ago)", int(timeSince.Minutes()))
	} else if timeSince < 24*time.Hour {
		timeStr += fmt.Sprintf(" (%dh ago)", int(timeSince.Hours()))
	}

	return timeStr
}

// renderCommandBar renders the command hints for the current view.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd

	switch m.currentView {
	case ViewSignIn:
		commands = []cmd{
			{"tab", "Next field"},
			{"enter", "Sign in"},
			{"ctrl+c", "Quit"},
		}
	case ViewForm:
		commands = []cmd{
			{"tab", "Next field"},
			{"enter", "Save"},
			{"esc", "Cancel"},
		}
	case ViewDetail:
		commands = []cmd{
			{"e", "Edit"},
			{"d", "Delete"},
			{"esc", "Back"},
			{"?", "More"},
		}
	case ViewLogs:
		commands = []cmd{
			{"j/k", "Scroll"},
			{"G", "Bottom"},
			{"esc", "Back"},
			{"?", "More"},
		}
	default: // ViewList
		commands = []cmd{
			{"j/k", "Navigate"},
			{"enter", "Open"},
			{"a", "Add"},
			{"e", "Edit"},
			{"d", "Delete"},
			{"r", "Refresh"},
			{"l", "Logs"},
			{"?", "More"},
		}
	}

	colon := bg.Sep(":")
	sep := bg.Spaces(2)

	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}

	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).Render(strings.Join(segments, sep))
}

// renderTitledBox renders content in a box with the title embedded in the
// top border: ┌─── Title ───┐
func (m Model) renderTitledBox(title, content string, width, height int, focused bool) string {
	var borderColorStr, bgColorStr string
	if focused {
		borderColorStr = m.theme.BorderFocus
		bgColorStr = m.theme.FocusBg
	} else {
		borderColorStr = m.theme.Border
		bgColorStr = m.theme.SurfaceAlt
	}
	bg := NewBgStyle(bgColorStr)
	borderStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(borderColorStr))
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.Text))

	innerWidth := max(width-2, 0)
	title = truncate(title, max(innerWidth-4, 0))
	titleLen := lipgloss.Width(title)
	leftPad := max((innerWidth-titleLen-2)/2, 0)
	rightPad := max(innerWidth-titleLen-2-leftPad, 0)

	topBorder := bg.Render("┌", borderStyle) +
		bg.Render(strings.Repeat("─", leftPad), borderStyle) +
		bg.Render(" "+title+" ", titleStyle) +
		bg.Render(strings.Repeat("─", rightPad), borderStyle) +
		bg.Render("┐", borderStyle)

	bottomBorder := bg.Render("└", borderStyle) +
		bg.Render(strings.Repeat("─", innerWidth), borderStyle) +
		bg.Render("┘", borderStyle)

	contentStyle := lipgloss.NewStyle().
		Width(innerWidth).
		MaxWidth(innerWidth).
		Background(lipgloss.Color(bgColorStr))

	contentLines := strings.Split(content, "\n")
	boxHeight := max(height-2, 0)

	lines := make([]string, 0, boxHeight)
	for i := 0; i < boxHeight; i++ {
		var line string
		if i < len(contentLines) {
			line = contentLines[i]
		}
		lines = append(lines,
			bg.Render("│", borderStyle)+
				contentStyle.Render(line)+
				bg.Render("│", borderStyle))
	}

	return topBorder + "\n" + strings.Join(lines, "\n") + "\n" + bottomBorder
}
