package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/meridies/eventbid/internal/tui/theme"
)

// RenderStatusBar renders the bottom bar: key hints on the left and the last
// message on the right. Dirty sessions get a marker before the message.
func RenderStatusBar(width int, message string, dirty bool) string {
	t := theme.Active

	style := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface).
		Width(width)
	dirtyStyle := lipgloss.NewStyle().Foreground(t.Warn).Background(t.Surface).Bold(true)

	left := " [?]help  [m]ode  [s]ave  [t]heme  [q]uit"
	right := message + " "
	if dirty {
		right = dirtyStyle.Render("● unsaved") + "  " + right
	}

	padding := width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 0 {
		padding = 0
	}
	return style.Render(left + strings.Repeat(" ", padding) + right)
}
