package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/cashflowcast/internal/tui/theme"
)

// RenderStatusBar renders the bottom status bar: key hints on the left, an
// optional flash message in the middle and the forecast date on the right.
func RenderStatusBar(width int, flash, today string, warn bool) string {
	t := theme.Active

	base := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	flashStyle := lipgloss.NewStyle().Foreground(t.GreenBright).Background(t.Surface)
	if warn {
		flashStyle = flashStyle.Foreground(t.Orange)
	}

	left := base.Render(" [?]help  [r]eload  [q]uit")
	if flash != "" {
		left += base.Render("  ") + flashStyle.Render(flash)
	}
	right := ""
	if today != "" {
		right = base.Render("as of " + today + " ")
	}

	padding := max(0, width-lipgloss.Width(left)-lipgloss.Width(right))
	return left + base.Render(strings.Repeat(" ", padding)) + right
}
