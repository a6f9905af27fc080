package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/meridies/eventbid/internal/tui/theme"
)

// ColorForUse returns the bar color for a used/capacity ratio: gain below
// 80%, warn up to full, loss when oversold.
func ColorForUse(pct float64) lipgloss.Color {
	t := theme.Active
	switch {
	case pct > 1:
		return t.Loss
	case pct >= 0.8:
		return t.Warn
	default:
		return t.Gain
	}
}

// CapacityBar renders a labeled bar of used against capacity. A zero capacity
// renders as not offered.
func CapacityBar(label string, used, capacity, labelW, barWidth int) string {
	t := theme.Active

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim)
	head := labelStyle.Render(fmt.Sprintf("%-*s", labelW, label)) + " "

	if capacity <= 0 {
		if used > 0 {
			return head + lipgloss.NewStyle().Foreground(t.Loss).Bold(true).
				Render(fmt.Sprintf("%d sold, none offered", used))
		}
		return head + dimStyle.Render("not offered")
	}

	pct := float64(used) / float64(capacity)
	color := ColorForUse(pct)
	fill := pct
	if fill > 1 {
		fill = 1
	}
	if fill < 0 {
		fill = 0
	}

	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	countStyle := lipgloss.NewStyle().Foreground(color).Bold(true)
	return head + bar.ViewAs(fill) + " " + countStyle.Render(fmt.Sprintf("%d/%d", used, capacity))
}
