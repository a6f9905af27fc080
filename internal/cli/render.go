package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/meridies/eventbid/internal/model"
	"github.com/meridies/eventbid/internal/projection"
)

// Theme colors (Flexoki Dark)
var (
	ColorBg        = lipgloss.Color("#100F0F")
	ColorSurface   = lipgloss.Color("#1C1B1A")
	ColorBorder    = lipgloss.Color("#282726")
	ColorTextDim   = lipgloss.Color("#575653")
	ColorTextMuted = lipgloss.Color("#6F6E69")
	ColorText      = lipgloss.Color("#FFFCF0")
	ColorAccent    = lipgloss.Color("#3AA99F")
	ColorGreen     = lipgloss.Color("#879A39")
	ColorOrange    = lipgloss.Color("#DA702C")
	ColorRed       = lipgloss.Color("#D14D41")
	ColorBlue      = lipgloss.Color("#4385BE")
	ColorPurple    = lipgloss.Color("#8B7EC8")
	ColorYellow    = lipgloss.Color("#D0A215")
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText).
			Align(lipgloss.Center)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent)

	valueStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	mutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	gainStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)

	lossStyle = lipgloss.NewStyle().
			Foreground(ColorRed)

	warnStyle = lipgloss.NewStyle().
			Foreground(ColorOrange)

	dimStyle = lipgloss.NewStyle().
			Foreground(ColorTextDim)
)

// Table represents a bordered text table for CLI output.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	Widths  []int // optional column widths, auto-calculated if nil
}

// RenderTitle renders a centered title bar in a bordered box.
func RenderTitle(title string) string {
	width := 55
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(width).
		Align(lipgloss.Center).
		Padding(0, 1)

	return border.Render(titleStyle.Render(title))
}

// RenderTable renders a bordered table with headers and rows. A row holding
// the single cell "---" renders as a separator.
func RenderTable(t Table) string {
	if len(t.Rows) == 0 && len(t.Headers) == 0 {
		return ""
	}

	numCols := len(t.Headers)
	if numCols == 0 && len(t.Rows) > 0 {
		numCols = len(t.Rows[0])
	}

	widths := make([]int, numCols)
	if t.Widths != nil {
		copy(widths, t.Widths)
	} else {
		for i, h := range t.Headers {
			if w := lipgloss.Width(h); w > widths[i] {
				widths[i] = w
			}
		}
		for _, row := range t.Rows {
			for i, cell := range row {
				if i < numCols && lipgloss.Width(cell) > widths[i] {
					widths[i] = lipgloss.Width(cell)
				}
			}
		}
	}

	var b strings.Builder

	if t.Title != "" {
		b.WriteString("  ")
		b.WriteString(headerStyle.Render(t.Title))
		b.WriteString("\n")
	}

	rule := func(left, mid, right string) {
		b.WriteString(dimStyle.Render(left))
		for i, w := range widths {
			b.WriteString(dimStyle.Render(strings.Repeat("─", w+2)))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render(mid))
			}
		}
		b.WriteString(dimStyle.Render(right))
		b.WriteString("\n")
	}

	rule("╭", "┬", "╮")

	if len(t.Headers) > 0 {
		b.WriteString(dimStyle.Render("│"))
		for i, h := range t.Headers {
			padded := fmt.Sprintf(" %-*s ", widths[i], h)
			b.WriteString(headerStyle.Render(padded))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render("│"))
			}
		}
		b.WriteString(dimStyle.Render("│"))
		b.WriteString("\n")
		rule("├", "┼", "┤")
	}

	for _, row := range t.Rows {
		if len(row) == 1 && row[0] == "---" {
			rule("├", "┼", "┤")
			continue
		}

		b.WriteString(dimStyle.Render("│"))
		for i := 0; i < numCols; i++ {
			w := widths[i]
			cell := ""
			if i < len(row) {
				cell = row[i]
			}

			// First column is a label; the rest are right-aligned values.
			var padded string
			if i == 0 {
				padded = fmt.Sprintf(" %-*s ", w, cell)
			} else {
				padded = fmt.Sprintf(" %*s ", w, cell)
			}
			b.WriteString(valueStyle.Render(padded))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render("│"))
			}
		}
		b.WriteString(dimStyle.Render("│"))
		b.WriteString("\n")
	}

	rule("╰", "┴", "╯")
	return b.String()
}

// ReportTable lays a projection out as metric/value rows.
func ReportTable(r projection.Report) Table {
	money := FormatMoney
	return Table{
		Title:   fmt.Sprintf("Financial Projection (%s)", r.Mode),
		Headers: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Attendees", FormatNumber(int64(r.TotalAttendees))},
			{"---"},
			{"Gate revenue", money(r.GateRevenue)},
			{"Fixed costs", money(r.FixedCosts)},
			{"Variable site cost", money(r.VariableCost)},
			{"Gate net", FormatSignedMoney(r.GateNet)},
			{"---"},
			{"Feast revenue", money(r.FeastRevenue)},
			{"Feast expense", money(r.FeastExpense)},
			{"Feast net", FormatSignedMoney(r.FeastNet)},
			{"---"},
			{"Bed revenue", money(r.BedRevenue)},
			{"Bed net", FormatSignedMoney(r.BedNet)},
			{"---"},
			{"Total revenue", money(r.TotalRevenue)},
			{"Total expense", money(r.TotalExpense)},
			{"Total net", FormatSignedMoney(r.TotalNet)},
			{"---"},
			{"Break-even attendees", r.BreakEven.String()},
			{"Target full price", money(r.TargetPrice)},
			{"Kingdom share", money(r.KingdomShare)},
			{"Group share", money(r.GroupShare)},
		},
	}
}

// RenderReport renders the projection table followed by a net summary line
// and any capacity issues.
func RenderReport(r projection.Report) string {
	var b strings.Builder
	b.WriteString(RenderTable(ReportTable(r)))

	style := gainStyle
	verdict := "profit"
	if r.TotalNet.IsNegative() {
		style, verdict = lossStyle, "loss"
	} else if r.TotalNet.IsZero() {
		style, verdict = mutedStyle, "even"
	}
	fmt.Fprintf(&b, "\n  %s %s\n", style.Render(FormatSignedMoney(r.TotalNet)), mutedStyle.Render(verdict))

	silos := []struct {
		label string
		net   decimal.Decimal
	}{
		{"Gate ", r.GateNet},
		{"Feast", r.FeastNet},
		{"Beds ", r.BedNet},
	}
	peak := decimal.Zero
	for _, s := range silos {
		if a := s.net.Abs(); a.GreaterThan(peak) {
			peak = a
		}
	}
	for _, s := range silos {
		b.WriteString(RenderHorizontalBar(s.label, s.net, peak, 30))
		b.WriteString("\n")
	}

	if len(r.Issues) > 0 {
		b.WriteString("\n")
		b.WriteString(RenderIssues(r.Issues))
	}
	return b.String()
}

// RenderIssues renders validation findings one per line.
func RenderIssues(issues []model.Issue) string {
	var b strings.Builder
	for _, i := range issues {
		style := warnStyle
		if i.Severity == model.SeverityError {
			style = lossStyle
		}
		fmt.Fprintf(&b, "  %s %s %s\n",
			style.Render(string(i.Severity)),
			headerStyle.Render(i.Field),
			valueStyle.Render(i.Message),
		)
	}
	return b.String()
}

// RenderHorizontalBar renders a labeled bar scaled to maxValue. Negative
// values draw in the loss color.
func RenderHorizontalBar(label string, value, maxValue decimal.Decimal, maxWidth int) string {
	if !maxValue.IsPositive() {
		return fmt.Sprintf("  %s", mutedStyle.Render(label))
	}
	barLen := int(value.Abs().Div(maxValue).Mul(decimal.NewFromInt(int64(maxWidth))).IntPart())
	if barLen > maxWidth {
		barLen = maxWidth
	}
	bar := strings.Repeat("█", barLen)
	style := gainStyle
	if value.IsNegative() {
		style = lossStyle
	}
	return fmt.Sprintf("  %s %s %s", mutedStyle.Render(label), style.Render(bar), dimStyle.Render(FormatSignedMoney(value)))
}
