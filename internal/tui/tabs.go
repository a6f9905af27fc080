package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/meridies/eventbid/internal/cli"
	"github.com/meridies/eventbid/internal/model"
	"github.com/meridies/eventbid/internal/tui/components"
	"github.com/meridies/eventbid/internal/tui/theme"
)

func (a App) renderProjectionTab(cw int) string {
	t := theme.Active

	inputsW := 34
	if cw < 100 {
		inputsW = 30
	}
	inputsCard := components.ContentCard("Sales", a.renderInputs(), inputsW, true)

	if !a.hasReport {
		msg := "Enter attendance to project."
		if a.projErr != nil {
			msg = lipgloss.NewStyle().Foreground(t.Loss).Render(a.projErr.Error())
		}
		errCard := components.ContentCard("Projection", msg, cw-inputsW, false)
		return components.CardRow([]string{inputsCard, errCard})
	}
	r := a.report

	breakEven := components.Metric{Label: "Break-even", Value: r.BreakEven.String(), Note: "full-price attendees"}
	if !r.BreakEven.Defined {
		breakEven.Color = t.Warn
		breakEven.Note = "price does not cover cost per head"
	}
	metrics := components.MetricCardRow([]components.Metric{
		{Label: "Total revenue", Value: cli.FormatMoney(r.TotalRevenue), Note: fmt.Sprintf("%d attendees", r.TotalAttendees)},
		{Label: "Total expense", Value: cli.FormatMoney(r.TotalExpense), Note: string(r.Mode) + " costs"},
		{Label: "Total net", Value: cli.FormatSignedMoney(r.TotalNet), Color: t.NetColor(r.TotalNet.Sign())},
		breakEven,
	}, cw)

	rest := cw - inputsW
	widths := components.LayoutRow(rest, 2)
	silos := components.ContentCard("Silos", a.renderSilos(components.CardInnerWidth(widths[0])), widths[0], false)
	split := components.ContentCard("Split", a.renderSplit(), widths[1], false)
	middle := components.CardRow([]string{inputsCard, silos, split})

	capacity := components.ContentCard("Capacity", a.renderCapacity(components.CardInnerWidth(cw)), cw, false)

	return lipgloss.JoinVertical(lipgloss.Left, metrics, middle, capacity)
}

func (a App) renderInputs() string {
	t := theme.Active
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Width(19)
	focusStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true).Width(19)

	lines := make([]string, 0, inputCount)
	for i := range a.inputs {
		label := labelStyle.Render(inputLabels[i])
		if i == a.focus {
			label = focusStyle.Render("› " + inputLabels[i])
		}
		lines = append(lines, label+a.inputs[i].View())
	}
	return strings.Join(lines, "\n")
}

func (a App) renderSilos(innerW int) string {
	t := theme.Active
	r := a.report
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Width(7)

	silos := []struct {
		label string
		net   decimal.Decimal
	}{
		{"Gate", r.GateNet},
		{"Feast", r.FeastNet},
		{"Beds", r.BedNet},
	}
	maxAbs := decimal.Zero
	for _, s := range silos {
		if abs := s.net.Abs(); abs.GreaterThan(maxAbs) {
			maxAbs = abs
		}
	}

	barW := innerW - 7 - 14
	if barW < 4 {
		barW = 4
	}
	var b strings.Builder
	for _, s := range silos {
		valueStyle := lipgloss.NewStyle().Foreground(t.NetColor(s.net.Sign()))
		n := 0
		if maxAbs.IsPositive() {
			n = int(s.net.Abs().Div(maxAbs).Mul(decimal.NewFromInt(int64(barW))).IntPart())
		}
		b.WriteString(labelStyle.Render(s.label))
		b.WriteString(valueStyle.Render(fmt.Sprintf("%-*s", barW, strings.Repeat("█", n))))
		b.WriteString(" ")
		b.WriteString(valueStyle.Render(fmt.Sprintf("%12s", cli.FormatSignedMoney(s.net))))
		b.WriteString("\n")
	}
	b.WriteString(lipgloss.NewStyle().Foreground(t.TextDim).
		Render("Target price " + cli.FormatMoney(r.TargetPrice)))
	return b.String()
}

func (a App) renderSplit() string {
	t := theme.Active
	r := a.report
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Width(10)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Bold(true)

	rows := []string{
		labelStyle.Render("Kingdom") + valueStyle.Render(cli.FormatMoney(r.KingdomShare)),
		labelStyle.Render("Group") + valueStyle.Render(cli.FormatMoney(r.GroupShare)),
	}
	note := "Local event: all profit stays with the group"
	if a.sess.Bid().EventType == model.EventKingdom {
		note = "Kingdom event: profit split 50/50"
	}
	if !r.TotalNet.IsPositive() {
		note = "No profit to split"
	}
	rows = append(rows, lipgloss.NewStyle().Foreground(t.TextDim).Render(note))
	return strings.Join(rows, "\n")
}

func (a App) renderCapacity(innerW int) string {
	t := theme.Active
	b := a.sess.Bid()
	in := a.Inputs()

	barW := innerW - 14 - 12
	if barW > 40 {
		barW = 40
	}
	lines := []string{
		components.CapacityBar("Feast", in.FeastCount, b.FeastCapacity, 13, barW),
		components.CapacityBar("Top bunks", in.BedsTopSold, b.BedsTopQty, 13, barW),
		components.CapacityBar("Bottom bunks", in.BedsBottomSold, b.BedsBottomQty, 13, barW),
	}
	warn := lipgloss.NewStyle().Foreground(t.Warn)
	for _, issue := range a.report.Issues {
		lines = append(lines, warn.Render("! "+issue.Message))
	}
	return strings.Join(lines, "\n")
}

func (a App) renderExpensesTab(cw int) string {
	t := theme.Active
	b := a.sess.Bid()

	headStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Bold(true)
	nameStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim)
	activeStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)

	inner := components.CardInnerWidth(cw)
	nameW := inner - 16 - 14 - 14
	if nameW < 12 {
		nameW = 12
	}
	column := func(mode model.Mode, s string) string {
		if mode == a.mode {
			return activeStyle.Render(fmt.Sprintf("%14s", s))
		}
		return nameStyle.Render(fmt.Sprintf("%14s", s))
	}

	var sb strings.Builder
	sb.WriteString(headStyle.Render(fmt.Sprintf("%-*s%-16s%14s%14s", nameW, "Expense", "Category", "Projected", "Actual")))
	sb.WriteString("\n")

	names := b.Expenses.Names()
	if len(names) == 0 {
		sb.WriteString(dimStyle.Render("No expenses yet. Add them with `eventbid expense add`."))
		return components.ContentCard("Expenses", sb.String(), cw, false)
	}
	for _, name := range names {
		e := b.Expenses[name]
		sb.WriteString(nameStyle.Render(fmt.Sprintf("%-*s", nameW, name)))
		sb.WriteString(dimStyle.Render(fmt.Sprintf("%-16s", cli.FormatOr(e.Category, "-"))))
		sb.WriteString(column(model.ModeProjected, cli.FormatMoney(e.Projected)))
		sb.WriteString(column(model.ModeActual, cli.FormatMoney(e.Actual)))
		sb.WriteString("\n")
	}
	sb.WriteString(headStyle.Render(fmt.Sprintf("%-*s%-16s", nameW, "Total", "")))
	sb.WriteString(column(model.ModeProjected, cli.FormatMoney(b.Expenses.Total(model.ModeProjected))))
	sb.WriteString(column(model.ModeActual, cli.FormatMoney(b.Expenses.Total(model.ModeActual))))

	return components.ContentCard("Expenses", sb.String(), cw, false)
}

func (a App) renderBidTab(cw int) string {
	t := theme.Active
	b := a.sess.Bid()

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Width(18)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)
	kv := func(rows [][2]string) string {
		lines := make([]string, len(rows))
		for i, r := range rows {
			lines[i] = labelStyle.Render(r[0]) + valueStyle.Render(r[1])
		}
		return strings.Join(lines, "\n")
	}

	widths := components.LayoutRow(cw, 3)
	event := kv([][2]string{
		{"Group", cli.FormatOr(b.GroupName, "-")},
		{"Event", cli.FormatOr(b.EventName, "-")},
		{"Type", string(b.EventType)},
		{"Year", fmt.Sprintf("%d", b.BidForYear)},
		{"Dates", fmt.Sprintf("%s to %s", cli.FormatOr(b.StartDate.String(), "?"), cli.FormatOr(b.EndDate.String(), "?"))},
		{"Gate opens", b.GateTime.String()},
		{"Expected", cli.FormatNumber(int64(b.ExpectedAttendance))},
	})
	site := kv([][2]string{
		{"Site", cli.FormatOr(b.SiteName, "-")},
		{"Address", cli.FormatOr(b.SiteAddress, "-")},
		{"Parking", cli.FormatNumber(int64(b.ParkingSpaces))},
		{"Bathrooms", cli.FormatNumber(int64(b.BathroomsCount))},
		{"Kitchen", b.KitchenSize},
		{"Camping", cli.FormatBool(b.CampingAllowed)},
	})
	pricing := kv([][2]string{
		{"Full price", cli.FormatMoney(b.PriceFull)},
		{"Day trip", cli.FormatMoney(b.PricePartial)},
		{"Site flat fee", cli.FormatMoney(b.SiteFlatFee)},
		{"Site per person", cli.FormatMoney(b.SiteCostPerPerson)},
		{"Feast", fmt.Sprintf("%s (cost %s)", cli.FormatMoney(b.FeastPrice), cli.FormatMoney(b.FeastCostPerPerson))},
		{"Beds", fmt.Sprintf("%d top, %d bottom", b.BedsTopQty, b.BedsBottomQty)},
	})
	top := components.CardRow([]string{
		components.ContentCard("Event", event, widths[0], false),
		components.ContentCard("Site", site, widths[1], false),
		components.ContentCard("Pricing", pricing, widths[2], false),
	})

	staffRows := make([][2]string, 0, len(b.Staff))
	for _, s := range b.Staff {
		who := cli.FormatOr(s.Name, "unfilled")
		if s.Contact != "" {
			who += " <" + s.Contact + ">"
		}
		staffRows = append(staffRows, [2]string{s.Role, who})
	}
	half := components.LayoutRow(cw, 2)
	staff := components.ContentCard("Staff", kv(staffRows), half[0], false)
	issues := components.ContentCard("Validation", a.renderValidation(), half[1], false)

	return lipgloss.JoinVertical(lipgloss.Left, top, components.CardRow([]string{staff, issues}))
}

func (a App) renderValidation() string {
	t := theme.Active
	issues := a.sess.Issues()
	if len(issues) == 0 {
		return lipgloss.NewStyle().Foreground(t.Gain).Render("No issues")
	}
	lines := make([]string, len(issues))
	for i, issue := range issues {
		color := t.Warn
		if issue.Severity == model.SeverityError {
			color = t.Loss
		}
		lines[i] = lipgloss.NewStyle().Foreground(color).Render(issue.Field + ": " + issue.Message)
	}
	return strings.Join(lines, "\n")
}
