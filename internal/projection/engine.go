// Package projection computes the financial report of an event bid: siloed
// gate, feast and bed nets, the gate break-even point and the revenue split.
package projection

import (
	"errors"
	"fmt"

	"github.com/meridies/eventbid/internal/model"

	"github.com/shopspring/decimal"
)

// ErrNegativeInput is returned when a count or amount fed to the engine is
// negative. Callers validate; the engine refuses rather than guessing.
var ErrNegativeInput = errors.New("negative input")

var half = decimal.NewFromFloat(0.5)

// Inputs are the attendance and sales figures a projection is run against.
type Inputs struct {
	AttendeesFull    int        `json:"attendees_full"`
	AttendeesPartial int        `json:"attendees_partial"`
	FeastCount       int        `json:"feast_count"`
	BedsTopSold      int        `json:"beds_top_sold"`
	BedsBottomSold   int        `json:"beds_bottom_sold"`
	Mode             model.Mode `json:"mode"`
}

// ZeroMarginPolicy decides the break-even value when the per-attendee margin
// is exactly zero.
type ZeroMarginPolicy string

const (
	// ZeroMarginUndefined reports break-even as undefined whenever margin <= 0.
	ZeroMarginUndefined ZeroMarginPolicy = "undefined"
	// ZeroMarginZeroWhenNoFixed reports 0 when margin == 0 and fixed costs are
	// also 0, and undefined otherwise.
	ZeroMarginZeroWhenNoFixed ZeroMarginPolicy = "zero-when-no-fixed-costs"
)

// ParseZeroMarginPolicy maps a config string to a policy. Empty means undefined.
func ParseZeroMarginPolicy(s string) (ZeroMarginPolicy, error) {
	switch ZeroMarginPolicy(s) {
	case "", ZeroMarginUndefined:
		return ZeroMarginUndefined, nil
	case ZeroMarginZeroWhenNoFixed:
		return ZeroMarginZeroWhenNoFixed, nil
	}
	return "", fmt.Errorf("unknown zero-margin policy %q", s)
}

// Options tune edge-case behavior of the engine.
type Options struct {
	ZeroMarginPolicy ZeroMarginPolicy
}

// Report is the deterministic result of one projection.
type Report struct {
	Mode           model.Mode `json:"mode"`
	TotalAttendees int        `json:"total_attendees"`

	GateRevenue  decimal.Decimal `json:"gate_revenue"`
	FeastRevenue decimal.Decimal `json:"feast_revenue"`
	BedRevenue   decimal.Decimal `json:"bed_revenue"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`

	FixedCosts   decimal.Decimal `json:"fixed_costs"`
	VariableCost decimal.Decimal `json:"variable_cost"`
	FeastExpense decimal.Decimal `json:"feast_expense"`
	TotalExpense decimal.Decimal `json:"total_expense"`

	GateNet  decimal.Decimal `json:"gate_net"`
	FeastNet decimal.Decimal `json:"feast_net"`
	BedNet   decimal.Decimal `json:"bed_net"`
	TotalNet decimal.Decimal `json:"total_net"`

	BreakEven   BreakEven       `json:"break_even"`
	TargetPrice decimal.Decimal `json:"target_price"`

	KingdomShare decimal.Decimal `json:"kingdom_share"`
	GroupShare   decimal.Decimal `json:"group_share"`

	Issues []model.Issue `json:"issues,omitempty"`
}

// Project runs the financial model. It never mutates the record.
func Project(b model.BidRecord, in Inputs, opts Options) (Report, error) {
	if err := checkNonNegative(b, in); err != nil {
		return Report{}, err
	}
	mode := in.Mode
	if mode == "" {
		mode = model.ModeProjected
	}
	p := b.Pricing

	full := decimal.NewFromInt(int64(in.AttendeesFull))
	partial := decimal.NewFromInt(int64(in.AttendeesPartial))
	attendees := in.AttendeesFull + in.AttendeesPartial
	headcount := decimal.NewFromInt(int64(attendees))
	feast := decimal.NewFromInt(int64(in.FeastCount))

	r := Report{Mode: mode, TotalAttendees: attendees}

	// Gate silo carries every fixed cost.
	r.FixedCosts = p.SiteFlatFee.Add(b.Expenses.Total(mode))
	r.GateRevenue = p.PriceFull.Mul(full).Add(p.PricePartial.Mul(partial))
	r.VariableCost = p.SiteCostPerPerson.Mul(headcount)
	r.GateNet = r.GateRevenue.Sub(r.FixedCosts).Sub(r.VariableCost)

	r.FeastRevenue = p.FeastPrice.Mul(feast)
	r.FeastExpense = p.FeastCostPerPerson.Mul(feast)
	r.FeastNet = r.FeastRevenue.Sub(r.FeastExpense)

	r.BedRevenue = p.BedsTopPrice.Mul(decimal.NewFromInt(int64(in.BedsTopSold))).
		Add(p.BedsBottomPrice.Mul(decimal.NewFromInt(int64(in.BedsBottomSold))))
	r.BedNet = r.BedRevenue

	r.TotalNet = r.GateNet.Add(r.FeastNet).Add(r.BedNet)
	r.TotalRevenue = r.GateRevenue.Add(r.FeastRevenue).Add(r.BedRevenue)
	r.TotalExpense = r.FixedCosts.Add(r.VariableCost).Add(r.FeastExpense)

	r.BreakEven = ComputeBreakEven(r.FixedCosts, p.PriceFull, p.SiteCostPerPerson, opts.ZeroMarginPolicy)
	r.TargetPrice = TargetPrice(r.FixedCosts, p.SiteCostPerPerson, attendees)
	r.KingdomShare, r.GroupShare = Split(b.EventType, r.TotalNet)
	r.Issues = CheckInputs(b, in)

	return r, nil
}

// Split divides a positive net between kingdom and hosting group. Losses are
// not distributed: both shares are zero when net <= 0.
func Split(eventType model.EventType, net decimal.Decimal) (kingdom, group decimal.Decimal) {
	if !net.IsPositive() {
		return decimal.Zero, decimal.Zero
	}
	if eventType == model.EventKingdom {
		kingdom = net.Mul(half)
		return kingdom, net.Sub(kingdom)
	}
	return decimal.Zero, net
}

// TargetPrice is the per-attendee price that exactly recovers fixed and
// variable gate costs at the given headcount, rounded to cents. Zero
// attendees yields zero.
func TargetPrice(fixed, variablePerPerson decimal.Decimal, attendees int) decimal.Decimal {
	if attendees <= 0 {
		return decimal.Zero
	}
	perHead := fixed.DivRound(decimal.NewFromInt(int64(attendees)), 4)
	return perHead.Add(variablePerPerson).Round(2)
}

func checkNonNegative(b model.BidRecord, in Inputs) error {
	counts := []struct {
		name  string
		value int
	}{
		{"attendees_full", in.AttendeesFull},
		{"attendees_partial", in.AttendeesPartial},
		{"feast_count", in.FeastCount},
		{"beds_top_sold", in.BedsTopSold},
		{"beds_bottom_sold", in.BedsBottomSold},
	}
	for _, c := range counts {
		if c.value < 0 {
			return fmt.Errorf("%s = %d: %w", c.name, c.value, ErrNegativeInput)
		}
	}
	for _, f := range b.MoneyFields() {
		if f.Amount.IsNegative() {
			return fmt.Errorf("%s = %s: %w", f.Name, f.Amount, ErrNegativeInput)
		}
	}
	for _, name := range b.Expenses.Names() {
		if b.Expenses[name].Amount(in.Mode).IsNegative() {
			return fmt.Errorf("expense %q: %w", name, ErrNegativeInput)
		}
	}
	return nil
}

// CheckInputs reports sales figures that exceed the record's capacities. The
// projection is still computed with the figures as given.
func CheckInputs(b model.BidRecord, in Inputs) []model.Issue {
	var issues []model.Issue
	if b.FeastCapacity > 0 && in.FeastCount > b.FeastCapacity {
		issues = append(issues, model.Issue{
			Field:    "feast_count",
			Message:  fmt.Sprintf("%d feast tickets exceed capacity %d", in.FeastCount, b.FeastCapacity),
			Severity: model.SeverityWarning,
		})
	}
	if in.BedsTopSold > b.BedsTopQty {
		issues = append(issues, model.Issue{
			Field:    "beds_top_sold",
			Message:  fmt.Sprintf("%d top bunks sold but only %d configured", in.BedsTopSold, b.BedsTopQty),
			Severity: model.SeverityError,
		})
	}
	if in.BedsBottomSold > b.BedsBottomQty {
		issues = append(issues, model.Issue{
			Field:    "beds_bottom_sold",
			Message:  fmt.Sprintf("%d bottom bunks sold but only %d configured", in.BedsBottomSold, b.BedsBottomQty),
			Severity: model.SeverityError,
		})
	}
	return issues
}
