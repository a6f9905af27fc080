package export

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/meridies/eventbid/internal/cli"
	"github.com/meridies/eventbid/internal/model"
	"github.com/meridies/eventbid/internal/projection"
)

// Field is one labeled value of a report section. Amount is set for money so
// each format can render it natively.
type Field struct {
	Key    string
	Label  string
	Text   string
	Amount *decimal.Decimal
}

// Display is the human-readable value.
func (f Field) Display() string {
	if f.Amount != nil {
		return cli.FormatMoney(*f.Amount)
	}
	return f.Text
}

// Raw is the machine-readable value.
func (f Field) Raw() string {
	if f.Amount != nil {
		return f.Amount.StringFixed(2)
	}
	return f.Text
}

// Section groups fields under a heading.
type Section struct {
	Title  string
	Fields []Field
}

func textField(key, label, value string) Field {
	return Field{Key: key, Label: label, Text: value}
}

func number(key, label string, n int) Field {
	return Field{Key: key, Label: label, Text: strconv.Itoa(n)}
}

func flag(key, label string, b bool) Field {
	return Field{Key: key, Label: label, Text: cli.FormatBool(b)}
}

func money(key, label string, d decimal.Decimal) Field {
	return Field{Key: key, Label: label, Amount: &d}
}

// Sections lays out a bid and, when r is non-nil, its projection. Every
// exporter renders this same layout.
func Sections(b model.BidRecord, r *projection.Report) []Section {
	dates := fmt.Sprintf("%s %s to %s %s", b.StartDate, b.StartTime, b.EndDate, b.EndTime)
	if b.SingleDay {
		dates = fmt.Sprintf("%s %s to %s", b.StartDate, b.StartTime, b.EndTime)
	}
	out := []Section{
		{
			Title: "Event Information",
			Fields: []Field{
				textField("event_name", "Event Name", b.EventName),
				textField("group_name", "Group Name", b.GroupName),
				textField("origin_kingdom", "Kingdom", b.OriginKingdom),
				textField("event_type", "Event Type", string(b.EventType)),
				number("bid_for_year", "Bid For Year", b.BidForYear),
				textField("event_dates", "Event Dates", dates),
				textField("gate_time", "Gate Opens", b.GateTime.String()),
				number("expected_attendance", "Expected Attendance", b.ExpectedAttendance),
				textField("website_url", "Website", b.WebsiteURL),
				number("repeat_count", "Times Held Before", b.RepeatCount),
			},
		},
		{
			Title: "Site Information",
			Fields: []Field{
				textField("site_name", "Site", b.SiteName),
				textField("site_address", "Address", b.SiteAddress),
				number("parking_spaces", "Parking Spaces", b.ParkingSpaces),
				number("bathrooms_count", "Bathrooms", b.BathroomsCount),
				flag("restrooms_have_water", "Running Water", b.RestroomsHaveWater),
				flag("ada_bathrooms", "ADA Bathrooms", b.ADABathrooms),
				textField("kitchen_size", "Kitchen", b.KitchenSize),
				textField("bay_size", "Bathhouse", b.BaySize),
				flag("camping_allowed", "Camping Allowed", b.CampingAllowed),
				number("camping_tents", "Tent Sites", b.CampingTents),
				number("camping_rv", "RV Sites", b.CampingRV),
			},
		},
		staffSection(b.Staff),
		{
			Title: "Pricing",
			Fields: []Field{
				money("site_flat_fee", "Site Flat Fee", b.SiteFlatFee),
				money("site_cost_per_person", "Site Cost Per Person", b.SiteCostPerPerson),
				money("price_full", "Full Weekend Price", b.PriceFull),
				money("price_partial", "Daytrip Price", b.PricePartial),
				money("non_member_surcharge", "Non-Member Surcharge", b.NonMemberSurcharge),
				money("feast_price", "Feast Price", b.FeastPrice),
				money("feast_cost_per_person", "Feast Cost Per Person", b.FeastCostPerPerson),
				number("feast_capacity", "Feast Capacity", b.FeastCapacity),
				number("beds_top_qty", "Top Bunks", b.BedsTopQty),
				money("beds_top_price", "Top Bunk Price", b.BedsTopPrice),
				number("beds_bottom_qty", "Bottom Bunks", b.BedsBottomQty),
				money("beds_bottom_price", "Bottom Bunk Price", b.BedsBottomPrice),
			},
		},
		expenseSection(b.Expenses),
	}
	if r != nil {
		out = append(out, projectionSection(*r))
	}
	return out
}

func staffSection(staff []model.StaffRole) Section {
	s := Section{Title: "Staffing"}
	for _, r := range staff {
		value := cli.FormatOr(r.Name, "(open)")
		if r.Contact != "" {
			value += " <" + r.Contact + ">"
		}
		s.Fields = append(s.Fields, textField("staff."+model.Slug(r.Role), r.Role, value))
	}
	return s
}

func expenseSection(l model.ExpenseLedger) Section {
	s := Section{Title: "Expenses"}
	for _, name := range l.Names() {
		e := l[name]
		s.Fields = append(s.Fields,
			money("expenses."+name+".projected", name+" (projected)", e.Projected),
			money("expenses."+name+".actual", name+" (actual)", e.Actual),
		)
	}
	s.Fields = append(s.Fields,
		money("expenses.total.projected", "Total (projected)", l.Total(model.ModeProjected)),
		money("expenses.total.actual", "Total (actual)", l.Total(model.ModeActual)),
	)
	return s
}

func projectionSection(r projection.Report) Section {
	return Section{
		Title: "Financial Projection",
		Fields: []Field{
			textField("mode", "Expense Column", string(r.Mode)),
			number("total_attendees", "Projected Attendance", r.TotalAttendees),
			money("gate_revenue", "Gate Revenue", r.GateRevenue),
			money("feast_revenue", "Feast Sales", r.FeastRevenue),
			money("bed_revenue", "Lodging Sales", r.BedRevenue),
			money("total_revenue", "Total Revenue", r.TotalRevenue),
			money("fixed_costs", "Fixed Costs", r.FixedCosts),
			money("variable_cost", "Per-Person Site Cost", r.VariableCost),
			money("feast_expense", "Feast Expense", r.FeastExpense),
			money("total_expense", "Total Expense", r.TotalExpense),
			money("gate_net", "Gate Net", r.GateNet),
			money("feast_net", "Feast Net", r.FeastNet),
			money("bed_net", "Lodging Net", r.BedNet),
			money("total_net", "Net Profit", r.TotalNet),
			textField("break_even", "Break-Even Attendance", r.BreakEven.String()),
			money("target_price", "Target Full Price", r.TargetPrice),
			money("kingdom_share", "Kingdom Share", r.KingdomShare),
			money("group_share", "Group Share", r.GroupShare),
		},
	}
}
