package model

import "fmt"

// Severity grades a validation issue. Neither level stops a calculation; the
// caller decides whether to block submission.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Issue is a single validation finding.
type Issue struct {
	Field    string   `json:"field"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

func (i Issue) String() string {
	return fmt.Sprintf("[%s] %s: %s", i.Severity, i.Field, i.Message)
}

// HasErrors reports whether any issue has error severity.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Validate checks a bid for values the form would reject.
func Validate(b BidRecord) []Issue {
	var issues []Issue
	errorf := func(field, format string, args ...any) {
		issues = append(issues, Issue{Field: field, Message: fmt.Sprintf(format, args...), Severity: SeverityError})
	}
	warnf := func(field, format string, args ...any) {
		issues = append(issues, Issue{Field: field, Message: fmt.Sprintf(format, args...), Severity: SeverityWarning})
	}

	switch b.EventType {
	case EventLocal, EventKingdom:
	default:
		errorf("event_type", "must be Local or Kingdom, got %q", b.EventType)
	}

	if !b.StartDate.IsZero() && !b.EndDate.IsZero() && b.EndDate.Before(b.StartDate) {
		errorf("end_date", "end date %s is before start date %s", b.EndDate, b.StartDate)
	}
	if b.SingleDay && b.StartDate != b.EndDate {
		warnf("single_day", "single-day event spans %s to %s", b.StartDate, b.EndDate)
	}

	for _, f := range b.MoneyFields() {
		if f.Amount.IsNegative() {
			errorf(f.Name, "must not be negative, got %s", f.Amount)
		}
	}
	for _, name := range b.Expenses.Names() {
		e := b.Expenses[name]
		if e.Projected.IsNegative() {
			errorf("expenses."+name, "projected amount must not be negative, got %s", e.Projected)
		}
		if e.Actual.IsNegative() {
			errorf("expenses."+name, "actual amount must not be negative, got %s", e.Actual)
		}
	}

	counts := []struct {
		name  string
		value int
	}{
		{"expected_attendance", b.ExpectedAttendance},
		{"repeat_count", b.RepeatCount},
		{"feast_capacity", b.FeastCapacity},
		{"beds_top_qty", b.BedsTopQty},
		{"beds_bottom_qty", b.BedsBottomQty},
		{"parking_spaces", b.ParkingSpaces},
		{"bathrooms_count", b.BathroomsCount},
		{"camping_tents", b.CampingTents},
		{"camping_rv", b.CampingRV},
	}
	for _, c := range counts {
		if c.value < 0 {
			errorf(c.name, "must not be negative, got %d", c.value)
		}
	}

	for _, pct := range []struct {
		name  string
		value int
	}{
		{"parking_shaded_pct", b.ParkingShadedPct},
		{"bathrooms_shaded_pct", b.BathroomsShadedPct},
		{"camping_shaded_pct", b.CampingShadedPct},
	} {
		if pct.value < 0 || pct.value > 100 {
			warnf(pct.name, "percentage %d is outside 0-100", pct.value)
		}
	}

	if b.PriceFull.IsPositive() && b.PricePartial.GreaterThan(b.PriceFull) {
		warnf("price_partial", "daytrip price %s exceeds full price %s", b.PricePartial, b.PriceFull)
	}

	return issues
}
