package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func issueFields(issues []Issue) map[string]Severity {
	out := make(map[string]Severity, len(issues))
	for _, i := range issues {
		out[i.Field] = i.Severity
	}
	return out
}

func TestValidate_CleanBid(t *testing.T) {
	if issues := Validate(populatedBid(t)); len(issues) != 0 {
		t.Errorf("Validate = %v, want none", issues)
	}
}

func TestValidate(t *testing.T) {
	b := NewBidAt(time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC))
	b.EventType = "Barony"
	b.EndDate = Date{Year: 2026, Month: time.April, Day: 9}
	b.SingleDay = true
	b.PriceFull = decimal.NewFromInt(20)
	b.PricePartial = decimal.NewFromInt(25)
	b.FeastPrice = decimal.NewFromInt(-3)
	b.BedsTopQty = -1
	b.CampingShadedPct = 150
	_ = b.Expenses.Put("Refund", Expense{Actual: decimal.NewFromInt(-10)})

	issues := Validate(b)
	got := issueFields(issues)
	want := map[string]Severity{
		"event_type":         SeverityError,
		"end_date":           SeverityError,
		"single_day":         SeverityWarning,
		"price_partial":      SeverityWarning,
		"feast_price":        SeverityError,
		"beds_top_qty":       SeverityError,
		"camping_shaded_pct": SeverityWarning,
		"expenses.Refund":    SeverityError,
	}
	for field, sev := range want {
		if got[field] != sev {
			t.Errorf("issue %s = %q, want %q", field, got[field], sev)
		}
	}
	if len(issues) != len(want) {
		t.Errorf("len(issues) = %d, want %d: %v", len(issues), len(want), issues)
	}
	if !HasErrors(issues) {
		t.Error("HasErrors = false")
	}
	if HasErrors([]Issue{{Severity: SeverityWarning}}) {
		t.Error("HasErrors(warnings only) = true")
	}
}
