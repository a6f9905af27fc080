package model

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestExpenseLedger(t *testing.T) {
	var l ExpenseLedger
	if err := l.Put("  Insurance ", Expense{Projected: decimal.NewFromInt(100), Actual: decimal.NewFromInt(120)}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := l.Put("Ice", Expense{Projected: decimal.RequireFromString("40.25"), Actual: decimal.NewFromInt(38)}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	// Last write wins.
	if err := l.Put("Ice", Expense{Projected: decimal.RequireFromString("45.25"), Actual: decimal.NewFromInt(38)}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := l.Put("  ", Expense{}); err == nil {
		t.Error("Put with blank name succeeded")
	}

	if got := strings.Join(l.Names(), ","); got != "Ice,Insurance" {
		t.Errorf("Names() = %s, want Ice,Insurance", got)
	}
	if got := l.Total(ModeProjected); !got.Equal(decimal.RequireFromString("145.25")) {
		t.Errorf("Total(projected) = %s, want 145.25", got)
	}
	if got := l.Total(ModeActual); !got.Equal(decimal.NewFromInt(158)) {
		t.Errorf("Total(actual) = %s, want 158", got)
	}

	if !l.Remove("Insurance") {
		t.Error("Remove(Insurance) = false")
	}
	if l.Remove("Insurance") {
		t.Error("second Remove(Insurance) = true")
	}
	if len(l) != 1 {
		t.Errorf("len = %d, want 1", len(l))
	}
}

func TestExpenseLedger_EmptyTotalIsZero(t *testing.T) {
	var l ExpenseLedger
	if !l.Total(ModeActual).IsZero() {
		t.Errorf("Total of nil ledger = %s", l.Total(ModeActual))
	}
	if l.Clone() != nil {
		t.Error("Clone of nil ledger is not nil")
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeProjected, false},
		{"Projected", ModeProjected, false},
		{"ACTUAL", ModeActual, false},
		{"guess", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseMode(%q) = %q, %v", tt.in, got, err)
		}
	}
}
