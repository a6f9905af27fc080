package projection

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/meridies/eventbid/internal/model"
)

func TestComputeBreakEven(t *testing.T) {
	tests := []struct {
		name     string
		fixed    string
		full     string
		variable string
		want     BreakEven
	}{
		{"exact division", "1000", "30", "5", At(40)},
		{"ceiling not round", "1001", "30", "5", At(41)},
		{"remainder below half still ceils", "1000.01", "30", "5", At(41)},
		{"fractional margin", "100", "10.50", "0.50", At(10)},
		{"no fixed costs", "0", "30", "5", At(0)},
		{"negative margin", "1000", "5", "30", Undefined},
		{"zero margin", "1000", "10", "10", Undefined},
		{"zero margin no fixed", "0", "10", "10", Undefined},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeBreakEven(d(tt.fixed), d(tt.full), d(tt.variable), ZeroMarginUndefined)
			if got != tt.want {
				t.Errorf("ComputeBreakEven(%s, %s, %s) = %v, want %v", tt.fixed, tt.full, tt.variable, got, tt.want)
			}
		})
	}
}

func TestComputeBreakEven_ZeroMarginPolicies(t *testing.T) {
	tests := []struct {
		policy ZeroMarginPolicy
		fixed  string
		want   BreakEven
	}{
		{ZeroMarginUndefined, "0", Undefined},
		{ZeroMarginUndefined, "50", Undefined},
		{ZeroMarginZeroWhenNoFixed, "0", At(0)},
		{ZeroMarginZeroWhenNoFixed, "50", Undefined},
		{"", "0", Undefined},
	}
	for _, tt := range tests {
		got := ComputeBreakEven(d(tt.fixed), d("12"), d("12"), tt.policy)
		if got != tt.want {
			t.Errorf("policy %q fixed %s: BreakEven = %v, want %v", tt.policy, tt.fixed, got, tt.want)
		}
	}

	// Negative margin stays undefined under either policy.
	if got := ComputeBreakEven(d("0"), d("1"), d("2"), ZeroMarginZeroWhenNoFixed); got.Defined {
		t.Errorf("negative margin BreakEven = %v, want undefined", got)
	}
}

func TestProject_ZeroMarginPolicyFromOptions(t *testing.T) {
	b := model.NewBidAt(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	b.PriceFull = d("10")
	b.SiteCostPerPerson = d("10")

	r, err := Project(b, Inputs{AttendeesFull: 5}, Options{})
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	if r.BreakEven.Defined {
		t.Errorf("default policy BreakEven = %v, want undefined", r.BreakEven)
	}

	r, err = Project(b, Inputs{AttendeesFull: 5}, Options{ZeroMarginPolicy: ZeroMarginZeroWhenNoFixed})
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	if r.BreakEven != At(0) {
		t.Errorf("zero-when-no-fixed-costs BreakEven = %v, want 0", r.BreakEven)
	}
}

func TestParseZeroMarginPolicy(t *testing.T) {
	for _, s := range []string{"", "undefined", "zero-when-no-fixed-costs"} {
		if _, err := ParseZeroMarginPolicy(s); err != nil {
			t.Errorf("ParseZeroMarginPolicy(%q): %v", s, err)
		}
	}
	if _, err := ParseZeroMarginPolicy("zero"); err == nil {
		t.Error("ParseZeroMarginPolicy(\"zero\") succeeded, want error")
	}
}

func TestBreakEvenJSON(t *testing.T) {
	for _, be := range []BreakEven{Undefined, At(0), At(40)} {
		data, err := json.Marshal(be)
		if err != nil {
			t.Fatalf("Marshal(%v): %v", be, err)
		}
		var got BreakEven
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("Unmarshal(%s): %v", data, err)
		}
		if got != be {
			t.Errorf("round trip %v = %v", be, got)
		}
	}
	if Undefined.String() != "undefined" || At(12).String() != "12" {
		t.Errorf("String() = %q, %q", Undefined.String(), At(12).String())
	}
}
