package projection

import (
	"math"
	"testing"

	"github.com/meridies/eventbid/internal/model"
)

func TestInputsFromRates(t *testing.T) {
	b := scenarioBid() // feast capacity 80, 20 top + 20 bottom bunks

	tests := []struct {
		name                    string
		attendance              int
		partial, feast, lodging float64
		wantFull, wantPartial   int
		wantFeast               int
		wantTop, wantBottom     int
	}{
		{"plain", 100, 0, 0.5, 0.1, 100, 0, 50, 10, 0},
		{"partial share", 100, 0.25, 0, 0, 75, 25, 0, 0, 0},
		{"feast capped", 200, 0, 0.6, 0, 200, 0, 80, 0, 0},
		{"beds spill to bottom", 100, 0, 0, 0.3, 100, 0, 0, 20, 10},
		{"beds capped", 100, 0, 0, 0.9, 100, 0, 0, 20, 20},
		{"rounds half up", 5, 0.5, 0.5, 0, 2, 3, 3, 0, 0},
		{"nobody", 0, 0.5, 1, 1, 0, 0, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := InputsFromRates(b, tt.attendance, tt.partial, tt.feast, tt.lodging, model.ModeActual)
			if err != nil {
				t.Fatalf("InputsFromRates: %v", err)
			}
			if in.AttendeesFull != tt.wantFull || in.AttendeesPartial != tt.wantPartial {
				t.Errorf("attendees = %d/%d, want %d/%d", in.AttendeesFull, in.AttendeesPartial, tt.wantFull, tt.wantPartial)
			}
			if in.FeastCount != tt.wantFeast {
				t.Errorf("FeastCount = %d, want %d", in.FeastCount, tt.wantFeast)
			}
			if in.BedsTopSold != tt.wantTop || in.BedsBottomSold != tt.wantBottom {
				t.Errorf("beds = %d/%d, want %d/%d", in.BedsTopSold, in.BedsBottomSold, tt.wantTop, tt.wantBottom)
			}
			if in.Mode != model.ModeActual {
				t.Errorf("Mode = %q, want actual", in.Mode)
			}
		})
	}
}

func TestInputsFromRates_RejectsBadRates(t *testing.T) {
	b := scenarioBid()
	if _, err := InputsFromRates(b, -1, 0, 0, 0, model.ModeProjected); err == nil {
		t.Error("negative attendance accepted")
	}
	if _, err := InputsFromRates(b, 10, 0, 1.5, 0, model.ModeProjected); err == nil {
		t.Error("feast rate 1.5 accepted")
	}
	for _, rate := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if _, err := InputsFromRates(b, 100, 0, rate, 0.1, model.ModeProjected); err == nil {
			t.Errorf("feast rate %v accepted", rate)
		}
		if _, err := InputsFromRates(b, 100, rate, 0.5, 0.1, model.ModeProjected); err == nil {
			t.Errorf("partial share %v accepted", rate)
		}
	}
}
