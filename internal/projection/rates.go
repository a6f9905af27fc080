package projection

import (
	"fmt"

	"github.com/meridies/eventbid/internal/model"

	"github.com/shopspring/decimal"
)

// InputsFromRates derives a scenario from an attendance figure and take rates
// in [0, 1]. partialShare is the fraction of attendees buying a daytrip
// ticket; feastRate and lodgingRate are the fractions buying feast and beds.
// Feast is capped at capacity when one is set and beds at their quantities,
// top bunks filling before bottom bunks.
func InputsFromRates(b model.BidRecord, attendance int, partialShare, feastRate, lodgingRate float64, mode model.Mode) (Inputs, error) {
	if attendance < 0 {
		return Inputs{}, fmt.Errorf("attendance = %d: %w", attendance, ErrNegativeInput)
	}
	for name, rate := range map[string]float64{
		"partial_share": partialShare,
		"feast_rate":    feastRate,
		"lodging_rate":  lodgingRate,
	} {
		if !(rate >= 0 && rate <= 1) {
			return Inputs{}, fmt.Errorf("%s = %v: must be between 0 and 1", name, rate)
		}
	}

	partial := share(attendance, partialShare)
	in := Inputs{
		AttendeesFull:    attendance - partial,
		AttendeesPartial: partial,
		FeastCount:       share(attendance, feastRate),
		Mode:             mode,
	}
	if b.FeastCapacity > 0 && in.FeastCount > b.FeastCapacity {
		in.FeastCount = b.FeastCapacity
	}

	sleepers := share(attendance, lodgingRate)
	in.BedsTopSold = min(sleepers, b.BedsTopQty)
	in.BedsBottomSold = min(sleepers-in.BedsTopSold, b.BedsBottomQty)
	return in, nil
}

// share rounds n*rate half-up to a whole head.
func share(n int, rate float64) int {
	v := decimal.NewFromInt(int64(n)).Mul(decimal.NewFromFloat(rate)).Round(0)
	return int(v.IntPart())
}
