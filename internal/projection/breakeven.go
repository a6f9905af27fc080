package projection

import (
	"encoding/json"
	"strconv"

	"github.com/shopspring/decimal"
)

// BreakEven is the number of full-price attendees needed to cover fixed gate
// costs. It is undefined when no headcount can ever cover them.
type BreakEven struct {
	Attendees int64
	Defined   bool
}

// Undefined is the break-even value for a non-positive margin.
var Undefined = BreakEven{}

// At returns a defined break-even of n attendees.
func At(n int64) BreakEven {
	return BreakEven{Attendees: n, Defined: true}
}

func (b BreakEven) String() string {
	if !b.Defined {
		return "undefined"
	}
	return strconv.FormatInt(b.Attendees, 10)
}

// MarshalJSON encodes an undefined break-even as null.
func (b BreakEven) MarshalJSON() ([]byte, error) {
	if !b.Defined {
		return []byte("null"), nil
	}
	return json.Marshal(b.Attendees)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (b *BreakEven) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*b = Undefined
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*b = At(n)
	return nil
}

// ComputeBreakEven returns ceil(fixed / (priceFull - costPerPerson)). A
// negative margin is always undefined; a zero margin follows policy.
func ComputeBreakEven(fixed, priceFull, costPerPerson decimal.Decimal, policy ZeroMarginPolicy) BreakEven {
	margin := priceFull.Sub(costPerPerson)
	if margin.IsNegative() {
		return Undefined
	}
	if margin.IsZero() {
		if policy == ZeroMarginZeroWhenNoFixed && !fixed.IsPositive() {
			return At(0)
		}
		return Undefined
	}
	if !fixed.IsPositive() {
		return At(0)
	}
	q, r := fixed.QuoRem(margin, 0)
	n := q.IntPart()
	if r.IsPositive() {
		n++
	}
	return At(n)
}
