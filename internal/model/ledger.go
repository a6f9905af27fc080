package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Mode selects which column of the expense ledger a calculation reads.
type Mode string

const (
	ModeProjected Mode = "projected"
	ModeActual    Mode = "actual"
)

// ParseMode accepts "projected" or "actual" in any case.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "projected", "projection":
		return ModeProjected, nil
	case "actual", "actuals":
		return ModeActual, nil
	}
	return "", fmt.Errorf("unknown mode %q (want projected or actual)", s)
}

// Expense is one operational line item with a projected and an actual amount.
type Expense struct {
	Projected decimal.Decimal `json:"projected"`
	Actual    decimal.Decimal `json:"actual"`
	Category  string          `json:"category,omitempty"`
}

// Amount returns the column selected by mode.
func (e Expense) Amount(mode Mode) decimal.Decimal {
	if mode == ModeActual {
		return e.Actual
	}
	return e.Projected
}

// ExpenseLedger maps a unique expense name to its amounts.
type ExpenseLedger map[string]Expense

// Put adds or replaces the named expense. Names are trimmed; the last write wins.
func (l *ExpenseLedger) Put(name string, e Expense) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("expense name must not be empty")
	}
	if *l == nil {
		*l = make(ExpenseLedger)
	}
	(*l)[name] = e
	return nil
}

// Remove deletes the named expense and reports whether it existed.
func (l ExpenseLedger) Remove(name string) bool {
	name = strings.TrimSpace(name)
	if _, ok := l[name]; !ok {
		return false
	}
	delete(l, name)
	return true
}

// Names returns the expense names in sorted order.
func (l ExpenseLedger) Names() []string {
	names := make([]string, 0, len(l))
	for name := range l {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Total sums the selected column over every entry.
func (l ExpenseLedger) Total(mode Mode) decimal.Decimal {
	total := decimal.Zero
	for _, e := range l {
		total = total.Add(e.Amount(mode))
	}
	return total
}

// MarshalJSON writes the ledger with trimmed names, so an encoded ledger
// decodes back to the same entries.
func (l ExpenseLedger) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("null"), nil
	}
	out := make(map[string]Expense, len(l))
	for _, name := range l.Names() {
		out[strings.TrimSpace(name)] = l[name]
	}
	return json.Marshal(out)
}

// Clone returns an independent copy.
func (l ExpenseLedger) Clone() ExpenseLedger {
	if l == nil {
		return nil
	}
	out := make(ExpenseLedger, len(l))
	for k, v := range l {
		out[k] = v
	}
	return out
}
