package tui

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/shopspring/decimal"

	"github.com/meridies/eventbid/internal/model"
	"github.com/meridies/eventbid/internal/session"
)

type fieldKind int

const (
	kindText fieldKind = iota
	kindCount
	kindMoney
	kindDate
	kindClock
	kindBool
	kindEventType
)

type formField struct {
	key   string
	title string
	kind  fieldKind
}

type formGroup struct {
	title  string
	fields []formField
}

// editGroups are the pages of the bid form, one huh group each.
var editGroups = []formGroup{
	{"Event", []formField{
		{"group_name", "Hosting group", kindText},
		{"event_name", "Event name", kindText},
		{"event_type", "Event type", kindEventType},
		{"bid_for_year", "Bid for year", kindCount},
		{"start_date", "Start date (YYYY-MM-DD)", kindDate},
		{"start_time", "Start time (HH:MM)", kindClock},
		{"end_date", "End date (YYYY-MM-DD)", kindDate},
		{"end_time", "End time (HH:MM)", kindClock},
		{"gate_time", "Gate opens (HH:MM)", kindClock},
		{"single_day", "Single-day event", kindBool},
		{"expected_attendance", "Expected attendance", kindCount},
		{"website_url", "Website", kindText},
	}},
	{"Site", []formField{
		{"site_name", "Site name", kindText},
		{"site_address", "Site address", kindText},
		{"parking_spaces", "Parking spaces", kindCount},
		{"bathrooms_count", "Bathrooms", kindCount},
		{"camping_allowed", "Camping allowed", kindBool},
		{"camping_tents", "Tent sites", kindCount},
		{"camping_rv", "RV sites", kindCount},
	}},
	{"Site costs and gate", []formField{
		{"site_flat_fee", "Site flat fee", kindMoney},
		{"site_cost_per_person", "Site cost per person", kindMoney},
		{"price_full", "Full event price", kindMoney},
		{"price_partial", "Day trip price", kindMoney},
		{"non_member_surcharge", "Non-member surcharge", kindMoney},
	}},
	{"Feast and beds", []formField{
		{"feast_price", "Feast price", kindMoney},
		{"feast_cost_per_person", "Feast cost per person", kindMoney},
		{"feast_capacity", "Feast capacity", kindCount},
		{"beds_top_qty", "Top bunks", kindCount},
		{"beds_top_price", "Top bunk price", kindMoney},
		{"beds_bottom_qty", "Bottom bunks", kindCount},
		{"beds_bottom_price", "Bottom bunk price", kindMoney},
	}},
}

// BidForm edits a bid through a huh form. Values are held as text and turned
// into SetField updates once the form completes.
type BidForm struct {
	Form *huh.Form

	initial map[string]string
	values  map[string]*string
	flags   map[string]*bool
}

// NewBidForm builds the edit form prefilled from b.
func NewBidForm(b model.BidRecord) (*BidForm, error) {
	current, err := fieldValues(b)
	if err != nil {
		return nil, err
	}

	f := &BidForm{
		initial: current,
		values:  make(map[string]*string),
		flags:   make(map[string]*bool),
	}

	groups := make([]*huh.Group, 0, len(editGroups))
	for _, g := range editGroups {
		fields := make([]huh.Field, 0, len(g.fields))
		for _, ff := range g.fields {
			fields = append(fields, f.field(ff, current[ff.key]))
		}
		groups = append(groups, huh.NewGroup(fields...).Title(g.title))
	}

	f.Form = huh.NewForm(groups...).WithShowHelp(true)
	return f, nil
}

func (f *BidForm) field(ff formField, current string) huh.Field {
	switch ff.kind {
	case kindBool:
		v := current == "true"
		f.flags[ff.key] = &v
		return huh.NewConfirm().Title(ff.title).Affirmative("Yes").Negative("No").Value(&v)
	case kindEventType:
		v := current
		if v == "" {
			v = string(model.EventLocal)
		}
		f.values[ff.key] = &v
		return huh.NewSelect[string]().
			Title(ff.title).
			Options(
				huh.NewOption("Local", string(model.EventLocal)),
				huh.NewOption("Kingdom", string(model.EventKingdom)),
			).
			Value(&v)
	}

	v := current
	f.values[ff.key] = &v
	in := huh.NewInput().Title(ff.title).Value(&v)
	if check := validatorFor(ff.kind); check != nil {
		in = in.Validate(check)
	}
	return in
}

func validatorFor(kind fieldKind) func(string) error {
	switch kind {
	case kindCount:
		return validateCount
	case kindMoney:
		return validateMoney
	case kindDate:
		return func(s string) error {
			_, err := model.ParseDate(s)
			return err
		}
	case kindClock:
		return func(s string) error {
			_, err := model.ParseClock(s)
			return err
		}
	}
	return nil
}

func validateCount(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return errors.New("must be a whole number")
	}
	if n < 0 {
		return errors.New("must not be negative")
	}
	return nil
}

func validateMoney(s string) error {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return errors.New("must be an amount like 12.50")
	}
	if d.IsNegative() {
		return errors.New("must not be negative")
	}
	return nil
}

// Updates returns one SetField update per value the user changed.
func (f *BidForm) Updates() []session.Update {
	var updates []session.Update
	for _, g := range editGroups {
		for _, ff := range g.fields {
			value, ok := f.value(ff)
			if !ok || value == f.initial[ff.key] {
				continue
			}
			updates = append(updates, session.SetField(ff.key, literal(ff.kind, value)))
		}
	}
	return updates
}

func (f *BidForm) value(ff formField) (string, bool) {
	if p, ok := f.flags[ff.key]; ok {
		return strconv.FormatBool(*p), true
	}
	if p, ok := f.values[ff.key]; ok {
		return strings.TrimSpace(*p), true
	}
	return "", false
}

// literal renders a form value as the JSON literal SetField expects, so text
// that happens to look like a number stays a string.
func literal(kind fieldKind, value string) string {
	switch kind {
	case kindCount, kindBool:
		if value == "" {
			return "0"
		}
		return value
	case kindMoney:
		value = strings.TrimSpace(strings.TrimPrefix(value, "$"))
		if value == "" {
			return "0"
		}
		return value
	}
	quoted, _ := json.Marshal(value)
	return string(quoted)
}

// fieldValues flattens b into its persisted field names with string values.
func fieldValues(b model.BidRecord) (map[string]string, error) {
	data, err := model.Encode(b)
	if err != nil {
		return nil, err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("flattening bid: %w", err)
	}
	out := make(map[string]string, len(raw))
	for key, v := range raw {
		var s string
		if json.Unmarshal(v, &s) == nil {
			out[key] = s
			continue
		}
		out[key] = string(v)
	}
	return out, nil
}
