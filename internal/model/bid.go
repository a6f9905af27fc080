// Package model defines the event bid record, its expense ledger and site profiles.
package model

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

func init() {
	// Money is persisted as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// EventType controls how a positive net is split after the event.
type EventType string

const (
	EventLocal   EventType = "Local"
	EventKingdom EventType = "Kingdom"
)

// ParseEventType accepts "local" or "kingdom" in any case.
func ParseEventType(s string) (EventType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "local":
		return EventLocal, nil
	case "kingdom":
		return EventKingdom, nil
	}
	return "", fmt.Errorf("unknown event type %q (want Local or Kingdom)", s)
}

// UnmarshalText implements encoding.TextUnmarshaler so invalid values are
// rejected at decode time.
func (t *EventType) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*t = ""
		return nil
	}
	parsed, err := ParseEventType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Kitchen and bathhouse sizes offered by the bid form.
var FacilitySizes = []string{"None", "Small", "Medium", "Large", "Giant"}

// Identity holds event identity and scheduling metadata.
type Identity struct {
	OriginKingdom      string    `json:"origin_kingdom"`
	GroupName          string    `json:"group_name"`
	EventName          string    `json:"event_name"`
	EventType          EventType `json:"event_type"`
	BidForYear         int       `json:"bid_for_year"`
	StartDate          Date      `json:"start_date"`
	StartTime          Clock     `json:"start_time"`
	EndDate            Date      `json:"end_date"`
	EndTime            Clock     `json:"end_time"`
	GateTime           Clock     `json:"gate_time"`
	SingleDay          bool      `json:"single_day"`
	ExpectedAttendance int       `json:"expected_attendance"`
	WebsiteURL         string    `json:"website_url"`
	IsRepeat           bool      `json:"is_repeat"`
	RepeatCount        int       `json:"repeat_count"`
}

// StaffRole is one named staffing slot. Name and contact may be blank.
type StaffRole struct {
	Role    string `json:"role"`
	Name    string `json:"name,omitempty"`
	Contact string `json:"contact,omitempty"`
}

// Facility describes the site. None of these fields enter the financial model.
type Facility struct {
	SiteName    string `json:"site_name"`
	SiteAddress string `json:"site_address"`

	ParkingSpaces    int `json:"parking_spaces"`
	ParkingShadedPct int `json:"parking_shaded_pct"`
	ParkingDistance  int `json:"parking_distance"`

	BathroomsCount     int  `json:"bathrooms_count"`
	BathroomsShadedPct int  `json:"bathrooms_shaded_pct"`
	RestroomsHaveWater bool `json:"restrooms_have_water"`
	ADARamps           bool `json:"ada_ramps"`
	ADAParking         bool `json:"ada_parking"`
	ADABathrooms       bool `json:"ada_bathrooms"`

	KitchenSize   string `json:"kitchen_size"`
	StoveBurners  int    `json:"kitchen_stove_burners"`
	Ovens         int    `json:"kitchen_ovens"`
	PrepSinks     int    `json:"prep_sinks"`
	CleaningSinks int    `json:"cleaning_sinks"`
	WalkInFridge  bool   `json:"walk_in_fridge"`
	ReachInFridge bool   `json:"reach_in_fridge"`
	Freezer       bool   `json:"freezer"`
	ServingLines  int    `json:"serving_lines"`
	PrepTables    int    `json:"kitchen_prep_tables"`

	BaySize    string `json:"bay_size"`
	BayTables  int    `json:"bay_tables"`
	BayShowers int    `json:"bay_showers"`
	BayFirepit bool   `json:"bay_firepit"`

	CampingAllowed   bool `json:"camping_allowed"`
	CampingTents     int  `json:"camping_tents"`
	CampingRV        int  `json:"camping_rv"`
	CampingShadedPct int  `json:"camping_shaded_pct"`
	WaterPoints      int  `json:"water_points"`
}

// Pricing holds every amount and capacity the projection engine reads.
type Pricing struct {
	SiteFlatFee        decimal.Decimal `json:"site_flat_fee"`
	SiteCostPerPerson  decimal.Decimal `json:"site_cost_per_person"`
	PriceFull          decimal.Decimal `json:"price_full"`
	PricePartial       decimal.Decimal `json:"price_partial"`
	NonMemberSurcharge decimal.Decimal `json:"non_member_surcharge"`

	FeastPrice         decimal.Decimal `json:"feast_price"`
	FeastCostPerPerson decimal.Decimal `json:"feast_cost_per_person"`
	FeastCapacity      int             `json:"feast_capacity"`

	BedsTopQty      int             `json:"beds_top_qty"`
	BedsTopPrice    decimal.Decimal `json:"beds_top_price"`
	BedsBottomQty   int             `json:"beds_bottom_qty"`
	BedsBottomPrice decimal.Decimal `json:"beds_bottom_price"`
}

// MoneyFields lists the pricing amounts by their persisted names.
func (p Pricing) MoneyFields() []NamedAmount {
	return []NamedAmount{
		{"site_flat_fee", p.SiteFlatFee},
		{"site_cost_per_person", p.SiteCostPerPerson},
		{"price_full", p.PriceFull},
		{"price_partial", p.PricePartial},
		{"non_member_surcharge", p.NonMemberSurcharge},
		{"feast_price", p.FeastPrice},
		{"feast_cost_per_person", p.FeastCostPerPerson},
		{"beds_top_price", p.BedsTopPrice},
		{"beds_bottom_price", p.BedsBottomPrice},
	}
}

// NamedAmount pairs a field name with its value.
type NamedAmount struct {
	Name   string
	Amount decimal.Decimal
}

// BidRecord is one event's budgeting record. The embedded groups flatten into
// a single JSON object.
type BidRecord struct {
	Identity
	Facility
	Pricing

	Staff    []StaffRole   `json:"staff"`
	Expenses ExpenseLedger `json:"expenses"`
}

// DefaultStaffRoles are the slots the bid form offers out of the box.
var DefaultStaffRoles = []string{"Event Steward", "Feast Steward", "Reeve", "Marshal", "Tollner"}

// NewBid returns a blank bid carrying the form defaults.
func NewBid() BidRecord {
	return NewBidAt(time.Now())
}

// NewBidAt is NewBid with an explicit clock.
func NewBidAt(now time.Time) BidRecord {
	today := DateOf(now)
	staff := make([]StaffRole, 0, len(DefaultStaffRoles))
	for _, role := range DefaultStaffRoles {
		staff = append(staff, StaffRole{Role: role})
	}
	return BidRecord{
		Identity: Identity{
			OriginKingdom:      "Meridies",
			EventType:          EventLocal,
			BidForYear:         now.Year(),
			StartDate:          today,
			StartTime:          Clock{Hour: 8},
			EndDate:            today,
			EndTime:            Clock{Hour: 12},
			GateTime:           Clock{Hour: 17},
			ExpectedAttendance: 100,
		},
		Facility: Facility{
			ParkingDistance: 100,
			KitchenSize:     "None",
			BaySize:         "None",
		},
		Staff:    staff,
		Expenses: ExpenseLedger{},
	}
}

// Clone returns a deep copy of the record.
func (b BidRecord) Clone() BidRecord {
	out := b
	if b.Staff != nil {
		out.Staff = append([]StaffRole(nil), b.Staff...)
	}
	out.Expenses = b.Expenses.Clone()
	return out
}

// Key is the persistence key of the bid, derived from group and event name.
func (b BidRecord) Key() string {
	return BidKey(b.GroupName, b.EventName)
}

// BidKey builds the store key for a (group, event) pair.
func BidKey(group, event string) string {
	return Slug(group) + "--" + Slug(event)
}

// Slug lower-cases s and collapses every run of non-alphanumerics into one dash.
func Slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
