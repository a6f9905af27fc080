package model

import "github.com/shopspring/decimal"

// SiteProfile is a reusable partial record for a known venue. Only facility and
// pricing fields can appear; nil fields leave the target bid untouched.
type SiteProfile struct {
	SiteName    *string `json:"site_name,omitempty"`
	SiteAddress *string `json:"site_address,omitempty"`

	ParkingSpaces    *int `json:"parking_spaces,omitempty"`
	ParkingShadedPct *int `json:"parking_shaded_pct,omitempty"`
	ParkingDistance  *int `json:"parking_distance,omitempty"`

	BathroomsCount     *int  `json:"bathrooms_count,omitempty"`
	BathroomsShadedPct *int  `json:"bathrooms_shaded_pct,omitempty"`
	RestroomsHaveWater *bool `json:"restrooms_have_water,omitempty"`
	ADARamps           *bool `json:"ada_ramps,omitempty"`
	ADAParking         *bool `json:"ada_parking,omitempty"`
	ADABathrooms       *bool `json:"ada_bathrooms,omitempty"`

	KitchenSize   *string `json:"kitchen_size,omitempty"`
	StoveBurners  *int    `json:"kitchen_stove_burners,omitempty"`
	Ovens         *int    `json:"kitchen_ovens,omitempty"`
	PrepSinks     *int    `json:"prep_sinks,omitempty"`
	CleaningSinks *int    `json:"cleaning_sinks,omitempty"`
	WalkInFridge  *bool   `json:"walk_in_fridge,omitempty"`
	ReachInFridge *bool   `json:"reach_in_fridge,omitempty"`
	Freezer       *bool   `json:"freezer,omitempty"`
	ServingLines  *int    `json:"serving_lines,omitempty"`
	PrepTables    *int    `json:"kitchen_prep_tables,omitempty"`

	BaySize    *string `json:"bay_size,omitempty"`
	BayTables  *int    `json:"bay_tables,omitempty"`
	BayShowers *int    `json:"bay_showers,omitempty"`
	BayFirepit *bool   `json:"bay_firepit,omitempty"`

	CampingAllowed   *bool `json:"camping_allowed,omitempty"`
	CampingTents     *int  `json:"camping_tents,omitempty"`
	CampingRV        *int  `json:"camping_rv,omitempty"`
	CampingShadedPct *int  `json:"camping_shaded_pct,omitempty"`
	WaterPoints      *int  `json:"water_points,omitempty"`

	SiteFlatFee        *decimal.Decimal `json:"site_flat_fee,omitempty"`
	SiteCostPerPerson  *decimal.Decimal `json:"site_cost_per_person,omitempty"`
	PriceFull          *decimal.Decimal `json:"price_full,omitempty"`
	PricePartial       *decimal.Decimal `json:"price_partial,omitempty"`
	NonMemberSurcharge *decimal.Decimal `json:"non_member_surcharge,omitempty"`
	FeastPrice         *decimal.Decimal `json:"feast_price,omitempty"`
	FeastCostPerPerson *decimal.Decimal `json:"feast_cost_per_person,omitempty"`
	FeastCapacity      *int             `json:"feast_capacity,omitempty"`
	BedsTopQty         *int             `json:"beds_top_qty,omitempty"`
	BedsTopPrice       *decimal.Decimal `json:"beds_top_price,omitempty"`
	BedsBottomQty      *int             `json:"beds_bottom_qty,omitempty"`
	BedsBottomPrice    *decimal.Decimal `json:"beds_bottom_price,omitempty"`
}

func assign[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func ptr[T any](v T) *T { return &v }

// ApplyProfile merges the non-nil fields of p onto a copy of b. Applying the
// same profile twice yields the same record as applying it once.
func ApplyProfile(b BidRecord, p SiteProfile) BidRecord {
	out := b.Clone()
	f, pr := &out.Facility, &out.Pricing

	assign(&f.SiteName, p.SiteName)
	assign(&f.SiteAddress, p.SiteAddress)
	assign(&f.ParkingSpaces, p.ParkingSpaces)
	assign(&f.ParkingShadedPct, p.ParkingShadedPct)
	assign(&f.ParkingDistance, p.ParkingDistance)
	assign(&f.BathroomsCount, p.BathroomsCount)
	assign(&f.BathroomsShadedPct, p.BathroomsShadedPct)
	assign(&f.RestroomsHaveWater, p.RestroomsHaveWater)
	assign(&f.ADARamps, p.ADARamps)
	assign(&f.ADAParking, p.ADAParking)
	assign(&f.ADABathrooms, p.ADABathrooms)
	assign(&f.KitchenSize, p.KitchenSize)
	assign(&f.StoveBurners, p.StoveBurners)
	assign(&f.Ovens, p.Ovens)
	assign(&f.PrepSinks, p.PrepSinks)
	assign(&f.CleaningSinks, p.CleaningSinks)
	assign(&f.WalkInFridge, p.WalkInFridge)
	assign(&f.ReachInFridge, p.ReachInFridge)
	assign(&f.Freezer, p.Freezer)
	assign(&f.ServingLines, p.ServingLines)
	assign(&f.PrepTables, p.PrepTables)
	assign(&f.BaySize, p.BaySize)
	assign(&f.BayTables, p.BayTables)
	assign(&f.BayShowers, p.BayShowers)
	assign(&f.BayFirepit, p.BayFirepit)
	assign(&f.CampingAllowed, p.CampingAllowed)
	assign(&f.CampingTents, p.CampingTents)
	assign(&f.CampingRV, p.CampingRV)
	assign(&f.CampingShadedPct, p.CampingShadedPct)
	assign(&f.WaterPoints, p.WaterPoints)

	assign(&pr.SiteFlatFee, p.SiteFlatFee)
	assign(&pr.SiteCostPerPerson, p.SiteCostPerPerson)
	assign(&pr.PriceFull, p.PriceFull)
	assign(&pr.PricePartial, p.PricePartial)
	assign(&pr.NonMemberSurcharge, p.NonMemberSurcharge)
	assign(&pr.FeastPrice, p.FeastPrice)
	assign(&pr.FeastCostPerPerson, p.FeastCostPerPerson)
	assign(&pr.FeastCapacity, p.FeastCapacity)
	assign(&pr.BedsTopQty, p.BedsTopQty)
	assign(&pr.BedsTopPrice, p.BedsTopPrice)
	assign(&pr.BedsBottomQty, p.BedsBottomQty)
	assign(&pr.BedsBottomPrice, p.BedsBottomPrice)

	return out
}

// ProfileFromBid captures every facility and pricing field of b as a profile.
func ProfileFromBid(b BidRecord) SiteProfile {
	f, pr := b.Facility, b.Pricing
	return SiteProfile{
		SiteName:           ptr(f.SiteName),
		SiteAddress:        ptr(f.SiteAddress),
		ParkingSpaces:      ptr(f.ParkingSpaces),
		ParkingShadedPct:   ptr(f.ParkingShadedPct),
		ParkingDistance:    ptr(f.ParkingDistance),
		BathroomsCount:     ptr(f.BathroomsCount),
		BathroomsShadedPct: ptr(f.BathroomsShadedPct),
		RestroomsHaveWater: ptr(f.RestroomsHaveWater),
		ADARamps:           ptr(f.ADARamps),
		ADAParking:         ptr(f.ADAParking),
		ADABathrooms:       ptr(f.ADABathrooms),
		KitchenSize:        ptr(f.KitchenSize),
		StoveBurners:       ptr(f.StoveBurners),
		Ovens:              ptr(f.Ovens),
		PrepSinks:          ptr(f.PrepSinks),
		CleaningSinks:      ptr(f.CleaningSinks),
		WalkInFridge:       ptr(f.WalkInFridge),
		ReachInFridge:      ptr(f.ReachInFridge),
		Freezer:            ptr(f.Freezer),
		ServingLines:       ptr(f.ServingLines),
		PrepTables:         ptr(f.PrepTables),
		BaySize:            ptr(f.BaySize),
		BayTables:          ptr(f.BayTables),
		BayShowers:         ptr(f.BayShowers),
		BayFirepit:         ptr(f.BayFirepit),
		CampingAllowed:     ptr(f.CampingAllowed),
		CampingTents:       ptr(f.CampingTents),
		CampingRV:          ptr(f.CampingRV),
		CampingShadedPct:   ptr(f.CampingShadedPct),
		WaterPoints:        ptr(f.WaterPoints),
		SiteFlatFee:        ptr(pr.SiteFlatFee),
		SiteCostPerPerson:  ptr(pr.SiteCostPerPerson),
		PriceFull:          ptr(pr.PriceFull),
		PricePartial:       ptr(pr.PricePartial),
		NonMemberSurcharge: ptr(pr.NonMemberSurcharge),
		FeastPrice:         ptr(pr.FeastPrice),
		FeastCostPerPerson: ptr(pr.FeastCostPerPerson),
		FeastCapacity:      ptr(pr.FeastCapacity),
		BedsTopQty:         ptr(pr.BedsTopQty),
		BedsTopPrice:       ptr(pr.BedsTopPrice),
		BedsBottomQty:      ptr(pr.BedsBottomQty),
		BedsBottomPrice:    ptr(pr.BedsBottomPrice),
	}
}

// Name returns the profile's site name, or "" when unset.
func (p SiteProfile) Name() string {
	if p.SiteName == nil {
		return ""
	}
	return *p.SiteName
}
