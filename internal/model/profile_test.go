package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestApplyProfile_MergesOnlyPresentFields(t *testing.T) {
	b := populatedBid(t)
	p := SiteProfile{
		SiteName:       ptr("Shire Hall"),
		SiteAddress:    ptr("88 Market Street"),
		ParkingSpaces:  ptr(60),
		CampingAllowed: ptr(false),
		SiteFlatFee:    ptr(decimal.NewFromInt(300)),
	}

	got := ApplyProfile(b, p)

	if got.SiteName != "Shire Hall" || got.ParkingSpaces != 60 || got.CampingAllowed {
		t.Errorf("profile fields not applied: %q %d %v", got.SiteName, got.ParkingSpaces, got.CampingAllowed)
	}
	if !got.SiteFlatFee.Equal(decimal.NewFromInt(300)) {
		t.Errorf("SiteFlatFee = %s, want 300", got.SiteFlatFee)
	}
	if got.KitchenSize != "Large" || got.CampingTents != 40 || !got.PriceFull.Equal(b.PriceFull) {
		t.Errorf("absent fields changed: %q %d %s", got.KitchenSize, got.CampingTents, got.PriceFull)
	}
	if got.GroupName != b.GroupName || len(got.Staff) != len(b.Staff) {
		t.Error("identity or staff changed")
	}
	if b.SiteName != "Camp Comfy" {
		t.Errorf("input record mutated: SiteName = %q", b.SiteName)
	}
}

func TestApplyProfile_Idempotent(t *testing.T) {
	b := NewBidAt(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	profiles := []SiteProfile{
		{},
		{SiteName: ptr("Camp Comfy"), KitchenSize: ptr("Large"), CampingTents: ptr(40)},
		ProfileFromBid(populatedBid(t)),
	}
	for i, p := range profiles {
		once := ApplyProfile(b, p)
		twice := ApplyProfile(once, p)
		if !Equal(once, twice) {
			t.Errorf("profile %d: applying twice differs from once", i)
		}
	}
}

func TestProfileFromBid_RoundTrip(t *testing.T) {
	src := populatedBid(t)
	p := ProfileFromBid(src)
	if p.Name() != "Camp Comfy" {
		t.Errorf("Name() = %q", p.Name())
	}

	got := ApplyProfile(NewBid(), p)
	if got.Facility != src.Facility {
		t.Errorf("Facility = %+v, want %+v", got.Facility, src.Facility)
	}
	for i, f := range got.MoneyFields() {
		if !f.Amount.Equal(src.MoneyFields()[i].Amount) {
			t.Errorf("%s = %s, want %s", f.Name, f.Amount, src.MoneyFields()[i].Amount)
		}
	}
	if (SiteProfile{}).Name() != "" {
		t.Error("empty profile has a name")
	}
}
