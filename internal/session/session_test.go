package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridies/eventbid/internal/model"
	"github.com/meridies/eventbid/internal/projection"
	"github.com/meridies/eventbid/internal/store"
)

func fixedNow() time.Time { return time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC) }

func newSession(t *testing.T, st store.Store, locker *store.Locker) *Session {
	t.Helper()
	return New(st, Options{Locker: locker, Now: fixedNow})
}

func named(group, event string) Update {
	return func(b *model.BidRecord) error {
		b.GroupName = group
		b.EventName = event
		return nil
	}
}

func TestNew_StartsOnDefaults(t *testing.T) {
	s := newSession(t, nil, nil)
	b := s.Bid()
	if b.BidForYear != 2026 || b.OriginKingdom != "Meridies" {
		t.Errorf("defaults = %+v", b.Identity)
	}
	if s.Dirty() || s.Key() != "" || s.Version() != 0 {
		t.Errorf("fresh session state: dirty=%v key=%q version=%d", s.Dirty(), s.Key(), s.Version())
	}
}

func TestApply_IsAllOrNothing(t *testing.T) {
	s := newSession(t, nil, nil)
	err := s.Apply(
		PutExpense("Insurance", model.Expense{Projected: decimal.NewFromInt(150)}),
		RemoveExpense("Port-a-johns"),
	)
	if err == nil {
		t.Fatal("Apply with a failing update succeeded")
	}
	if len(s.Bid().Expenses) != 0 {
		t.Errorf("partial update leaked: %v", s.Bid().Expenses)
	}
	if s.Dirty() {
		t.Error("failed Apply marked the session dirty")
	}
}

func TestApply_Reducers(t *testing.T) {
	s := newSession(t, nil, nil)
	hall := "Shire Hall"
	fee := decimal.NewFromInt(400)

	err := s.Apply(
		named("Owlsherst", "Spring Coronation"),
		SetField("event_type", "Kingdom"),
		SetStaff([]model.StaffRole{{Role: "Event Steward", Name: "Aelfric"}}),
		PutExpense("Insurance", model.Expense{Projected: decimal.NewFromInt(150), Actual: decimal.NewFromInt(140)}),
		PutExpense("Site tokens", model.Expense{Projected: decimal.NewFromInt(60)}),
		RemoveExpense("Site tokens"),
		ApplyProfile(model.SiteProfile{SiteName: &hall, SiteFlatFee: &fee}),
	)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	b := s.Bid()
	if b.EventType != model.EventKingdom {
		t.Errorf("EventType = %v, want Kingdom", b.EventType)
	}
	if len(b.Staff) != 1 || b.Staff[0].Name != "Aelfric" {
		t.Errorf("Staff = %+v", b.Staff)
	}
	if names := b.Expenses.Names(); len(names) != 1 || names[0] != "Insurance" {
		t.Errorf("Expenses = %v, want [Insurance]", names)
	}
	if b.SiteName != "Shire Hall" || !b.SiteFlatFee.Equal(fee) {
		t.Errorf("profile not applied: %q %s", b.SiteName, b.SiteFlatFee)
	}
	if !s.Dirty() {
		t.Error("Apply did not mark the session dirty")
	}

	if err := s.Apply(SetStaff([]model.StaffRole{{Name: "nobody"}})); err == nil {
		t.Error("SetStaff accepted a role without a name")
	}
	if err := s.Apply(SetField("no_such_field", "1")); err == nil {
		t.Error("SetField accepted an unknown field")
	}
}

func TestApply_RevalidatesAndDropsReport(t *testing.T) {
	s := newSession(t, nil, nil)
	if _, err := s.Project(projection.Inputs{AttendeesFull: 10}); err != nil {
		t.Fatalf("Project: %v", err)
	}
	if _, ok := s.LastReport(); !ok {
		t.Fatal("LastReport missing after Project")
	}

	if err := s.Apply(SetField("price_full", "-5")); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if _, ok := s.LastReport(); ok {
		t.Error("LastReport survived a change to the bid")
	}
	if !model.HasErrors(s.Issues()) {
		t.Errorf("Issues = %v, want a negative price error", s.Issues())
	}
	if _, err := s.Project(projection.Inputs{AttendeesFull: 10}); !errors.Is(err, projection.ErrNegativeInput) {
		t.Errorf("Project err = %v, want ErrNegativeInput", err)
	}
}

func TestProject_UsesSessionOptions(t *testing.T) {
	s := New(nil, Options{Projection: projection.Options{ZeroMarginPolicy: projection.ZeroMarginZeroWhenNoFixed}})
	r, err := s.Project(projection.Inputs{})
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	if r.BreakEven != projection.At(0) {
		t.Errorf("BreakEven = %v, want 0", r.BreakEven)
	}
}

func TestSave_RequiresNames(t *testing.T) {
	s := newSession(t, store.NewMemory(), nil)
	if _, err := s.Save(context.Background()); !errors.Is(err, ErrUnnamed) {
		t.Errorf("Save err = %v, want ErrUnnamed", err)
	}
}

func TestSave_DetectsConcurrentEdits(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	locker := store.NewLocker()

	a := newSession(t, st, locker)
	if err := a.Apply(named("Owlsherst", "Coronation")); err != nil {
		t.Fatal(err)
	}
	v, err := a.Save(ctx)
	if err != nil {
		t.Fatalf("first Save: %v", err)
	}
	if v != 1 || a.Key() != "owlsherst--coronation" || a.Dirty() {
		t.Errorf("after Save: version=%d key=%q dirty=%v", v, a.Key(), a.Dirty())
	}

	b := newSession(t, st, locker)
	if _, err := b.Load(ctx, "owlsherst--coronation"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := b.Apply(SetField("price_full", "30")); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Save(ctx); err != nil {
		t.Fatalf("second session Save: %v", err)
	}

	if err := a.Apply(SetField("price_full", "25")); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Save(ctx); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("stale Save err = %v, want ErrConflict", err)
	}

	// Reloading picks up the other session's write.
	if _, err := a.Load(ctx, "owlsherst--coronation"); err != nil {
		t.Fatal(err)
	}
	if got := a.Bid().PriceFull; !got.Equal(decimal.NewFromInt(30)) {
		t.Errorf("PriceFull = %s, want 30", got)
	}
	if a.Version() != 2 {
		t.Errorf("Version = %d, want 2", a.Version())
	}
}

func TestSave_NewKeyMustBeFree(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()

	first := newSession(t, st, nil)
	_ = first.Apply(named("Owlsherst", "Coronation"))
	if _, err := first.Save(ctx); err != nil {
		t.Fatal(err)
	}

	second := newSession(t, st, nil)
	_ = second.Apply(named("Owlsherst", "Coronation"))
	if _, err := second.Save(ctx); !errors.Is(err, store.ErrConflict) {
		t.Errorf("Save over an existing bid err = %v, want ErrConflict", err)
	}
	if _, err := second.Overwrite(ctx); err != nil {
		t.Errorf("Overwrite: %v", err)
	}

	// Renaming saves under the new key.
	_ = first.Apply(named("Owlsherst", "Coronation 2027"))
	v, err := first.Save(ctx)
	if err != nil {
		t.Fatalf("Save renamed: %v", err)
	}
	if v != 1 || first.Key() != "owlsherst--coronation-2027" {
		t.Errorf("renamed save: version=%d key=%q", v, first.Key())
	}
}

func TestImportAndDelete(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	s := newSession(t, st, nil)

	warnings, err := s.Import([]byte(`{"group_name":"Glaedenfeld","event_name":"Fall Revel","price_full":"abc","mystery":1}`))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if len(warnings) != 2 {
		t.Errorf("warnings = %v, want 2", warnings)
	}
	if s.Key() != "" || !s.Dirty() {
		t.Errorf("imported bid should be detached and dirty")
	}
	if _, err := s.Import([]byte(`[1,2]`)); err == nil {
		t.Error("Import of an array succeeded")
	}
	if s.Bid().EventName != "Fall Revel" {
		t.Error("failed Import replaced the bid")
	}

	if _, err := s.Save(ctx); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Delete(ctx); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := st.Load(ctx, store.KindBids, "glaedenfeld--fall-revel"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Load after Delete err = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx); err == nil {
		t.Error("second Delete succeeded")
	}
}

func TestList(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	for _, ev := range []string{"Coronation", "Fall Revel"} {
		s := newSession(t, st, nil)
		_ = s.Apply(named("Owlsherst", ev))
		if _, err := s.Save(ctx); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := st.Save(ctx, store.KindBids, "broken", []byte(`"just a string"`), store.AnyVersion); err != nil {
		t.Fatal(err)
	}

	list, err := List(ctx, st)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("len(List) = %d, want 3", len(list))
	}
	if !list[0].Invalid || list[0].Key != "broken" {
		t.Errorf("list[0] = %+v, want invalid broken entry", list[0])
	}
	if list[1].EventName != "Coronation" || list[1].Version != 1 || list[1].StartDate.String() != "2026-05-02" {
		t.Errorf("list[1] = %+v", list[1])
	}
}
