package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/meridies/eventbid/internal/config"
	"github.com/meridies/eventbid/internal/model"
	"github.com/meridies/eventbid/internal/projection"
	"github.com/meridies/eventbid/internal/session"
	"github.com/meridies/eventbid/internal/store"
	"github.com/meridies/eventbid/internal/tui/components"
)

func newTestApp(t *testing.T, updates ...session.Update) App {
	t.Helper()
	sess := session.New(store.NewMemory(), session.Options{
		Now: func() time.Time { return time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC) },
	})
	base := []session.Update{
		session.SetField("price_full", "25"),
		session.SetField("site_cost_per_person", "5"),
		session.SetField("site_flat_fee", "400"),
		session.PutExpense("Insurance", model.Expense{
			Projected: decimal.NewFromInt(100),
			Actual:    decimal.NewFromInt(250),
		}),
	}
	if err := sess.Apply(append(base, updates...)...); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	return NewApp(context.Background(), sess, Options{Config: config.DefaultConfig()})
}

func press(t *testing.T, a App, keys string) App {
	t.Helper()
	for _, r := range keys {
		m, _ := a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		a = m.(App)
	}
	return a
}

func TestTypingUpdatesProjection(t *testing.T) {
	a := press(t, newTestApp(t), "30")

	if got := a.Inputs().AttendeesFull; got != 30 {
		t.Fatalf("AttendeesFull = %d, want 30", got)
	}
	if !a.hasReport {
		t.Fatalf("no report: %v", a.projErr)
	}
	// 750 gate - 500 fixed - 150 per head
	if want := decimal.NewFromInt(100); !a.report.TotalNet.Equal(want) {
		t.Errorf("TotalNet = %s, want %s", a.report.TotalNet, want)
	}
	// ceil(500 / 20)
	if got := a.report.BreakEven; got != projection.At(25) {
		t.Errorf("BreakEven = %v, want 25", got)
	}
}

func TestFocusMovesBetweenInputs(t *testing.T) {
	a := newTestApp(t)
	m, _ := a.Update(tea.KeyMsg{Type: tea.KeyTab})
	a = m.(App)
	a = press(t, a, "12")

	in := a.Inputs()
	if in.AttendeesFull != 0 || in.AttendeesPartial != 12 {
		t.Errorf("inputs = %+v, want 12 partial only", in)
	}

	m, _ = a.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	a = m.(App)
	m, _ = a.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	a = m.(App)
	if a.focus != inputBedsBottom {
		t.Errorf("focus = %d, want wrap to %d", a.focus, inputBedsBottom)
	}
}

func TestModeToggleSwitchesFixedCosts(t *testing.T) {
	a := press(t, newTestApp(t), "30")
	if want := decimal.NewFromInt(500); !a.report.FixedCosts.Equal(want) {
		t.Fatalf("projected FixedCosts = %s, want %s", a.report.FixedCosts, want)
	}

	a = press(t, a, "m")
	if a.mode != model.ModeActual {
		t.Fatalf("mode = %s, want actual", a.mode)
	}
	if want := decimal.NewFromInt(650); !a.report.FixedCosts.Equal(want) {
		t.Errorf("actual FixedCosts = %s, want %s", a.report.FixedCosts, want)
	}
	if a.report.GateRevenue.Equal(decimal.Zero) {
		t.Error("mode switch changed revenue")
	}
}

func TestTabKeys(t *testing.T) {
	a := newTestApp(t)
	tests := []struct {
		key  string
		want int
	}{
		{"e", tabExpenses},
		{"b", tabBid},
		{"p", tabProjection},
	}
	for _, tt := range tests {
		a = press(t, a, tt.key)
		if a.activeTab != tt.want {
			t.Errorf("after %q activeTab = %d, want %d", tt.key, a.activeTab, tt.want)
		}
	}

	a = press(t, a, "e5")
	if got := a.Inputs().AttendeesFull; got != 0 {
		t.Errorf("digit on expenses tab reached input: %d", got)
	}
}

func TestTabAtXMatchesTabWidths(t *testing.T) {
	n := len(components.Tabs)
	for active := 0; active < n; active++ {
		a := App{activeTab: active}
		pos := 0
		for i, tab := range components.Tabs {
			w := components.TabVisualWidth(tab, i == active)
			x := pos + w/2 // midpoint inside this tab
			if got := a.tabAtX(x); got != i {
				t.Fatalf("active=%d x=%d -> tab=%d, want %d", active, x, got, i)
			}
			pos += w
			if i < n-1 {
				pos++ // separator
			}
		}
		if got := a.tabAtX(pos + 5); got != -1 {
			t.Errorf("active=%d past last tab -> %d, want -1", active, got)
		}
	}
}

func TestSave(t *testing.T) {
	a := press(t, newTestApp(t), "s")
	if !strings.HasPrefix(a.message, "Save failed") {
		t.Errorf("unnamed save message = %q", a.message)
	}

	a = newTestApp(t,
		session.SetField("group_name", "Barony of Iron Mountain"),
		session.SetField("event_name", "Spring War"),
	)
	a = press(t, a, "s")
	if got, want := a.sess.Key(), "barony-of-iron-mountain--spring-war"; got != want {
		t.Errorf("Key = %q, want %q", got, want)
	}
	if a.sess.Dirty() {
		t.Error("session still dirty after save")
	}
	if !strings.HasPrefix(a.message, "Saved") {
		t.Errorf("message = %q", a.message)
	}
}

func TestFillFromRates(t *testing.T) {
	a := newTestApp(t, session.SetField("expected_attendance", "200"))
	a = press(t, a, "r")

	in := a.Inputs()
	if in.AttendeesFull+in.AttendeesPartial != 200 {
		t.Errorf("attendance = %d, want 200", in.AttendeesFull+in.AttendeesPartial)
	}
	if in.FeastCount != 60 {
		t.Errorf("FeastCount = %d, want 60", in.FeastCount)
	}

	a = press(t, a, "x")
	if got := a.Inputs(); got.AttendeesFull != 0 || got.FeastCount != 0 {
		t.Errorf("inputs after clear = %+v", got)
	}
}

func TestView(t *testing.T) {
	a := press(t, newTestApp(t), "30")
	if a.View() != "" {
		t.Error("View before the first WindowSizeMsg should be empty")
	}

	m, _ := a.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	a = m.(App)
	view := a.View()
	for _, want := range []string{"Sales", "Break-even", "Total net", "Capacity"} {
		if !strings.Contains(view, want) {
			t.Errorf("projection view missing %q", want)
		}
	}

	a = press(t, a, "e")
	if view := a.View(); !strings.Contains(view, "Insurance") {
		t.Error("expenses view missing the Insurance line")
	}

	m, _ = a.Update(tea.WindowSizeMsg{Width: 60, Height: 20})
	a = m.(App)
	if view := a.View(); !strings.Contains(view, "too narrow") {
		t.Errorf("narrow view = %q", view)
	}
}

func TestHelpClosesOnAnyKey(t *testing.T) {
	a := press(t, newTestApp(t), "?")
	if !a.showHelp {
		t.Fatal("help not shown")
	}
	a = press(t, a, "7")
	if a.showHelp {
		t.Error("help still shown")
	}
	if got := a.Inputs().AttendeesFull; got != 0 {
		t.Errorf("key that closed help reached input: %d", got)
	}
}
