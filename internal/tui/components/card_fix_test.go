package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/meridies/eventbid/internal/tui/theme"
)

func init() {
	// Force TrueColor output so ANSI codes are generated in tests
	lipgloss.SetColorProfile(termenv.TrueColor)
}

func TestLayoutRowSumsToWidth(t *testing.T) {
	tests := []struct {
		width, n int
	}{
		{100, 3},
		{81, 4},
		{7, 7},
		{10, 1},
	}
	for _, tt := range tests {
		widths := LayoutRow(tt.width, tt.n)
		if len(widths) != tt.n {
			t.Fatalf("LayoutRow(%d, %d) len = %d, want %d", tt.width, tt.n, len(widths), tt.n)
		}
		sum := 0
		for _, w := range widths {
			sum += w
		}
		if sum != tt.width {
			t.Errorf("LayoutRow(%d, %d) sum = %d, want %d", tt.width, tt.n, sum, tt.width)
		}
	}
	if got := LayoutRow(10, 0); got != nil {
		t.Errorf("LayoutRow(10, 0) = %v, want nil", got)
	}
}

func TestCardRowPadsToTallest(t *testing.T) {
	theme.SetActive("flexoki-dark")

	short := ContentCard("Short", "Content", 22, false)
	tall := ContentCard("Tall", "Line 1\nLine 2\nLine 3\nLine 4", 22, true)

	tallLines := len(strings.Split(tall, "\n"))
	if len(strings.Split(short, "\n")) >= tallLines {
		t.Fatal("short card should be shorter than tall card")
	}

	lines := strings.Split(CardRow([]string{tall, short}), "\n")
	if len(lines) != tallLines {
		t.Errorf("joined height = %d, want %d", len(lines), tallLines)
	}
	want := lipgloss.Width(lines[0])
	for i, line := range lines {
		if w := lipgloss.Width(line); w != want {
			t.Errorf("line %d width = %d, want %d", i, w, want)
		}
	}
}

func TestMetricCardRowWidth(t *testing.T) {
	row := MetricCardRow([]Metric{
		{Label: "Revenue", Value: "$2,150.00"},
		{Label: "Net", Value: "$799.00", Color: theme.Active.Gain},
		{Label: "Break-even", Value: "40", Note: "full-price attendees"},
	}, 90)
	for i, line := range strings.Split(row, "\n") {
		if w := lipgloss.Width(line); w != 90 {
			t.Errorf("line %d width = %d, want 90", i, w)
		}
	}
}

func TestCapacityBar(t *testing.T) {
	tests := []struct {
		name     string
		used     int
		capacity int
		want     string
	}{
		{"within", 30, 60, "30/60"},
		{"oversold", 70, 60, "70/60"},
		{"none offered", 0, 0, "not offered"},
		{"sold without capacity", 5, 0, "5 sold, none offered"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CapacityBar("Feast", tt.used, tt.capacity, 8, 20)
			if !strings.Contains(got, tt.want) {
				t.Errorf("CapacityBar(%d, %d) = %q, want it to contain %q", tt.used, tt.capacity, got, tt.want)
			}
		})
	}
}

func TestColorForUse(t *testing.T) {
	th := theme.Active
	tests := []struct {
		pct  float64
		want lipgloss.Color
	}{
		{0.2, th.Gain},
		{0.8, th.Warn},
		{1, th.Warn},
		{1.2, th.Loss},
	}
	for _, tt := range tests {
		if got := ColorForUse(tt.pct); got != tt.want {
			t.Errorf("ColorForUse(%v) = %v, want %v", tt.pct, got, tt.want)
		}
	}
}
