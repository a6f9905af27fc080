// Package tui provides the interactive Bubble Tea projection dashboard.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/meridies/eventbid/internal/config"
	"github.com/meridies/eventbid/internal/model"
	"github.com/meridies/eventbid/internal/projection"
	"github.com/meridies/eventbid/internal/session"
	"github.com/meridies/eventbid/internal/tui/components"
	"github.com/meridies/eventbid/internal/tui/theme"
)

const (
	inputFull = iota
	inputPartial
	inputFeast
	inputBedsTop
	inputBedsBottom
	inputCount // sentinel
)

var inputLabels = [inputCount]string{
	"Full attendees",
	"Day trippers",
	"Feast seats",
	"Top bunks sold",
	"Bottom bunks sold",
}

const (
	tabProjection = iota
	tabExpenses
	tabBid
)

const (
	minTerminalWidth = 80
	maxContentWidth  = 160
	minContentHeight = 5
)

// Options configure a dashboard.
type Options struct {
	Config     config.Config
	ConfigPath string
	Inputs     projection.Inputs
	NeedSetup  bool
}

// App is the root Bubble Tea model.
type App struct {
	ctx  context.Context
	sess *session.Session
	cfg  config.Config

	// Projection inputs
	inputs [inputCount]textinput.Model
	focus  int
	mode   model.Mode

	report    projection.Report
	hasReport bool
	projErr   error

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool
	message   string

	// Bid edit form (huh), open while non-nil
	editForm *BidForm

	// First-run setup (huh form)
	setupForm  *huh.Form
	setupVals  *setupValues
	needSetup  bool
	configPath string
}

// NewApp creates the dashboard over sess.
func NewApp(ctx context.Context, sess *session.Session, opts Options) App {
	mode := opts.Inputs.Mode
	if mode == "" {
		mode = model.ModeProjected
	}
	a := App{
		ctx:        ctx,
		sess:       sess,
		cfg:        opts.Config,
		mode:       mode,
		needSetup:  opts.NeedSetup,
		configPath: opts.ConfigPath,
	}
	for i := range a.inputs {
		ti := textinput.New()
		ti.CharLimit = 6
		ti.Width = 8
		ti.Placeholder = "0"
		ti.Prompt = ""
		a.inputs[i] = ti
	}
	a.setInputs(opts.Inputs)
	a.focusInput(inputFull)

	if a.needSetup {
		a.setupVals = newSetupValues(a.cfg)
		a.setupForm = newSetupForm(a.setupVals)
	}
	a.recompute()
	return a
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{tea.EnableMouseCellMotion, textinput.Blink}
	if a.setupForm != nil {
		cmds = append(cmds, a.setupForm.Init())
	}
	return tea.Batch(cmds...)
}

func (a *App) setInputs(in projection.Inputs) {
	values := [inputCount]int{in.AttendeesFull, in.AttendeesPartial, in.FeastCount, in.BedsTopSold, in.BedsBottomSold}
	for i, v := range values {
		if v == 0 {
			a.inputs[i].SetValue("")
			continue
		}
		a.inputs[i].SetValue(strconv.Itoa(v))
	}
}

// Inputs returns the figures currently typed into the dashboard.
func (a App) Inputs() projection.Inputs {
	n := func(i int) int {
		v, err := strconv.Atoi(strings.TrimSpace(a.inputs[i].Value()))
		if err != nil {
			return 0
		}
		return v
	}
	return projection.Inputs{
		AttendeesFull:    n(inputFull),
		AttendeesPartial: n(inputPartial),
		FeastCount:       n(inputFeast),
		BedsTopSold:      n(inputBedsTop),
		BedsBottomSold:   n(inputBedsBottom),
		Mode:             a.mode,
	}
}

func (a *App) focusInput(i int) {
	a.focus = (i + inputCount) % inputCount
	for j := range a.inputs {
		if j == a.focus {
			a.inputs[j].Focus()
		} else {
			a.inputs[j].Blur()
		}
	}
}

// recompute reruns the projection over the current bid and inputs.
func (a *App) recompute() {
	r, err := a.sess.Project(a.Inputs())
	a.projErr = err
	a.hasReport = err == nil
	if err == nil {
		a.report = r
	}
}

func (a *App) toggleMode() {
	if a.mode == model.ModeActual {
		a.mode = model.ModeProjected
	} else {
		a.mode = model.ModeActual
	}
	a.message = "Using " + string(a.mode) + " expenses"
}

func (a *App) fillFromRates() {
	b := a.sess.Bid()
	p := a.cfg.Projection
	in, err := projection.InputsFromRates(b, b.ExpectedAttendance, p.PartialShare, p.FeastRate, p.LodgingRate, a.mode)
	if err != nil {
		a.message = "Rates: " + err.Error()
		return
	}
	a.setInputs(in)
	a.message = fmt.Sprintf("Filled from %d expected attendees", b.ExpectedAttendance)
}

func (a *App) save() {
	v, err := a.sess.Save(a.ctx)
	if err != nil {
		a.message = "Save failed: " + err.Error()
		return
	}
	a.message = fmt.Sprintf("Saved %s (v%d)", a.sess.Key(), v)
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if ws, ok := msg.(tea.WindowSizeMsg); ok {
		a.width = ws.Width
		a.height = ws.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(ws.Width).WithHeight(ws.Height)
		}
		if a.editForm != nil {
			a.editForm.Form = a.editForm.Form.WithWidth(ws.Width).WithHeight(ws.Height)
		}
		return a, nil
	}

	if a.needSetup && a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	if a.editForm != nil {
		return a.updateEditForm(msg)
	}

	switch msg := msg.(type) {
	case tea.MouseMsg:
		if a.showHelp {
			return a, nil
		}
		if msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress && msg.Y == 0 {
			if tab := a.tabAtX(msg.X); tab >= 0 {
				a.activeTab = tab
			}
		}
		return a, nil

	case tea.KeyMsg:
		return a.updateKey(msg)
	}

	var cmd tea.Cmd
	a.inputs[a.focus], cmd = a.inputs[a.focus].Update(msg)
	return a, cmd
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return a, tea.Quit
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	switch key {
	case "tab", "down", "enter":
		a.focusInput(a.focus + 1)
		return a, nil
	case "shift+tab", "up":
		a.focusInput(a.focus - 1)
		return a, nil
	case "backspace", "delete", "left", "right", "home", "end", "ctrl+u":
		return a.forwardToInput(msg)
	}

	if msg.Type != tea.KeyRunes || len(msg.Runes) != 1 {
		return a, nil
	}
	r := msg.Runes[0]
	if r >= '0' && r <= '9' {
		return a.forwardToInput(msg)
	}

	switch r {
	case 'q':
		return a, tea.Quit
	case '?':
		a.showHelp = true
	case 'm':
		a.toggleMode()
		a.recompute()
	case 't':
		next := theme.Next(theme.Active.Name)
		theme.Active = next
		a.message = "Theme: " + next.Name
	case 's':
		a.save()
	case 'r':
		a.fillFromRates()
		a.recompute()
	case 'x':
		a.setInputs(projection.Inputs{})
		a.recompute()
	case 'E':
		f, err := NewBidForm(a.sess.Bid())
		if err != nil {
			a.message = "Edit: " + err.Error()
			return a, nil
		}
		if a.width > 0 {
			f.Form = f.Form.WithWidth(a.width).WithHeight(a.height)
		}
		a.editForm = f
		return a, f.Form.Init()
	default:
		if idx := components.TabIdxByKey(r); idx >= 0 {
			a.activeTab = idx
		}
	}
	return a, nil
}

func (a App) forwardToInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.activeTab != tabProjection {
		return a, nil
	}
	var cmd tea.Cmd
	a.inputs[a.focus], cmd = a.inputs[a.focus].Update(msg)
	a.recompute()
	return a, cmd
}

func (a App) updateEditForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.editForm.Form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.editForm.Form = f
	}

	switch a.editForm.Form.State {
	case huh.StateCompleted:
		updates := a.editForm.Updates()
		a.editForm = nil
		if err := a.sess.Apply(updates...); err != nil {
			a.message = "Edit rejected: " + err.Error()
			return a, nil
		}
		a.message = fmt.Sprintf("Updated %d field(s)", len(updates))
		a.recompute()
		return a, nil
	case huh.StateAborted:
		a.editForm = nil
		a.message = "Edit canceled"
		return a, nil
	}
	return a, cmd
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		a.setupVals.apply(&a.cfg)
		theme.SetActive(a.cfg.Appearance.Theme)
		if err := config.SaveTo(a.configPath, a.cfg); err != nil {
			a.message = "Could not save config: " + err.Error()
		} else {
			a.message = "Saved " + a.configPath
		}
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	case huh.StateAborted:
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	}
	return a, cmd
}

func (a App) contentWidth() int {
	cw := a.width
	if cw > maxContentWidth {
		cw = maxContentWidth
	}
	return cw
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if a.needSetup && a.setupForm != nil {
		return a.setupForm.View()
	}
	if a.editForm != nil {
		return a.editForm.Form.View()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := a.height
	if h < 5 {
		h = 5
	}
	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  eventbid needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewHelp() string {
	t := theme.Active
	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true).Width(12)
	descStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)
	titleStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)

	keys := []struct{ key, desc string }{
		{"0-9", "type into the focused input"},
		{"tab/enter", "next input"},
		{"shift+tab", "previous input"},
		{"p e b", "projection, expenses, bid tabs"},
		{"m", "switch projected/actual expenses"},
		{"r", "fill inputs from expected attendance"},
		{"x", "clear inputs"},
		{"E", "edit the bid"},
		{"s", "save the bid"},
		{"t", "next color theme"},
		{"q", "quit"},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Keys"))
	b.WriteString("\n\n")
	for _, k := range keys {
		b.WriteString(keyStyle.Render(k.key))
		b.WriteString(descStyle.Render(k.desc))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(t.TextDim).Render("press any key to close"))

	card := components.ContentCard("", b.String(), 60, true)
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card)
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()

	header := components.RenderTabBar(a.activeTab, w) + "\n" + a.renderContextLine(w)
	statusBar := components.RenderStatusBar(w, a.message, a.sess.Dirty())

	contentH := a.height - lipgloss.Height(header) - lipgloss.Height(statusBar)
	if contentH < minContentHeight {
		contentH = minContentHeight
	}

	var content string
	switch a.activeTab {
	case tabProjection:
		content = a.renderProjectionTab(cw)
	case tabExpenses:
		content = a.renderExpensesTab(cw)
	case tabBid:
		content = a.renderBidTab(cw)
	}
	content = padHeight(truncateHeight(content, contentH), contentH)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
}

func (a App) renderContextLine(w int) string {
	t := theme.Active
	b := a.sess.Bid()

	pill := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	accent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)

	title := strings.TrimSpace(b.GroupName + " " + b.EventName)
	if title == "" {
		title = "untitled bid"
	}
	line := pill.Render(" ") + accent.Render(title)
	if key := a.sess.Key(); key != "" {
		line += pill.Render(fmt.Sprintf(" │ %s v%d", key, a.sess.Version()))
	}
	line += pill.Render(" │ ") + accent.Render(string(a.mode)) + pill.Render(" ")

	return lipgloss.NewStyle().Background(t.Surface).Width(w).Render(line)
}

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes follow the widths RenderTabBar draws.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW
		if i < len(components.Tabs)-1 {
			pos++ // separator
		}
	}
	return -1
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}
