package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/beego/beego/v2/core/logs"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/nicesoft-labs/ticc-dash/lib"
	"github.com/nicesoft-labs/ticc-dash/reconcile"
)

const (
	chromeLines   = 7
	defaultHeight = 30
)

type polledMsg struct {
	out       reconcile.Outcome
	err       error
	scheduled bool
}

type tickMsg struct{}

type model struct {
	state     *reconcile.ViewState
	poller    *reconcile.Poller
	interval  time.Duration
	prefsPath string

	search    textinput.Model
	searching bool

	cursor  string
	height  int
	lastErr error
	styles  styles
}

func newModel(state *reconcile.ViewState, poller *reconcile.Poller, interval time.Duration, prefsPath string) *model {
	ti := textinput.New()
	ti.Placeholder = "search"
	ti.Prompt = "/ "
	ti.CharLimit = 128
	ti.SetValue(state.Filter())

	m := &model{
		state:     state,
		poller:    poller,
		interval:  interval,
		prefsPath: prefsPath,
		search:    ti,
		height:    defaultHeight,
	}
	m.applyTheme()
	return m
}

func (m *model) applyTheme() {
	m.styles = newStyles(m.state.Theme())
	m.search.PromptStyle = m.styles.cursor
	m.search.TextStyle = m.styles.addr
	m.search.PlaceholderStyle = m.styles.muted
}

func (m *model) Init() tea.Cmd {
	return m.pollCmd(true)
}

// pollCmd runs one cycle. Only scheduled cycles arm the next tick, so a
// manual refresh never adds a second cadence.
func (m *model) pollCmd(scheduled bool) tea.Cmd {
	return func() tea.Msg {
		out, err := m.poller.Poll(context.Background())
		return polledMsg{out: out, err: err, scheduled: scheduled}
	}
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = msg.Height
		m.search.Width = msg.Width / 3
		return m, nil
	case polledMsg:
		return m, m.handlePolled(msg)
	case tickMsg:
		return m, m.pollCmd(true)
	case tea.KeyMsg:
		if m.searching {
			return m.handleSearchKey(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *model) handlePolled(msg polledMsg) tea.Cmd {
	switch {
	case errors.Is(msg.err, reconcile.ErrCycleInFlight):
	case msg.err != nil:
		m.lastErr = msg.err
	default:
		m.lastErr = nil
	}
	if len(msg.out.Pruned) > 0 {
		logs.Debug("collapsed vanished clients: %s", strings.Join(msg.out.Pruned, ", "))
	}
	if msg.out.Changed {
		m.keepCursor()
	}
	if !msg.scheduled {
		return nil
	}
	return tea.Tick(m.interval, func(time.Time) tea.Msg { return tickMsg{} })
}

func (m *model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m.quit()
	case tea.KeyEnter, tea.KeyEsc:
		m.searching = false
		m.search.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.state.SetFilter(m.search.Value())
	m.keepCursor()
	return m, cmd
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m.quit()
	case "up", "k":
		m.moveCursor(-1)
	case "down", "j":
		m.moveCursor(1)
	case "pgup":
		m.moveCursor(-m.pageRows())
	case "pgdown":
		m.moveCursor(m.pageRows())
	case "home", "g":
		m.moveCursor(-1 << 30)
	case "end", "G":
		m.moveCursor(1 << 30)
	case "enter", " ":
		if m.cursor != "" {
			m.state.Toggle(m.cursor)
		}
	case "e":
		if m.state.AllExpanded() {
			m.state.CollapseAll()
		} else {
			m.state.ExpandAll()
		}
	case "s":
		m.state.SetSort(m.state.SortMode().Next())
		m.keepCursor()
	case "t":
		m.state.ToggleTheme()
		m.applyTheme()
	case "/":
		m.searching = true
		return m, m.search.Focus()
	case "esc":
		m.search.SetValue("")
		m.state.SetFilter("")
		m.keepCursor()
	case "r":
		return m, m.pollCmd(false)
	}
	return m, nil
}

func (m *model) quit() (tea.Model, tea.Cmd) {
	if m.prefsPath != "" {
		if err := reconcile.SavePrefs(m.prefsPath, m.state.Prefs()); err != nil {
			logs.Warn("save prefs %s: %v", m.prefsPath, err)
		}
	}
	return m, tea.Quit
}

func (m *model) pageRows() int {
	if n := m.height - chromeLines; n > 1 {
		return n
	}
	return 1
}

// keepCursor leaves the cursor on its address when still visible, else on
// the first row.
func (m *model) keepCursor() {
	rows := m.state.Rows()
	if len(rows) == 0 {
		m.cursor = ""
		return
	}
	for _, r := range rows {
		if r.Address == m.cursor {
			m.follow(rows)
			return
		}
	}
	m.cursor = rows[0].Address
	m.follow(rows)
}

func (m *model) moveCursor(delta int) {
	rows := m.state.Rows()
	if len(rows) == 0 {
		m.cursor = ""
		return
	}
	idx := 0
	for i, r := range rows {
		if r.Address == m.cursor {
			idx = i
			break
		}
	}
	idx += delta
	if idx < 0 {
		idx = 0
	}
	if idx >= len(rows) {
		idx = len(rows) - 1
	}
	m.cursor = rows[idx].Address
	m.follow(rows)
}

// follow scrolls so the cursor row is on screen.
func (m *model) follow(rows []reconcile.Row) {
	idx := 0
	for i, r := range rows {
		if r.Address == m.cursor {
			idx = i
			break
		}
	}
	top := m.state.Scroll()
	switch {
	case idx < top:
		m.state.SetScroll(idx)
	case idx >= top+m.pageRows():
		m.state.SetScroll(idx - m.pageRows() + 1)
	}
}

func (m *model) View() string {
	s := m.styles
	b := &strings.Builder{}

	count, localTime, lastErr := m.state.Status()
	sum := m.state.Summary()
	phase := m.poller.Phase().String()

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		s.title.Render("TICC-DASH"),
		s.muted.Render(fmt.Sprintf("  clients %d  updated %s  [%s]", count, orDash(localTime), phase)),
	))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s  %s  %s  %s\n",
		s.ok.Render(fmt.Sprintf("OK %d", sum.OK)),
		s.warning.Render(fmt.Sprintf("Warning %d", sum.Warning)),
		s.critical.Render(fmt.Sprintf("Critical %d", sum.Critical)),
		s.muted.Render("sort: "+m.state.SortMode().Label()),
	))
	if m.searching || m.search.Value() != "" {
		b.WriteString(m.search.View())
	}
	b.WriteString("\n")

	switch {
	case lastErr != "":
		b.WriteString(s.errorLine.Render(lastErr))
	case m.lastErr != nil:
		b.WriteString(s.errorLine.Render(m.lastErr.Error()))
	}
	b.WriteString("\n")

	b.WriteString(m.renderRows())
	b.WriteString("\n")
	b.WriteString(s.help.Render("↑/↓ move • enter toggle • e expand/collapse all • s sort • / search • t theme • r refresh • q quit"))
	return b.String()
}

func (m *model) renderRows() string {
	s := m.styles
	rows := m.state.Rows()
	if len(rows) == 0 {
		return s.muted.Render("No clients.") + "\n"
	}

	b := &strings.Builder{}
	budget := m.pageRows()
	top := m.state.Scroll()
	if top >= len(rows) {
		top = len(rows) - 1
	}
	for _, r := range rows[top:] {
		if budget <= 0 {
			break
		}
		marker := "  "
		addr := s.addr.Render(fmt.Sprintf("%-40s", r.Address))
		if r.Address == m.cursor {
			marker = s.cursor.Render("▶ ")
			addr = s.cursor.Render(fmt.Sprintf("%-40s", r.Address))
		}
		fmt.Fprintf(b, "%s%s %s %s %s\n", marker, lib.FamilyIcon(r.Family), addr,
			s.severity(r.Severity).Render(fmt.Sprintf("%-8s", r.Severity)),
			s.muted.Render(r.Last.Human(r.LastSeen)))
		budget--

		if !r.Expanded {
			continue
		}
		for _, kv := range detailLines(r) {
			if budget <= 0 {
				break
			}
			fmt.Fprintf(b, "      %s%s\n", s.label.Render(kv[0]), s.value.Render(orDash(kv[1])))
			budget--
		}
	}
	return b.String()
}

func detailLines(r reconcile.Row) [][2]string {
	return [][2]string{
		{"NTP packets", r.NTPPackets},
		{"Dropped", r.DropPackets},
		{"Interval", r.PollInterval},
		{"Interval limit", r.IntervalLimit},
		{"Last seen", r.LastSeen},
		{"Cmd packets", r.CmdPackets},
		{"Cmd dropped", r.CmdDrop},
		{"Cmd interval", r.CmdInterval},
		{"Cmd last", r.CmdLast},
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
