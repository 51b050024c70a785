// Package reconcile keeps a live client list in sync with repeated polls of
// the /data feed. Re-rendering happens only when the roster fingerprint
// changes, and per-address display state (expanded rows, scroll anchor)
// survives every refresh.
package reconcile

import (
	"sort"
	"sync"

	"github.com/nicesoft-labs/ticc-dash/lib"
)

const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Row is one rendered client.
type Row struct {
	lib.ClientRecord
	Severity lib.Severity
	Expanded bool
}

// Outcome reports what a poll cycle did to the view.
type Outcome struct {
	// Changed is true when the roster was replaced and the list must be re-rendered.
	Changed bool
	// Pruned lists expanded addresses that disappeared from the roster.
	Pruned []string
	// Stale is true when the cycle failed and the previous roster is still shown.
	Stale bool
}

// ViewState is the client-side state of one dashboard. It is safe for
// concurrent use: user edits may interleave with a poll cycle applying a feed.
type ViewState struct {
	mu sync.Mutex

	expanded    map[string]struct{}
	fingerprint string
	roster      []lib.ClientRecord
	count       int
	localTime   string
	lastErr     string

	sortMode SortMode
	filter   string
	theme    string
	scroll   int
}

func NewViewState(p Prefs) *ViewState {
	v := &ViewState{
		expanded: make(map[string]struct{}, len(p.Expanded)),
		sortMode: p.Sort,
		theme:    p.Theme,
	}
	if v.sortMode == "" {
		v.sortMode = SortCanonical
	}
	if v.theme != ThemeLight {
		v.theme = ThemeDark
	}
	for _, addr := range p.Expanded {
		if addr != "" {
			v.expanded[addr] = struct{}{}
		}
	}
	return v
}

// Apply reconciles a freshly fetched feed. A feed that carries an error is
// treated like a failed fetch: the last good roster stays on screen.
func (v *ViewState) Apply(feed lib.Feed) Outcome {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.localTime = feed.LocalTime
	if feed.Error != "" {
		v.lastErr = feed.Error
		return Outcome{Stale: true}
	}
	v.lastErr = ""

	fp := lib.Fingerprint(feed.Clients)
	if fp == v.fingerprint {
		v.count = feed.Count
		return Outcome{}
	}

	anchor, hasAnchor := v.anchorLocked()

	v.roster = make([]lib.ClientRecord, len(feed.Clients))
	copy(v.roster, feed.Clients)
	v.count = feed.Count
	v.fingerprint = fp

	present := make(map[string]struct{}, len(v.roster))
	for _, r := range v.roster {
		present[r.Address] = struct{}{}
	}
	var pruned []string
	for addr := range v.expanded {
		if _, ok := present[addr]; !ok {
			delete(v.expanded, addr)
			pruned = append(pruned, addr)
		}
	}
	sort.Strings(pruned)

	v.restoreScrollLocked(anchor, hasAnchor)
	return Outcome{Changed: true, Pruned: pruned}
}

// Fail records a fetch failure without touching the cached roster.
func (v *ViewState) Fail(err error) {
	if err == nil {
		return
	}
	v.mu.Lock()
	v.lastErr = err.Error()
	v.mu.Unlock()
}

func (v *ViewState) Toggle(addr string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.expanded[addr]; ok {
		delete(v.expanded, addr)
		return false
	}
	v.expanded[addr] = struct{}{}
	return true
}

func (v *ViewState) Expand(addr string) {
	v.mu.Lock()
	v.expanded[addr] = struct{}{}
	v.mu.Unlock()
}

func (v *ViewState) Collapse(addr string) {
	v.mu.Lock()
	delete(v.expanded, addr)
	v.mu.Unlock()
}

// ExpandAll opens every row currently visible under the active filter.
func (v *ViewState) ExpandAll() {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, r := range FilterRecords(v.roster, v.filter) {
		v.expanded[r.Address] = struct{}{}
	}
}

func (v *ViewState) CollapseAll() {
	v.mu.Lock()
	v.expanded = make(map[string]struct{})
	v.mu.Unlock()
}

// AllExpanded reports whether every visible row is open.
func (v *ViewState) AllExpanded() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	visible := FilterRecords(v.roster, v.filter)
	if len(visible) == 0 {
		return false
	}
	for _, r := range visible {
		if _, ok := v.expanded[r.Address]; !ok {
			return false
		}
	}
	return true
}

func (v *ViewState) IsExpanded(addr string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, ok := v.expanded[addr]
	return ok
}

// SetSort and SetFilter re-render from the cached roster; neither fetches.
func (v *ViewState) SetSort(mode SortMode) {
	v.mu.Lock()
	v.sortMode = mode
	v.scroll = 0
	v.mu.Unlock()
}

func (v *ViewState) SetFilter(query string) {
	v.mu.Lock()
	v.filter = query
	v.scroll = 0
	v.mu.Unlock()
}

func (v *ViewState) SortMode() SortMode {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.sortMode
}

func (v *ViewState) Filter() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.filter
}

func (v *ViewState) Theme() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.theme
}

func (v *ViewState) ToggleTheme() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.theme == ThemeDark {
		v.theme = ThemeLight
	} else {
		v.theme = ThemeDark
	}
	return v.theme
}

// SetScroll stores the index of the first visible row.
func (v *ViewState) SetScroll(offset int) {
	v.mu.Lock()
	v.scroll = clamp(offset, 0, v.visibleCountLocked()-1)
	v.mu.Unlock()
}

func (v *ViewState) Scroll() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.scroll
}

// Rows returns the cached roster filtered and sorted for display.
func (v *ViewState) Rows() []Row {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.rowsLocked()
}

// Summary counts severities of the visible rows.
func (v *ViewState) Summary() lib.SeveritySummary {
	v.mu.Lock()
	defer v.mu.Unlock()
	return lib.Summarize(FilterRecords(v.roster, v.filter))
}

// Status returns the time-derived values of the last cycle.
func (v *ViewState) Status() (count int, localTime, lastErr string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.count, v.localTime, v.lastErr
}

func (v *ViewState) Fingerprint() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.fingerprint
}

// Prefs snapshots the state worth keeping across restarts.
func (v *ViewState) Prefs() Prefs {
	v.mu.Lock()
	defer v.mu.Unlock()
	p := Prefs{Theme: v.theme, Sort: v.sortMode, Expanded: make([]string, 0, len(v.expanded))}
	for addr := range v.expanded {
		p.Expanded = append(p.Expanded, addr)
	}
	sort.Strings(p.Expanded)
	return p
}

func (v *ViewState) rowsLocked() []Row {
	records := FilterRecords(v.roster, v.filter)
	SortRecords(records, v.sortMode)
	rows := make([]Row, 0, len(records))
	for _, r := range records {
		_, open := v.expanded[r.Address]
		rows = append(rows, Row{ClientRecord: r, Severity: lib.ClassifySeverity(r), Expanded: open})
	}
	return rows
}

func (v *ViewState) visibleCountLocked() int {
	return len(FilterRecords(v.roster, v.filter))
}

// anchorLocked remembers which address sits at the scroll offset.
func (v *ViewState) anchorLocked() (string, bool) {
	rows := v.rowsLocked()
	if v.scroll < 0 || v.scroll >= len(rows) {
		return "", false
	}
	return rows[v.scroll].Address, true
}

func (v *ViewState) restoreScrollLocked(anchor string, ok bool) {
	rows := v.rowsLocked()
	if ok {
		for i, r := range rows {
			if r.Address == anchor {
				v.scroll = i
				return
			}
		}
	}
	v.scroll = clamp(v.scroll, 0, len(rows)-1)
}

func clamp(n, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
