package reconcile

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/nicesoft-labs/ticc-dash/lib"
)

func feedOf(t *testing.T, body string) lib.Feed {
	t.Helper()
	return lib.NewFeed(lib.NormalizeRoster("Hostname NTP Drop Int IntL Last Cmd\n=====\n"+body), time.Now())
}

func rowAddrs(rows []Row) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Address)
	}
	return out
}

func TestApplyPreservesExpansion(t *testing.T) {
	v := NewViewState(DefaultPrefs())

	first := v.Apply(feedOf(t, "10.0.0.5 5 0 64 64 3 1\nhost.local 2 12 64 64 - 0\nold.example 1 0 6 6 9 0\n"))
	if !first.Changed {
		t.Fatalf("first feed must render")
	}
	v.Expand("10.0.0.5")
	v.Expand("old.example")

	second := v.Apply(feedOf(t, "10.0.0.5 6 0 64 64 1 1\nhost.local 2 12 64 64 - 0\nnew.example 1 0 6 6 2 0\n"))
	if !second.Changed {
		t.Fatalf("different fingerprint must re-render")
	}
	if !v.IsExpanded("10.0.0.5") {
		t.Fatalf("persisting address must stay expanded")
	}
	if v.IsExpanded("old.example") {
		t.Fatalf("vanished address must be dropped from the expanded set")
	}
	if v.IsExpanded("new.example") {
		t.Fatalf("new addresses must not be auto-expanded")
	}
	if !reflect.DeepEqual(second.Pruned, []string{"old.example"}) {
		t.Fatalf("pruned = %v", second.Pruned)
	}

	for _, r := range v.Rows() {
		if r.Expanded != (r.Address == "10.0.0.5") {
			t.Fatalf("row %s expanded=%v", r.Address, r.Expanded)
		}
	}
}

func TestApplySameFingerprintIsNoop(t *testing.T) {
	v := NewViewState(DefaultPrefs())
	body := "10.0.0.5 5 0 64 64 3 1\n"
	if out := v.Apply(feedOf(t, body)); !out.Changed {
		t.Fatalf("first apply must change")
	}
	fp := v.Fingerprint()

	feed := feedOf(t, body)
	feed.LocalTime = "01/02/2030, 03:04:05"
	if out := v.Apply(feed); out.Changed {
		t.Fatalf("identical roster must not re-render")
	}
	if v.Fingerprint() != fp {
		t.Fatalf("fingerprint changed")
	}
	if _, ts, _ := v.Status(); ts != "01/02/2030, 03:04:05" {
		t.Fatalf("timestamp must refresh on no-op cycles, got %q", ts)
	}

	empty := NewViewState(DefaultPrefs())
	if out := empty.Apply(feedOf(t, "")); !out.Changed {
		t.Fatalf("first empty roster must render")
	}
	if out := empty.Apply(feedOf(t, "")); out.Changed {
		t.Fatalf("repeated empty roster must not re-render")
	}
}

func TestFailureKeepsCache(t *testing.T) {
	v := NewViewState(DefaultPrefs())
	v.Apply(feedOf(t, "10.0.0.5 5 0 64 64 3 1\n"))
	fp := v.Fingerprint()

	v.Fail(errors.New("connection refused"))
	if len(v.Rows()) != 1 || v.Fingerprint() != fp {
		t.Fatalf("failure must keep the last good roster")
	}
	if _, _, msg := v.Status(); msg != "connection refused" {
		t.Fatalf("error not surfaced: %q", msg)
	}

	out := v.Apply(lib.Feed{Clients: []lib.ClientRecord{}, Error: "Error: exit status 1", LocalTime: "x"})
	if !out.Stale || out.Changed {
		t.Fatalf("error feed must be stale, got %+v", out)
	}
	if len(v.Rows()) != 1 || v.Fingerprint() != fp {
		t.Fatalf("error feed must not wipe the roster")
	}

	v.Apply(feedOf(t, "10.0.0.5 5 0 64 64 3 1\n"))
	if _, _, msg := v.Status(); msg != "" {
		t.Fatalf("successful cycle must clear the error, got %q", msg)
	}
}

func TestSortAndFilterUseCache(t *testing.T) {
	v := NewViewState(DefaultPrefs())
	v.Apply(feedOf(t, "10.0.0.5 5 0 64 64 3h 1\nhost.local 2 12 64 64 - 0\n::1 1 4 6 6 20 0\nb.example 1 30 6 6 2m 0\n"))

	if got := rowAddrs(v.Rows()); !reflect.DeepEqual(got, []string{"b.example", "host.local", "10.0.0.5", "::1"}) {
		t.Fatalf("canonical order: %v", got)
	}

	v.SetSort(SortDropDesc)
	if got := rowAddrs(v.Rows()); !reflect.DeepEqual(got, []string{"b.example", "host.local", "::1", "10.0.0.5"}) {
		t.Fatalf("drop order: %v", got)
	}

	v.SetSort(SortLastRecent)
	if got := rowAddrs(v.Rows()); !reflect.DeepEqual(got, []string{"::1", "b.example", "10.0.0.5", "host.local"}) {
		t.Fatalf("last-seen order: %v", got)
	}

	v.SetFilter("EXAMPLE")
	if got := rowAddrs(v.Rows()); !reflect.DeepEqual(got, []string{"b.example"}) {
		t.Fatalf("filter: %v", got)
	}
	if s := v.Summary(); s.Critical != 1 || s.OK != 0 {
		t.Fatalf("summary must follow the filter: %+v", s)
	}
	v.SetFilter("3h")
	if got := rowAddrs(v.Rows()); !reflect.DeepEqual(got, []string{"10.0.0.5"}) {
		t.Fatalf("filter across fields: %v", got)
	}
}

func TestExpandAllCollapseAll(t *testing.T) {
	v := NewViewState(Prefs{Expanded: []string{"a.example"}})
	v.Apply(feedOf(t, "a.example 1 0\nb.example 1 0\n10.0.0.1 1 0\n"))
	if v.AllExpanded() {
		t.Fatalf("only one row is open")
	}

	v.SetFilter("example")
	v.ExpandAll()
	if !v.AllExpanded() || v.IsExpanded("10.0.0.1") {
		t.Fatalf("expand all must open the visible rows only")
	}

	v.CollapseAll()
	if v.IsExpanded("a.example") || v.AllExpanded() {
		t.Fatalf("collapse all must close everything")
	}

	if !v.Toggle("b.example") || v.Toggle("b.example") {
		t.Fatalf("toggle must flip the row")
	}
}

func TestScrollAnchorsToAddress(t *testing.T) {
	v := NewViewState(DefaultPrefs())
	v.Apply(feedOf(t, "10.0.0.1 1 0\n10.0.0.2 1 0\n10.0.0.3 1 0\n10.0.0.4 1 0\n"))
	v.SetScroll(2)

	v.Apply(feedOf(t, "10.0.0.0 1 0\n10.0.0.1 1 0\n10.0.0.2 1 0\n10.0.0.3 1 0\n10.0.0.4 1 0\n"))
	if got := v.Rows()[v.Scroll()].Address; got != "10.0.0.3" {
		t.Fatalf("scroll must follow the anchored row, top is %s", got)
	}

	v.Apply(feedOf(t, "10.0.0.9 1 0\n"))
	if v.Scroll() != 0 {
		t.Fatalf("scroll must clamp when the anchor vanishes, got %d", v.Scroll())
	}

	v.SetScroll(50)
	if v.Scroll() != 0 {
		t.Fatalf("scroll beyond the list must clamp, got %d", v.Scroll())
	}
}

func TestPrefsSnapshot(t *testing.T) {
	v := NewViewState(Prefs{Theme: "light", Sort: SortDropDesc, Expanded: []string{"b", "a", ""}})
	p := v.Prefs()
	if p.Theme != ThemeLight || p.Sort != SortDropDesc || !reflect.DeepEqual(p.Expanded, []string{"a", "b"}) {
		t.Fatalf("unexpected prefs %+v", p)
	}
	if v.ToggleTheme() != ThemeDark {
		t.Fatalf("theme toggle")
	}
}
