package controllers

import (
	"testing"
	"time"

	"github.com/nicesoft-labs/ticc-dash/lib"
)

func TestFeedETag(t *testing.T) {
	feed := lib.NewFeed(lib.Roster{Records: []lib.ClientRecord{}}, time.Now())
	if got := feedETag(feed); got != `"`+feed.Fingerprint+`"` {
		t.Fatalf("etag = %s", got)
	}
	feed.Error = "Error: exit status 1"
	if got := feedETag(feed); got != "" {
		t.Fatalf("error feed must not carry an etag, got %s", got)
	}
}

func TestEtagMatches(t *testing.T) {
	const etag = `"abc"`
	cases := []struct {
		header string
		want   bool
	}{
		{"", false},
		{`"abc"`, true},
		{`W/"abc"`, true},
		{`"x", "abc"`, true},
		{`"abcd"`, false},
		{"*", true},
		{"abc", false},
	}
	for _, tc := range cases {
		if got := etagMatches(tc.header, etag); got != tc.want {
			t.Errorf("etagMatches(%q) = %v, want %v", tc.header, got, tc.want)
		}
	}
}

func TestHistoryLimit(t *testing.T) {
	cases := []struct {
		raw  string
		def  int
		want int
	}{
		{"", 60, 60},
		{"10", 60, 10},
		{"-3", 60, 60},
		{"abc", 25, 25},
		{"5000", 60, maxHistoryLimit},
		{"", 0, 60},
	}
	for _, tc := range cases {
		if got := historyLimit(tc.raw, tc.def); got != tc.want {
			t.Errorf("historyLimit(%q, %d) = %d, want %d", tc.raw, tc.def, got, tc.want)
		}
	}
}

func TestRetryAfterSeconds(t *testing.T) {
	if got := retryAfterSeconds(1500 * time.Millisecond); got != 2 {
		t.Fatalf("got %d", got)
	}
	if got := retryAfterSeconds(time.Millisecond); got != 1 {
		t.Fatalf("got %d", got)
	}
}

func TestBuildClientRows(t *testing.T) {
	r1, _ := lib.ParseClientLine("10.0.0.5 5 12 6 - 90 0")
	r2, _ := lib.ParseClientLine("host.local 1 0 6 - - 0")
	rows := buildClientRows([]lib.ClientRecord{r1, r2})
	if len(rows) != 2 {
		t.Fatalf("rows = %d", len(rows))
	}
	if rows[0].Severity != "Critical" || rows[0].LastText != "1 min ago" || rows[0].Icon != lib.FamilyIcon(lib.FamilyIPv4) {
		t.Fatalf("unexpected row %+v", rows[0])
	}
	if rows[1].Severity != "OK" || rows[1].LastText != "-" {
		t.Fatalf("unexpected row %+v", rows[1])
	}
}
