package reconcile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nicesoft-labs/ticc-dash/lib"
)

// SortMode selects the row order of the rendered roster.
type SortMode string

const (
	SortCanonical  SortMode = "canonical"
	SortDropDesc   SortMode = "drop_desc"
	SortLastRecent SortMode = "last_recent"
)

var sortModes = []SortMode{SortCanonical, SortDropDesc, SortLastRecent}

func ParseSortMode(s string) (SortMode, error) {
	for _, m := range sortModes {
		if string(m) == s {
			return m, nil
		}
	}
	return SortCanonical, fmt.Errorf("unknown sort mode %q", s)
}

// Next cycles through the sort modes.
func (m SortMode) Next() SortMode {
	for i, mode := range sortModes {
		if mode == m {
			return sortModes[(i+1)%len(sortModes)]
		}
	}
	return SortCanonical
}

func (m SortMode) Label() string {
	switch m {
	case SortDropDesc:
		return "Drop Count (high → low)"
	case SortLastRecent:
		return "Last Seen (recent → old)"
	default:
		return "Address (hostname, IPv4, IPv6)"
	}
}

// SortRecords orders records in place. All modes are stable.
func SortRecords(records []lib.ClientRecord, mode SortMode) {
	switch mode {
	case SortDropDesc:
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].Drop.Or(0) > records[j].Drop.Or(0)
		})
	case SortLastRecent:
		sort.SliceStable(records, func(i, j int) bool {
			a, b := records[i].Last, records[j].Last
			if !a.Valid || !b.Valid {
				return a.Valid && !b.Valid
			}
			return a.Seconds < b.Seconds
		})
	default:
		lib.SortCanonical(records)
	}
}

// FilterRecords keeps records with any column containing query, ignoring case.
func FilterRecords(records []lib.ClientRecord, query string) []lib.ClientRecord {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]lib.ClientRecord, 0, len(records))
	for _, r := range records {
		if q == "" || matches(r, q) {
			out = append(out, r)
		}
	}
	return out
}

func matches(r lib.ClientRecord, q string) bool {
	for _, f := range r.Fields() {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}
