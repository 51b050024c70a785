package lib

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// headerLines is the number of lines `chronyc clients` prints before the
// first client row (column names and the ===== separator).
const headerLines = 2

// ClientRecord is one row of `chronyc clients`. The raw column text is kept
// as printed; numeric columns are additionally parsed once into Count/Age.
type ClientRecord struct {
	Address       string `json:"addr"`
	NTPPackets    string `json:"NTP"`
	DropPackets   string `json:"Drop"`
	PollInterval  string `json:"Int"`
	IntervalLimit string `json:"IntL"`
	LastSeen      string `json:"Last"`
	CmdPackets    string `json:"Cmd"`
	CmdDrop       string `json:"CmdDrop"`
	CmdInterval   string `json:"CmdInt"`
	CmdLast       string `json:"CmdLast"`

	Family AddressFamily `json:"-"`
	NTP    Count         `json:"-"`
	Drop   Count         `json:"-"`
	Cmd    Count         `json:"-"`
	Last   Age           `json:"-"`
}

// UnmarshalJSON re-derives the parsed fields so records read from the /data
// feed behave like records built by ParseClientLine.
func (r *ClientRecord) UnmarshalJSON(data []byte) error {
	type plain ClientRecord
	var raw plain
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = ClientRecord(raw)
	r.derive()
	return nil
}

func (r *ClientRecord) derive() {
	r.Family = ClassifyAddress(r.Address)
	r.NTP = ParseCount(r.NTPPackets)
	r.Drop = ParseCount(r.DropPackets)
	r.Cmd = ParseCount(r.CmdPackets)
	r.Last = ParseAge(r.LastSeen)
}

// Fields returns the raw column values in display order, address first.
func (r ClientRecord) Fields() []string {
	return []string{
		r.Address, r.NTPPackets, r.DropPackets, r.PollInterval, r.IntervalLimit,
		r.LastSeen, r.CmdPackets, r.CmdDrop, r.CmdInterval, r.CmdLast,
	}
}

// Count is a packet counter column: either a base-10 integer or unparseable.
type Count struct {
	Value int64
	Valid bool
}

func ParseCount(raw string) Count {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return Count{}
	}
	return Count{Value: n, Valid: true}
}

// Or returns the value, or def when the column was not numeric.
func (c Count) Or(def int64) int64 {
	if !c.Valid {
		return def
	}
	return c.Value
}

// Roster is the ordered client list produced by one poll.
type Roster struct {
	Records []ClientRecord
	Count   int
	Error   string
}

// ParseClientLine splits one client row. It only fails on a line without
// tokens; short rows leave the missing columns empty.
func ParseClientLine(line string) (ClientRecord, bool) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return ClientRecord{}, false
	}
	f := parts[1:]
	g := func(i int) string {
		if i < len(f) {
			return f[i]
		}
		return ""
	}
	rec := ClientRecord{
		Address:       parts[0],
		NTPPackets:    g(0),
		DropPackets:   g(1),
		PollInterval:  g(2),
		IntervalLimit: g(3),
		LastSeen:      g(4),
		CmdPackets:    g(5),
		CmdDrop:       g(6),
		CmdInterval:   g(7),
		CmdLast:       g(8),
	}
	rec.derive()
	return rec, true
}

// NormalizeRoster turns `chronyc clients` output into a roster ordered
// hostnames first (case-insensitive), then IPv4 by octets, then IPv6 by text.
func NormalizeRoster(raw string) Roster {
	roster := Roster{Records: []ClientRecord{}}
	lines := strings.Split(strings.TrimSpace(raw), "\n")
	if len(lines) <= headerLines {
		return roster
	}

	var hostnames, ipv4s, ipv6s []string
	for _, ln := range lines[headerLines:] {
		ln = strings.TrimRight(ln, " \t\r")
		if strings.TrimSpace(ln) == "" {
			continue
		}
		switch ClassifyAddress(firstToken(ln)) {
		case FamilyIPv4:
			ipv4s = append(ipv4s, ln)
		case FamilyIPv6:
			ipv6s = append(ipv6s, ln)
		default:
			hostnames = append(hostnames, ln)
		}
	}

	sort.SliceStable(hostnames, func(i, j int) bool {
		return addressLess(FamilyHostname, firstToken(hostnames[i]), firstToken(hostnames[j]))
	})
	sort.SliceStable(ipv4s, func(i, j int) bool {
		return addressLess(FamilyIPv4, firstToken(ipv4s[i]), firstToken(ipv4s[j]))
	})
	sort.SliceStable(ipv6s, func(i, j int) bool {
		return addressLess(FamilyIPv6, firstToken(ipv6s[i]), firstToken(ipv6s[j]))
	})

	ordered := make([]string, 0, len(hostnames)+len(ipv4s)+len(ipv6s))
	ordered = append(ordered, hostnames...)
	ordered = append(ordered, ipv4s...)
	ordered = append(ordered, ipv6s...)

	for _, ln := range ordered {
		if rec, ok := ParseClientLine(ln); ok {
			roster.Records = append(roster.Records, rec)
		}
	}
	roster.Count = len(roster.Records)
	return roster
}

// CollectRoster runs the status command and normalizes its output. A failed
// invocation yields an empty roster carrying the failure text.
func CollectRoster(ctx context.Context, inv Invoker) Roster {
	raw, err := inv.Invoke(ctx)
	if err != nil {
		return Roster{Records: []ClientRecord{}, Error: fmt.Sprintf("Error: %v", err)}
	}
	return NormalizeRoster(raw)
}

// SortCanonical orders records the way NormalizeRoster does.
func SortCanonical(records []ClientRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		fi, fj := records[i].Family, records[j].Family
		if fi != fj {
			return familyRank(fi) < familyRank(fj)
		}
		return addressLess(fi, records[i].Address, records[j].Address)
	})
}

func familyRank(f AddressFamily) int {
	switch f {
	case FamilyHostname:
		return 0
	case FamilyIPv4:
		return 1
	default:
		return 2
	}
}

// addressLess compares two addresses of the same family.
func addressLess(f AddressFamily, a, b string) bool {
	switch f {
	case FamilyIPv4:
		oa, _ := ipv4Octets(a)
		ob, _ := ipv4Octets(b)
		for i := range oa {
			if oa[i] != ob[i] {
				return oa[i] < ob[i]
			}
		}
		return false
	case FamilyIPv6:
		return a < b
	default:
		return strings.ToLower(a) < strings.ToLower(b)
	}
}

func firstToken(line string) string {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}
