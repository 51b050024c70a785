package lib

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// LocalTimeLayout is the timestamp format of the /data feed.
const LocalTimeLayout = "01/02/2006, 15:04:05"

// Feed is the /data payload.
type Feed struct {
	Clients     []ClientRecord `json:"clients_parsed"`
	Count       int            `json:"count"`
	LocalTime   string         `json:"local_time"`
	Error       string         `json:"error,omitempty"`
	Fingerprint string         `json:"fingerprint"`
}

// NewFeed stamps a roster with the request time.
func NewFeed(r Roster, now time.Time) Feed {
	records := r.Records
	if records == nil {
		records = []ClientRecord{}
	}
	return Feed{
		Clients:     records,
		Count:       r.Count,
		LocalTime:   FormatLocalTime(now),
		Error:       r.Error,
		Fingerprint: Fingerprint(records),
	}
}

func FormatLocalTime(t time.Time) string {
	return t.Format(LocalTimeLayout)
}

// Fingerprint digests the displayed columns of every record in order. The
// interval limit is not part of it: a change there alone does not re-render.
func Fingerprint(records []ClientRecord) string {
	rows := make([]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, strings.Join([]string{
			r.Address, r.NTPPackets, r.DropPackets, r.PollInterval, r.LastSeen, r.CmdPackets,
		}, "|"))
	}
	sum := sha256.Sum256([]byte(strings.Join(rows, "~")))
	return hex.EncodeToString(sum[:])
}
