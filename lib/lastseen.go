package lib

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Age is the parsed "Last" column: seconds since the client was last heard
// from, or unparseable ("-", "?", garbage).
type Age struct {
	Seconds float64
	Valid   bool
}

var ageRe = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*([a-z]+)$`)

var ageUnits = map[string]float64{
	"s": 1, "sec": 1, "secs": 1, "second": 1, "seconds": 1,
	"m": 60, "min": 60, "mins": 60, "minute": 60, "minutes": 60,
	"h": 3600, "hr": 3600, "hrs": 3600, "hour": 3600, "hours": 3600,
	"d": 86400, "day": 86400, "days": 86400,
	"y": 365 * 86400, "yr": 365 * 86400, "year": 365 * 86400, "years": 365 * 86400,
}

// AgeUnits returns a copy of the unit suffixes ParseAge understands, in
// seconds. The dashboard script parses Last with the same table.
func AgeUnits() map[string]float64 {
	units := make(map[string]float64, len(ageUnits))
	for k, v := range ageUnits {
		units[k] = v
	}
	return units
}

// ParseAge accepts plain seconds ("42") or a number with a unit suffix
// ("5m", "3h", "2d", "1y").
func ParseAge(raw string) Age {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" || s == "-" || s == "?" {
		return Age{}
	}
	if n, err := strconv.ParseUint(s, 10, 64); err == nil {
		return Age{Seconds: float64(n), Valid: true}
	}
	m := ageRe.FindStringSubmatch(s)
	if m == nil {
		return Age{}
	}
	mult, ok := ageUnits[m[2]]
	if !ok {
		return Age{}
	}
	num, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return Age{}
	}
	return Age{Seconds: num * mult, Valid: true}
}

// Human renders the age as "N sec ago" style text; raw is returned (or "-")
// when the column was not parseable.
func (a Age) Human(raw string) string {
	if !a.Valid {
		if raw == "" {
			return "-"
		}
		return raw
	}
	sec := math.Floor(a.Seconds)
	if sec < 60 {
		return fmt.Sprintf("%d sec ago", int64(sec))
	}
	mins := int64(sec) / 60
	if mins < 60 {
		return fmt.Sprintf("%d min ago", mins)
	}
	hours := mins / 60
	if hours < 24 {
		return fmt.Sprintf("%d hr ago", hours)
	}
	return fmt.Sprintf("%d d ago", hours/24)
}
