package lib

// Severity grades a client by its dropped NTP packet count.
type Severity int

const (
	SeverityOK Severity = iota
	SeverityWarning
	SeverityCritical
)

const (
	warningDrops  = 1
	criticalDrops = 10
)

func (s Severity) String() string {
	switch s {
	case SeverityCritical:
		return "Critical"
	case SeverityWarning:
		return "Warning"
	default:
		return "OK"
	}
}

// ClassifySeverity treats a missing or non-numeric Drop column as zero.
func ClassifySeverity(r ClientRecord) Severity {
	drops := r.Drop.Or(0)
	switch {
	case drops >= criticalDrops:
		return SeverityCritical
	case drops >= warningDrops:
		return SeverityWarning
	default:
		return SeverityOK
	}
}

// SeveritySummary counts clients per tier.
type SeveritySummary struct {
	OK       int `json:"ok"`
	Warning  int `json:"warning"`
	Critical int `json:"critical"`
}

func Summarize(records []ClientRecord) SeveritySummary {
	var s SeveritySummary
	for _, r := range records {
		switch ClassifySeverity(r) {
		case SeverityCritical:
			s.Critical++
		case SeverityWarning:
			s.Warning++
		default:
			s.OK++
		}
	}
	return s
}

// FamilySummary counts clients per address family.
type FamilySummary struct {
	Hostnames int `json:"hostnames"`
	IPv4      int `json:"ipv4"`
	IPv6      int `json:"ipv6"`
}

func SummarizeFamilies(records []ClientRecord) FamilySummary {
	var s FamilySummary
	for _, r := range records {
		switch r.Family {
		case FamilyIPv4:
			s.IPv4++
		case FamilyIPv6:
			s.IPv6++
		default:
			s.Hostnames++
		}
	}
	return s
}
