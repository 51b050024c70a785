package lib

import (
	"net/netip"
	"strings"
)

// AddressFamily tells how a client address token was written by chronyc.
type AddressFamily int

const (
	FamilyHostname AddressFamily = iota
	FamilyIPv4
	FamilyIPv6
)

func (f AddressFamily) String() string {
	switch f {
	case FamilyIPv4:
		return "ipv4"
	case FamilyIPv6:
		return "ipv6"
	default:
		return "hostname"
	}
}

// ClassifyAddress validates the literal form of token. It never resolves
// names: anything that is not a strict IPv4 dotted quad or a zone-free IPv6
// literal is reported as a hostname, including short numeric forms like "1.2.3".
func ClassifyAddress(token string) AddressFamily {
	if token == "" || strings.TrimSpace(token) != token {
		return FamilyHostname
	}
	addr, err := netip.ParseAddr(token)
	if err != nil {
		return FamilyHostname
	}
	if addr.Is4() {
		return FamilyIPv4
	}
	if addr.Is6() && addr.Zone() == "" {
		return FamilyIPv6
	}
	return FamilyHostname
}

// ipv4Octets returns the four octets of a dotted quad, ok=false otherwise.
func ipv4Octets(token string) ([4]byte, bool) {
	addr, err := netip.ParseAddr(token)
	if err != nil || !addr.Is4() {
		return [4]byte{}, false
	}
	return addr.As4(), true
}

// FamilyIcon is the glyph shown next to an address in the dashboards.
func FamilyIcon(f AddressFamily) string {
	switch f {
	case FamilyIPv4:
		return "🌐"
	case FamilyIPv6:
		return "🔗"
	default:
		return "💻"
	}
}
