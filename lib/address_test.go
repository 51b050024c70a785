package lib

import "testing"

func TestClassifyAddress(t *testing.T) {
	t.Parallel()

	cases := []struct {
		token string
		want  AddressFamily
	}{
		{"10.0.0.5", FamilyIPv4},
		{"0.0.0.0", FamilyIPv4},
		{"255.255.255.255", FamilyIPv4},
		{"::1", FamilyIPv6},
		{"2001:db8::1", FamilyIPv6},
		{"fe80:0:0:0:200:f8ff:fe21:67cf", FamilyIPv6},
		{"::ffff:192.0.2.1", FamilyIPv6},
		{"", FamilyHostname},
		{"host.local", FamilyHostname},
		{"1.2.3", FamilyHostname},
		{"1.2.3.4.5", FamilyHostname},
		{"256.1.1.1", FamilyHostname},
		{"01.2.3.4", FamilyHostname},
		{" 10.0.0.5", FamilyHostname},
		{"10.0.0.5:123", FamilyHostname},
		{"fe80::1%eth0", FamilyHostname},
		{"2001:db8:::1", FamilyHostname},
		{"abc", FamilyHostname},
	}
	for _, tc := range cases {
		if got := ClassifyAddress(tc.token); got != tc.want {
			t.Errorf("ClassifyAddress(%q) = %s, want %s", tc.token, got, tc.want)
		}
	}
}
