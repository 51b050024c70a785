package lib

import (
	"testing"

	sigar "github.com/cloudfoundry/gosigar"
)

func TestMakeMemView(t *testing.T) {
	mv := makeMemView(sigar.Mem{Total: 1000, ActualUsed: 333, ActualFree: 667}, sigar.Swap{})
	if mv.ActualUsedP != 33.3 || !mv.NoSwap {
		t.Fatalf("unexpected view %+v", mv)
	}
	if mv := makeMemView(sigar.Mem{}, sigar.Swap{Total: 1}); mv.ActualUsedP != 0 || mv.NoSwap {
		t.Fatalf("unexpected view %+v", mv)
	}
}

func TestAssessHostHealth(t *testing.T) {
	cases := []struct {
		name    string
		host    HostInfo
		want    Severity
		reasons int
	}{
		{"idle", HostInfo{CPUCount: 4, LoadAvg: sigar.LoadAverage{Five: 0.5}, Mem: MemView{ActualUsedP: 40}}, SeverityOK, 0},
		{"ram warning", HostInfo{Mem: MemView{ActualUsedP: 90}}, SeverityWarning, 1},
		{"ram critical", HostInfo{Mem: MemView{ActualUsedP: 97}}, SeverityCritical, 1},
		{"load warning", HostInfo{CPUCount: 2, LoadAvg: sigar.LoadAverage{Five: 3}}, SeverityWarning, 1},
		{"load critical plus ram", HostInfo{CPUCount: 2, LoadAvg: sigar.LoadAverage{Five: 5}, Mem: MemView{ActualUsedP: 86}}, SeverityCritical, 2},
		{"unknown cpus", HostInfo{LoadAvg: sigar.LoadAverage{Five: 50}}, SeverityOK, 0},
	}
	for _, tc := range cases {
		got := assessHostHealth(tc.host)
		if got.Tier != tc.want || got.Overall != tc.want.String() || len(got.Reasons) != tc.reasons {
			t.Errorf("%s: got %+v", tc.name, got)
		}
	}
}
