package lib

import (
	"fmt"
	"math"
	"os"
	"runtime"
	"time"

	sigar "github.com/cloudfoundry/gosigar"
)

// HostHealth grades the machine running chronyd with the same tiers as clients.
type HostHealth struct {
	Tier    Severity `json:"-"`
	Overall string   `json:"overall"`
	Reasons []string `json:"reasons"`
}

// MemView is the memory summary shown on the dashboard.
type MemView struct {
	Total       uint64  `json:"total"`
	ActualUsed  uint64  `json:"actualUsed"`
	ActualFree  uint64  `json:"actualFree"`
	ActualUsedP float64 `json:"actualUsedPercent"`
	NoSwap      bool    `json:"noSwap"`
}

// HostInfo is a point-in-time snapshot of the local host.
type HostInfo struct {
	Hostname    string            `json:"hostname"`
	Os          string            `json:"os"`
	Arch        string            `json:"arch"`
	Uptime      int               `json:"uptime"`
	UptimeS     string            `json:"uptimeS"`
	BootTime    time.Time         `json:"bootTime"`
	LoadAvg     sigar.LoadAverage `json:"loadAvg"`
	CPUCount    int               `json:"cpuCount"`
	Mem         MemView           `json:"memView"`
	CurrentTime time.Time         `json:"currentTime"`
	Health      HostHealth        `json:"health"`
}

// GetHostInfo reads uptime, load, CPU and memory through gosigar. Probes that
// fail on the current platform leave their fields zero.
func GetHostInfo() HostInfo {
	h := HostInfo{Os: runtime.GOOS, Arch: runtime.GOARCH, CurrentTime: time.Now()}
	if name, err := os.Hostname(); err == nil {
		h.Hostname = name
	}

	var up sigar.Uptime
	if up.Get() == nil {
		h.Uptime = int(up.Length)
		h.UptimeS = up.Format()
		h.BootTime = h.CurrentTime.Add(-time.Duration(h.Uptime) * time.Second)
	}

	var avg sigar.LoadAverage
	if avg.Get() == nil {
		avg.One = round2(avg.One)
		avg.Five = round2(avg.Five)
		avg.Fifteen = round2(avg.Fifteen)
		h.LoadAvg = avg
	}

	var cpus sigar.CpuList
	if cpus.Get() == nil {
		h.CPUCount = len(cpus.List)
	}

	var mem sigar.Mem
	var swap sigar.Swap
	_ = mem.Get()
	_ = swap.Get()
	h.Mem = makeMemView(mem, swap)

	h.Health = assessHostHealth(h)
	return h
}

func makeMemView(m sigar.Mem, sw sigar.Swap) MemView {
	mv := MemView{
		Total:      m.Total,
		ActualUsed: m.ActualUsed,
		ActualFree: m.ActualFree,
		NoSwap:     sw.Total == 0,
	}
	if m.Total > 0 {
		mv.ActualUsedP = round2(100.0 * float64(m.ActualUsed) / float64(m.Total))
	}
	return mv
}

func assessHostHealth(h HostInfo) HostHealth {
	health := HostHealth{Tier: SeverityOK}
	add := func(msg string, tier Severity) {
		health.Reasons = append(health.Reasons, msg)
		if tier > health.Tier {
			health.Tier = tier
		}
	}

	if h.Mem.ActualUsedP > 95 {
		add(fmt.Sprintf("RAM high: %.0f%%", h.Mem.ActualUsedP), SeverityCritical)
	} else if h.Mem.ActualUsedP > 85 {
		add(fmt.Sprintf("RAM high: %.0f%%", h.Mem.ActualUsedP), SeverityWarning)
	}

	if h.CPUCount > 0 {
		if h.LoadAvg.Five > float64(h.CPUCount)*2.0 {
			add("CPU load 5m very high", SeverityCritical)
		} else if h.LoadAvg.Five > float64(h.CPUCount) {
			add("CPU load 5m high", SeverityWarning)
		}
	}

	health.Overall = health.Tier.String()
	return health
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
