package clientcollector

import (
	"github.com/nicesoft-labs/ticc-dash/lib"
	"github.com/prometheus/client_golang/prometheus"
)

// exporter implements prometheus.Collector, reading the cached snapshot on
// each scrape. It never runs the status command itself.
type exporter struct {
	c *Collector

	clients         *prometheus.Desc
	clientsSeverity *prometheus.Desc
	ntpPackets      *prometheus.Desc
	dropPackets     *prometheus.Desc
	cmdPackets      *prometheus.Desc
	lastSeen        *prometheus.Desc
	pollsTotal      *prometheus.Desc
	lastSuccess     *prometheus.Desc
	up              *prometheus.Desc
}

// NewExporter returns the Prometheus view of c.
func NewExporter(c *Collector) prometheus.Collector {
	return &exporter{
		c: c,

		clients: prometheus.NewDesc(
			"ticc_clients",
			"Clients in the last roster by address family.",
			[]string{"family"}, nil,
		),
		clientsSeverity: prometheus.NewDesc(
			"ticc_clients_by_severity",
			"Clients in the last roster by drop severity.",
			[]string{"severity"}, nil,
		),
		ntpPackets: prometheus.NewDesc(
			"ticc_client_ntp_packets",
			"NTP packets received from a client.",
			[]string{"addr"}, nil,
		),
		dropPackets: prometheus.NewDesc(
			"ticc_client_dropped_packets",
			"NTP packets dropped for a client.",
			[]string{"addr"}, nil,
		),
		cmdPackets: prometheus.NewDesc(
			"ticc_client_cmd_packets",
			"Command packets received from a client.",
			[]string{"addr"}, nil,
		),
		lastSeen: prometheus.NewDesc(
			"ticc_client_last_seen_seconds",
			"Seconds since the client was last heard from.",
			[]string{"addr"}, nil,
		),
		pollsTotal: prometheus.NewDesc(
			"ticc_polls_total",
			"Status command invocations by result.",
			[]string{"result"}, nil,
		),
		lastSuccess: prometheus.NewDesc(
			"ticc_last_success_timestamp_seconds",
			"Unix time of the last successful poll.",
			nil, nil,
		),
		up: prometheus.NewDesc(
			"ticc_collector_up",
			"Whether the last poll succeeded.",
			nil, nil,
		),
	}
}

func (e *exporter) Describe(ch chan<- *prometheus.Desc) {
	ch <- e.clients
	ch <- e.clientsSeverity
	ch <- e.ntpPackets
	ch <- e.dropPackets
	ch <- e.cmdPackets
	ch <- e.lastSeen
	ch <- e.pollsTotal
	ch <- e.lastSuccess
	ch <- e.up
	e.c.duration.Describe(ch)
}

func (e *exporter) Collect(ch chan<- prometheus.Metric) {
	snap := e.c.Snapshot()

	ch <- prometheus.MustNewConstMetric(e.clients, prometheus.GaugeValue, float64(snap.Families.Hostnames), lib.FamilyHostname.String())
	ch <- prometheus.MustNewConstMetric(e.clients, prometheus.GaugeValue, float64(snap.Families.IPv4), lib.FamilyIPv4.String())
	ch <- prometheus.MustNewConstMetric(e.clients, prometheus.GaugeValue, float64(snap.Families.IPv6), lib.FamilyIPv6.String())

	ch <- prometheus.MustNewConstMetric(e.clientsSeverity, prometheus.GaugeValue, float64(snap.Summary.OK), "ok")
	ch <- prometheus.MustNewConstMetric(e.clientsSeverity, prometheus.GaugeValue, float64(snap.Summary.Warning), "warning")
	ch <- prometheus.MustNewConstMetric(e.clientsSeverity, prometheus.GaugeValue, float64(snap.Summary.Critical), "critical")

	e.collectClients(ch, snap.Roster.Records)

	ch <- prometheus.MustNewConstMetric(e.pollsTotal, prometheus.CounterValue, float64(e.c.successes.Load()), "success")
	ch <- prometheus.MustNewConstMetric(e.pollsTotal, prometheus.CounterValue, float64(e.c.failures.Load()), "failure")
	ch <- prometheus.MustNewConstMetric(e.lastSuccess, prometheus.GaugeValue, float64(e.c.lastSuccess.Load()))

	up := 0.0
	if snap.Collected() && snap.Roster.Error == "" {
		up = 1
	}
	ch <- prometheus.MustNewConstMetric(e.up, prometheus.GaugeValue, up)
	e.c.duration.Collect(ch)
}

// collectClients emits per-client series. Duplicate addresses keep the first
// row; non-numeric columns are skipped.
func (e *exporter) collectClients(ch chan<- prometheus.Metric, records []lib.ClientRecord) {
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		if _, dup := seen[r.Address]; dup {
			continue
		}
		seen[r.Address] = struct{}{}

		if r.NTP.Valid {
			ch <- prometheus.MustNewConstMetric(e.ntpPackets, prometheus.GaugeValue, float64(r.NTP.Value), r.Address)
		}
		if r.Drop.Valid {
			ch <- prometheus.MustNewConstMetric(e.dropPackets, prometheus.GaugeValue, float64(r.Drop.Value), r.Address)
		}
		if r.Cmd.Valid {
			ch <- prometheus.MustNewConstMetric(e.cmdPackets, prometheus.GaugeValue, float64(r.Cmd.Value), r.Address)
		}
		if r.Last.Valid {
			ch <- prometheus.MustNewConstMetric(e.lastSeen, prometheus.GaugeValue, r.Last.Seconds, r.Address)
		}
	}
}
