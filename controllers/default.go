package controllers

import (
	"time"

	"github.com/nicesoft-labs/ticc-dash/lib"
	"github.com/nicesoft-labs/ticc-dash/services/clientcollector"
)

// clientRow is a server-rendered table row; the browser script takes over
// after the first /data poll.
type clientRow struct {
	lib.ClientRecord
	Severity string
	Icon     string
	LastText string
}

type MainController struct {
	BaseController

	Collector    *clientcollector.Collector
	PollInterval time.Duration
}

func (c *MainController) NestPrepare() {
	c.Data["breadcrumbs"] = &BreadCrumbs{
		Title:    "TICC-DASH",
		Subtitle: "chrony clients",
	}
}

func (c *MainController) Get() {
	for k, v := range indexData(c.Collector.Snapshot(), c.PollInterval, time.Now()) {
		c.Data[k] = v
	}
	c.TplName = "index.tpl"
}

// indexData is the first paint of index.tpl plus the settings its script
// needs.
func indexData(snap *clientcollector.Snapshot, poll time.Duration, now time.Time) map[string]any {
	feed := snap.Feed(now)
	return map[string]any{
		"feed":     feed,
		"rows":     buildClientRows(feed.Clients),
		"summary":  snap.Summary,
		"families": snap.Families,
		"pollMs":   poll.Milliseconds(),
		"ageUnits": lib.AgeUnits(),
	}
}

func buildClientRows(records []lib.ClientRecord) []clientRow {
	rows := make([]clientRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, clientRow{
			ClientRecord: r,
			Severity:     lib.ClassifySeverity(r).String(),
			Icon:         lib.FamilyIcon(r.Family),
			LastText:     r.Last.Human(r.LastSeen),
		})
	}
	return rows
}
